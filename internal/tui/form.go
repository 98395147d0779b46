package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pdxmph/todo-tui/internal/db"
	"github.com/pdxmph/todo-tui/internal/score"
)

// Form field indices
const (
	FieldTopic = iota
	FieldDescription
	FieldDue
	FieldStatus
	FieldImpact
	FieldTractability
	FieldUncertainty
	FieldCount // Total number of fields
)

// Rating bounds offered by the form. The store accepts any integer.
const (
	MinRating     = 1
	MaxRating     = 10
	defaultRating = 5
)

// Statuses offered when adding or editing a task
var Statuses = []string{
	db.StatusPending,
	db.StatusInProgress,
	db.StatusOnHold,
	db.StatusCompleted,
	db.StatusExpired,
}

// taskForm holds the add/edit widgets
type taskForm struct {
	field       int
	topic       textinput.Model
	description textarea.Model
	due         textinput.Model
	statuses    []string
	statusIdx   int
	ratings     [3]int // impact, tractability, uncertainty
}

func newTaskForm() taskForm {
	topic := textinput.New()
	topic.Placeholder = "Topic (required)"
	topic.CharLimit = 200
	topic.Width = 40

	desc := textarea.New()
	desc.Placeholder = "Description"
	desc.SetHeight(3)
	desc.SetWidth(40)
	desc.CharLimit = 1000
	desc.ShowLineNumbers = false

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD"
	due.CharLimit = 10
	due.Width = 12

	return taskForm{
		topic:       topic,
		description: desc,
		due:         due,
		statuses:    Statuses,
		ratings:     [3]int{defaultRating, defaultRating, defaultRating},
	}
}

// reset prepares an empty form for a new task
func (f *taskForm) reset() {
	f.topic.SetValue("")
	f.description.Reset()
	f.due.SetValue("")
	f.statuses = Statuses
	f.statusIdx = 0
	f.ratings = [3]int{defaultRating, defaultRating, defaultRating}
	f.focus(FieldTopic)
}

// load fills the form from an existing task
func (f *taskForm) load(t db.Task) {
	f.topic.SetValue(t.Topic)
	f.description.Reset()
	if t.Description.Valid {
		f.description.SetValue(t.Description.String)
	}
	f.due.SetValue(t.DueString())

	// keep a stored status the form doesn't offer rather than silently replacing it
	f.statuses = Statuses
	f.statusIdx = -1
	for i, s := range Statuses {
		if s == t.Status {
			f.statusIdx = i
			break
		}
	}
	if f.statusIdx < 0 {
		f.statuses = append(append([]string{}, Statuses...), t.Status)
		f.statusIdx = len(f.statuses) - 1
	}

	f.ratings = [3]int{clampRating(t.Impact), clampRating(t.Tractability), clampRating(t.Uncertainty)}
	f.focus(FieldTopic)
}

func clampRating(v int) int {
	if v < MinRating {
		return MinRating
	}
	if v > MaxRating {
		return MaxRating
	}
	return v
}

func (f *taskForm) focus(field int) {
	f.topic.Blur()
	f.description.Blur()
	f.due.Blur()
	f.field = field
	switch field {
	case FieldTopic:
		f.topic.Focus()
	case FieldDescription:
		f.description.Focus()
	case FieldDue:
		f.due.Focus()
	}
}

func (f *taskForm) blur() {
	f.topic.Blur()
	f.description.Blur()
	f.due.Blur()
}

func (f *taskForm) next() {
	if f.field < FieldCount-1 {
		f.focus(f.field + 1)
	}
}

func (f *taskForm) prev() {
	if f.field > 0 {
		f.focus(f.field - 1)
	}
}

// adjust moves the selector on the status or rating fields by delta
func (f *taskForm) adjust(delta int) bool {
	switch f.field {
	case FieldStatus:
		n := len(f.statuses)
		f.statusIdx = ((f.statusIdx+delta)%n + n) % n
		return true
	case FieldImpact, FieldTractability, FieldUncertainty:
		i := f.field - FieldImpact
		f.ratings[i] = clampRating(f.ratings[i] + delta)
		return true
	}
	return false
}

// update passes a key to the focused text widget
func (f *taskForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.field {
	case FieldTopic:
		f.topic, cmd = f.topic.Update(msg)
	case FieldDescription:
		f.description, cmd = f.description.Update(msg)
	case FieldDue:
		f.due, cmd = f.due.Update(msg)
	}
	return cmd
}

func (f *taskForm) setWidth(w int) {
	if w < 20 {
		w = 20
	}
	f.topic.Width = w
	f.description.SetWidth(w)
}

func (f taskForm) status() string {
	return f.statuses[f.statusIdx]
}

// preview is the score the current ratings would produce
func (f taskForm) preview() float64 {
	return score.Compute(f.ratings[0], f.ratings[1], f.ratings[2])
}

// task builds a store task from the form, trimming the topic. It fails with
// db.ErrValidation for a blank topic or malformed due date.
func (f taskForm) task(id int64) (db.Task, error) {
	topic := strings.TrimSpace(f.topic.Value())
	if topic == "" {
		return db.Task{}, &db.Error{Kind: db.ErrValidation, Op: "saving task", Msg: "Topic is required!"}
	}

	due, err := db.ParseDue(f.due.Value())
	if err != nil {
		return db.Task{}, err
	}

	return db.Task{
		ID:           id,
		Topic:        topic,
		Description:  db.NewNullString(strings.TrimSpace(f.description.Value())),
		Due:          due,
		Status:       f.status(),
		Impact:       f.ratings[0],
		Tractability: f.ratings[1],
		Uncertainty:  f.ratings[2],
	}, nil
}

// view renders the form body
func (f taskForm) view() string {
	labels := []string{
		"Topic:        ",
		"Description:  ",
		"Due:          ",
		"Status:       ",
		"Impact:       ",
		"Tractability: ",
		"Uncertainty:  ",
	}

	var lines []string
	for i, label := range labels {
		var fieldView string
		switch i {
		case FieldTopic:
			fieldView = f.topic.View()
		case FieldDescription:
			fieldView = f.description.View()
		case FieldDue:
			fieldView = f.due.View()
		case FieldStatus:
			s := f.status()
			styled := statusStyle(s).Render(s)
			if i == f.field {
				fieldView = selectedStyle.Render("< ") + styled + selectedStyle.Render(" >")
			} else {
				fieldView = "  " + styled
			}
		default:
			v := f.ratings[i-FieldImpact]
			bar := fmt.Sprintf("%2d %s", v, strings.Repeat("■", v)+strings.Repeat("·", MaxRating-v))
			if i == f.field {
				fieldView = selectedStyle.Render("< " + bar + " >")
			} else {
				fieldView = "  " + bar
			}
		}

		if i == FieldDescription {
			lines = append(lines, label)
			lines = append(lines, fieldView)
		} else {
			lines = append(lines, label+fieldView)
		}
		lines = append(lines, "")
	}

	lines = append(lines, scoreStyle.Render(
		fmt.Sprintf("Calculated Score: %.2f (Impact × Tractability ÷ Uncertainty)", f.preview())))
	return strings.Join(lines, "\n")
}
