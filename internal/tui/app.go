package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/pdxmph/todo-tui/internal/db"
)

// Store is the task store the UI drives
type Store interface {
	AddTask(task db.Task) (int64, error)
	UpdateTask(task db.Task) error
	DeleteTask(id int64) (bool, error)
	GetTask(id int64) (db.Task, bool, error)
	ListTasks() ([]db.Task, error)
	Search(term string, field db.SearchField) ([]db.Task, error)
	SweepExpired(now time.Time, thresholdDays int) (int64, error)
}

// Mode is the screen the user is on
type Mode int

const (
	ModeList Mode = iota
	ModeAdd
	ModeEdit
	ModeConfirmDelete
	ModeSearch
)

// View is the navigation state: which screen is active and what it works on.
// A non-empty SearchTerm means the list shows search results.
type View struct {
	Mode        Mode
	EditingID   int64
	SearchTerm  string
	SearchField db.SearchField
}

// Options configures a Model
type Options struct {
	ExpiryDays int
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Model represents the main application state
type Model struct {
	store      Store
	expiryDays int
	logger     zerolog.Logger
	now        func() time.Time

	view     View
	tasks    []db.Task
	selected int
	width    int
	height   int

	form           taskForm
	search         textinput.Model
	searchFieldIdx int

	message string // inline notice for recoverable problems
	err     error
}

// Styles
var (
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	overdueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// New creates a new application model and loads the task list
func New(store Store, opts Options) (*Model, error) {
	if opts.ExpiryDays <= 0 {
		opts.ExpiryDays = db.DefaultExpiryDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ti := textinput.New()
	ti.Placeholder = "Enter topic, description, or status"
	ti.Width = 30
	ti.CharLimit = 100
	ti.Prompt = "> "
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	m := &Model{
		store:      store,
		expiryDays: opts.ExpiryDays,
		logger:     opts.Logger.With().Str("component", "tui").Logger(),
		now:        opts.Now,
		view:       View{Mode: ModeList, SearchField: db.SearchAll},
		form:       newTaskForm(),
		search:     ti,
	}

	if err := m.reload(); err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	return m, nil
}

// CurrentView returns the navigation state
func (m Model) CurrentView() View {
	return m.view
}

// Tasks returns the tasks currently listed
func (m Model) Tasks() []db.Task {
	return m.tasks
}

// Message returns the current inline notice
func (m Model) Message() string {
	return m.message
}

// Err returns the storage error being shown, if any
func (m Model) Err() error {
	return m.err
}

// reload refreshes the list. Showing the full list sweeps expired tasks first.
func (m *Model) reload() error {
	var tasks []db.Task
	var err error

	if m.view.SearchTerm != "" {
		tasks, err = m.store.Search(m.view.SearchTerm, m.view.SearchField)
	} else {
		if _, err = m.store.SweepExpired(m.now(), m.expiryDays); err != nil {
			return err
		}
		tasks, err = m.store.ListTasks()
	}
	if err != nil {
		return err
	}

	m.tasks = tasks
	m.selected = m.ensureValidSelection()
	return nil
}

// fail routes an error to the inline notice when the user can fix it, or the
// error screen otherwise
func (m *Model) fail(err error) {
	if errors.Is(err, db.ErrValidation) || errors.Is(err, db.ErrNotFound) {
		var dbErr *db.Error
		if errors.As(err, &dbErr) && dbErr.Msg != "" {
			m.message = dbErr.Msg
		} else {
			m.message = err.Error()
		}
		return
	}
	m.logger.Error().Err(err).Msg("store operation failed")
	m.err = err
}

// ensureValidSelection ensures the current selection is within bounds
func (m Model) ensureValidSelection() int {
	if len(m.tasks) == 0 {
		return 0
	}
	if m.selected >= len(m.tasks) {
		return len(m.tasks) - 1
	}
	if m.selected < 0 {
		return 0
	}
	return m.selected
}

func (m Model) current() (db.Task, bool) {
	if len(m.tasks) == 0 || m.selected >= len(m.tasks) {
		return db.Task{}, false
	}
	return m.tasks[m.selected], true
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 0 {
			m.search.Width = m.width/2 - 6
			m.form.setWidth(m.width/2 - 20)
		}
		return m, nil

	case tea.KeyMsg:
		if m.err != nil {
			if msg.String() == "q" || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			m.err = nil
			if err := m.reload(); err != nil {
				m.fail(err)
			}
			return m, nil
		}

		switch m.view.Mode {
		case ModeAdd, ModeEdit:
			return m.updateForm(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeSearch:
			return m.updateSearch(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.selected < len(m.tasks)-1 {
			m.selected++
		}

	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}

	case "g":
		m.selected = 0

	case "G":
		if len(m.tasks) > 0 {
			m.selected = len(m.tasks) - 1
		}

	case "r":
		if err := m.reload(); err != nil {
			m.fail(err)
		}

	case "a":
		m.view = View{Mode: ModeAdd, SearchTerm: m.view.SearchTerm, SearchField: m.view.SearchField}
		m.form.reset()
		return m, textinput.Blink

	case "e", "enter":
		task, ok := m.current()
		if !ok {
			return m, nil
		}
		fresh, found, err := m.store.GetTask(task.ID)
		if err != nil {
			m.fail(err)
			return m, nil
		}
		if !found {
			m.message = fmt.Sprintf("Task %d no longer exists", task.ID)
			if err := m.reload(); err != nil {
				m.fail(err)
			}
			return m, nil
		}
		m.view.Mode = ModeEdit
		m.view.EditingID = fresh.ID
		m.form.load(fresh)
		return m, textinput.Blink

	case "d", "x":
		task, ok := m.current()
		if !ok {
			return m, nil
		}
		m.view.Mode = ModeConfirmDelete
		m.view.EditingID = task.ID

	case "/":
		m.view.Mode = ModeSearch
		m.search.Reset()
		m.search.SetValue(m.view.SearchTerm)
		m.search.Focus()
		m.searchFieldIdx = 0
		for i, f := range db.SearchFields {
			if f == m.view.SearchField {
				m.searchFieldIdx = i
				break
			}
		}
		return m, textinput.Blink

	case "esc":
		// Leave search results and return to the full list
		if m.view.SearchTerm != "" {
			m.view = View{Mode: ModeList, SearchField: db.SearchAll}
			if err := m.reload(); err != nil {
				m.fail(err)
			}
		}
	}

	return m, nil
}

// backToList leaves the current mode, keeping any active search
func (m *Model) backToList() {
	m.view = View{Mode: ModeList, SearchTerm: m.view.SearchTerm, SearchField: m.view.SearchField}
	m.form.blur()
	m.search.Blur()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.message = ""
		m.backToList()
		return m, nil

	case "ctrl+s":
		task, err := m.form.task(m.view.EditingID)
		if err != nil {
			m.fail(err)
			return m, nil
		}

		if m.view.Mode == ModeAdd {
			var id int64
			id, err = m.store.AddTask(task)
			if err == nil {
				m.logger.Info().Int64("task_id", id).Msg("task added")
				m.message = "Task added successfully!"
			}
		} else {
			err = m.store.UpdateTask(task)
			if err == nil {
				m.logger.Info().Int64("task_id", task.ID).Msg("task updated")
				m.message = "Task updated successfully!"
			}
		}
		if err != nil {
			m.fail(err)
			if errors.Is(err, db.ErrNotFound) {
				m.backToList()
				if err := m.reload(); err != nil {
					m.fail(err)
				}
			}
			return m, nil
		}

		m.backToList()
		if err := m.reload(); err != nil {
			m.fail(err)
		}
		return m, nil

	case "tab":
		m.form.next()
		return m, textinput.Blink

	case "shift+tab":
		m.form.prev()
		return m, textinput.Blink

	case "left", "-":
		if m.form.adjust(-1) {
			return m, nil
		}

	case "right", "+", "=":
		if m.form.adjust(1) {
			return m, nil
		}
	}

	return m, m.form.update(msg)
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := m.view.EditingID
		deleted, err := m.store.DeleteTask(id)
		m.backToList()
		if err != nil {
			m.fail(err)
			return m, nil
		}
		if deleted {
			m.logger.Info().Int64("task_id", id).Msg("task deleted")
			m.message = "Task deleted successfully!"
		} else {
			m.message = fmt.Sprintf("Task %d was already gone", id)
		}
		if err := m.reload(); err != nil {
			m.fail(err)
		}
	default:
		// Any other key cancels
		m.backToList()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.message = ""
		m.backToList()
		return m, nil

	case "tab":
		m.searchFieldIdx = (m.searchFieldIdx + 1) % len(db.SearchFields)
		return m, nil

	case "shift+tab":
		n := len(db.SearchFields)
		m.searchFieldIdx = (m.searchFieldIdx - 1 + n) % n
		return m, nil

	case "enter":
		term := strings.TrimSpace(m.search.Value())
		if term == "" {
			m.message = "Please enter a search term."
			return m, nil
		}

		m.view = View{Mode: ModeList, SearchTerm: term, SearchField: db.SearchFields[m.searchFieldIdx]}
		m.search.Blur()
		m.selected = 0
		if err := m.reload(); err != nil {
			m.fail(err)
			return m, nil
		}
		if len(m.tasks) == 0 {
			m.message = "No tasks found matching the search criteria."
		} else {
			m.message = fmt.Sprintf("Found %d task(s) matching your search.", len(m.tasks))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}
