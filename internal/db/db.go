package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/pdxmph/todo-tui/internal/score"
)

// DefaultExpiryDays is the task age after which open tasks are swept to Expired
const DefaultExpiryDays = 90

// timestampLayout is fixed width so stored timestamps order correctly as text
const timestampLayout = "2006-01-02 15:04:05.000000"

// SearchField selects which columns Search matches against
type SearchField string

const (
	SearchAll         SearchField = "all"
	SearchTopic       SearchField = "topic"
	SearchDescription SearchField = "description"
	SearchStatus      SearchField = "status"
)

// SearchFields lists the accepted search fields in display order
var SearchFields = []SearchField{SearchAll, SearchTopic, SearchDescription, SearchStatus}

const taskColumns = `
	id, topic, description, due, status,
	impact, tractability, uncertainty, score,
	created_at, updated_at`

// Tasks with the same score sort by due date; undated tasks go after dated ones.
const taskOrder = `ORDER BY score DESC, due IS NULL, due ASC, id ASC`

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at dbPath and ensures the schema
func Open(dbPath string, logger zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, storageErr("opening database", err)
	}
	// single writer
	conn.SetMaxOpenConns(1)

	db := &DB{
		conn:   conn,
		logger: logger.With().Str("component", "store").Logger(),
		now:    time.Now,
	}

	if err := db.Initialize(); err != nil {
		conn.Close()
		return nil, err
	}

	db.logger.Debug().Str("path", dbPath).Msg("opened task database")
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// SetClock replaces the time source used for created_at and updated_at
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func dueValue(due sql.NullTime) any {
	if !due.Valid {
		return nil
	}
	return due.Time.Format(DateLayout)
}

func statusValue(status string) string {
	if strings.TrimSpace(status) == "" {
		return StatusPending
	}
	return status
}

func validateTask(op string, task Task) error {
	if strings.TrimSpace(task.Topic) == "" {
		return validationf(op, "topic is required")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.Topic, &t.Description, &t.Due, &t.Status,
		&t.Impact, &t.Tractability, &t.Uncertainty, &t.Score,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func (db *DB) queryTasks(op, query string, args ...any) ([]Task, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		db.logger.Error().Err(err).Str("op", op).Msg("query failed")
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storageErr(op, fmt.Errorf("scanning task: %w", err))
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return tasks, nil
}

// AddTask inserts a new task and returns its id. ID, Score and the
// timestamps on the argument are ignored.
func (db *DB) AddTask(task Task) (int64, error) {
	if err := validateTask("adding task", task); err != nil {
		return 0, err
	}

	now := formatTimestamp(db.now())
	query := `
		INSERT INTO tasks (
			topic, description, due, status,
			impact, tractability, uncertainty, score,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.conn.Exec(query,
		task.Topic,
		task.Description,
		dueValue(task.Due),
		statusValue(task.Status),
		task.Impact,
		task.Tractability,
		task.Uncertainty,
		score.Compute(task.Impact, task.Tractability, task.Uncertainty),
		now,
		now,
	)
	if err != nil {
		db.logger.Error().Err(err).Msg("failed to insert task")
		return 0, storageErr("inserting task", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageErr("getting insert ID", err)
	}

	db.logger.Debug().Int64("task_id", id).Msg("created task")
	return id, nil
}

// UpdateTask rewrites every field of task.ID except created_at and
// recomputes its score.
func (db *DB) UpdateTask(task Task) error {
	if err := validateTask("updating task", task); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET topic = ?,
		    description = ?,
		    due = ?,
		    status = ?,
		    impact = ?,
		    tractability = ?,
		    uncertainty = ?,
		    score = ?,
		    updated_at = ?
		WHERE id = ?
	`

	result, err := db.conn.Exec(query,
		task.Topic,
		task.Description,
		dueValue(task.Due),
		statusValue(task.Status),
		task.Impact,
		task.Tractability,
		task.Uncertainty,
		score.Compute(task.Impact, task.Tractability, task.Uncertainty),
		formatTimestamp(db.now()),
		task.ID,
	)
	if err != nil {
		db.logger.Error().Err(err).Int64("task_id", task.ID).Msg("failed to update task")
		return storageErr("updating task", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return storageErr("updating task", err)
	}
	if n == 0 {
		return notFound("updating task", task.ID)
	}

	db.logger.Debug().Int64("task_id", task.ID).Msg("updated task")
	return nil
}

// DeleteTask permanently deletes a task. Deleting an unknown id is a no-op
// and reports deleted == false.
func (db *DB) DeleteTask(id int64) (bool, error) {
	result, err := db.conn.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		db.logger.Error().Err(err).Int64("task_id", id).Msg("failed to delete task")
		return false, storageErr("deleting task", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, storageErr("deleting task", err)
	}

	db.logger.Debug().Int64("task_id", id).Int64("rows", n).Msg("deleted task")
	return n > 0, nil
}

// GetTask retrieves a single task by ID
func (db *DB) GetTask(id int64) (Task, bool, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	t, err := scanTask(db.conn.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, storageErr("getting task", err)
	}
	return t, true, nil
}

// ListTasks returns all tasks, highest score first
func (db *DB) ListTasks() ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ` + taskOrder
	return db.queryTasks("listing tasks", query)
}

// escapeLike makes % and _ in a search term match literally
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// Search returns tasks whose field contains term, ignoring case, in ListTasks order
func (db *DB) Search(term string, field SearchField) ([]Task, error) {
	pattern := escapeLike(term)

	var where string
	var args []any
	switch field {
	case SearchAll:
		where = `topic LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR status LIKE ? ESCAPE '\'`
		args = []any{pattern, pattern, pattern}
	case SearchTopic:
		where = `topic LIKE ? ESCAPE '\'`
		args = []any{pattern}
	case SearchDescription:
		where = `description LIKE ? ESCAPE '\'`
		args = []any{pattern}
	case SearchStatus:
		where = `status LIKE ? ESCAPE '\'`
		args = []any{pattern}
	default:
		return nil, validationf("searching tasks", "unknown search field %q", field)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` ` + taskOrder
	return db.queryTasks("searching tasks", query, args...)
}

// SweepExpired marks open tasks created more than thresholdDays before now
// as Expired and returns how many changed. A non-positive threshold uses
// DefaultExpiryDays.
func (db *DB) SweepExpired(now time.Time, thresholdDays int) (int64, error) {
	if thresholdDays <= 0 {
		thresholdDays = DefaultExpiryDays
	}
	cutoff := now.AddDate(0, 0, -thresholdDays)

	query := `
		UPDATE tasks
		SET status = ?,
		    updated_at = ?
		WHERE created_at < ?
		  AND status NOT IN (?, ?)
	`
	result, err := db.conn.Exec(query,
		StatusExpired,
		formatTimestamp(now),
		formatTimestamp(cutoff),
		StatusCompleted,
		StatusExpired,
	)
	if err != nil {
		db.logger.Error().Err(err).Msg("failed to sweep expired tasks")
		return 0, storageErr("sweeping expired tasks", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr("sweeping expired tasks", err)
	}
	if n > 0 {
		db.logger.Info().Int64("count", n).Int("threshold_days", thresholdDays).Msg("expired stale tasks")
	}
	return n, nil
}
