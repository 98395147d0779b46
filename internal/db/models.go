package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Task statuses offered by the entry forms. The store itself accepts any text.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusOnHold     = "On Hold"
	StatusCompleted  = "Completed"
	StatusExpired    = "Expired"
)

// DateLayout is the storage and entry format for due dates
const DateLayout = "2006-01-02"

// Task represents a single tracked task
type Task struct {
	ID           int64
	Topic        string
	Description  sql.NullString
	Due          sql.NullTime
	Status       string
	Impact       int
	Tractability int
	Uncertainty  int
	Score        float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsTerminal reports whether the expiry sweep leaves this task alone
func (t Task) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusExpired
}

// IsOverdue checks if an open task's due date has passed
func (t Task) IsOverdue(now time.Time) bool {
	if !t.Due.Valid || t.IsTerminal() {
		return false
	}
	today := now.Format(DateLayout)
	return t.Due.Time.Format(DateLayout) < today
}

// DueString formats the due date, or returns "" when unset
func (t Task) DueString() string {
	if !t.Due.Valid {
		return ""
	}
	return t.Due.Time.Format(DateLayout)
}

// NewNullString creates a sql.NullString from a string
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// ParseDue parses a YYYY-MM-DD date. Blank input means no due date.
func ParseDue(s string) (sql.NullTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return sql.NullTime{}, validationf("parse due", "due date %q must be YYYY-MM-DD", s)
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

func (t Task) String() string {
	return fmt.Sprintf("#%d %s [%s] %.2f", t.ID, t.Topic, t.Status, t.Score)
}
