package db

import (
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// testClock hands out strictly increasing times one second apart.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func openTestDB(t *testing.T) (*DB, *testClock) {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "todo.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	clock := &testClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	database.SetClock(clock.Now)
	return database, clock
}

func mustAdd(t *testing.T, database *DB, task Task) int64 {
	t.Helper()
	id, err := database.AddTask(task)
	if err != nil {
		t.Fatalf("AddTask(%q): %v", task.Topic, err)
	}
	return id
}

func mustGet(t *testing.T, database *DB, id int64) Task {
	t.Helper()
	task, found, err := database.GetTask(id)
	if err != nil {
		t.Fatalf("GetTask(%d): %v", id, err)
	}
	if !found {
		t.Fatalf("GetTask(%d): not found", id)
	}
	return task
}

func topics(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Topic
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddAndGetTask_RoundTrip(t *testing.T) {
	database, _ := openTestDB(t)

	due, err := ParseDue("2024-12-31")
	if err != nil {
		t.Fatalf("ParseDue: %v", err)
	}
	in := Task{
		Topic:        "Test Task",
		Description:  NewNullString("This is a test task description"),
		Due:          due,
		Status:       StatusPending,
		Impact:       7,
		Tractability: 3,
		Uncertainty:  4,
	}
	id := mustAdd(t, database, in)

	got := mustGet(t, database, id)
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if got.Topic != in.Topic || got.Description != in.Description || got.Status != in.Status {
		t.Errorf("text fields mismatch: %+v", got)
	}
	if got.DueString() != "2024-12-31" {
		t.Errorf("Due = %q, want 2024-12-31", got.DueString())
	}
	if got.Impact != 7 || got.Tractability != 3 || got.Uncertainty != 4 {
		t.Errorf("ratings mismatch: %+v", got)
	}
	if got.Score != 5.25 {
		t.Errorf("Score = %v, want 5.25", got.Score)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("CreatedAt %v != UpdatedAt %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestAddTask_OptionalFieldsAndDefaults(t *testing.T) {
	database, _ := openTestDB(t)

	id := mustAdd(t, database, Task{Topic: "Bare", Impact: 1, Tractability: 1, Uncertainty: 1})
	got := mustGet(t, database, id)

	if got.Description.Valid {
		t.Errorf("Description = %+v, want NULL", got.Description)
	}
	if got.Due.Valid {
		t.Errorf("Due = %+v, want NULL", got.Due)
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, StatusPending)
	}
}

func TestAddTask_AcceptsOutOfRangeRatings(t *testing.T) {
	database, _ := openTestDB(t)

	id := mustAdd(t, database, Task{Topic: "Odd", Impact: -4, Tractability: 3, Uncertainty: 2})
	if got := mustGet(t, database, id); got.Score != -6 {
		t.Errorf("Score = %v, want -6", got.Score)
	}

	id = mustAdd(t, database, Task{Topic: "Zero", Impact: 9, Tractability: 0, Uncertainty: 2})
	if got := mustGet(t, database, id); got.Score != 0 {
		t.Errorf("Score = %v, want 0", got.Score)
	}
}

func TestAddTask_RejectsBlankTopic(t *testing.T) {
	database, _ := openTestDB(t)

	for _, topic := range []string{"", "   ", "\t\n"} {
		_, err := database.AddTask(Task{Topic: topic, Impact: 5, Tractability: 5, Uncertainty: 5})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("AddTask(%q) error = %v, want ErrValidation", topic, err)
		}
	}

	tasks, err := database.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no rows after rejected adds, got %d", len(tasks))
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.db")
	database, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustAdd(t, database, Task{Topic: "Keep me", Impact: 2, Tractability: 2, Uncertainty: 2})

	if err := database.Initialize(); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	database.Close()

	reopened, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	tasks, err := reopened.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Topic != "Keep me" {
		t.Fatalf("expected the original row only, got %v", topics(tasks))
	}
}

func TestUpdateTask(t *testing.T) {
	database, _ := openTestDB(t)

	id := mustAdd(t, database, Task{
		Topic:        "Draft",
		Description:  NewNullString("first"),
		Status:       StatusPending,
		Impact:       2,
		Tractability: 2,
		Uncertainty:  2,
	})
	before := mustGet(t, database, id)

	updated := Task{
		ID:           id,
		Topic:        "Final",
		Status:       StatusInProgress,
		Impact:       6,
		Tractability: 4,
		Uncertainty:  3,
	}
	if err := database.UpdateTask(updated); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	after := mustGet(t, database, id)
	if after.Topic != "Final" || after.Status != StatusInProgress {
		t.Errorf("fields not rewritten: %+v", after)
	}
	if after.Description.Valid {
		t.Errorf("Description should be cleared by full replace, got %+v", after.Description)
	}
	if after.Score != 8.0 {
		t.Errorf("Score = %v, want 8", after.Score)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}

	// identical values still refresh updated_at
	if err := database.UpdateTask(updated); err != nil {
		t.Fatalf("second UpdateTask: %v", err)
	}
	again := mustGet(t, database, id)
	if !again.UpdatedAt.After(after.UpdatedAt) {
		t.Errorf("UpdatedAt did not advance on identical update: %v -> %v", after.UpdatedAt, again.UpdatedAt)
	}
	if again.CreatedAt.After(again.UpdatedAt) {
		t.Errorf("CreatedAt %v after UpdatedAt %v", again.CreatedAt, again.UpdatedAt)
	}
}

func TestUpdateTask_Errors(t *testing.T) {
	database, _ := openTestDB(t)

	err := database.UpdateTask(Task{ID: 42, Topic: "Ghost", Impact: 1, Tractability: 1, Uncertainty: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateTask unknown id error = %v, want ErrNotFound", err)
	}

	id := mustAdd(t, database, Task{Topic: "Real", Impact: 1, Tractability: 1, Uncertainty: 1})
	err = database.UpdateTask(Task{ID: id, Topic: " ", Impact: 1, Tractability: 1, Uncertainty: 1})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("UpdateTask blank topic error = %v, want ErrValidation", err)
	}
	if got := mustGet(t, database, id); got.Topic != "Real" {
		t.Errorf("topic changed after rejected update: %q", got.Topic)
	}
}

func TestDeleteTask(t *testing.T) {
	database, _ := openTestDB(t)

	keep := mustAdd(t, database, Task{Topic: "Keep", Impact: 1, Tractability: 1, Uncertainty: 1})
	drop := mustAdd(t, database, Task{Topic: "Drop", Impact: 1, Tractability: 1, Uncertainty: 1})

	deleted, err := database.DeleteTask(drop)
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if !deleted {
		t.Error("expected deleted == true")
	}

	if _, found, err := database.GetTask(drop); err != nil || found {
		t.Errorf("GetTask after delete: found=%v err=%v", found, err)
	}

	tasks, err := database.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != keep {
		t.Errorf("ListTasks after delete = %v", topics(tasks))
	}

	// unknown id is a silent no-op
	deleted, err = database.DeleteTask(drop)
	if err != nil {
		t.Fatalf("DeleteTask missing id: %v", err)
	}
	if deleted {
		t.Error("expected deleted == false for missing id")
	}
}

func TestIDsAreNeverReused(t *testing.T) {
	database, _ := openTestDB(t)

	var ids []int64
	for _, topic := range []string{"one", "two", "three"} {
		ids = append(ids, mustAdd(t, database, Task{Topic: topic, Impact: 1, Tractability: 1, Uncertainty: 1}))
	}
	if ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("ids = %v, want [1 2 3]", ids)
	}

	if _, err := database.DeleteTask(2); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	next := mustAdd(t, database, Task{Topic: "four", Impact: 1, Tractability: 1, Uncertainty: 1})
	if next != 4 {
		t.Errorf("next id = %d, want 4", next)
	}

	// the highest id being deleted must not free it either
	if _, err := database.DeleteTask(4); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	next = mustAdd(t, database, Task{Topic: "five", Impact: 1, Tractability: 1, Uncertainty: 1})
	if next != 5 {
		t.Errorf("next id after deleting max = %d, want 5", next)
	}
}

func TestGetTask_Missing(t *testing.T) {
	database, _ := openTestDB(t)

	task, found, err := database.GetTask(99)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if found {
		t.Errorf("expected not found, got %+v", task)
	}
}

func TestListTasks_OrderedByScore(t *testing.T) {
	database, _ := openTestDB(t)

	mustAdd(t, database, Task{Topic: "High Priority Task", Status: StatusPending, Impact: 9, Tractability: 8, Uncertainty: 2})
	mustAdd(t, database, Task{Topic: "Low Priority Task", Status: StatusPending, Impact: 3, Tractability: 4, Uncertainty: 7})
	mustAdd(t, database, Task{Topic: "Completed Task", Status: StatusCompleted, Impact: 6, Tractability: 7, Uncertainty: 3})

	tasks, err := database.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	want := []string{"High Priority Task", "Completed Task", "Low Priority Task"}
	if got := topics(tasks); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if math.Abs(tasks[2].Score-12.0/7.0) > 1e-9 {
		t.Errorf("low score = %v", tasks[2].Score)
	}
}

func TestListTasks_TiesByDueWithUndatedLast(t *testing.T) {
	database, _ := openTestDB(t)

	dated := func(s string) sql.NullTime {
		d, err := ParseDue(s)
		if err != nil {
			t.Fatalf("ParseDue: %v", err)
		}
		return d
	}

	mustAdd(t, database, Task{Topic: "undated", Impact: 2, Tractability: 2, Uncertainty: 1})
	mustAdd(t, database, Task{Topic: "late", Due: dated("2025-03-01"), Impact: 2, Tractability: 2, Uncertainty: 1})
	mustAdd(t, database, Task{Topic: "early", Due: dated("2024-11-15"), Impact: 4, Tractability: 1, Uncertainty: 1})
	mustAdd(t, database, Task{Topic: "top", Impact: 10, Tractability: 1, Uncertainty: 1})

	tasks, err := database.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	want := []string{"top", "early", "late", "undated"}
	if got := topics(tasks); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestListTasks_Empty(t *testing.T) {
	database, _ := openTestDB(t)

	tasks, err := database.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestOpen_StorageError(t *testing.T) {
	// a directory cannot be opened as a database file
	dir := t.TempDir()
	_, err := Open(dir, zerolog.Nop())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("Open(dir) error = %v, want ErrStorage", err)
	}
}
