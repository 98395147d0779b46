package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// CreateFixturesDatabase creates a database with sample tasks for trying the UI
func CreateFixturesDatabase(dbPath string, logger zerolog.Logger) error {
	if _, err := os.Stat(dbPath); err == nil {
		return fmt.Errorf("database already exists at %s", dbPath)
	}

	database, err := Open(dbPath, logger)
	if err != nil {
		return fmt.Errorf("opening fixtures database: %w", err)
	}
	defer database.Close()

	now := time.Now()
	due := func(days int) sql.NullTime {
		d := now.AddDate(0, 0, days)
		return sql.NullTime{Time: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
	}

	fixtures := []struct {
		age  int // days since creation
		task Task
	}{
		{120, Task{
			Topic:        "Renew passport",
			Description:  NewNullString("Old application that never got finished"),
			Status:       StatusOnHold,
			Impact:       6,
			Tractability: 5,
			Uncertainty:  2,
		}},
		{30, Task{
			Topic:        "Ship release notes",
			Description:  NewNullString("Collect merged changes and write the summary"),
			Due:          due(3),
			Status:       StatusInProgress,
			Impact:       9,
			Tractability: 8,
			Uncertainty:  2,
		}},
		{14, Task{
			Topic:        "Tax paperwork",
			Description:  NewNullString("Gather receipts for the accountant"),
			Due:          due(-2),
			Status:       StatusPending,
			Impact:       8,
			Tractability: 4,
			Uncertainty:  3,
		}},
		{10, Task{
			Topic:        "Explore new database",
			Description:  NewNullString("Spike on whether a move is worth it"),
			Status:       StatusPending,
			Impact:       5,
			Tractability: 3,
			Uncertainty:  9,
		}},
		{7, Task{
			Topic:        "Fix bike brakes",
			Due:          due(10),
			Status:       StatusPending,
			Impact:       4,
			Tractability: 9,
			Uncertainty:  1,
		}},
		{40, Task{
			Topic:        "Book dentist appointment",
			Description:  NewNullString("Annual checkup"),
			Due:          due(-20),
			Status:       StatusCompleted,
			Impact:       3,
			Tractability: 10,
			Uncertainty:  1,
		}},
	}

	for _, f := range fixtures {
		created := now.AddDate(0, 0, -f.age)
		database.SetClock(func() time.Time { return created })
		if _, err := database.AddTask(f.task); err != nil {
			return fmt.Errorf("adding fixture task %s: %w", f.task.Topic, err)
		}
	}

	return nil
}
