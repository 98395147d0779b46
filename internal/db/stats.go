package db

// Summary holds the counts shown under a task list
type Summary struct {
	Total        int
	Pending      int
	Completed    int
	AverageScore float64
}

// Summarize computes summary statistics for tasks. The average of an empty
// list is 0.
func Summarize(tasks []Task) Summary {
	var s Summary
	var total float64
	for _, t := range tasks {
		s.Total++
		total += t.Score
		switch t.Status {
		case StatusPending:
			s.Pending++
		case StatusCompleted:
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.AverageScore = total / float64(s.Total)
	}
	return s
}
