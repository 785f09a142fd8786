package history

import "time"

// Status is the outcome of a recorded run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Directory is one source directory converted during a run.
type Directory struct {
	Source   string
	Target   string
	Manifest string
	Lines    int
	Skipped  int
}

// Run is a recorded conversion.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	TargetRoot   string
	Status       Status
	Lines        int
	Skipped      int
	ErrorMessage string
	// Directories is populated by GetRun; ListRuns only fills DirectoryCount.
	Directories    []Directory
	DirectoryCount int
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
