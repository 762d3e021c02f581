package domain

import "time"

// SyncStats holds statistics about one polling cycle.
type SyncStats struct {
	Job       string
	Matched   int
	Completed int
	Skipped   int
	Failed    int
	Published int
	Stopped   bool
	Duration  time.Duration
}
