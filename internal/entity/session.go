package entity

import "time"

// Session is one invocation of the batch translation operation, covering all
// uploaded files in that call. Created at batch start, finalized exactly once
// at batch end, never deleted.
type Session struct {
	ID           int64
	TS           time.Time
	Language     string
	FileCount    int
	SuccessCount int
	ErrorCount   int
	ZipPath      string // empty until the batch completes with >=1 success
	DurationMS   int64
}
