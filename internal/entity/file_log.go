package entity

import (
	"time"

	"github.com/posterops/poster-translator/constants"
)

// FileLogEntry is the durable outcome record for one file within one
// session. Append-only, immutable once written.
type FileLogEntry struct {
	ID        int64
	SessionID int64
	TS        time.Time
	Filename  string
	Status    constants.FileStatus
	OutMIME   string // empty for failures
	Message   string
}
