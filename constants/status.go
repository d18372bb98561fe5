package constants

// FileStatus is the canonical outcome for rows in file_logs.
type FileStatus string

// Stable values (store these exact strings in DB).
const (
	FileStatusOK  FileStatus = "OK"  // translated image written
	FileStatusErr FileStatus = "ERR" // terminal failure for this file
)
