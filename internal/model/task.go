package model

// TaskList describes one remote to-do list. Diagnostic use only.
type TaskList struct {
	ID          string
	DisplayName string
}

// FileAttachment is the payload uploaded to a created task.
type FileAttachment struct {
	Name         string
	ContentType  string
	ContentBytes string // base64
}
