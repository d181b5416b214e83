package models

import "time"

// ResizeJob is an asynchronous resize handed to the queue workers.
type ResizeJob struct {
	ID        string        `json:"id"`
	Request   ResizeRequest `json:"request"`
	Status    string        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Result    *ResizeResult `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
