package domain

import "time"

// FileContent is the body of one project artifact.
type FileContent struct {
	Path      string    `json:"path,omitempty"`
	Blob      string    `json:"blob"`
	UpdatedOn time.Time `json:"updatedOn"`
}
