package models

import (
	"time"
)

// FormDraft is an autosave snapshot of an in-progress registration form.
// Drafts untouched for over an hour are garbage-collected; a successful
// submission deletes its draft.
type FormDraft struct {
	BaseModel
	Payload      string    `json:"payload"`
	LastActiveAt time.Time `gorm:"index" json:"last_active_at"`
}
