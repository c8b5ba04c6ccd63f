package models

import (
	"rentalhub/src/types"
	"time"

	"github.com/google/uuid"
)

// JobTask persists a one-time scheduler job so pending work survives a
// restart. Boot re-enqueues anything still pending.
type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	Name    string      `json:"-"`
	JobType string      `json:"-"`
	RunsAt  time.Time   `json:"-"`
	Payload types.JSONB `gorm:"type:jsonb" json:"-"`
	Source  string      `json:"-"`
	Status  string      `gorm:"default:'pending'" json:"-"`
}
