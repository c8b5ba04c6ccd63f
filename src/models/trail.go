package models

import (
	"rentalhub/src/types"

	"github.com/google/uuid"
)

// AuditTrail records every moderator and admin action against a resource.
type AuditTrail struct {
	ID        uuid.UUID    `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	ActorID   uint         `json:"actor_id"`
	Action    string       `json:"action"`
	Resource  string       `json:"resource"`
	ResourceID uint        `json:"resource_id"`
	Detail    *types.JSONB `gorm:"type:jsonb" json:"detail,omitempty"`

	types.Timestamps
}
