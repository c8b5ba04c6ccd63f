package models

import "rentalhub/src/types"

type Report struct {
	ID           uint               `gorm:"primarykey" json:"id"`
	ReportNumber string             `gorm:"uniqueIndex" json:"report_number,omitempty"`
	ReportFor    string             `json:"report_for,omitempty"`
	ReportedID   uint               `json:"reported_id,omitempty"`
	ReporterID   uint               `json:"reporter_id,omitempty"`
	Reasons      types.StringArray  `gorm:"type:jsonb" json:"reasons,omitempty"`
	Details      *string            `json:"details,omitempty"`
	Status       types.ReportStatus `gorm:"default:'open'" json:"status,omitempty"`
	AssignedTo   *uint              `json:"assigned_to,omitempty"`
	// Snapshot of the reported content at filing time, kept as moderation
	// evidence even if the listing is later edited or redacted.
	ContentSnapshot *types.JSONB `gorm:"type:jsonb" json:"content_snapshot,omitempty"`

	Reporter *User `gorm:"foreignKey:reporter_id" json:"reporter,omitempty"`

	types.Timestamps
}
