package models

import "rentalhub/src/types"

type Claim struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	ClaimNumber string            `gorm:"uniqueIndex" json:"claim_number,omitempty"`
	OrderID     uint              `json:"order_id,omitempty"`
	ClaimantID  uint              `json:"claimant_id,omitempty"`
	ClaimType   string            `json:"claim_type,omitempty"`
	Priority    uint8             `json:"priority,omitempty"`
	Description *string           `json:"description,omitempty"`
	Status      types.ClaimStatus `gorm:"default:'submitted'" json:"status,omitempty"`
	AssignedTo  *uint             `json:"assigned_to,omitempty"`
	ThreadID    *uint             `json:"thread_id,omitempty"`

	Order    *Order         `gorm:"foreignKey:order_id" json:"order,omitempty"`
	Claimant *User          `gorm:"foreignKey:claimant_id" json:"claimant,omitempty"`
	Thread   *MessageThread `gorm:"foreignKey:thread_id" json:"thread,omitempty"`

	types.Timestamps
}
