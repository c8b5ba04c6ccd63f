package models

import "rentalhub/src/types"

type Feedback struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	UserID     uint   `json:"user_id,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body,omitempty"`
	Status     string `gorm:"default:'open'" json:"status,omitempty"`
	AssignedTo *uint  `json:"assigned_to,omitempty"`

	User *User `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
