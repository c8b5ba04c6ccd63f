package models

import "rentalhub/src/types"

type MessageThread struct {
	ID             uint  `gorm:"primarykey" json:"id"`
	ParticipantAID uint  `json:"participant_a_id,omitempty"`
	ParticipantBID uint  `json:"participant_b_id,omitempty"`
	ClaimID        *uint `json:"claim_id,omitempty"`

	ParticipantA *User     `gorm:"foreignKey:participant_a_id" json:"participant_a,omitempty"`
	ParticipantB *User     `gorm:"foreignKey:participant_b_id" json:"participant_b,omitempty"`
	Messages     []Message `gorm:"foreignKey:thread_id" json:"messages,omitempty"`

	types.Timestamps
}

type Message struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	ThreadID    uint   `json:"thread_id,omitempty"`
	SenderID    uint   `json:"sender_id,omitempty"`
	RecipientID uint   `json:"recipient_id,omitempty"`
	Body        string `json:"body,omitempty"`
	System      bool   `json:"system,omitempty"`
	Read        bool   `json:"read"`

	Sender *User `gorm:"foreignKey:sender_id" json:"sender,omitempty"`

	types.Timestamps
}
