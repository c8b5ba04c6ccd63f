package models

import "rentalhub/src/types"

type Review struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	OrderID   uint    `gorm:"uniqueIndex:idx_order_author" json:"order_id,omitempty"`
	ListingID uint    `json:"listing_id,omitempty"`
	AuthorID  uint    `gorm:"uniqueIndex:idx_order_author" json:"author_id,omitempty"`
	Rating    uint8   `json:"rating,omitempty"`
	Body      *string `json:"body,omitempty"`
	Hidden    bool    `json:"hidden,omitempty"`

	Author  *User    `gorm:"foreignKey:author_id" json:"author,omitempty"`
	Listing *Listing `gorm:"foreignKey:listing_id" json:"listing,omitempty"`

	types.Timestamps
}
