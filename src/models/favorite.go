package models

import "rentalhub/src/types"

type Favorite struct {
	ID        uint `gorm:"primarykey" json:"id"`
	UserID    uint `gorm:"uniqueIndex:idx_user_listing" json:"user_id,omitempty"`
	ListingID uint `gorm:"uniqueIndex:idx_user_listing" json:"listing_id,omitempty"`

	Listing *Listing `gorm:"foreignKey:listing_id" json:"listing,omitempty"`

	types.Timestamps
}
