package models

import "rentalhub/src/types"

type Category struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name,omitempty"`
	Slug string `json:"slug,omitempty"`

	Listings []*Listing `gorm:"many2many:listing_categories;" json:"listings,omitempty"`

	types.Timestamps
}
