package models

import "rentalhub/src/types"

type Listing struct {
	ID             uint     `gorm:"primarykey" json:"id"`
	Name           string   `json:"name,omitempty"`
	Slug           string   `gorm:"index" json:"slug,omitempty"`
	Description    *string  `json:"description,omitempty"`
	PriceCents     int64    `json:"price_cents,omitempty"`
	HostID         uint     `json:"host_id,omitempty"`
	City           string   `json:"city,omitempty"`
	ZipCode        string   `json:"zip_code,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Delivery       bool     `json:"delivery,omitempty"`
	Pickup         bool     `json:"pickup,omitempty"`
	InstantBooking bool     `json:"instant_booking,omitempty"`
	Enabled        bool     `gorm:"default:true" json:"enabled"`

	Host       *User          `gorm:"foreignKey:host_id" json:"host,omitempty"`
	Images     []ListingImage `gorm:"foreignKey:listing_id" json:"images,omitempty"`
	Addons     []ListingAddon `gorm:"foreignKey:listing_id" json:"addons,omitempty"`
	Categories []*Category    `gorm:"many2many:listing_categories;" json:"categories,omitempty"`

	types.Timestamps
}

type ListingImage struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	ListingID uint   `json:"listing_id,omitempty"`
	URL       string `json:"url,omitempty"`
	ObjectKey string `json:"-"`
	Position  uint8  `json:"position,omitempty"`

	types.Timestamps
}

type ListingAddon struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	ListingID  uint   `json:"listing_id,omitempty"`
	Name       string `json:"name,omitempty"`
	PriceCents int64  `json:"price_cents,omitempty"`

	types.Timestamps
}
