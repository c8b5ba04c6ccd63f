package models

import (
	"rentalhub/src/types"
	"time"
)

type User struct {
	ID                uint       `gorm:"primarykey" json:"id"`
	Name              string     `json:"name,omitempty"`
	Email             string     `gorm:"uniqueIndex" json:"email,omitempty"`
	Username          string     `json:"username,omitempty"`
	PasswordHash      string     `json:"-"`
	AvatarURL         *string    `json:"avatar_url,omitempty"`
	City              string     `json:"city,omitempty"`
	ZipCode           string     `json:"zip_code,omitempty"`
	Latitude          *float64   `json:"latitude,omitempty"`
	Longitude         *float64   `json:"longitude,omitempty"`
	Role              types.Role `gorm:"default:'user'" json:"role,omitempty"`
	Active            bool       `gorm:"default:true" json:"active"`
	OpenDMs           bool       `gorm:"default:true" json:"open_dms"`
	FoundingSupporter bool       `json:"founding_supporter,omitempty"`
	TopReferrer       bool       `json:"top_referrer,omitempty"`
	Ambassador        bool       `json:"ambassador,omitempty"`
	LastActive        *time.Time `json:"last_active,omitempty"`
	StripeCustomerId  *string    `json:"-"`

	Listings  []Listing  `gorm:"foreignKey:host_id" json:"listings,omitempty"`
	Favorites []Favorite `gorm:"foreignKey:user_id" json:"favorites,omitempty"`

	types.Timestamps
}
