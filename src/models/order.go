package models

import (
	"rentalhub/src/types"
	"time"
)

type Order struct {
	ID                uint              `gorm:"primarykey" json:"id"`
	OrderNumber       string            `gorm:"uniqueIndex" json:"order_number,omitempty"`
	ReservationID     uint              `json:"reservation_id,omitempty"`
	ListingID         uint              `json:"listing_id,omitempty"`
	HostID            uint              `json:"host_id,omitempty"`
	RenterID          uint              `json:"renter_id,omitempty"`
	ListingName       string            `json:"listing_name,omitempty"`
	StartDate         time.Time         `gorm:"type:date" json:"start_date,omitempty"`
	EndDate           time.Time         `gorm:"type:date" json:"end_date,omitempty"`
	SubtotalCents     int64             `json:"subtotal_cents,omitempty"`
	TaxCents          int64             `json:"tax_cents,omitempty"`
	CommissionCents   int64             `json:"commission_cents,omitempty"`
	TotalCents        int64             `json:"total_cents,omitempty"`
	Currency          string            `gorm:"default:'usd'" json:"currency,omitempty"`
	Status            types.OrderStatus `gorm:"default:'pending'" json:"status,omitempty"`
	CheckoutSessionId *string           `json:"-"`

	Reservation *Reservation `gorm:"foreignKey:reservation_id" json:"reservation,omitempty"`
	Listing     *Listing     `gorm:"foreignKey:listing_id" json:"listing,omitempty"`
	Host        *User        `gorm:"foreignKey:host_id" json:"host,omitempty"`
	Renter      *User        `gorm:"foreignKey:renter_id" json:"renter,omitempty"`

	types.Timestamps
}
