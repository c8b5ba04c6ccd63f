package models

import (
	"rentalhub/src/types"
	"time"
)

type Reservation struct {
	ID               uint                    `gorm:"primarykey" json:"id"`
	ListingID        uint                    `json:"listing_id,omitempty"`
	RenterID         uint                    `json:"renter_id,omitempty"`
	HostID           uint                    `json:"host_id,omitempty"`
	StartDate        time.Time               `gorm:"type:date" json:"start_date,omitempty"`
	EndDate          time.Time               `gorm:"type:date" json:"end_date,omitempty"`
	Status           types.ReservationStatus `gorm:"default:'pending'" json:"status,omitempty"`
	DailyPriceCents  int64                   `json:"daily_price_cents,omitempty"`
	TotalDays        uint                    `json:"total_days,omitempty"`
	AddonsTotalCents int64                   `json:"addons_total_cents,omitempty"`
	TotalCents       int64                   `json:"total_cents,omitempty"`
	NewDatesProposed bool                    `json:"new_dates_proposed,omitempty"`
	ProposedBy       *uint                   `json:"proposed_by,omitempty"`

	Listing *Listing `gorm:"foreignKey:listing_id" json:"listing,omitempty"`
	Renter  *User    `gorm:"foreignKey:renter_id" json:"renter,omitempty"`
	Host    *User    `gorm:"foreignKey:host_id" json:"host,omitempty"`

	types.Timestamps
}
