package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StringArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Role string

const (
	ROLE_USER      Role = "user"
	ROLE_MODERATOR Role = "moderator"
	ROLE_ADMIN     Role = "admin"
)

type ReservationStatus string

const (
	RESERVATION_PENDING   ReservationStatus = "pending"
	RESERVATION_ACCEPTED  ReservationStatus = "accepted"
	RESERVATION_REJECTED  ReservationStatus = "rejected"
	RESERVATION_CANCELLED ReservationStatus = "cancelled"
	RESERVATION_CONFIRMED ReservationStatus = "confirmed"
	RESERVATION_EXPIRED   ReservationStatus = "expired"
)

type OrderStatus string

const (
	ORDER_PENDING   OrderStatus = "pending"
	ORDER_UPCOMING  OrderStatus = "upcoming"
	ORDER_ACTIVE    OrderStatus = "active"
	ORDER_COMPLETED OrderStatus = "completed"
	ORDER_CANCELLED OrderStatus = "cancelled"
)

type ClaimStatus string

const (
	CLAIM_SUBMITTED     ClaimStatus = "submitted"
	CLAIM_IN_REVIEW     ClaimStatus = "in_review"
	CLAIM_AWAITING_INFO ClaimStatus = "awaiting_info"
	CLAIM_RESOLVED      ClaimStatus = "resolved"
	CLAIM_REJECTED      ClaimStatus = "rejected"
)

var ValidClaimStatuses = []ClaimStatus{
	CLAIM_SUBMITTED,
	CLAIM_IN_REVIEW,
	CLAIM_AWAITING_INFO,
	CLAIM_RESOLVED,
	CLAIM_REJECTED,
}

// Priority 1 is handled first.
var ClaimPriorities = map[string]uint8{
	"missing":     1,
	"theft":       1,
	"damage":      2,
	"late return": 3,
	"other":       4,
}

type ReportStatus string

const (
	REPORT_OPEN         ReportStatus = "open"
	REPORT_IN_REVIEW    ReportStatus = "in_review"
	REPORT_ACTION_TAKEN ReportStatus = "action_taken"
	REPORT_DISMISSED    ReportStatus = "dismissed"
)

var ValidReportStatuses = []ReportStatus{
	REPORT_OPEN,
	REPORT_IN_REVIEW,
	REPORT_ACTION_TAKEN,
	REPORT_DISMISSED,
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password" binding:"required,min=8"`
	ZipCode  string `json:"zip_code,omitempty" binding:"omitempty,len=5"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleOAuthRequestBody struct {
	Code     string `json:"code" binding:"required"`
	Redirect string `json:"redirect,omitempty"`
}

type PasswordResetRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetVerifyBody struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type PasswordResetSubmitBody struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required,len=6"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateProfileRequestBody struct {
	Name      string  `json:"name,omitempty"`
	Username  string  `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	City      string  `json:"city,omitempty"`
	ZipCode   string  `json:"zip_code,omitempty" binding:"omitempty,len=5"`
	OpenDMs   *bool   `json:"open_dms,omitempty"`
}

type ListingAddonInput struct {
	Name       string `json:"name" binding:"required"`
	PriceCents int64  `json:"price_cents" binding:"required,min=0"`
}

type CreateListingRequestBody struct {
	Name           string              `json:"name" binding:"required"`
	Description    string              `json:"description,omitempty"`
	PriceCents     int64               `json:"price_cents" binding:"required,min=1"`
	ZipCode        string              `json:"zip_code" binding:"required,len=5"`
	City           string              `json:"city,omitempty"`
	Categories     []string            `json:"categories" binding:"required,min=1"`
	Images         []string            `json:"images" binding:"required,min=1"`
	Addons         []ListingAddonInput `json:"addons,omitempty"`
	Delivery       bool                `json:"delivery,omitempty"`
	Pickup         bool                `json:"pickup,omitempty"`
	InstantBooking bool                `json:"instant_booking,omitempty"`
}

type UpdateListingRequestBody struct {
	Name           *string             `json:"name,omitempty"`
	Description    *string             `json:"description,omitempty"`
	PriceCents     *int64              `json:"price_cents,omitempty" binding:"omitempty,min=1"`
	ZipCode        *string             `json:"zip_code,omitempty" binding:"omitempty,len=5"`
	City           *string             `json:"city,omitempty"`
	Categories     []string            `json:"categories,omitempty"`
	Images         []string            `json:"images,omitempty"`
	Addons         []ListingAddonInput `json:"addons,omitempty"`
	Delivery       *bool               `json:"delivery,omitempty"`
	Pickup         *bool               `json:"pickup,omitempty"`
	InstantBooking *bool               `json:"instant_booking,omitempty"`
	Enabled        *bool               `json:"enabled,omitempty"`
}

type ListingQueryFilters struct {
	Category       string  `form:"category"`
	PriceMin       int64   `form:"price_min"`
	PriceMax       int64   `form:"price_max"`
	Search         string  `form:"q"`
	ZipCode        string  `form:"zip" binding:"omitempty,len=5"`
	RadiusMiles    float64 `form:"radius"`
	Delivery       *bool   `form:"delivery"`
	InstantBooking *bool   `form:"instant_booking"`
	Page           int     `form:"page"`
	PerPage        int     `form:"per_page"`
}

type CreateReservationRequestBody struct {
	ListingID uint   `json:"listing_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required,rentaldate"`
	EndDate   string `json:"end_date" binding:"required,rentaldate,gtedate=StartDate"`
	AddonIDs  []uint `json:"addon_ids,omitempty"`
}

type UpdateReservationStatusRequestBody struct {
	Status ReservationStatus `json:"status" binding:"required"`
}

type ProposeReservationDatesRequestBody struct {
	StartDate string `json:"start_date" binding:"required,rentaldate"`
	EndDate   string `json:"end_date" binding:"required,rentaldate,gtedate=StartDate"`
}

type CreateOrderRequestBody struct {
	ReservationID uint `json:"reservation_id" binding:"required"`
}

type CreateClaimRequestBody struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	ClaimType   string `json:"claim_type" binding:"required,oneof=missing theft damage 'late return' other"`
	Description string `json:"description" binding:"required"`
}

type CreateReportRequestBody struct {
	ReportFor  string   `json:"report_for" binding:"required,oneof=listing user"`
	ReportedID uint     `json:"reported_id" binding:"required"`
	Reasons    []string `json:"reasons" binding:"required,min=1"`
	Details    string   `json:"details,omitempty"`
}

type ReportActionRequestBody struct {
	FieldsToRemove []string `json:"fields_to_remove" binding:"required,min=1"`
	Notice         string   `json:"notice" binding:"required"`
}

type AssignRequestBody struct {
	AssignedTo uint `json:"assigned_to" binding:"required"`
}

type UpdateStatusRequestBody struct {
	Status string `json:"status" binding:"required"`
}

type CreateThreadRequestBody struct {
	RecipientID uint   `json:"recipient_id" binding:"required"`
	Body        string `json:"body" binding:"required"`
}

type CreateMessageRequestBody struct {
	Body string `json:"body" binding:"required"`
}

type CreateReviewRequestBody struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Rating  uint8  `json:"rating" binding:"required,min=1,max=5"`
	Body    string `json:"body,omitempty"`
}

type CreateFeedbackRequestBody struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

type AdminListQueryFilters struct {
	Status     string `form:"status"`
	AssignedTo uint   `form:"assigned_to"`
	Search     string `form:"q"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}
