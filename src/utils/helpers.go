package utils

import (
	"errors"
	"fmt"
	"log"
	"os"
	"rentalhub/src/config"
	"rentalhub/src/db"
	"rentalhub/src/lib"
	"rentalhub/src/lib/aws"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"strconv"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	sesTypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

var (
	// ErrDateConflict maps to HTTP 409 in the reservation handlers.
	ErrDateConflict = errors.New("requested dates conflict with an existing reservation")
	ErrNotAllowed   = errors.New("not enough permissions to perform this action")
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

func GenerateJWT(email string, userId uint, role string) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Username: email,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userId)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(jwtKey)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func newReference(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s", prefix, id[:8])
}

func NewOrderNumber() string  { return newReference("RNT") }
func NewClaimNumber() string  { return newReference("CLM") }
func NewReportNumber() string { return newReference("RPT") }

// TotalDays counts the booked days of an inclusive date range.
func TotalDays(start, end time.Time) uint {
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 0
	}
	return uint(days)
}

type ReservationPricing struct {
	DailyPriceCents  int64
	TotalDays        uint
	AddonsTotalCents int64
	TotalCents       int64
}

func ComputeReservationPricing(listing *models.Listing, addonIDs []uint, start, end time.Time) ReservationPricing {
	days := TotalDays(start, end)
	var addonsTotal int64
	for _, addon := range listing.Addons {
		for _, id := range addonIDs {
			if addon.ID == id {
				addonsTotal += addon.PriceCents
			}
		}
	}
	return ReservationPricing{
		DailyPriceCents:  listing.PriceCents,
		TotalDays:        days,
		AddonsTotalCents: addonsTotal,
		TotalCents:       listing.PriceCents*int64(days) + addonsTotal,
	}
}

type OrderTotals struct {
	SubtotalCents   int64
	TaxCents        int64
	CommissionCents int64
	TotalCents      int64
}

func ComputeOrderTotals(subtotalCents int64) OrderTotals {
	tax := int64(float64(subtotalCents) * config.TAX_RATE)
	commission := int64(float64(subtotalCents) * config.COMMISSION_RATE)
	return OrderTotals{
		SubtotalCents:   subtotalCents,
		TaxCents:        tax,
		CommissionCents: commission,
		TotalCents:      subtotalCents + tax + commission,
	}
}

// HasDateConflict reports whether any pending or accepted reservation for the
// listing intersects the inclusive range. Callers must hold the listing row
// lock so the check stays valid until their insert commits.
func HasDateConflict(tx *gorm.DB, listingId uint, start, end time.Time, excludeId uint) (bool, error) {
	var count int64
	q := tx.
		Model(&models.Reservation{}).
		Where("listing_id = ?", listingId).
		Where("status IN ?", []types.ReservationStatus{types.RESERVATION_PENDING, types.RESERVATION_ACCEPTED}).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if excludeId > 0 {
		q = q.Where("id <> ?", excludeId)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateReservation inserts a reservation after an overlap check performed
// under a listing row lock, so two concurrent requests for intersecting
// ranges cannot both succeed.
func CreateReservation(renterId uint, params *types.CreateReservationRequestBody) (*models.Reservation, error) {
	start, err := time.Parse(config.DATE_PARSE_FORMAT, params.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(config.DATE_PARSE_FORMAT, params.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.New("end_date must not precede start_date")
	}

	var reservation models.Reservation
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var listing models.Listing
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.Listing{ID: params.ListingID, Enabled: true}).
			Preload("Addons").
			First(&listing).
			Error; err != nil {
			return err
		}
		if listing.HostID == renterId {
			return errors.New("hosts cannot reserve their own listing")
		}
		conflict, err := HasDateConflict(tx, listing.ID, start, end, 0)
		if err != nil {
			return err
		}
		if conflict {
			return ErrDateConflict
		}
		pricing := ComputeReservationPricing(&listing, params.AddonIDs, start, end)
		status := types.RESERVATION_PENDING
		if listing.InstantBooking {
			status = types.RESERVATION_ACCEPTED
		}
		reservation = models.Reservation{
			ListingID:        listing.ID,
			RenterID:         renterId,
			HostID:           listing.HostID,
			StartDate:        start,
			EndDate:          end,
			Status:           status,
			DailyPriceCents:  pricing.DailyPriceCents,
			TotalDays:        pricing.TotalDays,
			AddonsTotalCents: pricing.AddonsTotalCents,
			TotalCents:       pricing.TotalCents,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go ScheduleReservationExpiry(reservation.ID, start)
	return &reservation, nil
}

// ProposeReservationDates overwrites the range, resets the status to pending
// and re-runs the conflict check under the same listing lock.
func ProposeReservationDates(reservationId uint, proposerId uint, params *types.ProposeReservationDatesRequestBody) (*models.Reservation, error) {
	start, err := time.Parse(config.DATE_PARSE_FORMAT, params.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(config.DATE_PARSE_FORMAT, params.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.New("end_date must not precede start_date")
	}
	var reservation models.Reservation
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			return err
		}
		if reservation.RenterID != proposerId && reservation.HostID != proposerId {
			return ErrNotAllowed
		}
		if reservation.Status == types.RESERVATION_CONFIRMED {
			return errors.New("confirmed reservations cannot be rescheduled")
		}
		var listing models.Listing
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.Listing{ID: reservation.ListingID}).
			First(&listing).
			Error; err != nil {
			return err
		}
		conflict, err := HasDateConflict(tx, listing.ID, start, end, reservation.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrDateConflict
		}
		days := TotalDays(start, end)
		total := reservation.DailyPriceCents*int64(days) + reservation.AddonsTotalCents
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservation.ID}).
			Updates(map[string]any{
				"start_date":         start,
				"end_date":           end,
				"status":             types.RESERVATION_PENDING,
				"total_days":         days,
				"total_cents":        total,
				"new_dates_proposed": true,
				"proposed_by":        proposerId,
			}).Error; err != nil {
			return err
		}
		return tx.Where(&models.Reservation{ID: reservation.ID}).First(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CreateOrderFromReservation promotes an accepted reservation to an order and
// flips the reservation to confirmed in a single transaction.
func CreateOrderFromReservation(reservationId uint, renterId uint) (*models.Order, error) {
	var order models.Order
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.Reservation{ID: reservationId}).
			Preload("Listing").
			First(&reservation).
			Error; err != nil {
			return err
		}
		if reservation.RenterID != renterId {
			return ErrNotAllowed
		}
		if reservation.Status != types.RESERVATION_ACCEPTED {
			return fmt.Errorf("reservation [%d] is not accepted", reservationId)
		}
		totals := ComputeOrderTotals(reservation.TotalCents)
		order = models.Order{
			OrderNumber:     NewOrderNumber(),
			ReservationID:   reservation.ID,
			ListingID:       reservation.ListingID,
			HostID:          reservation.HostID,
			RenterID:        reservation.RenterID,
			ListingName:     reservation.Listing.Name,
			StartDate:       reservation.StartDate,
			EndDate:         reservation.EndDate,
			SubtotalCents:   totals.SubtotalCents,
			TaxCents:        totals.TaxCents,
			CommissionCents: totals.CommissionCents,
			TotalCents:      totals.TotalCents,
			Status:          types.ORDER_PENDING,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservation.ID}).
			Update("status", types.RESERVATION_CONFIRMED).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	go ScheduleOrderTransitions(order.ID, order.StartDate, order.EndDate)
	return &order, nil
}

// ScheduleReservationExpiry persists and enqueues a job that expires a still
// pending reservation once its start date arrives.
func ScheduleReservationExpiry(reservationId uint, startDate time.Time) {
	jobTask := models.JobTask{
		Name:    fmt.Sprintf("Reservation_%d_Expire", reservationId),
		JobType: "OneTimeJobStartDateTime",
		RunsAt:  startDate,
		Source:  "reservations",
		Payload: types.JSONB{
			"type": "reservation_expire",
			"id":   int64(reservationId),
		},
	}
	db := db.GetDb()
	if err := db.Create(&jobTask).Error; err != nil {
		log.Printf("Error creating job for Reservation [%d]: %s\n", reservationId, err.Error())
		return
	}
	if _, err := lib.CreateOneTimeJob(startDate, func(id uint) {
		ExpirePendingReservation(id)
		MarkJobDone(jobTask.ID.String())
	}, reservationId); err != nil {
		log.Printf("Error scheduling job for Reservation [%d]: %s\n", reservationId, err.Error())
	}
}

// ScheduleOrderTransitions enqueues the upcoming->active and active->completed
// flips at the rental boundaries.
func ScheduleOrderTransitions(orderId uint, startDate, endDate time.Time) {
	transitions := []struct {
		runsAt time.Time
		from   types.OrderStatus
		to     types.OrderStatus
	}{
		{startDate, types.ORDER_UPCOMING, types.ORDER_ACTIVE},
		{endDate.Add(24 * time.Hour), types.ORDER_ACTIVE, types.ORDER_COMPLETED},
	}
	db := db.GetDb()
	for _, tr := range transitions {
		jobTask := models.JobTask{
			Name:    fmt.Sprintf("Order_%d_%s", orderId, tr.to),
			JobType: "OneTimeJobStartDateTime",
			RunsAt:  tr.runsAt,
			Source:  "orders",
			Payload: types.JSONB{
				"type": "order_transition",
				"id":   int64(orderId),
				"from": string(tr.from),
				"to":   string(tr.to),
			},
		}
		if err := db.Create(&jobTask).Error; err != nil {
			log.Printf("Error creating job for Order [%d]: %s\n", orderId, err.Error())
			continue
		}
		from, to := tr.from, tr.to
		if _, err := lib.CreateOneTimeJob(tr.runsAt, func(id uint) {
			TransitionOrderStatus(id, from, to)
			MarkJobDone(jobTask.ID.String())
		}, orderId); err != nil {
			log.Printf("Error scheduling job for Order [%d]: %s\n", orderId, err.Error())
		}
	}
}

func ExpirePendingReservation(id uint) {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: id, Status: types.RESERVATION_PENDING}).
			Update("status", types.RESERVATION_EXPIRED).
			Error
	})
	if err != nil {
		log.Printf("Error expiring Reservation [%d]: %s\n", id, err.Error())
	}
}

func TransitionOrderStatus(id uint, from, to types.OrderStatus) {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		conds := &models.Order{ID: id, Status: from}
		var order models.Order
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(conds).
			First(&order).
			Error; err != nil {
			return err
		}
		return tx.
			Model(&models.Order{}).
			Where(conds).
			Update("status", to).
			Error
	})
	if err != nil {
		log.Printf("Order [%d] transition %s -> %s skipped: %s\n", id, from, to, err.Error())
	}
}

func MarkJobDone(jobId string) {
	db := db.GetDb()
	if err := db.
		Model(&models.JobTask{}).
		Where("id = ?", jobId).
		Update("status", "done").
		Error; err != nil {
		log.Printf("Error marking job %s done: %s\n", jobId, err.Error())
	}
}

// CreateAuditTrail is best-effort; moderation must not fail on audit errors.
func CreateAuditTrail(actorId uint, action string, resource string, resourceId uint, detail *types.JSONB) {
	db := db.GetDb()
	trail := models.AuditTrail{
		ActorID:    actorId,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceId,
		Detail:     detail,
	}
	if err := db.Create(&trail).Error; err != nil {
		log.Printf("Error writing audit trail: %s\n", err.Error())
	}
}

// SendTransactionalEmail delivers directly through SES, with the SMTP client
// as the local-dev fallback.
func SendTransactionalEmail(to string, subject string, body string) {
	from := os.Getenv("EMAIL_FROM")
	if os.Getenv("API_ENV") == "local" {
		if err := lib.SendMail(&lib.SendMailInput{
			From:     from,
			FromName: "RentalHub",
			To:       []string{to},
			Subject:  subject,
			Body:     body,
		}); err != nil {
			log.Printf("Error sending email via SMTP: %s\n", err.Error())
		}
		return
	}
	aws.SESSendMessage(
		awssdk.String(from),
		&sesTypes.Destination{ToAddresses: []string{to}},
		&sesTypes.Message{
			Subject: &sesTypes.Content{Data: awssdk.String(subject)},
			Body:    &sesTypes.Body{Text: &sesTypes.Content{Data: awssdk.String(body)}},
		},
	)
}
