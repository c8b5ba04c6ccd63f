package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"rentalhub/src/db"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"rentalhub/src/utils"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reacceptanceWindow is the minimum lead time before the rental starts for a
// host to change their mind about a rejected reservation. The renter needs
// some notice to still make use of the booking.
const reacceptanceWindow = 24 * time.Hour

func reservationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reservations", func(ctx *gin.Context) {
			var body types.CreateReservationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			reservation, err := utils.CreateReservation(userId, &body)
			if err != nil {
				if errors.Is(err, utils.ErrDateConflict) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error creating Reservation: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go notifyUser(reservation.HostID, "reservation:created", gin.H{
				"reservation_id": reservation.ID,
				"listing_id":     reservation.ListingID,
			})
			ctx.JSON(http.StatusCreated, gin.H{"data": reservation})
		}).
		GET("/reservations", func(ctx *gin.Context) {
			var query struct {
				As     string `form:"as"`
				Status string `form:"status"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			q := db.
				Model(&models.Reservation{}).
				Preload("Listing").
				Preload("Listing.Images")
			if query.As == "host" {
				q = q.Where(&models.Reservation{HostID: userId}).Preload("Renter")
			} else {
				q = q.Where(&models.Reservation{RenterID: userId})
			}
			if query.Status != "" {
				q = q.Where("status = ?", query.Status)
			}
			var reservations []models.Reservation
			if err := q.
				Order("created_at DESC").
				Limit(100).
				Find(&reservations).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservations, "count": len(reservations)})
		}).
		GET("/reservations/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var reservation models.Reservation
			if err := db.
				Where(&models.Reservation{ID: params.ID}).
				Preload("Listing").
				Preload("Listing.Addons").
				Preload("Renter").
				Preload("Host").
				First(&reservation).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if reservation.RenterID != userId && reservation.HostID != userId {
				ctx.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotAllowed.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		}).
		PUT("/reservations/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateReservationStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var reservation models.Reservation
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Clauses(clause.Locking{Strength: "UPDATE"}).
					Where(&models.Reservation{ID: params.ID}).
					First(&reservation).
					Error; err != nil {
					return err
				}
				switch body.Status {
				case types.RESERVATION_ACCEPTED:
					if reservation.HostID != userId {
						return utils.ErrNotAllowed
					}
					if reservation.Status == types.RESERVATION_REJECTED {
						if time.Until(reservation.StartDate) < reacceptanceWindow {
							return fmt.Errorf("a rejected reservation can no longer be accepted within %s of its start date", reacceptanceWindow)
						}
						// The rejection did not block other bookings, so the
						// range has to be rechecked under the listing lock.
						var listing models.Listing
						if err := tx.
							Clauses(clause.Locking{Strength: "UPDATE"}).
							Where(&models.Listing{ID: reservation.ListingID}).
							First(&listing).
							Error; err != nil {
							return err
						}
						conflict, err := utils.HasDateConflict(tx, listing.ID, reservation.StartDate, reservation.EndDate, reservation.ID)
						if err != nil {
							return err
						}
						if conflict {
							return utils.ErrDateConflict
						}
					} else if reservation.Status != types.RESERVATION_PENDING {
						return fmt.Errorf("reservation [%d] cannot be accepted from status %s", reservation.ID, reservation.Status)
					}
				case types.RESERVATION_REJECTED:
					if reservation.HostID != userId {
						return utils.ErrNotAllowed
					}
					if reservation.Status != types.RESERVATION_PENDING && reservation.Status != types.RESERVATION_ACCEPTED {
						return fmt.Errorf("reservation [%d] cannot be rejected from status %s", reservation.ID, reservation.Status)
					}
				case types.RESERVATION_CANCELLED:
					if reservation.RenterID != userId {
						return utils.ErrNotAllowed
					}
					if reservation.Status != types.RESERVATION_PENDING && reservation.Status != types.RESERVATION_ACCEPTED {
						return fmt.Errorf("reservation [%d] cannot be cancelled from status %s", reservation.ID, reservation.Status)
					}
				default:
					return fmt.Errorf("status %s cannot be set directly", body.Status)
				}
				return tx.
					Model(&models.Reservation{}).
					Where(&models.Reservation{ID: reservation.ID}).
					Updates(map[string]any{
						"status":             body.Status,
						"new_dates_proposed": false,
					}).Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				if errors.Is(err, utils.ErrDateConflict) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error updating Reservation [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			recipient := reservation.RenterID
			if userId == reservation.RenterID {
				recipient = reservation.HostID
			}
			go notifyUser(recipient, "reservation:status", gin.H{
				"reservation_id": reservation.ID,
				"status":         body.Status,
			})
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/reservations/:id/dates", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.ProposeReservationDatesRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			reservation, err := utils.ProposeReservationDates(params.ID, userId, &body)
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				if errors.Is(err, utils.ErrDateConflict) {
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error proposing dates for Reservation [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			recipient := reservation.RenterID
			if userId == reservation.RenterID {
				recipient = reservation.HostID
			}
			go notifyUser(recipient, "reservation:dates_proposed", gin.H{
				"reservation_id": reservation.ID,
				"start_date":     body.StartDate,
				"end_date":       body.EndDate,
			})
			ctx.JSON(http.StatusOK, gin.H{"data": reservation})
		})
	return g
}
