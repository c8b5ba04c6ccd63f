package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"rentalhub/src/db"
	"rentalhub/src/lib"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"rentalhub/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// createCheckoutSession opens a Stripe checkout for the order total. The
// webhook flips the order to upcoming once the session completes.
func createCheckoutSession(order *models.Order) (*string, error) {
	appHost := os.Getenv("APP_HOST")
	sc := lib.GetStripeClient()
	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(order.Currency),
					UnitAmount: stripe.Int64(order.TotalCents),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(order.ListingName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprint(appHost, "/orders/", order.ID, "?checkout=success")),
		CancelURL:  stripe.String(fmt.Sprint(appHost, "/orders/", order.ID, "?checkout=cancelled")),
		Metadata: map[string]string{
			"order_number": order.OrderNumber,
		},
	}
	cs, err := sc.V1CheckoutSessions.Create(context.Background(), params)
	if err != nil {
		return nil, err
	}
	db := db.GetDb()
	if err := db.
		Model(&models.Order{}).
		Where(&models.Order{ID: order.ID}).
		Update("checkout_session_id", cs.ID).
		Error; err != nil {
		log.Printf("Error saving checkout session for Order [%d]: %s\n", order.ID, err.Error())
	}
	return &cs.URL, nil
}

func orderHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/orders", func(ctx *gin.Context) {
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			order, err := utils.CreateOrderFromReservation(body.ReservationID, userId)
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error creating Order from Reservation [%d]: %s\n", body.ReservationID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var checkoutURL *string
			if url, err := createCheckoutSession(order); err != nil {
				log.Printf("Error creating checkout session for Order [%d]: %s\n", order.ID, err.Error())
			} else {
				checkoutURL = url
			}
			go notifyUser(order.HostID, "order:created", gin.H{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
			})
			ctx.JSON(http.StatusCreated, gin.H{"data": order, "checkout_url": checkoutURL})
		}).
		GET("/orders", func(ctx *gin.Context) {
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
				Model(&models.Order{}).
				Preload("Listing").
				Preload("Listing.Images")
			if query.As == "host" {
				q = q.Where(&models.Order{HostID: userId}).Preload("Renter")
			} else {
				q = q.Where(&models.Order{RenterID: userId})
			}
			if query.Status != "" {
				q = q.Where("status = ?", query.Status)
			}
			var orders []models.Order
			if err := q.
				Order("created_at DESC").
				Limit(100).
				Find(&orders).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": orders, "count": len(orders)})
		}).
		GET("/orders/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var order models.Order
			if err := db.
				Where(&models.Order{ID: params.ID}).
				Preload("Listing").
				Preload("Reservation").
				Preload("Host").
				Preload("Renter").
				First(&order).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if order.RenterID != userId && order.HostID != userId {
				ctx.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotAllowed.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": order})
		}).
		PUT("/orders/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var order models.Order
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Clauses(clause.Locking{Strength: "UPDATE"}).
					Where(&models.Order{ID: params.ID}).
					First(&order).
					Error; err != nil {
					return err
				}
				if order.RenterID != userId && order.HostID != userId {
					return utils.ErrNotAllowed
				}
				if order.Status != types.ORDER_PENDING && order.Status != types.ORDER_UPCOMING {
					return fmt.Errorf("order [%d] cannot be cancelled from status %s", order.ID, order.Status)
				}
				if err := tx.
					Model(&models.Order{}).
					Where(&models.Order{ID: order.ID}).
					Update("status", types.ORDER_CANCELLED).
					Error; err != nil {
					return err
				}
				return tx.
					Model(&models.Reservation{}).
					Where(&models.Reservation{ID: order.ReservationID}).
					Update("status", types.RESERVATION_CANCELLED).
					Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error cancelling Order [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			recipient := order.RenterID
			if userId == order.RenterID {
				recipient = order.HostID
			}
			go notifyUser(recipient, "order:cancelled", gin.H{"order_id": order.ID})
			ctx.Status(http.StatusNoContent)
		})
	return g
}
