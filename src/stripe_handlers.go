package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"rentalhub/src/db"
	"rentalhub/src/models"
	"rentalhub/src/types"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "customer.created":
			var cus stripe.Customer
			if err := json.Unmarshal(event.Data.Raw, &cus); err != nil {
				log.Printf("[Stripe] Error parsing Customer: %s\n", err.Error())
				break
			}
			email := cus.Email
			if email == "" {
				break
			}
			db := db.GetDb()
			if err := db.
				Model(&models.User{}).
				Where("email = ?", email).
				Updates(&models.User{StripeCustomerId: &cus.ID}).
				Error; err != nil {
				log.Printf("Error linking Customer %s: %s\n", cus.ID, err.Error())
			}
		case "checkout.session.completed":
			var cs stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			log.Printf("[CheckoutSession] ID: %s %s\n", cs.ID, cs.Status)
			orderNumber := cs.Metadata["order_number"]
			if orderNumber == "" {
				break
			}
			var order models.Order
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Order{}).
					Where(&models.Order{OrderNumber: orderNumber}).
					First(&order).
					Error; err != nil {
					return err
				}
				if order.Status != types.ORDER_PENDING {
					log.Printf("[checkout.session.completed] Order %s already %s\n", orderNumber, order.Status)
					return nil
				}
				return tx.
					Model(&models.Order{}).
					Where(&models.Order{ID: order.ID, Status: types.ORDER_PENDING}).
					Updates(map[string]any{
						"status":              types.ORDER_UPCOMING,
						"checkout_session_id": cs.ID,
					}).Error
			})
			if err != nil {
				log.Printf("Error completing Order %s: %s\n", orderNumber, err.Error())
				break
			}
			go notifyUser(order.RenterID, "order:paid", gin.H{"order_id": order.ID})
			go notifyUser(order.HostID, "order:paid", gin.H{"order_id": order.ID})
		case "checkout.session.expired":
			var cs stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			orderNumber := cs.Metadata["order_number"]
			if orderNumber == "" {
				break
			}
			db := db.GetDb()
			if err := db.
				Model(&models.Order{}).
				Where("order_number = ? AND status = ?", orderNumber, types.ORDER_PENDING).
				Update("checkout_session_id", nil).
				Error; err != nil {
				log.Printf("Error clearing session for Order %s: %s\n", orderNumber, err.Error())
			}
		}
		ctx.Status(http.StatusNoContent)
	})
	return apiv1
}
