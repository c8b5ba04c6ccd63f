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

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func reviewHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reviews", func(ctx *gin.Context) {
			var body types.CreateReviewRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var review models.Review
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var order models.Order
				if err := tx.
					Where(&models.Order{ID: body.OrderID}).
					First(&order).
					Error; err != nil {
					return err
				}
				if order.RenterID != userId && order.HostID != userId {
					return utils.ErrNotAllowed
				}
				if order.Status != types.ORDER_COMPLETED {
					return fmt.Errorf("order [%d] has not completed yet", order.ID)
				}
				var count int64
				if err := tx.
					Model(&models.Review{}).
					Where(&models.Review{OrderID: order.ID, AuthorID: userId}).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count > 0 {
					return errors.New("order has already been reviewed")
				}
				review = models.Review{
					OrderID:   order.ID,
					ListingID: order.ListingID,
					AuthorID:  userId,
					Rating:    body.Rating,
				}
				if body.Body != "" {
					review.Body = &body.Body
				}
				return tx.Create(&review).Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error creating Review: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": review})
		}).
		GET("/reviews/mine", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var reviews []models.Review
			if err := db.
				Model(&models.Review{}).
				Where(&models.Review{AuthorID: userId}).
				Preload("Listing").
				Order("created_at DESC").
				Find(&reviews).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reviews, "count": len(reviews)})
		})
	return g
}
