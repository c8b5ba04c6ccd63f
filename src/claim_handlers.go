package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"rentalhub/src/config"
	"rentalhub/src/db"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"rentalhub/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func claimHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/claims", func(ctx *gin.Context) {
			var body types.CreateClaimRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			supportId := config.SupportUserID()
			var claim models.Claim
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
				thread := models.MessageThread{
					ParticipantAID: userId,
					ParticipantBID: supportId,
				}
				if err := tx.Create(&thread).Error; err != nil {
					return err
				}
				claim = models.Claim{
					ClaimNumber: utils.NewClaimNumber(),
					OrderID:     order.ID,
					ClaimantID:  userId,
					ClaimType:   body.ClaimType,
					Priority:    types.ClaimPriorities[body.ClaimType],
					Description: &body.Description,
					Status:      types.CLAIM_SUBMITTED,
					ThreadID:    &thread.ID,
				}
				if err := tx.Create(&claim).Error; err != nil {
					return err
				}
				if err := tx.
					Model(&models.MessageThread{}).
					Where(&models.MessageThread{ID: thread.ID}).
					Update("claim_id", claim.ID).
					Error; err != nil {
					return err
				}
				opener := models.Message{
					ThreadID:    thread.ID,
					SenderID:    supportId,
					RecipientID: userId,
					Body: fmt.Sprintf(
						"Claim %s has been filed for order %s (%s). A member of our support team will follow up in this thread.",
						claim.ClaimNumber, order.OrderNumber, claim.ClaimType,
					),
					System: true,
				}
				return tx.Create(&opener).Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error creating Claim: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": claim})
		}).
		GET("/claims/mine", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var claims []models.Claim
			if err := db.
				Model(&models.Claim{}).
				Where(&models.Claim{ClaimantID: userId}).
				Preload("Order").
				Order("priority ASC, created_at DESC").
				Find(&claims).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": claims, "count": len(claims)})
		}).
		GET("/claims/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			role := ctx.GetString("role")
			db := db.GetDb()
			var claim models.Claim
			if err := db.
				Where(&models.Claim{ID: params.ID}).
				Preload("Order").
				Preload("Claimant").
				Preload("Thread").
				First(&claim).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			staff := role == string(types.ROLE_MODERATOR) || role == string(types.ROLE_ADMIN)
			if claim.ClaimantID != userId && !staff {
				ctx.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotAllowed.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": claim})
		})
	return g
}
