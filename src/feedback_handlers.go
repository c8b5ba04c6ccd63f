package main

import (
	"net/http"
	"rentalhub/src/db"
	"rentalhub/src/models"
	"rentalhub/src/types"

	"github.com/gin-gonic/gin"
)

func feedbackHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/feedback", func(ctx *gin.Context) {
			var body types.CreateFeedbackRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			feedback := models.Feedback{
				UserID:  userId,
				Subject: body.Subject,
				Body:    body.Body,
			}
			db := db.GetDb()
			if err := db.Create(&feedback).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": feedback})
		}).
		GET("/feedback/mine", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var feedback []models.Feedback
			if err := db.
				Model(&models.Feedback{}).
				Where(&models.Feedback{UserID: userId}).
				Order("created_at DESC").
				Find(&feedback).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": feedback, "count": len(feedback)})
		})
	return g
}
