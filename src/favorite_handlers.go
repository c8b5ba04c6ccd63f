package main

import (
	"net/http"
	"rentalhub/src/db"
	"rentalhub/src/models"
	"rentalhub/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func favoriteHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/favorites", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var favorites []models.Favorite
			if err := db.
				Model(&models.Favorite{}).
				Where(&models.Favorite{UserID: userId}).
				Preload("Listing").
				Preload("Listing.Images").
				Order("created_at DESC").
				Find(&favorites).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": favorites, "count": len(favorites)})
		}).
		PUT("/listings/:id/favorite", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.
					Model(&models.Listing{}).
					Where(&models.Listing{ID: params.ID, Enabled: true}).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count == 0 {
					return gorm.ErrRecordNotFound
				}
				// Repeat favorites are a no-op thanks to the unique pair index.
				return tx.
					Clauses(clause.OnConflict{DoNothing: true}).
					Create(&models.Favorite{UserID: userId, ListingID: params.ID}).
					Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/listings/:id/favorite", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			if err := db.
				Where(&models.Favorite{UserID: userId, ListingID: params.ID}).
				Delete(&models.Favorite{}).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
