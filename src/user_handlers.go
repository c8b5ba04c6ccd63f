package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"rentalhub/src/db"
	"rentalhub/src/lib"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func userHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/users/me", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			rd := lib.GetRedisClient()
			cacheKey := fmt.Sprintf("%d:user", userId)
			if rd != nil {
				if val, err := rd.Get(context.Background(), cacheKey).Result(); err == nil && val != "" {
					var user models.User
					if err := json.Unmarshal([]byte(val), &user); err == nil {
						ctx.JSON(http.StatusOK, gin.H{"data": user})
						return
					}
				}
			}
			var user models.User
			db := db.GetDb()
			if err := db.
				Where(&models.User{ID: userId}).
				First(&user).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if rd != nil {
				go func() {
					cached, _ := json.Marshal(&user)
					if err := rd.Set(context.Background(), cacheKey, cached, 24*time.Hour).Err(); err != nil {
						log.Printf("[redis] Error updating user cache: %s\n", err.Error())
					}
				}()
			}
			ctx.JSON(http.StatusOK, gin.H{"data": user})
		}).
		PUT("/users/me", func(ctx *gin.Context) {
			var body types.UpdateProfileRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			updates := map[string]any{}
			if body.Name != "" {
				updates["name"] = body.Name
			}
			if body.Username != "" {
				updates["username"] = body.Username
			}
			if body.AvatarURL != nil {
				updates["avatar_url"] = *body.AvatarURL
			}
			if body.City != "" {
				updates["city"] = body.City
			}
			if body.ZipCode != "" {
				updates["zip_code"] = body.ZipCode
			}
			if body.OpenDMs != nil {
				updates["open_dms"] = *body.OpenDMs
			}
			if len(updates) == 0 {
				ctx.Status(http.StatusNoContent)
				return
			}
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				return tx.
					Model(&models.User{}).
					Where(&models.User{ID: userId}).
					Updates(updates).
					Error
			})
			if err != nil {
				log.Printf("Error updating user [%d]: %s\n", userId, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.ZipCode != "" {
				go func(id uint, zip string) {
					coords, err := lib.ZipCoordinates(context.Background(), zip)
					if err != nil || coords == nil {
						return
					}
					if err := db.
						Model(&models.User{}).
						Where("id = ?", id).
						Updates(map[string]any{"latitude": coords.Latitude, "longitude": coords.Longitude}).
						Error; err != nil {
						log.Printf("Error saving coordinates for user [%d]: %s\n", id, err.Error())
					}
				}(userId, body.ZipCode)
			}
			if rd := lib.GetRedisClient(); rd != nil {
				go rd.Del(context.Background(), fmt.Sprintf("%d:user", userId))
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/users/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var user models.User
			if err := db.
				Model(&models.User{}).
				Select("id", "name", "username", "avatar_url", "city", "created_at",
					"founding_supporter", "top_referrer", "ambassador", "open_dms").
				Where(&models.User{ID: params.ID, Active: true}).
				First(&user).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			var listings []models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where(&models.Listing{HostID: user.ID, Enabled: true}).
				Preload("Images").
				Limit(20).
				Find(&listings).
				Error; err != nil {
				log.Printf("Error loading listings for user [%d]: %s\n", user.ID, err.Error())
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"user": user, "listings": listings}})
		})
	return g
}
