package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"rentalhub/src/db"
	"rentalhub/src/lib"
	"rentalhub/src/lib/mailer"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"rentalhub/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// sharesRental reports whether the two users already have a reservation or
// order together, which lets them message each other even with DMs closed.
func sharesRental(tx *gorm.DB, a, b uint) (bool, error) {
	var count int64
	if err := tx.
		Model(&models.Reservation{}).
		Where("(renter_id = ? AND host_id = ?) OR (renter_id = ? AND host_id = ?)", a, b, b, a).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func threadRecipient(thread *models.MessageThread, senderId uint) uint {
	if thread.ParticipantAID == senderId {
		return thread.ParticipantBID
	}
	return thread.ParticipantAID
}

func notifyNewMessage(recipientId uint, threadId uint, preview string) {
	notifyUser(recipientId, "message:new", gin.H{"thread_id": threadId})
	var recipient models.User
	db := db.GetDb()
	if err := db.
		Where(&models.User{ID: recipientId}).
		First(&recipient).
		Error; err != nil {
		return
	}
	if err := mailer.NewMailerMessage(&lib.SendMailInput{
		From:     os.Getenv("EMAIL_FROM"),
		FromName: "RentalHub",
		To:       []string{recipient.Email},
		Subject:  "You have a new message",
		Body:     fmt.Sprintf("<p>%s</p><p>Open your inbox to reply.</p>", preview),
		Html:     true,
	}); err != nil {
		log.Printf("Could not queue message notification for user [%d]: %s\n", recipientId, err.Error())
	}
}

func messageHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/threads", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var threads []models.MessageThread
			if err := db.
				Model(&models.MessageThread{}).
				Where("participant_a_id = ? OR participant_b_id = ?", userId, userId).
				Preload("ParticipantA").
				Preload("ParticipantB").
				Order("updated_at DESC").
				Limit(100).
				Find(&threads).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var unreadRows []struct {
				ThreadID uint
				Unread   int64
			}
			if err := db.
				Model(&models.Message{}).
				Select("thread_id", "count(*) as unread").
				Where(&models.Message{RecipientID: userId}).
				Where("read = ?", false).
				Group("thread_id").
				Find(&unreadRows).
				Error; err != nil {
				log.Printf("Error counting unread messages for user [%d]: %s\n", userId, err.Error())
			}
			unread := map[uint]int64{}
			for _, row := range unreadRows {
				unread[row.ThreadID] = row.Unread
			}
			ctx.JSON(http.StatusOK, gin.H{"data": threads, "count": len(threads), "unread": unread})
		}).
		POST("/threads", func(ctx *gin.Context) {
			var body types.CreateThreadRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			if body.RecipientID == userId {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "cannot open a thread with yourself"})
				return
			}
			var thread models.MessageThread
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var recipient models.User
				if err := tx.
					Where(&models.User{ID: body.RecipientID}).
					First(&recipient).
					Error; err != nil {
					return err
				}
				// Reuse the existing direct thread between the pair if any.
				err := tx.
					Where("claim_id IS NULL").
					Where(
						"(participant_a_id = ? AND participant_b_id = ?) OR (participant_a_id = ? AND participant_b_id = ?)",
						userId, body.RecipientID, body.RecipientID, userId,
					).
					First(&thread).
					Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					if !recipient.OpenDMs {
						shared, err := sharesRental(tx, userId, body.RecipientID)
						if err != nil {
							return err
						}
						if !shared {
							return utils.ErrNotAllowed
						}
					}
					thread = models.MessageThread{
						ParticipantAID: userId,
						ParticipantBID: body.RecipientID,
					}
					if err := tx.Create(&thread).Error; err != nil {
						return err
					}
				} else if err != nil {
					return err
				}
				message := models.Message{
					ThreadID:    thread.ID,
					SenderID:    userId,
					RecipientID: body.RecipientID,
					Body:        body.Body,
				}
				return tx.Create(&message).Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": "this user only accepts messages from people they rent with"})
					return
				}
				log.Printf("Error creating thread: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go notifyNewMessage(body.RecipientID, thread.ID, body.Body)
			ctx.JSON(http.StatusCreated, gin.H{"data": thread})
		}).
		GET("/threads/:id/messages", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var thread models.MessageThread
			if err := db.
				Where(&models.MessageThread{ID: params.ID}).
				First(&thread).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if thread.ParticipantAID != userId && thread.ParticipantBID != userId {
				ctx.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotAllowed.Error()})
				return
			}
			var messages []models.Message
			if err := db.
				Model(&models.Message{}).
				Where(&models.Message{ThreadID: thread.ID}).
				Preload("Sender").
				Order("created_at ASC").
				Limit(500).
				Find(&messages).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			go func() {
				if err := db.
					Model(&models.Message{}).
					Where(&models.Message{ThreadID: thread.ID, RecipientID: userId}).
					Where("read = ?", false).
					Update("read", true).
					Error; err != nil {
					log.Printf("Error marking thread [%d] read: %s\n", thread.ID, err.Error())
				}
			}()
			ctx.JSON(http.StatusOK, gin.H{"data": messages, "count": len(messages)})
		}).
		POST("/threads/:id/messages", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CreateMessageRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var thread models.MessageThread
			var message models.Message
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where(&models.MessageThread{ID: params.ID}).
					First(&thread).
					Error; err != nil {
					return err
				}
				if thread.ParticipantAID != userId && thread.ParticipantBID != userId {
					return utils.ErrNotAllowed
				}
				message = models.Message{
					ThreadID:    thread.ID,
					SenderID:    userId,
					RecipientID: threadRecipient(&thread, userId),
					Body:        body.Body,
				}
				return tx.Create(&message).Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error creating message: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go notifyNewMessage(message.RecipientID, thread.ID, body.Body)
			ctx.JSON(http.StatusCreated, gin.H{"data": message})
		})
	return g
}
