package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"rentalhub/src/config"
	"rentalhub/src/db"
	awslib "rentalhub/src/lib/aws"
	"rentalhub/src/middlewares"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"rentalhub/src/utils"
	"slices"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func applyAdminFilters(q *gorm.DB, filters *types.AdminListQueryFilters) *gorm.DB {
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.AssignedTo > 0 {
		q = q.Where("assigned_to = ?", filters.AssignedTo)
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}
	perPage := filters.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 50
	}
	return q.Offset((page - 1) * perPage).Limit(perPage)
}

// assignGate rejects status changes on a record that is assigned to another
// moderator. Admins may override.
func assignGate(assignedTo *uint, actorId uint, role string) error {
	if role == string(types.ROLE_ADMIN) {
		return nil
	}
	if assignedTo != nil && *assignedTo != actorId {
		return utils.ErrNotAllowed
	}
	return nil
}

// reportRemovableFields is what takeAction is allowed to redact on a listing.
var reportRemovableFields = []string{"description", "images"}

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/users", func(ctx *gin.Context) {
			var filters types.AdminListQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			q := db.Model(&models.User{})
			if filters.Search != "" {
				q = q.Where("email ILIKE ? OR name ILIKE ?", "%"+filters.Search+"%", "%"+filters.Search+"%")
			}
			if filters.Status == "suspended" {
				q = q.Where("active = ?", false)
			} else if filters.Status == "active" {
				q = q.Where("active = ?", true)
			}
			page := filters.Page
			if page < 1 {
				page = 1
			}
			perPage := filters.PerPage
			if perPage < 1 || perPage > 100 {
				perPage = 50
			}
			var users []models.User
			if err := q.
				Order("created_at DESC").
				Offset((page - 1) * perPage).
				Limit(perPage).
				Find(&users).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": users, "count": len(users)})
		}).
		PUT("/users/:id/status", middlewares.RequireAdmin, func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.Status != "active" && body.Status != "suspended" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status: %s", body.Status)})
				return
			}
			actorId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var user models.User
				if err := tx.
					Where(&models.User{ID: params.ID}).
					First(&user).
					Error; err != nil {
					return err
				}
				if user.Role == types.ROLE_ADMIN {
					return utils.ErrNotAllowed
				}
				return tx.
					Model(&models.User{}).
					Where(&models.User{ID: user.ID}).
					Update("active", body.Status == "active").
					Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "user.status", "users", params.ID, &types.JSONB{"status": body.Status})
			ctx.Status(http.StatusNoContent)
		}).
		GET("/listings", func(ctx *gin.Context) {
			var filters types.AdminListQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			q := db.
				Model(&models.Listing{}).
				Preload("Host").
				Preload("Images")
			if filters.Search != "" {
				q = q.Where("name ILIKE ?", "%"+filters.Search+"%")
			}
			if filters.Status == "disabled" {
				q = q.Where("enabled = ?", false)
			} else if filters.Status == "enabled" {
				q = q.Where("enabled = ?", true)
			}
			page := filters.Page
			if page < 1 {
				page = 1
			}
			perPage := filters.PerPage
			if perPage < 1 || perPage > 100 {
				perPage = 50
			}
			var listings []models.Listing
			if err := q.
				Order("created_at DESC").
				Offset((page - 1) * perPage).
				Limit(perPage).
				Find(&listings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
		}).
		PUT("/listings/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.Status != "enabled" && body.Status != "disabled" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status: %s", body.Status)})
				return
			}
			actorId := ctx.GetUint("id")
			db := db.GetDb()
			if err := db.
				Model(&models.Listing{}).
				Where("id = ?", params.ID).
				Update("enabled", body.Status == "enabled").
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "listing.status", "listings", params.ID, &types.JSONB{"status": body.Status})
			ctx.Status(http.StatusNoContent)
		}).
		GET("/orders", func(ctx *gin.Context) {
			var filters types.AdminListQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			q := db.
				Model(&models.Order{}).
				Preload("Listing").
				Preload("Renter").
				Preload("Host")
			if filters.Status != "" {
				q = q.Where("status = ?", filters.Status)
			}
			if filters.Search != "" {
				q = q.Where("order_number ILIKE ?", "%"+filters.Search+"%")
			}
			page := filters.Page
			if page < 1 {
				page = 1
			}
			perPage := filters.PerPage
			if perPage < 1 || perPage > 100 {
				perPage = 50
			}
			var orders []models.Order
			if err := q.
				Order("created_at DESC").
				Offset((page - 1) * perPage).
				Limit(perPage).
				Find(&orders).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": orders, "count": len(orders)})
		}).
		GET("/reviews", func(ctx *gin.Context) {
			var filters types.AdminListQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			q := db.
				Model(&models.Review{}).
				Preload("Author").
				Preload("Listing")
			if filters.Status == "hidden" {
				q = q.Where("hidden = ?", true)
			} else if filters.Status == "visible" {
				q = q.Where("hidden = ?", false)
			}
			page := filters.Page
			if page < 1 {
				page = 1
			}
			perPage := filters.PerPage
			if perPage < 1 || perPage > 100 {
				perPage = 50
			}
			var reviews []models.Review
			if err := q.
				Order("created_at DESC").
				Offset((page - 1) * perPage).
				Limit(perPage).
				Find(&reviews).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reviews, "count": len(reviews)})
		}).
		PUT("/reviews/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.Status != "hidden" && body.Status != "visible" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status: %s", body.Status)})
				return
			}
			actorId := ctx.GetUint("id")
			db := db.GetDb()
			if err := db.
				Model(&models.Review{}).
				Where("id = ?", params.ID).
				Update("hidden", body.Status == "hidden").
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "review.status", "reviews", params.ID, &types.JSONB{"status": body.Status})
			ctx.Status(http.StatusNoContent)
		}).
		GET("/claims", func(ctx *gin.Context) {
			var filters types.AdminListQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			q := db.
				Model(&models.Claim{}).
				Preload("Order").
				Preload("Claimant")
			q = applyAdminFilters(q, &filters)
			var claims []models.Claim
			if err := q.
				Order("priority ASC, created_at ASC").
				Find(&claims).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": claims, "count": len(claims)})
		}).
		PUT("/claims/:id/assign", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.AssignRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var assignee models.User
				if err := tx.
					Where(&models.User{ID: body.AssignedTo}).
					First(&assignee).
					Error; err != nil {
					return err
				}
				if assignee.Role != types.ROLE_MODERATOR && assignee.Role != types.ROLE_ADMIN {
					return errors.New("claims can only be assigned to staff")
				}
				return tx.
					Model(&models.Claim{}).
					Where("id = ?", params.ID).
					Updates(map[string]any{
						"assigned_to": body.AssignedTo,
						"status":      types.CLAIM_IN_REVIEW,
					}).Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "claim.assign", "claims", params.ID, &types.JSONB{"assigned_to": body.AssignedTo})
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/claims/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if !slices.Contains(types.ValidClaimStatuses, types.ClaimStatus(body.Status)) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status: %s", body.Status)})
				return
			}
			actorId := ctx.GetUint("id")
			role := ctx.GetString("role")
			var claim models.Claim
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where(&models.Claim{ID: params.ID}).
					First(&claim).
					Error; err != nil {
					return err
				}
				if err := assignGate(claim.AssignedTo, actorId, role); err != nil {
					return err
				}
				if err := tx.
					Model(&models.Claim{}).
					Where(&models.Claim{ID: claim.ID}).
					Update("status", body.Status).
					Error; err != nil {
					return err
				}
				if claim.ThreadID == nil {
					return nil
				}
				update := models.Message{
					ThreadID:    *claim.ThreadID,
					SenderID:    config.SupportUserID(),
					RecipientID: claim.ClaimantID,
					Body:        fmt.Sprintf("Claim %s is now %s.", claim.ClaimNumber, body.Status),
					System:      true,
				}
				return tx.Create(&update).Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "claim.status", "claims", params.ID, &types.JSONB{"status": body.Status})
			go notifyUser(claim.ClaimantID, "claim:status", gin.H{"claim_id": claim.ID, "status": body.Status})
			ctx.Status(http.StatusNoContent)
		}).
		GET("/reports", func(ctx *gin.Context) {
			var filters types.AdminListQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			q := db.
				Model(&models.Report{}).
				Preload("Reporter")
			q = applyAdminFilters(q, &filters)
			var reports []models.Report
			if err := q.
				Order("created_at ASC").
				Find(&reports).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reports, "count": len(reports)})
		}).
		PUT("/reports/:id/assign", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.AssignRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var assignee models.User
				if err := tx.
					Where(&models.User{ID: body.AssignedTo}).
					First(&assignee).
					Error; err != nil {
					return err
				}
				if assignee.Role != types.ROLE_MODERATOR && assignee.Role != types.ROLE_ADMIN {
					return errors.New("reports can only be assigned to staff")
				}
				return tx.
					Model(&models.Report{}).
					Where("id = ?", params.ID).
					Updates(map[string]any{
						"assigned_to": body.AssignedTo,
						"status":      types.REPORT_IN_REVIEW,
					}).Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "report.assign", "reports", params.ID, &types.JSONB{"assigned_to": body.AssignedTo})
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/reports/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if !slices.Contains(types.ValidReportStatuses, types.ReportStatus(body.Status)) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status: %s", body.Status)})
				return
			}
			actorId := ctx.GetUint("id")
			role := ctx.GetString("role")
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var report models.Report
				if err := tx.
					Where(&models.Report{ID: params.ID}).
					First(&report).
					Error; err != nil {
					return err
				}
				if err := assignGate(report.AssignedTo, actorId, role); err != nil {
					return err
				}
				return tx.
					Model(&models.Report{}).
					Where(&models.Report{ID: report.ID}).
					Update("status", body.Status).
					Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "report.status", "reports", params.ID, &types.JSONB{"status": body.Status})
			ctx.Status(http.StatusNoContent)
		}).
		POST("/reports/:id/action", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.ReportActionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			for _, field := range body.FieldsToRemove {
				if !slices.Contains(reportRemovableFields, field) {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("field %q cannot be removed", field)})
					return
				}
			}
			actorId := ctx.GetUint("id")
			role := ctx.GetString("role")
			supportId := config.SupportUserID()
			var orphanedKeys []string
			var hostId uint
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var report models.Report
				if err := tx.
					Where(&models.Report{ID: params.ID}).
					First(&report).
					Error; err != nil {
					return err
				}
				if report.ReportFor != "listing" {
					return fmt.Errorf("takeAction only applies to listing reports, got %s", report.ReportFor)
				}
				if report.Status == types.REPORT_ACTION_TAKEN || report.Status == types.REPORT_DISMISSED {
					return fmt.Errorf("report %s is already closed", report.ReportNumber)
				}
				if err := assignGate(report.AssignedTo, actorId, role); err != nil {
					return err
				}
				var listing models.Listing
				if err := tx.
					Where(&models.Listing{ID: report.ReportedID}).
					Preload("Images").
					First(&listing).
					Error; err != nil {
					return err
				}
				hostId = listing.HostID
				updates := map[string]any{"enabled": false}
				for _, field := range body.FieldsToRemove {
					switch field {
					case "description":
						updates["description"] = nil
					case "images":
						for _, image := range listing.Images {
							if image.ObjectKey != "" {
								orphanedKeys = append(orphanedKeys, image.ObjectKey)
							}
						}
						if err := tx.
							Where(&models.ListingImage{ListingID: listing.ID}).
							Delete(&models.ListingImage{}).
							Error; err != nil {
							return err
						}
					}
				}
				if err := tx.
					Model(&models.Listing{}).
					Where(&models.Listing{ID: listing.ID}).
					Updates(updates).
					Error; err != nil {
					return err
				}
				thread := models.MessageThread{
					ParticipantAID: supportId,
					ParticipantBID: listing.HostID,
				}
				if err := tx.Create(&thread).Error; err != nil {
					return err
				}
				notice := models.Message{
					ThreadID:    thread.ID,
					SenderID:    supportId,
					RecipientID: listing.HostID,
					Body:        body.Notice,
					System:      true,
				}
				if err := tx.Create(&notice).Error; err != nil {
					return err
				}
				return tx.
					Model(&models.Report{}).
					Where(&models.Report{ID: report.ID}).
					Update("status", types.REPORT_ACTION_TAKEN).
					Error
			})
			if err != nil {
				if errors.Is(err, utils.ErrNotAllowed) {
					ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
					return
				}
				log.Printf("Error taking action on Report [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			// Stored objects are removed after commit; a failed delete leaves
			// an orphan in the bucket, not a dangling DB row.
			go func(keys []string) {
				for _, key := range keys {
					if err := awslib.S3DeleteObject(key); err != nil {
						log.Printf("Error deleting object %s: %s\n", key, err.Error())
					}
				}
			}(orphanedKeys)
			go utils.CreateAuditTrail(actorId, "report.action", "reports", params.ID, &types.JSONB{
				"fields_removed": body.FieldsToRemove,
			})
			go notifyUser(hostId, "listing:moderated", gin.H{"report_id": params.ID})
			ctx.Status(http.StatusNoContent)
		}).
		GET("/feedback", func(ctx *gin.Context) {
			var filters types.AdminListQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			q := db.
				Model(&models.Feedback{}).
				Preload("User")
			q = applyAdminFilters(q, &filters)
			var feedback []models.Feedback
			if err := q.
				Order("created_at ASC").
				Find(&feedback).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": feedback, "count": len(feedback)})
		}).
		PUT("/feedback/:id/assign", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.AssignRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			actorId := ctx.GetUint("id")
			db := db.GetDb()
			if err := db.
				Model(&models.Feedback{}).
				Where("id = ?", params.ID).
				Update("assigned_to", body.AssignedTo).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "feedback.assign", "feedback", params.ID, &types.JSONB{"assigned_to": body.AssignedTo})
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/feedback/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.Status != "open" && body.Status != "acknowledged" && body.Status != "closed" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid status: %s", body.Status)})
				return
			}
			actorId := ctx.GetUint("id")
			db := db.GetDb()
			if err := db.
				Model(&models.Feedback{}).
				Where("id = ?", params.ID).
				Update("status", body.Status).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go utils.CreateAuditTrail(actorId, "feedback.status", "feedback", params.ID, &types.JSONB{"status": body.Status})
			ctx.Status(http.StatusNoContent)
		}).
		GET("/audit", func(ctx *gin.Context) {
			var query struct {
				Resource string `form:"resource"`
				Actor    uint   `form:"actor"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			q := db.Model(&models.AuditTrail{})
			if query.Resource != "" {
				q = q.Where("resource = ?", query.Resource)
			}
			if query.Actor > 0 {
				q = q.Where("actor_id = ?", query.Actor)
			}
			var trails []models.AuditTrail
			if err := q.
				Order("created_at DESC").
				Limit(200).
				Find(&trails).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": trails, "count": len(trails)})
		})
	return g
}
