package main

import (
	"encoding/json"
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

// snapshotReportedContent captures the reported listing or user as it looked
// when the report was filed.
func snapshotReportedContent(tx *gorm.DB, reportFor string, reportedId uint) (*types.JSONB, error) {
	var subject any
	switch reportFor {
	case "listing":
		var listing models.Listing
		if err := tx.
			Where(&models.Listing{ID: reportedId}).
			Preload("Images").
			First(&listing).
			Error; err != nil {
			return nil, err
		}
		subject = listing
	case "user":
		var user models.User
		if err := tx.
			Where(&models.User{ID: reportedId}).
			First(&user).
			Error; err != nil {
			return nil, err
		}
		subject = user
	default:
		return nil, fmt.Errorf("unsupported report subject: %s", reportFor)
	}
	raw, err := json.Marshal(subject)
	if err != nil {
		return nil, err
	}
	var snapshot types.JSONB
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func reportHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reports", func(ctx *gin.Context) {
			var body types.CreateReportRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var report models.Report
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				snapshot, err := snapshotReportedContent(tx, body.ReportFor, body.ReportedID)
				if err != nil {
					return err
				}
				report = models.Report{
					ReportNumber:    utils.NewReportNumber(),
					ReportFor:       body.ReportFor,
					ReportedID:      body.ReportedID,
					ReporterID:      userId,
					Reasons:         types.StringArray(body.Reasons),
					Status:          types.REPORT_OPEN,
					ContentSnapshot: snapshot,
				}
				if body.Details != "" {
					report.Details = &body.Details
				}
				return tx.Create(&report).Error
			})
			if err != nil {
				log.Printf("Error creating Report: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": report})
		}).
		GET("/reports/mine", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var reports []models.Report
			if err := db.
				Model(&models.Report{}).
				Where(&models.Report{ReporterID: userId}).
				Order("created_at DESC").
				Find(&reports).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reports, "count": len(reports)})
		})
	return g
}
