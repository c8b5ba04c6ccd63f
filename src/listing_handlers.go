package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"rentalhub/src/db"
	"rentalhub/src/lib"
	awslib "rentalhub/src/lib/aws"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"rentalhub/src/utils"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// listingQueryTimeout bounds the marketplace search. The filter joins can get
// slow on large category sets and must not hold a connection indefinitely.
const listingQueryTimeout = 10 * time.Second

func listQueryStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusUnprocessableEntity
}

// decodeImagePayload accepts either a raw base64 string or a data URL and
// returns the bytes plus the declared content type.
func decodeImagePayload(payload string) ([]byte, string, error) {
	contentType := "image/jpeg"
	raw := payload
	if strings.HasPrefix(payload, "data:") {
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		meta := strings.TrimPrefix(parts[0], "data:")
		contentType = strings.SplitN(meta, ";", 2)[0]
		raw = parts[1]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

func storeListingImage(tx *gorm.DB, listingId uint, payload string, position uint8) error {
	image := models.ListingImage{ListingID: listingId, Position: position}
	if strings.HasPrefix(payload, "http") {
		image.URL = payload
	} else {
		data, contentType, err := decodeImagePayload(payload)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("listings/%d/%s", listingId, uuid.NewString())
		url, err := awslib.S3UploadListingImage(key, data, contentType)
		if err != nil {
			return err
		}
		image.URL = *url
		image.ObjectKey = key
	}
	return tx.Create(&image).Error
}

func geocodeListing(listingId uint, zip string) {
	coords, err := lib.ZipCoordinates(context.Background(), zip)
	if err != nil || coords == nil {
		return
	}
	db := db.GetDb()
	if err := db.
		Model(&models.Listing{}).
		Where("id = ?", listingId).
		Updates(map[string]any{"latitude": coords.Latitude, "longitude": coords.Longitude}).
		Error; err != nil {
		log.Printf("Error saving coordinates for Listing [%d]: %s\n", listingId, err.Error())
	}
}

func applyListingFilters(q *gorm.DB, filters *types.ListingQueryFilters) *gorm.DB {
	if filters.Category != "" {
		q = q.
			Joins("JOIN listing_categories lc ON lc.listing_id = listings.id").
			Joins("JOIN categories c ON c.id = lc.category_id").
			Where("c.slug = ?", filters.Category)
	}
	if filters.PriceMin > 0 {
		q = q.Where("listings.price_cents >= ?", filters.PriceMin)
	}
	if filters.PriceMax > 0 {
		q = q.Where("listings.price_cents <= ?", filters.PriceMax)
	}
	if filters.Search != "" {
		q = q.Where("listings.name ILIKE ?", "%"+filters.Search+"%")
	}
	if filters.Delivery != nil {
		q = q.Where("listings.delivery = ?", *filters.Delivery)
	}
	if filters.InstantBooking != nil {
		q = q.Where("listings.instant_booking = ?", *filters.InstantBooking)
	}
	return q
}

func publicListingRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/listings", func(ctx *gin.Context) {
			var filters types.ListingQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			page := filters.Page
			if page < 1 {
				page = 1
			}
			perPage := filters.PerPage
			if perPage < 1 || perPage > 100 {
				perPage = 20
			}
			queryCtx, cancel := context.WithTimeout(ctx.Request.Context(), listingQueryTimeout)
			defer cancel()
			db := db.GetDb()
			q := db.
				WithContext(queryCtx).
				Model(&models.Listing{}).
				Where("listings.enabled = ?", true).
				Preload("Images").
				Preload("Categories").
				Preload("Addons")
			q = applyListingFilters(q, &filters)

			// A radius search resolves the zip centroid, then narrows the
			// candidates by haversine distance in memory.
			if filters.ZipCode != "" && filters.RadiusMiles > 0 {
				center, err := lib.ZipCoordinates(ctx, filters.ZipCode)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				if center == nil {
					ctx.JSON(http.StatusOK, gin.H{"data": []any{}, "count": 0})
					return
				}
				var candidates []models.Listing
				if err := q.
					Where("listings.latitude IS NOT NULL AND listings.longitude IS NOT NULL").
					Find(&candidates).
					Error; err != nil {
					ctx.JSON(listQueryStatus(err), gin.H{"error": err.Error()})
					return
				}
				matches := make([]gin.H, 0)
				for _, listing := range candidates {
					d := lib.DistanceMiles(*center, lib.Coordinates{
						Latitude:  *listing.Latitude,
						Longitude: *listing.Longitude,
					})
					if d <= filters.RadiusMiles {
						matches = append(matches, gin.H{"listing": listing, "distance_miles": d})
					}
				}
				total := len(matches)
				offset := (page - 1) * perPage
				if offset > total {
					offset = total
				}
				end := offset + perPage
				if end > total {
					end = total
				}
				ctx.JSON(http.StatusOK, gin.H{"data": matches[offset:end], "count": total})
				return
			}

			var count int64
			if err := q.Count(&count).Error; err != nil {
				ctx.JSON(listQueryStatus(err), gin.H{"error": err.Error()})
				return
			}
			var listings []models.Listing
			if err := q.
				Offset((page - 1) * perPage).
				Limit(perPage).
				Order("listings.created_at DESC").
				Find(&listings).
				Error; err != nil {
				ctx.JSON(listQueryStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listings, "count": count})
		}).
		GET("/listings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var listing models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where(&models.Listing{ID: params.ID, Enabled: true}).
				Preload("Images").
				Preload("Categories").
				Preload("Addons").
				Preload("Host").
				First(&listing).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listing})
		}).
		GET("/listings/:id/reviews", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			db := db.GetDb()
			var reviews []models.Review
			if err := db.
				Model(&models.Review{}).
				Where(&models.Review{ListingID: params.ID}).
				Where("hidden = ?", false).
				Preload("Author").
				Order("created_at DESC").
				Limit(100).
				Find(&reviews).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reviews, "count": len(reviews)})
		}).
		GET("/categories", func(ctx *gin.Context) {
			db := db.GetDb()
			var categories []models.Category
			if err := db.Order("name").Find(&categories).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": categories, "count": len(categories)})
		})
	return apiv1
}

func listingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/listings", func(ctx *gin.Context) {
			var body types.CreateListingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			var listing models.Listing
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				listing = models.Listing{
					Name:           body.Name,
					Slug:           fmt.Sprintf("%s-%s", slug.Make(body.Name), strings.Split(uuid.NewString(), "-")[0]),
					PriceCents:     body.PriceCents,
					HostID:         userId,
					City:           body.City,
					ZipCode:        body.ZipCode,
					Delivery:       body.Delivery,
					Pickup:         body.Pickup,
					InstantBooking: body.InstantBooking,
					Enabled:        true,
				}
				if body.Description != "" {
					listing.Description = &body.Description
				}
				if err := tx.Create(&listing).Error; err != nil {
					return err
				}
				for _, name := range body.Categories {
					var cat models.Category
					if err := tx.
						Where(&models.Category{Name: name}).
						FirstOrCreate(&cat, &models.Category{Name: name, Slug: slug.Make(name)}).
						Error; err != nil {
						return err
					}
					if err := tx.Model(&listing).Association("Categories").Append(&cat); err != nil {
						return err
					}
				}
				for i, img := range body.Images {
					if err := storeListingImage(tx, listing.ID, img, uint8(i+1)); err != nil {
						return err
					}
				}
				for _, addon := range body.Addons {
					if err := tx.Create(&models.ListingAddon{
						ListingID:  listing.ID,
						Name:       addon.Name,
						PriceCents: addon.PriceCents,
					}).Error; err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				log.Printf("Error creating Listing: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			go geocodeListing(listing.ID, listing.ZipCode)
			ctx.JSON(http.StatusCreated, gin.H{"data": listing})
		}).
		PUT("/listings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpdateListingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var listing models.Listing
			if err := db.
				Where(&models.Listing{ID: params.ID}).
				First(&listing).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if listing.HostID != userId {
				ctx.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotAllowed.Error()})
				return
			}
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
			}
			if body.Description != nil {
				updates["description"] = *body.Description
			}
			if body.PriceCents != nil {
				updates["price_cents"] = *body.PriceCents
			}
			if body.City != nil {
				updates["city"] = *body.City
			}
			if body.ZipCode != nil {
				updates["zip_code"] = *body.ZipCode
			}
			if body.Delivery != nil {
				updates["delivery"] = *body.Delivery
			}
			if body.Pickup != nil {
				updates["pickup"] = *body.Pickup
			}
			if body.InstantBooking != nil {
				updates["instant_booking"] = *body.InstantBooking
			}
			if body.Enabled != nil {
				updates["enabled"] = *body.Enabled
			}
			err := db.Transaction(func(tx *gorm.DB) error {
				if len(updates) > 0 {
					if err := tx.
						Model(&models.Listing{}).
						Where(&models.Listing{ID: listing.ID}).
						Updates(updates).
						Error; err != nil {
						return err
					}
				}
				if len(body.Categories) > 0 {
					cats := make([]*models.Category, 0, len(body.Categories))
					for _, name := range body.Categories {
						var cat models.Category
						if err := tx.
							Where(&models.Category{Name: name}).
							FirstOrCreate(&cat, &models.Category{Name: name, Slug: slug.Make(name)}).
							Error; err != nil {
							return err
						}
						cats = append(cats, &cat)
					}
					if err := tx.Model(&listing).Association("Categories").Replace(cats); err != nil {
						return err
					}
				}
				for i, img := range body.Images {
					if err := storeListingImage(tx, listing.ID, img, uint8(i+1)); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				log.Printf("Error updating Listing [%d]: %s\n", listing.ID, err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if body.ZipCode != nil && *body.ZipCode != listing.ZipCode {
				go geocodeListing(listing.ID, *body.ZipCode)
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/listings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var listing models.Listing
			if err := db.
				Where(&models.Listing{ID: params.ID}).
				First(&listing).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if listing.HostID != userId {
				ctx.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotAllowed.Error()})
				return
			}
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Listing{}).
					Where(&models.Listing{ID: listing.ID}).
					Update("enabled", false).
					Error; err != nil {
					return err
				}
				return tx.Delete(&models.Listing{}, listing.ID).Error
			})
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		DELETE("/listings/:id/images/:imageId", func(ctx *gin.Context) {
			var params struct {
				ID      uint `uri:"id" binding:"required"`
				ImageID uint `uri:"imageId" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var listing models.Listing
			if err := db.
				Where(&models.Listing{ID: params.ID}).
				First(&listing).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if listing.HostID != userId {
				ctx.JSON(http.StatusForbidden, gin.H{"error": utils.ErrNotAllowed.Error()})
				return
			}
			var image models.ListingImage
			if err := db.
				Where(&models.ListingImage{ID: params.ImageID, ListingID: listing.ID}).
				First(&image).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			if image.ObjectKey != "" {
				if err := awslib.S3DeleteObject(image.ObjectKey); err != nil {
					log.Printf("Error deleting object for image [%d]: %s\n", image.ID, err.Error())
				}
			}
			if err := db.Delete(&models.ListingImage{}, image.ID).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		GET("/listings/mine", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var listings []models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where(&models.Listing{HostID: userId}).
				Preload("Images").
				Preload("Categories").
				Order("created_at DESC").
				Find(&listings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": listings, "count": len(listings)})
		})
	return g
}
