package controllers

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"rentalhub/src/config"
	"rentalhub/src/db"
	"rentalhub/src/lib"
	"rentalhub/src/models"
	"rentalhub/src/types"
	"rentalhub/src/utils"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

func AuthRegister(ctx *gin.Context) (userId *uint, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	var newUser models.User
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.
			Model(&models.User{}).
			Where("email = ?", body.Email).
			Count(&count).
			Error; err != nil {
			return errors.New("could not complete transaction")
		}
		if count > 0 {
			return errors.New("email already registered")
		}
		newUser = models.User{
			Name:         body.Name,
			Email:        body.Email,
			Username:     body.Username,
			PasswordHash: hash,
			ZipCode:      body.ZipCode,
			Role:         types.ROLE_USER,
		}
		if err := tx.Create(&newUser).Error; err != nil {
			log.Printf("Error creating user: %s\n", err.Error())
			return fmt.Errorf("error creating user: %s", body.Email)
		}
		return nil
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	if newUser.ZipCode != "" {
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
		}(newUser.ID, newUser.ZipCode)
	}

	return &newUser.ID, http.StatusOK, nil
}

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	var muser models.User
	if err = db.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&muser).
		Error; err != nil {
		log.Printf("error: %s\n", err.Error())
		return nil, http.StatusNotFound, errors.New("invalid email or password")
	}
	if !utils.CheckPassword(muser.PasswordHash, body.Password) {
		return nil, http.StatusUnauthorized, errors.New("invalid email or password")
	}
	if !muser.Active {
		return nil, http.StatusForbidden, errors.New("account is suspended")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.User{}).
			Where("id", muser.ID).
			Update("last_active", time.Now()).
			Error
	})
	if err != nil {
		log.Printf("Error logging in user [%d]: %s\n", muser.ID, err.Error())
		return nil, http.StatusBadRequest, err
	}

	jwt, _ := utils.GenerateJWT(muser.Email, muser.ID, string(muser.Role))

	if rd := lib.GetRedisClient(); rd != nil {
		cached, _ := json.Marshal(&muser)
		if err := rd.Set(ctx, fmt.Sprintf("%d:user", muser.ID), cached, 24*time.Hour).Err(); err != nil {
			log.Printf("[redis] Error updating user cache: %s\n", err.Error())
		}
	}

	return &jwt, http.StatusOK, nil
}

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		RedirectURL:  config.API_HOST + "/api/v1/oauth/google/callback",
		ClientID:     config.OAUTH_CLIENT_ID,
		ClientSecret: config.OAUTH_CLIENT_SECRET,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

// AuthGoogleOAuth exchanges the authorization code, fetches the Google
// profile, and creates the user on first login.
func AuthGoogleOAuth(ctx *gin.Context) (token *string, status int, err error) {
	var body types.GoogleOAuthRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}
	oauthcfg := googleOAuthConfig()
	tok, err := oauthcfg.Exchange(context.Background(), body.Code)
	if err != nil {
		log.Printf("Error while exchanging authorization code for token: %s\n", err.Error())
		return nil, http.StatusUnauthorized, errors.New("invalid authorization code")
	}

	client := oauthcfg.Client(context.Background(), tok)
	res, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, http.StatusBadGateway, err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, http.StatusBadGateway, err
	}
	var profile struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, http.StatusBadGateway, err
	}
	if profile.Email == "" {
		return nil, http.StatusUnauthorized, errors.New("could not read Google profile")
	}

	db := db.GetDb()
	var muser models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where(&models.User{Email: profile.Email}).
			First(&muser).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			muser = models.User{
				Name:      profile.Name,
				Email:     profile.Email,
				AvatarURL: &profile.Picture,
				Role:      types.ROLE_USER,
			}
			return tx.Create(&muser).Error
		}
		if err != nil {
			return err
		}
		return tx.
			Model(&models.User{}).
			Where("id", muser.ID).
			Update("last_active", time.Now()).
			Error
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	if !muser.Active {
		return nil, http.StatusForbidden, errors.New("account is suspended")
	}

	go func() {
		t := &models.Token{
			RequestedBy: muser.ID,
			Type:        models.TokenTypeOAuth,
			TokenName:   "google_oauth",
			TokenValue: types.JSONB{
				"access_token":  tok.AccessToken,
				"refresh_token": tok.RefreshToken,
				"exp":           tok.Expiry,
			},
			TTL:    uint(time.Until(tok.Expiry).Seconds()),
			Status: "active",
		}
		if err := db.Create(t).Error; err != nil {
			log.Printf("Error saving token to database: %s\n", err.Error())
		}
	}()

	jwt, _ := utils.GenerateJWT(muser.Email, muser.ID, string(muser.Role))
	return &jwt, http.StatusOK, nil
}

func resetCodeKey(email string) string {
	return fmt.Sprintf("pwreset:%s:code", email)
}

// PasswordResetRequest stores a short-lived 6-digit code in redis and mails
// it out. Always responds OK so the endpoint does not leak which emails exist.
func PasswordResetRequest(ctx *gin.Context) (status int, err error) {
	var body types.PasswordResetRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	db := db.GetDb()
	var count int64
	if err := db.
		Model(&models.User{}).
		Where("email = ?", body.Email).
		Count(&count).
		Error; err != nil {
		return http.StatusInternalServerError, err
	}
	if count == 0 {
		return http.StatusOK, nil
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return http.StatusInternalServerError, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	rd := lib.GetRedisClient()
	if rd == nil {
		return http.StatusInternalServerError, errors.New("cache unavailable")
	}
	if err := rd.SetEx(ctx, resetCodeKey(body.Email), code, 15*time.Minute).Err(); err != nil {
		return http.StatusInternalServerError, err
	}

	go utils.SendTransactionalEmail(
		body.Email,
		"Your password reset code",
		fmt.Sprintf("Use code %s to reset your password. It expires in 15 minutes.", code),
	)
	return http.StatusOK, nil
}

func PasswordResetVerify(ctx *gin.Context) (status int, err error) {
	var body types.PasswordResetVerifyBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	rd := lib.GetRedisClient()
	if rd == nil {
		return http.StatusInternalServerError, errors.New("cache unavailable")
	}
	stored, err := rd.Get(ctx, resetCodeKey(body.Email)).Result()
	if err != nil || stored != body.Code {
		return http.StatusUnauthorized, errors.New("invalid or expired code")
	}
	return http.StatusOK, nil
}

func PasswordResetSubmit(ctx *gin.Context) (status int, err error) {
	var body types.PasswordResetSubmitBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	rd := lib.GetRedisClient()
	if rd == nil {
		return http.StatusInternalServerError, errors.New("cache unavailable")
	}
	stored, err := rd.Get(ctx, resetCodeKey(body.Email)).Result()
	if err != nil || stored != body.Code {
		return http.StatusUnauthorized, errors.New("invalid or expired code")
	}

	hash, err := utils.HashPassword(body.Password)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&models.User{}).
			Where("email = ?", body.Email).
			Update("password_hash", hash)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("user not found")
		}
		return nil
	})
	if err != nil {
		return http.StatusBadRequest, err
	}
	rd.Del(ctx, resetCodeKey(body.Email))
	return http.StatusOK, nil
}
