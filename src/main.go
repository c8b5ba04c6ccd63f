package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"rentalhub/src/boot"
	"rentalhub/src/config"
	"rentalhub/src/controllers"
	"rentalhub/src/db"
	"rentalhub/src/lib"
	"rentalhub/src/middlewares"
	"rentalhub/src/models"
	"strconv"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	engineiotypes "github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

const (
	apiPrefix string = "/api/v1"
)

var wss *socket.Server

// rentalDateValidatorFunc only checks the format. Past dates are allowed so a
// host can record bookings made outside the platform.
var rentalDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(config.DATE_PARSE_FORMAT, date)
	return err == nil
}

var gtedate validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.DATE_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	fieldValue, ok := field.Interface().(string)
	if !ok {
		return false
	}
	fielddatetime, err := time.Parse(config.DATE_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	return !fielddatetime.After(datetime)
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atoi, err := strconv.ParseBool(mm)
		if err == nil && atoi {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func guestAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	guest := apiv1.Group("/auth")
	guest.
		POST("/login", func(ctx *gin.Context) {
			token, status, err := controllers.AuthLogin(ctx)
			if err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		}).
		POST("/register", func(ctx *gin.Context) {
			uid, status, err := controllers.AuthRegister(ctx)
			if err != nil {
				log.Printf("[AuthRegister] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"uid": uid})
		}).
		POST("/oauth/google", func(ctx *gin.Context) {
			token, status, err := controllers.AuthGoogleOAuth(ctx)
			if err != nil {
				log.Printf("[AuthGoogleOAuth] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		}).
		POST("/password/request", func(ctx *gin.Context) {
			status, err := controllers.PasswordResetRequest(ctx)
			if err != nil {
				log.Printf("[PasswordResetRequest] error: %s\n", err.Error())
				ctx.Status(status)
				return
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/password/verify", func(ctx *gin.Context) {
			status, err := controllers.PasswordResetVerify(ctx)
			if err != nil {
				log.Printf("[PasswordResetVerify] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/password/reset", func(ctx *gin.Context) {
			status, err := controllers.PasswordResetSubmit(ctx)
			if err != nil {
				log.Printf("[PasswordResetSubmit] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return guest
}

func setupSocketServer(r *gin.Engine) *socket.Server {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	c.SetPingInterval(time.Second)
	c.SetPingTimeout(200 * time.Millisecond)
	c.SetMaxHttpBufferSize(1_000_000)
	c.SetConnectTimeout(time.Second)
	c.SetCors(&engineiotypes.Cors{
		Origin:      "*",
		Credentials: true,
	})

	server := socket.NewServer(nil, nil)
	server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		log.Printf("[ws] client connected: %s\n", string(client.Id()))
		client.On("subscribe", func(args ...any) {
			if len(args) == 0 {
				return
			}
			uid, ok := args[0].(string)
			if !ok {
				return
			}
			client.Join(socket.Room(fmt.Sprintf("user:%s", uid)))
		})
		client.On("unsubscribe", func(args ...any) {
			if len(args) == 0 {
				return
			}
			uid, ok := args[0].(string)
			if !ok {
				return
			}
			client.Leave(socket.Room(fmt.Sprintf("user:%s", uid)))
		})
	})

	r.GET("/socket.io/*any", gin.WrapH(server.ServeHandler(c)))
	r.POST("/socket.io/*any", gin.WrapH(server.ServeHandler(c)))
	return server
}

// notifyUser pushes a realtime event to every socket the user subscribed.
func notifyUser(userId uint, event string, payload any) {
	if wss == nil {
		return
	}
	room := socket.Room(fmt.Sprintf("user:%d", userId))
	if err := wss.To(room).Emit(event, payload); err != nil {
		log.Printf("[ws] Error emitting %s to user [%d]: %s\n", event, userId, err.Error())
	}
}

// startMailWorker drains the local email topic so outbound mail queued through
// kafka actually gets delivered over SMTP during development.
func startMailWorker() {
	emailQueue := os.Getenv("EMAIL_QUEUE")
	if emailQueue == "" {
		return
	}
	lib.KafkaConsumer("rentalhub-mailer", []string{emailQueue}, func(value []byte) {
		var msg struct {
			From     string   `json:"from"`
			FromName string   `json:"from-name"`
			To       []string `json:"to"`
			ReplyTo  string   `json:"reply-to"`
			Body     string   `json:"body"`
			Html     bool     `json:"html"`
			Subject  string   `json:"subject"`
		}
		if err := json.Unmarshal(value, &msg); err != nil {
			log.Printf("[mailer] Error parsing queued message: %s\n", err.Error())
			return
		}
		if err := lib.SendMail(&lib.SendMailInput{
			From:     msg.From,
			FromName: msg.FromName,
			To:       msg.To,
			ReplyTo:  msg.ReplyTo,
			Subject:  msg.Subject,
			Body:     msg.Body,
			Html:     msg.Html,
		}); err != nil {
			log.Printf("[mailer] Error sending queued message: %s\n", err.Error())
		}
	})
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()
	if apiEnv == "local" {
		go startMailWorker()
	}

	router := setupRouter()
	wss = setupSocketServer(router)
	if wss != nil {
		log.Println("WS server listening for connections...")
	}

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			if match {
				return true
			}
			match, _ = regexp.MatchString("app:mobile", origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("rentaldate", rentalDateValidatorFunc)
		v.RegisterValidation("gtedate", gtedate)
	}

	router = maintenanceModeMiddleware(router)

	publicListingRoutes(router)

	guestAuthRoutes(router)

	stripeWebhookRoute(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		authorized.
			POST("/auth/logout", func(ctx *gin.Context) {
				db := db.GetDb()
				if err := db.Transaction(func(tx *gorm.DB) error {
					userId := ctx.GetUint("id")
					return tx.
						Model(&models.User{}).
						Where("id", userId).
						Update("last_active", time.Now()).
						Error
				}); err != nil {
					log.Printf("Error on user logout: %s\n", err.Error())
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				ctx.Status(http.StatusOK)
			})

		authorized = userHandlers(authorized)
		authorized = listingHandlers(authorized)
		authorized = reservationHandlers(authorized)
		authorized = orderHandlers(authorized)
		authorized = favoriteHandlers(authorized)
		authorized = messageHandlers(authorized)
		authorized = reviewHandlers(authorized)
		authorized = claimHandlers(authorized)
		authorized = reportHandlers(authorized)
		authorized = feedbackHandlers(authorized)
	}

	admin := router.Group(path.Join(apiPrefix, "admin"))
	admin.Use(middlewares.AuthMiddleware, middlewares.RequireModeratorOrAdmin)
	adminHandlers(admin)

	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
