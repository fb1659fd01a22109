// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/db"
	"github.com/h91530/sns/middleware"
	"github.com/h91530/sns/security"
	"github.com/h91530/sns/service"
	"github.com/h91530/sns/storage"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Argon     *security.ArgonHash
	Tokens    *service.Tokens
	Mailer    service.Mailer
	Storage   storage.AttachmentStore
	MailQueue *service.MailQueue
}

// NewRouter wires the production dependencies. Tests construct the API
// directly through New with an in-memory database and stub collaborators.
func NewRouter() (*API, error) {
	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	makeLogger()

	var attachments storage.AttachmentStore
	if viper.GetString("cloudflare.bucket") != "" {
		r2, err := storage.NewR2()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client, %w", err)
		}
		attachments = r2
	}

	a := New(database, service.NewSMTPMailer(), attachments)

	service.TokenCleanup(time.Hour, database)

	return a, nil
}

// New builds the router and attaches every route
func New(database *gorm.DB, mailer service.Mailer, attachments storage.AttachmentStore) *API {
	a := &API{
		DB:        database,
		Argon:     security.New(),
		Tokens:    service.NewTokens(database),
		Mailer:    mailer,
		Storage:   attachments,
		MailQueue: service.NewMailQueue(),
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	a.Router.MaxMultipartMemory = 5 << 20

	session := middleware.NewSessionMiddleware(database)
	maybeSession := middleware.NewOptionalSessionMiddleware()
	authLimit := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: 2,
		Burst:             5,
	})

	main := router.Group("/api")
	{
		// GET /api/heartbeat		-> Used to check if the server is alive
		main.GET("/heartbeat", cacheFor(30), a.Heartbeat)
	}

	auth := main.Group("/auth", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/auth/signup		-> Creates an account and a session
		auth.POST("/signup", authLimit, a.Signup)

		// POST /api/auth/login			-> Verifies credentials and sets a session cookie
		auth.POST("/login", authLimit, a.Login)

		// DELETE /api/auth/account		-> Deletes the caller's account and everything it owns
		auth.DELETE("/account", session, a.AccountDelete)

		// POST /api/auth/find-id		-> Looks up the username behind an email
		auth.POST("/find-id", authLimit, a.FindID)

		// POST /api/auth/password-change	-> Plain current-to-new rotation, no code
		auth.POST("/password-change", session, a.PasswordChange)

		// POST /api/auth/password/request	-> Mails a password-change verification code
		auth.POST("/password/request", session, a.PasswordCodeRequest)

		// PATCH /api/auth/password		-> Rotates the password with a mailed code
		auth.PATCH("/password", session, a.PasswordCodeConfirm)

		// POST /api/auth/reset/request		-> Mails a reset link, generic response either way
		auth.POST("/reset/request", authLimit, a.ResetRequest)

		// GET /api/auth/reset/validate		-> Checks a reset token without consuming it
		auth.GET("/reset/validate", a.ResetValidate)

		// POST /api/auth/reset/confirm		-> Consumes a reset token and sets a new password
		auth.POST("/reset/confirm", a.ResetConfirm)
	}

	posts := main.Group("/posts", middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/posts		-> Lists posts with comments and the caller's liked flags
		posts.GET("", maybeSession, a.PostList)

		// POST /api/posts		-> Creates a post
		posts.POST("", session, a.PostCreate)

		// POST /api/posts/:id/like	-> Likes a post
		posts.POST("/:id/like", session, a.PostLike)

		// DELETE /api/posts/:id/like	-> Removes a like
		posts.DELETE("/:id/like", session, a.PostUnlike)
	}

	follows := main.Group("/follows", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/follows		-> Follows a user
		follows.POST("", session, a.FollowCreate)

		// DELETE /api/follows/:id	-> Unfollows a user
		follows.DELETE("/:id", session, a.FollowDelete)

		// GET /api/follows/list	-> Follower/following lists for a user
		follows.GET("/list", maybeSession, a.FollowList)
	}

	users := main.Group("/users")
	{
		// GET /api/users/username/:username	-> Public profile with posts and counts
		users.GET("/username/:username", maybeSession, a.ProfileFetch)

		// PUT /api/users/username/:username	-> Updates the caller's own profile
		users.PUT("/username/:username", session, middleware.BodySizeLimiter(1<<20), a.ProfileUpdate)
	}

	notifications := main.Group("/notifications", session, middleware.BodySizeLimiter(1<<20))
	{
		// GET /api/notifications	-> Lists notifications with the unread count
		notifications.GET("", a.NotificationList)

		// POST /api/notifications	-> Creates a notification for another user
		notifications.POST("", a.NotificationCreate)

		// PUT /api/notifications	-> Marks one or all notifications read
		notifications.PUT("", a.NotificationUpdate)

		// DELETE /api/notifications	-> Deletes a notification
		notifications.DELETE("", a.NotificationDelete)
	}

	maxInquiryBody := viper.GetInt64("inquiry.max_attachment_size")*int64(viper.GetInt("inquiry.max_attachments")) + 1<<20

	inquiries := main.Group("/inquiries", session)
	{
		// GET /api/inquiries			-> Lists the caller's support tickets
		inquiries.GET("", a.InquiryList)

		// POST /api/inquiries			-> Opens a ticket, multipart with attachments
		inquiries.POST("", middleware.BodySizeLimiter(maxInquiryBody), a.InquiryCreate)

		// GET /api/inquiries/unread-count	-> Tickets with activity since last viewed
		inquiries.GET("/unread-count", a.InquiryUnreadCount)

		// POST /api/inquiries/mark-viewed	-> Stamps every ticket as viewed now
		inquiries.POST("/mark-viewed", a.InquiryMarkViewed)
	}

	a.MailQueue.StartWorkerPool()

	return a
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
