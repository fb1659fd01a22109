package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/middleware"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/validators"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type signupBody struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (a *API) Signup(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data signupBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Email == "" || data.Username == "" || data.Password == "" || data.ConfirmPassword == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "All fields are required",
			"requestID": requestID,
		})
		return
	}

	if data.Password != data.ConfirmPassword {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Passwords don't match",
			"requestID": requestID,
		})
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	email := validators.NormalizeEmail(data.Email)

	var taken bool

	r := a.DB.Model(model.User{}).
		Select("count(*) > 0").
		Where("email = ? OR username = ?", email, data.Username).
		Find(&taken)
	if r.Error != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check if user is registered", zap.Error(r.Error), zap.String("requestID", requestID))
		return
	}

	if taken {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     "This email or username is already registered",
			"requestID": requestID,
		})
		return
	}

	hash, err := a.Argon.GenerateFromPassword(data.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	userID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate user ID", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	user := model.User{
		ID:           userID,
		Email:        email,
		Username:     data.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := a.DB.Create(&user).Error; err != nil {
		// Unique index races still surface here
		if err == gorm.ErrDuplicatedKey {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":     "This email or username is already registered",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := middleware.SetSessionCookie(c, userID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to sign session token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account created",
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"username": user.Username,
		},
	})
}
