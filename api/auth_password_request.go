package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/validators"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type passwordCodeRequestBody struct {
	Email string `json:"email"`
}

// PasswordCodeRequest issues a short-lived verification code, bound to the
// session's user, and mails it to the address given in the request. The
// user is re-fetched by session identity; a client-supplied id is never
// part of the authorization decision.
func (a *API) PasswordCodeRequest(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data passwordCodeRequestBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	var user model.User

	if err := a.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	recipient := validators.NormalizeEmail(data.Email)
	if recipient == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Email is required",
			"requestID": requestID,
		})
		return
	}

	if err := validators.EmailValidator(recipient); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	code, err := a.Tokens.Issue(user.ID, model.PurposeChange)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to create a verification code",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue change code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.Mailer.SendChangeCode(recipient, user.Username, code, viper.GetInt("auth.change_code_ttl"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to send the verification mail. Please try again later",
			"requestID": requestID,
		})

		zap.L().Error("Failed to send change code mail", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "A verification code was sent to your email",
	})
}
