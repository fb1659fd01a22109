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

// Whether or not the address belongs to an account, the caller sees this
// exact message. Account existence never leaks through this endpoint.
const resetRequestedMsg = "If this email is registered, a reset mail is on its way. Please check your mailbox"

type resetRequestBody struct {
	Email string `json:"email"`
}

func (a *API) ResetRequest(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data resetRequestBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	email := validators.NormalizeEmail(data.Email)
	if email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Email is required",
			"requestID": requestID,
		})
		return
	}

	var user model.User

	err := a.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusOK, gin.H{
				"message": resetRequestedMsg,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to look up user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	secret, err := a.Tokens.Issue(user.ID, model.PurposeReset)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to process the reset request",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue reset token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.Mailer.SendResetLink(user.Email, secret, viper.GetInt("auth.reset_token_ttl"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to send the reset mail. Please try again later",
			"requestID": requestID,
		})

		zap.L().Error("Failed to send reset mail", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": resetRequestedMsg,
	})
}
