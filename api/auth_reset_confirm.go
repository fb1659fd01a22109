package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/service"
	"github.com/h91530/sns/validators"
	"go.uber.org/zap"
)

type resetConfirmBody struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ResetConfirm consumes a reset token and sets the new password. The
// conditional consume runs before the credential update so that two racing
// confirms can't both rotate the password.
func (a *API) ResetConfirm(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data resetConfirmBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Token == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Token is required",
			"requestID": requestID,
		})
		return
	}

	if data.Password == "" || data.ConfirmPassword == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Enter a new password",
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

	if err := validators.PasswordValidator(data.Password, validators.MinPasswordReset); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	token, err := a.Tokens.Validate(model.PurposeReset, data.Token)
	if err != nil {
		switch err {
		case service.ErrTokenNotFound:
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "The token is not valid",
				"requestID": requestID,
			})
		case service.ErrTokenGone:
			c.AbortWithStatusJSON(http.StatusGone, gin.H{
				"error":     "The token has expired or was already used",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to validate reset token", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	won, err := a.Tokens.Consume(token.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to consume reset token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !won {
		c.AbortWithStatusJSON(http.StatusGone, gin.H{
			"error":     "The token has expired or was already used",
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

	err = a.DB.Model(model.User{}).Where("id = ?", token.UserID).Update("password_hash", hash).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to update the password",
			"requestID": requestID,
		})

		zap.L().Error("Password update failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.Tokens.InvalidateOthers(token.UserID, token.ID); err != nil {
		zap.L().Error("Failed to invalidate outstanding tokens", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your password was reset. Log in with your new password",
	})
}
