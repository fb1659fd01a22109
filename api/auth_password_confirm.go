package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/service"
	"github.com/h91530/sns/validators"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type passwordCodeConfirmBody struct {
	CurrentPassword  string `json:"currentPassword"`
	NewPassword      string `json:"newPassword"`
	ConfirmPassword  string `json:"confirmPassword"`
	VerificationCode string `json:"verificationCode"`
}

// PasswordCodeConfirm rotates the caller's password after checking both the
// current password and the mailed verification code. Consumption of the
// code is the atomic gate: of concurrent confirms exactly one wins, the
// rest get the expired-or-used answer.
func (a *API) PasswordCodeConfirm(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data passwordCodeConfirmBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.CurrentPassword == "" || data.NewPassword == "" || data.ConfirmPassword == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "All fields are required",
			"requestID": requestID,
		})
		return
	}

	if data.VerificationCode == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Enter the verification code from your email",
			"requestID": requestID,
		})
		return
	}

	if data.NewPassword != data.ConfirmPassword {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Passwords don't match",
			"requestID": requestID,
		})
		return
	}

	if err := validators.PasswordValidator(data.NewPassword, validators.MinPasswordReset); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if data.CurrentPassword == data.NewPassword {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "New password must differ from the current one",
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

	token, err := a.Tokens.Validate(model.PurposeChange, data.VerificationCode)
	if err != nil {
		switch err {
		case service.ErrTokenNotFound:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "The verification code is not valid",
				"requestID": requestID,
			})
		case service.ErrTokenGone:
			c.AbortWithStatusJSON(http.StatusGone, gin.H{
				"error":     "The verification code has expired or was already used",
				"requestID": requestID,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to validate change code", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	// A code mailed to someone else never rotates this account
	if token.UserID != user.ID {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "The verification code is not valid",
			"requestID": requestID,
		})
		return
	}

	ok, err := a.Argon.VerifyPasswd(data.CurrentPassword, user.PasswordHash)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to verify password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Current password is incorrect",
			"requestID": requestID,
		})
		return
	}

	won, err := a.Tokens.Consume(token.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to consume change code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if !won {
		c.AbortWithStatusJSON(http.StatusGone, gin.H{
			"error":     "The verification code has expired or was already used",
			"requestID": requestID,
		})
		return
	}

	hash, err := a.Argon.GenerateFromPassword(data.NewPassword)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.DB.Model(model.User{}).Where("id = ?", user.ID).Update("password_hash", hash).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to change password",
			"requestID": requestID,
		})

		zap.L().Error("Password update failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := a.Tokens.InvalidateOthers(user.ID, token.ID); err != nil {
		zap.L().Error("Failed to invalidate outstanding tokens", zap.Error(err), zap.String("requestID", requestID))
	}

	// Best-effort: the rotation stands even if the notice can't be sent
	email := user.Email
	a.MailQueue.Enqueue(&service.MailJob{
		To: email,
		Send: func() error {
			return a.Mailer.SendPasswordChangedNotice(email)
		},
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed",
	})
}
