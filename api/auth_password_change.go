package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/validators"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type passwordChangeBody struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// PasswordChange rotates the caller's password against their current one,
// without a mailed code. The code-verified variant lives in
// PasswordCodeConfirm.
func (a *API) PasswordChange(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data passwordChangeBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.CurrentPassword == "" || data.NewPassword == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "All fields are required",
			"requestID": requestID,
		})
		return
	}

	if err := validators.PasswordValidator(data.NewPassword, validators.MinPasswordChange); err != nil {
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

	hash, err := a.Argon.GenerateFromPassword(data.NewPassword)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to hash password", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.DB.Model(model.User{}).Where("id = ?", userID).Update("password_hash", hash).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to change password",
			"requestID": requestID,
		})

		zap.L().Error("Password update failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// A rotation through any path retires every outstanding token
	if err := a.Tokens.InvalidateOthers(userID, 0); err != nil {
		zap.L().Error("Failed to invalidate outstanding tokens", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed",
	})
}
