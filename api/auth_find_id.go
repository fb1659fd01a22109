package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/validators"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type findIDBody struct {
	Email string `json:"email"`
}

// FindID resolves an email address to the username registered with it.
// Unlike the reset flow this endpoint does reveal whether an account
// exists, matching the product's original behavior.
func (a *API) FindID(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data findIDBody
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

	err := a.DB.Select("username").Where("email = ?", email).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "No account is registered with this email",
				"requestID": requestID,
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

	c.JSON(http.StatusOK, gin.H{
		"message":  "Account found",
		"username": user.Username,
	})
}
