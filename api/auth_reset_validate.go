package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/service"
	"go.uber.org/zap"
)

// ResetValidate checks whether a reset token would be accepted, without
// consuming it. Used by the reset page before showing the password form.
func (a *API) ResetValidate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Token is required",
			"requestID": requestID,
		})
		return
	}

	_, err := a.Tokens.Validate(model.PurposeReset, token)
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

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
	})
}
