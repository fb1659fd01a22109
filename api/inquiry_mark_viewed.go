package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
)

func (a *API) InquiryMarkViewed(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	// UpdateColumn keeps updated_at untouched, otherwise viewing would
	// flag the ticket as fresh activity again
	err := a.DB.Model(model.Inquiry{}).
		Where("user_id = ?", userID).
		UpdateColumn("last_viewed_at", time.Now()).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to update inquiries",
			"requestID": requestID,
		})

		zap.L().Error("Failed to mark inquiries viewed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
