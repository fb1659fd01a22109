package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
)

// InquiryUnreadCount counts tickets with activity (a response or a status
// change) the user hasn't looked at since.
func (a *API) InquiryUnreadCount(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var inquiries []model.Inquiry

	err := a.DB.
		Select("responded_at, status_changed_at, updated_at, last_viewed_at").
		Where("user_id = ?", userID).
		Find(&inquiries).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch inquiry activity",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch inquiry activity", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	count := 0
	for _, inq := range inquiries {
		latest := latestOf(inq.RespondedAt, inq.StatusChangedAt, &inq.UpdatedAt)

		if latest != nil && (inq.LastViewedAt == nil || latest.After(*inq.LastViewedAt)) {
			count++
		}
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

func latestOf(times ...*time.Time) *time.Time {
	var latest *time.Time

	for _, t := range times {
		if t == nil || t.IsZero() {
			continue
		}

		if latest == nil || t.After(*latest) {
			latest = t
		}
	}

	return latest
}
