package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type notificationActor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type notificationView struct {
	model.Notification
	Actor notificationActor `json:"actor"`
}

// NotificationList returns the caller's notifications, newest first, plus
// the total number of unread ones.
func (a *API) NotificationList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	var notifications []model.Notification

	err = a.DB.
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch notifications",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch notifications", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	actors := map[string]notificationActor{}
	if len(notifications) > 0 {
		actorIDs := map[string]struct{}{}
		for _, n := range notifications {
			actorIDs[n.ActorID] = struct{}{}
		}

		ids := make([]string, 0, len(actorIDs))
		for id := range actorIDs {
			ids = append(ids, id)
		}

		var users []model.User
		if err := a.DB.Select("id, username, avatar").Where("id IN ?", ids).Find(&users).Error; err == nil {
			for _, u := range users {
				actors[u.ID] = notificationActor{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
			}
		}
	}

	views := make([]notificationView, len(notifications))
	for i, n := range notifications {
		views[i] = notificationView{Notification: n, Actor: actors[n.ActorID]}
	}

	var unreadCount int64
	err = a.DB.Model(model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&unreadCount).
		Error
	if err != nil {
		zap.L().Error("Failed to count unread notifications", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": views,
		"unreadCount":   unreadCount,
	})
}

type notificationCreateBody struct {
	RecipientID string `json:"recipientId"`
	Type        string `json:"type"`
	TargetType  string `json:"targetType"`
	TargetID    string `json:"targetId"`
	Content     string `json:"content"`
}

// NotificationCreate stores a notification for another user. Duplicate
// unread notifications for the same tuple are collapsed into the existing
// row, and nobody is notified about their own actions.
func (a *API) NotificationCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data notificationCreateBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.RecipientID == "" || data.Type == "" || data.TargetType == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Required fields are missing",
			"requestID": requestID,
		})
		return
	}

	if data.RecipientID == userID {
		c.JSON(http.StatusOK, gin.H{"notification": nil})
		return
	}

	var existing model.Notification

	err := a.DB.
		Where("recipient_id = ? AND actor_id = ? AND type = ? AND target_type = ? AND target_id = ? AND is_read = ?",
			data.RecipientID, userID, data.Type, data.TargetType, data.TargetID, false).
		First(&existing).
		Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"notification": existing})
		return
	}
	if err != gorm.ErrRecordNotFound {
		zap.L().Error("Failed to check existing notification", zap.Error(err), zap.String("requestID", requestID))
	}

	notification := model.Notification{
		RecipientID: data.RecipientID,
		ActorID:     userID,
		Type:        data.Type,
		TargetType:  data.TargetType,
		TargetID:    data.TargetID,
		Content:     data.Content,
		IsRead:      false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := a.DB.Create(&notification).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to create notification",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create notification", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"notification": notification})
}

type notificationUpdateBody struct {
	NotificationID int  `json:"notificationId"`
	IsRead         bool `json:"isRead"`
}

func (a *API) NotificationUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	if c.Query("markAllAsRead") == "true" {
		err := a.DB.Model(model.Notification{}).
			Where("recipient_id = ? AND is_read = ?", userID, false).
			Updates(map[string]any{"is_read": true, "updated_at": time.Now()}).
			Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Failed to update notifications",
				"requestID": requestID,
			})

			zap.L().Error("Failed to mark all read", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
		return
	}

	var data notificationUpdateBody
	if err := c.ShouldBind(&data); err != nil || data.NotificationID == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Notification id is required",
			"requestID": requestID,
		})
		return
	}

	r := a.DB.Model(model.Notification{}).
		Where("id = ? AND recipient_id = ?", data.NotificationID, userID).
		Updates(map[string]any{"is_read": data.IsRead, "updated_at": time.Now()})
	if r.Error != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to update notification",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update notification", zap.Error(r.Error), zap.String("requestID", requestID))
		return
	}

	if r.RowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Notification not found",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notification": gin.H{
			"id":      data.NotificationID,
			"is_read": data.IsRead,
		},
	})
}

type notificationDeleteBody struct {
	NotificationID int `json:"notificationId"`
}

func (a *API) NotificationDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data notificationDeleteBody
	if err := c.ShouldBind(&data); err != nil || data.NotificationID == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Notification id is required",
			"requestID": requestID,
		})
		return
	}

	err := a.DB.
		Where("id = ? AND recipient_id = ?", data.NotificationID, userID).
		Delete(&model.Notification{}).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to delete notification",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete notification", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
