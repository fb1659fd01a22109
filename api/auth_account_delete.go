package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/middleware"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AccountDelete removes the caller's account and every row that references
// it. The whole cascade runs in one transaction so it either completes or
// leaves the account untouched; only the attachment objects in the bucket
// are cleaned up best-effort outside of it.
func (a *API) AccountDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	// Collect attachment object keys before the rows go away
	var inquiries []model.Inquiry
	if err := a.DB.Select("attachments").Where("user_id = ?", userID).Find(&inquiries).Error; err != nil {
		zap.L().Error("Failed to collect inquiry attachments", zap.Error(err), zap.String("requestID", requestID))
	}

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		// Dependency order: engagement rows, dependent content,
		// relationships, communication, tokens, tickets, notifications,
		// then the user row itself
		steps := []*gorm.DB{
			tx.Where("user_id = ?", userID).Delete(&model.CommentReaction{}),
			tx.Where("user_id = ?", userID).Delete(&model.CommentReply{}),
			tx.Where("user_id = ?", userID).Delete(&model.Comment{}),
			tx.Where("user_id = ?", userID).Delete(&model.PostLike{}),
			tx.Where("user_id = ?", userID).Delete(&model.Post{}),
			tx.Where("follower_id = ? OR following_id = ?", userID, userID).Delete(&model.Follow{}),
			tx.Where("user_id = ? OR friend_id = ?", userID, userID).Delete(&model.Friend{}),
			tx.Where("sender_id = ?", userID).Delete(&model.Message{}),
			tx.Where("user1_id = ? OR user2_id = ?", userID, userID).Delete(&model.Conversation{}),
			tx.Where("user_id = ?", userID).Delete(&model.CredentialToken{}),
			tx.Where("user_id = ?", userID).Delete(&model.Inquiry{}),
			tx.Where("recipient_id = ? OR actor_id = ?", userID, userID).Delete(&model.Notification{}),
		}

		for _, step := range steps {
			if step.Error != nil {
				return step.Error
			}
		}

		return tx.Where("id = ?", userID).Delete(&model.User{}).Error
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to delete account",
			"requestID": requestID,
		})

		zap.L().Error("Account deletion failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if a.Storage != nil {
		var paths []string
		for _, inq := range inquiries {
			for _, att := range inq.Attachments {
				paths = append(paths, att.Path)
			}
		}

		if err := a.Storage.DeleteAttachments(context.Background(), paths); err != nil {
			zap.L().Error("Failed to delete attachment objects", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	middleware.ClearSessionCookie(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Account deleted",
	})
}
