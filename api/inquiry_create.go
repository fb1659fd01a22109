package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/storage"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	maxInquiryTitleLen   = 150
	maxInquiryContentLen = 2000
)

// InquiryCreate opens a support ticket from a multipart form. Attachments
// go to the object store first; if the row insert then fails they are
// removed again.
func (a *API) InquiryCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid multipart form",
			"requestID": requestID,
		})
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	content := strings.TrimSpace(c.PostForm("content"))
	imageURL := c.PostForm("image_url")

	if title == "" || content == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Title and content are required",
			"requestID": requestID,
		})
		return
	}

	if len([]rune(title)) > maxInquiryTitleLen {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     fmt.Sprintf("Title must be %d characters or less", maxInquiryTitleLen),
			"requestID": requestID,
		})
		return
	}

	if len([]rune(content)) > maxInquiryContentLen {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     fmt.Sprintf("Content must be %d characters or less", maxInquiryContentLen),
			"requestID": requestID,
		})
		return
	}

	var attachments []model.Attachment

	files := form.File["attachments"]
	if len(files) > 0 {
		if a.Storage == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Attachment upload failed",
				"requestID": requestID,
			})

			zap.L().Error("Attachment upload requested but no store is configured", zap.String("requestID", requestID))
			return
		}

		attachments, err = a.Storage.UploadAttachments(c.Request.Context(), userID, files)
		if err != nil {
			switch err {
			case storage.ErrTooManyAttachments:
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":     fmt.Sprintf("At most %d attachments are allowed", viper.GetInt("inquiry.max_attachments")),
					"requestID": requestID,
				})
			case storage.ErrAttachmentTooLarge:
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":     fmt.Sprintf("Each attachment must be %.1fMB or less", float64(viper.GetInt64("inquiry.max_attachment_size"))/float64(1<<20)),
					"requestID": requestID,
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "Attachment upload failed",
					"requestID": requestID,
				})

				zap.L().Error("Attachment upload failed", zap.Error(err), zap.String("requestID", requestID))
			}
			return
		}
	}

	now := time.Now()

	inquiry := model.Inquiry{
		UserID:       userID,
		Title:        title,
		Content:      content,
		Status:       model.InquiryPending,
		Attachments:  attachments,
		ImageURL:     imageURL,
		LastViewedAt: &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.DB.Create(&inquiry).Error; err != nil {
		if a.Storage != nil && len(attachments) > 0 {
			paths := make([]string, len(attachments))
			for i, att := range attachments {
				paths[i] = att.Path
			}

			if cleanupErr := a.Storage.DeleteAttachments(c.Request.Context(), paths); cleanupErr != nil {
				zap.L().Error("Attachment cleanup failed", zap.Error(cleanupErr), zap.String("requestID", requestID))
			}
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to create inquiry",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create inquiry", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"inquiry": a.makeInquiryView(c, inquiry),
	})
}
