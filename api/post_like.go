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

func (a *API) PostLike(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid post id",
			"requestID": requestID,
		})
		return
	}

	var post model.Post
	if err := a.DB.Where("id = ?", postID).First(&post).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Post not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch post", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.PostLike

		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		if err == nil {
			// Already liked, nothing to do
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		err = tx.Create(&model.PostLike{
			PostID:    postID,
			UserID:    userID,
			CreatedAt: time.Now(),
		}).Error
		if err != nil {
			return err
		}

		return tx.Model(model.Post{}).
			Where("id = ?", postID).
			Update("likes_count", gorm.Expr("likes_count + ?", 1)).
			Error
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to like post",
			"requestID": requestID,
		})

		zap.L().Error("Failed to like post", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"liked": true,
	})
}

func (a *API) PostUnlike(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid post id",
			"requestID": requestID,
		})
		return
	}

	err = a.DB.Transaction(func(tx *gorm.DB) error {
		r := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.PostLike{})
		if r.Error != nil {
			return r.Error
		}

		if r.RowsAffected == 0 {
			return nil
		}

		return tx.Model(model.Post{}).
			Where("id = ? AND likes_count > 0", postID).
			Update("likes_count", gorm.Expr("likes_count - ?", 1)).
			Error
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to remove like",
			"requestID": requestID,
		})

		zap.L().Error("Failed to remove like", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"liked": false,
	})
}
