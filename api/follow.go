package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type followBody struct {
	TargetID string `json:"targetId"`
}

func (a *API) FollowCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data followBody
	if err := c.ShouldBind(&data); err != nil || data.TargetID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "targetId is required",
			"requestID": requestID,
		})
		return
	}

	if data.TargetID == userID {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "You can't follow yourself",
			"requestID": requestID,
		})
		return
	}

	var target model.User
	if err := a.DB.Select("id").Where("id = ?", data.TargetID).First(&target).Error; err != nil {
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

	var existing model.Follow

	err := a.DB.Where("follower_id = ? AND following_id = ?", userID, data.TargetID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"following": true})
		return
	}
	if err != gorm.ErrRecordNotFound {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check follow", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	err = a.DB.Create(&model.Follow{
		FollowerID:  userID,
		FollowingID: data.TargetID,
		CreatedAt:   time.Now(),
	}).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to follow user",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create follow", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": true})
}

func (a *API) FollowDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	targetID := c.Param("id")
	if targetID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Target id is missing",
			"requestID": requestID,
		})
		return
	}

	err := a.DB.Where("follower_id = ? AND following_id = ?", userID, targetID).Delete(&model.Follow{}).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to unfollow user",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete follow", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": false})
}
