package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProfileFetch returns a user's public profile with their posts and
// follower counts. The liked and is_following flags are personalized when
// the caller has a session.
func (a *API) ProfileFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	currentUserID := c.GetString("userID")

	username := c.Param("username")

	var user model.User

	err := a.DB.Where("username = ?", username).First(&user).Error
	if err != nil {
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

	var posts []model.Post
	if err := a.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&posts).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch posts",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch posts", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	liked := map[int]bool{}
	if currentUserID != "" && len(posts) > 0 {
		postIDs := make([]int, len(posts))
		for i, p := range posts {
			postIDs[i] = p.ID
		}

		var likes []model.PostLike
		if err := a.DB.Where("user_id = ? AND post_id IN ?", currentUserID, postIDs).Find(&likes).Error; err == nil {
			for _, l := range likes {
				liked[l.PostID] = true
			}
		}
	}

	type profilePost struct {
		model.Post
		Liked bool `json:"liked"`
	}

	postViews := make([]profilePost, len(posts))
	for i, p := range posts {
		postViews[i] = profilePost{Post: p, Liked: liked[p.ID]}
	}

	var followersCount, followingCount int64
	a.DB.Model(model.Follow{}).Where("following_id = ?", user.ID).Count(&followersCount)
	a.DB.Model(model.Follow{}).Where("follower_id = ?", user.ID).Count(&followingCount)

	isFollowing := false
	if currentUserID != "" {
		var n int64
		a.DB.Model(model.Follow{}).
			Where("follower_id = ? AND following_id = ?", currentUserID, user.ID).
			Count(&n)
		isFollowing = n > 0
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              user.ID,
		"email":           user.Email,
		"username":        user.Username,
		"avatar":          user.Avatar,
		"bio":             user.Bio,
		"website":         user.Website,
		"created_at":      user.CreatedAt,
		"followers_count": followersCount,
		"following_count": followingCount,
		"posts_count":     len(posts),
		"posts":           postViews,
		"is_following":    isFollowing,
	})
}

type profileUpdateBody struct {
	Avatar  string `json:"avatar"`
	Bio     string `json:"bio"`
	Website string `json:"website"`
}

func (a *API) ProfileUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	username := c.Param("username")

	var user model.User

	err := a.DB.Where("username = ?", username).First(&user).Error
	if err != nil {
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

	if user.ID != userID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "You can only edit your own profile",
			"requestID": requestID,
		})
		return
	}

	var data profileUpdateBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	err = a.DB.Model(model.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"avatar":  data.Avatar,
			"bio":     data.Bio,
			"website": data.Website,
		}).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to update profile",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update profile", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"avatar":   data.Avatar,
		"bio":      data.Bio,
		"website":  data.Website,
	})
}
