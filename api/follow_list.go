package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
)

type followEntry struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	Bio         string `json:"bio"`
	IsFollowing bool   `json:"isFollowing"`
}

// FollowList returns who follows a user or who a user follows, with an
// isFollowing flag relative to the caller when a session is present.
func (a *API) FollowList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	currentUserID := c.GetString("userID")

	userID := c.Query("userId")
	listType := c.Query("type")

	if userID == "" || listType == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "userId and type are required",
			"requestID": requestID,
		})
		return
	}

	if listType != "followers" && listType != "following" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "type must be followers or following",
			"requestID": requestID,
		})
		return
	}

	var ids []string

	q := a.DB.Model(model.Follow{})
	if listType == "followers" {
		q = q.Select("follower_id").Where("following_id = ?", userID)
	} else {
		q = q.Select("following_id").Where("follower_id = ?", userID)
	}

	if err := q.Find(&ids).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch follows",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch follows", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if len(ids) == 0 {
		c.JSON(http.StatusOK, gin.H{"follows": []followEntry{}})
		return
	}

	var users []model.User
	if err := a.DB.Select("id, username, avatar, bio").Where("id IN ?", ids).Find(&users).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch follows",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch users", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	followedByCaller := map[string]bool{}
	if currentUserID != "" {
		var followed []string

		err := a.DB.Model(model.Follow{}).
			Select("following_id").
			Where("follower_id = ? AND following_id IN ?", currentUserID, ids).
			Find(&followed).
			Error
		if err == nil {
			for _, id := range followed {
				followedByCaller[id] = true
			}
		}
	}

	follows := make([]followEntry, len(users))
	for i, u := range users {
		follows[i] = followEntry{
			ID:          u.ID,
			Username:    u.Username,
			Avatar:      u.Avatar,
			Bio:         u.Bio,
			IsFollowing: followedByCaller[u.ID],
		}
	}

	c.JSON(http.StatusOK, gin.H{"follows": follows})
}
