package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
)

type postCreateBody struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

func (a *API) PostCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data postCreateBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Content == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Content is required",
			"requestID": requestID,
		})
		return
	}

	post := model.Post{
		UserID:    userID,
		Title:     data.Title,
		Content:   data.Content,
		ImageURL:  data.ImageURL,
		CreatedAt: time.Now(),
	}

	if err := a.DB.Create(&post).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to create post",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create post", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, post)
}
