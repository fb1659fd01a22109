package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/model"
	"go.uber.org/zap"
)

type postAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type replyView struct {
	ID        int        `json:"id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	Author    postAuthor `json:"author"`
}

type commentView struct {
	model.Comment
	Author  postAuthor  `json:"author"`
	Replies []replyView `json:"replies"`
}

type postView struct {
	model.Post
	Author   postAuthor    `json:"author"`
	Comments []commentView `json:"comments"`
	Liked    bool          `json:"liked"`
}

// PostList returns the feed, newest first, optionally restricted to one
// author. The liked flag is personalized when a session is present.
func (a *API) PostList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	currentUserID := c.GetString("userID")

	q := a.DB.Model(model.Post{}).Order("created_at DESC")
	if userID := c.Query("userId"); userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var posts []model.Post
	if err := q.Find(&posts).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch posts",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch posts", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if len(posts) == 0 {
		c.JSON(http.StatusOK, []postView{})
		return
	}

	postIDs := make([]int, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	var comments []model.Comment
	if err := a.DB.Where("post_id IN ?", postIDs).Order("created_at DESC").Find(&comments).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch posts",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch comments", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	commentIDs := make([]int, len(comments))
	for i, cm := range comments {
		commentIDs[i] = cm.ID
	}

	var replies []model.CommentReply
	if len(commentIDs) > 0 {
		if err := a.DB.Where("comment_id IN ?", commentIDs).Order("created_at ASC").Find(&replies).Error; err != nil {
			zap.L().Error("Failed to fetch replies", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	authors, err := a.fetchAuthors(posts, comments, replies)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to fetch posts",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch authors", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	liked := map[int]bool{}
	if currentUserID != "" {
		var likes []model.PostLike
		if err := a.DB.Where("user_id = ? AND post_id IN ?", currentUserID, postIDs).Find(&likes).Error; err == nil {
			for _, l := range likes {
				liked[l.PostID] = true
			}
		}
	}

	repliesByComment := map[int][]replyView{}
	for _, r := range replies {
		repliesByComment[r.CommentID] = append(repliesByComment[r.CommentID], replyView{
			ID:        r.ID,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
			Author:    authors[r.UserID],
		})
	}

	commentsByPost := map[int][]commentView{}
	for _, cm := range comments {
		commentsByPost[cm.PostID] = append(commentsByPost[cm.PostID], commentView{
			Comment: cm,
			Author:  authors[cm.UserID],
			Replies: repliesByComment[cm.ID],
		})
	}

	out := make([]postView, len(posts))
	for i, p := range posts {
		out[i] = postView{
			Post:     p,
			Author:   authors[p.UserID],
			Comments: commentsByPost[p.ID],
			Liked:    liked[p.ID],
		}
	}

	c.JSON(http.StatusOK, out)
}

func (a *API) fetchAuthors(posts []model.Post, comments []model.Comment, replies []model.CommentReply) (map[string]postAuthor, error) {
	idSet := map[string]struct{}{}
	for _, p := range posts {
		idSet[p.UserID] = struct{}{}
	}
	for _, cm := range comments {
		idSet[cm.UserID] = struct{}{}
	}
	for _, r := range replies {
		idSet[r.UserID] = struct{}{}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var users []model.User
	if err := a.DB.Select("id, username, avatar").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}

	authors := make(map[string]postAuthor, len(users))
	for _, u := range users {
		authors[u.ID] = postAuthor{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	}

	return authors, nil
}
