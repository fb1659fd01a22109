package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/h91530/sns/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountDelete_CascadesEverything(t *testing.T) {
	a, _, store := newTestAPI(t)
	user := createUser(t, a, "doomed@example.com", "doomed", "hunter22")
	other := createUser(t, a, "bystander@example.com", "bystander", "hunter22")

	now := time.Now()

	post := model.Post{UserID: user.ID, Content: "hello", CreatedAt: now}
	require.NoError(t, a.DB.Create(&post).Error)
	otherPost := model.Post{UserID: other.ID, Content: "unrelated", CreatedAt: now}
	require.NoError(t, a.DB.Create(&otherPost).Error)

	require.NoError(t, a.DB.Create(&model.PostLike{PostID: otherPost.ID, UserID: user.ID, CreatedAt: now}).Error)
	require.NoError(t, a.DB.Create(&model.Comment{PostID: otherPost.ID, UserID: user.ID, Content: "nice", CreatedAt: now}).Error)
	require.NoError(t, a.DB.Create(&model.Follow{FollowerID: user.ID, FollowingID: other.ID, CreatedAt: now}).Error)
	require.NoError(t, a.DB.Create(&model.Follow{FollowerID: other.ID, FollowingID: user.ID, CreatedAt: now}).Error)
	require.NoError(t, a.DB.Create(&model.Notification{RecipientID: user.ID, ActorID: other.ID, Type: "like", TargetType: "post", CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, a.DB.Create(&model.Notification{RecipientID: other.ID, ActorID: user.ID, Type: "follow", TargetType: "user", CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, a.DB.Create(&model.Inquiry{
		UserID:  user.ID,
		Title:   "help",
		Content: "something broke",
		Status:  model.InquiryPending,
		Attachments: model.AttachmentList{
			{Name: "shot.png", Path: user.ID + "/0-shot.png", Size: 10, ContentType: "image/png"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)

	_, err := a.Tokens.Issue(user.ID, model.PurposeReset)
	require.NoError(t, err)

	w := doJSON(t, a, "DELETE", "/api/auth/account", nil, sessionFor(t, user.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for name, count := range map[string]int64{
		"posts":             tableCount(t, a, model.Post{}, "user_id = ?", user.ID),
		"post likes":        tableCount(t, a, model.PostLike{}, "user_id = ?", user.ID),
		"comments":          tableCount(t, a, model.Comment{}, "user_id = ?", user.ID),
		"follows":           tableCount(t, a, model.Follow{}, "follower_id = ? OR following_id = ?", user.ID, user.ID),
		"notifications":     tableCount(t, a, model.Notification{}, "recipient_id = ? OR actor_id = ?", user.ID, user.ID),
		"inquiries":         tableCount(t, a, model.Inquiry{}, "user_id = ?", user.ID),
		"credential tokens": tableCount(t, a, model.CredentialToken{}, "user_id = ?", user.ID),
		"user row":          tableCount(t, a, model.User{}, "id = ?", user.ID),
	} {
		assert.Zero(t, count, "%s must not survive account deletion", name)
	}

	// The bystander's data is untouched
	assert.EqualValues(t, 1, tableCount(t, a, model.Post{}, "user_id = ?", other.ID))
	assert.EqualValues(t, 1, tableCount(t, a, model.User{}, "id = ?", other.ID))

	assert.Contains(t, store.deletedPaths(), user.ID+"/0-shot.png",
		"attachment objects belong to the cascade")
}

func TestAccountDelete_SecondCallFindsNoUser(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "twice@example.com", "twice", "hunter22")
	cookie := sessionFor(t, user.ID)

	w := doJSON(t, a, "DELETE", "/api/auth/account", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	// The token is still signed, but the account behind it is gone
	w = doJSON(t, a, "DELETE", "/api/auth/account", nil, cookie)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func tableCount(t *testing.T, a *API, m any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, a.DB.Model(m).Where(query, args...).Count(&n).Error)
	return n
}
