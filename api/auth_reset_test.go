package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/h91530/sns/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetRequest_SameMessageEitherWay(t *testing.T) {
	a, mailer, _ := newTestAPI(t)
	createUser(t, a, "reset@example.com", "resetuser", "hunter22")

	wKnown := doJSON(t, a, "POST", "/api/auth/reset/request", map[string]string{"email": "reset@example.com"}, nil)
	wUnknown := doJSON(t, a, "POST", "/api/auth/reset/request", map[string]string{"email": "ghost@example.com"}, nil)

	require.Equal(t, http.StatusOK, wKnown.Code, wKnown.Body.String())
	require.Equal(t, http.StatusOK, wUnknown.Code)
	assert.Equal(t, jsonBody(t, wKnown)["message"], jsonBody(t, wUnknown)["message"],
		"responses must not reveal whether the account exists")

	assert.Equal(t, 1, mailer.resetCount(), "only the registered address gets a mail")
}

func TestResetRequest_MailFailureIs500(t *testing.T) {
	a, mailer, _ := newTestAPI(t)
	createUser(t, a, "reset-fail@example.com", "resetfail", "hunter22")

	mailer.setFail(true)

	w := doJSON(t, a, "POST", "/api/auth/reset/request", map[string]string{"email": "reset-fail@example.com"}, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResetFlow_EndToEnd(t *testing.T) {
	a, mailer, _ := newTestAPI(t)
	createUser(t, a, "flow@example.com", "flowuser", "oldpassword")

	w := doJSON(t, a, "POST", "/api/auth/reset/request", map[string]string{"email": "flow@example.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	secret := mailer.lastReset()
	require.NotEmpty(t, secret)

	// The link target checks the token before showing the form
	w = doJSON(t, a, "GET", "/api/auth/reset/validate?token="+secret, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, jsonBody(t, w)["valid"])

	w = doJSON(t, a, "POST", "/api/auth/reset/confirm", map[string]string{
		"token":           secret,
		"password":        "newpassword",
		"confirmPassword": "newpassword",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Old password is gone, the new one works
	w = doJSON(t, a, "POST", "/api/auth/login", map[string]string{
		"email":    "flow@example.com",
		"password": "oldpassword",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, a, "POST", "/api/auth/login", map[string]string{
		"email":    "flow@example.com",
		"password": "newpassword",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestResetConfirm_TokenIsSingleUse(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "once@example.com", "onceuser", "oldpassword")

	secret, err := a.Tokens.Issue(user.ID, model.PurposeReset)
	require.NoError(t, err)

	w := doJSON(t, a, "POST", "/api/auth/reset/confirm", map[string]string{
		"token":           secret,
		"password":        "firstnew",
		"confirmPassword": "firstnew",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, a, "POST", "/api/auth/reset/confirm", map[string]string{
		"token":           secret,
		"password":        "secondnew",
		"confirmPassword": "secondnew",
	}, nil)
	require.Equal(t, http.StatusGone, w.Code, "a consumed token must never rotate again")

	// Only the first rotation took
	ok, err := a.Argon.VerifyPasswd("firstnew", fetchUser(t, a, user.ID).PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetConfirm_ReissueInvalidatesOlderToken(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "reissue@example.com", "reissueuser", "oldpassword")

	first, err := a.Tokens.Issue(user.ID, model.PurposeReset)
	require.NoError(t, err)
	second, err := a.Tokens.Issue(user.ID, model.PurposeReset)
	require.NoError(t, err)

	w := doJSON(t, a, "GET", "/api/auth/reset/validate?token="+first, nil, nil)
	require.Equal(t, http.StatusGone, w.Code, "older token must die when a new one is issued")

	w = doJSON(t, a, "GET", "/api/auth/reset/validate?token="+second, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestResetConfirm_ExpiredToken(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "expired@example.com", "expireduser", "oldpassword")

	secret, err := a.Tokens.Issue(user.ID, model.PurposeReset)
	require.NoError(t, err)

	require.NoError(t, a.DB.Model(model.CredentialToken{}).
		Where("user_id = ?", user.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).
		Error)

	w := doJSON(t, a, "GET", "/api/auth/reset/validate?token="+secret, nil, nil)
	require.Equal(t, http.StatusGone, w.Code)

	w = doJSON(t, a, "POST", "/api/auth/reset/confirm", map[string]string{
		"token":           secret,
		"password":        "newpassword",
		"confirmPassword": "newpassword",
	}, nil)
	require.Equal(t, http.StatusGone, w.Code)
}

func TestResetConfirm_Rejections(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "reject@example.com", "rejectuser", "oldpassword")

	secret, err := a.Tokens.Issue(user.ID, model.PurposeReset)
	require.NoError(t, err)

	w := doJSON(t, a, "POST", "/api/auth/reset/confirm", map[string]string{
		"token":           "not-a-real-token",
		"password":        "newpassword",
		"confirmPassword": "newpassword",
	}, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, a, "POST", "/api/auth/reset/confirm", map[string]string{
		"token":           secret,
		"password":        "newpassword",
		"confirmPassword": "different",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, a, "POST", "/api/auth/reset/confirm", map[string]string{
		"token":           secret,
		"password":        "abcd",
		"confirmPassword": "abcd",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code, "four characters is below the minimum")

	// Every rejection left the token alive
	w = doJSON(t, a, "GET", "/api/auth/reset/validate?token="+secret, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func fetchUser(t *testing.T, a *API, id string) model.User {
	t.Helper()

	var user model.User
	require.NoError(t, a.DB.Where("id = ?", id).First(&user).Error)
	return user
}
