package api

import (
	"net/http"
	"testing"

	"github.com/h91530/sns/middleware"
	"github.com/h91530/sns/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesAccountAndSession(t *testing.T) {
	a, _, _ := newTestAPI(t)

	w := doJSON(t, a, "POST", "/api/auth/signup", map[string]string{
		"email":           "New.User@Example.com",
		"username":        "newuser",
		"password":        "hunter22",
		"confirmPassword": "hunter22",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := jsonBody(t, w)
	user := body["user"].(map[string]any)
	assert.Equal(t, "new.user@example.com", user["email"], "email must be stored normalized")
	assert.Equal(t, "newuser", user["username"])

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			found = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "signup must set a session cookie")

	var stored model.User
	require.NoError(t, a.DB.Where("email = ?", "new.user@example.com").First(&stored).Error)
	assert.NotEqual(t, "hunter22", stored.PasswordHash, "password must never be stored in plaintext")
}

func TestSignup_RejectsMismatchedPasswords(t *testing.T) {
	a, _, _ := newTestAPI(t)

	w := doJSON(t, a, "POST", "/api/auth/signup", map[string]string{
		"email":           "a@example.com",
		"username":        "a",
		"password":        "hunter22",
		"confirmPassword": "hunter23",
	}, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Passwords don't match", jsonBody(t, w)["error"])
}

func TestSignup_RejectsTakenEmailOrUsername(t *testing.T) {
	a, _, _ := newTestAPI(t)
	createUser(t, a, "taken@example.com", "taken", "hunter22")

	w := doJSON(t, a, "POST", "/api/auth/signup", map[string]string{
		"email":           "taken@example.com",
		"username":        "somebodyelse",
		"password":        "hunter22",
		"confirmPassword": "hunter22",
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, a, "POST", "/api/auth/signup", map[string]string{
		"email":           "fresh@example.com",
		"username":        "taken",
		"password":        "hunter22",
		"confirmPassword": "hunter22",
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_RoundTrip(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "login@example.com", "loginuser", "hunter22")

	w := doJSON(t, a, "POST", "/api/auth/login", map[string]string{
		"email":    "Login@Example.com",
		"password": "hunter22",
	}, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, user.ID, jsonBody(t, w)["user"].(map[string]any)["id"])
}

func TestLogin_SameAnswerForUnknownEmailAndWrongPassword(t *testing.T) {
	a, _, _ := newTestAPI(t)
	createUser(t, a, "login2@example.com", "loginuser2", "hunter22")

	wWrong := doJSON(t, a, "POST", "/api/auth/login", map[string]string{
		"email":    "login2@example.com",
		"password": "not-the-password",
	}, nil)
	wUnknown := doJSON(t, a, "POST", "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, wWrong.Code)
	require.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	assert.Equal(t, jsonBody(t, wWrong)["error"], jsonBody(t, wUnknown)["error"],
		"responses must not reveal whether the account exists")
}

func TestFindID_ReturnsUsername(t *testing.T) {
	a, _, _ := newTestAPI(t)
	createUser(t, a, "findme@example.com", "findme", "hunter22")

	w := doJSON(t, a, "POST", "/api/auth/find-id", map[string]string{"email": "findme@example.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "findme", jsonBody(t, w)["username"])

	w = doJSON(t, a, "POST", "/api/auth/find-id", map[string]string{"email": "unknown@example.com"}, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
