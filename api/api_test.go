package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/h91530/sns/db"
	"github.com/h91530/sns/middleware"
	"github.com/h91530/sns/model"
	"github.com/h91530/sns/storage"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var userSeq atomic.Int64

// Every request gets its own client address so the per-IP limiter on the
// public auth endpoints never interferes with a test run.
var addrSeq atomic.Int64

func testConfig() {
	viper.Set("jwt.secret", "test-secret")
	viper.Set("auth.reset_token_ttl", 60)
	viper.Set("auth.change_code_ttl", 10)
	viper.Set("inquiry.max_attachments", 3)
	viper.Set("inquiry.max_attachment_size", int64(1<<20))
	viper.Set("inquiry.signed_url_ttl", 600)
	viper.Set("smtp.workers", 1)
	viper.Set("app.base_url", "http://localhost:3000")
}

func newTestAPI(t *testing.T) (*API, *stubMailer, *memStore) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	testConfig()

	database, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps the in-memory database alive and shared
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database))

	mailer := &stubMailer{}
	store := newMemStore()

	return New(database, mailer, store), mailer, store
}

// createUser seeds an account directly, bypassing the signup endpoint
func createUser(t *testing.T, a *API, email, username, password string) model.User {
	t.Helper()

	hash, err := a.Argon.GenerateFromPassword(password)
	require.NoError(t, err)

	user := model.User{
		ID:           fmt.Sprintf("testuser%08d", userSeq.Add(1)),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, a.DB.Create(&user).Error)

	return user
}

func sessionFor(t *testing.T, userID string) *http.Cookie {
	t.Helper()

	token, err := middleware.MakeSessionToken(userID)
	require.NoError(t, err)

	return &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

func doJSON(t *testing.T, a *API, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:52000", addrSeq.Add(1)%200+1, addrSeq.Add(1)%200+1)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	return w
}

func jsonBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())

	return out
}

func jsonList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()

	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())

	return out
}

// stubMailer records every mail instead of sending it
type stubMailer struct {
	mu      sync.Mutex
	fail    bool
	resets  []string
	codes   []string
	notices []string
}

func (m *stubMailer) SendResetLink(to, secret string, ttlMinutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}

	m.resets = append(m.resets, secret)
	return nil
}

func (m *stubMailer) SendChangeCode(to, username, code string, ttlMinutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}

	m.codes = append(m.codes, code)
	return nil
}

func (m *stubMailer) SendPasswordChangedNotice(to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}

	m.notices = append(m.notices, to)
	return nil
}

func (m *stubMailer) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *stubMailer) lastReset() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.resets) == 0 {
		return ""
	}
	return m.resets[len(m.resets)-1]
}

func (m *stubMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.codes) == 0 {
		return ""
	}
	return m.codes[len(m.codes)-1]
}

func (m *stubMailer) resetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.resets)
}

// memStore is an in-memory AttachmentStore with the same limit behavior as
// the bucket-backed one
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) UploadAttachments(ctx context.Context, userID string, files []*multipart.FileHeader) ([]model.Attachment, error) {
	if len(files) > viper.GetInt("inquiry.max_attachments") {
		return nil, storage.ErrTooManyAttachments
	}

	maxSize := viper.GetInt64("inquiry.max_attachment_size")

	s.mu.Lock()
	defer s.mu.Unlock()

	var uploaded []model.Attachment
	for i, fh := range files {
		if maxSize > 0 && fh.Size > maxSize {
			return nil, storage.ErrAttachmentTooLarge
		}

		f, err := fh.Open()
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		key := fmt.Sprintf("%s/%d-%s", userID, i, fh.Filename)
		s.objects[key] = body

		uploaded = append(uploaded, model.Attachment{
			Name:        fh.Filename,
			Path:        key,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}

	return uploaded, nil
}

func (s *memStore) SignAttachments(ctx context.Context, attachments []model.Attachment) []storage.SignedAttachment {
	signed := make([]storage.SignedAttachment, 0, len(attachments))
	for _, att := range attachments {
		signed = append(signed, storage.SignedAttachment{
			Attachment: att,
			URL:        "mem://" + att.Path,
		})
	}

	return signed
}

func (s *memStore) DeleteAttachments(ctx context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range paths {
		delete(s.objects, p)
		s.deleted = append(s.deleted, p)
	}

	return nil
}

func (s *memStore) deletedPaths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.deleted))
	copy(out, s.deleted)
	return out
}
