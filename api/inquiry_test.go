package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/h91530/sns/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inquiryFile struct {
	name string
	body []byte
}

func doInquiryCreate(t *testing.T, a *API, cookie *http.Cookie, fields map[string]string, files []inquiryFile) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	for _, f := range files {
		part, err := mw.CreateFormFile("attachments", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.body)
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/inquiries", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = fmt.Sprintf("10.2.0.%d:52000", addrSeq.Add(1)%200+1)
	req.AddCookie(cookie)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	return w
}

func TestInquiryCreate_WithAttachments(t *testing.T) {
	a, _, store := newTestAPI(t)
	user := createUser(t, a, "inq@example.com", "inquser", "hunter22")
	cookie := sessionFor(t, user.ID)

	w := doInquiryCreate(t, a, cookie, map[string]string{
		"title":   "Upload broken",
		"content": "My avatar won't upload",
	}, []inquiryFile{{name: "shot.png", body: []byte("fake image bytes")}})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored model.Inquiry
	require.NoError(t, a.DB.Where("user_id = ?", user.ID).First(&stored).Error)
	assert.Equal(t, model.InquiryPending, stored.Status)
	require.Len(t, stored.Attachments, 1)
	assert.Equal(t, "shot.png", stored.Attachments[0].Name)

	store.mu.Lock()
	assert.Len(t, store.objects, 1, "the attachment landed in the store")
	store.mu.Unlock()
}

func TestInquiryCreate_Rejections(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "inqr@example.com", "inqruser", "hunter22")
	cookie := sessionFor(t, user.ID)

	w := doInquiryCreate(t, a, cookie, map[string]string{"title": "no content"}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doInquiryCreate(t, a, cookie, map[string]string{
		"title":   strings.Repeat("x", 151),
		"content": "fine",
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doInquiryCreate(t, a, cookie, map[string]string{
		"title":   "fine",
		"content": strings.Repeat("x", 2001),
	}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// One file over the per-attachment cap
	w = doInquiryCreate(t, a, cookie, map[string]string{
		"title":   "big file",
		"content": "attached",
	}, []inquiryFile{{name: "huge.bin", body: bytes.Repeat([]byte("a"), (1<<20)+1)}})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// One file more than allowed
	files := make([]inquiryFile, 4)
	for i := range files {
		files[i] = inquiryFile{name: fmt.Sprintf("f%d.txt", i), body: []byte("x")}
	}
	w = doInquiryCreate(t, a, cookie, map[string]string{
		"title":   "too many",
		"content": "attached",
	}, files)
	require.Equal(t, http.StatusBadRequest, w.Code)

	assert.EqualValues(t, 0, tableCount(t, a, model.Inquiry{}, "user_id = ?", user.ID),
		"no rejected inquiry may leave a row behind")
}

func TestInquiryList_SignsAttachments(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "inql@example.com", "inqluser", "hunter22")

	require.NoError(t, a.DB.Create(&model.Inquiry{
		UserID:  user.ID,
		Title:   "with file",
		Content: "see attached",
		Status:  model.InquiryPending,
		Attachments: model.AttachmentList{
			{Name: "log.txt", Path: user.ID + "/0-log.txt", Size: 3, ContentType: "text/plain"},
		},
	}).Error)

	w := doJSON(t, a, "GET", "/api/inquiries", nil, sessionFor(t, user.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	inquiries := jsonBody(t, w)["inquiries"].([]any)
	require.Len(t, inquiries, 1)

	attachments := inquiries[0].(map[string]any)["attachments"].([]any)
	require.Len(t, attachments, 1)
	assert.Equal(t, "mem://"+user.ID+"/0-log.txt", attachments[0].(map[string]any)["url"])
}

func TestInquiryUnreadCount_And_MarkViewed(t *testing.T) {
	a, _, _ := newTestAPI(t)
	user := createUser(t, a, "inqu@example.com", "inquuser", "hunter22")
	cookie := sessionFor(t, user.ID)

	viewed := time.Now().Add(-time.Hour)
	responded := time.Now().Add(-time.Minute)

	// Answered after the last view: unread
	require.NoError(t, a.DB.Create(&model.Inquiry{
		UserID: user.ID, Title: "answered", Content: "q", Status: model.InquiryResolved,
		LastViewedAt: &viewed, RespondedAt: &responded,
	}).Error)

	// Viewed after the answer: read
	seen := model.Inquiry{
		UserID: user.ID, Title: "seen", Content: "q", Status: model.InquiryResolved,
		RespondedAt: &responded,
	}
	require.NoError(t, a.DB.Create(&seen).Error)
	require.NoError(t, a.DB.Model(&seen).UpdateColumn("last_viewed_at", time.Now()).Error)

	w := doJSON(t, a, "GET", "/api/inquiries/unread-count", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, jsonBody(t, w)["count"])

	w = doJSON(t, a, "POST", "/api/inquiries/mark-viewed", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, a, "GET", "/api/inquiries/unread-count", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, jsonBody(t, w)["count"])
}
