package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository/memory"
	"github.com/sahsisunny/xproli-backend/internal/service"
	"github.com/sahsisunny/xproli-backend/internal/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// syncSubmitter records click submissions on the caller's goroutine.
type syncSubmitter struct {
	submissions int
}

func (s *syncSubmitter) Submit(_ *tracking.Snapshot, _ *domain.Link) {
	s.submissions++
}

func newRedirectTestHandler(t *testing.T) (*RedirectHandler, *memory.MemStorage, *syncSubmitter) {
	t.Helper()
	storage := memory.New()
	submitter := &syncSubmitter{}
	svc := service.NewRedirectService(storage, nil, submitter, zap.NewNop())
	return NewRedirectHandler(svc, zap.NewNop()), storage, submitter
}

func mustCreateLink(t *testing.T, storage *memory.MemStorage, link *domain.Link) *domain.Link {
	t.Helper()
	require.NoError(t, storage.CreateLink(context.Background(), link))
	return link
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "error", body["status"])
	return body
}

func TestHandleRedirect_Found(t *testing.T) {
	handler, storage, submitter := newRedirectTestHandler(t)
	mustCreateLink(t, storage, &domain.Link{
		UserID:           1,
		Domain:           "xpro.li",
		Slug:             "abc123",
		DestinationURL:   "https://example.com/landing",
		AnalyticsEnabled: true,
	})

	rec := httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("GET", "/abc123", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/landing", rec.Header().Get("Location"))
	assert.Equal(t, 1, submitter.submissions)
}

func TestHandleRedirect_DomainScoped(t *testing.T) {
	handler, storage, _ := newRedirectTestHandler(t)
	mustCreateLink(t, storage, &domain.Link{
		UserID:         1,
		Domain:         "go.example.org",
		Slug:           "abc123",
		DestinationURL: "https://example.com/a",
	})

	rec := httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("GET", "/go.example.org/abc123", nil))
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("GET", "/other.example.org/abc123", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRedirect_NotFound(t *testing.T) {
	handler, _, submitter := newRedirectTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("GET", "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Link not found", body["message"])
	assert.Equal(t, 0, submitter.submissions)
}

func TestHandleRedirect_Expired(t *testing.T) {
	handler, storage, submitter := newRedirectTestHandler(t)
	expiresAt := time.Now().Add(-time.Hour)
	mustCreateLink(t, storage, &domain.Link{
		UserID:           1,
		Domain:           "xpro.li",
		Slug:             "old",
		DestinationURL:   "https://example.com/",
		ExpiresAt:        &expiresAt,
		AnalyticsEnabled: true,
	})

	rec := httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("GET", "/old", nil))

	assert.Equal(t, http.StatusGone, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Link expired", body["message"])
	assert.Equal(t, 0, submitter.submissions)
}

func TestHandleRedirect_PasswordProtected(t *testing.T) {
	handler, storage, submitter := newRedirectTestHandler(t)
	password := "secret"
	mustCreateLink(t, storage, &domain.Link{
		UserID:            1,
		Domain:            "xpro.li",
		Slug:              "locked",
		DestinationURL:    "https://example.com/",
		PasswordProtected: true,
		Password:          &password,
		AnalyticsEnabled:  true,
	})

	rec := httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("GET", "/locked", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Password required", decodeError(t, rec)["message"])

	rec = httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("GET", "/locked?password=wrong", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, submitter.submissions)

	rec = httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("GET", "/locked?password=secret", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, 1, submitter.submissions)
}

func TestHandleRedirect_MethodNotAllowed(t *testing.T) {
	handler, _, _ := newRedirectTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleRedirect(rec, httptest.NewRequest("POST", "/abc123", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSplitShortPath(t *testing.T) {
	tests := []struct {
		path       string
		wantDomain string
		wantSlug   string
		wantOK     bool
	}{
		{"/abc123", "", "abc123", true},
		{"/go.example.org/abc123", "go.example.org", "abc123", true},
		{"/", "", "", false},
		{"/a/b/c", "", "", false},
	}

	for _, tt := range tests {
		gotDomain, gotSlug, ok := splitShortPath(tt.path)
		assert.Equal(t, tt.wantOK, ok, tt.path)
		assert.Equal(t, tt.wantDomain, gotDomain, tt.path)
		assert.Equal(t, tt.wantSlug, gotSlug, tt.path)
	}
}
