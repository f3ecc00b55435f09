package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/auth"
	"github.com/sahsisunny/xproli-backend/internal/config"
	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository/memory"
	"github.com/sahsisunny/xproli-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLinksTestHandler(t *testing.T) (*LinksHandler, *memory.MemStorage) {
	t.Helper()
	storage := memory.New()
	log := zap.NewNop()
	cfg := &config.Shortener{DefaultDomain: "xpro.li", SlugLength: 6}
	links := service.NewLinkService(storage, nil, nil, cfg, log)
	stats := service.NewAnalyticsService(storage, log)
	return NewLinksHandler(links, stats, log, cfg.DefaultDomain), storage
}

func authedRequest(method, target string, body string, userID int64) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestCreateLink_Handler(t *testing.T) {
	handler, storage := newLinksTestHandler(t)

	body := `{"destination_url":"https://example.com/page","slug":"launch","title":"Launch"}`
	rec := httptest.NewRecorder()
	handler.CreateLink(rec, authedRequest("POST", "/api/links", body, 1))

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			domain.Link
			ShortURL string `json:"short_url"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "launch", envelope.Data.Slug)
	assert.Equal(t, "xpro.li", envelope.Data.Domain)
	assert.Equal(t, "https://xpro.li/launch", envelope.Data.ShortURL)

	stored, err := storage.GetLinkBySlugAndDomain(context.Background(), "xpro.li", "launch")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UserID)
}

func TestCreateLink_Handler_Validation(t *testing.T) {
	handler, _ := newLinksTestHandler(t)

	rec := httptest.NewRecorder()
	handler.CreateLink(rec, authedRequest("POST", "/api/links", `{}`, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body := `{"destination_url":"https://example.com/","password_protected":true}`
	handler.CreateLink(rec, authedRequest("POST", "/api/links", body, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLink_Handler_SlugConflict(t *testing.T) {
	handler, _ := newLinksTestHandler(t)

	body := `{"destination_url":"https://example.com/a","slug":"taken"}`
	rec := httptest.NewRecorder()
	handler.CreateLink(rec, authedRequest("POST", "/api/links", body, 1))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.CreateLink(rec, authedRequest("POST", "/api/links", body, 2))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListLinks_Handler(t *testing.T) {
	handler, storage := newLinksTestHandler(t)
	link := mustCreateLink(t, storage, &domain.Link{
		UserID: 1, Domain: "xpro.li", Slug: "abc123", DestinationURL: "https://example.com/",
	})
	for i := 0; i < 8; i++ {
		require.NoError(t, storage.CreateClick(context.Background(), &domain.ClickEvent{
			LinkID:    link.ID,
			Country:   "Germany",
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	rec := httptest.NewRecorder()
	handler.ListLinks(rec, authedRequest("GET", "/api/links", "", 1))

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []struct {
			Slug      string `json:"slug"`
			Analytics struct {
				TotalClicks int64                `json:"totalClicks"`
				Clicks      []*domain.ClickEvent `json:"clicks"`
			} `json:"analytics"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.Len(t, envelope.Data, 1)
	// The summary counts every click; the embedded list is capped at 5.
	assert.Equal(t, int64(8), envelope.Data[0].Analytics.TotalClicks)
	assert.Len(t, envelope.Data[0].Analytics.Clicks, 5)
}

func TestGetLinkAnalytics_Handler(t *testing.T) {
	handler, storage := newLinksTestHandler(t)
	link := mustCreateLink(t, storage, &domain.Link{
		UserID: 1, Domain: "xpro.li", Slug: "abc123", DestinationURL: "https://example.com/",
	})
	require.NoError(t, storage.CreateClick(context.Background(), &domain.ClickEvent{
		LinkID: link.ID, Referrer: "https://t.co/x",
	}))

	rec := httptest.NewRecorder()
	handler.GetLinkAnalytics(rec, authedRequest("GET", "/api/links/1", "", 1))
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			TotalClicks       int64                `json:"totalClicks"`
			ReferrerBreakdown map[string]int64     `json:"referrerBreakdown"`
			Clicks            []*domain.ClickEvent `json:"clicks"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, int64(1), envelope.Data.TotalClicks)
	assert.Equal(t, int64(1), envelope.Data.ReferrerBreakdown["https://t.co/x"])
	assert.Len(t, envelope.Data.Clicks, 1)
}

func TestGetLinkAnalytics_Handler_OwnerScoped(t *testing.T) {
	handler, storage := newLinksTestHandler(t)
	mustCreateLink(t, storage, &domain.Link{
		UserID: 1, Domain: "xpro.li", Slug: "abc123", DestinationURL: "https://example.com/",
	})

	// Someone else's link is indistinguishable from a missing one.
	rec := httptest.NewRecorder()
	handler.GetLinkAnalytics(rec, authedRequest("GET", "/api/links/1", "", 99))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLinkAnalytics_Handler_Window(t *testing.T) {
	handler, storage := newLinksTestHandler(t)
	mustCreateLink(t, storage, &domain.Link{
		UserID: 1, Domain: "xpro.li", Slug: "abc123", DestinationURL: "https://example.com/",
	})

	// Half a window is invalid.
	rec := httptest.NewRecorder()
	handler.GetLinkAnalytics(rec, authedRequest("GET", "/api/links/1?startDate=2026-03-01T00:00:00Z", "", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.GetLinkAnalytics(rec,
		authedRequest("GET", "/api/links/1?startDate=2026-03-01T00:00:00Z&endDate=2026-03-02T00:00:00Z", "", 1))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.GetLinkAnalytics(rec, authedRequest("GET", "/api/links/1?startDate=not-a-date&endDate=also-not", "", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLink_Handler(t *testing.T) {
	handler, storage := newLinksTestHandler(t)
	mustCreateLink(t, storage, &domain.Link{
		UserID: 1, Domain: "xpro.li", Slug: "abc123", DestinationURL: "https://example.com/old",
	})

	body := `{"destination_url":"https://example.com/new","title":"Renamed"}`
	rec := httptest.NewRecorder()
	handler.UpdateLink(rec, authedRequest("PATCH", "/api/links/1", body, 1))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := storage.GetLinkByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new", stored.DestinationURL)
	require.NotNil(t, stored.Title)
	assert.Equal(t, "Renamed", *stored.Title)

	rec = httptest.NewRecorder()
	handler.UpdateLink(rec, authedRequest("PATCH", "/api/links/1", body, 99))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLink_Handler(t *testing.T) {
	handler, storage := newLinksTestHandler(t)
	link := mustCreateLink(t, storage, &domain.Link{
		UserID: 1, Domain: "xpro.li", Slug: "abc123", DestinationURL: "https://example.com/",
	})
	require.NoError(t, storage.CreateClick(context.Background(), &domain.ClickEvent{LinkID: link.ID}))

	rec := httptest.NewRecorder()
	handler.DeleteLink(rec, authedRequest("DELETE", "/api/links/1", "", 99))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.DeleteLink(rec, authedRequest("DELETE", "/api/links/1", "", 1))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Click history survives the link.
	assert.Equal(t, 1, storage.ClickCount(link.ID))
}

func TestLinksHandler_Unauthenticated(t *testing.T) {
	handler, _ := newLinksTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ListLinks(rec, httptest.NewRequest("GET", "/api/links", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
