package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClicksTestHandler(t *testing.T) (*ClicksHandler, *memory.MemStorage) {
	t.Helper()
	storage := memory.New()
	return NewClicksHandler(storage, zap.NewNop()), storage
}

func TestRecordClick_Created(t *testing.T) {
	handler, storage := newClicksTestHandler(t)
	link := mustCreateLink(t, storage, &domain.Link{
		UserID: 1, Domain: "xpro.li", Slug: "abc123", DestinationURL: "https://example.com/",
	})

	body := `{"linkId":1,"ip":"203.0.113.9","country":"Germany","device":"Desktop (Linux)","utmSource":"newsletter"}`
	rec := httptest.NewRecorder()
	handler.RecordClick(rec, httptest.NewRequest("POST", "/api/clicks", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Status string             `json:"status"`
		Data   *domain.ClickEvent `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, link.ID, envelope.Data.LinkID)
	assert.NotZero(t, envelope.Data.ID)
	// The payload is stored verbatim; nothing runs the enrichment path here.
	assert.Equal(t, "Germany", envelope.Data.Country)
	assert.Equal(t, "newsletter", envelope.Data.UTMSource)
	assert.Equal(t, 1, storage.ClickCount(link.ID))
}

func TestRecordClick_UnknownLink(t *testing.T) {
	handler, _ := newClicksTestHandler(t)

	rec := httptest.NewRecorder()
	handler.RecordClick(rec, httptest.NewRequest("POST", "/api/clicks", strings.NewReader(`{"linkId":42}`)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Link not found", decodeError(t, rec)["message"])
}

func TestRecordClick_BadRequest(t *testing.T) {
	handler, _ := newClicksTestHandler(t)

	rec := httptest.NewRecorder()
	handler.RecordClick(rec, httptest.NewRequest("POST", "/api/clicks", strings.NewReader(`{not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.RecordClick(rec, httptest.NewRequest("POST", "/api/clicks", strings.NewReader(`{"ip":"1.2.3.4"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordClick_MethodNotAllowed(t *testing.T) {
	handler, _ := newClicksTestHandler(t)

	rec := httptest.NewRecorder()
	handler.RecordClick(rec, httptest.NewRequest("GET", "/api/clicks", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
