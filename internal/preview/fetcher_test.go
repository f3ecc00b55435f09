package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository/memory"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtract_OpenGraph(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Launch Post">
		<meta property="og:description" content="We shipped it">
		<meta property="og:image" content="https://example.com/cover.png">
		<meta property="og:site_name" content="Example Blog">
		<title>fallback title</title>
	</head><body></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	metadata := extract(doc)
	assert.Equal(t, "Launch Post", metadata["title"])
	assert.Equal(t, "We shipped it", metadata["description"])
	assert.Equal(t, "https://example.com/cover.png", metadata["image"])
	assert.Equal(t, "Example Blog", metadata["site_name"])
}

func TestExtract_Fallbacks(t *testing.T) {
	html := `<html><head>
		<title>  Plain Title  </title>
		<meta name="description" content="plain description">
	</head><body></body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	metadata := extract(doc)
	assert.Equal(t, "Plain Title", metadata["title"])
	assert.Equal(t, "plain description", metadata["description"])
}

func TestExtract_NothingUsable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>hi</p></body></html>"))
	require.NoError(t, err)

	assert.Empty(t, extract(doc))
}

func TestFetch_StoresMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xproli-preview-bot/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`<html><head><meta property="og:title" content="Landing"></head></html>`))
	}))
	defer server.Close()

	storage := memory.New()
	link := &domain.Link{UserID: 1, Domain: "xpro.li", Slug: "abc123", DestinationURL: server.URL}
	require.NoError(t, storage.CreateLink(context.Background(), link))

	fetcher := NewFetcher(storage, zap.NewNop())
	require.NoError(t, fetcher.fetch(context.Background(), link.ID, server.URL))

	stored, err := storage.GetLinkByID(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, "Landing", stored.Metadata["title"])
}

func TestFetch_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(memory.New(), zap.NewNop())
	assert.Error(t, fetcher.fetch(context.Background(), 1, server.URL))
}
