package preview

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/repository"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const fetchTimeout = 10 * time.Second

// Fetcher scrapes link-preview metadata (og: tags, title, description) from
// a destination URL and stores it on the link. It runs detached from the
// create request; failures are logged and the link simply keeps an empty
// metadata map.
type Fetcher struct {
	storage repository.Storage
	client  *http.Client
	log     *zap.Logger
}

func NewFetcher(storage repository.Storage, log *zap.Logger) *Fetcher {
	return &Fetcher{
		storage: storage,
		client:  &http.Client{Timeout: fetchTimeout},
		log:     log,
	}
}

// FetchAsync scrapes and stores preview metadata on its own goroutine. A nil
// fetcher disables the scrape.
func (f *Fetcher) FetchAsync(linkID int64, destinationURL string) {
	if f == nil {
		return
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				f.log.Error("panic while fetching link preview",
					zap.Int64("link_id", linkID), zap.Any("panic", rec))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if err := f.fetch(ctx, linkID, destinationURL); err != nil {
			f.log.Warn("failed to fetch link preview",
				zap.Int64("link_id", linkID), zap.String("url", destinationURL), zap.Error(err))
		}
	}()
}

func (f *Fetcher) fetch(ctx context.Context, linkID int64, destinationURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, destinationURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build preview request: %w", err)
	}
	req.Header.Set("User-Agent", "xproli-preview-bot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch destination: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("destination returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse destination html: %w", err)
	}

	metadata := extract(doc)
	if len(metadata) == 0 {
		return nil
	}

	if err := f.storage.UpdateLinkMetadata(ctx, linkID, metadata); err != nil {
		return fmt.Errorf("failed to store preview metadata: %w", err)
	}

	f.log.Debug("stored link preview metadata", zap.Int64("link_id", linkID))
	return nil
}

// extract pulls og: tags with plain <title>/<meta description> fallbacks.
func extract(doc *goquery.Document) map[string]interface{} {
	metadata := make(map[string]interface{})

	set := func(key, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			metadata[key] = value
		}
	}

	doc.Find("meta[property^='og:']").Each(func(_ int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		switch property {
		case "og:title":
			set("title", content)
		case "og:description":
			set("description", content)
		case "og:image":
			set("image", content)
		case "og:site_name":
			set("site_name", content)
		}
	})

	if _, ok := metadata["title"]; !ok {
		set("title", doc.Find("title").First().Text())
	}
	if _, ok := metadata["description"]; !ok {
		if content, exists := doc.Find("meta[name='description']").First().Attr("content"); exists {
			set("description", content)
		}
	}

	return metadata
}
