package tracking

import (
	"context"
	"strings"

	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository"

	"go.uber.org/zap"
)

// Recorder builds and persists click events. It is strictly best-effort:
// every failure, including panics, is logged and converted into a nil result
// so the redirect path is never affected.
type Recorder struct {
	storage  repository.Storage
	resolver *Resolver
	log      *zap.Logger
}

func NewRecorder(storage repository.Storage, resolver *Resolver, log *zap.Logger) *Recorder {
	return &Recorder{
		storage:  storage,
		resolver: resolver,
		log:      log,
	}
}

// Record enriches a request snapshot into a ClickEvent and persists it.
// Returns nil on any failure.
func (r *Recorder) Record(ctx context.Context, snap *Snapshot, link *domain.Link) (event *domain.ClickEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic while recording click",
				zap.Int64("link_id", link.ID), zap.Any("panic", rec))
			event = nil
		}
	}()

	click := r.build(snap, link)
	if err := r.storage.CreateClick(ctx, click); err != nil {
		r.log.Error("failed to persist click event",
			zap.Int64("link_id", link.ID), zap.String("slug", link.Slug), zap.Error(err))
		return nil
	}

	r.log.Debug("recorded click",
		zap.Int64("link_id", link.ID),
		zap.String("slug", link.Slug),
		zap.String("country", click.Country),
		zap.String("device_type", click.DeviceType))
	return click
}

func (r *Recorder) build(snap *Snapshot, link *domain.Link) *domain.ClickEvent {
	ip := snap.ClientIP()
	loc := r.resolver.Locate(ip)
	client := r.resolver.Client(snap.UserAgent)

	click := &domain.ClickEvent{
		LinkID: link.ID,

		IP:      ip,
		Country: loc.Country,
		City:    loc.City,
		Region:  loc.Region,

		Device:       client.Device,
		DeviceType:   client.DeviceType,
		DeviceVendor: client.DeviceVendor,
		DeviceModel:  client.DeviceModel,

		Browser:        client.Browser,
		BrowserName:    client.BrowserName,
		BrowserVersion: client.BrowserVersion,

		OS:        client.OS,
		OSName:    client.OSName,
		OSVersion: client.OSVersion,

		Referrer:   defaultString(snap.Referrer, "Direct"),
		Language:   defaultString(snap.Language, "Unknown"),
		ScreenSize: snap.ScreenSize(),
	}

	click.UTMSource = snap.Query.Get("utm_source")
	click.UTMMedium = snap.Query.Get("utm_medium")
	click.UTMCampaign = snap.Query.Get("utm_campaign")
	click.UTMTerm = snap.Query.Get("utm_term")
	click.UTMContent = snap.Query.Get("utm_content")

	click.UTMParams = extraUTMParams(snap.Query)
	click.QueryParams = rawQueryParams(snap.Query)

	return click
}

// namedUTMKeys are captured into dedicated columns; every other utm_* key
// lands in the generic UTMParams map with the prefix stripped.
var namedUTMKeys = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
}

func extraUTMParams(query map[string][]string) map[string]interface{} {
	params := make(map[string]interface{})
	for key, values := range query {
		if !strings.HasPrefix(key, "utm_") || namedUTMKeys[key] || len(values) == 0 {
			continue
		}
		params[strings.TrimPrefix(key, "utm_")] = values[0]
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func rawQueryParams(query map[string][]string) map[string]interface{} {
	if len(query) == 0 {
		return nil
	}
	params := make(map[string]interface{}, len(query))
	for key, values := range query {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
