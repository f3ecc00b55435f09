package analytics

import (
	"github.com/sahsisunny/xproli-backend/internal/domain"
)

// Summary is the aggregated view over a set of click events. Breakdown maps
// are keyed by the raw categorical value; for a fixed event set the key→count
// pairs are identical regardless of input order.
type Summary struct {
	TotalClicks     int64 `json:"totalClicks"`
	UniqueCountries int   `json:"uniqueCountries"`
	UniqueDevices   int   `json:"uniqueDevices"`
	UniqueBrowsers  int   `json:"uniqueBrowsers"`

	ReferrerBreakdown map[string]int64 `json:"referrerBreakdown"`
	CountryBreakdown  map[string]int64 `json:"countryBreakdown"`
	DeviceBreakdown   map[string]int64 `json:"deviceBreakdown"`
	BrowserBreakdown  map[string]int64 `json:"browserBreakdown"`

	UTMBreakdown UTMBreakdown `json:"utmBreakdown"`
}

// UTMBreakdown groups click counts by campaign parameters.
type UTMBreakdown struct {
	Source   map[string]int64 `json:"source"`
	Medium   map[string]int64 `json:"medium"`
	Campaign map[string]int64 `json:"campaign"`
}

// Aggregate computes the click summary in a single pass. It is the one
// aggregation routine shared by the per-link analytics endpoint and the link
// listing; callers differ only in how many raw events they return alongside
// it (see Recent).
func Aggregate(events []*domain.ClickEvent) Summary {
	summary := Summary{
		TotalClicks:       int64(len(events)),
		ReferrerBreakdown: make(map[string]int64),
		CountryBreakdown:  make(map[string]int64),
		DeviceBreakdown:   make(map[string]int64),
		BrowserBreakdown:  make(map[string]int64),
		UTMBreakdown: UTMBreakdown{
			Source:   make(map[string]int64),
			Medium:   make(map[string]int64),
			Campaign: make(map[string]int64),
		},
	}

	for _, event := range events {
		summary.ReferrerBreakdown[orDefault(event.Referrer, "Direct")]++
		summary.CountryBreakdown[orDefault(event.Country, "Unknown")]++
		summary.DeviceBreakdown[event.Device]++
		summary.BrowserBreakdown[event.Browser]++

		summary.UTMBreakdown.Source[orDefault(event.UTMSource, "Direct")]++
		summary.UTMBreakdown.Medium[orDefault(event.UTMMedium, "None")]++
		summary.UTMBreakdown.Campaign[orDefault(event.UTMCampaign, "None")]++
	}

	summary.UniqueCountries = len(summary.CountryBreakdown)
	summary.UniqueDevices = len(summary.DeviceBreakdown)
	summary.UniqueBrowsers = len(summary.BrowserBreakdown)

	return summary
}

// Recent caps a newest-first event list to the given size. limit <= 0 returns
// the list unchanged.
func Recent(events []*domain.ClickEvent, limit int) []*domain.ClickEvent {
	if limit <= 0 || len(events) <= limit {
		return events
	}
	return events[:limit]
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
