package service

import (
	"context"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/analytics"
	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository"

	"go.uber.org/zap"
)

// Caps on the raw events returned alongside a summary. Aggregation always
// runs over the full (optionally time-bounded) event set; only the returned
// detail list is capped.
const (
	AnalyticsEventsCap = 100
	ListingEventsCap   = 5
)

// AnalyticsService serves aggregated click analytics for link owners. Both
// the dedicated analytics endpoint and the link listing go through the same
// Summarize path; they differ only in the events cap.
type AnalyticsService struct {
	storage repository.Storage
	log     *zap.Logger
}

func NewAnalyticsService(storage repository.Storage, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		storage: storage,
		log:     log,
	}
}

// ForOwner returns the analytics for a link owned by userID, optionally
// bounded to [from, to]. Links that are absent or owned by someone else both
// surface as ErrLinkNotFound.
func (s *AnalyticsService) ForOwner(ctx context.Context, linkID, userID int64, from, to *time.Time, eventsCap int) (*domain.Link, analytics.Summary, []*domain.ClickEvent, error) {
	link, err := s.storage.GetLinkByID(ctx, linkID)
	if err != nil {
		return nil, analytics.Summary{}, nil, err
	}
	if link.UserID != userID {
		return nil, analytics.Summary{}, nil, repository.ErrLinkNotFound
	}

	summary, recent, err := s.Summarize(ctx, linkID, from, to, eventsCap)
	if err != nil {
		return nil, analytics.Summary{}, nil, err
	}
	return link, summary, recent, nil
}

// Summarize aggregates every click event for the link in the window and caps
// the returned raw list to the eventsCap most recent events.
func (s *AnalyticsService) Summarize(ctx context.Context, linkID int64, from, to *time.Time, eventsCap int) (analytics.Summary, []*domain.ClickEvent, error) {
	events, err := s.storage.ListClicksByLink(ctx, linkID, from, to, 0)
	if err != nil {
		s.log.Error("failed to list clicks for analytics", zap.Int64("link_id", linkID), zap.Error(err))
		return analytics.Summary{}, nil, err
	}

	return analytics.Aggregate(events), analytics.Recent(events, eventsCap), nil
}
