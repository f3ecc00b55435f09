package service

import (
	"context"
	"errors"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/cache"
	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository"
	"github.com/sahsisunny/xproli-backend/internal/tracking"

	"go.uber.org/zap"
)

var (
	ErrLinkExpired      = errors.New("link expired")
	ErrPasswordRequired = errors.New("password required")
)

// RedirectService resolves short links for the public redirect endpoint:
// lookup, expiry gate, password gate, then a fire-and-forget click
// submission. The redirect response never waits on the click write.
type RedirectService struct {
	storage  repository.Storage
	cache    *cache.LinkCache
	pipeline tracking.Submitter
	log      *zap.Logger
	now      func() time.Time
}

func NewRedirectService(storage repository.Storage, linkCache *cache.LinkCache, pipeline tracking.Submitter, log *zap.Logger) *RedirectService {
	return &RedirectService{
		storage:  storage,
		cache:    linkCache,
		pipeline: pipeline,
		log:      log,
		now:      time.Now,
	}
}

// Resolve applies the redirect gates for (domain, slug). An empty domain uses
// the slug-only lookup. On success the click snapshot is handed to the
// pipeline and the destination link is returned; the click outcome is not
// awaited and not surfaced.
func (s *RedirectService) Resolve(ctx context.Context, linkDomain, slug, password string, snap *tracking.Snapshot) (*domain.Link, error) {
	link, err := s.lookup(ctx, linkDomain, slug)
	if err != nil {
		return nil, err
	}

	// Expiry is checked before the password gate.
	if link.IsExpired(s.now()) {
		return nil, ErrLinkExpired
	}

	if link.PasswordProtected {
		if link.Password == nil || password == "" || password != *link.Password {
			// No click is recorded for a failed password gate.
			return nil, ErrPasswordRequired
		}
	}

	if link.AnalyticsEnabled {
		s.pipeline.Submit(snap, link)
	}

	s.log.Info("resolved redirect",
		zap.String("domain", link.Domain),
		zap.String("slug", link.Slug),
		zap.Int64("link_id", link.ID))
	return link, nil
}

func (s *RedirectService) lookup(ctx context.Context, linkDomain, slug string) (*domain.Link, error) {
	if linkDomain == "" {
		return s.storage.GetLinkBySlug(ctx, slug)
	}

	if link, ok := s.cache.Get(ctx, linkDomain, slug); ok {
		return link, nil
	}

	link, err := s.storage.GetLinkBySlugAndDomain(ctx, linkDomain, slug)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, link)
	return link, nil
}
