package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/cache"
	"github.com/sahsisunny/xproli-backend/internal/config"
	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/preview"
	"github.com/sahsisunny/xproli-backend/internal/repository"
	"github.com/sahsisunny/xproli-backend/pkg/random"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const maxSlugRetries = 5

// CreateLinkInput carries the validated fields for link creation. An empty
// Domain falls back to the configured platform default; an empty Slug gets a
// random one.
type CreateLinkInput struct {
	Domain            string
	Slug              string
	DestinationURL    string
	Title             *string
	Description       *string
	Tags              datatypes.JSON
	ExpiresAt         *time.Time
	PasswordProtected bool
	Password          *string
	AnalyticsEnabled  *bool
	UTMSource         *string
	UTMMedium         *string
	UTMCampaign       *string
}

// LinkService owns the link lifecycle: creation with slug generation and
// conflict checks, owner-scoped patch and delete, and the async preview
// metadata fetch.
type LinkService struct {
	storage repository.Storage
	cache   *cache.LinkCache
	preview *preview.Fetcher
	cfg     *config.Shortener
	log     *zap.Logger
}

func NewLinkService(storage repository.Storage, linkCache *cache.LinkCache, previewFetcher *preview.Fetcher, cfg *config.Shortener, log *zap.Logger) *LinkService {
	return &LinkService{
		storage: storage,
		cache:   linkCache,
		preview: previewFetcher,
		cfg:     cfg,
		log:     log,
	}
}

// Create registers a new link for the user. Conflicting (domain, slug) pairs
// fail with repository.ErrSlugExists regardless of destination.
func (s *LinkService) Create(ctx context.Context, userID int64, input *CreateLinkInput) (*domain.Link, error) {
	linkDomain := input.Domain
	if linkDomain == "" {
		linkDomain = s.cfg.DefaultDomain
	}

	slug := input.Slug
	if slug == "" {
		var err error
		slug, err = s.generateSlug(ctx, linkDomain)
		if err != nil {
			return nil, err
		}
	}

	analyticsEnabled := true
	if input.AnalyticsEnabled != nil {
		analyticsEnabled = *input.AnalyticsEnabled
	}

	link := &domain.Link{
		UserID:            userID,
		Domain:            linkDomain,
		Slug:              slug,
		DestinationURL:    input.DestinationURL,
		Title:             input.Title,
		Description:       input.Description,
		Tags:              input.Tags,
		ExpiresAt:         input.ExpiresAt,
		PasswordProtected: input.PasswordProtected,
		Password:          input.Password,
		AnalyticsEnabled:  analyticsEnabled,
		UTMSource:         input.UTMSource,
		UTMMedium:         input.UTMMedium,
		UTMCampaign:       input.UTMCampaign,
	}

	if err := s.storage.CreateLink(ctx, link); err != nil {
		return nil, err
	}

	// Preview scrape runs detached; the creation response does not wait for it.
	s.preview.FetchAsync(link.ID, link.DestinationURL)

	return link, nil
}

// Update applies an owner-scoped patch and drops the cached entry.
func (s *LinkService) Update(ctx context.Context, id, userID int64, patch *repository.LinkPatch) (*domain.Link, error) {
	link, err := s.storage.UpdateLink(ctx, id, userID, patch)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, link.Domain, link.Slug)
	return link, nil
}

// Delete removes an owned link and drops the cached entry. Click history is
// kept.
func (s *LinkService) Delete(ctx context.Context, id, userID int64) error {
	link, err := s.storage.GetLinkByID(ctx, id)
	if err != nil {
		return err
	}
	if link.UserID != userID {
		return repository.ErrLinkNotFound
	}

	if err := s.storage.DeleteLink(ctx, id, userID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, link.Domain, link.Slug)
	return nil
}

// List returns the user's links, newest first.
func (s *LinkService) List(ctx context.Context, userID int64) ([]*domain.Link, error) {
	return s.storage.ListUserLinks(ctx, userID)
}

func (s *LinkService) generateSlug(ctx context.Context, linkDomain string) (string, error) {
	for i := 0; i < maxSlugRetries; i++ {
		slug, err := random.NewRandomString(s.cfg.SlugLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate slug: %w", err)
		}

		exists, err := s.storage.SlugExists(ctx, linkDomain, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug existence: %w", err)
		}
		if !exists {
			return slug, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique slug after %d attempts", maxSlugRetries)
}
