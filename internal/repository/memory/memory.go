package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository"
)

var _ repository.Storage = (*MemStorage)(nil)

// MemStorage is a mutex-guarded in-memory Storage implementation used in
// tests and local development.
type MemStorage struct {
	mu           sync.RWMutex
	usersByEmail map[string]*domain.User
	linksByID    map[int64]*domain.Link
	clicks       []*domain.ClickEvent
	userCounter  int64
	linkCounter  int64
	clickCounter int64
}

func New() *MemStorage {
	return &MemStorage{
		usersByEmail: make(map[string]*domain.User),
		linksByID:    make(map[int64]*domain.Link),
	}
}

// --- User Methods ---

func (s *MemStorage) CreateUser(_ context.Context, email, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return nil, repository.ErrEmailExists
	}

	s.userCounter++
	user := &domain.User{
		ID:           s.userCounter,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	s.usersByEmail[email] = user
	return user, nil
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *MemStorage) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.usersByEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// --- Link Methods ---

func (s *MemStorage) CreateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.linksByID {
		if existing.Domain == link.Domain && existing.Slug == link.Slug {
			return repository.ErrSlugExists
		}
	}

	s.linkCounter++
	link.ID = s.linkCounter
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	link.UpdatedAt = link.CreatedAt
	s.linksByID[link.ID] = link
	return nil
}

func (s *MemStorage) GetLinkBySlugAndDomain(_ context.Context, linkDomain, slug string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, link := range s.linksByID {
		if link.Domain == linkDomain && link.Slug == slug {
			return link, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (s *MemStorage) GetLinkBySlug(_ context.Context, slug string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, link := range s.linksByID {
		if link.Slug == slug {
			return link, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (s *MemStorage) GetLinkByID(_ context.Context, id int64) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.linksByID[id]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (s *MemStorage) ListUserLinks(_ context.Context, userID int64) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var links []*domain.Link
	for _, link := range s.linksByID {
		if link.UserID == userID {
			links = append(links, link)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})
	return links, nil
}

func (s *MemStorage) UpdateLink(_ context.Context, id, userID int64, patch *repository.LinkPatch) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.linksByID[id]
	if !ok || link.UserID != userID {
		return nil, repository.ErrLinkNotFound
	}

	if patch != nil {
		if patch.DestinationURL != nil {
			link.DestinationURL = *patch.DestinationURL
		}
		if patch.Title != nil {
			link.Title = patch.Title
		}
		if patch.Description != nil {
			link.Description = patch.Description
		}
		if patch.Tags != nil {
			link.Tags = patch.Tags
		}
		if patch.ExpiresAt != nil {
			link.ExpiresAt = patch.ExpiresAt
		}
		if patch.PasswordProtected != nil {
			link.PasswordProtected = *patch.PasswordProtected
		}
		if patch.Password != nil {
			link.Password = patch.Password
		}
		if patch.AnalyticsEnabled != nil {
			link.AnalyticsEnabled = *patch.AnalyticsEnabled
		}
		if patch.UTMSource != nil {
			link.UTMSource = patch.UTMSource
		}
		if patch.UTMMedium != nil {
			link.UTMMedium = patch.UTMMedium
		}
		if patch.UTMCampaign != nil {
			link.UTMCampaign = patch.UTMCampaign
		}
		link.UpdatedAt = time.Now()
	}
	return link, nil
}

func (s *MemStorage) DeleteLink(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.linksByID[id]
	if !ok || link.UserID != userID {
		return repository.ErrLinkNotFound
	}
	delete(s.linksByID, id)
	return nil
}

func (s *MemStorage) SlugExists(_ context.Context, linkDomain, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, link := range s.linksByID {
		if link.Domain == linkDomain && link.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStorage) UpdateLinkMetadata(_ context.Context, id int64, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.linksByID[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.Metadata = metadata
	return nil
}

// --- Click Methods ---

func (s *MemStorage) CreateClick(_ context.Context, click *domain.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.linksByID[click.LinkID]; !ok {
		return repository.ErrLinkNotFound
	}

	s.clickCounter++
	click.ID = s.clickCounter
	if click.Timestamp.IsZero() {
		click.Timestamp = time.Now()
	}
	click.CreatedAt = time.Now()
	s.clicks = append(s.clicks, click)
	return nil
}

func (s *MemStorage) ListClicksByLink(_ context.Context, linkID int64, from, to *time.Time, limit int) ([]*domain.ClickEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var clicks []*domain.ClickEvent
	for _, click := range s.clicks {
		if click.LinkID != linkID {
			continue
		}
		if from != nil && to != nil {
			if click.Timestamp.Before(*from) || click.Timestamp.After(*to) {
				continue
			}
		}
		clicks = append(clicks, click)
	}

	sort.Slice(clicks, func(i, j int) bool {
		return clicks[i].Timestamp.After(clicks[j].Timestamp)
	})
	if limit > 0 && len(clicks) > limit {
		clicks = clicks[:limit]
	}
	return clicks, nil
}

// ClickCount reports the number of stored click events for a link. Test helper.
func (s *MemStorage) ClickCount(linkID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, click := range s.clicks {
		if click.LinkID == linkID {
			n++
		}
	}
	return n
}
