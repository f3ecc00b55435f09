package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var _ repository.Storage = (*PostgresStorage)(nil)

// PostgresStorage implements the Storage interface on top of PostgreSQL.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New creates a new PostgreSQL storage instance
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- User Methods ---

// CreateUser creates a new user with an already-hashed password.
func (s *PostgresStorage) CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	var existing domain.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, repository.ErrEmailExists
	}
	if err != gorm.ErrRecordNotFound {
		s.log.Error("failed to check email existence", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	user := domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID), zap.String("email", email))
	return &user, nil
}

// GetUserByEmail returns an active user by email.
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByID returns an active user by id.
func (s *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by id", zap.Int64("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// --- Link Methods ---

// CreateLink saves a new link, enforcing (domain, slug) uniqueness.
func (s *PostgresStorage) CreateLink(ctx context.Context, link *domain.Link) error {
	var existing domain.Link
	err := s.db.WithContext(ctx).Where("domain = ? AND slug = ?", link.Domain, link.Slug).First(&existing).Error
	if err == nil {
		return repository.ErrSlugExists
	}
	if err != gorm.ErrRecordNotFound {
		s.log.Error("failed to check slug existence",
			zap.String("domain", link.Domain), zap.String("slug", link.Slug), zap.Error(err))
		return fmt.Errorf("failed to check slug: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		s.log.Error("failed to create link",
			zap.String("domain", link.Domain), zap.String("slug", link.Slug), zap.Error(err))
		return fmt.Errorf("failed to create link: %w", err)
	}

	s.log.Info("created link",
		zap.String("domain", link.Domain), zap.String("slug", link.Slug), zap.Int64("user_id", link.UserID))
	return nil
}

// GetLinkBySlugAndDomain returns the link registered for (domain, slug).
func (s *PostgresStorage) GetLinkBySlugAndDomain(ctx context.Context, linkDomain, slug string) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).Where("domain = ? AND slug = ?", linkDomain, slug).First(&link).Error
	if err == gorm.ErrRecordNotFound {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link",
			zap.String("domain", linkDomain), zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// GetLinkBySlug returns a link by slug alone (single-domain route).
func (s *PostgresStorage) GetLinkBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error
	if err == gorm.ErrRecordNotFound {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link by slug", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// GetLinkByID returns a link by id.
func (s *PostgresStorage) GetLinkByID(ctx context.Context, id int64) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if err == gorm.ErrRecordNotFound {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link by id", zap.Int64("link_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// ListUserLinks returns all links owned by a user, newest first.
func (s *PostgresStorage) ListUserLinks(ctx context.Context, userID int64) ([]*domain.Link, error) {
	var links []*domain.Link
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&links).Error
	if err != nil {
		s.log.Error("failed to list user links", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list user links: %w", err)
	}
	return links, nil
}

// UpdateLink applies an owner-scoped partial update and returns the updated link.
func (s *PostgresStorage) UpdateLink(ctx context.Context, id, userID int64, patch *repository.LinkPatch) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&link).Error
	if err == gorm.ErrRecordNotFound {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link for update", zap.Int64("link_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	updates := patchToUpdates(patch)
	if len(updates) == 0 {
		return &link, nil
	}

	if err := s.db.WithContext(ctx).Model(&link).Updates(updates).Error; err != nil {
		s.log.Error("failed to update link", zap.Int64("link_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	s.log.Info("updated link", zap.Int64("link_id", id), zap.Int64("user_id", userID))
	return &link, nil
}

// DeleteLink removes a link owned by the given user.
func (s *PostgresStorage) DeleteLink(ctx context.Context, id, userID int64) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Link{})
	if result.Error != nil {
		s.log.Error("failed to delete link", zap.Int64("link_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to delete link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}

	s.log.Info("deleted link", zap.Int64("link_id", id), zap.Int64("user_id", userID))
	return nil
}

// SlugExists reports whether (domain, slug) is already registered.
func (s *PostgresStorage) SlugExists(ctx context.Context, linkDomain, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("domain = ? AND slug = ?", linkDomain, slug).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check slug existence",
			zap.String("domain", linkDomain), zap.String("slug", slug), zap.Error(err))
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// UpdateLinkMetadata stores scraped preview metadata for a link.
func (s *PostgresStorage) UpdateLinkMetadata(ctx context.Context, id int64, metadata map[string]interface{}) error {
	err := s.db.WithContext(ctx).Model(&domain.Link{}).
		Where("id = ?", id).Update("metadata", metadata).Error
	if err != nil {
		s.log.Error("failed to update link metadata", zap.Int64("link_id", id), zap.Error(err))
		return fmt.Errorf("failed to update link metadata: %w", err)
	}
	return nil
}

// --- Click Methods ---

// CreateClick appends a click event for an existing link.
func (s *PostgresStorage) CreateClick(ctx context.Context, click *domain.ClickEvent) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("id = ?", click.LinkID).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check link for click", zap.Int64("link_id", click.LinkID), zap.Error(err))
		return fmt.Errorf("failed to check link: %w", err)
	}
	if count == 0 {
		return repository.ErrLinkNotFound
	}

	if click.Timestamp.IsZero() {
		click.Timestamp = time.Now()
	}

	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		s.log.Error("failed to create click event", zap.Int64("link_id", click.LinkID), zap.Error(err))
		return fmt.Errorf("failed to create click: %w", err)
	}
	return nil
}

// ListClicksByLink returns the most recent click events for a link, optionally
// bounded to the [from, to] window. limit <= 0 means no cap.
func (s *PostgresStorage) ListClicksByLink(ctx context.Context, linkID int64, from, to *time.Time, limit int) ([]*domain.ClickEvent, error) {
	query := s.db.WithContext(ctx).Where("link_id = ?", linkID)
	if from != nil && to != nil {
		query = query.Where("timestamp >= ? AND timestamp <= ?", *from, *to)
	}

	query = query.Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var clicks []*domain.ClickEvent
	if err := query.Find(&clicks).Error; err != nil {
		s.log.Error("failed to list clicks", zap.Int64("link_id", linkID), zap.Error(err))
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	return clicks, nil
}

// patchToUpdates flattens a LinkPatch into a gorm update map.
func patchToUpdates(patch *repository.LinkPatch) map[string]interface{} {
	updates := make(map[string]interface{})
	if patch == nil {
		return updates
	}
	if patch.DestinationURL != nil {
		updates["destination_url"] = *patch.DestinationURL
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Tags != nil {
		updates["tags"] = patch.Tags
	}
	if patch.ExpiresAt != nil {
		updates["expires_at"] = *patch.ExpiresAt
	}
	if patch.PasswordProtected != nil {
		updates["password_protected"] = *patch.PasswordProtected
	}
	if patch.Password != nil {
		updates["password"] = *patch.Password
	}
	if patch.AnalyticsEnabled != nil {
		updates["analytics_enabled"] = *patch.AnalyticsEnabled
	}
	if patch.UTMSource != nil {
		updates["utm_source"] = *patch.UTMSource
	}
	if patch.UTMMedium != nil {
		updates["utm_medium"] = *patch.UTMMedium
	}
	if patch.UTMCampaign != nil {
		updates["utm_campaign"] = *patch.UTMCampaign
	}
	return updates
}
