package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/domain"

	"gorm.io/datatypes"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrSlugExists   = errors.New("slug already exists for domain")
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already registered")
)

// LinkPatch describes an owner-scoped partial update. Nil fields are left
// untouched.
type LinkPatch struct {
	DestinationURL    *string
	Title             *string
	Description       *string
	Tags              datatypes.JSON
	ExpiresAt         *time.Time
	PasswordProtected *bool
	Password          *string
	AnalyticsEnabled  *bool
	UTMSource         *string
	UTMMedium         *string
	UTMCampaign       *string
}

type Storage interface {
	// User methods
	CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// Link methods
	CreateLink(ctx context.Context, link *domain.Link) error
	GetLinkBySlugAndDomain(ctx context.Context, linkDomain, slug string) (*domain.Link, error)
	GetLinkBySlug(ctx context.Context, slug string) (*domain.Link, error)
	GetLinkByID(ctx context.Context, id int64) (*domain.Link, error)
	ListUserLinks(ctx context.Context, userID int64) ([]*domain.Link, error)
	UpdateLink(ctx context.Context, id, userID int64, patch *LinkPatch) (*domain.Link, error)
	DeleteLink(ctx context.Context, id, userID int64) error
	SlugExists(ctx context.Context, linkDomain, slug string) (bool, error)
	UpdateLinkMetadata(ctx context.Context, id int64, metadata map[string]interface{}) error

	// Click methods. Events are append-only; ListClicksByLink returns the
	// most recent events first, optionally bounded to [from, to].
	CreateClick(ctx context.Context, click *domain.ClickEvent) error
	ListClicksByLink(ctx context.Context, linkID int64, from, to *time.Time, limit int) ([]*domain.ClickEvent, error)
}
