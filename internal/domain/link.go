package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Link represents a short link owned by a user. The (domain, slug) pair is
// unique across all links; expiry only blocks redirects, the record is kept
// for historical analytics.
type Link struct {
	ID     int64 `gorm:"primaryKey;column:id" json:"id"`
	UserID int64 `gorm:"column:user_id;not null;index" json:"user_id"`

	Domain         string         `gorm:"column:domain;size:253;not null;uniqueIndex:idx_links_domain_slug" json:"domain"`
	Slug           string         `gorm:"column:slug;size:64;not null;uniqueIndex:idx_links_domain_slug" json:"slug"`
	DestinationURL string         `gorm:"column:destination_url;type:text;not null" json:"destination_url"`
	Title          *string        `gorm:"column:title;size:255" json:"title,omitempty"`
	Description    *string        `gorm:"column:description;type:text" json:"description,omitempty"`
	Tags           datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags,omitempty"`

	ExpiresAt         *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	PasswordProtected bool       `gorm:"column:password_protected;not null;default:false" json:"password_protected"`
	Password          *string    `gorm:"column:password;size:128" json:"password,omitempty"`
	AnalyticsEnabled  bool       `gorm:"column:analytics_enabled;not null;default:true" json:"analytics_enabled"`

	// Default UTM parameters suggested to clients building campaign URLs
	UTMSource   *string `gorm:"column:utm_source;size:255" json:"utm_source,omitempty"`
	UTMMedium   *string `gorm:"column:utm_medium;size:255" json:"utm_medium,omitempty"`
	UTMCampaign *string `gorm:"column:utm_campaign;size:255" json:"utm_campaign,omitempty"`

	// Metadata holds scraped link-preview data (og:title, og:description, og:image)
	Metadata datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM
func (Link) TableName() string {
	return "links"
}

// IsExpired reports whether the link's expiry is set and in the past.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
