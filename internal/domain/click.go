package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ClickEvent represents a single visit to a short link. Events are
// append-only: they are never mutated or deleted by normal operation.
type ClickEvent struct {
	ID        int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID    int64     `gorm:"column:link_id;not null;index" json:"link_id"`
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`

	IP      string `gorm:"column:ip;size:64" json:"ip"`
	Country string `gorm:"column:country;size:100" json:"country"`
	City    string `gorm:"column:city;size:100" json:"city"`
	Region  string `gorm:"column:region;size:100" json:"region"`

	Device       string `gorm:"column:device;size:255" json:"device"`
	DeviceType   string `gorm:"column:device_type;size:32" json:"device_type"`
	DeviceVendor string `gorm:"column:device_vendor;size:100" json:"device_vendor"`
	DeviceModel  string `gorm:"column:device_model;size:100" json:"device_model"`

	Browser        string `gorm:"column:browser;size:255" json:"browser"`
	BrowserName    string `gorm:"column:browser_name;size:100" json:"browser_name"`
	BrowserVersion string `gorm:"column:browser_version;size:64" json:"browser_version"`

	OS        string `gorm:"column:os;size:255" json:"os"`
	OSName    string `gorm:"column:os_name;size:100" json:"os_name"`
	OSVersion string `gorm:"column:os_version;size:64" json:"os_version"`

	Referrer string `gorm:"column:referrer;size:500" json:"referrer"`

	UTMSource   string `gorm:"column:utm_source;size:255" json:"utm_source"`
	UTMMedium   string `gorm:"column:utm_medium;size:255" json:"utm_medium"`
	UTMCampaign string `gorm:"column:utm_campaign;size:255" json:"utm_campaign"`
	UTMTerm     string `gorm:"column:utm_term;size:255" json:"utm_term"`
	UTMContent  string `gorm:"column:utm_content;size:255" json:"utm_content"`

	// UTMParams collects any other utm_* query key (prefix stripped);
	// QueryParams keeps the raw query string as a map.
	UTMParams   datatypes.JSONMap `gorm:"column:utm_params;type:jsonb" json:"utm_params,omitempty"`
	QueryParams datatypes.JSONMap `gorm:"column:query_params;type:jsonb" json:"query_params,omitempty"`

	Language   string `gorm:"column:language;size:64" json:"language"`
	ScreenSize string `gorm:"column:screen_size;size:32" json:"screen_size"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM
func (ClickEvent) TableName() string {
	return "click_events"
}
