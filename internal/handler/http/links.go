package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/analytics"
	"github.com/sahsisunny/xproli-backend/internal/auth"
	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository"
	"github.com/sahsisunny/xproli-backend/internal/service"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// LinksHandler serves the owner-scoped link CRUD and analytics endpoints.
type LinksHandler struct {
	links       *service.LinkService
	linkStats   *service.AnalyticsService
	log         *zap.Logger
	defaultHost string
}

func NewLinksHandler(links *service.LinkService, linkStats *service.AnalyticsService, log *zap.Logger, defaultHost string) *LinksHandler {
	return &LinksHandler{
		links:       links,
		linkStats:   linkStats,
		log:         log,
		defaultHost: defaultHost,
	}
}

// CreateLinkRequest is the link creation payload.
type CreateLinkRequest struct {
	Domain            string   `json:"domain,omitempty"`
	Slug              string   `json:"slug,omitempty"`
	DestinationURL    string   `json:"destination_url"`
	Title             *string  `json:"title,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	ExpiresAt         string   `json:"expires_at,omitempty"`
	PasswordProtected bool     `json:"password_protected,omitempty"`
	Password          *string  `json:"password,omitempty"`
	AnalyticsEnabled  *bool    `json:"analytics_enabled,omitempty"`
	UTMSource         *string  `json:"utm_source,omitempty"`
	UTMMedium         *string  `json:"utm_medium,omitempty"`
	UTMCampaign       *string  `json:"utm_campaign,omitempty"`
}

// UpdateLinkRequest is the owner-scoped patch payload. Absent fields are left
// untouched.
type UpdateLinkRequest struct {
	DestinationURL    *string  `json:"destination_url,omitempty"`
	Title             *string  `json:"title,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	ExpiresAt         *string  `json:"expires_at,omitempty"`
	PasswordProtected *bool    `json:"password_protected,omitempty"`
	Password          *string  `json:"password,omitempty"`
	AnalyticsEnabled  *bool    `json:"analytics_enabled,omitempty"`
	UTMSource         *string  `json:"utm_source,omitempty"`
	UTMMedium         *string  `json:"utm_medium,omitempty"`
	UTMCampaign       *string  `json:"utm_campaign,omitempty"`
}

// LinkAnalytics is the aggregated summary plus the capped raw event list.
type LinkAnalytics struct {
	analytics.Summary
	Clicks []*domain.ClickEvent `json:"clicks"`
}

// LinkResponse is a link plus its assembled short URL.
type LinkResponse struct {
	*domain.Link
	ShortURL string `json:"short_url"`
}

// ListedLink is a link with its embedded analytics in the listing response.
type ListedLink struct {
	LinkResponse
	Analytics LinkAnalytics `json:"analytics"`
}

// CreateLink registers a new short link for the authenticated user.
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.DestinationURL == "" {
		writeError(w, "Destination URL is required", http.StatusBadRequest)
		return
	}
	if req.PasswordProtected && (req.Password == nil || *req.Password == "") {
		writeError(w, "Password is required for protected links", http.StatusBadRequest)
		return
	}

	input := &service.CreateLinkInput{
		Domain:            req.Domain,
		Slug:              req.Slug,
		DestinationURL:    req.DestinationURL,
		Title:             req.Title,
		Description:       req.Description,
		PasswordProtected: req.PasswordProtected,
		Password:          req.Password,
		AnalyticsEnabled:  req.AnalyticsEnabled,
		UTMSource:         req.UTMSource,
		UTMMedium:         req.UTMMedium,
		UTMCampaign:       req.UTMCampaign,
	}

	if len(req.Tags) > 0 {
		tags, err := json.Marshal(req.Tags)
		if err != nil {
			writeError(w, "Invalid tags", http.StatusBadRequest)
			return
		}
		input.Tags = datatypes.JSON(tags)
	}

	if req.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeError(w, "Invalid expires_at format, use RFC3339", http.StatusBadRequest)
			return
		}
		input.ExpiresAt = &expiresAt
	}

	link, err := h.links.Create(r.Context(), userID, input)
	if err != nil {
		if err == repository.ErrSlugExists {
			writeError(w, "Slug already exists for this domain", http.StatusConflict)
			return
		}
		h.log.Error("failed to create link", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, "Failed to create link", http.StatusInternalServerError)
		return
	}

	h.log.Info("created link",
		zap.String("domain", link.Domain), zap.String("slug", link.Slug), zap.Int64("user_id", userID))
	writeSuccess(w, LinkResponse{Link: link, ShortURL: h.shortURL(link)}, http.StatusCreated)
}

// ListLinks returns the user's links, each with its summary and the 5 most
// recent click events.
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	links, err := h.links.List(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list links", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, "Failed to retrieve links", http.StatusInternalServerError)
		return
	}

	listed := make([]ListedLink, 0, len(links))
	for _, link := range links {
		summary, recent, err := h.linkStats.Summarize(r.Context(), link.ID, nil, nil, service.ListingEventsCap)
		if err != nil {
			h.log.Error("failed to summarize link clicks", zap.Int64("link_id", link.ID), zap.Error(err))
			writeError(w, "Failed to retrieve links", http.StatusInternalServerError)
			return
		}
		listed = append(listed, ListedLink{
			LinkResponse: LinkResponse{Link: link, ShortURL: h.shortURL(link)},
			Analytics:    LinkAnalytics{Summary: summary, Clicks: clicksOrEmpty(recent)},
		})
	}

	writeSuccess(w, listed, http.StatusOK)
}

// GetLinkAnalytics returns the aggregated analytics for an owned link,
// optionally bounded by startDate/endDate, with the 100 most recent events.
func (h *LinksHandler) GetLinkAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	linkID, ok := linkIDFromPath(r.URL.Path)
	if !ok {
		writeError(w, "Link id is required", http.StatusBadRequest)
		return
	}

	from, to, err := parseWindow(r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, summary, recent, err := h.linkStats.ForOwner(r.Context(), linkID, userID, from, to, service.AnalyticsEventsCap)
	if err != nil {
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get link analytics", zap.Int64("link_id", linkID), zap.Error(err))
		writeError(w, "Failed to retrieve analytics", http.StatusInternalServerError)
		return
	}

	writeSuccess(w, LinkAnalytics{Summary: summary, Clicks: clicksOrEmpty(recent)}, http.StatusOK)
}

// UpdateLink applies an owner-scoped patch.
func (h *LinksHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	linkID, ok := linkIDFromPath(r.URL.Path)
	if !ok {
		writeError(w, "Link id is required", http.StatusBadRequest)
		return
	}

	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid update link request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	patch := &repository.LinkPatch{
		DestinationURL:    req.DestinationURL,
		Title:             req.Title,
		Description:       req.Description,
		PasswordProtected: req.PasswordProtected,
		Password:          req.Password,
		AnalyticsEnabled:  req.AnalyticsEnabled,
		UTMSource:         req.UTMSource,
		UTMMedium:         req.UTMMedium,
		UTMCampaign:       req.UTMCampaign,
	}

	if len(req.Tags) > 0 {
		tags, err := json.Marshal(req.Tags)
		if err != nil {
			writeError(w, "Invalid tags", http.StatusBadRequest)
			return
		}
		patch.Tags = datatypes.JSON(tags)
	}

	if req.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			writeError(w, "Invalid expires_at format, use RFC3339", http.StatusBadRequest)
			return
		}
		patch.ExpiresAt = &expiresAt
	}

	link, err := h.links.Update(r.Context(), linkID, userID, patch)
	if err != nil {
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to update link", zap.Int64("link_id", linkID), zap.Error(err))
		writeError(w, "Failed to update link", http.StatusInternalServerError)
		return
	}

	h.log.Info("updated link", zap.Int64("link_id", linkID), zap.Int64("user_id", userID))
	writeSuccess(w, LinkResponse{Link: link, ShortURL: h.shortURL(link)}, http.StatusOK)
}

// DeleteLink removes an owned link. Its click history is kept.
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	linkID, ok := linkIDFromPath(r.URL.Path)
	if !ok {
		writeError(w, "Link id is required", http.StatusBadRequest)
		return
	}

	if err := h.links.Delete(r.Context(), linkID, userID); err != nil {
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete link", zap.Int64("link_id", linkID), zap.Error(err))
		writeError(w, "Failed to delete link", http.StatusInternalServerError)
		return
	}

	h.log.Info("deleted link", zap.Int64("link_id", linkID), zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *LinksHandler) shortURL(link *domain.Link) string {
	host := link.Domain
	if host == "" {
		host = h.defaultHost
	}
	return "https://" + host + "/" + link.Slug
}

// parseWindow validates the startDate/endDate pair: both or neither.
func parseWindow(startDate, endDate string) (*time.Time, *time.Time, error) {
	if startDate == "" && endDate == "" {
		return nil, nil, nil
	}
	if startDate == "" || endDate == "" {
		return nil, nil, errInvalidWindow
	}

	from, err := time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, nil, errInvalidWindow
	}
	to, err := time.Parse(time.RFC3339, endDate)
	if err != nil {
		return nil, nil, errInvalidWindow
	}
	return &from, &to, nil
}

var errInvalidWindow = errors.New("startDate and endDate must both be valid RFC3339 instants")

// linkIDFromPath extracts the id from /api/links/{id}.
func linkIDFromPath(path string) (int64, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[2] == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func clicksOrEmpty(clicks []*domain.ClickEvent) []*domain.ClickEvent {
	if clicks == nil {
		return []*domain.ClickEvent{}
	}
	return clicks
}
