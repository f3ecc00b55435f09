package http

import (
	"encoding/json"
	"net/http"

	"github.com/sahsisunny/xproli-backend/internal/domain"
	"github.com/sahsisunny/xproli-backend/internal/repository"

	"go.uber.org/zap"
)

// ClicksHandler ingests externally captured click events. Records are stored
// verbatim; no geo or user agent enrichment runs on this path.
type ClicksHandler struct {
	storage repository.Storage
	log     *zap.Logger
}

func NewClicksHandler(storage repository.Storage, log *zap.Logger) *ClicksHandler {
	return &ClicksHandler{
		storage: storage,
		log:     log,
	}
}

// RecordClickRequest is the external click capture payload.
type RecordClickRequest struct {
	LinkID      int64  `json:"linkId"`
	IP          string `json:"ip,omitempty"`
	Country     string `json:"country,omitempty"`
	City        string `json:"city,omitempty"`
	Device      string `json:"device,omitempty"`
	Browser     string `json:"browser,omitempty"`
	OS          string `json:"os,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
}

// RecordClick stores a click event submitted by an external collector.
func (h *ClicksHandler) RecordClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RecordClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid record click request", zap.Error(err))
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.LinkID == 0 {
		writeError(w, "linkId is required", http.StatusBadRequest)
		return
	}

	event := &domain.ClickEvent{
		LinkID:      req.LinkID,
		IP:          req.IP,
		Country:     req.Country,
		City:        req.City,
		Device:      req.Device,
		Browser:     req.Browser,
		OS:          req.OS,
		Referrer:    req.Referrer,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
	}

	if err := h.storage.CreateClick(r.Context(), event); err != nil {
		if err == repository.ErrLinkNotFound {
			writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to record click", zap.Int64("link_id", req.LinkID), zap.Error(err))
		writeError(w, "Failed to record click", http.StatusInternalServerError)
		return
	}

	writeSuccess(w, event, http.StatusCreated)
}
