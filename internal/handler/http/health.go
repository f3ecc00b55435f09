package http

import (
	"net/http"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/database"
	"github.com/sahsisunny/xproli-backend/internal/tracking"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	db       *gorm.DB
	pipeline *tracking.Pipeline
	log      *zap.Logger
	started  time.Time
}

func NewHealthHandler(db *gorm.DB, pipeline *tracking.Pipeline, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		pipeline: pipeline,
		log:      log,
		started:  time.Now(),
	}
}

// Health reports process liveness and the click pipeline queue depth.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}
	if h.pipeline != nil {
		data["click_pipeline"] = h.pipeline.Stats()
	}
	writeSuccess(w, data, http.StatusOK)
}

// Ready reports whether the database is reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := database.HealthCheck(h.db); err != nil {
			h.log.Warn("readiness check failed", zap.Error(err))
			writeError(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	writeSuccess(w, map[string]string{"database": "ok"}, http.StatusOK)
}
