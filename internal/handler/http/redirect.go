package http

import (
	"net/http"
	"strings"

	"github.com/sahsisunny/xproli-backend/internal/repository"
	"github.com/sahsisunny/xproli-backend/internal/service"
	"github.com/sahsisunny/xproli-backend/internal/tracking"

	"go.uber.org/zap"
)

// RedirectHandler serves the public short-link routes: /{slug} and
// /{domain}/{slug}.
type RedirectHandler struct {
	redirects *service.RedirectService
	log       *zap.Logger
}

func NewRedirectHandler(redirects *service.RedirectService, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		redirects: redirects,
		log:       log,
	}
}

// HandleRedirect resolves the short link and issues the redirect. The click
// write happens concurrently with the response, never before it.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	linkDomain, slug, ok := splitShortPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	// Snapshot before responding; the pipeline must not touch the request.
	snap := tracking.Snap(r)
	password := r.URL.Query().Get("password")

	link, err := h.redirects.Resolve(r.Context(), linkDomain, slug, password, snap)
	if err != nil {
		switch err {
		case repository.ErrLinkNotFound:
			writeError(w, "Link not found", http.StatusNotFound)
		case service.ErrLinkExpired:
			writeError(w, "Link expired", http.StatusGone)
		case service.ErrPasswordRequired:
			writeError(w, "Password required", http.StatusUnauthorized)
		default:
			h.log.Error("failed to resolve redirect", zap.String("slug", slug), zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, link.DestinationURL, http.StatusFound)
}

// splitShortPath maps "/{slug}" to ("", slug) and "/{domain}/{slug}" to
// (domain, slug). System paths never reach this handler.
func splitShortPath(path string) (string, string, bool) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", "", false
	}

	parts := strings.Split(trimmed, "/")
	switch len(parts) {
	case 1:
		return "", parts[0], true
	case 2:
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}
