package tracking

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Snapshot captures everything the click pipeline needs from an inbound
// request. It is taken on the request goroutine before the redirect response
// is written, so workers never touch the live *http.Request.
type Snapshot struct {
	RemoteAddr     string
	ForwardedFor   string
	RealIP         string
	UserAgent      string
	Referrer       string
	Language       string
	ViewportWidth  string
	ViewportHeight string
	Query          url.Values
}

// Snap copies the tracking-relevant parts of a request.
func Snap(r *http.Request) *Snapshot {
	width := r.Header.Get("Sec-CH-Viewport-Width")
	if width == "" {
		width = r.Header.Get("Viewport-Width")
	}

	return &Snapshot{
		RemoteAddr:     r.RemoteAddr,
		ForwardedFor:   r.Header.Get("X-Forwarded-For"),
		RealIP:         r.Header.Get("X-Real-IP"),
		UserAgent:      r.UserAgent(),
		Referrer:       r.Referer(),
		Language:       r.Header.Get("Accept-Language"),
		ViewportWidth:  width,
		ViewportHeight: r.Header.Get("Sec-CH-Viewport-Height"),
		Query:          r.URL.Query(),
	}
}

// ClientIP resolves the visitor address: the first hop of a forwarded-for
// chain, then the real-ip header, then the connection address, else "Unknown".
func (s *Snapshot) ClientIP() string {
	if s.ForwardedFor != "" {
		hops := strings.Split(s.ForwardedFor, ",")
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}

	if ip := strings.TrimSpace(s.RealIP); ip != "" {
		return ip
	}

	if s.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(s.RemoteAddr)
		if err != nil {
			return s.RemoteAddr
		}
		return host
	}

	return "Unknown"
}

// ScreenSize composes a viewport description from client-hint headers:
// "WxH" when both hints are present, the bare width when only one is,
// "Unknown" otherwise.
func (s *Snapshot) ScreenSize() string {
	if s.ViewportWidth == "" {
		return "Unknown"
	}
	if s.ViewportHeight != "" {
		return s.ViewportWidth + "x" + s.ViewportHeight
	}
	return s.ViewportWidth
}
