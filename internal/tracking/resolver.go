package tracking

import (
	"strings"

	"github.com/sahsisunny/xproli-backend/pkg/geoip"
	"github.com/sahsisunny/xproli-backend/pkg/useragent"
)

// Resolver maps a visitor address and User-Agent string to normalized
// location and device descriptors. It never fails: missing data degrades to
// default strings.
type Resolver struct {
	geo geoip.Resolver
	ua  *useragent.Parser
}

func NewResolver(geo geoip.Resolver, ua *useragent.Parser) *Resolver {
	return &Resolver{geo: geo, ua: ua}
}

// Locate resolves an IP address to a location. Loopback addresses map to a
// fixed development triple so local testing never touches the geo database.
func (r *Resolver) Locate(ip string) geoip.Location {
	if isLocal(ip) {
		return geoip.Location{Country: "Local", City: "Development", Region: "Local"}
	}
	return r.geo.Resolve(ip)
}

// Client parses the User-Agent string into device/browser/OS descriptors.
func (r *Resolver) Client(userAgent string) *useragent.ClientInfo {
	return r.ua.Parse(userAgent)
}

func isLocal(ip string) bool {
	return ip == "::1" || ip == "localhost" || strings.HasPrefix(ip, "127.0.0.1")
}
