package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

const unknown = "Unknown"

// Location is a normalized geo lookup result. Fields the lookup cannot
// resolve are set to "Unknown", never left empty.
type Location struct {
	Country string
	City    string
	Region  string
}

// Resolver maps an IP address to a Location. Implementations never return an
// error: unresolvable input degrades to "Unknown" fields.
type Resolver interface {
	Resolve(ip string) Location
	Close() error
}

// MaxMindResolver resolves locations from a local MaxMind GeoIP2/GeoLite2
// City database.
type MaxMindResolver struct {
	reader *geoip2.Reader
	log    *zap.Logger
}

// Open loads a MaxMind City database from disk.
func Open(dbPath string, log *zap.Logger) (*MaxMindResolver, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database %s: %w", dbPath, err)
	}

	log.Info("geoip database loaded", zap.String("path", dbPath))
	return &MaxMindResolver{reader: reader, log: log}, nil
}

// Resolve looks up an IP address. Invalid addresses and lookup misses all
// degrade to "Unknown".
func (r *MaxMindResolver) Resolve(ip string) Location {
	loc := Location{Country: unknown, City: unknown, Region: unknown}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return loc
	}

	record, err := r.reader.City(parsed)
	if err != nil {
		r.log.Debug("geoip lookup failed", zap.String("ip", ip), zap.Error(err))
		return loc
	}

	if name := record.Country.Names["en"]; name != "" {
		loc.Country = name
	}
	if name := record.City.Names["en"]; name != "" {
		loc.City = name
	}
	if len(record.Subdivisions) > 0 {
		if name := record.Subdivisions[0].Names["en"]; name != "" {
			loc.Region = name
		}
	}
	return loc
}

// Close releases the underlying database reader.
func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}

// NoopResolver is used when no geoip database is configured; every lookup
// resolves to "Unknown".
type NoopResolver struct{}

func (NoopResolver) Resolve(string) Location {
	return Location{Country: unknown, City: unknown, Region: unknown}
}

func (NoopResolver) Close() error { return nil }
