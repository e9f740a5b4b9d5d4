package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when no database was configured.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// CountryResolver maps a client address to an ISO 3166-1 country code. The
// API uses it to tag submission logs with request origin.
type CountryResolver interface {
	CountryCode(addr string) (string, error)
}

// Resolver reads a MaxMind GeoIP2 country database.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the database at path. An empty path disables lookups and
// returns a nil resolver, which callers treat as "no tagging".
func NewResolver(path string) (CountryResolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// CountryCode resolves addr, which may be a bare IP or a host:port pair as
// produced by http.Request.RemoteAddr.
func (r *Resolver) CountryCode(addr string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	parsed := net.ParseIP(addr)
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", addr)
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record == nil || record.Country.IsoCode == "" {
		return "", nil
	}
	return record.Country.IsoCode, nil
}

// Close releases the database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
