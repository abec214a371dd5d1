package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Location is the subset of geolocation data kept on an entry.
type Location struct {
	City    string `json:"city"`
	Region  string `json:"regionName"`
	Country string `json:"country"`
}

// PlaceholderLocation is recorded when the lookup fails or times out.
func PlaceholderLocation() Location {
	return Location{City: "Unknown", Region: "Unknown", Country: "Unknown"}
}

// Geolocator resolves client IPs against an external HTTP endpoint. The
// lookup is strictly bounded: it can slow the audit consumer, never a
// request.
type Geolocator struct {
	endpoint string
	client   *http.Client
}

// NewGeolocator constructs a Geolocator. timeout bounds each lookup.
func NewGeolocator(endpoint string, timeout time.Duration) *Geolocator {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Geolocator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Lookup resolves ip to a Location. Private and loopback addresses
// short-circuit to the placeholder without a network call, as does any
// lookup failure.
func (g *Geolocator) Lookup(ctx context.Context, ip string) Location {
	if g == nil || g.endpoint == "" || isLocalIP(ip) {
		return PlaceholderLocation()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", g.endpoint, ip), nil)
	if err != nil {
		return PlaceholderLocation()
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return PlaceholderLocation()
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return PlaceholderLocation()
	}
	var loc Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return PlaceholderLocation()
	}
	if loc.City == "" {
		loc.City = "Unknown"
	}
	return loc
}

func isLocalIP(raw string) bool {
	ip := net.ParseIP(raw)
	if ip == nil {
		return true
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified()
}
