// Package provider names the supported geolocation APIs and builds the
// request URL for each of them.
package provider

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// Provider identifies one of the supported geolocation HTTP APIs.
type Provider int

const (
	Ip2Location Provider = iota + 1
	IpGeolocation
)

var ErrUnknown = errors.New("unknown provider")

// All lists the providers in the order they are presented to users.
var All = []Provider{Ip2Location, IpGeolocation}

// String returns the canonical name, which is also the credential key.
func (p Provider) String() string {
	switch p {
	case Ip2Location:
		return "ip2location"
	case IpGeolocation:
		return "ipgeolocation"
	default:
		return fmt.Sprintf("provider(%d)", int(p))
	}
}

// Parse maps a canonical provider name back to its Provider.
func Parse(name string) (Provider, error) {
	for _, p := range All {
		if strings.EqualFold(name, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// Endpoints holds the base URL of each provider. Only the scheme, host
// and path are used; query parameters are always built by BuildURL.
type Endpoints struct {
	Ip2Location   string
	IpGeolocation string
}

// DefaultEndpoints are the public production hosts.
var DefaultEndpoints = Endpoints{
	Ip2Location:   "https://api.ip2location.io/",
	IpGeolocation: "https://api.ipgeolocation.io/ipgeo",
}

// BuildURL returns the lookup URL for addr against the production hosts.
func BuildURL(p Provider, addr netip.Addr, apiKey string) (string, error) {
	return DefaultEndpoints.BuildURL(p, addr, apiKey)
}

// BuildURL returns the lookup URL for addr. The query parameter order is
// fixed per provider and values are query-escaped.
func (e Endpoints) BuildURL(p Provider, addr netip.Addr, apiKey string) (string, error) {
	ip := url.QueryEscape(addr.WithZone("").String())
	key := url.QueryEscape(apiKey)

	switch p {
	case Ip2Location:
		return e.base(e.Ip2Location, DefaultEndpoints.Ip2Location) + "?ip=" + ip + "&key=" + key, nil
	case IpGeolocation:
		return e.base(e.IpGeolocation, DefaultEndpoints.IpGeolocation) + "?apiKey=" + key + "&ip=" + ip, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknown, p)
	}
}

func (e Endpoints) base(configured, fallback string) string {
	if configured == "" {
		return fallback
	}
	if i := strings.IndexAny(configured, "?#"); i >= 0 {
		configured = configured[:i]
	}
	return configured
}
