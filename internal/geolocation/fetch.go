package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sync/errgroup"

	"github.com/westernwontons/geolocate/internal/provider"
)

var (
	ErrFetch       = errors.New("fetch failed")
	ErrNoAddresses = errors.New("no addresses to look up")
)

// FetchError reports the lookup of one address that failed.
type FetchError struct {
	Address netip.Addr
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching geolocation for %s: %v", e.Address, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// Fetcher looks up addresses against one provider with one API key.
type Fetcher struct {
	Client    *Client
	Provider  provider.Provider
	APIKey    string
	Endpoints provider.Endpoints
}

// Fetch returns one JSON value per address, in the order of addrs.
//
// A single address is fetched on the calling goroutine. Several addresses
// are fetched concurrently, one goroutine each. If any request fails the
// error is returned and no results are; a failure does not cancel the
// other requests, which are still waited for.
func (f *Fetcher) Fetch(ctx context.Context, addrs []netip.Addr) ([]json.RawMessage, error) {
	// Zones never reach the provider, so errors and logs drop them too.
	unzoned := make([]netip.Addr, len(addrs))
	for i, addr := range addrs {
		unzoned[i] = addr.WithZone("")
	}
	addrs = unzoned

	urls := make([]string, len(addrs))
	for i, addr := range addrs {
		url, err := f.Endpoints.BuildURL(f.Provider, addr, f.APIKey)
		if err != nil {
			return nil, err
		}
		urls[i] = url
	}

	switch len(addrs) {
	case 0:
		return nil, ErrNoAddresses
	case 1:
		result, err := f.fetchOne(ctx, addrs[0], urls[0])
		if err != nil {
			return nil, err
		}
		return []json.RawMessage{result}, nil
	default:
		return f.fetchMany(ctx, addrs, urls)
	}
}

func (f *Fetcher) fetchMany(ctx context.Context, addrs []netip.Addr, urls []string) ([]json.RawMessage, error) {
	// Each goroutine owns results[i], so no lock is needed.
	results := make([]json.RawMessage, len(addrs))

	var g errgroup.Group
	for i := range addrs {
		i := i
		g.Go(func() error {
			result, err := f.fetchOne(ctx, addrs[i], urls[i])
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, addr netip.Addr, url string) (json.RawMessage, error) {
	f.Client.logger.Debug().
		Str("provider", f.Provider.String()).
		Stringer("ip", addr).
		Msg("dispatching request")

	result, err := f.Client.Get(ctx, url)
	if err != nil {
		f.Client.logger.Error().
			Str("provider", f.Provider.String()).
			Stringer("ip", addr).
			Err(err).
			Msg("request failed")
		return nil, &FetchError{Address: addr, Err: err}
	}
	return result, nil
}
