package geo

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"notashark/internal/common"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Geolocation service
const DEFAULT_URL = "https://get.geojs.io"
const ROUTE_COUNTRY = "/v1/ip/country/%s.json"

// Country of an address. Both fields are empty if the country is unknown
type Country struct {
	Code string `json:"country"`
	Name string `json:"name"`
}

// Resolver finds out the country of an ip address. Every address found
// is kept for the lifetime of the resolver and never requested again
type Resolver struct {
	url       string
	proxy     *common.Proxy
	mu        sync.RWMutex
	countries map[string]Country
}

func NewResolver(url string, restrictions []common.Restriction) *Resolver {
	if url == "" {
		url = DEFAULT_URL
	}
	return &Resolver{
		url:       url,
		proxy:     common.NewProxy(map[string]string{"Accept": "application/json"}, restrictions),
		countries: map[string]Country{},
	}
}

func (resolver *Resolver) Resolve(ctx context.Context, ip string) (Country, error) {

	// Check cache
	resolver.mu.RLock()
	country, ok := resolver.countries[ip]
	resolver.mu.RUnlock()
	if ok {
		return country, nil
	}
	log.Debug().Msg(fmt.Sprintf("Country of %s is not in the cache", ip))

	if ip == "" {
		return Country{}, fmt.Errorf("cannot resolve the country of an empty address")
	}

	// Request. Concurrent misses for the same address may both get here,
	// the result is the same so the last one simply overwrites the first
	data, err := resolver.proxy.Request(ctx, resolver.url+fmt.Sprintf(ROUTE_COUNTRY, url.PathEscape(ip)), true)
	if err != nil {
		return Country{}, fmt.Errorf("could not find country for ip %s: %w", ip, err)
	}

	// Decode
	if err := json.Unmarshal(data, &country); err != nil {
		return Country{}, fmt.Errorf("country data for ip %s is not correctly formatted: %w", ip, err)
	}
	// Addresses geojs cannot place come without a country,
	// and are kept as an unknown country
	if country.Code == "" {
		log.Info().Msg(fmt.Sprintf("No country known for ip %s", ip))
		country = Country{}
	} else {
		log.Debug().Msg(fmt.Sprintf("Found country %s (%s) for ip %s", country.Name, country.Code, ip))
	}

	// Update cache
	resolver.mu.Lock()
	resolver.countries[ip] = country
	resolver.mu.Unlock()
	return country, nil
}

// Number of addresses in the cache
func (resolver *Resolver) Len() int {
	resolver.mu.RLock()
	defer resolver.mu.RUnlock()
	return len(resolver.countries)
}
