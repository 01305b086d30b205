package refdata

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/biointellect/caregate/pkg/metrics"
)

// fallbackHospital keeps registration usable when the geography
// provider is completely unreachable.
var fallbackHospital = Hospital{
	ID:   "00000000-0000-0000-0000-000000000001",
	Code: "GEN",
	Name: "General Hospital",
}

// Cache is a process-lifetime cache of geography reference data.
// Entries are populated lazily and never evicted or mutated; a hit
// returns the same slice every time. Concurrent misses for the same
// key are collapsed into a single provider fetch. Failed fetches are
// not cached, so a later call retries.
type Cache struct {
	provider Provider
	log      logrus.FieldLogger

	mu        sync.RWMutex
	countries []Country
	regions   map[string][]Region
	hospitals map[string][]Hospital

	group singleflight.Group
}

// NewCache creates a reference-data cache over the given provider.
func NewCache(provider Provider, log logrus.FieldLogger) *Cache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Cache{
		provider:  provider,
		log:       log.WithField("component", "refdata"),
		regions:   make(map[string][]Region),
		hospitals: make(map[string][]Hospital),
	}
}

// Countries returns the cached country list, fetching and sorting it
// by display name on first use. Provider failure yields an empty list,
// never an error: reference data is a UX convenience, not a
// correctness-critical path.
func (c *Cache) Countries(ctx context.Context) []Country {
	c.mu.RLock()
	cached := c.countries
	c.mu.RUnlock()
	if cached != nil {
		metrics.RefdataCacheHitTotal.WithLabelValues("countries").Inc()
		return cached
	}

	result, err, _ := c.group.Do("countries", func() (interface{}, error) {
		c.mu.RLock()
		cached := c.countries
		c.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		countries, err := c.provider.Countries(ctx)
		if err != nil {
			return nil, err
		}
		sort.Slice(countries, func(i, j int) bool {
			return countries[i].Name < countries[j].Name
		})

		c.mu.Lock()
		c.countries = countries
		c.mu.Unlock()
		return countries, nil
	})
	if err != nil {
		metrics.RefdataFetchTotal.WithLabelValues("countries", "error").Inc()
		c.log.WithError(err).Warn("country fetch failed")
		return []Country{}
	}
	metrics.RefdataFetchTotal.WithLabelValues("countries", "ok").Inc()
	return result.([]Country)
}

// RegionsFor returns the cached region list for a country, fetching on
// first use. Empty on provider failure.
func (c *Cache) RegionsFor(ctx context.Context, countryKey string) []Region {
	c.mu.RLock()
	cached, ok := c.regions[countryKey]
	c.mu.RUnlock()
	if ok {
		metrics.RefdataCacheHitTotal.WithLabelValues("regions").Inc()
		return cached
	}

	result, err, _ := c.group.Do("regions:"+countryKey, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.regions[countryKey]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		regions, err := c.provider.Regions(ctx, countryKey)
		if err != nil {
			return nil, err
		}
		sort.Slice(regions, func(i, j int) bool {
			return regions[i].Name < regions[j].Name
		})

		c.mu.Lock()
		c.regions[countryKey] = regions
		c.mu.Unlock()
		return regions, nil
	})
	if err != nil {
		metrics.RefdataFetchTotal.WithLabelValues("regions", "error").Inc()
		c.log.WithError(err).WithField("country", countryKey).Warn("region fetch failed")
		return []Region{}
	}
	metrics.RefdataFetchTotal.WithLabelValues("regions", "ok").Inc()
	return result.([]Region)
}

// HospitalsFor returns the cached hospital list for a region key, or
// for GlobalHospitals the list of every active hospital. On total
// failure it returns the single built-in fallback entry so that
// registration flows are never completely blocked.
func (c *Cache) HospitalsFor(ctx context.Context, regionKey string) []Hospital {
	if regionKey == "" {
		regionKey = GlobalHospitals
	}

	c.mu.RLock()
	cached, ok := c.hospitals[regionKey]
	c.mu.RUnlock()
	if ok {
		metrics.RefdataCacheHitTotal.WithLabelValues("hospitals").Inc()
		return cached
	}

	result, err, _ := c.group.Do("hospitals:"+regionKey, func() (interface{}, error) {
		c.mu.RLock()
		cached, ok := c.hospitals[regionKey]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		provRegion := regionKey
		if provRegion == GlobalHospitals {
			provRegion = ""
		}
		hospitals, err := c.provider.Hospitals(ctx, provRegion)
		if err != nil {
			return nil, err
		}
		sort.Slice(hospitals, func(i, j int) bool {
			return hospitals[i].Name < hospitals[j].Name
		})

		c.mu.Lock()
		c.hospitals[regionKey] = hospitals
		c.mu.Unlock()
		return hospitals, nil
	})
	if err != nil {
		metrics.RefdataFetchTotal.WithLabelValues("hospitals", "error").Inc()
		c.log.WithError(err).WithField("region", regionKey).Warn("hospital fetch failed, serving fallback")
		return []Hospital{fallbackHospital}
	}
	metrics.RefdataFetchTotal.WithLabelValues("hospitals", "ok").Inc()
	return result.([]Hospital)
}

// Warm pre-populates the country and global hospital lists. Used by
// the scheduled warmup in cmd/caregate; errors are already swallowed
// by the fetch paths.
func (c *Cache) Warm(ctx context.Context) {
	c.Countries(ctx)
	c.HospitalsFor(ctx, GlobalHospitals)
}
