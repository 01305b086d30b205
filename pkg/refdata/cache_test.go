package refdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider counts fetches and can be told to fail or stall.
type fakeProvider struct {
	countryCalls  int32
	regionCalls   int32
	hospitalCalls int32

	fail  bool
	delay time.Duration
}

func (f *fakeProvider) Countries(ctx context.Context) ([]Country, error) {
	atomic.AddInt32(&f.countryCalls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail {
		return nil, errors.New("provider down")
	}
	return []Country{
		{ID: "c2", Name: "Morocco"},
		{ID: "c1", Name: "Egypt"},
	}, nil
}

func (f *fakeProvider) Regions(ctx context.Context, countryID string) ([]Region, error) {
	atomic.AddInt32(&f.regionCalls, 1)
	if f.fail {
		return nil, errors.New("provider down")
	}
	return []Region{{ID: "r1", CountryID: countryID, Name: "Cairo"}}, nil
}

func (f *fakeProvider) Hospitals(ctx context.Context, regionID string) ([]Hospital, error) {
	atomic.AddInt32(&f.hospitalCalls, 1)
	if f.fail {
		return nil, errors.New("provider down")
	}
	return []Hospital{{ID: "h1", RegionID: regionID, Name: "Central Hospital"}}, nil
}

func TestCache_CountriesIdempotent(t *testing.T) {
	provider := &fakeProvider{}
	cache := NewCache(provider, nil)
	ctx := context.Background()

	first := cache.Countries(ctx)
	second := cache.Countries(ctx)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.countryCalls), "a hit must not refetch")

	// Sorted by display name.
	require.Len(t, first, 2)
	assert.Equal(t, "Egypt", first[0].Name)
	assert.Equal(t, "Morocco", first[1].Name)
}

func TestCache_ConcurrentMissesSingleFetch(t *testing.T) {
	provider := &fakeProvider{delay: 20 * time.Millisecond}
	cache := NewCache(provider, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := cache.Countries(ctx)
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.countryCalls), "concurrent misses must collapse into one fetch")
}

func TestCache_CountriesFailureReturnsEmpty(t *testing.T) {
	provider := &fakeProvider{fail: true}
	cache := NewCache(provider, nil)
	ctx := context.Background()

	assert.Empty(t, cache.Countries(ctx))

	// Failures are not cached: recovery is picked up on the next call.
	provider.fail = false
	assert.Len(t, cache.Countries(ctx), 2)
}

func TestCache_RegionsKeyedByCountry(t *testing.T) {
	provider := &fakeProvider{}
	cache := NewCache(provider, nil)
	ctx := context.Background()

	egypt := cache.RegionsFor(ctx, "c1")
	require.Len(t, egypt, 1)
	assert.Equal(t, "c1", egypt[0].CountryID)

	cache.RegionsFor(ctx, "c1")
	cache.RegionsFor(ctx, "c2")
	assert.Equal(t, int32(2), atomic.LoadInt32(&provider.regionCalls), "one fetch per country key")
}

func TestCache_HospitalsFallbackOnFailure(t *testing.T) {
	provider := &fakeProvider{fail: true}
	cache := NewCache(provider, nil)
	ctx := context.Background()

	got := cache.HospitalsFor(ctx, GlobalHospitals)
	require.Len(t, got, 1)
	assert.Equal(t, fallbackHospital.Name, got[0].Name, "registration must never be fully blocked")
}

func TestCache_HospitalsEmptyKeyIsGlobal(t *testing.T) {
	provider := &fakeProvider{}
	cache := NewCache(provider, nil)
	ctx := context.Background()

	cache.HospitalsFor(ctx, "")
	cache.HospitalsFor(ctx, GlobalHospitals)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.hospitalCalls))
}
