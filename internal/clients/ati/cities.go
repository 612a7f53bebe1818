package ati

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aristath/freightwatch/internal/clientdata"
	"github.com/rs/zerolog"
)

const (
	citiesTable    = "cities"
	citiesCacheKey = "dictionary"
	noCity         = "—"
)

// CityFetcher downloads the full city dictionary
type CityFetcher func(ctx context.Context) (map[string]string, error)

// CityDirectory resolves city ids to names from an in-memory copy of the
// marketplace dictionary, persisted in the client data cache between runs.
type CityDirectory struct {
	mu    sync.RWMutex
	names map[string]string
	cache *clientdata.Repository
	log   zerolog.Logger
}

// NewCityDirectory creates an empty directory. cache may be nil.
func NewCityDirectory(cache *clientdata.Repository, log zerolog.Logger) *CityDirectory {
	return &CityDirectory{
		names: make(map[string]string),
		cache: cache,
		log:   log.With().Str("component", "city_directory").Logger(),
	}
}

// Refresh loads the dictionary: fresh cache first, then the marketplace, then stale cache.
// Stale data is better than no data; an empty directory still renders ids.
func (d *CityDirectory) Refresh(ctx context.Context, fetch CityFetcher) error {
	if d.cache != nil {
		var cached map[string]string
		found, err := d.cache.GetIfFresh(citiesTable, citiesCacheKey, &cached)
		if err != nil {
			d.log.Warn().Err(err).Msg("Failed to read city cache, dropping entry")
			if err := d.cache.Delete(citiesTable, citiesCacheKey); err != nil {
				d.log.Warn().Err(err).Msg("Failed to drop city cache entry")
			}
		} else if found && len(cached) > 0 {
			d.set(cached)
			d.log.Info().Int("cities", len(cached)).Msg("City directory loaded from cache")
			return nil
		}
	}

	fetched, fetchErr := fetch(ctx)
	if fetchErr == nil && len(fetched) > 0 {
		d.set(fetched)
		if d.cache != nil {
			if err := d.cache.Store(citiesTable, citiesCacheKey, fetched, clientdata.TTLCities); err != nil {
				d.log.Warn().Err(err).Msg("Failed to cache city directory")
			}
		}
		d.log.Info().Int("cities", len(fetched)).Msg("City directory fetched from marketplace")
		return nil
	}

	if d.cache != nil {
		var stale map[string]string
		if found, err := d.cache.Get(citiesTable, citiesCacheKey, &stale); err == nil && found && len(stale) > 0 {
			d.set(stale)
			d.log.Warn().Err(fetchErr).Int("cities", len(stale)).Msg("City fetch failed, using stale cache")
			return nil
		}
	}

	if fetchErr == nil {
		fetchErr = fmt.Errorf("city dictionary is empty")
	}
	return fmt.Errorf("failed to load city directory: %w", fetchErr)
}

// Name returns the city name for an id: "—" for nil, "city #<id>" when unknown
func (d *CityDirectory) Name(cityID *int64) string {
	if cityID == nil {
		return noCity
	}
	id := strconv.FormatInt(*cityID, 10)

	d.mu.RLock()
	name, ok := d.names[id]
	d.mu.RUnlock()

	if ok {
		return name
	}
	return "city #" + id
}

// Len returns the number of known cities
func (d *CityDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}

func (d *CityDirectory) set(names map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = names
}

// rawCityNamer is used when no directory is wired
type rawCityNamer struct{}

func (rawCityNamer) Name(cityID *int64) string {
	if cityID == nil {
		return noCity
	}
	return "city #" + strconv.FormatInt(*cityID, 10)
}
