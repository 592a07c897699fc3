package geocoding

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/UnknownOlympus/ridefare/internal/address"
	"github.com/UnknownOlympus/ridefare/internal/models"
)

// Cache is the precomputed address lookup table loaded at the start of a run.
// It is never written during a run, so concurrent readers need no locking.
//
// Lookups try the raw address first. Failing that, the normalized form is
// used, so "Kraków, Rynek Główny" and "Krakow Rynek Glowny" share an entry.
// The normalized fallback only covers addresses that transliterate without
// loss and normalized keys that point at a single coordinate.
type Cache struct {
	exact      map[string]models.Coordinate
	normalized map[string]models.Coordinate
	dropped    int
}

// NewCache builds a cache from raw address keys. Entries outside the WGS84
// bounds are dropped and counted.
func NewCache(raw map[string]models.Coordinate) *Cache {
	cache := &Cache{
		exact:      make(map[string]models.Coordinate, len(raw)),
		normalized: make(map[string]models.Coordinate, len(raw)),
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ambiguous := make(map[string]struct{})
	for _, key := range keys {
		coord := raw[key]
		if !coord.Valid() {
			cache.dropped++
			continue
		}
		cache.exact[key] = coord

		nk := address.Normalize(key)
		if nk == "" || !address.Transliterable(key) {
			continue
		}
		if _, dup := ambiguous[nk]; dup {
			continue
		}
		// Keys that normalize alike keep the first entry when they agree on
		// the point and resolve to nothing when they do not.
		if prev, dup := cache.normalized[nk]; dup {
			if !samePoint(prev, coord) {
				delete(cache.normalized, nk)
				ambiguous[nk] = struct{}{}
			}
			continue
		}
		cache.normalized[nk] = coord
	}

	return cache
}

func samePoint(a, b models.Coordinate) bool {
	return a.Latitude == b.Latitude && a.Longitude == b.Longitude
}

// LoadCache reads a cache file. A missing file yields an empty cache.
// Unusable entries (null, missing a coordinate, out of range) are skipped
// and reported by Dropped.
func LoadCache(path string) (*Cache, error) {
	raw, dropped, err := readCacheEntries(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewCache(nil), nil
		}
		return NewCache(nil), err
	}

	cache := NewCache(raw)
	cache.dropped += dropped

	return cache, nil
}

// Lookup returns the cached coordinate for the address, if any.
func (c *Cache) Lookup(addr string) (models.Coordinate, bool) {
	if c == nil {
		return models.Coordinate{}, false
	}
	if coord, ok := c.exact[addr]; ok {
		return coord, true
	}
	if !address.Transliterable(addr) {
		return models.Coordinate{}, false
	}

	nk := address.Normalize(addr)
	if nk == "" {
		return models.Coordinate{}, false
	}
	coord, ok := c.normalized[nk]

	return coord, ok
}

// Len returns the number of usable entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}

	return len(c.exact)
}

// Dropped returns the number of entries skipped because they were unusable.
func (c *Cache) Dropped() int {
	if c == nil {
		return 0
	}

	return c.dropped
}

// cacheEntry mirrors one value of the cache file. Pointers tell a missing
// coordinate apart from a zero one.
type cacheEntry struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	DisplayName string   `json:"display_name"`
}

// ReadCacheFile decodes the JSON object address -> coordinate, keeping raw keys.
// Unusable entries are left out.
func ReadCacheFile(path string) (map[string]models.Coordinate, error) {
	entries, _, err := readCacheEntries(path)

	return entries, err
}

func readCacheEntries(path string) (map[string]models.Coordinate, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read cache file: %w", err)
	}

	var raw map[string]*cacheEntry
	if err = json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("failed to decode cache file %s: %w", path, err)
	}

	entries := make(map[string]models.Coordinate, len(raw))
	dropped := 0
	for key, entry := range raw {
		if entry == nil || entry.Latitude == nil || entry.Longitude == nil {
			dropped++
			continue
		}
		coord := models.Coordinate{
			Latitude:    *entry.Latitude,
			Longitude:   *entry.Longitude,
			DisplayName: entry.DisplayName,
		}
		if !coord.Valid() {
			dropped++
			continue
		}
		entries[key] = coord
	}

	return entries, dropped, nil
}

// WriteCacheFile stores entries as an indented JSON object keyed by raw address.
func WriteCacheFile(path string, entries map[string]models.Coordinate) error {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entries: %w", err)
	}

	const perm = 0o644
	if err = os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}
