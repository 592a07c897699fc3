package geocoding_test

import (
	"path/filepath"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/ridefare/internal/geocoding"
	"github.com/UnknownOlympus/ridefare/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCache(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")

	t.Run("lookup is normalized on both sides", func(t *testing.T) {
		path := filepath.Join(dir, "cache.json")
		filet.File(t, path, `{
			"Kraków, Rynek Główny": {"latitude": 50.0617, "longitude": 19.9373},
			"Warszawa Plac Defilad 1": {"latitude": 52.2319, "longitude": 21.0067}
		}`)

		cache, err := geocoding.LoadCache(path)
		require.NoError(t, err)
		assert.Equal(t, 2, cache.Len())

		coord, ok := cache.Lookup("Krakow Rynek Glowny")
		require.True(t, ok)
		assert.InEpsilon(t, 50.0617, coord.Latitude, 0.0001)

		coord, ok = cache.Lookup("Kraków,  Rynek Główny")
		require.True(t, ok)
		assert.InEpsilon(t, 19.9373, coord.Longitude, 0.0001)

		coord, ok = cache.Lookup("Warszawa, Plac Defilad 1")
		require.True(t, ok)
		assert.InEpsilon(t, 52.2319, coord.Latitude, 0.0001)

		_, ok = cache.Lookup("Gdansk Dlugi Targ")
		assert.False(t, ok)
	})

	t.Run("missing file gives empty cache", func(t *testing.T) {
		cache, err := geocoding.LoadCache(filepath.Join(dir, "absent.json"))

		require.NoError(t, err)
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("malformed file is reported", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		filet.File(t, path, `{"Krakow": [1, 2`)

		cache, err := geocoding.LoadCache(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode cache file")
		assert.Equal(t, 0, cache.Len())
	})
}

func TestNewCache_CollidingKeys(t *testing.T) {
	t.Run("disagreeing entries make the normalized key a miss", func(t *testing.T) {
		cache := geocoding.NewCache(map[string]models.Coordinate{
			"Łódź Piotrkowska":  {Latitude: 1, Longitude: 1},
			"Lodz, Piotrkowska": {Latitude: 2, Longitude: 2},
		})

		assert.Equal(t, 2, cache.Len())

		_, ok := cache.Lookup("Lodz Piotrkowska")
		assert.False(t, ok)

		coord, ok := cache.Lookup("Łódź Piotrkowska")
		require.True(t, ok)
		assert.InEpsilon(t, 1.0, coord.Latitude, 0.0001)

		coord, ok = cache.Lookup("Lodz, Piotrkowska")
		require.True(t, ok)
		assert.InEpsilon(t, 2.0, coord.Latitude, 0.0001)
	})

	t.Run("agreeing entries share the normalized key", func(t *testing.T) {
		cache := geocoding.NewCache(map[string]models.Coordinate{
			"Łódź Piotrkowska":  {Latitude: 51.77, Longitude: 19.46, DisplayName: "second"},
			"Lodz, Piotrkowska": {Latitude: 51.77, Longitude: 19.46, DisplayName: "first"},
		})

		coord, ok := cache.Lookup("Lodz Piotrkowska")
		require.True(t, ok)
		// "Lodz, Piotrkowska" sorts before "Łódź Piotrkowska".
		assert.Equal(t, "first", coord.DisplayName)
	})
}

func TestNewCache_NonLatinKeys(t *testing.T) {
	kyiv := models.Coordinate{Latitude: 50.45, Longitude: 30.52, DisplayName: "Kyiv"}
	moscow := models.Coordinate{Latitude: 55.76, Longitude: 37.61, DisplayName: "Moscow"}

	cache := geocoding.NewCache(map[string]models.Coordinate{
		"Київ, Хрещатик 1":   kyiv,
		"Москва, Тверская 1": moscow,
	})

	assert.Equal(t, 2, cache.Len())

	coord, ok := cache.Lookup("Київ, Хрещатик 1")
	require.True(t, ok)
	assert.Equal(t, kyiv, coord)

	coord, ok = cache.Lookup("Москва, Тверская 1")
	require.True(t, ok)
	assert.Equal(t, moscow, coord)

	for _, addr := range []string{"東京 1", "1", "Київ Хрещатик 1", "東京"} {
		_, ok = cache.Lookup(addr)
		assert.False(t, ok, "address %q must not hit", addr)
	}
}

func TestLoadCache_UnusableEntries(t *testing.T) {
	defer filet.CleanUp(t)
	path := filepath.Join(filet.TmpDir(t, ""), "cache.json")
	filet.File(t, path, `{
		"A": null,
		"B": {},
		"C": {"latitude": 999, "longitude": 5},
		"D": {"latitude": 50.06},
		"Equator": {"latitude": 0, "longitude": 0, "display_name": "Null Island"}
	}`)

	cache, err := geocoding.LoadCache(path)

	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 4, cache.Dropped())

	for _, addr := range []string{"A", "B", "C", "D"} {
		_, ok := cache.Lookup(addr)
		assert.False(t, ok, "address %q must not hit", addr)
	}

	coord, ok := cache.Lookup("Equator")
	require.True(t, ok)
	assert.Equal(t, "Null Island", coord.DisplayName)

	raw, err := geocoding.ReadCacheFile(path)
	require.NoError(t, err)
	assert.Len(t, raw, 1)
}

func TestNewCache_DropsOutOfRange(t *testing.T) {
	cache := geocoding.NewCache(map[string]models.Coordinate{
		"North": {Latitude: 91, Longitude: 0},
		"Krakow": {Latitude: 50.06, Longitude: 19.94},
	})

	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 1, cache.Dropped())
	_, ok := cache.Lookup("North")
	assert.False(t, ok)
}

func TestCache_NilIsEmpty(t *testing.T) {
	var cache *geocoding.Cache

	_, ok := cache.Lookup("anything")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 0, cache.Dropped())
}

func TestWriteCacheFile(t *testing.T) {
	defer filet.CleanUp(t)
	path := filepath.Join(filet.TmpDir(t, ""), "out.json")

	entries := map[string]models.Coordinate{
		"Kraków, Rynek Główny": {Latitude: 50.0617, Longitude: 19.9373, DisplayName: "Rynek Główny"},
	}
	require.NoError(t, geocoding.WriteCacheFile(path, entries))

	raw, err := geocoding.ReadCacheFile(path)
	require.NoError(t, err)
	assert.Equal(t, entries, raw, "raw keys must survive a write")
}
