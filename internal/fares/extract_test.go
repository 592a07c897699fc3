package fares_test

import (
	"math"
	"testing"

	"github.com/UnknownOlympus/ridefare/internal/fares"
	"github.com/UnknownOlympus/ridefare/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoTiers = `{
  "data": {
    "products": {
      "tiers": [
        {
          "title": "Economy",
          "products": [{
            "displayName": "UberX",
            "description": "Affordable rides",
            "detailedDescription": "Everyday rides for up to 4",
            "currencyCode": "PLN",
            "etaStringShort": "in 3 min",
            "estimatedTripTime": 1260,
            "fares": [{
              "fare": "PLN\u00a024.50",
              "preAdjustmentValue": "PLN\u00a030.00",
              "discountPrimary": "20% off",
              "hasPromo": true,
              "capacity": 4
            }]
          }]
        },
        {
          "title": "Premium",
          "products": [{
            "displayName": "Comfort",
            "description": "Newer cars",
            "detailedDescription": "Newer cars with extra legroom",
            "currencyCode": "PLN",
            "etaStringShort": "in 5 min",
            "estimatedTripTime": 1300,
            "fares": [{"fare": "PLN\u00a036.10", "capacity": 4}]
          }]
        }
      ]
    }
  }
}`

func decode(t *testing.T, raw string) *fares.Response {
	t.Helper()

	resp, err := fares.Decode([]byte(raw))
	require.NoError(t, err)

	return resp
}

func TestDecode(t *testing.T) {
	t.Run("not JSON", func(t *testing.T) {
		resp, err := fares.Decode([]byte("<html>Forbidden</html>"))

		require.ErrorIs(t, err, fares.ErrNotJSON)
		assert.Nil(t, resp)
	})

	t.Run("JSON of the wrong shape is empty", func(t *testing.T) {
		for _, raw := range []string{`[]`, `"text"`, `{"data": null}`, `{"data": {"products": "none"}}`, `{"errors": [{"message": "unauthorized"}]}`} {
			resp := decode(t, raw)
			assert.Empty(t, resp.Tiers(), raw)
			assert.Empty(t, fares.FareTable("a", "b", resp), raw)
		}
	})

	t.Run("mistyped scalar decodes as absent", func(t *testing.T) {
		resp := decode(t, `{"data":{"products":{"tiers":[{"title": 7, "products":[{"displayName":"X","estimatedTripTime":"soon","fares":[{"fare":"PLN\u00a05"}]}]}]}}}`)

		records := fares.FareTable("a", "b", resp)
		require.Len(t, records, 1)
		assert.Empty(t, records[0].Tier)
		assert.Equal(t, 0, records[0].EstimatedTripMinutes)
		assert.InDelta(t, 5.0, records[0].Fare, 1e-9)
	})

	t.Run("malformed entries are dropped and counted", func(t *testing.T) {
		resp := decode(t, `{"data":{"products":{"tiers":[
			"broken",
			null,
			{"title":"Economy","products":[42, {"displayName":"X","fares":[true, {"fare":"PLN\u00a05"}]}]}
		]}}}`)

		assert.Equal(t, 4, resp.Dropped())
		require.Len(t, resp.Tiers(), 1)
		assert.Len(t, fares.FullDetail("a", "b", resp), 1)
	})
}

func TestFareTable(t *testing.T) {
	t.Run("two tiers with one product each give two records in order", func(t *testing.T) {
		records := fares.FareTable("Krakow Rynek", "Krakow Airport", decode(t, twoTiers))

		require.Len(t, records, 2)
		assert.Equal(t, models.FareRecord{
			Origin:               "Krakow Rynek",
			Destination:          "Krakow Airport",
			Tier:                 "Economy",
			Name:                 "UberX",
			Description:          "Affordable rides",
			Currency:             "PLN",
			Fare:                 24.5,
			OriginalFare:         30,
			Discount:             "20% off",
			HasPromo:             true,
			Capacity:             4,
			ETA:                  "min",
			EstimatedTripMinutes: 21,
		}, records[0])
		assert.Equal(t, "Premium", records[1].Tier)
		assert.Equal(t, "Comfort", records[1].Name)
	})

	t.Run("original fare defaults to fare", func(t *testing.T) {
		records := fares.FareTable("a", "b", decode(t, twoTiers))

		require.Len(t, records, 2)
		assert.InDelta(t, 36.1, records[1].OriginalFare, 1e-9)
	})

	t.Run("only the first fare entry is used", func(t *testing.T) {
		resp := decode(t, `{"data":{"products":{"tiers":[{"title":"Economy","products":[
			{"displayName":"UberX","fares":[{"fare":"PLN\u00a010","capacity":1},{"fare":"PLN\u00a014","capacity":2}]}
		]}]}}}`)

		records := fares.FareTable("a", "b", resp)
		require.Len(t, records, 1)
		assert.InDelta(t, 10.0, records[0].Fare, 1e-9)
		assert.Equal(t, 1, records[0].Capacity)
	})

	t.Run("non-numeric fare does not suppress siblings", func(t *testing.T) {
		resp := decode(t, `{"data":{"products":{"tiers":[{"title":"Economy","products":[
			{"displayName":"Broken","fares":[{"fare":"n/a"}]},
			{"displayName":"UberX","fares":[{"fare":"PLN\u00a012.50"}]}
		]}]}}}`)

		records := fares.FareTable("a", "b", resp)
		require.Len(t, records, 2)
		assert.InDelta(t, 0.0, records[0].Fare, 1e-9)
		assert.InDelta(t, 12.5, records[1].Fare, 1e-9)
	})

	t.Run("product without fares is skipped", func(t *testing.T) {
		resp := decode(t, `{"data":{"products":{"tiers":[{"title":"Economy","products":[
			{"displayName":"Empty","fares":[]},
			{"displayName":"UberX","fares":[{"fare":"PLN\u00a08"}]}
		]}]}}}`)

		records := fares.FareTable("a", "b", resp)
		require.Len(t, records, 1)
		assert.Equal(t, "UberX", records[0].Name)
	})
}

func TestFullDetail(t *testing.T) {
	t.Run("one record per fare entry", func(t *testing.T) {
		resp := decode(t, `{"data":{"products":{"tiers":[{"title":"Economy","products":[
			{"displayName":"UberX","detailedDescription":"Everyday rides","etaStringShort":"in 3 min","estimatedTripTime":600,
			 "fares":[{"fare":"PLN\u00a010","capacity":1},{"fare":"EUR\u00a014.20","preAdjustmentValue":"EUR\u00a016","capacity":2}]}
		]}]}}}`)

		records := fares.FullDetail("a", "b", resp)

		require.Len(t, records, 2)
		assert.Equal(t, "PLN", records[0].Currency)
		assert.InDelta(t, 10.0, records[0].Fare, 1e-9)
		assert.InDelta(t, 0.0, records[0].OriginalFare, 1e-9)
		assert.Equal(t, "EUR", records[1].Currency)
		assert.InDelta(t, 14.2, records[1].Fare, 1e-9)
		assert.InDelta(t, 16.0, records[1].OriginalFare, 1e-9)
		assert.Equal(t, "Everyday rides", records[1].Description)
		assert.Equal(t, "in 3 min", records[1].ETA)
		assert.Equal(t, 10, records[1].EstimatedTripMinutes)
	})

	t.Run("non-numeric fare does not suppress siblings", func(t *testing.T) {
		resp := decode(t, `{"data":{"products":{"tiers":[{"title":"Economy","products":[
			{"displayName":"UberX","fares":[{"fare":"PLN\u00a0???"},{"fare":"PLN\u00a09.99"}]}
		]}]}}}`)

		records := fares.FullDetail("a", "b", resp)

		require.Len(t, records, 2)
		assert.InDelta(t, 0.0, records[0].Fare, 1e-9)
		assert.InDelta(t, 9.99, records[1].Fare, 1e-9)
	})

	t.Run("two tiers give two records in tier order", func(t *testing.T) {
		records := fares.FullDetail("a", "b", decode(t, twoTiers))

		require.Len(t, records, 2)
		assert.Equal(t, "Economy", records[0].Tier)
		assert.Equal(t, "Premium", records[1].Tier)
	})
}

func TestExtract(t *testing.T) {
	resp := decode(t, twoTiers)

	records, err := fares.Extract(fares.ModeTable, "a", "b", resp)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = fares.Extract(fares.ModeFull, "a", "b", resp)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = fares.Extract(fares.Mode("both"), "a", "b", resp)
	require.Error(t, err)
}

func TestFareTable_HugeNumbersAreClamped(t *testing.T) {
	payload := `{"data":{"products":{"tiers":[{"title":"Economy","products":[
		{"displayName":"UberX","estimatedTripTime":1e300,
		 "fares":[{"fare":"PLN 10","capacity":1e300}]},
		{"displayName":"Comfort","estimatedTripTime":-5,
		 "fares":[{"fare":"PLN 12","capacity":-3}]}
	]}]}}}`

	resp, err := fares.Decode([]byte(payload))
	require.NoError(t, err)

	records := fares.FareTable("A", "B", resp)

	require.Len(t, records, 2)
	assert.Equal(t, math.MaxInt32, records[0].Capacity)
	assert.Equal(t, math.MaxInt32/60, records[0].EstimatedTripMinutes)
	assert.Equal(t, 0, records[1].Capacity)
	assert.Equal(t, 0, records[1].EstimatedTripMinutes)
}
