package fares_test

import (
	"math"
	"testing"

	"github.com/UnknownOlympus/ridefare/internal/fares"
	"github.com/stretchr/testify/assert"
)

func TestParseFare(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		currency string
		value    float64
	}{
		{name: "currency and amount", input: "PLN\u00a012.50", currency: "PLN", value: 12.5},
		{name: "empty string", input: "", currency: "", value: 0},
		{name: "currency only", input: "PLN", currency: "PLN", value: 0},
		{name: "bare amount", input: "12.50", currency: "", value: 12.5},
		{name: "unparsable amount", input: "PLN\u00a0abc", currency: "PLN", value: 0},
		{name: "range keeps digits only", input: "PLN\u00a018-22", currency: "PLN", value: 1822},
		{name: "symbol currency", input: "zł\u00a07", currency: "zł", value: 7},
		{name: "regular space is not a separator", input: "PLN 12.50", currency: "", value: 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			currency, value := fares.ParseFare(tt.input)

			assert.Equal(t, tt.currency, currency)
			assert.InDelta(t, tt.value, value, 1e-9)
		})
	}
}

func TestCleanFare(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"PLN\u00a012.50", 12.5},
		{"12.50 zł", 12.5},
		{"", 0},
		{"free", 0},
		{"1.2.3", 0},
		{"PLN\u00a0-4", 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.want, fares.CleanFare(tt.input), 1e-9)
		})
	}
}

func TestParseFare_AgreesWithCleanFare(t *testing.T) {
	inputs := []string{
		"PLN\u00a012.50",
		"",
		"PLN",
		"EUR\u00a0",
		"PLN\u00a0n/a",
		"zł\u00a099.99",
		"USD\u00a01.5\u00a0extra",
		"42",
	}

	for _, input := range inputs {
		_, value := fares.ParseFare(input)
		assert.InDelta(t, fares.CleanFare(input), value, 1e-9, "input %q", input)
	}
}

func TestTripMinutes(t *testing.T) {
	assert.Equal(t, 0, fares.TripMinutes(0))
	assert.Equal(t, 0, fares.TripMinutes(-120))
	assert.Equal(t, 0, fares.TripMinutes(59))
	assert.Equal(t, 1, fares.TripMinutes(60))
	assert.Equal(t, 20, fares.TripMinutes(1234))
	assert.Equal(t, 20, fares.TripMinutes(1234.9))
	assert.Equal(t, math.MaxInt32/60, fares.TripMinutes(1e300))
}
