// Package fares decodes pricing API payloads and flattens them into fare records.
package fares

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/ridefare/internal/models"
)

// ErrNotJSON is returned by Decode for payloads that are not JSON at all.
var ErrNotJSON = errors.New("pricing payload is not valid JSON")

// Mode selects the projection used to turn a response into records.
type Mode string

const (
	// ModeTable emits one record per product from its first fare entry.
	ModeTable Mode = "table"
	// ModeFull emits one record per fare entry.
	ModeFull Mode = "full"
)

// Decode parses a raw pricing payload. Only malformed JSON is an error; any
// other shape problem surfaces as absent fields or dropped entries.
func Decode(raw []byte) (*Response, error) {
	if !json.Valid(raw) {
		return nil, ErrNotJSON
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		// Top level is valid JSON but not an object.
		return &Response{}, nil //nolint:nilerr // treated as an empty response
	}

	return &resp, nil
}

// Extract runs the projection named by mode.
func Extract(mode Mode, origin, destination string, resp *Response) ([]models.FareRecord, error) {
	switch mode {
	case ModeTable, "":
		return FareTable(origin, destination, resp), nil
	case ModeFull:
		return FullDetail(origin, destination, resp), nil
	default:
		return nil, fmt.Errorf("unknown extraction mode %q", mode)
	}
}

// FareTable is the canonical projection: one record per product, priced from
// the product's first fare entry. Products without fare entries are skipped.
func FareTable(origin, destination string, resp *Response) []models.FareRecord {
	var records []models.FareRecord

	for _, tier := range resp.Tiers() {
		for _, product := range tier.Products.Items {
			if len(product.Fares.Items) == 0 {
				continue
			}
			first := product.Fares.Items[0]

			fare := CleanFare(first.Fare.Text)
			originalFare := fare
			if first.PreAdjustmentValue.Valid {
				originalFare = CleanFare(first.PreAdjustmentValue.Text)
			}

			records = append(records, models.FareRecord{
				Origin:               origin,
				Destination:          destination,
				Tier:                 tier.Title.Value,
				Name:                 product.DisplayName.Value,
				Description:          product.Description.Value,
				Currency:             product.CurrencyCode.Value,
				Fare:                 fare,
				OriginalFare:         originalFare,
				Discount:             first.DiscountPrimary.Value,
				HasPromo:             first.HasPromo.Value,
				Capacity:             capacity(first),
				ETA:                  lastToken(product.EtaStringShort.Value),
				EstimatedTripMinutes: TripMinutes(product.EstimatedTripTime.Value),
			})
		}
	}

	return records
}

// FullDetail is the variant projection: one record per fare entry, with the
// currency taken from the fare string itself.
func FullDetail(origin, destination string, resp *Response) []models.FareRecord {
	var records []models.FareRecord

	for _, tier := range resp.Tiers() {
		for _, product := range tier.Products.Items {
			for _, entry := range product.Fares.Items {
				currency, fare := ParseFare(entry.Fare.Text)
				_, originalFare := ParseFare(entry.PreAdjustmentValue.Text)

				records = append(records, models.FareRecord{
					Origin:               origin,
					Destination:          destination,
					Tier:                 tier.Title.Value,
					Name:                 product.DisplayName.Value,
					Description:          product.DetailedDescription.Value,
					Currency:             currency,
					Fare:                 fare,
					OriginalFare:         originalFare,
					Discount:             entry.DiscountPrimary.Value,
					HasPromo:             entry.HasPromo.Value,
					Capacity:             capacity(entry),
					ETA:                  product.EtaStringShort.Value,
					EstimatedTripMinutes: TripMinutes(product.EstimatedTripTime.Value),
				})
			}
		}
	}

	return records
}

func capacity(f Fare) int {
	if !f.Capacity.Valid {
		return 0
	}

	return toInt(f.Capacity.Value)
}
