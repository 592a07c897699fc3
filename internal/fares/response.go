package fares

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Response is the subset of the pricing API answer the extractor consumes.
// Every field is optional: a value of the wrong JSON type decodes as absent
// instead of failing the whole payload, and malformed list elements are dropped
// one by one.
type Response struct {
	Data Opt[Data] `json:"data"`
}

type Data struct {
	Products Opt[Products] `json:"products"`
}

type Products struct {
	Tiers List[Tier] `json:"tiers"`
}

type Tier struct {
	Title    Opt[string]   `json:"title"`
	Products List[Product] `json:"products"`
}

type Product struct {
	DisplayName         Opt[string]  `json:"displayName"`
	Description         Opt[string]  `json:"description"`
	DetailedDescription Opt[string]  `json:"detailedDescription"`
	CurrencyCode        Opt[string]  `json:"currencyCode"`
	EtaStringShort      Opt[string]  `json:"etaStringShort"`
	EstimatedTripTime   Opt[float64] `json:"estimatedTripTime"`
	Fares               List[Fare]   `json:"fares"`
}

type Fare struct {
	Fare               Amount       `json:"fare"`
	PreAdjustmentValue Amount       `json:"preAdjustmentValue"`
	DiscountPrimary    Opt[string]  `json:"discountPrimary"`
	HasPromo           Opt[bool]    `json:"hasPromo"`
	Capacity           Opt[float64] `json:"capacity"`
}

// Tiers returns the decoded tiers in payload order.
func (r *Response) Tiers() []Tier {
	if r == nil {
		return nil
	}

	return r.Data.Value.Products.Value.Tiers.Items
}

// Dropped reports how many tier, product and fare entries were discarded while decoding.
func (r *Response) Dropped() int {
	if r == nil {
		return 0
	}

	dropped := r.Data.Value.Products.Value.Tiers.Dropped
	for _, tier := range r.Tiers() {
		dropped += tier.Products.Dropped
		for _, product := range tier.Products.Items {
			dropped += product.Fares.Dropped
		}
	}

	return dropped
}

var jsonNull = []byte("null")

// Opt is a JSON value that may be absent, null or of an unexpected type.
type Opt[T any] struct {
	Value T
	Valid bool
}

func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	var zero T
	o.Value, o.Valid = zero, false

	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil //nolint:nilerr // mistyped fields count as absent
	}
	o.Value, o.Valid = v, true

	return nil
}

// Or returns the value, or def when absent.
func (o Opt[T]) Or(def T) T {
	if !o.Valid {
		return def
	}

	return o.Value
}

// Amount is a fare value. The API sends locale-formatted strings, but bare
// numbers are accepted and kept in their JSON text form.
type Amount struct {
	Text  string
	Valid bool
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	a.Text, a.Valid = "", false

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Text, a.Valid = s, true
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if _, perr := strconv.ParseFloat(n.String(), 64); perr == nil {
			a.Text, a.Valid = n.String(), true
		}
	}

	return nil
}

// List is a JSON array whose elements are decoded independently. Elements that
// fail to decode are skipped and counted. A non-array value decodes as empty.
type List[T any] struct {
	Items   []T
	Dropped int
}

func (l *List[T]) UnmarshalJSON(data []byte) error {
	l.Items, l.Dropped = nil, 0

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil //nolint:nilerr // a mistyped list is an absent list
	}

	l.Items = make([]T, 0, len(raw))
	for _, elem := range raw {
		if bytes.Equal(bytes.TrimSpace(elem), jsonNull) {
			l.Dropped++
			continue
		}
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			l.Dropped++
			continue
		}
		l.Items = append(l.Items, item)
	}

	return nil
}
