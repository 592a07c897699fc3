package models

// FareRecord is the flat, exported representation of one priced offer.
// Field order is the export column order.
type FareRecord struct {
	Origin               string  `json:"origin"`
	Destination          string  `json:"destination"`
	Tier                 string  `json:"tier"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Currency             string  `json:"currency"`
	Fare                 float64 `json:"fare"`
	OriginalFare         float64 `json:"originalFare"`
	Discount             string  `json:"discount"`
	HasPromo             bool    `json:"hasPromo"`
	Capacity             int     `json:"capacity"`
	ETA                  string  `json:"eta"`
	EstimatedTripMinutes int     `json:"estimatedTripMinutes"`
}

// ResultTable is the ordered set of records collected over one run.
type ResultTable []FareRecord

// FareColumns lists the export header in FareRecord field order.
var FareColumns = []string{
	"origin",
	"destination",
	"tier",
	"name",
	"description",
	"currency",
	"fare",
	"originalFare",
	"discount",
	"hasPromo",
	"capacity",
	"eta",
	"estimatedTripMinutes",
}
