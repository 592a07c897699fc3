package models

// Route is an origin/destination address pair to be priced.
type Route struct {
	Origin      string // Origin is the raw pickup address.
	Destination string // Destination is the raw drop-off address.
}
