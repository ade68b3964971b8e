// Package stock queries the Snormax store-stock API for Best Buy pickup
// availability around a zip code.
package stock

import (
	"fmt"
	"time"
)

// sentinelQty is what the API reports when a store has "3 or more" units
// instead of an exact count.
const sentinelQty = 9999

// StoreStock is one store with units available, in API order.
type StoreStock struct {
	LocationID string
	Name       string
	PickupQty  int
	InStoreQty int
}

// QtyLabel renders the store quantities for humans ("3", "3+", "2, 5 in-store").
func (s StoreStock) QtyLabel() string {
	label := ""
	if s.PickupQty > 0 {
		label = renderQty(s.PickupQty, "")
	}
	if s.InStoreQty > 0 && s.InStoreQty != s.PickupQty {
		if label != "" {
			label += ", "
		}
		label += renderQty(s.InStoreQty, " in-store")
	}
	return label
}

func renderQty(q int, suffix string) string {
	if q >= sentinelQty {
		return "3+" + suffix
	}
	return fmt.Sprintf("%d%s", q, suffix)
}

// Availability is the normalized result of one API check. It is recomputed
// every cycle and never persisted.
type Availability struct {
	SKU         string
	ZipCode     string
	InStock     bool
	Stores      []StoreStock
	TotalStores int
	Checked     []string // names of all locations the API reported on
	CheckedAt   time.Time
}

// APIError reports a failed check for one product. Such failures are isolated:
// the caller logs them and moves on to the next product.
type APIError struct {
	SKU    string
	Zip    string
	Status int // HTTP status, 0 for transport errors
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("stock check %s@%s: http %d", e.SKU, e.Zip, e.Status)
	}
	return fmt.Sprintf("stock check %s@%s: %v", e.SKU, e.Zip, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }
