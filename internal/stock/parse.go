package stock

import (
	"fmt"
	"time"
)

// API payload shapes. The API is unversioned and aimed at a web UI, so every
// field is optional here and checked before use.
type apiResponse struct {
	Items     []apiItem     `json:"items"`
	Locations []apiLocation `json:"locations"`
}

type apiItem struct {
	SKU       string            `json:"sku"`
	Locations []apiItemLocation `json:"locations"`
}

type apiItemLocation struct {
	LocationID string `json:"locationId"`

	Availability *struct {
		AvailablePickupQuantity int    `json:"availablePickupQuantity"`
		FulfillmentType         string `json:"fulfillmentType"`
	} `json:"availability"`

	InStoreAvailability *struct {
		AvailableInStoreQuantity int `json:"availableInStoreQuantity"`
	} `json:"inStoreAvailability"`
}

type apiLocation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// parseAvailability maps an API payload to a normalized Availability record.
// A payload with no items or no location data yields an out-of-stock record
// rather than an error: the endpoint responds that way for preorder SKUs.
func parseAvailability(payload *apiResponse, sku, zip string) *Availability {
	av := &Availability{
		SKU:       sku,
		ZipCode:   zip,
		CheckedAt: time.Now(),
	}
	if payload == nil || len(payload.Items) == 0 {
		return av
	}

	// The API returns one item per requested SKU.
	item := payload.Items[0]
	av.TotalStores = len(item.Locations)

	names := map[string]string{}
	for _, loc := range payload.Locations {
		if loc.ID == "" {
			continue
		}
		names[loc.ID] = locationDisplayName(loc)
	}

	for _, loc := range item.Locations {
		av.Checked = append(av.Checked, storeName(names, loc.LocationID))

		pickup := 0
		if loc.Availability != nil {
			pickup = loc.Availability.AvailablePickupQuantity
		}
		inStore := 0
		if loc.InStoreAvailability != nil {
			inStore = loc.InStoreAvailability.AvailableInStoreQuantity
		}
		if pickup <= 0 && inStore <= 0 {
			continue
		}

		av.Stores = append(av.Stores, StoreStock{
			LocationID: loc.LocationID,
			Name:       storeName(names, loc.LocationID),
			PickupQty:  max(pickup, 0),
			InStoreQty: max(inStore, 0),
		})
	}

	av.InStock = len(av.Stores) > 0
	return av
}

func locationDisplayName(loc apiLocation) string {
	name := loc.Name
	if name == "" {
		name = "Unknown"
	}
	city := loc.City
	if city == "" {
		city = "Unknown"
	}
	return name + " - " + city
}

func storeName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("Location %s", id)
}
