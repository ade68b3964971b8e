package stock

import (
	"encoding/json"
	"strings"
	"testing"
)

const samplePayload = `{
  "items": [
    {
      "sku": "6540134",
      "locations": [
        {
          "locationId": "100",
          "availability": {"availablePickupQuantity": 3, "fulfillmentType": "PICKUP"},
          "inStoreAvailability": {"availableInStoreQuantity": 2}
        },
        {
          "locationId": "101",
          "availability": {"availablePickupQuantity": 0}
        },
        {
          "locationId": "102",
          "inStoreAvailability": {"availableInStoreQuantity": 9999}
        },
        {
          "locationId": "103"
        }
      ]
    }
  ],
  "locations": [
    {"id": "100", "name": "Store A", "city": "Torrance"},
    {"id": "101", "name": "Store B", "city": "Lomita"},
    {"id": "102", "name": "Store C", "city": "Carson"}
  ]
}`

func parseSample(t *testing.T, body string) *Availability {
	t.Helper()
	var payload apiResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return parseAvailability(&payload, "6540134", "90503")
}

func TestParseAvailability(t *testing.T) {
	av := parseSample(t, samplePayload)

	if !av.InStock {
		t.Fatalf("expected in stock")
	}
	if av.TotalStores != 4 {
		t.Fatalf("expected 4 total stores, got %d", av.TotalStores)
	}
	if len(av.Stores) != 2 {
		t.Fatalf("expected 2 stores with stock, got %d", len(av.Stores))
	}

	first := av.Stores[0]
	if first.Name != "Store A - Torrance" {
		t.Fatalf("unexpected store name: %q", first.Name)
	}
	if first.PickupQty != 3 || first.InStoreQty != 2 {
		t.Fatalf("unexpected quantities: %+v", first)
	}

	// Unknown location id falls back to a generic label.
	if len(av.Checked) != 4 || av.Checked[3] != "Location 103" {
		t.Fatalf("unexpected checked list: %v", av.Checked)
	}
}

func TestParseEmptyPayloadMeansOutOfStock(t *testing.T) {
	for name, body := range map[string]string{
		"no items":     `{}`,
		"empty items":  `{"items": []}`,
		"no locations": `{"items": [{"sku": "6540134"}]}`,
	} {
		av := parseSample(t, body)
		if av == nil {
			t.Fatalf("%s: expected record, got nil", name)
		}
		if av.InStock {
			t.Fatalf("%s: expected out of stock", name)
		}
		if av.SKU != "6540134" || av.ZipCode != "90503" {
			t.Fatalf("%s: record lost identity: %+v", name, av)
		}
	}
}

func TestQtyLabelSentinel(t *testing.T) {
	cases := []struct {
		s    StoreStock
		want string
	}{
		{StoreStock{PickupQty: 3}, "3"},
		{StoreStock{PickupQty: 9999}, "3+"},
		{StoreStock{PickupQty: 3, InStoreQty: 3}, "3"},
		{StoreStock{PickupQty: 2, InStoreQty: 5}, "2, 5 in-store"},
		{StoreStock{InStoreQty: 9999}, "3+ in-store"},
		{StoreStock{}, ""},
	}
	for _, c := range cases {
		if got := c.s.QtyLabel(); got != c.want {
			t.Fatalf("QtyLabel(%+v) = %q, want %q", c.s, got, c.want)
		}
	}
}

func TestAPIErrorMessages(t *testing.T) {
	httpErr := &APIError{SKU: "1", Zip: "2", Status: 503}
	if !strings.Contains(httpErr.Error(), "503") {
		t.Fatalf("missing status in %q", httpErr.Error())
	}
}
