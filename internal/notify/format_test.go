package notify

import (
	"strings"
	"testing"
	"time"

	"restockbot/internal/catalog"
	"restockbot/internal/stock"
)

func TestFormatAlertContents(t *testing.T) {
	p := catalog.Product{
		SKU:      "6540134",
		ZipCode:  "90503",
		Name:     "Prismatic Evolutions ETB",
		Category: "Pokemon",
		Set:      "Prismatic Evolutions",
		Priority: catalog.PriorityHigh,
	}
	av := &stock.Availability{
		SKU:         "6540134",
		ZipCode:     "90503",
		InStock:     true,
		TotalStores: 5,
		Stores:      []stock.StoreStock{{LocationID: "100", Name: "Store A", PickupQty: 3}},
		CheckedAt:   time.Now(),
	}

	msg := FormatAlert(p, av)

	for _, want := range []string{
		"Prismatic Evolutions ETB",
		"Store A",
		"(3)",
		"🎉 HIGH PRIORITY RESTOCK! 🎉",
		catalog.PriorityHigh.Icon(),
		"6540134",
		"zipcode=90503",
		"Priority: HIGH",
		"Category: Pokemon",
		"Set: Prismatic Evolutions",
		"Stores with Stock: 1",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("alert missing %q:\n%s", want, msg)
		}
	}
	if !strings.Contains(msg, "https://www.snormax.com/lookup/bestbuy/6540134") {
		t.Fatalf("alert missing lookup link:\n%s", msg)
	}
}

func TestFormatAlertTitlesPerPriority(t *testing.T) {
	av := &stock.Availability{InStock: true}
	cases := map[catalog.Priority]string{
		catalog.PriorityTop:    "TOP PRIORITY RESTOCK",
		catalog.PriorityHigh:   "HIGH PRIORITY RESTOCK",
		catalog.PriorityMedium: "RESTOCK ALERT",
		catalog.PriorityLow:    "Restock Alert",
	}
	for prio, want := range cases {
		p := catalog.Product{SKU: "1", ZipCode: "2", Priority: prio}
		if msg := FormatAlert(p, av); !strings.Contains(msg, want) {
			t.Fatalf("priority %s: missing %q in:\n%s", prio, want, msg)
		}
	}
}

func TestFormatAlertCapsStoreList(t *testing.T) {
	stores := make([]stock.StoreStock, 14)
	for i := range stores {
		stores[i] = stock.StoreStock{Name: "Store", PickupQty: 1}
	}
	p := catalog.Product{SKU: "1", ZipCode: "2"}
	msg := FormatAlert(p, &stock.Availability{InStock: true, Stores: stores})

	if !strings.Contains(msg, "... and 4 more stores") {
		t.Fatalf("expected overflow line:\n%s", msg)
	}
	if got := strings.Count(msg, "• Store ("); got != maxAlertStores {
		t.Fatalf("expected %d store lines, got %d", maxAlertStores, got)
	}
}

func TestFormatAlertSentinelQty(t *testing.T) {
	p := catalog.Product{SKU: "1", ZipCode: "2"}
	av := &stock.Availability{
		InStock: true,
		Stores:  []stock.StoreStock{{Name: "Store A", PickupQty: 9999}},
	}
	if msg := FormatAlert(p, av); !strings.Contains(msg, "(3+)") {
		t.Fatalf("expected 3+ rendering:\n%s", msg)
	}
}
