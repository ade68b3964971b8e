package notify

import (
	"fmt"
	"strings"

	"restockbot/internal/catalog"
	"restockbot/internal/stock"
)

// maxAlertStores caps the store breakdown in one alert so messages stay
// readable (and under Telegram's length limit).
const maxAlertStores = 10

// LookupURL builds the Snormax lookup link for a product. The empty title and
// image params match what the Snormax UI itself generates.
func LookupURL(sku, zip string) string {
	return fmt.Sprintf("https://www.snormax.com/lookup/bestbuy/%s?title=&image=&zipcode=%s", sku, zip)
}

func alertTitle(p catalog.Priority) string {
	switch p {
	case catalog.PriorityTop:
		return "🚨🔥 TOP PRIORITY RESTOCK! 🔥🚨"
	case catalog.PriorityHigh:
		return "🎉 HIGH PRIORITY RESTOCK! 🎉"
	case catalog.PriorityMedium:
		return "📦 RESTOCK ALERT! 📦"
	default:
		return "📝 Restock Alert"
	}
}

// FormatAlert renders a restock alert for one product.
func FormatAlert(p catalog.Product, av *stock.Availability) string {
	prio := p.EffectivePriority()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", alertTitle(prio))
	fmt.Fprintf(&b, "%s %s is back in stock!\n\n", prio.Icon(), p.DisplayName())
	fmt.Fprintf(&b, "SKU: %s\n", p.SKU)
	fmt.Fprintf(&b, "Zip Code: %s\n", p.ZipCode)
	fmt.Fprintf(&b, "Priority: %s\n", strings.ToUpper(string(prio)))
	if p.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", p.Category)
	}
	if p.Set != "" {
		fmt.Fprintf(&b, "Set: %s\n", p.Set)
	}

	if n := len(av.Stores); n > 0 {
		fmt.Fprintf(&b, "Stores with Stock: %d\n", n)
		b.WriteString(formatStoreList(av.Stores, maxAlertStores))
	}

	fmt.Fprintf(&b, "\nLink: %s", LookupURL(p.SKU, p.ZipCode))
	return b.String()
}

// formatStoreList renders up to limit stores as bullet lines with quantities.
func formatStoreList(stores []stock.StoreStock, limit int) string {
	var b strings.Builder
	for i, s := range stores {
		if i >= limit {
			fmt.Fprintf(&b, "• ... and %d more stores\n", len(stores)-limit)
			break
		}
		if q := s.QtyLabel(); q != "" {
			fmt.Fprintf(&b, "• %s (%s)\n", s.Name, q)
		} else {
			fmt.Fprintf(&b, "• %s\n", s.Name)
		}
	}
	return b.String()
}
