package bot

import (
	"fmt"
	"strings"
	"time"

	"restockbot/internal/catalog"
	"restockbot/internal/history"
	"restockbot/internal/monitor"
	"restockbot/internal/notify"
	"restockbot/internal/stock"
)

// maxMessageLen stays under Telegram's 4096-char message limit with room for
// chunk headers.
const maxMessageLen = 3500

func formatStatus(results []monitor.ProductStatus) string {
	var available, unavailable, failed []monitor.ProductStatus
	for _, st := range results {
		switch {
		case st.Err != nil:
			failed = append(failed, st)
		case st.Availability != nil && st.Availability.InStock:
			available = append(available, st)
		default:
			unavailable = append(unavailable, st)
		}
	}

	var b strings.Builder
	if len(available) > 0 {
		fmt.Fprintf(&b, "✅ Available Products (%d)\n", len(available))
		for _, st := range available {
			p, av := st.Product, st.Availability
			fmt.Fprintf(&b, "\n%s %s\n", p.EffectivePriority().Icon(), p.DisplayName())
			fmt.Fprintf(&b, "Priority: %s | SKU: %s\n", strings.ToUpper(string(p.EffectivePriority())), p.SKU)
			fmt.Fprintf(&b, "Stores with Stock: %d\n", len(av.Stores))
			b.WriteString(formatStores(av.Stores, 8))
			fmt.Fprintf(&b, "Link: %s\n", notify.LookupURL(p.SKU, p.ZipCode))
		}
	}
	if len(unavailable) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "❌ Out of Stock (%d)\n", len(unavailable))
		for _, st := range unavailable {
			p := st.Product
			line := fmt.Sprintf("• %s - %s", p.DisplayName(), p.SKU)
			if st.Availability != nil {
				line += fmt.Sprintf(" (0/%d stores)", st.Availability.TotalStores)
			}
			b.WriteString(line + "\n")
		}
	}
	if len(failed) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "⚠️ Check Failed (%d)\n", len(failed))
		for _, st := range failed {
			fmt.Fprintf(&b, "• %s - %s\n", st.Product.DisplayName(), st.Product.SKU)
		}
	}
	if b.Len() == 0 {
		return "No products found."
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStores(stores []stock.StoreStock, limit int) string {
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

// groupByPriority buckets products in priority rank order, preserving catalog
// order within a bucket.
func groupByPriority(products []catalog.Product) map[catalog.Priority][]catalog.Product {
	groups := map[catalog.Priority][]catalog.Product{}
	for _, p := range products {
		prio := p.EffectivePriority()
		groups[prio] = append(groups[prio], p)
	}
	return groups
}

func formatList(products []catalog.Product, filter catalog.Priority) string {
	if len(products) == 0 {
		return "No products are currently being monitored."
	}
	groups := groupByPriority(products)

	var b strings.Builder
	if filter != "" {
		fmt.Fprintf(&b, "📦 %s Priority Products:\n", strings.ToUpper(string(filter)))
	} else {
		fmt.Fprintf(&b, "📦 Monitoring %d Products:\n", len(products))
	}

	shown := 0
	for _, prio := range catalog.Priorities {
		if filter != "" && prio != filter {
			continue
		}
		group := groups[prio]
		if len(group) == 0 {
			continue
		}
		shown += len(group)
		fmt.Fprintf(&b, "\n%s %s Priority (%d):\n", prio.Icon(), strings.ToUpper(string(prio)), len(group))
		for _, p := range group {
			fmt.Fprintf(&b, "• %s - %s\n", p.DisplayName(), p.SKU)
		}
	}
	if shown == 0 {
		return fmt.Sprintf("No %s priority products found.", filter)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatListDetailed(products []catalog.Product, filter catalog.Priority) string {
	if len(products) == 0 {
		return "No products are currently being monitored."
	}
	groups := groupByPriority(products)

	var b strings.Builder
	shown := 0
	for _, prio := range catalog.Priorities {
		if filter != "" && prio != filter {
			continue
		}
		group := groups[prio]
		if len(group) == 0 {
			continue
		}
		shown += len(group)
		fmt.Fprintf(&b, "%s %s Priority Products (%d)\n", prio.Icon(), strings.ToUpper(string(prio)), len(group))
		for _, p := range group {
			fmt.Fprintf(&b, "\n%s\n", p.DisplayName())
			fmt.Fprintf(&b, "SKU: %s | Zip: %s\n", p.SKU, p.ZipCode)
			if p.Set != "" {
				fmt.Fprintf(&b, "Set: %s\n", p.Set)
			}
			if p.Category != "" {
				fmt.Fprintf(&b, "Category: %s\n", p.Category)
			}
			fmt.Fprintf(&b, "Link: %s\n", notify.LookupURL(p.SKU, p.ZipCode))
		}
		b.WriteString("\n")
	}
	if shown == 0 {
		return fmt.Sprintf("No %s priority products found.", filter)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDebug(av *stock.Availability) string {
	var b strings.Builder
	b.WriteString("🔧 Debug Information\n")
	fmt.Fprintf(&b, "SKU: %s | Zip: %s\n", av.SKU, av.ZipCode)
	fmt.Fprintf(&b, "Available: %v\n", av.InStock)
	fmt.Fprintf(&b, "Total Stores: %d\n", av.TotalStores)
	fmt.Fprintf(&b, "Stores with Stock: %d\n", len(av.Stores))
	if len(av.Stores) > 0 {
		b.WriteString(formatStores(av.Stores, 8))
	}
	if len(av.Checked) > 0 {
		b.WriteString("Locations Checked:\n")
		for i, name := range av.Checked {
			if i >= 5 {
				fmt.Fprintf(&b, "... and %d more\n", len(av.Checked)-5)
				break
			}
			b.WriteString(name + "\n")
		}
	}
	fmt.Fprintf(&b, "Checked At: %s", av.CheckedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

func formatHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return "No alerts have been sent yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🗒 Last %d Alerts\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "• %s %s (%s@%s) - %d stores - %s\n",
			e.Priority.Icon(), e.Name, e.SKU, e.ZipCode, e.StoreCount,
			e.SentAt.Local().Format(time.DateTime),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// splitMessage chunks long replies. Splits on line boundaries where possible.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		// A single oversized line gets hard-cut.
		for len(line) > limit {
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if cur.Len()+len(line)+1 > limit {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
		}
		cur.WriteString(line)
		cur.WriteString("\n")
	}
	if s := strings.TrimRight(cur.String(), "\n"); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}
