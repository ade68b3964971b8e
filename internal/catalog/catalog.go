// Package catalog holds the monitored product list: which SKUs to watch, at
// which zip codes, and how urgent an alert for each one is.
package catalog

import (
	"fmt"
	"strings"
)

// Priority ranks how urgently the operator wants to know about a restock.
// It affects alert presentation only, never delivery timing.
type Priority string

const (
	PriorityTop    Priority = "top"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists all valid priorities from most to least urgent.
var Priorities = []Priority{PriorityTop, PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority validates a user-supplied priority string.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityTop, PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority %q (use top, high, medium or low)", s)
}

// Icon returns the display icon for this priority level.
func (p Priority) Icon() string {
	switch p {
	case PriorityTop:
		return "🔥"
	case PriorityHigh:
		return "🚨"
	case PriorityMedium:
		return "⚠️"
	case PriorityLow:
		return "📝"
	}
	return "📦"
}

// Color returns the display color (hex RGB) for this priority level.
func (p Priority) Color() int {
	switch p {
	case PriorityTop:
		return 0xff0000
	case PriorityHigh:
		return 0xff8800
	case PriorityMedium:
		return 0x00ff00
	case PriorityLow:
		return 0x808080
	}
	return 0x0099ff
}

// Rank orders priorities for display grouping; lower is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityTop:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Product is one monitored (SKU, zip code) pair plus display metadata.
// The pair uniquely identifies the product within the catalog.
type Product struct {
	SKU      string   `json:"sku" yaml:"sku"`
	ZipCode  string   `json:"zip_code" yaml:"zip_code"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Category string   `json:"category,omitempty" yaml:"category,omitempty"`
	Set      string   `json:"set,omitempty" yaml:"set,omitempty"`
	Priority Priority `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Key returns the catalog identity of the product.
func (p Product) Key() string { return Key(p.SKU, p.ZipCode) }

// Key builds a catalog key from a SKU and zip code.
func Key(sku, zip string) string {
	return strings.TrimSpace(sku) + "@" + strings.TrimSpace(zip)
}

// DisplayName returns the product name, falling back to the SKU.
func (p Product) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.SKU
}

// EffectivePriority treats a missing or unknown priority as medium, matching
// how untagged entries in hand-edited catalog files should behave.
func (p Product) EffectivePriority() Priority {
	switch p.Priority {
	case PriorityTop, PriorityHigh, PriorityMedium, PriorityLow:
		return p.Priority
	}
	return PriorityMedium
}

// Validate checks the fields a command or file entry must provide.
func (p Product) Validate() error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("product sku is required")
	}
	if strings.TrimSpace(p.ZipCode) == "" {
		return fmt.Errorf("product zip_code is required")
	}
	if p.Priority != "" {
		if _, err := ParsePriority(string(p.Priority)); err != nil {
			return err
		}
	}
	return nil
}
