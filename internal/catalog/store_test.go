package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"restockbot/pkg/logx"
)

func newTestStore(t *testing.T, name string) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), name), logx.Nop())
}

func TestAddRemoveInvariants(t *testing.T) {
	s := newTestStore(t, "products.json")
	if err := s.Load(); err != nil {
		t.Fatalf("load empty: %v", err)
	}

	p := Product{SKU: "6540134", ZipCode: "90503", Name: "Booster Box", Priority: PriorityHigh}
	if err := s.Add(p); err != nil {
		t.Fatalf("add: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 product, got %d", s.Len())
	}

	// Duplicate key fails without mutating state.
	err := s.Add(Product{SKU: "6540134", ZipCode: "90503", Name: "Other Name"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("duplicate add mutated state: %d products", s.Len())
	}
	if got, _ := s.Get("6540134", "90503"); got.Name != "Booster Box" {
		t.Fatalf("duplicate add overwrote entry: %+v", got)
	}

	// Same SKU at a different zip is a distinct product.
	if err := s.Add(Product{SKU: "6540134", ZipCode: "10001"}); err != nil {
		t.Fatalf("add same sku other zip: %v", err)
	}

	// Removing a nonexistent key fails without mutating state.
	if _, err := s.Remove("9999999", "90503"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("failed remove mutated state: %d products", s.Len())
	}

	// Removing an existing key leaves the others unchanged.
	removed, err := s.Remove("6540134", "90503")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed.Name != "Booster Box" {
		t.Fatalf("unexpected removed product: %+v", removed)
	}
	if _, ok := s.Get("6540134", "10001"); !ok {
		t.Fatalf("remove dropped an unrelated entry")
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"products.json", "products.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			s := NewStore(path, logx.Nop())
			if err := s.Load(); err != nil {
				t.Fatalf("load empty: %v", err)
			}

			want := []Product{
				{SKU: "6540134", ZipCode: "90503", Name: "Prismatic Evolutions ETB", Category: "Pokemon", Set: "Prismatic Evolutions", Priority: PriorityTop},
				{SKU: "6632461", ZipCode: "90503", Name: "Surging Sparks Booster", Priority: PriorityLow},
			}
			for _, p := range want {
				if err := s.Add(p); err != nil {
					t.Fatalf("add %s: %v", p.SKU, err)
				}
			}

			reloaded := NewStore(path, logx.Nop())
			if err := reloaded.Load(); err != nil {
				t.Fatalf("reload: %v", err)
			}
			got := reloaded.Snapshot()
			if len(got) != len(want) {
				t.Fatalf("expected %d products, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("round trip mismatch at %d:\n got %+v\nwant %+v", i, got[i], want[i])
				}
			}

			// No temp file debris after persisting.
			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatalf("readdir: %v", err)
			}
			for _, e := range entries {
				if strings.Contains(e.Name(), ".tmp-") {
					t.Fatalf("leftover temp file: %s", e.Name())
				}
			}
		})
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `{{{`,
		"trailing data":  `[]{"sku":"1"}`,
		"unknown field":  `[{"sku":"1","zip_code":"90503","bogus":true}]`,
		"duplicate keys": `[{"sku":"1","zip_code":"90503"},{"sku":"1","zip_code":"90503"}]`,
		"missing sku":    `[{"zip_code":"90503"}]`,
		"bad priority":   `[{"sku":"1","zip_code":"90503","priority":"urgent"}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "products.json")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			s := NewStore(path, logx.Nop())
			err := s.Load()
			if err == nil {
				t.Fatalf("expected load error for %s", name)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.yaml")
	body := "- sku: \"6540134\"\n  zip_code: \"90503\"\n  name: ETB\n  priority: high\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewStore(path, logx.Nop())
	if err := s.Load(); err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	p, ok := s.Get("6540134", "90503")
	if !ok {
		t.Fatalf("product not found after yaml load")
	}
	if p.Name != "ETB" || p.Priority != PriorityHigh {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestParsePriority(t *testing.T) {
	for _, s := range []string{"top", "HIGH", " medium ", "low"} {
		if _, err := ParsePriority(s); err != nil {
			t.Fatalf("ParsePriority(%q): %v", s, err)
		}
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Fatalf("expected error for invalid priority")
	}
}

func TestEffectivePriorityDefaultsToMedium(t *testing.T) {
	p := Product{SKU: "1", ZipCode: "2"}
	if got := p.EffectivePriority(); got != PriorityMedium {
		t.Fatalf("expected medium, got %s", got)
	}
}
