package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	yaml "go.yaml.in/yaml/v3"

	"restockbot/pkg/logx"
)

var (
	// ErrDuplicate is returned by Add when the (sku, zip) pair already exists.
	ErrDuplicate = errors.New("product already monitored")
	// ErrNotFound is returned by Remove when the (sku, zip) pair is absent.
	ErrNotFound = errors.New("product not monitored")
)

// ConfigError wraps a malformed or unreadable catalog file. Fatal at startup,
// user-facing when triggered by a runtime reload.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("catalog %s: %v", e.Path, e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// Store owns the product list and its backing file.
//
// All operations take the store mutex, so the background poll loop, command
// handlers and the file watcher never observe a half-applied mutation.
// Persist rewrites the whole file via temp-then-rename so a crash mid-write
// cannot corrupt it.
type Store struct {
	path string
	log  logx.Logger

	mu       sync.RWMutex
	products []Product
	index    map[string]int // key -> position in products
}

func NewStore(path string, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{path: path, log: log, index: map[string]int{}}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads and validates the backing file, replacing the in-memory set.
// A missing file loads as an empty catalog so a fresh deployment can start
// and add products via commands.
func (s *Store) Load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			s.products = nil
			s.index = map[string]int{}
			s.mu.Unlock()
			s.log.Warn("catalog file missing; starting empty", logx.String("path", s.path))
			return nil
		}
		return &ConfigError{Path: s.path, Err: err}
	}

	products, err := parseProducts(s.path, b)
	if err != nil {
		return &ConfigError{Path: s.path, Err: err}
	}

	idx := map[string]int{}
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return &ConfigError{Path: s.path, Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		k := p.Key()
		if _, dup := idx[k]; dup {
			return &ConfigError{Path: s.path, Err: fmt.Errorf("entry %d: duplicate product %s", i, k)}
		}
		idx[k] = i
	}

	s.mu.Lock()
	s.products = products
	s.index = idx
	s.mu.Unlock()

	s.log.Info("catalog loaded", logx.String("path", s.path), logx.Int("products", len(products)))
	return nil
}

// parseProducts decodes a catalog file. YAML files are coerced to JSON first
// so both formats go through the same strict decoder.
func parseProducts(path string, data []byte) ([]Product, error) {
	jb := data
	if isYAMLPath(path) {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
		b, err := json.Marshal(normalizeYAML(v))
		if err != nil {
			return nil, fmt.Errorf("yaml->json marshal: %w", err)
		}
		jb = b
	}

	var products []Product
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&products); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("trailing data after product list")
		}
		return nil, err
	}
	return products, nil
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}

// Snapshot returns a copy of the current product list in file order.
func (s *Store) Snapshot() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get looks up a single product by (sku, zip).
func (s *Store) Get(sku, zip string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[Key(sku, zip)]
	if !ok {
		return Product{}, false
	}
	return s.products[i], true
}

// Len returns the number of monitored products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Add appends a product and persists the catalog. The mutation and the file
// rewrite happen under one lock acquisition, so a concurrent poll either sees
// the catalog fully before or fully after the add.
func (s *Store) Add(p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := p.Key()
	if _, dup := s.index[k]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicate, k)
	}

	s.products = append(s.products, p)
	s.index[k] = len(s.products) - 1

	if err := s.persistLocked(); err != nil {
		// roll back so memory matches the file
		s.products = s.products[:len(s.products)-1]
		delete(s.index, k)
		return err
	}
	s.log.Info("product added", logx.String("sku", p.SKU), logx.String("zip", p.ZipCode), logx.String("priority", string(p.EffectivePriority())))
	return nil
}

// Remove deletes a product by (sku, zip) and persists the catalog.
// The removed product is returned so callers can report its name.
func (s *Store) Remove(sku, zip string) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := Key(sku, zip)
	i, ok := s.index[k]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, k)
	}

	removed := s.products[i]
	old := s.products
	s.products = append(append([]Product{}, old[:i]...), old[i+1:]...)
	s.reindexLocked()

	if err := s.persistLocked(); err != nil {
		s.products = old
		s.reindexLocked()
		return Product{}, err
	}
	s.log.Info("product removed", logx.String("sku", sku), logx.String("zip", zip))
	return removed, nil
}

func (s *Store) reindexLocked() {
	s.index = make(map[string]int, len(s.products))
	for i, p := range s.products {
		s.index[p.Key()] = i
	}
}

// Persist rewrites the backing file from the current in-memory set.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	var (
		b   []byte
		err error
	)
	if isYAMLPath(s.path) {
		b, err = yaml.Marshal(s.products)
	} else {
		b, err = json.MarshalIndent(s.products, "", "  ")
		if err == nil {
			b = append(b, '\n')
		}
	}
	if err != nil {
		return &ConfigError{Path: s.path, Err: err}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ConfigError{Path: s.path, Err: err}
		}
	}

	// temp-then-rename keeps the file whole even if we crash mid-write
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &ConfigError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &ConfigError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &ConfigError{Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &ConfigError{Path: s.path, Err: err}
	}
	return nil
}
