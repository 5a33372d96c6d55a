package enrich

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/nstepro/the-compound-sub000/internal/model"
)

// businessFields is the resolved field set for one external business,
// the unit the run-scoped cache stores.
type businessFields struct {
	Address     string
	Phone       string
	Website     string
	Hours       *model.Hours
	Rating      *float64
	PriceRange  string
	Coordinates *model.Coordinates
	Taxonomy    []string
	Type        model.PlaceType
	Confidence  string
}

// cache is scoped to a single pipeline run (it lives and dies with the
// Enricher instance), so duplicate mentions of the same business in
// one document cost one lookup, and concurrent runs never share state.
type cache struct {
	mu      sync.Mutex
	entries map[string]*businessFields
}

func newCache() *cache {
	return &cache{entries: make(map[string]*businessFields)}
}

func (c *cache) get(key string) (*businessFields, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.entries[key]
	return f, ok
}

func (c *cache) put(key string, f *businessFields) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = f
}

// cacheKey returns SHA-256 hex of the normalized name + location
// context pair.
func cacheKey(name, locationContext string) string {
	normalized := fmt.Sprintf("%s|%s",
		strings.ToLower(strings.TrimSpace(name)),
		strings.ToLower(strings.TrimSpace(locationContext)),
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}
