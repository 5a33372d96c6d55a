package model

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/nstepro/the-compound-sub000/internal/slug"
)

// PlaceType is the internal category taxonomy for catalog entries.
type PlaceType string

const (
	TypeDining        PlaceType = "dining"
	TypeActivity      PlaceType = "activity"
	TypeAccommodation PlaceType = "accommodation"
	TypeShopping      PlaceType = "shopping"
	TypeOther         PlaceType = "other"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Hours is either a free-text string ("Open daily 9-5") or a
// per-weekday mapping. Exactly one of Text/Weekly is set.
type Hours struct {
	Text   string
	Weekly map[string]string
}

// MarshalJSON emits the weekly map when present, otherwise the string
// form. A zero Hours marshals as null rather than an empty string.
func (h Hours) MarshalJSON() ([]byte, error) {
	if h.Weekly != nil {
		return json.Marshal(h.Weekly)
	}
	if h.Text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(h.Text)
}

// UnmarshalJSON accepts either a string or a weekday→hours object.
func (h *Hours) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		h.Text = s
		h.Weekly = nil
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	h.Text = ""
	h.Weekly = m
	return nil
}

// EnrichmentStatus records the outcome of the last enrichment attempt
// for a place. The orchestrator's skip decision reads it on the next run.
type EnrichmentStatus struct {
	Enriched          bool      `json:"enriched"`
	EnrichedAt        time.Time `json:"enrichedAt,omitzero"`
	EnrichmentVersion string    `json:"enrichmentVersion,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	SourceConfidence  string    `json:"sourceConfidence,omitempty"`
}

// Source confidence levels for the accepted lookup match.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
)

// Place is one catalog entry. The extraction-owned fields (id, name,
// description, notes, origText, category, tags) are never written by
// the enrichment phase; business fields stay absent until enriched.
type Place struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Type        PlaceType `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	OrigText    string    `json:"origText"`
	Category    string    `json:"category"`

	Address       string            `json:"address,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	Website       string            `json:"website,omitempty"`
	Hours         *Hours            `json:"hours,omitempty"`
	Rating        *float64          `json:"rating,omitempty"`
	PriceRange    string            `json:"priceRange,omitempty"`
	Coordinates   *Coordinates      `json:"coordinates,omitempty"`
	PlaceTaxonomy []string          `json:"placeTaxonomy,omitempty"`
	Tags          []string          `json:"tags,omitempty"`

	EnrichmentStatus *EnrichmentStatus `json:"enrichmentStatus,omitempty"`
}

// IsEnriched reports whether the place carries a successful enrichment
// produced under the given version.
func (p *Place) IsEnriched(version string) bool {
	return p.EnrichmentStatus != nil &&
		p.EnrichmentStatus.Enriched &&
		p.EnrichmentStatus.EnrichmentVersion == version
}

// Slug returns the stable identifier derived from the place name.
func (p *Place) Slug() string {
	return slug.Make(p.Name)
}

// CarryForward copies the previous run's enrichment output onto p:
// business fields, tags, type, and enrichment status. Extraction-owned
// fields (name, description, notes, origText, category) keep the
// current run's values.
func (p *Place) CarryForward(prev *Place) {
	p.Type = prev.Type
	p.Address = prev.Address
	p.Phone = prev.Phone
	p.Website = prev.Website
	p.Hours = prev.Hours
	p.Rating = prev.Rating
	p.PriceRange = prev.PriceRange
	p.Coordinates = prev.Coordinates
	p.PlaceTaxonomy = prev.PlaceTaxonomy
	p.Tags = prev.Tags
	p.EnrichmentStatus = prev.EnrichmentStatus
}

// CategorySet returns the distinct categories across places, sorted.
func CategorySet(places []Place) []string {
	seen := make(map[string]struct{}, len(places))
	var out []string
	for _, p := range places {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}
