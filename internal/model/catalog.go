package model

import "time"

// EnrichmentStats aggregates per-run enrichment outcomes.
type EnrichmentStats struct {
	EnrichedPlaces int `json:"enrichedPlaces"`
	SkippedPlaces  int `json:"skippedPlaces"`
	FailedPlaces   int `json:"failedPlaces"`
}

// Metadata describes one catalog generation.
type Metadata struct {
	GeneratedAt       time.Time       `json:"generatedAt"`
	SourceID          string          `json:"sourceId"`
	SourceTitle       string          `json:"sourceTitle,omitempty"`
	RevisionID        string          `json:"revisionId,omitempty"`
	TotalPlaces       int             `json:"totalPlaces"`
	Categories        []string        `json:"categories"`
	EnrichmentStats   EnrichmentStats `json:"enrichmentStats"`
	ParserVersion     string          `json:"parserVersion"`
	EnrichmentVersion string          `json:"enrichmentVersion,omitempty"`
}

// Catalog is the persisted unit: one document snapshot's places plus
// generation metadata. Place order follows document encounter order.
// This JSON shape is the wire format consumed by the front end and must
// stay stable unless ParserVersion is bumped.
type Catalog struct {
	Metadata Metadata `json:"metadata"`
	Places   []Place  `json:"places"`
}

// FindPlace returns the place with the given id, or nil.
func (c *Catalog) FindPlace(id string) *Place {
	if c == nil {
		return nil
	}
	for i := range c.Places {
		if c.Places[i].ID == id {
			return &c.Places[i]
		}
	}
	return nil
}
