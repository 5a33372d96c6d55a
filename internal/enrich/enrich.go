// Package enrich resolves extracted places to authoritative business
// data via the Places API, with a run-scoped cache and a fixed-delay
// throttle between external calls.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nstepro/the-compound-sub000/internal/config"
	"github.com/nstepro/the-compound-sub000/internal/model"
	"github.com/nstepro/the-compound-sub000/internal/slug"
	"github.com/nstepro/the-compound-sub000/pkg/places"
)

// descriptionQueryWords bounds how much of the description joins the
// search query; the full text drags in noise that hurts ranking.
const descriptionQueryWords = 5

// Enricher looks up one place at a time. Each pipeline run constructs
// its own Enricher so the cache never leaks across runs.
type Enricher struct {
	client          places.Client
	limiter         *rate.Limiter
	cache           *cache
	pageSize        int
	version         string
	locationContext string
	now             func() time.Time
}

// New creates an Enricher for one pipeline run. The request delay is a
// fixed inter-call throttle (search and details both count), not an
// adaptive backoff.
func New(client places.Client, cfg config.PlacesConfig, version, locationContext string) *Enricher {
	delay := time.Duration(cfg.RequestDelayMS) * time.Millisecond
	var limiter *rate.Limiter
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	pageSize := cfg.SearchPageSize
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Enricher{
		client:          client,
		limiter:         limiter,
		cache:           newCache(),
		pageSize:        pageSize,
		version:         version,
		locationContext: locationContext,
		now:             time.Now,
	}
}

// Enrich resolves business data for one place and writes it onto the
// place. Only business fields and enrichmentStatus are touched; the
// extraction-owned fields (id, name, description, notes, origText,
// category, tags) are never written here. A zero-result search is a
// terminal non-error outcome recorded on the status; transport and API
// failures are returned for the caller to record.
func (e *Enricher) Enrich(ctx context.Context, p *model.Place) error {
	log := zap.L().With(zap.String("place", p.ID))

	key := cacheKey(p.Name, e.locationContext)
	if fields, ok := e.cache.get(key); ok {
		log.Debug("enrich: cache hit")
		e.apply(p, fields)
		return nil
	}

	query := e.buildQuery(p)
	if err := e.wait(ctx); err != nil {
		return err
	}
	resp, err := e.client.SearchText(ctx, places.SearchRequest{
		TextQuery: query,
		PageSize:  e.pageSize,
	})
	if err != nil {
		return eris.Wrap(err, "enrich: search")
	}

	if len(resp.Places) == 0 {
		log.Info("enrich: no results", zap.String("query", query))
		p.EnrichmentStatus = &model.EnrichmentStatus{
			Enriched:   false,
			EnrichedAt: e.now().UTC(),
			Reason:     "no results",
		}
		return nil
	}

	// The API's relevance ranking is trusted: first result wins. This
	// is a known precision limit for common business names, recorded
	// via sourceConfidence rather than patched with extra scoring.
	best := resp.Places[0]
	confidence := matchConfidence(p.Name, best.DisplayName.Text)

	detail := &best
	if err := e.wait(ctx); err != nil {
		return err
	}
	if d, err := e.client.Details(ctx, best.ID); err != nil {
		// Degrade to the search fields rather than failing the place.
		log.Warn("enrich: details fetch failed, using search fields", zap.Error(err))
	} else {
		detail = merge(&best, d)
	}

	fields := extractFields(detail, confidence)
	e.apply(p, fields)
	e.cache.put(key, fields)

	log.Info("enrich: resolved",
		zap.String("match", best.DisplayName.Text),
		zap.String("confidence", confidence))
	return nil
}

// Version returns the enrichment version stamped onto statuses.
func (e *Enricher) Version() string {
	return e.version
}

func (e *Enricher) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "enrich: rate limit")
	}
	return nil
}

// buildQuery composes the lookup query from name, category, the first
// few description words, and the configured location context.
func (e *Enricher) buildQuery(p *model.Place) string {
	parts := []string{p.Name}
	if p.Category != "" {
		parts = append(parts, p.Category)
	}
	if words := strings.Fields(p.Description); len(words) > 0 {
		if len(words) > descriptionQueryWords {
			words = words[:descriptionQueryWords]
		}
		parts = append(parts, strings.Join(words, " "))
	}
	if e.locationContext != "" {
		parts = append(parts, e.locationContext)
	}
	return strings.Join(parts, " ")
}

// apply writes resolved business fields and a fresh success status.
func (e *Enricher) apply(p *model.Place, f *businessFields) {
	p.Address = f.Address
	p.Phone = f.Phone
	p.Website = f.Website
	p.Hours = f.Hours
	p.Rating = f.Rating
	p.PriceRange = f.PriceRange
	p.Coordinates = f.Coordinates
	p.PlaceTaxonomy = f.Taxonomy
	if f.Type != "" {
		p.Type = f.Type
	}
	p.EnrichmentStatus = &model.EnrichmentStatus{
		Enriched:          true,
		EnrichedAt:        e.now().UTC(),
		EnrichmentVersion: e.version,
		SourceConfidence:  f.Confidence,
	}
}

// merge overlays detail fields onto the search result; detailed data
// wins wherever both are present.
func merge(search, detail *places.Place) *places.Place {
	out := *search
	if detail.FormattedAddress != "" {
		out.FormattedAddress = detail.FormattedAddress
	}
	if detail.NationalPhoneNumber != "" {
		out.NationalPhoneNumber = detail.NationalPhoneNumber
	}
	if detail.WebsiteURI != "" {
		out.WebsiteURI = detail.WebsiteURI
	}
	if detail.Rating > 0 {
		out.Rating = detail.Rating
	}
	if detail.PriceLevel != "" {
		out.PriceLevel = detail.PriceLevel
	}
	if len(detail.Types) > 0 {
		out.Types = detail.Types
	}
	if detail.Location != nil {
		out.Location = detail.Location
	}
	if detail.RegularOpeningHours != nil {
		out.RegularOpeningHours = detail.RegularOpeningHours
	}
	return &out
}

// extractFields maps an API place onto the catalog's business fields.
func extractFields(src *places.Place, confidence string) *businessFields {
	f := &businessFields{
		Address:    src.FormattedAddress,
		Phone:      src.NationalPhoneNumber,
		Website:    src.WebsiteURI,
		PriceRange: mapPriceLevel(src.PriceLevel),
		Taxonomy:   src.Types,
		Type:       mapPlaceType(src.Types),
		Confidence: confidence,
	}
	if src.Rating > 0 {
		rating := src.Rating
		f.Rating = &rating
	}
	if src.Location != nil {
		f.Coordinates = &model.Coordinates{Lat: src.Location.Latitude, Lng: src.Location.Longitude}
	}
	if src.RegularOpeningHours != nil && len(src.RegularOpeningHours.WeekdayDescriptions) > 0 {
		f.Hours = &model.Hours{Weekly: parseWeekdayDescriptions(src.RegularOpeningHours.WeekdayDescriptions)}
	}
	return f
}

// parseWeekdayDescriptions splits "Monday: 9:00 AM – 5:00 PM" rows
// into a weekday→hours map.
func parseWeekdayDescriptions(rows []string) map[string]string {
	weekly := make(map[string]string, len(rows))
	for _, row := range rows {
		day, hours, ok := strings.Cut(row, ":")
		if !ok {
			continue
		}
		weekly[strings.TrimSpace(day)] = strings.TrimSpace(hours)
	}
	return weekly
}

// matchConfidence compares the accepted result's name against the
// queried name after slug normalization.
func matchConfidence(queried, matched string) string {
	if slug.Make(queried) == slug.Make(matched) {
		return model.ConfidenceHigh
	}
	return model.ConfidenceMedium
}
