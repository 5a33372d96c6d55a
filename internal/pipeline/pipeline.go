// Package pipeline orchestrates the document-to-catalog run: fetch,
// segment, extract, enrich, tag, persist. Phases are linear with no
// inter-phase retries; per-place failures inside enrichment and tag
// synthesis are isolated and counted, never escalated.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nstepro/the-compound-sub000/internal/config"
	"github.com/nstepro/the-compound-sub000/internal/enrich"
	"github.com/nstepro/the-compound-sub000/internal/extract"
	"github.com/nstepro/the-compound-sub000/internal/model"
	"github.com/nstepro/the-compound-sub000/internal/runlog"
	"github.com/nstepro/the-compound-sub000/internal/segment"
	"github.com/nstepro/the-compound-sub000/internal/store"
	"github.com/nstepro/the-compound-sub000/internal/tags"
	"github.com/nstepro/the-compound-sub000/pkg/anthropic"
	"github.com/nstepro/the-compound-sub000/pkg/notion"
	"github.com/nstepro/the-compound-sub000/pkg/places"
)

// parserVersion stamps the catalog wire format. Bump it when the JSON
// shape changes in a way the front end must know about.
const parserVersion = "2.0"

// Pipeline phases, in execution order.
const (
	PhaseSegmenting = "segmenting"
	PhaseExtracting = "extracting"
	PhaseEnriching  = "enriching"
	PhaseTagging    = "tagging"
	PhasePersisting = "persisting"
)

// Event is one progress notification emitted during a run.
type Event struct {
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// RunOptions controls a single pipeline run.
type RunOptions struct {
	// FullRefresh re-enriches every place regardless of prior status.
	FullRefresh bool
	// OnProgress, when set, receives phase events as they happen.
	OnProgress func(Event)
}

// RefreshDecision is the per-place skip decision, computed once before
// the enrichment loop branches on it.
type RefreshDecision int

const (
	// DecisionCarryForward keeps the prior entity's enrichment.
	DecisionCarryForward RefreshDecision = iota
	// DecisionNew enriches a place with no prior entry.
	DecisionNew
	// DecisionStaleVersion re-enriches a place whose prior enrichment
	// was produced under a different version.
	DecisionStaleVersion
	// DecisionForced re-enriches because the run is a full refresh.
	DecisionForced
)

// Pipeline holds the run dependencies. The run log is optional; a nil
// log disables history without changing pipeline behavior.
type Pipeline struct {
	cfg     *config.Config
	notion  notion.Client
	ai      anthropic.Client
	places  places.Client
	store   store.Store
	history runlog.Log
	now     func() time.Time
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	notionClient notion.Client,
	aiClient anthropic.Client,
	placesClient places.Client,
	st store.Store,
	history runlog.Log,
) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		notion:  notionClient,
		ai:      aiClient,
		places:  placesClient,
		store:   st,
		history: history,
		now:     time.Now,
	}
}

// Run executes the full pipeline for one document and returns the
// persisted catalog. Fatal failures return a typed error
// (SourceUnavailableError, ExtractionError, PersistenceError); per-place
// enrichment and tagging failures are recorded in the stats instead.
func (p *Pipeline) Run(ctx context.Context, documentID string, opts RunOptions) (*model.Catalog, error) {
	log := zap.L().With(zap.String("document", documentID))
	log.Info("pipeline: starting run", zap.Bool("full_refresh", opts.FullRefresh))

	var runID string
	if p.history != nil {
		if run, err := p.history.CreateRun(ctx, documentID, opts.FullRefresh); err != nil {
			log.Warn("pipeline: create run record failed", zap.Error(err))
		} else {
			runID = run.ID
		}
	}

	setStatus := func(status runlog.RunStatus) {
		if p.history == nil || runID == "" {
			return
		}
		if err := p.history.UpdateRunStatus(ctx, runID, status); err != nil {
			log.Warn("pipeline: update run status failed", zap.Error(err))
		}
	}
	emit := func(phase, message string) {
		if opts.OnProgress != nil {
			opts.OnProgress(Event{Phase: phase, Message: message, Timestamp: p.now().UTC()})
		}
		if p.history != nil && runID != "" {
			if err := p.history.AddEvent(ctx, runID, phase, message); err != nil {
				log.Warn("pipeline: record event failed", zap.Error(err))
			}
		}
	}
	fail := func(err error) error {
		if p.history != nil && runID != "" {
			if logErr := p.history.FailRun(ctx, runID, err.Error()); logErr != nil {
				log.Warn("pipeline: record failure failed", zap.Error(logErr))
			}
		}
		return err
	}

	// Fetch the document and the previous catalog concurrently. A
	// missing or unreadable previous catalog downgrades to a warning;
	// the run proceeds as if none existed.
	var doc *notion.Document
	var prev *model.Catalog

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := notion.FetchDocument(gctx, p.notion, documentID)
		if err != nil {
			return &SourceUnavailableError{DocumentID: documentID, Err: err}
		}
		doc = d
		return nil
	})
	g.Go(func() error {
		data, err := p.store.Download(gctx, p.cfg.Store.CatalogKey)
		if err != nil {
			log.Warn("pipeline: previous catalog unavailable", zap.Error(err))
			return nil
		}
		if data == nil {
			return nil
		}
		var c model.Catalog
		if err := json.Unmarshal(data, &c); err != nil {
			log.Warn("pipeline: previous catalog unreadable, treating as absent", zap.Error(err))
			return nil
		}
		prev = &c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fail(err)
	}

	// ===== Segmenting =====
	setStatus(runlog.StatusSegmenting)
	emit(PhaseSegmenting, "segmenting document")
	sections := segment.Segment(doc.Content)
	log.Info("pipeline: segmented", zap.Int("sections", len(sections)))

	// ===== Extracting =====
	setStatus(runlog.StatusExtracting)
	emit(PhaseExtracting, "extracting places")
	var usage anthropic.TokenUsage
	result, err := extract.Extract(ctx, p.ai, p.cfg.Anthropic, sections, p.cfg.Pipeline.LocationContext)
	if err != nil {
		return nil, fail(&ExtractionError{Err: err})
	}
	usage.Add(result.Usage)

	extracted := result.Places
	for i := range extracted {
		if extracted[i].ID == "" {
			extracted[i].ID = extracted[i].Slug()
		}
	}
	log.Info("pipeline: extracted", zap.Int("places", len(extracted)))

	// ===== Enriching =====
	setStatus(runlog.StatusEnriching)
	emit(PhaseEnriching, "enriching places")

	enricher := enrich.New(p.places, p.cfg.Places, p.cfg.Pipeline.EnrichmentVersion, p.cfg.Pipeline.LocationContext)
	stats := model.EnrichmentStats{}
	carried := make(map[string]bool, len(extracted))

	for i := range extracted {
		place := &extracted[i]
		switch p.decide(place, prev, opts.FullRefresh) {
		case DecisionCarryForward:
			place.CarryForward(prev.FindPlace(place.ID))
			carried[place.ID] = true
			stats.SkippedPlaces++
			log.Debug("pipeline: carried forward", zap.String("place", place.ID))
			continue
		case DecisionNew:
			log.Debug("pipeline: new place", zap.String("place", place.ID))
		case DecisionStaleVersion:
			log.Debug("pipeline: stale enrichment version", zap.String("place", place.ID))
		case DecisionForced:
			log.Debug("pipeline: forced refresh", zap.String("place", place.ID))
		}

		if err := enricher.Enrich(ctx, place); err != nil {
			enrichErr := &EnrichmentError{PlaceID: place.ID, Err: err}
			log.Warn("pipeline: place enrichment failed", zap.String("place", place.ID), zap.Error(err))
			emit(PhaseEnriching, enrichErr.Error())
			place.EnrichmentStatus = &model.EnrichmentStatus{
				Enriched:   false,
				EnrichedAt: p.now().UTC(),
				Reason:     err.Error(),
			}
			stats.FailedPlaces++
			continue
		}
		// A zero-result lookup is a terminal non-error outcome; the
		// place carries enriched=false and counts as a failure.
		if place.EnrichmentStatus == nil || !place.EnrichmentStatus.Enriched {
			stats.FailedPlaces++
			continue
		}
		stats.EnrichedPlaces++
	}

	if stats.FailedPlaces > len(extracted)/2 {
		log.Warn("pipeline: over half of places failed enrichment",
			zap.Int("failed", stats.FailedPlaces),
			zap.Int("total", len(extracted)))
	}

	// ===== Tagging =====
	setStatus(runlog.StatusTagging)
	emit(PhaseTagging, "synthesizing tags")

	synth := tags.New(p.ai, p.cfg.Anthropic)
	for i := range extracted {
		place := &extracted[i]
		// Carried-forward places keep their prior tags; synthesis runs
		// only when none were carried.
		if carried[place.ID] && len(place.Tags) > 0 {
			continue
		}
		tagList, tagUsage, err := synth.Synthesize(ctx, place)
		usage.Add(tagUsage)
		if err != nil {
			tagErr := &TagSynthesisError{PlaceID: place.ID, Err: err}
			log.Warn("pipeline: tag synthesis degraded to fallback",
				zap.String("place", place.ID), zap.Error(err))
			emit(PhaseTagging, tagErr.Error())
		}
		place.Tags = tagList
	}

	// ===== Persisting =====
	setStatus(runlog.StatusPersisting)
	emit(PhasePersisting, "persisting catalog")

	catalog := &model.Catalog{
		Metadata: model.Metadata{
			GeneratedAt:       p.now().UTC(),
			SourceID:          doc.ID,
			SourceTitle:       doc.Title,
			RevisionID:        doc.RevisionID,
			TotalPlaces:       len(extracted),
			Categories:        model.CategorySet(extracted),
			EnrichmentStats:   stats,
			ParserVersion:     parserVersion,
			EnrichmentVersion: p.cfg.Pipeline.EnrichmentVersion,
		},
		Places: extracted,
	}

	if err := model.ValidateCatalog(catalog); err != nil {
		valErr := &ValidationError{Err: err}
		log.Warn("pipeline: catalog failed schema validation", zap.Error(valErr))
	}

	if err := p.persist(ctx, catalog); err != nil {
		return nil, fail(err)
	}

	usage.LogCost(p.cfg.Anthropic.Model, "run")
	log.Info("pipeline: run complete",
		zap.Int("total", len(extracted)),
		zap.Int("enriched", stats.EnrichedPlaces),
		zap.Int("skipped", stats.SkippedPlaces),
		zap.Int("failed", stats.FailedPlaces))

	if p.history != nil && runID != "" {
		if err := p.history.CompleteRun(ctx, runID, stats); err != nil {
			log.Warn("pipeline: record completion failed", zap.Error(err))
		}
	}
	return catalog, nil
}

// decide computes the refresh decision for one place against the
// previous catalog.
func (p *Pipeline) decide(place *model.Place, prev *model.Catalog, fullRefresh bool) RefreshDecision {
	if fullRefresh {
		return DecisionForced
	}
	prevPlace := prev.FindPlace(place.ID)
	if prevPlace == nil {
		return DecisionNew
	}
	if prevPlace.IsEnriched(p.cfg.Pipeline.EnrichmentVersion) {
		return DecisionCarryForward
	}
	return DecisionStaleVersion
}

// persist writes the catalog with backup-before-overwrite plus an
// always-on snapshot. The backup copies the current latest object under
// a timestamped key before it is replaced; the snapshot preserves this
// run's output independently of the latest key.
func (p *Pipeline) persist(ctx context.Context, catalog *model.Catalog) error {
	key := p.cfg.Store.CatalogKey
	now := p.now().UTC()

	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return &PersistenceError{Key: key, Err: eris.Wrap(err, "marshal catalog")}
	}

	existing, err := p.store.Download(ctx, key)
	if err != nil {
		return &PersistenceError{Key: key, Err: eris.Wrap(err, "read current catalog for backup")}
	}
	if existing != nil {
		backupKey := store.BackupKey(key, now)
		if err := p.store.Upload(ctx, backupKey, existing); err != nil {
			return &PersistenceError{Key: backupKey, Err: eris.Wrap(err, "write backup")}
		}
		zap.L().Info("pipeline: backed up previous catalog", zap.String("key", backupKey))
	}

	if err := p.store.Upload(ctx, key, data); err != nil {
		return &PersistenceError{Key: key, Err: err}
	}

	snapshotKey := store.SnapshotKey(key, now)
	if err := p.store.Upload(ctx, snapshotKey, data); err != nil {
		// The latest catalog is already written; losing one snapshot is
		// not worth failing the run.
		zap.L().Warn("pipeline: snapshot write failed", zap.String("key", snapshotKey), zap.Error(err))
	}
	return nil
}
