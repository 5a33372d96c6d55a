package pipeline

import "fmt"

// SourceUnavailableError means the guide document could not be fetched.
// Nothing downstream can run without it.
type SourceUnavailableError struct {
	DocumentID string
	Err        error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable for document %s: %v", e.DocumentID, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// ExtractionError means the model call failed or produced no usable
// candidate list. The run aborts; an empty catalog is never written.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EnrichmentError records one place's lookup failure. It is logged and
// counted, never escalated; the place ships with extraction data only.
type EnrichmentError struct {
	PlaceID string
	Err     error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment failed for %s: %v", e.PlaceID, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// TagSynthesisError records one place's tag completion failure. The
// place keeps its fallback tags.
type TagSynthesisError struct {
	PlaceID string
	Err     error
}

func (e *TagSynthesisError) Error() string {
	return fmt.Sprintf("tag synthesis failed for %s: %v", e.PlaceID, e.Err)
}

func (e *TagSynthesisError) Unwrap() error { return e.Err }

// ValidationError means the assembled catalog failed schema validation.
// Advisory: logged, the catalog is still persisted.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError means the catalog could not be written to the object
// store. Fatal: the run is not marked complete.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
