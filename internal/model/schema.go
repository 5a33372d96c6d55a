package model

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// placeSchema validates one catalog entry. Kept permissive on purpose:
// enrichment fields are optional and validation at the place level is
// advisory, not a gate.
var placeSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "name", "origText", "category"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "minLength": 1, "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"},
		"name":        map[string]any{"type": "string", "minLength": 1},
		"type":        map[string]any{"enum": []any{"dining", "activity", "accommodation", "shopping", "other"}},
		"description": map[string]any{"type": "string"},
		"notes":       map[string]any{"type": "string"},
		"origText":    map[string]any{"type": "string", "minLength": 1},
		"category":    map[string]any{"type": "string", "minLength": 1},
		"address":     map[string]any{"type": "string"},
		"phone":       map[string]any{"type": "string"},
		"website":     map[string]any{"type": "string"},
		"hours": map[string]any{
			"oneOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
			},
		},
		"rating":     map[string]any{"type": "number", "minimum": 0, "maximum": 5},
		"priceRange": map[string]any{"enum": []any{"$", "$$", "$$$", "$$$$"}},
		"coordinates": map[string]any{
			"type":     "object",
			"required": []any{"lat", "lng"},
			"properties": map[string]any{
				"lat": map[string]any{"type": "number", "minimum": -90, "maximum": 90},
				"lng": map[string]any{"type": "number", "minimum": -180, "maximum": 180},
			},
		},
		"placeTaxonomy": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"tags":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"enrichmentStatus": map[string]any{
			"type":     "object",
			"required": []any{"enriched"},
			"properties": map[string]any{
				"enriched":          map[string]any{"type": "boolean"},
				"enrichedAt":        map[string]any{"type": "string"},
				"enrichmentVersion": map[string]any{"type": "string"},
				"reason":            map[string]any{"type": "string"},
				"sourceConfidence":  map[string]any{"enum": []any{"high", "medium"}},
			},
		},
	},
}

var catalogSchema = map[string]any{
	"type":     "object",
	"required": []any{"metadata", "places"},
	"properties": map[string]any{
		"metadata": map[string]any{
			"type":     "object",
			"required": []any{"generatedAt", "sourceId", "totalPlaces", "parserVersion"},
		},
		"places": map[string]any{
			"type":  "array",
			"items": placeSchema,
		},
	},
}

// candidateSchema relaxes the place schema for freshly extracted
// candidates, which have no id until the identity assigner runs.
var candidateSchema = func() map[string]any {
	s := make(map[string]any, len(placeSchema))
	for k, v := range placeSchema {
		s[k] = v
	}
	s["required"] = []any{"name", "origText", "category"}
	return s
}()

var (
	compileOnce       sync.Once
	compiledPlace     *jsonschema.Schema
	compiledCandidate *jsonschema.Schema
	compiledCatalog   *jsonschema.Schema
	compileErr        error
)

func compileSchemas() {
	compiledPlace, compileErr = compile("place.json", placeSchema)
	if compileErr != nil {
		return
	}
	compiledCandidate, compileErr = compile("candidate.json", candidateSchema)
	if compileErr != nil {
		return
	}
	compiledCatalog, compileErr = compile("catalog.json", catalogSchema)
}

func compile(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal schema")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, eris.Wrap(err, "model: add schema resource")
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, eris.Wrap(err, "model: compile schema")
	}
	return schema, nil
}

// ValidatePlace checks a place against the place schema.
func ValidatePlace(p Place) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}
	return validate(compiledPlace, p)
}

// ValidateCandidate checks an extracted candidate, which may not have
// an id assigned yet.
func ValidateCandidate(p Place) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}
	return validate(compiledCandidate, p)
}

// ValidateCatalog checks a full catalog against the catalog schema.
func ValidateCatalog(c *Catalog) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}
	return validate(compiledCatalog, c)
}

func validate(schema *jsonschema.Schema, v any) error {
	// Round-trip through JSON so custom marshallers (Hours) are applied
	// and the validator sees the wire shape.
	b, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "model: marshal for validation")
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return eris.Wrap(err, "model: unmarshal for validation")
	}
	if err := schema.Validate(decoded); err != nil {
		return eris.Wrap(err, "model: schema validation")
	}
	return nil
}
