// Package extract turns segmented guide text into place candidates via
// a single Claude completion over the full document.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nstepro/the-compound-sub000/internal/config"
	"github.com/nstepro/the-compound-sub000/internal/model"
	"github.com/nstepro/the-compound-sub000/internal/segment"
	"github.com/nstepro/the-compound-sub000/pkg/anthropic"
)

// Result holds extracted candidates plus the token usage of the call.
type Result struct {
	Places []model.Place
	Usage  anthropic.TokenUsage
}

// candidate mirrors the JSON object the model is asked to emit.
type candidate struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Category    string `json:"category"`
	OrigText    string `json:"origText"`
}

// Extract runs one completion over the whole segmented document and
// parses the place candidate list. It errors on unparseable output, on
// a response truncated at the token limit, and on zero candidates; an
// empty catalog is never a valid extraction outcome.
func Extract(ctx context.Context, ai anthropic.Client, aiCfg config.AnthropicConfig, sections []segment.Section, locationContext string) (*Result, error) {
	doc := joinSections(sections)
	if strings.TrimSpace(doc) == "" {
		return nil, eris.New("extract: document is empty")
	}

	resp, err := ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     aiCfg.Model,
		MaxTokens: aiCfg.ExtractMaxTokens,
		System: []anthropic.SystemBlock{
			{Text: extractSystemText, CacheControl: &anthropic.CacheControl{}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(extractUserPrompt, locationContext, doc)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: completion")
	}

	if resp.Truncated() {
		return nil, eris.Errorf("extract: response truncated at %d output tokens; raise extract_max_tokens", aiCfg.ExtractMaxTokens)
	}

	var candidates []candidate
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &candidates); err != nil {
		return nil, eris.Wrap(err, "extract: parse candidate list")
	}
	if len(candidates) == 0 {
		return nil, eris.New("extract: no places found in document")
	}

	canon := newCanonicalizer()
	places := make([]model.Place, 0, len(candidates))
	for _, c := range candidates {
		p := model.Place{
			Name:        strings.TrimSpace(c.Name),
			Type:        parseType(c.Type),
			Description: strings.TrimSpace(c.Description),
			Notes:       strings.TrimSpace(c.Notes),
			OrigText:    c.OrigText,
			Category:    canon.canonical(c.Category),
		}
		if p.Name == "" || p.OrigText == "" {
			zap.L().Warn("extract: dropping candidate missing name or source text",
				zap.String("name", c.Name))
			continue
		}

		// Validation is advisory: one malformed entity must not void
		// the batch, so failures are logged and the candidate kept.
		if err := model.ValidateCandidate(p); err != nil {
			zap.L().Warn("extract: candidate failed schema validation",
				zap.String("name", p.Name),
				zap.Error(err))
		}
		places = append(places, p)
	}

	if len(places) == 0 {
		return nil, eris.New("extract: all candidates malformed")
	}

	zap.L().Info("extract: candidates parsed",
		zap.Int("count", len(places)),
		zap.Int64("output_tokens", resp.Usage.OutputTokens))

	return &Result{Places: places, Usage: resp.Usage}, nil
}

// joinSections reassembles segmenter output with explicit heading
// markers so the model sees category boundaries.
func joinSections(sections []segment.Section) string {
	var b strings.Builder
	for _, s := range sections {
		if s.Category != "" {
			level := s.HeadingLevel
			if level < 1 {
				level = 2
			}
			b.WriteString(strings.Repeat("#", level) + " " + s.Category + "\n\n")
		}
		if s.Body != "" {
			b.WriteString(s.Body + "\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// parseType maps the model's type guess onto the internal enum,
// defaulting to "other" for anything unrecognized.
func parseType(s string) model.PlaceType {
	switch model.PlaceType(strings.ToLower(strings.TrimSpace(s))) {
	case model.TypeDining:
		return model.TypeDining
	case model.TypeActivity:
		return model.TypeActivity
	case model.TypeAccommodation:
		return model.TypeAccommodation
	case model.TypeShopping:
		return model.TypeShopping
	default:
		return model.TypeOther
	}
}

// cleanJSON attempts to extract a JSON payload from text that may
// contain markdown code fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	text = strings.TrimSpace(text)

	// Fall back to the outermost JSON array if prose surrounds it.
	if !strings.HasPrefix(text, "[") {
		start := strings.Index(text, "[")
		end := strings.LastIndex(text, "]")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}
	return text
}
