// Package tags produces search tags and readable hours summaries for
// enriched places.
package tags

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nstepro/the-compound-sub000/internal/config"
	"github.com/nstepro/the-compound-sub000/internal/model"
	"github.com/nstepro/the-compound-sub000/pkg/anthropic"
)

const synthSystemText = `You generate search tags for a travel guide catalog entry. Combine two signals: the guide's own wording (experiential cues like "cash only", "harbor view", "kid friendly") and the business taxonomy terms (categorical cues like "restaurant", "tourist attraction"). Return ONLY a JSON array of 3-8 short lowercase tags, no commentary.`

const synthUserPrompt = `Guide text:
%s

Description: %s
Notes: %s
Business taxonomy: %s

Return the JSON array of tags.`

// Synthesizer produces tags via a Claude call, degrading to
// taxonomy-derived tags when the call fails.
type Synthesizer struct {
	ai  anthropic.Client
	cfg config.AnthropicConfig
}

// New creates a Synthesizer.
func New(ai anthropic.Client, cfg config.AnthropicConfig) *Synthesizer {
	return &Synthesizer{ai: ai, cfg: cfg}
}

// Synthesize returns lowercase search tags for a place, plus the token
// usage of the call. A failed or unparseable completion falls back to
// Fallback tags and reports the error; the caller records it without
// aborting the run.
func (s *Synthesizer) Synthesize(ctx context.Context, p *model.Place) ([]string, anthropic.TokenUsage, error) {
	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.TagMaxTokens,
		System: []anthropic.SystemBlock{
			{Text: synthSystemText, CacheControl: &anthropic.CacheControl{}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(synthUserPrompt,
				p.OrigText, p.Description, p.Notes, strings.Join(p.PlaceTaxonomy, ", "))},
		},
	})
	if err != nil {
		return Fallback(p), anthropic.TokenUsage{}, eris.Wrap(err, "tags: completion")
	}

	var raw []string
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &raw); err != nil {
		return Fallback(p), resp.Usage, eris.Wrap(err, "tags: parse tag list")
	}

	tags := normalize(raw)
	if len(tags) == 0 {
		return Fallback(p), resp.Usage, eris.New("tags: empty tag list")
	}

	zap.L().Debug("tags: synthesized",
		zap.String("place", p.ID),
		zap.Int("count", len(tags)))
	return tags, resp.Usage, nil
}

// Fallback derives tags without a model call: the place type plus
// normalized taxonomy terms.
func Fallback(p *model.Place) []string {
	var raw []string
	if p.Type != "" {
		raw = append(raw, string(p.Type))
	}
	for _, t := range p.PlaceTaxonomy {
		raw = append(raw, strings.ReplaceAll(t, "_", " "))
	}
	return normalize(raw)
}

// normalize lowercases, trims, and dedupes while keeping first-seen
// order. Tags are semantically a set; duplicates are meaningless.
func normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, t := range raw {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// cleanJSON strips markdown code fences and surrounding prose from a
// model response, leaving the outermost JSON array.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	if !strings.HasPrefix(text, "[") {
		start := strings.Index(text, "[")
		end := strings.LastIndex(text, "]")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}
	return text
}
