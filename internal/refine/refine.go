// Package refine optionally polishes extracted activities with an LLM:
// OCR artifacts like dropped spaces, broken casing, and misspelled words
// get repaired without inventing content. Refinement never degrades a
// result; any provider or parse failure returns the input unchanged.
package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quillback/logbook/internal/extract"
	"github.com/quillback/logbook/internal/llm"
)

const (
	// refineTimeout bounds one refinement call.
	refineTimeout = 30 * time.Second

	refineMaxTokens   = 1000
	refineTemperature = 0.1
)

const refineSystemPrompt = `You clean up text extracted from scanned handwritten logbook pages.

Given a JSON object mapping weekday names to activity text, repair OCR damage only:
- fix misspelled words when the intended word is obvious
- restore dropped spaces and broken casing
- remove stray characters left by the scanner

Do NOT invent, summarize, or reorder activities. Do NOT add days that are
not in the input. Keep each value a short plain-text description.

Return ONLY a JSON object with the same weekday keys, e.g.:
{"monday": "...", "tuesday": "..."}`

// Refiner repairs OCR artifacts in extracted activities using an LLM
// provider. The zero Refiner (no provider) passes input through.
type Refiner struct {
	provider llm.Provider
}

// NewRefiner creates a refiner backed by the given provider. A nil
// provider yields a pass-through refiner.
func NewRefiner(provider llm.Provider) *Refiner {
	return &Refiner{provider: provider}
}

// Enabled reports whether a provider is configured.
func (r *Refiner) Enabled() bool {
	return r != nil && r.provider != nil
}

// Refine sends the activities to the model and returns the repaired map.
// Days the model omits keep their original text; days the model invents
// are dropped. On any error the input map is returned unchanged.
func (r *Refiner) Refine(ctx context.Context, activities map[extract.DayKey]string) map[extract.DayKey]string {
	if !r.Enabled() || len(activities) == 0 {
		return activities
	}

	prompt, err := formatRefinePrompt(activities)
	if err != nil {
		return activities
	}

	refineCtx, cancel := context.WithTimeout(ctx, refineTimeout)
	defer cancel()

	resp, err := r.provider.Complete(refineCtx, prompt, llm.CompletionOpts{
		System:      refineSystemPrompt,
		MaxTokens:   refineMaxTokens,
		Temperature: refineTemperature,
		Format:      "json",
	})
	if err != nil {
		return activities
	}

	refined, err := parseRefined(resp)
	if err != nil {
		return activities
	}

	out := make(map[extract.DayKey]string, len(activities))
	for day, original := range activities {
		out[day] = original
		if repaired, ok := refined[day]; ok && repaired != "" {
			out[day] = repaired
		}
	}
	return out
}

// formatRefinePrompt renders the activities as a JSON object in week
// order so the model sees a stable layout.
func formatRefinePrompt(activities map[extract.DayKey]string) (string, error) {
	ordered := make(map[string]string, len(activities))
	for _, day := range extract.Weekdays() {
		if text, ok := activities[day]; ok {
			ordered[string(day)] = text
		}
	}
	body, err := json.Marshal(ordered)
	if err != nil {
		return "", fmt.Errorf("marshaling activities: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Repair the OCR damage in these logbook activities:\n\n")
	sb.Write(body)
	sb.WriteString("\n\nReturn JSON only.")
	return sb.String(), nil
}

// parseRefined parses the model's JSON response. Keys are lowercased
// before validation; anything that is not a tracked weekday is dropped.
func parseRefined(resp string) (map[extract.DayKey]string, error) {
	resp = strings.TrimSpace(resp)

	// Strip markdown code fences
	if strings.HasPrefix(resp, "```") {
		lines := strings.Split(resp, "\n")
		var cleaned []string
		inBlock := false
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inBlock = !inBlock
				continue
			}
			if inBlock {
				cleaned = append(cleaned, line)
			}
		}
		resp = strings.Join(cleaned, "\n")
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(resp), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w (raw: %s)", err, truncate(resp, 200))
	}

	refined := make(map[extract.DayKey]string, len(raw))
	for key, value := range raw {
		day := extract.DayKey(strings.ToLower(strings.TrimSpace(key)))
		if !day.Valid() {
			continue
		}
		refined[day] = strings.TrimSpace(value)
	}
	return refined, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
