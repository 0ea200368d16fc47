package recommend

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Defaults substituted for missing or unreadable fields in the LLM output.
const (
	DefaultMethodology   = "Hypertrophy"
	DefaultDurationWeeks = 12
	DefaultDifficulty    = "Intermediate"
)

// Recommendation is the structured outcome of a generation request.
type Recommendation struct {
	Methodology   string `json:"methodology"`
	Justification string `json:"justification"`
	DurationWeeks int    `json:"durationWeeks"`
	Difficulty    string `json:"difficulty"`
}

// DecodeResponse parses a raw LLM completion into a Recommendation and an
// opaque weekly plan. The completion is untrusted: it may not be JSON at
// all, and any expected field may be missing. Every field degrades to its
// documented default instead of failing, so the function never errors.
// The returned fallback flag is true when the completion carried no
// parseable JSON object and the result is entirely defaults.
func DecodeResponse(text string) (rec Recommendation, weeklyPlan map[string]any, fallback bool) {
	doc, ok := extractJSONObject(text)
	if !ok {
		rec = Recommendation{
			Methodology:   DefaultMethodology,
			DurationWeeks: DefaultDurationWeeks,
			Difficulty:    DefaultDifficulty,
		}
		rec.Justification = defaultJustification(rec.Methodology)
		return rec, nil, true
	}

	// The recommendation fields may come nested under a "recommendation"
	// block or flat at the top level.
	block := doc
	if nested, ok := doc["recommendation"].(map[string]any); ok {
		block = nested
	}

	rec.Methodology = firstString(block, "methodology", "methodology_name", "metodologia", "name")
	if rec.Methodology == "" {
		rec.Methodology = DefaultMethodology
	}
	rec.DurationWeeks = firstInt(block, "duration_weeks", "durationWeeks", "duracion_semanas")
	if rec.DurationWeeks <= 0 {
		rec.DurationWeeks = DefaultDurationWeeks
	}
	rec.Difficulty = firstString(block, "difficulty_level", "difficulty", "nivel_dificultad")
	if rec.Difficulty == "" {
		rec.Difficulty = DefaultDifficulty
	}
	rec.Justification = firstString(block, "justification", "justificacion", "reasoning")
	if rec.Justification == "" {
		rec.Justification = defaultJustification(rec.Methodology)
	}

	for _, key := range []string{"weekly_plan", "weeklyPlan", "plan_semanal"} {
		if plan, ok := doc[key].(map[string]any); ok {
			weeklyPlan = plan
			break
		}
		// Some completions return the day list directly.
		if days, ok := doc[key].([]any); ok {
			weeklyPlan = map[string]any{"days": days}
			break
		}
	}

	return rec, weeklyPlan, false
}

func defaultJustification(methodology string) string {
	return fmt.Sprintf("%s is a solid fit for your current experience level and goals.", methodology)
}

// extractJSONObject pulls the first JSON object out of free-form completion
// text. Providers occasionally wrap the object in prose or markdown fences.
func extractJSONObject(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err != nil {
		return nil, false
	}
	return doc, true
}

func firstString(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := doc[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstInt(doc map[string]any, keys ...string) int {
	for _, k := range keys {
		switch n := doc[k].(type) {
		case float64:
			return int(n)
		case string:
			var v int
			if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &v); err == nil {
				return v
			}
		}
	}
	return 0
}
