package llm

import "github.com/invopop/jsonschema"

// GenerateSchema reflects a Go type into a JSON schema suitable for the
// provider's structured-output response format.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// PlanDay is one day of the generated weekly plan.
type PlanDay struct {
	Day       string   `json:"day" jsonschema_description:"Weekday name for this plan entry"`
	Focus     string   `json:"focus" jsonschema_description:"Main focus of the day, e.g. upper body, rest"`
	Exercises []string `json:"exercises" jsonschema_description:"Exercises to perform on this day, empty on rest days"`
}

// PlanRecommendation is the structured recommendation block the provider is
// asked to produce.
type PlanRecommendation struct {
	Methodology     string `json:"methodology" jsonschema_description:"Name of the chosen training methodology"`
	Justification   string `json:"justification" jsonschema_description:"Why this methodology fits the user profile"`
	DurationWeeks   int    `json:"duration_weeks" jsonschema_description:"Program duration in whole weeks"`
	DifficultyLevel string `json:"difficulty_level" jsonschema_description:"Difficulty label, e.g. Beginner, Intermediate, Advanced"`
}

// PlanDocument is the full expected response shape. The decoder still treats
// the actual completion as untrusted free text; this schema only nudges the
// provider toward it.
type PlanDocument struct {
	Recommendation PlanRecommendation `json:"recommendation"`
	WeeklyPlan     struct {
		Days []PlanDay `json:"days" jsonschema_description:"Plan entries starting on the request's current weekday, first entry must be a training day"`
	} `json:"weekly_plan"`
}

var PlanDocumentSchema = GenerateSchema[PlanDocument]()
