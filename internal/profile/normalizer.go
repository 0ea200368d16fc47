package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// NoneValue is what every list-like health/nutrition field renders to when
// empty. Downstream consumers (the recommendation prompt, API responses)
// rely on these fields always being non-empty, human-readable strings.
const NoneValue = "None"

// Default values applied when the raw profile omits a field entirely.
const (
	DefaultWeeklyFrequency = 3
	DefaultDailyMeals      = 3
)

// HomeTrainingMethodology is the one catalog entry gated on home-training
// eligibility.
const HomeTrainingMethodology = "Home Training"

// methodologyCatalog is the fixed set of methodologies the recommendation
// engine may pick from.
var methodologyCatalog = []string{
	"Hypertrophy",
	"Strength",
	"Powerbuilding",
	"Functional",
	"Calisthenics",
	HomeTrainingMethodology,
}

// CanonicalProfile is the fully-defaulted, normalized representation of a
// user's fitness and health data. Numeric fields are either present and
// positive or nil, never zero placeholders. It is derived on demand and
// never persisted.
type CanonicalProfile struct {
	// Demographics
	Age      *int     `json:"age,omitempty"`
	Sex      string   `json:"sex,omitempty"`
	HeightCm *float64 `json:"heightCm,omitempty"`
	WeightKg *float64 `json:"weightKg,omitempty"`
	BMI      *float64 `json:"bmi,omitempty"`

	// Training experience
	ExperienceLevel      string   `json:"experienceLevel,omitempty"`
	YearsTraining        *float64 `json:"yearsTraining,omitempty"`
	PreferredMethodology string   `json:"preferredMethodology,omitempty"`
	WeeklyFrequency      int      `json:"weeklyFrequency"`

	// Body composition and measurements
	BodyFatPct   *float64 `json:"bodyFatPct,omitempty"`
	MuscleMassKg *float64 `json:"muscleMassKg,omitempty"`
	WaistCm      *float64 `json:"waistCm,omitempty"`
	ChestCm      *float64 `json:"chestCm,omitempty"`
	ArmCm        *float64 `json:"armCm,omitempty"`

	// Health, always rendered to readable text ("None" when empty)
	Injuries    string `json:"injuries"`
	Allergies   string `json:"allergies"`
	Medications string `json:"medications"`

	// Nutrition
	Supplements   string `json:"supplements"`
	ExcludedFoods string `json:"excludedFoods"`
	DailyMeals    int    `json:"dailyMeals"`
	DietType      string `json:"dietType,omitempty"`

	// Goals
	Goal           string   `json:"goal,omitempty"`
	TargetWeightKg *float64 `json:"targetWeightKg,omitempty"`

	// Derived eligibility
	HomeTrainingAllowed    bool     `json:"homeTrainingAllowed"`
	AvailableMethodologies []string `json:"availableMethodologies"`
}

// Normalize converts a loosely-typed, partially-populated raw profile into a
// CanonicalProfile. It is total: any input, including nil, yields a usable
// profile. Missing or malformed fields degrade to their documented defaults
// instead of producing an error.
func Normalize(raw map[string]any) CanonicalProfile {
	p := CanonicalProfile{
		Age:                  intField(raw, "edad"),
		Sex:                  stringField(raw, "sexo"),
		HeightCm:             floatField(raw, "altura_cm"),
		WeightKg:             floatField(raw, "peso_kg"),
		ExperienceLevel:      stringField(raw, "nivel_experiencia"),
		YearsTraining:        floatField(raw, "anos_entrenando"),
		PreferredMethodology: stringField(raw, "metodologia_preferida"),
		WeeklyFrequency:      intFieldDefault(raw, "frecuencia_semanal", DefaultWeeklyFrequency),
		BodyFatPct:           floatField(raw, "grasa_corporal_pct"),
		MuscleMassKg:         floatField(raw, "masa_muscular_kg"),
		WaistCm:              floatField(raw, "cintura_cm"),
		ChestCm:              floatField(raw, "pecho_cm"),
		ArmCm:                floatField(raw, "brazo_cm"),
		Injuries:             flattenField(raw, "limitaciones"),
		Allergies:            flattenField(raw, "alergias"),
		Medications:          flattenField(raw, "medicamentos"),
		Supplements:          flattenField(raw, "suplementos"),
		ExcludedFoods:        flattenField(raw, "alimentos_excluidos"),
		DailyMeals:           intFieldDefault(raw, "comidas_diarias", DefaultDailyMeals),
		DietType:             stringField(raw, "tipo_dieta"),
		Goal:                 stringField(raw, "objetivo"),
		TargetWeightKg:       floatField(raw, "peso_objetivo_kg"),
	}

	if p.WeightKg != nil && p.HeightCm != nil {
		meters := *p.HeightCm / 100
		bmi := math.Round(*p.WeightKg/(meters*meters)*10) / 10
		p.BMI = &bmi
	}

	p.HomeTrainingAllowed = homeTrainingAllowed(raw)
	p.AvailableMethodologies = AvailableMethodologies(p.HomeTrainingAllowed)

	return p
}

// AvailableMethodologies returns the methodology catalog, filtering out
// "Home Training" when the user is not eligible for it.
func AvailableMethodologies(homeAllowed bool) []string {
	out := make([]string, 0, len(methodologyCatalog))
	for _, m := range methodologyCatalog {
		if m == HomeTrainingMethodology && !homeAllowed {
			continue
		}
		out = append(out, m)
	}
	return out
}

// homeTrainingAllowed is true when the user explicitly prefers home
// training, lacks gym access, or carries the no-gym flag.
func homeTrainingAllowed(raw map[string]any) bool {
	if truthy(raw["entrena_en_casa"]) || truthy(raw["sin_gimnasio"]) {
		return true
	}
	if v, ok := raw["acceso_gimnasio"]; ok && !truthy(v) {
		return true
	}
	return false
}

// coerceFloat converts the supported raw value shapes to a float64.
// JSON decoding gives float64 for all numbers, but callers may also hand us
// typed Go values or numeric strings.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// floatField returns a positive finite number or nil. Zero, NaN and
// non-numeric placeholders all count as absent.
func floatField(raw map[string]any, key string) *float64 {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	f, ok := coerceFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return nil
	}
	return &f
}

func intField(raw map[string]any, key string) *int {
	f := floatField(raw, key)
	if f == nil {
		return nil
	}
	n := int(*f)
	if n <= 0 {
		return nil
	}
	return &n
}

func intFieldDefault(raw map[string]any, key string, def int) int {
	if n := intField(raw, key); n != nil {
		return *n
	}
	return def
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

// truthy mirrors the loose truthiness the raw profiles use: explicit "no",
// "false" and zero values are false, anything else present is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "no" && s != "false" && s != "0"
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

// flattenField renders a list-like raw value to readable text.
// Arrays join their non-empty entries, keyed structures keep only truthy
// values as "key: value" pairs, scalars are trimmed. An empty result always
// renders as "None".
func flattenField(raw map[string]any, key string) string {
	return flatten(raw[key])
}

func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return NoneValue
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
		return NoneValue
	case []any:
		var parts []string
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprintf("%v", item)); s != "" && item != nil {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return NoneValue
		}
		return strings.Join(parts, ", ")
	case []string:
		var parts []string
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return NoneValue
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			if truthy(t[k]) {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return NoneValue
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, t[k]))
		}
		return strings.Join(parts, "; ")
	default:
		if s := strings.TrimSpace(fmt.Sprintf("%v", t)); s != "" {
			return s
		}
		return NoneValue
	}
}
