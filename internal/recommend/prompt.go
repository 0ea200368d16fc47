package recommend

import (
	"fmt"
	"strings"
	"time"

	"pulsefit/coach-app/internal/profile"
)

const systemPrompt = `You are an expert strength and conditioning coach.
You design training methodologies and weekly plans tailored to a user profile.
Only weigh injuries listed as active; ignore resolved or historical ones.
Respond with a single JSON object containing a "recommendation" block
(methodology, justification, duration_weeks, difficulty_level) and a
"weekly_plan" block with a "days" list, each day naming its exercises.`

// BuildPrompt renders the canonical profile and generation instructions into
// the system/user message pair submitted to the LLM. When forced names a
// methodology the model is asked to plan for exactly that methodology;
// otherwise it picks from the profile's available catalog.
func BuildPrompt(p profile.CanonicalProfile, forced string, now time.Time) (system, user string) {
	var b strings.Builder

	weekday := now.Weekday().String()
	fmt.Fprintf(&b, "Today is %s. The weekly plan must start today, and today must be a training day, never a rest day.\n\n", weekday)

	b.WriteString("User profile:\n")
	writeNum := func(label string, v *float64, unit string) {
		if v != nil {
			fmt.Fprintf(&b, "- %s: %.1f%s\n", label, *v, unit)
		}
	}
	if p.Age != nil {
		fmt.Fprintf(&b, "- Age: %d\n", *p.Age)
	}
	if p.Sex != "" {
		fmt.Fprintf(&b, "- Sex: %s\n", p.Sex)
	}
	writeNum("Height", p.HeightCm, " cm")
	writeNum("Weight", p.WeightKg, " kg")
	writeNum("BMI", p.BMI, "")
	if p.ExperienceLevel != "" {
		fmt.Fprintf(&b, "- Experience level: %s\n", p.ExperienceLevel)
	}
	writeNum("Years training", p.YearsTraining, "")
	fmt.Fprintf(&b, "- Weekly training frequency: %d days\n", p.WeeklyFrequency)
	writeNum("Body fat", p.BodyFatPct, " %")
	writeNum("Muscle mass", p.MuscleMassKg, " kg")
	fmt.Fprintf(&b, "- Active injuries or limitations: %s\n", p.Injuries)
	fmt.Fprintf(&b, "- Allergies: %s\n", p.Allergies)
	fmt.Fprintf(&b, "- Medications: %s\n", p.Medications)
	fmt.Fprintf(&b, "- Supplements: %s\n", p.Supplements)
	fmt.Fprintf(&b, "- Excluded foods: %s\n", p.ExcludedFoods)
	fmt.Fprintf(&b, "- Meals per day: %d\n", p.DailyMeals)
	if p.DietType != "" {
		fmt.Fprintf(&b, "- Diet type: %s\n", p.DietType)
	}
	if p.Goal != "" {
		fmt.Fprintf(&b, "- Goal: %s\n", p.Goal)
	}
	writeNum("Target weight", p.TargetWeightKg, " kg")
	if p.PreferredMethodology != "" {
		fmt.Fprintf(&b, "- Preferred methodology: %s\n", p.PreferredMethodology)
	}
	fmt.Fprintf(&b, "- Home training allowed: %t\n", p.HomeTrainingAllowed)

	b.WriteString("\n")
	if forced != "" {
		fmt.Fprintf(&b, "Produce a full recommendation and weekly plan for the %q methodology.\n", forced)
	} else {
		fmt.Fprintf(&b, "Pick the best methodology for this user from: %s.\n", strings.Join(p.AvailableMethodologies, ", "))
	}
	fmt.Fprintf(&b, "Schedule %d training days per week.\n", p.WeeklyFrequency)

	return systemPrompt, b.String()
}
