package recommend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"pulsefit/coach-app/internal/llm"
	"pulsefit/coach-app/internal/profile"
)

// ErrGenerationFailed wraps transient upstream failures. The engine never
// retries; callers may retry at a higher level.
var ErrGenerationFailed = errors.New("recommendation generation failed")

// Outcome bundles the decoded recommendation with its weekly plan.
// Fallback is true when the provider's completion was unusable and the
// recommendation consists entirely of defaults.
type Outcome struct {
	Recommendation Recommendation
	WeeklyPlan     map[string]any
	Fallback       bool
	RequestID      string
}

// Engine asks the external LLM for a methodology recommendation and decodes
// its response defensively. The client is injected; an unconfigured client
// surfaces llm.ErrUnavailable before any call is attempted.
type Engine struct {
	client llm.Client
}

func NewEngine(client llm.Client) *Engine {
	return &Engine{client: client}
}

// Recommend generates a recommendation for the given canonical profile.
// When forced names a methodology the LLM is still asked for a full plan,
// but the methodology choice is the caller's. Malformed LLM output never
// surfaces as an error; only an unavailable client or a failed call does.
func (e *Engine) Recommend(ctx context.Context, p profile.CanonicalProfile, forced string) (*Outcome, error) {
	if !e.client.Available() {
		return nil, llm.ErrUnavailable
	}

	requestID := uuid.NewString()
	system, user := BuildPrompt(p, forced, time.Now())

	text, err := e.client.Complete(ctx, system, user)
	if err != nil {
		if errors.Is(err, llm.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	rec, plan, fallback := DecodeResponse(text)
	if forced != "" {
		rec.Methodology = forced
	}
	if fallback {
		log.Printf("WARN: recommendation %s decoded with defaults, completion was not parseable JSON", requestID)
	}

	return &Outcome{
		Recommendation: rec,
		WeeklyPlan:     plan,
		Fallback:       fallback,
		RequestID:      requestID,
	}, nil
}
