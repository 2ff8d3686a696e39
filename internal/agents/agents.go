// Package agents implements the five generation stages of the roadmap
// pipeline: interviewer, architect, researcher, resource finder and
// validator. Every stage call goes through the same retry-and-validate
// wrapper: the raw response must pass its stage's JSON Schema before it is
// decoded, and a rejected response is retried with a prompt naming the
// concrete violation.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/roadmap-agent/internal/llm"
	"github.com/jonathan/roadmap-agent/internal/schemas"
)

// Options tunes stage call behavior.
type Options struct {
	// MaxRetries is the number of extra attempts after the first failed call.
	MaxRetries int
	// CallTimeout bounds each individual generation call. Zero disables the
	// per-call deadline.
	CallTimeout time.Duration
}

// DefaultOptions matches the service defaults: two extra attempts, two
// minutes per call.
func DefaultOptions() Options {
	return Options{MaxRetries: 2, CallTimeout: 2 * time.Minute}
}

// Set bundles the five stage agents sharing one LLM client.
type Set struct {
	Interviewer    *Interviewer
	Architect      *Architect
	Researcher     *Researcher
	ResourceFinder *ResourceFinder
	Validator      *Validator
}

// New builds the agent set. The prober may be nil, in which case resource
// links are kept unverified.
func New(client llm.Client, prober LinkProber, logger *zap.Logger, opts Options) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &caller{
		client:     client,
		logger:     logger.Named("agents"),
		maxRetries: opts.MaxRetries,
		timeout:    opts.CallTimeout,
	}
	return &Set{
		Interviewer:    &Interviewer{caller: c},
		Architect:      &Architect{caller: c},
		Researcher:     &Researcher{caller: c},
		ResourceFinder: &ResourceFinder{caller: c, prober: prober},
		Validator:      &Validator{caller: c},
	}
}

// StageError reports that a generation stage exhausted its attempts.
type StageError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed after %d attempts: %v", e.Stage, e.Attempts, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// caller is the shared call-validate-retry plumbing behind every stage.
type caller struct {
	client     llm.Client
	logger     *zap.Logger
	maxRetries int
	timeout    time.Duration
}

// generateValidated runs one stage call: generate JSON, validate it against
// the stage schema, decode into out. Transport errors, schema violations and
// decode failures all retry with a refined prompt up to maxRetries extra
// attempts; exhaustion returns a *StageError.
func (c *caller) generateValidated(ctx context.Context, stage, prompt string, tier llm.ModelTier, schema string, out any) error {
	attempts := c.maxRetries + 1
	current := prompt
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := c.generateOnce(ctx, current, tier)
		if err == nil {
			err = schemas.ValidateJSONString(schema, raw)
			if err == nil {
				if uerr := json.Unmarshal([]byte(raw), out); uerr != nil {
					err = fmt.Errorf("failed to decode response: %w", uerr)
				} else {
					if attempt > 1 {
						c.logger.Info("stage call recovered",
							zap.String("stage", stage),
							zap.Int("attempt", attempt))
					}
					return nil
				}
			}
		}

		lastErr = err
		c.logger.Warn("stage call attempt failed",
			zap.String("stage", stage),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if ctx.Err() != nil {
			break
		}
		current = refinePrompt(prompt, err)
	}

	return &StageError{Stage: stage, Attempts: attempts, Err: lastErr}
}

// generateOnce issues a single generation call under the per-call deadline.
func (c *caller) generateOnce(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.client.GenerateJSON(ctx, prompt, tier)
}

// refinePrompt appends the concrete rejection reason to the original prompt
// so the retry addresses the actual violation instead of guessing.
func refinePrompt(prompt string, cause error) string {
	return prompt +
		"\n\nYour previous response was rejected for the following reason:\n" +
		cause.Error() +
		"\nReturn only a JSON object that satisfies every constraint above."
}
