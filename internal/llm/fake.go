package llm

import (
	"context"
	"fmt"
	"sync"
)

// FakeStep is one scripted reply for the fake client.
type FakeStep struct {
	Response string
	Err      error
}

// Fake is a scripted Client for tests. Each generation call consumes the
// next step in order; running past the script is an error. Prompts are
// recorded for assertions.
type Fake struct {
	mu      sync.Mutex
	steps   []FakeStep
	next    int
	Prompts []string
}

// NewFake creates a fake client that replays the given steps.
func NewFake(steps ...FakeStep) *Fake {
	return &Fake{steps: steps}
}

// Reply appends a successful scripted response.
func (f *Fake) Reply(response string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, FakeStep{Response: response})
	return f
}

// Fail appends a scripted error.
func (f *Fake) Fail(err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, FakeStep{Err: err})
	return f
}

func (f *Fake) take(prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	if f.next >= len(f.steps) {
		return "", fmt.Errorf("fake llm: no scripted response for call %d", f.next+1)
	}
	step := f.steps[f.next]
	f.next++
	return step.Response, step.Err
}

// Calls returns how many generation calls have been made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

// GenerateContent returns the next scripted step.
func (f *Fake) GenerateContent(_ context.Context, prompt string, _ ModelTier) (string, error) {
	return f.take(prompt)
}

// GenerateJSON returns the next scripted step.
func (f *Fake) GenerateJSON(_ context.Context, prompt string, _ ModelTier) (string, error) {
	return f.take(prompt)
}

// GetModel returns a placeholder model name.
func (f *Fake) GetModel(tier ModelTier) string {
	return "fake-" + string(tier)
}

// Close is a no-op.
func (f *Fake) Close() error { return nil }
