package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/roadmap-agent/internal/agents"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
)

// Service is the boundary the HTTP layer talks to: it creates runs, routes
// resume calls to the right orchestrator, and hands out event subscriptions.
type Service struct {
	agents   *agents.Set
	store    Store
	registry *Registry
	logger   *zap.Logger
	workers  int
}

// NewService wires the pipeline service. workers bounds concurrent
// generation calls per run during fan-out stages.
func NewService(set *agents.Set, store Store, registry *Registry, logger *zap.Logger, workers int) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		agents:   set,
		store:    store,
		registry: registry,
		logger:   logger,
		workers:  workers,
	}
}

// StartRun creates a run for the topic, generates its interview questions,
// and parks it at the interview checkpoint.
func (s *Service) StartRun(ctx context.Context, topic string) (string, []roadmap.InterviewQuestion, error) {
	o := NewOrchestrator(topic, s.agents, s.store, s.logger, s.workers)
	s.registry.Add(o)

	s.logger.Info("run started", zap.String("run_id", o.RunID()), zap.String("topic", topic))

	questions, err := o.StartInterview(ctx)
	if err != nil {
		// StartInterview already moved the run to its terminal stage, error
		// or cancelled, and evicted it.
		return "", nil, err
	}
	return o.RunID(), questions, nil
}

// SubmitAnswers resumes the interview checkpoint and returns the event
// subscription for the generation segment. The subscription is attached
// before generation starts so no events are missed.
func (s *Service) SubmitAnswers(runID string, answers []roadmap.InterviewAnswer) (<-chan Event, func(), error) {
	o, err := s.registry.Get(runID)
	if err != nil {
		return nil, nil, err
	}

	_, ch, cancel := o.Subscribe()
	if err := o.SubmitAnswers(answers); err != nil {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

// SubmitReview resumes the review checkpoint and returns the event
// subscription for the finishing segment.
func (s *Service) SubmitReview(runID string, decision roadmap.ReviewDecision) (<-chan Event, func(), error) {
	o, err := s.registry.Get(runID)
	if err != nil {
		return nil, nil, err
	}

	_, ch, cancel := o.Subscribe()
	if err := o.SubmitReview(decision); err != nil {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

// Cancel requests cooperative cancellation of a run.
func (s *Service) Cancel(runID string) error {
	o, err := s.registry.Get(runID)
	if err != nil {
		return err
	}
	o.Cancel()
	return nil
}

// Attach reconnects a client to a live run's stream, replacing any previous
// subscriber, and reports the stage at attach time.
func (s *Service) Attach(runID string) (roadmap.Stage, <-chan Event, func(), error) {
	o, err := s.registry.Get(runID)
	if err != nil {
		return "", nil, nil, err
	}
	stage, ch, cancel := o.Subscribe()
	return stage, ch, cancel, nil
}
