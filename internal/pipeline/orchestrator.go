// Package pipeline drives roadmap creation runs: a staged state machine with
// two user checkpoints (interview, review), bounded parallel research,
// per-run event streaming, and a registry with idle-run eviction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/roadmap-agent/internal/agents"
	"github.com/jonathan/roadmap-agent/internal/roadmap"
)

// Store persists finished roadmaps. Implemented by db.DB.
type Store interface {
	SaveRoadmap(ctx context.Context, rm *roadmap.Roadmap) (string, error)
}

// phase tracks what the orchestrator is willing to accept next. It is
// distinct from the run's visible stage: the stage is what clients see, the
// phase is the concurrency gate for resume calls.
type phase int

const (
	phaseNew phase = iota
	phaseAwaitingAnswers
	phaseGenerating
	phaseAwaitingReview
	phaseDone
)

// Orchestrator owns one run end to end. All state mutations happen under mu;
// generation segments run on their own goroutine and re-check the cancel
// flag at every stage boundary.
type Orchestrator struct {
	agents  *agents.Set
	store   Store
	logger  *zap.Logger
	workers int

	stream *stream

	mu           sync.Mutex
	run          *roadmap.Run
	phase        phase
	cancelled    bool
	lastActivity time.Time
	onFinish     func(runID string)
}

// NewOrchestrator creates an orchestrator for a fresh run on the given
// topic. workers bounds concurrent generation calls during fan-out stages.
func NewOrchestrator(topic string, set *agents.Set, store Store, logger *zap.Logger, workers int) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	run := roadmap.NewRun(topic)
	return &Orchestrator{
		agents:       set,
		store:        store,
		logger:       logger.Named("orchestrator").With(zap.String("run_id", run.ID)),
		workers:      workers,
		stream:       newStream(),
		run:          run,
		phase:        phaseNew,
		lastActivity: time.Now(),
	}
}

// RunID returns the run's identifier.
func (o *Orchestrator) RunID() string {
	return o.run.ID
}

// Stage returns the run's current visible stage.
func (o *Orchestrator) Stage() roadmap.Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run.Stage
}

// Questions returns the interview questions once generated.
func (o *Orchestrator) Questions() []roadmap.InterviewQuestion {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run.Questions
}

// SetOnFinish registers a callback invoked once when the run reaches a
// terminal stage. The registry uses it to evict finished runs.
func (o *Orchestrator) SetOnFinish(fn func(runID string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onFinish = fn
}

// Subscribe attaches the single event subscriber, replacing any previous
// one, and reports the stage at attach time.
func (o *Orchestrator) Subscribe() (roadmap.Stage, <-chan Event, func()) {
	o.mu.Lock()
	stage := o.run.Stage
	o.mu.Unlock()
	ch, cancel := o.stream.subscribe()
	return stage, ch, cancel
}

// StartInterview runs the interviewer stage synchronously and parks the run
// at the interview checkpoint. It is called exactly once, from the start
// request.
func (o *Orchestrator) StartInterview(ctx context.Context) ([]roadmap.InterviewQuestion, error) {
	o.mu.Lock()
	if o.phase != phaseNew {
		o.mu.Unlock()
		return nil, ErrNotAwaitingInput
	}
	o.phase = phaseGenerating
	topic := o.run.Topic
	o.mu.Unlock()

	questions, err := o.agents.Interviewer.GenerateQuestions(ctx, topic)
	if err != nil {
		o.fail(err)
		return nil, err
	}

	o.mu.Lock()
	o.run.Questions = questions
	o.run.Stage = roadmap.StageInterviewing
	o.mu.Unlock()
	if !o.park(phaseAwaitingAnswers) {
		return nil, ErrRunCancelled
	}

	o.logger.Info("interview ready", zap.Int("questions", len(questions)))
	return questions, nil
}

// SubmitAnswers resumes a run paused at the interview checkpoint. The answer
// set must match the question set exactly; an incomplete set leaves the run
// paused. On success the generation segment starts on its own goroutine and
// its events flow to whoever subscribes.
func (o *Orchestrator) SubmitAnswers(answers []roadmap.InterviewAnswer) error {
	o.mu.Lock()
	if o.phase != phaseAwaitingAnswers {
		o.mu.Unlock()
		return ErrNotAwaitingInput
	}
	if err := roadmap.MatchAnswers(o.run.Questions, answers); err != nil {
		o.mu.Unlock()
		return err
	}
	o.run.Answers = answers
	o.phase = phaseGenerating
	o.lastActivity = time.Now()
	o.mu.Unlock()

	go o.generate(context.Background())
	return nil
}

// SubmitReview resumes a run paused at the review checkpoint. Selected issue
// ids must come from the validator's report. On success the finishing
// segment (optional fix round, then save) starts on its own goroutine.
func (o *Orchestrator) SubmitReview(decision roadmap.ReviewDecision) error {
	o.mu.Lock()
	if o.phase != phaseAwaitingReview {
		o.mu.Unlock()
		return ErrNotAwaitingInput
	}

	var selected []roadmap.ValidationIssue
	if !decision.AcceptAsIs {
		var unknown []string
		for _, id := range decision.SelectedIssueIDs {
			if issue := o.run.Validation.Issue(id); issue != nil {
				selected = append(selected, *issue)
			} else {
				unknown = append(unknown, id)
			}
		}
		if len(unknown) > 0 {
			o.mu.Unlock()
			return &ErrUnknownIssues{IssueIDs: unknown}
		}
	}

	if decision.ConfirmedTitle != "" {
		o.run.ConfirmedTitle = decision.ConfirmedTitle
	}
	o.phase = phaseGenerating
	o.lastActivity = time.Now()
	o.mu.Unlock()

	go o.finish(context.Background(), selected)
	return nil
}

// Cancel requests cooperative cancellation. A run paused at a checkpoint
// terminates immediately; a generating run terminates at its next stage
// boundary, without aborting the in-flight generation call.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	if o.phase == phaseDone {
		o.mu.Unlock()
		return
	}
	o.cancelled = true
	idle := o.phase == phaseAwaitingAnswers || o.phase == phaseAwaitingReview || o.phase == phaseNew
	o.mu.Unlock()

	o.logger.Info("cancellation requested", zap.Bool("idle", idle))
	if idle {
		o.checkpoint()
	}
}

// park moves the run into an awaiting phase, unless a cancel landed after
// the segment's last boundary check. Cancel only finishes runs it observes
// idle, so the cancelled flag and the phase change must be reconciled under
// one lock; a late cancel terminates the run here instead of parking it.
// Returns false when the run terminated.
func (o *Orchestrator) park(p phase) bool {
	o.mu.Lock()
	if o.cancelled {
		o.mu.Unlock()
		o.checkpoint()
		return false
	}
	o.phase = p
	o.lastActivity = time.Now()
	o.mu.Unlock()
	return true
}

// isCancelled reports the cancel flag without finishing the run.
func (o *Orchestrator) isCancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelled
}

// checkpoint finishes a cancelled run. It returns true when the run is (or
// just became) terminal and the caller must stop.
func (o *Orchestrator) checkpoint() bool {
	o.mu.Lock()
	if o.phase == phaseDone {
		o.mu.Unlock()
		return true
	}
	if !o.cancelled {
		o.mu.Unlock()
		return false
	}
	o.run.Stage = roadmap.StageCancelled
	o.phase = phaseDone
	finish := o.onFinish
	runID := o.run.ID
	o.mu.Unlock()

	o.logger.Info("run cancelled")
	o.stream.publish(Event{Name: EventCancelled, Data: CancelledData{Message: "Roadmap creation was cancelled."}})
	o.stream.close()
	if finish != nil {
		finish(runID)
	}
	return true
}

// fail moves the run to the terminal error stage.
func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	if o.phase == phaseDone {
		o.mu.Unlock()
		return
	}
	o.run.Stage = roadmap.StageError
	o.phase = phaseDone
	finish := o.onFinish
	runID := o.run.ID
	o.mu.Unlock()

	o.logger.Error("run failed", zap.Error(err))
	o.stream.publish(Event{Name: EventError, Data: ErrorData{Message: err.Error()}})
	o.stream.close()
	if finish != nil {
		finish(runID)
	}
}

// transition moves the run to a new visible stage and announces it.
func (o *Orchestrator) transition(stage roadmap.Stage) {
	o.mu.Lock()
	o.run.Stage = stage
	o.lastActivity = time.Now()
	o.mu.Unlock()

	o.logger.Info("stage transition", zap.String("stage", string(stage)))
	o.stream.publish(stageEvent(stage))
}

// generate runs the segment between the two checkpoints: architect, research
// fan-out, resource finding, validation, then parks at review.
func (o *Orchestrator) generate(ctx context.Context) {
	if o.checkpoint() {
		return
	}
	o.transition(roadmap.StageArchitecting)

	o.mu.Lock()
	topic, questions, answers := o.run.Topic, o.run.Questions, o.run.Answers
	o.mu.Unlock()

	outline, err := o.agents.Architect.DesignOutline(ctx, topic, questions, answers)
	if err != nil {
		o.fail(err)
		return
	}

	o.mu.Lock()
	o.run.Outline = outline
	o.run.SuggestedTitle = outline.SuggestedTitle
	o.mu.Unlock()
	o.stream.publish(Event{Name: EventTitleSuggestion, Data: TitleSuggestionData{SuggestedTitle: outline.SuggestedTitle}})

	if o.checkpoint() {
		return
	}
	o.transition(roadmap.StageResearching)
	sessions, err := o.researchSessions(ctx, outline.Sessions, nil)
	if err != nil {
		if errors.Is(err, ErrRunCancelled) {
			o.checkpoint()
			return
		}
		o.fail(err)
		return
	}
	o.mu.Lock()
	o.run.Sessions = sessions
	o.mu.Unlock()

	if o.checkpoint() {
		return
	}
	o.transition(roadmap.StageFindingResources)
	o.findResources(ctx, sessions)

	if o.checkpoint() {
		return
	}
	o.validateAndPark(ctx)
}

// validateAndPark runs the validator and parks the run at the review
// checkpoint. Returns false when the run terminated instead.
func (o *Orchestrator) validateAndPark(ctx context.Context) bool {
	o.transition(roadmap.StageValidating)

	o.mu.Lock()
	topic, outline, sessions := o.run.Topic, o.run.Outline, o.run.Sessions
	o.mu.Unlock()

	result, err := o.agents.Validator.Review(ctx, topic, outline, sessions)
	if err != nil {
		o.fail(err)
		return false
	}

	o.mu.Lock()
	o.run.Validation = result
	o.mu.Unlock()

	if o.checkpoint() {
		return false
	}
	o.transition(roadmap.StageUserReview)
	o.stream.publish(Event{Name: EventValidationResult, Data: ValidationResultData{
		Score:   result.Score,
		Summary: result.Summary,
		Passed:  result.Passed(),
		Issues:  result.Issues,
	}})

	return o.park(phaseAwaitingReview)
}

// finish runs the segment after the review checkpoint: at most one fix round
// over the selected issues, then save. A completed fix round saves
// regardless of the re-validation outcome.
func (o *Orchestrator) finish(ctx context.Context, selected []roadmap.ValidationIssue) {
	o.mu.Lock()
	firstRound := o.run.FixRounds == 0
	o.mu.Unlock()

	if len(selected) > 0 && firstRound {
		o.mu.Lock()
		o.run.FixRounds++
		o.mu.Unlock()
		if !o.remediate(ctx, selected) {
			return
		}
	}

	if o.checkpoint() {
		return
	}
	o.transition(roadmap.StageSaving)

	o.mu.Lock()
	artifact := o.run.BuildRoadmap()
	o.mu.Unlock()

	roadmapID, err := o.store.SaveRoadmap(ctx, artifact)
	if err != nil {
		o.fail(fmt.Errorf("failed to save roadmap: %w", err))
		return
	}

	o.mu.Lock()
	o.run.Stage = roadmap.StageComplete
	o.phase = phaseDone
	finishFn := o.onFinish
	runID := o.run.ID
	o.mu.Unlock()

	o.logger.Info("run complete", zap.String("roadmap_id", roadmapID))
	o.stream.publish(Event{Name: EventComplete, Data: CompleteData{
		RoadmapID: roadmapID,
		Message:   "Your roadmap is ready.",
	}})
	o.stream.close()
	if finishFn != nil {
		finishFn(runID)
	}
}

// remediate re-researches only the sessions implicated by the selected
// issues, re-finds their resources, and re-validates once. Returns false
// when the run terminated.
func (o *Orchestrator) remediate(ctx context.Context, selected []roadmap.ValidationIssue) bool {
	o.mu.Lock()
	outline := o.run.Outline
	o.mu.Unlock()

	issuesBySession := make(map[string][]roadmap.ValidationIssue)
	var targets []roadmap.SessionOutlineItem
	for _, issue := range selected {
		for _, id := range issue.AffectedSessionIDs {
			if len(issuesBySession[id]) == 0 {
				if item := outline.Item(id); item != nil {
					targets = append(targets, *item)
				}
			}
			issuesBySession[id] = append(issuesBySession[id], issue)
		}
	}

	o.logger.Info("remediation round",
		zap.Int("selected_issues", len(selected)),
		zap.Int("target_sessions", len(targets)))

	if len(targets) > 0 {
		if o.checkpoint() {
			return false
		}
		o.transition(roadmap.StageResearching)
		redone, err := o.researchSessions(ctx, targets, issuesBySession)
		if err != nil {
			if errors.Is(err, ErrRunCancelled) {
				o.checkpoint()
				return false
			}
			o.fail(err)
			return false
		}

		o.mu.Lock()
		byID := make(map[string]roadmap.ResearchedSession, len(redone))
		for _, s := range redone {
			byID[s.OutlineID] = s
		}
		for i := range o.run.Sessions {
			if s, ok := byID[o.run.Sessions[i].OutlineID]; ok {
				o.run.Sessions[i] = s
			}
		}
		o.mu.Unlock()

		if o.checkpoint() {
			return false
		}
		// Refresh resources for the rewritten sessions without announcing a
		// stage: the fix round repeats only researching and validating on the
		// wire.
		o.findResources(ctx, redone)
	}

	if o.checkpoint() {
		return false
	}
	return o.revalidate(ctx)
}

// revalidate runs the validator once more after remediation. Unlike the
// first pass it does not park the run or publish a report; the review
// checkpoint's validation_result event is emitted exactly once per run, and
// the save proceeds regardless of the re-validation outcome.
func (o *Orchestrator) revalidate(ctx context.Context) bool {
	o.transition(roadmap.StageValidating)

	o.mu.Lock()
	topic, outline, sessions := o.run.Topic, o.run.Outline, o.run.Sessions
	o.mu.Unlock()

	result, err := o.agents.Validator.Review(ctx, topic, outline, sessions)
	if err != nil {
		o.fail(err)
		return false
	}

	o.mu.Lock()
	o.run.Validation = result
	o.mu.Unlock()
	return true
}

// researchSessions fans research calls out over the worker pool. Progress
// events are emitted strictly in session order: out-of-order completions are
// buffered and flushed once every earlier session has finished. Any
// permanent stage failure fails the whole batch.
func (o *Orchestrator) researchSessions(ctx context.Context, items []roadmap.SessionOutlineItem, issuesBySession map[string][]roadmap.ValidationIssue) ([]roadmap.ResearchedSession, error) {
	o.mu.Lock()
	topic, outline := o.run.Topic, o.run.Outline
	o.mu.Unlock()

	results := make([]*roadmap.ResearchedSession, len(items))
	done := make([]bool, len(items))
	next := 0
	var progressMu sync.Mutex

	sem := semaphore.NewWeighted(int64(o.workers))
	g, gctx := errgroup.WithContext(ctx)

	for i, item := range items {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			// No new generation call starts after a cancel; the flag is the
			// boundary, an in-flight call is left to finish.
			if o.isCancelled() {
				return ErrRunCancelled
			}

			var issues []roadmap.ValidationIssue
			if issuesBySession != nil {
				issues = issuesBySession[item.ID]
			}
			session, err := o.agents.Researcher.ResearchSession(gctx, topic, outline, item, issues)
			if err != nil {
				return err
			}

			progressMu.Lock()
			results[i] = session
			done[i] = true
			for next < len(items) && done[next] {
				o.stream.publish(Event{Name: EventSessionProgress, Data: SessionProgressData{
					Completed: next + 1,
					Total:     len(items),
					Title:     items[next].Title,
				}})
				next++
			}
			progressMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sessions := make([]roadmap.ResearchedSession, len(results))
	for i, s := range results {
		sessions[i] = *s
	}
	return sessions, nil
}

// findResources fans resource lookup out over the worker pool and attaches
// results to the sessions in the run. A failed lookup degrades to an empty
// list and never fails the run.
func (o *Orchestrator) findResources(ctx context.Context, sessions []roadmap.ResearchedSession) {
	o.mu.Lock()
	topic := o.run.Topic
	o.mu.Unlock()

	videos := make([][]roadmap.VideoResource, len(sessions))

	sem := semaphore.NewWeighted(int64(o.workers))
	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			if o.isCancelled() {
				return
			}

			found, err := o.agents.ResourceFinder.FindResources(ctx, topic, &sessions[i])
			if err != nil {
				o.logger.Warn("resource lookup degraded to empty",
					zap.String("session", sessions[i].OutlineID),
					zap.Error(err))
				return
			}
			videos[i] = found
		}()
	}
	wg.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()
	byID := make(map[string][]roadmap.VideoResource, len(sessions))
	for i := range sessions {
		byID[sessions[i].OutlineID] = videos[i]
	}
	for i := range o.run.Sessions {
		if v, ok := byID[o.run.Sessions[i].OutlineID]; ok {
			o.run.Sessions[i].Videos = v
		}
	}
}

// expireIfIdle terminates a run that has been parked at a checkpoint longer
// than ttl. Returns true when the run was evicted.
func (o *Orchestrator) expireIfIdle(now time.Time, ttl time.Duration) bool {
	o.mu.Lock()
	awaiting := o.phase == phaseAwaitingAnswers || o.phase == phaseAwaitingReview
	idleFor := now.Sub(o.lastActivity)
	if !awaiting || idleFor <= ttl {
		o.mu.Unlock()
		return false
	}
	o.run.Stage = roadmap.StageError
	o.phase = phaseDone
	finish := o.onFinish
	runID := o.run.ID
	o.mu.Unlock()

	o.logger.Info("idle run evicted", zap.Duration("idle_for", idleFor))
	o.stream.publish(Event{Name: EventError, Data: ErrorData{Message: "Run timed out waiting for input."}})
	o.stream.close()
	if finish != nil {
		finish(runID)
	}
	return true
}
