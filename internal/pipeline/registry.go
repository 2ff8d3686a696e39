package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultRunTTL is how long a run may sit at a checkpoint before the
	// sweeper evicts it.
	DefaultRunTTL = 30 * time.Minute
	sweepInterval = time.Minute
)

// Registry tracks live runs by id. It is injected into the service, never a
// package global. A background sweeper evicts runs idle at a checkpoint
// longer than the TTL.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*Orchestrator

	ttl    time.Duration
	logger *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a registry and starts its sweeper. Close releases it.
func NewRegistry(ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		runs:   make(map[string]*Orchestrator),
		ttl:    ttl,
		logger: logger.Named("registry"),
		stop:   make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// Add registers a run and wires its terminal-stage eviction.
func (r *Registry) Add(o *Orchestrator) {
	o.SetOnFinish(r.Remove)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[o.RunID()] = o
}

// Get returns the run with the given id.
func (r *Registry) Get(runID string) (*Orchestrator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return o, nil
}

// Remove drops a run from the registry. Unknown ids are a no-op.
func (r *Registry) Remove(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, runID)
}

// Len reports how many runs are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

// Close stops the sweeper. Live runs are left untouched.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Registry) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// Sweep evicts runs idle past the TTL. Exported so tests can drive it with a
// synthetic clock instead of waiting out the ticker.
func (r *Registry) Sweep(now time.Time) {
	r.mu.Lock()
	candidates := make([]*Orchestrator, 0, len(r.runs))
	for _, o := range r.runs {
		candidates = append(candidates, o)
	}
	r.mu.Unlock()

	// expireIfIdle triggers the run's OnFinish, which re-enters Remove, so
	// the registry lock must not be held here.
	for _, o := range candidates {
		if o.expireIfIdle(now, r.ttl) {
			r.logger.Info("evicted idle run", zap.String("run_id", o.RunID()))
		}
	}
}
