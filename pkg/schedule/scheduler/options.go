package scheduler

import "go.uber.org/zap"

// defaultCacheKey is used when the caller never calls WithCacheKey.
const defaultCacheKey = "schedcore:default"

// Options holds the scheduler's construction-time configuration, built by
// applying functional Options over sane defaults (spec.md §6).
type Options struct {
	logger             *zap.Logger
	metrics            *Metrics
	cachingResultPlan  bool
	parallelScheduling bool
	cacheKey           string
}

func defaultOptions() Options {
	return Options{
		logger:            zap.NewNop(),
		cachingResultPlan: true,
		cacheKey:          defaultCacheKey,
	}
}

// Option configures a HeuristicRepairScheduler at construction time.
type Option func(*Options)

// WithLogger sets the structured logger used for snapshot, backstep, and
// escape-strategy events. A nil logger is treated as zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		if logger == nil {
			logger = zap.NewNop()
		}
		o.logger = logger
	}
}

// WithMetrics attaches optional Prometheus instrumentation. Metrics are
// opt-in: the scheduler runs correctly with none attached.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.metrics = m }
}

// WithCachingResultPlan toggles the warm-start cache (default true).
func WithCachingResultPlan(enabled bool) Option {
	return func(o *Options) { o.cachingResultPlan = enabled }
}

// WithParallelScheduling toggles cluster-level parallel scheduling
// (default false).
func WithParallelScheduling(enabled bool) Option {
	return func(o *Options) { o.parallelScheduling = enabled }
}

// WithCacheKey sets the key the warm-start cache stores the previous run's
// plan under, letting one process juggle several independent scheduling
// problems with distinct warm-start histories.
func WithCacheKey(key string) Option {
	return func(o *Options) {
		if key != "" {
			o.cacheKey = key
		}
	}
}
