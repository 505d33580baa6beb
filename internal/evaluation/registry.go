package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"visaflow/internal/domain"
	apperrors "visaflow/internal/errors"
	"visaflow/internal/infrastructure/metrics"
)

// Constructor builds a specialized evaluator for the category in meta.
type Constructor func(meta CategoryMeta) (Evaluator, error)

// DefaultConstructors returns the specialized evaluators shipped with the
// engine. Categories missing here are served by GenericEvaluator.
func DefaultConstructors() map[domain.VisaCategory]Constructor {
	return map[domain.VisaCategory]Constructor{
		domain.VisaE1: NewProfessorEvaluator,
		domain.VisaD8: NewInvestorEvaluator,
	}
}

type HealthStatus string

const (
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthDegraded HealthStatus = "DEGRADED"
)

type RegistryConfig struct {
	CacheEnabled      bool
	Concurrency       int
	CanonicalCategory domain.VisaCategory
}

type ResolveOptions struct {
	Kind     domain.ApplicationKind
	Mode     Mode
	ForceNew bool
}

type Resolution struct {
	Evaluator    Evaluator
	Category     domain.VisaCategory
	UsedFallback bool
	CacheHit     bool
}

type RegistryStats struct {
	TotalResolutions int64        `json:"totalResolutions"`
	TotalCreated     int64        `json:"totalCreated"`
	CacheHits        int64        `json:"cacheHits"`
	CacheHitRate     float64      `json:"cacheHitRate"`
	Specialized      int64        `json:"specialized"`
	Fallbacks        int64        `json:"fallbacks"`
	CachedEvaluators int          `json:"cachedEvaluators"`
	Status           HealthStatus `json:"status"`
}

type HealthReport struct {
	Status       HealthStatus        `json:"status"`
	Category     domain.VisaCategory `json:"category"`
	Evaluator    string              `json:"evaluator,omitempty"`
	UsedFallback bool                `json:"usedFallback"`
	Error        string              `json:"error,omitempty"`
	CheckedAt    time.Time           `json:"checkedAt"`
	Stats        RegistryStats       `json:"stats"`
}

// CatalogResolution partitions a ResolveAll run. One category failing never
// aborts the others.
type CatalogResolution struct {
	Resolved map[domain.VisaCategory]*Resolution
	Failed   map[domain.VisaCategory]error
}

type cacheEntry struct {
	evaluator    Evaluator
	usedFallback bool
}

// Registry resolves visa categories to evaluators. Resolution never fails for
// a supported category: when the specialized evaluator is missing or cannot be
// built, the generic one is returned with UsedFallback set.
type Registry struct {
	constructors map[domain.VisaCategory]Constructor
	cfg          RegistryConfig

	mu    sync.RWMutex
	cache map[string]cacheEntry

	resolutions *atomic.Int64
	created     *atomic.Int64
	cacheHits   *atomic.Int64
	specialized *atomic.Int64
	fallbacks   *atomic.Int64
	degraded    *atomic.Bool

	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewRegistry(constructors map[domain.VisaCategory]Constructor, cfg RegistryConfig, m *metrics.Metrics, logger *zap.Logger) *Registry {
	if constructors == nil {
		constructors = DefaultConstructors()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.CanonicalCategory == "" {
		cfg.CanonicalCategory = domain.VisaE1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		constructors: constructors,
		cfg:          cfg,
		cache:        make(map[string]cacheEntry),
		resolutions:  atomic.NewInt64(0),
		created:      atomic.NewInt64(0),
		cacheHits:    atomic.NewInt64(0),
		specialized:  atomic.NewInt64(0),
		fallbacks:    atomic.NewInt64(0),
		degraded:     atomic.NewBool(false),
		metrics:      m,
		logger:       logger,
	}
}

func cacheKey(c domain.VisaCategory, opts ResolveOptions) string {
	return fmt.Sprintf("%s|%s|%s", c, opts.Kind, opts.Mode)
}

// Resolve returns the evaluator for code. Only an unsupported category is an
// error.
func (r *Registry) Resolve(code string, opts ResolveOptions) (*Resolution, error) {
	category, err := domain.ParseVisaCategory(code)
	if err != nil {
		return nil, err
	}
	meta, ok := LookupCategory(category)
	if !ok {
		return nil, apperrors.NewUnsupportedCategoryError(code)
	}
	if opts.Kind == "" {
		opts.Kind = domain.ApplicationNew
	}
	if opts.Mode == "" {
		opts.Mode = ModeStandard
	}

	r.resolutions.Inc()
	key := cacheKey(category, opts)

	if r.cfg.CacheEnabled && !opts.ForceNew {
		r.mu.RLock()
		entry, hit := r.cache[key]
		r.mu.RUnlock()
		if hit {
			r.cacheHits.Inc()
			r.metrics.IncrementResolution(string(category), "cache_hit")
			return &Resolution{Evaluator: entry.evaluator, Category: category, UsedFallback: entry.usedFallback, CacheHit: true}, nil
		}
	}

	entry := r.construct(meta)
	r.created.Inc()
	if entry.usedFallback {
		r.fallbacks.Inc()
		r.metrics.IncrementResolution(string(category), "fallback")
	} else {
		r.specialized.Inc()
		r.metrics.IncrementResolution(string(category), "specialized")
	}

	if r.cfg.CacheEnabled {
		r.mu.Lock()
		if existing, raced := r.cache[key]; raced && !opts.ForceNew {
			// another caller populated the slot first; keep one instance per key
			entry = existing
		} else {
			r.cache[key] = entry
		}
		r.mu.Unlock()
	}

	return &Resolution{Evaluator: entry.evaluator, Category: category, UsedFallback: entry.usedFallback}, nil
}

func (r *Registry) construct(meta CategoryMeta) cacheEntry {
	if meta.Specialized {
		ctor, ok := r.constructors[meta.Category]
		if !ok {
			r.logger.Warn("No specialized evaluator registered, using generic",
				zap.String("category", string(meta.Category)),
			)
		} else {
			ev, err := safeConstruct(ctor, meta)
			if err == nil {
				return cacheEntry{evaluator: ev}
			}
			r.logger.Warn("Specialized evaluator construction failed, using generic",
				zap.String("category", string(meta.Category)),
				zap.Error(err),
			)
		}
	}
	return cacheEntry{evaluator: NewGenericEvaluator(meta), usedFallback: true}
}

func safeConstruct(ctor Constructor, meta CategoryMeta) (ev Evaluator, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ev, err = nil, fmt.Errorf("constructor panicked: %v", rec)
		}
	}()
	ev, err = ctor(meta)
	if err == nil && ev == nil {
		err = fmt.Errorf("constructor returned no evaluator")
	}
	return ev, err
}

// ResolveAll resolves every supported category with bounded concurrency.
func (r *Registry) ResolveAll(ctx context.Context, opts ResolveOptions) *CatalogResolution {
	out := &CatalogResolution{
		Resolved: make(map[domain.VisaCategory]*Resolution),
		Failed:   make(map[domain.VisaCategory]error),
	}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for _, category := range domain.SupportedCategories() {
		g.Go(func() error {
			var res *Resolution
			err := ctx.Err()
			if err == nil {
				res, err = r.Resolve(string(category), opts)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failed[category] = err
				return nil
			}
			out.Resolved[category] = res
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// HealthCheck force-builds the canonical category's evaluator and runs it
// against a probe applicant. Any failure marks the registry degraded.
func (r *Registry) HealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{Category: r.cfg.CanonicalCategory, CheckedAt: time.Now().UTC()}

	err := ctx.Err()
	var res *Resolution
	if err == nil {
		res, err = r.Resolve(string(r.cfg.CanonicalCategory), ResolveOptions{ForceNew: true})
	}
	if err == nil {
		report.Evaluator = res.Evaluator.Name()
		report.UsedFallback = res.UsedFallback
		err = probe(res.Evaluator)
	}

	if err != nil {
		report.Status = HealthDegraded
		report.Error = err.Error()
		r.logger.Error("Evaluator registry health check failed",
			zap.String("category", string(r.cfg.CanonicalCategory)),
			zap.Error(err),
		)
	} else {
		report.Status = HealthHealthy
	}
	r.degraded.Store(report.Status == HealthDegraded)
	r.metrics.SetRegistryDegraded(report.Status == HealthDegraded)
	report.Stats = r.Stats()
	return report
}

var probeApplicant = ApplicantData{
	"fullName":           "Health Probe",
	"nationality":        "US",
	"education":          "DOCTORATE",
	"experienceYears":    5,
	"institutionType":    "UNIVERSITY",
	"investmentAmount":   minimumInvestment,
	"businessRegistered": true,
}

func probe(ev Evaluator) (err error) {
	if ev == nil {
		return fmt.Errorf("no evaluator resolved")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("evaluator %s panicked: %v", ev.Name(), rec)
		}
	}()
	out, err := ev.Evaluate(probeApplicant, EvaluateOptions{Kind: domain.ApplicationNew, Mode: ModeStandard})
	if err != nil {
		return err
	}
	if out == nil {
		return fmt.Errorf("evaluator %s returned no outcome", ev.Name())
	}
	return nil
}

func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	cached := len(r.cache)
	r.mu.RUnlock()

	stats := RegistryStats{
		TotalResolutions: r.resolutions.Load(),
		TotalCreated:     r.created.Load(),
		CacheHits:        r.cacheHits.Load(),
		Specialized:      r.specialized.Load(),
		Fallbacks:        r.fallbacks.Load(),
		CachedEvaluators: cached,
		Status:           HealthHealthy,
	}
	if stats.TotalResolutions > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(stats.TotalResolutions)
	}
	if r.degraded.Load() {
		stats.Status = HealthDegraded
	}
	return stats
}

func (r *Registry) ClearCache() {
	r.mu.Lock()
	n := len(r.cache)
	r.cache = make(map[string]cacheEntry)
	r.mu.Unlock()
	r.logger.Info("Evaluator cache cleared", zap.Int("evicted", n))
}
