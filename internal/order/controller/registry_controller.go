package controller

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"visaflow/internal/evaluation"
)

type EvaluatorRegistry interface {
	Stats() evaluation.RegistryStats
	HealthCheck(ctx context.Context) evaluation.HealthReport
	ResolveAll(ctx context.Context, opts evaluation.ResolveOptions) *evaluation.CatalogResolution
	ClearCache()
}

type catalogEntry struct {
	VisaCategory string `json:"visaCategory"`
	Evaluator    string `json:"evaluator,omitempty"`
	UsedFallback bool   `json:"usedFallback"`
	Error        string `json:"error,omitempty"`
}

type catalogResponse struct {
	TraceID   string         `json:"traceId"`
	Resolved  []catalogEntry `json:"resolved"`
	Failed    []catalogEntry `json:"failed"`
	Timestamp time.Time      `json:"timestamp"`
}

// RegistryController exposes the evaluator registry's administrative
// operations.
type RegistryController struct {
	registry EvaluatorRegistry
	logger   *zap.Logger
}

func NewRegistryController(registry EvaluatorRegistry, logger *zap.Logger) *RegistryController {
	return &RegistryController{registry: registry, logger: logger}
}

func (c *RegistryController) Register(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Get("/stats", c.Stats)
		r.Get("/health", c.Health)
		r.Get("/catalog", c.Catalog)
		r.Post("/cache/clear", c.ClearCache)
	})
}

func (c *RegistryController) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.logger, http.StatusOK, c.registry.Stats())
}

// Health answers 503 while the registry is DEGRADED. Resolution keeps
// working through the generic evaluator meanwhile.
func (c *RegistryController) Health(w http.ResponseWriter, r *http.Request) {
	report := c.registry.HealthCheck(r.Context())
	status := http.StatusOK
	if report.Status != evaluation.HealthHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, c.logger, status, report)
}

func (c *RegistryController) Catalog(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	opts := evaluation.ResolveOptions{ForceNew: r.URL.Query().Get("forceNew") == "true"}
	result := c.registry.ResolveAll(r.Context(), opts)

	response := catalogResponse{
		TraceID:   traceID,
		Resolved:  make([]catalogEntry, 0, len(result.Resolved)),
		Failed:    make([]catalogEntry, 0, len(result.Failed)),
		Timestamp: time.Now().UTC(),
	}
	for category, res := range result.Resolved {
		response.Resolved = append(response.Resolved, catalogEntry{
			VisaCategory: string(category),
			Evaluator:    res.Evaluator.Name(),
			UsedFallback: res.UsedFallback,
		})
	}
	for category, err := range result.Failed {
		response.Failed = append(response.Failed, catalogEntry{VisaCategory: string(category), Error: err.Error()})
	}
	sort.Slice(response.Resolved, func(i, j int) bool { return response.Resolved[i].VisaCategory < response.Resolved[j].VisaCategory })
	sort.Slice(response.Failed, func(i, j int) bool { return response.Failed[i].VisaCategory < response.Failed[j].VisaCategory })

	if len(response.Failed) > 0 {
		c.logger.Warn("catalog resolution incomplete", zap.String("traceId", traceID), zap.Int("failed", len(response.Failed)))
	}
	writeJSON(w, c.logger, http.StatusOK, response)
}

func (c *RegistryController) ClearCache(w http.ResponseWriter, r *http.Request) {
	c.registry.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}
