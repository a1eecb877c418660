// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/careerpulse/internal/app"
	"github.com/okian/careerpulse/internal/domain/model"
)

// BenchmarkDependencies defines the interface for benchmark lookups.
type BenchmarkDependencies interface {
	Benchmark(ctx context.Context, c model.BenchmarkContext) (service.BenchmarkReport, error)
}

// BenchmarkHandler handles benchmark requests.
type BenchmarkHandler struct {
	deps BenchmarkDependencies
}

// NewBenchmarkHandler creates a new benchmark handler.
func NewBenchmarkHandler(deps BenchmarkDependencies) *BenchmarkHandler {
	return &BenchmarkHandler{deps: deps}
}

// HandleGetBenchmark handles GET /benchmarks?industry=&company_size=&level=
// requests. Every parameter is optional; unknown keys resolve to the default.
func (h *BenchmarkHandler) HandleGetBenchmark(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.deps.Benchmark(r.Context(), model.BenchmarkContext{
		Industry:    q.Get("industry"),
		CompanySize: q.Get("company_size"),
		Level:       q.Get("level"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
