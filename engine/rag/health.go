package rag

import (
	"context"
	"time"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthReport describes the pipeline's sub-checks and overall status.
type HealthReport struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
	Errors     map[string]string `json:"errors,omitempty"`
}

const healthProbeTimeout = 10 * time.Second

// Health independently exercises the search and generation paths with
// trivial probes. It never returns an error: every sub-probe failure is
// caught and reflected as a status string.
func (s *Service) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Components: make(map[string]string),
		Errors:     make(map[string]string),
	}

	probe := func(name string, f func(context.Context) error) {
		pctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
		defer cancel()
		if err := f(pctx); err != nil {
			report.Components[name] = StatusUnhealthy
			report.Errors[name] = err.Error()
			return
		}
		report.Components[name] = StatusHealthy
	}

	probe("search", func(ctx context.Context) error {
		_, err := s.search.Search(ctx, "health check probe", 1, 0)
		return err
	})
	probe("generation", func(ctx context.Context) error {
		_, err := s.gen.Generate(ctx, "ping", "health check", "")
		return err
	})

	report.Status = StatusHealthy
	for _, st := range report.Components {
		if st == StatusUnhealthy {
			report.Status = StatusUnhealthy
			break
		}
		if st != StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	return report
}
