package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a provider or the cache is failing; answers may still fail.
	Degraded Status = "degraded"
	// Unhealthy indicates no catalog is being served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog    Checker
	embedding  Checker
	generation Checker
	cache      CachePinger
}

// New creates a Service. embedding, generation and cache can be nil.
func New(catalog Checker, embedding, generation Checker, cache CachePinger) *Service {
	return &Service{catalog: catalog, embedding: embedding, generation: generation, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 4)

	checks["catalog"] = result(s.catalog.HealthCheck(ctx))
	if s.embedding != nil {
		checks["embedding"] = result(s.embedding.HealthCheck(ctx))
	}
	if s.generation != nil {
		checks["generation"] = result(s.generation.HealthCheck(ctx))
	}
	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks["catalog"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
