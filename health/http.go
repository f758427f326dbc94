package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// Overall summarises a result set.
type Overall string

const (
	OverallHealthy   Overall = "healthy"
	OverallDegraded  Overall = "degraded"
	OverallUnhealthy Overall = "unhealthy"
)

// OverallStatus computes the overall status of a result set.
// Returns unhealthy if a CRITICAL or HIGH check failed or errored.
// Returns degraded if any other check did not pass or was skipped.
func OverallStatus(results []Result) Overall {
	status := OverallHealthy
	for _, r := range results {
		switch {
		case r.Status.Failed() && r.Severity.Rank() <= SeverityHigh.Rank():
			return OverallUnhealthy
		case r.Status != StatusPass:
			status = OverallDegraded
		}
	}
	return status
}

// LivenessHandler returns an HTTP handler for liveness probes.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler that runs checks in quick mode.
func ReadinessHandler(engine *Engine, checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := engine.RunChecks(r.Context(), checks, RunOptions{Mode: ModeQuick})

		w.Header().Set("Content-Type", "text/plain")

		switch OverallStatus(results) {
		case OverallHealthy:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		case OverallDegraded:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNHEALTHY"))
		}
	}
}

// Report is the JSON body of the detailed health endpoint.
type Report struct {
	Status    Overall  `json:"status"`
	Mode      Mode     `json:"mode"`
	Timestamp string   `json:"timestamp"`
	Results   []Result `json:"results"`
	Stats     Stats    `json:"stats"`
}

// DetailedHandler returns an HTTP handler that runs checks and reports every
// result. The mode is taken from the "mode" query parameter (default quick).
func DetailedHandler(engine *Engine, checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := ModeQuick
		if r.URL.Query().Get("mode") == string(ModeFull) {
			mode = ModeFull
		}

		results := engine.RunChecks(r.Context(), checks, RunOptions{Mode: mode})
		report := Report{
			Status:    OverallStatus(results),
			Mode:      mode,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Results:   results,
			Stats:     engine.Stats(),
		}

		w.Header().Set("Content-Type", "application/json")
		if report.Status == OverallUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}

// RegisterHandlers registers the health endpoints on mux.
func RegisterHandlers(mux *http.ServeMux, engine *Engine, checks []Check) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(engine, checks))
	mux.HandleFunc("/health", DetailedHandler(engine, checks))
}
