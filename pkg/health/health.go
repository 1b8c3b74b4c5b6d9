// Package health provides liveness and readiness HTTP handlers backed by
// registered dependency checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes a single dependency.
type CheckFunc func(ctx context.Context) error

type check struct {
	name     string
	fn       CheckFunc
	critical bool
}

// Checker aggregates dependency checks for readiness reporting.
type Checker struct {
	mu      sync.RWMutex
	checks  []check
	timeout time.Duration
}

// NewChecker creates a Checker with a per-check timeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Checker{timeout: timeout}
}

// RegisterCritical adds a check that makes the service not ready when failing.
func (c *Checker) RegisterCritical(name string, fn CheckFunc) {
	c.register(name, fn, true)
}

// RegisterNonCritical adds a check that is reported but does not affect
// readiness status.
func (c *Checker) RegisterNonCritical(name string, fn CheckFunc) {
	c.register(name, fn, false)
}

func (c *Checker) register(name string, fn CheckFunc, critical bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check{name: name, fn: fn, critical: critical})
}

type checkResult struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Critical bool   `json:"critical"`
}

type healthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]checkResult `json:"checks,omitempty"`
}

// LivenessHandler reports that the process is up. It runs no dependency checks.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadinessHandler runs all registered checks concurrently and returns 503
// when any critical check fails.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.mu.RLock()
		checks := make([]check, len(c.checks))
		copy(checks, c.checks)
		c.mu.RUnlock()

		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()

		results := make(map[string]checkResult, len(checks))
		var (
			mu    sync.Mutex
			wg    sync.WaitGroup
			ready = true
		)

		for _, chk := range checks {
			wg.Add(1)
			go func(chk check) {
				defer wg.Done()
				res := checkResult{Status: "ok", Critical: chk.critical}
				if err := chk.fn(ctx); err != nil {
					res.Status = "failed"
					res.Error = err.Error()
				}
				mu.Lock()
				results[chk.name] = res
				if res.Status != "ok" && chk.critical {
					ready = false
				}
				mu.Unlock()
			}(chk)
		}
		wg.Wait()

		resp := healthResponse{Status: "ready", Checks: results}
		status := http.StatusOK
		if !ready {
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, resp)
	}
}

func writeHealth(w http.ResponseWriter, status int, resp healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
