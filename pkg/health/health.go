// Package health aggregates component checks into liveness and readiness
// reports.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check represents a health check for a specific component
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"lastChecked"`
	Duration    time.Duration  `json:"durationNs"`
}

// CheckFunc performs one health check
type CheckFunc func(ctx context.Context) Check

// Response represents the overall health response
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    string           `json:"uptime"`
}

// Checker manages the checks of the application. Liveness checks must be
// cheap; readiness checks may touch storage.
type Checker struct {
	mu          sync.RWMutex
	started     time.Time
	liveChecks  map[string]CheckFunc
	readyChecks map[string]CheckFunc
}

// NewChecker creates a checker with no checks
func NewChecker() *Checker {
	return &Checker{
		started:     time.Now(),
		liveChecks:  make(map[string]CheckFunc),
		readyChecks: make(map[string]CheckFunc),
	}
}

// RegisterLivenessCheck registers a liveness check
func (hc *Checker) RegisterLivenessCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.liveChecks[name] = check
}

// RegisterReadinessCheck registers a readiness check
func (hc *Checker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.readyChecks[name] = check
}

// CheckLiveness performs liveness checks
func (hc *Checker) CheckLiveness(ctx context.Context) Response {
	return hc.perform(ctx, func() map[string]CheckFunc { return hc.liveChecks })
}

// CheckReadiness performs readiness checks
func (hc *Checker) CheckReadiness(ctx context.Context) Response {
	return hc.perform(ctx, func() map[string]CheckFunc { return hc.readyChecks })
}

// Check performs every registered check
func (hc *Checker) Check(ctx context.Context) Response {
	return hc.perform(ctx, func() map[string]CheckFunc {
		all := make(map[string]CheckFunc, len(hc.liveChecks)+len(hc.readyChecks))
		for name, fn := range hc.liveChecks {
			all[name] = fn
		}
		for name, fn := range hc.readyChecks {
			all[name] = fn
		}
		return all
	})
}

func (hc *Checker) perform(ctx context.Context, pick func() map[string]CheckFunc) Response {
	hc.mu.RLock()
	checks := pick()
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	hc.mu.RUnlock()
	sort.Strings(names)

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(names)),
		Uptime:    time.Since(hc.started).Round(time.Second).String(),
	}

	for _, name := range names {
		start := time.Now()
		check := checks[name](ctx)
		check.Name = name
		check.Duration = time.Since(start)
		check.LastChecked = start
		response.Checks[name] = check

		// Worst status wins
		switch {
		case check.Status == StatusUnhealthy:
			response.Status = StatusUnhealthy
		case check.Status == StatusDegraded && response.Status != StatusUnhealthy:
			response.Status = StatusDegraded
		}
	}

	return response
}
