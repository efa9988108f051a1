// AngelaMos | 2026
// health.go

package health

import (
	"context"
	"sync"
	"time"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

const defaultTimeout = 5 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

type Probe struct {
	Name    string
	Checker Checker
}

type Report struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
}

func (r Report) Healthy() bool {
	return r.Status == StatusOK
}

type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

type Runner struct {
	probes  []Probe
	timeout time.Duration
}

func NewRunner(timeout time.Duration, probes ...Probe) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Runner{probes: probes, timeout: timeout}
}

// Run pings every probe concurrently and reports degraded if any fails.
func (r *Runner) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	checks := r.runHealthChecks(ctx)

	status := StatusOK
	for _, check := range checks {
		if !check.Healthy {
			status = StatusDegraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func (r *Runner) runHealthChecks(ctx context.Context) []HealthCheck {
	var wg sync.WaitGroup
	checks := make([]HealthCheck, len(r.probes))

	for i, p := range r.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = check(ctx, p)
		}()
	}

	wg.Wait()
	return checks
}

func check(ctx context.Context, p Probe) HealthCheck {
	hc := HealthCheck{
		Name:    p.Name,
		Healthy: true,
	}

	if p.Checker == nil {
		hc.Healthy = false
		hc.Message = p.Name + " checker not configured"
		return hc
	}

	start := time.Now()
	err := p.Checker.Ping(ctx)
	hc.Latency = time.Since(start).String()

	if err != nil {
		hc.Healthy = false
		hc.Message = err.Error()
	}

	return hc
}
