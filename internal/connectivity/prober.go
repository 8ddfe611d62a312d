package connectivity

import (
	"context"
	"log/slog"
	"time"
)

// Pinger checks backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober turns periodic health checks into Monitor signals.
type Prober struct {
	pinger   Pinger
	monitor  *Monitor
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewProber builds a Prober. interval defaults to 15s.
func NewProber(pinger Pinger, monitor *Monitor, interval time.Duration, logger *slog.Logger) *Prober {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{pinger: pinger, monitor: monitor, interval: interval, timeout: interval / 2, logger: logger}
}

// Probe runs one health check and feeds the result to the monitor.
func (p *Prober) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.pinger.Ping(probeCtx)
	online := err == nil
	if p.monitor.Observe(ctx, online) {
		if online {
			p.logger.Info("backend reachable")
		} else {
			p.logger.Warn("backend unreachable", slog.Any("error", err))
		}
	}
	return online
}

// Run probes until ctx is cancelled.
func (p *Prober) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}
