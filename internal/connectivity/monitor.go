// Package connectivity mirrors the backend online/offline signal and records
// each transition so every session is told about it once.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zippy-delivery/zippy-console/internal/notify"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// Notifications emitted on transitions.
var (
	OfflineNotice = shared.FlashMessage{
		Kind:    shared.FlashDestructive,
		Title:   "No Internet Connection",
		Message: "Please check your internet connection and try again.",
	}
	OnlineNotice = shared.FlashMessage{
		Kind:    shared.FlashSuccess,
		Title:   "Back Online",
		Message: "Your internet connection has been restored.",
	}
)

// edgeHistory bounds how many transitions a lagging session can replay.
const edgeHistory = 8

// Edge is one recorded transition. Seq increases by one per transition.
type Edge struct {
	Seq    uint64
	Notice shared.FlashMessage
}

// Monitor owns the connectivity state. Only transitions produce
// notifications; repeated signals of the current state are ignored.
type Monitor struct {
	mu       sync.RWMutex
	online   bool
	since    time.Time
	seq      uint64
	edges    []Edge
	notifier notify.Notifier
	gauge    prometheus.Gauge
}

// NewMonitor starts in the given state. Starting offline records and emits
// the offline notification once. logger and reg may be nil.
func NewMonitor(ctx context.Context, online bool, notifier notify.Notifier, logger *slog.Logger, reg prometheus.Registerer) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zippy_backend_online",
		Help: "1 when the backend answers health checks, 0 otherwise.",
	})
	if reg != nil {
		if err := reg.Register(gauge); err != nil {
			logger.Warn("register connectivity metrics", slog.Any("error", err))
		}
	}
	m := &Monitor{online: online, since: time.Now(), notifier: notifier, gauge: gauge}
	m.setGauge(online)
	if !online {
		m.record(OfflineNotice)
		m.emit(ctx, OfflineNotice)
	}
	return m
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Since reports when the current state began.
func (m *Monitor) Since() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.since
}

// Observe feeds one platform signal. It reports whether the state changed.
func (m *Monitor) Observe(ctx context.Context, online bool) bool {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return false
	}
	m.online = online
	m.since = time.Now()
	m.setGauge(online)
	notice := OfflineNotice
	if online {
		notice = OnlineNotice
	}
	m.record(notice)
	m.mu.Unlock()

	m.emit(ctx, notice)
	return true
}

// Seq returns the sequence number of the latest transition, 0 if none.
func (m *Monitor) Seq() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq
}

// NoticesAfter returns, oldest first, the notices of transitions newer than
// seen together with the latest sequence number. A caller that fell behind
// the retained history only gets the latest notice.
func (m *Monitor) NoticesAfter(seen uint64) ([]shared.FlashMessage, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if seen >= m.seq || len(m.edges) == 0 {
		return nil, m.seq
	}
	if seen+1 < m.edges[0].Seq {
		return []shared.FlashMessage{m.edges[len(m.edges)-1].Notice}, m.seq
	}
	notices := make([]shared.FlashMessage, 0, m.seq-seen)
	for _, e := range m.edges {
		if e.Seq > seen {
			notices = append(notices, e.Notice)
		}
	}
	return notices, m.seq
}

// record appends a transition. Callers hold mu or own m exclusively.
func (m *Monitor) record(n shared.FlashMessage) {
	m.seq++
	m.edges = append(m.edges, Edge{Seq: m.seq, Notice: n})
	if len(m.edges) > edgeHistory {
		m.edges = m.edges[len(m.edges)-edgeHistory:]
	}
}

func (m *Monitor) setGauge(online bool) {
	if online {
		m.gauge.Set(1)
		return
	}
	m.gauge.Set(0)
}

func (m *Monitor) emit(ctx context.Context, n shared.FlashMessage) {
	if m.notifier != nil {
		m.notifier.Notify(ctx, n)
	}
}
