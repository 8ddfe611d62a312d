package connectivity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zippy-delivery/zippy-console/internal/notify"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

func collect(out *[]shared.FlashMessage) notify.Notifier {
	return notify.Func(func(ctx context.Context, n shared.FlashMessage) {
		*out = append(*out, n)
	})
}

func TestOfflineThenOnlineNotifiesOnceEach(t *testing.T) {
	var got []shared.FlashMessage
	m := NewMonitor(context.Background(), true, collect(&got), nil, nil)

	assert.True(t, m.Observe(context.Background(), false))
	assert.False(t, m.Observe(context.Background(), false))
	assert.True(t, m.Observe(context.Background(), true))
	assert.False(t, m.Observe(context.Background(), true))

	require.Len(t, got, 2)
	assert.Equal(t, OfflineNotice, got[0])
	assert.Equal(t, OnlineNotice, got[1])
	assert.True(t, m.Online())
}

func TestStartingOfflineNotifiesImmediately(t *testing.T) {
	var got []shared.FlashMessage
	m := NewMonitor(context.Background(), false, collect(&got), nil, nil)

	require.Len(t, got, 1)
	assert.Equal(t, OfflineNotice, got[0])
	assert.False(t, m.Online())
}

func TestMonitorExportsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMonitor(context.Background(), true, nil, nil, reg)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gauge))
	m.Observe(context.Background(), false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.gauge))
}

type flakyPinger struct {
	errs []error
}

func (f *flakyPinger) Ping(ctx context.Context) error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func TestProberFeedsMonitor(t *testing.T) {
	var got []shared.FlashMessage
	m := NewMonitor(context.Background(), true, collect(&got), nil, nil)
	p := NewProber(&flakyPinger{errs: []error{errors.New("down"), errors.New("down"), nil}}, m, time.Second, nil)

	assert.False(t, p.Probe(context.Background()))
	assert.False(t, p.Probe(context.Background()))
	assert.True(t, p.Probe(context.Background()))

	require.Len(t, got, 2)
	assert.Equal(t, OfflineNotice.Title, got[0].Title)
	assert.Equal(t, OnlineNotice.Title, got[1].Title)
}

func TestProberRunStopsOnCancel(t *testing.T) {
	m := NewMonitor(context.Background(), true, nil, nil, nil)
	p := NewProber(&flakyPinger{}, m, 10*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("prober did not stop")
	}
}

func TestNoticesAfterReplaysMissedEdges(t *testing.T) {
	m := NewMonitor(context.Background(), true, nil, nil, nil)
	notices, seq := m.NoticesAfter(0)
	assert.Empty(t, notices)
	assert.Zero(t, seq)

	m.Observe(context.Background(), false)
	m.Observe(context.Background(), true)

	notices, seq = m.NoticesAfter(0)
	assert.Equal(t, []shared.FlashMessage{OfflineNotice, OnlineNotice}, notices)
	assert.Equal(t, uint64(2), seq)

	notices, _ = m.NoticesAfter(1)
	assert.Equal(t, []shared.FlashMessage{OnlineNotice}, notices)

	notices, _ = m.NoticesAfter(2)
	assert.Empty(t, notices)
}

func TestNoticesAfterCollapsesStaleHistory(t *testing.T) {
	m := NewMonitor(context.Background(), true, nil, nil, nil)
	for i := 0; i < edgeHistory+3; i++ {
		m.Observe(context.Background(), i%2 == 1)
	}
	require.Equal(t, uint64(edgeHistory+3), m.Seq())

	notices, seq := m.NoticesAfter(0)
	require.Len(t, notices, 1)
	assert.Equal(t, OfflineNotice, notices[0])
	assert.Equal(t, m.Seq(), seq)
}

func TestDuplicateGaugeRegistrationIsLogged(t *testing.T) {
	reg := prometheus.NewRegistry()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewMonitor(context.Background(), true, nil, logger, reg)
	assert.Empty(t, buf.String())
	NewMonitor(context.Background(), true, nil, logger, reg)
	assert.Contains(t, buf.String(), "register connectivity metrics")
}
