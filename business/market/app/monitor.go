package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	connectionDomain "github.com/fd1az/tokensale-client/business/connection/domain"
	"github.com/fd1az/tokensale-client/internal/logger"
)

// MonitorConfig holds configuration for the monitor.
type MonitorConfig struct {
	RefreshInterval time.Duration
}

type monitorMetrics struct {
	refreshes metric.Int64Counter
	failures  metric.Int64Counter
}

// Monitor keeps the display current. It takes a snapshot on start, on every
// tick, on every wallet event and whenever Refresh is called, and hands it
// to the reporter. It never writes to the chain.
type Monitor struct {
	reader   Snapshotter
	events   EventSource
	reporter Reporter
	config   MonitorConfig
	logger   logger.LoggerInterface
	metrics  *monitorMetrics

	refresh chan struct{}

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMonitor creates a new Monitor.
func NewMonitor(
	reader Snapshotter,
	events EventSource,
	reporter Reporter,
	config MonitorConfig,
	log logger.LoggerInterface,
) (*Monitor, error) {
	if config.RefreshInterval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", config.RefreshInterval)
	}
	m := &Monitor{
		reader:   reader,
		events:   events,
		reporter: reporter,
		config:   config,
		logger:   log,
		refresh:  make(chan struct{}, 1),
	}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return m, nil
}

func (m *Monitor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &monitorMetrics{}

	m.metrics.refreshes, err = meter.Int64Counter(
		"market_refreshes_total",
		metric.WithDescription("Passive refreshes by trigger"),
	)
	if err != nil {
		return err
	}

	m.metrics.failures, err = meter.Int64Counter(
		"market_refresh_failures_total",
		metric.WithDescription("Snapshots taken while the session or network was not ready"),
	)
	return err
}

// Start begins the refresh loop. It is a no-op when already running.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	m.logger.Info(ctx, "starting market monitor", "interval", m.config.RefreshInterval)

	if err := m.reporter.Start(ctx); err != nil {
		return err
	}

	events := make(chan connectionDomain.WalletEvent, 8)
	sub := m.events.Subscribe(events)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true

	go m.run(runCtx, events, sub)
	return nil
}

// Refresh asks for a snapshot outside the regular tick. Requests made while
// one is pending are merged.
func (m *Monitor) Refresh() {
	select {
	case m.refresh <- struct{}{}:
	default:
	}
}

func (m *Monitor) run(ctx context.Context, events <-chan connectionDomain.WalletEvent, sub event.Subscription) {
	defer close(m.done)
	defer sub.Unsubscribe()
	subErr := sub.Err()

	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()

	m.update(ctx, "start")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info(ctx, "monitor stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			m.update(ctx, "tick")
		case <-m.refresh:
			m.update(ctx, "request")
		case ev := <-events:
			m.reporter.Event(ev)
			m.update(ctx, string(ev.Kind))
		case err := <-subErr:
			if err != nil {
				m.logger.Warn(ctx, "wallet event subscription ended", "error", err)
			}
			subErr = nil
		}
	}
}

func (m *Monitor) update(ctx context.Context, trigger string) {
	// The watcher needs a session; keep trying until the wallet answers.
	if err := m.events.Start(ctx); err != nil {
		m.logger.Debug(ctx, "wallet events not available yet", "error", err)
	}

	snap := m.reader.Snapshot(ctx)
	attrs := metric.WithAttributes(attribute.String("trigger", trigger))
	m.metrics.refreshes.Add(ctx, 1, attrs)
	if snap.Err != nil {
		m.metrics.failures.Add(ctx, 1, attrs)
		m.logger.Warn(ctx, "snapshot unavailable", "trigger", trigger, "error", snap.Err)
	} else {
		m.logger.Debug(ctx, "snapshot taken", "trigger", trigger, "unavailable_fields", len(snap.Errors))
	}
	m.reporter.Update(snap)
}

// Stop gracefully shuts down the monitor.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	<-done
	return m.reporter.Stop()
}
