// Package connectivity reports whether the backend is reachable.
//
// Every sync decision reads the flag fresh, so a Provider must be cheap to
// call. Monitor keeps the last probe result and refreshes it in the
// background.
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Provider answers "is the network path to the backend usable right now".
type Provider interface {
	Online(ctx context.Context) bool
}

// Static is a Provider with a fixed answer that can be flipped by hand.
// Tests use it; the daemon uses it when probing is disabled.
type Static struct {
	online atomic.Bool
}

// NewStatic returns a Static provider reporting online.
func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) Online(context.Context) bool { return s.online.Load() }

// Set changes the reported state.
func (s *Static) Set(online bool) { s.online.Store(online) }

// Monitor polls a probe URL with HEAD requests. Any HTTP response counts as
// online, since it proves the path to the server works; only transport
// errors count as offline.
type Monitor struct {
	client   *http.Client
	probeURL string
	interval time.Duration
	log      *slog.Logger

	online atomic.Bool

	mu     sync.Mutex
	nextID int
	subs   map[int]func(online bool)
}

// NewMonitor constructs a Monitor. It starts optimistic (online) until the
// first probe says otherwise.
func NewMonitor(client *http.Client, probeURL string, interval time.Duration, log *slog.Logger) *Monitor {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Monitor{
		client:   client,
		probeURL: probeURL,
		interval: interval,
		log:      log,
		subs:     make(map[int]func(bool)),
	}
	m.online.Store(true)
	return m
}

// Online returns the result of the most recent probe.
func (m *Monitor) Online(context.Context) bool { return m.online.Load() }

// Subscribe registers fn to be called on every online/offline transition.
// The returned cancel func removes the subscription.
func (m *Monitor) Subscribe(fn func(online bool)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// Check probes once, stores the result and notifies subscribers if the state
// changed. It returns the new state. A probe cut short by ctx says nothing
// about the network, so the stored state is returned unchanged.
func (m *Monitor) Check(ctx context.Context) bool {
	err := m.probe(ctx)
	if err != nil && ctx.Err() != nil {
		return m.online.Load()
	}
	online := err == nil
	if prev := m.online.Swap(online); prev != online {
		m.log.InfoContext(ctx, "connectivity changed", "online", online)
		m.notify(online)
	}
	return online
}

// Run probes immediately and then every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Check(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return fmt.Errorf("connectivity.Monitor.probe: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.log.DebugContext(ctx, "connectivity probe failed", "url", m.probeURL, "error", err)
		return fmt.Errorf("connectivity.Monitor.probe: %w", err)
	}
	resp.Body.Close()
	return nil
}

func (m *Monitor) notify(online bool) {
	m.mu.Lock()
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}
