package netmon

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ProbeFunc reports whether the backend is currently reachable.
type ProbeFunc func(ctx context.Context) bool

// DialProbe probes reachability with a TCP dial to the API host.
func DialProbe(serverURL string) ProbeFunc {
	return func(ctx context.Context) bool {
		u, err := url.Parse(serverURL)
		if err != nil {
			return false
		}
		host := u.Host
		if u.Port() == "" {
			if u.Scheme == "https" {
				host += ":443"
			} else {
				host += ":80"
			}
		}
		d := net.Dialer{Timeout: 2 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", host)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// Monitor polls a probe and notifies subscribers when the online state
// flips. Subscribers only ever see the state current at notification time;
// missed transitions are not buffered.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	online bool
	subs   map[int]func(bool)
	nextID int
	stop   chan struct{}
}

func New(probe ProbeFunc, interval time.Duration, log zerolog.Logger) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
		log:      log,
		online:   true,
		subs:     map[int]func(bool){},
	}
}

// Online is the point-in-time connectivity check.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers fn for state-change notifications and returns an
// unsubscribe function.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Start begins the probe loop. The first probe runs immediately so Online
// reflects reality before the first tick.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()

	m.Observe(m.probe(ctx))
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				m.Observe(m.probe(ctx))
			}
		}
	}()
}

// Stop ends the probe loop started by Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

// Observe records a connectivity observation, notifying subscribers on
// change. Exposed so callers that already learned the state from a failed
// request can feed it in without waiting for the next probe.
func (m *Monitor) Observe(online bool) {
	m.mu.Lock()
	if online == m.online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	m.log.Debug().Bool("online", online).Msg("connectivity changed")
	for _, fn := range subs {
		fn(online)
	}
}
