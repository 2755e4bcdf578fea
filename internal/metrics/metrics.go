package metrics

import "sync"

// Event counter names used by the signaling relay. Kept as plain strings so
// handlers can also count ad-hoc events without pre-registration.
const (
	EventMessagesReceived     = "messages_received"
	EventMessagesMalformed    = "messages_malformed"
	EventMessagesRelayed      = "messages_relayed"
	EventRelayNoRecipients    = "relay_no_recipients"
	EventSendQueueFull        = "send_queue_full"
	EventConsultationsStarted = "consultations_started"
	EventConsultationsEnded   = "consultations_ended"
	EventAcceptMissedQueue    = "accept_missed_queue"
	EventRateLimitedClosed    = "rate_limited_closed"
)

// Metrics is a minimal, concurrency-safe counter registry.
//
// The production relay is expected to plug into a real metrics backend; this
// type keeps the router logic testable while still giving the status probe
// and the Prometheus endpoint something to report.
type Metrics struct {
	mu sync.Mutex
	m  map[string]uint64
}

func New() *Metrics {
	return &Metrics{
		m: make(map[string]uint64),
	}
}

func (m *Metrics) Inc(name string) {
	m.Add(name, 1)
}

func (m *Metrics) Add(name string, delta uint64) {
	m.mu.Lock()
	if m.m == nil {
		m.m = make(map[string]uint64)
	}
	m.m[name] += delta
	m.mu.Unlock()
}

func (m *Metrics) Get(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.m[name]
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}
