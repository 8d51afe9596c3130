package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a thread-safe counter
type Counter struct {
	value atomic.Int64
}

// Add adds a delta to the counter
func (c *Counter) Add(delta int64) {
	c.value.Add(delta)
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	c.Add(1)
}

// Value returns the current counter value
func (c *Counter) Value() int64 {
	return c.value.Load()
}

// latency tracks min/max/avg of a duration
type latency struct {
	mu    sync.Mutex
	count int64
	sum   time.Duration
	min   time.Duration
	max   time.Duration
}

func (l *latency) record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 || d < l.min {
		l.min = d
	}
	if d > l.max {
		l.max = d
	}
	l.count++
	l.sum += d
}

func (l *latency) stats() LatencyStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := LatencyStats{Count: l.count, Min: l.min, Max: l.max}
	if l.count > 0 {
		s.Avg = l.sum / time.Duration(l.count)
	}
	return s
}

// LatencyStats summarises connect latency
type LatencyStats struct {
	Count int64         `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Avg   time.Duration `json:"avg"`
}

// Metrics holds per-session counters
type Metrics struct {
	ConnectAttempts  Counter
	ConnectSuccesses Counter
	ConnectFailures  Counter
	Disconnects      Counter

	FramesDecoded   Counter
	TransientReads  Counter
	TruncatedFrames Counter
	ExtraRoomFrames Counter

	CommandsSent Counter
	SendFailures Counter

	BytesSent     Counter
	BytesReceived Counter

	connectLatency latency
	lastActivity   atomic.Int64
}

func (m *Metrics) recordActivity() {
	m.lastActivity.Store(time.Now().UnixNano())
}

// Stats is a point-in-time copy of a session's metrics
type Stats struct {
	ConnectAttempts  int64        `json:"connect_attempts"`
	ConnectSuccesses int64        `json:"connect_successes"`
	ConnectFailures  int64        `json:"connect_failures"`
	Disconnects      int64        `json:"disconnects"`
	FramesDecoded    int64        `json:"frames_decoded"`
	TransientReads   int64        `json:"transient_reads"`
	TruncatedFrames  int64        `json:"truncated_frames"`
	ExtraRoomFrames  int64        `json:"extra_room_frames"`
	CommandsSent     int64        `json:"commands_sent"`
	SendFailures     int64        `json:"send_failures"`
	BytesSent        int64        `json:"bytes_sent"`
	BytesReceived    int64        `json:"bytes_received"`
	ConnectLatency   LatencyStats `json:"connect_latency"`
	LastActivity     time.Time    `json:"last_activity,omitzero"`
}

// Snapshot copies the current metric values
func (m *Metrics) Snapshot() Stats {
	s := Stats{
		ConnectAttempts:  m.ConnectAttempts.Value(),
		ConnectSuccesses: m.ConnectSuccesses.Value(),
		ConnectFailures:  m.ConnectFailures.Value(),
		Disconnects:      m.Disconnects.Value(),
		FramesDecoded:    m.FramesDecoded.Value(),
		TransientReads:   m.TransientReads.Value(),
		TruncatedFrames:  m.TruncatedFrames.Value(),
		ExtraRoomFrames:  m.ExtraRoomFrames.Value(),
		CommandsSent:     m.CommandsSent.Value(),
		SendFailures:     m.SendFailures.Value(),
		BytesSent:        m.BytesSent.Value(),
		BytesReceived:    m.BytesReceived.Value(),
		ConnectLatency:   m.connectLatency.stats(),
	}
	if ns := m.lastActivity.Load(); ns != 0 {
		s.LastActivity = time.Unix(0, ns)
	}
	return s
}
