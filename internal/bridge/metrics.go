package bridge

import "github.com/muurk/navien/internal/session"

// Metrics counts bridge activity
type Metrics struct {
	Polls           session.Counter
	PollFailures    session.Counter
	CommandsQueued  session.Counter
	CommandsSent    session.Counter
	CommandFailures session.Counter
	ClientsAccepted session.Counter
	MessagesDropped session.Counter
}

// Stats is a point-in-time copy of the bridge counters
type Stats struct {
	Polls           int64 `json:"polls"`
	PollFailures    int64 `json:"poll_failures"`
	CommandsQueued  int64 `json:"commands_queued"`
	CommandsSent    int64 `json:"commands_sent"`
	CommandFailures int64 `json:"command_failures"`
	ClientsAccepted int64 `json:"clients_accepted"`
	ClientsActive   int   `json:"clients_active"`
	MessagesDropped int64 `json:"messages_dropped"`

	Session *session.Stats `json:"session,omitempty"`
}

// Stats returns a snapshot of the bridge counters, plus the session
// counters when the connector tracks them
func (b *Bridge) Stats() Stats {
	s := Stats{
		Polls:           b.metrics.Polls.Value(),
		PollFailures:    b.metrics.PollFailures.Value(),
		CommandsQueued:  b.metrics.CommandsQueued.Value(),
		CommandsSent:    b.metrics.CommandsSent.Value(),
		CommandFailures: b.metrics.CommandFailures.Value(),
		ClientsAccepted: b.metrics.ClientsAccepted.Value(),
		ClientsActive:   b.hub.count(),
		MessagesDropped: b.metrics.MessagesDropped.Value(),
	}
	if sp, ok := b.connector.(interface{ Stats() session.Stats }); ok {
		st := sp.Stats()
		s.Session = &st
	}
	return s
}
