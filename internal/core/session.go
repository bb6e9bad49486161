package core

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Babel/internal/domain"
)

// State is the session lifecycle: Connecting until the registry accepted
// the join, Active while the delivery worker runs, Closed is terminal.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

// OutboundFrame is the application frame written to a recipient.
type OutboundFrame struct {
	Message       string `json:"message"`
	Pronunciation string `json:"pronunciation,omitempty"`
}

type session struct {
	id     domain.ConnID
	member *domain.Member
	conn   Conn
	tr     Translator

	mu      sync.RWMutex
	state   State
	queue   chan string
	onClose func()
}

// NewSession creates a session in Connecting state. queueSize bounds the
// per-recipient delivery backlog; a full queue surfaces as ErrBackpressure
// to the hub rather than blocking the sender.
func NewSession(id domain.ConnID, member *domain.Member, conn Conn, tr Translator, queueSize int) Session {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &session{
		id:     id,
		member: member,
		conn:   conn,
		tr:     tr,
		queue:  make(chan string, queueSize),
	}
}

func (s *session) ID() domain.ConnID         { return s.id }
func (s *session) Member() *domain.Member    { return s.member }
func (s *session) Language() domain.Language { return s.member.Language }

// OnClose registers the teardown hook (registry leave, context cancel).
// Runs at most once, outside the session lock.
func (s *session) OnClose(fn func()) {
	s.mu.Lock()
	s.onClose = fn
	s.mu.Unlock()
}

// Activate starts the delivery worker. Returns false if the session was
// closed before it ever became active (join rejected, early disconnect).
func (s *session) Activate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return false
	}
	s.state = StateActive
	go s.deliverLoop(ctx)
	return true
}

// Enqueue appends one raw text to this recipient's delivery queue.
// Accepted from creation onward: a connection is visible to fan-out the
// moment its registry join returns, which can be before Activate starts
// the worker, so the queue buffers during Connecting and drains once the
// worker runs. Enqueue order is the delivery order; translation happens
// later in the session's own worker so a slow call never reorders
// deliveries.
func (s *session) Enqueue(text string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	select {
	case s.queue <- text:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close is idempotent. Queued tasks still run to completion; their writes
// fail silently against the closed transport and are discarded.
func (s *session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	close(s.queue)
	cb := s.onClose
	s.onClose = nil
	s.mu.Unlock()

	if cb != nil {
		cb()
	}
	s.conn.Close()
	log.Info().Str("module", "core.session").Str("cid", string(s.id)).Msg("session closed")
}

func (s *session) deliverLoop(ctx context.Context) {
	for text := range s.queue {
		s.deliver(ctx, text)
	}
}

func (s *session) deliver(ctx context.Context, text string) {
	res, err := s.tr.Translate(ctx, text, s.member.Language)
	if err != nil {
		// Degrade to the untranslated text, never drop the message.
		log.Warn().Err(err).Str("module", "core.session").Str("cid", string(s.id)).Msg("translation unavailable, delivering original")
		res = Translation{Text: text}
	}
	d := domain.Delivery{To: s.id, Text: res.Text, Pronunciation: res.Pronunciation}
	frame, err := encodeDelivery(d)
	if err != nil {
		log.Error().Err(err).Str("module", "core.session").Str("cid", string(s.id)).Msg("encode outbound frame")
		return
	}
	if err := s.conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "core.session").Str("cid", string(s.id)).Msg("recipient write failed")
		s.Close()
	}
}

// encodeDelivery renders one per-recipient delivery as the outbound
// application frame.
func encodeDelivery(d domain.Delivery) (Frame, error) {
	return json.Marshal(OutboundFrame{Message: d.Text, Pronunciation: d.Pronunciation})
}
