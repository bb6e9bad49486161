package core

import (
	"context"
	"errors"

	"github.com/dkeye/Babel/internal/domain"
)

// Frame is a raw wire payload, already encoded.
type Frame []byte

var (
	ErrBackpressure  = errors.New("backpressure")
	ErrSessionClosed = errors.New("session closed")
)

// Conn abstracts the outbound half of a transport connection.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// Translation is what a recipient-facing delivery is built from.
type Translation struct {
	Text          string
	Pronunciation string
	Detected      domain.Language
}

// Translator localizes text for one recipient. Implementations carry
// their own timeout and degrade-to-original policy.
type Translator interface {
	Translate(ctx context.Context, text string, dest domain.Language) (Translation, error)
}

// Session binds one live connection to its member meta and owns the
// per-recipient delivery queue. This is what the registry stores and
// the hub fans out to.
type Session interface {
	ID() domain.ConnID
	Member() *domain.Member
	Language() domain.Language
	OnClose(func())
	Activate(ctx context.Context) bool
	Enqueue(text string) error
	Close()
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Language string        `json:"language"`
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}
