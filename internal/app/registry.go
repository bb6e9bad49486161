package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
)

var ErrDuplicateConnection = errors.New("duplicate connection")

type connEntry struct {
	Room    domain.RoomName
	Session core.Session
	Cancel  context.CancelFunc
}

// Registry is the only shared mutable structure of the relay: a
// linearizable map of live connections to room and session. Critical
// sections are short and never span a network call.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

// Join registers a live connection under id. A second Join with the same
// id fails with ErrDuplicateConnection; ids are minted per connection and
// never reused while the first holder is alive.
func (r *Registry) Join(id domain.ConnID, room domain.RoomName, sess core.Session, cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return ErrDuplicateConnection
	}
	r.conns[id] = &connEntry{Room: room, Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("cid", string(id)).Str("room", string(room)).Str("lang", string(sess.Language())).Msg("joined")
	return nil
}

// Leave removes the connection. Idempotent: disconnects are best-effort
// and may race, an absent id is a no-op.
func (r *Registry) Leave(id domain.ConnID) {
	r.mu.Lock()
	_, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()
	if ok {
		log.Info().Str("module", "app.registry").Str("cid", string(id)).Msg("left")
	}
}

type MemberSnap struct {
	ID      domain.ConnID
	Session core.Session
}

// MembersOf returns a point-in-time snapshot of the room. The slice is a
// copy; callers fan out against it without holding the registry lock.
func (r *Registry) MembersOf(room domain.RoomName) []MemberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberSnap, 0, len(r.conns))
	for id, e := range r.conns {
		if e.Room == room {
			out = append(out, MemberSnap{ID: id, Session: e.Session})
		}
	}
	return out
}

// LanguageOf never fails: a connection gone mid-lookup reads as the
// default so an in-flight fan-out is not poisoned by a disconnect.
func (r *Registry) LanguageOf(id domain.ConnID) domain.Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Session.Language()
	}
	return domain.DefaultLanguage
}

func (r *Registry) RoomOf(id domain.ConnID) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Room, true
	}
	return "", false
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Rooms lists live rooms with member counts. Rooms are derived from
// membership, so an emptied room vanishes with its last connection.
func (r *Registry) Rooms() []core.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[domain.RoomName]int)
	for _, e := range r.conns {
		counts[e.Room]++
	}
	out := make([]core.RoomInfo, 0, len(counts))
	for name, n := range counts {
		out = append(out, core.RoomInfo{Name: name, MemberCount: n})
	}
	return out
}

// MembersSnapshot is the read-only member view for the rooms API.
func (r *Registry) MembersSnapshot(room domain.RoomName) []core.MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.MemberDTO, 0)
	for _, e := range r.conns {
		if e.Room != room {
			continue
		}
		m := e.Session.Member()
		out = append(out, core.MemberDTO{ID: m.User.ID, Username: m.User.Username, Language: string(m.Language)})
	}
	return out
}

// Cancel fires the stored context cancel for id, if any.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}
