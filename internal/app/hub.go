package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
)

// Hub is the fan-out engine. It resolves the room's member snapshot and
// hands one delivery task to every member's own queue; translation and
// the transport write happen later, inside each recipient's worker, so
// recipients never delay one another.
type Hub struct {
	Registry *Registry
	Policy   Policy
}

func NewHub(reg *Registry, pol Policy) *Hub {
	return &Hub{Registry: reg, Policy: pol}
}

// BroadcastResult reports delivery stats/backpressure to the adapter.
type BroadcastResult struct {
	EnqueuedTo int
	Dropped    []MemberSnap
}

// Broadcast fans msg out to every current member of the room, the sender
// included (the sender gets the localized rendering of its own message).
// Enqueueing is synchronous on the sender's read loop, which is what
// pins per-recipient delivery order to the sender's send order.
func (h *Hub) Broadcast(msg domain.Inbound) BroadcastResult {
	members := h.Registry.MembersOf(msg.Room)
	res := BroadcastResult{}
	for _, m := range members {
		err := m.Session.Enqueue(msg.Text)
		switch {
		case err == nil:
			res.EnqueuedTo++
		case errors.Is(err, core.ErrSessionClosed):
			// Raced a disconnect; the leave path owns cleanup.
		case errors.Is(err, core.ErrBackpressure):
			res.Dropped = append(res.Dropped, m)
		}
	}
	for _, slow := range res.Dropped {
		h.applyBackpressure(msg.Room, slow)
	}
	log.Debug().Str("module", "app.hub").Str("room", string(msg.Room)).Str("from", string(msg.Sender)).Int("enqueued", res.EnqueuedTo).Int("dropped", len(res.Dropped)).Msg("broadcast")
	return res
}

func (h *Hub) applyBackpressure(room domain.RoomName, m MemberSnap) {
	if h.Policy == nil {
		return
	}
	switch h.Policy.OnBackPressure(room, m.Session) {
	case KickMember:
		log.Warn().Str("module", "app.hub").Str("cid", string(m.ID)).Msg("kicking slow recipient")
		// Cancel fires the connection context so the pumps stop reading
		// a peer we are about to evict; it must run before the entry is
		// gone from the registry.
		h.Registry.Cancel(m.ID)
		h.Registry.Leave(m.ID)
		m.Session.Close()
	case MarkSlow, DropDelivery, NoAction:
	}
}
