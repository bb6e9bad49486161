package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
)

type captureConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *captureConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	c.frames = append(c.frames, f)
	c.mu.Unlock()
	return nil
}

func (c *captureConn) Close() {}

func (c *captureConn) take() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame(nil), c.frames...)
}

type translatorFunc func(ctx context.Context, text string, dest domain.Language) (core.Translation, error)

func (fn translatorFunc) Translate(ctx context.Context, text string, dest domain.Language) (core.Translation, error) {
	return fn(ctx, text, dest)
}

func TestHubBroadcastIncludesSender(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	hub := NewHub(reg, SimplePolicy{})

	sender := newFakeSession("c1", "en")
	other := newFakeSession("c2", "fr")
	req.NoError(reg.Join("c1", "lobby", sender, nil))
	req.NoError(reg.Join("c2", "lobby", other, nil))

	res := hub.Broadcast(domain.Inbound{Room: "lobby", Sender: "c1", Text: "hello"})

	req.Equal(2, res.EnqueuedTo)
	req.Equal([]string{"hello"}, sender.texts())
	req.Equal([]string{"hello"}, other.texts())
}

func TestHubBroadcastScopedToRoom(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	hub := NewHub(reg, SimplePolicy{})

	inRoom := newFakeSession("c1", "en")
	elsewhere := newFakeSession("c2", "fr")
	req.NoError(reg.Join("c1", "lobby", inRoom, nil))
	req.NoError(reg.Join("c2", "dev", elsewhere, nil))

	hub.Broadcast(domain.Inbound{Room: "lobby", Sender: "c1", Text: "hello"})

	req.Equal([]string{"hello"}, inRoom.texts())
	req.Empty(elsewhere.texts())
}

func TestHubPerRecipientOrderAcrossBroadcasts(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	hub := NewHub(reg, SimplePolicy{})

	a := newFakeSession("c1", "en")
	b := newFakeSession("c2", "fr")
	req.NoError(reg.Join("c1", "lobby", a, nil))
	req.NoError(reg.Join("c2", "lobby", b, nil))

	hub.Broadcast(domain.Inbound{Room: "lobby", Sender: "c1", Text: "A"})
	hub.Broadcast(domain.Inbound{Room: "lobby", Sender: "c1", Text: "B"})

	req.Equal([]string{"A", "B"}, a.texts())
	req.Equal([]string{"A", "B"}, b.texts())
}

func TestHubDeliversToMemberJoinedBeforeActivation(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	hub := NewHub(reg, SimplePolicy{})

	conn := &captureConn{}
	tr := translatorFunc(func(_ context.Context, text string, _ domain.Language) (core.Translation, error) {
		return core.Translation{Text: text}, nil
	})
	sess := core.NewSession("c1", domain.NewMember(domain.NewGuest(), "en"), conn, tr, 8)
	req.NoError(reg.Join("c1", "lobby", sess, nil))

	// The fan-out lands after join returned but before the delivery
	// worker started. The member is registered, so nothing may be lost.
	res := hub.Broadcast(domain.Inbound{Room: "lobby", Sender: "c1", Text: "hello"})
	req.Equal(1, res.EnqueuedTo)
	req.Empty(res.Dropped)

	req.True(sess.Activate(context.Background()))
	req.Eventually(func() bool { return len(conn.take()) == 1 }, time.Second, 5*time.Millisecond)

	var f core.OutboundFrame
	req.NoError(json.Unmarshal(conn.take()[0], &f))
	req.Equal("hello", f.Message)
}

func TestHubSkipsClosedSessions(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	hub := NewHub(reg, SimplePolicy{})

	open := newFakeSession("c1", "en")
	closed := newFakeSession("c2", "fr")
	closed.enqueue = func(string) error { return core.ErrSessionClosed }
	req.NoError(reg.Join("c1", "lobby", open, nil))
	req.NoError(reg.Join("c2", "lobby", closed, nil))

	res := hub.Broadcast(domain.Inbound{Room: "lobby", Sender: "c1", Text: "hello"})

	// The raced disconnect is neither an error nor a policy case.
	req.Equal(1, res.EnqueuedTo)
	req.Empty(res.Dropped)
	req.Equal([]string{"hello"}, open.texts())
}

func TestHubKicksOnBackpressure(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	hub := NewHub(reg, SimplePolicy{})

	healthy := newFakeSession("c1", "en")
	slow := newFakeSession("c2", "fr")
	slow.enqueue = func(string) error { return core.ErrBackpressure }
	req.NoError(reg.Join("c1", "lobby", healthy, nil))
	var cancelled bool
	req.NoError(reg.Join("c2", "lobby", slow, func() { cancelled = true }))

	res := hub.Broadcast(domain.Inbound{Room: "lobby", Sender: "c1", Text: "hello"})

	req.Equal(1, res.EnqueuedTo)
	req.Len(res.Dropped, 1)
	req.Equal(1, slow.closed)
	// The kick also fires the stored connection cancel so the pumps stop.
	req.True(cancelled)
	req.Len(reg.MembersOf("lobby"), 1)
	// The healthy recipient is untouched.
	req.Equal([]string{"hello"}, healthy.texts())
}

func TestHubNoPolicyLeavesSlowMemberAlone(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	hub := NewHub(reg, nil)

	slow := newFakeSession("c1", "en")
	slow.enqueue = func(string) error { return core.ErrBackpressure }
	req.NoError(reg.Join("c1", "lobby", slow, nil))

	hub.Broadcast(domain.Inbound{Room: "lobby", Sender: "c1", Text: "hello"})

	req.Zero(slow.closed)
	req.Len(reg.MembersOf("lobby"), 1)
}

func TestHubBroadcastToEmptyRoom(t *testing.T) {
	req := require.New(t)
	hub := NewHub(NewRegistry(), SimplePolicy{})

	res := hub.Broadcast(domain.Inbound{Room: "nobody-home", Sender: "c1", Text: "hello"})
	req.Zero(res.EnqueuedTo)
	req.Empty(res.Dropped)
}
