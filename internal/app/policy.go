package app

import (
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropDelivery
)

// Policy decides what happens to a recipient whose delivery queue is full.
type Policy interface {
	OnBackPressure(room domain.RoomName, member core.Session) BackpressureAction
}

// SimplePolicy kicks slow consumers so one stalled recipient never grows
// an unbounded backlog.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room domain.RoomName, member core.Session) BackpressureAction {
	return KickMember
}
