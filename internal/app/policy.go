package app

import "github.com/dkeye/Karaoke/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what to do with a receiver whose send buffer is full.
type Policy interface {
	OnBackPressure(user domain.UserID) BackpressureAction
}

// SimplePolicy disconnects slow receivers. A dropped frame would leave the
// member with a version gap; forcing a reconnect makes them re-sync from the
// room snapshot instead.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(user domain.UserID) BackpressureAction {
	return KickMember
}
