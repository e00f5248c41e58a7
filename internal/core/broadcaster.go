package core

import (
	"sync"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

// EventBroadcaster fans committed events out to the current membership in
// commit order. It always runs inside the room's command loop, so the order
// events reach the transport is the order they were committed. The ring log
// is diagnostics only, not required for correctness.
type EventBroadcaster struct {
	roomID    domain.RoomID
	signaling Signaling

	mu   sync.Mutex
	ring []domain.Event
	next int
	full bool
}

func NewEventBroadcaster(roomID domain.RoomID, signaling Signaling, logSize int) *EventBroadcaster {
	if logSize <= 0 {
		logSize = 64
	}
	return &EventBroadcaster{
		roomID:    roomID,
		signaling: signaling,
		ring:      make([]domain.Event, logSize),
	}
}

// Publish delivers ev once per listed member. Delivery failures are
// transport-level: logged and dropped, never rolled back.
func (b *EventBroadcaster) Publish(ev domain.Event, members []domain.UserID) {
	b.record(ev)
	for _, user := range members {
		if err := b.signaling.SendToUser(user, ev); err != nil {
			log.Warn().Err(err).Str("module", "core.broadcast").Int32("room", int32(b.roomID)).Str("user", string(user)).Str("kind", string(ev.Kind)).Msg("event delivery failed")
		}
	}
	log.Debug().Str("module", "core.broadcast").Int32("room", int32(b.roomID)).Uint64("version", ev.Version).Str("kind", string(ev.Kind)).Int("members", len(members)).Msg("published")
}

// PublishRoom fans ev out through the transport's room index instead of a
// member list. Used for terminal events addressed to every bound session.
func (b *EventBroadcaster) PublishRoom(ev domain.Event) {
	b.record(ev)
	if err := b.signaling.BroadcastToRoom(b.roomID, ev); err != nil {
		log.Warn().Err(err).Str("module", "core.broadcast").Int32("room", int32(b.roomID)).Str("kind", string(ev.Kind)).Msg("room broadcast failed")
	}
}

// SendTo delivers a point-to-point notification to a single user.
func (b *EventBroadcaster) SendTo(user domain.UserID, ev domain.Event) {
	if err := b.signaling.SendToUser(user, ev); err != nil {
		log.Warn().Err(err).Str("module", "core.broadcast").Str("user", string(user)).Str("kind", string(ev.Kind)).Msg("notify failed")
	}
}

func (b *EventBroadcaster) record(ev domain.Event) {
	b.mu.Lock()
	b.ring[b.next] = ev
	b.next++
	if b.next == len(b.ring) {
		b.next = 0
		b.full = true
	}
	b.mu.Unlock()
}

// Recent returns the logged events oldest-first.
func (b *EventBroadcaster) Recent() []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		out := make([]domain.Event, b.next)
		copy(out, b.ring[:b.next])
		return out
	}
	out := make([]domain.Event, 0, len(b.ring))
	out = append(out, b.ring[b.next:]...)
	out = append(out, b.ring[:b.next]...)
	return out
}
