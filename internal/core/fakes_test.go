package core

import (
	"fmt"
	"sync"

	"github.com/dkeye/Karaoke/internal/domain"
)

// fakeSignaling records per-user deliveries in arrival order.
type fakeSignaling struct {
	mu     sync.Mutex
	byUser map[domain.UserID][]domain.Event
	fail   map[domain.UserID]bool
}

func newFakeSignaling() *fakeSignaling {
	return &fakeSignaling{
		byUser: make(map[domain.UserID][]domain.Event),
		fail:   make(map[domain.UserID]bool),
	}
}

func (f *fakeSignaling) SendToUser(user domain.UserID, ev domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[user] {
		return fmt.Errorf("%w: connection lost", domain.ErrTransport)
	}
	f.byUser[user] = append(f.byUser[user], ev)
	return nil
}

// BroadcastToRoom delivers to every user seen so far, standing in for the
// session registry's room index.
func (f *fakeSignaling) BroadcastToRoom(room domain.RoomID, ev domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for user := range f.byUser {
		f.byUser[user] = append(f.byUser[user], ev)
	}
	return nil
}

func (f *fakeSignaling) eventsFor(user domain.UserID) []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Event, len(f.byUser[user]))
	copy(out, f.byUser[user])
	return out
}

func (f *fakeSignaling) lastFor(user domain.UserID) (domain.Event, bool) {
	events := f.eventsFor(user)
	if len(events) == 0 {
		return domain.Event{}, false
	}
	return events[len(events)-1], true
}

func (f *fakeSignaling) ofKind(user domain.UserID, kind domain.EventKind) []domain.Event {
	var out []domain.Event
	for _, ev := range f.eventsFor(user) {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type nopAudio struct{}

func (nopAudio) StartCapture(domain.UserID)                            {}
func (nopAudio) StopCapture(domain.UserID)                             {}
func (nopAudio) SetMute(domain.UserID, bool)                           {}
func (nopAudio) MuteLocalAudio(domain.UserID, bool)                    {}
func (nopAudio) StartPlayMusic(domain.UserID, int, string, string)     {}
func (nopAudio) StopPlayMusic(domain.UserID)                           {}
func (nopAudio) SwitchMusicAccompanimentMode(domain.UserID, bool)      {}
func (nopAudio) SetMusicVolume(domain.UserID, int)                     {}
func (nopAudio) SetMusicPitch(domain.UserID, float64)                  {}
func (nopAudio) SetVoiceVolume(domain.UserID, int)                     {}
func (nopAudio) SetVoiceReverbType(domain.UserID, int)                 {}
func (nopAudio) SetVoiceChangerType(domain.UserID, int)                {}
func (nopAudio) EnableVoiceEarMonitor(domain.UserID, bool)             {}

// fakeAudio records capture/mute side effects; everything else is a no-op.
type fakeAudio struct {
	nopAudio
	mu    sync.Mutex
	calls []string
}

func (f *fakeAudio) record(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *fakeAudio) StartCapture(user domain.UserID) { f.record("start_capture:%s", user) }
func (f *fakeAudio) StopCapture(user domain.UserID)  { f.record("stop_capture:%s", user) }
func (f *fakeAudio) SetMute(user domain.UserID, mute bool) {
	f.record("set_mute:%s:%t", user, mute)
}

func (f *fakeAudio) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}
