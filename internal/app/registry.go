package app

import (
	"context"
	"sync"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	User     domain.UserInfo
	LoggedIn bool
	RoomID   domain.RoomID
	InRoom   bool
	Conn     core.SignalConnection
	Cancel   context.CancelFunc
}

// Registry tracks live sessions: who is logged in on which connection and
// which room they currently sit in.
type Registry struct {
	mu     sync.RWMutex
	bySID  map[core.SessionID]*sessionEntry
	byUser map[domain.UserID]core.SessionID
}

func NewRegistry() *Registry {
	return &Registry{
		bySID:  make(map[core.SessionID]*sessionEntry),
		byUser: make(map[domain.UserID]core.SessionID),
	}
}

func (r *Registry) Bind(sid core.SessionID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = &sessionEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound session")
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.bySID[sid]; ok && e.LoggedIn {
		delete(r.byUser, e.User.ID)
	}
	delete(r.bySID, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

// SetUser marks the session authenticated. A user re-logging-in from a new
// session displaces the old binding.
func (r *Registry) SetUser(sid core.SessionID, user domain.UserInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bySID[sid]
	if !ok {
		return
	}
	if old, bound := r.byUser[user.ID]; bound && old != sid {
		if oldEntry, ok := r.bySID[old]; ok {
			oldEntry.LoggedIn = false
		}
	}
	e.User = user
	e.LoggedIn = true
	r.byUser[user.ID] = sid
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(user.ID)).Msg("session logged in")
}

func (r *Registry) SetUserProfile(sid core.SessionID, name, avatarURL string) (domain.UserInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bySID[sid]
	if !ok || !e.LoggedIn {
		return domain.UserInfo{}, domain.ErrNotLoggedIn
	}
	if err := e.User.SetName(name); err != nil {
		return domain.UserInfo{}, err
	}
	e.User.AvatarURL = avatarURL
	return e.User, nil
}

func (r *Registry) ClearUser(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.bySID[sid]; ok && e.LoggedIn {
		delete(r.byUser, e.User.ID)
		e.LoggedIn = false
		e.User = domain.UserInfo{}
	}
}

func (r *Registry) UserOf(sid core.SessionID) (domain.UserInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.bySID[sid]; ok && e.LoggedIn {
		return e.User, true
	}
	return domain.UserInfo{}, false
}

func (r *Registry) ConnByUser(user domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.byUser[user]
	if !ok {
		return nil, false
	}
	e, ok := r.bySID[sid]
	if !ok || e.Conn == nil {
		return nil, false
	}
	return e.Conn, true
}

func (r *Registry) SetRoom(sid core.SessionID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.bySID[sid]; ok {
		e.RoomID = room
		e.InRoom = true
	}
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.bySID[sid]; ok && e.InRoom {
		return e.RoomID, true
	}
	return 0, false
}

func (r *Registry) ClearRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.bySID[sid]; ok {
		e.InRoom = false
		e.RoomID = 0
	}
}

// ClearRoomAll detaches every session bound to the given room, used after
// the room is destroyed.
func (r *Registry) ClearRoomAll(room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.bySID {
		if e.InRoom && e.RoomID == room {
			e.InRoom = false
			e.RoomID = 0
		}
	}
}

// SessionsInRoom lists every session currently bound to the room.
func (r *Registry) SessionsInRoom(room domain.RoomID) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.SessionID
	for sid, e := range r.bySID {
		if e.InRoom && e.RoomID == room {
			out = append(out, sid)
		}
	}
	return out
}

// SessionByUser resolves the live session of a user, if any.
func (r *Registry) SessionByUser(user domain.UserID) (core.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.byUser[user]
	return sid, ok
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.bySID[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
