package core

import (
	"sync"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManager tracks the live rooms of this process. Room ids are assigned
// externally; creating an id twice fails.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Coordinator
	deps  CoordinatorDeps
}

func NewRoomManager(deps CoordinatorDeps) *RoomManager {
	return &RoomManager{
		rooms: make(map[domain.RoomID]*Coordinator),
		deps:  deps,
	}
}

func (m *RoomManager) Create(id domain.RoomID, host domain.UserInfo, params domain.RoomParams) (*Coordinator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if m.deps.MaxSeats > 0 && params.SeatCount > m.deps.MaxSeats {
		return nil, domain.ErrSeatIndex
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; ok {
		return nil, domain.ErrRoomExists
	}
	room := NewCoordinator(id, host, params, m.deps)
	m.rooms[id] = room
	return room, nil
}

func (m *RoomManager) Get(id domain.RoomID) (*Coordinator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// Remove drops a destroyed room from the index. The coordinator itself is
// stopped through Destroy/ForceDestroy.
func (m *RoomManager) Remove(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	log.Info().Str("module", "core.rooms").Int32("room", int32(id)).Msg("room removed")
}

type RoomListing struct {
	Info        domain.RoomInfo `json:"info"`
	MemberCount int             `json:"member_count"`
}

func (m *RoomManager) List() []RoomListing {
	m.mu.RLock()
	rooms := make([]*Coordinator, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]RoomListing, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomListing{Info: r.Info(), MemberCount: r.MemberCount()})
	}
	return out
}
