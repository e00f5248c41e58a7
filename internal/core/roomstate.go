package core

import (
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/samber/lo"
)

type Action int

const (
	ActionDestroyRoom Action = iota
	ActionEnterSeat
	ActionLeaveSeat
	ActionKickSeat
	ActionMuteSeat
	ActionCloseSeat
	ActionSendInvitation
	ActionResolveInvitation
	ActionSendMessage
)

// hostOnly actions are the destructive/administrative ones.
func (a Action) hostOnly() bool {
	switch a {
	case ActionDestroyRoom, ActionKickSeat, ActionMuteSeat, ActionCloseSeat:
		return true
	}
	return false
}

// RoomState holds one room's metadata, membership and seat table, and is the
// sole gate deciding whether a mutation is permitted. It is owned by the
// room's command loop and carries no lock of its own.
type RoomState struct {
	info    domain.RoomInfo
	members map[domain.UserID]domain.UserInfo
	seats   *domain.SeatTable
	version uint64
}

func NewRoomState(id domain.RoomID, host domain.UserID, params domain.RoomParams) *RoomState {
	return &RoomState{
		info:    domain.RoomInfo{ID: id, Host: host, Params: params},
		members: make(map[domain.UserID]domain.UserInfo),
		seats:   domain.NewSeatTable(params.SeatCount),
	}
}

func (s *RoomState) Info() domain.RoomInfo    { return s.info }
func (s *RoomState) Host() domain.UserID      { return s.info.Host }
func (s *RoomState) Seats() *domain.SeatTable { return s.seats }
func (s *RoomState) Version() uint64          { return s.version }
func (s *RoomState) RequiresApproval() bool   { return s.info.Params.RequiresApproval }
func (s *RoomState) MemberCount() int         { return len(s.members) }

// NextVersion commits one mutation and returns the version stamped on the
// resulting event.
func (s *RoomState) NextVersion() uint64 {
	s.version++
	return s.version
}

// Authorize applies the rule table: host-only actions fail ErrNotHost for
// anyone else, every other action requires current membership.
func (s *RoomState) Authorize(actor domain.UserID, action Action) error {
	if !s.IsMember(actor) {
		return domain.ErrNotAMember
	}
	if action.hostOnly() && actor != s.info.Host {
		return domain.ErrNotHost
	}
	return nil
}

func (s *RoomState) IsMember(user domain.UserID) bool {
	_, ok := s.members[user]
	return ok
}

func (s *RoomState) Member(user domain.UserID) (domain.UserInfo, bool) {
	m, ok := s.members[user]
	return m, ok
}

func (s *RoomState) AddMember(info domain.UserInfo) {
	s.members[info.ID] = info
}

// UpdateMember refreshes a cached profile snapshot without touching
// membership.
func (s *RoomState) UpdateMember(info domain.UserInfo) {
	if _, ok := s.members[info.ID]; ok {
		s.members[info.ID] = info
	}
}

// RemoveMember drops the user from the membership set. Removing the host
// does not destroy the room; that policy lives with the caller.
func (s *RoomState) RemoveMember(user domain.UserID) {
	delete(s.members, user)
}

func (s *RoomState) MemberIDs() []domain.UserID {
	return lo.Keys(s.members)
}

func (s *RoomState) MembersSnapshot() []domain.UserInfo {
	return lo.Values(s.members)
}

// Snapshot builds the full-state payload handed to late joiners.
func (s *RoomState) Snapshot() domain.SnapshotPayload {
	return domain.SnapshotPayload{
		Room:    s.info,
		Members: s.MembersSnapshot(),
		Seats:   s.seats.Snapshot(),
	}
}
