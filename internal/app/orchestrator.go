package app

import (
	"context"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

const profileFetchTimeout = 2 * time.Second

// Orchestrator is the command entry point adapters talk to. It resolves a
// session to its authenticated user and current room, forwards the command
// to that room's coordinator, and keeps the session registry in step.
type Orchestrator struct {
	Registry *Registry
	Rooms    *core.RoomManager
	Audio    core.AudioEngine
	Profiles core.ProfileStore
	Identity core.Identity

	// DestroyRoomOnHostExit destroys a room when its host's session ends.
	// When false the room persists until an explicit DestroyRoom.
	DestroyRoomOnHostExit bool
}

func (o *Orchestrator) Login(sid core.SessionID, sdkAppID int, userID domain.UserID, userSig string) (string, error) {
	user, err := domain.NewUserInfo(userID)
	if err != nil {
		return "", err
	}
	token, err := o.Identity.Login(sdkAppID, userID, userSig)
	if err != nil {
		return "", err
	}
	if profile, ok := o.fetchProfile(userID); ok {
		user = profile
	}
	o.Registry.SetUser(sid, user)
	return token, nil
}

func (o *Orchestrator) Logout(sid core.SessionID) {
	if user, ok := o.Registry.UserOf(sid); ok {
		o.Identity.Logout(user.ID)
	}
	o.leaveCurrentRoom(sid)
	o.Registry.ClearUser(sid)
}

// SetSelfProfile updates the user's display data in the profile store and on
// the live session.
func (o *Orchestrator) SetSelfProfile(sid core.SessionID, name, avatarURL string) error {
	user, err := o.Registry.SetUserProfile(sid, name, avatarURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
	defer cancel()
	return o.Profiles.SetUserInfo(ctx, user)
}

func (o *Orchestrator) CreateRoom(sid core.SessionID, roomID domain.RoomID, params domain.RoomParams) error {
	user, ok := o.Registry.UserOf(sid)
	if !ok {
		return domain.ErrNotLoggedIn
	}
	if _, err := o.Rooms.Create(roomID, user, params); err != nil {
		return err
	}
	o.Registry.SetRoom(sid, roomID)
	return nil
}

func (o *Orchestrator) DestroyRoom(sid core.SessionID) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	if err := room.Destroy(user.ID); err != nil {
		return err
	}
	o.Rooms.Remove(room.Info().ID)
	o.Registry.ClearRoomAll(room.Info().ID)
	return nil
}

func (o *Orchestrator) EnterRoom(sid core.SessionID, roomID domain.RoomID) error {
	user, ok := o.Registry.UserOf(sid)
	if !ok {
		return domain.ErrNotLoggedIn
	}
	room, err := o.Rooms.Get(roomID)
	if err != nil {
		return err
	}
	if profile, ok := o.fetchProfile(user.ID); ok {
		user = profile
	}
	if err := room.EnterRoom(user); err != nil {
		return err
	}
	o.Registry.SetRoom(sid, roomID)
	return nil
}

func (o *Orchestrator) ExitRoom(sid core.SessionID) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	if err := room.ExitRoom(user.ID); err != nil {
		return err
	}
	o.Registry.ClearRoom(sid)
	return nil
}

func (o *Orchestrator) EnterSeat(sid core.SessionID, index int) (string, error) {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return "", err
	}
	return room.EnterSeat(user.ID, index)
}

func (o *Orchestrator) LeaveSeat(sid core.SessionID) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.LeaveSeat(user.ID)
}

func (o *Orchestrator) KickSeat(sid core.SessionID, index int) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.KickSeat(user.ID, index)
}

func (o *Orchestrator) MuteSeat(sid core.SessionID, index int, mute bool) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.MuteSeat(user.ID, index, mute)
}

func (o *Orchestrator) CloseSeat(sid core.SessionID, index int, closed bool) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.CloseSeat(user.ID, index, closed)
}

func (o *Orchestrator) SendInvitation(sid core.SessionID, to domain.UserID, cmd, content string) (string, error) {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return "", err
	}
	return room.SendInvitation(user.ID, to, cmd, content)
}

func (o *Orchestrator) AcceptInvitation(sid core.SessionID, id string) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.AcceptInvitation(user.ID, id)
}

func (o *Orchestrator) RejectInvitation(sid core.SessionID, id string) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.RejectInvitation(user.ID, id)
}

func (o *Orchestrator) CancelInvitation(sid core.SessionID, id string) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.CancelInvitation(user.ID, id)
}

func (o *Orchestrator) SendRoomTextMsg(sid core.SessionID, text string) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.SendRoomTextMsg(user.ID, text)
}

func (o *Orchestrator) SendRoomCustomMsg(sid core.SessionID, cmd, text string) error {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return err
	}
	return room.SendRoomCustomMsg(user.ID, cmd, text)
}

// GetUserInfoList merges the room's cached member snapshots with fresh
// profile data when the store answers in time.
func (o *Orchestrator) GetUserInfoList(sid core.SessionID, users []domain.UserID) ([]domain.UserInfo, error) {
	room, _, err := o.currentRoom(sid)
	if err != nil {
		return nil, err
	}
	cached, err := room.UserInfoList(users)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
	defer cancel()
	ids := make([]domain.UserID, len(cached))
	for i, m := range cached {
		ids[i] = m.ID
	}
	fresh, err := o.Profiles.GetUserInfo(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Msg("profile fetch failed, serving cached snapshots")
		return cached, nil
	}
	byID := make(map[domain.UserID]domain.UserInfo, len(fresh))
	for _, p := range fresh {
		byID[p.ID] = p
	}
	for i, m := range cached {
		if p, ok := byID[m.ID]; ok {
			cached[i] = p
		}
	}
	return cached, nil
}

// OnDisconnect cleans a session up: the member exits their room, and under
// destroy-on-host-exit policy a disconnecting host takes the room down.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.leaveCurrentRoom(sid)
	o.Registry.Unbind(sid)
}

func (o *Orchestrator) leaveCurrentRoom(sid core.SessionID) {
	room, user, err := o.currentRoom(sid)
	if err != nil {
		return
	}
	if user.ID == room.Info().Host && o.DestroyRoomOnHostExit {
		if err := room.ForceDestroy(); err == nil {
			o.Rooms.Remove(room.Info().ID)
			o.Registry.ClearRoomAll(room.Info().ID)
			log.Info().Str("module", "app.orch").Int32("room", int32(room.Info().ID)).Msg("room destroyed on host exit")
		}
		return
	}
	if err := room.ExitRoom(user.ID); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Msg("exit on disconnect")
	}
	o.Registry.ClearRoom(sid)
}

func (o *Orchestrator) currentRoom(sid core.SessionID) (*core.Coordinator, domain.UserInfo, error) {
	user, ok := o.Registry.UserOf(sid)
	if !ok {
		return nil, domain.UserInfo{}, domain.ErrNotLoggedIn
	}
	roomID, ok := o.Registry.RoomOf(sid)
	if !ok {
		return nil, domain.UserInfo{}, domain.ErrRoomNotFound
	}
	room, err := o.Rooms.Get(roomID)
	if err != nil {
		return nil, domain.UserInfo{}, err
	}
	return room, user, nil
}

func (o *Orchestrator) fetchProfile(user domain.UserID) (domain.UserInfo, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
	defer cancel()
	profiles, err := o.Profiles.GetUserInfo(ctx, []domain.UserID{user})
	if err != nil || len(profiles) == 0 {
		return domain.UserInfo{}, false
	}
	return profiles[0], true
}
