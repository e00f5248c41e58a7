package core

import (
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T, params domain.RoomParams, ttl time.Duration) (*Coordinator, *fakeSignaling, *fakeAudio) {
	t.Helper()
	sig := newFakeSignaling()
	aud := &fakeAudio{}
	room := NewCoordinator(1001, domain.UserInfo{ID: "host", Name: "Host"}, params, CoordinatorDeps{
		Signaling: sig,
		Audio:     aud,
		InviteTTL: ttl,
	})
	t.Cleanup(func() { _ = room.ForceDestroy() })
	return room, sig, aud
}

func eightSeats() domain.RoomParams {
	return domain.RoomParams{Name: "karaoke", SeatCount: 8}
}

// readSeats inspects the live table through the command loop.
func readSeats(c *Coordinator) []domain.Seat {
	var seats []domain.Seat
	_ = c.do(func() error {
		seats = c.state.Seats().Snapshot()
		return nil
	})
	return seats
}

func TestCoordinator_ScenarioA_HostTakesSeat(t *testing.T) {
	room, sig, aud := newTestRoom(t, eightSeats(), time.Minute)

	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))

	inviteID, err := room.EnterSeat("host", 0)
	require.NoError(t, err)
	require.Empty(t, inviteID)

	for _, user := range []domain.UserID{"host", "u2"} {
		lists := sig.ofKind(user, domain.EventSeatListChanged)
		require.Len(t, lists, 1, "user %s", user)
		payload := lists[0].Payload.(domain.SeatListPayload)
		require.Equal(t, domain.UserID("host"), payload.Seats[0].User)

		anchors := sig.ofKind(user, domain.EventAnchorEnterSeat)
		require.Len(t, anchors, 1)
		anchor := anchors[0].Payload.(domain.AnchorSeatPayload)
		require.Equal(t, 0, anchor.SeatIndex)
		require.Equal(t, domain.UserID("host"), anchor.User.ID)
	}
	require.Contains(t, aud.snapshot(), "start_capture:host")
}

func TestCoordinator_ScenarioB_KickSeatRequiresHost(t *testing.T) {
	room, sig, _ := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))
	_, err := room.EnterSeat("host", 0)
	require.NoError(t, err)

	before := len(sig.eventsFor("u2"))
	err = room.KickSeat("u2", 0)
	require.ErrorIs(t, err, domain.ErrNotHost)

	require.Equal(t, domain.UserID("host"), readSeats(room)[0].User)
	require.Len(t, sig.eventsFor("u2"), before)
}

func TestCoordinator_ScenarioC_InvitationExpires(t *testing.T) {
	room, sig, _ := newTestRoom(t, eightSeats(), 20*time.Millisecond)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u3"}))

	id, err := room.SendInvitation("host", "u3", "invite-to-sing", "song-42")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	received := sig.ofKind("u3", domain.EventInviteReceived)
	require.Len(t, received, 1)
	require.Equal(t, id, received[0].Payload.(domain.InvitationPayload).Invitation.ID)

	require.Eventually(t, func() bool {
		return len(sig.ofKind("host", domain.EventInviteTimeout)) == 1
	}, time.Second, 5*time.Millisecond)

	err = room.AcceptInvitation("u3", id)
	require.ErrorIs(t, err, domain.ErrAlreadyResolved)
}

func TestCoordinator_ScenarioD_CloseOccupiedSeat(t *testing.T) {
	room, sig, aud := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u4"}))
	_, err := room.EnterSeat("u4", 2)
	require.NoError(t, err)

	require.NoError(t, room.CloseSeat("host", 2, true))

	closes := sig.ofKind("u4", domain.EventSeatClosed)
	require.Len(t, closes, 1)
	payload := closes[0].Payload.(domain.SeatClosePayload)
	require.Equal(t, 2, payload.SeatIndex)
	require.True(t, payload.Closed)
	require.Equal(t, domain.UserID("u4"), payload.Evicted)

	seat := readSeats(room)[2]
	require.True(t, seat.Closed)
	require.True(t, seat.Vacant())
	require.Contains(t, aud.snapshot(), "stop_capture:u4")
}

func TestCoordinator_MuteSeatIdempotent(t *testing.T) {
	room, sig, aud := newTestRoom(t, eightSeats(), time.Minute)
	_, err := room.EnterSeat("host", 1)
	require.NoError(t, err)

	require.NoError(t, room.MuteSeat("host", 1, true))
	require.NoError(t, room.MuteSeat("host", 1, true))

	mutes := sig.ofKind("host", domain.EventSeatMuted)
	require.Len(t, mutes, 1)
	require.True(t, mutes[0].Payload.(domain.SeatMutePayload).Muted)
	require.Equal(t, []string{"start_capture:host", "set_mute:host:true"}, aud.snapshot())
}

// A member entering after version v gets a snapshot stamped v and then the
// deltas v+1, v+2, ... with no gap and no duplicate.
func TestCoordinator_LateJoinerVersionContinuity(t *testing.T) {
	room, sig, _ := newTestRoom(t, eightSeats(), time.Minute)

	_, err := room.EnterSeat("host", 0)
	require.NoError(t, err)
	require.NoError(t, room.MuteSeat("host", 0, true))

	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "late"}))

	events := sig.eventsFor("late")
	require.NotEmpty(t, events)
	snapshot := events[0]
	require.Equal(t, domain.EventRoomSnapshot, snapshot.Kind)
	snapPayload := snapshot.Payload.(domain.SnapshotPayload)
	require.Equal(t, domain.UserID("host"), snapPayload.Seats[0].User)
	require.True(t, snapPayload.Seats[0].Muted)

	require.NoError(t, room.SendRoomTextMsg("host", "hello"))
	require.NoError(t, room.MuteSeat("host", 0, false))

	events = sig.eventsFor("late")
	next := snapshot.Version
	for _, ev := range events[1:] {
		if ev.Version == 0 {
			continue
		}
		next++
		require.Equal(t, next, ev.Version, "gap or duplicate at kind %s", ev.Kind)
	}
	require.Equal(t, snapshot.Version+2, next)
}

func TestCoordinator_ApprovalFlow(t *testing.T) {
	params := eightSeats()
	params.RequiresApproval = true
	room, sig, aud := newTestRoom(t, params, time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))

	inviteID, err := room.EnterSeat("u2", 3)
	require.NoError(t, err)
	require.NotEmpty(t, inviteID)

	// Nothing committed yet.
	require.True(t, readSeats(room)[3].Vacant())
	require.Empty(t, sig.ofKind("u2", domain.EventSeatListChanged))

	received := sig.ofKind("host", domain.EventInviteReceived)
	require.Len(t, received, 1)
	inv := received[0].Payload.(domain.InvitationPayload).Invitation
	require.Equal(t, domain.CmdRequestTakeSeat, inv.Cmd)
	require.Equal(t, domain.UserID("u2"), inv.From)

	require.NoError(t, room.AcceptInvitation("host", inviteID))

	require.Equal(t, domain.UserID("u2"), readSeats(room)[3].User)
	require.Len(t, sig.ofKind("u2", domain.EventInviteAccepted), 1)
	require.Len(t, sig.ofKind("u2", domain.EventAnchorEnterSeat), 1)
	require.Contains(t, aud.snapshot(), "start_capture:u2")
}

func TestCoordinator_ApprovalReject(t *testing.T) {
	params := eightSeats()
	params.RequiresApproval = true
	room, sig, _ := newTestRoom(t, params, time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))

	inviteID, err := room.EnterSeat("u2", 3)
	require.NoError(t, err)

	require.NoError(t, room.RejectInvitation("host", inviteID))

	require.True(t, readSeats(room)[3].Vacant())
	require.Len(t, sig.ofKind("u2", domain.EventInviteRejected), 1)
}

// The seat may be taken between request and approval; accept re-validates.
func TestCoordinator_ApprovalSeatTakenMeanwhile(t *testing.T) {
	params := eightSeats()
	params.RequiresApproval = true
	room, _, _ := newTestRoom(t, params, time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))

	inviteID, err := room.EnterSeat("u2", 3)
	require.NoError(t, err)

	// Host takes the requested seat directly.
	_, err = room.EnterSeat("host", 3)
	require.NoError(t, err)

	err = room.AcceptInvitation("host", inviteID)
	require.ErrorIs(t, err, domain.ErrSeatOccupied)
	require.Equal(t, domain.UserID("host"), readSeats(room)[3].User)
}

func TestCoordinator_OnlyInviteeMayResolve(t *testing.T) {
	room, _, _ := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u3"}))

	id, err := room.SendInvitation("host", "u3", "invite-to-sing", "")
	require.NoError(t, err)

	require.ErrorIs(t, room.AcceptInvitation("u2", id), domain.ErrUnknownInvitation)
	require.ErrorIs(t, room.CancelInvitation("u2", id), domain.ErrUnknownInvitation)
	require.NoError(t, room.CancelInvitation("host", id))
}

func TestCoordinator_ExitRoomVacatesSeat(t *testing.T) {
	room, sig, aud := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))
	_, err := room.EnterSeat("u2", 1)
	require.NoError(t, err)

	require.NoError(t, room.ExitRoom("u2"))

	require.True(t, readSeats(room)[1].Vacant())
	require.Len(t, sig.ofKind("host", domain.EventAnchorLeaveSeat), 1)
	require.Len(t, sig.ofKind("host", domain.EventAudienceExit), 1)
	require.Contains(t, aud.snapshot(), "stop_capture:u2")

	require.ErrorIs(t, room.ExitRoom("u2"), domain.ErrNotAMember)
}

func TestCoordinator_MessagesRequireMembership(t *testing.T) {
	room, sig, _ := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))

	require.ErrorIs(t, room.SendRoomTextMsg("stranger", "hi"), domain.ErrNotAMember)

	require.NoError(t, room.SendRoomTextMsg("u2", "hello room"))
	require.NoError(t, room.SendRoomCustomMsg("u2", "gift", "rose"))

	texts := sig.ofKind("host", domain.EventTextMessage)
	require.Len(t, texts, 1)
	msg := texts[0].Payload.(domain.MessagePayload)
	require.Equal(t, domain.UserID("u2"), msg.From.ID)
	require.Equal(t, "hello room", msg.Text)
	require.NotZero(t, texts[0].Version)

	require.Len(t, sig.ofKind("u2", domain.EventCustomMessage), 1)
}

func TestCoordinator_DestroyRoom(t *testing.T) {
	room, sig, aud := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u3"}))
	_, err := room.EnterSeat("u2", 1)
	require.NoError(t, err)
	id, err := room.SendInvitation("host", "u3", "invite-to-sing", "")
	require.NoError(t, err)

	require.ErrorIs(t, room.Destroy("u2"), domain.ErrNotHost)
	require.NoError(t, room.Destroy("host"))

	require.Len(t, sig.ofKind("u2", domain.EventRoomDestroyed), 1)
	require.Len(t, sig.ofKind("u3", domain.EventInviteCancelled), 1)
	require.Contains(t, aud.snapshot(), "stop_capture:u2")

	// The loop is gone; everything fails RoomDestroyed now.
	require.ErrorIs(t, room.SendRoomTextMsg("host", "x"), domain.ErrRoomDestroyed)
	_, err = room.EnterSeat("host", 0)
	require.ErrorIs(t, err, domain.ErrRoomDestroyed)
	require.ErrorIs(t, room.AcceptInvitation("u3", id), domain.ErrRoomDestroyed)
}

func TestCoordinator_ReEntryResendsSnapshot(t *testing.T) {
	room, sig, _ := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))

	require.Len(t, sig.ofKind("u2", domain.EventRoomSnapshot), 2)
	last, ok := sig.lastFor("u2")
	require.True(t, ok)
	require.Equal(t, domain.EventRoomSnapshot, last.Kind)
	// The host saw exactly one audience_enter.
	require.Len(t, sig.ofKind("host", domain.EventAudienceEnter), 1)
}

func TestCoordinator_ConcurrentSeatRace(t *testing.T) {
	room, _, _ := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2"}))
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u3"}))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, user := range []domain.UserID{"u2", "u3"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = room.EnterSeat(user, 4)
		}()
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			require.ErrorIs(t, err, domain.ErrSeatOccupied)
			lost++
		}
	}
	require.Equal(t, 1, won)
	require.Equal(t, 1, lost)
	require.False(t, readSeats(room)[4].Vacant())
}

func TestCoordinator_UserInfoList(t *testing.T) {
	room, _, _ := newTestRoom(t, eightSeats(), time.Minute)
	require.NoError(t, room.EnterRoom(domain.UserInfo{ID: "u2", Name: "Two"}))

	all, err := room.UserInfoList(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	some, err := room.UserInfoList([]domain.UserID{"u2", "ghost"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	require.Equal(t, "Two", some[0].Name)
}
