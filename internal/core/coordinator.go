package core

import (
	"strconv"
	"time"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

type command struct {
	fn  func() error
	res chan error
}

// Coordinator owns one room: its state triple (RoomState, seat table,
// InvitationRegistry) is mutated only from the single command loop below, so
// exactly one command is validated-and-applied at a time. Coordinators of
// different rooms run fully in parallel.
//
// A caller is answered once its mutation is committed and the resulting
// events are queued for delivery; it never waits on slow receivers.
type Coordinator struct {
	state   *RoomState
	invites *InvitationRegistry
	bcast   *EventBroadcaster
	audio   AudioEngine

	cmds      chan command
	stopped   chan struct{}
	destroyed bool
}

type CoordinatorDeps struct {
	Signaling  Signaling
	Audio      AudioEngine
	InviteTTL  time.Duration
	EventLogSz int
	MaxSeats   int
}

// NewCoordinator creates a live room with the host as its first member and
// starts the command loop. The host receives the initial snapshot.
func NewCoordinator(id domain.RoomID, host domain.UserInfo, params domain.RoomParams, deps CoordinatorDeps) *Coordinator {
	c := &Coordinator{
		state:   NewRoomState(id, host.ID, params),
		bcast:   NewEventBroadcaster(id, deps.Signaling, deps.EventLogSz),
		audio:   deps.Audio,
		cmds:    make(chan command),
		stopped: make(chan struct{}),
	}
	c.invites = NewInvitationRegistry(deps.InviteTTL, c.notifyExpired)

	// No concurrent commands exist yet; mutate directly.
	c.state.AddMember(host)
	v := c.state.NextVersion()
	c.bcast.record(domain.Event{Version: v, Kind: domain.EventRoomInfoChanged, Payload: c.state.Info()})
	c.bcast.SendTo(host.ID, domain.Event{Version: v, Kind: domain.EventRoomSnapshot, Payload: c.state.Snapshot()})

	go c.run()
	log.Info().Str("module", "core.room").Int32("room", int32(id)).Str("host", string(host.ID)).Int("seats", params.SeatCount).Msg("room created")
	return c
}

func (c *Coordinator) run() {
	for cmd := range c.cmds {
		cmd.res <- cmd.fn()
		if c.destroyed {
			close(c.stopped)
			return
		}
	}
}

// do serializes fn against the room's command queue and waits for commit.
func (c *Coordinator) do(fn func() error) error {
	res := make(chan error, 1)
	select {
	case <-c.stopped:
		return domain.ErrRoomDestroyed
	case c.cmds <- command{fn: fn, res: res}:
	}
	select {
	case err := <-res:
		return err
	case <-c.stopped:
		select {
		case err := <-res:
			return err
		default:
			return domain.ErrRoomDestroyed
		}
	}
}

func (c *Coordinator) Info() domain.RoomInfo { return c.state.Info() }

// MemberCount is a point-in-time reading for room listings.
func (c *Coordinator) MemberCount() int {
	n := 0
	_ = c.do(func() error {
		n = c.state.MemberCount()
		return nil
	})
	return n
}

// EnterRoom admits a listener. The joiner gets a full snapshot at the commit
// version; everyone else gets the audience_enter delta, so the first delta
// the joiner observes afterwards is version+1.
func (c *Coordinator) EnterRoom(user domain.UserInfo) error {
	return c.do(func() error {
		if c.state.IsMember(user.ID) {
			// Re-entry after reconnect: refresh the cached profile and
			// rebuild the member's state from the snapshot.
			c.state.UpdateMember(user)
			c.bcast.SendTo(user.ID, domain.Event{Version: c.state.Version(), Kind: domain.EventRoomSnapshot, Payload: c.state.Snapshot()})
			return nil
		}
		others := c.state.MemberIDs()
		c.state.AddMember(user)
		v := c.state.NextVersion()
		c.bcast.Publish(domain.Event{Version: v, Kind: domain.EventAudienceEnter, Payload: domain.AudiencePayload{User: user}}, others)
		c.bcast.SendTo(user.ID, domain.Event{Version: v, Kind: domain.EventRoomSnapshot, Payload: c.state.Snapshot()})
		return nil
	})
}

// ExitRoom removes a member, vacating their seat first if they hold one.
func (c *Coordinator) ExitRoom(user domain.UserID) error {
	return c.do(func() error {
		member, ok := c.state.Member(user)
		if !ok {
			return domain.ErrNotAMember
		}
		if idx, seated := c.state.Seats().SeatOf(user); seated {
			if _, err := c.state.Seats().Vacate(idx); err == nil {
				c.publishSeatLeft(idx, member)
			}
		}
		c.state.RemoveMember(user)
		v := c.state.NextVersion()
		c.bcast.Publish(domain.Event{Version: v, Kind: domain.EventAudienceExit, Payload: domain.AudiencePayload{User: member}}, c.state.MemberIDs())
		return nil
	})
}

// EnterSeat seats the caller, or, in an approval-required room, opens a
// request-take-seat handshake toward the host instead of committing. The
// returned invitation id is empty when the caller was seated directly.
func (c *Coordinator) EnterSeat(user domain.UserID, index int) (string, error) {
	var inviteID string
	err := c.do(func() error {
		if err := c.state.Authorize(user, ActionEnterSeat); err != nil {
			return err
		}
		if c.state.RequiresApproval() && user != c.state.Host() {
			seat, err := c.state.Seats().Get(index)
			if err != nil {
				return err
			}
			if seat.Closed {
				return domain.ErrSeatClosed
			}
			if !seat.Vacant() {
				return domain.ErrSeatOccupied
			}
			if _, seated := c.state.Seats().SeatOf(user); seated {
				return domain.ErrUserAlreadySeated
			}
			inv := c.invites.Create(user, c.state.Host(), domain.CmdRequestTakeSeat, strconv.Itoa(index))
			inviteID = inv.ID
			c.bcast.SendTo(inv.To, domain.Event{Kind: domain.EventInviteReceived, Payload: domain.InvitationPayload{Invitation: inv}})
			return nil
		}
		return c.commitOccupy(user, index)
	})
	return inviteID, err
}

func (c *Coordinator) commitOccupy(user domain.UserID, index int) error {
	seat, err := c.state.Seats().Occupy(index, user)
	if err != nil {
		return err
	}
	member, _ := c.state.Member(user)
	all := c.state.MemberIDs()
	v := c.state.NextVersion()
	c.bcast.Publish(domain.Event{Version: v, Kind: domain.EventSeatListChanged, Payload: domain.SeatListPayload{Seats: c.state.Seats().Snapshot()}}, all)
	v = c.state.NextVersion()
	c.bcast.Publish(domain.Event{Version: v, Kind: domain.EventAnchorEnterSeat, Payload: domain.AnchorSeatPayload{SeatIndex: seat.Index, User: member}}, all)
	c.audio.StartCapture(user)
	return nil
}

func (c *Coordinator) publishSeatLeft(index int, member domain.UserInfo) {
	all := c.state.MemberIDs()
	v := c.state.NextVersion()
	c.bcast.Publish(domain.Event{Version: v, Kind: domain.EventSeatListChanged, Payload: domain.SeatListPayload{Seats: c.state.Seats().Snapshot()}}, all)
	v = c.state.NextVersion()
	c.bcast.Publish(domain.Event{Version: v, Kind: domain.EventAnchorLeaveSeat, Payload: domain.AnchorSeatPayload{SeatIndex: index, User: member}}, all)
	c.audio.StopCapture(member.ID)
}

// LeaveSeat vacates the caller's own seat.
func (c *Coordinator) LeaveSeat(user domain.UserID) error {
	return c.do(func() error {
		if err := c.state.Authorize(user, ActionLeaveSeat); err != nil {
			return err
		}
		idx, seated := c.state.Seats().SeatOf(user)
		if !seated {
			return domain.ErrSeatEmpty
		}
		member, _ := c.state.Member(user)
		if _, err := c.state.Seats().Vacate(idx); err != nil {
			return err
		}
		c.publishSeatLeft(idx, member)
		return nil
	})
}

// KickSeat forces the occupant of the seat off. Host only.
func (c *Coordinator) KickSeat(actor domain.UserID, index int) error {
	return c.do(func() error {
		if err := c.state.Authorize(actor, ActionKickSeat); err != nil {
			return err
		}
		evicted, err := c.state.Seats().Vacate(index)
		if err != nil {
			return err
		}
		member, _ := c.state.Member(evicted)
		if member.ID == "" {
			member = domain.UserInfo{ID: evicted}
		}
		c.publishSeatLeft(index, member)
		return nil
	})
}

// MuteSeat toggles the seat's mute flag. Idempotent: a toggle to the current
// value commits nothing and emits nothing.
func (c *Coordinator) MuteSeat(actor domain.UserID, index int, mute bool) error {
	return c.do(func() error {
		if err := c.state.Authorize(actor, ActionMuteSeat); err != nil {
			return err
		}
		seat, changed, err := c.state.Seats().SetMute(index, mute)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		v := c.state.NextVersion()
		c.bcast.Publish(domain.Event{Version: v, Kind: domain.EventSeatMuted, Payload: domain.SeatMutePayload{
			SeatIndex: index, Muted: mute, Seats: c.state.Seats().Snapshot(),
		}}, c.state.MemberIDs())
		if !seat.Vacant() {
			c.audio.SetMute(seat.User, mute)
		}
		return nil
	})
}

// CloseSeat closes or reopens the seat. Closing an occupied seat evicts the
// occupant in the same mutation; both facts travel in the one event.
func (c *Coordinator) CloseSeat(actor domain.UserID, index int, closed bool) error {
	return c.do(func() error {
		if err := c.state.Authorize(actor, ActionCloseSeat); err != nil {
			return err
		}
		_, changed, evicted, err := c.state.Seats().SetClosed(index, closed)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		v := c.state.NextVersion()
		c.bcast.Publish(domain.Event{Version: v, Kind: domain.EventSeatClosed, Payload: domain.SeatClosePayload{
			SeatIndex: index, Closed: closed, Evicted: evicted, Seats: c.state.Seats().Snapshot(),
		}}, c.state.MemberIDs())
		if evicted != "" {
			c.audio.StopCapture(evicted)
		}
		return nil
	})
}

// SendInvitation opens a handshake toward another member and returns its id
// immediately; resolution arrives asynchronously.
func (c *Coordinator) SendInvitation(from, to domain.UserID, cmd, content string) (string, error) {
	var id string
	err := c.do(func() error {
		if err := c.state.Authorize(from, ActionSendInvitation); err != nil {
			return err
		}
		if !c.state.IsMember(to) {
			return domain.ErrNotAMember
		}
		inv := c.invites.Create(from, to, cmd, content)
		id = inv.ID
		c.bcast.SendTo(to, domain.Event{Kind: domain.EventInviteReceived, Payload: domain.InvitationPayload{Invitation: inv}})
		return nil
	})
	return id, err
}

// AcceptInvitation resolves the handshake in the invitee's favor. Accepting
// a request-take-seat re-validates and commits the occupy; the seat may have
// been taken since the request was made.
func (c *Coordinator) AcceptInvitation(actor domain.UserID, id string) error {
	return c.do(func() error {
		if err := c.checkInvitee(actor, id); err != nil {
			return err
		}
		inv, err := c.invites.Resolve(id, domain.InviteAccepted)
		if err != nil {
			return err
		}
		c.bcast.SendTo(inv.From, domain.Event{Kind: domain.EventInviteAccepted, Payload: domain.InvitationPayload{Invitation: inv}})
		if inv.Cmd == domain.CmdRequestTakeSeat {
			index, convErr := strconv.Atoi(inv.Content)
			if convErr != nil {
				return domain.ErrSeatIndex
			}
			if !c.state.IsMember(inv.From) {
				return domain.ErrNotAMember
			}
			return c.commitOccupy(inv.From, index)
		}
		return nil
	})
}

// RejectInvitation resolves the handshake against the inviter.
func (c *Coordinator) RejectInvitation(actor domain.UserID, id string) error {
	return c.do(func() error {
		if err := c.checkInvitee(actor, id); err != nil {
			return err
		}
		inv, err := c.invites.Resolve(id, domain.InviteRejected)
		if err != nil {
			return err
		}
		c.bcast.SendTo(inv.From, domain.Event{Kind: domain.EventInviteRejected, Payload: domain.InvitationPayload{Invitation: inv}})
		return nil
	})
}

// CancelInvitation withdraws a pending handshake; only its sender may do so.
func (c *Coordinator) CancelInvitation(actor domain.UserID, id string) error {
	return c.do(func() error {
		inv, err := c.invites.Get(id)
		if err != nil {
			return err
		}
		if inv.From != actor {
			return domain.ErrUnknownInvitation
		}
		inv, err = c.invites.Resolve(id, domain.InviteCancelled)
		if err != nil {
			return err
		}
		c.bcast.SendTo(inv.To, domain.Event{Kind: domain.EventInviteCancelled, Payload: domain.InvitationPayload{Invitation: inv}})
		return nil
	})
}

// checkInvitee hides other users' invitations behind ErrUnknownInvitation.
func (c *Coordinator) checkInvitee(actor domain.UserID, id string) error {
	inv, err := c.invites.Get(id)
	if err != nil {
		return err
	}
	if inv.To != actor {
		return domain.ErrUnknownInvitation
	}
	return nil
}

// notifyExpired runs from the registry's timer goroutine after a timeout won
// the resolve race. Both parties learn about it; no room state is touched.
func (c *Coordinator) notifyExpired(inv domain.Invitation) {
	ev := domain.Event{Kind: domain.EventInviteTimeout, Payload: domain.InvitationPayload{Invitation: inv}}
	c.bcast.SendTo(inv.From, ev)
	c.bcast.SendTo(inv.To, ev)
}

// SendRoomTextMsg broadcasts a chat line. Messages append to the event log
// and take a version like any other commit, but mutate no seat state.
func (c *Coordinator) SendRoomTextMsg(from domain.UserID, text string) error {
	return c.publishMessage(from, domain.EventTextMessage, "", text)
}

// SendRoomCustomMsg broadcasts an application-defined signal (gifts, likes).
func (c *Coordinator) SendRoomCustomMsg(from domain.UserID, cmd, text string) error {
	return c.publishMessage(from, domain.EventCustomMessage, cmd, text)
}

func (c *Coordinator) publishMessage(from domain.UserID, kind domain.EventKind, cmd, text string) error {
	return c.do(func() error {
		if err := c.state.Authorize(from, ActionSendMessage); err != nil {
			return err
		}
		member, _ := c.state.Member(from)
		v := c.state.NextVersion()
		c.bcast.Publish(domain.Event{Version: v, Kind: kind, Payload: domain.MessagePayload{From: member, Cmd: cmd, Text: text}}, c.state.MemberIDs())
		return nil
	})
}

// UserInfoList returns cached member snapshots; a nil filter means everyone.
func (c *Coordinator) UserInfoList(users []domain.UserID) ([]domain.UserInfo, error) {
	var out []domain.UserInfo
	err := c.do(func() error {
		if users == nil {
			out = c.state.MembersSnapshot()
			return nil
		}
		for _, id := range users {
			if m, ok := c.state.Member(id); ok {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

// Destroy tears the room down on the host's behalf.
func (c *Coordinator) Destroy(actor domain.UserID) error {
	return c.do(func() error {
		if err := c.state.Authorize(actor, ActionDestroyRoom); err != nil {
			return err
		}
		c.teardown()
		return nil
	})
}

// ForceDestroy tears the room down without an acting member, e.g. when the
// host disconnects under destroy-on-host-exit policy.
func (c *Coordinator) ForceDestroy() error {
	return c.do(func() error {
		c.teardown()
		return nil
	})
}

// teardown runs inside the command loop. Outstanding invitations are forced
// to cancelled, every member is told, and the loop stops; queued and later
// commands fail with ErrRoomDestroyed.
func (c *Coordinator) teardown() {
	for _, inv := range c.invites.CancelAll() {
		ev := domain.Event{Kind: domain.EventInviteCancelled, Payload: domain.InvitationPayload{Invitation: inv}}
		c.bcast.SendTo(inv.From, ev)
		c.bcast.SendTo(inv.To, ev)
	}
	for _, seat := range c.state.Seats().Snapshot() {
		if !seat.Vacant() {
			c.audio.StopCapture(seat.User)
		}
	}
	v := c.state.NextVersion()
	c.bcast.PublishRoom(domain.Event{Version: v, Kind: domain.EventRoomDestroyed, Payload: c.state.Info()})
	c.destroyed = true
	log.Info().Str("module", "core.room").Int32("room", int32(c.state.Info().ID)).Msg("room destroyed")
}
