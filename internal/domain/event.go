package domain

type EventKind string

// Room-ordered events carry the room version assigned at commit time.
// Point-to-point notifications (invitations, audio control) carry version 0
// and stay outside the room's gap-detection sequence.
const (
	EventSeatListChanged EventKind = "seat_list_changed"
	EventAnchorEnterSeat EventKind = "anchor_enter_seat"
	EventAnchorLeaveSeat EventKind = "anchor_leave_seat"
	EventSeatMuted       EventKind = "seat_muted"
	EventSeatClosed      EventKind = "seat_closed"
	EventRoomInfoChanged EventKind = "room_info_changed"
	EventRoomDestroyed   EventKind = "room_destroyed"
	EventAudienceEnter   EventKind = "audience_enter"
	EventAudienceExit    EventKind = "audience_exit"
	EventTextMessage     EventKind = "text_message"
	EventCustomMessage   EventKind = "custom_message"
	EventRoomSnapshot    EventKind = "room_snapshot"

	EventInviteReceived  EventKind = "invitation_received"
	EventInviteAccepted  EventKind = "invitee_accepted"
	EventInviteRejected  EventKind = "invitee_rejected"
	EventInviteCancelled EventKind = "invitation_cancelled"
	EventInviteTimeout   EventKind = "invitation_timeout"

	EventAudioControl EventKind = "audio_control"
)

// Event is an immutable record of one committed room-state change.
type Event struct {
	Version uint64    `json:"version,omitempty"`
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload,omitempty"`
}

type SeatListPayload struct {
	Seats []Seat `json:"seats"`
}

type AnchorSeatPayload struct {
	SeatIndex int      `json:"seat_index"`
	User      UserInfo `json:"user"`
}

type SeatMutePayload struct {
	SeatIndex int    `json:"seat_index"`
	Muted     bool   `json:"muted"`
	Seats     []Seat `json:"seats"`
}

// SeatClosePayload reports a close/open toggle. When closing evicted an
// occupant, Evicted names them; both facts travel in this one event.
type SeatClosePayload struct {
	SeatIndex int    `json:"seat_index"`
	Closed    bool   `json:"closed"`
	Evicted   UserID `json:"evicted,omitempty"`
	Seats     []Seat `json:"seats"`
}

type AudiencePayload struct {
	User UserInfo `json:"user"`
}

type MessagePayload struct {
	From UserInfo `json:"from"`
	Cmd  string   `json:"cmd,omitempty"`
	Text string   `json:"text"`
}

type InvitationPayload struct {
	Invitation Invitation `json:"invitation"`
}

// SnapshotPayload is the full room state handed to a late joiner. Version on
// the enclosing event tells the client which delta to expect next.
type SnapshotPayload struct {
	Room    RoomInfo   `json:"room"`
	Members []UserInfo `json:"members"`
	Seats   []Seat     `json:"seats"`
}

type AudioControlPayload struct {
	Op    string  `json:"op"`
	On    bool    `json:"on,omitempty"`
	Value float64 `json:"value,omitempty"`
	Extra any     `json:"extra,omitempty"`
}
