package domain

import "time"

type InviteState int

const (
	InvitePending InviteState = iota
	InviteAccepted
	InviteRejected
	InviteExpired
	InviteCancelled
)

func (s InviteState) String() string {
	switch s {
	case InvitePending:
		return "pending"
	case InviteAccepted:
		return "accepted"
	case InviteRejected:
		return "rejected"
	case InviteExpired:
		return "expired"
	case InviteCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state admits no further transition.
func (s InviteState) Terminal() bool { return s != InvitePending }

// CmdRequestTakeSeat is the invitation command used internally for the
// approval path of rooms created with RequiresApproval. Other commands are
// application-defined and opaque to the room core.
const CmdRequestTakeSeat = "request-take-seat"

// Invitation is one asynchronous handshake between two members. Once the
// state leaves pending it never changes again.
type Invitation struct {
	ID        string      `json:"id"`
	From      UserID      `json:"from"`
	To        UserID      `json:"to"`
	Cmd       string      `json:"cmd"`
	Content   string      `json:"content"`
	State     InviteState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
}
