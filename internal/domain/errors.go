package domain

import "errors"

var (
	ErrNotHost           = errors.New("actor is not the room host")
	ErrNotAMember        = errors.New("actor is not a room member")
	ErrSeatIndex         = errors.New("seat index out of range")
	ErrSeatOccupied      = errors.New("seat already occupied")
	ErrSeatEmpty         = errors.New("seat is empty")
	ErrSeatClosed        = errors.New("seat is closed")
	ErrUserAlreadySeated = errors.New("user already occupies a seat")
	ErrUnknownInvitation = errors.New("unknown invitation id")
	ErrAlreadyResolved   = errors.New("invitation already resolved")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomExists        = errors.New("room already exists")
	ErrRoomDestroyed     = errors.New("room destroyed")
	ErrNotLoggedIn       = errors.New("session is not logged in")
	ErrTransport         = errors.New("transport failure")
	ErrRateLimited       = errors.New("too many messages")
)

// Wire codes for the command result contract. 0 means success; everything
// else identifies one error kind. Codes are stable, clients match on them.
const (
	CodeOK                = 0
	CodeNotHost           = 1001
	CodeNotAMember        = 1002
	CodeSeatIndex         = 1010
	CodeSeatOccupied      = 1011
	CodeSeatEmpty         = 1012
	CodeSeatClosed        = 1013
	CodeUserAlreadySeated = 1014
	CodeUnknownInvitation = 1020
	CodeAlreadyResolved   = 1021
	CodeRoomNotFound      = 1030
	CodeRoomExists        = 1031
	CodeRoomDestroyed     = 1032
	CodeNotLoggedIn       = 1040
	CodeTransport         = 1050
	CodeRateLimited       = 1060
	CodeInternal          = 1099
)

var errCodes = map[error]int{
	ErrNotHost:           CodeNotHost,
	ErrNotAMember:        CodeNotAMember,
	ErrSeatIndex:         CodeSeatIndex,
	ErrSeatOccupied:      CodeSeatOccupied,
	ErrSeatEmpty:         CodeSeatEmpty,
	ErrSeatClosed:        CodeSeatClosed,
	ErrUserAlreadySeated: CodeUserAlreadySeated,
	ErrUnknownInvitation: CodeUnknownInvitation,
	ErrAlreadyResolved:   CodeAlreadyResolved,
	ErrRoomNotFound:      CodeRoomNotFound,
	ErrRoomExists:        CodeRoomExists,
	ErrRoomDestroyed:     CodeRoomDestroyed,
	ErrNotLoggedIn:       CodeNotLoggedIn,
	ErrTransport:         CodeTransport,
	ErrRateLimited:       CodeRateLimited,
}

// CodeOf maps an error to its wire code. Unknown errors map to CodeInternal
// so that no failure ever reaches a client as code 0.
func CodeOf(err error) int {
	if err == nil {
		return CodeOK
	}
	for sentinel, code := range errCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeInternal
}
