package core

import (
	"context"

	"github.com/dkeye/Karaoke/internal/domain"
)

type SessionID string

// Signaling is the external message transport. It is assumed reliable and
// sender-order-preserving but possibly slow; delivery failures are
// transport-level and never roll back a committed room mutation.
type Signaling interface {
	SendToUser(user domain.UserID, ev domain.Event) error
	BroadcastToRoom(room domain.RoomID, ev domain.Event) error
}

// AudioEngine is the external audio collaborator. Every call is
// fire-and-forget; nothing here feeds back into room state.
type AudioEngine interface {
	StartCapture(user domain.UserID)
	StopCapture(user domain.UserID)
	SetMute(user domain.UserID, mute bool)

	MuteLocalAudio(user domain.UserID, mute bool)
	StartPlayMusic(user domain.UserID, musicID int, originalURL, accompanyURL string)
	StopPlayMusic(user domain.UserID)
	SwitchMusicAccompanimentMode(user domain.UserID, original bool)
	SetMusicVolume(user domain.UserID, volume int)
	SetMusicPitch(user domain.UserID, pitch float64)
	SetVoiceVolume(user domain.UserID, volume int)
	SetVoiceReverbType(user domain.UserID, reverb int)
	SetVoiceChangerType(user domain.UserID, changer int)
	EnableVoiceEarMonitor(user domain.UserID, enable bool)
}

// ProfileStore supplies display data for members. Failures degrade to
// missing display fields and must never block a room command.
type ProfileStore interface {
	GetUserInfo(ctx context.Context, users []domain.UserID) ([]domain.UserInfo, error)
	SetUserInfo(ctx context.Context, info domain.UserInfo) error
}

// Identity authenticates sessions. After a successful login the room core
// trusts the session's user id.
type Identity interface {
	Login(sdkAppID int, user domain.UserID, userSig string) (token string, err error)
	Verify(token string) (domain.UserID, error)
	Logout(user domain.UserID)
}
