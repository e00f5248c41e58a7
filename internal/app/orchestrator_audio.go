package app

import (
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

// Audio pass-through controls. These are parameter setters forwarded to the
// audio engine with no feedback into room state; an unauthenticated session
// is the only error.

func (o *Orchestrator) withUser(sid core.SessionID, fn func(user domain.UserID)) error {
	user, ok := o.Registry.UserOf(sid)
	if !ok {
		return domain.ErrNotLoggedIn
	}
	fn(user.ID)
	return nil
}

func (o *Orchestrator) MuteLocalAudio(sid core.SessionID, mute bool) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.MuteLocalAudio(u, mute) })
}

func (o *Orchestrator) StartPlayMusic(sid core.SessionID, musicID int, originalURL, accompanyURL string) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.StartPlayMusic(u, musicID, originalURL, accompanyURL) })
}

func (o *Orchestrator) StopPlayMusic(sid core.SessionID) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.StopPlayMusic(u) })
}

func (o *Orchestrator) SwitchMusicAccompanimentMode(sid core.SessionID, original bool) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.SwitchMusicAccompanimentMode(u, original) })
}

func (o *Orchestrator) SetMusicVolume(sid core.SessionID, volume int) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.SetMusicVolume(u, volume) })
}

func (o *Orchestrator) SetMusicPitch(sid core.SessionID, pitch float64) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.SetMusicPitch(u, pitch) })
}

func (o *Orchestrator) SetVoiceVolume(sid core.SessionID, volume int) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.SetVoiceVolume(u, volume) })
}

func (o *Orchestrator) SetVoiceReverbType(sid core.SessionID, reverb int) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.SetVoiceReverbType(u, reverb) })
}

func (o *Orchestrator) SetVoiceChangerType(sid core.SessionID, changer int) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.SetVoiceChangerType(u, changer) })
}

func (o *Orchestrator) EnableVoiceEarMonitor(sid core.SessionID, enable bool) error {
	return o.withUser(sid, func(u domain.UserID) { o.Audio.EnableVoiceEarMonitor(u, enable) })
}
