package audio

import (
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

// Engine implements core.AudioEngine by forwarding control frames to the
// target user's own client over the signaling channel; capture and effect
// processing happen client-side. Everything is fire-and-forget.
type Engine struct {
	signaling core.Signaling
}

func NewEngine(signaling core.Signaling) *Engine {
	return &Engine{signaling: signaling}
}

func (e *Engine) send(user domain.UserID, p domain.AudioControlPayload) {
	ev := domain.Event{Kind: domain.EventAudioControl, Payload: p}
	if err := e.signaling.SendToUser(user, ev); err != nil {
		log.Debug().Err(err).Str("module", "audio").Str("user", string(user)).Str("op", p.Op).Msg("control not delivered")
	}
}

func (e *Engine) StartCapture(user domain.UserID) {
	e.send(user, domain.AudioControlPayload{Op: "start_capture", On: true})
}

func (e *Engine) StopCapture(user domain.UserID) {
	e.send(user, domain.AudioControlPayload{Op: "stop_capture"})
}

func (e *Engine) SetMute(user domain.UserID, mute bool) {
	e.send(user, domain.AudioControlPayload{Op: "set_mute", On: mute})
}

func (e *Engine) MuteLocalAudio(user domain.UserID, mute bool) {
	e.send(user, domain.AudioControlPayload{Op: "mute_local_audio", On: mute})
}

func (e *Engine) StartPlayMusic(user domain.UserID, musicID int, originalURL, accompanyURL string) {
	e.send(user, domain.AudioControlPayload{Op: "start_play_music", On: true, Value: float64(musicID), Extra: map[string]string{
		"original_url": originalURL, "accompany_url": accompanyURL,
	}})
}

func (e *Engine) StopPlayMusic(user domain.UserID) {
	e.send(user, domain.AudioControlPayload{Op: "stop_play_music"})
}

func (e *Engine) SwitchMusicAccompanimentMode(user domain.UserID, original bool) {
	e.send(user, domain.AudioControlPayload{Op: "switch_accompaniment", On: original})
}

func (e *Engine) SetMusicVolume(user domain.UserID, volume int) {
	e.send(user, domain.AudioControlPayload{Op: "set_music_volume", Value: float64(volume)})
}

func (e *Engine) SetMusicPitch(user domain.UserID, pitch float64) {
	e.send(user, domain.AudioControlPayload{Op: "set_music_pitch", Value: pitch})
}

func (e *Engine) SetVoiceVolume(user domain.UserID, volume int) {
	e.send(user, domain.AudioControlPayload{Op: "set_voice_volume", Value: float64(volume)})
}

func (e *Engine) SetVoiceReverbType(user domain.UserID, reverb int) {
	e.send(user, domain.AudioControlPayload{Op: "set_voice_reverb", Value: float64(reverb)})
}

func (e *Engine) SetVoiceChangerType(user domain.UserID, changer int) {
	e.send(user, domain.AudioControlPayload{Op: "set_voice_changer", Value: float64(changer)})
}

func (e *Engine) EnableVoiceEarMonitor(user domain.UserID, enable bool) {
	e.send(user, domain.AudioControlPayload{Op: "enable_ear_monitor", On: enable})
}
