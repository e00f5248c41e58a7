package signal

import (
	"encoding/json"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/rs/zerolog/log"
)

// envelope is the inbound wire shape. Every command carries a type tag and
// an optional client sequence number echoed back in the result.
type envelope struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq,omitempty"`

	SdkAppID int    `json:"sdk_app_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	UserSig  string `json:"user_sig,omitempty"`
	Token    string `json:"token,omitempty"`

	Name      string            `json:"name,omitempty"`
	AvatarURL string            `json:"avatar_url,omitempty"`
	RoomID    domain.RoomID     `json:"room_id,omitempty"`
	Params    domain.RoomParams `json:"params,omitempty"`

	SeatIndex int  `json:"seat_index,omitempty"`
	On        bool `json:"on,omitempty"`

	To       string   `json:"to,omitempty"`
	Cmd      string   `json:"cmd,omitempty"`
	Content  string   `json:"content,omitempty"`
	InviteID string   `json:"invite_id,omitempty"`
	Text     string   `json:"text,omitempty"`
	Users    []string `json:"users,omitempty"`

	MusicID      int     `json:"music_id,omitempty"`
	OriginalURL  string  `json:"original_url,omitempty"`
	AccompanyURL string  `json:"accompany_url,omitempty"`
	Value        float64 `json:"value,omitempty"`
}

type result struct {
	Type    string `json:"type"`
	Cmd     string `json:"cmd"`
	Seq     int64  `json:"seq,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`

	Token    string            `json:"token,omitempty"`
	InviteID string            `json:"invite_id,omitempty"`
	UserList []domain.UserInfo `json:"user_list,omitempty"`
}

func (ctl *SignalWSController) reply(c *WsSignalConn, res result) {
	res.Type = "result"
	if res.Code == domain.CodeOK && res.Message == "" {
		res.Message = "ok"
	}
	ctl.sendJSON(c, res)
}

func (ctl *SignalWSController) replyErr(c *WsSignalConn, cmd string, seq int64, err error) {
	res := result{Cmd: cmd, Seq: seq, Code: domain.CodeOf(err)}
	if err != nil {
		res.Message = err.Error()
	}
	ctl.reply(c, res)
}

func (ctl *SignalWSController) handleCommand(sid core.SessionID, c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_payload"})
		return
	}

	switch env.Type {
	case "ping":
		ctl.sendJSON(c, map[string]any{"type": "pong", "seq": env.Seq})

	case "login":
		token, err := ctl.Orch.Login(sid, env.SdkAppID, domain.UserID(env.UserID), env.UserSig)
		res := result{Cmd: env.Type, Seq: env.Seq, Code: domain.CodeOf(err), Token: token}
		if err != nil {
			res.Message = err.Error()
		}
		ctl.reply(c, res)

	case "resume":
		err := ctl.resume(sid, env.Token)
		ctl.replyErr(c, env.Type, env.Seq, err)

	case "logout":
		ctl.Orch.Logout(sid)
		ctl.replyErr(c, env.Type, env.Seq, nil)

	case "set_self_profile":
		err := ctl.Orch.SetSelfProfile(sid, env.Name, env.AvatarURL)
		ctl.replyErr(c, env.Type, env.Seq, err)

	case "create_room":
		err := ctl.Orch.CreateRoom(sid, env.RoomID, env.Params)
		ctl.replyErr(c, env.Type, env.Seq, err)

	case "destroy_room":
		err := ctl.Orch.DestroyRoom(sid)
		ctl.replyErr(c, env.Type, env.Seq, err)

	case "enter_room":
		err := ctl.Orch.EnterRoom(sid, env.RoomID)
		ctl.replyErr(c, env.Type, env.Seq, err)

	case "exit_room":
		err := ctl.Orch.ExitRoom(sid)
		ctl.replyErr(c, env.Type, env.Seq, err)

	case "enter_seat":
		inviteID, err := ctl.Orch.EnterSeat(sid, env.SeatIndex)
		res := result{Cmd: env.Type, Seq: env.Seq, Code: domain.CodeOf(err), InviteID: inviteID}
		if err != nil {
			res.Message = err.Error()
		}
		ctl.reply(c, res)

	case "leave_seat":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.LeaveSeat(sid))

	case "kick_seat":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.KickSeat(sid, env.SeatIndex))

	case "mute_seat":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.MuteSeat(sid, env.SeatIndex, env.On))

	case "close_seat":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.CloseSeat(sid, env.SeatIndex, env.On))

	case "send_invitation":
		id, err := ctl.Orch.SendInvitation(sid, domain.UserID(env.To), env.Cmd, env.Content)
		res := result{Cmd: env.Type, Seq: env.Seq, Code: domain.CodeOf(err), InviteID: id}
		if err != nil {
			res.Message = err.Error()
		}
		ctl.reply(c, res)

	case "accept_invitation":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.AcceptInvitation(sid, env.InviteID))

	case "reject_invitation":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.RejectInvitation(sid, env.InviteID))

	case "cancel_invitation":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.CancelInvitation(sid, env.InviteID))

	case "send_text_msg":
		if !ctl.MsgLimit.Allow(sid) {
			ctl.replyErr(c, env.Type, env.Seq, domain.ErrRateLimited)
			return
		}
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.SendRoomTextMsg(sid, env.Text))

	case "send_custom_msg":
		if !ctl.MsgLimit.Allow(sid) {
			ctl.replyErr(c, env.Type, env.Seq, domain.ErrRateLimited)
			return
		}
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.SendRoomCustomMsg(sid, env.Cmd, env.Text))

	case "get_user_info":
		var ids []domain.UserID
		if env.Users != nil {
			ids = make([]domain.UserID, len(env.Users))
			for i, u := range env.Users {
				ids[i] = domain.UserID(u)
			}
		}
		users, err := ctl.Orch.GetUserInfoList(sid, ids)
		res := result{Cmd: env.Type, Seq: env.Seq, Code: domain.CodeOf(err), UserList: users}
		if err != nil {
			res.Message = err.Error()
		}
		ctl.reply(c, res)

	case "mute_local_audio":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.MuteLocalAudio(sid, env.On))

	case "start_play_music":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.StartPlayMusic(sid, env.MusicID, env.OriginalURL, env.AccompanyURL))

	case "stop_play_music":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.StopPlayMusic(sid))

	case "switch_accompaniment":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.SwitchMusicAccompanimentMode(sid, env.On))

	case "set_music_volume":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.SetMusicVolume(sid, int(env.Value)))

	case "set_music_pitch":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.SetMusicPitch(sid, env.Value))

	case "set_voice_volume":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.SetVoiceVolume(sid, int(env.Value)))

	case "set_voice_reverb":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.SetVoiceReverbType(sid, int(env.Value)))

	case "set_voice_changer":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.SetVoiceChangerType(sid, int(env.Value)))

	case "enable_ear_monitor":
		ctl.replyErr(c, env.Type, env.Seq, ctl.Orch.EnableVoiceEarMonitor(sid, env.On))

	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown command")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "unknown_command"})
	}
}

// resume restores a logged-in session from a previously issued token, e.g.
// after a reconnect.
func (ctl *SignalWSController) resume(sid core.SessionID, token string) error {
	userID, err := ctl.Orch.Identity.Verify(token)
	if err != nil {
		return err
	}
	user, uerr := domain.NewUserInfo(userID)
	if uerr != nil {
		return uerr
	}
	ctl.Registry.SetUser(sid, user)
	return nil
}
