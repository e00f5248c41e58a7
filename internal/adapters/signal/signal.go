package signal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

// SignalWSController is the WebSocket signaling endpoint. It dispatches
// client commands to the orchestrator and implements core.Signaling for the
// room coordinators, so events flow back out through the same connections.
type SignalWSController struct {
	Orch     *app.Orchestrator
	Registry *app.Registry
	Policy   app.Policy
	MsgLimit *MsgRateLimiter

	ReadLimit  int64
	PingPeriod time.Duration
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// eventEnvelope is the outbound wire shape for room events.
type eventEnvelope struct {
	Type  string       `json:"type"`
	Event domain.Event `json:"event"`
}

// SendToUser delivers one event to one connected user. An offline user or a
// full send buffer is a transport-level failure: reported, never rolled
// back.
func (ctl *SignalWSController) SendToUser(user domain.UserID, ev domain.Event) error {
	conn, ok := ctl.Registry.ConnByUser(user)
	if !ok {
		return fmt.Errorf("%w: user %s offline", domain.ErrTransport, user)
	}
	frame, err := marshalFrame(eventEnvelope{Type: "event", Event: ev})
	if err != nil {
		return err
	}
	if err := conn.TrySend(frame); err != nil {
		if errors.Is(err, ErrBackpressure) {
			ctl.onBackpressure(user)
		}
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return nil
}

// BroadcastToRoom fans one event out to every session bound to the room.
func (ctl *SignalWSController) BroadcastToRoom(room domain.RoomID, ev domain.Event) error {
	frame, err := marshalFrame(eventEnvelope{Type: "event", Event: ev})
	if err != nil {
		return err
	}
	for _, sid := range ctl.Registry.SessionsInRoom(room) {
		if user, ok := ctl.Registry.UserOf(sid); ok {
			if conn, ok := ctl.Registry.ConnByUser(user.ID); ok {
				if sendErr := conn.TrySend(frame); errors.Is(sendErr, ErrBackpressure) {
					ctl.onBackpressure(user.ID)
				}
			}
		}
	}
	return nil
}

func (ctl *SignalWSController) onBackpressure(user domain.UserID) {
	if ctl.Policy == nil {
		return
	}
	switch ctl.Policy.OnBackPressure(user) {
	case app.KickMember:
		if sid, ok := ctl.Registry.SessionByUser(user); ok {
			log.Warn().Str("module", "signal").Str("user", string(user)).Msg("slow receiver, disconnecting")
			ctl.Registry.Cancel(sid)
		}
	case app.DropFrame, app.NoAction:
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
