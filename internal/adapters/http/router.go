package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Karaoke/internal/adapters/signal"
	"github.com/dkeye/Karaoke/internal/config"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	return uuid.NewString()
}

type loginRequest struct {
	SdkAppID int    `json:"sdk_app_id" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
	UserSig  string `json:"user_sig" binding:"required"`
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.SignalWSController, rooms *core.RoomManager) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("KaraokeSessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// REST login for clients that fetch a token before opening the signal
	// socket; the same credentials work over the socket's login command.
	api.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": domain.CodeInternal, "message": err.Error()})
			return
		}
		token, err := ctl.Orch.Identity.Login(req.SdkAppID, domain.UserID(req.UserID), req.UserSig)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": domain.CodeOf(err), "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": domain.CodeOK, "token": token})
	})

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rooms.List()})
	})

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	return r
}
