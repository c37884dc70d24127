package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/adapters/ws"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/domain"
)

const (
	sessionName = "RelaySessions"
	nameKey     = "name"
)

// displayName picks the client name for a websocket upgrade. A valid
// ?name= query wins and is remembered in the session cookie; otherwise the
// remembered name is used, then fallback.
func displayName(c *gin.Context, fallback string) string {
	sess := sessions.Default(c)
	if q := strings.TrimSpace(c.Query("name")); q != "" {
		if err := domain.ValidateName(q); err == nil {
			sess.Set(nameKey, q)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
			return q
		}
	}
	if v, ok := sess.Get(nameKey).(string); ok && v != "" {
		return v
	}
	return fallback
}

// upgradeHeader carries cookies written by the session store into the
// upgrade response, which the websocket library writes by itself.
func upgradeHeader(c *gin.Context) http.Header {
	cookies := c.Writer.Header().Values("Set-Cookie")
	if len(cookies) == 0 {
		return nil
	}
	h := http.Header{}
	for _, v := range cookies {
		h.Add("Set-Cookie", v)
	}
	return h
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions(sessionName, store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	ctl := ws.NewController(o, cfg.ReadLimit, cfg.PingPeriod, cfg.WriteTimeout)
	r.GET("/ws", func(c *gin.Context) {
		name := displayName(c, cfg.DefaultName)
		log.Info().Str("module", "adapters.http").Str("peer", c.ClientIP()).Str("name", name).Msg("ws endpoint hit")
		ctl.HandleSignal(ctx, c, name, upgradeHeader(c))
	})

	h := &Handlers{Registry: o.Registry}
	api := r.Group("/api")
	api.GET("/servers", h.ListServers)
	api.GET("/servers/:id/log", h.ServerLog)
	api.GET("/stats", h.Stats)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
