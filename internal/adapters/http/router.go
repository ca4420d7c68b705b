package http

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voicebridge/internal/app/orch"
	"github.com/dkeye/voicebridge/internal/config"
)

const serviceName = "voicebridge"

// EventStream serves the roster websocket.
type EventStream interface {
	HandleEvents(ctx context.Context, c *gin.Context)
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, webhooks WebhookReceiver, events EventStream) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Tracing(serviceName))
	r.Use(Metrics())
	r.Use(RequestLogger())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("VoiceBridgeSessions", store))
	r.Use(ClientTokenMiddleware())

	h := NewHandlers(cfg, o, webhooks)

	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/connectionInfo", h.ConnectionInfo)
	r.POST("/incomingCall", h.IncomingCall)
	r.POST("/callStatus", h.CallStatus)
	r.POST("/webhooks/rtc", h.RTCWebhook)
	r.GET("/conference", h.Conference)
	r.DELETE("/participants/:id", h.RemoveParticipant)

	if events != nil {
		r.GET("/events", func(c *gin.Context) {
			events.HandleEvents(ctx, c)
		})
	}

	r.Static("/static", filepath.Join(cfg.StaticPath, "static"))
	r.NoRoute(spaFallback(cfg.StaticPath))

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}

// spaFallback serves files from root and answers every other GET with
// index.html so client-side routes work.
func spaFallback(root string) gin.HandlerFunc {
	index := filepath.Join(root, "index.html")
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			writeError(c, http.StatusNotFound, ErrTypeNotFound, "route not found")
			return
		}
		name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			c.File(name)
			return
		}
		c.File(index)
	}
}
