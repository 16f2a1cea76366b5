package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/adapters/signal"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app/orch"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/config"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	sessionCookie = "LiveSessions"
	userHeader    = "X-User-ID"
)

// IdentityMiddleware picks up the user id the upstream gateway authenticated,
// from the shared session cookie first and the forwarded header second.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if v, ok := sessions.Default(c).Get(signal.IdentityKey).(string); ok {
			raw = v
		}
		if raw == "" {
			raw = c.GetHeader(userHeader)
		}
		if raw != "" {
			if uid, err := domain.ParseUserID(raw); err == nil {
				c.Set(signal.IdentityKey, string(uid))
			}
		}
		c.Next()
	}
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
	r.Use(sessions.Sessions(sessionCookie, store))
	r.Use(IdentityMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		conns, users := o.Presence.Count()
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": conns,
			"users":       users,
			"rooms":       len(o.ListRooms()),
		})
	})

	api := r.Group("/api")

	ctrl := signal.NewSignalWSController(o, cfg)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("auth", c.GetString(signal.IdentityKey)).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	h := &handlers{orch: o}
	h.register(api)

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

func statusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidReference:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindInvalidState:
		return http.StatusConflict
	case domain.KindInvalidPayload:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal", "message": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": de.Code, "message": de.Message})
}

// caller returns the authenticated user or aborts with 401.
func caller(c *gin.Context) (domain.UserID, bool) {
	uid := c.GetString(signal.IdentityKey)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "message": "missing user identity"})
		return "", false
	}
	return domain.UserID(uid), true
}
