package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Babel/internal/adapters/chat"
	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/auth"
	"github.com/dkeye/Babel/internal/config"
	"github.com/dkeye/Babel/internal/core"
)

func genClientToken() string {
	return uuid.NewString()
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

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *chat.Controller, reg *app.Registry, tr core.Translator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("BabelSessions", store))
	r.Use(ClientTokenMiddleware())
	r.Use(auth.Middleware(cfg.Secret))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws/chat/:room", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("room", c.Param("room")).Msg("ws chat endpoint hit")
		ctl.HandleChat(ctx, c)
	})
	api.POST("/translate", handleTranslate(tr))
	api.GET("/rooms", handleRooms(reg))

	return r
}
