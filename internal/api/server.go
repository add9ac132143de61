// Package api exposes the studio over HTTP: JSON endpoints for every user
// intent, image upload and download, and a WebSocket feed of gallery state.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"menugen-studio/internal/studio"
)

const (
	SessionHeader = "X-Session-ID"
	sessionCookie = "session_id"
	sessionKey    = "session"
)

type Options struct {
	AllowOrigins   []string
	MaxUploadBytes int64
}

type Server struct {
	reg       *studio.Registry
	log       *zap.Logger
	maxUpload int64
	origins   []string
	upgrader  websocket.Upgrader
}

func NewServer(reg *studio.Registry, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 8 << 20
	}
	return &Server{
		reg:       reg,
		log:       log,
		maxUpload: opts.MaxUploadBytes,
		origins:   opts.AllowOrigins,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.Use(cors.New(corsConfig(s.origins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/session", s.createSession)
		api.GET("/styles", s.listStyles)

		sess := api.Group("", s.sessionMiddleware)
		sess.GET("/session", s.getSession)
		sess.PUT("/style", s.selectStyle)
		sess.POST("/menu/parse", s.parseMenu)
		sess.GET("/dishes", s.listDishes)
		sess.GET("/dishes/:id", s.getDish)
		sess.POST("/dishes/:id/reference", s.uploadReference)
		sess.DELETE("/dishes/:id/reference", s.removeReference)
		sess.POST("/dishes/:id/generate", s.generate)
		sess.POST("/dishes/:id/enhance", s.enhance)
		sess.POST("/dishes/:id/edit", s.edit)
		sess.GET("/dishes/:id/image", s.downloadImage)
		sess.GET("/events", s.events)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", SessionHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", SessionHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// sessionMiddleware attaches the caller's session, creating one when the
// request carries no known id. The id is echoed in a header and a cookie.
func (s *Server) sessionMiddleware(c *gin.Context) {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		id = c.Query(sessionCookie)
	}
	if id == "" {
		id, _ = c.Cookie(sessionCookie)
	}

	sess, created := s.reg.Resolve(id)
	if created {
		s.log.Debug("Session resolved to a new session", zap.String("requested", id), zap.String("session", sess.ID))
	}

	c.Header(SessionHeader, sess.ID)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sess.ID, 0, "/", "", false, true)
	c.Set(sessionKey, sess)
	c.Next()
}

func session(c *gin.Context) *studio.Session {
	return c.MustGet(sessionKey).(*studio.Session)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("clientIP", c.ClientIP()),
		}
		if id := c.Writer.Header().Get(SessionHeader); id != "" {
			fields = append(fields, zap.String("session", id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("HTTP request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
