// Package api serves an implementation's detection and identification over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"tatte-go/config"
	"tatte-go/tatte"
)

// Server wraps the gin router and the implementation behind it.
type Server struct {
	cfg        *config.Config
	impl       tatte.Interface
	router     *gin.Engine
	detect     tatte.ReturnStatus
	creation   tatte.ReturnStatus
	identify   tatte.ReturnStatus
	depth      uint8
	maxUpload  int64
	defaultK   uint32
	engineName string
}

// NewServer initializes impl for detection and identification and builds
// the router. Initialization failures are reported per endpoint.
func NewServer(cfg *config.Config, impl tatte.Interface) *Server {
	s := &Server{
		cfg:        cfg,
		impl:       impl,
		depth:      uint8(cfg.Harness.Depth),
		maxUpload:  int64(cfg.Server.MaxUploadMB) << 20,
		defaultK:   uint32(cfg.Harness.CandidateListLength),
		engineName: cfg.Engine.Name,
	}

	s.detect = impl.InitializeDetection(cfg.Engine.ConfigDir)
	s.creation = impl.InitializeTemplateCreation(cfg.Engine.ConfigDir, tatte.Identification)
	s.identify = impl.InitializeIdentification(cfg.Engine.ConfigDir, cfg.Enrollment.Dir)
	for name, st := range map[string]tatte.ReturnStatus{"detection": s.detect, "templates": s.creation, "identification": s.identify} {
		if !st.OK() {
			log.Warnf("API %s unavailable: %s", name, st)
		}
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(corsConfig(s.cfg.Server.CORSOrigins)))
	r.MaxMultipartMemory = s.maxUpload

	r.GET("/health", s.health)
	api := r.Group("/api")
	api.GET("/version", s.version)
	api.POST("/detect", s.detectTattoo)
	api.POST("/identify", s.identifyTattoo)
	return r
}

func corsConfig(origins []string) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = origins
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	}
	return cc
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"client":   c.ClientIP(),
		}).Debug("HTTP request")
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
