package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// SetupRouter creates and configures the Gin router.
func SetupRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", api.Health)
	r.GET("/status", api.Status)
	r.POST("/status/report", api.ReportStatus)
	r.POST("/command/:name", api.Command)

	return r
}

// corsMiddleware handles CORS for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Server serves the control API until its context ends.
type Server struct {
	address string
	http    *http.Server
	log     logrus.FieldLogger
}

func NewServer(address string, handler http.Handler, log logrus.FieldLogger) *Server {
	return &Server{
		address: address,
		http:    &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		log:     log.WithField("component", "api"),
	}
}

// Run listens on the configured address and shuts the server down
// gracefully when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	s.log.Infof("Control API listening on %s", listener.Addr())

	served := make(chan error, 1)
	go func() {
		served <- s.http.Serve(listener)
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("control api shutdown: %w", err)
		}
		s.log.Debug("Control API stopped")
		return nil
	}
}
