// Package server exposes strategy selection over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contactkeval/option-picker/internal/logger"
)

// Router loads routes onto an engine.
type Router interface {
	Load(engine *gin.Engine)
}

// NewEngine builds a gin engine with recovery, request logging and the
// given routers.
func NewEngine(rs ...Router) *gin.Engine {
	g := gin.New()
	g.Use(gin.Recovery(), requestLogger())
	for _, r := range rs {
		r.Load(g)
	}
	return g
}

func requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.Debugf("event=http_request method=%s path=%s status=%d latency=%s",
			ctx.Request.Method, ctx.Request.URL.Path, ctx.Writer.Status(), time.Since(start))
	}
}

// Server runs an HTTP handler on addr.
type Server struct {
	addr    string
	handler http.Handler
}

// NewServer returns a Server for handler; call Run to start it.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{addr: addr, handler: handler}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("server listening addr=%s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("server shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown err=%v", err)
		return err
	}
	return nil
}
