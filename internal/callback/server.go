// Package callback runs a short-lived local HTTP(S) listener that catches the
// browser redirect carrying the authorization code.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"schwab/internal/logger"

	"github.com/gin-gonic/gin"
)

// Config 描述回调监听参数。CertFile/KeyFile 同时设置时使用 TLS。
type Config struct {
	Addr     string
	Path     string
	CertFile string
	KeyFile  string
}

type Server struct {
	cfg      Config
	listener net.Listener
	router   *gin.Engine
	result   chan string
}

// Listen binds the address immediately so the caller can print the URL
// before the browser is pointed at it.
func Listen(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8182"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("callback tls needs both cert and key")
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	s := &Server{cfg: cfg, listener: ln, result: make(chan string, 1)}
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery(), requestLogger())
	s.router.GET(cfg.Path, s.handleRedirect)
	return s, nil
}

func (s *Server) tls() bool { return s.cfg.CertFile != "" }

// URL is the redirect target to register with the application.
func (s *Server) URL() string {
	scheme := "http"
	if s.tls() {
		scheme = "https"
	}
	return scheme + "://" + s.listener.Addr().String() + s.cfg.Path
}

func (s *Server) handleRedirect(c *gin.Context) {
	q := c.Request.URL.Query()
	if q.Get("code") == "" || q.Get("session") == "" {
		c.String(http.StatusBadRequest, "missing code or session")
		return
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	select {
	case s.result <- scheme + "://" + c.Request.Host + c.Request.URL.RequestURI():
	default:
	}
	c.String(http.StatusOK, "Authorization received. You can close this tab.")
}

// Wait serves until one redirect with a code arrives and returns its full
// URL. The listener is closed before Wait returns.
func (s *Server) Wait(ctx context.Context) (string, error) {
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.tls() {
			err = srv.ServeTLS(s.listener, s.cfg.CertFile, s.cfg.KeyFile)
		} else {
			err = srv.Serve(s.listener)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	logger.Infof("waiting for authorization redirect on %s", s.URL())
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		if err == nil {
			err = errors.New("callback server stopped")
		}
		return "", err
	case raw := <-s.result:
		return strings.TrimSpace(raw), nil
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		// The query carries the authorization code; log the path only.
		logger.Debugf("callback %s %s status=%d ip=%s dur=%s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}
