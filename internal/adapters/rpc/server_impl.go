package rpc

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"maskvault/go-backend/internal/app"
	"maskvault/go-backend/internal/platform/ratelimiter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultRPCAddr = "127.0.0.1:8797"

const (
	rpcTokenEnv        = "MASKD_RPC_TOKEN"
	requireRPCTokenEnv = "MASKD_REQUIRE_RPC_TOKEN"
	daemonEnvEnv       = "MASKD_ENV"
)

// Options configures the RPC transport around an app service.
type Options struct {
	Addr             string
	Service          app.CoreAPI
	Gatherer         prometheus.Gatherer
	MetricsEnabled   bool
	RateLimitRPS     float64
	RateLimitBurst   int
	RateLimitIdleTTL time.Duration
}

type Server struct {
	httpServer *http.Server
	service    app.CoreAPI
	initErr    error
	rpcToken   string
	requireRPC bool
	limiter    *ratelimiter.MapLimiter
}

func NewServer(opts Options) *Server {
	if opts.Service == nil {
		return &Server{initErr: errors.New("rpc server requires a service")}
	}
	requireRPC := requiresRPCToken()
	rpcToken := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	if requireRPC && rpcToken == "" {
		return &Server{
			initErr: errors.New("MASKD_RPC_TOKEN is required unless MASKD_REQUIRE_RPC_TOKEN=false or MASKD_ENV is test/development/local"),
		}
	}

	addr := opts.Addr
	if addr == "" {
		addr = DefaultRPCAddr
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		service:    opts.Service,
		rpcToken:   rpcToken,
		requireRPC: requireRPC,
		limiter:    ratelimiter.New(opts.RateLimitRPS, opts.RateLimitBurst, opts.RateLimitIdleTTL),
	}
	if s.rpcToken == "" && !s.requireRPC {
		slog.Default().Warn("MASKD_RPC_TOKEN is not set; RPC auth disabled")
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/rpc", s.handleRPC)
	if opts.MetricsEnabled && opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	if s.initErr != nil {
		return s.initErr
	}
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) authorizeRPC(w http.ResponseWriter, r *http.Request) bool {
	if !s.limiter.Allow(clientKey(r), time.Now()) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return false
	}
	if s.rpcToken == "" {
		return true
	}
	presented := bearerToken(r)
	if presented == "" {
		presented = strings.TrimSpace(r.Header.Get("X-Maskd-RPC-Token"))
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.rpcToken)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil || host == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}

func requiresRPCToken() bool {
	if raw := strings.TrimSpace(os.Getenv(requireRPCTokenEnv)); raw != "" {
		switch strings.ToLower(raw) {
		case "0", "false", "no":
			return false
		case "1", "true", "yes":
			return true
		}
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(daemonEnvEnv))) {
	case "test", "testing", "development", "local", "":
		return false
	}
	return true
}
