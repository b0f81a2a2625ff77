// Package bridge exposes the backend commands over a loopback HTTP API so a
// UI shell can invoke them by name with JSON arguments.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/blazecut/blazecut/internal/logging"
	"github.com/blazecut/blazecut/internal/types"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Commands is the backend surface the bridge dispatches to.
type Commands interface {
	AnalyzeVideo(ctx context.Context, path string) (types.MediaMetadata, error)
	ExtractKeyFrames(ctx context.Context, path string, count int, opts types.FrameOptions) ([]string, error)
	GenerateThumbnail(ctx context.Context, path string) (string, error)
	CheckAppDataDirectory(ctx context.Context) (string, error)
	CleanupTempFiles(ctx context.Context, dir string) error
	Tools() []types.ToolStatus
	DefaultCount() int
}

type Options struct {
	// CommandTimeout bounds a single invocation; 0 means no limit beyond the
	// client's own connection.
	CommandTimeout time.Duration
	Log            *zerolog.Logger
}

type Server struct {
	cmds     Commands
	opts     Options
	log      zerolog.Logger
	handlers map[string]commandFunc
	router   *mux.Router
}

func New(cmds Commands, opts Options) *Server {
	s := &Server{
		cmds: cmds,
		opts: opts,
		log:  logging.OrNop(opts.Log).With().Str("component", "bridge").Logger(),
	}
	s.handlers = s.commandTable()

	r := mux.NewRouter()
	r.Use(requestLogger(s.log))
	r.Use(httpMetrics("/metrics"))
	r.HandleFunc("/invoke/{command}", s.handleInvoke).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "not found", http.StatusNotFound)
	})
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe validates addr, binds it and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, allowedHosts []string) error {
	if err := ValidateListenAddr(addr, allowedHosts); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("command bridge listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info().Msg("command bridge stopped")
	return nil
}

type healthResponse struct {
	Status string             `json:"status"`
	Tools  []types.ToolStatus `json:"tools"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	tools := s.cmds.Tools()
	resp := healthResponse{Status: "ok", Tools: tools}
	code := http.StatusOK
	for _, t := range tools {
		if !t.Available {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}
	if len(tools) == 0 {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, code, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// The status line is already sent; an encode failure means the client went away.
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}
