// Package api serves the control surface over a loopback HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"routerswitcher/internal/pkg/logging"
	"routerswitcher/internal/types"

	"github.com/sirupsen/logrus"
)

// Constants for route prefixing. Versioning is explicit to allow non-breaking additions.
const (
	APIVersion     = "v1"
	DefaultAddress = "127.0.0.1:8787"

	// ModeAuto in a mode request returns to automatic switching.
	ModeAuto = "auto"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// Controller is the control surface served by the API.
type Controller interface {
	GetConfig() types.Config
	UpdateConfig(cfg types.Config) error
	GetStatus() types.Status
	Reevaluate()
	History(ctx context.Context, limit int) ([]types.SwitchEvent, error)
	Subscribe() (<-chan types.Status, func())
	SetMode(mode types.Mode) error
}

// ServerOptions configures the HTTP server.
// Timeouts are conservative defaults suitable for a local control-plane server.
type ServerOptions struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration

	// ReconfigureTimeout bounds config and mode changes, which wait for an
	// in-flight apply (a DHCP exchange with retries) before they return.
	ReconfigureTimeout time.Duration
}

// Server hosts the HTTP API for the daemon.
type Server struct {
	http     *http.Server
	ctrl     Controller
	logger   *logrus.Entry
	opts     ServerOptions
	listener net.Listener

	// done is closed by Stop to end websocket streams, which Shutdown does not track.
	done     chan struct{}
	stopOnce sync.Once
}

// NewServer constructs a new API server bound to the provided controller.
// The server does not start listening until Start is called.
func NewServer(ctrl Controller, opts ServerOptions) *Server {
	if ctrl == nil {
		panic("api.NewServer: controller is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.ReconfigureTimeout < opts.WriteTimeout {
		opts.ReconfigureTimeout = max(2*time.Minute, opts.WriteTimeout)
	}

	logger := logging.WithComponent("api")

	mux := http.NewServeMux()
	s := &Server{
		ctrl:   ctrl,
		logger: logger,
		opts:   opts,
		done:   make(chan struct{}),
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           withBasicMiddleware(mux, logger),
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
			ErrorLog:          log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0),
			BaseContext: func(l net.Listener) context.Context {
				return context.Background()
			},
		},
	}

	// Routes
	mux.HandleFunc("/"+APIVersion+"/healthz", s.handleHealthz)
	mux.HandleFunc("/"+APIVersion+"/config", s.handleConfig)
	mux.HandleFunc("/"+APIVersion+"/status", s.handleStatus)
	mux.HandleFunc("/"+APIVersion+"/evaluate", s.handleEvaluate)
	mux.HandleFunc("/"+APIVersion+"/mode", s.handleMode)
	mux.HandleFunc("/"+APIVersion+"/history", s.handleHistory)
	mux.HandleFunc("/"+APIVersion+"/events", s.handleEvents)

	return s
}

// Handler returns the routed handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start binds the listen address and serves in a background goroutine.
// It returns once the socket is bound; use Stop for graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	s.listener = ln

	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("Listening")
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Serve failed")
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.opts.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server, waiting up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })

	timeout := s.opts.ShutdownTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

// handleHealthz is a simple readiness/liveness endpoint.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": TimeNow().UTC().Format(time.RFC3339),
	})
}

// handleConfig reads (GET) or replaces (PUT) the switching config.
// PUT answers 400 when the config fails validation.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ctrl.GetConfig())
	case http.MethodPut:
		var cfg types.Config
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		cfg.IPMode = types.NormalizeIPMode(cfg.IPMode)

		s.extendDeadlines(w)
		if err := s.ctrl.UpdateConfig(cfg); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, types.ErrInvalid) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.ctrl.GetConfig())
	default:
		methodNotAllowed(w)
	}
}

// ModeRequest selects a manual mode: "static", "dhcp" or "auto".
type ModeRequest struct {
	Mode string `json:"mode"`
}

// handleMode forces the static or DHCP profile, or returns to automatic
// switching. It answers with the resulting status.
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}

	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	var mode types.Mode
	switch req.Mode {
	case ModeAuto:
		mode = types.ModeUnknown
	case string(types.ModeStatic), string(types.ModeDHCP):
		mode = types.Mode(req.Mode)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("mode must be %q, %q or %q", types.ModeStatic, types.ModeDHCP, ModeAuto))
		return
	}

	s.extendDeadlines(w)
	if err := s.ctrl.SetMode(mode); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, types.ErrInvalid) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.GetStatus())
}

// extendDeadlines lifts the connection deadlines for handlers that wait on
// the engine beyond the server's WriteTimeout.
func (s *Server) extendDeadlines(w http.ResponseWriter) {
	rc := http.NewResponseController(w)
	deadline := time.Now().Add(s.opts.ReconfigureTimeout)
	if err := rc.SetWriteDeadline(deadline); err != nil {
		s.logger.WithError(err).Debug("Failed to extend write deadline")
	}
	_ = rc.SetReadDeadline(deadline)
}

// handleStatus returns the current engine status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.GetStatus())
}

// handleEvaluate requests an immediate re-evaluation. The evaluation runs
// asynchronously, so the answer is 202.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.ctrl.Reevaluate()
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "accepted",
		"timestamp": TimeNow().UTC().Format(time.RFC3339),
	})
}

// handleHistory lists recent switch attempts. Query: limit (1..1000, default 50).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	events, err := s.ctrl.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Events: events})
}

// Basic middleware: sets JSON content type and very lightweight logging.
// No CORS or auth because this is a local control-plane service.
func withBasicMiddleware(next http.Handler, logger *logrus.Entry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := TimeNow()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
		logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request served")
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIError{
		Error:     msg,
		Timestamp: TimeNow().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}
