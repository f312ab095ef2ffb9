package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-tracking/internal/config"
	"github.com/example/ride-tracking/internal/models"
	"github.com/example/ride-tracking/internal/storage"
	"github.com/example/ride-tracking/internal/stream"
	"github.com/example/ride-tracking/internal/tracking"
	"github.com/example/ride-tracking/internal/view"
)

// ReadyCheck reports whether a backing dependency is reachable.
type ReadyCheck = func(ctx context.Context) error

// Deps are the collaborators the HTTP surface serves from. History and
// Checks are optional.
type Deps struct {
	Service *view.Service
	Hub     *stream.Hub
	History storage.LookupStore
	Checks  map[string]ReadyCheck
}

type Server struct {
	cfg      config.ServerConfig
	logger   *slog.Logger
	svc      *view.Service
	hub      *stream.Hub
	history  storage.LookupStore
	checks   map[string]ReadyCheck
	labels   view.Labels
	upgrader websocket.Upgrader
	mux      *mux.Router
	handler  http.Handler
}

func NewServer(cfg config.ServerConfig, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	hub := deps.Hub
	if hub == nil {
		hub = stream.NewHub()
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		svc:     deps.Service,
		hub:     hub,
		history: deps.History,
		checks:  deps.Checks,
		labels:  view.LabelsFor(cfg.DefaultLang, view.Spanish),
		mux:     mux.NewRouter(),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.registerMiddleware()
	s.routes()
	s.handler = cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})(s.mux)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/tracking/{ride_id}", s.handleLookup).Methods(http.MethodGet)
	s.mux.HandleFunc("/api/v1/tracking/{ride_id}/history", s.handleHistory).Methods(http.MethodGet)
	s.mux.HandleFunc("/tracking", s.handleDeepLink).Methods(http.MethodGet)
	s.mux.HandleFunc("/ws/tracking", s.handleWS)
	s.mux.HandleFunc("/ws/tracking/{ride_id}", s.handleWS)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods(http.MethodGet)
	s.mux.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// Hub exposes the viewer sessions so the process can close them on shutdown.
func (s *Server) Hub() *stream.Hub { return s.hub }

func (s *Server) labelsFor(r *http.Request) view.Labels {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = r.Header.Get("Accept-Language")
	}
	return view.LabelsFor(lang, s.labels)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	s.lookup(w, r, mux.Vars(r)["ride_id"])
}

// handleDeepLink serves /tracking?rideId=...; without an id it answers the
// empty view so the caller can render the search form.
func (s *Server) handleDeepLink(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("rideId"))
	if id == "" {
		writeJSON(w, http.StatusOK, view.Build(nil, models.RoutePath{}, view.Options{Labels: s.labelsFor(r)}))
		return
	}
	s.lookup(w, r, id)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request, rideID string) {
	v, err := s.svc.Lookup(r.Context(), rideID, s.labelsFor(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "lookup history is not enabled"})
		return
	}
	limit := s.cfg.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = min(n, s.cfg.HistoryLimit)
	}
	h, err := s.history.History(r.Context(), mux.Vars(r)["ride_id"], limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err, "request_id", requestIDFromContext(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "history unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rideId": mux.Vars(r)["ride_id"], "lookups": h})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// pendingGate admits one holder at a time; enter fails while held.
type pendingGate struct{ held atomic.Bool }

func (g *pendingGate) enter() bool { return g.held.CompareAndSwap(false, true) }
func (g *pendingGate) leave() { g.held.Store(false) }

// clientMessage switches the ride a stream is watching.
type clientMessage struct {
	RideID string `json:"rideId"`
}

// handleWS streams view updates for one viewer. The ride comes from the path
// or from a {"rideId": ...} message and is polled every PollInterval.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	labels := s.labelsFor(r)
	initial := mux.Vars(r)["ride_id"]
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	sess := s.hub.Add(conn)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		// closing the connection unblocks the reader
		s.hub.Remove(sess)
		wg.Wait()
	}()

	tr := view.NewTracker(s.svc, labels)
	tr.OnUpdate = func(v view.View) { _ = sess.SendView(v) }

	run := func(f func(context.Context) (view.View, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f(ctx); err != nil && !errors.Is(err, view.ErrFetchInFlight) && !errors.Is(err, view.ErrSuperseded) {
				s.logger.Debug("stream fetch failed", "session", sess.ID, "error", err)
			}
		}()
	}
	open := func(id string) { run(func(ctx context.Context) (view.View, error) { return tr.Open(ctx, id) }) }

	if strings.TrimSpace(initial) != "" {
		open(initial)
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	incoming := make(chan string)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				var ce *websocket.CloseError
				if !errors.As(err, &ce) {
					s.logger.Debug("stream read ended", "session", sess.ID, "error", err)
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			select {
			case incoming <- msg.RideID:
			case <-ctx.Done():
				return
			}
		}
	}()

	var refreshing pendingGate
	refresh := func(ctx context.Context) (view.View, error) {
		defer refreshing.leave()
		return tr.Refresh(ctx)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-incoming:
			if strings.TrimSpace(id) == "" {
				_ = sess.SendError(tracking.ErrEmptyRideID.Error())
				continue
			}
			run(func(ctx context.Context) (view.View, error) { return tr.Submit(ctx, id) })
		case <-ticker.C:
			// a slow backend must not pile up refreshes
			if refreshing.enter() {
				run(refresh)
			}
		case <-ping.C:
			if err := sess.Ping(); err != nil {
				s.logger.Debug("stream ping failed", "session", sess.ID, "error", err)
				return
			}
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.CORSAllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps fetch and lookup errors onto HTTP statuses.
func statusFor(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}
	var ue *view.UnavailableError
	var apiErr *tracking.APIError
	switch {
	case errors.Is(err, tracking.ErrEmptyRideID):
		return http.StatusBadRequest, body
	case errors.Is(err, tracking.ErrMissingBaseURL):
		return http.StatusServiceUnavailable, body
	case errors.As(err, &ue):
		body.Code = ue.Code
		return http.StatusNotFound, body
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, body
	case errors.As(err, &apiErr):
		body.Code = apiErr.Code
		return http.StatusBadGateway, body
	default:
		return http.StatusBadGateway, body
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= 500 {
		s.logger.Warn("ride lookup failed", "status", status, "error", err, "request_id", requestIDFromContext(r.Context()))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
