package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/gesture"
	"github.com/relabs-tech/gesture_computer/internal/recording"
	"github.com/relabs-tech/gesture_computer/internal/store"
)

const (
	defaultSessionLimit = 20
	maxSessionLimit     = 500
	maxDetectBody       = 4 << 20

	// writeWait bounds each websocket write; a client that misses it is dropped.
	writeWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins on the local network
	},
}

// SessionReader is the read side of the session log.
type SessionReader interface {
	Session(ctx context.Context, id string) (recording.Session, error)
	RecentSessions(ctx context.Context, limit int) ([]recording.Session, error)
}

// WebServer serves the latest detected sequence, the session log and an
// offline detector, and pushes every new sequence to websocket clients.
type WebServer struct {
	mu         sync.RWMutex
	latest     GestureEvent
	haveLatest bool

	sessions  SessionReader
	params    gesture.Params
	staticDir string
	hub       *hub
}

// NewWebServer creates a server. sessions may be nil, in which case the
// session endpoints answer 503.
func NewWebServer(sessions SessionReader, params gesture.Params, staticDir string) *WebServer {
	return &WebServer{
		sessions:  sessions,
		params:    params,
		staticDir: staticDir,
		hub:       newHub(),
	}
}

// HandleGestureEvent records ev as the latest sequence and broadcasts it.
func (s *WebServer) HandleGestureEvent(ev GestureEvent) {
	s.mu.Lock()
	s.latest = ev
	s.haveLatest = true
	s.mu.Unlock()

	s.hub.broadcast(ev)
}

func (s *WebServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/gestures/latest", s.handleLatest)
		r.Get("/sessions", s.handleSessions)
		r.Get("/sessions/{id}", s.handleSession)
		r.Post("/detect", s.handleDetect)
	})

	r.Get("/ws", s.handleWS)

	r.Handle("/*", http.FileServer(http.Dir(s.staticDir)))

	return r
}

func (s *WebServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ev, ok := s.latest, s.haveLatest
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "session log unavailable", http.StatusServiceUnavailable)
		return
	}

	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxSessionLimit)
	}

	sessions, err := s.sessions.RecentSessions(r.Context(), limit)
	if err != nil {
		log.Printf("web: list sessions: %v", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *WebServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "session log unavailable", http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Session(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("web: get session %s: %v", id, err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DetectRequest is the body of POST /api/detect. Params fields that are
// omitted default to the server's configured parameters.
type DetectRequest struct {
	Buffer gesture.Buffer  `json:"buffer"`
	Params *gesture.Params `json:"params,omitempty"`
}

func (s *WebServer) handleDetect(w http.ResponseWriter, r *http.Request) {
	// Fields the request leaves out keep the server's values.
	params := s.params
	req := DetectRequest{Params: &params}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDetectBody))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Params != nil {
		params = *req.Params
	}

	res, err := gesture.Analyze(req.Buffer, params)
	if errors.Is(err, gesture.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("web: detect: %v", err)
		http.Error(w, "detection failed", http.StatusInternalServerError)
		return
	}
	if res.Candidates == nil {
		res.Candidates = []gesture.Candidate{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	s.hub.add(conn)
	defer s.hub.remove(conn)

	// Greet new clients with the current sequence.
	s.mu.RLock()
	ev, ok := s.latest, s.haveLatest
	s.mu.RUnlock()
	if ok {
		s.hub.send(conn, ev)
	}

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// hub fans gesture events out to websocket clients. gorilla connections
// allow one concurrent writer, so writes happen under the hub lock.
type hub struct {
	mu        sync.Mutex
	conns     map[*websocket.Conn]struct{}
	writeWait time.Duration
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{}), writeWait: writeWait}
}

func (h *hub) write(c *websocket.Conn, v any) error {
	if err := c.SetWriteDeadline(time.Now().Add(h.writeWait)); err != nil {
		return err
	}
	return c.WriteJSON(v)
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		c.Close()
	}
	h.mu.Unlock()
}

func (h *hub) send(c *websocket.Conn, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.write(c, v); err != nil {
		log.Printf("web: websocket write error: %v", err)
	}
}

func (h *hub) broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := h.write(c, v); err != nil {
			log.Printf("web: websocket write error: %v", err)
			delete(h.conns, c)
			c.Close()
		}
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func RunWeb() error {
	cfg := config.Get()

	var sessions SessionReader
	if db, err := store.Open(cfg.SessionDBPath); err != nil {
		log.Printf("web: session log disabled: %v", err)
	} else {
		defer db.Close()
		sessions = db
	}

	srv := NewWebServer(sessions, cfg.GestureParams(), "web")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicGestures, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev GestureEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		srv.HandleGestureEvent(ev)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicGestures)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, srv.Router())
}
