// Package progressapi is a thin HTTP boundary over the solver: an endpoint
// to accept a solve request and a websocket that streams solver progress
// events to a single connected client. It never touches the MDP directly;
// callers wire a solve.ProgressFunc to Server.Publish.
package progressapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
)

const (
	writeWait        = 1 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	closeGracePeriod = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressEvent is one reported step of a solve in progress.
type ProgressEvent struct {
	Iteration int     `json:"iteration"`
	MaxDelta  float64 `json:"maxDelta"`
	Done      bool    `json:"done"`
}

// SolveRequest is the minimal body accepted by POST /solve: which solver to
// run and the day's time budget. Parsing of the actual goal/task payload is
// out of scope for this package; a real deployment wires a parser ahead of
// this handler.
type SolveRequest struct {
	Solver   string `json:"solver"`
	Duration int    `json:"duration"`
}

// Server serves a single solve's progress to a single connected client.
// No multi-client fan-out, no persistence.
type Server struct {
	addr    string
	router  *mux.Router
	events  chan ProgressEvent
	onSolve func(SolveRequest) error
}

// NewServer builds a Server listening on addr. onSolve is invoked
// synchronously for each accepted POST /solve request; it should kick off
// a solve and use Publish to report progress as it runs.
func NewServer(addr string, onSolve func(SolveRequest) error) *Server {
	s := &Server{
		addr:    addr,
		router:  mux.NewRouter(),
		events:  make(chan ProgressEvent, 64),
		onSolve: onSolve,
	}
	s.router.HandleFunc("/solve", s.handleSolve).Methods(http.MethodPost)
	s.router.HandleFunc("/progress", s.handleProgress).Methods(http.MethodGet)
	return s
}

// Publish reports a progress event to any connected client. Non-blocking:
// a slow or absent client drops events rather than stalling the solve.
func (s *Server) Publish(event ProgressEvent) {
	select {
	case s.events <- event:
	default:
	}
}

// Serve blocks, serving HTTP until the process is terminated.
func (s *Server) Serve() error {
	if err := http.ListenAndServe(s.addr, s.router); err != nil {
		return fmt.Errorf("progressapi: serve: %w", err)
	}
	return nil
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.onSolve == nil {
		http.Error(w, "no solver wired", http.StatusInternalServerError)
		return
	}
	if err := s.onSolve(req); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleProgress upgrades to a websocket and streams progress events, using
// the usual ping/pong/write-deadline discipline to detect a dead peer.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer closeWebsocket(ws)
	s.publishEvents(r.Context(), ws)
}

func (s *Server) publishEvents(ctx contextCanceller, ws *websocket.Conn) {
	done := ctx.Done()
	ticker := channerics.NewTicker(done, pingPeriod)
	lastPong := time.Now()

	pong := make(chan struct{}, 1)
	ws.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-readDone:
			return
		case <-ticker:
			if time.Since(lastPong) > pingPeriod*2 {
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-pong:
			lastPong = time.Now()
		case event := <-s.events:
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

func closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closeGracePeriod)
	_ = ws.Close()
}

// contextCanceller is the slice of context.Context this package needs,
// kept narrow so publishEvents can be driven by a bare Done() channel in
// tests without a full context.
type contextCanceller interface {
	Done() <-chan struct{}
}
