// Triviabox board
//
// Each visitor to /trivia gets their own board, backed by a websocket
// session. The browser only paints what it is told and reports clicks;
// the board, its reveal state, and the loading state machine all live in
// a Game running on the server.
//
// Features:
// - One Game loop per websocket connection
// - Start/restart draws a fresh random set of categories
// - Clicks reveal the question, then the answer, one cell at a time
// - Clicks are tagged with the grid generation, so stale clicks are dropped
// - Idle sessions are reaped after --session-timeout
// - In-browser QR code to open the board on another device, backed by go-qrcode

package main

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string `json:"type"`                 // "start", "click"
	Generation uint64 `json:"generation,omitempty"` // click
	Row        int    `json:"row,omitempty"`        // click
	Col        int    `json:"col,omitempty"`        // click
}

// Messages sent to clients
type BoardMessage struct {
	Type        string   `json:"type"` // "board"
	Generation  uint64   `json:"generation"`
	Titles      []string `json:"titles"`
	Rows        int      `json:"rows"`
	Placeholder string   `json:"placeholder"`
}

type CellMessage struct {
	Type       string `json:"type"` // "cell"
	Generation uint64 `json:"generation"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Text       string `json:"text"`
}

type LoadingMessage struct {
	Type   string `json:"type"` // "loading"
	Active bool   `json:"active"`
}

type NoticeMessage struct {
	Type    string `json:"type"` // "notice"
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
	done <-chan struct{}
}

// wsSurface renders a board by pushing messages to a websocket client.
type wsSurface struct {
	client *Client
}

func (s wsSurface) RenderGrid(grid Grid) {
	s.client.push(BoardMessage{
		Type:        "board",
		Generation:  grid.Generation,
		Titles:      grid.Titles,
		Rows:        grid.Rows,
		Placeholder: grid.Placeholder,
	})
}

func (s wsSurface) PatchCell(generation uint64, row, col int, text string) {
	s.client.push(CellMessage{
		Type:       "cell",
		Generation: generation,
		Row:        row,
		Col:        col,
		Text:       text,
	})
}

func (s wsSurface) SetLoading(active bool) {
	s.client.push(LoadingMessage{Type: "loading", Active: active})
}

func (s wsSurface) Notice(message string) {
	s.client.push(NoticeMessage{Type: "notice", Message: message})
}

func (c *Client) push(msg any) {
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

type session struct {
	id         string
	client     *Client
	game       *Game
	mu         sync.Mutex
	lastActive time.Time
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// sessionRegistry tracks live boards so idle ones can be reaped.
type sessionRegistry struct {
	mu          sync.Mutex
	sessions    map[string]*session
	idleTimeout time.Duration
	logger      *log.Logger
}

func newSessionRegistry(idleTimeout time.Duration, logger *log.Logger) *sessionRegistry {
	return &sessionRegistry{
		sessions:    make(map[string]*session),
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

func (sr *sessionRegistry) add(s *session) {
	sr.mu.Lock()
	sr.sessions[s.id] = s
	n := len(sr.sessions)
	sr.mu.Unlock()

	sr.logger.WithFields(log.Fields{"session": s.id, "active": n}).Info("board opened")
}

func (sr *sessionRegistry) remove(id string) {
	sr.mu.Lock()
	delete(sr.sessions, id)
	n := len(sr.sessions)
	sr.mu.Unlock()

	sr.logger.WithFields(log.Fields{"session": id, "active": n}).Info("board closed")
}

func (sr *sessionRegistry) count() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return len(sr.sessions)
}

// reap closes every session that has been idle since before cutoff.
func (sr *sessionRegistry) reap(cutoff time.Time) int {
	sr.mu.Lock()
	var stale []*session
	for id, s := range sr.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(sr.sessions, id)
		}
	}
	sr.mu.Unlock()

	for _, s := range stale {
		sr.logger.WithField("session", s.id).Info("closing idle board")
		_ = s.client.conn.Close()
	}

	return len(stale)
}

func (sr *sessionRegistry) reaperLoop(ctx context.Context) {
	if sr.idleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(sr.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sr.reap(time.Now().Add(-sr.idleTimeout))
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func serveBoardWS(cfg *Config, source ClueSource, sr *sessionRegistry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.log.WithError(err).Warn("websocket upgrade failed")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
			done: ctx.Done(),
		}

		id := uuid.NewString()
		logger := cfg.log.WithFields(log.Fields{"session": id, "remote": realIP(r)})

		s := &session{
			id:         id,
			client:     client,
			game:       newGame(cfg, source, wsSurface{client: client}, logger),
			lastActive: time.Now(),
		}

		sr.add(s)
		defer sr.remove(id)

		go func() {
			defer func() {
				if v := recover(); v != nil {
					logger.WithField("panic", v).WithField("stack", string(debug.Stack())).Error("board crashed")
					cancel()
					_ = conn.Close()
				}
			}()
			s.game.run(ctx)
		}()

		go client.writePump(ctx)
		client.readPump(ctx, s)
	}
}

func (c *Client) readPump(ctx context.Context, s *session) {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		s.touch()

		switch msg.Type {
		case "start":
			s.game.Start(ctx)
		case "click":
			s.game.Click(ctx, msg.Generation, msg.Row, msg.Col)
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	defer c.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// QR handler: generates a PNG QR code for the board URL using go-qrcode.
func serveQR(cfg *Config, path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func serveBoardPage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("assets/index.html")
		if err != nil {
			errs <- err
			return
		}

		page := strings.ReplaceAll(string(data), "{{prefix}}", cfg.prefix)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_, err = w.Write([]byte(page))
		if err != nil {
			errs <- err
		}
	}
}

// registerTriviaGame sets up routes so that:
//   - $path      → HTML client
//   - $path/ws   → WebSocket for a new board session
//   - /qr        → PNG QR code for the board URL
func registerTriviaGame(ctx context.Context, cfg *Config, path string, source ClueSource, mux *httprouter.Router, errs chan<- error) *sessionRegistry {
	sr := newSessionRegistry(cfg.sessionTimeout, cfg.log)
	go sr.reaperLoop(ctx)

	mux.GET(cfg.prefix+path, serveBoardPage(cfg, errs))
	mux.GET(cfg.prefix+path+"/ws", serveBoardWS(cfg, source, sr))
	mux.GET(cfg.prefix+"/qr", serveQR(cfg, path))

	return sr
}
