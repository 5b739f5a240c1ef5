package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbeisheim/movecheck-backend/internal/ws"
)

var (
	ErrDuplicateConnection = errors.New("connection already exists")
	ErrGameClosed          = errors.New("game closed")
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// SyncConn serialises writes to a Conn. The websocket library allows a
// single writer at a time, so every writer of a connection (broadcasts and
// direct replies alike) must go through the same SyncConn.
type SyncConn struct {
	mu   sync.Mutex
	conn Conn
}

func NewSyncConn(conn Conn) *SyncConn {
	if sc, ok := conn.(*SyncConn); ok {
		return sc
	}
	return &SyncConn{conn: conn}
}

func (c *SyncConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *SyncConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

func (c *SyncConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

func (c *SyncConn) same(conn Conn) bool {
	return c == conn || c.conn == conn
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]*SyncConn // clientID -> connection
	mu          sync.RWMutex
}

// Game owns one board. Every read and write of the board goes through the
// game's mutex, one validate-then-apply cycle at a time. Broadcasts are
// sent while that mutex is held so clients see boards in move order.
type Game struct {
	ID          string
	mu          sync.Mutex
	board       Board
	lastMove    *Move
	updatedAt   time.Time
	closed      bool
	connections *GameConnections
}

type GameState struct {
	ID        string    `json:"id"`
	Board     Board     `json:"board"`
	Rows      []string  `json:"rows"`
	LastMove  *Move     `json:"lastMove"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewGame(id string) *Game {
	return RestoreGame(id, NewBoard())
}

// RestoreGame creates a game around an existing board, e.g. one loaded
// from storage.
func RestoreGame(id string, board Board) *Game {
	return &Game{
		ID:          id,
		board:       board,
		updatedAt:   time.Now(),
		connections: NewGameConnections(),
	}
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*SyncConn),
	}
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state()
}

func (g *Game) state() GameState {
	var last *Move
	if g.lastMove != nil {
		m := *g.lastMove
		last = &m
	}
	return GameState{
		ID:        g.ID,
		Board:     g.board,
		Rows:      g.board.Rows(),
		LastMove:  last,
		UpdatedAt: g.updatedAt,
	}
}

// Board returns a copy of the current board.
func (g *Game) Board() Board {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.board
}

// CheckMove reports whether move is legal on the current board without
// changing it.
func (g *Game) CheckMove(move Move) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return IsLegal(&g.board, move.From, move.To)
}

// MakeMove validates move and applies it. Either side may move any piece.
// When save is non-nil it receives the resulting board before the move is
// committed; if it fails the game keeps its previous board.
func (g *Game) MakeMove(move Move, save func(Board) error) (GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return GameState{}, ErrGameClosed
	}
	if !IsLegal(&g.board, move.From, move.To) {
		return GameState{}, fmt.Errorf("%w: %s", ErrIllegalMove, move)
	}

	next := g.board
	Apply(&next, move.From, move.To)
	if save != nil {
		if err := save(next); err != nil {
			return GameState{}, err
		}
	}

	g.board = next
	g.lastMove = &move
	g.updatedAt = time.Now()

	state := g.state()
	g.broadcastState(state)

	return state, nil
}

// Close marks the game as deleted. Later moves fail with ErrGameClosed.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
}

// RegisterConnection adds conn under clientID and sends it the current
// state. A second connection for a client id that is already registered
// is rejected with ErrDuplicateConnection; the caller closes it.
func (g *Game) RegisterConnection(clientID string, conn Conn) error {
	if clientID == "" {
		return errors.New("client ID is required")
	}
	sc := NewSyncConn(conn)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[clientID]; exists {
		g.connections.mu.Unlock()
		return ErrDuplicateConnection
	}
	g.connections.connections[clientID] = sc
	g.connections.mu.Unlock()
	log.Printf("game %s: registered connection for client %s", g.ID, clientID)

	g.broadcastState(g.state())
	return nil
}

// UnregisterConnection removes clientID only while it still maps to conn,
// so a stale connection never evicts a newer one.
func (g *Game) UnregisterConnection(clientID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	if current, exists := g.connections.connections[clientID]; exists && current.same(conn) {
		log.Printf("game %s: unregistering connection for client %s", g.ID, clientID)
		delete(g.connections.connections, clientID)
	}
}

func (g *Game) ConnectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()

	return len(g.connections.connections)
}

// broadcastState sends state to every connection and drops the ones that
// fail to accept it. Callers hold g.mu.
func (g *Game) broadcastState(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Printf("game %s: failed to marshal state: %v", g.ID, err)
		return
	}
	msg := ws.Message{
		Type:    ws.MessageTypeBoardState,
		Payload: json.RawMessage(payload),
	}

	g.connections.mu.RLock()
	active := make(map[string]*SyncConn, len(g.connections.connections))
	for clientID, conn := range g.connections.connections {
		active[clientID] = conn
	}
	g.connections.mu.RUnlock()

	var failed []string
	for clientID, conn := range active {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("game %s: failed to send state to client %s: %v", g.ID, clientID, err)
			failed = append(failed, clientID)
		}
	}

	if len(failed) == 0 {
		return
	}
	g.connections.mu.Lock()
	for _, clientID := range failed {
		if g.connections.connections[clientID] == active[clientID] {
			delete(g.connections.connections, clientID)
		}
	}
	g.connections.mu.Unlock()
}
