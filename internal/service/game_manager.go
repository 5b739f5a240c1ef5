// service/game_manager.go
package service

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/benbeisheim/movecheck-backend/internal/model"
	"github.com/benbeisheim/movecheck-backend/internal/storage"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

// BoardStore persists boards between restarts. storage.Store implements it.
type BoardStore interface {
	SaveBoard(id string, board model.Board) error
	LoadBoard(id string) (model.Board, error)
	DeleteBoard(id string) error
	ListGames() ([]string, error)
}

type GameManager struct {
	games map[string]*model.Game
	store BoardStore
	mu    sync.RWMutex
}

// NewGameManager creates a manager. store may be nil, in which case games
// only live in memory.
func NewGameManager(store BoardStore) *GameManager {
	return &GameManager{
		games: make(map[string]*model.Game),
		store: store,
	}
}

func (gm *GameManager) CreateGame(gameID string) (*model.Game, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return nil, ErrGameExists
	}

	game := model.NewGame(gameID)
	if err := gm.persist(game.ID, game.Board()); err != nil {
		return nil, err
	}
	gm.games[gameID] = game
	return game, nil
}

// GetGame returns a live game, restoring it from the store if it is not
// in memory yet.
func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	game, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if exists {
		return game, nil
	}
	if gm.store == nil {
		return nil, ErrGameNotFound
	}

	// Load under the write lock so a concurrent DeleteGame cannot be undone
	// by a restore that read the board before it was deleted.
	gm.mu.Lock()
	defer gm.mu.Unlock()
	if game, exists := gm.games[gameID]; exists {
		return game, nil
	}
	board, err := gm.store.LoadBoard(gameID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	game = model.RestoreGame(gameID, board)
	gm.games[gameID] = game
	log.Printf("restored game %s from storage", gameID)
	return game, nil
}

func (gm *GameManager) GetGameState(gameID string) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

// CheckMove reports whether move is legal in the game without applying it.
func (gm *GameManager) CheckMove(gameID string, move model.Move) (bool, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return false, err
	}
	return game.CheckMove(move), nil
}

// MakeMove validates and applies move. The resulting board is saved while
// the game is locked, so saves land in move order; when the save fails the
// move is not applied.
func (gm *GameManager) MakeMove(gameID string, move model.Move) (model.GameState, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}

	var save func(model.Board) error
	if gm.store != nil {
		save = func(board model.Board) error {
			return gm.persist(gameID, board)
		}
	}
	state, err := game.MakeMove(move, save)
	if errors.Is(err, model.ErrGameClosed) {
		return model.GameState{}, ErrGameNotFound
	}
	return state, err
}

// DeleteGame closes the game before removing it from the store, so a move
// racing the delete either saves first or is refused.
func (gm *GameManager) DeleteGame(gameID string) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	game.Close()
	delete(gm.games, gameID)
	if gm.store != nil {
		if err := gm.store.DeleteBoard(gameID); err != nil {
			return fmt.Errorf("delete game %s: %w", gameID, err)
		}
	}
	return nil
}

// ListGames returns the ids of live and stored games, sorted.
func (gm *GameManager) ListGames() ([]string, error) {
	seen := make(map[string]struct{})

	gm.mu.RLock()
	for id := range gm.games {
		seen[id] = struct{}{}
	}
	gm.mu.RUnlock()

	if gm.store != nil {
		stored, err := gm.store.ListGames()
		if err != nil {
			return nil, fmt.Errorf("list games: %w", err)
		}
		for _, id := range stored {
			seen[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (gm *GameManager) RegisterConnection(gameID string, clientID string, conn model.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(clientID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, clientID string, conn model.Conn) {
	gm.mu.RLock()
	game, exists := gm.games[gameID]
	gm.mu.RUnlock()
	if !exists {
		return
	}
	game.UnregisterConnection(clientID, conn)
}

func (gm *GameManager) persist(gameID string, board model.Board) error {
	if gm.store == nil {
		return nil
	}
	if err := gm.store.SaveBoard(gameID, board); err != nil {
		return fmt.Errorf("save game %s: %w", gameID, err)
	}
	return nil
}
