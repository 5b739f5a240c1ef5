package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbeisheim/movecheck-backend/internal/model"
	"github.com/benbeisheim/movecheck-backend/internal/storage"
	"github.com/benbeisheim/movecheck-backend/internal/testutil"
)

func mustMove(t *testing.T, s string) model.Move {
	t.Helper()
	m, err := model.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q) error: %v", s, err)
	}
	return m
}

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGameManagerInMemory(t *testing.T) {
	gm := NewGameManager(nil)

	_, err := gm.CreateGame("g1")
	testutil.AssertNoError(t, err)
	_, err = gm.CreateGame("g1")
	testutil.AssertErrorIs(t, err, ErrGameExists)

	_, err = gm.GetGame("nope")
	testutil.AssertErrorIs(t, err, ErrGameNotFound)

	legal, err := gm.CheckMove("g1", mustMove(t, "e2 e4"))
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, legal)

	_, err = gm.MakeMove("g1", mustMove(t, "e2 e5"))
	testutil.AssertErrorIs(t, err, model.ErrIllegalMove)

	state, err := gm.MakeMove("g1", mustMove(t, "e2 e4"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Rows[4], "    P   ")

	_, err = gm.MakeMove("nope", mustMove(t, "e2 e4"))
	testutil.AssertErrorIs(t, err, ErrGameNotFound)

	ids, err := gm.ListGames()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ids, []string{"g1"})

	testutil.AssertNoError(t, gm.DeleteGame("g1"))
	testutil.AssertErrorIs(t, gm.DeleteGame("g1"), ErrGameNotFound)
}

func TestGameManagerPersists(t *testing.T) {
	store := newStore(t)

	gm := NewGameManager(store)
	_, err := gm.CreateGame("g1")
	testutil.AssertNoError(t, err)
	state, err := gm.MakeMove("g1", mustMove(t, "g1 f3"))
	testutil.AssertNoError(t, err)

	saved, err := store.LoadBoard("g1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, saved, state.Board)

	// A fresh manager on the same store restores the game lazily.
	restarted := NewGameManager(store)
	got, err := restarted.GetGameState("g1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got.Board, state.Board)

	ids, err := restarted.ListGames()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ids, []string{"g1"})

	testutil.AssertNoError(t, restarted.DeleteGame("g1"))
	_, err = store.LoadBoard("g1")
	testutil.AssertErrorIs(t, err, storage.ErrNotFound)
}

type failingStore struct{}

var errDiskFull = errors.New("disk full")

func (failingStore) SaveBoard(string, model.Board) error { return errDiskFull }
func (failingStore) LoadBoard(string) (model.Board, error) { return model.Board{}, errDiskFull }
func (failingStore) DeleteBoard(string) error { return errDiskFull }
func (failingStore) ListGames() ([]string, error) { return nil, errDiskFull }

func TestGameManagerStoreErrors(t *testing.T) {
	gm := NewGameManager(failingStore{})

	_, err := gm.CreateGame("g1")
	testutil.AssertErrorIs(t, err, errDiskFull)

	_, err = gm.GetGame("g1")
	testutil.AssertErrorIs(t, err, errDiskFull)

	_, err = gm.ListGames()
	testutil.AssertErrorIs(t, err, errDiskFull)
}

// flakyStore fails saves while failSaves is set and slows every save down so
// concurrent writers overlap.
type flakyStore struct {
	*storage.Store
	mu        sync.Mutex
	failSaves bool
	delay     time.Duration
}

func (s *flakyStore) SaveBoard(id string, board model.Board) error {
	s.mu.Lock()
	fail, delay := s.failSaves, s.delay
	s.mu.Unlock()
	if fail {
		return errDiskFull
	}
	time.Sleep(delay)
	return s.Store.SaveBoard(id, board)
}

func (s *flakyStore) setFailSaves(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = fail
}

func TestGameManagerFailedSaveKeepsBoard(t *testing.T) {
	store := &flakyStore{Store: newStore(t)}
	gm := NewGameManager(store)
	_, err := gm.CreateGame("g1")
	testutil.AssertNoError(t, err)

	store.setFailSaves(true)
	_, err = gm.MakeMove("g1", mustMove(t, "e2 e4"))
	testutil.AssertErrorIs(t, err, errDiskFull)

	state, err := gm.GetGameState("g1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Board, model.NewBoard(), "live board after failed save")
	saved, err := store.LoadBoard("g1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, saved, state.Board, "stored board after failed save")

	store.setFailSaves(false)
	state, err = gm.MakeMove("g1", mustMove(t, "e2 e4"))
	testutil.AssertNoError(t, err, "move can be retried once the store recovers")
	testutil.AssertEqual(t, state.Rows[4], "    P   ")
}

func TestGameManagerConcurrentMovesSaveInOrder(t *testing.T) {
	store := &flakyStore{Store: newStore(t), delay: 5 * time.Millisecond}
	gm := NewGameManager(store)
	_, err := gm.CreateGame("g1")
	testutil.AssertNoError(t, err)

	moves := []string{"a2 a3", "b2 b4", "g1 f3", "b8 c6", "h7 h5", "d7 d6"}
	var wg sync.WaitGroup
	for _, s := range moves {
		m := mustMove(t, s)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := gm.MakeMove("g1", m); err != nil {
				t.Errorf("MakeMove(%s) error: %v", m, err)
			}
		}()
	}
	wg.Wait()

	live, err := gm.GetGameState("g1")
	testutil.AssertNoError(t, err)
	saved, err := store.LoadBoard("g1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, saved, live.Board, "stored board matches live board")
}

func TestGameManagerMoveAfterDelete(t *testing.T) {
	store := newStore(t)
	gm := NewGameManager(store)
	game, err := gm.CreateGame("g1")
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, gm.DeleteGame("g1"))

	// A caller still holding the game from before the delete.
	_, err = game.MakeMove(mustMove(t, "e2 e4"), func(b model.Board) error {
		return store.SaveBoard("g1", b)
	})
	testutil.AssertErrorIs(t, err, model.ErrGameClosed)

	_, err = gm.MakeMove("g1", mustMove(t, "e2 e4"))
	testutil.AssertErrorIs(t, err, ErrGameNotFound)
	_, err = store.LoadBoard("g1")
	testutil.AssertErrorIs(t, err, storage.ErrNotFound, "deleted game stays deleted")
	ids, err := gm.ListGames()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(ids), 0)
}

func TestGameManagerDeleteRacingMoves(t *testing.T) {
	store := &flakyStore{Store: newStore(t), delay: 2 * time.Millisecond}
	gm := NewGameManager(store)
	_, err := gm.CreateGame("g1")
	testutil.AssertNoError(t, err)

	var wg sync.WaitGroup
	for _, s := range []string{"a2 a3", "b2 b3", "c2 c3", "d2 d3"} {
		m := mustMove(t, s)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gm.MakeMove("g1", m)
			if err != nil && !errors.Is(err, ErrGameNotFound) {
				t.Errorf("MakeMove(%s) error: %v", m, err)
			}
		}()
	}
	testutil.AssertNoError(t, gm.DeleteGame("g1"))
	wg.Wait()

	_, err = store.LoadBoard("g1")
	testutil.AssertErrorIs(t, err, storage.ErrNotFound, "no save lands after the delete")
	_, err = gm.GetGame("g1")
	testutil.AssertErrorIs(t, err, ErrGameNotFound)
}

func TestGameServiceCreateGame(t *testing.T) {
	gs := NewGameService(NewGameManager(nil))

	id, err := gs.CreateGame()
	testutil.AssertNoError(t, err)
	if len(id) != 36 {
		t.Errorf("CreateGame() id = %q, want a uuid", id)
	}

	state, err := gs.GetGameState(id)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, state.Board, model.NewBoard())

	_, err = gs.HandleMove(id, mustMove(t, "b8 c6"))
	testutil.AssertNoError(t, err, "black may move first")
}
