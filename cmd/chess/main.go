// Command chess is a line-oriented terminal chess board. Either side may
// move any piece; only piece movement rules are enforced.
package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/benbeisheim/movecheck-backend/internal/model"
	"github.com/benbeisheim/movecheck-backend/internal/storage"
)

var (
	dbDir  = flag.String("db", "", "Board database directory (default: no persistence)")
	gameID = flag.String("game", "local", "Game id to load and save when -db is set")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	board := model.NewBoard()
	var store *storage.Store
	if *dbDir != "" {
		var err error
		store, err = storage.Open(*dbDir)
		if err != nil {
			log.Fatalf("open %s: %v", *dbDir, err)
		}
		defer store.Close()

		saved, err := store.LoadBoard(*gameID)
		switch {
		case err == nil:
			board = saved
		case !errors.Is(err, storage.ErrNotFound):
			log.Fatalf("load game %s: %v", *gameID, err)
		}
	}

	p := &player{board: &board, in: os.Stdin, out: os.Stdout}
	if store != nil {
		p.afterMove = func(b model.Board) error {
			return store.SaveBoard(*gameID, b)
		}
	}
	if err := p.run(); err != nil {
		log.Fatal(err)
	}
}
