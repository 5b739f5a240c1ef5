package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/benbeisheim/movecheck-backend/internal/model"
)

// lineBufferSize bounds a single input line. Anything longer is drained
// and rejected as a malformed move.
const lineBufferSize = 64

const (
	prompt       = "Enter your move (e.g., e2 e4): "
	msgBadFormat = "Invalid move format. Try again."
	msgIllegal   = "Invalid move. Try again."
)

type player struct {
	board     *model.Board
	in        io.Reader
	out       io.Writer
	afterMove func(model.Board) error
}

// run prints the board and reads moves until EOF or "quit".
func (p *player) run() error {
	r := bufio.NewReaderSize(p.in, lineBufferSize)
	for {
		if err := p.board.Render(p.out); err != nil {
			return err
		}
		fmt.Fprint(p.out, prompt)

		line, err := readLine(r)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out)
			return nil
		}
		if err != nil && !errors.Is(err, model.ErrMalformedMove) {
			return err
		}
		if err == nil && strings.TrimSpace(line) == "quit" {
			return nil
		}

		if err := p.handle(line, err); err != nil {
			return err
		}
	}
}

func (p *player) handle(line string, readErr error) error {
	if readErr != nil {
		fmt.Fprintln(p.out, msgBadFormat)
		return nil
	}
	move, err := model.ParseMove(line)
	if err != nil {
		fmt.Fprintln(p.out, msgBadFormat)
		return nil
	}
	if !model.IsLegal(p.board, move.From, move.To) {
		fmt.Fprintln(p.out, msgIllegal)
		return nil
	}

	model.Apply(p.board, move.From, move.To)
	if p.afterMove != nil {
		if err := p.afterMove(*p.board); err != nil {
			return fmt.Errorf("save board: %w", err)
		}
	}
	return nil
}

// readLine reads one line without the trailing newline. A line that does
// not fit the reader's buffer is consumed in full and reported as
// ErrMalformedMove.
func readLine(r *bufio.Reader) (string, error) {
	line, isPrefix, err := r.ReadLine()
	if err != nil {
		return "", err
	}
	if !isPrefix {
		return string(line), nil
	}
	for isPrefix {
		_, isPrefix, err = r.ReadLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if err != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: line longer than %d bytes", model.ErrMalformedMove, lineBufferSize)
}
