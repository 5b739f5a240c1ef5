package model

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxMoveLen bounds the text accepted by ParseMove.
const MaxMoveLen = 16

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrMalformedMove = errors.New("malformed move")
)

// Move is a transient (from, to) pair. It is validated and applied
// immediately and never stored.
type Move struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

func (m Move) String() string {
	return m.From.String() + " " + m.To.String()
}

// Apply relocates the piece on from to to, dropping whatever was on to.
// It does not check legality; callers run IsLegal first. Applying from an
// empty cell is a no-op so a repeated move never wipes its destination.
func Apply(b *Board, from, to Position) {
	piece := b.At(from)
	if piece.IsEmpty() {
		return
	}
	b.Set(to, piece)
	b.Set(from, Piece{})
}

// ParseSquare converts an algebraic square such as "e2" to a Position.
func ParseSquare(s string) (Position, error) {
	if len(s) != 2 {
		return Position{}, fmt.Errorf("%w: square %q", ErrMalformedMove, s)
	}
	file, rank := s[0], s[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Position{}, fmt.Errorf("%w: square %q", ErrMalformedMove, s)
	}
	return Position{X: int(file - 'a'), Y: BoardSize - int(rank-'0')}, nil
}

// ParseMove parses two squares separated by whitespace, e.g. "e2 e4".
func ParseMove(s string) (Move, error) {
	if len(s) > MaxMoveLen {
		return Move{}, fmt.Errorf("%w: input longer than %d bytes", ErrMalformedMove, MaxMoveLen)
	}
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Move{}, fmt.Errorf("%w: want two squares, got %q", ErrMalformedMove, s)
	}
	from, err := ParseSquare(fields[0])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(fields[1])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to}, nil
}

// Render prints the board with file letters on top and rank numbers on the
// left, rank 8 first.
func (b *Board) Render(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")
	for y := 0; y < BoardSize; y++ {
		fmt.Fprintf(&sb, "%d ", BoardSize-y)
		for x := 0; x < BoardSize; x++ {
			sb.WriteRune(b.Squares[y][x].Letter())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// ParseMoveRequest accepts either a combined move ("e2 e4") or a pair of
// squares, as sent by the HTTP and websocket clients.
func ParseMoveRequest(from, to, move string) (Move, error) {
	if move != "" {
		return ParseMove(move)
	}
	if from == "" || to == "" {
		return Move{}, fmt.Errorf("%w: both from and to are required", ErrMalformedMove)
	}
	src, err := ParseSquare(from)
	if err != nil {
		return Move{}, err
	}
	dst, err := ParseSquare(to)
	if err != nil {
		return Move{}, err
	}
	return Move{From: src, To: dst}, nil
}
