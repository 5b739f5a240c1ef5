package model

import (
	"fmt"
	"unicode"
)

const BoardSize = 8

type PieceType string

const (
	NoPiece PieceType = ""
	King    PieceType = "king"
	Queen   PieceType = "queen"
	Rook    PieceType = "rook"
	Bishop  PieceType = "bishop"
	Knight  PieceType = "knight"
	Pawn    PieceType = "pawn"
)

func (p PieceType) letter() rune {
	switch p {
	case King:
		return 'k'
	case Queen:
		return 'q'
	case Rook:
		return 'r'
	case Bishop:
		return 'b'
	case Knight:
		return 'n'
	case Pawn:
		return 'p'
	}
	return ' '
}

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Piece is the content of one cell. The zero value is an empty cell.
type Piece struct {
	Type  PieceType `json:"type,omitempty"`
	Color Color     `json:"color,omitempty"`
}

func (p Piece) IsEmpty() bool {
	return p.Type == NoPiece
}

// Letter returns the display form of the piece: uppercase for White,
// lowercase for Black, a space for an empty cell.
func (p Piece) Letter() rune {
	if p.IsEmpty() {
		return ' '
	}
	l := p.Type.letter()
	if p.Color == White {
		return unicode.ToUpper(l)
	}
	return l
}

// PieceFromLetter is the inverse of Letter. A space yields the empty piece.
func PieceFromLetter(r rune) (Piece, error) {
	if r == ' ' {
		return Piece{}, nil
	}
	color := Black
	if unicode.IsUpper(r) {
		color = White
	}
	switch unicode.ToLower(r) {
	case 'k':
		return Piece{Type: King, Color: color}, nil
	case 'q':
		return Piece{Type: Queen, Color: color}, nil
	case 'r':
		return Piece{Type: Rook, Color: color}, nil
	case 'b':
		return Piece{Type: Bishop, Color: color}, nil
	case 'n':
		return Piece{Type: Knight, Color: color}, nil
	case 'p':
		return Piece{Type: Pawn, Color: color}, nil
	}
	return Piece{}, fmt.Errorf("unknown piece letter %q", r)
}

// Position addresses a cell. X is the column (file a = 0), Y is the row
// (row 0 = rank 8).
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < BoardSize && p.Y >= 0 && p.Y < BoardSize
}

// String returns the algebraic square name, e.g. "e2".
func (p Position) String() string {
	if !p.InBounds() {
		return fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return fmt.Sprintf("%c%d", p.X+'a', BoardSize-p.Y)
}

// Board is an 8x8 grid indexed as Squares[Y][X]. It is a value type, so
// copying a Board copies every cell.
type Board struct {
	Squares [BoardSize][BoardSize]Piece `json:"squares"`
}

var initialRows = [BoardSize]string{
	"rnbqkbnr",
	"pppppppp",
	"        ",
	"        ",
	"        ",
	"        ",
	"PPPPPPPP",
	"RNBQKBNR",
}

// NewBoard returns the standard starting position.
func NewBoard() Board {
	var b Board
	for y, row := range initialRows {
		for x, r := range row {
			// initialRows only holds known letters
			b.Squares[y][x], _ = PieceFromLetter(r)
		}
	}
	return b
}

// At returns the piece at pos. Callers must pass an in-bounds position.
func (b *Board) At(pos Position) Piece {
	return b.Squares[pos.Y][pos.X]
}

func (b *Board) Set(pos Position, piece Piece) {
	b.Squares[pos.Y][pos.X] = piece
}

// Rows returns the board as eight strings of piece letters, rank 8 first.
func (b *Board) Rows() []string {
	rows := make([]string, 0, BoardSize)
	for y := 0; y < BoardSize; y++ {
		row := make([]rune, BoardSize)
		for x := 0; x < BoardSize; x++ {
			row[x] = b.Squares[y][x].Letter()
		}
		rows = append(rows, string(row))
	}
	return rows
}

// BoardFromRows builds a board from eight rows of piece letters, rank 8
// first, using a space for empty cells.
func BoardFromRows(rows []string) (Board, error) {
	var b Board
	if len(rows) != BoardSize {
		return b, fmt.Errorf("want %d rows, got %d", BoardSize, len(rows))
	}
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != BoardSize {
			return b, fmt.Errorf("row %d: want %d cells, got %d", y, BoardSize, len(runes))
		}
		for x, r := range runes {
			piece, err := PieceFromLetter(r)
			if err != nil {
				return b, fmt.Errorf("row %d: %w", y, err)
			}
			b.Squares[y][x] = piece
		}
	}
	return b, nil
}
