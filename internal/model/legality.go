package model

// IsLegal reports whether the piece on from may move to to under the
// per-piece movement rules. Checks, castling, en passant, promotion and
// turn order are not considered. Out of range coordinates are illegal.
func IsLegal(b *Board, from, to Position) bool {
	if !from.InBounds() || !to.InBounds() {
		return false
	}
	if from == to {
		return false
	}

	piece := b.At(from)
	if piece.IsEmpty() {
		return false
	}
	target := b.At(to)
	if !target.IsEmpty() && target.Color == piece.Color {
		return false
	}

	dx := to.X - from.X
	dy := to.Y - from.Y

	switch piece.Type {
	case Pawn:
		return isLegalPawnMove(b, piece, from, to)
	case Rook:
		return (dx == 0 || dy == 0) && isPathClear(b, from, to)
	case Knight:
		return (abs(dx) == 2 && abs(dy) == 1) || (abs(dx) == 1 && abs(dy) == 2)
	case Bishop:
		return abs(dx) == abs(dy) && isPathClear(b, from, to)
	case Queen:
		return (dx == 0 || dy == 0 || abs(dx) == abs(dy)) && isPathClear(b, from, to)
	case King:
		return abs(dx) <= 1 && abs(dy) <= 1
	}
	return false
}

func isLegalPawnMove(b *Board, piece Piece, from, to Position) bool {
	dir, startRow := -1, 6
	if piece.Color == Black {
		dir, startRow = 1, 1
	}
	dx := to.X - from.X
	dy := to.Y - from.Y
	target := b.At(to)

	switch {
	case dy == dir && dx == 0:
		return target.IsEmpty()
	case dy == dir && abs(dx) == 1:
		return !target.IsEmpty()
	case dy == 2*dir && dx == 0 && from.Y == startRow:
		between := Position{X: from.X, Y: from.Y + dir}
		return b.At(between).IsEmpty() && target.IsEmpty()
	}
	return false
}

// isPathClear walks from towards to one unit step at a time and reports
// whether every cell strictly between them is empty. The caller guarantees
// that the two positions share a rank, file or diagonal.
func isPathClear(b *Board, from, to Position) bool {
	step := Position{X: sign(to.X - from.X), Y: sign(to.Y - from.Y)}
	for pos := (Position{X: from.X + step.X, Y: from.Y + step.Y}); pos != to; pos = (Position{X: pos.X + step.X, Y: pos.Y + step.Y}) {
		if !b.At(pos).IsEmpty() {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
