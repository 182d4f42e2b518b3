package main

import (
	"encoding/json"
	"fmt"
)

const boardSize = 10

// coord is a single board cell, encoded on the wire as a [row, col] pair.
type coord struct {
	Row int
	Col int
}

func (c coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

func (c *coord) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}
	c.Row, c.Col = pair[0], pair[1]
	return nil
}

func (c coord) inBounds() bool {
	return c.Row >= 0 && c.Row < boardSize && c.Col >= 0 && c.Col < boardSize
}

type cellState uint8

const (
	cellEmpty cellState = iota
	cellHit
	cellMiss
)

func (s cellState) label() string {
	switch s {
	case cellHit:
		return "hit"
	case cellMiss:
		return "miss"
	default:
		return ""
	}
}

// board tracks which cells of a player's grid have been resolved.
// A cell moves from empty to hit or miss exactly once and never reverts.
type board struct {
	cells [boardSize][boardSize]cellState
}

func newBoard() *board {
	return &board{}
}

func (b *board) at(c coord) cellState {
	return b.cells[c.Row][c.Col]
}

func (b *board) mark(c coord, s cellState) error {
	if !c.inBounds() {
		return errOutOfBounds
	}
	if s != cellHit && s != cellMiss {
		return fmt.Errorf("cannot mark cell as %q", s.label())
	}
	if b.cells[c.Row][c.Col] != cellEmpty {
		return errCellResolved
	}
	b.cells[c.Row][c.Col] = s
	return nil
}

// snapshot exports the grid in the wire format clients render from:
// null for untouched cells, "hit" or "miss" otherwise.
func (b *board) snapshot() [][]*string {
	rows := make([][]*string, boardSize)
	for i := range b.cells {
		row := make([]*string, boardSize)
		for j := range b.cells[i] {
			if b.cells[i][j] != cellEmpty {
				label := b.cells[i][j].label()
				row[j] = &label
			}
		}
		rows[i] = row
	}
	return rows
}
