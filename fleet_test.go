package main

import (
	"errors"
	"testing"
)

func shipRow(row, col, length int) []coord {
	cells := make([]coord, length)
	for i := range cells {
		cells[i] = coord{Row: row, Col: col + i}
	}
	return cells
}

func shipCol(row, col, length int) []coord {
	cells := make([]coord, length)
	for i := range cells {
		cells[i] = coord{Row: row + i, Col: col}
	}
	return cells
}

func validPlacements() []shipPlacement {
	return []shipPlacement{
		{Name: "Carrier", Positions: shipRow(0, 0, 5)},
		{Name: "Battleship", Positions: shipRow(2, 0, 4)},
		{Name: "Cruiser", Positions: shipRow(4, 0, 3)},
		{Name: "Submarine", Positions: shipCol(6, 6, 3)},
		{Name: "Destroyer", Positions: shipRow(9, 8, 2)},
	}
}

func TestNewFleetValid(t *testing.T) {
	f, err := newFleet(validPlacements())
	if err != nil {
		t.Fatalf("newFleet: %v", err)
	}

	total := 0
	seen := make(map[coord]bool)
	for _, s := range f.ships {
		total += len(s.cells)
		for _, c := range s.cells {
			if seen[c] {
				t.Fatalf("cell [%d,%d] occupied twice", c.Row, c.Col)
			}
			seen[c] = true
		}
	}
	if total != 17 {
		t.Fatalf("expected 17 occupied cells, got %d", total)
	}

	if s := f.shipAt(coord{Row: 9, Col: 8}); s == nil || s.name != "Destroyer" {
		t.Fatalf("expected Destroyer at [9,8], got %v", s)
	}
	if s := f.shipAt(coord{Row: 7, Col: 6}); s == nil || s.name != "Submarine" {
		t.Fatalf("expected Submarine at [7,6], got %v", s)
	}
	if s := f.shipAt(coord{Row: 5, Col: 5}); s != nil {
		t.Fatalf("expected empty water at [5,5], got %s", s.name)
	}
}

func TestNewFleetRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func([]shipPlacement) []shipPlacement
	}{
		{"missing ship", func(p []shipPlacement) []shipPlacement {
			return p[:4]
		}},
		{"unknown ship", func(p []shipPlacement) []shipPlacement {
			p[0].Name = "Rowboat"
			return p
		}},
		{"duplicate ship", func(p []shipPlacement) []shipPlacement {
			p[3] = shipPlacement{Name: "Cruiser", Positions: shipRow(6, 0, 3)}
			return p
		}},
		{"wrong size", func(p []shipPlacement) []shipPlacement {
			p[4].Positions = shipRow(9, 8, 1)
			return p
		}},
		{"out of bounds", func(p []shipPlacement) []shipPlacement {
			p[4].Positions = shipRow(9, 9, 2)
			return p
		}},
		{"diagonal", func(p []shipPlacement) []shipPlacement {
			p[4].Positions = []coord{{Row: 8, Col: 8}, {Row: 9, Col: 9}}
			return p
		}},
		{"gap", func(p []shipPlacement) []shipPlacement {
			p[4].Positions = []coord{{Row: 9, Col: 5}, {Row: 9, Col: 7}}
			return p
		}},
		{"overlap", func(p []shipPlacement) []shipPlacement {
			p[4].Positions = shipRow(0, 0, 2)
			return p
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newFleet(tc.mutate(validPlacements()))
			if !errors.Is(err, errInvalidDeployment) {
				t.Fatalf("expected errInvalidDeployment, got %v", err)
			}
		})
	}
}

func TestShipSunkAndFleetDefeated(t *testing.T) {
	f, err := newFleet(validPlacements())
	if err != nil {
		t.Fatalf("newFleet: %v", err)
	}

	if f.defeated() {
		t.Fatalf("fresh fleet must not be defeated")
	}

	destroyer := f.shipAt(coord{Row: 9, Col: 8})
	destroyer.hits[coord{Row: 9, Col: 8}] = true
	if destroyer.sunk() {
		t.Fatalf("one hit of two must not sink the Destroyer")
	}
	destroyer.hits[coord{Row: 9, Col: 9}] = true
	if !destroyer.sunk() {
		t.Fatalf("expected Destroyer sunk after both cells hit")
	}
	if f.defeated() {
		t.Fatalf("one sunk ship must not defeat the fleet")
	}

	for _, s := range f.ships {
		for _, c := range s.cells {
			s.hits[c] = true
		}
	}
	if !f.defeated() {
		t.Fatalf("expected fleet defeated once every ship is sunk")
	}
}
