package main

import (
	"fmt"
	"sort"
)

// shipClass describes one entry of the fixed catalog every fleet is built
// from. Spaces is the number of contiguous cells the ship occupies.
type shipClass struct {
	Name   string `json:"name"`
	Spaces int    `json:"spaces"`
}

var shipCatalog = []shipClass{
	{Name: "Carrier", Spaces: 5},
	{Name: "Battleship", Spaces: 4},
	{Name: "Cruiser", Spaces: 3},
	{Name: "Submarine", Spaces: 3},
	{Name: "Destroyer", Spaces: 2},
}

func catalogSize(name string) int {
	for _, class := range shipCatalog {
		if class.Name == name {
			return class.Spaces
		}
	}
	return 0
}

// shipPlacement is the wire form of a single deployed ship.
type shipPlacement struct {
	Name      string  `json:"name"`
	Positions []coord `json:"positions"`
}

type ship struct {
	name  string
	cells []coord
	hits  map[coord]bool
}

func (s *ship) occupies(c coord) bool {
	for _, cell := range s.cells {
		if cell == c {
			return true
		}
	}
	return false
}

func (s *ship) sunk() bool {
	return len(s.hits) == len(s.cells)
}

// fleet is a player's full set of deployed ships.
type fleet struct {
	ships []*ship
}

// newFleet validates a deployment and returns the resulting fleet. Any
// violation fails the whole submission, so a player's previous fleet is
// only ever replaced by a fully valid one.
func newFleet(placements []shipPlacement) (*fleet, error) {
	placed := make(map[string]bool, len(shipCatalog))
	occupied := make(map[coord]string)

	f := &fleet{}

	for _, placement := range placements {
		size := catalogSize(placement.Name)
		if size == 0 {
			return nil, fmt.Errorf("%w: unknown ship %q", errInvalidDeployment, placement.Name)
		}
		if placed[placement.Name] {
			return nil, fmt.Errorf("%w: ship %q placed more than once", errInvalidDeployment, placement.Name)
		}
		placed[placement.Name] = true

		if len(placement.Positions) != size {
			return nil, fmt.Errorf("%w: %s occupies %d cells, got %d",
				errInvalidDeployment, placement.Name, size, len(placement.Positions))
		}

		for _, cell := range placement.Positions {
			if !cell.inBounds() {
				return nil, fmt.Errorf("%w: %s extends outside the board", errInvalidDeployment, placement.Name)
			}
			if other, taken := occupied[cell]; taken {
				return nil, fmt.Errorf("%w: %s overlaps %s", errInvalidDeployment, placement.Name, other)
			}
			occupied[cell] = placement.Name
		}

		if !contiguous(placement.Positions) {
			return nil, fmt.Errorf("%w: %s must occupy a straight, unbroken line", errInvalidDeployment, placement.Name)
		}

		cells := make([]coord, len(placement.Positions))
		copy(cells, placement.Positions)
		f.ships = append(f.ships, &ship{
			name:  placement.Name,
			cells: cells,
			hits:  make(map[coord]bool, size),
		})
	}

	for _, class := range shipCatalog {
		if !placed[class.Name] {
			return nil, fmt.Errorf("%w: missing ship %q", errInvalidDeployment, class.Name)
		}
	}

	return f, nil
}

// contiguous reports whether the cells form an unbroken axis-aligned line.
func contiguous(cells []coord) bool {
	if len(cells) < 2 {
		return false
	}

	sameRow := true
	sameCol := true
	for _, cell := range cells[1:] {
		if cell.Row != cells[0].Row {
			sameRow = false
		}
		if cell.Col != cells[0].Col {
			sameCol = false
		}
	}

	switch {
	case sameRow:
		cols := make([]int, len(cells))
		for i, cell := range cells {
			cols[i] = cell.Col
		}
		return consecutive(cols)
	case sameCol:
		rows := make([]int, len(cells))
		for i, cell := range cells {
			rows[i] = cell.Row
		}
		return consecutive(rows)
	default:
		return false
	}
}

func consecutive(values []int) bool {
	sort.Ints(values)
	for i := 1; i < len(values); i++ {
		if values[i] != values[i-1]+1 {
			return false
		}
	}
	return true
}

func (f *fleet) shipAt(c coord) *ship {
	for _, s := range f.ships {
		if s.occupies(c) {
			return s
		}
	}
	return nil
}

// defeated reports whether every ship in the fleet has been sunk.
func (f *fleet) defeated() bool {
	for _, s := range f.ships {
		if !s.sunk() {
			return false
		}
	}
	return len(f.ships) > 0
}
