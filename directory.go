package main

import (
	"errors"
	"strings"
	"sync"
)

// Player is the server-side state for one logged-in connection. Name and
// client never change after login; board, fleet and the per-match flags are
// only touched by the owning room's handlers.
type Player struct {
	Name     string
	client   *Client
	board    *board
	fleet    *fleet
	deployed bool
	ready    bool
	defeated bool
	room     *room
}

// directory is the single source of truth for connection identity. It is
// the only structure shared between rooms, so every access is serialized
// by its own lock.
type directory struct {
	mu      sync.RWMutex
	players map[*Client]*Player
	byName  map[string]*Client
}

func newDirectory() *directory {
	return &directory{
		players: make(map[*Client]*Player),
		byName:  make(map[string]*Client),
	}
}

// login registers a connection under a display name and returns the new
// player along with the names of everyone else currently logged in.
func (d *directory) login(c *Client, name string) (*Player, []string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, errors.New("a player name is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.players[c] != nil {
		return nil, nil, errors.New("this connection is already logged in")
	}
	if _, taken := d.byName[name]; taken {
		return nil, nil, errNameConflict
	}

	p := &Player{
		Name:   name,
		client: c,
		board:  newBoard(),
	}
	d.players[c] = p
	d.byName[name] = c

	return p, d.namesLocked(name), nil
}

// resolve maps a connection back to its player, or nil before login.
func (d *directory) resolve(c *Client) *Player {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.players[c]
}

// disconnect removes a connection's player and returns it so the caller
// can run room cleanup with the pre-disconnect identity.
func (d *directory) disconnect(c *Client) *Player {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.players[c]
	if p == nil {
		return nil
	}
	delete(d.players, c)
	delete(d.byName, p.Name)

	return p
}

func (d *directory) names(except string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.namesLocked(except)
}

func (d *directory) namesLocked(except string) []string {
	names := make([]string, 0, len(d.byName))
	for name := range d.byName {
		if name == except {
			continue
		}
		names = append(names, name)
	}
	return names
}

// broadcast fans a message out to every logged-in connection except one.
// Delivery is fire-and-forget.
func (d *directory) broadcast(msg any, except *Client) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for c := range d.players {
		if c == except {
			continue
		}
		notifyOne(c, msg)
	}
}

func (d *directory) setRoom(p *Player, r *room) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p.room = r
}

func (d *directory) roomOf(p *Player) *room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return p.room
}
