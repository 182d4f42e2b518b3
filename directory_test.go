package main

import (
	"errors"
	"testing"
)

func testClient() *Client {
	return &Client{
		send: make(chan any, 64),
		done: make(chan struct{}),
	}
}

// drain empties a client's outbound queue for inspection.
func drain(c *Client) []any {
	var msgs []any
	for {
		select {
		case m := <-c.send:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestDirectoryLogin(t *testing.T) {
	dir := newDirectory()

	alice := testClient()
	p, roster, err := dir.login(alice, "alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if p.Name != "alice" || p.board == nil {
		t.Fatalf("unexpected player state: %+v", p)
	}
	if len(roster) != 0 {
		t.Fatalf("first login should see an empty roster, got %v", roster)
	}

	bob := testClient()
	_, roster, err = dir.login(bob, "bob")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(roster) != 1 || roster[0] != "alice" {
		t.Fatalf("expected roster [alice], got %v", roster)
	}

	if dir.resolve(alice) != p {
		t.Fatalf("resolve did not return the logged-in player")
	}
	if dir.resolve(testClient()) != nil {
		t.Fatalf("resolve must return nil for unknown connections")
	}
}

func TestDirectoryNameConflict(t *testing.T) {
	dir := newDirectory()

	if _, _, err := dir.login(testClient(), "alice"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := dir.login(testClient(), "alice"); !errors.Is(err, errNameConflict) {
		t.Fatalf("expected errNameConflict, got %v", err)
	}
	if _, _, err := dir.login(testClient(), "  "); err == nil {
		t.Fatalf("expected error for blank name")
	}

	c := testClient()
	if _, _, err := dir.login(c, "bob"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := dir.login(c, "carol"); err == nil {
		t.Fatalf("expected error for double login on one connection")
	}
}

func TestDirectoryDisconnectFreesName(t *testing.T) {
	dir := newDirectory()

	alice := testClient()
	p, _, err := dir.login(alice, "alice")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if got := dir.disconnect(alice); got != p {
		t.Fatalf("disconnect should return the removed player")
	}
	if dir.resolve(alice) != nil {
		t.Fatalf("resolve must fail after disconnect")
	}
	if got := dir.disconnect(alice); got != nil {
		t.Fatalf("second disconnect should be a no-op, got %+v", got)
	}

	if _, _, err := dir.login(testClient(), "alice"); err != nil {
		t.Fatalf("name should be free after disconnect: %v", err)
	}
}

func TestDirectoryBroadcastExcept(t *testing.T) {
	dir := newDirectory()

	alice := testClient()
	bob := testClient()
	if _, _, err := dir.login(alice, "alice"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := dir.login(bob, "bob"); err != nil {
		t.Fatalf("login: %v", err)
	}

	dir.broadcast(NewPlayerMessage{Type: "newPlayer", PlayerName: "carol"}, alice)

	if msgs := drain(alice); len(msgs) != 0 {
		t.Fatalf("excluded client should receive nothing, got %v", msgs)
	}
	msgs := drain(bob)
	if len(msgs) != 1 {
		t.Fatalf("expected one message for bob, got %d", len(msgs))
	}
	np, ok := msgs[0].(NewPlayerMessage)
	if !ok || np.PlayerName != "carol" {
		t.Fatalf("unexpected broadcast payload: %v", msgs[0])
	}
}
