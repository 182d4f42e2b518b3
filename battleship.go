// Armada multiplayer battleship
//
// Each player logs in over a websocket with a display name, then creates or
// joins a room by 6-digit code. Once at least two members are present a
// deployment countdown starts; all-ready or expiry moves the room into
// deployment, where every member submits a full fleet. Combat is strict
// round-robin: the current player names an opponent and a cell, everyone in
// the room sees the outcome, and a player whose last ship sinks is
// eliminated on the spot. The last fleet afloat wins.
//
// Features:
// - WebSocket per connection: $path/ws, message type discriminators
// - Global display-name registry, one name per live connection
// - Rooms with ready toggles, capacity bound and collision-free join codes
// - Deployment countdown restarting on membership changes
// - Fleet validation: catalog-complete, in-bounds, contiguous, no overlap
// - Attack outcomes broadcast to the whole room, spectators included
// - Per-defender attack history for consolidated board reconstruction
// - Rooms auto-reaped after configurable idle timeout
// - In-browser QR to share a room's join URL, backed by go-qrcode
// - REST glue: ship catalog, room roster lookup, username/key issuing

package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. Outbound messages go through the
// buffered send channel; a recipient that can't keep up just misses the
// message, delivery is at-most-once.
type Client struct {
	conn *websocket.Conn
	send chan any
	done chan struct{}
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan any, 8),
		done: make(chan struct{}),
	}
}

// notifyOne queues a message for a single connection, skipping it when the
// connection is gone or its buffer is full. Fire-and-forget.
func notifyOne(c *Client, msg any) {
	if c == nil {
		return
	}
	select {
	case c.send <- msg:
	case <-c.done:
	default:
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) readPump(cfg *Config, dir *directory, rm *roomManager) {
	defer func() {
		close(c.done)
		_ = c.conn.Close()

		if p := dir.disconnect(c); p != nil {
			if r := dir.roomOf(p); r != nil {
				r.submitLeave(leaveRequest{player: p, disconnected: true})
			}
			logf(cfg, "GAMES: Player %q disconnected", p.Name)
		}
	}()

	for {
		if cfg.playerTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(cfg.playerTimeout))
		}

		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		dispatch(cfg, dir, rm, c, msg)
	}
}

// dispatch routes one client message. Login and room creation are handled
// against the shared registries; everything scoped to a match is forwarded
// to that room's handler, which processes requests one at a time.
func dispatch(cfg *Config, dir *directory, rm *roomManager, c *Client, msg ClientMessage) {
	if msg.Type == "login" {
		p, roster, err := dir.login(c, msg.PlayerName)
		if err != nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: err.Error()})
			return
		}
		notifyOne(c, OpponentsMessage{Type: "opponents", Opponents: roster})
		dir.broadcast(NewPlayerMessage{Type: "newPlayer", PlayerName: p.Name}, c)

		logf(cfg, "GAMES: Player %q logged in", p.Name)
		return
	}

	p := dir.resolve(c)
	if p == nil {
		notifyOne(c, SimpleMessage{Type: "errorMessage", Message: "Log in before playing."})
		return
	}

	switch msg.Type {
	case "createRoom":
		if dir.roomOf(p) != nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: "Leave your current room first."})
			return
		}
		rm.create().submitJoin(joinRequest{client: c, player: p, created: true})

	case "joinRoom":
		if dir.roomOf(p) != nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: "Leave your current room first."})
			return
		}
		r := rm.lookup(msg.RoomCode)
		if r == nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: errInvalidRoomCode.Error()})
			return
		}
		r.submitJoin(joinRequest{client: c, player: p})

	case "leaveRoom":
		r := dir.roomOf(p)
		if r == nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: errNotInRoom.Error()})
			return
		}
		r.submitLeave(leaveRequest{player: p})

	case "toggleReady":
		r := dir.roomOf(p)
		if r == nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: errNotInRoom.Error()})
			return
		}
		ready := msg.Ready != nil && *msg.Ready
		r.submitReady(readyRequest{client: c, player: p, ready: ready})

	case "deploy":
		r := dir.roomOf(p)
		if r == nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: errNotInRoom.Error()})
			return
		}
		r.submitDeploy(deployRequest{client: c, player: p, ships: msg.Ships})

	case "attack":
		r := dir.roomOf(p)
		if r == nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: errNotInRoom.Error()})
			return
		}
		if msg.Position == nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: "An attack needs a position."})
			return
		}
		r.submitAttack(attackRequest{client: c, player: p, opponent: msg.Opponent, position: *msg.Position})

	case "getOpponents":
		if r := dir.roomOf(p); r != nil {
			notifyOne(c, OpponentsMessage{Type: "opponents", Opponents: r.opponents(p.Name)})
		} else {
			notifyOne(c, OpponentsMessage{Type: "opponents", Opponents: dir.names(p.Name)})
		}

	case "getBoardState":
		if r := dir.roomOf(p); r != nil {
			notifyOne(c, BoardStateMessage{Type: "boardState", BoardState: r.boardSnapshot(p)})
		} else {
			notifyOne(c, BoardStateMessage{Type: "boardState", BoardState: p.board.snapshot()})
		}

	case "getAttackHistory":
		r := dir.roomOf(p)
		if r == nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: errNotInRoom.Error()})
			return
		}
		records, err := r.attackHistory(msg.Opponent)
		if err != nil {
			notifyOne(c, SimpleMessage{Type: "errorMessage", Message: err.Error()})
			return
		}
		notifyOne(c, AttackHistoryMessage{Type: "attackHistory", Opponent: msg.Opponent, Attacks: records})

	default:
		logf(cfg, "GAMES: Ignoring unknown message type %q", msg.Type)
	}
}

// serveWS upgrades the connection and runs the pumps.
func serveWS(cfg *Config, dir *directory, rm *roomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := newClient(conn)

		go client.writePump()
		client.readPump(cfg, dir, rm)
	}
}

// registerBattleship sets up routes so that:
//   - $path/ws           → websocket for login and gameplay
//   - $path/boats        → ship catalog (JSON)
//   - $path/login        → POST, issues the caller's identity key
//   - $path/rooms/:code     → room roster (JSON)
//   - $path/rooms/:code/qr  → PNG QR code for that room's join URL
func registerBattleship(cfg *Config, path string, mux *httprouter.Router) error {
	ks, err := newKeyStore(cfg.keyStore)
	if err != nil {
		return err
	}

	dir := newDirectory()
	rm := newRoomManager(cfg, dir)

	mux.GET(cfg.prefix+path+"/ws", serveWS(cfg, dir, rm))

	mux.GET(cfg.prefix+path+"/boats", serveBoats(cfg))

	mux.POST(cfg.prefix+path+"/login", serveKeyLogin(cfg, ks))

	mux.GET(cfg.prefix+path+"/rooms/:code", serveRoomInfo(cfg, rm))

	mux.GET(cfg.prefix+path+"/rooms/:code/qr", serveRoomQR(cfg, rm))

	return nil
}
