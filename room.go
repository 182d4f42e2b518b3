package main

import (
	"sync"
	"time"
)

type phase uint8

const (
	phaseWaiting phase = iota
	phaseDeployment
	phaseCombat
	phaseOver
)

func (p phase) String() string {
	switch p {
	case phaseWaiting:
		return "waiting"
	case phaseDeployment:
		return "deployment"
	case phaseCombat:
		return "combat"
	case phaseOver:
		return "over"
	default:
		return "unknown"
	}
}

type joinRequest struct {
	client  *Client
	player  *Player
	created bool
}

type leaveRequest struct {
	player       *Player
	disconnected bool
}

type readyRequest struct {
	client *Client
	player *Player
	ready  bool
}

type deployRequest struct {
	client *Client
	player *Player
	ships  []shipPlacement
}

type attackRequest struct {
	client   *Client
	player   *Player
	opponent string
	position coord
}

// room owns the full state of one match. Mutations arrive over the request
// channels and are drained one at a time by run, so no two commands are
// ever resolved concurrently for the same room. The lock covers the timer
// callback, the reaper and read-only snapshots.
type room struct {
	code    string
	cfg     *Config
	dir     *directory
	manager *roomManager

	joins   chan joinRequest
	leaves  chan leaveRequest
	readies chan readyRequest
	deploys chan deployRequest
	attacks chan attackRequest
	done    chan struct{}

	mu        sync.RWMutex
	closeOnce sync.Once

	members     []*Player
	phase       phase
	turn        int
	closed      bool
	attackLog   map[string][]AttackRecord
	deployTimer *time.Timer
	createdAt   time.Time
	lastActive  time.Time
}

func newRoom(cfg *Config, dir *directory, manager *roomManager, code string) *room {
	now := time.Now()
	return &room{
		code:       code,
		cfg:        cfg,
		dir:        dir,
		manager:    manager,
		joins:      make(chan joinRequest),
		leaves:     make(chan leaveRequest),
		readies:    make(chan readyRequest),
		deploys:    make(chan deployRequest),
		attacks:    make(chan attackRequest),
		done:       make(chan struct{}),
		attackLog:  make(map[string][]AttackRecord),
		createdAt:  now,
		lastActive: now,
	}
}

func (r *room) run() {
	for {
		select {
		case jr := <-r.joins:
			r.handleJoin(jr)
		case lr := <-r.leaves:
			r.handleLeave(lr)
		case rr := <-r.readies:
			r.handleReady(rr)
		case dr := <-r.deploys:
			r.handleDeploy(dr)
		case ar := <-r.attacks:
			r.handleAttack(ar)
		case <-r.done:
			return
		}
	}
}

// The submit helpers hand a request to the room's handler, dropping it if
// the room has already been destroyed.

func (r *room) submitJoin(jr joinRequest) {
	select {
	case r.joins <- jr:
	case <-r.done:
		notifyOne(jr.client, SimpleMessage{
			Type:    "errorMessage",
			Message: errInvalidRoomCode.Error(),
		})
	}
}

func (r *room) submitLeave(lr leaveRequest) {
	select {
	case r.leaves <- lr:
	case <-r.done:
	}
}

func (r *room) submitReady(rr readyRequest) {
	select {
	case r.readies <- rr:
	case <-r.done:
	}
}

func (r *room) submitDeploy(dr deployRequest) {
	select {
	case r.deploys <- dr:
	case <-r.done:
	}
}

func (r *room) submitAttack(ar attackRequest) {
	select {
	case r.attacks <- ar:
	case <-r.done:
	}
}

func (r *room) handleJoin(jr joinRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if r.closed {
		notifyOne(jr.client, SimpleMessage{
			Type:    "errorMessage",
			Message: errInvalidRoomCode.Error(),
		})
		return
	}
	if r.phase != phaseWaiting {
		notifyOne(jr.client, SimpleMessage{
			Type:    "errorMessage",
			Message: "That match has already started.",
		})
		return
	}
	if len(r.members) >= r.cfg.roomCapacity {
		notifyOne(jr.client, SimpleMessage{
			Type:    "errorMessage",
			Message: errRoomFull.Error(),
		})
		return
	}

	p := jr.player
	p.board = newBoard()
	p.fleet = nil
	p.deployed = false
	p.ready = false
	p.defeated = false

	r.members = append(r.members, p)
	r.dir.setRoom(p, r)

	confirmType := "roomJoined"
	if jr.created {
		confirmType = "roomCreated"
	}
	notifyOne(jr.client, RoomStateMessage{
		Type:     confirmType,
		RoomCode: r.code,
		Players:  r.rosterLocked(),
	})

	if len(r.members) < 2 {
		notifyOne(jr.client, SimpleMessage{
			Type:    "waitingForPlayers",
			Message: "Waiting for more players to join.",
		})
	}

	r.broadcastLocked(RoomStateMessage{
		Type:     "updatePlayers",
		RoomCode: r.code,
		Players:  r.rosterLocked(),
	})

	// The countdown restarts on every membership change while at least
	// two players are present.
	if len(r.members) >= 2 {
		r.resetDeployTimerLocked()
		r.broadcastLocked(SignalMessage{Type: "resetWaitingTimer"})
	}

	logf(r.cfg, "GAMES: Player %q joined room %s (%d/%d)", p.Name, r.code, len(r.members), r.cfg.roomCapacity)
}

func (r *room) handleReady(rr readyRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if r.phase != phaseWaiting {
		return
	}
	if len(r.members) < 2 {
		notifyOne(rr.client, SimpleMessage{
			Type:    "errorMessage",
			Message: "At least 2 players are required to start the game.",
		})
		return
	}

	rr.player.ready = rr.ready

	r.broadcastLocked(RoomStateMessage{
		Type:     "updatePlayers",
		RoomCode: r.code,
		Players:  r.rosterLocked(),
	})

	for _, m := range r.members {
		if !m.ready {
			return
		}
	}
	r.beginDeploymentLocked()
}

// beginDeploymentLocked is the single entry point for the waiting-room ->
// deployment transition. The timer expiring and the last ready toggle can
// race; whichever arrives first wins and the other becomes a no-op.
func (r *room) beginDeploymentLocked() {
	if r.phase != phaseWaiting {
		return
	}
	r.phase = phaseDeployment
	r.stopDeployTimerLocked()

	r.broadcastLocked(SignalMessage{Type: "startGame"})
	r.broadcastLocked(r.deploymentStatusLocked())

	logf(r.cfg, "GAMES: Room %s entered deployment with %d players", r.code, len(r.members))
}

func (r *room) deployTimerExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) < 2 {
		return
	}
	r.beginDeploymentLocked()
}

func (r *room) resetDeployTimerLocked() {
	r.stopDeployTimerLocked()
	r.deployTimer = time.AfterFunc(r.cfg.deployTimeout, r.deployTimerExpired)
}

func (r *room) stopDeployTimerLocked() {
	if r.deployTimer != nil {
		r.deployTimer.Stop()
		r.deployTimer = nil
	}
}

func (r *room) handleDeploy(dr deployRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	if r.phase != phaseDeployment {
		notifyOne(dr.client, SimpleMessage{
			Type:    "errorMessage",
			Message: "Deployment is not open.",
		})
		return
	}

	f, err := newFleet(dr.ships)
	if err != nil {
		notifyOne(dr.client, SimpleMessage{
			Type:    "errorMessage",
			Message: err.Error(),
		})
		return
	}

	p := dr.player
	p.fleet = f
	p.deployed = true

	r.broadcastLocked(r.deploymentStatusLocked())

	logf(r.cfg, "GAMES: Player %q deployed their fleet in room %s", p.Name, r.code)

	for _, m := range r.members {
		if !m.deployed {
			return
		}
	}
	r.beginCombatLocked()
}

func (r *room) beginCombatLocked() {
	if r.phase != phaseDeployment {
		return
	}
	r.phase = phaseCombat
	r.turn = 0

	r.broadcastLocked(SignalMessage{Type: "allPlayersReady"})
	r.broadcastLocked(TurnMessage{Type: "turn", PlayerName: r.members[r.turn].Name})

	logf(r.cfg, "GAMES: Room %s entered combat, first turn: %q", r.code, r.members[r.turn].Name)
}

func (r *room) handleAttack(ar attackRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	attacker := ar.player

	if r.phase != phaseCombat {
		notifyOne(ar.client, SimpleMessage{
			Type:    "errorMessage",
			Message: "The match is not in progress.",
		})
		return
	}

	if r.members[r.turn] != attacker {
		notifyOne(ar.client, SimpleMessage{
			Type:    "invalidTurn",
			Message: errNotYourTurn.Error(),
		})
		return
	}

	if ar.opponent == attacker.Name {
		notifyOne(ar.client, SimpleMessage{
			Type:    "errorMessage",
			Message: "You cannot attack yourself.",
		})
		return
	}

	defender := r.memberLocked(ar.opponent)
	if defender == nil || defender.defeated {
		notifyOne(ar.client, SimpleMessage{
			Type:    "errorMessage",
			Message: errUnknownOpponent.Error(),
		})
		return
	}

	if !ar.position.inBounds() {
		notifyOne(ar.client, SimpleMessage{
			Type:    "errorMessage",
			Message: errOutOfBounds.Error(),
		})
		return
	}

	if defender.board.at(ar.position) != cellEmpty {
		notifyOne(ar.client, SimpleMessage{
			Type:    "invalidTurn",
			Message: errCellResolved.Error(),
		})
		return
	}

	target := defender.fleet.shipAt(ar.position)
	hit := target != nil

	result := AttackResultMessage{
		Type:           "attackResult",
		Position:       ar.position,
		Hit:            hit,
		Player:         attacker.Name,
		AttackedPlayer: defender.Name,
	}

	// mark cannot fail here: the position was bounds-checked and the
	// cell confirmed empty above.
	if hit {
		target.hits[ar.position] = true
		_ = defender.board.mark(ar.position, cellHit)
		result.ShipName = target.name
		result.Sunk = target.sunk()
	} else {
		_ = defender.board.mark(ar.position, cellMiss)
	}

	r.attackLog[defender.Name] = append(r.attackLog[defender.Name], AttackRecord{
		Attacker: attacker.Name,
		Position: ar.position,
		Hit:      hit,
		ShipName: result.ShipName,
	})

	r.broadcastLocked(result)

	logf(r.cfg, "GAMES: %q attacked %q at [%d,%d] in room %s: %s",
		attacker.Name, defender.Name, ar.position.Row, ar.position.Col, r.code, outcome(hit))

	if hit && defender.fleet.defeated() {
		r.eliminateLocked(defender)
		return
	}

	r.advanceTurnLocked()
}

// eliminateLocked removes a defeated player from the rotation. They stay
// in the member list so they keep receiving broadcasts as a spectator.
func (r *room) eliminateLocked(defender *Player) {
	defender.defeated = true

	notifyOne(defender.client, GameOverMessage{Type: "gameOver", Result: "defeat"})
	for _, m := range r.members {
		if m == defender {
			continue
		}
		notifyOne(m.client, PlayerDefeatedMessage{Type: "playerDefeated", PlayerName: defender.Name})
	}

	logf(r.cfg, "GAMES: Player %q was defeated in room %s", defender.Name, r.code)

	active := r.activeLocked()
	if len(active) == 1 {
		r.finishLocked(active[0])
		return
	}

	r.advanceTurnLocked()
}

func (r *room) finishLocked(winner *Player) {
	if r.phase == phaseOver {
		return
	}
	r.phase = phaseOver
	r.stopDeployTimerLocked()

	notifyOne(winner.client, GameOverMessage{Type: "gameOver", Result: "victory"})

	logf(r.cfg, "GAMES: Room %s finished, winner: %q", r.code, winner.Name)
}

// advanceTurnLocked moves the pointer to the next non-defeated member,
// round-robin in join order, and announces the new turn.
func (r *room) advanceTurnLocked() {
	if len(r.members) == 0 {
		return
	}
	for i := 0; i < len(r.members); i++ {
		r.turn = (r.turn + 1) % len(r.members)
		if !r.members[r.turn].defeated {
			break
		}
	}
	r.broadcastLocked(TurnMessage{Type: "turn", PlayerName: r.members[r.turn].Name})
}

func (r *room) handleLeave(lr leaveRequest) {
	r.mu.Lock()

	r.lastActive = time.Now()

	p := lr.player
	idx := -1
	for i, m := range r.members {
		if m == p {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return
	}

	wasTurn := r.phase == phaseCombat && r.members[r.turn] == p

	r.members = append(r.members[:idx], r.members[idx+1:]...)
	r.dir.setRoom(p, nil)
	p.ready = false
	p.deployed = false
	p.defeated = false

	if idx < r.turn {
		r.turn--
	}
	if r.turn >= len(r.members) {
		r.turn = 0
	}

	r.broadcastLocked(RoomStateMessage{
		Type:     "playerLeft",
		RoomCode: r.code,
		Players:  r.rosterLocked(),
	})

	switch r.phase {
	case phaseWaiting:
		if len(r.members) >= 2 {
			r.resetDeployTimerLocked()
			r.broadcastLocked(SignalMessage{Type: "resetWaitingTimer"})
		} else {
			r.stopDeployTimerLocked()
		}

	case phaseDeployment:
		if active := r.activeLocked(); len(active) == 1 {
			r.finishLocked(active[0])
			break
		}
		if len(r.members) > 0 {
			r.broadcastLocked(r.deploymentStatusLocked())
			allDeployed := true
			for _, m := range r.members {
				if !m.deployed {
					allDeployed = false
					break
				}
			}
			if allDeployed {
				r.beginCombatLocked()
			}
		}

	case phaseCombat:
		active := r.activeLocked()
		switch len(active) {
		case 0:
		case 1:
			r.finishLocked(active[0])
		default:
			// Keep the pointer on a live member; announce whose move
			// it is now if the leaver held the turn.
			for r.members[r.turn].defeated {
				r.turn = (r.turn + 1) % len(r.members)
			}
			if wasTurn {
				r.broadcastLocked(TurnMessage{Type: "turn", PlayerName: r.members[r.turn].Name})
			}
		}
	}

	empty := len(r.members) == 0
	if empty {
		r.closed = true
		r.phase = phaseOver
		r.stopDeployTimerLocked()
	}
	r.mu.Unlock()

	reason := "left"
	if lr.disconnected {
		reason = "disconnected from"
	}
	logf(r.cfg, "GAMES: Player %q %s room %s", p.Name, reason, r.code)

	if empty {
		r.manager.remove(r.code)
		r.closeOnce.Do(func() { close(r.done) })
	}
}

// teardown closes a room in place. A request that already won the run
// loop's select can still reach a handler afterwards, so the phase moves
// to over as well; the handler then rejects it instead of touching the
// emptied member list.
func (r *room) teardown() {
	r.mu.Lock()
	r.closed = true
	r.phase = phaseOver
	r.stopDeployTimerLocked()
	for _, m := range r.members {
		r.dir.setRoom(m, nil)
	}
	r.members = nil
	r.mu.Unlock()

	r.closeOnce.Do(func() { close(r.done) })
}

func (r *room) memberLocked(name string) *Player {
	for _, m := range r.members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (r *room) activeLocked() []*Player {
	active := make([]*Player, 0, len(r.members))
	for _, m := range r.members {
		if !m.defeated {
			active = append(active, m)
		}
	}
	return active
}

func (r *room) rosterLocked() []RoomPlayer {
	roster := make([]RoomPlayer, 0, len(r.members))
	for _, m := range r.members {
		roster = append(roster, RoomPlayer{PlayerName: m.Name, Ready: m.ready})
	}
	return roster
}

func (r *room) deploymentStatusLocked() DeploymentStatusMessage {
	status := make([]DeploymentState, 0, len(r.members))
	for _, m := range r.members {
		status = append(status, DeploymentState{PlayerName: m.Name, Deployed: m.deployed})
	}
	return DeploymentStatusMessage{Type: "deploymentStatus", Status: status}
}

func (r *room) broadcastLocked(msg any) {
	for _, m := range r.members {
		notifyOne(m.client, msg)
	}
}

// Read-only snapshots, safe to serve without going through the run loop.

func (r *room) opponents(except string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.members))
	for _, m := range r.members {
		if m.Name == except {
			continue
		}
		names = append(names, m.Name)
	}
	return names
}

func (r *room) boardSnapshot(p *Player) [][]*string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return p.board.snapshot()
}

func (r *room) attackHistory(defender string) ([]AttackRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.memberLocked(defender) == nil {
		return nil, errUnknownOpponent
	}
	records := make([]AttackRecord, len(r.attackLog[defender]))
	copy(records, r.attackLog[defender])
	return records, nil
}

func (r *room) idle(cutoff time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastActive.Before(cutoff)
}

func outcome(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
