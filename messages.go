package main

// ClientMessage covers every message a client can send. Which fields are
// meaningful depends on Type.
type ClientMessage struct {
	Type       string          `json:"type"`                 // "login", "createRoom", "joinRoom", "leaveRoom", "toggleReady", "deploy", "attack", "getOpponents", "getBoardState", "getAttackHistory"
	PlayerName string          `json:"playerName,omitempty"` // login
	RoomCode   string          `json:"roomCode,omitempty"`   // joinRoom
	Ready      *bool           `json:"ready,omitempty"`      // toggleReady
	Ships      []shipPlacement `json:"ships,omitempty"`      // deploy
	Opponent   string          `json:"opponent,omitempty"`   // attack / getAttackHistory
	Position   *coord          `json:"position,omitempty"`   // attack
}

// SimpleMessage is for generic notifications ("invalidTurn", "errorMessage",
// "waitingForPlayers", etc.)
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SignalMessage carries no payload ("startGame", "allPlayersReady",
// "resetWaitingTimer").
type SignalMessage struct {
	Type string `json:"type"`
}

// OpponentsMessage is the roster snapshot sent in response to login and
// getOpponents.
type OpponentsMessage struct {
	Type      string   `json:"type"` // "opponents"
	Opponents []string `json:"opponents"`
}

// NewPlayerMessage announces a login to everyone else.
type NewPlayerMessage struct {
	Type       string `json:"type"` // "newPlayer"
	PlayerName string `json:"playerName"`
}

// RoomPlayer is one member's entry in a room roster.
type RoomPlayer struct {
	PlayerName string `json:"playerName"`
	Ready      bool   `json:"ready"`
}

// RoomStateMessage carries the room roster for "roomCreated", "roomJoined",
// "updatePlayers" and "playerLeft".
type RoomStateMessage struct {
	Type     string       `json:"type"`
	RoomCode string       `json:"roomCode"`
	Players  []RoomPlayer `json:"players"`
}

// DeploymentState is one member's entry in a deploymentStatus broadcast.
type DeploymentState struct {
	PlayerName string `json:"playerName"`
	Deployed   bool   `json:"deployed"`
}

// DeploymentStatusMessage broadcasts deployment progress to the whole room.
type DeploymentStatusMessage struct {
	Type   string            `json:"type"` // "deploymentStatus"
	Status []DeploymentState `json:"status"`
}

// TurnMessage announces whose move it is.
type TurnMessage struct {
	Type       string `json:"type"` // "turn"
	PlayerName string `json:"playerName"`
}

// AttackResultMessage broadcasts a resolved attack to every room member,
// spectators included, so each client can keep a consolidated view of
// every board.
type AttackResultMessage struct {
	Type           string `json:"type"`     // "attackResult"
	Position       coord  `json:"position"` // [row, col]
	Hit            bool   `json:"hit"`
	Player         string `json:"player"`         // attacker
	AttackedPlayer string `json:"attackedPlayer"` // defender
	ShipName       string `json:"shipName,omitempty"`
	Sunk           bool   `json:"sunk,omitempty"`
}

// BoardStateMessage is the caller's own grid, null/"hit"/"miss" per cell.
type BoardStateMessage struct {
	Type       string      `json:"type"` // "boardState"
	BoardState [][]*string `json:"boardState"`
}

// AttackRecord is one entry of the append-only per-defender attack log.
type AttackRecord struct {
	Attacker string `json:"attacker"`
	Position coord  `json:"position"`
	Hit      bool   `json:"hit"`
	ShipName string `json:"shipName,omitempty"`
}

// AttackHistoryMessage replays every attack recorded against one defender.
type AttackHistoryMessage struct {
	Type     string         `json:"type"` // "attackHistory"
	Opponent string         `json:"opponent"`
	Attacks  []AttackRecord `json:"attacks"`
}

// PlayerDefeatedMessage tells the rest of the room a player's fleet is gone.
type PlayerDefeatedMessage struct {
	Type       string `json:"type"` // "playerDefeated"
	PlayerName string `json:"playerName"`
}

// GameOverMessage ends the match for one recipient: "victory" for the sole
// survivor, "defeat" for an eliminated player.
type GameOverMessage struct {
	Type   string `json:"type"` // "gameOver"
	Result string `json:"result"`
}
