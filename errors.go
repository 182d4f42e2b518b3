/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Player-local game errors. Each maps to a targeted message on the
// originating connection and never escapes a room handler.
var (
	errNameConflict      = errors.New("that player name is already taken")
	errInvalidDeployment = errors.New("invalid ship deployment")
	errUnknownOpponent   = errors.New("unknown opponent")
	errNotYourTurn       = errors.New("it is not your turn")
	errOutOfBounds       = errors.New("position is outside the board")
	errCellResolved      = errors.New("that position has already been attacked")
	errRoomFull          = errors.New("the room is full")
	errInvalidRoomCode   = errors.New("no room exists with that code")
	errNotInRoom         = errors.New("you are not in a room")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
