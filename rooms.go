package main

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// roomManager holds every active room keyed by its join code.
type roomManager struct {
	mu   sync.Mutex
	cfg  *Config
	dir  *directory
	rms  map[string]*room
	idle time.Duration
}

func newRoomManager(cfg *Config, dir *directory) *roomManager {
	rm := &roomManager{
		cfg:  cfg,
		dir:  dir,
		rms:  make(map[string]*room),
		idle: cfg.sessionTimeout,
	}
	if rm.idle > 0 {
		go rm.reaperLoop()
	}
	return rm
}

// create allocates a room under a fresh code and starts its handler.
func (rm *roomManager) create() *room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	code := rm.newRoomCodeLocked()
	r := newRoom(rm.cfg, rm.dir, rm, code)
	rm.rms[code] = r
	go r.run()

	logf(rm.cfg, "GAMES: Created room %s", code)

	return r
}

func (rm *roomManager) lookup(code string) *room {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return rm.rms[code]
}

func (rm *roomManager) remove(code string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	delete(rm.rms, code)

	logf(rm.cfg, "GAMES: Removed room %s", code)
}

// newRoomCodeLocked generates a crypto-random 6-digit room code, retrying
// until it doesn't collide with a currently active room.
func (rm *roomManager) newRoomCodeLocked() string {
	for {
		var buf [4]byte
		if _, err := rand.Read(buf[:]); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		code := fmt.Sprintf("%06d", binary.BigEndian.Uint32(buf[:])%1000000)

		if _, exists := rm.rms[code]; !exists {
			return code
		}
	}
}

// reaperLoop periodically closes rooms that have been idle longer than the
// configured session timeout.
func (rm *roomManager) reaperLoop() {
	ticker := time.NewTicker(rm.idle / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-rm.idle)

		rm.mu.Lock()
		for code, r := range rm.rms {
			if r.idle(cutoff) {
				delete(rm.rms, code)
				r.teardown()

				logf(rm.cfg, "GAMES: Reaped idle room %s", code)
			}
		}
		rm.mu.Unlock()
	}
}

// serveRoomInfo answers GET .../rooms/:code with the room's roster, which
// the lobby uses to show membership before toggling ready.
func serveRoomInfo(cfg *Config, rm *roomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")

		match := rm.lookup(code)
		if match == nil {
			http.Error(w, errInvalidRoomCode.Error(), http.StatusNotFound)
			return
		}

		match.mu.RLock()
		roster := match.rosterLocked()
		match.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(RoomStateMessage{
			Type:     "roomInfo",
			RoomCode: code,
			Players:  roster,
		})
	}
}

// serveRoomQR generates a PNG QR code for a room's join URL.
func serveRoomQR(cfg *Config, rm *roomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")

		if rm.lookup(code) == nil {
			http.Error(w, errInvalidRoomCode.Error(), http.StatusNotFound)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at .../rooms/:code/qr; strip the trailing "/qr" to get
		// the join URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// serveBoats answers GET .../boats with the fixed ship catalog.
func serveBoats(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(map[string][]shipClass{
			"boats": shipCatalog,
		})
	}
}
