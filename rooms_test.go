package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func TestRoomCodes(t *testing.T) {
	cfg := testConfig()
	rm := newRoomManager(cfg, newDirectory())

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		r := rm.create()
		if len(r.code) != 6 {
			t.Fatalf("expected a 6-digit code, got %q", r.code)
		}
		for _, c := range r.code {
			if c < '0' || c > '9' {
				t.Fatalf("expected digits only, got %q", r.code)
			}
		}
		if seen[r.code] {
			t.Fatalf("duplicate code %q", r.code)
		}
		seen[r.code] = true

		if rm.lookup(r.code) != r {
			t.Fatalf("lookup should return the created room")
		}
	}
}

func TestRoomManagerRemove(t *testing.T) {
	rm := newRoomManager(testConfig(), newDirectory())

	r := rm.create()
	rm.remove(r.code)

	if rm.lookup(r.code) != nil {
		t.Fatalf("removed room should not resolve")
	}
}

func TestServeRoomInfo(t *testing.T) {
	m := newTestMatch(t, "alice", "bob")
	handler := serveRoomInfo(m.cfg, m.rm)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/battleship/rooms/"+m.room.code, nil)
	handler(rec, req, httprouter.Params{{Key: "code", Value: m.room.code}})

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var info RoomStateMessage
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Type != "roomInfo" || info.RoomCode != m.room.code || len(info.Players) != 2 {
		t.Fatalf("unexpected roomInfo: %+v", info)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/battleship/rooms/000000", nil)
	handler(rec, req, httprouter.Params{{Key: "code", Value: "000000"}})

	if rec.Code != 404 {
		t.Fatalf("expected 404 for an unknown code, got %d", rec.Code)
	}
}

func TestServeRoomQR(t *testing.T) {
	m := newTestMatch(t, "alice")
	handler := serveRoomQR(m.cfg, m.rm)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/battleship/rooms/"+m.room.code+"/qr", nil)
	handler(rec, req, httprouter.Params{{Key: "code", Value: m.room.code}})

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected a PNG response, got %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected image data")
	}
}

func TestServeBoats(t *testing.T) {
	handler := serveBoats(testConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/battleship/boats", nil)
	handler(rec, req, nil)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string][]shipClass
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	boats := payload["boats"]
	if len(boats) != len(shipCatalog) {
		t.Fatalf("expected %d boats, got %d", len(shipCatalog), len(boats))
	}
	total := 0
	for _, b := range boats {
		if b.Spaces != catalogSize(b.Name) {
			t.Fatalf("wrong size for %s: %d", b.Name, b.Spaces)
		}
		total += b.Spaces
	}
	if total != 17 {
		t.Fatalf("expected 17 total spaces, got %d", total)
	}
}
