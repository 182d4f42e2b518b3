package main

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestKeyStoreIssueAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	ks, err := newKeyStore(path)
	if err != nil {
		t.Fatalf("newKeyStore: %v", err)
	}

	key, err := ks.issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 100 || n > 999 {
		t.Fatalf("expected a 3-digit key, got %q", key)
	}

	again, err := ks.issue("alice")
	if err != nil {
		t.Fatalf("issue again: %v", err)
	}
	if again != key {
		t.Fatalf("expected the same key on replay, got %q then %q", key, again)
	}
}

func TestKeyStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	ks, err := newKeyStore(path)
	if err != nil {
		t.Fatalf("newKeyStore: %v", err)
	}
	key, err := ks.issue("bob")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	reloaded, err := newKeyStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	again, err := reloaded.issue("bob")
	if err != nil {
		t.Fatalf("issue after reload: %v", err)
	}
	if again != key {
		t.Fatalf("expected the persisted key, got %q then %q", key, again)
	}
}

func TestServeKeyLogin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	ks, err := newKeyStore(path)
	if err != nil {
		t.Fatalf("newKeyStore: %v", err)
	}
	handler := serveKeyLogin(testConfig(), ks)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/battleship/login", strings.NewReader(`{"username":"alice"}`))
	handler(rec, req, nil)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["key"] == "" {
		t.Fatalf("expected a key in the response, got %v", resp)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/battleship/login", strings.NewReader(`{}`))
	handler(rec, req, nil)

	if rec.Code != 400 {
		t.Fatalf("expected 400 for a missing username, got %d", rec.Code)
	}
}
