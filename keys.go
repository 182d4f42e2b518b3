package main

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/julienschmidt/httprouter"
)

// keyStore is the static identity-key store: each username is issued a
// short numeric key on first login and gets the same key back afterwards.
// It backs the login glue only; the game core never consults it.
type keyStore struct {
	mu   sync.Mutex
	path string
	keys map[string]string
}

func newKeyStore(path string) (*keyStore, error) {
	ks := &keyStore{
		path: path,
		keys: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ks, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read key store: %w", err)
	}
	if err := json.Unmarshal(data, &ks.keys); err != nil {
		return nil, fmt.Errorf("parse key store %s: %w", path, err)
	}

	return ks, nil
}

// issue returns the key for a username, minting and persisting a new one
// if the username has never logged in before.
func (ks *keyStore) issue(username string) (string, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if key, ok := ks.keys[username]; ok {
		return key, nil
	}

	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	key := fmt.Sprintf("%d", 100+int(binary.BigEndian.Uint16(buf[:]))%900)

	ks.keys[username] = key
	if err := ks.saveLocked(); err != nil {
		delete(ks.keys, username)
		return "", err
	}

	return key, nil
}

func (ks *keyStore) saveLocked() error {
	data, err := json.MarshalIndent(ks.keys, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(ks.path, data, 0o644); err != nil {
		return fmt.Errorf("write key store: %w", err)
	}
	return nil
}

// serveKeyLogin answers POST .../login by issuing or replaying the
// caller's key.
func serveKeyLogin(cfg *Config, ks *keyStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "a username is required"})
			return
		}

		key, err := ks.issue(req.Username)
		if err != nil {
			logf(cfg, "GAMES: Key store error for %q: %v", req.Username, err)
			http.Error(w, "unable to issue key", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(map[string]string{"key": key})
	}
}
