package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/config"
	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

func TestGameUpdateSendsExpectedEnvelope(t *testing.T) {
	var got envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notify" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(notifyResponse{SentCount: 3})
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.NotifierBaseURL = srv.URL
	client := New(cfg, zerolog.Nop())

	state := gamestate.New(1)
	if err := client.GameUpdate(t.Context(), "game-1", state); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.GameID != "game-1" {
		t.Fatalf("expected gameId game-1, got %s", got.GameID)
	}
	if got.Message.Type != messageGameUpdate {
		t.Fatalf("expected type gameUpdate, got %s", got.Message.Type)
	}
}

func TestGameUpdateNonTwoXXReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.NotifierBaseURL = srv.URL
	client := New(cfg, zerolog.Nop())

	if err := client.GameUpdate(t.Context(), "game-1", gamestate.New(1)); err == nil {
		t.Fatalf("expected an error on a non-2xx response")
	}
}

func TestPlayerJoinedSendsPlayer(t *testing.T) {
	var got envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(notifyResponse{SentCount: 1})
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.NotifierBaseURL = srv.URL
	client := New(cfg, zerolog.Nop())

	player := gamestate.Player{SlotIndex: 2, Name: "bob"}
	if err := client.PlayerJoined(t.Context(), "game-1", player); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Message.Player == nil || got.Message.Player.Name != "bob" {
		t.Fatalf("expected player bob in envelope, got %+v", got.Message.Player)
	}
}
