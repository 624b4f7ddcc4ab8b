// Package notifier is the Notifier Client of spec.md §4.7: it POSTs
// gameUpdate/playerJoined/gameStarted notifications to an external
// realtime transport. A transport failure or non-2xx response is returned
// to the caller as an error; the Event Processor logs it and carries on,
// since the state is already persisted. No HTTP client library appears anywhere in the retrieval pack
// for outbound calls (the pack's HTTP dependencies are all inbound
// routers), so this is built directly on net/http per DESIGN.md.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/config"
	"github.com/lab1702/galactic-conflict/internal/gamestate"
)

// messageType tags the outbound notification payload (spec.md §6.1).
type messageType string

const (
	messageGameUpdate  messageType = "gameUpdate"
	messagePlayerJoined messageType = "playerJoined"
	messageGameStarted  messageType = "gameStarted"
)

type envelope struct {
	GameID  string  `json:"gameId"`
	Message message `json:"message"`
}

type message struct {
	Type      messageType       `json:"type"`
	GameState *gamestate.State  `json:"gameState,omitempty"`
	Player    *gamestate.Player `json:"player,omitempty"`
}

type notifyResponse struct {
	SentCount int `json:"sentCount"`
}

// Client is the Notifier Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// New builds a Client posting to cfg.NotifierBaseURL with cfg.NotifierTimeout.
func New(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.NotifierTimeout},
		baseURL:    cfg.NotifierBaseURL,
		log:        log,
	}
}

// GameUpdate sends a gameUpdate notification (spec.md §6.1).
func (c *Client) GameUpdate(ctx context.Context, gameID string, state *gamestate.State) error {
	return c.send(ctx, gameID, message{Type: messageGameUpdate, GameState: state})
}

// PlayerJoined sends a playerJoined notification (spec.md §6.1).
func (c *Client) PlayerJoined(ctx context.Context, gameID string, player gamestate.Player) error {
	return c.send(ctx, gameID, message{Type: messagePlayerJoined, Player: &player})
}

// GameStarted sends a gameStarted notification (spec.md §6.1).
func (c *Client) GameStarted(ctx context.Context, gameID string, state *gamestate.State) error {
	return c.send(ctx, gameID, message{Type: messageGameStarted, GameState: state})
}

func (c *Client) send(ctx context.Context, gameID string, msg message) error {
	body, err := json.Marshal(envelope{GameID: gameID, Message: msg})
	if err != nil {
		return fmt.Errorf("notifier: encode %s/%s: %w", gameID, msg.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notifier: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: post %s/%s: %w", gameID, msg.Type, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notifier: %s/%s: unexpected status %d", gameID, msg.Type, resp.StatusCode)
	}

	var decoded notifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.log.Warn().Err(err).Str("gameId", gameID).Msg("notifier: response decode failed")
		return nil
	}
	c.log.Debug().Str("gameId", gameID).Str("type", string(msg.Type)).Int("sentCount", decoded.SentCount).Msg("notifier: delivered")
	return nil
}
