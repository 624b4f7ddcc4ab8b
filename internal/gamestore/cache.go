package gamestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/gamestate"
	"github.com/lab1702/galactic-conflict/internal/kv"
)

// OpenGameSummary is one entry of the Open Games Index (spec.md §3.5).
type OpenGameSummary struct {
	GameID               string                `json:"gameId"`
	CreatedAt            int64                 `json:"createdAt"`
	PlayerCount          int                   `json:"playerCount"`
	MaxPlayers            int                  `json:"maxPlayers"`
	GameType             gamestate.GameType     `json:"gameType"`
	Players              []gamestate.Player     `json:"players"`
	PendingConfiguration *PendingConfiguration `json:"pendingConfiguration"`
}

type openGamesIndex struct {
	Games []OpenGameSummary `json:"games"`
}

type activeGamesIndex struct {
	GameIDs []string `json:"gameIds"`
}

// Cache is the Cache Coordinator of spec.md §4.2: it maintains the
// Open Games and Active Games indices as KV-persisted caches, rebuildable
// by a full prefix scan. Every write here tolerates failure (warn and
// continue); the index is advisory, never load-bearing for simulation
// correctness (spec.md §4.1, §5).
type Cache struct {
	store  kv.Store
	prefix string
	log    zerolog.Logger
}

func newCache(store kv.Store, prefix string, log zerolog.Logger) *Cache {
	return &Cache{store: store, prefix: prefix, log: log}
}

func (c *Cache) openGamesKey() string   { return c.prefix + "open_games" }
func (c *Cache) activeGamesKey() string { return c.prefix + "active_games" }

// OnGameSaved updates both indices in response to a successful save,
// given the status the record had before this save (spec.md §4.2).
func (c *Cache) OnGameSaved(ctx context.Context, r *Record, previousStatus gamestate.Status) {
	if r.Status == gamestate.StatusPending {
		c.upsertOpenGame(ctx, r)
	} else if previousStatus == gamestate.StatusPending {
		c.removeOpenGame(ctx, r.GameID)
	}

	if r.Status == gamestate.StatusActive {
		c.addActiveGame(ctx, r.GameID)
	} else if previousStatus == gamestate.StatusActive {
		c.removeActiveGame(ctx, r.GameID)
	}
}

// OnGameDeleted removes gameID from both indices (spec.md §4.2).
func (c *Cache) OnGameDeleted(ctx context.Context, gameID string) {
	c.removeOpenGame(ctx, gameID)
	c.removeActiveGame(ctx, gameID)
}

func (c *Cache) loadOpenGames(ctx context.Context) (openGamesIndex, error) {
	var idx openGamesIndex
	e, err := c.store.Get(ctx, c.openGamesKey())
	if err != nil {
		if err == kv.ErrNotFound {
			return idx, nil
		}
		return idx, err
	}
	if err := json.Unmarshal(e.Value, &idx); err != nil {
		return idx, fmt.Errorf("cache: decode open games index: %w", err)
	}
	return idx, nil
}

func (c *Cache) loadActiveGames(ctx context.Context) (activeGamesIndex, error) {
	var idx activeGamesIndex
	e, err := c.store.Get(ctx, c.activeGamesKey())
	if err != nil {
		if err == kv.ErrNotFound {
			return idx, nil
		}
		return idx, err
	}
	if err := json.Unmarshal(e.Value, &idx); err != nil {
		return idx, fmt.Errorf("cache: decode active games index: %w", err)
	}
	return idx, nil
}

func (c *Cache) saveOpenGames(ctx context.Context, idx openGamesIndex) {
	data, err := json.Marshal(idx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache: encode open games index failed")
		return
	}
	if _, err := c.store.Put(ctx, c.openGamesKey(), data, nil, time.Now().UnixMilli()); err != nil {
		c.log.Warn().Err(err).Msg("cache: write open games index failed; next read will rebuild")
	}
}

func (c *Cache) saveActiveGames(ctx context.Context, idx activeGamesIndex) {
	data, err := json.Marshal(idx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache: encode active games index failed")
		return
	}
	if _, err := c.store.Put(ctx, c.activeGamesKey(), data, nil, time.Now().UnixMilli()); err != nil {
		c.log.Warn().Err(err).Msg("cache: write active games index failed; next read will rebuild")
	}
}

func (c *Cache) upsertOpenGame(ctx context.Context, r *Record) {
	idx, err := c.loadOpenGames(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache: load open games index failed")
		return
	}
	summary := OpenGameSummary{
		GameID:                r.GameID,
		CreatedAt:             r.CreatedAt,
		PlayerCount:           len(r.Players),
		GameType:              r.GameType,
		Players:               r.Players,
		PendingConfiguration:  r.PendingConfiguration,
	}
	if r.PendingConfiguration != nil {
		summary.MaxPlayers = r.PendingConfiguration.MaxPlayers
	}

	found := false
	for i, g := range idx.Games {
		if g.GameID == r.GameID {
			idx.Games[i] = summary
			found = true
			break
		}
	}
	if !found {
		idx.Games = append(idx.Games, summary)
	}
	c.saveOpenGames(ctx, idx)
}

func (c *Cache) removeOpenGame(ctx context.Context, gameID string) {
	idx, err := c.loadOpenGames(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache: load open games index failed")
		return
	}
	out := idx.Games[:0]
	for _, g := range idx.Games {
		if g.GameID != gameID {
			out = append(out, g)
		}
	}
	idx.Games = out
	c.saveOpenGames(ctx, idx)
}

func (c *Cache) addActiveGame(ctx context.Context, gameID string) {
	idx, err := c.loadActiveGames(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache: load active games index failed")
		return
	}
	for _, id := range idx.GameIDs {
		if id == gameID {
			return
		}
	}
	idx.GameIDs = append(idx.GameIDs, gameID)
	c.saveActiveGames(ctx, idx)
}

func (c *Cache) removeActiveGame(ctx context.Context, gameID string) {
	idx, err := c.loadActiveGames(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("cache: load active games index failed")
		return
	}
	out := idx.GameIDs[:0]
	for _, id := range idx.GameIDs {
		if id != gameID {
			out = append(out, id)
		}
	}
	idx.GameIDs = out
	c.saveActiveGames(ctx, idx)
}
