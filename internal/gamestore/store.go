package gamestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lab1702/galactic-conflict/internal/gamestate"
	"github.com/lab1702/galactic-conflict/internal/gcerrors"
	"github.com/lab1702/galactic-conflict/internal/kv"
)

// Store is the Game Store of spec.md §4.1: typed persistence of game
// records and derived indices, built on a kv.Store. All writes route
// through SaveGame so the Cache Coordinator and Stats Service are kept
// in sync with every status transition.
type Store struct {
	kv     kv.Store
	cache  *Cache
	stats  *Stats
	prefix string
	log    zerolog.Logger
	now    func() int64

	staleGameTimeoutMs int64
}

// New builds a Store over the given kv.Store. prefix should end with an
// underscore (e.g. "gc_", spec.md §6.2); staleGameTimeoutMs is
// STALE_GAME_TIMEOUT_MS from spec.md §6.3.
func New(store kv.Store, prefix string, staleGameTimeoutMs int64, log zerolog.Logger) *Store {
	return &Store{
		kv:                 store,
		cache:              newCache(store, prefix, log),
		stats:              newStats(store, prefix, log),
		prefix:             prefix,
		log:                log,
		now:                func() int64 { return time.Now().UnixMilli() },
		staleGameTimeoutMs: staleGameTimeoutMs,
	}
}

// Stats exposes the Stats Service for direct queries (e.g. an admin
// endpoint), kept read-mostly outside the hot path.
func (s *Store) Stats() *Stats { return s.stats }

func (s *Store) gameKey(id string) string { return s.prefix + "game:" + id }

// LoadGame returns the record for gameId, or (nil, nil) if absent
// (spec.md §4.1: "surfaced as null, not raised").
func (s *Store) LoadGame(ctx context.Context, gameID string) (*Record, error) {
	e, err := s.kv.Get(ctx, s.gameKey(gameID))
	if err == kv.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gamestore: load %s: %w", gameID, err)
	}
	var r Record
	if err := json.Unmarshal(e.Value, &r); err != nil {
		return nil, fmt.Errorf("gamestore: decode %s: %w", gameID, err)
	}
	return &r, nil
}

// SaveGame persists record. If expectedLastUpdateAt is non-nil, the save
// fails with *gcerrors.VersionConflictError when the stored lastUpdateAt
// does not match (spec.md §4.1). On success, record.LastUpdateAt is set to
// now() and the Cache Coordinator and Stats Service are updated
// best-effort (spec.md §4.1 "side effects on save").
func (s *Store) SaveGame(ctx context.Context, record *Record, expectedLastUpdateAt *int64) error {
	previousStatus := gamestate.Status("")
	wasCompleted := false
	if expectedLastUpdateAt != nil {
		prev, err := s.LoadGame(ctx, record.GameID)
		if err != nil {
			return err
		}
		if prev != nil {
			previousStatus = prev.Status
			wasCompleted = prev.Status == gamestate.StatusCompleted
		}
	}

	record.LastUpdateAt = s.now()
	key := s.gameKey(record.GameID)

	stored, err := s.putRecord(ctx, key, record, expectedLastUpdateAt, record.LastUpdateAt)
	if err == kv.ErrVersionMismatch {
		actual, loadErr := s.LoadGame(ctx, record.GameID)
		actualVersion := int64(0)
		if loadErr == nil && actual != nil {
			actualVersion = actual.LastUpdateAt
		}
		return &gcerrors.VersionConflictError{GameID: record.GameID, ActualVersion: actualVersion}
	}
	if err != nil {
		return fmt.Errorf("gamestore: save %s: %w", record.GameID, err)
	}

	// The kv layer never lets the stored version regress, so on the rare
	// clock collision (two saves landing in the same millisecond) it bumps
	// past what we asked for. Re-stamp the record so the embedded
	// lastUpdateAt stays identical to the version actually in effect. The
	// re-stamp must itself advance past stored (the kv layer would bump an
	// equal version again), so it writes stored+1 guarded by stored.
	if stored != record.LastUpdateAt {
		restamped := stored + 1
		record.LastUpdateAt = restamped
		if _, err := s.putRecord(ctx, key, record, &stored, restamped); err != nil {
			return fmt.Errorf("gamestore: re-stamp %s: %w", record.GameID, err)
		}
	}

	s.cache.OnGameSaved(ctx, record, previousStatus)
	if record.Status == gamestate.StatusCompleted && !wasCompleted {
		s.stats.RecordGameCompleted(ctx)
	}
	return nil
}

// putRecord marshals record and writes it to key, returning the version the
// kv layer actually stored (which can only ever be >= newVersion).
func (s *Store) putRecord(ctx context.Context, key string, record *Record, expectedVersion *int64, newVersion int64) (int64, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("gamestore: encode %s: %w", record.GameID, err)
	}
	return s.kv.Put(ctx, key, data, expectedVersion, newVersion)
}

// DeleteGame removes record from storage and both indices.
func (s *Store) DeleteGame(ctx context.Context, gameID string) error {
	if err := s.kv.Delete(ctx, s.gameKey(gameID)); err != nil {
		return fmt.Errorf("gamestore: delete %s: %w", gameID, err)
	}
	s.cache.OnGameDeleted(ctx, gameID)
	return nil
}

// ListGames returns every record with the given status, using the Open
// or Active index when status is PENDING/ACTIVE and falling back to a
// full prefix scan (which also rebuilds the cache) otherwise or on a
// cache miss (spec.md §4.1).
func (s *Store) ListGames(ctx context.Context, status gamestate.Status) ([]*Record, error) {
	switch status {
	case gamestate.StatusPending:
		idx, err := s.cache.loadOpenGames(ctx)
		if err == nil && len(idx.Games) > 0 {
			return s.hydrate(ctx, idsFromOpenGames(idx.Games))
		}
	case gamestate.StatusActive:
		idx, err := s.cache.loadActiveGames(ctx)
		if err == nil && len(idx.GameIDs) > 0 {
			records, err := s.hydrate(ctx, idx.GameIDs)
			if err != nil {
				return nil, err
			}
			return s.filterAndPurgeStaleActive(ctx, records, idx)
		}
	}
	return s.fullScan(ctx, status)
}

func idsFromOpenGames(games []OpenGameSummary) []string {
	ids := make([]string, len(games))
	for i, g := range games {
		ids[i] = g.GameID
	}
	return ids
}

func (s *Store) hydrate(ctx context.Context, ids []string) ([]*Record, error) {
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.LoadGame(ctx, id)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// filterAndPurgeStaleActive drops (and rewrites the index without) any
// entry whose record is no longer ACTIVE, per spec.md §4.2: "a stale
// Active Games Index entry ... is lazily purged on next read."
func (s *Store) filterAndPurgeStaleActive(ctx context.Context, records []*Record, idx activeGamesIndex) ([]*Record, error) {
	fresh := make([]*Record, 0, len(records))
	freshIDs := make([]string, 0, len(records))
	stale := false
	for _, r := range records {
		if r.Status == gamestate.StatusActive {
			fresh = append(fresh, r)
			freshIDs = append(freshIDs, r.GameID)
		} else {
			stale = true
		}
	}
	if stale {
		idx.GameIDs = freshIDs
		s.cache.saveActiveGames(ctx, idx)
	}
	return fresh, nil
}

func (s *Store) fullScan(ctx context.Context, status gamestate.Status) ([]*Record, error) {
	keys, err := s.kv.List(ctx, s.prefix+"game:")
	if err != nil {
		return nil, fmt.Errorf("gamestore: scan: %w", err)
	}

	var matches []*Record
	var openGames []OpenGameSummary
	var activeIDs []string
	for _, key := range keys {
		e, err := s.kv.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("gamestore: scan: skipping unreadable key")
			continue
		}
		var r Record
		if err := json.Unmarshal(e.Value, &r); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("gamestore: scan: skipping undecodable record")
			continue
		}
		if r.Status == gamestate.StatusPending {
			summary := OpenGameSummary{
				GameID: r.GameID, CreatedAt: r.CreatedAt, PlayerCount: len(r.Players),
				GameType: r.GameType, Players: r.Players, PendingConfiguration: r.PendingConfiguration,
			}
			if r.PendingConfiguration != nil {
				summary.MaxPlayers = r.PendingConfiguration.MaxPlayers
			}
			openGames = append(openGames, summary)
		}
		if r.Status == gamestate.StatusActive {
			activeIDs = append(activeIDs, r.GameID)
		}
		if r.Status == status {
			rc := r
			matches = append(matches, &rc)
		}
	}

	s.cache.saveOpenGames(ctx, openGamesIndex{Games: openGames})
	s.cache.saveActiveGames(ctx, activeGamesIndex{GameIDs: activeIDs})

	return matches, nil
}

// GetOpenGames is like ListGames(PENDING) but additionally filters out
// stale pending games (created longer ago than staleGameTimeoutMs,
// deleting them) and returns only games with at least one open slot
// (spec.md §4.1).
func (s *Store) GetOpenGames(ctx context.Context) ([]*Record, error) {
	pending, err := s.ListGames(ctx, gamestate.StatusPending)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*Record, 0, len(pending))
	for _, r := range pending {
		if now-r.CreatedAt > s.staleGameTimeoutMs {
			if err := s.DeleteGame(ctx, r.GameID); err != nil {
				s.log.Warn().Err(err).Str("gameId", r.GameID).Msg("gamestore: failed to delete stale pending game")
			}
			continue
		}
		if r.PendingConfiguration != nil && r.PendingConfiguration.OpenSlotCount() > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}

// AddPlayerToGame seats player in the configured slot matching
// player.SlotIndex of a PENDING record (spec.md §4.1), rejecting an
// already-filled slot. It mutates record in place and returns only an
// error; the caller is responsible for calling SaveGame (so it can apply
// the same optimistic-lock retry loop as any other mutation).
func (s *Store) AddPlayerToGame(record *Record, player gamestate.Player) error {
	if record.Status != gamestate.StatusPending || record.PendingConfiguration == nil {
		return gcerrors.ErrNotPending
	}
	cfg := record.PendingConfiguration
	for i, slot := range cfg.PlayerSlots {
		if slot.SlotIndex == player.SlotIndex {
			if slot.Filled {
				return gcerrors.ErrSlotOccupied
			}
			cfg.PlayerSlots[i].Filled = true
			cfg.PlayerSlots[i].Player = &player
			record.Players = append(record.Players, player)
			return nil
		}
	}
	if cfg.OpenSlotCount() == 0 {
		return gcerrors.ErrGameFull
	}
	return gcerrors.Reject(fmt.Sprintf("no configured slot %d", player.SlotIndex))
}

// RemovePlayerFromGame frees slot on a PENDING record.
func (s *Store) RemovePlayerFromGame(record *Record, slot gamestate.PlayerSlot) error {
	if record.Status != gamestate.StatusPending || record.PendingConfiguration == nil {
		return gcerrors.ErrNotPending
	}
	cfg := record.PendingConfiguration
	for i, s2 := range cfg.PlayerSlots {
		if s2.SlotIndex == slot {
			cfg.PlayerSlots[i].Filled = false
			cfg.PlayerSlots[i].Player = nil
			break
		}
	}
	players := record.Players[:0]
	for _, p := range record.Players {
		if p.SlotIndex != slot {
			players = append(players, p)
		}
	}
	record.Players = players
	return nil
}

// CanGameStart reports whether every configured slot is filled, or the
// pending configuration explicitly allows starting early (spec.md §4.1).
func CanGameStart(record *Record) bool {
	if record.Status != gamestate.StatusPending || record.PendingConfiguration == nil {
		return false
	}
	cfg := record.PendingConfiguration
	if cfg.OpenSlotCount() == 0 {
		return true
	}
	return cfg.AllowStartEarly && len(record.Players) > 0
}
