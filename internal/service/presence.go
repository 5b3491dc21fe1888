package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quiz-world/internal/auth"
	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/metrics"
	"github.com/quiz-world/internal/store"
)

// accountRef points a normalized username at its player record
type accountRef struct {
	PlayerID string `json:"playerId"`
}

// JoinRequest identifies an existing account
type JoinRequest struct {
	Username    string
	AvatarColor string
	Password    string
}

// CreateRequest describes a new character
type CreateRequest struct {
	Username    string
	Password    string
	AvatarColor string
}

// CleanupReport counts the records removed by one sweep
type CleanupReport struct {
	PlayersRemoved int `json:"playersRemoved"`
	GymRemoved     int `json:"gymRemoved"`
}

// PresenceService manages player records and their liveness
type PresenceService struct {
	store   store.PresenceStore
	archive AccountArchive
	hasher  PasswordHasher
	policy  domain.PresencePolicy
	bounds  domain.Bounds
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     Clock
}

// NewPresenceService creates a new presence service. archive and m may be nil.
func NewPresenceService(
	s store.PresenceStore,
	archive AccountArchive,
	hasher PasswordHasher,
	presence *config.PresenceConfig,
	world *config.WorldConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *PresenceService {
	return &PresenceService{
		store:   s,
		archive: archive,
		hasher:  hasher,
		policy: domain.PresencePolicy{
			ActiveTTL: presence.ActiveTTL,
			ExpiryTTL: presence.ExpiryTTL,
		},
		bounds:  domain.NewBounds(world.MapWidth, world.MapHeight, world.TileSize, world.PlayerSize),
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the time source
func (s *PresenceService) SetClock(now Clock) {
	s.now = now
}

// Policy returns the staleness thresholds in effect
func (s *PresenceService) Policy() domain.PresencePolicy {
	return s.policy
}

// Join resumes an existing account by username and marks it live.
//
// The password is checked only when the caller supplies one. An account with
// a stored hash can still be joined by username alone, so the hash does not
// protect the account against anyone who knows its name.
func (s *PresenceService) Join(ctx context.Context, req JoinRequest) (*domain.Player, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, domain.NewValidationError("username", "is required")
	}
	if req.AvatarColor == "" {
		return nil, domain.NewValidationError("avatarColor", "is required")
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	player, err := s.lookupAccount(ctx, domain.NormalizeUsername(username))
	if err != nil {
		return nil, err
	}

	if player.PasswordHash != "" && req.Password != "" {
		if err := s.hasher.Verify(req.Password, player.PasswordHash); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return nil, domain.ErrInvalidCredentials
			}
			return nil, fmt.Errorf("verifying password: %w", err)
		}
	}

	player.AvatarColor = req.AvatarColor
	player.Touch(s.now())
	if err := s.save(ctx, player); err != nil {
		return nil, err
	}

	s.metrics.PlayerJoined()
	s.logger.Info("player joined", "player_id", player.ID, "username", player.Username)

	return player, nil
}

// lookupAccount resolves a username through the pointer key, falling back to the archive
func (s *PresenceService) lookupAccount(ctx context.Context, normalized string) (*domain.Player, error) {
	var ref accountRef
	err := store.GetJSON(ctx, s.store, store.AccountKey(normalized), &ref)
	switch {
	case err == nil:
		player, err := s.loadPlayer(ctx, ref.PlayerID)
		if err == nil {
			return player, nil
		}
		if !errors.Is(err, domain.ErrPlayerNotFound) {
			return nil, err
		}
		// The record was swept but its pointer survived.
		if err := s.store.Delete(ctx, store.AccountKey(normalized)); err != nil {
			s.logger.Warn("failed to delete dangling account pointer", "username", normalized, "error", err)
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("looking up account: %w", err)
	}

	return s.restoreAccount(ctx, normalized)
}

// restoreAccount rebuilds an expired player from its archived account
func (s *PresenceService) restoreAccount(ctx context.Context, normalized string) (*domain.Player, error) {
	if s.archive == nil {
		return nil, domain.ErrAccountNotFound
	}

	archived, err := s.archive.FindAccount(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("finding archived account: %w", err)
	}

	player := domain.NewPlayer(archived.ID, archived.Username, archived.AvatarColor, s.now())
	player.PasswordHash = archived.PasswordHash
	player.Level = archived.Level
	player.Badges = archived.Badges
	player.FashionItems = archived.FashionItems
	player.Normalize()

	if err := store.SetJSON(ctx, s.store, store.AccountKey(normalized), accountRef{PlayerID: player.ID}); err != nil {
		return nil, fmt.Errorf("restoring account pointer: %w", err)
	}

	s.logger.Info("account restored from archive", "player_id", player.ID, "username", player.Username)
	return player, nil
}

// Create registers a new character at the spawn point with default stats
func (s *PresenceService) Create(ctx context.Context, req CreateRequest) (*domain.Player, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, domain.NewValidationError("username", "is required")
	}
	if req.AvatarColor == "" {
		return nil, domain.NewValidationError("avatarColor", "is required")
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	player := domain.NewPlayer("player_"+uuid.NewString(), username, req.AvatarColor, s.now())
	if req.Password != "" {
		hashed, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		player.PasswordHash = hashed
	}

	if err := s.save(ctx, player); err != nil {
		return nil, err
	}
	ref := accountRef{PlayerID: player.ID}
	if err := store.SetJSON(ctx, s.store, store.AccountKey(domain.NormalizeUsername(username)), ref); err != nil {
		return nil, fmt.Errorf("saving account pointer: %w", err)
	}
	s.mirror(ctx, player)

	s.metrics.PlayerCreated()
	s.logger.Info("player created", "player_id", player.ID, "username", player.Username)

	return player, nil
}

// checkPassword rejects passwords bcrypt cannot hash
func checkPassword(password string) error {
	if len(password) > auth.MaxPasswordBytes {
		return domain.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

// UpdatePosition clamps and stores a new position, refreshing liveness
func (s *PresenceService) UpdatePosition(ctx context.Context, playerID string, x, y float64) (*domain.Player, error) {
	if playerID == "" {
		return nil, domain.NewValidationError("playerId", "is required")
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, domain.NewValidationError("x", "must be a finite number")
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return nil, domain.NewValidationError("y", "must be a finite number")
	}

	player, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	player.X, player.Y = s.bounds.Clamp(x, y)
	player.Touch(s.now())
	if err := s.save(ctx, player); err != nil {
		return nil, err
	}

	s.metrics.PositionUpdated()
	return player, nil
}

// ListPlayers returns every active player other than excludingID
func (s *PresenceService) ListPlayers(ctx context.Context, excludingID string) ([]domain.PublicPlayer, error) {
	now := s.now()
	// age < ActiveTTL means lastUpdate is strictly after the cutoff
	ids, err := s.store.IndexRange(ctx, store.PresenceIndex, millis(s.policy.ActiveSince(now))+1, math.Inf(1))
	if err != nil {
		return nil, fmt.Errorf("listing presence index: %w", err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != excludingID {
			keys = append(keys, store.PlayerKey(id))
		}
	}

	out := make([]domain.PublicPlayer, 0, len(keys))
	if len(keys) == 0 {
		s.metrics.SetActivePlayers(0)
		return out, nil
	}

	raws, err := s.store.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("loading players: %w", err)
	}

	for i, raw := range raws {
		if raw == nil {
			continue
		}
		player, err := decodePlayer(raw)
		if err != nil {
			s.logger.Warn("skipping unreadable player record", "key", keys[i], "error", err)
			continue
		}
		if s.policy.Classify(player.LastSeen(), now) != domain.PresenceActive {
			continue
		}
		out = append(out, player.Public())
	}

	s.metrics.SetActivePlayers(len(out))
	return out, nil
}

// Cleanup removes expired players and gym entries outside the leaderboard window
func (s *PresenceService) Cleanup(ctx context.Context) (CleanupReport, error) {
	var report CleanupReport
	now := s.now()

	removed, err := s.sweepPlayers(ctx, now)
	if err != nil {
		return report, err
	}
	report.PlayersRemoved = removed

	removed, err = s.sweepGym(ctx, now)
	if err != nil {
		return report, err
	}
	report.GymRemoved = removed

	s.metrics.CleanedUp("player", report.PlayersRemoved)
	s.metrics.CleanedUp("gym", report.GymRemoved)

	if report.PlayersRemoved > 0 || report.GymRemoved > 0 {
		s.logger.Info("cleanup completed",
			"players_removed", report.PlayersRemoved,
			"gym_removed", report.GymRemoved,
		)
	}
	return report, nil
}

func (s *PresenceService) sweepPlayers(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.store.IndexRange(ctx, store.PresenceIndex, math.Inf(-1), millis(s.policy.ExpiredBefore(now)))
	if err != nil {
		return 0, fmt.Errorf("listing expired players: %w", err)
	}

	removed := 0
	for _, id := range ids {
		player, err := s.loadPlayer(ctx, id)
		if errors.Is(err, domain.ErrPlayerNotFound) {
			if err := s.store.IndexRemove(ctx, store.PresenceIndex, id); err != nil {
				return removed, fmt.Errorf("removing index entry: %w", err)
			}
			continue
		}
		if err != nil {
			s.logger.Warn("skipping unreadable player during cleanup", "player_id", id, "error", err)
			continue
		}

		// A concurrent write may have refreshed the record after the index read.
		if s.policy.Classify(player.LastSeen(), now) != domain.PresenceExpired {
			if err := s.store.IndexAdd(ctx, store.PresenceIndex, id, float64(player.LastUpdate)); err != nil {
				return removed, fmt.Errorf("reindexing player: %w", err)
			}
			continue
		}

		keys := []string{store.PlayerKey(id)}
		accountKey := store.AccountKey(domain.NormalizeUsername(player.Username))
		var ref accountRef
		if err := store.GetJSON(ctx, s.store, accountKey, &ref); err == nil && ref.PlayerID == id {
			keys = append(keys, accountKey)
		}

		if err := s.store.Delete(ctx, keys...); err != nil {
			return removed, fmt.Errorf("deleting player: %w", err)
		}
		if err := s.store.IndexRemove(ctx, store.PresenceIndex, id); err != nil {
			return removed, fmt.Errorf("removing index entry: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (s *PresenceService) sweepGym(ctx context.Context, now time.Time) (int, error) {
	entries, err := s.store.ScanPrefix(ctx, store.GymPrefix)
	if err != nil {
		return 0, fmt.Errorf("scanning gym entries: %w", err)
	}

	since := now.Add(-domain.LeaderboardWindow)
	var stale []string
	for _, e := range entries {
		entry, err := decodeGymEntry(e.Value)
		if err != nil {
			s.logger.Warn("skipping unreadable gym entry", "key", e.Key, "error", err)
			continue
		}
		if !entry.Within(since) {
			stale = append(stale, e.Key)
		}
	}

	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.store.Delete(ctx, stale...); err != nil {
		return 0, fmt.Errorf("deleting gym entries: %w", err)
	}
	return len(stale), nil
}

// ApplyDuelResult raises the level of a duel winner and restores hp
func (s *PresenceService) ApplyDuelResult(ctx context.Context, playerID string, won bool) (*domain.Player, error) {
	if playerID == "" {
		return nil, domain.NewValidationError("playerId", "is required")
	}

	player, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if !won {
		return player, nil
	}

	player.Level++
	player.HP = player.MaxHP
	if err := s.save(ctx, player); err != nil {
		return nil, err
	}
	s.mirror(ctx, player)

	s.logger.Info("duel won", "player_id", player.ID, "level", player.Level)
	return player, nil
}

// GrantBadge adds a badge to a player unless already held
func (s *PresenceService) GrantBadge(ctx context.Context, playerID, badge string) (*domain.Player, error) {
	if playerID == "" {
		return nil, domain.NewValidationError("playerId", "is required")
	}
	if strings.TrimSpace(badge) == "" {
		return nil, domain.NewValidationError("badge", "is required")
	}

	player, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.HasBadge(badge) {
		return player, nil
	}

	player.Badges = append(player.Badges, badge)
	if err := s.save(ctx, player); err != nil {
		return nil, err
	}
	s.mirror(ctx, player)

	s.logger.Info("badge granted", "player_id", player.ID, "badge", badge)
	return player, nil
}

// GetPlayer loads a player record by id
func (s *PresenceService) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	return s.loadPlayer(ctx, playerID)
}

func (s *PresenceService) loadPlayer(ctx context.Context, id string) (*domain.Player, error) {
	raw, err := s.store.Get(ctx, store.PlayerKey(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return decodePlayer(raw)
}

// save writes the record and its presence index entry
func (s *PresenceService) save(ctx context.Context, player *domain.Player) error {
	if err := store.SetJSON(ctx, s.store, store.PlayerKey(player.ID), player); err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	if err := s.store.IndexAdd(ctx, store.PresenceIndex, player.ID, float64(player.LastUpdate)); err != nil {
		return fmt.Errorf("indexing player: %w", err)
	}
	return nil
}

// mirror copies durable fields to the archive without failing the caller
func (s *PresenceService) mirror(ctx context.Context, player *domain.Player) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveAccount(ctx, player); err != nil {
		s.logger.Warn("failed to archive account", "player_id", player.ID, "error", err)
	}
}
