package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/domain"
)

// Repository archives accounts and accepted gym scores in PostgreSQL.
// The presence store stays the source of truth for live state.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			username VARCHAR(64) PRIMARY KEY,
			player_id VARCHAR(80) NOT NULL,
			display_name VARCHAR(64) NOT NULL,
			avatar_color VARCHAR(16) NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			level INT NOT NULL DEFAULT 1,
			badges TEXT[] NOT NULL DEFAULT '{}',
			fashion_items TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS gym_results (
			id BIGSERIAL PRIMARY KEY,
			player_id VARCHAR(80) NOT NULL,
			username VARCHAR(64) NOT NULL,
			score BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gym_results_player ON gym_results(player_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_gym_results_score ON gym_results(created_at, score DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// SaveAccount inserts or refreshes the durable part of a player record
func (r *Repository) SaveAccount(ctx context.Context, player *domain.Player) error {
	query := `
		INSERT INTO accounts (username, player_id, display_name, avatar_color, password_hash, level, badges, fashion_items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (username)
		DO UPDATE SET
			player_id = $2,
			display_name = $3,
			avatar_color = $4,
			password_hash = CASE WHEN $5 = '' THEN accounts.password_hash ELSE $5 END,
			level = $6,
			badges = $7,
			fashion_items = $8,
			updated_at = $9
	`
	_, err := r.pool.Exec(ctx, query,
		domain.NormalizeUsername(player.Username),
		player.ID,
		player.Username,
		player.AvatarColor,
		player.PasswordHash,
		player.Level,
		player.Badges,
		player.FashionItems,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// FindAccount loads an archived account by normalized username. The returned
// player carries durable fields only; position and hp are left for the caller.
func (r *Repository) FindAccount(ctx context.Context, username string) (*domain.Player, error) {
	query := `
		SELECT player_id, display_name, avatar_color, password_hash, level, badges, fashion_items
		FROM accounts
		WHERE username = $1
	`
	var p domain.Player
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&p.ID,
		&p.Username,
		&p.AvatarColor,
		&p.PasswordHash,
		&p.Level,
		&p.Badges,
		&p.FashionItems,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("finding account: %w", err)
	}
	return &p, nil
}

// RecordScore appends an accepted gym score to the history table
func (r *Repository) RecordScore(ctx context.Context, event domain.ScoreEvent) error {
	query := `
		INSERT INTO gym_results (player_id, username, score, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		event.PlayerID,
		event.Username,
		event.Score,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("recording score: %w", err)
	}
	return nil
}

// BatchRecordScores appends many accepted scores in one round trip
func (r *Repository) BatchRecordScores(ctx context.Context, events []domain.ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO gym_results (player_id, username, score, created_at)
		VALUES ($1, $2, $3, $4)
	`
	for _, e := range events {
		batch.Queue(query, e.PlayerID, e.Username, e.Score, e.Timestamp)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch recording scores: %w", err)
		}
	}
	return nil
}

// BestScoresSince returns each player's best archived score after since,
// highest first
func (r *Repository) BestScoresSince(ctx context.Context, since time.Time, limit int) ([]domain.GymEntry, error) {
	query := `
		SELECT DISTINCT ON (player_id) player_id, username, score, created_at
		FROM gym_results
		WHERE created_at > $1
		ORDER BY player_id, score DESC, created_at ASC
	`
	rows, err := r.pool.Query(ctx, `SELECT player_id, username, score, created_at FROM (`+query+`) best ORDER BY score DESC LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("getting best scores: %w", err)
	}
	defer rows.Close()

	var entries []domain.GymEntry
	for rows.Next() {
		var e domain.GymEntry
		var at time.Time
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Score, &at); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		e.Timestamp = at.UnixMilli()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
