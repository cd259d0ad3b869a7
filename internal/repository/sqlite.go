package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/abrezinsky/coinche/internal/errors"
	"github.com/abrezinsky/coinche/internal/models"
	"github.com/abrezinsky/coinche/internal/scoring"
	_ "github.com/mattn/go-sqlite3"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// NewWithDB wraps an existing connection without running migrations
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			topology INTEGER NOT NULL,
			variant TEXT NOT NULL,
			target_score INTEGER NOT NULL,
			announcements_enabled BOOLEAN DEFAULT 1,
			dealer_index INTEGER DEFAULT 0,
			ended BOOLEAN DEFAULT 0,
			draw BOOLEAN DEFAULT 0,
			winner TEXT,
			totals TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			match_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			seat INTEGER NOT NULL,
			side TEXT NOT NULL,
			PRIMARY KEY (match_id, id),
			UNIQUE (match_id, seat),
			FOREIGN KEY (match_id) REFERENCES matches(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS hands (
			id TEXT PRIMARY KEY,
			match_id TEXT NOT NULL,
			hand_number INTEGER NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (match_id, hand_number),
			FOREIGN KEY (match_id) REFERENCES matches(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hands_match ON hands(match_id, hand_number)`,
		`CREATE INDEX IF NOT EXISTS idx_players_match ON players(match_id, seat)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	// base_url is set by app.go with the detected LAN address on startup.
	// default_target_score stays unset so it follows the variant.
	defaultSettings := map[string]string{
		"default_topology":      "4",
		"default_variant":       string(scoring.VariantContract),
		"announcements_enabled": "true",
		"feed_url":              "",
	}

	for key, value := range defaultSettings {
		_, err := r.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value)
		if err != nil {
			return err
		}
	}

	return nil
}

// ==================== Match Methods ====================

// CreateMatch stores a match and its seating in one transaction
func (r *Repository) CreateMatch(ctx context.Context, m models.Match, players []models.Player) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO matches (id, name, topology, variant, target_score, announcements_enabled, dealer_index, totals, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Topology, m.Variant, m.TargetScore, m.AnnouncementsEnabled, m.DealerIndex, "{}", m.CreatedAt, m.CreatedAt)
	if err != nil {
		return err
	}

	for _, p := range players {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO players (match_id, id, name, seat, side) VALUES (?, ?, ?, ?, ?)`,
			m.ID, p.ID, p.Name, p.Seat, p.Side)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetMatch retrieves a match by ID
func (r *Repository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var m models.Match
	var winner sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, topology, variant, target_score, announcements_enabled,
			dealer_index, ended, draw, winner, created_at, updated_at
		FROM matches WHERE id = ?
	`, id).Scan(&m.ID, &m.Name, &m.Topology, &m.Variant, &m.TargetScore, &m.AnnouncementsEnabled,
		&m.DealerIndex, &m.Ended, &m.Draw, &winner, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("match not found")
	}
	if err != nil {
		return nil, err
	}
	m.Winner = winner.String
	return &m, nil
}

// ListMatches returns every match, newest first, with its hand count and totals
func (r *Repository) ListMatches(ctx context.Context) ([]models.MatchSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.topology, m.variant, m.target_score, m.announcements_enabled,
			m.dealer_index, m.ended, m.draw, m.winner, m.totals, m.created_at, m.updated_at,
			(SELECT COUNT(*) FROM hands h WHERE h.match_id = m.id) as hand_count
		FROM matches m
		ORDER BY m.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []models.MatchSummary
	for rows.Next() {
		var s models.MatchSummary
		var winner, totals sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Topology, &s.Variant, &s.TargetScore, &s.AnnouncementsEnabled,
			&s.DealerIndex, &s.Ended, &s.Draw, &winner, &totals, &s.CreatedAt, &s.UpdatedAt, &s.Hands); err != nil {
			return nil, err
		}
		s.Winner = winner.String
		s.Totals = map[string]int{}
		if totals.Valid && totals.String != "" {
			if err := json.Unmarshal([]byte(totals.String), &s.Totals); err != nil {
				return nil, err
			}
		}
		matches = append(matches, s)
	}
	return matches, rows.Err()
}

// ListPlayers returns the seating of a match in play order
func (r *Repository) ListPlayers(ctx context.Context, matchID string) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, id, name, seat, side FROM players WHERE match_id = ? ORDER BY seat`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.MatchID, &p.ID, &p.Name, &p.Seat, &p.Side); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// UpdateProgress stores the dealer, end state and totals of a match
func (r *Repository) UpdateProgress(ctx context.Context, matchID string, p models.Progress) error {
	return r.updateProgress(ctx, r.db, matchID, p)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *Repository) updateProgress(ctx context.Context, db execer, matchID string, p models.Progress) error {
	totals, err := json.Marshal(p.Totals)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `
		UPDATE matches SET dealer_index = ?, ended = ?, draw = ?, winner = ?, totals = ?, updated_at = ?
		WHERE id = ?
	`, p.DealerIndex, p.Ended, p.Draw, p.Winner, string(totals), time.Now().UTC(), matchID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound("match not found")
	}
	return nil
}

// ==================== Hand Methods ====================

// ListHands returns the stored hands of a match in play order
func (r *Repository) ListHands(ctx context.Context, matchID string) ([]scoring.HandResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM hands WHERE match_id = ? ORDER BY hand_number`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hands []scoring.HandResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var h scoring.HandResult
		if err := json.Unmarshal([]byte(payload), &h); err != nil {
			return nil, errors.Wrap(err, errors.ErrInternal, "corrupt hand payload")
		}
		hands = append(hands, h)
	}
	return hands, rows.Err()
}

// AppendHand stores a new hand and the match progress it produced
func (r *Repository) AppendHand(ctx context.Context, matchID string, h scoring.HandResult, p models.Progress) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO hands (id, match_id, hand_number, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, matchID, h.HandNumber, string(payload), h.CreatedAt, h.UpdatedAt)
	if err != nil {
		return err
	}
	if err := r.updateProgress(ctx, tx, matchID, p); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceHand overwrites an edited hand and the recomputed match progress
func (r *Repository) ReplaceHand(ctx context.Context, matchID string, h scoring.HandResult, p models.Progress) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE hands SET payload = ?, updated_at = ? WHERE id = ? AND match_id = ?`,
		string(payload), h.UpdatedAt, h.ID, matchID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound("hand not found")
	}
	if err := r.updateProgress(ctx, tx, matchID, p); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteHand removes a hand and stores the recomputed match progress
func (r *Repository) DeleteHand(ctx context.Context, matchID, handID string, p models.Progress) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM hands WHERE id = ? AND match_id = ?`, handID, matchID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.NotFound("hand not found")
	}
	if err := r.updateProgress(ctx, tx, matchID, p); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting stores a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// AllSettings returns every stored setting
func (r *Repository) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
