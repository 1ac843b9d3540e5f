package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"market-analyzer/config"
	"market-analyzer/internal/scanner"
)

// ScanHistory persists completed scan results to PostgreSQL so past
// rankings survive restarts and can be inspected later.
type ScanHistory struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewScanHistory connects to PostgreSQL and ensures the schema exists
func NewScanHistory(cfg config.DatabaseConfig, logger zerolog.Logger) (*ScanHistory, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("database is not enabled in configuration")
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	sh := &ScanHistory{pool: pool, logger: logger}
	if err := sh.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().Str("database", cfg.Database).Msg("scan history store connected")
	return sh, nil
}

func (sh *ScanHistory) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			scan_id UUID PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			duration_ms BIGINT NOT NULL,
			symbols_scanned INT NOT NULL,
			candidate_count INT NOT NULL,
			rejected_count INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS scan_candidates (
			id BIGSERIAL PRIMARY KEY,
			scan_id UUID NOT NULL REFERENCES scans(scan_id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			rank INT NOT NULL,
			total_score DOUBLE PRECISION NOT NULL,
			scores JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scan_rejections (
			id BIGSERIAL PRIMARY KEY,
			scan_id UUID NOT NULL REFERENCES scans(scan_id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			reason TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_candidates_scan ON scan_candidates(scan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at DESC)`,
	}

	for i, migration := range migrations {
		if _, err := sh.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

// SaveScan records a completed scan with its candidates and rejections
func (sh *ScanHistory) SaveScan(ctx context.Context, result *scanner.ScanResult) error {
	tx, err := sh.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO scans (scan_id, started_at, finished_at, duration_ms, symbols_scanned, candidate_count, rejected_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.ScanID, result.StartTime, result.EndTime, result.Duration.Milliseconds(),
		result.SymbolsScanned, len(result.Candidates), len(result.Rejected),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	for rank, candidate := range result.Candidates {
		scores, err := json.Marshal(candidate.Scores)
		if err != nil {
			return fmt.Errorf("failed to marshal scores for %s: %w", candidate.Symbol, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO scan_candidates (scan_id, symbol, rank, total_score, scores)
			VALUES ($1, $2, $3, $4, $5)`,
			result.ScanID, candidate.Symbol, rank+1, candidate.TotalScore, scores,
		)
		if err != nil {
			return fmt.Errorf("failed to insert candidate %s: %w", candidate.Symbol, err)
		}
	}

	for _, rejection := range result.Rejected {
		_, err = tx.Exec(ctx, `
			INSERT INTO scan_rejections (scan_id, symbol, reason, detail)
			VALUES ($1, $2, $3, $4)`,
			result.ScanID, rejection.Symbol, string(rejection.RejectionReason), rejection.RejectionDetail,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rejection %s: %w", rejection.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit scan: %w", err)
	}

	sh.logger.Debug().
		Str("scan_id", result.ScanID).
		Int("candidates", len(result.Candidates)).
		Msg("scan persisted")
	return nil
}

// ScanSummary is a stored scan's header row
type ScanSummary struct {
	ScanID         string        `json:"scan_id"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Duration       time.Duration `json:"duration"`
	SymbolsScanned int           `json:"symbols_scanned"`
	CandidateCount int           `json:"candidate_count"`
	RejectedCount  int           `json:"rejected_count"`
}

// RecentScans returns the most recent scan summaries, newest first
func (sh *ScanHistory) RecentScans(ctx context.Context, limit int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := sh.pool.Query(ctx, `
		SELECT scan_id, started_at, finished_at, duration_ms, symbols_scanned, candidate_count, rejected_count
		FROM scans ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var summaries []ScanSummary
	for rows.Next() {
		var s ScanSummary
		var durationMs int64
		if err := rows.Scan(&s.ScanID, &s.StartedAt, &s.FinishedAt, &durationMs,
			&s.SymbolsScanned, &s.CandidateCount, &s.RejectedCount); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.Duration = time.Duration(durationMs) * time.Millisecond
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Close releases the connection pool
func (sh *ScanHistory) Close() {
	if sh.pool != nil {
		sh.pool.Close()
	}
}
