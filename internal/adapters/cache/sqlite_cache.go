package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

// sqliteTimeLayout matches the format datetime('now') produces, so the
// expires_at comparison works as a plain string comparison. Timestamps are
// stored in UTC for the same reason.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteCache is a SQLite implementation of the CacheRepository interface
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS prediction_cache (
			text_hash TEXT PRIMARY KEY,
			prediction INTEGER,
			phishing REAL,
			email_length INTEGER,
			analyzed_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_expires_at ON prediction_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached result for a text hash
func (c *SQLiteCache) Get(textHash string) (*core.PredictionResult, bool) {
	var prediction, emailLength int
	var phishing float64
	var analyzedAt time.Time

	err := c.db.QueryRow(`
		SELECT prediction, phishing, email_length, analyzed_at
		FROM prediction_cache
		WHERE text_hash = ? AND expires_at > datetime('now')
	`, textHash).Scan(&prediction, &phishing, &emailLength, &analyzedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false
		}
		c.logger.Error("Failed to query cache", zap.Error(err), zap.String("text_hash", textHash))
		return nil, false
	}

	return core.RebuildResult(prediction, phishing, emailLength, analyzedAt), true
}

// Set stores a prediction result
func (c *SQLiteCache) Set(textHash string, result *core.PredictionResult, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)

	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO prediction_cache (text_hash, prediction, phishing, email_length, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, textHash, result.Prediction, result.Confidence.Phishing, result.EmailLength,
		result.AnalyzedAt.UTC().Format(sqliteTimeLayout), expiresAt.UTC().Format(sqliteTimeLayout))

	if err != nil {
		c.logger.Error("Failed to insert cache entry", zap.Error(err), zap.String("text_hash", textHash))
	}
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, textHash string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM prediction_cache
		WHERE text_hash = ?
	`, textHash)

	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM prediction_cache
		WHERE expires_at <= datetime('now')
	`)

	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
