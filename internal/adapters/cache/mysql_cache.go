package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

const mysqlTimeLayout = "2006-01-02 15:04:05"

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS prediction_cache (
			text_hash VARCHAR(64) PRIMARY KEY,
			prediction TINYINT,
			phishing DOUBLE,
			email_length INT,
			analyzed_at TIMESTAMP,
			expires_at TIMESTAMP,
			INDEX idx_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
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
func (c *MySQLCache) Get(textHash string) (*core.PredictionResult, bool) {
	var prediction, emailLength int
	var phishing float64
	var analyzedAt string

	err := c.db.QueryRow(`
		SELECT prediction, phishing, email_length, analyzed_at
		FROM prediction_cache
		WHERE text_hash = ? AND expires_at > NOW()
	`, textHash).Scan(&prediction, &phishing, &emailLength, &analyzedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false
		}
		c.logger.Error("Failed to query cache", zap.Error(err), zap.String("text_hash", textHash))
		return nil, false
	}

	parsedAt, err := time.Parse(mysqlTimeLayout, analyzedAt)
	if err != nil {
		c.logger.Error("Failed to parse analyzed_at timestamp", zap.Error(err))
		return nil, false
	}

	return core.RebuildResult(prediction, phishing, emailLength, parsedAt), true
}

// Set stores a prediction result
func (c *MySQLCache) Set(textHash string, result *core.PredictionResult, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)

	_, err := c.db.Exec(`
		INSERT INTO prediction_cache (text_hash, prediction, phishing, email_length, analyzed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			prediction = VALUES(prediction),
			phishing = VALUES(phishing),
			email_length = VALUES(email_length),
			analyzed_at = VALUES(analyzed_at),
			expires_at = VALUES(expires_at)
	`, textHash, result.Prediction, result.Confidence.Phishing, result.EmailLength,
		result.AnalyzedAt.Format(mysqlTimeLayout), expiresAt.Format(mysqlTimeLayout))

	if err != nil {
		c.logger.Error("Failed to insert cache entry", zap.Error(err), zap.String("text_hash", textHash))
	}
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, textHash string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM prediction_cache
		WHERE expires_at <= NOW()
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
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
