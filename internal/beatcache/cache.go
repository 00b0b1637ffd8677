package beatcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"beatframe/internal/beats"
	"beatframe/internal/fileutil"
	"beatframe/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the cache database was written by a different version.
var ErrSchemaMismatch = errors.New("beat cache schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Entry summarizes one cached timeline.
type Entry struct {
	Key       string    `json:"key"`
	AudioPath string    `json:"audio_path"`
	Method    string    `json:"method"`
	Beats     int       `json:"beats"`
	Duration  float64   `json:"duration"`
	Tempo     float64   `json:"tempo"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
}

// Cache is a SQLite-backed timeline store.
type Cache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open creates or connects to the cache database at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "beatcache")

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("beat cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	c := &Cache{db: db, path: path, logger: logger}
	if err := c.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Path returns the database location.
func (c *Cache) Path() string { return c.path }

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return c.createSchema(ctx)
	}

	var version int
	if err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, c.path)
	}
	return nil
}

func (c *Cache) createSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Key derives the cache key for audioPath analysed with opts at sampleRate.
func Key(audioPath string, opts beats.Options, sampleRate int) (string, error) {
	digest, err := fileutil.HashFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("hash audio for cache key: %w", err)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|method=%s|rate=%d|window=%d|history=%d|sens=%g|thr=%g|min=%d",
		digest, strings.ToLower(strings.TrimSpace(opts.Method)), sampleRate, opts.WindowSize,
		opts.HistoryWindows, opts.Sensitivity, opts.Threshold, opts.MinInterval.Milliseconds())
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Lookup returns the cached timeline for key.
func (c *Cache) Lookup(ctx context.Context, key string) (beats.Timeline, bool, error) {
	ctx = ensureContext(ctx)
	var payload string
	err := retryOnBusy(ctx, func() error {
		return c.db.QueryRowContext(ctx, "SELECT payload FROM timelines WHERE cache_key = ?", key).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return beats.Timeline{}, false, nil
	}
	if err != nil {
		return beats.Timeline{}, false, fmt.Errorf("lookup timeline: %w", err)
	}

	var timeline beats.Timeline
	if err := json.Unmarshal([]byte(payload), &timeline); err != nil {
		c.logger.Warn("discarding unreadable cache entry",
			logging.String(logging.FieldEventType, "beatcache_decode_failed"),
			logging.String("cache_key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the entry will be recomputed"),
			logging.String(logging.FieldImpact, "beat detection runs again for this track"))
		return beats.Timeline{}, false, nil
	}
	if timeline.Beats == nil {
		timeline.Beats = []beats.Beat{}
	}

	if err := c.exec(ctx, "UPDATE timelines SET last_used = ? WHERE cache_key = ?", now(), key); err != nil {
		c.logger.Debug("failed to touch cache entry", logging.Error(err))
	}
	c.logger.Debug("beat cache hit", logging.String("cache_key", key), logging.Int("beats", len(timeline.Beats)))
	return timeline, true, nil
}

// Store records timeline under key, replacing any previous entry.
func (c *Cache) Store(ctx context.Context, key, audioPath string, timeline beats.Timeline) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key cannot be empty")
	}
	payload, err := json.Marshal(timeline)
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	stamp := now()
	err = c.exec(ctx, `INSERT INTO timelines
		(cache_key, audio_path, method, beat_count, duration, tempo, payload, created_at, last_used)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			audio_path = excluded.audio_path,
			method = excluded.method,
			beat_count = excluded.beat_count,
			duration = excluded.duration,
			tempo = excluded.tempo,
			payload = excluded.payload,
			last_used = excluded.last_used`,
		key, audioPath, timeline.Method, len(timeline.Beats), timeline.Duration, timeline.Tempo(), string(payload), stamp, stamp)
	if err != nil {
		return fmt.Errorf("store timeline: %w", err)
	}
	c.logger.Debug("cached beat timeline",
		logging.String("cache_key", key),
		logging.String("audio_path", audioPath),
		logging.Int("beats", len(timeline.Beats)))
	return nil
}

// List returns every entry, most recently used first.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := c.db.QueryContext(ctx, `SELECT cache_key, audio_path, method, beat_count, duration, tempo, created_at, last_used
		FROM timelines ORDER BY last_used DESC, cache_key`)
	if err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			created, lastUsed string
		)
		if err := rows.Scan(&e.Key, &e.AudioPath, &e.Method, &e.Beats, &e.Duration, &e.Tempo, &created, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		e.CreatedAt = parseTime(created)
		e.LastUsed = parseTime(lastUsed)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove deletes one entry. It returns false when the key was absent.
func (c *Cache) Remove(ctx context.Context, key string) (bool, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = c.db.ExecContext(ctx, "DELETE FROM timelines WHERE cache_key = ?", key)
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("remove timeline: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Clear deletes every entry and returns how many were removed.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = c.db.ExecContext(ctx, "DELETE FROM timelines")
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("clear timelines: %w", err)
	}
	n, _ := res.RowsAffected()
	c.logger.Info("beat cache cleared", logging.Int64("removed", n))
	return n, nil
}

func (c *Cache) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx, query, args...)
		return err
	})
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
