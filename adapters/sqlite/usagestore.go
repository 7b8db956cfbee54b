package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/metergate/ports"
)

// UsageStore implements ports.UsageStore with SQLite.
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new SQLite usage store.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// Count returns the current count for a user's period; 0 when no row exists.
func (s *UsageStore) Count(ctx context.Context, userID, period string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM usage_counters WHERE user_id = ? AND period = ?
	`, userID, period).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Increment atomically adds 1 to the counter, creating the row with the given
// expiry if absent, and returns the post-increment count. The upsert runs as
// a single statement so concurrent callers for the same (user, period) are
// serialized by the database and never lose an update.
func (s *UsageStore) Increment(ctx context.Context, userID, period string, expiresAt time.Time) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO usage_counters (user_id, period, count, expires_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(user_id, period) DO UPDATE SET count = count + 1
		RETURNING count
	`, userID, period, expiresAt.UTC()).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PurgeExpired removes counters whose expiry has passed. Reclamation only;
// the check path never consults expiry.
func (s *UsageStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM usage_counters WHERE expires_at < ?
	`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
