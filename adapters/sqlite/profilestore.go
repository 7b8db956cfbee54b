package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/artpar/metergate/domain/entitlement"
	"github.com/artpar/metergate/ports"
)

// ProfileStore implements ports.ProfileStore with SQLite.
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a new SQLite profile store.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Get retrieves a profile by user ID.
func (s *ProfileStore) Get(ctx context.Context, userID string) (entitlement.Profile, bool, error) {
	var p entitlement.Profile
	var tier string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, tier, quota, COALESCE(billing_customer_id, ''), updated_at
		FROM profiles WHERE user_id = ?
	`, userID).Scan(&p.UserID, &tier, &p.Quota, &p.BillingCustomerID, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entitlement.Profile{}, false, nil
	}
	if err != nil {
		return entitlement.Profile{}, false, err
	}
	p.Tier = entitlement.Tier(tier)
	return p, true, nil
}

// Put stores a profile, overwriting any existing record.
func (s *ProfileStore) Put(ctx context.Context, p entitlement.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, tier, quota, billing_customer_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			tier = excluded.tier,
			quota = excluded.quota,
			billing_customer_id = excluded.billing_customer_id,
			updated_at = excluded.updated_at
	`, p.UserID, string(p.Tier), p.Quota, p.BillingCustomerID, p.UpdatedAt.UTC())
	return err
}

// Ensure interface compliance.
var _ ports.ProfileStore = (*ProfileStore)(nil)
