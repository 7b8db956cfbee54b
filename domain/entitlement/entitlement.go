// Package entitlement provides the per-user profile value type and the
// pure transition functions applied by the plan synchronizer.
package entitlement

import "time"

// Tier is a subscription tier.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// QuotaUnlimited is the sentinel quota value meaning "no ceiling".
const QuotaUnlimited int64 = -1

// Profile records a user's tier and quota ceiling (immutable value type).
// Profiles are created implicitly with free defaults on first read and are
// mutated only by billing-event transitions; they are never deleted.
type Profile struct {
	UserID            string
	Tier              Tier
	Quota             int64 // -1 = unlimited
	BillingCustomerID string
	UpdatedAt         time.Time
}

// DefaultProfile returns the implicit profile for a user with no stored record.
// This is a PURE function.
func DefaultProfile(userID string, freeQuota int64) Profile {
	return Profile{
		UserID: userID,
		Tier:   TierFree,
		Quota:  freeQuota,
	}
}

// Activate transitions a profile to the pro tier. The transition is an
// absolute overwrite rather than a delta, so replaying the same event is
// safe without a processed-event log. This is a PURE function.
func Activate(p Profile, customerID string, proQuota int64, now time.Time) Profile {
	p.Tier = TierPro
	p.Quota = proQuota
	p.BillingCustomerID = customerID
	p.UpdatedAt = now
	return p
}

// Cancel transitions a profile back to the free tier. The billing customer ID
// is preserved so a later re-subscription reuses the same customer.
// This is a PURE function.
func Cancel(p Profile, freeQuota int64, now time.Time) Profile {
	p.Tier = TierFree
	p.Quota = freeQuota
	p.UpdatedAt = now
	return p
}

// IsUnlimited reports whether a quota value means "no ceiling".
// This is a PURE function.
func IsUnlimited(quota int64) bool {
	return quota < 0
}
