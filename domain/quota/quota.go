// Package quota provides pure functions for quota enforcement.
// All functions are deterministic with no side effects.
package quota

import (
	"time"

	"github.com/artpar/metergate/domain/entitlement"
)

// Decision represents the outcome of a quota check (value type).
type Decision struct {
	Allowed bool
	Usage   int64 // count the caller should report (post-increment when allowed)
	Limit   int64 // -1 = unlimited
	Reason  string
}

// ReasonQuotaExceeded is set on denied decisions.
const ReasonQuotaExceeded = "quota_exceeded"

// Evaluate decides whether one more request is allowed given the profile and
// the current period's usage count. Free-tier users at or past their quota
// are denied; pro and unlimited quotas always pass. The caller performs the
// atomic increment only when the decision allows it.
// This is a PURE function.
func Evaluate(p entitlement.Profile, used int64) Decision {
	if entitlement.IsUnlimited(p.Quota) {
		return Decision{Allowed: true, Usage: used + 1, Limit: entitlement.QuotaUnlimited}
	}

	if p.Tier == entitlement.TierFree && used >= p.Quota {
		return Decision{
			Allowed: false,
			Usage:   used,
			Limit:   p.Quota,
			Reason:  ReasonQuotaExceeded,
		}
	}

	return Decision{Allowed: true, Usage: used + 1, Limit: p.Quota}
}

// PeriodKey returns the calendar-month bucket for a given time, in UTC.
// This is a PURE function.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// PeriodBounds returns the UTC start and end of the billing period containing t.
// This is a PURE function.
func PeriodBounds(t time.Time) (start, end time.Time) {
	u := t.UTC()
	start = time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return
}

// CounterExpiry returns the absolute expiry for a usage counter created at t.
// Expiry exists for storage reclamation only and is never consulted on the
// check path.
// This is a PURE function.
func CounterExpiry(t time.Time) time.Time {
	return t.UTC().AddDate(2, 0, 0)
}
