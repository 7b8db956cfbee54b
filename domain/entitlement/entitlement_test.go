package entitlement_test

import (
	"testing"
	"time"

	"github.com/artpar/metergate/domain/entitlement"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestDefaultProfile(t *testing.T) {
	p := entitlement.DefaultProfile("user-1", 5)

	if p.Tier != entitlement.TierFree {
		t.Errorf("Tier = %s, want free", p.Tier)
	}
	if p.Quota != 5 {
		t.Errorf("Quota = %d, want 5", p.Quota)
	}
	if p.BillingCustomerID != "" {
		t.Errorf("BillingCustomerID = %q, want empty", p.BillingCustomerID)
	}
}

func TestActivate(t *testing.T) {
	p := entitlement.DefaultProfile("user-1", 5)
	got := entitlement.Activate(p, "cus_123", 1000, now)

	if got.Tier != entitlement.TierPro {
		t.Errorf("Tier = %s, want pro", got.Tier)
	}
	if got.Quota != 1000 {
		t.Errorf("Quota = %d, want 1000", got.Quota)
	}
	if got.BillingCustomerID != "cus_123" {
		t.Errorf("BillingCustomerID = %s, want cus_123", got.BillingCustomerID)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}
}

func TestActivate_Idempotent(t *testing.T) {
	p := entitlement.DefaultProfile("user-1", 5)

	once := entitlement.Activate(p, "cus_123", 1000, now)
	twice := entitlement.Activate(once, "cus_123", 1000, now)

	if once != twice {
		t.Errorf("applying Activate twice changed the profile: %+v vs %+v", once, twice)
	}
}

func TestActivate_Unlimited(t *testing.T) {
	p := entitlement.DefaultProfile("user-1", 5)
	got := entitlement.Activate(p, "cus_123", entitlement.QuotaUnlimited, now)

	if !entitlement.IsUnlimited(got.Quota) {
		t.Errorf("Quota = %d, want unlimited sentinel", got.Quota)
	}
}

func TestCancel_PreservesCustomerID(t *testing.T) {
	p := entitlement.DefaultProfile("user-1", 5)
	p = entitlement.Activate(p, "cus_123", 1000, now)

	later := now.Add(time.Hour)
	got := entitlement.Cancel(p, 5, later)

	if got.Tier != entitlement.TierFree {
		t.Errorf("Tier = %s, want free", got.Tier)
	}
	if got.Quota != 5 {
		t.Errorf("Quota = %d, want 5", got.Quota)
	}
	if got.BillingCustomerID != "cus_123" {
		t.Errorf("BillingCustomerID = %q, want cus_123 (preserved)", got.BillingCustomerID)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
}

func TestIsUnlimited(t *testing.T) {
	tests := []struct {
		quota int64
		want  bool
	}{
		{entitlement.QuotaUnlimited, true},
		{-10, true},
		{0, false},
		{5, false},
	}

	for _, tt := range tests {
		if got := entitlement.IsUnlimited(tt.quota); got != tt.want {
			t.Errorf("IsUnlimited(%d) = %v, want %v", tt.quota, got, tt.want)
		}
	}
}
