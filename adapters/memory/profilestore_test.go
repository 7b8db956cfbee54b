package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/metergate/adapters/memory"
	"github.com/artpar/metergate/domain/entitlement"
)

func TestProfileStore_GetAbsent(t *testing.T) {
	s := memory.NewProfileStore()

	_, found, err := s.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Error("expected found=false for absent profile")
	}
}

func TestProfileStore_PutOverwrites(t *testing.T) {
	s := memory.NewProfileStore()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	p := entitlement.DefaultProfile("user-1", 5)
	if err := s.Put(ctx, p); err != nil {
		t.Fatalf("put: %v", err)
	}

	p = entitlement.Activate(p, "cus_123", 1000, now)
	if err := s.Put(ctx, p); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, found, err := s.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if got.Tier != entitlement.TierPro {
		t.Errorf("Tier = %s, want pro", got.Tier)
	}
	if got.BillingCustomerID != "cus_123" {
		t.Errorf("BillingCustomerID = %s, want cus_123", got.BillingCustomerID)
	}
}
