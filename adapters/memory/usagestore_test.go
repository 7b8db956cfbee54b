package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/artpar/metergate/adapters/memory"
)

func newTestStore(t *testing.T) *memory.UsageStore {
	t.Helper()
	s := memory.NewUsageStore(memory.UsageStoreConfig{})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUsageStore_CountAbsent(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Count(context.Background(), "user-1", "2025-06")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0 for absent counter", n)
	}
}

func TestUsageStore_IncrementReturnsNewCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	expiry := time.Now().AddDate(2, 0, 0)

	for i := int64(1); i <= 3; i++ {
		n, err := s.Increment(ctx, "user-1", "2025-06", expiry)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if n != i {
			t.Errorf("increment %d returned %d", i, n)
		}
	}

	n, _ := s.Count(ctx, "user-1", "2025-06")
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestUsageStore_PeriodIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	expiry := time.Now().AddDate(2, 0, 0)

	for i := 0; i < 5; i++ {
		s.Increment(ctx, "user-1", "2025-06", expiry)
	}

	n, _ := s.Count(ctx, "user-1", "2025-07")
	if n != 0 {
		t.Errorf("count for next period = %d, want 0", n)
	}
}

func TestUsageStore_ConcurrentIncrements(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	expiry := time.Now().AddDate(2, 0, 0)

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				if _, err := s.Increment(ctx, "user-1", "2025-06", expiry); err != nil {
					t.Errorf("increment: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	n, err := s.Count(ctx, "user-1", "2025-06")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if want := int64(goroutines * perGoroutine); n != want {
		t.Errorf("count = %d, want %d (lost updates)", n, want)
	}
}

func TestUsageStore_UsersDoNotInterfere(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	expiry := time.Now().AddDate(2, 0, 0)

	s.Increment(ctx, "user-1", "2025-06", expiry)
	s.Increment(ctx, "user-2", "2025-06", expiry)
	s.Increment(ctx, "user-2", "2025-06", expiry)

	n1, _ := s.Count(ctx, "user-1", "2025-06")
	n2, _ := s.Count(ctx, "user-2", "2025-06")

	if n1 != 1 {
		t.Errorf("user-1 count = %d, want 1", n1)
	}
	if n2 != 2 {
		t.Errorf("user-2 count = %d, want 2", n2)
	}
}
