package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/morelo/writeback/internal/model"
)

func TestRecords_BasicOperations(t *testing.T) {
	records := NewRecords()

	t.Run("Get on empty cache", func(t *testing.T) {
		_, ok := records.Get(1)
		if ok {
			t.Error("Expected miss on empty cache")
		}
	})

	t.Run("Put and Get", func(t *testing.T) {
		acct := model.NewAccount(1, "alice")
		records.Put(1, acct)

		got, ok := records.Get(1)
		if !ok {
			t.Fatal("Expected account to be cached")
		}
		if got.Username != "alice" {
			t.Errorf("Expected username 'alice', got %q", got.Username)
		}
	})

	t.Run("Put overwrites", func(t *testing.T) {
		records.Put(1, model.NewAccount(1, "alice2"))

		got, _ := records.Get(1)
		if got.Username != "alice2" {
			t.Errorf("Expected username 'alice2', got %q", got.Username)
		}
	})

	t.Run("Len", func(t *testing.T) {
		records.Put(2, model.NewAccount(2, "bob"))
		if records.Len() != 2 {
			t.Errorf("Expected 2 entries, got %d", records.Len())
		}
	})
}

func TestRecords_Patch(t *testing.T) {
	t.Run("Patch cached account", func(t *testing.T) {
		records := NewRecords()
		records.Put(1, model.NewAccount(1, "alice"))

		records.Patch(1, "profile.onboarded", true)
		records.Patch(1, "state", "READY")

		got, _ := records.Get(1)
		if !got.Profile.Onboarded {
			t.Error("Expected profile.onboarded to be patched")
		}
		if got.State != "READY" {
			t.Errorf("Expected state READY, got %q", got.State)
		}
	})

	t.Run("Patch absent account is a no-op", func(t *testing.T) {
		records := NewRecords()
		records.Patch(99, "state", "READY") // must not panic

		if records.Len() != 0 {
			t.Error("Expected patch to not create entries")
		}
	})

	t.Run("Malformed path is a no-op", func(t *testing.T) {
		records := NewRecords()
		records.Put(1, model.NewAccount(1, "alice"))

		records.Patch(1, "state.bogus.deep", "x") // must not panic

		got, _ := records.Get(1)
		if got.State != model.StateIdle {
			t.Errorf("Expected state unchanged, got %q", got.State)
		}
	})
}

func TestRecords_Evict(t *testing.T) {
	records := NewRecords()
	records.Put(1, model.NewAccount(1, "alice"))
	records.Put(2, model.NewAccount(2, "bob"))

	t.Run("Evict single", func(t *testing.T) {
		records.Evict(1)
		if _, ok := records.Get(1); ok {
			t.Error("Expected account 1 to be evicted")
		}
		if _, ok := records.Get(2); !ok {
			t.Error("Expected account 2 to remain")
		}
	})

	t.Run("Evict absent does not panic", func(t *testing.T) {
		records.Evict(42)
	})

	t.Run("EvictAll", func(t *testing.T) {
		records.EvictAll()
		if records.Len() != 0 {
			t.Errorf("Expected empty cache, got %d entries", records.Len())
		}
	})
}

func TestRecords_Concurrency(t *testing.T) {
	records := NewRecords()
	const numGoroutines = 50
	const numOperations = 200

	var wg sync.WaitGroup

	// Writers
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				acctID := model.AccountID(id)
				records.Put(acctID, model.NewAccount(acctID, fmt.Sprintf("user-%d", id)))
				records.Patch(acctID, "profile.age", j)
			}
		}(i)
	}

	// Readers
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				records.Get(model.AccountID(id))
				records.Len()
			}
		}(i)
	}

	wg.Wait()

	if records.Len() != numGoroutines {
		t.Errorf("Expected %d entries, got %d", numGoroutines, records.Len())
	}
}

func BenchmarkRecords_Patch(b *testing.B) {
	records := NewRecords()
	records.Put(1, model.NewAccount(1, "alice"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		records.Patch(1, "profile.age", i)
	}
}
