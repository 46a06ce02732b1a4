package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(42); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestPutGet(t *testing.T) {
	store := NewMemoryStore()
	sess := &Session{
		UserID:     7,
		AccountSID: "AC123",
		AuthToken:  "tok",
		CreatedAt:  time.Now(),
	}
	store.Put(sess)

	got, err := store.Get(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccountSID != "AC123" {
		t.Fatalf("AccountSID = %q", got.AccountSID)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
}

func TestReLoginOverwrites(t *testing.T) {
	store := NewMemoryStore()
	store.Put(&Session{UserID: 7, AccountSID: "AC_first"})
	store.Put(&Session{UserID: 7, AccountSID: "AC_second"})

	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after re-login", store.Len())
	}
	got, err := store.Get(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AccountSID != "AC_second" {
		t.Fatalf("AccountSID = %q, want AC_second", got.AccountSID)
	}
}

func TestDelete(t *testing.T) {
	store := NewMemoryStore()
	store.Put(&Session{UserID: 7})
	store.Delete(7)
	if _, err := store.Get(7); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after delete, got %v", err)
	}
	// Deleting again is a no-op.
	store.Delete(7)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Put(&Session{UserID: id})
			if _, err := store.Get(id); err != nil {
				t.Errorf("user %d: %v", id, err)
			}
		}(int64(i))
	}
	wg.Wait()
	if store.Len() != 32 {
		t.Fatalf("Len = %d, want 32", store.Len())
	}
}
