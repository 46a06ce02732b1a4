package state

import (
	"sync"
	"testing"
)

const stateAwait State = "await_credentials"

func TestMemoryManagerStates(t *testing.T) {
	mgr := NewMemoryManager()

	if mgr.GetState(1) != StateIdle {
		t.Fatal("unknown user should be idle")
	}
	if mgr.InProgress(1) {
		t.Fatal("unknown user should not be in progress")
	}

	mgr.SetState(1, stateAwait)
	if mgr.GetState(1) != stateAwait {
		t.Fatalf("state = %q, want %q", mgr.GetState(1), stateAwait)
	}
	if !mgr.InProgress(1) {
		t.Fatal("user should be in progress")
	}
	if mgr.InProgress(2) {
		t.Fatal("state must be scoped per user")
	}

	mgr.ClearState(1)
	if mgr.GetState(1) != StateIdle {
		t.Fatal("cleared user should be idle")
	}
}

func TestMemoryManagerTempData(t *testing.T) {
	mgr := NewMemoryManager()

	if _, ok := mgr.GetTemp(1, "attempts"); ok {
		t.Fatal("unexpected temp value")
	}
	mgr.SetTemp(1, "attempts", 2)
	v, ok := mgr.GetTemp(1, "attempts")
	if !ok || v.(int) != 2 {
		t.Fatalf("temp = %v ok=%v, want 2 true", v, ok)
	}
	mgr.ClearTemp(1, "attempts")
	if _, ok := mgr.GetTemp(1, "attempts"); ok {
		t.Fatal("temp value should be removed")
	}

	mgr.SetTemp(1, "attempts", 1)
	mgr.Clear(1)
	if _, ok := mgr.GetTemp(1, "attempts"); ok {
		t.Fatal("Clear should drop temp data")
	}
}

func TestMemoryManagerConcurrency(t *testing.T) {
	mgr := NewMemoryManager()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			mgr.SetState(id, stateAwait)
			_ = mgr.GetState(id)
			mgr.SetTemp(id, "k", id)
			mgr.ClearState(id)
		}(int64(i % 8))
	}
	wg.Wait()
}
