package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
)

func TestContextStoreStoreRetrieve(t *testing.T) {
	t.Parallel()

	store := NewContextStore()
	if _, ok := store.Retrieve(KeyCompanyName); ok {
		t.Fatal("expected absent key on a fresh store")
	}

	store.Store(KeyCompanyName, "Acme Co")
	store.Store(KeyCompanyName, "Acme Corporation")

	v, ok := store.Retrieve(KeyCompanyName)
	if !ok || v != "Acme Corporation" {
		t.Fatalf("Retrieve() = %v, %v; want last write", v, ok)
	}
	if got := store.RetrieveString(KeyCompanyName); got != "Acme Corporation" {
		t.Fatalf("RetrieveString() = %q", got)
	}

	store.Store("count", 3)
	if got := store.RetrieveString("count"); got != "" {
		t.Fatalf("RetrieveString() on non-string = %q, want empty", got)
	}
}

func TestContextStoreSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	store := NewContextStore()
	store.Store(KeyCompanyInfo, "info")

	snap := store.Snapshot()
	snap[KeyCompanyInfo] = "mutated"
	snap["extra"] = true

	if got := store.RetrieveString(KeyCompanyInfo); got != "info" {
		t.Fatalf("store changed through snapshot: %q", got)
	}
	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}

	store.Store(KeyMarketInfo, "market")
	if _, ok := snap[KeyMarketInfo]; ok {
		t.Fatal("earlier snapshot observed a later write")
	}
	if len(store.Snapshot()) != 2 {
		t.Fatalf("new snapshot misses a write: %#v", store.Snapshot())
	}
}

func TestContextStoreKeysSorted(t *testing.T) {
	t.Parallel()

	store := NewContextStore()
	store.Store(KeyReport, "r")
	store.Store(KeyCompanyName, "c")
	store.Store(KeyMarketInfo, "m")

	keys := store.Keys()
	want := []string{KeyCompanyName, KeyMarketInfo, KeyReport}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
}

func TestContextStoreRecordsKeepOrderAndAreImmutable(t *testing.T) {
	t.Parallel()

	store := NewContextStore()
	errs := []string{"boom"}
	store.AppendRecord(contractx.ExecutionRecord{Agent: "first", Errors: errs})
	store.AppendRecord(contractx.ExecutionRecord{Agent: "second", Timestamp: time.Now()})

	errs[0] = "changed"

	records := store.Records()
	if len(records) != 2 {
		t.Fatalf("Records() len = %d, want 2", len(records))
	}
	if records[0].Agent != "first" || records[1].Agent != "second" {
		t.Fatalf("records out of order: %#v", records)
	}
	if records[0].Errors[0] != "boom" {
		t.Fatalf("record shares caller slice: %#v", records[0].Errors)
	}

	records[0].Errors[0] = "mutated"
	if again := store.Records(); again[0].Errors[0] != "boom" {
		t.Fatalf("record mutated through Records(): %#v", again[0].Errors)
	}
}

func TestContextStoreConcurrentDisjointWriters(t *testing.T) {
	t.Parallel()

	store := NewContextStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Store(fmt.Sprintf("key-%d", i), i)
			store.AppendRecord(contractx.ExecutionRecord{Agent: fmt.Sprintf("agent-%d", i)})
			_ = store.Snapshot()
		}(i)
	}
	wg.Wait()

	if store.Len() != 32 {
		t.Fatalf("Len() = %d, want 32", store.Len())
	}
	if len(store.Records()) != 32 {
		t.Fatalf("Records() len = %d, want 32", len(store.Records()))
	}
}
