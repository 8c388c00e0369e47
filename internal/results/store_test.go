package results

import (
	"sync"
	"testing"
)

func TestStore_ConcurrentAppend(t *testing.T) {
	store := NewStore(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				store.Append(Outcome{RequestID: id*20 + j, StatusCode: 200, Success: true})
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 1000 {
		t.Fatalf("Expected 1000 outcomes, got %d", store.Len())
	}

	seen := make(map[int]bool)
	for _, o := range store.Snapshot() {
		if seen[o.RequestID] {
			t.Fatalf("Request %d recorded twice", o.RequestID)
		}
		seen[o.RequestID] = true
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	store := NewStore(2)
	store.Append(Outcome{RequestID: 1})

	snap := store.Snapshot()
	store.Append(Outcome{RequestID: 2})

	if len(snap) != 1 {
		t.Errorf("Snapshot changed after append: len %d", len(snap))
	}
	snap[0].RequestID = 99
	if store.Snapshot()[0].RequestID != 1 {
		t.Error("Mutating a snapshot changed the store")
	}
}

func TestSet_SortByRequestID(t *testing.T) {
	set := Set{{RequestID: 3}, {RequestID: 1}, {RequestID: 2}}
	sorted := set.SortByRequestID()

	for i, o := range sorted {
		if o.RequestID != i+1 {
			t.Errorf("Position %d: expected id %d, got %d", i, i+1, o.RequestID)
		}
	}
	if set[0].RequestID != 3 {
		t.Error("SortByRequestID reordered the receiver")
	}
}

func TestOutcome_ErrorKey(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{"explicit error", Outcome{Error: "connection refused"}, "connection refused"},
		{"status without error", Outcome{StatusCode: 503}, "HTTP 503"},
		{"nothing recorded", Outcome{}, "HTTP unknown"},
		{"error wins over status", Outcome{StatusCode: 404, Error: "HTTP 404"}, "HTTP 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.ErrorKey(); got != tt.want {
				t.Errorf("ErrorKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
