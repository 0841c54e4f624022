package relay

import (
	"errors"
	"testing"

	"github.com/InnoCoGo/Telegram-Bot/internal/models"
)

func TestInsertIfAbsentNeverDuplicates(t *testing.T) {
	inserts := []models.PendingJoinRequest{
		{TripID: 7, SenderID: 42},
		{TripID: 7, SenderID: 43},
		{TripID: 8, SenderID: 42},
		{TripID: 7, SenderID: 42}, // duplicate
		{TripID: 8, SenderID: 42}, // duplicate
		{TripID: 9, SenderID: 1},
	}

	var pending []models.PendingJoinRequest
	for _, entry := range inserts {
		next, err := insertIfAbsent(pending, entry)
		if err != nil {
			if !errors.Is(err, ErrDuplicateRequest) {
				t.Fatalf("unexpected error: %v", err)
			}
			continue
		}
		pending = next
	}

	if len(pending) != 4 {
		t.Fatalf("expected 4 unique entries, got %d", len(pending))
	}
	seen := make(map[[2]int64]bool)
	for _, p := range pending {
		key := [2]int64{p.TripID, p.SenderID}
		if seen[key] {
			t.Fatalf("duplicate (trip, sender) pair survived: %v", key)
		}
		seen[key] = true
	}
}

func TestFindPendingFirstMatchInInsertionOrder(t *testing.T) {
	pending := []models.PendingJoinRequest{
		{TripID: 1, SenderID: 2, MessageID: 10},
		{TripID: 7, SenderID: 42, MessageID: 11},
		{TripID: 7, SenderID: 42, MessageID: 12}, // invariant violation on purpose
	}

	if got := findPending(pending, 7, 42); got != 1 {
		t.Fatalf("expected first match at index 1, got %d", got)
	}
	if got := findPending(pending, 7, 99); got != -1 {
		t.Fatalf("expected -1 for missing entry, got %d", got)
	}
	if got := findPending(nil, 7, 42); got != -1 {
		t.Fatalf("expected -1 on empty list, got %d", got)
	}
}

func TestRemoveAt(t *testing.T) {
	pending := []models.PendingJoinRequest{
		{TripID: 1, SenderID: 2},
		{TripID: 3, SenderID: 4},
		{TripID: 5, SenderID: 6},
	}

	entry, remaining, err := removeAt(pending, 1)
	if err != nil {
		t.Fatal(err)
	}
	if entry.TripID != 3 || entry.SenderID != 4 {
		t.Fatalf("removed wrong entry: %+v", entry)
	}
	if len(remaining) != 2 || remaining[0].TripID != 1 || remaining[1].TripID != 5 {
		t.Fatalf("remaining list wrong: %+v", remaining)
	}

	if _, _, err := removeAt(remaining, 5); !errors.Is(err, ErrNoMatchingRequest) {
		t.Fatalf("expected ErrNoMatchingRequest for stale index, got %v", err)
	}
	if _, _, err := removeAt(nil, 0); !errors.Is(err, ErrNoMatchingRequest) {
		t.Fatalf("expected ErrNoMatchingRequest on empty list, got %v", err)
	}
}
