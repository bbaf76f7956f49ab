package memory

import (
	"testing"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

func TestAttemptJournal_ListBySession(t *testing.T) {
	journal := NewAttemptJournal()

	records := []domain.AttemptRecord{
		{ID: "a-1", SessionID: "s-1", State: domain.SubmissionStateRejected, Reason: "empty-cart"},
		{ID: "b-1", SessionID: "s-2", State: domain.SubmissionStateSucceeded, OrderID: "7"},
		{ID: "a-2", SessionID: "s-1", State: domain.SubmissionStateSucceeded, OrderID: "8"},
		{ID: "a-3", SessionID: "s-1", State: domain.SubmissionStateRejected, Reason: "timeout"},
	}
	for _, record := range records {
		if err := journal.Append(record); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		session string
		limit   int
		want    []string
	}{
		{name: "all newest first", session: "s-1", limit: 0, want: []string{"a-3", "a-2", "a-1"}},
		{name: "limited", session: "s-1", limit: 2, want: []string{"a-3", "a-2"}},
		{name: "other session", session: "s-2", limit: 10, want: []string{"b-1"}},
		{name: "unknown session", session: "s-3", limit: 10, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := journal.ListBySession(tt.session, tt.limit)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("record %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestAttemptJournal_Forget(t *testing.T) {
	journal := NewAttemptJournal()
	_ = journal.Append(domain.AttemptRecord{ID: "a-1", SessionID: "s-1"})

	journal.Forget("s-1")

	got, _ := journal.ListBySession("s-1", 0)
	if len(got) != 0 {
		t.Fatalf("expected empty journal, got %d", len(got))
	}
}
