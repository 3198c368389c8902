package memory

import (
	"context"
	"testing"
	"time"

	"netwarden/internal/domain"
)

func TestHistoryRepository_ListSince(t *testing.T) {
	repo := NewHistoryRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		entry := &domain.HistoryEntry{
			ID:          string(rune('a' + i)),
			RuleID:      "rule-1",
			Severity:    domain.SeverityInfo,
			TriggeredAt: base.Add(offset),
		}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	entries, err := repo.ListSince(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("ListSince error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListSince returned %d entries, want 2", len(entries))
	}
	if !entries[0].TriggeredAt.Before(entries[1].TriggeredAt) {
		t.Error("ListSince should return entries oldest first")
	}

	// Boundary: an entry triggered exactly at the cutoff is included.
	entries, _ = repo.ListSince(ctx, base)
	if len(entries) != 3 {
		t.Errorf("ListSince at boundary returned %d entries, want 3", len(entries))
	}
}

func TestHistoryRepository_UpdateDeliveryOutcome(t *testing.T) {
	repo := NewHistoryRepository()
	ctx := context.Background()

	entry := &domain.HistoryEntry{ID: "h1", Status: domain.HistoryStatusActive}
	_ = repo.Create(ctx, entry)

	outcome := domain.DeliveryOutcome{
		DeliveredTo: "ch-1,ch-2",
		Succeeded:   true,
	}
	if err := repo.UpdateDeliveryOutcome(ctx, "h1", outcome); err != nil {
		t.Fatalf("UpdateDeliveryOutcome error: %v", err)
	}

	got, _ := repo.GetByID(ctx, "h1")
	if got.DeliveredTo != "ch-1,ch-2" || !got.DeliverySucceeded {
		t.Errorf("outcome not persisted: %+v", got)
	}

	if err := repo.UpdateDeliveryOutcome(ctx, "missing", outcome); err != domain.ErrHistoryEntryNotFound {
		t.Errorf("UpdateDeliveryOutcome(missing) = %v, want ErrHistoryEntryNotFound", err)
	}
}

func TestIncidentRepository_GetActiveByKey(t *testing.T) {
	repo := NewIncidentRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	older := domain.NewIncident("device:10.0.0.5", domain.SeverityWarning, base)
	older.ID = "inc-1"
	older.Resolve()
	_ = repo.Create(ctx, older)

	active := domain.NewIncident("device:10.0.0.5", domain.SeverityError, base.Add(time.Hour))
	active.ID = "inc-2"
	_ = repo.Create(ctx, active)

	got, err := repo.GetActiveByKey(ctx, "device:10.0.0.5")
	if err != nil {
		t.Fatalf("GetActiveByKey error: %v", err)
	}
	if got == nil || got.ID != "inc-2" {
		t.Errorf("GetActiveByKey = %+v, want inc-2", got)
	}

	got, err = repo.GetActiveByKey(ctx, "device:10.0.0.9")
	if err != nil || got != nil {
		t.Errorf("GetActiveByKey for unknown key = %+v, %v, want nil, nil", got, err)
	}
}

func TestDigestStateStore_RoundTrip(t *testing.T) {
	state := NewDigestStateStore()
	ctx := context.Background()

	got, err := state.GetLastSent(ctx, "ch-1")
	if err != nil {
		t.Fatalf("GetLastSent error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("GetLastSent for unknown channel = %v, want zero time", got)
	}

	sent := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := state.SetLastSent(ctx, "ch-1", sent); err != nil {
		t.Fatalf("SetLastSent error: %v", err)
	}
	got, _ = state.GetLastSent(ctx, "ch-1")
	if !got.Equal(sent) {
		t.Errorf("GetLastSent = %v, want %v", got, sent)
	}
}
