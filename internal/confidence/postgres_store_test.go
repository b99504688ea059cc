package confidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rejectionhero/backend/internal/testutil"
)

func TestPostgresStoreKeepsFractionalLevels(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	at := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	// DECAY_PER_DAY is a float knob, so levels drift off whole numbers.
	m := &Meter{
		UserID:         "usr_pgfrac",
		Level:          42.5,
		LastActivityAt: at,
		LastDecayAt:    at,
		UpdatedAt:      at,
	}
	if err := store.Upsert(ctx, m); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.Get(ctx, m.UserID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Level != 42.5 {
		t.Errorf("level lost precision: got %v, want 42.5", got.Level)
	}
	if got.LowNotifiedAt != nil {
		t.Errorf("expected no low notification, got %v", got.LowNotifiedAt)
	}

	// Second upsert must update in place, including the nudge marker.
	notified := at.Add(time.Hour)
	m.Level = 19.25
	m.LowNotifiedAt = &notified
	m.UpdatedAt = notified
	if err := store.Upsert(ctx, m); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err = store.Get(ctx, m.UserID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Level != 19.25 {
		t.Errorf("updated level lost: got %v, want 19.25", got.Level)
	}
	if got.LowNotifiedAt == nil || !got.LowNotifiedAt.Equal(notified) {
		t.Errorf("low notification marker not persisted: %v", got.LowNotifiedAt)
	}
}

func TestPostgresStoreListIdleSince(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	seed := []*Meter{
		{UserID: "usr_idle", Level: 30, LastActivityAt: now.Add(-48 * time.Hour), LastDecayAt: now.Add(-48 * time.Hour), UpdatedAt: now},
		{UserID: "usr_fresh", Level: 60, LastActivityAt: now.Add(-time.Hour), LastDecayAt: now.Add(-time.Hour), UpdatedAt: now},
	}
	for _, m := range seed {
		if err := store.Upsert(ctx, m); err != nil {
			t.Fatalf("upsert %s: %v", m.UserID, err)
		}
	}

	idle, err := store.ListIdleSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("list idle: %v", err)
	}
	if len(idle) != 1 || idle[0].UserID != "usr_idle" {
		t.Errorf("expected only the idle meter, got %+v", idle)
	}

	if _, err := store.Get(ctx, "usr_missing"); !errors.Is(err, ErrMeterNotFound) {
		t.Errorf("expected ErrMeterNotFound, got %v", err)
	}
}
