package integrity

import (
	"context"
	"testing"
	"time"

	"github.com/rejectionhero/backend/internal/testutil"
)

func TestPostgresStoreRecordsFractionalScores(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	// Rate-based rules produce one-decimal scores; the column must keep them.
	v := &Verdict{
		ID:           "vr_pg0000000000000000001",
		QuestID:      "qst_pg000000000000000001",
		UserID:       "usr_pg",
		IsSuspicious: true,
		Score:        26.7,
		Reasons:      []string{"Sustained rate of 3.3 actions per minute"},
		ShouldFlag:   false,
		EvaluatedAt:  time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Record(ctx, v); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := store.ListByQuest(ctx, v.QuestID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 verdict, got %d", len(got))
	}
	if got[0].Score != 26.7 {
		t.Errorf("score lost precision: got %v, want 26.7", got[0].Score)
	}
	if len(got[0].Reasons) != 1 || got[0].Reasons[0] != v.Reasons[0] {
		t.Errorf("reasons round trip failed: %+v", got[0].Reasons)
	}
	if !got[0].IsSuspicious || got[0].ShouldFlag {
		t.Errorf("flags round trip failed: %+v", got[0])
	}
}

func TestPostgresStoreListsNewestFirst(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()

	base := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		v := &Verdict{
			ID:          "vr_pgorder00000000000000" + string(rune('a'+i)),
			QuestID:     "qst_pgorder0000000000001",
			UserID:      "usr_pg",
			Score:       float64(i) * 12.5,
			EvaluatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Record(ctx, v); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	got, err := store.ListByQuest(ctx, "qst_pgorder0000000000001", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
	if !got[0].EvaluatedAt.After(got[1].EvaluatedAt) {
		t.Errorf("expected newest first, got %v then %v", got[0].EvaluatedAt, got[1].EvaluatedAt)
	}
	if got[0].Score != 25 {
		t.Errorf("expected newest score 25, got %v", got[0].Score)
	}
}
