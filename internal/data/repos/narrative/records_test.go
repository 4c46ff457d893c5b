package narrative

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/testutil"
)

func TestMissionBriefRepo_UpsertByKey(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewMissionBriefRepo(db, testutil.Logger(t))

	questID := uuid.New()
	sessionID := uuid.New()

	if got, err := repo.GetByKey(ctx, tx, questID, sessionID); err != nil || got != nil {
		t.Fatalf("GetByKey (empty): err=%v got=%v", err, got)
	}

	first, err := repo.UpsertByKey(ctx, tx, &Record{
		EntityID:     questID,
		SessionID:    sessionID,
		Payload:      datatypes.JSON([]byte(`{"title":"Scrub the Great Hall"}`)),
		RenderedText: "Scrub the Great Hall",
		Model:        "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("UpsertByKey (insert): %v", err)
	}
	if first == nil || first.ID == uuid.Nil {
		t.Fatalf("UpsertByKey (insert): expected stored row, got %v", first)
	}

	second, err := repo.UpsertByKey(ctx, tx, &Record{
		EntityID:     questID,
		SessionID:    sessionID,
		Payload:      datatypes.JSON([]byte(`{"title":"Polish the Great Hall"}`)),
		RenderedText: "Polish the Great Hall",
		Model:        "gpt-4o",
	})
	if err != nil {
		t.Fatalf("UpsertByKey (overwrite): %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("UpsertByKey (overwrite): expected row id %v to survive, got %v", first.ID, second.ID)
	}
	if second.RenderedText != "Polish the Great Hall" || second.Model != "gpt-4o" {
		t.Fatalf("UpsertByKey (overwrite): row not replaced: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("UpsertByKey (overwrite): created_at changed %v -> %v", first.CreatedAt, second.CreatedAt)
	}

	// A different session keeps its own copy.
	otherSession := uuid.New()
	if _, err := repo.UpsertByKey(ctx, tx, &Record{
		EntityID:     questID,
		SessionID:    otherSession,
		Payload:      datatypes.JSON([]byte(`{}`)),
		RenderedText: "elsewhere",
		Model:        "gpt-4o-mini",
	}); err != nil {
		t.Fatalf("UpsertByKey (other session): %v", err)
	}
	got, err := repo.GetByKey(ctx, tx, questID, sessionID)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got == nil || got.RenderedText != "Polish the Great Hall" {
		t.Fatalf("GetByKey: session row clobbered: %+v", got)
	}
}

func TestChapterStoryRepo_KeyColumn(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewChapterStoryRepo(db, testutil.Logger(t))

	chapterID := uuid.New()
	sessionID := uuid.New()

	stored, err := repo.UpsertByKey(ctx, tx, &Record{
		EntityID:     chapterID,
		SessionID:    sessionID,
		Payload:      datatypes.JSON([]byte(`{"scenes":[]}`)),
		RenderedText: "Chapter one",
		Model:        "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("UpsertByKey: %v", err)
	}
	if stored.EntityID != chapterID {
		t.Fatalf("UpsertByKey: expected entity %v, got %v", chapterID, stored.EntityID)
	}

	got, err := repo.GetByKey(ctx, tx, chapterID, sessionID)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got == nil || got.ID != stored.ID {
		t.Fatalf("GetByKey: expected %v, got %v", stored.ID, got)
	}
}
