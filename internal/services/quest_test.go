package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

func TestQuestCreateAndComplete(t *testing.T) {
	userID := uuid.New()
	session := &types.GameSession{ID: uuid.New(), UserID: userID, Active: true, Status: types.SessionStatusActive}
	repo := newFakeQuestRepo()
	svc := NewQuestService(nil, testLogger(), repo, &fakeSessionService{session: session})

	ctx := authedCtx(userID)
	quest, err := svc.Create(ctx, CreateQuestInput{Title: "  Scrub the Cauldron ", Realm: "kitchen"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if quest.Title != "Scrub the Cauldron" || quest.SessionID != session.ID {
		t.Fatalf("unexpected quest: %+v", quest)
	}
	if quest.Status != types.QuestStatusOpen || quest.Difficulty != 1 {
		t.Fatalf("defaults not applied: %+v", quest)
	}
	if rd := requestdata.Get(ctx); rd.QuestID != quest.ID {
		t.Fatalf("carrier not patched with quest id")
	}

	done, err := svc.Complete(authedCtx(userID), quest.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != types.QuestStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("quest not completed: %+v", done)
	}

	// Completing again is a no-op.
	again, err := svc.Complete(authedCtx(userID), quest.ID)
	if err != nil {
		t.Fatalf("Complete (again): %v", err)
	}
	if again.Status != types.QuestStatusCompleted {
		t.Fatalf("unexpected status: %q", again.Status)
	}
}

func TestQuestCreate_RequiresTitle(t *testing.T) {
	userID := uuid.New()
	session := &types.GameSession{ID: uuid.New(), UserID: userID, Active: true, Status: types.SessionStatusActive}
	svc := NewQuestService(nil, testLogger(), newFakeQuestRepo(), &fakeSessionService{session: session})

	if _, err := svc.Create(authedCtx(userID), CreateQuestInput{Title: "   "}); !errors.Is(err, errdefs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestQuestGet_SessionScoped(t *testing.T) {
	userID := uuid.New()
	session := &types.GameSession{ID: uuid.New(), UserID: userID, Active: true, Status: types.SessionStatusActive}
	foreign := &types.Quest{ID: uuid.New(), SessionID: uuid.New(), Title: "someone else's chores"}
	repo := newFakeQuestRepo(foreign)
	svc := NewQuestService(nil, testLogger(), repo, &fakeSessionService{session: session})

	if _, err := svc.Get(authedCtx(userID), foreign.ID); !errors.Is(err, errdefs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign-session quest, got %v", err)
	}
}

func TestChapterCreateAssignsIndex(t *testing.T) {
	userID := uuid.New()
	session := &types.GameSession{ID: uuid.New(), UserID: userID, Active: true, Status: types.SessionStatusActive}
	repo := newFakeChapterRepo()
	svc := NewChapterService(nil, testLogger(), repo, &fakeSessionService{session: session})

	first, err := svc.Create(authedCtx(userID), CreateChapterInput{Title: "The Cellar Stirs"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Index != 1 || first.Status != types.ChapterStatusOpen {
		t.Fatalf("unexpected chapter: %+v", first)
	}

	second, err := svc.Create(authedCtx(userID), CreateChapterInput{Title: "The Attic Answers"})
	if err != nil {
		t.Fatalf("Create (second): %v", err)
	}
	if second.Index != 2 {
		t.Fatalf("expected index 2, got %d", second.Index)
	}

	chapters, err := svc.List(authedCtx(userID))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}
}
