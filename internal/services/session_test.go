package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

func TestResolveActive_NotAuthenticated(t *testing.T) {
	svc := NewSessionService(nil, testLogger(), newFakeSessionRepo())

	if _, err := svc.ResolveActive(context.Background()); !errors.Is(err, errdefs.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated without carrier, got %v", err)
	}

	ctx := requestdata.With(context.Background(), &requestdata.RequestData{})
	if _, err := svc.ResolveActive(ctx); !errors.Is(err, errdefs.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated with empty user, got %v", err)
	}
}

func TestResolveActive_CreatesThenReuses(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(nil, testLogger(), repo)
	userID := uuid.New()

	ctx := authedCtx(userID)
	first, err := svc.ResolveActive(ctx)
	if err != nil {
		t.Fatalf("ResolveActive (create): %v", err)
	}
	if !first.Active || first.UserID != userID {
		t.Fatalf("unexpected session: %+v", first)
	}
	if rd := requestdata.Get(ctx); rd.SessionID != first.ID {
		t.Fatalf("carrier not patched with session id")
	}

	second, err := svc.ResolveActive(authedCtx(userID))
	if err != nil {
		t.Fatalf("ResolveActive (reuse): %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same session, got %v and %v", first.ID, second.ID)
	}
}

func TestResolveActive_LostRaceRereads(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(nil, testLogger(), repo)
	userID := uuid.New()

	// Simulate losing the insert race: the winner's row lands between our
	// read and our insert.
	var winner *types.GameSession
	var once sync.Once
	repo.createHook = func(uid uuid.UUID) error {
		var hookErr error
		once.Do(func() {
			w := &types.GameSession{
				ID:     uuid.New(),
				UserID: uid,
				Title:  "winner",
				Active: true,
				Status: types.SessionStatusActive,
			}
			repo.sessions[w.ID] = w
			winner = w
			hookErr = errDuplicateActive
		})
		return hookErr
	}

	got, err := svc.ResolveActive(authedCtx(userID))
	if err != nil {
		t.Fatalf("ResolveActive after lost race: %v", err)
	}
	if winner == nil || got.ID != winner.ID {
		t.Fatalf("expected winner session %v, got %v", winner, got)
	}
}

func TestResolveActive_ConcurrentSingleActive(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(nil, testLogger(), repo)
	userID := uuid.New()

	const n = 16
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := svc.ResolveActive(authedCtx(userID))
			if err == nil {
				ids[i] = s.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	first := ids[0]
	for i, id := range ids {
		if id != first {
			t.Fatalf("goroutine %d resolved %v, want %v", i, id, first)
		}
	}

	active, err := repo.GetActiveByUser(context.Background(), nil, userID)
	if err != nil || active == nil {
		t.Fatalf("expected one active session, got %v err=%v", active, err)
	}
}

func TestPauseAndGetForUser(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewSessionService(nil, testLogger(), repo)
	userID := uuid.New()

	session, err := svc.ResolveActive(authedCtx(userID))
	if err != nil {
		t.Fatalf("ResolveActive: %v", err)
	}

	paused, err := svc.Pause(authedCtx(userID), session.ID)
	if err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if paused.Active || paused.Status != types.SessionStatusPaused {
		t.Fatalf("unexpected paused session: %+v", paused)
	}

	// Another user cannot see it.
	if _, err := svc.GetForUser(authedCtx(uuid.New()), session.ID); !errors.Is(err, errdefs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign session, got %v", err)
	}

	// A paused session is not the active one; the next resolve starts fresh.
	next, err := svc.ResolveActive(authedCtx(userID))
	if err != nil {
		t.Fatalf("ResolveActive after pause: %v", err)
	}
	if next.ID == session.ID {
		t.Fatalf("paused session must not be resolved as active")
	}
}
