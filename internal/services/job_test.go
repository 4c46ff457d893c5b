package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

const (
	testCallbackURL  = "https://api.example.com/worker/jobs"
	testWorkerSecret = "test-worker-secret"
)

type jobFixture struct {
	userID    uuid.UUID
	session   *types.GameSession
	runRepo   *fakeJobRunRepo
	publisher *fakePublisher
	svc       JobService
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	userID := uuid.New()
	session := &types.GameSession{
		ID:     uuid.New(),
		UserID: userID,
		Title:  "Test Campaign",
		Active: true,
		Status: types.SessionStatusActive,
	}
	runRepo := newFakeJobRunRepo()
	publisher := &fakePublisher{}
	svc := NewJobService(nil, testLogger(), runRepo, &fakeSessionService{session: session}, publisher, testCallbackURL, testWorkerSecret)
	return &jobFixture{
		userID:    userID,
		session:   session,
		runRepo:   runRepo,
		publisher: publisher,
		svc:       svc,
	}
}

func TestEnqueue_CreatesRowAndPublishes(t *testing.T) {
	fx := newJobFixture(t)
	entityID := uuid.New()

	ctx := authedCtx(fx.userID)
	run, err := fx.svc.Enqueue(ctx, types.JobTypeMissionBrief, entityID, 0, false)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if run.Status != types.JobStatusDispatched {
		t.Fatalf("expected dispatched status, got %q", run.Status)
	}
	if run.OwnerUserID != fx.userID {
		t.Fatalf("owner mismatch: %v", run.OwnerUserID)
	}
	if run.SessionID == nil || *run.SessionID != fx.session.ID {
		t.Fatalf("session not recorded on run: %v", run.SessionID)
	}
	if run.EntityType != "quest" || run.EntityID == nil || *run.EntityID != entityID {
		t.Fatalf("entity not recorded: type=%q id=%v", run.EntityType, run.EntityID)
	}
	if run.Priority != types.DefaultJobPriority {
		t.Fatalf("expected default priority, got %d", run.Priority)
	}
	if rd := requestdata.Get(ctx); rd.JobID != run.ID {
		t.Fatalf("carrier not patched with job id")
	}

	msgs := fx.publisher.all()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(msgs))
	}
	if msgs[0].URL != testCallbackURL {
		t.Fatalf("published to %q", msgs[0].URL)
	}
	if msgs[0].DedupID != run.ID.String() {
		t.Fatalf("dedup id %q, want run id %q", msgs[0].DedupID, run.ID)
	}
	var body CallbackBody
	if err := json.Unmarshal(msgs[0].Body, &body); err != nil {
		t.Fatalf("decode callback body: %v", err)
	}
	if body.JobID != run.ID.String() {
		t.Fatalf("callback body job id %q, want %q", body.JobID, run.ID)
	}
	if body.WorkerSecret != testWorkerSecret {
		t.Fatalf("callback body missing worker secret")
	}

	stored, err := fx.runRepo.GetByID(context.Background(), nil, run.ID)
	if err != nil || stored == nil {
		t.Fatalf("stored run: %v err=%v", stored, err)
	}
	if stored.Status != types.JobStatusDispatched || stored.DispatchedAt == nil {
		t.Fatalf("stored run not marked dispatched: %+v", stored)
	}
	var payload JobPayload
	if err := json.Unmarshal(stored.Payload, &payload); err != nil {
		t.Fatalf("decode stored payload: %v", err)
	}
	if payload.JobType != types.JobTypeMissionBrief || payload.EntityID != entityID.String() {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestEnqueue_PublishFailureLeavesRowPending(t *testing.T) {
	fx := newJobFixture(t)
	fx.publisher.err = errors.New("qstash unavailable")
	entityID := uuid.New()

	run, err := fx.svc.Enqueue(authedCtx(fx.userID), types.JobTypeChapterStory, entityID, 2, false)
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if run == nil {
		t.Fatalf("run must be returned even when publish fails")
	}

	stored, _ := fx.runRepo.GetByID(context.Background(), nil, run.ID)
	if stored == nil || stored.Status != types.JobStatusPending {
		t.Fatalf("expected pending row after publish failure, got %+v", stored)
	}
	if stored.Priority != 2 {
		t.Fatalf("priority not preserved: %d", stored.Priority)
	}
	if got := fx.publisher.all(); len(got) != 0 {
		t.Fatalf("expected no successful publishes, got %d", len(got))
	}
}

func TestEnqueue_Validation(t *testing.T) {
	fx := newJobFixture(t)

	if _, err := fx.svc.Enqueue(context.Background(), types.JobTypeMissionBrief, uuid.New(), 0, false); !errors.Is(err, errdefs.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, err := fx.svc.Enqueue(authedCtx(fx.userID), "make_coffee", uuid.New(), 0, false); !errors.Is(err, errdefs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown type, got %v", err)
	}
	if _, err := fx.svc.Enqueue(authedCtx(fx.userID), types.JobTypeMissionBrief, uuid.Nil, 0, false); !errors.Is(err, errdefs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for nil entity, got %v", err)
	}
	if got := fx.publisher.all(); len(got) != 0 {
		t.Fatalf("rejected enqueues must not publish, got %d", len(got))
	}
}

func TestJobGet_OwnerScoped(t *testing.T) {
	fx := newJobFixture(t)

	run, err := fx.svc.Enqueue(authedCtx(fx.userID), types.JobTypeQuestCongrats, uuid.New(), 0, false)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, err := fx.svc.Get(authedCtx(fx.userID), run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != run.ID {
		t.Fatalf("got %v, want %v", got.ID, run.ID)
	}

	if _, err := fx.svc.Get(authedCtx(uuid.New()), run.ID); !errors.Is(err, errdefs.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound for foreign owner, got %v", err)
	}
	if _, err := fx.svc.Get(authedCtx(fx.userID), uuid.New()); !errors.Is(err, errdefs.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound for missing run, got %v", err)
	}
}

func TestJobListForUser(t *testing.T) {
	fx := newJobFixture(t)

	for i := 0; i < 3; i++ {
		if _, err := fx.svc.Enqueue(authedCtx(fx.userID), types.JobTypeQuestEncouragement, uuid.New(), 0, false); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	runs, err := fx.svc.ListForUser(authedCtx(fx.userID), 0)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}

	other, err := fx.svc.ListForUser(authedCtx(uuid.New()), 0)
	if err != nil {
		t.Fatalf("ListForUser (other): %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no runs for other user, got %d", len(other))
	}
}

func TestEnqueue_ForceRecordedInPayload(t *testing.T) {
	fx := newJobFixture(t)
	entityID := uuid.New()

	run, err := fx.svc.Enqueue(authedCtx(fx.userID), types.JobTypeMissionBrief, entityID, 0, true)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	stored, err := fx.runRepo.GetByID(context.Background(), nil, run.ID)
	if err != nil || stored == nil {
		t.Fatalf("fetch stored run: %v", err)
	}
	var payload JobPayload
	if err := json.Unmarshal(stored.Payload, &payload); err != nil {
		t.Fatalf("decode stored payload: %v", err)
	}
	if !payload.Force {
		t.Fatalf("force not recorded in the run payload: %+v", payload)
	}
	if payload.EntityID != entityID.String() {
		t.Fatalf("payload entity mismatch: %q", payload.EntityID)
	}
}
