package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	narrativerepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/narrative"
	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

func testLogger() *logger.Logger {
	log, err := logger.New("test")
	if err != nil {
		panic(err)
	}
	return log
}

// ---------- record repo ----------

type fakeRecordRepo struct {
	mu      sync.Mutex
	rows    map[string]*narrativerepo.Record
	getHook func(entityID, sessionID uuid.UUID)
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{rows: map[string]*narrativerepo.Record{}}
}

func recKey(entityID, sessionID uuid.UUID) string {
	return entityID.String() + "/" + sessionID.String()
}

func (f *fakeRecordRepo) GetByKey(ctx context.Context, tx *gorm.DB, entityID, sessionID uuid.UUID) (*narrativerepo.Record, error) {
	if f.getHook != nil {
		f.getHook(entityID, sessionID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[recKey(entityID, sessionID)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecordRepo) UpsertByKey(ctx context.Context, tx *gorm.DB, rec *narrativerepo.Record) (*narrativerepo.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := recKey(rec.EntityID, rec.SessionID)
	now := time.Now().UTC()
	if existing, ok := f.rows[key]; ok {
		existing.Payload = rec.Payload
		existing.RenderedText = rec.RenderedText
		existing.Model = rec.Model
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}
	stored := *rec
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	f.rows[key] = &stored
	cp := stored
	return &cp, nil
}

// ---------- session service ----------

// fakeSessionService treats session as the user's current active save. byID,
// when set, backs GetForUser so a pinned session can differ from the active
// one.
type fakeSessionService struct {
	session *types.GameSession
	byID    map[uuid.UUID]*types.GameSession
	err     error
}

func (f *fakeSessionService) ResolveActive(ctx context.Context) (*types.GameSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	requestdata.Patch(ctx, requestdata.Fields{SessionID: f.session.ID})
	return f.session, nil
}

func (f *fakeSessionService) StartNew(ctx context.Context, title string) (*types.GameSession, error) {
	return f.session, f.err
}

func (f *fakeSessionService) ListForUser(ctx context.Context) ([]*types.GameSession, error) {
	return []*types.GameSession{f.session}, f.err
}

func (f *fakeSessionService) GetForUser(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.byID != nil {
		s, ok := f.byID[sessionID]
		if !ok {
			return nil, errdefs.ErrNotFound
		}
		return s, nil
	}
	return f.session, nil
}

func (f *fakeSessionService) Pause(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error) {
	return f.session, f.err
}

func (f *fakeSessionService) Archive(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error) {
	return f.session, f.err
}

// ---------- quest / chapter repos ----------

type fakeQuestRepo struct {
	mu     sync.Mutex
	quests map[uuid.UUID]*types.Quest
}

func newFakeQuestRepo(quests ...*types.Quest) *fakeQuestRepo {
	f := &fakeQuestRepo{quests: map[uuid.UUID]*types.Quest{}}
	for _, q := range quests {
		f.quests[q.ID] = q
	}
	return f
}

func (f *fakeQuestRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Quest) ([]*types.Quest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range rows {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		f.quests[q.ID] = q
	}
	return rows, nil
}

func (f *fakeQuestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Quest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quests[id], nil
}

func (f *fakeQuestRepo) GetBySessionAndID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*types.Quest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.quests[id]
	if !ok || q.SessionID != sessionID {
		return nil, nil
	}
	return q, nil
}

func (f *fakeQuestRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.Quest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Quest
	for _, q := range f.quests {
		if q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type fakeChapterRepo struct {
	chapters map[uuid.UUID]*types.Chapter
}

func newFakeChapterRepo(chapters ...*types.Chapter) *fakeChapterRepo {
	f := &fakeChapterRepo{chapters: map[uuid.UUID]*types.Chapter{}}
	for _, c := range chapters {
		f.chapters[c.ID] = c
	}
	return f
}

func (f *fakeChapterRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Chapter) ([]*types.Chapter, error) {
	for _, c := range rows {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		f.chapters[c.ID] = c
	}
	return rows, nil
}

func (f *fakeChapterRepo) GetBySessionAndID(ctx context.Context, tx *gorm.DB, sessionID, id uuid.UUID) (*types.Chapter, error) {
	c, ok := f.chapters[id]
	if !ok || c.SessionID != sessionID {
		return nil, nil
	}
	return c, nil
}

func (f *fakeChapterRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.Chapter, error) {
	var out []*types.Chapter
	for _, c := range f.chapters {
		if c.SessionID == sessionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChapterRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

// ---------- generator ----------

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	payload map[string]any
	err     error
	delay   time.Duration
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, "", f.err
	}
	out := map[string]any{}
	for k, v := range f.payload {
		out[k] = v
	}
	out["_call"] = fmt.Sprintf("%d", n)
	return out, "fake-model", nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ---------- session repo ----------

// fakeSessionRepo enforces one active row per user the way the partial unique
// index does, reporting violations with the postgres wording.
type fakeSessionRepo struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*types.GameSession
	createHook func(userID uuid.UUID) error
}

var errDuplicateActive = errors.New(`duplicate key value violates unique constraint "ux_game_session_user_active"`)

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*types.GameSession{}}
}

func (f *fakeSessionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.GameSession) (*types.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createHook != nil {
		if err := f.createHook(row.UserID); err != nil {
			return nil, err
		}
	}
	if row.Active {
		for _, s := range f.sessions {
			if s.UserID == row.UserID && s.Active {
				return nil, errDuplicateActive
			}
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now().UTC()
	row.UpdatedAt = row.CreatedAt
	cp := *row
	f.sessions[row.ID] = &cp
	return row, nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.Active {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.GameSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.GameSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) DeactivateAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.UserID == userID && s.Active {
			s.Active = false
			s.Status = types.SessionStatusArchived
		}
	}
	return nil
}

func (f *fakeSessionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil
	}
	if v, ok := updates["active"].(bool); ok {
		s.Active = v
	}
	if v, ok := updates["status"].(string); ok {
		s.Status = v
	}
	return nil
}

// ---------- job repo / publisher ----------

type fakeJobRunRepo struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*types.JobRun
}

func newFakeJobRunRepo() *fakeJobRunRepo {
	return &fakeJobRunRepo{runs: map[uuid.UUID]*types.JobRun{}}
}

func (f *fakeJobRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.JobRun) (*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = types.JobStatusPending
	}
	if run.Priority == 0 {
		run.Priority = types.DefaultJobPriority
	}
	run.CreatedAt = time.Now().UTC()
	cp := *run
	f.runs[run.ID] = &cp
	return run, nil
}

func (f *fakeJobRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeJobRunRepo) GetByIDForOwner(ctx context.Context, tx *gorm.DB, id, ownerUserID uuid.UUID) (*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok || r.OwnerUserID != ownerUserID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeJobRunRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, limit int) ([]*types.JobRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.JobRun
	for _, r := range f.runs {
		if r.OwnerUserID == ownerUserID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeJobRunRepo) MarkDispatched(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.runs[id]; ok {
		now := time.Now().UTC()
		r.Status = types.JobStatusDispatched
		r.DispatchedAt = &now
	}
	return nil
}

func (f *fakeJobRunRepo) MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID, result []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.runs[id]; ok {
		now := time.Now().UTC()
		r.Status = types.JobStatusDone
		r.Error = ""
		r.Result = result
		r.CompletedAt = &now
	}
	return nil
}

func (f *fakeJobRunRepo) MarkFailed(ctx context.Context, tx *gorm.DB, id uuid.UUID, jobErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.runs[id]; ok {
		now := time.Now().UTC()
		r.Status = types.JobStatusFailed
		r.Error = jobErr
		r.CompletedAt = &now
	}
	return nil
}

type publishedMsg struct {
	URL     string
	Body    []byte
	DedupID string
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedMsg
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, callbackURL string, body []byte, dedupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, publishedMsg{URL: callbackURL, Body: body, DedupID: dedupID})
	return nil
}

func (f *fakePublisher) all() []publishedMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedMsg, len(f.published))
	copy(out, f.published)
	return out
}

// ---------- user / token repos, avatar ----------

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*types.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range rows {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		cp := *u
		f.users[u.ID] = &cp
	}
	return rows, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.User
	for _, e := range emails {
		for _, u := range f.users {
			if u.Email == e {
				cp := *u
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

type fakeUserTokenRepo struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*types.UserToken
}

func newFakeUserTokenRepo() *fakeUserTokenRepo {
	return &fakeUserTokenRepo{tokens: map[uuid.UUID]*types.UserToken{}}
}

func (f *fakeUserTokenRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.UserToken) ([]*types.UserToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range rows {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		cp := *t
		f.tokens[t.ID] = &cp
	}
	return rows, nil
}

func (f *fakeUserTokenRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.UserToken
	for _, id := range userIDs {
		for _, t := range f.tokens {
			if t.UserID == id {
				cp := *t
				out = append(out, &cp)
			}
		}
	}
	return out, nil
}

func (f *fakeUserTokenRepo) GetByRefreshToken(ctx context.Context, tx *gorm.DB, refreshToken string) (*types.UserToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.RefreshToken == refreshToken {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserTokenRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.tokens, id)
	}
	return nil
}

func (f *fakeUserTokenRepo) FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, uid := range userIDs {
		for id, t := range f.tokens {
			if t.UserID == uid {
				delete(f.tokens, id)
			}
		}
	}
	return nil
}

type fakeAvatarService struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeAvatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	user.AvatarBucketKey = "user_avatar/" + user.ID.String() + "/fake.png"
	user.AvatarURL = "https://bucket.example/" + user.AvatarBucketKey
	return nil
}

func (f *fakeAvatarService) CreateAndUploadUserAvatarFromImage(ctx context.Context, user *types.User, raw []byte) error {
	return f.CreateAndUploadUserAvatar(ctx, user)
}
