package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	gamerepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/game"
	narrativerepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/narrative"
	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/narrative/prompts"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

// TextGenerator is the slice of the provider client the engine needs. Tests
// substitute a fake.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, string, error)
}

// GenLocker matches clients/redis.GenLock; nil disables the advisory lock.
type GenLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// Artifact is the kind-neutral view of one generated narrative record.
type Artifact struct {
	Kind         string         `json:"kind"`
	EntityID     uuid.UUID      `json:"entity_id"`
	SessionID    uuid.UUID      `json:"session_id"`
	Payload      map[string]any `json:"payload"`
	RenderedText string         `json:"rendered_text"`
	Model        string         `json:"model"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// GenerationService is the cache-or-generate engine behind every narrative
// surface. A hit never touches the provider; force always regenerates and
// overwrites; invalid provider output is rejected without writing.
type GenerationService interface {
	// Get returns only cached content, errdefs.ErrNotFound when absent.
	Get(ctx context.Context, kind string, entityID uuid.UUID) (*Artifact, error)
	// GetOrGenerate returns (artifact, cached, error).
	GetOrGenerate(ctx context.Context, kind string, entityID uuid.UUID, force bool) (*Artifact, bool, error)
}

type artifactKind struct {
	name      string
	repo      narrativerepo.RecordRepo
	schema    map[string]any
	// required string fields the provider payload must carry; the first one
	// doubles as the rendered-text source unless renderKey overrides it.
	required  []string
	renderKey string
	vars      func(ctx context.Context, gs *generationService, session *types.GameSession, entityID uuid.UUID) (map[string]string, error)
	patch     func(ctx context.Context, entityID uuid.UUID)
}

type generationService struct {
	db             *gorm.DB
	log            *logger.Logger
	sessionService SessionService
	questRepo      gamerepo.QuestRepo
	chapterRepo    gamerepo.ChapterRepo
	generator      TextGenerator
	genLock        GenLocker
	lockTTL        time.Duration

	kinds  map[string]*artifactKind
	flight singleflight.Group
}

func NewGenerationService(
	db *gorm.DB,
	log *logger.Logger,
	sessionService SessionService,
	questRepo gamerepo.QuestRepo,
	chapterRepo gamerepo.ChapterRepo,
	missionBriefRepo narrativerepo.RecordRepo,
	questCongratsRepo narrativerepo.RecordRepo,
	questEncouragementRepo narrativerepo.RecordRepo,
	chapterStoryRepo narrativerepo.RecordRepo,
	generator TextGenerator,
	genLock GenLocker,
) GenerationService {
	gs := &generationService{
		db:             db,
		log:            log.With("service", "GenerationService"),
		sessionService: sessionService,
		questRepo:      questRepo,
		chapterRepo:    chapterRepo,
		generator:      generator,
		genLock:        genLock,
		lockTTL:        30 * time.Second,
	}

	questVars := func(ctx context.Context, gs *generationService, session *types.GameSession, questID uuid.UUID) (map[string]string, error) {
		quest, err := gs.questRepo.GetBySessionAndID(ctx, nil, session.ID, questID)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch quest: %v", errdefs.ErrStorage, err)
		}
		if quest == nil {
			return nil, errdefs.ErrNotFound
		}
		return map[string]string{
			"quest_title":       quest.Title,
			"quest_description": quest.Description,
			"realm":             quest.Realm,
			"difficulty":        strconv.Itoa(quest.Difficulty),
			"session_title":     session.Title,
		}, nil
	}
	questPatch := func(ctx context.Context, id uuid.UUID) {
		requestdata.Patch(ctx, requestdata.Fields{QuestID: id})
	}

	gs.kinds = map[string]*artifactKind{
		types.JobTypeMissionBrief: {
			name:      types.JobTypeMissionBrief,
			repo:      missionBriefRepo,
			required:  []string{"title", "briefing"},
			renderKey: "briefing",
			schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"title", "briefing", "flavor"},
				"properties": map[string]any{
					"title":    map[string]any{"type": "string", "maxLength": 80},
					"briefing": map[string]any{"type": "string", "maxLength": 600},
					"flavor":   map[string]any{"type": "string", "maxLength": 200},
				},
			},
			vars:  questVars,
			patch: questPatch,
		},
		types.JobTypeQuestCongrats: {
			name:      types.JobTypeQuestCongrats,
			repo:      questCongratsRepo,
			required:  []string{"message"},
			renderKey: "message",
			schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"message"},
				"properties": map[string]any{
					"message": map[string]any{"type": "string", "maxLength": 400},
				},
			},
			vars:  questVars,
			patch: questPatch,
		},
		types.JobTypeQuestEncouragement: {
			name:      types.JobTypeQuestEncouragement,
			repo:      questEncouragementRepo,
			required:  []string{"message"},
			renderKey: "message",
			schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"message"},
				"properties": map[string]any{
					"message": map[string]any{"type": "string", "maxLength": 400},
				},
			},
			vars:  questVars,
			patch: questPatch,
		},
		types.JobTypeChapterStory: {
			name:      types.JobTypeChapterStory,
			repo:      chapterStoryRepo,
			required:  []string{"title", "story"},
			renderKey: "story",
			schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"title", "story"},
				"properties": map[string]any{
					"title": map[string]any{"type": "string", "maxLength": 80},
					"story": map[string]any{"type": "string", "maxLength": 1200},
				},
			},
			vars: func(ctx context.Context, gs *generationService, session *types.GameSession, chapterID uuid.UUID) (map[string]string, error) {
				chapter, err := gs.chapterRepo.GetBySessionAndID(ctx, nil, session.ID, chapterID)
				if err != nil {
					return nil, fmt.Errorf("%w: fetch chapter: %v", errdefs.ErrStorage, err)
				}
				if chapter == nil {
					return nil, errdefs.ErrNotFound
				}
				quests, err := gs.questRepo.ListBySession(ctx, nil, session.ID)
				if err != nil {
					return nil, fmt.Errorf("%w: list quests: %v", errdefs.ErrStorage, err)
				}
				var completed []string
				for _, q := range quests {
					if q.Status == types.QuestStatusCompleted {
						completed = append(completed, q.Title)
					}
				}
				completedList := "none yet"
				if len(completed) > 0 {
					completedList = strings.Join(completed, "; ")
				}
				return map[string]string{
					"chapter_title":    chapter.Title,
					"chapter_index":    strconv.Itoa(chapter.Index),
					"session_title":    session.Title,
					"completed_quests": completedList,
				}, nil
			},
			patch: func(ctx context.Context, id uuid.UUID) {
				requestdata.Patch(ctx, requestdata.Fields{ChapterID: id})
			},
		},
	}
	return gs
}

func (gs *generationService) kind(name string) (*artifactKind, error) {
	k, ok := gs.kinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown artifact kind %q", errdefs.ErrInvalidArgument, name)
	}
	return k, nil
}

// resolveSession prefers a session already pinned on the carrier. The worker
// installs the run row's session there, so delayed queue deliveries key on
// the session the job was enqueued under even when the owner has since
// switched saves. HTTP requests arrive with no pinned session and fall
// through to the caller's active one.
func (gs *generationService) resolveSession(ctx context.Context) (*types.GameSession, error) {
	if rd := requestdata.Get(ctx); rd != nil && rd.SessionID != uuid.Nil {
		return gs.sessionService.GetForUser(ctx, rd.SessionID)
	}
	return gs.sessionService.ResolveActive(ctx)
}

func (gs *generationService) Get(ctx context.Context, kindName string, entityID uuid.UUID) (*Artifact, error) {
	k, err := gs.kind(kindName)
	if err != nil {
		return nil, err
	}
	session, err := gs.resolveSession(ctx)
	if err != nil {
		return nil, err
	}
	k.patch(ctx, entityID)

	rec, err := k.repo.GetByKey(ctx, nil, entityID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", errdefs.ErrStorage, k.name, err)
	}
	if rec == nil {
		return nil, errdefs.ErrNotFound
	}
	return recordToArtifact(k.name, rec)
}

func (gs *generationService) GetOrGenerate(ctx context.Context, kindName string, entityID uuid.UUID, force bool) (*Artifact, bool, error) {
	k, err := gs.kind(kindName)
	if err != nil {
		return nil, false, err
	}
	if entityID == uuid.Nil {
		return nil, false, fmt.Errorf("%w: entity id required", errdefs.ErrInvalidArgument)
	}

	session, err := gs.resolveSession(ctx)
	if err != nil {
		return nil, false, err
	}
	k.patch(ctx, entityID)

	if !force {
		rec, err := k.repo.GetByKey(ctx, nil, entityID, session.ID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: fetch %s: %v", errdefs.ErrStorage, k.name, err)
		}
		if rec != nil {
			art, aErr := recordToArtifact(k.name, rec)
			return art, true, aErr
		}
	}

	key := fmt.Sprintf("%s:%s:%s", k.name, session.ID, entityID)

	// Force bypasses the flight group so a regenerate never gets handed a
	// stale in-flight result.
	if force {
		art, err := gs.generate(ctx, k, session, entityID, key)
		return art, false, err
	}

	v, err, _ := gs.flight.Do(key, func() (interface{}, error) {
		// A concurrent caller may have finished while we queued; that
		// serves the cached row and the flag must say so.
		rec, err := k.repo.GetByKey(ctx, nil, entityID, session.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s: %v", errdefs.ErrStorage, k.name, err)
		}
		if rec != nil {
			art, aErr := recordToArtifact(k.name, rec)
			if aErr != nil {
				return nil, aErr
			}
			return &flightResult{artifact: art, cached: true}, nil
		}
		art, gErr := gs.generate(ctx, k, session, entityID, key)
		if gErr != nil {
			return nil, gErr
		}
		return &flightResult{artifact: art}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(*flightResult)
	return res.artifact, res.cached, nil
}

type flightResult struct {
	artifact *Artifact
	cached   bool
}

func (gs *generationService) generate(ctx context.Context, k *artifactKind, session *types.GameSession, entityID uuid.UUID, lockKey string) (*Artifact, error) {
	if gs.genLock != nil {
		release, acquired, err := gs.genLock.Acquire(ctx, lockKey, gs.lockTTL)
		if err != nil {
			gs.log.Warn("Gen lock unavailable, proceeding without it", "key", lockKey, "error", err.Error())
		} else if acquired {
			defer release()
		} else {
			// Someone else is generating; give their write a chance to land.
			rec, rErr := k.repo.GetByKey(ctx, nil, entityID, session.ID)
			if rErr == nil && rec != nil {
				return recordToArtifact(k.name, rec)
			}
		}
	}

	vars, err := k.vars(ctx, gs, session, entityID)
	if err != nil {
		return nil, err
	}

	tpl, err := prompts.Get(k.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrGenerationFailed, err)
	}
	system, user := tpl.Render(vars)

	payload, model, err := gs.generator.GenerateJSON(ctx, system, user, k.name, k.schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errdefs.ErrGenerationFailed, err)
	}

	rendered, err := validatePayload(k, payload)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", errdefs.ErrGenerationInvalid, err)
	}

	stored, err := k.repo.UpsertByKey(ctx, nil, &narrativerepo.Record{
		EntityID:     entityID,
		SessionID:    session.ID,
		Payload:      datatypes.JSON(raw),
		RenderedText: rendered,
		Model:        model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: store %s: %v", errdefs.ErrStorage, k.name, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: store %s returned nothing", errdefs.ErrStorage, k.name)
	}

	gs.log.Info("Generated narrative artifact",
		"kind", k.name,
		"entity_id", entityID.String(),
		"model", model,
	)
	return recordToArtifact(k.name, stored)
}

// validatePayload rejects provider output that would be useless to render.
// Nothing is persisted on failure; the previous cached row (if any) survives.
func validatePayload(k *artifactKind, payload map[string]any) (string, error) {
	if payload == nil {
		return "", fmt.Errorf("%w: empty payload", errdefs.ErrGenerationInvalid)
	}
	for _, field := range k.required {
		v, ok := payload[field]
		if !ok {
			return "", fmt.Errorf("%w: missing field %q", errdefs.ErrGenerationInvalid, field)
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: field %q empty", errdefs.ErrGenerationInvalid, field)
		}
	}
	rendered, _ := payload[k.renderKey].(string)
	return strings.TrimSpace(rendered), nil
}

func recordToArtifact(kind string, rec *narrativerepo.Record) (*Artifact, error) {
	var payload map[string]any
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: decode stored payload: %v", errdefs.ErrStorage, err)
		}
	}
	return &Artifact{
		Kind:         kind,
		EntityID:     rec.EntityID,
		SessionID:    rec.SessionID,
		Payload:      payload,
		RenderedText: rec.RenderedText,
		Model:        rec.Model,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}
