package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	gamerepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/game"
	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

type CreateQuestInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Realm       string `json:"realm"`
	Difficulty  int    `json:"difficulty"`
}

// QuestService scopes all quest reads and writes to the caller's active
// session; a quest id from another save slot behaves as missing.
type QuestService interface {
	Create(ctx context.Context, in CreateQuestInput) (*types.Quest, error)
	Get(ctx context.Context, questID uuid.UUID) (*types.Quest, error)
	List(ctx context.Context) ([]*types.Quest, error)
	Complete(ctx context.Context, questID uuid.UUID) (*types.Quest, error)
}

type questService struct {
	db             *gorm.DB
	log            *logger.Logger
	questRepo      gamerepo.QuestRepo
	sessionService SessionService
}

func NewQuestService(db *gorm.DB, log *logger.Logger, questRepo gamerepo.QuestRepo, sessionService SessionService) QuestService {
	return &questService{
		db:             db,
		log:            log.With("service", "QuestService"),
		questRepo:      questRepo,
		sessionService: sessionService,
	}
}

func (qs *questService) Create(ctx context.Context, in CreateQuestInput) (*types.Quest, error) {
	session, err := qs.sessionService.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: quest title required", errdefs.ErrInvalidArgument)
	}
	difficulty := in.Difficulty
	if difficulty <= 0 {
		difficulty = 1
	}

	rows, err := qs.questRepo.Create(ctx, nil, []*types.Quest{{
		SessionID:   session.ID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Realm:       strings.TrimSpace(in.Realm),
		Status:      types.QuestStatusOpen,
		Difficulty:  difficulty,
	}})
	if err != nil {
		return nil, fmt.Errorf("%w: create quest: %v", errdefs.ErrStorage, err)
	}
	quest := rows[0]
	requestdata.Patch(ctx, requestdata.Fields{QuestID: quest.ID})
	return quest, nil
}

func (qs *questService) Get(ctx context.Context, questID uuid.UUID) (*types.Quest, error) {
	session, err := qs.sessionService.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}
	quest, err := qs.questRepo.GetBySessionAndID(ctx, nil, session.ID, questID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch quest: %v", errdefs.ErrStorage, err)
	}
	if quest == nil {
		return nil, errdefs.ErrNotFound
	}
	requestdata.Patch(ctx, requestdata.Fields{QuestID: quest.ID})
	return quest, nil
}

func (qs *questService) List(ctx context.Context) ([]*types.Quest, error) {
	session, err := qs.sessionService.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}
	quests, err := qs.questRepo.ListBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list quests: %v", errdefs.ErrStorage, err)
	}
	return quests, nil
}

func (qs *questService) Complete(ctx context.Context, questID uuid.UUID) (*types.Quest, error) {
	quest, err := qs.Get(ctx, questID)
	if err != nil {
		return nil, err
	}
	if quest.Status == types.QuestStatusCompleted {
		return quest, nil
	}
	now := time.Now().UTC()
	if uErr := qs.questRepo.UpdateFields(ctx, nil, quest.ID, map[string]interface{}{
		"status":       types.QuestStatusCompleted,
		"completed_at": now,
	}); uErr != nil {
		return nil, fmt.Errorf("%w: complete quest: %v", errdefs.ErrStorage, uErr)
	}
	quest.Status = types.QuestStatusCompleted
	quest.CompletedAt = &now
	return quest, nil
}
