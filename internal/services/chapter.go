package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	gamerepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/game"
	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

type CreateChapterInput struct {
	Title string `json:"title"`
}

type ChapterService interface {
	Create(ctx context.Context, in CreateChapterInput) (*types.Chapter, error)
	Get(ctx context.Context, chapterID uuid.UUID) (*types.Chapter, error)
	List(ctx context.Context) ([]*types.Chapter, error)
}

type chapterService struct {
	db             *gorm.DB
	log            *logger.Logger
	chapterRepo    gamerepo.ChapterRepo
	sessionService SessionService
}

func NewChapterService(db *gorm.DB, log *logger.Logger, chapterRepo gamerepo.ChapterRepo, sessionService SessionService) ChapterService {
	return &chapterService{
		db:             db,
		log:            log.With("service", "ChapterService"),
		chapterRepo:    chapterRepo,
		sessionService: sessionService,
	}
}

func (cs *chapterService) Create(ctx context.Context, in CreateChapterInput) (*types.Chapter, error) {
	session, err := cs.sessionService.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: chapter title required", errdefs.ErrInvalidArgument)
	}

	existing, err := cs.chapterRepo.ListBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list chapters: %v", errdefs.ErrStorage, err)
	}
	rows, err := cs.chapterRepo.Create(ctx, nil, []*types.Chapter{{
		SessionID: session.ID,
		Index:     len(existing) + 1,
		Title:     title,
		Status:    types.ChapterStatusOpen,
	}})
	if err != nil {
		return nil, fmt.Errorf("%w: create chapter: %v", errdefs.ErrStorage, err)
	}
	chapter := rows[0]
	requestdata.Patch(ctx, requestdata.Fields{ChapterID: chapter.ID})
	return chapter, nil
}

func (cs *chapterService) Get(ctx context.Context, chapterID uuid.UUID) (*types.Chapter, error) {
	session, err := cs.sessionService.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}
	chapter, err := cs.chapterRepo.GetBySessionAndID(ctx, nil, session.ID, chapterID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch chapter: %v", errdefs.ErrStorage, err)
	}
	if chapter == nil {
		return nil, errdefs.ErrNotFound
	}
	requestdata.Patch(ctx, requestdata.Fields{ChapterID: chapter.ID})
	return chapter, nil
}

func (cs *chapterService) List(ctx context.Context) ([]*types.Chapter, error) {
	session, err := cs.sessionService.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}
	chapters, err := cs.chapterRepo.ListBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list chapters: %v", errdefs.ErrStorage, err)
	}
	return chapters, nil
}
