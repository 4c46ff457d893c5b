package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos"
	gamerepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/game"
	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

const defaultSessionTitle = "New Campaign"

// SessionService owns the player's save slots. ResolveActive is the entry
// point the rest of the backend uses to answer "which campaign is this request
// about"; after it returns, the session id is in the request carrier.
type SessionService interface {
	ResolveActive(ctx context.Context) (*types.GameSession, error)
	StartNew(ctx context.Context, title string) (*types.GameSession, error)
	ListForUser(ctx context.Context) ([]*types.GameSession, error)
	GetForUser(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error)
	Pause(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error)
	Archive(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error)
}

type sessionService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessionRepo gamerepo.GameSessionRepo
}

func NewSessionService(db *gorm.DB, log *logger.Logger, sessionRepo gamerepo.GameSessionRepo) SessionService {
	return &sessionService{
		db:          db,
		log:         log.With("service", "SessionService"),
		sessionRepo: sessionRepo,
	}
}

// ResolveActive returns the user's single active session, creating one when
// none exists. Two concurrent first requests race on the partial unique index;
// the loser re-reads and both return the same row.
func (ss *sessionService) ResolveActive(ctx context.Context) (*types.GameSession, error) {
	rd := requestdata.Get(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errdefs.ErrNotAuthenticated
	}
	userID := rd.UserID

	active, err := ss.sessionRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch active session: %v", errdefs.ErrStorage, err)
	}
	if active != nil {
		requestdata.Patch(ctx, requestdata.Fields{SessionID: active.ID})
		return active, nil
	}

	created, err := ss.createActive(ctx, userID, defaultSessionTitle)
	if err != nil {
		if repos.IsUniqueViolation(err) {
			// Lost the race; the winner's row is the active session now.
			winner, rErr := ss.sessionRepo.GetActiveByUser(ctx, nil, userID)
			if rErr != nil {
				return nil, fmt.Errorf("%w: re-read active session: %v", errdefs.ErrStorage, rErr)
			}
			if winner == nil {
				return nil, fmt.Errorf("%w: active session vanished after unique violation", errdefs.ErrStorage)
			}
			requestdata.Patch(ctx, requestdata.Fields{SessionID: winner.ID})
			return winner, nil
		}
		return nil, err
	}

	requestdata.Patch(ctx, requestdata.Fields{SessionID: created.ID})
	return created, nil
}

func (ss *sessionService) StartNew(ctx context.Context, title string) (*types.GameSession, error) {
	rd := requestdata.Get(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errdefs.ErrNotAuthenticated
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSessionTitle
	}

	var created *types.GameSession
	err := transact(ctx, ss.db, func(tx *gorm.DB) error {
		if dErr := ss.sessionRepo.DeactivateAllForUser(ctx, tx, rd.UserID); dErr != nil {
			return fmt.Errorf("%w: deactivate sessions: %v", errdefs.ErrStorage, dErr)
		}
		row, cErr := ss.sessionRepo.Create(ctx, tx, &types.GameSession{
			UserID: rd.UserID,
			Title:  title,
			Active: true,
			Status: types.SessionStatusActive,
		})
		if cErr != nil {
			return cErr
		}
		created = row
		return nil
	})
	if err != nil {
		if repos.IsUniqueViolation(err) {
			winner, rErr := ss.sessionRepo.GetActiveByUser(ctx, nil, rd.UserID)
			if rErr == nil && winner != nil {
				requestdata.Patch(ctx, requestdata.Fields{SessionID: winner.ID})
				return winner, nil
			}
		}
		return nil, err
	}

	requestdata.Patch(ctx, requestdata.Fields{SessionID: created.ID})
	return created, nil
}

func (ss *sessionService) createActive(ctx context.Context, userID uuid.UUID, title string) (*types.GameSession, error) {
	return ss.sessionRepo.Create(ctx, nil, &types.GameSession{
		UserID: userID,
		Title:  title,
		Active: true,
		Status: types.SessionStatusActive,
	})
}

func (ss *sessionService) ListForUser(ctx context.Context) ([]*types.GameSession, error) {
	rd := requestdata.Get(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errdefs.ErrNotAuthenticated
	}
	out, err := ss.sessionRepo.ListByUser(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", errdefs.ErrStorage, err)
	}
	return out, nil
}

func (ss *sessionService) GetForUser(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error) {
	rd := requestdata.Get(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, errdefs.ErrNotAuthenticated
	}
	row, err := ss.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch session: %v", errdefs.ErrStorage, err)
	}
	if row == nil || row.UserID != rd.UserID {
		return nil, errdefs.ErrNotFound
	}
	return row, nil
}

func (ss *sessionService) Pause(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error) {
	return ss.deactivate(ctx, sessionID, types.SessionStatusPaused)
}

func (ss *sessionService) Archive(ctx context.Context, sessionID uuid.UUID) (*types.GameSession, error) {
	return ss.deactivate(ctx, sessionID, types.SessionStatusArchived)
}

func (ss *sessionService) deactivate(ctx context.Context, sessionID uuid.UUID, status string) (*types.GameSession, error) {
	row, err := ss.GetForUser(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if uErr := ss.sessionRepo.UpdateFields(ctx, nil, row.ID, map[string]interface{}{
		"active": false,
		"status": status,
	}); uErr != nil {
		return nil, fmt.Errorf("%w: update session: %v", errdefs.ErrStorage, uErr)
	}
	row.Active = false
	row.Status = status
	return row, nil
}
