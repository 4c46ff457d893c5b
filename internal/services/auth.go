package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	userrepo "github.com/iamjulienjulien/rpg-renaissance-backend/internal/data/repos/user"
	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	errdefs "github.com/iamjulienjulien/rpg-renaissance-backend/internal/pkg/errors"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/platform/logger"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterUser(ctx context.Context, email, password, displayName string) (*types.User, string, string, error)
	LoginUser(ctx context.Context, email, password string) (*types.User, string, string, error)
	RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
	LogoutUser(ctx context.Context) error

	// SetContextFromToken validates the bearer token and installs the user id
	// into the request carrier. An empty token returns the context unchanged.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)

	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      userrepo.UserRepo
	userTokenRepo userrepo.UserTokenRepo
	avatarService AvatarService
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo userrepo.UserRepo,
	userTokenRepo userrepo.UserTokenRepo,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) RegisterUser(ctx context.Context, email, password, displayName string) (*types.User, string, string, error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", "", fmt.Errorf("%w: valid email required", errdefs.ErrInvalidArgument)
	}
	if len(password) < 8 {
		return nil, "", "", fmt.Errorf("%w: password must be at least 8 characters", errdefs.ErrInvalidArgument)
	}
	if displayName == "" {
		return nil, "", "", fmt.Errorf("%w: display name required", errdefs.ErrInvalidArgument)
	}

	existing, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, "", "", fmt.Errorf("error checking existing user: %w", err)
	}
	if len(existing) > 0 {
		return nil, "", "", fmt.Errorf("%w: email already registered", errdefs.ErrInvalidArgument)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    string(hashed),
		DisplayName: displayName,
	}

	// The avatar is a nicety; a bucket outage must not block registration.
	// The user row simply carries empty avatar fields until a later upload.
	if aErr := as.avatarService.CreateAndUploadUserAvatar(ctx, user); aErr != nil {
		as.log.Warn("Avatar generation failed, registering without one",
			"user_id", user.ID.String(),
			"error", aErr.Error(),
		)
	}

	var accessToken, refreshToken string
	if err := transact(ctx, as.db, func(tx *gorm.DB) error {
		if _, cErr := as.userRepo.Create(ctx, tx, []*types.User{user}); cErr != nil {
			return fmt.Errorf("failed to create user: %w", cErr)
		}
		var tErr error
		accessToken, refreshToken, tErr = as.issueTokens(ctx, tx, user)
		return tErr
	}); err != nil {
		return nil, "", "", err
	}

	requestdata.Patch(ctx, requestdata.Fields{UserID: user.ID})
	return user, accessToken, refreshToken, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.User, string, string, error) {
	email = normalizeEmail(email)

	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, "", "", fmt.Errorf("error retrieving user by email: %w", err)
	}
	if len(users) == 0 || users[0] == nil {
		return nil, "", "", errdefs.ErrUnauthorized
	}
	user := users[0]

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", errdefs.ErrUnauthorized
	}

	var accessToken, refreshToken string
	if err := transact(ctx, as.db, func(tx *gorm.DB) error {
		// A fresh login replaces any lingering tokens for the user.
		if dErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); dErr != nil {
			return fmt.Errorf("failed to clear stale tokens: %w", dErr)
		}
		var tErr error
		accessToken, refreshToken, tErr = as.issueTokens(ctx, tx, user)
		return tErr
	}); err != nil {
		return nil, "", "", err
	}

	requestdata.Patch(ctx, requestdata.Fields{UserID: user.ID})
	return user, accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", "", fmt.Errorf("%w: refresh token required", errdefs.ErrInvalidArgument)
	}

	var accessToken, newRefreshToken string
	err := transact(ctx, as.db, func(tx *gorm.DB) error {
		existing, ftErr := as.userTokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
		if ftErr != nil {
			return fmt.Errorf("error fetching refresh token: %w", ftErr)
		}
		if existing == nil {
			return errdefs.ErrUnauthorized
		}
		if existing.ExpiresAt.Before(time.Now()) {
			if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
				return fmt.Errorf("failed to delete expired token: %w", dErr)
			}
			return errdefs.ErrUnauthorized
		}

		user, uErr := as.userRepo.GetByID(ctx, tx, existing.UserID)
		if uErr != nil {
			return fmt.Errorf("failed to load user for refresh: %w", uErr)
		}
		if user == nil {
			return errdefs.ErrUnauthorized
		}

		var tErr error
		accessToken, newRefreshToken, tErr = as.issueTokens(ctx, tx, user)
		if tErr != nil {
			return tErr
		}
		return as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID})
	})
	if err != nil {
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.Get(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return errdefs.ErrNotAuthenticated
	}
	return transact(ctx, as.db, func(tx *gorm.DB) error {
		return as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{rd.UserID})
	})
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (string, string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	refreshToken := uuid.New().String()
	userToken := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{userToken}); err != nil {
		return "", "", fmt.Errorf("create user token: %w", err)
	}
	return accessToken, refreshToken, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, nil
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, fmt.Errorf("%w: %v", errdefs.ErrUnauthorized, err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, errdefs.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: invalid subject", errdefs.ErrUnauthorized)
	}

	requestdata.Patch(ctx, requestdata.Fields{UserID: userID})
	return ctx, nil
}

func (as *authService) AccessTTL() time.Duration { return as.accessTTL }
