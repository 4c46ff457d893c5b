package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/iamjulienjulien/rpg-renaissance-backend/internal/domain"
	"github.com/iamjulienjulien/rpg-renaissance-backend/internal/requestdata"
)

type stubUserRepo struct {
	user    *types.User
	updates map[string]interface{}
}

func (s *stubUserRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error) {
	return rows, nil
}

func (s *stubUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	if s.user == nil {
		return nil, nil
	}
	return []*types.User{s.user}, nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, nil
	}
	cp := *s.user
	return &cp, nil
}

func (s *stubUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
	return nil, nil
}

func (s *stubUserRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	s.updates = updates
	return nil
}

type stubAvatarService struct {
	gotBytes int
	err      error
}

func (s *stubAvatarService) CreateAndUploadUserAvatar(ctx context.Context, user *types.User) error {
	return s.err
}

func (s *stubAvatarService) CreateAndUploadUserAvatarFromImage(ctx context.Context, user *types.User, raw []byte) error {
	if s.err != nil {
		return s.err
	}
	s.gotBytes = len(raw)
	user.AvatarBucketKey = "user_avatar/" + user.ID.String() + "/new.png"
	user.AvatarURL = "https://bucket.example/" + user.AvatarBucketKey
	return nil
}

func userRouter(userID uuid.UUID, repo *stubUserRepo, avatars *stubAvatarService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := requestdata.With(c.Request.Context(), &requestdata.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	h := NewUserHandler(repo, avatars)
	r.GET("/api/me", h.GetMe)
	r.POST("/api/me/avatar", h.UploadAvatar)
	return r
}

func avatarUploadRequest(t *testing.T, payload []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "me.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/me/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadAvatar_StoresAndPersists(t *testing.T) {
	user := &types.User{ID: uuid.New(), Email: "knight@example.com", Password: "hashed"}
	repo := &stubUserRepo{user: user}
	avatars := &stubAvatarService{}
	r := userRouter(user.ID, repo, avatars)

	raw := []byte("fake-png-bytes")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, avatarUploadRequest(t, raw))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if avatars.gotBytes != len(raw) {
		t.Fatalf("avatar service got %d bytes, want %d", avatars.gotBytes, len(raw))
	}
	if repo.updates == nil {
		t.Fatalf("avatar fields were not persisted")
	}
	if key, _ := repo.updates["avatar_bucket_key"].(string); key == "" {
		t.Fatalf("avatar_bucket_key missing from update: %v", repo.updates)
	}

	var resp struct {
		User struct {
			AvatarURL string `json:"avatar_url"`
			Password  string `json:"password"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.AvatarURL == "" {
		t.Fatalf("avatar url missing from response: %s", rec.Body.String())
	}
	if resp.User.Password != "" {
		t.Fatalf("password leaked in response")
	}
}

func TestUploadAvatar_MissingFile(t *testing.T) {
	user := &types.User{ID: uuid.New()}
	r := userRouter(user.ID, &stubUserRepo{user: user}, &stubAvatarService{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/me/avatar", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", rec.Code)
	}
}
