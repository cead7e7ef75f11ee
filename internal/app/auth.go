package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"staybook/internal/domain"
)

const placeholderImage = "/uploads/placeholder.png"

type AuthService struct {
	users      domain.UserRepository
	approval   *ApprovalService
	cache      domain.Cache
	sessionTTL time.Duration
	uploadDir  string
}

func NewAuthService(users domain.UserRepository, approval *ApprovalService, cache domain.Cache, sessionTTL time.Duration, uploadDir string) *AuthService {
	return &AuthService{users: users, approval: approval, cache: cache, sessionTTL: sessionTTL, uploadDir: uploadDir}
}

// issueSession stores the user under an opaque random token. One call, one
// session; callers own the exactly-once guarantee around it.
func issueSession(ctx context.Context, cache domain.Cache, u domain.User, ttl time.Duration) (domain.Session, error) {
	tok, err := randomToken()
	if err != nil {
		return domain.Session{}, err
	}
	if err := cache.Set(ctx, "session:"+tok, u, int(ttl.Seconds())); err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: tok, User: u}, nil
}

// Register creates the account. Requesting the admin role does not grant it:
// the account is stored as a regular user and an approval request is opened;
// no session is issued until the code is verified.
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (domain.User, *domain.Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return domain.User{}, nil, fmt.Errorf("%w: name and a valid email are required", domain.ErrValidation)
	}
	if len(password) < 8 {
		return domain.User{}, nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, nil, err
	}
	u := domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Plan:         domain.PlanFree,
	}
	id, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return domain.User{}, nil, err
	}
	u.ID = id

	if role == domain.RoleAdmin {
		if err := s.approval.RequestApproval(ctx, id, email); err != nil {
			return domain.User{}, nil, err
		}
		return u, nil, nil
	}

	sess, err := issueSession(ctx, s.cache, u, s.sessionTTL)
	if err != nil {
		return domain.User{}, nil, err
	}
	return u, &sess, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.Session{}, domain.ErrUnauthorized
	}
	return issueSession(ctx, s.cache, u, s.sessionTTL)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.cache.Del(ctx, "session:"+token)
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	var u domain.User
	ok, err := s.cache.Get(ctx, "session:"+token, &u)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.ErrUnauthorized
	}
	return u, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return fmt.Errorf("%w: current password is wrong", domain.ErrForbidden)
	}
	if len(next) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *AuthService) ChangeSubscription(ctx context.Context, userID int64, plan string) error {
	if plan != domain.PlanFree && plan != domain.PlanPremium {
		return fmt.Errorf("%w: unknown plan %q", domain.ErrValidation, plan)
	}
	return s.users.UpdatePlan(ctx, userID, plan)
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, p domain.ProfileUpdate) (domain.User, error) {
	if err := s.users.UpdateProfile(ctx, userID, p); err != nil {
		return domain.User{}, err
	}
	return s.users.GetUser(ctx, userID)
}

// SaveImage stores an uploaded profile or cover image and records its public
// path. A failed write degrades to the placeholder path instead of failing
// the request; the profile page must not break over a thumbnail.
func (s *AuthService) SaveImage(ctx context.Context, userID int64, kind, filename string, data []byte) (string, error) {
	if kind != "profile" && kind != "cover" {
		return "", fmt.Errorf("%w: unknown image kind %q", domain.ErrValidation, kind)
	}
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%d_%s_%d%s", userID, kind, time.Now().UnixNano(), ext)
	path := "/uploads/" + name

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		log.Warn().Err(err).Msg("upload dir unavailable, using placeholder")
		path = placeholderImage
	} else if err := os.WriteFile(filepath.Join(s.uploadDir, name), data, 0o644); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("image write failed, using placeholder")
		path = placeholderImage
	}

	if err := s.users.UpdateImage(ctx, userID, kind, path); err != nil {
		return "", err
	}
	return path, nil
}
