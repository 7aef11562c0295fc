package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/willr196/vergo-db-sub002/internal/server/config"
	"github.com/willr196/vergo-db-sub002/internal/server/repository"
	"github.com/willr196/vergo-db-sub002/internal/shared/models"
	"github.com/willr196/vergo-db-sub002/internal/shared/passhash"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrPendingVerification = errors.New("account pending email verification")
)

type Repository interface {
	CreateUser(ctx context.Context, u models.User, passwordHash string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, string, error)
	GetUserByID(ctx context.Context, id string) (models.User, string, error)
	UpdateUser(ctx context.Context, u models.User) (models.User, error)
	MarkVerified(ctx context.Context, userID string) error

	ListJobs(ctx context.Context) ([]models.Job, error)
	CreateJob(ctx context.Context, j models.Job) (models.Job, error)
	JobExists(ctx context.Context, id string) (bool, error)

	CreateApplication(ctx context.Context, jobID, userID string) (models.Application, error)
	GetApplication(ctx context.Context, id string) (models.Application, error)
	WithdrawApplication(ctx context.Context, id, userID string) error

	CreateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (userID string, expiresAt time.Time, err error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type Services struct {
	Auth   *AuthService
	Market *MarketService
}

func NewServices(repo Repository, cfg config.Config) *Services {
	return &Services{
		Auth:   &AuthService{repo: repo, jwtSecret: []byte(cfg.JWTSecret)},
		Market: &MarketService{repo: repo},
	}
}

// TokenPair couples the JWT access token with its rotating refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService implements registration, login, JWT issuance and refresh
// token rotation for both account kinds.
type AuthService struct {
	repo      Repository
	jwtSecret []byte
}

// Register creates an account. Job seekers are active immediately; client
// companies start unverified and must confirm their email before login.
func (a *AuthService) Register(ctx context.Context, ut models.UserType, email, password, fullName, phone, company string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, errors.New("email and password required")
	}
	if !ut.Valid() {
		return models.User{}, errors.New("unknown account type")
	}
	hash, err := passhash.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		Type:     ut,
		Email:    email,
		FullName: fullName,
		Phone:    phone,
		Company:  company,
		Verified: ut == models.UserTypeJobSeeker,
	}
	return a.repo.CreateUser(ctx, u, hash)
}

func (a *AuthService) Login(ctx context.Context, ut models.UserType, email, password string) (models.User, TokenPair, error) {
	user, hash, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil || user.Type != ut {
		return models.User{}, TokenPair{}, ErrInvalidCredentials
	}
	ok, err := passhash.VerifyPassword(hash, password)
	if err != nil || !ok {
		return models.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if !user.Verified {
		return models.User{}, TokenPair{}, ErrPendingVerification
	}
	pair, err := a.issuePair(ctx, user)
	if err != nil {
		return models.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh rotates the refresh token and issues a fresh access token.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, exp, err := a.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	if time.Now().After(exp) {
		_ = a.repo.DeleteRefreshToken(ctx, refreshToken)
		return TokenPair{}, ErrInvalidRefreshToken
	}
	user, _, err := a.repo.GetUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	_ = a.repo.DeleteRefreshToken(ctx, refreshToken)
	return a.issuePair(ctx, user)
}

// Logout revokes the refresh token. Unknown tokens are not an error.
func (a *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return a.repo.DeleteRefreshToken(ctx, refreshToken)
}

// VerifyUser marks an account as email-verified.
func (a *AuthService) VerifyUser(ctx context.Context, userID string) error {
	return a.repo.MarkVerified(ctx, userID)
}

// ParseToken validates an access token and returns the subject user id.
func (a *AuthService) ParseToken(_ context.Context, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("invalid token subject")
	}
	return sub, nil
}

func (a *AuthService) issuePair(ctx context.Context, user models.User) (TokenPair, error) {
	claims := jwt.MapClaims{
		"sub": user.ID,
		"typ": string(user.Type),
		"exp": time.Now().Add(accessTokenTTL).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh := uuid.NewString()
	if err := a.repo.CreateRefreshToken(ctx, user.ID, refresh, time.Now().Add(refreshTokenTTL)); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// MarketService covers the job board surface the client consumes.
type MarketService struct {
	repo Repository
}

func (s *MarketService) ListJobs(ctx context.Context) ([]models.Job, error) {
	return s.repo.ListJobs(ctx)
}

func (s *MarketService) Apply(ctx context.Context, userID, jobID string) (models.Application, error) {
	exists, err := s.repo.JobExists(ctx, jobID)
	if err != nil {
		return models.Application{}, err
	}
	if !exists {
		return models.Application{}, repository.ErrNotFound
	}
	return s.repo.CreateApplication(ctx, jobID, userID)
}

func (s *MarketService) Withdraw(ctx context.Context, userID, applicationID string) error {
	return s.repo.WithdrawApplication(ctx, applicationID, userID)
}

func (s *MarketService) Profile(ctx context.Context, userID string) (models.User, error) {
	user, _, err := s.repo.GetUserByID(ctx, userID)
	return user, err
}

// UpdateProfile replaces the editable profile fields wholesale.
func (s *MarketService) UpdateProfile(ctx context.Context, userID string, u models.User) (models.User, error) {
	u.ID = userID
	return s.repo.UpdateUser(ctx, u)
}
