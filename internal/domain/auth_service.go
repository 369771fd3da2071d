package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/skillswap/client/internal/auth"
)

// RoleUser is granted to every registered member
const RoleUser = "USER"

// AccountRepository defines the interface for member data access
type AccountRepository interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error)
	GetAccountByID(ctx context.Context, id int64) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAccountByVerificationToken(ctx context.Context, token string) (*Account, error)
	MarkEmailVerified(ctx context.Context, id int64) error
	EmailExists(ctx context.Context, email string) (bool, error)

	UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*Account, error)
	UpdateSkills(ctx context.Context, id int64, offered, wanted []string) (*Account, error)
	UpdatePhoto(ctx context.Context, id int64, url string) (*Account, error)
	AddRating(ctx context.Context, id int64, rating int) (*Account, error)
	IncrementCompletedSwaps(ctx context.Context, ids ...int64) error

	SearchProfiles(ctx context.Context, params SearchParams) ([]*Account, int, error)
	CountActiveAccounts(ctx context.Context) (int, error)
	CountSkillsOffered(ctx context.Context) (int, error)
}

// CreateAccountParams holds parameters for account creation
type CreateAccountParams struct {
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	VerificationToken string
	EmailVerified     bool
	Roles             []string
}

// VerificationSender delivers email verification tokens
type VerificationSender interface {
	SendVerification(ctx context.Context, email, token string) error
}

// AuthService handles registration, verification and login
type AuthService struct {
	repo        AccountRepository
	jwt         *auth.JWTManager
	sender      VerificationSender
	requireMail bool
}

// NewAuthService creates a new auth service. When requireVerification is
// false new accounts are created already verified.
func NewAuthService(repo AccountRepository, jwt *auth.JWTManager, sender VerificationSender, requireVerification bool) *AuthService {
	return &AuthService{
		repo:        repo,
		jwt:         jwt,
		sender:      sender,
		requireMail: requireVerification,
	}
}

// Register creates a new member with email/password
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	params := CreateAccountParams{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         email,
		PasswordHash:  passwordHash,
		EmailVerified: !s.requireMail,
		Roles:         []string{RoleUser},
	}
	if s.requireMail {
		params.VerificationToken = uuid.NewString()
	}

	account, err := s.repo.CreateAccount(ctx, params)
	if err != nil {
		return nil, err
	}

	if s.requireMail && s.sender != nil {
		if err := s.sender.SendVerification(ctx, email, params.VerificationToken); err != nil {
			return nil, err
		}
	}

	return account, nil
}

// VerifyEmail consumes a verification token. alreadyVerified is true when
// the account had been verified before.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (alreadyVerified bool, err error) {
	account, err := s.repo.GetAccountByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, ErrVerificationTokenUsed
		}
		return false, err
	}
	if account.EmailVerified {
		return true, nil
	}
	return false, s.repo.MarkEmailVerified(ctx, account.ID)
}

// LoginResult represents the result of login
type LoginResult struct {
	User        *User
	AccessToken string
}

// Login authenticates a member with email/password
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := s.repo.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !account.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := s.jwt.GenerateAccessToken(account.ID, account.Email)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:        account.Identity(),
		AccessToken: token,
	}, nil
}

// GetAccountByID retrieves an account by ID
func (s *AuthService) GetAccountByID(ctx context.Context, id int64) (*Account, error) {
	return s.repo.GetAccountByID(ctx, id)
}
