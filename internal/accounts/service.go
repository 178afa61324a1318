package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned by Login for both an unknown email and a
// wrong password. The two cases are deliberately indistinguishable so the
// endpoint cannot be used to enumerate registered accounts.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrMissingField is returned by OAuthLogin when a required provider field is absent.
var ErrMissingField = errors.New("missing required field")

// accountRepo is the storage interface consumed by Service.
type accountRepo interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdateProfileImage(ctx context.Context, id uuid.UUID, profileImage string) error
}

// Service implements business logic for account management: signup, password
// login, and OAuth login/link.
type Service struct {
	repo   accountRepo
	hasher *PasswordHasher
	logger *zap.Logger
}

// NewService creates a new Service.
func NewService(repo accountRepo, hasher *PasswordHasher, logger *zap.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, logger: logger}
}

// Signup creates a new account with email/password authentication. It returns
// ErrDuplicateEmail when the email is already registered. The caller must log
// in separately; signup issues no token.
func (s *Service) Signup(ctx context.Context, name, email, password, profileImage string) (*Account, error) {
	if email == "" || password == "" {
		return nil, ErrMissingField
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		ProfileImage: profileImage,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account created", zap.String("account_id", a.ID.String()))
	return a, nil
}

// Login verifies email/password credentials and returns the account on success.
// Hashing and store failures are surfaced as internal errors, never as
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := s.hasher.Verify(password, a.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return a, nil
}

// OAuthLogin matches or creates an account for an identity asserted by an
// OAuth provider. Unknown emails get a fresh account with a random placeholder
// password; known emails have their profile image refreshed when the provider
// supplies a new, different one. Returns the account and true when it was
// newly created.
func (s *Service) OAuthLogin(ctx context.Context, provider Provider, email, name, profileImage string) (*Account, bool, error) {
	if email == "" {
		return nil, false, ErrMissingField
	}
	if provider == ProviderGoogle && name == "" {
		return nil, false, ErrMissingField
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		if profileImage != "" && a.ProfileImage != profileImage {
			if err := s.repo.UpdateProfileImage(ctx, a.ID, profileImage); err != nil {
				return nil, false, fmt.Errorf("refresh profile image: %w", err)
			}
			a.ProfileImage = profileImage
		}
		return a, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("lookup account: %w", err)
	}

	if name == "" && provider == ProviderApple {
		// Apple does not always release the user's name.
		name = "Apple User"
	}

	// The placeholder password is never revealed; only its hash is stored,
	// keeping OAuth-created accounts out of reach of the password login path.
	placeholder, err := generatePlaceholderPassword()
	if err != nil {
		return nil, false, fmt.Errorf("generate placeholder password: %w", err)
	}
	hash, err := s.hasher.Hash(placeholder)
	if err != nil {
		return nil, false, err
	}

	a = &Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		ProfileImage: profileImage,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost a create race with a concurrent login for the same email.
			// The store kept exactly one record; use the winner.
			winner, getErr := s.repo.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, false, fmt.Errorf("lookup account after create race: %w", getErr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("create oauth account: %w", err)
	}

	s.logger.Info("account created from oauth login",
		zap.String("account_id", a.ID.String()),
		zap.String("provider", string(provider)),
	)
	return a, true, nil
}

// GetByID retrieves an account by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// generatePlaceholderPassword returns a hex-encoded 32-byte random secret,
// sized well past any realistic brute-force budget.
func generatePlaceholderPassword() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
