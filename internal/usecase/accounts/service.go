package accounts

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"airwatch/internal/errs"
	"airwatch/internal/ports"
)

var (
	ErrInvalidEmail       = errors.New("email is invalid")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is deactivated")
)

type Service struct {
	repo     ports.UserRepository
	hashCost int
}

func NewService(repo ports.UserRepository) *Service {
	return &Service{
		repo:     repo,
		hashCost: bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Email    string
	Password string
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (ports.User, error) {
	if ctx == nil {
		return ports.User{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ports.User{}, errs.Wrap(err, "check context")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return ports.User{}, ErrInvalidEmail
	}
	if len(input.Password) < 8 {
		return ports.User{}, ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return ports.User{}, errs.Wrap(err, "hash password")
	}

	user, err := s.repo.Create(ctx, ports.UserCreate{
		Email:          email,
		HashedPassword: string(hashed),
		IsActive:       true,
	})
	if err != nil {
		return ports.User{}, err
	}
	return user, nil
}

// Authenticate verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email string, password string) (ports.User, error) {
	if ctx == nil {
		return ports.User{}, errors.New("context is required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			return ports.User{}, ErrInvalidCredentials
		}
		return ports.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return ports.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return ports.User{}, ErrAccountInactive
	}

	return user, nil
}

func (s *Service) Deactivate(ctx context.Context, id uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) List(ctx context.Context, limit int) ([]ports.User, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	return s.repo.List(ctx, limit)
}
