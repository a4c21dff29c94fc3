package ports

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

type User struct {
	ID             uint64
	Email          string
	HashedPassword string
	IsActive       bool
	CreatedAt      time.Time
}

type UserCreate struct {
	Email          string
	HashedPassword string
	IsActive       bool
}

type UserRepository interface {
	Create(ctx context.Context, input UserCreate) (User, error)
	GetByID(ctx context.Context, id uint64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	SetActive(ctx context.Context, id uint64, active bool) error
	List(ctx context.Context, limit int) ([]User, error)
}
