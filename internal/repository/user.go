package repository

import (
	"context"

	"github.com/ErlanBelekov/taskboard/internal/domain"
)

// UpdateUserFields carries a partial profile update. Nil means "leave
// unchanged"; email must already be normalized by the caller.
type UpdateUserFields struct {
	Name   *string
	Email  *string
	Avatar *string
}

type UserRepository interface {
	Create(ctx context.Context, name, email, passwordHash string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, id string, fields UpdateUserFields) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}
