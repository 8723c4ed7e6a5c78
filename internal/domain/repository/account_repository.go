package repository

import (
	"context"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

// AccountRepository defines the interface for account persistence.
// Implementations must enforce email uniqueness on Create (ErrDuplicateEmail)
// and apply each Update atomically per record.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	Update(ctx context.Context, id string, patch AccountPatch) (*entity.Account, error)
	// Delete removes an account. A missing account is not an error.
	Delete(ctx context.Context, id string) error
}

// Field is a value with an explicit presence flag.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// AccountPatch is a partial update. Only fields with Set=true are written.
// A set pointer field holding nil clears the column.
type AccountPatch struct {
	Name        Field[*string]
	PhoneNumber Field[*string]
	LinkedIn    Field[*string]
	GitHub      Field[*string]
	Avatar      Field[*entity.Avatar]
	Status      Field[entity.AccountStatus]
}

// IsEmpty reports whether the patch carries no field at all.
func (p AccountPatch) IsEmpty() bool {
	return !p.Name.Set && !p.PhoneNumber.Set && !p.LinkedIn.Set && !p.GitHub.Set &&
		!p.Avatar.Set && !p.Status.Set
}

// Apply writes the present fields of p onto a.
func (p AccountPatch) Apply(a *entity.Account) {
	if p.Name.Set {
		a.Name = p.Name.Value
	}
	if p.PhoneNumber.Set {
		a.PhoneNumber = p.PhoneNumber.Value
	}
	if p.LinkedIn.Set {
		a.LinkedIn = p.LinkedIn.Value
	}
	if p.GitHub.Set {
		a.GitHub = p.GitHub.Value
	}
	if p.Avatar.Set {
		a.Avatar = p.Avatar.Value
	}
	if p.Status.Set {
		a.Status = p.Status.Value
	}
}
