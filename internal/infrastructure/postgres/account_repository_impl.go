package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

const uniqueViolation = "23505"

const accountColumns = `id, email, password_hash, name, phone_number, linkedin, github,
	avatar_large, avatar_medium, avatar_small, status, created_at, updated_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, a.Email, a.PasswordHash, a.Name, string(a.Status))

	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, uid)
	return scanAccount(row)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// Update writes only the fields set in patch, in a single statement, and
// returns the updated record.
func (r *AccountRepository) Update(ctx context.Context, id string, patch repository.AccountPatch) (*entity.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	sets, args := updateSet(patch)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, uid)
	q := fmt.Sprintf(`UPDATE accounts SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), accountColumns)
	return scanAccount(r.pool.QueryRow(ctx, q, args...))
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil
	}
	_, err = r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, uid)
	return err
}

func updateSet(p repository.AccountPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Name.Set {
		add("name", p.Name.Value)
	}
	if p.PhoneNumber.Set {
		add("phone_number", p.PhoneNumber.Value)
	}
	if p.LinkedIn.Set {
		add("linkedin", p.LinkedIn.Value)
	}
	if p.GitHub.Set {
		add("github", p.GitHub.Value)
	}
	if p.Avatar.Set {
		var l, m, s *string
		if av := p.Avatar.Value; av != nil {
			l, m, s = &av.Large, &av.Medium, &av.Small
		}
		add("avatar_large", l)
		add("avatar_medium", m)
		add("avatar_small", s)
	}
	if p.Status.Set {
		add("status", string(p.Status.Value))
	}
	return sets, args
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	var large, medium, small *string
	var status string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.PhoneNumber, &a.LinkedIn, &a.GitHub,
		&large, &medium, &small, &status, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	a.Status = entity.AccountStatus(status)
	if large != nil && medium != nil && small != nil {
		a.Avatar = &entity.Avatar{Large: *large, Medium: *medium, Small: *small}
	}
	return a, nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
