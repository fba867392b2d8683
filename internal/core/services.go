package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the database interface used by all core services. *pgxpool.Pool
// satisfies it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrSubdomainTaken is returned when a tenant's subdomain collides with an
// existing one.
var ErrSubdomainTaken = errors.New("subdomain already taken")

type Services struct {
	Tenant *TenantService
	User   *UserService
	APIKey *APIKeyService
}

func NewServices(db DB) *Services {
	return &Services{
		Tenant: NewTenantService(db),
		User:   NewUserService(db),
		APIKey: NewAPIKeyService(db),
	}
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
