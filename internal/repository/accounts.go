package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// AccountRepository creates accounts in the auth_accounts table when the
// pipeline writes straight to Postgres instead of a hosted auth service.
type AccountRepository struct {
	DB *sql.DB
}

// CreateAccount inserts an account for email. When another process created
// it first the existing id is returned.
func (r *AccountRepository) CreateAccount(ctx context.Context, email, displayName string) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO auth_accounts (id, email, display_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, uuid.NewString(), email, displayName).Scan(&id)
	if err == nil {
		return id, nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return "", fmt.Errorf("create account %s: %w", email, err)
	}

	err = r.DB.QueryRowContext(ctx, `SELECT id FROM auth_accounts WHERE email = $1`, email).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("find account %s: %w", email, err)
	}
	return id, nil
}
