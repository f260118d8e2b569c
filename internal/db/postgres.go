package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var Schema string

func New(url string) (*sql.DB, error) {
	return sql.Open("postgres", url)
}

func NewPgx(ctx context.Context, url string) (*pgx.Conn, error) {
	return pgx.Connect(ctx, url)
}

// ApplySchema creates the tables the Postgres backend writes to. Statements
// are idempotent so it can run on every deploy.
func ApplySchema(ctx context.Context, url string) error {
	conn, err := NewPgx(ctx, url)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
