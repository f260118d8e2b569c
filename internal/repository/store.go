package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"merchingest/internal/model"
)

// PostgresStore keeps collections as Postgres tables of the same name.
// Rows without an id get a random UUID before insertion.
type PostgresStore struct {
	DB *sql.DB
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, row model.Row) (model.Row, error) {
	return insertRow(ctx, s.DB, collection, row)
}

// InsertMany writes all rows in one transaction.
func (s *PostgresStore) InsertMany(ctx context.Context, collection string, rows []model.Row) ([]model.Row, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert into %s: %w", collection, err)
	}
	defer tx.Rollback()

	out := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		stored, err := insertRow(ctx, tx, collection, row)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert into %s: %w", collection, err)
	}
	return out, nil
}

func (s *PostgresStore) Select(ctx context.Context, collection string, filter model.Row) ([]model.Row, error) {
	query := "SELECT * FROM " + pq.QuoteIdentifier(collection)
	var args []any
	if len(filter) > 0 {
		conds := make([]string, 0, len(filter))
		for i, col := range sortedColumns(filter) {
			conds = append(conds, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(col), i+1))
			args = append(args, filter[col])
		}
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", collection, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func insertRow(ctx context.Context, q queryer, collection string, row model.Row) (model.Row, error) {
	values := make(model.Row, len(row)+1)
	for k, v := range row {
		values[k] = v
	}
	if values.ID() == "" {
		values["id"] = uuid.NewString()
	}

	cols := sortedColumns(values)
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = pq.QuoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		pq.QuoteIdentifier(collection), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	defer rows.Close()

	stored, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("insert into %s: no row returned", collection)
	}
	return stored[0], nil
}

func scanRows(rows *sql.Rows) ([]model.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []model.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(model.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func sortedColumns(row model.Row) []string {
	cols := make([]string, 0, len(row))
	for k := range row {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
