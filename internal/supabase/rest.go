package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"merchingest/internal/model"
)

func (c *Client) Insert(ctx context.Context, collection string, row model.Row) (model.Row, error) {
	rows, err := c.InsertMany(ctx, collection, []model.Row{row})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("supabase: insert returned no row")
	}
	return rows[0], nil
}

// InsertMany posts rows in one request and returns them as stored.
func (c *Client) InsertMany(ctx context.Context, collection string, rows []model.Row) ([]model.Row, error) {
	var stored []model.Row
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(rows).
		SetResult(&stored).
		Post("/rest/v1/" + url.PathEscape(collection))
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("insert into %s: %w", collection, apiError(resp))
	}
	return stored, nil
}

// Select filters with equality on every column of filter.
func (c *Client) Select(ctx context.Context, collection string, filter model.Row) ([]model.Row, error) {
	q := url.Values{}
	q.Set("select", "*")
	for col, v := range filter {
		q.Set(col, fmt.Sprintf("eq.%v", v))
	}

	var rows []model.Row
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(q).
		SetResult(&rows).
		Get("/rest/v1/" + url.PathEscape(collection))
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", collection, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("select from %s: %w", collection, apiError(resp))
	}
	return rows, nil
}
