package supabase

import (
	"context"
	"fmt"
)

const cacheControl = "3600"

// Put uploads body under key in the configured bucket. Existing objects are
// not overwritten.
func (c *Client) Put(ctx context.Context, key string, body []byte, contentType string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetHeader("Cache-Control", "max-age="+cacheControl).
		SetHeader("x-upsert", "false").
		SetBody(body).
		Post(c.objectPath(key))
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if resp.IsError() {
		return fmt.Errorf("upload %s: %w", key, apiError(resp))
	}
	return nil
}

func (c *Client) PublicURL(key string) string {
	return c.baseURL + "/storage/v1/object/public/" + escapePath(c.bucket) + "/" + escapePath(key)
}

func (c *Client) objectPath(key string) string {
	return "/storage/v1/object/" + escapePath(c.bucket) + "/" + escapePath(key)
}
