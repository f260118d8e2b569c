// Package supabase talks to a Supabase project over its REST, storage and
// auth admin APIs. A Client serves as the publisher's data store, object
// store and identity provider at once.
package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"merchingest/internal/logger"
)

type Client struct {
	baseURL string
	bucket  string
	http    *resty.Client
}

// New builds a client authenticated with a service role key, which bypasses
// row level security.
func New(baseURL, serviceKey, bucket string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey).
		SetTimeout(30*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		AddRetryCondition(retryReads)

	return &Client{baseURL: baseURL, bucket: bucket, http: client}
}

// SetLogger routes the HTTP client's retry and error messages to l.
func (c *Client) SetLogger(l logger.Logger) *Client {
	c.http.SetLogger(logger.NewPrintf(l))
	return c
}

// retryReads retries idempotent requests only; a retried insert could
// create the same row twice.
func retryReads(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
}

// APIError is a non-2xx answer from Supabase.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase: status %d: %s", e.Status, e.Message)
}

func apiError(resp *resty.Response) error {
	var body struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	msg := strings.TrimSpace(string(resp.Body()))
	if json.Unmarshal(resp.Body(), &body) == nil {
		for _, m := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
			if m != "" {
				msg = m
				break
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &APIError{Status: resp.StatusCode(), Message: msg}
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
