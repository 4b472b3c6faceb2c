// Package e2e drives a running catalog server through Gherkin scenarios.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds the last response of a scenario.
type TestContext struct {
	BaseURL string
	client  *http.Client

	lastStatus  int
	lastHeaders http.Header
	lastBody    []byte
}

// NewTestContext creates a context targeting baseURL.
func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// Reset clears the previous response between scenarios.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastHeaders = nil
	tc.lastBody = nil
}

func (tc *TestContext) GET(ctx context.Context, path string) error {
	return tc.do(ctx, http.MethodGet, path)
}

func (tc *TestContext) POST(ctx context.Context, path string) error {
	return tc.do(ctx, http.MethodPost, path)
}

func (tc *TestContext) DELETE(ctx context.Context, path string) error {
	return tc.do(ctx, http.MethodDelete, path)
}

func (tc *TestContext) do(ctx context.Context, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody = body
	return nil
}

func (tc *TestContext) StatusCode() int { return tc.lastStatus }

func (tc *TestContext) Header(key string) string { return tc.lastHeaders.Get(key) }

func (tc *TestContext) Body() []byte { return tc.lastBody }

// GetResponseField returns a top-level field of a JSON object body.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var obj map[string]any
	if err := json.Unmarshal(tc.lastBody, &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

// GetResponseList decodes a JSON array body.
func (tc *TestContext) GetResponseList() ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(tc.lastBody, &list); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}
	return list, nil
}
