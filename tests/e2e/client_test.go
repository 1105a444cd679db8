// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"
)

// envelope mirrors the body of every API response
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient() *apiClient {
	return &apiClient{
		baseURL: baseURL(),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// as returns a copy of the client authenticated with token
func (c *apiClient) as(token string) *apiClient {
	cc := *c
	cc.token = token
	return &cc
}

func (c *apiClient) do(ctx context.Context, method, path string, body interface{}) (int, envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, envelope{}, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, envelope{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, envelope{}, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}

	return resp.StatusCode, env, nil
}

// mustDo fails the test unless the response carries the expected status and
// decodes data into out when out is not nil
func (c *apiClient) mustDo(t *testing.T, ctx context.Context, method, path string, body interface{}, expected int, out interface{}) envelope {
	t.Helper()

	status, env, err := c.do(ctx, method, path, body)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}

	if status != expected {
		t.Fatalf("%s %s: expected status %d, got %d (%s)", method, path, expected, status, env.Message)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("%s %s: failed to decode data: %v", method, path, err)
		}
	}

	return env
}

type user struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginResult struct {
	User  user   `json:"user"`
	Token string `json:"token"`
}

type limitData struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

func (c *apiClient) login(t *testing.T, ctx context.Context, subdomain, email, password string) string {
	t.Helper()

	var res loginResult
	c.mustDo(t, ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":           email,
		"password":        password,
		"tenantSubdomain": subdomain,
	}, http.StatusOK, &res)

	if res.Token == "" {
		t.Fatal("expected a token")
	}

	return res.Token
}
