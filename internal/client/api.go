// Package client drives the account-link flow from the user's side: a typed
// API client for the three /api endpoints and a view-model state machine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrVerificationRequired is returned by UserData while no account is linked.
var ErrVerificationRequired = errors.New("roblox verification required")

// APIError is a non-2xx response. Message is the server's error string.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// UserData is the linked profile returned by GET /api/user-data.
type UserData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
	PfpURL   string `json:"pfpUrl"`
}

type apiResponse struct {
	Success              bool   `json:"success"`
	Code                 string `json:"code"`
	Message              string `json:"message"`
	Error                string `json:"error"`
	RequiresVerification bool   `json:"requiresVerification"`
}

// APIClient calls the account-link API. Every request carries the bearer
// token passed by the caller.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) UserData(ctx context.Context, token string) (*UserData, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/user-data", token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		var ud UserData
		if err := json.Unmarshal(raw, &ud); err != nil {
			return nil, fmt.Errorf("decode user data: %w", err)
		}
		return &ud, nil
	}
	var body apiResponse
	_ = json.Unmarshal(raw, &body)
	if resp.StatusCode == http.StatusForbidden && body.RequiresVerification {
		return nil, ErrVerificationRequired
	}
	return nil, apiError(resp.StatusCode, body)
}

// GenerateCode asks for a fresh code for username and returns it with the server's message.
func (c *APIClient) GenerateCode(ctx context.Context, token, username string) (code, message string, err error) {
	body, err := c.post(ctx, "/api/generate-code", token, map[string]string{"robloxUsername": username})
	if err != nil {
		return "", "", err
	}
	return body.Code, body.Message, nil
}

// VerifyUser confirms the code is in the Roblox profile of username.
func (c *APIClient) VerifyUser(ctx context.Context, token, username, code string) (string, error) {
	body, err := c.post(ctx, "/api/verify-user", token, map[string]string{"robloxUsername": username, "code": code})
	if err != nil {
		return "", err
	}
	return body.Message, nil
}

func (c *APIClient) post(ctx context.Context, path, token string, payload interface{}) (*apiResponse, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodPost, path, token, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK || !body.Success {
		return nil, apiError(resp.StatusCode, body)
	}
	return &body, nil
}

func (c *APIClient) send(ctx context.Context, method, path, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

func apiError(status int, body apiResponse) *APIError {
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}
