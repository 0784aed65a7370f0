// Package roblox is a client for the public Roblox users and thumbnails APIs.
package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sabflip/account-link/internal/config"
	"github.com/sabflip/account-link/internal/domain"
)

// Client calls the users and thumbnails endpoints over a shared http.Client
// whose timeout bounds every request.
type Client struct {
	http          *http.Client
	usersURL      string
	thumbnailsURL string
}

const maxResponseBytes = 1 << 20

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:          &http.Client{Timeout: cfg.ExternalTimeout},
		usersURL:      cfg.RobloxUsersBaseURL,
		thumbnailsURL: cfg.RobloxThumbnailsBaseURL,
	}
}

type usernamesRequest struct {
	Usernames          []string `json:"usernames"`
	ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
}

type usernamesResponse struct {
	Data []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

// LookupUserID resolves a username to its user id. Unknown names wrap domain.ErrNotFound.
func (c *Client) LookupUserID(ctx context.Context, username string) (int64, error) {
	body, err := json.Marshal(usernamesRequest{Usernames: []string{username}, ExcludeBannedUsers: true})
	if err != nil {
		return 0, err
	}
	var out usernamesResponse
	if err := c.do(ctx, http.MethodPost, c.usersURL+"/v1/usernames/users", bytes.NewReader(body), &out); err != nil {
		return 0, fmt.Errorf("lookup username: %w", err)
	}
	if len(out.Data) == 0 {
		return 0, fmt.Errorf("roblox user %q not found: %w", username, domain.ErrNotFound)
	}
	return out.Data[0].ID, nil
}

// GetProfile reads the public profile of userID.
func (c *Client) GetProfile(ctx context.Context, userID int64) (*domain.ExternalProfile, error) {
	var p domain.ExternalProfile
	if err := c.do(ctx, http.MethodGet, c.usersURL+"/v1/users/"+strconv.FormatInt(userID, 10), nil, &p); err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return &p, nil
}

type thumbnailsResponse struct {
	Data []struct {
		TargetID int64  `json:"targetId"`
		State    string `json:"state"`
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

// AvatarHeadshotURL returns the CDN URL of the user's 150x150 headshot.
// An empty string with nil error means the thumbnail is not rendered yet.
func (c *Client) AvatarHeadshotURL(ctx context.Context, userID int64) (string, error) {
	q := url.Values{}
	q.Set("userIds", strconv.FormatInt(userID, 10))
	q.Set("size", "150x150")
	q.Set("format", "Png")
	q.Set("isCircular", "false")
	var out thumbnailsResponse
	if err := c.do(ctx, http.MethodGet, c.thumbnailsURL+"/v1/users/avatar-headshot?"+q.Encode(), nil, &out); err != nil {
		return "", fmt.Errorf("avatar headshot: %w", err)
	}
	for _, d := range out.Data {
		if d.TargetID == userID && d.State == "Completed" {
			return d.ImageURL, nil
		}
	}
	return "", nil
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%s %s: status %d after %s", method, req.URL.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out)
}
