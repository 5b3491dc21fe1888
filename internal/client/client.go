// Package client is a typed HTTP client for the world API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quiz-world/internal/domain"
)

// NetworkError wraps a transport failure; the request may not have reached
// the server
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response carrying the server's {error} message
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Is maps status codes onto the domain sentinels so callers can use errors.Is
func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusNotFound:
		return target == domain.ErrPlayerNotFound || target == domain.ErrAccountNotFound
	case http.StatusUnauthorized:
		return target == domain.ErrInvalidCredentials || target == domain.ErrUnauthorized
	case http.StatusBadRequest:
		return target == domain.ErrInvalidRequest
	}
	return false
}

// IsNetworkError reports whether err came from the transport
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Client talks to one world server
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for baseURL. anonKey is sent as a bearer token when set.
func New(baseURL, anonKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type playerResponse struct {
	Player domain.Player `json:"player"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Join resumes an existing account
func (c *Client) Join(ctx context.Context, username, avatarColor, password string) (*domain.Player, error) {
	var resp playerResponse
	err := c.post(ctx, "/player/join", map[string]string{
		"username":    username,
		"avatarColor": avatarColor,
		"password":    password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Player, nil
}

// Create registers a new character
func (c *Client) Create(ctx context.Context, username, avatarColor, password string) (*domain.Player, error) {
	var resp playerResponse
	err := c.post(ctx, "/player/create", map[string]string{
		"username":    username,
		"avatarColor": avatarColor,
		"password":    password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Player, nil
}

// JoinOrCreate joins the account and, if it does not exist, asks confirm
// whether to create it instead. A declined confirm returns the not-found error.
func (c *Client) JoinOrCreate(ctx context.Context, username, avatarColor, password string, confirm func(username string) bool) (*domain.Player, error) {
	player, err := c.Join(ctx, username, avatarColor, password)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) || confirm == nil || !confirm(username) {
		return nil, err
	}
	return c.Create(ctx, username, avatarColor, password)
}

// UpdatePosition writes the avatar position
func (c *Client) UpdatePosition(ctx context.Context, playerID string, x, y float64) error {
	return c.post(ctx, "/player/position", map[string]any{
		"playerId": playerID,
		"x":        x,
		"y":        y,
	}, nil)
}

// ListPlayers returns active players other than excludingID
func (c *Client) ListPlayers(ctx context.Context, excludingID string) ([]domain.PublicPlayer, error) {
	var resp struct {
		Players []domain.PublicPlayer `json:"players"`
	}
	q := url.Values{"playerId": {excludingID}}
	if err := c.get(ctx, "/player/list?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Players, nil
}

// ApplyDuelResult records a duel outcome and returns the updated player
func (c *Client) ApplyDuelResult(ctx context.Context, playerID string, won bool) (*domain.Player, error) {
	var resp playerResponse
	err := c.post(ctx, "/player/duel-result", map[string]any{
		"playerId": playerID,
		"won":      won,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Player, nil
}

// GrantBadge awards a badge and returns the updated player
func (c *Client) GrantBadge(ctx context.Context, playerID, badge string) (*domain.Player, error) {
	var resp playerResponse
	err := c.post(ctx, "/player/badge", map[string]string{
		"playerId": playerID,
		"badge":    badge,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Player, nil
}

// SendChat posts a chat message
func (c *Client) SendChat(ctx context.Context, playerID, username, message string) error {
	return c.post(ctx, "/chat/send", map[string]string{
		"playerId": playerID,
		"username": username,
		"message":  message,
	}, nil)
}

// Messages returns the latest chat lines, oldest first
func (c *Client) Messages(ctx context.Context) ([]domain.ChatLine, error) {
	var resp struct {
		Messages []domain.ChatLine `json:"messages"`
	}
	if err := c.get(ctx, "/chat/messages", &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SubmitScore submits a gauntlet score. It reports whether the score replaced
// the player's entry, and the server's message when it did not.
func (c *Client) SubmitScore(ctx context.Context, playerID, username string, score int64) (bool, string, error) {
	var resp successResponse
	err := c.post(ctx, "/gym/submit", map[string]any{
		"playerId": playerID,
		"username": username,
		"score":    score,
	}, &resp)
	if err != nil {
		return false, "", err
	}
	return resp.Message == "", resp.Message, nil
}

// Leaderboard returns the gym top entries
func (c *Client) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var resp struct {
		Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
	}
	if err := c.get(ctx, "/gym/leaderboard", &resp); err != nil {
		return nil, err
	}
	return resp.Leaderboard, nil
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("health: unexpected status %q", resp.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.anonKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: method + " " + path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
