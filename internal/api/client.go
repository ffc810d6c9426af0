package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfeidau/openbusser/internal/models"
)

// RequestIDHeader carries a per-request id for correlation with backend logs.
const RequestIDHeader = "X-Request-Id"

// Credentials is the session context passed to every call that must be authorised.
type Credentials struct {
	SessionID string
	Token     string
}

// IsZero returns true if either half of the session is missing.
func (c Credentials) IsZero() bool {
	return c.SessionID == "" || c.Token == ""
}

// Client issues requests against the OpenBusser backend API.
// It holds no session state; callers pass Credentials explicitly.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL (e.g. http://localhost:3000).
// If httpClient is nil, http.DefaultClient is used.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api",
		httpClient: httpClient,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RegisterSession creates a new session and returns its id and token.
func (c *Client) RegisterSession(ctx context.Context) (*models.RegisterResponse, error) {
	var resp models.RegisterResponse
	if err := c.do(ctx, "register session", http.MethodPost, "/session/register", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindAvailableBussers returns the bussers reachable from the session's network.
func (c *Client) FindAvailableBussers(ctx context.Context, creds Credentials) (*models.MatchResponse, error) {
	body := map[string]string{
		"sessionId": creds.SessionID,
		"token":     creds.Token,
	}

	var resp models.MatchResponse
	if err := c.do(ctx, "find bussers", http.MethodPost, "/session/match", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AssignBusser assigns busserID to the session.
func (c *Client) AssignBusser(ctx context.Context, busserID string, creds Credentials) (bool, error) {
	body := map[string]string{
		"busserId":  busserID,
		"sessionId": creds.SessionID,
		"token":     creds.Token,
	}

	var resp successResponse
	if err := c.do(ctx, "assign busser", http.MethodPost, "/session/assign", body, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// SendHeartbeat refreshes the session's inactivity timer.
func (c *Client) SendHeartbeat(ctx context.Context, creds Credentials) (bool, error) {
	// the heartbeat endpoint names the session "id", not "sessionId"
	body := map[string]string{
		"id":    creds.SessionID,
		"token": creds.Token,
	}

	var resp successResponse
	if err := c.do(ctx, "send heartbeat", http.MethodPost, "/session/heartbeat", body, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// ListInvites returns all invites and the caller's apparent address.
func (c *Client) ListInvites(ctx context.Context) (*InviteList, error) {
	var resp InviteList
	if err := c.do(ctx, "list invites", http.MethodGet, "/invite/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Invites == nil {
		resp.Invites = []models.Invite{}
	}
	return &resp, nil
}

// CreateInvite creates an invite for busserID and returns its id.
func (c *Client) CreateInvite(ctx context.Context, busserID string, creds Credentials) (string, error) {
	body := map[string]string{
		"busserId":  busserID,
		"sessionId": creds.SessionID,
		"token":     creds.Token,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, "create invite", http.MethodPost, "/invite/create", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListBussers returns every busser known to the backend.
func (c *Client) ListBussers(ctx context.Context) (*BusserList, error) {
	var resp BusserList
	if err := c.do(ctx, "list bussers", http.MethodGet, "/busser/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Bussers == nil {
		resp.Bussers = []models.Busser{}
	}
	return &resp, nil
}

// ListSessions returns every session known to the backend.
func (c *Client) ListSessions(ctx context.Context) ([]models.Session, error) {
	// bare array, unlike the other list endpoints
	var resp []models.Session
	if err := c.do(ctx, "list sessions", http.MethodGet, "/session/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []models.Session{}
	}
	return resp, nil
}

// InviteList is the response of the invite list endpoint.
type InviteList struct {
	Invites []models.Invite `json:"invites"`
	FromIP  string          `json:"fromIp"`
}

// BusserList is the response of the busser list endpoint.
type BusserList struct {
	Bussers []models.Busser `json:"bussers"`
	FromIP  string          `json:"fromIp"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to %s: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if id, err := uuid.NewV7(); err == nil {
		req.Header.Set(RequestIDHeader, id.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(op, resp)
	}

	// read to EOF so caching transports can store the body
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}

	return nil
}
