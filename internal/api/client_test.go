package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]string
	Header http.Header
}

// newTestServer serves a canned response per path and records every request.
func newTestServer(t *testing.T, status int, responses map[string]string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone()}
		if r.Body != nil && r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		requests = append(requests, rec)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responses[r.URL.Path]))
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

var testCreds = Credentials{SessionID: "sess-1", Token: "tok-1"}

func TestClient_RegisterSession(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, map[string]string{
		"/api/session/register": `{"id":"sess-1","token":"tok-1"}`,
	})

	client := New(srv.URL, srv.Client())
	resp, err := client.RegisterSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resp.ID)
	assert.Equal(t, "tok-1", resp.Token)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.NotEmpty(t, req.Header.Get(RequestIDHeader))
	assert.Empty(t, req.Body)
}

func TestClient_FindAvailableBussers(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, map[string]string{
		"/api/session/match": `{
			"availableBussers": [{"id":"b-1","lastHeartbeat":"2026-10-18T10:00:00Z","sessionId":null}],
			"sessionId": "sess-1",
			"fromIp": "203.0.113.7",
			"lastChecked": "2026-10-18T10:00:05Z"
		}`,
	})

	client := New(srv.URL+"/", srv.Client())
	resp, err := client.FindAvailableBussers(context.Background(), testCreds)
	require.NoError(t, err)

	require.Len(t, resp.AvailableBussers, 1)
	assert.Equal(t, "b-1", resp.AvailableBussers[0].ID)
	assert.Nil(t, resp.AvailableBussers[0].SessionID)
	assert.Equal(t, time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC), resp.AvailableBussers[0].LastHeartbeat)
	assert.Equal(t, "203.0.113.7", resp.FromIP)

	req := (*requests)[0]
	assert.Equal(t, "/api/session/match", req.Path)
	assert.Equal(t, map[string]string{"sessionId": "sess-1", "token": "tok-1"}, req.Body)
}

func TestClient_AssignBusser(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, map[string]string{
		"/api/session/assign": `{"success":true}`,
	})

	client := New(srv.URL, srv.Client())
	ok, err := client.AssignBusser(context.Background(), "b-1", testCreds)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"busserId": "b-1", "sessionId": "sess-1", "token": "tok-1"}, (*requests)[0].Body)
}

func TestClient_SendHeartbeat_usesIDField(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, map[string]string{
		"/api/session/heartbeat": `{"success":true}`,
	})

	client := New(srv.URL, srv.Client())
	ok, err := client.SendHeartbeat(context.Background(), testCreds)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"id": "sess-1", "token": "tok-1"}, (*requests)[0].Body)
}

func TestClient_CreateInvite(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusCreated, map[string]string{
		"/api/invite/create": `{"id":"inv-1"}`,
	})

	client := New(srv.URL, srv.Client())
	id, err := client.CreateInvite(context.Background(), "b-1", testCreds)
	require.NoError(t, err)
	assert.Equal(t, "inv-1", id)
}

func TestClient_Lists(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, map[string]string{
		"/api/invite/list":  `{"invites":[{"id":"inv-1","busserId":"b-1","sessionId":"sess-1","createdAt":"2026-10-18T10:00:00Z","accepted":true}],"fromIp":"203.0.113.7"}`,
		"/api/busser/list":  `{"bussers":null,"fromIp":"203.0.113.7"}`,
		"/api/session/list": `[{"id":"sess-1","lastIp":"203.0.113.7","createdAt":"2026-10-18T10:00:00Z","lastHeartbeat":"2026-10-18T10:00:00Z"}]`,
	})
	client := New(srv.URL, srv.Client())
	ctx := context.Background()

	invites, err := client.ListInvites(ctx)
	require.NoError(t, err)
	require.Len(t, invites.Invites, 1)
	assert.True(t, invites.Invites[0].Accepted)

	bussers, err := client.ListBussers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, bussers.Bussers)
	assert.Empty(t, bussers.Bussers)
	assert.Equal(t, "203.0.113.7", bussers.FromIP)

	sessions, err := client.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].ID)

	for _, req := range *requests {
		assert.Equal(t, http.MethodGet, req.Method)
	}
}

func TestClient_nonSuccessStatusIncludesStatusText(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		call    func(*Client) error
		message string
	}{
		{
			name:   "register",
			status: http.StatusInternalServerError,
			call: func(c *Client) error {
				_, err := c.RegisterSession(context.Background())
				return err
			},
			message: "failed to register session: Internal Server Error",
		},
		{
			name:   "assign",
			status: http.StatusForbidden,
			call: func(c *Client) error {
				_, err := c.AssignBusser(context.Background(), "b-1", testCreds)
				return err
			},
			message: "failed to assign busser: Forbidden",
		},
		{
			name:   "heartbeat",
			status: http.StatusUnauthorized,
			call: func(c *Client) error {
				_, err := c.SendHeartbeat(context.Background(), testCreds)
				return err
			},
			message: "failed to send heartbeat: Unauthorized",
		},
		{
			name:   "list sessions",
			status: http.StatusNotFound,
			call: func(c *Client) error {
				_, err := c.ListSessions(context.Background())
				return err
			},
			message: "failed to list sessions: Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, nil)
			err := tt.call(New(srv.URL, srv.Client()))
			require.Error(t, err)
			assert.EqualError(t, err, tt.message)
			assert.True(t, IsStatus(err, tt.status))

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
		})
	}
}

func TestClient_networkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, nil)
	_, err := client.RegisterSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to register session")

	var httpErr *HTTPError
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.NotErrorAs(t, err, &httpErr)
}

func TestClient_invalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, map[string]string{
		"/api/session/register": `not json`,
	})

	_, err := New(srv.URL, srv.Client()).RegisterSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode register session response")
}

func TestCredentials_IsZero(t *testing.T) {
	assert.True(t, Credentials{}.IsZero())
	assert.True(t, Credentials{SessionID: "s"}.IsZero())
	assert.True(t, Credentials{Token: "t"}.IsZero())
	assert.False(t, testCreds.IsZero())
}
