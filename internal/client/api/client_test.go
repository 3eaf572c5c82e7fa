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

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/auth/", time.Second)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, c.Ping(context.Background()))
}

func TestClient_Signup(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signup", r.URL.Path)
		var req SignupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@x.com", req.Email)
		assert.Equal(t, "Ann", req.FirstName)
		if req.Email == "a@x.com" {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	})

	err := c.Signup(context.Background(), SignupRequest{Email: "a@x.com", FirstName: "Ann", LastName: "Lee", Password: "pw"})
	require.ErrorIs(t, err, ErrBadRequest)
	assert.Contains(t, err.Error(), "Email already registered")
}

func TestClient_Login(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "good" {
			writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		_ = json.NewEncoder(w).Encode(Token{AccessToken: "tok", TokenType: "bearer"})
	})

	tok, err := c.Login(context.Background(), "a@x.com", "good")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)

	_, err = c.Login(context.Background(), "a@x.com", "bad")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestClient_ChangePassword_SendsBearer(t *testing.T) {
	var gotAuth string
	var got ChangePasswordRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.ChangePassword(context.Background(), "tok", ChangePasswordRequest{OldPassword: "a", NewPassword: "b"}))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Empty(t, got.Email)

	require.NoError(t, c.ChangePassword(context.Background(), "", ChangePasswordRequest{Email: "a@x.com", OldPassword: "a", NewPassword: "b"}))
	assert.Empty(t, gotAuth)
	assert.Equal(t, "a@x.com", got.Email)
}

func TestClient_UpdateProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasLast := body["lastname"]
		assert.False(t, hasLast)
		_ = json.NewEncoder(w).Encode(Profile{FirstName: body["firstname"].(string), LastName: "Lee", Email: "a@x.com"})
	})

	first := "Bo"
	p, err := c.UpdateProfile(context.Background(), "tok", ProfileUpdate{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Bo", p.FirstName)
	assert.Equal(t, "Lee", p.LastName)
}

func TestClient_ListUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/admin/users", r.URL.Path)
		if r.Header.Get("Authorization") == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		_ = json.NewEncoder(w).Encode([]User{{ID: "1", Email: "a@x.com"}, {ID: "2", Email: "b@x.com"}})
	})

	list, err := c.ListUsers(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b@x.com", list[1].Email)

	_, err = c.ListUsers(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		code int
		want error
	}{
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"unprocessable", http.StatusUnprocessableEntity, ErrBadRequest},
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"internal", http.StatusInternalServerError, ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeDetail(w, tt.code, "x")
			})
			err := c.Ping(context.Background())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(url, time.Second).Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestErrorDetail_FallsBackToBody(t *testing.T) {
	assert.Equal(t, "plain text", errorDetail([]byte(" plain text\n")))
	assert.Equal(t, "msg", errorDetail([]byte(`{"detail":"msg"}`)))
}
