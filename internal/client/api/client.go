// Package api is the CLI's HTTP client for the userkeeper server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/netx"
)

type SignupRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Password  string `json:"password"`
}

type ChangePasswordRequest struct {
	Email       string `json:"email,omitempty"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ProfileUpdate struct {
	FirstName *string `json:"firstname,omitempty"`
	LastName  *string `json:"lastname,omitempty"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Profile struct {
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdat"`
}

type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdat"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the API rooted at baseURL (route prefix included).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", "", nil, nil)
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.do(ctx, http.MethodPost, "/signup", "", req, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	var tok Token
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// ChangePassword uses the bearer token when one is given and the email in
// req otherwise.
func (c *Client) ChangePassword(ctx context.Context, token string, req ChangePasswordRequest) error {
	return c.do(ctx, http.MethodPut, "/change-password", token, req, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, token string, upd ProfileUpdate) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodPut, "/profile/update", token, upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListUsers(ctx context.Context, token string) ([]User, error) {
	var list []User
	if err := c.do(ctx, http.MethodGet, "/admin/users", token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var header http.Header
	if token != "" {
		header = http.Header{}
		header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	err := netx.DoJSON(ctx, c.http, method, c.baseURL+path, header, in, out)
	if err == nil {
		return nil
	}

	var se *netx.StatusError
	if !errors.As(err, &se) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	detail := errorDetail(se.Body)
	switch {
	case se.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
	case se.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case se.Code >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, detail)
	default:
		return fmt.Errorf("%w: %s", ErrBadRequest, detail)
	}
}

// errorDetail extracts the "detail" message of an error body, falling back
// to the raw body.
func errorDetail(body []byte) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		return e.Detail
	}
	return strings.TrimSpace(string(body))
}
