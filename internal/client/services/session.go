// Package services contains the CLI's session service: it talks to the
// server through the api package and keeps the access token in the local
// metadata store between runs.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userkeeper/internal/client/api"
	"github.com/dmitrijs2005/userkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/userkeeper/internal/common"
)

const (
	keyToken = "access_token"
	keyEmail = "email"
)

var ErrNotLoggedIn = errors.New("not logged in")

// API is the subset of *api.Client the session service needs.
type API interface {
	Ping(ctx context.Context) error
	Signup(ctx context.Context, req api.SignupRequest) error
	Login(ctx context.Context, email, password string) (*api.Token, error)
	ChangePassword(ctx context.Context, token string, req api.ChangePasswordRequest) error
	UpdateProfile(ctx context.Context, token string, upd api.ProfileUpdate) (*api.Profile, error)
	ListUsers(ctx context.Context, token string) ([]api.User, error)
}

type SessionService struct {
	api   API
	meta  metadata.Repository
	token string
	email string
}

func NewSessionService(a API, meta metadata.Repository) *SessionService {
	return &SessionService{api: a, meta: meta}
}

// Restore loads a previously saved session, if any.
func (s *SessionService) Restore(ctx context.Context) error {
	token, err := s.meta.Get(ctx, keyToken)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	email, err := s.meta.Get(ctx, keyEmail)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	s.token, s.email = token, email
	return nil
}

func (s *SessionService) IsLoggedIn() bool { return s.token != "" }

func (s *SessionService) Email() string { return s.email }

func (s *SessionService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx)
}

func (s *SessionService) Signup(ctx context.Context, req api.SignupRequest) error {
	return s.api.Signup(ctx, req)
}

func (s *SessionService) Login(ctx context.Context, email, password string) error {
	tok, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.meta.Set(ctx, keyToken, tok.AccessToken); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := s.meta.Set(ctx, keyEmail, email); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.token, s.email = tok.AccessToken, email
	return nil
}

// ChangePassword uses the current session when logged in. Otherwise the
// email is sent as proof together with the old password.
func (s *SessionService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	req := api.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if !s.IsLoggedIn() {
		req.Email = email
	}
	// A 401 here may just mean a wrong old password, so the session is kept.
	return s.api.ChangePassword(ctx, s.token, req)
}

func (s *SessionService) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*api.Profile, error) {
	if !s.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}
	p, err := s.api.UpdateProfile(ctx, s.token, upd)
	return p, s.withSession(ctx, err)
}

func (s *SessionService) ListUsers(ctx context.Context) ([]api.User, error) {
	if !s.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}
	list, err := s.api.ListUsers(ctx, s.token)
	return list, s.withSession(ctx, err)
}

// Logout forgets the token locally. Tokens are stateless, so the server is
// not involved.
func (s *SessionService) Logout(ctx context.Context) error {
	s.token, s.email = "", ""
	return s.meta.Clear(ctx)
}

// withSession drops a session the server no longer accepts.
func (s *SessionService) withSession(ctx context.Context, err error) error {
	if err == nil || !s.IsLoggedIn() || !errors.Is(err, api.ErrUnauthorized) {
		return err
	}
	if lerr := s.Logout(ctx); lerr != nil {
		return errors.Join(err, lerr)
	}
	return fmt.Errorf("%w (session expired, please log in again)", err)
}
