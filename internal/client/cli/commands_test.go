package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/client/api"
	"github.com/dmitrijs2005/userkeeper/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	loggedIn bool
	email    string

	pingErr   error
	loginErr  error
	changeErr error

	restored   bool
	gotSignup  api.SignupRequest
	gotLogin   [2]string
	gotChange  [3]string
	gotProfile api.ProfileUpdate
	users      []api.User
}

func (f *fakeSession) Restore(ctx context.Context) error { f.restored = true; return nil }
func (f *fakeSession) IsLoggedIn() bool                  { return f.loggedIn }
func (f *fakeSession) Email() string                     { return f.email }
func (f *fakeSession) Ping(ctx context.Context) error    { return f.pingErr }
func (f *fakeSession) Signup(ctx context.Context, req api.SignupRequest) error {
	f.gotSignup = req
	return nil
}
func (f *fakeSession) Login(ctx context.Context, email, password string) error {
	f.gotLogin = [2]string{email, password}
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedIn, f.email = true, email
	return nil
}
func (f *fakeSession) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	f.gotChange = [3]string{email, oldPassword, newPassword}
	return f.changeErr
}
func (f *fakeSession) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*api.Profile, error) {
	f.gotProfile = upd
	return &api.Profile{FirstName: "Bo", LastName: "Lee", Email: f.email}, nil
}
func (f *fakeSession) ListUsers(ctx context.Context) ([]api.User, error) { return f.users, nil }
func (f *fakeSession) Logout(ctx context.Context) error {
	f.loggedIn, f.email = false, ""
	return nil
}

// stubInputs feeds the given answers to text prompts and passwords in order.
func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		s := texts[0]
		texts = texts[1:]
		return s, nil
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		p := passwords[0]
		passwords = passwords[1:]
		return []byte(p), nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func newTestApp(s *fakeSession) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return NewApp(cfg, s, strings.NewReader(""), &out), &out
}

func TestSignup(t *testing.T) {
	stubInputs(t, []string{"a@x.com", "Ann", "Lee"}, []string{"pw"})
	s := &fakeSession{}
	app, out := newTestApp(s)

	require.NoError(t, app.Signup(context.Background()))
	assert.Equal(t, api.SignupRequest{Email: "a@x.com", FirstName: "Ann", LastName: "Lee", Password: "pw"}, s.gotSignup)
	assert.False(t, s.loggedIn)
	assert.Contains(t, out.String(), "Account created")
}

func TestLogin(t *testing.T) {
	stubInputs(t, []string{"a@x.com"}, []string{"pw"})
	s := &fakeSession{}
	app, out := newTestApp(s)

	require.NoError(t, app.Login(context.Background()))
	assert.Equal(t, [2]string{"a@x.com", "pw"}, s.gotLogin)
	assert.True(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Logged in as a@x.com")
}

func TestLogin_FailurePrintsError(t *testing.T) {
	stubInputs(t, []string{"a@x.com"}, []string{"bad"})
	s := &fakeSession{loginErr: api.ErrUnauthorized}
	app, out := newTestApp(s)

	require.ErrorIs(t, app.Login(context.Background()), api.ErrUnauthorized)
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Error: unauthorized")
}

func TestLogin_InputError(t *testing.T) {
	stubInputs(t, nil, nil)
	app, _ := newTestApp(&fakeSession{})
	require.ErrorIs(t, app.Login(context.Background()), io.EOF)
}

func TestPasswd_LoggedOutAsksEmail(t *testing.T) {
	stubInputs(t, []string{"a@x.com"}, []string{"old", "new"})
	s := &fakeSession{}
	app, out := newTestApp(s)

	require.NoError(t, app.Passwd(context.Background()))
	assert.Equal(t, [3]string{"a@x.com", "old", "new"}, s.gotChange)
	assert.Contains(t, out.String(), "Password updated")
}

func TestPasswd_LoggedInUsesSession(t *testing.T) {
	stubInputs(t, nil, []string{"old", "new"})
	s := &fakeSession{loggedIn: true, email: "a@x.com"}
	app, _ := newTestApp(s)

	require.NoError(t, app.Passwd(context.Background()))
	assert.Equal(t, [3]string{"", "old", "new"}, s.gotChange)
}

func TestPasswd_ServerRejects(t *testing.T) {
	stubInputs(t, nil, []string{"same", "same"})
	s := &fakeSession{loggedIn: true, changeErr: errors.New("bad request: New password must be different from the old password")}
	app, out := newTestApp(s)

	require.Error(t, app.Passwd(context.Background()))
	assert.Contains(t, out.String(), "must be different")
}

func TestProfile_EmptyAnswersAreOmitted(t *testing.T) {
	stubInputs(t, []string{"Bo", ""}, nil)
	s := &fakeSession{loggedIn: true, email: "a@x.com"}
	app, out := newTestApp(s)

	require.NoError(t, app.Profile(context.Background()))
	require.NotNil(t, s.gotProfile.FirstName)
	assert.Equal(t, "Bo", *s.gotProfile.FirstName)
	assert.Nil(t, s.gotProfile.LastName)
	assert.Contains(t, out.String(), "Profile: Bo Lee <a@x.com>")
}

func TestUsers_PrintsTable(t *testing.T) {
	s := &fakeSession{loggedIn: true, users: []api.User{
		{ID: "1", Email: "a@x.com", FirstName: "Ann", LastName: "Lee", CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		{ID: "2", Email: "b@x.com", FirstName: "Bo", LastName: "Ng", CreatedAt: time.Date(2024, 1, 3, 3, 4, 0, 0, time.UTC)},
	}}
	app, out := newTestApp(s)

	require.NoError(t, app.Users(context.Background()))
	got := out.String()
	assert.Contains(t, got, "EMAIL")
	assert.Contains(t, got, "a@x.com")
	assert.Contains(t, got, "2024-01-03 03:04")
}

func TestLogout(t *testing.T) {
	s := &fakeSession{loggedIn: true, email: "a@x.com"}
	app, out := newTestApp(s)

	require.NoError(t, app.Logout(context.Background()))
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Logged out")
}
