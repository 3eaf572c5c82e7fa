package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/userkeeper/internal/client/api"
	"github.com/dmitrijs2005/userkeeper/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) fail(err error) error {
	fmt.Fprintln(a.out, "Error:", err)
	return err
}

func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Signup creates an account. It does not log the user in.
func (a *App) Signup(ctx context.Context) error {
	var req api.SignupRequest
	var err error

	if req.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return a.fail(err)
	}
	if req.FirstName, err = getSimpleText(a.reader, "Enter first name", a.out); err != nil {
		return a.fail(err)
	}
	if req.LastName, err = getSimpleText(a.reader, "Enter last name", a.out); err != nil {
		return a.fail(err)
	}
	if req.Password, err = a.askPassword("Enter password"); err != nil {
		return a.fail(err)
	}

	if err := a.session.Signup(ctx, req); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Account created, you can now log in")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.fail(err)
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return a.fail(err)
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Logged in as", email)
	return nil
}

// Passwd changes the password of the current session, or of the account
// identified by an email prompt when logged out.
func (a *App) Passwd(ctx context.Context) error {
	var email string
	if !a.isLoggedIn() {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return a.fail(err)
		}
	}

	oldPassword, err := a.askPassword("Enter current password")
	if err != nil {
		return a.fail(err)
	}
	newPassword, err := a.askPassword("Enter new password")
	if err != nil {
		return a.fail(err)
	}

	if err := a.session.ChangePassword(ctx, email, oldPassword, newPassword); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Password updated")
	return nil
}

// Profile updates first and/or last name. Empty answers leave a field as is.
func (a *App) Profile(ctx context.Context) error {
	first, err := getSimpleText(a.reader, "Enter first name (empty to keep)", a.out)
	if err != nil {
		return a.fail(err)
	}
	last, err := getSimpleText(a.reader, "Enter last name (empty to keep)", a.out)
	if err != nil {
		return a.fail(err)
	}

	var upd api.ProfileUpdate
	if first != "" {
		upd.FirstName = &first
	}
	if last != "" {
		upd.LastName = &last
	}

	p, err := a.session.UpdateProfile(ctx, upd)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Profile: %s %s <%s>\n", p.FirstName, p.LastName, p.Email)
	return nil
}

func (a *App) Users(ctx context.Context) error {
	list, err := a.session.ListUsers(ctx)
	if err != nil {
		return a.fail(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tCREATED")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\n", u.ID, u.Email, u.FirstName, u.LastName, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
