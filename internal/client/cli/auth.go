package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for account details and creates a new account. On
// success the server issues an email-verification code out of band; the
// user confirms it with the verify command.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.api.Register(ctx, name, email, string(password)); err != nil {
		return err
	}

	fmt.Println("Success! Check your inbox for the verification code.")
	return nil
}

// Login prompts for credentials and authenticates. On success the token
// pair is held by the API client and the prompt shows the account email.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		fmt.Println("Login unsuccessful:", err)
		return err
	}

	a.userName = user.Email
	fmt.Println("Login successful")
	return nil
}

// Refresh exchanges the stored refresh token for a fresh access token.
func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		fmt.Println("Refresh unsuccessful:", err)
		return err
	}
	fmt.Println("Token refreshed")
	return nil
}

// Logout revokes the current session on the server.
func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		fmt.Println("Logout unsuccessful:", err)
		return err
	}
	a.userName = ""
	fmt.Println("Logged out")
	return nil
}

// VerifyEmail prompts for the emailed code and confirms the account.
func (a *App) VerifyEmail(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	code, err := getSimpleText(a.reader, "Enter verification code", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.VerifyEmail(ctx, email, code); err != nil {
		fmt.Println("Verification unsuccessful:", err)
		return err
	}

	fmt.Println("Email verified")
	return nil
}

// ForgotPassword requests a password-reset code for an email address.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.api.ForgotPassword(ctx, email); err != nil {
		fmt.Println("Request unsuccessful:", err)
		return err
	}

	fmt.Println("If the account exists, a reset code has been sent")
	return nil
}

// ResetPassword walks through the reset flow: the code is checked first so
// the user does not type a new password for a dead code, then consumed by
// the actual reset.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	code, err := getSimpleText(a.reader, "Enter reset code", os.Stdout)
	if err != nil {
		return err
	}

	valid, reason, err := a.api.VerifyResetCode(ctx, email, code)
	if err != nil {
		fmt.Println("Check unsuccessful:", err)
		return err
	}
	if !valid {
		fmt.Println(reason)
		return nil
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.ResetPassword(ctx, email, code, string(password)); err != nil {
		fmt.Println("Reset unsuccessful:", err)
		return err
	}

	fmt.Println("Password updated. Log in with the new password.")
	return nil
}
