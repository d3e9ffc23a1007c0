// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/tutorchat/tui/internal/auth"
)

// HandleLogin signs the user in and persists the session.
func (a *App) HandleLogin(args []string) error {
	parser := NewArgParser(args)

	username := parser.Flag("username", "u")
	if username == "" {
		var err error
		username, err = promptLine("Username: ")
		if err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pair, err := a.Session.Login(ctx, username, password)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Signed in as %s.", pair.Username)))
	return nil
}

// HandleSignup creates an account and signs it in.
func (a *App) HandleSignup(args []string) error {
	parser := NewArgParser(args)

	username := parser.Flag("username", "u")
	if username == "" {
		var err error
		username, err = promptLine("Username: ")
		if err != nil {
			return err
		}
	}
	email := parser.Flag("email", "e")
	if email == "" {
		var err error
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pair, err := a.Session.SignUp(ctx, username, email, password)
	if err != nil {
		return describeAuthError(err)
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Account created. Signed in as %s.", pair.Username)))
	return nil
}

// HandleLogout signs out and clears stored credentials.
func (a *App) HandleLogout(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wasAuthenticated := a.Session.IsAuthenticated()
	a.Session.Logout(ctx)

	if wasAuthenticated {
		fmt.Println(successStyle.Render("Signed out."))
	} else {
		fmt.Println(infoStyle.Render("Already signed out."))
	}
	return nil
}

// HandleStatus prints session and backend status.
func (a *App) HandleStatus(args []string) error {
	fmt.Println(welcomeStyle.Render("tutorchat status"))
	fmt.Println()

	if a.Session.IsAuthenticated() {
		fmt.Printf("  Session:  %s\n", successStyle.Render("signed in as "+a.Session.Username()))
		if a.Session.WillAccessExpireSoon() {
			fmt.Printf("  Access:   %s\n", infoStyle.Render("expiring soon (will refresh)"))
		} else {
			fmt.Printf("  Access:   %s\n", infoStyle.Render("valid"))
		}
	} else {
		fmt.Printf("  Session:  %s\n", infoStyle.Render("signed out"))
	}

	fmt.Printf("  Auth:     %s\n", a.Config.API.AuthBaseURL)
	fmt.Printf("  API:      %s\n", a.Config.API.BaseURL)
	fmt.Printf("  AI:       %s\n", a.Config.API.AIBaseURL)

	// A cheap authenticated call proves the whole request path.
	if a.Session.IsAuthenticated() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if profile, err := a.Users.Current(ctx); err != nil {
			fmt.Printf("  Backend:  %s\n", errorStyle.Render(err.Error()))
		} else {
			fmt.Printf("  Backend:  %s\n", successStyle.Render("reachable ("+profile.Username+")"))
		}
	}
	return nil
}

// describeAuthError converts the auth error taxonomy into user-facing text.
func describeAuthError(err error) error {
	var credErr *auth.CredentialError
	if errors.As(err, &credErr) {
		msg := credErr.Message
		for field, detail := range credErr.FieldErrors {
			msg += fmt.Sprintf("\n  %s: %s", field, detail)
		}
		return errors.New(msg)
	}
	if errors.Is(err, auth.ErrNetwork) || errors.Is(err, auth.ErrBackendUnreachable) {
		return fmt.Errorf("could not reach the server: %w", err)
	}
	return err
}

func promptLine(prompt string) (string, error) {
	fmt.Print(promptStyle.Render(prompt))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(promptStyle.Render(prompt))
	defer fmt.Println()

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
