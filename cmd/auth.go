package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shutter/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for a bearer token and stores it with a CSRF token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username, password, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("logging in", "username", username)
	if err := r.session.Login(ctx, r.gallery, username, password); err != nil {
		return err
	}

	if r.session.CSRF() == "" {
		r.logger.Warn("logged in without a csrf token; write requests may be rejected")
	}
	r.logger.Info("authentication successful")
	return r.writePlain("✓ Logged in as %s\n", username)
}

// AuthLogout clears the stored tokens. Search history is kept.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		var err error
		if email, err = r.prompt("Email"); err != nil {
			return err
		}
	}

	username, password, err := r.credentials(cmd)
	if err != nil {
		return err
	}

	if err := r.gallery.Register(ctx, username, email, password); err != nil {
		return err
	}
	r.logger.Info("account registered", "username", username)
	return r.writePlain("✓ Registered %s; run 'shutter auth login' to sign in\n", username)
}

// AuthStatus reports the logged in account, if any.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	if !r.session.Authenticated() {
		return r.writePlain("✗ Not logged in\nAPI: %s\n", r.config.ResolveBaseURL())
	}

	user, err := r.gallery.Me(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.writePlain("✓ Logged in as %s", user.Username)
	if user.Role != "" {
		r.writePlain(" (%s)", user.Role)
	}
	r.writePlain("\nAPI: %s\n", r.config.ResolveBaseURL())
	if r.session.CSRF() == "" {
		r.writePlain("CSRF: missing\n")
	}
	return nil
}

// credentials reads --username and --password, prompting for whichever is missing.
func (r *Runner) credentials(cmd *cli.Command) (string, string, error) {
	username := strings.TrimSpace(cmd.String("username"))
	password := cmd.String("password")

	var err error
	if username == "" {
		if username, err = r.prompt("Username"); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = r.prompt("Password"); err != nil {
			return "", "", err
		}
	}
	if username == "" || password == "" {
		return "", "", fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}
	return username, password, nil
}
