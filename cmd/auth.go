package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/repositories"
	"github.com/desertthunder/linkguard/internal/session"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with email and password and persists the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	if password == "" {
		return fmt.Errorf("%w: --password or LINKGUARD_PASSWORD is required", shared.ErrMissingArgument)
	}

	r.session.Restore(ctx)
	r.logger.Info("signing in", "email", email)

	if err := r.session.Login(ctx, email, password); err != nil {
		return err
	}

	user := r.session.User()
	return r.writePlain("✓ Signed in as %s (%s)\n", user.Name, user.Email)
}

// AuthSignup creates an account and signs in.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	req := models.SignupRequest{
		Name:     cmd.String("name"),
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
		Website:  cmd.String("website"),
	}
	if req.Password == "" {
		return fmt.Errorf("%w: --password or LINKGUARD_PASSWORD is required", shared.ErrMissingArgument)
	}

	r.session.Restore(ctx)
	if err := r.session.Signup(ctx, req); err != nil {
		return err
	}

	user := r.session.User()
	return r.writePlain("✓ Account created for %s (%s)\n", user.Name, user.Email)
}

// AuthLogout clears the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.Restore(ctx)
	r.session.Logout(ctx)
	return r.writePlain("✓ Signed out\n")
}

// AuthWhoami validates the stored credential with the backend and prints the user.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	status := r.session.Restore(ctx)
	if status != session.StatusAuthenticated {
		return r.writePlain("✗ Not signed in\n")
	}

	user := r.session.User()
	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlain("✓ Signed in\n")
	r.writePlain("Name:    %s\n", user.Name)
	r.writePlain("Email:   %s\n", user.Email)
	if user.Website != "" {
		r.writePlain("Website: %s\n", user.Website)
	}
	if user.Plan != "" {
		r.writePlain("Plan:    %s\n", user.Plan)
	}
	if tok := r.session.Token(); tok != nil && !tok.Expiry.IsZero() {
		r.writePlain("Expires: %s\n", tok.Expiry.Local().Format("2006-01-02 15:04"))
	}
	if repo, ok := r.creds.(*repositories.CredentialRepository); ok {
		savedAt, found, err := repo.UpdatedAt(ctx)
		if err != nil {
			r.logger.Warn("failed to read credential timestamp", "err", err)
		} else if found {
			r.writePlain("Saved:   %s\n", savedAt.Local().Format("2006-01-02 15:04"))
		}
	}
	return nil
}

// AuthForgotPassword asks the backend to mail a password reset link.
func (r *Runner) AuthForgotPassword(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	if email == "" {
		return fmt.Errorf("%w: --email is required", shared.ErrMissingArgument)
	}

	if err := r.client.ForgotPassword(ctx, email); err != nil {
		return err
	}
	return r.writePlain("✓ If %s is registered, a reset link is on its way\n", email)
}

// AuthProfile sends a partial profile update.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	var update models.ProfileUpdate
	for name, dst := range map[string]**string{"name": &update.Name, "email": &update.Email, "website": &update.Website} {
		if cmd.IsSet(name) {
			v := cmd.String(name)
			*dst = &v
		}
	}
	if update.Name == nil && update.Email == nil && update.Website == nil {
		return fmt.Errorf("%w: set at least one of --name, --email or --website", shared.ErrMissingArgument)
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	user, err := r.session.SaveProfile(ctx, update)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Profile updated for %s (%s)\n", user.Name, user.Email)
}
