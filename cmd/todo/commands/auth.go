package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-todo-client/internal/models"
	"github.com/benvon/smart-todo-client/internal/session"
)

// whoami is the output of the whoami command
type whoami struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

func newRegisterCmd(a *app) *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Register(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			return render(cmd.OutOrStdout(), a.output, user, func(w io.Writer) error {
				return renderUser(w, user)
			})
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	for _, name := range []string{"username", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var req models.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.client.Login(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := a.session.Login(cmd.Context(), resp.AccessToken); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			return render(cmd.OutOrStdout(), a.output, resp.User, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in as %s\n", resp.User.Username)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user of the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			claims, ok := a.session.Claims(ctx)
			if !ok {
				return userError("", session.ErrIdentityMissing)
			}
			sub, ok := claims.Subject()
			if !ok {
				return userError("", session.ErrIdentityMissing)
			}

			info := whoami{
				UserID:  sub,
				Email:   claims.String("email"),
				Expired: a.session.Expired(ctx),
			}
			if exp, ok := a.session.ExpiresAt(ctx); ok {
				info.ExpiresAt = &exp
			}

			return render(cmd.OutOrStdout(), a.output, info, func(w io.Writer) error {
				_, _ = fmt.Fprintf(w, "%s %s\n", headerStyle.Render("User"), info.UserID)
				if info.Email != "" {
					_, _ = fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Email"), info.Email)
				}
				switch {
				case info.ExpiresAt == nil:
					_, _ = fmt.Fprintln(w, summaryStyle.Render("Token has no expiry"))
				case info.Expired:
					_, _ = fmt.Fprintln(w, pendingStyle.Render("Token expired at "+info.ExpiresAt.Local().Format(time.RFC1123)))
				default:
					_, _ = fmt.Fprintln(w, doneStyle.Render("Token valid until "+info.ExpiresAt.Local().Format(time.RFC1123)))
				}
				return nil
			})
		},
	}
}
