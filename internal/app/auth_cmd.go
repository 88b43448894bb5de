package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hitoshi/articlefeed/internal/session"
)

// statusOutput はstatusコマンドのJSON出力。
type statusOutput struct {
	State         string     `json:"state"`
	UserID        int64      `json:"userId,omitempty"`
	Email         string     `json:"email,omitempty"`
	Name          string     `json:"name,omitempty"`
	AccessExpires *time.Time `json:"accessTokenExpiresAt,omitempty"`
	Expired       bool       `json:"expired,omitempty"`
	SessionFile   string     `json:"sessionFile,omitempty"`
}

func (a *App) authCommands() []*cobra.Command {
	register := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Long: `Create a new account. The backend sends a verification email; the
account can log in after the email address is verified.

Examples:
  articlefeed register --name Alice --email alice@example.com --password 'Passw0rd!'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			msg, err := a.auth.Register(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			return a.printMessage(msg)
		},
	}
	register.Flags().String("name", "", "display name")
	register.Flags().String("email", "", "email address")
	register.Flags().String("password", "", "password (8+ chars with upper, lower, digit and symbol)")

	verify := &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Verify an email address with the token from the verification email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			msg, err := a.auth.VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printMessage(msg)
		},
	}

	resend := &cobra.Command{
		Use:   "resend-verification <email>",
		Short: "Send the verification email again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			msg, err := a.auth.ResendVerification(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printMessage(msg)
		},
	}

	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if err := a.auth.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			return a.printStatus()
		},
	}
	login.Flags().String("email", "", "email address")
	login.Flags().String("password", "", "password")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			a.articles.Reset()
			return a.printMessage("Logged out")
		},
	}

	forgot := &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			msg, err := a.auth.RequestPasswordReset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printMessage(msg)
		},
	}

	reset := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			token, _ := cmd.Flags().GetString("token")
			password, _ := cmd.Flags().GetString("password")
			msg, err := a.auth.ResetPassword(cmd.Context(), token, password)
			if err != nil {
				return err
			}
			return a.printMessage(msg)
		},
	}
	reset.Flags().String("token", "", "reset token")
	reset.Flags().String("password", "", "new password")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Services(cmd.Context()); err != nil {
				return err
			}
			return a.printStatus()
		},
	}

	return []*cobra.Command{register, verify, resend, login, logout, forgot, reset, status}
}

// printStatus は現在の認証状態とアクセストークンの有効期限を出力する。
func (a *App) printStatus() error {
	snap := a.auth.Snapshot()
	out := statusOutput{State: snap.State.String(), SessionFile: a.sessionFile}
	if snap.User != nil {
		out.UserID = snap.User.ID
		out.Email = snap.User.Email
		out.Name = snap.User.Name
	}
	if token, ok := a.store.AccessToken(); ok {
		exp, err := session.TokenExpiry(token)
		switch {
		case err == nil:
			out.AccessExpires = &exp
			out.Expired = !exp.After(time.Now())
		case errors.Is(err, session.ErrNoExpiry):
		default:
			a.logger.Debug("access token expiry unavailable")
		}
	}

	if a.jsonOut {
		return a.printJSON(out)
	}
	if snap.User == nil {
		_, err := fmt.Fprintln(a.out, "Not logged in")
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s <%s> (id %d)\n", out.Name, out.Email, out.UserID)
	if out.AccessExpires != nil {
		label := "expires"
		if out.Expired {
			label = "expired"
		}
		fmt.Fprintf(a.out, "Access token %s at %s\n", label, out.AccessExpires.Local().Format(time.RFC3339))
	}
	return nil
}
