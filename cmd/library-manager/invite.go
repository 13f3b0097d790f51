package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/witr/library-manager/internal/db"
)

var (
	inviteRevoke bool
	inviteRole   string
)

var inviteCmd = &cobra.Command{
	Use:   "invite <email>...",
	Short: "Allow (or with --revoke, stop allowing) emails to sign in",
	Long: `Invite adds emails to the sign-in allow list. The first eboard member
is bootstrapped by inviting them here, letting them sign in once and then
running "invite --role eboard" with the same email.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		q, release, err := database.Acquire(ctx)
		if err != nil {
			return err
		}
		defer release()

		for _, email := range args {
			switch {
			case inviteRevoke:
				err = q.RemoveInvite(ctx, email)
			default:
				err = q.AddInvite(ctx, email)
			}
			switch {
			case errors.Is(err, db.ErrAlreadyExists):
				slog.Info("already invited", slog.String("email", email))
			case errors.Is(err, db.ErrNotFound):
				slog.Info("not invited", slog.String("email", email))
			case err != nil:
				return fmt.Errorf("updating invite for %s: %w", email, err)
			default:
				slog.Info("invite updated", slog.String("email", email), slog.Bool("revoked", inviteRevoke))
			}

			if inviteRole == "" || inviteRevoke {
				continue
			}
			userID, err := q.UserID(ctx, email)
			if errors.Is(err, db.ErrNotFound) {
				slog.Warn("role not set, user has not signed in yet", slog.String("email", email))
				continue
			}
			if err != nil {
				return err
			}
			if err := q.SetUserRole(ctx, userID, inviteRole); err != nil {
				return fmt.Errorf("setting role of %s: %w", email, err)
			}
			slog.Info("role set", slog.String("email", email), slog.String("role", inviteRole))
		}
		return nil
	},
}

func init() {
	inviteCmd.Flags().BoolVar(&inviteRevoke, "revoke", false, "remove the emails from the allow list")
	inviteCmd.Flags().StringVar(&inviteRole, "role", "", "also give an existing user this role (member, cdnerd, staff, eboard)")
	rootCmd.AddCommand(inviteCmd)
}
