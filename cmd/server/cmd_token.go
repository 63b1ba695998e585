package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-workspace/internal/app"
	"github.com/vovakirdan/wirechat-workspace/internal/auth"
	"github.com/vovakirdan/wirechat-workspace/internal/store/sqlite"
)

// tokenCmd issues a session token for a seeded user
var tokenCmd = &cobra.Command{
	Use:   "token <handle>",
	Short: "Issue a session token for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	snap, err := st.Load(cmd.Context())
	if err != nil {
		return err
	}
	user := snap.UserByHandle(args[0])
	if user == nil {
		return fmt.Errorf("no active user with handle %q", args[0])
	}

	token, err := auth.NewService(app.JWTConfig(&cfg)).IssueToken(user.ID, user.Handle)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
