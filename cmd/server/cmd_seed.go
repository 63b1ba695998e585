package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-workspace/internal/fixture"
	"github.com/vovakirdan/wirechat-workspace/internal/store/sqlite"
)

// seedCmd loads users, channels and DMs from a YAML file
var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Seed users, channels and DMs from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	w, err := fixture.Load(args[0])
	if err != nil {
		return err
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := fixture.Seed(cmd.Context(), st, w); err != nil {
		return err
	}

	logger.Info().
		Str("db_path", cfg.DatabasePath).
		Int("users", len(w.Users)).
		Int("channels", len(w.Channels)).
		Int("dms", len(w.DMs)).
		Msg("workspace seeded")
	return nil
}
