package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ucs-toolbox/podcfg/internal/provision"
)

// profilesCmd replays the Profiles sheet. Profiles are derived from an
// existing template and optionally assigned a server; deployment is always
// left to the operator.
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Create the server profiles defined in the workbook",
	Run: func(cmd *cobra.Command, _ []string) {
		runExit(runProfiles(cmd.Context()))
	},
}

func runProfiles(ctx context.Context) error {
	ctx, cfg, repository, shutdown, err := initRun(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	wb, err := openWorkbook(cfg)
	if err != nil {
		return err
	}
	defer wb.Close()

	profiles, err := wb.Profiles()
	if err != nil {
		slog.Error("Failed to read the Profiles sheet", "error", err)
		return err
	}

	result, err := provision.NewDriver(repository, cfg).Profiles(ctx, profiles)
	if err != nil {
		slog.Error("Profile run aborted", "error", err)
		return err
	}

	return reportResult(result)
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
