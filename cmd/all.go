package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ucs-toolbox/podcfg/internal/provision"
	"github.com/ucs-toolbox/podcfg/internal/version"
)

// allCmd refreshes the workbook from the live inventory, then replays every
// sheet in dependency order: pools, policies, templates, then profiles.
var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Refresh the workbook, then create everything it defines in dependency order",
	Run: func(cmd *cobra.Command, _ []string) {
		runExit(runAll(cmd.Context()))
	},
}

func runAll(ctx context.Context) error {
	ctx, cfg, repository, shutdown, err := initRun(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	if err := refreshWorkbook(ctx, cfg, repository); err != nil {
		return err
	}

	wb, err := openWorkbook(cfg)
	if err != nil {
		return err
	}
	defer wb.Close()

	rows, err := provision.ReadRows(wb)
	if err != nil {
		slog.Error("Failed to read the workbook", "error", err)
		return err
	}

	slog.With(version.Current()...).Info("Replaying workbook",
		"pools", len(rows.Pools),
		"policies", len(rows.Policies),
		"templates", len(rows.Templates),
		"profiles", len(rows.Profiles),
	)

	result, err := provision.NewDriver(repository, cfg).All(ctx, rows)
	if err != nil {
		slog.Error("Run aborted", "error", err)
		return err
	}

	return reportResult(result)
}

func init() {
	rootCmd.AddCommand(allCmd)
}
