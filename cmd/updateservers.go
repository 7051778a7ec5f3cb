package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

// updateserversCmd refreshes only the server inventory, leaving the rest of
// the workbook untouched.
var updateserversCmd = &cobra.Command{
	Use:   "updateservers",
	Short: "Refresh the Servers sheet and the server dropdown only",
	Run: func(cmd *cobra.Command, _ []string) {
		runExit(runUpdateServers(cmd.Context()))
	},
}

func runUpdateServers(ctx context.Context) error {
	ctx, cfg, repository, shutdown, err := initRun(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	servers, err := repository.Servers(ctx)
	if err != nil {
		slog.Error("Failed to list servers", "error", err)
		return err
	}

	wb, err := openWorkbook(cfg)
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.RefreshServers(servers); err != nil {
		slog.Error("Failed to refresh servers", "error", err)
		return err
	}

	if err := wb.Save(); err != nil {
		slog.Error("Failed to save workbook", "error", err)
		return err
	}

	slog.Info("Server inventory refreshed", "servers", len(servers))

	return nil
}

func init() {
	rootCmd.AddCommand(updateserversCmd)
}
