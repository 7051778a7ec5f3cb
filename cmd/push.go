package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ucs-toolbox/podcfg/internal/provision"
)

// pushCmd replays the Pools and Policies sheets.
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Create the pools and policies defined in the workbook",
	Run: func(cmd *cobra.Command, _ []string) {
		runExit(runPush(cmd.Context()))
	},
}

func runPush(ctx context.Context) error {
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

	pools, err := wb.Pools()
	if err != nil {
		slog.Error("Failed to read the Pools sheet", "error", err)
		return err
	}

	policies, err := wb.Policies()
	if err != nil {
		slog.Error("Failed to read the Policies sheet", "error", err)
		return err
	}

	driver := provision.NewDriver(repository, cfg)

	poolResult, err := driver.Pools(ctx, pools)
	if err != nil {
		slog.Error("Pool run aborted", "error", err)
		return err
	}

	policyResult, err := driver.Policies(ctx, policies)
	if err != nil {
		slog.Error("Policy run aborted", "error", err)
		return err
	}

	if err := reportResult(poolResult); err != nil {
		return err
	}

	return reportResult(policyResult)
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
