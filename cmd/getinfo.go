package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/model"
	"github.com/ucs-toolbox/podcfg/internal/store"
	"github.com/ucs-toolbox/podcfg/internal/workbook"
)

// getinfoCmd pulls the live inventory and rewrites the workbook dropdowns
// from it.
var getinfoCmd = &cobra.Command{
	Use:   "getinfo",
	Short: "Refresh the workbook dropdowns from the Intersight inventory",
	Run: func(cmd *cobra.Command, _ []string) {
		runExit(runGetInfo(cmd.Context()))
	},
}

func runGetInfo(ctx context.Context) error {
	ctx, cfg, repository, shutdown, err := initRun(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	return refreshWorkbook(ctx, cfg, repository)
}

// refreshWorkbook rewrites the workbook's informational sheets and dropdown
// validations from the live inventory. Shared by getinfo and all.
func refreshWorkbook(ctx context.Context, cfg *config.Configuration, repository store.Repository) error {
	orgs, err := repository.List(ctx, model.TypeOrganization, "")
	if err != nil {
		slog.Error("Failed to list organizations", "error", err)
		return err
	}

	groups, err := repository.List(ctx, model.TypeResourceGroup, "")
	if err != nil {
		slog.Error("Failed to list resource groups", "error", err)
		return err
	}

	servers, err := repository.Servers(ctx)
	if err != nil {
		slog.Error("Failed to list servers", "error", err)
		return err
	}

	inv := &workbook.Inventory{
		Organizations:  moNames(orgs),
		ResourceGroups: moNames(groups),
		Servers:        servers,
	}

	wb, err := openWorkbook(cfg)
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.Refresh(inv); err != nil {
		slog.Error("Failed to refresh workbook", "error", err)
		return err
	}

	if err := wb.Save(); err != nil {
		slog.Error("Failed to save workbook", "error", err)
		return err
	}

	slog.Info("Workbook refreshed",
		"organizations", len(inv.Organizations),
		"resourceGroups", len(inv.ResourceGroups),
		"servers", len(inv.Servers),
	)

	return nil
}

func moNames(mos []model.Mo) []string {
	names := make([]string, len(mos))
	for i := range mos {
		names[i] = mos[i].Name
	}

	return names
}

func init() {
	rootCmd.AddCommand(getinfoCmd)
}
