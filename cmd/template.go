package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ucs-toolbox/podcfg/internal/provision"
)

// templateCmd replays the Template sheet.
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Create the server profile templates defined in the workbook",
	Run: func(cmd *cobra.Command, _ []string) {
		runExit(runTemplate(cmd.Context()))
	},
}

func runTemplate(ctx context.Context) error {
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

	templates, err := wb.Templates()
	if err != nil {
		slog.Error("Failed to read the Template sheet", "error", err)
		return err
	}

	result, err := provision.NewDriver(repository, cfg).Templates(ctx, templates)
	if err != nil {
		slog.Error("Template run aborted", "error", err)
		return err
	}

	return reportResult(result)
}

func init() {
	rootCmd.AddCommand(templateCmd)
}
