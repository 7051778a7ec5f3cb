package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/log"
	"github.com/ucs-toolbox/podcfg/internal/workbook"
)

var setupForce bool

// setupCmd creates a fresh workbook. It never talks to Intersight, so it
// runs without credentials.
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create a new configuration workbook with sample rows and dropdowns",
	Run: func(_ *cobra.Command, _ []string) {
		runExit(runSetup())
	},
}

func runSetup() error {
	cfg, err := config.Load(args)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return err
	}

	log.SetLevel(cfg.LogLevel)

	wb, err := workbook.Create(cfg.Workbook, setupForce)
	if err != nil {
		slog.Error("Failed to create workbook", "path", cfg.Workbook, "error", err)
		return err
	}
	defer wb.Close()

	if err := wb.Save(); err != nil {
		slog.Error("Failed to save workbook", "path", cfg.Workbook, "error", err)
		return err
	}

	slog.Info("Workbook created", "path", cfg.Workbook, "templateVersion", workbook.TemplateVersion)

	return nil
}

func init() {
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "replace the workbook if it already exists")

	rootCmd.AddCommand(setupCmd)
}
