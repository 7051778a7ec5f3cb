package workbook

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

// Inventory carries the live data the refresh writes into the workbook.
type Inventory struct {
	Organizations  []string
	ResourceGroups []string
	Servers        []model.Server
}

// ServerOption is the dropdown form a server takes on the Profiles sheet.
func ServerOption(s model.Server) string {
	return fmt.Sprintf("%s | SN: %s", s.Name, s.Serial)
}

// Refresh rewrites the informational sheets and the dropdown validations
// from inv. The overwrite is idempotent: running it twice with the same
// inventory leaves the workbook unchanged.
func (w *Workbook) Refresh(inv *Inventory) error {
	if err := w.refreshOrganizations(inv.Organizations); err != nil {
		return err
	}

	if err := w.refreshResourceGroups(inv.ResourceGroups); err != nil {
		return err
	}

	return w.RefreshServers(inv.Servers)
}

func (w *Workbook) refreshOrganizations(orgs []string) error {
	if len(orgs) == 0 {
		orgs = defaultOrgOptions
	}

	if err := w.rewriteColumn(SheetOrganizations, "A", orgs); err != nil {
		return err
	}

	targets := []struct{ sheet, column string }{
		{SheetPolicies, colPolicyOrg},
		{SheetTemplate, colTemplateOrg},
		{SheetProfiles, colProfileOrg},
	}

	for _, t := range targets {
		if err := w.setColumnDropdown(t.sheet, t.column, orgs, "organizations"); err != nil {
			return err
		}
	}

	return nil
}

func (w *Workbook) refreshResourceGroups(groups []string) error {
	if len(groups) == 0 {
		return nil
	}

	targets := []struct{ sheet, column string }{
		{SheetTemplate, colTemplateRG},
		{SheetProfiles, colProfileRG},
	}

	for _, t := range targets {
		if err := w.setColumnDropdown(t.sheet, t.column, groups, "resourcegroups"); err != nil {
			return err
		}
	}

	return nil
}

// RefreshServers rewrites the Servers sheet and the server dropdown on the
// Profiles sheet. Exposed separately for the updateservers command.
func (w *Workbook) RefreshServers(servers []model.Server) error {
	rows, err := w.f.GetRows(SheetServers)
	if err != nil {
		return errors.Wrap(err, "reading servers sheet")
	}

	// Clear data rows below the header before rewriting.
	for r := 2; r <= len(rows); r++ {
		for c := 1; c <= len(serverHeaders); c++ {
			cell, _ := coordsToCell(c, r)
			if err := w.f.SetCellValue(SheetServers, cell, nil); err != nil {
				return errors.Wrap(err, "clearing servers sheet")
			}
		}
	}

	options := make([]string, 0, len(servers))

	for i, s := range servers {
		values := []any{s.Name, s.Serial, "Intersight managed server", s.Model}
		for c, v := range values {
			cell, _ := coordsToCell(c+1, i+2)
			if err := w.f.SetCellValue(SheetServers, cell, v); err != nil {
				return errors.Wrap(err, "writing servers sheet")
			}
		}

		options = append(options, ServerOption(s))
	}

	if len(options) == 0 {
		return nil
	}

	return w.setColumnDropdown(SheetProfiles, colProfileServer, options, "servers")
}

// rewriteColumn replaces the data rows of a single-column informational
// sheet.
func (w *Workbook) rewriteColumn(sheet, column string, values []string) error {
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return errors.Wrapf(err, "reading sheet %s", sheet)
	}

	for r := 2; r <= len(rows); r++ {
		if err := w.f.SetCellValue(sheet, fmt.Sprintf("%s%d", column, r), nil); err != nil {
			return errors.Wrapf(err, "clearing sheet %s", sheet)
		}
	}

	for i, v := range values {
		if err := w.f.SetCellValue(sheet, fmt.Sprintf("%s%d", column, i+2), v); err != nil {
			return errors.Wrapf(err, "writing sheet %s", sheet)
		}
	}

	return nil
}
