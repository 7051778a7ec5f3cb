package provision

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

func (d *Driver) profiles(ctx context.Context, rows []model.ProfileRow, result *Result) error {
	if len(rows) == 0 {
		return nil
	}

	templates, err := d.repo.List(ctx, model.TypeTemplate, "")
	if err != nil {
		return err
	}

	servers, err := d.repo.Servers(ctx)
	if err != nil {
		return err
	}

	for i := range rows {
		row := &rows[i]

		if err := d.profile(ctx, row, templates, servers, result); err != nil {
			return err
		}
	}

	manual := result.ManualProfiles()
	if len(manual) > 0 {
		names := make([]string, len(manual))
		for i := range manual {
			names[i] = manual[i].Name
		}

		slog.Warn("Profiles left for manual creation", "count", len(manual), "profiles", strings.Join(names, ", "))
	}

	return nil
}

func (d *Driver) profile(ctx context.Context, row *model.ProfileRow, templates []model.Mo, servers []model.Server, result *Result) error {
	orgMoid, err := d.orgMoid(ctx, row.Organization)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			slog.With(row.AsLogFields()...).Warn("Organization not found, skipping row")
			result.skipped(model.TypeProfile, row.Name, err)

			return nil
		}

		return err
	}

	found, err := d.exists(ctx, model.TypeProfile, row.Name, orgMoid)
	if err != nil {
		return err
	}

	if found {
		slog.With(row.AsLogFields()...).Info("Profile already exists")
		result.skipped(model.TypeProfile, row.Name, nil)

		return nil
	}

	template := matchTemplate(row.Template, templates)
	if template == nil {
		err := errors.Wrapf(model.ErrNotFound, "no template matches %q", row.Template)

		slog.With(row.AsLogFields()...).Warn("Template not matched, profile needs manual creation")
		result.failed(model.TypeProfile, row.Name, err)
		result.manual(*row)

		return nil
	}

	var server *model.Server

	if row.Server != "" {
		server = matchServer(row.Server, servers)
		if server == nil {
			err := errors.Wrapf(model.ErrNotFound, "no server matches %q", row.Server)

			slog.With(row.AsLogFields()...).Warn("Server not matched, profile needs manual creation")
			result.failed(model.TypeProfile, row.Name, err)
			result.manual(*row)

			return nil
		}
	}

	payload := map[string]any{
		"ObjectType":   model.TypeProfile,
		"Name":         row.Name,
		"Description":  row.Description,
		"Organization": model.NewMoRef(model.TypeOrganization, orgMoid),
		"SrcTemplate":  model.NewMoRef(model.TypeTemplate, template.Moid),
	}

	mo, err := d.repo.Create(ctx, model.TypeProfile, payload)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			result.skipped(model.TypeProfile, row.Name, err)

			return nil
		}

		slog.With(row.AsLogFields()...).Error("Failed to create profile", "error", err)
		result.failed(model.TypeProfile, row.Name, err)
		result.manual(*row)

		return nil
	}

	if server != nil {
		assign := map[string]any{
			"AssignedServer": model.NewMoRef(model.TypeRackUnit, server.Moid),
		}

		if _, err := d.repo.Patch(ctx, model.TypeProfile, mo.Moid, assign); err != nil {
			slog.With(row.AsLogFields()...).Error("Failed to assign server", "error", err)
			result.failed(model.TypeProfile, row.Name, err)
			result.manual(*row)

			return nil
		}
	}

	// Deploy is always left to the operator, even when the row asks for
	// it. Pushing configuration to hardware is not this tool's call.
	if row.Deploy {
		slog.With(row.AsLogFields()...).Warn("Deploy requested but not performed, deploy the profile from the Intersight UI")
	}

	slog.With(row.AsLogFields()...).Info("Created profile", "moid", mo.Moid)
	result.created(model.TypeProfile, row.Name, mo.Moid)

	return nil
}

// matchTemplate resolves a workbook template cell against the templates
// that exist, trying exact, case-insensitive, prefix, then substring
// matches in that order.
func matchTemplate(name string, templates []model.Mo) *model.Mo {
	if name == "" {
		return nil
	}

	for i := range templates {
		if templates[i].Name == name {
			return &templates[i]
		}
	}

	for i := range templates {
		if strings.EqualFold(templates[i].Name, name) {
			return &templates[i]
		}
	}

	lower := strings.ToLower(name)

	for i := range templates {
		if strings.HasPrefix(strings.ToLower(templates[i].Name), lower) {
			return &templates[i]
		}
	}

	for i := range templates {
		if strings.Contains(strings.ToLower(templates[i].Name), lower) {
			return &templates[i]
		}
	}

	return nil
}

// matchServer resolves a workbook server cell. The cell may hold the
// combined dropdown form, a bare serial, a name, or a fragment of either.
func matchServer(cell string, servers []model.Server) *model.Server {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}

	// The dropdown form carries the serial after the marker.
	if _, serial, ok := strings.Cut(cell, "| SN:"); ok {
		cell = strings.TrimSpace(serial)
	}

	for i := range servers {
		if servers[i].Serial == cell {
			return &servers[i]
		}
	}

	for i := range servers {
		if strings.EqualFold(servers[i].Name, cell) {
			return &servers[i]
		}
	}

	lower := strings.ToLower(cell)

	for i := range servers {
		if strings.Contains(strings.ToLower(servers[i].Name), lower) ||
			strings.Contains(strings.ToLower(servers[i].Serial), lower) {
			return &servers[i]
		}
	}

	return nil
}
