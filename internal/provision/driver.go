// Package provision replays workbook rows as Intersight create calls in
// dependency order: pools, then policies, then templates, then profiles.
package provision

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/model"
	"github.com/ucs-toolbox/podcfg/internal/store"
	"github.com/ucs-toolbox/podcfg/internal/workbook"
)

// Driver replays workbook rows against a repository.
type Driver struct {
	repo        store.Repository
	concurrency int
}

// NewDriver creates a Driver bound to the given repository.
func NewDriver(repo store.Repository, cfg *config.Configuration) *Driver {
	concurrency := 1
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}

	return &Driver{repo: repo, concurrency: concurrency}
}

// Rows holds everything read from a workbook.
type Rows struct {
	Pools     []model.PoolRow
	Policies  []model.PolicyRow
	Templates []model.TemplateRow
	Profiles  []model.ProfileRow
}

// ReadRows loads every data sheet from the workbook.
func ReadRows(wb *workbook.Workbook) (*Rows, error) {
	pools, err := wb.Pools()
	if err != nil {
		return nil, err
	}

	policies, err := wb.Policies()
	if err != nil {
		return nil, err
	}

	templates, err := wb.Templates()
	if err != nil {
		return nil, err
	}

	profiles, err := wb.Profiles()
	if err != nil {
		return nil, err
	}

	return &Rows{Pools: pools, Policies: policies, Templates: templates, Profiles: profiles}, nil
}

// All replays every sheet in dependency order. Row-level failures are
// recorded in the result and do not abort the run; only a broken repository
// or a cancelled context does.
func (d *Driver) All(ctx context.Context, rows *Rows) (*Result, error) {
	result := &Result{}

	phases := []struct {
		name string
		run  func(context.Context, *Rows, *Result) error
	}{
		{"pools", func(ctx context.Context, r *Rows, res *Result) error { return d.pools(ctx, r.Pools, res) }},
		{"policies", func(ctx context.Context, r *Rows, res *Result) error { return d.policies(ctx, r.Policies, res) }},
		{"templates", func(ctx context.Context, r *Rows, res *Result) error { return d.templates(ctx, r.Templates, res) }},
		{"profiles", func(ctx context.Context, r *Rows, res *Result) error { return d.profiles(ctx, r.Profiles, res) }},
	}

	for _, phase := range phases {
		slog.Info("Running phase", "phase", phase.name)

		if err := d.runPhase(ctx, phase.name, phase.run, rows, result); err != nil {
			return result, err
		}
	}

	slog.With(result.AsLogFields()...).Info("Run complete")

	return result, nil
}

// Pools replays only the Pools sheet.
func (d *Driver) Pools(ctx context.Context, rows []model.PoolRow) (*Result, error) {
	result := &Result{}

	return result, d.pools(ctx, rows, result)
}

// Policies replays only the Policies sheet.
func (d *Driver) Policies(ctx context.Context, rows []model.PolicyRow) (*Result, error) {
	result := &Result{}

	return result, d.policies(ctx, rows, result)
}

// Templates replays only the Template sheet.
func (d *Driver) Templates(ctx context.Context, rows []model.TemplateRow) (*Result, error) {
	result := &Result{}

	return result, d.templates(ctx, rows, result)
}

// Profiles replays only the Profiles sheet.
func (d *Driver) Profiles(ctx context.Context, rows []model.ProfileRow) (*Result, error) {
	result := &Result{}

	return result, d.profiles(ctx, rows, result)
}

func (d *Driver) runPhase(ctx context.Context, name string, run func(context.Context, *Rows, *Result) error, rows *Rows, result *Result) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("!!panic occurred", "rec", rec, "stack", string(debug.Stack()))
			err = errors.Errorf("phase %s fatal error, check logs for details", name)
		}
	}()

	return run(ctx, rows, result)
}

// orgMoid resolves an organization name. A missing organization is a row
// error, not a run error.
func (d *Driver) orgMoid(ctx context.Context, name string) (string, error) {
	moid, err := d.repo.OrganizationMoid(ctx, name)
	if err != nil {
		return "", errors.Wrapf(err, "resolving organization %q", name)
	}

	return moid, nil
}

// exists reports whether an object with the given name already exists in the
// organization.
func (d *Driver) exists(ctx context.Context, objectType, name, orgMoid string) (bool, error) {
	_, err := d.repo.FindByName(ctx, objectType, name, orgMoid)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}

	return false, err
}
