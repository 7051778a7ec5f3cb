// Package store fronts the Intersight API with a small repository interface
// so the provisioning driver never touches HTTP directly and tests can
// substitute a fake.
package store

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/intersight"
	"github.com/ucs-toolbox/podcfg/internal/model"
)

// Repository is the set of operations the provisioning driver and the
// workbook refresh need.
type Repository interface {
	// List returns managed objects of the given type matching the
	// optional filter expression.
	List(ctx context.Context, objectType, filter string) ([]model.Mo, error)

	// FindByName returns the first object of the given type with the
	// given name, scoped to orgMoid when non-empty. Returns
	// model.ErrNotFound when nothing matches.
	FindByName(ctx context.Context, objectType, name, orgMoid string) (*model.Mo, error)

	// Create creates a managed object and returns its identity.
	Create(ctx context.Context, objectType string, payload map[string]any) (*model.Mo, error)

	// Patch updates an existing managed object by MOID.
	Patch(ctx context.Context, objectType, moid string, payload map[string]any) (*model.Mo, error)

	// OrganizationMoid resolves an organization name to its MOID,
	// caching the result.
	OrganizationMoid(ctx context.Context, name string) (string, error)

	// Servers returns the physical server inventory.
	Servers(ctx context.Context) ([]model.Server, error)
}

// NewRepository returns the live Intersight-backed repository, or the
// in-memory dry-run repository when configured.
func NewRepository(cfg *config.Configuration, logger *logrus.Logger) (Repository, error) {
	if cfg.DryRun {
		return NewDryRun(), nil
	}

	client, err := intersight.New(&cfg.Intersight, logger)
	if err != nil {
		return nil, err
	}

	return newIntersightRepository(client, cfg), nil
}
