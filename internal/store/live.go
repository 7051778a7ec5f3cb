package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/cache"
	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/intersight"
	"github.com/ucs-toolbox/podcfg/internal/model"
)

type intersightRepository struct {
	client   *intersight.Client
	orgCache *cache.Cache[string]
}

func newIntersightRepository(client *intersight.Client, cfg *config.Configuration) *intersightRepository {
	return &intersightRepository{
		client:   client,
		orgCache: cache.New[string](cfg.CacheSize, cfg.CacheTTL),
	}
}

func (r *intersightRepository) List(ctx context.Context, objectType, filter string) ([]model.Mo, error) {
	return r.client.List(ctx, objectType, filter)
}

func (r *intersightRepository) FindByName(ctx context.Context, objectType, name, orgMoid string) (*model.Mo, error) {
	filter := fmt.Sprintf("Name eq '%s'", escapeFilterValue(name))
	if orgMoid != "" {
		filter += fmt.Sprintf(" and Organization.Moid eq '%s'", escapeFilterValue(orgMoid))
	}

	results, err := r.client.List(ctx, objectType, filter)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, errors.Wrapf(model.ErrNotFound, "%s %q", objectType, name)
	}

	return &results[0], nil
}

func (r *intersightRepository) Create(ctx context.Context, objectType string, payload map[string]any) (*model.Mo, error) {
	return r.client.Create(ctx, objectType, payload)
}

func (r *intersightRepository) Patch(ctx context.Context, objectType, moid string, payload map[string]any) (*model.Mo, error) {
	return r.client.Patch(ctx, objectType, moid, payload)
}

func (r *intersightRepository) OrganizationMoid(ctx context.Context, name string) (string, error) {
	if moid, ok := r.orgCache.Get(name); ok {
		return moid, nil
	}

	org, err := r.FindByName(ctx, model.TypeOrganization, name, "")
	if err != nil {
		return "", err
	}

	r.orgCache.Set(name, org.Moid)

	return org.Moid, nil
}

func (r *intersightRepository) Servers(ctx context.Context) ([]model.Server, error) {
	results, err := r.client.List(ctx, model.TypeRackUnit, "")
	if err != nil {
		return nil, err
	}

	servers := make([]model.Server, 0, len(results))

	for _, mo := range results {
		servers = append(servers, model.Server{
			Moid:   mo.Moid,
			Name:   mo.Name,
			Serial: mo.Serial,
			Model:  mo.Model,
		})
	}

	return servers, nil
}

// escapeFilterValue quotes single quotes for inclusion in a $filter string
// literal.
func escapeFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
