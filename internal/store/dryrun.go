package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

// DryRun is a simulated Repository. Creates land in an in-memory map so a
// full run can be exercised without credentials or a reachable endpoint.
type DryRun struct {
	mu      sync.Mutex
	objects map[string][]model.Mo
	servers []model.Server
	nextID  int
}

// NewDryRun seeds the simulated inventory with a default organization and a
// few rack units so lookups behave like a small live account.
func NewDryRun() *DryRun {
	d := &DryRun{objects: make(map[string][]model.Mo)}

	d.objects[model.TypeOrganization] = []model.Mo{
		{Moid: d.newMoid(), Name: "default"},
	}
	d.objects[model.TypeResourceGroup] = []model.Mo{
		{Moid: d.newMoid(), Name: "default"},
	}

	d.servers = []model.Server{
		{Moid: d.newMoid(), Name: "dryrun-server-1", Serial: "SIM0000001", Model: "UCSC-C240-M7"},
		{Moid: d.newMoid(), Name: "dryrun-server-2", Serial: "SIM0000002", Model: "UCSC-C240-M7"},
	}

	return d
}

func (d *DryRun) newMoid() string {
	d.nextID++
	return fmt.Sprintf("dryrun-%06d", d.nextID)
}

func (d *DryRun) List(_ context.Context, objectType, _ string) ([]model.Mo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.Mo, len(d.objects[objectType]))
	copy(out, d.objects[objectType])

	return out, nil
}

func (d *DryRun) FindByName(_ context.Context, objectType, name, orgMoid string) (*model.Mo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, mo := range d.objects[objectType] {
		if mo.Name != name {
			continue
		}

		if orgMoid != "" && (mo.Organization == nil || mo.Organization.Moid != orgMoid) {
			continue
		}

		found := mo

		return &found, nil
	}

	return nil, errors.Wrapf(model.ErrNotFound, "%s %q", objectType, name)
}

func (d *DryRun) Create(_ context.Context, objectType string, payload map[string]any) (*model.Mo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	mo := model.Mo{Moid: d.newMoid()}

	if name, ok := payload["Name"].(string); ok {
		mo.Name = name
	}

	if ref, ok := payload["Organization"].(model.MoRef); ok {
		mo.Organization = &ref
	}

	d.objects[objectType] = append(d.objects[objectType], mo)

	return &mo, nil
}

func (d *DryRun) Patch(_ context.Context, objectType, moid string, _ map[string]any) (*model.Mo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.objects[objectType] {
		if d.objects[objectType][i].Moid == moid {
			found := d.objects[objectType][i]

			return &found, nil
		}
	}

	return nil, errors.Wrapf(model.ErrNotFound, "%s moid %q", objectType, moid)
}

func (d *DryRun) OrganizationMoid(ctx context.Context, name string) (string, error) {
	org, err := d.FindByName(ctx, model.TypeOrganization, name, "")
	if err != nil {
		return "", err
	}

	return org.Moid, nil
}

func (d *DryRun) Servers(_ context.Context) ([]model.Server, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.Server, len(d.servers))
	copy(out, d.servers)

	return out, nil
}
