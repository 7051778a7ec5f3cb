package provision

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

func (d *Driver) policies(ctx context.Context, rows []model.PolicyRow, result *Result) error {
	order, err := PolicyOrder()
	if err != nil {
		return err
	}

	byType := make(map[model.PolicyType][]model.PolicyRow, len(order))
	for _, row := range rows {
		byType[row.Type] = append(byType[row.Type], row)
	}

	// Types run strictly in dependency order. Rows within one type are
	// independent of each other and run concurrently.
	for _, policyType := range order {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(d.concurrency)

		for i := range byType[policyType] {
			row := byType[policyType][i]

			group.Go(func() error {
				return d.policy(groupCtx, &row, result)
			})
		}

		if err := group.Wait(); err != nil {
			return err
		}

		delete(byType, policyType)
	}

	// Rows whose type is not a known policy type.
	for _, leftover := range byType {
		for i := range leftover {
			row := &leftover[i]
			err := errors.Wrapf(model.ErrInvalidRow, "unknown policy type %q", row.Type)

			slog.With(row.AsLogFields()...).Warn("Skipping policy row", "error", err)
			result.failed(string(row.Type), row.Name, err)
		}
	}

	return nil
}

func (d *Driver) policy(ctx context.Context, row *model.PolicyRow, result *Result) error {
	if row.Name == "" {
		err := errors.Wrap(model.ErrInvalidRow, "policy name is required")

		slog.With(row.AsLogFields()...).Warn("Invalid policy row", "error", err)
		result.failed(policyObjectType(row.Type), row.Name, err)

		return nil
	}

	orgMoid, err := d.orgMoid(ctx, row.Organization)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			slog.With(row.AsLogFields()...).Warn("Organization not found, skipping row")
			result.skipped(policyObjectType(row.Type), row.Name, err)

			return nil
		}

		return err
	}

	if row.Type == model.PolicyTypeVNIC {
		return d.lanConnectivity(ctx, row, orgMoid, result)
	}

	return d.simplePolicy(ctx, row, orgMoid, result)
}

func (d *Driver) simplePolicy(ctx context.Context, row *model.PolicyRow, orgMoid string, result *Result) error {
	objectType := policyObjectType(row.Type)

	found, err := d.exists(ctx, objectType, row.Name, orgMoid)
	if err != nil {
		return err
	}

	if found {
		slog.With(row.AsLogFields()...).Info("Policy already exists")
		result.skipped(objectType, row.Name, nil)

		return nil
	}

	payload, err := clonePolicyPayload(row.Type, row.Name, row.Description, orgMoid)
	if err != nil {
		result.failed(objectType, row.Name, err)

		return nil
	}

	mo, err := d.repo.Create(ctx, objectType, payload)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			result.skipped(objectType, row.Name, err)

			return nil
		}

		slog.With(row.AsLogFields()...).Error("Failed to create policy", "error", err)
		result.failed(objectType, row.Name, err)

		return nil
	}

	slog.With(row.AsLogFields()...).Info("Created policy", "moid", mo.Moid)
	result.created(objectType, row.Name, mo.Moid)

	return nil
}

// lanConnectivity expands one vNIC row into the full network stack: an
// Ethernet adapter policy, two network group policies, the LAN connectivity
// policy itself, and two vNIC interfaces pinned to fabrics A and B.
func (d *Driver) lanConnectivity(ctx context.Context, row *model.PolicyRow, orgMoid string, result *Result) error {
	found, err := d.exists(ctx, model.TypeLanPolicy, row.Name, orgMoid)
	if err != nil {
		return err
	}

	if found {
		slog.With(row.AsLogFields()...).Info("LAN connectivity policy already exists")
		result.skipped(model.TypeLanPolicy, row.Name, nil)

		return nil
	}

	orgRef := model.NewMoRef(model.TypeOrganization, orgMoid)

	adapter, err := d.createSupporting(ctx, row, result, model.TypeEthAdapter, row.Name+"-adapter", map[string]any{
		"ObjectType":              model.TypeEthAdapter,
		"Name":                    row.Name + "-adapter",
		"Description":             row.Description,
		"Organization":            orgRef,
		"InterruptSettings":       map[string]any{"Count": 32, "Mode": "MSIx"},
		"RxQueueSettings":         map[string]any{"Count": 8, "RingSize": 4096},
		"TxQueueSettings":         map[string]any{"Count": 8, "RingSize": 4096},
		"CompletionQueueSettings": map[string]any{"Count": 16},
		"RssSettings":             true,
	})
	if err != nil || adapter == nil {
		return err
	}

	groupA, err := d.createSupporting(ctx, row, result, model.TypeNetworkGroup, row.Name+"-netgroup-a", map[string]any{
		"ObjectType":   model.TypeNetworkGroup,
		"Name":         row.Name + "-netgroup-a",
		"Description":  row.Description,
		"Organization": orgRef,
		"VlanSettings": map[string]any{"NativeVlan": 1, "AllowedVlans": "1-99"},
	})
	if err != nil || groupA == nil {
		return err
	}

	groupB, err := d.createSupporting(ctx, row, result, model.TypeNetworkGroup, row.Name+"-netgroup-b", map[string]any{
		"ObjectType":   model.TypeNetworkGroup,
		"Name":         row.Name + "-netgroup-b",
		"Description":  row.Description,
		"Organization": orgRef,
		"VlanSettings": map[string]any{"NativeVlan": 1, "AllowedVlans": "1-99"},
	})
	if err != nil || groupB == nil {
		return err
	}

	payload, err := clonePolicyPayload(model.PolicyTypeVNIC, row.Name, row.Description, orgMoid)
	if err != nil {
		result.failed(model.TypeLanPolicy, row.Name, err)

		return nil
	}

	lan, err := d.repo.Create(ctx, model.TypeLanPolicy, payload)
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			result.skipped(model.TypeLanPolicy, row.Name, err)

			return nil
		}

		slog.With(row.AsLogFields()...).Error("Failed to create LAN connectivity policy", "error", err)
		result.failed(model.TypeLanPolicy, row.Name, err)

		return nil
	}

	result.created(model.TypeLanPolicy, row.Name, lan.Moid)

	interfaces := []struct {
		name     string
		switchID string
		group    *model.Mo
		order    int
	}{
		{"eth0", "A", groupA, 0},
		{"eth1", "B", groupB, 1},
	}

	for _, eth := range interfaces {
		_, err := d.createSupporting(ctx, row, result, model.TypeEthIf, eth.name, map[string]any{
			"ObjectType":      model.TypeEthIf,
			"Name":            eth.name,
			"Order":           eth.order,
			"MacAddressType":  "AUTO",
			"FailoverEnabled": false,
			"Placement": map[string]any{
				"Id":       "MLOM",
				"SwitchId": eth.switchID,
				"Uplink":   0,
			},
			"CdnSource":        "vnic",
			"EthAdapterPolicy": model.NewMoRef(model.TypeEthAdapter, adapter.Moid),
			"FabricEthNetworkGroupPolicy": []any{
				model.NewMoRef(model.TypeNetworkGroup, eth.group.Moid),
			},
			"LanConnectivityPolicy": model.NewMoRef(model.TypeLanPolicy, lan.Moid),
		})
		if err != nil {
			return err
		}
	}

	slog.With(row.AsLogFields()...).Info("Created LAN connectivity stack", "moid", lan.Moid)

	return nil
}

// createSupporting creates one piece of the vNIC fan-out, treating an
// existing object as success so a rerun can resume a partially built stack.
func (d *Driver) createSupporting(ctx context.Context, row *model.PolicyRow, result *Result, objectType, name string, payload map[string]any) (*model.Mo, error) {
	mo, err := d.repo.Create(ctx, objectType, payload)
	if err == nil {
		result.created(objectType, name, mo.Moid)

		return mo, nil
	}

	if errors.Is(err, model.ErrAlreadyExists) {
		orgRef, _ := payload["Organization"].(model.MoRef)

		existing, findErr := d.repo.FindByName(ctx, objectType, name, orgRef.Moid)
		if findErr != nil {
			return nil, findErr
		}

		result.skipped(objectType, name, err)

		return existing, nil
	}

	slog.With(row.AsLogFields()...).Error("Failed to create supporting object", "objectType", objectType, "name", name, "error", err)
	result.failed(objectType, name, err)

	return nil, nil
}

func policyObjectType(t model.PolicyType) string {
	switch t {
	case model.PolicyTypeBIOS:
		return model.TypeBiosPolicy
	case model.PolicyTypeQoS:
		return model.TypeQosPolicy
	case model.PolicyTypeVNIC:
		return model.TypeLanPolicy
	case model.PolicyTypeBoot:
		return model.TypeBootPolicy
	case model.PolicyTypeStorage:
		return model.TypeStoragePolicy
	}

	return string(t)
}
