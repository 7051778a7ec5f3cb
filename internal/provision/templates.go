package provision

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

// templatePolicySlot binds one Template sheet column to the policy type it
// names.
type templatePolicySlot struct {
	policyType model.PolicyType
	name       string
}

func (d *Driver) templates(ctx context.Context, rows []model.TemplateRow, result *Result) error {
	for i := range rows {
		row := &rows[i]

		if row.Name == "" {
			err := errors.Wrap(model.ErrInvalidRow, "template name is required")

			slog.With(row.AsLogFields()...).Warn("Invalid template row", "error", err)
			result.failed(model.TypeTemplate, row.Name, err)

			continue
		}

		orgMoid, err := d.orgMoid(ctx, row.Organization)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				slog.With(row.AsLogFields()...).Warn("Organization not found, skipping row")
				result.skipped(model.TypeTemplate, row.Name, err)

				continue
			}

			return err
		}

		found, err := d.exists(ctx, model.TypeTemplate, row.Name, orgMoid)
		if err != nil {
			return err
		}

		if found {
			slog.With(row.AsLogFields()...).Info("Template already exists")
			result.skipped(model.TypeTemplate, row.Name, nil)

			continue
		}

		bucket, err := d.policyBucket(ctx, row, orgMoid, result)
		if err != nil {
			return err
		}

		platform := row.TargetPlatform
		if platform == "" {
			platform = "FIAttached"
		}

		payload := map[string]any{
			"ObjectType":     model.TypeTemplate,
			"Name":           row.Name,
			"Description":    row.Description,
			"TargetPlatform": platform,
			"Organization":   model.NewMoRef(model.TypeOrganization, orgMoid),
			"PolicyBucket":   bucket,
		}

		mo, err := d.repo.Create(ctx, model.TypeTemplate, payload)
		if err != nil {
			if errors.Is(err, model.ErrAlreadyExists) {
				result.skipped(model.TypeTemplate, row.Name, err)

				continue
			}

			slog.With(row.AsLogFields()...).Error("Failed to create template", "error", err)
			result.failed(model.TypeTemplate, row.Name, err)

			continue
		}

		slog.With(row.AsLogFields()...).Info("Created template", "moid", mo.Moid)
		result.created(model.TypeTemplate, row.Name, mo.Moid)
	}

	return nil
}

// policyBucket resolves the template's policy columns to MoRefs. A blank
// cell gets a freshly ensured default policy. A named policy that does not
// exist is logged and left out of the bucket rather than failing the row.
func (d *Driver) policyBucket(ctx context.Context, row *model.TemplateRow, orgMoid string, result *Result) ([]any, error) {
	slots := []templatePolicySlot{
		{model.PolicyTypeBIOS, row.BiosPolicy},
		{model.PolicyTypeBoot, row.BootPolicy},
		{model.PolicyTypeVNIC, row.LanPolicy},
		{model.PolicyTypeStorage, row.StoragePolicy},
	}

	bucket := make([]any, 0, len(slots))

	for _, slot := range slots {
		objectType := policyObjectType(slot.policyType)

		if slot.name == "" {
			moid, err := d.ensureDefaultPolicy(ctx, slot.policyType, orgMoid, result)
			if err != nil {
				return nil, err
			}

			if moid != "" {
				bucket = append(bucket, model.NewMoRef(objectType, moid))
			}

			continue
		}

		mo, err := d.repo.FindByName(ctx, objectType, slot.name, orgMoid)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				slog.With(row.AsLogFields()...).Warn("Named policy not found, leaving it out of the template",
					"policyType", string(slot.policyType), "policyName", slot.name)

				continue
			}

			return nil, err
		}

		bucket = append(bucket, model.NewMoRef(objectType, mo.Moid))
	}

	return bucket, nil
}

// ensureDefaultPolicy creates (or finds) the stock policy used when a
// template cell is blank, and returns its MOID.
func (d *Driver) ensureDefaultPolicy(ctx context.Context, policyType model.PolicyType, orgMoid string, result *Result) (string, error) {
	objectType := policyObjectType(policyType)
	name := defaultPolicyName(policyType)

	existing, err := d.repo.FindByName(ctx, objectType, name, orgMoid)
	if err == nil {
		return existing.Moid, nil
	}

	if !errors.Is(err, model.ErrNotFound) {
		return "", err
	}

	payload, err := clonePolicyPayload(policyType, name, "Stock policy generated for templates without one", orgMoid)
	if err != nil {
		return "", err
	}

	mo, err := d.repo.Create(ctx, objectType, payload)
	if err != nil {
		slog.Error("Failed to create default policy", "policyType", string(policyType), "error", err)
		result.failed(objectType, name, err)

		return "", nil
	}

	slog.Info("Created default policy", "policyType", string(policyType), "name", name, "moid", mo.Moid)
	result.created(objectType, name, mo.Moid)

	return mo.Moid, nil
}
