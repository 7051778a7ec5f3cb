package provision

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

// uuidSuffixStart is the default suffix block start when a UUID pool row
// leaves the start address blank.
const uuidSuffixStart = "0000-000000000001"

func (d *Driver) pools(ctx context.Context, rows []model.PoolRow, result *Result) error {
	for i := range rows {
		row := &rows[i]

		objectType, err := poolObjectType(row.Type)
		if err != nil {
			slog.With(row.AsLogFields()...).Warn("Skipping pool row", "error", err)
			result.failed(string(row.Type), row.Name, err)

			continue
		}

		if err := validatePoolRow(row); err != nil {
			slog.With(row.AsLogFields()...).Warn("Invalid pool row", "error", err)
			result.failed(objectType, row.Name, err)

			continue
		}

		orgMoid, err := d.orgMoid(ctx, row.Organization)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				slog.With(row.AsLogFields()...).Warn("Organization not found, skipping row")
				result.skipped(objectType, row.Name, err)

				continue
			}

			return err
		}

		found, err := d.exists(ctx, objectType, row.Name, orgMoid)
		if err != nil {
			return err
		}

		if found {
			slog.With(row.AsLogFields()...).Info("Pool already exists")
			result.skipped(objectType, row.Name, nil)

			continue
		}

		payload, err := poolPayload(row, orgMoid)
		if err != nil {
			result.failed(objectType, row.Name, err)

			continue
		}

		mo, err := d.repo.Create(ctx, objectType, payload)
		if err != nil {
			if errors.Is(err, model.ErrAlreadyExists) {
				result.skipped(objectType, row.Name, err)

				continue
			}

			slog.With(row.AsLogFields()...).Error("Failed to create pool", "error", err)
			result.failed(objectType, row.Name, err)

			continue
		}

		slog.With(row.AsLogFields()...).Info("Created pool", "moid", mo.Moid)
		result.created(objectType, row.Name, mo.Moid)
	}

	return nil
}

func poolObjectType(t model.PoolType) (string, error) {
	switch t {
	case model.PoolTypeMAC:
		return model.TypeMacPool, nil
	case model.PoolTypeUUID:
		return model.TypeUUIDPool, nil
	}

	return "", errors.Wrapf(model.ErrInvalidRow, "unknown pool type %q", t)
}

func validatePoolRow(row *model.PoolRow) error {
	if row.Name == "" {
		return errors.Wrap(model.ErrInvalidRow, "pool name is required")
	}

	if row.Size <= 0 {
		return errors.Wrapf(model.ErrInvalidRow, "pool size must be positive, got %d", row.Size)
	}

	if row.Type == model.PoolTypeMAC {
		if _, err := net.ParseMAC(row.StartAddress); err != nil {
			return errors.Wrapf(model.ErrInvalidRow, "invalid start MAC address %q", row.StartAddress)
		}
	}

	return nil
}

func poolPayload(row *model.PoolRow, orgMoid string) (map[string]any, error) {
	payload := map[string]any{
		"Name":            row.Name,
		"Description":     row.Description,
		"AssignmentOrder": "sequential",
		"Organization":    model.NewMoRef(model.TypeOrganization, orgMoid),
	}

	switch row.Type {
	case model.PoolTypeMAC:
		to, err := macBlockEnd(row.StartAddress, row.Size)
		if err != nil {
			return nil, err
		}

		payload["ObjectType"] = model.TypeMacPool
		payload["MacBlocks"] = []any{
			map[string]any{
				"ClassId":    "macpool.Block",
				"ObjectType": "macpool.Block",
				"From":       strings.ToUpper(row.StartAddress),
				"To":         to,
			},
		}
	case model.PoolTypeUUID:
		from := row.StartAddress
		if from == "" {
			from = uuidSuffixStart
		}

		payload["ObjectType"] = model.TypeUUIDPool
		payload["Prefix"] = uuidPoolPrefix(row.Name)
		payload["UuidSuffixBlocks"] = []any{
			map[string]any{
				"ClassId":    "uuidpool.UuidBlock",
				"ObjectType": "uuidpool.UuidBlock",
				"From":       from,
				"Size":       row.Size,
			},
		}
	}

	return payload, nil
}

// macBlockEnd computes the last address of a block of the given size
// starting at from.
func macBlockEnd(from string, size int) (string, error) {
	hw, err := net.ParseMAC(from)
	if err != nil {
		return "", errors.Wrapf(model.ErrInvalidRow, "invalid start MAC address %q", from)
	}

	if len(hw) != 6 {
		return "", errors.Wrapf(model.ErrInvalidRow, "MAC address %q is not 48 bits", from)
	}

	buf := make([]byte, 8)
	copy(buf[2:], hw)

	end := binary.BigEndian.Uint64(buf) + uint64(size) - 1
	if end > 0xFFFFFFFFFFFF {
		return "", errors.Wrapf(model.ErrInvalidRow, "MAC block %q+%d overflows the address space", from, size)
	}

	binary.BigEndian.PutUint64(buf, end)

	return strings.ToUpper(net.HardwareAddr(buf[2:]).String()), nil
}

// uuidPoolPrefix derives a stable UUID prefix from the pool name, so reruns
// of the same workbook produce the same pool.
func uuidPoolPrefix(name string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()

	// The prefix is the first three groups: XXXXXXXX-XXXX-XXXX.
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", id[0:8], id[9:13], id[14:18]))
}
