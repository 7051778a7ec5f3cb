package provision

import (
	"github.com/mitchellh/copystructure"
	"github.com/pkg/errors"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

// Base payloads for each policy type. Cloned per create so the shared maps
// are never mutated.
var basePolicyPayloads = map[model.PolicyType]map[string]any{
	model.PolicyTypeBIOS: {
		"ObjectType": model.TypeBiosPolicy,
		// Tuned for virtualization and GPU workloads.
		"CpuPerfEnhancement":            "Auto",
		"IntelVtForDirectedIo":          "enabled",
		"IntelVirtualizationTechnology": "enabled",
		"Lv1ddc":                        "enabled",
		"MemoryMappedIoAbove4gb":        "enabled",
	},
	model.PolicyTypeQoS: {
		"ObjectType": model.TypeQosPolicy,
		"Mtu":        9000,
		"Cos":        5,
		"RateLimit":  0,
		"Burst":      10240,
		"Priority":   "Best Effort",
	},
	model.PolicyTypeBoot: {
		"ObjectType":            model.TypeBootPolicy,
		"ConfiguredBootMode":    "Uefi",
		"EnforceUefiSecureBoot": false,
		"BootDevices": []any{
			map[string]any{
				"ClassId":    "boot.LocalDisk",
				"ObjectType": "boot.LocalDisk",
				"Name":       "local-disk",
				"Enabled":    true,
			},
			map[string]any{
				"ClassId":    "boot.VirtualMedia",
				"ObjectType": "boot.VirtualMedia",
				"Name":       "kvm-mapped-dvd",
				"Subtype":    "kvm-mapped-dvd",
				"Enabled":    true,
			},
		},
	},
	model.PolicyTypeStorage: {
		"ObjectType":           model.TypeStoragePolicy,
		"UseJbodForVdCreation": true,
		"UnusedDisksState":     "NoChange",
		"DefaultDriveMode":     "RAID0",
	},
	model.PolicyTypeVNIC: {
		"ObjectType":        model.TypeLanPolicy,
		"TargetPlatform":    "FIAttached",
		"PlacementMode":     "custom",
		"AzureQosEnabled":   false,
		"IqnAllocationType": "None",
	},
}

// clonePolicyPayload deep-copies the base payload for the given type and
// stamps identity fields onto the copy.
func clonePolicyPayload(policyType model.PolicyType, name, description, orgMoid string) (map[string]any, error) {
	base, ok := basePolicyPayloads[policyType]
	if !ok {
		return nil, errors.Errorf("no base payload for policy type %q", policyType)
	}

	cloned, err := copystructure.Copy(base)
	if err != nil {
		return nil, errors.Wrapf(err, "cloning base payload for %s", policyType)
	}

	payload, ok := cloned.(map[string]any)
	if !ok {
		return nil, errors.Errorf("unexpected clone type for %s", policyType)
	}

	payload["Name"] = name
	payload["Description"] = description
	payload["Organization"] = model.NewMoRef(model.TypeOrganization, orgMoid)

	return payload, nil
}

// defaultPolicyName is the name given to a policy created to fill a blank
// template cell.
func defaultPolicyName(policyType model.PolicyType) string {
	switch policyType {
	case model.PolicyTypeBIOS:
		return "default-bios"
	case model.PolicyTypeQoS:
		return "default-qos"
	case model.PolicyTypeVNIC:
		return "default-lan-connectivity"
	case model.PolicyTypeBoot:
		return "default-boot"
	case model.PolicyTypeStorage:
		return "default-storage"
	}

	return "default-policy"
}
