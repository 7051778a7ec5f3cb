package model

type (
	PoolType   string
	PolicyType string
)

const (
	AppName = "podcfg"

	PoolTypeMAC  PoolType = "MAC Pool"
	PoolTypeUUID PoolType = "UUID Pool"

	PolicyTypeBIOS    PolicyType = "BIOS"
	PolicyTypeQoS     PolicyType = "QoS"
	PolicyTypeVNIC    PolicyType = "vNIC"
	PolicyTypeBoot    PolicyType = "Boot"
	PolicyTypeStorage PolicyType = "Storage"
)

// Intersight managed-object types used by this tool.
const (
	TypeOrganization  = "organization.Organization"
	TypeResourceGroup = "resource.Group"
	TypeRackUnit      = "compute.RackUnit"
	TypeMacPool       = "macpool.Pool"
	TypeUUIDPool      = "uuidpool.Pool"
	TypeBiosPolicy    = "bios.Policy"
	TypeQosPolicy     = "vnic.EthQosPolicy"
	TypeEthAdapter    = "vnic.EthAdapterPolicy"
	TypeNetworkGroup  = "fabric.EthNetworkGroupPolicy"
	TypeLanPolicy     = "vnic.LanConnectivityPolicy"
	TypeEthIf         = "vnic.EthIf"
	TypeBootPolicy    = "boot.PrecisionPolicy"
	TypeStoragePolicy = "storage.StoragePolicy"
	TypeTemplate      = "server.ProfileTemplate"
	TypeProfile       = "server.Profile"
)

// MoRef is the relationship stub Intersight expects when one managed object
// points at another.
type MoRef struct {
	ClassID    string `json:"ClassId"`
	ObjectType string `json:"ObjectType"`
	Moid       string `json:"Moid"`
}

// NewMoRef builds a mo.MoRef relationship for the given object type.
func NewMoRef(objectType, moid string) MoRef {
	return MoRef{ClassID: "mo.MoRef", ObjectType: objectType, Moid: moid}
}

// Mo holds the fields this tool reads back from any created or listed
// managed object.
type Mo struct {
	Moid         string `json:"Moid"`
	Name         string `json:"Name"`
	Serial       string `json:"Serial,omitempty"`
	Model        string `json:"Model,omitempty"`
	Organization *MoRef `json:"Organization,omitempty"`
}

// PoolRow is one row of the Pools sheet.
type PoolRow struct {
	Type         PoolType
	Name         string
	Description  string
	StartAddress string
	Size         int
	Organization string
}

func (p *PoolRow) AsLogFields() []any {
	return []any{
		"poolType", string(p.Type),
		"name", p.Name,
		"startAddress", p.StartAddress,
		"size", p.Size,
	}
}

// PolicyRow is one row of the Policies sheet.
type PolicyRow struct {
	Type         PolicyType
	Name         string
	Description  string
	Organization string
}

func (p *PolicyRow) AsLogFields() []any {
	return []any{
		"policyType", string(p.Type),
		"name", p.Name,
		"organization", p.Organization,
	}
}

// TemplateRow is one row of the Template sheet. Policy fields hold names,
// resolved to MOIDs at creation time.
type TemplateRow struct {
	Name           string
	Organization   string
	ResourceGroup  string
	Description    string
	TargetPlatform string
	BiosPolicy     string
	BootPolicy     string
	LanPolicy      string
	StoragePolicy  string
}

func (t *TemplateRow) AsLogFields() []any {
	return []any{
		"name", t.Name,
		"organization", t.Organization,
		"targetPlatform", t.TargetPlatform,
	}
}

// ProfileRow is one row of the Profiles sheet. Server may be empty, a
// serial, a name, or the combined "NAME | SN: SERIAL" dropdown form.
type ProfileRow struct {
	Name          string
	Description   string
	Organization  string
	ResourceGroup string
	Template      string
	Server        string
	Deploy        bool
}

func (p *ProfileRow) AsLogFields() []any {
	return []any{
		"name", p.Name,
		"organization", p.Organization,
		"template", p.Template,
		"server", p.Server,
		"deploy", p.Deploy,
	}
}

// Server is one physical server from the compute inventory.
type Server struct {
	Moid   string
	Name   string
	Serial string
	Model  string
}

// Args holds the persistent command line arguments.
type Args struct {
	LogLevel        string
	ConfigFile      string
	WorkbookFile    string
	DryRun          bool
	EnableProfiling bool
}
