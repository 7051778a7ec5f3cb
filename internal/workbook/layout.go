// Package workbook builds, reads and refreshes the Excel configuration
// template the provisioning driver replays.
package workbook

// TemplateVersion is written to the Version sheet on build.
const TemplateVersion = "1.0.0"

// Sheet names. Reference is hidden and holds dropdown source lists too long
// for an inline validation formula.
const (
	SheetPools         = "Pools"
	SheetPolicies      = "Policies"
	SheetTemplate      = "Template"
	SheetProfiles      = "Profiles"
	SheetServers       = "Servers"
	SheetOrganizations = "Organizations"
	SheetVersion       = "Version"
	SheetReference     = "Reference"
)

// orderedSheets is the tab order of the generated workbook.
var orderedSheets = []string{
	SheetPools,
	SheetPolicies,
	SheetTemplate,
	SheetProfiles,
	SheetServers,
	SheetOrganizations,
	SheetVersion,
}

// Canonical headers. The reader also accepts the legacy spellings that
// earlier revisions of the template used (see headerAliases).
var (
	poolHeaders = []string{"Pool Type*", "Pool Name*", "Description", "Start Address*", "Size*"}

	policyHeaders = []string{"Policy Type*", "Policy Name*", "Description", "Organization*"}

	templateHeaders = []string{
		"Template Name*", "Organization*", "Resource Group*", "Description",
		"Target Platform*", "BIOS Policy*", "Boot Policy*",
		"LAN Connectivity Policy*", "Storage Policy*",
	}

	profileHeaders = []string{
		"Profile Name*", "Description", "Organization*", "Resource Group*",
		"Template Name*", "Server", "Deploy*",
	}

	serverHeaders = []string{"Server Name", "Serial Number", "Description", "Model"}
)

// Dropdown target columns (data rows 2..maxRow).
const (
	colPoolType        = "A" // Pools
	colPolicyType      = "A" // Policies
	colPolicyOrg       = "D" // Policies
	colTemplateOrg     = "B" // Template
	colTemplateRG      = "C" // Template
	colTemplatePlat    = "E" // Template
	colProfileOrg      = "C" // Profiles
	colProfileRG       = "D" // Profiles
	colProfileServer   = "F" // Profiles
	colProfileDeploy   = "G" // Profiles
	dropdownMaxRow     = 1000
	inlineFormulaLimit = 255
)

// Reference sheet column per dropdown source, kept stable so refresh is
// idempotent.
var referenceColumns = map[string]string{
	"organizations":  "A",
	"servers":        "B",
	"resourcegroups": "C",
}

var (
	poolTypeOptions   = []string{"MAC Pool", "UUID Pool"}
	policyTypeOptions = []string{"BIOS", "QoS", "vNIC", "Boot", "Storage"}
	platformOptions   = []string{"FIAttached", "Standalone"}
	deployOptions     = []string{"Yes", "No"}

	// Placeholder lists written by the builder, replaced by getinfo.
	defaultOrgOptions = []string{"default"}
)

// Sample rows written by the builder so a fresh template is self-describing.
var (
	samplePools = [][]any{
		{"MAC Pool", "Ai_POD-MAC-A", "MAC Pool for AI POD Fabric A", "00:25:B5:A0:00:00", 256},
		{"MAC Pool", "Ai_POD-MAC-B", "MAC Pool for AI POD Fabric B", "00:25:B5:B0:00:00", 256},
		{"UUID Pool", "Ai_POD-UUID-Pool", "UUID Pool for AI POD Servers", "0000-000000000001", 100},
	}

	samplePolicies = [][]any{
		{"BIOS", "Ai_POD-BIOS", "BIOS Policy for AI POD", "default"},
		{"QoS", "Ai_POD-QoS", "QoS Policy for AI POD", "default"},
		{"vNIC", "Ai_POD-vNIC", "LAN connectivity for AI POD fabrics", "default"},
		{"Boot", "Ai_POD-Boot", "Boot Policy for AI POD", "default"},
		{"Storage", "Ai_POD-Storage", "Storage Policy for AI POD", "default"},
	}

	sampleTemplates = [][]any{
		{
			"Ai_POD_Template", "default", "AI POD Servers",
			"Server template for AI POD workloads", "FIAttached",
			"Ai_POD-BIOS", "Ai_POD-Boot", "Ai_POD-vNIC", "Ai_POD-Storage",
		},
	}
)
