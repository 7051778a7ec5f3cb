package provision

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucs-toolbox/podcfg/internal/config"
	"github.com/ucs-toolbox/podcfg/internal/model"
)

type repoCall struct {
	Op         string
	ObjectType string
	Name       string
}

// fakeRepository records every call so tests can assert on call order.
type fakeRepository struct {
	mu      sync.Mutex
	calls   []repoCall
	objects map[string][]model.Mo
	orgs    map[string]string
	servers []model.Server

	failCreate map[string]error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		objects:    make(map[string][]model.Mo),
		orgs:       map[string]string{"default": "org-default"},
		failCreate: make(map[string]error),
	}
}

func (f *fakeRepository) record(op, objectType, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, repoCall{Op: op, ObjectType: objectType, Name: name})
}

func (f *fakeRepository) callsFor(op string) []repoCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []repoCall{}

	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}

	return out
}

func (f *fakeRepository) seed(objectType, name, orgMoid string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	mo := model.Mo{Moid: fmt.Sprintf("seed-%d", len(f.objects[objectType])), Name: name}
	if orgMoid != "" {
		ref := model.NewMoRef(model.TypeOrganization, orgMoid)
		mo.Organization = &ref
	}

	f.objects[objectType] = append(f.objects[objectType], mo)
}

func (f *fakeRepository) List(_ context.Context, objectType, _ string) ([]model.Mo, error) {
	f.record("list", objectType, "")

	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]model.Mo{}, f.objects[objectType]...), nil
}

func (f *fakeRepository) FindByName(_ context.Context, objectType, name, orgMoid string) (*model.Mo, error) {
	f.record("find", objectType, name)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, mo := range f.objects[objectType] {
		if mo.Name != name {
			continue
		}

		if orgMoid != "" && mo.Organization != nil && mo.Organization.Moid != orgMoid {
			continue
		}

		found := mo

		return &found, nil
	}

	return nil, errors.Wrapf(model.ErrNotFound, "%s %q", objectType, name)
}

func (f *fakeRepository) Create(_ context.Context, objectType string, payload map[string]any) (*model.Mo, error) {
	name, _ := payload["Name"].(string)
	f.record("create", objectType, name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failCreate[objectType]; ok {
		return nil, err
	}

	mo := model.Mo{Moid: fmt.Sprintf("mo-%d", len(f.calls)), Name: name}
	if ref, ok := payload["Organization"].(model.MoRef); ok {
		mo.Organization = &ref
	}

	f.objects[objectType] = append(f.objects[objectType], mo)

	return &mo, nil
}

func (f *fakeRepository) Patch(_ context.Context, objectType, moid string, _ map[string]any) (*model.Mo, error) {
	f.record("patch", objectType, moid)

	return &model.Mo{Moid: moid}, nil
}

func (f *fakeRepository) OrganizationMoid(_ context.Context, name string) (string, error) {
	f.record("org", model.TypeOrganization, name)

	f.mu.Lock()
	defer f.mu.Unlock()

	moid, ok := f.orgs[name]
	if !ok {
		return "", errors.Wrapf(model.ErrNotFound, "organization %q", name)
	}

	return moid, nil
}

func (f *fakeRepository) Servers(_ context.Context) ([]model.Server, error) {
	f.record("servers", model.TypeRackUnit, "")

	return append([]model.Server{}, f.servers...), nil
}

func newTestDriver(repo *fakeRepository) *Driver {
	return NewDriver(repo, &config.Configuration{Concurrency: 1})
}

func TestPolicyOrder(t *testing.T) {
	order, err := PolicyOrder()
	require.NoError(t, err)
	require.Len(t, order, 5)

	pos := make(map[model.PolicyType]int, len(order))
	for i, p := range order {
		pos[p] = i
	}

	assert.Less(t, pos[model.PolicyTypeQoS], pos[model.PolicyTypeVNIC],
		"QoS policies must exist before LAN connectivity references them")

	assert.Equal(t, []model.PolicyType{
		model.PolicyTypeBIOS,
		model.PolicyTypeQoS,
		model.PolicyTypeVNIC,
		model.PolicyTypeBoot,
		model.PolicyTypeStorage,
	}, order)
}

func TestPoolCreatedExactlyOnce(t *testing.T) {
	repo := newFakeRepository()
	driver := newTestDriver(repo)

	rows := []model.PoolRow{{
		Type:         model.PoolTypeMAC,
		Name:         "pod-mac-a",
		StartAddress: "00:25:B5:A0:00:00",
		Size:         256,
		Organization: "default",
	}}

	result, err := driver.Pools(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created())

	result, err = driver.Pools(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created())
	assert.Equal(t, 1, result.Skipped())

	creates := repo.callsFor("create")
	require.Len(t, creates, 1)
	assert.Equal(t, model.TypeMacPool, creates[0].ObjectType)
}

func TestPoolRowValidation(t *testing.T) {
	repo := newFakeRepository()
	driver := newTestDriver(repo)

	rows := []model.PoolRow{
		{Type: model.PoolTypeMAC, Name: "bad-mac", StartAddress: "not-a-mac", Size: 16, Organization: "default"},
		{Type: model.PoolTypeMAC, Name: "bad-size", StartAddress: "00:25:B5:00:00:00", Size: 0, Organization: "default"},
		{Type: "IP Pool", Name: "bad-type", Organization: "default"},
	}

	result, err := driver.Pools(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Failed())
	assert.Empty(t, repo.callsFor("create"))

	for _, row := range result.Rows() {
		assert.ErrorIs(t, row.Err, model.ErrInvalidRow)
	}
}

func TestMacBlockEnd(t *testing.T) {
	end, err := macBlockEnd("00:25:B5:A0:00:00", 256)
	require.NoError(t, err)
	assert.Equal(t, "00:25:B5:A0:00:FF", end)

	end, err = macBlockEnd("00:25:b5:a0:00:ff", 1)
	require.NoError(t, err)
	assert.Equal(t, "00:25:B5:A0:00:FF", end)

	_, err = macBlockEnd("FF:FF:FF:FF:FF:FF", 2)
	require.ErrorIs(t, err, model.ErrInvalidRow)
}

func TestUUIDPoolPrefixIsStable(t *testing.T) {
	assert.Equal(t, uuidPoolPrefix("pod-uuid"), uuidPoolPrefix("pod-uuid"))
	assert.NotEqual(t, uuidPoolPrefix("pod-uuid"), uuidPoolPrefix("other"))
	assert.Len(t, uuidPoolPrefix("pod-uuid"), 18)
}

func TestUnknownOrganizationSkipsRow(t *testing.T) {
	repo := newFakeRepository()
	driver := newTestDriver(repo)

	rows := []model.PolicyRow{{Type: model.PolicyTypeBIOS, Name: "bios-1", Organization: "missing-org"}}

	result, err := driver.Policies(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped())
	assert.Empty(t, repo.callsFor("create"))
}

func TestLanConnectivityFanOut(t *testing.T) {
	repo := newFakeRepository()
	driver := newTestDriver(repo)

	rows := []model.PolicyRow{{Type: model.PolicyTypeVNIC, Name: "pod-vnic", Organization: "default"}}

	result, err := driver.Policies(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed())

	creates := repo.callsFor("create")
	require.Len(t, creates, 6)

	wantTypes := []string{
		model.TypeEthAdapter,
		model.TypeNetworkGroup,
		model.TypeNetworkGroup,
		model.TypeLanPolicy,
		model.TypeEthIf,
		model.TypeEthIf,
	}

	for i, want := range wantTypes {
		assert.Equal(t, want, creates[i].ObjectType, "create %d", i)
	}

	assert.Equal(t, "pod-vnic-adapter", creates[0].Name)
	assert.Equal(t, "pod-vnic-netgroup-a", creates[1].Name)
	assert.Equal(t, "pod-vnic-netgroup-b", creates[2].Name)
	assert.Equal(t, "pod-vnic", creates[3].Name)
	assert.Equal(t, "eth0", creates[4].Name)
	assert.Equal(t, "eth1", creates[5].Name)
}

func TestPoliciesCreatedInDependencyOrder(t *testing.T) {
	repo := newFakeRepository()
	driver := newTestDriver(repo)

	// Deliberately shuffled input.
	rows := []model.PolicyRow{
		{Type: model.PolicyTypeVNIC, Name: "pod-vnic", Organization: "default"},
		{Type: model.PolicyTypeStorage, Name: "pod-storage", Organization: "default"},
		{Type: model.PolicyTypeQoS, Name: "pod-qos", Organization: "default"},
		{Type: model.PolicyTypeBIOS, Name: "pod-bios", Organization: "default"},
		{Type: model.PolicyTypeBoot, Name: "pod-boot", Organization: "default"},
	}

	_, err := driver.Policies(context.Background(), rows)
	require.NoError(t, err)

	creates := repo.callsFor("create")

	position := func(name string) int {
		for i, c := range creates {
			if c.Name == name {
				return i
			}
		}

		t.Fatalf("no create recorded for %s", name)

		return -1
	}

	assert.Less(t, position("pod-bios"), position("pod-qos"))
	assert.Less(t, position("pod-qos"), position("pod-vnic"))
	assert.Less(t, position("pod-vnic"), position("pod-boot"))
	assert.Less(t, position("pod-boot"), position("pod-storage"))
}

func TestTemplateFillsBlankCellsWithDefaults(t *testing.T) {
	repo := newFakeRepository()
	repo.seed(model.TypeBiosPolicy, "pod-bios", "org-default")
	driver := newTestDriver(repo)

	rows := []model.TemplateRow{{
		Name:         "pod-template",
		Organization: "default",
		BiosPolicy:   "pod-bios",
		// Boot, LAN and storage cells left blank.
	}}

	result, err := driver.Templates(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed())

	creates := repo.callsFor("create")

	names := make([]string, len(creates))
	for i, c := range creates {
		names[i] = c.Name
	}

	assert.Contains(t, names, "default-boot")
	assert.Contains(t, names, "default-lan-connectivity")
	assert.Contains(t, names, "default-storage")
	assert.NotContains(t, names, "default-bios", "a named policy must not be replaced by a default")
	assert.Equal(t, "pod-template", names[len(names)-1])
}

func TestTemplateMissingNamedPolicyContinues(t *testing.T) {
	repo := newFakeRepository()
	driver := newTestDriver(repo)

	rows := []model.TemplateRow{{
		Name:          "pod-template",
		Organization:  "default",
		BiosPolicy:    "no-such-policy",
		BootPolicy:    "also-missing",
		LanPolicy:     "gone",
		StoragePolicy: "missing-too",
	}}

	result, err := driver.Templates(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created(), "template is created even when named policies are missing")
}

func TestProfileMatchingCascade(t *testing.T) {
	templates := []model.Mo{
		{Moid: "t-1", Name: "Ai_POD_Template"},
		{Moid: "t-2", Name: "Edge_Template"},
	}

	assert.Equal(t, "t-1", matchTemplate("Ai_POD_Template", templates).Moid, "exact")
	assert.Equal(t, "t-1", matchTemplate("ai_pod_template", templates).Moid, "case-insensitive")
	assert.Equal(t, "t-2", matchTemplate("Edge", templates).Moid, "prefix")
	assert.Equal(t, "t-1", matchTemplate("POD", templates).Moid, "substring")
	assert.Nil(t, matchTemplate("absent", templates))
	assert.Nil(t, matchTemplate("", templates))
}

func TestServerMatchingCascade(t *testing.T) {
	servers := []model.Server{
		{Moid: "s-1", Name: "rack-1", Serial: "FCH1234V5Z7"},
		{Moid: "s-2", Name: "rack-2", Serial: "FCH5678A9BC"},
	}

	assert.Equal(t, "s-1", matchServer("FCH1234V5Z7", servers).Moid, "serial")
	assert.Equal(t, "s-2", matchServer("RACK-2", servers).Moid, "name, case-insensitive")
	assert.Equal(t, "s-1", matchServer("rack-1 | SN: FCH1234V5Z7", servers).Moid, "dropdown form")
	assert.Equal(t, "s-2", matchServer("5678", servers).Moid, "partial serial")
	assert.Nil(t, matchServer("absent", servers))
}

func TestProfileCreateAndAssign(t *testing.T) {
	repo := newFakeRepository()
	repo.seed(model.TypeTemplate, "pod-template", "org-default")
	repo.servers = []model.Server{{Moid: "s-1", Name: "rack-1", Serial: "FCH1234V5Z7"}}

	driver := newTestDriver(repo)

	rows := []model.ProfileRow{{
		Name:         "host-1",
		Organization: "default",
		Template:     "pod-template",
		Server:       "rack-1 | SN: FCH1234V5Z7",
		Deploy:       true,
	}}

	result, err := driver.Profiles(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created())
	assert.Empty(t, result.ManualProfiles())

	creates := repo.callsFor("create")
	require.Len(t, creates, 1)
	assert.Equal(t, model.TypeProfile, creates[0].ObjectType)

	patches := repo.callsFor("patch")
	require.Len(t, patches, 1, "assigning the server is a single PATCH")
	assert.Equal(t, model.TypeProfile, patches[0].ObjectType)
}

func TestUnmatchedProfilesGoToManualList(t *testing.T) {
	repo := newFakeRepository()
	repo.seed(model.TypeTemplate, "pod-template", "org-default")
	repo.servers = []model.Server{{Moid: "s-1", Name: "rack-1", Serial: "FCH1234V5Z7"}}

	driver := newTestDriver(repo)

	rows := []model.ProfileRow{
		{Name: "host-1", Organization: "default", Template: "no-such-template"},
		{Name: "host-2", Organization: "default", Template: "pod-template", Server: "unknown-server"},
		{Name: "host-3", Organization: "default", Template: "pod-template"},
	}

	result, err := driver.Profiles(context.Background(), rows)
	require.NoError(t, err)

	manual := result.ManualProfiles()
	require.Len(t, manual, 2)
	assert.Equal(t, "host-1", manual[0].Name)
	assert.Equal(t, "host-2", manual[1].Name)

	assert.Equal(t, 1, result.Created())
}

func TestFailedCreateIsRecordedNotFatal(t *testing.T) {
	repo := newFakeRepository()
	repo.failCreate[model.TypeBiosPolicy] = errors.Wrap(model.ErrUpstream, "boom")

	driver := newTestDriver(repo)

	rows := []model.PolicyRow{
		{Type: model.PolicyTypeBIOS, Name: "bios-1", Organization: "default"},
		{Type: model.PolicyTypeBoot, Name: "boot-1", Organization: "default"},
	}

	result, err := driver.Policies(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed())
	assert.Equal(t, 1, result.Created(), "other rows still run after a failure")
}

func TestAllRunsPhasesInOrder(t *testing.T) {
	repo := newFakeRepository()
	repo.servers = []model.Server{{Moid: "s-1", Name: "rack-1", Serial: "FCH1234V5Z7"}}

	driver := newTestDriver(repo)

	rows := &Rows{
		Pools: []model.PoolRow{{
			Type: model.PoolTypeMAC, Name: "pod-mac", StartAddress: "00:25:B5:00:00:00", Size: 16, Organization: "default",
		}},
		Policies: []model.PolicyRow{
			{Type: model.PolicyTypeBIOS, Name: "pod-bios", Organization: "default"},
		},
		Templates: []model.TemplateRow{{
			Name: "pod-template", Organization: "default", BiosPolicy: "pod-bios",
		}},
		Profiles: []model.ProfileRow{{
			Name: "host-1", Organization: "default", Template: "pod-template",
		}},
	}

	result, err := driver.All(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Failed())

	creates := repo.callsFor("create")

	typeIndex := func(objectType string) int {
		for i, c := range creates {
			if c.ObjectType == objectType {
				return i
			}
		}

		t.Fatalf("no create recorded for %s", objectType)

		return -1
	}

	assert.Less(t, typeIndex(model.TypeMacPool), typeIndex(model.TypeBiosPolicy))
	assert.Less(t, typeIndex(model.TypeBiosPolicy), typeIndex(model.TypeTemplate))
	assert.Less(t, typeIndex(model.TypeTemplate), typeIndex(model.TypeProfile))
}
