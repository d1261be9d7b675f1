package fmcmcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netadapt/fmc-mcp/fmc"
)

// fakeAPI is an in-memory fmc.API for adapter tests.
type fakeAPI struct {
	serverVersion map[string]any
	domainInfo    map[string]any
	devices       []fmc.Device
	networks      []fmc.NetworkObject
	hosts         []fmc.NetworkObject
	deployable    []fmc.DeployableDevice
	err           error
}

func (f *fakeAPI) Connect(ctx context.Context) error { return f.err }
func (f *fakeAPI) Close()                            {}
func (f *fakeAPI) DomainUUID() string                { return "test-domain" }

func (f *fakeAPI) ServerVersion(ctx context.Context) (map[string]any, error) {
	return f.serverVersion, f.err
}

func (f *fakeAPI) DomainInfo(ctx context.Context) (map[string]any, error) {
	return f.domainInfo, f.err
}

func (f *fakeAPI) Devices(ctx context.Context) ([]fmc.Device, error) {
	return f.devices, f.err
}

func (f *fakeAPI) NetworkObjects(ctx context.Context) ([]fmc.NetworkObject, error) {
	return f.networks, f.err
}

func (f *fakeAPI) HostObjects(ctx context.Context) ([]fmc.NetworkObject, error) {
	return f.hosts, f.err
}

func (f *fakeAPI) DeployableDevices(ctx context.Context) ([]fmc.DeployableDevice, error) {
	return f.deployable, f.err
}

func TestSearchObjectByIPMatchesHostAndNetwork(t *testing.T) {
	client := &fakeAPI{
		networks: []fmc.NetworkObject{
			{ID: "n1", Name: "branch-lan", Type: "Network", Value: "10.10.10.0/24"},
			{ID: "n2", Name: "dmz", Type: "Network", Value: "192.168.50.0/24"},
		},
		hosts: []fmc.NetworkObject{
			{ID: "h1", Name: "web-server", Type: "Host", Value: "10.10.10.5"},
			{ID: "h2", Name: "db-server", Type: "Host", Value: "10.10.20.7"},
		},
	}

	result, err := SearchObjectByIP(context.Background(), client, "10.10.10.5")
	require.NoError(t, err)

	assert.Equal(t, "10.10.10.5", result.SearchedIP)
	require.Equal(t, 2, result.Count)

	types := map[string]string{}
	for _, match := range result.Matches {
		types[match.Name] = match.Type
	}
	assert.Equal(t, "network", types["branch-lan"])
	assert.Equal(t, "host", types["web-server"])
}

func TestSearchObjectByIPSingleValueNetworkObject(t *testing.T) {
	client := &fakeAPI{
		networks: []fmc.NetworkObject{
			{ID: "n1", Name: "literal", Type: "Network", Value: "172.16.0.9"},
		},
	}

	result, err := SearchObjectByIP(context.Background(), client, "172.16.0.9")
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "network", result.Matches[0].Type)
}

func TestSearchObjectByIPNoMatches(t *testing.T) {
	client := &fakeAPI{
		networks: []fmc.NetworkObject{
			{ID: "n1", Name: "branch-lan", Value: "10.10.10.0/24"},
		},
	}

	result, err := SearchObjectByIP(context.Background(), client, "203.0.113.1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.NotNil(t, result.Matches)
}

func TestSearchObjectByIPInvalidInput(t *testing.T) {
	client := &fakeAPI{}

	result, err := SearchObjectByIP(context.Background(), client, "not-an-ip")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "not-an-ip")
	assert.Nil(t, result)
}

func TestSearchObjectByIPSkipsMalformedObjectValues(t *testing.T) {
	client := &fakeAPI{
		networks: []fmc.NetworkObject{
			{ID: "n1", Name: "garbage", Value: "not/a/prefix"},
			{ID: "n2", Name: "empty", Value: ""},
			{ID: "n3", Name: "good", Value: "10.0.0.0/8"},
		},
	}

	result, err := SearchObjectByIP(context.Background(), client, "10.1.2.3")
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "good", result.Matches[0].Name)
}

func TestCheckDeploymentStatusPendingChanges(t *testing.T) {
	client := &fakeAPI{
		deployable: []fmc.DeployableDevice{
			{ID: "d1", Name: "fw-edge-01", CanBeDeployed: true, UpToDate: false},
		},
	}

	report, err := CheckDeploymentStatus(context.Background(), client, "")
	require.NoError(t, err)

	assert.Equal(t, "all devices", report.Filter)
	assert.Equal(t, 1, report.Count)
	assert.False(t, report.AllDevicesSynced)
	assert.Equal(t, "1 device(s) have pending changes", report.Summary)
	require.Len(t, report.Devices, 1)
	assert.True(t, report.Devices[0].HasPendingChanges)
}

func TestCheckDeploymentStatusAllSynced(t *testing.T) {
	client := &fakeAPI{
		deployable: []fmc.DeployableDevice{
			{ID: "d1", Name: "fw-edge-01", UpToDate: true},
			{ID: "d2", Name: "fw-edge-02", UpToDate: true},
		},
	}

	report, err := CheckDeploymentStatus(context.Background(), client, "")
	require.NoError(t, err)
	assert.True(t, report.AllDevicesSynced)
	assert.Equal(t, "All devices are in sync", report.Summary)
}

func TestCheckDeploymentStatusEmptyIsSynced(t *testing.T) {
	client := &fakeAPI{}

	report, err := CheckDeploymentStatus(context.Background(), client, "")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Count)
	assert.True(t, report.AllDevicesSynced)
}

func TestCheckDeploymentStatusNameFilter(t *testing.T) {
	client := &fakeAPI{
		deployable: []fmc.DeployableDevice{
			{ID: "d1", Name: "FW-Edge-01", UpToDate: false},
			{ID: "d2", Name: "fw-edge-02", UpToDate: false},
		},
	}

	report, err := CheckDeploymentStatus(context.Background(), client, "fw-edge-01")
	require.NoError(t, err)

	assert.Equal(t, "fw-edge-01", report.Filter)
	require.Equal(t, 1, report.Count)
	assert.Equal(t, "FW-Edge-01", report.Devices[0].Name)
}
