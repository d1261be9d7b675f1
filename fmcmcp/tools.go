package fmcmcp

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/netadapt/fmc-mcp/fmc"
)

// ErrInvalidInput marks malformed tool arguments. Handlers turn it into
// a structured error payload instead of a protocol-level failure.
var ErrInvalidInput = errors.New("invalid input")

// ObjectMatch is one network or host object containing a searched IP.
type ObjectMatch struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
}

// SearchResult is the payload of the search_object_by_ip tool.
type SearchResult struct {
	SearchedIP string        `json:"searchedIP"`
	Matches    []ObjectMatch `json:"matches"`
	Count      int           `json:"count"`
}

// DeviceDeployment is one device's entry in a deployment-status check.
type DeviceDeployment struct {
	Name              string `json:"name"`
	ID                string `json:"id"`
	CanBeDeployed     bool   `json:"canBeDeployed"`
	UpToDate          bool   `json:"upToDate"`
	HasPendingChanges bool   `json:"hasPendingChanges"`
}

// DeploymentReport is the payload of the get_deployment_status tool.
type DeploymentReport struct {
	Filter           string             `json:"filter"`
	Devices          []DeviceDeployment `json:"devices"`
	Count            int                `json:"count"`
	AllDevicesSynced bool               `json:"allDevicesSynced"`
	Summary          string             `json:"summary"`
}

// SearchObjectByIP finds network and host objects containing the given
// IP address. Network objects match by CIDR containment or exact value,
// host objects by exact value. A malformed address returns
// ErrInvalidInput.
func SearchObjectByIP(ctx context.Context, client fmc.API, ipAddress string) (*SearchResult, error) {
	searchIP, err := netip.ParseAddr(ipAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid IP address: %s", ErrInvalidInput, ipAddress)
	}

	// Network and host objects are independent listings; fetch them
	// concurrently.
	var networks, hosts []fmc.NetworkObject
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		networks, err = client.NetworkObjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		hosts, err = client.HostObjects(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := []ObjectMatch{}
	for _, obj := range networks {
		if objectContains(obj.Value, searchIP) {
			matches = append(matches, newMatch("network", obj))
		}
	}
	for _, obj := range hosts {
		if hostEquals(obj.Value, searchIP) {
			matches = append(matches, newMatch("host", obj))
		}
	}

	return &SearchResult{
		SearchedIP: ipAddress,
		Matches:    matches,
		Count:      len(matches),
	}, nil
}

// CheckDeploymentStatus reports which devices have configuration changes
// pending deployment, optionally filtered to a single device by
// case-insensitive name match.
func CheckDeploymentStatus(ctx context.Context, client fmc.API, deviceName string) (*DeploymentReport, error) {
	deployable, err := client.DeployableDevices(ctx)
	if err != nil {
		return nil, err
	}

	if deviceName != "" {
		filtered := deployable[:0]
		for _, device := range deployable {
			if strings.EqualFold(device.Name, deviceName) {
				filtered = append(filtered, device)
			}
		}
		deployable = filtered
	}

	devices := make([]DeviceDeployment, 0, len(deployable))
	pending := 0
	for _, device := range deployable {
		if !device.UpToDate {
			pending++
		}
		devices = append(devices, DeviceDeployment{
			Name:              device.Name,
			ID:                device.ID,
			CanBeDeployed:     device.CanBeDeployed,
			UpToDate:          device.UpToDate,
			HasPendingChanges: !device.UpToDate,
		})
	}

	filter := deviceName
	if filter == "" {
		filter = "all devices"
	}

	allSynced := pending == 0
	summary := "All devices are in sync"
	if !allSynced {
		summary = fmt.Sprintf("%d device(s) have pending changes", pending)
	}

	return &DeploymentReport{
		Filter:           filter,
		Devices:          devices,
		Count:            len(devices),
		AllDevicesSynced: allSynced,
		Summary:          summary,
	}, nil
}

func newMatch(objectType string, obj fmc.NetworkObject) ObjectMatch {
	return ObjectMatch{
		Type:        objectType,
		Name:        obj.Name,
		Value:       obj.Value,
		ID:          obj.ID,
		Description: obj.Description,
	}
}

// objectContains reports whether a network object's value (a CIDR prefix
// or a single address) contains ip. Unparseable values never match.
func objectContains(value string, ip netip.Addr) bool {
	if strings.Contains(value, "/") {
		prefix, err := netip.ParsePrefix(value)
		if err != nil {
			return false
		}
		return prefix.Contains(ip)
	}
	return hostEquals(value, ip)
}

func hostEquals(value string, ip netip.Addr) bool {
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return false
	}
	return addr == ip
}
