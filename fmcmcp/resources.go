package fmcmcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/netadapt/fmc-mcp/fmc"
)

// deviceSummary is the per-device digest exposed by the devices resource.
type deviceSummary struct {
	Name         string `json:"name"`
	ID           string `json:"id"`
	HostName     string `json:"hostName"`
	Type         string `json:"type"`
	HealthStatus string `json:"healthStatus"`
	Model        string `json:"model"`
	SWVersion    string `json:"sw_version"`
}

type objectSummary struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type deployableSummary struct {
	Name          string `json:"name"`
	ID            string `json:"id"`
	Type          string `json:"type"`
	CanBeDeployed bool   `json:"canBeDeployed"`
	UpToDate      bool   `json:"upToDate"`
}

// SystemInfo returns FMC server version information as indented JSON.
func SystemInfo(ctx context.Context, client fmc.API) (string, error) {
	version, err := client.ServerVersion(ctx)
	if err != nil {
		return "", err
	}
	return marshalIndent(version)
}

// ListDevices returns a summary of all managed devices as indented JSON.
func ListDevices(ctx context.Context, client fmc.API) (string, error) {
	devices, err := client.Devices(ctx)
	if err != nil {
		return "", err
	}

	summary := make([]deviceSummary, 0, len(devices))
	for _, device := range devices {
		summary = append(summary, deviceSummary{
			Name:         device.Name,
			ID:           device.ID,
			HostName:     device.HostName,
			Type:         device.Type,
			HealthStatus: device.HealthStatus,
			Model:        device.Model,
			SWVersion:    device.SWVersion,
		})
	}

	return marshalIndent(map[string]any{
		"devices": summary,
		"count":   len(summary),
	})
}

// ListNetworkObjects returns a summary of all network objects as
// indented JSON.
func ListNetworkObjects(ctx context.Context, client fmc.API) (string, error) {
	objects, err := client.NetworkObjects(ctx)
	if err != nil {
		return "", err
	}

	summary := make([]objectSummary, 0, len(objects))
	for _, obj := range objects {
		summary = append(summary, objectSummary{
			Name:        obj.Name,
			ID:          obj.ID,
			Value:       obj.Value,
			Type:        obj.Type,
			Description: obj.Description,
		})
	}

	return marshalIndent(map[string]any{
		"networkObjects": summary,
		"count":          len(summary),
	})
}

// DeploymentStatus returns the deployment state of all devices as
// indented JSON.
func DeploymentStatus(ctx context.Context, client fmc.API) (string, error) {
	deployable, err := client.DeployableDevices(ctx)
	if err != nil {
		return "", err
	}

	summary := make([]deployableSummary, 0, len(deployable))
	for _, device := range deployable {
		summary = append(summary, deployableSummary{
			Name:          device.Name,
			ID:            device.ID,
			Type:          device.Type,
			CanBeDeployed: device.CanBeDeployed,
			UpToDate:      device.UpToDate,
		})
	}

	return marshalIndent(map[string]any{
		"deployableDevices": summary,
		"count":             len(summary),
		"hasPendingChanges": len(summary) > 0,
	})
}

func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return string(data), nil
}
