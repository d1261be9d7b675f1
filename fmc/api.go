package fmc

import "context"

// API is the surface the protocol-adapter layer consumes. *Client is the
// production implementation; adapters accept the interface so they can
// be exercised against fakes.
type API interface {
	// Connect establishes the HTTP session and authenticates.
	Connect(ctx context.Context) error

	// Close tears down the session and clears credential state.
	Close()

	// DomainUUID returns the effective domain identifier for the session.
	DomainUUID() string

	// ServerVersion returns FMC server version information.
	ServerVersion(ctx context.Context) (map[string]any, error)

	// DomainInfo returns information about the available domains.
	DomainInfo(ctx context.Context) (map[string]any, error)

	// Devices returns all managed device records.
	Devices(ctx context.Context) ([]Device, error)

	// NetworkObjects returns all network objects.
	NetworkObjects(ctx context.Context) ([]NetworkObject, error)

	// HostObjects returns all host objects.
	HostObjects(ctx context.Context) ([]NetworkObject, error)

	// DeployableDevices returns devices with pending deployments,
	// degrading a 403 to an empty result.
	DeployableDevices(ctx context.Context) ([]DeployableDevice, error)
}

var _ API = (*Client)(nil)
