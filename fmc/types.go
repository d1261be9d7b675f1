package fmc

import "encoding/json"

// page is the envelope FMC wraps around every paginated listing.
type page struct {
	Items  []json.RawMessage `json:"items"`
	Paging paging            `json:"paging"`
}

type paging struct {
	Count  int `json:"count"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Pages  int `json:"pages"`
}

// Device is a managed device record.
type Device struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	HostName     string          `json:"hostName"`
	Type         string          `json:"type"`
	Model        string          `json:"model"`
	SWVersion    string          `json:"sw_version"`
	HealthStatus string          `json:"healthStatus"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// NetworkObject is a network or host object. Value holds either a single
// IP address (host objects, literal network objects) or a CIDR prefix.
type NetworkObject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// DeployableDevice is a device with configuration changes staged but not
// yet pushed to its running state.
type DeployableDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	CanBeDeployed bool   `json:"canBeDeployed"`
	UpToDate      bool   `json:"upToDate"`
	Version       string `json:"version,omitempty"`
}
