package fmcmcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/netadapt/fmc-mcp/fmc"
)

// Server adapts the FMC client to the Model Context Protocol: each FMC
// read becomes a named resource or tool on an MCP server.
type Server struct {
	client fmc.API
	logger zerolog.Logger
	mcp    *mcp.Server
}

// searchInput is the argument schema of the search_object_by_ip tool.
type searchInput struct {
	IPAddress string `json:"ip_address" jsonschema:"the IP address to search for (e.g. 10.10.10.5)"`
}

// deploymentInput is the argument schema of the get_deployment_status
// tool.
type deploymentInput struct {
	DeviceName string `json:"device_name,omitempty" jsonschema:"optional device name to check; checks all devices when omitted"`
}

// New builds the MCP server and registers all FMC resources and tools
// on it. The client must already be connected before Run is called.
func New(client fmc.API, logger zerolog.Logger, version string) *Server {
	s := &Server{
		client: client,
		logger: logger,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "fmc-mcp",
			Version: version,
		}, nil),
	}

	s.registerResources()
	s.registerTools()
	return s
}

// Run serves MCP over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().Msg("Serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerResources() {
	resources := []struct {
		uri         string
		name        string
		description string
		fetch       func(context.Context, fmc.API) (string, error)
	}{
		{
			uri:         "fmc://system/info",
			name:        "system-info",
			description: "FMC system version and health information",
			fetch:       SystemInfo,
		},
		{
			uri:         "fmc://devices/list",
			name:        "devices-list",
			description: "All managed firewall devices",
			fetch:       ListDevices,
		},
		{
			uri:         "fmc://objects/network",
			name:        "network-objects",
			description: "All network objects (IP addresses, subnets)",
			fetch:       ListNetworkObjects,
		},
		{
			uri:         "fmc://deployment/status",
			name:        "deployment-status",
			description: "Devices with configuration changes pending deployment",
			fetch:       DeploymentStatus,
		},
	}

	for _, res := range resources {
		s.mcp.AddResource(&mcp.Resource{
			URI:         res.uri,
			Name:        res.name,
			Description: res.description,
			MIMEType:    "application/json",
		}, s.resourceHandler(res.fetch))
	}
}

func (s *Server) resourceHandler(fetch func(context.Context, fmc.API) (string, error)) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		payload, err := fetch(ctx, s.client)
		if err != nil {
			s.logger.Error().Err(err).Str("uri", req.Params.URI).Msg("Resource read failed")
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      req.Params.URI,
					MIMEType: "application/json",
					Text:     payload,
				},
			},
		}, nil
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_object_by_ip",
		Description: "Find network and host objects containing a specific IP address",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, any, error) {
		result, err := SearchObjectByIP(ctx, s.client, in.IPAddress)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				return errorResult(err), nil, nil
			}
			return nil, nil, err
		}
		return textResult(result), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_deployment_status",
		Description: "Check deployment status of firewall devices and report pending changes",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in deploymentInput) (*mcp.CallToolResult, any, error) {
		report, err := CheckDeploymentStatus(ctx, s.client, in.DeviceName)
		if err != nil {
			return nil, nil, err
		}
		return textResult(report), nil, nil
	})
}

// textResult renders a payload as an indented-JSON text content block.
func textResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Payload types here always marshal; surface the anomaly as text.
		data = []byte(`{"error": "failed to encode result"}`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// errorResult turns a malformed-input error into a structured payload
// rather than a protocol-level failure.
func errorResult(err error) *mcp.CallToolResult {
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}
}
