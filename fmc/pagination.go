package fmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const defaultPageSize = 1000

// GetAllItems fetches every item from a paginated endpoint, one page at
// a time. An empty items array is the authoritative stop condition; the
// envelope's declared count only short-circuits the trailing request.
func (c *Client) GetAllItems(ctx context.Context, endpoint string, expanded bool) ([]json.RawMessage, error) {
	var allItems []json.RawMessage
	limit := c.pageSize
	offset := 0

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		query.Set("offset", strconv.Itoa(offset))
		if expanded {
			query.Set("expanded", "true")
		}

		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("offset", offset).
			Int("limit", limit).
			Msg("Fetching page")

		resp, err := c.Get(ctx, endpoint, query)
		if err != nil {
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Method:     http.MethodGet,
				Path:       endpoint,
				Body:       string(body),
			}
		}

		var pg page
		if err := json.Unmarshal(body, &pg); err != nil {
			return nil, fmt.Errorf("failed to parse page: %w", err)
		}

		if len(pg.Items) == 0 {
			break
		}

		allItems = append(allItems, pg.Items...)

		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("page_items", len(pg.Items)).
			Int("fetched", len(allItems)).
			Int("total", pg.Paging.Count).
			Msg("Fetched page")

		if offset+limit >= pg.Paging.Count {
			break
		}
		offset += limit
	}

	return allItems, nil
}

// fetchAll aggregates a paginated endpoint into typed records. It is a
// package-level function because methods cannot carry type parameters.
func fetchAll[T any](ctx context.Context, c *Client, endpoint string, expanded bool) ([]T, error) {
	raw, err := c.GetAllItems(ctx, endpoint, expanded)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(raw))
	for _, msg := range raw {
		var item T
		if err := json.Unmarshal(msg, &item); err != nil {
			return nil, fmt.Errorf("failed to parse item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ServerVersion returns FMC server version information.
func (c *Client) ServerVersion(ctx context.Context) (map[string]any, error) {
	return c.GetJSON(ctx, "/api/fmc_platform/v1/info/serverversion", nil)
}

// DomainInfo returns information about the available domains.
func (c *Client) DomainInfo(ctx context.Context) (map[string]any, error) {
	return c.GetJSON(ctx, "/api/fmc_platform/v1/info/domain", nil)
}

// Devices returns all managed device records.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	endpoint := fmt.Sprintf("/api/fmc_config/v1/domain/%s/devices/devicerecords", c.DomainUUID())
	return fetchAll[Device](ctx, c, endpoint, true)
}

// NetworkObjects returns all network objects.
func (c *Client) NetworkObjects(ctx context.Context) ([]NetworkObject, error) {
	endpoint := fmt.Sprintf("/api/fmc_config/v1/domain/%s/object/networks", c.DomainUUID())
	return fetchAll[NetworkObject](ctx, c, endpoint, true)
}

// HostObjects returns all host objects.
func (c *Client) HostObjects(ctx context.Context) ([]NetworkObject, error) {
	endpoint := fmt.Sprintf("/api/fmc_config/v1/domain/%s/object/hosts", c.DomainUUID())
	return fetchAll[NetworkObject](ctx, c, endpoint, true)
}

// DeployableDevices returns devices with pending deployments. The
// endpoint needs elevated privileges on some installations; a 403 is
// soft-degraded to an empty result rather than surfaced as an error.
// That tolerance is specific to this endpoint.
func (c *Client) DeployableDevices(ctx context.Context) ([]DeployableDevice, error) {
	endpoint := fmt.Sprintf("/api/fmc_config/v1/domain/%s/deployment/deployabledevices", c.DomainUUID())
	devices, err := fetchAll[DeployableDevice](ctx, c, endpoint, true)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsForbidden() {
			c.logger.Warn().Msg("Deployment endpoint requires elevated permissions (403 Forbidden)")
			return []DeployableDevice{}, nil
		}
		return nil, err
	}
	return devices, nil
}
