package adapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/GoADConsole/GoADConsole/internal/stats"
)

const (
	systemPath = "/api/System"
	configPath = "/api/Config/"
)

// DashboardStats returns the directory summary.
func (c *Client) DashboardStats(ctx context.Context) (*stats.DashboardStats, error) {
	out := &stats.DashboardStats{}

	if err := c.get(ctx, systemPath+"/dashboard-stats", nil, out); err != nil {
		return nil, err
	}

	return out, nil
}

// SystemInfo describes the backend service.
func (c *Client) SystemInfo(ctx context.Context) (*stats.SystemInfo, error) {
	out := &stats.SystemInfo{}

	if err := c.get(ctx, systemPath+"/info", nil, out); err != nil {
		return nil, err
	}

	return out, nil
}

// GetConfig decodes the configuration section into out.
func (c *Client) GetConfig(ctx context.Context, section string, out any) error {
	return c.get(ctx, configPath+url.PathEscape(section), nil, out)
}

// PutConfig replaces the configuration section with in.
func (c *Client) PutConfig(ctx context.Context, section string, in any) error {
	return c.do(ctx, http.MethodPut, configPath+url.PathEscape(section), nil, in, nil)
}
