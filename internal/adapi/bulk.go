package adapi

import (
	"context"
	"net/http"

	"github.com/GoADConsole/GoADConsole/internal/bulk"
)

// BulkAction sends one bulk action. It is never retried.
func (c *Client) BulkAction(ctx context.Context, p bulk.Payload) (*bulk.Response, error) {
	out := &bulk.Response{}

	if err := c.do(ctx, http.MethodPost, directoryPath+"/bulkAction", nil, p, out); err != nil {
		return nil, err
	}

	return out, nil
}
