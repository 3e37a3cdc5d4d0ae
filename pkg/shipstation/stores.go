package shipstation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const storesEndpoint = "/stores"

// FetchStores retrieves the store reference collection and returns a
// store-id → display-name lookup. Single request, same retry discipline as
// the orders fetch. The lookup is read-only for the rest of the run.
func (c *Client) FetchStores(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, storesEndpoint, nil)
	if err != nil {
		return nil, err
	}

	var stores []Store
	if len(body) > 0 {
		if err := json.Unmarshal(body, &stores); err != nil {
			return nil, &UpstreamError{
				Endpoint: storesEndpoint,
				Err:      fmt.Errorf("decode stores: %w", err),
			}
		}
	}

	lookup := make(map[string]string, len(stores))
	for _, s := range stores {
		lookup[strconv.FormatInt(s.StoreID, 10)] = s.StoreName
	}

	c.logger.Info().Int("stores", len(lookup)).Msg("store reference loaded")

	return lookup, nil
}
