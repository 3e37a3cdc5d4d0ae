package shipstation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const ordersEndpoint = "/orders"

// FetchOrders retrieves every order matching the given status and tag,
// walking the listing endpoint page by page. Pagination stops when a page
// returns fewer records than the page size; accumulation order follows page
// order. Any single page exhausting the retry budget aborts the whole fetch
// with an *UpstreamError.
func (c *Client) FetchOrders(ctx context.Context, status, tagID string) ([]Order, error) {
	var all []Order

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("orderStatus", status)
		params.Set("tagId", tagID)
		params.Set("page", strconv.Itoa(page))
		params.Set("pageSize", strconv.Itoa(c.pageSize))

		body, err := c.get(ctx, ordersEndpoint, params)
		if err != nil {
			return nil, err
		}

		// A 200 with an empty body counts as zero orders for the page.
		var pg ordersPage
		if len(body) > 0 {
			if err := json.Unmarshal(body, &pg); err != nil {
				return nil, &UpstreamError{
					Endpoint: ordersEndpoint,
					Err:      fmt.Errorf("decode page %d: %w", page, err),
				}
			}
		}

		all = append(all, pg.Orders...)

		c.logger.Debug().
			Str("tag", tagID).
			Int("page", page).
			Int("page_records", len(pg.Orders)).
			Int("accumulated", len(all)).
			Msg("fetched orders page")

		// A short page is the last page. An exactly-full final page costs
		// one extra request whose empty result ends the loop.
		if len(pg.Orders) < c.pageSize {
			break
		}
	}

	c.logger.Info().
		Str("tag", tagID).
		Str("status", status).
		Int("orders", len(all)).
		Msg("order fetch complete")

	return all, nil
}
