package api

import (
	"context"
	"net/url"
	"strconv"
)

const endpointClients = "/api/dash/clients"

// ListClients fetches one page of the client listing. The client-page loops
// in the mailer depend on TotalPages or TotalCount being present to know
// when the collection ends.
func (c *Client) ListClients(ctx context.Context, page, pageSize int) (*ClientPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var env envelope[ClientPage]
	if err := c.getJSON(ctx, endpointClients, query, true, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}
