// Package sdmx provides a client for an SDMX 2.1 REST data portal, such as the
// ECB Data Portal. Structures are requested as SDMX-ML, observations as CSV.
package sdmx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ONSdigital/dp-api-clients-go/health"
	healthcheck "github.com/ONSdigital/dp-healthcheck/healthcheck"
	"github.com/ONSdigital/log.go/v2/log"
	"golang.org/x/time/rate"
)

const service = "sdmx-data-portal"

const (
	acceptStructure = "application/vnd.sdmx.structure+xml;version=2.1"
	acceptCSV       = "text/csv"
)

// portalRequestsPerSecond bounds outbound calls so batch fetches stay polite
// towards the public portal.
const portalRequestsPerSecond = 5

// Client is an sdmx data portal client which can be used to make requests to the portal
type Client struct {
	hcCli   *health.Client
	limiter *rate.Limiter
}

// NewClient creates a new instance of Client with a given portal url
func NewClient(portalURL string) *Client {
	return NewWithHealthClient(health.NewClient(service, portalURL))
}

// NewWithHealthClient creates a new instance of Client, reusing the URL and
// Clienter from the provided health check client
func NewWithHealthClient(hcCli *health.Client) *Client {
	return &Client{
		hcCli:   hcCli,
		limiter: rate.NewLimiter(rate.Limit(portalRequestsPerSecond), portalRequestsPerSecond),
	}
}

// URL returns the URL used by this client
func (c *Client) URL() string {
	return c.hcCli.URL
}

// Checker calls the portal health endpoint and returns a check object to the caller
func (c *Client) Checker(ctx context.Context, check *healthcheck.CheckState) error {
	return c.hcCli.Checker(ctx, check)
}

// get performs a GET against the portal, returning the body for 2xx responses
// and an ErrInvalidPortalResponse otherwise
func (c *Client) get(ctx context.Context, path string, query url.Values, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	uri := fmt.Sprintf("%s/%s", c.hcCli.URL, path)
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("Accept", accept)

	resp, err := c.hcCli.Client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer closeResponseBody(ctx, resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewErrInvalidPortalResponse(resp.StatusCode, req.URL.Path)
	}

	return io.ReadAll(resp.Body)
}

// closeResponseBody closes the response body and logs an error if unsuccessful
func closeResponseBody(ctx context.Context, resp *http.Response) {
	if resp.Body == nil {
		return
	}
	if err := resp.Body.Close(); err != nil {
		log.Error(ctx, "error closing http response body", err)
	}
}
