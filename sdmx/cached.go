package sdmx

import (
	"context"
	"time"

	healthcheck "github.com/ONSdigital/dp-healthcheck/healthcheck"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const dataflowsCacheKey = "dataflows"

// CachedClient decorates a Client with bounded, time-limited memoization of
// the expensive portal calls: dataset listing, schema resolution, catalog
// listing and per-key data. Entries expire after the configured TTL, so stale
// structures are re-fetched rather than served forever.
type CachedClient struct {
	cli       *Client
	dataflows *expirable.LRU[string, []Dataflow]
	dims      *expirable.LRU[string, []Dimension]
	catalogs  *expirable.LRU[string, CSVTable]
	data      *expirable.LRU[string, CSVTable]
}

// NewCachedClient wraps cli with caches holding up to maxEntries items per
// concern for at most ttl
func NewCachedClient(cli *Client, maxEntries int, ttl time.Duration) *CachedClient {
	return &CachedClient{
		cli:       cli,
		dataflows: expirable.NewLRU[string, []Dataflow](1, nil, ttl),
		dims:      expirable.NewLRU[string, []Dimension](maxEntries, nil, ttl),
		catalogs:  expirable.NewLRU[string, CSVTable](maxEntries, nil, ttl),
		data:      expirable.NewLRU[string, CSVTable](maxEntries, nil, ttl),
	}
}

// Checker calls the underlying client's portal health check
func (c *CachedClient) Checker(ctx context.Context, check *healthcheck.CheckState) error {
	return c.cli.Checker(ctx, check)
}

// ListDataflows returns the cached dataset list, refreshing it on expiry
func (c *CachedClient) ListDataflows(ctx context.Context) ([]Dataflow, error) {
	if flows, ok := c.dataflows.Get(dataflowsCacheKey); ok {
		return flows, nil
	}
	flows, err := c.cli.ListDataflows(ctx)
	if err != nil {
		return nil, err
	}
	c.dataflows.Add(dataflowsCacheKey, flows)
	return flows, nil
}

// GetDimensions returns the cached dimensional schema for a dataflow. Empty
// schemas are cached too: a dataset without a published structure stays empty
// for the cache lifetime.
func (c *CachedClient) GetDimensions(ctx context.Context, flowID string) ([]Dimension, error) {
	if dims, ok := c.dims.Get(flowID); ok {
		return dims, nil
	}
	dims, err := c.cli.GetDimensions(ctx, flowID)
	if err != nil {
		return nil, err
	}
	c.dims.Add(flowID, dims)
	return dims, nil
}

// ListSeries returns the cached series catalog for a dataflow
func (c *CachedClient) ListSeries(ctx context.Context, flowID string) (CSVTable, error) {
	if table, ok := c.catalogs.Get(flowID); ok {
		return table, nil
	}
	table, err := c.cli.ListSeries(ctx, flowID)
	if err != nil {
		return CSVTable{}, err
	}
	c.catalogs.Add(flowID, table)
	return table, nil
}

// GetSeriesData returns the cached observation history for one series key
func (c *CachedClient) GetSeriesData(ctx context.Context, flowID, seriesKey string) (CSVTable, error) {
	cacheKey := flowID + "/" + seriesKey
	if table, ok := c.data.Get(cacheKey); ok {
		return table, nil
	}
	table, err := c.cli.GetSeriesData(ctx, flowID, seriesKey)
	if err != nil {
		return CSVTable{}, err
	}
	c.data.Add(cacheKey, table)
	return table, nil
}
