package broker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dzlab/searchcore/shardselect"
	"github.com/dzlab/searchcore/wire"
)

// HTTPSearcherClient is a shardselect.Client reaching one shard's
// searcher replica over HTTP, carrying requests/responses in the
// FLAT_NORMALIZED wire format.
type HTTPSearcherClient struct {
	shardID       int
	microShardIDs []int
	baseURL       string
	httpClient    *http.Client
}

// NewHTTPSearcherClient builds a client for the searcher replica owning
// shardID, reachable at baseURL (e.g. "http://searcher-0:8080").
func NewHTTPSearcherClient(shardID int, microShardIDs []int, baseURL string, httpClient *http.Client) *HTTPSearcherClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPSearcherClient{shardID: shardID, microShardIDs: microShardIDs, baseURL: baseURL, httpClient: httpClient}
}

func (c *HTTPSearcherClient) ShardID() int         { return c.shardID }
func (c *HTTPSearcherClient) MicroShardIDs() []int { return c.microShardIDs }

// Search POSTs req to the searcher's /search endpoint and decodes its
// response.
func (c *HTTPSearcherClient) Search(ctx context.Context, req wire.SearcherRequest) (wire.SearcherResponse, error) {
	body, err := wire.Encode(req, wire.FlatNormalized)
	if err != nil {
		return wire.SearcherResponse{}, fmt.Errorf("broker: encode searcher request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return wire.SearcherResponse{}, fmt.Errorf("broker: build searcher request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return wire.SearcherResponse{}, fmt.Errorf("broker: searcher shard %d unreachable: %w", c.shardID, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return wire.SearcherResponse{}, fmt.Errorf("broker: read searcher shard %d response: %w", c.shardID, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return wire.SearcherResponse{}, fmt.Errorf("broker: searcher shard %d returned status %d: %s", c.shardID, httpResp.StatusCode, respBody)
	}

	var resp wire.SearcherResponse
	if err := wire.Decode(respBody, wire.FlatNormalized, &resp); err != nil {
		return wire.SearcherResponse{}, fmt.Errorf("broker: decode searcher shard %d response: %w", c.shardID, err)
	}
	return resp, nil
}

var _ shardselect.Client = (*HTTPSearcherClient)(nil)
