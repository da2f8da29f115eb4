package shardselect

import (
	"context"
	"testing"

	"github.com/dzlab/searchcore/schema"
	"github.com/dzlab/searchcore/wire"
)

type fakeClient struct {
	shardID int
	micro   []int
}

func (c *fakeClient) Search(ctx context.Context, req wire.SearcherRequest) (wire.SearcherResponse, error) {
	return wire.SearcherResponse{ShardID: c.shardID}, nil
}
func (c *fakeClient) ShardID() int        { return c.shardID }
func (c *fakeClient) MicroShardIDs() []int { return c.micro }

func testSelector() *Selector {
	return &Selector{
		Shard: schema.ShardConfig{NumberOfShards: 2, NumberOfMicroShards: 4},
		Clients: []Client{
			&fakeClient{shardID: 0, micro: []int{0, 1}},
			&fakeClient{shardID: 1, micro: []int{2, 3}},
		},
	}
}

func TestSelect_RouteNoneReturnsAll(t *testing.T) {
	sel := testSelector()
	clients, err := sel.Select(Route{Kind: RouteNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(clients))
	}
}

func TestSelect_RouteByKeyIsStable(t *testing.T) {
	sel := testSelector()
	first, err := sel.Select(Route{Kind: RouteByKey, Key: "widget-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := sel.Select(Route{Kind: RouteByKey, Key: "widget-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ShardID() != second[0].ShardID() {
		t.Fatalf("expected stable single-shard selection across calls, got %v and %v", first, second)
	}
}

func TestSelect_RouteByMicroShardsDeduplicates(t *testing.T) {
	sel := testSelector()
	// micro-shards 0 and 1 both map to shard 0: expect a single client back.
	clients, err := sel.Select(Route{Kind: RouteByMicroShards, MicroShards: []int{0, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clients) != 1 || clients[0].ShardID() != 0 {
		t.Fatalf("expected exactly shard 0, got %v", clients)
	}
}

func TestSelect_EmptyClientListReturnsEmpty(t *testing.T) {
	sel := &Selector{Shard: schema.ShardConfig{NumberOfShards: 1, NumberOfMicroShards: 1}}
	clients, err := sel.Select(Route{Kind: RouteNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clients) != 0 {
		t.Fatalf("expected no clients, got %d", len(clients))
	}
}
