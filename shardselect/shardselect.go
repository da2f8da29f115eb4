// Package shardselect picks the set of searcher clients a broker should
// fan a request out to, given an optional routing hint.
package shardselect

import (
	"context"

	"github.com/dzlab/searchcore/schema"
	"github.com/dzlab/searchcore/wire"
)

// RouteKind discriminates a routing hint.
type RouteKind int

const (
	RouteNone RouteKind = iota
	RouteByKey
	RouteByMicroShards
)

// Route is a routing hint attached to a broker request.
type Route struct {
	Kind        RouteKind
	Key         string // RouteByKey
	MicroShards []int  // RouteByMicroShards
}

// Client is the thin RPC-facing interface a shard's searcher is reached
// through.
type Client interface {
	Search(ctx context.Context, req wire.SearcherRequest) (wire.SearcherResponse, error)
	ShardID() int
	MicroShardIDs() []int
}

// Selector holds one namespace's shard clients and resolves a route into
// the subset to fan out to.
type Selector struct {
	Shard   schema.ShardConfig
	Clients []Client // every shard's client for the namespace, in shard-id order
}

// Select resolves a route into the shard clients to fan out to:
// RouteNone scatters to every client,
// RouteByKey hashes the key to a micro-shard and resolves its owning
// shard, RouteByMicroShards de-duplicates the owning shards of every
// listed micro-shard id.
func (s *Selector) Select(route Route) ([]Client, error) {
	if len(s.Clients) == 0 {
		return nil, nil // NoShards, handled upstream
	}
	switch route.Kind {
	case RouteNone:
		out := make([]Client, len(s.Clients))
		copy(out, s.Clients)
		return out, nil

	case RouteByKey:
		m := schema.MicroShardID(route.Key, s.Shard.NumberOfMicroShards)
		shardID := schema.ShardOf(m, s.Shard.NumberOfShards, s.Shard.NumberOfMicroShards)
		return s.clientsForShards([]int{shardID}), nil

	case RouteByMicroShards:
		seen := make(map[int]struct{})
		var shardIDs []int
		for _, m := range route.MicroShards {
			shardID := schema.ShardOf(m, s.Shard.NumberOfShards, s.Shard.NumberOfMicroShards)
			if _, ok := seen[shardID]; ok {
				continue
			}
			seen[shardID] = struct{}{}
			shardIDs = append(shardIDs, shardID)
		}
		return s.clientsForShards(shardIDs), nil

	default:
		return nil, nil
	}
}

func (s *Selector) clientsForShards(shardIDs []int) []Client {
	want := make(map[int]struct{}, len(shardIDs))
	for _, id := range shardIDs {
		want[id] = struct{}{}
	}
	var out []Client
	for _, c := range s.Clients {
		if _, ok := want[c.ShardID()]; ok {
			out = append(out, c)
		}
	}
	return out
}
