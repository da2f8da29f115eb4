package schema

import "testing"

func TestShardConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ShardConfig
		wantErr bool
	}{
		{"ok", ShardConfig{NumberOfShards: 2, NumberOfMicroShards: 4}, false},
		{"zero shards", ShardConfig{NumberOfShards: 0, NumberOfMicroShards: 4}, true},
		{"zero micro", ShardConfig{NumberOfShards: 2, NumberOfMicroShards: 0}, true},
		{"not multiple", ShardConfig{NumberOfShards: 3, NumberOfMicroShards: 4}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestMicroShardID_Deterministic(t *testing.T) {
	a := MicroShardID("key-1", 8)
	b := MicroShardID("key-1", 8)
	if a != b {
		t.Fatalf("expected deterministic hash, got %d and %d", a, b)
	}
	if a < 0 || a >= 8 {
		t.Fatalf("expected micro-shard id in [0,8), got %d", a)
	}
}

func TestShardOf(t *testing.T) {
	// S=2, M=4 -> 2 micro-shards per shard.
	cases := []struct {
		microShard int
		want       int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 1},
	}
	for _, tc := range cases {
		if got := ShardOf(tc.microShard, 2, 4); got != tc.want {
			t.Errorf("ShardOf(%d, 2, 4) = %d, want %d", tc.microShard, got, tc.want)
		}
	}
}
