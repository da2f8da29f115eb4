package wire

import (
	"testing"

	"github.com/dzlab/searchcore/collect"
)

func TestEncodeDecode_FlatNormalized(t *testing.T) {
	resp := SearcherResponse{ShardID: 2, TotalMatchedDocuments: 5}
	data, err := Encode(resp, FlatNormalized)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	var out SearcherResponse
	if err := Decode(data, FlatNormalized, &out); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if out.ShardID != 2 || out.TotalMatchedDocuments != 5 {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}
}

func TestEncodeDecode_Compressed(t *testing.T) {
	resp := SearcherResponse{ShardID: 7, TotalMatchedDocuments: 100, Documents: []Document{
		{PrimaryKey: "p1", Score: 1.5},
	}}
	data, err := Encode(resp, FlatNormalizedCompressed)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if data[0] != formatVersion {
		t.Fatalf("expected format version prefix %d, got %d", formatVersion, data[0])
	}
	var out SearcherResponse
	if err := Decode(data, FlatNormalizedCompressed, &out); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if out.ShardID != 7 || len(out.Documents) != 1 || out.Documents[0].PrimaryKey != "p1" {
		t.Fatalf("roundtrip mismatch: %+v", out)
	}
}

func TestDecode_RejectsUnknownFormatVersion(t *testing.T) {
	bad := []byte{99, 1, 2, 3}
	var out SearcherResponse
	err := Decode(bad, FlatNormalizedCompressed, &out)
	if err == nil {
		t.Fatal("expected an error for an unknown format version")
	}
}

func TestFlatten_DeduplicatesSharedChildren(t *testing.T) {
	store := &collect.Document{PrimaryKey: "s1"}
	p1 := &collect.Document{PrimaryKey: "p1", Children: map[string][]*collect.Document{"store_id": {store}}}
	p2 := &collect.Document{PrimaryKey: "p2", Children: map[string][]*collect.Document{"store_id": {store}}}

	parents, children := Flatten([]*collect.Document{p1, p2})
	if len(children) != 1 {
		t.Fatalf("expected 1 deduplicated child, got %d", len(children))
	}
	if len(parents) != 2 {
		t.Fatalf("expected 2 parents, got %d", len(parents))
	}
	for _, p := range parents {
		if len(p.ChildDocumentOffsets) != 1 || p.ChildDocumentOffsets[0] != 0 {
			t.Fatalf("expected both parents to reference child offset 0, got %v", p.ChildDocumentOffsets)
		}
	}
}
