package indexer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// LoadIndexMapping loads a Bleve index mapping override from a JSON file,
// for deployments that need to hand-tune analyzers beyond what
// schema.ToBleveMapping derives from the namespace definition.
func LoadIndexMapping(filePath string) (mapping.IndexMapping, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", filePath, err)
	}

	im := bleve.NewIndexMapping()
	if err := json.Unmarshal(data, im); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mapping JSON from %s: %w", filePath, err)
	}

	return im, nil
}
