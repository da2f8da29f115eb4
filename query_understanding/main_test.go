package query_understanding

import (
	"testing"

	"github.com/dzlab/searchcore/query_understanding/config"
	"github.com/dzlab/searchcore/query_understanding/processing"
)

func TestBuildSearchQuery_WrapsTokensInAKeywordGroup(t *testing.T) {
	registry := processing.NewStageRegistry()
	registry.Register("lowercase", &processing.LowerCaseStage{})
	registry.Register("tokenize", &processing.TokenizeStage{})
	executor := processing.NewPipelineExecutor(registry)

	cfg := &config.Configuration{
		QueryPlanningPipelines: []config.QueryPlanningPipeline{
			{Name: "default", Steps: []string{"lowercase", "tokenize"}},
		},
	}

	q, err := BuildSearchQuery(executor, cfg, "default", "products", "Running Shoes")
	if err != nil {
		t.Fatalf("BuildSearchQuery: %v", err)
	}
	if q.Namespace != "products" {
		t.Fatalf("expected namespace products, got %s", q.Namespace)
	}
	if len(q.Keywords.Groups) != 1 || len(q.Keywords.Groups[0].Keywords) != 2 {
		t.Fatalf("expected one group with 2 keywords, got %+v", q.Keywords.Groups)
	}
}

func TestBuildSearchQuery_PropagatesPipelineErrors(t *testing.T) {
	executor := processing.NewPipelineExecutor(processing.NewStageRegistry())
	cfg := &config.Configuration{}

	if _, err := BuildSearchQuery(executor, cfg, "missing", "products", "shoes"); err == nil {
		t.Fatal("expected an error for an undefined pipeline")
	}
}
