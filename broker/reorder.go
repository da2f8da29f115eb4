package broker

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dzlab/searchcore/query"
)

// compiledReordering is one L2 rule compiled once per Search call and
// applied, in declaration order, to every hit in the reorder window.
type compiledReordering struct {
	name    string
	program *vm.Program
}

// reorderSampleEnv gives expr.Compile the shape of the env every rule
// runs against, so it can type-check field access without a live hit.
func reorderSampleEnv() map[string]any {
	return map[string]any{
		"doc":     map[string]any{"primaryKey": "", "score": 0.0, "fields": map[string]any{}},
		"context": map[string]float64{},
	}
}

// compileReorderings compiles every rule's expression once; a rule
// rewrites a hit's score as a pure function of (doc, context).
func compileReorderings(rules []query.Reordering) ([]compiledReordering, error) {
	out := make([]compiledReordering, 0, len(rules))
	for _, r := range rules {
		program, err := expr.Compile(r.Expression, expr.Env(reorderSampleEnv()))
		if err != nil {
			return nil, fmt.Errorf("broker: compile reordering %q: %w", r.Name, err)
		}
		out = append(out, compiledReordering{name: r.Name, program: program})
	}
	return out, nil
}

// applyReorderings runs rules over hits[:window] only: reordering a
// full shard result set defeats the purpose of bounding L2 cost to the
// page the client will actually see.
func applyReorderings(hits []shardHit, rules []compiledReordering, contextFeatures map[string]float64, window int) error {
	if window > len(hits) {
		window = len(hits)
	}
	for i := 0; i < window; i++ {
		for _, rule := range rules {
			env := map[string]any{
				"doc": map[string]any{
					"primaryKey": hits[i].doc.PrimaryKey,
					"score":      hits[i].doc.Score,
					"fields":     hits[i].doc.Fields,
				},
				"context": contextFeatures,
			}
			out, err := expr.Run(rule.program, env)
			if err != nil {
				return fmt.Errorf("broker: run reordering %q: %w", rule.name, err)
			}
			if score, ok := toScore(out); ok {
				hits[i].doc.Score = score
			}
		}
	}
	return nil
}

// resortByScore re-sorts hits[:window] by descending score so pagination
// reflects the rewritten scores instead of the pre-reordering merge order.
func resortByScore(hits []shardHit, window int) {
	if window > len(hits) {
		window = len(hits)
	}
	slice := hits[:window]
	sort.SliceStable(slice, func(i, j int) bool {
		return slice[i].doc.Score > slice[j].doc.Score
	})
}

func toScore(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
