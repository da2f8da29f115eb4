package query

import (
	"math"

	"github.com/dzlab/searchcore/schema"
)

// Planner validates a SearchQuery against a schema and applies the
// rewrites that keep a query executable by the collector.
type Planner struct {
	Schema *schema.Schema
}

// NewPlanner builds a Planner bound to s.
func NewPlanner(s *schema.Schema) *Planner {
	return &Planner{Schema: s}
}

// Plan validates q and returns a rewritten copy. q is never mutated.
func (p *Planner) Plan(q *SearchQuery) (*SearchQuery, error) {
	if q == nil {
		return nil, invalid("", "query is nil")
	}
	ns, ok := p.Schema.Namespace(q.Namespace)
	if !ok {
		return nil, invalid("namespace", "unknown namespace %q", q.Namespace)
	}

	out := *q
	if out.Limit < 0 {
		return nil, invalid("limit", "limit must be >= 0, got %d", out.Limit)
	}
	if out.Offset < 0 {
		return nil, invalid("offset", "offset must be >= 0, got %d", out.Offset)
	}

	if err := validateKeywords(ns, &out.Keywords, "keywords"); err != nil {
		return nil, err
	}

	if out.Filter != nil {
		f, err := validateFilter(p.Schema, ns, *out.Filter, "filter")
		if err != nil {
			return nil, err
		}
		out.Filter = &f
	}

	// Rewrite 1: pushdown of namespace-equality into a hidden FILTER
	// clause `_namespace = outer.namespace`.
	nsClause := BooleanClause{Occur: FILTERocc, Filter: Term("_namespace", ns.Name)}
	if out.Filter == nil {
		f := Boolean(0, nsClause)
		out.Filter = &f
	} else if out.Filter.Kind == FilterBoolean {
		merged := *out.Filter
		merged.Clauses = append(append([]BooleanClause{}, merged.Clauses...), nsClause)
		out.Filter = &merged
	} else {
		wrapped := Boolean(0,
			BooleanClause{Occur: MUST, Filter: *out.Filter},
			nsClause,
		)
		out.Filter = &wrapped
	}

	// Rewrite 2 + 3: collapse nested booleans with compatible occur, and
	// promote MUST_NOT(MUST_NOT(x)) to MUST.
	*out.Filter = rewriteFilter(*out.Filter)

	if out.Join != nil {
		joinCopy := *out.Join
		joinCopy.InnerSearchQueries = append([]*SearchQuery{}, out.Join.InnerSearchQueries...)
		out.Join = &joinCopy
		for i, inner := range out.Join.InnerSearchQueries {
			if inner == nil {
				return nil, invalid("join.innerSearchQueries", "inner query %d is nil", i)
			}
			childNS, ok := p.Schema.Namespace(inner.Namespace)
			if !ok {
				return nil, invalid("join.innerSearchQueries", "inner query %d: unknown namespace %q", i, inner.Namespace)
			}
			if len(ns.ForeignKeysTo(childNS.Name)) == 0 {
				return nil, invalid("join.innerSearchQueries", "namespace %q has no foreign key to child namespace %q", ns.Name, childNS.Name)
			}
			childPlanner := &Planner{Schema: p.Schema}
			plannedInner, err := childPlanner.Plan(inner)
			if err != nil {
				return nil, err
			}
			out.Join.InnerSearchQueries[i] = plannedInner
		}
	}

	// Rewrite 4: detect pure-FILTER plans to short-circuit scoring.
	out.ScoringRequired = hasScoringClause(&out)

	return &out, nil
}

func hasScoringClause(q *SearchQuery) bool {
	for _, g := range q.Keywords.Groups {
		if g.Occur == MUST || g.Occur == SHOULD {
			return true
		}
	}
	if len(q.Keywords.VectorQueries) > 0 || len(q.Keywords.FuzzyQueries) > 0 {
		return true
	}
	if q.Filter != nil && filterHasScoringClause(*q.Filter) {
		return true
	}
	return false
}

func filterHasScoringClause(f Filter) bool {
	if f.Kind != FilterBoolean {
		return false
	}
	for _, c := range f.Clauses {
		if c.Occur == MUST || c.Occur == SHOULD {
			return true
		}
		if filterHasScoringClause(c.Filter) {
			return true
		}
	}
	return false
}

// rewriteFilter applies rewrites 2 and 3 recursively.
func rewriteFilter(f Filter) Filter {
	if f.Kind != FilterBoolean {
		return f
	}
	var flat []BooleanClause
	for _, c := range f.Clauses {
		c.Filter = rewriteFilter(c.Filter)
		// Rewrite 3: MUST_NOT(MUST_NOT(x)) -> MUST(x).
		if c.Occur == MUSTNOT && c.Filter.Kind == FilterBoolean && isSingleMustNot(c.Filter) {
			flat = append(flat, BooleanClause{Occur: MUST, Filter: c.Filter.Clauses[0].Filter})
			continue
		}
		// Rewrite 2: collapse a nested boolean with the same occur and no
		// minShouldMatch requirement of its own into the parent.
		if c.Filter.Kind == FilterBoolean && c.Filter.MinShouldMatch == 0 && compatibleOccur(f, c) {
			flat = append(flat, c.Filter.Clauses...)
			continue
		}
		flat = append(flat, c)
	}
	f.Clauses = flat
	return f
}

func isSingleMustNot(f Filter) bool {
	return len(f.Clauses) == 1 && f.Clauses[0].Occur == MUSTNOT
}

func compatibleOccur(parent Filter, c BooleanClause) bool {
	if c.Occur != MUST && c.Occur != FILTERocc {
		return false
	}
	for _, inner := range c.Filter.Clauses {
		if inner.Occur != c.Occur {
			return false
		}
	}
	return true
}

func validateKeywords(ns schema.Namespace, kw *Keywords, path string) error {
	for i, g := range kw.Groups {
		if g.MinShouldMatch < 0 || g.MinShouldMatch > len(g.Keywords) {
			return invalid(path, "groups[%d]: minShouldMatch %d exceeds group size %d", i, g.MinShouldMatch, len(g.Keywords))
		}
	}
	for i, vq := range kw.VectorQueries {
		if err := validateVectorQuery(ns, vq, i, path); err != nil {
			return err
		}
	}
	return nil
}

func validateVectorQuery(ns schema.Namespace, vq VectorQuery, i int, path string) error {
	if vq.K <= 0 {
		return invalid(path, "vectorQueries[%d]: k must be > 0, got %d", i, vq.K)
	}
	f, ok := ns.Field(vq.Field)
	if !ok {
		return invalid(path, "vectorQueries[%d]: unknown field %q", i, vq.Field)
	}
	if f.Type != schema.Vector && f.Type != schema.ListOfVector {
		return invalid(path, "vectorQueries[%d]: field %q is not a vector field", i, vq.Field)
	}
	return nil
}

func validateFilter(sc *schema.Schema, ns schema.Namespace, f Filter, path string) (Filter, error) {
	switch f.Kind {
	case FilterTerm, FilterTermInSet, FilterPointRange:
		if _, ok := ns.Field(f.Field); !ok {
			return f, invalid(path, "unknown field %q", f.Field)
		}
	case FilterGeoDistance:
		field, ok := ns.Field(f.Field)
		if !ok {
			return f, invalid(path, "unknown field %q", f.Field)
		}
		if field.Type != schema.GeoPoint && field.Type != schema.ListOfGeoPoint {
			return f, invalid(path, "field %q is not a geo_point field", f.Field)
		}
		if math.IsNaN(f.Lat) || math.IsInf(f.Lat, 0) || f.Lat < -90 || f.Lat > 90 {
			return f, invalid(path, "latitude %v out of range", f.Lat)
		}
		if math.IsNaN(f.Lon) || math.IsInf(f.Lon, 0) || f.Lon < -180 || f.Lon > 180 {
			return f, invalid(path, "longitude %v out of range", f.Lon)
		}
		if f.Meters < 0 {
			return f, invalid(path, "meters must be >= 0, got %v", f.Meters)
		}
	case FilterVector:
		if f.VectorQuery == nil {
			return f, invalid(path, "vector filter missing vectorQuery")
		}
		if err := validateVectorQuery(ns, *f.VectorQuery, 0, path); err != nil {
			return f, err
		}
	case FilterBoolean:
		if f.MinShouldMatch < 0 {
			return f, invalid(path, "minShouldMatch must be >= 0, got %d", f.MinShouldMatch)
		}
		shouldCount := 0
		for _, c := range f.Clauses {
			if c.Occur == SHOULD {
				shouldCount++
			}
		}
		if f.MinShouldMatch > shouldCount {
			return f, invalid(path, "minShouldMatch %d exceeds SHOULD clause count %d", f.MinShouldMatch, shouldCount)
		}
		clauses := make([]BooleanClause, len(f.Clauses))
		for i, c := range f.Clauses {
			child, err := validateFilter(sc, ns, c.Filter, path)
			if err != nil {
				return f, err
			}
			clauses[i] = BooleanClause{Occur: c.Occur, Filter: child}
		}
		f.Clauses = clauses
	case FilterReferenceFieldInSet:
		if _, ok := ns.Field(f.Field); !ok {
			return f, invalid(path, "unknown field %q", f.Field)
		}
		refNS, ok := sc.Namespace(f.RefNamespace)
		if !ok {
			return f, invalid(path, "unknown reference namespace %q", f.RefNamespace)
		}
		if _, ok := refNS.Field(f.RefField); !ok {
			return f, invalid(path, "unknown reference field %q on namespace %q", f.RefField, f.RefNamespace)
		}
		if len(ns.ForeignKeysTo(f.RefNamespace)) == 0 {
			return f, invalid(path, "namespace %q has no foreign key to %q", ns.Name, f.RefNamespace)
		}
	}
	return f, nil
}
