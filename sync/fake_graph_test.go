package sync

import (
	"regexp"

	"github.com/Flyns157/API-recommendation/store"
)

// fakeGraphStore is an in-memory store.GraphStore that interprets the
// small, fixed set of Cypher shapes the projector emits, tracking node and
// edge sets as plain Go data so tests can assert idempotence directly
// without a real Neo4j instance.
type fakeGraphStore struct {
	constraints []store.Constraint
	nodes       map[string]map[string]bool      // label -> id -> present
	edges       map[string]int                  // "fromLabel|from|edge|toLabel|to" -> count
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{
		nodes: make(map[string]map[string]bool),
		edges: make(map[string]int),
	}
}

func (g *fakeGraphStore) EnsureConstraints(cs []store.Constraint) error {
	g.constraints = append(g.constraints, cs...)
	return nil
}

func (g *fakeGraphStore) Close() error { return nil }

func (g *fakeGraphStore) Session(mode store.AccessMode) (store.GraphSession, error) {
	return &fakeGraphSession{g: g}, nil
}

var nodeQueryRe = regexp.MustCompile(`MERGE \(n:(\w+) \{(\w+): \$(\w+)\}\)`)
var edgeQueryRe = regexp.MustCompile(`MATCH \(a:(\w+) \{(\w+): \$from\}\), \(b:(\w+) \{(\w+): \$to\}\) MERGE \(a\)-\[:(\w+)\]->\(b\)`)

type fakeGraphSession struct {
	g *fakeGraphStore
}

func (s *fakeGraphSession) Close() error { return nil }

func (s *fakeGraphSession) Run(query string, params map[string]any) (store.GraphResult, error) {
	if m := edgeQueryRe.FindStringSubmatch(query); m != nil {
		fromLabel, toLabel, edgeLabel := m[1], m[3], m[5]
		from, _ := params["from"].(string)
		to, _ := params["to"].(string)
		if !s.g.nodes[fromLabel][from] || !s.g.nodes[toLabel][to] {
			return &fakeGraphResult{}, nil // MATCH finds nothing: silent skip
		}
		key := fromLabel + "|" + from + "|" + edgeLabel + "|" + toLabel + "|" + to
		if s.g.edges[key] == 0 {
			s.g.edges[key] = 1 // MERGE creates the relationship only when absent
		}
		return &fakeGraphResult{}, nil
	}
	if m := nodeQueryRe.FindStringSubmatch(query); m != nil {
		label, idField := m[1], m[3]
		id, _ := params[idField].(string)
		if s.g.nodes[label] == nil {
			s.g.nodes[label] = make(map[string]bool)
		}
		s.g.nodes[label][id] = true
		return &fakeGraphResult{}, nil
	}
	return &fakeGraphResult{}, nil
}

type fakeGraphResult struct{}

func (r *fakeGraphResult) Next() bool                    { return false }
func (r *fakeGraphResult) Get(field string) (any, bool) { return nil, false }
func (r *fakeGraphResult) Err() error                    { return nil }
