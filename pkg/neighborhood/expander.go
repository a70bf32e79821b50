// Package neighborhood provides depth-bounded breadth-first expansion over
// the hypergraph, used for hover/click highlighting and cluster
// visualization. The adjacency structure is built once per data generation
// and reused across queries; it is never cached across generations.
package neighborhood

import (
	"sort"

	"github.com/Casys-AI/capgraph/pkg/model"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// MaxDepth caps traversal depth. "Whole connected stack" requests are bound
// to this many hops so pathological fan-out stays finite.
const MaxDepth = 10

// Result holds the nodes within the requested hop count (excluding the
// start node) and the edges whose endpoints both lie in the highlighted set.
type Result struct {
	Nodes map[string]bool
	Edges []model.Edge
}

// NodeIDs returns the member ids sorted for deterministic consumption.
func (r Result) NodeIDs() []string {
	ids := make([]string, 0, len(r.Nodes))
	for id := range r.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Expander answers depth-bounded neighborhood queries over a fixed edge set.
//
// Every edge contributes adjacency in both directions regardless of its
// type: highlighting is direction-agnostic. Self loops add no adjacency and
// are skipped.
type Expander struct {
	g        *simple.UndirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
	edges    []model.Edge
}

// NewExpander builds the undirected adjacency graph for one data
// generation. Node identity is discovered from edge endpoints; a node that
// appears in no edge has an empty neighborhood by construction.
func NewExpander(edges []model.Edge) *Expander {
	g := simple.NewUndirectedGraph()
	idToNode := make(map[string]int64)
	nodeToID := make(map[int64]string)

	ensure := func(id string) int64 {
		if nid, ok := idToNode[id]; ok {
			return nid
		}
		n := g.NewNode()
		g.AddNode(n)
		idToNode[id] = n.ID()
		nodeToID[n.ID()] = id
		return n.ID()
	}

	for _, e := range edges {
		if e.Source == "" || e.Target == "" || e.Source == e.Target {
			continue
		}
		u := ensure(e.Source)
		v := ensure(e.Target)
		g.SetEdge(g.NewEdge(g.Node(u), g.Node(v)))
	}

	return &Expander{
		g:        g,
		idToNode: idToNode,
		nodeToID: nodeToID,
		edges:    edges,
	}
}

// Expand returns the nodes reachable from start within depth hops, start
// excluded, plus the edges induced on {start} ∪ result.
//
// depth <= 0 and unknown start ids both return empty, well-formed results;
// Expand never fails. Depths beyond MaxDepth are clamped.
func (x *Expander) Expand(start string, depth int) Result {
	res := Result{Nodes: make(map[string]bool)}
	if depth <= 0 {
		return res
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	startNode, ok := x.idToNode[start]
	if !ok {
		return res
	}

	var bfs traverse.BreadthFirst
	bfs.Walk(x.g, x.g.Node(startNode), func(n graph.Node, d int) bool {
		if d > depth {
			return true // frontier exhausted the hop budget
		}
		if n.ID() != startNode {
			res.Nodes[x.nodeToID[n.ID()]] = true
		}
		return false
	})

	inSet := func(id string) bool { return id == start || res.Nodes[id] }
	for _, e := range x.edges {
		if e.Source == e.Target {
			continue
		}
		if inSet(e.Source) && inSet(e.Target) {
			res.Edges = append(res.Edges, e)
		}
	}
	return res
}

// ExpandAll returns the whole connected component around start, bounded by
// MaxDepth hops.
func (x *Expander) ExpandAll(start string) Result {
	return x.Expand(start, MaxDepth)
}

// Degree returns the number of distinct neighbors of id.
func (x *Expander) Degree(id string) int {
	nid, ok := x.idToNode[id]
	if !ok {
		return 0
	}
	return x.g.From(nid).Len()
}
