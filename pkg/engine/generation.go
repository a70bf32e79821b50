// Package engine owns one data generation: a validated snapshot and every
// artifact derived from it (capability tree, adjacency, layouts, search
// candidates). A new snapshot means a new Generation built from scratch;
// nothing is cached across generations and the rendering collaborator only
// ever reads the derived structures.
//
// All operations are synchronous and single-threaded. Callers that refresh
// data concurrently simply discard a stale Generation when a newer one is
// ready.
package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/Casys-AI/capgraph/pkg/hierarchy"
	"github.com/Casys-AI/capgraph/pkg/hull"
	"github.com/Casys-AI/capgraph/pkg/layout"
	"github.com/Casys-AI/capgraph/pkg/metrics"
	"github.com/Casys-AI/capgraph/pkg/model"
	"github.com/Casys-AI/capgraph/pkg/neighborhood"
	"github.com/Casys-AI/capgraph/pkg/search"
	"github.com/Casys-AI/capgraph/pkg/timeline"

	"gonum.org/v1/gonum/spatial/r2"
)

// Generation is the derived state for one snapshot. The expensive
// sub-structures (adjacency map, search candidates, radial placement) are
// built on first use and memoized for the generation's lifetime.
type Generation struct {
	snapshot *model.Snapshot
	tree     *hierarchy.Result

	expander   *neighborhood.Expander
	candidates []search.Candidate

	radial     *layout.Radial
	radialOpts layout.Options
	hasRadial  bool
}

// NewGeneration builds the capability tree for a snapshot. The tree build
// itself never fails; input validation happens earlier, at decode time.
func NewGeneration(snap *model.Snapshot) *Generation {
	if snap == nil {
		snap = &model.Snapshot{}
	}
	defer metrics.Timer(metrics.HierarchyBuild)()
	return &Generation{
		snapshot: snap,
		tree:     hierarchy.Build(snap),
	}
}

// Snapshot returns the generation's input snapshot.
func (g *Generation) Snapshot() *model.Snapshot { return g.snapshot }

// Tree returns the built capability hierarchy.
func (g *Generation) Tree() *hierarchy.Result { return g.tree }

// Neighborhood returns the nodes and induced edges within depth hops of
// start. The adjacency map is built on the first call and reused for the
// rest of the generation.
func (g *Generation) Neighborhood(start string, depth int) neighborhood.Result {
	if g.expander == nil {
		g.expander = neighborhood.NewExpander(g.snapshot.Edges)
	}
	defer metrics.Timer(metrics.NeighborhoodWalk)()
	return g.expander.Expand(start, depth)
}

// Search ranks capabilities and tools against a free-text query. Each
// entity is scored across its searchable fields (name, description,
// qualified name, member tool names and servers) keeping the best field
// score.
func (g *Generation) Search(query string) []search.Match {
	if g.candidates == nil {
		g.candidates = g.buildCandidates()
	}
	defer metrics.Timer(metrics.FuzzySearch)()
	return search.Rank(query, g.candidates)
}

// Radial returns the radial placement for the options, memoized so that
// repeated calls with the same options (the common case: tension slider
// movement) skip node placement entirely.
func (g *Generation) Radial(opts layout.Options) *layout.Radial {
	if !g.hasRadial || opts != g.radialOpts {
		defer metrics.Timer(metrics.RadialPlacement)()
		g.radial = layout.New(g.tree, opts)
		g.radialOpts = opts
		g.hasRadial = true
	}
	return g.radial
}

// RadialLayout materializes the full radial output contract for one
// tension value.
func (g *Generation) RadialLayout(opts layout.Options, tension float64) *layout.Layout {
	r := g.Radial(opts)
	defer metrics.Timer(metrics.BundleCompute)()
	return r.Snapshot(tension)
}

// Timeline buckets the kept capabilities by recency and positions them.
// now is explicit so the layout is reproducible.
func (g *Generation) Timeline(now time.Time, opts timeline.Options) timeline.Layout {
	ids := make([]string, 0, len(g.tree.Capabilities))
	for id := range g.tree.Capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	caps := make([]*hierarchy.CapabilityNode, 0, len(ids))
	for _, id := range ids {
		caps = append(caps, g.tree.Capabilities[id])
	}
	defer metrics.Timer(metrics.TimelineLayout)()
	return timeline.BuildLayout(caps, now, opts)
}

// ClusterOutline is one community's hull overlay.
type ClusterOutline struct {
	CommunityID int      `json:"communityId"`
	Outline     []r2.Vec `json:"outline"`
}

// ClusterOutlines computes a padded hull per community over the positions
// in a rendered radial layout. Communities with fewer than two placed
// members yield no outline.
func (g *Generation) ClusterOutlines(l *layout.Layout, padding float64, smooth bool) []ClusterOutline {
	if l == nil {
		return nil
	}
	defer metrics.Timer(metrics.HullCompute)()
	pointsByCommunity := make(map[int][]r2.Vec)
	collect := func(nodes []layout.PositionedNode) {
		for _, n := range nodes {
			if n.Data.CommunityID == nil {
				continue
			}
			cid := *n.Data.CommunityID
			pointsByCommunity[cid] = append(pointsByCommunity[cid], r2.Vec{X: n.X, Y: n.Y})
		}
	}
	collect(l.Capabilities)
	collect(l.Tools)

	cids := make([]int, 0, len(pointsByCommunity))
	for cid := range pointsByCommunity {
		cids = append(cids, cid)
	}
	sort.Ints(cids)

	var outlines []ClusterOutline
	for _, cid := range cids {
		outline := hull.Overlay(pointsByCommunity[cid], padding, smooth)
		if len(outline) == 0 {
			continue
		}
		outlines = append(outlines, ClusterOutline{CommunityID: cid, Outline: outline})
	}
	return outlines
}

// buildCandidates flattens the tree into searchable entities. Capabilities
// carry their member tools' names and servers so "which capability wraps
// tool X" queries hit; tools are searchable on their own as well.
func (g *Generation) buildCandidates() []search.Candidate {
	ids := make([]string, 0, len(g.tree.Capabilities))
	for id := range g.tree.Capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var candidates []search.Candidate
	seenTool := make(map[string]bool)
	for _, id := range ids {
		c := g.tree.Capabilities[id]
		fields := []string{
			c.Node.Name,
			c.Node.Description,
			g.qualifiedName(id),
		}
		for _, t := range c.Tools {
			fields = append(fields, t.Node.Name, t.Node.Server)
		}
		candidates = append(candidates, search.Candidate{ID: id, Fields: fields})

		for _, t := range c.Tools {
			if seenTool[t.ToolID] {
				continue
			}
			seenTool[t.ToolID] = true
			candidates = append(candidates, search.Candidate{
				ID:     t.ToolID,
				Fields: []string{t.Node.Name, t.Node.Description, t.Node.Server},
			})
		}
	}
	return candidates
}

// qualifiedName joins a capability's ancestor names root-first, the way
// the dashboard displays nested capabilities.
func (g *Generation) qualifiedName(id string) string {
	var names []string
	seen := map[string]bool{}
	for cur := id; cur != "" && !seen[cur]; {
		seen[cur] = true
		c, ok := g.tree.Capabilities[cur]
		if !ok {
			break
		}
		names = append(names, c.Node.Name)
		cur = c.ParentID
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}
