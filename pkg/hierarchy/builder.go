// Package hierarchy flattens a raw node/edge snapshot into the capability
// tree the layout and timeline stages consume. It resolves capability
// parents from contains edges, derives nesting levels, fans tools out into
// per-parent visual instances, and classifies orphans and empty
// capabilities.
//
// The build is a pure function of the snapshot: running it twice on the same
// input yields structurally identical trees.
package hierarchy

import (
	"sort"

	"github.com/Casys-AI/capgraph/pkg/model"
)

// InstanceSeparator joins a tool id and its parent capability id into an
// instance id when the tool appears under more than one capability.
const InstanceSeparator = "__"

// ToolInstance is one visual instance of a tool inside a parent capability.
// A tool referenced by several capabilities yields one instance per parent,
// all sharing the same logical ToolID. When the tool has exactly one parent
// the instance id equals the logical id.
type ToolInstance struct {
	ID       string     `json:"id"`
	ToolID   string     `json:"toolId"`
	ParentID string     `json:"parentId"`
	Node     model.Node `json:"data"`
}

// CapabilityNode is one capability in the built tree.
type CapabilityNode struct {
	Node      model.Node        `json:"data"`
	Level     int               `json:"level"`
	LevelNorm float64           `json:"levelNorm"`
	ParentID  string            `json:"parentId,omitempty"`
	Children  []*CapabilityNode `json:"children,omitempty"`
	Tools     []ToolInstance    `json:"tools,omitempty"`
}

// IsLeaf reports whether the capability has no child capabilities.
func (c *CapabilityNode) IsLeaf() bool { return len(c.Children) == 0 }

// IsEmpty reports whether the capability has neither child capabilities nor
// tool instances. Empty capabilities stay in the tree at level 1 but are
// called out separately so renderers can de-emphasize them.
func (c *CapabilityNode) IsEmpty() bool { return len(c.Children) == 0 && len(c.Tools) == 0 }

// Stats summarizes one build for diagnostics and the CLI summary block.
type Stats struct {
	CapabilityCount       int `json:"capabilityCount"`
	ToolCount             int `json:"toolCount"` // distinct logical tools kept
	InstanceCount         int `json:"instanceCount"`
	MaxLevel              int `json:"maxLevel"`
	DiscardedCapabilities int `json:"discardedCapabilities"` // usage_count <= 0
	OrphanTools           int `json:"orphanTools"`
	EmptyCapabilities     int `json:"emptyCapabilities"`
	DroppedEdges          int `json:"droppedEdges"` // invalid contains edges
}

// Result is the full output of one hierarchy build.
type Result struct {
	// Root is a synthetic node whose children are the parentless
	// capabilities, sorted by id. Root.Node is the zero Node.
	Root *CapabilityNode

	// Capabilities indexes every kept capability by id.
	Capabilities map[string]*CapabilityNode

	// CapabilityEdges are the non-contains edges whose endpoints are both
	// kept capabilities; ToolEdges the edges whose endpoints are both kept
	// tools. Both preserve input order.
	CapabilityEdges []model.Edge
	ToolEdges       []model.Edge

	// OrphanTools are tools no kept capability references; they are not in
	// the tree.
	OrphanTools []model.Node

	// EmptyCapabilityIDs lists kept capabilities with no children and no
	// tools, sorted by id.
	EmptyCapabilityIDs []string

	Stats Stats
}

// Build derives the capability tree from a snapshot.
//
// Capabilities with usage_count <= 0 are discarded, as are tools that end up
// with zero parent capabilities (recorded as orphans). Parent assignment
// takes the first contains edge targeting a capability and ignores later
// ones. Containment cycles are broken during level computation, never
// reported as errors.
func Build(snap *model.Snapshot) *Result {
	res := &Result{
		Root:         &CapabilityNode{},
		Capabilities: make(map[string]*CapabilityNode),
	}
	if snap == nil {
		return res
	}

	// Partition nodes. Never-invoked capabilities are dropped up front; the
	// contains validity check below runs against the kept set, so a child
	// whose parent was dropped becomes a root.
	tools := make(map[string]model.Node)
	for _, n := range snap.Nodes {
		switch {
		case n.IsCapability() && n.UsageCount > 0:
			res.Capabilities[n.ID] = &CapabilityNode{Node: n}
		case n.IsCapability():
			res.Stats.DiscardedCapabilities++
		case n.IsTool():
			tools[n.ID] = n
		}
	}

	// Parent resolution: first contains edge targeting a capability wins;
	// duplicates for the same child are ignored, not merged.
	parentOf := make(map[string]string)
	for _, e := range snap.Edges {
		if e.Type != model.EdgeContains {
			continue
		}
		parent, pok := res.Capabilities[e.Source]
		child, cok := res.Capabilities[e.Target]
		if !pok || !cok {
			res.Stats.DroppedEdges++
			continue
		}
		if _, seen := parentOf[child.Node.ID]; seen {
			continue
		}
		parentOf[child.Node.ID] = parent.Node.ID
	}
	for childID, parentID := range parentOf {
		child := res.Capabilities[childID]
		child.ParentID = parentID
		child.Node.ParentCapabilityID = parentID
	}

	// Tool membership: any non-contains edge joining a kept capability and a
	// tool makes that capability a parent of the tool. Deduplicate pairs so
	// repeated uses/provides edges yield a single instance.
	parentsByTool := make(map[string][]string)
	seenPair := make(map[[2]string]bool)
	for _, e := range snap.Edges {
		if e.Type == model.EdgeContains {
			continue
		}
		capID, toolID, ok := capabilityToolEndpoints(e, res.Capabilities, tools)
		if !ok {
			continue
		}
		pair := [2]string{toolID, capID}
		if seenPair[pair] {
			continue
		}
		seenPair[pair] = true
		parentsByTool[toolID] = append(parentsByTool[toolID], capID)
	}

	// Instantiate tools under their parents. Parents are sorted so instance
	// ordering does not depend on edge order.
	keptTools := 0
	toolIDs := sortedKeys(tools)
	for _, toolID := range toolIDs {
		parents := parentsByTool[toolID]
		if len(parents) == 0 {
			res.OrphanTools = append(res.OrphanTools, tools[toolID])
			continue
		}
		keptTools++
		sort.Strings(parents)
		for _, capID := range parents {
			inst := ToolInstance{
				ID:       toolID,
				ToolID:   toolID,
				ParentID: capID,
				Node:     tools[toolID],
			}
			if len(parents) > 1 {
				inst.ID = toolID + InstanceSeparator + capID
			}
			c := res.Capabilities[capID]
			c.Tools = append(c.Tools, inst)
			res.Stats.InstanceCount++
		}
	}

	// Wire children and the synthetic root, sorted by id for determinism.
	capIDs := make([]string, 0, len(res.Capabilities))
	for id := range res.Capabilities {
		capIDs = append(capIDs, id)
	}
	sort.Strings(capIDs)
	for _, id := range capIDs {
		c := res.Capabilities[id]
		if c.ParentID == "" {
			res.Root.Children = append(res.Root.Children, c)
			continue
		}
		p := res.Capabilities[c.ParentID]
		p.Children = append(p.Children, c)
	}

	// Levels: memoized recursion; a capability revisited along the current
	// path counts as level 1 so containment cycles terminate.
	levels := newLevelSolver(res.Capabilities)
	maxLevel := 1
	for _, id := range capIDs {
		lvl := levels.level(id)
		res.Capabilities[id].Level = lvl
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}
	for _, id := range capIDs {
		c := res.Capabilities[id]
		c.LevelNorm = float64(c.Level) / float64(maxLevel+1)
		if c.IsEmpty() {
			res.EmptyCapabilityIDs = append(res.EmptyCapabilityIDs, id)
		}
	}

	// Edge projections onto the kept sets. Logical tool ids are used here;
	// the layout maps them onto instances.
	keptTool := func(id string) bool {
		_, isTool := tools[id]
		return isTool && len(parentsByTool[id]) > 0
	}
	for _, e := range snap.Edges {
		if e.Type == model.EdgeContains {
			continue
		}
		_, sCap := res.Capabilities[e.Source]
		_, tCap := res.Capabilities[e.Target]
		switch {
		case sCap && tCap:
			res.CapabilityEdges = append(res.CapabilityEdges, e)
		case keptTool(e.Source) && keptTool(e.Target):
			res.ToolEdges = append(res.ToolEdges, e)
		}
	}

	res.Stats.CapabilityCount = len(res.Capabilities)
	res.Stats.ToolCount = keptTools
	res.Stats.MaxLevel = maxLevel
	res.Stats.OrphanTools = len(res.OrphanTools)
	res.Stats.EmptyCapabilities = len(res.EmptyCapabilityIDs)
	return res
}

// capabilityToolEndpoints splits an edge into (capability, tool) endpoints
// regardless of direction. Returns ok=false when the edge is not a
// capability-tool pair over the kept sets.
func capabilityToolEndpoints(e model.Edge, caps map[string]*CapabilityNode, tools map[string]model.Node) (capID, toolID string, ok bool) {
	if _, isCap := caps[e.Source]; isCap {
		if _, isTool := tools[e.Target]; isTool {
			return e.Source, e.Target, true
		}
		return "", "", false
	}
	if _, isTool := tools[e.Source]; isTool {
		if _, isCap := caps[e.Target]; isCap {
			return e.Target, e.Source, true
		}
	}
	return "", "", false
}

type levelSolver struct {
	caps   map[string]*CapabilityNode
	memo   map[string]int
	onPath map[string]bool
}

func newLevelSolver(caps map[string]*CapabilityNode) *levelSolver {
	return &levelSolver{
		caps:   caps,
		memo:   make(map[string]int, len(caps)),
		onPath: make(map[string]bool),
	}
}

// level computes the nesting level of a capability: 1 for leaves, otherwise
// 1 + max child level. A revisit along the current recursion path returns 1
// immediately, which both terminates containment cycles and pins every
// member of the cycle to a finite level.
func (s *levelSolver) level(id string) int {
	if lvl, ok := s.memo[id]; ok {
		return lvl
	}
	if s.onPath[id] {
		return 1
	}
	c, ok := s.caps[id]
	if !ok {
		return 1
	}
	if len(c.Children) == 0 {
		s.memo[id] = 1
		return 1
	}

	s.onPath[id] = true
	deepest := 0
	for _, child := range c.Children {
		if lvl := s.level(child.Node.ID); lvl > deepest {
			deepest = lvl
		}
	}
	delete(s.onPath, id)

	lvl := 1 + deepest
	s.memo[id] = lvl
	return lvl
}

func sortedKeys(m map[string]model.Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
