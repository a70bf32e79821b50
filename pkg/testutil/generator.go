// Package testutil provides test fixture generators for various hypergraph
// topologies. All generators produce deterministic output for reproducible
// tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Casys-AI/capgraph/pkg/model"
)

// GeneratorConfig controls snapshot generation.
type GeneratorConfig struct {
	Seed     int64     // Random seed for determinism (0 = use current time)
	BaseTime time.Time // Base time for last_used timestamps (default: fixed time)
	Servers  []string  // Server names assigned to tools round-robin
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:     42, // Deterministic
		BaseTime: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Servers:  []string{"filesystem", "browser", "shell"},
	}
}

// Generator creates snapshot fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.BaseTime.IsZero() {
		cfg.BaseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	if len(cfg.Servers) == 0 {
		cfg.Servers = []string{"filesystem", "browser", "shell"}
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// BaseTime returns the fixture clock origin.
func (g *Generator) BaseTime() time.Time {
	return g.cfg.BaseTime
}

// ============================================================================
// Node and edge builders
// ============================================================================

// Capability builds a capability node with the given usage count.
func Capability(id string, usage float64) model.Node {
	return model.Node{
		ID:         id,
		Type:       model.NodeTypeCapability,
		Name:       id,
		UsageCount: usage,
	}
}

// Tool builds a tool node on the given server.
func Tool(id, server string, lastUsed *time.Time) model.Node {
	return model.Node{
		ID:       id,
		Type:     model.NodeTypeTool,
		Name:     id,
		Server:   server,
		LastUsed: lastUsed,
	}
}

// Contains builds a containment edge (parent contains child).
func Contains(parent, child string) model.Edge {
	return model.Edge{Source: parent, Target: child, Type: model.EdgeContains, Weight: 1}
}

// Uses builds a membership edge between a capability and a tool.
func Uses(capability, tool string) model.Edge {
	return model.Edge{Source: capability, Target: tool, Type: model.EdgeUses, Weight: 1}
}

// Sequence builds a sequencing edge between two tools.
func Sequence(from, to string) model.Edge {
	return model.Edge{Source: from, Target: to, Type: model.EdgeSequence, Weight: 1}
}

// TimePtr returns a pointer to t, for LastUsed fields.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// ============================================================================
// Topology generators
// ============================================================================

// CapabilityChain creates a linear containment chain:
// cap0 contains cap1 contains ... contains cap{size-1}.
// Each capability has one tool member.
func (g *Generator) CapabilityChain(size int) *model.Snapshot {
	snap := &model.Snapshot{}
	for i := 0; i < size; i++ {
		capID := fmt.Sprintf("cap%d", i)
		snap.Nodes = append(snap.Nodes, Capability(capID, float64(10+i)))
		if i > 0 {
			snap.Edges = append(snap.Edges, Contains(fmt.Sprintf("cap%d", i-1), capID))
		}

		toolID := fmt.Sprintf("tool%d", i)
		last := g.cfg.BaseTime.Add(-time.Duration(i) * 24 * time.Hour)
		snap.Nodes = append(snap.Nodes, Tool(toolID, g.server(i), &last))
		snap.Edges = append(snap.Edges, Uses(capID, toolID))
	}
	return snap
}

// CapabilityTree creates a containment tree with the given depth and
// branching factor. Leaf capabilities each get one tool member.
func (g *Generator) CapabilityTree(depth, breadth int) *model.Snapshot {
	if depth < 1 {
		depth = 1
	}
	if breadth < 1 {
		breadth = 1
	}

	snap := &model.Snapshot{}
	nodeID := 0

	root := fmt.Sprintf("cap%d", nodeID)
	snap.Nodes = append(snap.Nodes, Capability(root, 10))
	nodeID++

	currentLevel := []string{root}
	for d := 0; d < depth; d++ {
		var nextLevel []string
		for _, parent := range currentLevel {
			for b := 0; b < breadth; b++ {
				child := fmt.Sprintf("cap%d", nodeID)
				snap.Nodes = append(snap.Nodes, Capability(child, 10))
				snap.Edges = append(snap.Edges, Contains(parent, child))
				nextLevel = append(nextLevel, child)
				nodeID++
			}
		}
		currentLevel = nextLevel
	}

	// One tool per leaf capability.
	for i, leaf := range currentLevel {
		toolID := fmt.Sprintf("tool%d", i)
		last := g.cfg.BaseTime.Add(-time.Duration(i) * time.Hour)
		snap.Nodes = append(snap.Nodes, Tool(toolID, g.server(i), &last))
		snap.Edges = append(snap.Edges, Uses(leaf, toolID))
	}

	return snap
}

// SharedTool creates capCount sibling capabilities that all use a single
// shared tool. The tool gets one instance per parent capability.
func (g *Generator) SharedTool(capCount int) *model.Snapshot {
	snap := &model.Snapshot{}
	last := g.cfg.BaseTime
	snap.Nodes = append(snap.Nodes, Tool("shared", g.server(0), &last))
	for i := 0; i < capCount; i++ {
		capID := fmt.Sprintf("cap%d", i)
		snap.Nodes = append(snap.Nodes, Capability(capID, 10))
		snap.Edges = append(snap.Edges, Uses(capID, "shared"))
	}
	return snap
}

// ContainsCycle creates capabilities in a containment cycle:
// cap0 contains cap1 contains ... contains cap{size-1} contains cap0.
func (g *Generator) ContainsCycle(size int) *model.Snapshot {
	snap := &model.Snapshot{}
	for i := 0; i < size; i++ {
		snap.Nodes = append(snap.Nodes, Capability(fmt.Sprintf("cap%d", i), 10))
	}
	for i := 0; i < size; i++ {
		snap.Edges = append(snap.Edges, Contains(fmt.Sprintf("cap%d", i), fmt.Sprintf("cap%d", (i+1)%size)))
	}
	return snap
}

// Orphans creates tools that belong to no capability.
func (g *Generator) Orphans(toolCount int) *model.Snapshot {
	snap := &model.Snapshot{}
	for i := 0; i < toolCount; i++ {
		last := g.cfg.BaseTime.Add(-time.Duration(i) * time.Hour)
		snap.Nodes = append(snap.Nodes, Tool(fmt.Sprintf("orphan%d", i), g.server(i), &last))
	}
	return snap
}

// RandomSnapshot creates a random two-level hypergraph with capCount
// capabilities and toolCount tools. density is the probability of each
// capability-tool membership edge existing (0.0 to 1.0).
func (g *Generator) RandomSnapshot(capCount, toolCount int, density float64) *model.Snapshot {
	if density < 0 {
		density = 0
	}
	if density > 1 {
		density = 1
	}

	snap := &model.Snapshot{}
	for i := 0; i < capCount; i++ {
		snap.Nodes = append(snap.Nodes, Capability(fmt.Sprintf("cap%d", i), float64(1+g.rng.Intn(50))))
	}
	for i := 0; i < toolCount; i++ {
		last := g.cfg.BaseTime.Add(-time.Duration(g.rng.Intn(60*24)) * time.Hour)
		snap.Nodes = append(snap.Nodes, Tool(fmt.Sprintf("tool%d", i), g.server(g.rng.Intn(len(g.cfg.Servers))), &last))
	}
	for i := 0; i < capCount; i++ {
		for j := 0; j < toolCount; j++ {
			if g.rng.Float64() < density {
				snap.Edges = append(snap.Edges, Uses(fmt.Sprintf("cap%d", i), fmt.Sprintf("tool%d", j)))
			}
		}
	}
	return snap
}

func (g *Generator) server(i int) string {
	return g.cfg.Servers[i%len(g.cfg.Servers)]
}

// ============================================================================
// Convenience Functions
// ============================================================================

// QuickChain creates a containment chain fixture with default settings.
func QuickChain(size int) *model.Snapshot {
	return NewDefault().CapabilityChain(size)
}

// QuickTree creates a containment tree fixture with default settings.
func QuickTree(depth, breadth int) *model.Snapshot {
	return NewDefault().CapabilityTree(depth, breadth)
}

// QuickShared creates a shared-tool fixture with default settings.
func QuickShared(capCount int) *model.Snapshot {
	return NewDefault().SharedTool(capCount)
}

// QuickCycle creates a containment cycle fixture with default settings.
func QuickCycle(size int) *model.Snapshot {
	return NewDefault().ContainsCycle(size)
}

// Empty returns an empty snapshot for edge case testing.
func Empty() *model.Snapshot {
	return &model.Snapshot{}
}

// Single returns a snapshot with one capability and no tools.
func Single() *model.Snapshot {
	return &model.Snapshot{Nodes: []model.Node{Capability("solo", 5)}}
}
