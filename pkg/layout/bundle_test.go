package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/Casys-AI/capgraph/pkg/hierarchy"
	"github.com/Casys-AI/capgraph/pkg/model"
	"github.com/Casys-AI/capgraph/pkg/testutil"
)

// bundleFixture builds two capability subtrees under a common root with a
// dependency edge between the leaves and a sequence edge between their tools.
func bundleFixture() *hierarchy.Result {
	snap := &model.Snapshot{
		Nodes: []model.Node{
			testutil.Capability("root", 10),
			testutil.Capability("left", 10),
			testutil.Capability("right", 10),
			testutil.Tool("tLeft", "shell", nil),
			testutil.Tool("tRight", "shell", nil),
		},
		Edges: []model.Edge{
			testutil.Contains("root", "left"),
			testutil.Contains("root", "right"),
			testutil.Uses("left", "tLeft"),
			testutil.Uses("right", "tRight"),
			{Source: "left", Target: "right", Type: model.EdgeDependency},
			testutil.Sequence("tLeft", "tRight"),
		},
	}
	return hierarchy.Build(snap)
}

func TestPaths_IdenticalPathDAcrossRuns(t *testing.T) {
	tree := bundleFixture()

	first := New(tree, Options{}).Paths(0.85)
	second := New(tree, Options{}).Paths(0.85)

	if len(first) != len(second) || len(first) == 0 {
		t.Fatalf("path counts differ or empty: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].PathD != second[i].PathD {
			t.Errorf("path %d differs across runs:\n%s\n%s", i, first[i].PathD, second[i].PathD)
		}
	}
}

func TestPaths_TensionZeroIsStraight(t *testing.T) {
	r := New(bundleFixture(), Options{})

	for _, p := range r.Paths(0) {
		if len(p.Points) < 2 {
			t.Fatalf("path %s has %d points", p.ID, len(p.Points))
		}
		// Every control point must lie on the source→target segment.
		a, b := p.Points[0], p.Points[len(p.Points)-1]
		for _, pt := range p.Points {
			cross := (b.X-a.X)*(pt.Y-a.Y) - (b.Y-a.Y)*(pt.X-a.X)
			if math.Abs(cross) > 1e-6 {
				t.Errorf("path %s point (%f,%f) off the straight line", p.ID, pt.X, pt.Y)
			}
		}
	}
}

func TestPaths_TensionPullsTowardTree(t *testing.T) {
	r := New(bundleFixture(), Options{})

	loose := r.Paths(0)
	tight := r.Paths(1)

	// The capability dependency routes through the shared parent under full
	// tension, so its interior points leave the straight chord.
	var looseDep, tightDep *BundledPath
	for i := range loose {
		if loose[i].EdgeType == model.EdgeDependency {
			looseDep = &loose[i]
			tightDep = &tight[i]
		}
	}
	if looseDep == nil {
		t.Fatalf("dependency path missing")
	}
	if len(looseDep.Points) != len(tightDep.Points) {
		t.Fatalf("point counts differ between tensions")
	}

	moved := false
	for i := range looseDep.Points {
		if math.Hypot(looseDep.Points[i].X-tightDep.Points[i].X, looseDep.Points[i].Y-tightDep.Points[i].Y) > 1 {
			moved = true
		}
	}
	if !moved {
		t.Errorf("tension had no effect on the bundled route")
	}
	// Endpoints are pinned regardless of tension.
	if looseDep.Points[0] != tightDep.Points[0] {
		t.Errorf("source endpoint moved with tension")
	}
	last := len(looseDep.Points) - 1
	if looseDep.Points[last] != tightDep.Points[last] {
		t.Errorf("target endpoint moved with tension")
	}
}

func TestPaths_TensionClamped(t *testing.T) {
	r := New(bundleFixture(), Options{})

	over := r.Paths(3.5)
	one := r.Paths(1)
	under := r.Paths(-2)
	zero := r.Paths(0)

	for i := range one {
		if over[i].PathD != one[i].PathD {
			t.Errorf("tension above 1 not clamped for path %d", i)
		}
		if under[i].PathD != zero[i].PathD {
			t.Errorf("tension below 0 not clamped for path %d", i)
		}
	}
}

func TestPaths_TensionDoesNotMoveNodes(t *testing.T) {
	r := New(bundleFixture(), Options{})

	before := append([]PositionedNode(nil), r.Capabilities()...)
	r.Paths(0)
	r.Paths(1)
	after := r.Capabilities()

	for i := range before {
		if before[i] != after[i] {
			t.Errorf("node %s moved after a tension change", before[i].ID)
		}
	}
}

func TestPaths_ToolEdgesRouteThroughParents(t *testing.T) {
	r := New(bundleFixture(), Options{})

	var toolPath *BundledPath
	for _, p := range r.Paths(1) {
		p := p
		if p.EdgeType == model.EdgeSequence {
			toolPath = &p
		}
	}
	if toolPath == nil {
		t.Fatalf("sequence path missing")
	}
	// src, srcCap, ..., tgtCap, tgt is at least five control points for
	// tools under different parents.
	if len(toolPath.Points) < 5 {
		t.Errorf("tool route has %d points, want >= 5 (anchored on both parents)", len(toolPath.Points))
	}
	if toolPath.SourceID != "tLeft" || toolPath.TargetID != "tRight" {
		t.Errorf("tool path endpoints = %s->%s, want tLeft->tRight", toolPath.SourceID, toolPath.TargetID)
	}
}

func TestPaths_SiblingToolsShareAnchor(t *testing.T) {
	snap := &model.Snapshot{
		Nodes: []model.Node{
			testutil.Capability("cap0", 10),
			testutil.Tool("a", "shell", nil),
			testutil.Tool("b", "shell", nil),
		},
		Edges: []model.Edge{
			testutil.Uses("cap0", "a"),
			testutil.Uses("cap0", "b"),
			testutil.Sequence("a", "b"),
		},
	}

	r := New(hierarchy.Build(snap), Options{})
	paths := r.Paths(1)
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
	if len(paths[0].Points) != 3 {
		t.Errorf("sibling route has %d points, want 3 (src, parent, tgt)", len(paths[0].Points))
	}
}

func TestPaths_SkipsUnplacedEndpoints(t *testing.T) {
	// An edge naming a tool that never got placed must be skipped, not
	// rendered from the origin.
	snap := &model.Snapshot{
		Nodes: []model.Node{
			testutil.Capability("cap0", 10),
			testutil.Tool("a", "shell", nil),
		},
		Edges: []model.Edge{
			testutil.Uses("cap0", "a"),
			testutil.Sequence("a", "ghost"),
		},
	}

	r := New(hierarchy.Build(snap), Options{})
	if got := r.Paths(0.85); len(got) != 0 {
		t.Errorf("got %d paths, want 0", len(got))
	}
}

func TestPathData(t *testing.T) {
	r := New(bundleFixture(), Options{})

	for _, p := range r.Paths(0.85) {
		if !strings.HasPrefix(p.PathD, "M") {
			t.Errorf("path %s data %q does not start with a move", p.ID, p.PathD)
		}
		if len(p.Points) > 2 && !strings.Contains(p.PathD, "C") {
			t.Errorf("multi-point path %s rendered without cubic segments: %q", p.ID, p.PathD)
		}
		if len(p.Points) == 2 && !strings.Contains(p.PathD, "L") {
			t.Errorf("two-point path %s rendered without a line: %q", p.ID, p.PathD)
		}
	}
}
