package layout

import (
	"fmt"
	"strings"

	"github.com/Casys-AI/capgraph/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// BundledPath is one routed edge. Points are the tension-adjusted control
// points; PathD is the equivalent SVG path string for renderers that take
// path data directly.
type BundledPath struct {
	ID       string         `json:"id"`
	SourceID string         `json:"sourceId"`
	TargetID string         `json:"targetId"`
	EdgeType model.EdgeType `json:"edgeType"`
	Points   []r2.Vec       `json:"pathPoints"`
	PathD    string         `json:"pathD"`
}

// Paths routes every capability↔capability and tool↔tool edge as a bundled
// curve. tension 1 hugs the capability tree tightly, tension 0 degenerates
// to direct lines; values outside [0,1] are clamped. Node positions are
// read, never written, so this is the cheap step to re-run on a tension
// change.
func (r *Radial) Paths(tension float64) []BundledPath {
	if tension < 0 {
		tension = 0
	}
	if tension > 1 {
		tension = 1
	}

	paths := make([]BundledPath, 0, len(r.capEdges)+len(r.toolEdges))
	for i, e := range r.capEdges {
		src, sok := r.capPos[e.Source]
		tgt, tok := r.capPos[e.Target]
		if !sok || !tok {
			continue
		}
		control := r.capabilityRoute(e.Source, e.Target, src, tgt)
		paths = append(paths, r.bundle(fmt.Sprintf("cap:%d:%s->%s", i, e.Source, e.Target), e, e.Source, e.Target, control, tension))
	}
	for i, e := range r.toolEdges {
		srcInst, sok := r.instanceFor[e.Source]
		tgtInst, tok := r.instanceFor[e.Target]
		if !sok || !tok {
			continue
		}
		src := r.instancePos[srcInst]
		tgt := r.instancePos[tgtInst]
		control := r.toolRoute(srcInst, tgtInst, src, tgt)
		paths = append(paths, r.bundle(fmt.Sprintf("tool:%d:%s->%s", i, e.Source, e.Target), e, srcInst, tgtInst, control, tension))
	}
	return paths
}

// capabilityRoute builds the control polyline for a capability pair: up the
// ancestor chain from the source to the deepest shared ancestor, then down
// to the target. Pairs with no shared ancestor route through the canvas
// center, which is what the bundling reads as "the root".
func (r *Radial) capabilityRoute(srcID, tgtID string, src, tgt r2.Vec) []r2.Vec {
	srcChain := r.ancestorChain(srcID)
	tgtChain := r.ancestorChain(tgtID)

	shared := ""
	inTgt := make(map[string]bool, len(tgtChain))
	for _, id := range tgtChain {
		inTgt[id] = true
	}
	upward := []string{}
	for _, id := range srcChain {
		if inTgt[id] {
			shared = id
			break
		}
		upward = append(upward, id)
	}

	control := []r2.Vec{src}
	for _, id := range upward {
		control = append(control, r.capPos[id])
	}
	if shared != "" {
		control = append(control, r.capPos[shared])
	} else {
		control = append(control, r.center)
	}
	// Downward leg of the target chain, closest-to-shared first.
	var downward []string
	for _, id := range tgtChain {
		if id == shared {
			break
		}
		downward = append(downward, id)
	}
	for i := len(downward) - 1; i >= 0; i-- {
		control = append(control, r.capPos[downward[i]])
	}
	return append(control, tgt)
}

// toolRoute anchors a tool↔tool path on both parent capabilities before
// delegating to the capability routing between them.
func (r *Radial) toolRoute(srcInst, tgtInst string, src, tgt r2.Vec) []r2.Vec {
	srcCap := r.instCap[srcInst]
	tgtCap := r.instCap[tgtInst]
	srcAnchor, sok := r.capPos[srcCap]
	tgtAnchor, tok := r.capPos[tgtCap]
	if !sok || !tok {
		return []r2.Vec{src, tgt}
	}
	if srcCap == tgtCap {
		// Same capability: a single shared anchor keeps sibling tool
		// edges visually grouped under their parent.
		return []r2.Vec{src, srcAnchor, tgt}
	}
	inner := r.capabilityRoute(srcCap, tgtCap, srcAnchor, tgtAnchor)
	control := append([]r2.Vec{src}, inner...)
	return append(control, tgt)
}

// ancestorChain returns the parent chain of a capability from its own
// parent upward. Cycles in the parent map terminate at the first repeat.
func (r *Radial) ancestorChain(id string) []string {
	var chain []string
	seen := map[string]bool{id: true}
	for cur := r.capParent[id]; cur != "" && !seen[cur]; cur = r.capParent[cur] {
		seen[cur] = true
		chain = append(chain, cur)
	}
	return chain
}

// bundle applies the tension interpolation to a control polyline and
// renders the path string. Each interior control point is pulled between
// its bundled position and the straight source→target line.
func (r *Radial) bundle(id string, e model.Edge, srcID, tgtID string, control []r2.Vec, tension float64) BundledPath {
	n := len(control)
	points := make([]r2.Vec, n)
	for i, p := range control {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		straight := r2.Add(control[0], r2.Scale(t, r2.Sub(control[n-1], control[0])))
		points[i] = r2.Add(r2.Scale(tension, p), r2.Scale(1-tension, straight))
	}
	return BundledPath{
		ID:       id,
		SourceID: srcID,
		TargetID: tgtID,
		EdgeType: e.Type,
		Points:   points,
		PathD:    pathData(points),
	}
}

// pathData renders control points as SVG path data: a straight line for
// two points, otherwise cubic segments through the points via the
// Catmull-Rom to Bézier conversion. Coordinates are fixed to two decimals
// so identical inputs yield identical strings.
func pathData(points []r2.Vec) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M%.2f,%.2f", points[0].X, points[0].Y)
	if len(points) == 1 {
		return b.String()
	}
	if len(points) == 2 {
		fmt.Fprintf(&b, "L%.2f,%.2f", points[1].X, points[1].Y)
		return b.String()
	}

	n := len(points)
	for i := 0; i < n-1; i++ {
		p0 := points[maxInt(i-1, 0)]
		p1 := points[i]
		p2 := points[i+1]
		p3 := points[minInt(i+2, n-1)]
		c1 := r2.Add(p1, r2.Scale(1.0/6.0, r2.Sub(p2, p0)))
		c2 := r2.Sub(p2, r2.Scale(1.0/6.0, r2.Sub(p3, p1)))
		fmt.Fprintf(&b, "C%.2f,%.2f %.2f,%.2f %.2f,%.2f", c1.X, c1.Y, c2.X, c2.Y, p2.X, p2.Y)
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
