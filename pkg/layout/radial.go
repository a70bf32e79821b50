// Package layout places the capability tree on a radial
// hierarchical-edge-bundling canvas: capabilities on an inner arc band,
// tool instances on an outer band grouped by server, and bundled edge
// paths routed through the tree with a tunable tension.
//
// Node placement depends only on the tree and the options; the tension
// parameter affects path geometry alone, so tension changes re-run only the
// cheap Paths step and never move nodes.
package layout

import (
	"math"
	"sort"

	"github.com/Casys-AI/capgraph/pkg/hierarchy"
	"github.com/Casys-AI/capgraph/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// Options controls canvas geometry. Zero values take defaults.
type Options struct {
	Width  float64
	Height float64

	// InnerRadiusRatio and OuterRadiusRatio position the capability and
	// tool bands as fractions of the canvas half-extent.
	InnerRadiusRatio float64
	OuterRadiusRatio float64

	// PadAngle separates adjacent arcs; ServerGapAngle adds extra space
	// between server groups on the tool ring. Radians.
	PadAngle       float64
	ServerGapAngle float64
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Height <= 0 {
		o.Height = 1200
	}
	if o.InnerRadiusRatio <= 0 {
		o.InnerRadiusRatio = 0.55
	}
	if o.OuterRadiusRatio <= 0 {
		o.OuterRadiusRatio = 0.85
	}
	if o.PadAngle <= 0 {
		o.PadAngle = 0.004
	}
	if o.ServerGapAngle <= 0 {
		o.ServerGapAngle = 0.12
	}
	return o
}

// Arc thickness scaling. Contributions are clamped independently so one
// heavily used capability cannot dominate the band.
const (
	baseThickness         = 6.0
	pageRankScale         = 400.0
	usageScale            = 0.6
	maxMetricContribution = 18.0
)

// PositionedNode is one placed entity on a ring.
type PositionedNode struct {
	ID         string     `json:"id"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Angle      float64    `json:"angleRadians"`
	Radius     float64    `json:"radius"`
	StartAngle float64    `json:"startAngle"`
	EndAngle   float64    `json:"endAngle"`
	Thickness  float64    `json:"thickness"`
	Server     string     `json:"server,omitempty"` // tool ring only
	Data       model.Node `json:"data"`
}

// Layout is the engine's radial output contract.
type Layout struct {
	Center       r2.Vec           `json:"center"`
	Capabilities []PositionedNode `json:"capabilities"`
	Tools        []PositionedNode `json:"tools"`
	Paths        []BundledPath    `json:"paths"`
}

// Radial holds the placed rings plus everything needed to re-derive bundled
// paths for a new tension without re-placing nodes.
type Radial struct {
	opts   Options
	center r2.Vec

	capabilities []PositionedNode
	tools        []PositionedNode

	capPos      map[string]r2.Vec
	capParent   map[string]string
	instancePos map[string]r2.Vec
	instanceFor map[string]string // logical tool id -> representative instance id
	instCap     map[string]string // instance id -> parent capability id

	capEdges  []model.Edge
	toolEdges []model.Edge
}

// New places the tree on the two rings. The same tree and options always
// produce bit-identical placement.
func New(tree *hierarchy.Result, opts Options) *Radial {
	opts = opts.withDefaults()
	r := &Radial{
		opts:        opts,
		center:      r2.Vec{X: opts.Width / 2, Y: opts.Height / 2},
		capPos:      make(map[string]r2.Vec),
		capParent:   make(map[string]string),
		instancePos: make(map[string]r2.Vec),
		instanceFor: make(map[string]string),
		instCap:     make(map[string]string),
	}
	if tree == nil {
		return r
	}
	r.capEdges = tree.CapabilityEdges
	r.toolEdges = tree.ToolEdges

	half := math.Min(opts.Width, opts.Height) / 2
	innerRadius := half * opts.InnerRadiusRatio
	outerRadius := half * opts.OuterRadiusRatio

	r.placeCapabilities(tree, innerRadius)
	r.placeTools(tree, outerRadius)
	return r
}

// Snapshot materializes the full output contract for one tension value.
func (r *Radial) Snapshot(tension float64) *Layout {
	return &Layout{
		Center:       r.center,
		Capabilities: append([]PositionedNode(nil), r.capabilities...),
		Tools:        append([]PositionedNode(nil), r.tools...),
		Paths:        r.Paths(tension),
	}
}

// Center returns the canvas center.
func (r *Radial) Center() r2.Vec { return r.center }

// Capabilities returns the placed inner ring.
func (r *Radial) Capabilities() []PositionedNode { return r.capabilities }

// Tools returns the placed outer ring.
func (r *Radial) Tools() []PositionedNode { return r.tools }

// placeCapabilities lays the inner band out in depth-first tree order so
// siblings and their subtrees stay angularly adjacent.
func (r *Radial) placeCapabilities(tree *hierarchy.Result, radius float64) {
	var ordered []*hierarchy.CapabilityNode
	seen := make(map[string]bool)
	var walk func(*hierarchy.CapabilityNode)
	walk = func(c *hierarchy.CapabilityNode) {
		if seen[c.Node.ID] {
			return // containment cycle; already placed
		}
		seen[c.Node.ID] = true
		ordered = append(ordered, c)
		for _, child := range c.Children {
			walk(child)
		}
	}
	for _, root := range tree.Root.Children {
		walk(root)
	}
	// Capabilities trapped in a parent cycle are reachable from no root;
	// append them in id order so they still get an arc.
	var strays []string
	for id := range tree.Capabilities {
		if !seen[id] {
			strays = append(strays, id)
		}
	}
	sort.Strings(strays)
	for _, id := range strays {
		walk(tree.Capabilities[id])
	}

	n := len(ordered)
	if n == 0 {
		return
	}
	arc := (2*math.Pi)/float64(n) - r.opts.PadAngle
	if arc < 0 {
		arc = 0
	}
	for i, c := range ordered {
		start := float64(i) * (arc + r.opts.PadAngle)
		mid := start + arc/2
		pos := r.pointAt(mid, radius)
		pn := PositionedNode{
			ID:         c.Node.ID,
			X:          pos.X,
			Y:          pos.Y,
			Angle:      mid,
			Radius:     radius,
			StartAngle: start,
			EndAngle:   start + arc,
			Thickness:  baseThickness + clampContribution(c.Node.PageRank*pageRankScale) + clampContribution(c.Node.UsageCount*usageScale),
			Data:       c.Node,
		}
		r.capabilities = append(r.capabilities, pn)
		r.capPos[c.Node.ID] = pos
		r.capParent[c.Node.ID] = c.ParentID
	}
}

// placeTools lays tool instances on the outer band, grouped by server in
// alphabetical order with an extra gap between groups, name-sorted within a
// group (instance id as final tiebreaker).
func (r *Radial) placeTools(tree *hierarchy.Result, radius float64) {
	type ringTool struct {
		inst hierarchy.ToolInstance
	}
	var all []ringTool
	capIDs := make([]string, 0, len(tree.Capabilities))
	for id := range tree.Capabilities {
		capIDs = append(capIDs, id)
	}
	sort.Strings(capIDs)
	for _, id := range capIDs {
		for _, inst := range tree.Capabilities[id].Tools {
			all = append(all, ringTool{inst: inst})
		}
	}
	if len(all) == 0 {
		return
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i].inst, all[j].inst
		if a.Node.Server != b.Node.Server {
			return a.Node.Server < b.Node.Server
		}
		if a.Node.Name != b.Node.Name {
			return a.Node.Name < b.Node.Name
		}
		return a.ID < b.ID
	})

	groups := 0
	prevServer := ""
	for i, t := range all {
		if i == 0 || t.inst.Node.Server != prevServer {
			groups++
			prevServer = t.inst.Node.Server
		}
	}

	n := len(all)
	available := 2*math.Pi - float64(groups)*r.opts.ServerGapAngle - float64(n)*r.opts.PadAngle
	if available < 0 {
		available = 0
	}
	arc := available / float64(n)

	angle := 0.0
	prevServer = ""
	for i, t := range all {
		if i == 0 || t.inst.Node.Server != prevServer {
			angle += r.opts.ServerGapAngle
			prevServer = t.inst.Node.Server
		}
		start := angle
		mid := start + arc/2
		pos := r.pointAt(mid, radius)
		pn := PositionedNode{
			ID:         t.inst.ID,
			X:          pos.X,
			Y:          pos.Y,
			Angle:      mid,
			Radius:     radius,
			StartAngle: start,
			EndAngle:   start + arc,
			Thickness:  baseThickness + clampContribution(t.inst.Node.PageRank*pageRankScale),
			Server:     t.inst.Node.Server,
			Data:       t.inst.Node,
		}
		r.tools = append(r.tools, pn)
		r.instancePos[t.inst.ID] = pos
		r.instCap[t.inst.ID] = t.inst.ParentID
		if rep, ok := r.instanceFor[t.inst.ToolID]; !ok || t.inst.ID < rep {
			r.instanceFor[t.inst.ToolID] = t.inst.ID
		}
		angle += arc + r.opts.PadAngle
	}
}

func (r *Radial) pointAt(angle, radius float64) r2.Vec {
	// Angle 0 points up; angles grow clockwise, matching screen space.
	a := angle - math.Pi/2
	return r2.Vec{
		X: r.center.X + radius*math.Cos(a),
		Y: r.center.Y + radius*math.Sin(a),
	}
}

func clampContribution(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxMetricContribution {
		return maxMetricContribution
	}
	return v
}
