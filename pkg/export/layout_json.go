package export

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/Casys-AI/capgraph/pkg/layout"
)

// layoutDocument is the on-disk JSON shape of an exported layout. Renderers
// consume positions and path data without re-running the engine.
type layoutDocument struct {
	Title        string       `json:"title,omitempty"`
	DataHash     string       `json:"data_hash,omitempty"`
	Width        float64      `json:"width"`
	Height       float64      `json:"height"`
	Capabilities []layoutNode `json:"capabilities"`
	Tools        []layoutNode `json:"tools"`
	Paths        []layoutPath `json:"paths"`
	Outlines     []layoutHull `json:"outlines,omitempty"`
}

type layoutNode struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Angle      float64 `json:"angle"`
	Radius     float64 `json:"radius"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
	Thickness  float64 `json:"thickness"`
	Server     string  `json:"server,omitempty"`
	Name       string  `json:"name"`
}

type layoutPath struct {
	ID       string       `json:"id"`
	SourceID string       `json:"source"`
	TargetID string       `json:"target"`
	EdgeType string       `json:"edge_type"`
	Points   [][2]float64 `json:"points"`
	PathD    string       `json:"path_d"`
}

type layoutHull struct {
	CommunityID int          `json:"community_id"`
	Outline     [][2]float64 `json:"outline"`
}

// writeLayoutJSON serializes the positioned layout for external renderers.
func writeLayoutJSON(opts RadialSnapshotOptions) error {
	l := opts.Layout

	doc := layoutDocument{
		Title:    opts.Title,
		DataHash: opts.DataHash,
		Width:    l.Center.X * 2,
		Height:   l.Center.Y * 2,
	}

	doc.Capabilities = make([]layoutNode, 0, len(l.Capabilities))
	for _, c := range l.Capabilities {
		doc.Capabilities = append(doc.Capabilities, toLayoutNode(c))
	}
	doc.Tools = make([]layoutNode, 0, len(l.Tools))
	for _, t := range l.Tools {
		doc.Tools = append(doc.Tools, toLayoutNode(t))
	}

	doc.Paths = make([]layoutPath, 0, len(l.Paths))
	for _, p := range l.Paths {
		pts := make([][2]float64, 0, len(p.Points))
		for _, pt := range p.Points {
			pts = append(pts, [2]float64{pt.X, pt.Y})
		}
		doc.Paths = append(doc.Paths, layoutPath{
			ID:       p.ID,
			SourceID: p.SourceID,
			TargetID: p.TargetID,
			EdgeType: string(p.EdgeType),
			Points:   pts,
			PathD:    p.PathD,
		})
	}

	for _, outline := range opts.Outlines {
		pts := make([][2]float64, 0, len(outline.Outline))
		for _, pt := range outline.Outline {
			pts = append(pts, [2]float64{pt.X, pt.Y})
		}
		doc.Outlines = append(doc.Outlines, layoutHull{
			CommunityID: outline.CommunityID,
			Outline:     pts,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling layout: %w", err)
	}
	if err := os.WriteFile(opts.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing layout: %w", err)
	}
	return nil
}

func toLayoutNode(n layout.PositionedNode) layoutNode {
	return layoutNode{
		ID:         n.ID,
		X:          n.X,
		Y:          n.Y,
		Angle:      n.Angle,
		Radius:     n.Radius,
		StartAngle: n.StartAngle,
		EndAngle:   n.EndAngle,
		Thickness:  n.Thickness,
		Server:     n.Server,
		Name:       n.Data.Name,
	}
}
