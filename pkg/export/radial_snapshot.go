package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Casys-AI/capgraph/pkg/engine"
	"github.com/Casys-AI/capgraph/pkg/layout"
	"github.com/Casys-AI/capgraph/pkg/metrics"
	"github.com/Casys-AI/capgraph/pkg/model"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"
)

// RadialSnapshotOptions controls radial snapshot export behaviour.
type RadialSnapshotOptions struct {
	Path     string                  // Output path; format inferred from extension when Format empty
	Format   string                  // "svg", "png", or "json" (case-insensitive). If empty, inferred from Path.
	Title    string                  // Optional title rendered in summary block
	Layout   *layout.Layout          // Positioned radial layout to render
	Outlines []engine.ClusterOutline // Optional community hull overlays
	DataHash string                  // Hash of input snapshot for provenance
}

// SaveRadialSnapshot renders a static radial snapshot (SVG, PNG, or layout
// JSON) with a minimal summary block. It intentionally keeps the visual
// language concise so downstream tools can parse it without reading
// auxiliary docs.
func SaveRadialSnapshot(opts RadialSnapshotOptions) error {
	defer metrics.Timer(metrics.ExportRender)()

	if opts.Layout == nil {
		return fmt.Errorf("layout is required for snapshot export")
	}

	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		case ".json":
			format = "json"
		default:
			format = "svg" // safe default
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path = opts.Path + ".svg"
			}
		}
	}
	if format != "svg" && format != "png" && format != "json" {
		return fmt.Errorf("unsupported format %q (want svg, png, or json)", format)
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	switch format {
	case "svg":
		return renderSVG(opts)
	case "png":
		return renderPNG(opts)
	case "json":
		return writeLayoutJSON(opts)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// --- rendering -------------------------------------------------------------

var (
	colorCapability = color.RGBA{0x5c, 0x6b, 0xc0, 0xff}
	colorStroke     = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorContains   = color.RGBA{0x90, 0xa4, 0xae, 0xff}
	colorSequence   = color.RGBA{0x8d, 0x6e, 0x63, 0xff}
	colorEdge       = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText       = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle     = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop   = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG   = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorHullFill   = color.RGBA{0x7e, 0x57, 0xc2, 0x30}
	colorHullEdge   = color.RGBA{0x7e, 0x57, 0xc2, 0xff}
)

// serverPalette gives tool glyphs a stable color per server.
var serverPalette = []color.RGBA{
	{0x43, 0xa0, 0x47, 0xff},
	{0xef, 0x6c, 0x00, 0xff},
	{0x00, 0x83, 0x8f, 0xff},
	{0xc2, 0x18, 0x5b, 0xff},
	{0x6d, 0x4c, 0x41, 0xff},
	{0x39, 0x49, 0xab, 0xff},
}

func serverColor(server string) color.RGBA {
	if server == "" || server == model.UnknownServer {
		return color.RGBA{0x9e, 0x9e, 0x9e, 0xff}
	}
	var h uint32
	for _, r := range server {
		h = h*31 + uint32(r)
	}
	return serverPalette[int(h)%len(serverPalette)]
}

func edgeColor(edgeType model.EdgeType) color.RGBA {
	switch edgeType {
	case model.EdgeContains, model.EdgeHierarchy:
		return colorContains
	case model.EdgeSequence:
		return colorSequence
	default:
		return colorEdge
	}
}

const headerHeight = 104

func renderPNG(opts RadialSnapshotOptions) error {
	l := opts.Layout
	width := int(l.Center.X * 2)
	height := int(l.Center.Y*2) + headerHeight

	dc := gg.NewContext(width, height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	// header
	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(width)-32, headerHeight-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	drawSummaryBlock(dc, opts)

	// The radial canvas starts below the header.
	dc.Translate(0, headerHeight)

	// community hulls behind everything else
	for _, outline := range opts.Outlines {
		if len(outline.Outline) < 3 {
			continue
		}
		dc.NewSubPath()
		dc.MoveTo(outline.Outline[0].X, outline.Outline[0].Y)
		for _, p := range outline.Outline[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
		dc.SetColor(colorHullFill)
		dc.FillPreserve()
		dc.SetColor(colorHullEdge)
		dc.SetLineWidth(1.5)
		dc.Stroke()
	}

	// bundled paths
	dc.SetLineWidth(1.2)
	for _, p := range l.Paths {
		if len(p.Points) < 2 {
			continue
		}
		dc.SetColor(edgeColor(p.EdgeType))
		dc.MoveTo(p.Points[0].X, p.Points[0].Y)
		for _, pt := range p.Points[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
		dc.Stroke()
	}

	// capability glyphs sized by metric thickness
	for _, c := range l.Capabilities {
		dc.SetColor(colorCapability)
		dc.DrawCircle(c.X, c.Y, c.Thickness/2+3)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(1)
		dc.DrawCircle(c.X, c.Y, c.Thickness/2+3)
		dc.Stroke()
	}

	// tool glyphs colored by server
	for _, t := range l.Tools {
		dc.SetColor(serverColor(t.Server))
		dc.DrawCircle(t.X, t.Y, 4)
		dc.Fill()
	}

	return dc.SavePNG(opts.Path)
}

func renderSVG(opts RadialSnapshotOptions) error {
	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	return renderSVGToWriter(file, opts)
}

func renderSVGToWriter(w io.Writer, opts RadialSnapshotOptions) error {
	l := opts.Layout
	width := int(l.Center.X * 2)
	height := int(l.Center.Y*2) + headerHeight

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, width-32, headerHeight-24, 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))

	drawSummaryBlockSVG(canvas, opts)

	canvas.Group(fmt.Sprintf("transform=\"translate(0,%d)\"", headerHeight))

	// community hulls behind everything else
	for _, outline := range opts.Outlines {
		if len(outline.Outline) < 3 {
			continue
		}
		var d strings.Builder
		fmt.Fprintf(&d, "M %.2f %.2f", outline.Outline[0].X, outline.Outline[0].Y)
		for _, p := range outline.Outline[1:] {
			fmt.Fprintf(&d, " L %.2f %.2f", p.X, p.Y)
		}
		d.WriteString(" Z")
		canvas.Path(d.String(),
			fmt.Sprintf("fill:%s;fill-opacity:0.19;stroke:%s;stroke-width:1.5", css(colorHullEdge), css(colorHullEdge)))
	}

	// bundled paths use the precomputed path data directly
	for _, p := range l.Paths {
		if p.PathD == "" {
			continue
		}
		canvas.Path(p.PathD,
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.2;stroke-opacity:0.6", css(edgeColor(p.EdgeType))))
	}

	// capability glyphs
	for _, c := range l.Capabilities {
		canvas.Circle(int(c.X), int(c.Y), int(c.Thickness/2+3),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorCapability), css(colorStroke)))
	}

	// tool glyphs
	for _, t := range l.Tools {
		canvas.Circle(int(t.X), int(t.Y), 4, fmt.Sprintf("fill:%s", css(serverColor(t.Server))))
	}

	canvas.Gend()
	canvas.End()
	return nil
}

func drawSummaryBlock(dc *gg.Context, opts RadialSnapshotOptions) {
	l := opts.Layout
	dc.SetColor(colorText)
	dc.DrawStringAnchored(snapshotTitle(opts), 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("data_hash: %s", opts.DataHash), 32, 60, 0, 0.5)
	dc.DrawStringAnchored(
		fmt.Sprintf("capabilities: %d  tools: %d  paths: %d", len(l.Capabilities), len(l.Tools), len(l.Paths)),
		32, 80, 0, 0.5)
}

func drawSummaryBlockSVG(canvas *svg.SVG, opts RadialSnapshotOptions) {
	l := opts.Layout
	canvas.Text(32, 44, snapshotTitle(opts),
		fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	canvas.Text(32, 64, fmt.Sprintf("data_hash: %s", opts.DataHash),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	canvas.Text(32, 84,
		fmt.Sprintf("capabilities: %d  tools: %d  paths: %d", len(l.Capabilities), len(l.Tools), len(l.Paths)),
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
}

func snapshotTitle(opts RadialSnapshotOptions) string {
	if strings.TrimSpace(opts.Title) != "" {
		return opts.Title
	}
	return "Capability Graph Snapshot"
}

// --- helpers ---------------------------------------------------------------

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
