package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Casys-AI/capgraph/pkg/engine"
	"github.com/Casys-AI/capgraph/pkg/hull"
	"github.com/Casys-AI/capgraph/pkg/layout"
	"github.com/Casys-AI/capgraph/pkg/model"
	"github.com/Casys-AI/capgraph/pkg/testutil"
)

func renderFixture(t *testing.T) (*layout.Layout, []engine.ClusterOutline) {
	t.Helper()
	snap := testutil.QuickChain(4)
	cid := 0
	for i := range snap.Nodes {
		if snap.Nodes[i].IsCapability() {
			snap.Nodes[i].CommunityID = &cid
		}
	}
	gen := engine.NewGeneration(snap)
	l := gen.RadialLayout(layout.Options{Width: 800, Height: 800}, 0.85)
	outlines := gen.ClusterOutlines(l, hull.DefaultPadding, true)
	return l, outlines
}

func TestRenderSVGToWriter(t *testing.T) {
	l, outlines := renderFixture(t)

	var buf bytes.Buffer
	err := renderSVGToWriter(&buf, RadialSnapshotOptions{
		Path:     "unused.svg",
		Title:    "Chain Fixture",
		Layout:   l,
		Outlines: outlines,
		DataHash: "deadbeef",
	})
	if err != nil {
		t.Fatalf("renderSVGToWriter: %v", err)
	}

	out := buf.String()
	for _, fragment := range []string{
		"<svg", "</svg>",
		"Chain Fixture",
		"data_hash: deadbeef",
		"capabilities: 4  tools: 4",
		"translate(0,104)",
		"<circle",
		"<path",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("SVG output missing %q", fragment)
		}
	}

	// One path per bundled edge plus one per hull outline.
	wantPaths := len(l.Paths) + len(outlines)
	if got := strings.Count(out, "<path"); got != wantPaths {
		t.Errorf("got %d path elements, want %d", got, wantPaths)
	}
	// One circle per capability and per tool.
	if got := strings.Count(out, "<circle"); got != len(l.Capabilities)+len(l.Tools) {
		t.Errorf("got %d circles, want %d", got, len(l.Capabilities)+len(l.Tools))
	}
}

func TestSaveRadialSnapshot_FormatInference(t *testing.T) {
	l, _ := renderFixture(t)
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		format   string
		wantFile string
	}{
		{"svg by extension", filepath.Join(dir, "out.svg"), "", "out.svg"},
		{"json by extension", filepath.Join(dir, "out.json"), "", "out.json"},
		{"explicit format wins", filepath.Join(dir, "data.bin"), "json", "data.bin"},
		{"extensionless defaults to svg", filepath.Join(dir, "bare"), "", "bare.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SaveRadialSnapshot(RadialSnapshotOptions{Path: tt.path, Format: tt.format, Layout: l})
			if err != nil {
				t.Fatalf("SaveRadialSnapshot: %v", err)
			}
			if _, err := os.Stat(filepath.Join(dir, tt.wantFile)); err != nil {
				t.Errorf("expected output file %s: %v", tt.wantFile, err)
			}
		})
	}
}

func TestSaveRadialSnapshot_Errors(t *testing.T) {
	l, _ := renderFixture(t)

	if err := SaveRadialSnapshot(RadialSnapshotOptions{Path: "x.svg"}); err == nil {
		t.Errorf("nil layout accepted")
	}
	if err := SaveRadialSnapshot(RadialSnapshotOptions{Path: "", Layout: l}); err == nil {
		t.Errorf("empty path accepted")
	}
	if err := SaveRadialSnapshot(RadialSnapshotOptions{Path: "x.gif", Format: "gif", Layout: l}); err == nil {
		t.Errorf("unsupported format accepted")
	}
}

func TestSaveRadialSnapshot_JSONRoundTrips(t *testing.T) {
	l, outlines := renderFixture(t)
	path := filepath.Join(t.TempDir(), "layout.json")

	err := SaveRadialSnapshot(RadialSnapshotOptions{
		Path:     path,
		Title:    "Chain Fixture",
		Layout:   l,
		Outlines: outlines,
		DataHash: "cafe",
	})
	if err != nil {
		t.Fatalf("SaveRadialSnapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc struct {
		Title        string  `json:"title"`
		DataHash     string  `json:"data_hash"`
		Width        float64 `json:"width"`
		Capabilities []struct {
			ID string `json:"id"`
		} `json:"capabilities"`
		Paths []struct {
			PathD string `json:"path_d"`
		} `json:"paths"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Title != "Chain Fixture" || doc.DataHash != "cafe" {
		t.Errorf("metadata = %q / %q", doc.Title, doc.DataHash)
	}
	if doc.Width != 800 {
		t.Errorf("width = %v, want 800", doc.Width)
	}
	if len(doc.Capabilities) != len(l.Capabilities) {
		t.Errorf("got %d capabilities, want %d", len(doc.Capabilities), len(l.Capabilities))
	}
	for _, p := range doc.Paths {
		if !strings.HasPrefix(p.PathD, "M") {
			t.Errorf("persisted path data %q invalid", p.PathD)
		}
	}
}

func TestSaveRadialSnapshot_PNG(t *testing.T) {
	l, outlines := renderFixture(t)
	path := filepath.Join(t.TempDir(), "out.png")

	err := SaveRadialSnapshot(RadialSnapshotOptions{Path: path, Layout: l, Outlines: outlines})
	if err != nil {
		t.Fatalf("SaveRadialSnapshot: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG")
	}
}

func TestServerColor_Stable(t *testing.T) {
	if serverColor("filesystem") != serverColor("filesystem") {
		t.Errorf("same server mapped to different colors")
	}
	gray := serverColor(model.UnknownServer)
	if gray != serverColor("") {
		t.Errorf("unknown and empty servers differ")
	}
}

func TestEdgeColor(t *testing.T) {
	if edgeColor(model.EdgeContains) != edgeColor(model.EdgeHierarchy) {
		t.Errorf("containment colors differ")
	}
	if edgeColor(model.EdgeSequence) == edgeColor(model.EdgeDependency) {
		t.Errorf("sequence not visually distinct from dependency")
	}
}
