package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/Casys-AI/capgraph/pkg/model"
)

// AssertNodeCount verifies the expected number of nodes in a snapshot.
func AssertNodeCount(t *testing.T, snap *model.Snapshot, expected int) {
	t.Helper()
	if len(snap.Nodes) != expected {
		t.Errorf("expected %d nodes, got %d", expected, len(snap.Nodes))
	}
}

// AssertNoDuplicateIDs verifies all node IDs in a snapshot are unique.
func AssertNoDuplicateIDs(t *testing.T, snap *model.Snapshot) {
	t.Helper()
	seen := make(map[string]bool)
	for _, n := range snap.Nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
	}
}

// AssertEdgeExists verifies that an edge with the given endpoints and type
// exists in the snapshot.
func AssertEdgeExists(t *testing.T, snap *model.Snapshot, source, target string, edgeType model.EdgeType) {
	t.Helper()
	for _, e := range snap.Edges {
		if e.Source == source && e.Target == target && e.Type == edgeType {
			return
		}
	}
	t.Errorf("expected %s edge from %s to %s not found", edgeType, source, target)
}

// AssertContainsID verifies that ids contains want.
func AssertContainsID(t *testing.T, ids []string, want string) {
	t.Helper()
	for _, id := range ids {
		if id == want {
			return
		}
	}
	t.Errorf("expected id %q in %v", want, ids)
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		// Find first difference for helpful error message
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s",
					i+1, expLine, actLine)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}

// TempDir helpers

// WriteSnapshotFile writes a snapshot as JSON to path, creating parent
// directories as needed.
func WriteSnapshotFile(t *testing.T, path string, snap *model.Snapshot) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	data, err := json.MarshalIndent(rawDocument(snap), "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write snapshot file: %v", err)
	}
}

// rawDocument converts a snapshot back to the snake_case wire shape so that
// written fixtures round-trip through model.DecodeSnapshot.
func rawDocument(snap *model.Snapshot) map[string]interface{} {
	nodes := make([]map[string]interface{}, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		rn := map[string]interface{}{
			"id":   n.ID,
			"type": string(n.Type),
			"name": n.Name,
		}
		if n.Server != "" {
			rn["server"] = n.Server
		}
		if n.UsageCount != 0 {
			rn["usage_count"] = n.UsageCount
		}
		if n.SuccessRate != 0 {
			rn["success_rate"] = n.SuccessRate
		}
		if n.PageRank != 0 {
			rn["pagerank"] = n.PageRank
		}
		if n.Description != "" {
			rn["description"] = n.Description
		}
		if n.LastUsed != nil {
			rn["last_used"] = n.LastUsed.Format("2006-01-02T15:04:05Z07:00")
		}
		if n.CommunityID != nil {
			rn["community_id"] = *n.CommunityID
		}
		nodes = append(nodes, rn)
	}

	edges := make([]map[string]interface{}, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		re := map[string]interface{}{
			"source":    e.Source,
			"target":    e.Target,
			"edge_type": string(e.Type),
		}
		if e.Weight != 0 {
			re["weight"] = e.Weight
		}
		if e.ObservedCount != 0 {
			re["observed_count"] = e.ObservedCount
		}
		edges = append(edges, re)
	}

	return map[string]interface{}{"nodes": nodes, "edges": edges}
}

// NodeIDs returns a slice of all node IDs in the snapshot.
func NodeIDs(snap *model.Snapshot) []string {
	ids := make([]string, len(snap.Nodes))
	for i, n := range snap.Nodes {
		ids[i] = n.ID
	}
	return ids
}
