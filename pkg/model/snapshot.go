package model

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Snapshot is one validated data generation: the full node/edge set the
// engine derives everything from. Snapshots are immutable once decoded; a
// data refresh produces a new Snapshot rather than mutating an old one.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ValidationError reports an input-contract violation in the raw payload.
// Only structural violations (missing id, unknown node type, dangling edge
// endpoint fields) produce errors; every other malformation degrades to a
// safe default.
type ValidationError struct {
	Kind  string // "node" or "edge"
	Index int    // position in the raw payload
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s at index %d: field %q %s", e.Kind, e.Index, e.Field, e.Msg)
}

// RawNode mirrors the snake_case wire shape of a node.
type RawNode struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Name        string   `json:"name"`
	Server      string   `json:"server"`
	UsageCount  *float64 `json:"usage_count"`
	SuccessRate *float64 `json:"success_rate"`
	PageRank    *float64 `json:"pagerank"`
	Description string   `json:"description"`
	LastUsed    *string  `json:"last_used"`
	CommunityID *int     `json:"community_id"`
}

// RawEdge mirrors the snake_case wire shape of an edge.
type RawEdge struct {
	Source        string   `json:"source"`
	Target        string   `json:"target"`
	EdgeType      string   `json:"edge_type"`
	Weight        *float64 `json:"weight"`
	ObservedCount *float64 `json:"observed_count"`
}

type rawSnapshot struct {
	Nodes []RawNode `json:"nodes"`
	Edges []RawEdge `json:"edges"`
}

// DecodeSnapshot parses a raw hypergraph payload into the engine model.
//
// Contract violations (missing id, unknown type, empty edge endpoints) are
// returned as a *ValidationError and leave no partial state with the caller.
// Optional attributes degrade: counts default to 0, server to UnknownServer,
// unparseable or absent last_used to nil.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return SnapshotFromRaw(raw.Nodes, raw.Edges)
}

// SnapshotFromRaw validates and translates pre-parsed raw records. Exposed
// so alternative sources (SQLite rows) can share the validation path.
func SnapshotFromRaw(nodes []RawNode, edges []RawEdge) (*Snapshot, error) {
	snap := &Snapshot{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: make([]Edge, 0, len(edges)),
	}

	for i, rn := range nodes {
		if rn.ID == "" {
			return nil, &ValidationError{Kind: "node", Index: i, Field: "id", Msg: "is required"}
		}
		nt := NodeType(rn.Type)
		if nt != NodeTypeCapability && nt != NodeTypeTool {
			return nil, &ValidationError{Kind: "node", Index: i, Field: "type", Msg: fmt.Sprintf("must be %q or %q, got %q", NodeTypeCapability, NodeTypeTool, rn.Type)}
		}

		n := Node{
			ID:          rn.ID,
			Type:        nt,
			Name:        firstNonEmpty(rn.Name, rn.Label, rn.ID),
			Description: rn.Description,
			UsageCount:  deref(rn.UsageCount),
			SuccessRate: deref(rn.SuccessRate),
			PageRank:    deref(rn.PageRank),
			CommunityID: rn.CommunityID,
		}
		if nt == NodeTypeTool {
			n.Server = firstNonEmpty(rn.Server, UnknownServer)
		}
		if rn.LastUsed != nil {
			if ts, err := time.Parse(time.RFC3339, *rn.LastUsed); err == nil {
				t := ts.UTC()
				n.LastUsed = &t
			}
			// Unparseable timestamps degrade to nil (oldest bucket).
		}
		snap.Nodes = append(snap.Nodes, n)
	}

	for i, re := range edges {
		if re.Source == "" {
			return nil, &ValidationError{Kind: "edge", Index: i, Field: "source", Msg: "is required"}
		}
		if re.Target == "" {
			return nil, &ValidationError{Kind: "edge", Index: i, Field: "target", Msg: "is required"}
		}
		snap.Edges = append(snap.Edges, Edge{
			Source:        re.Source,
			Target:        re.Target,
			Type:          EdgeType(re.EdgeType),
			Weight:        deref(re.Weight),
			ObservedCount: deref(re.ObservedCount),
		})
	}

	return snap, nil
}

// NodeByID builds an id-indexed view of the snapshot's nodes.
func (s *Snapshot) NodeByID() map[string]Node {
	m := make(map[string]Node, len(s.Nodes))
	for _, n := range s.Nodes {
		m[n.ID] = n
	}
	return m
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
