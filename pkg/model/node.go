// Package model defines the hypergraph data model shared by every engine
// component: typed nodes (tools and capabilities), typed edges, and the raw
// snapshot contract delivered by the data source.
//
// The wire payload uses snake_case field names; DecodeSnapshot translates it
// into the camelCase Go model at the boundary. Everything downstream of the
// decode works on these types only.
package model

import "time"

// NodeType discriminates the node tagged union.
type NodeType string

const (
	NodeTypeCapability NodeType = "capability"
	NodeTypeTool       NodeType = "tool"
)

// UnknownServer is the server assigned to tools whose payload carries none.
const UnknownServer = "unknown"

// Node is one entity in the capability/tool hypergraph.
//
// Capabilities carry usage and centrality attributes; tools carry a server.
// ParentCapabilityID is derived by the hierarchy builder, never read from the
// input payload. Missing optional attributes default to safe values at decode
// time (zero counts, UnknownServer, nil LastUsed).
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Name string   `json:"name"`

	// Tool attributes.
	Server string `json:"server,omitempty"`

	// Capability attributes. PageRank and community assignments arrive
	// pre-computed from the data source; the engine never recomputes them.
	UsageCount  float64 `json:"usageCount"`
	SuccessRate float64 `json:"successRate"`
	PageRank    float64 `json:"pagerank"`
	Description string  `json:"description,omitempty"`

	// ParentCapabilityID is derived from contains edges, not input.
	ParentCapabilityID string `json:"parentCapabilityId,omitempty"`

	// LastUsed is nil when the entity has never been observed in use; the
	// timeline treats nil as infinitely old.
	LastUsed *time.Time `json:"lastUsed,omitempty"`

	// CommunityID is an externally computed cluster id, used only for
	// color/hull grouping. Nil means unclustered.
	CommunityID *int `json:"communityId,omitempty"`
}

// IsCapability reports whether the node is a capability.
func (n Node) IsCapability() bool { return n.Type == NodeTypeCapability }

// IsTool reports whether the node is a tool.
func (n Node) IsTool() bool { return n.Type == NodeTypeTool }
