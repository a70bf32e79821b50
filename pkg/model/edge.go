package model

// EdgeType classifies a relationship in the hypergraph.
type EdgeType string

const (
	EdgeContains       EdgeType = "contains"
	EdgeSequence       EdgeType = "sequence"
	EdgeDependency     EdgeType = "dependency"
	EdgeCapabilityLink EdgeType = "capability_link"
	EdgeUses           EdgeType = "uses"
	EdgeProvides       EdgeType = "provides"
	EdgeDependsOn      EdgeType = "dependsOn"
	EdgeHierarchy      EdgeType = "hierarchy"
)

// knownEdgeTypes is the closed set accepted at the boundary. Unknown types
// are kept as-is rather than rejected; highlighting is direction- and
// type-agnostic, so an unrecognized type only loses its special meaning.
var knownEdgeTypes = map[EdgeType]bool{
	EdgeContains:       true,
	EdgeSequence:       true,
	EdgeDependency:     true,
	EdgeCapabilityLink: true,
	EdgeUses:           true,
	EdgeProvides:       true,
	EdgeDependsOn:      true,
	EdgeHierarchy:      true,
}

// Known reports whether t is one of the recognized edge types.
func (t EdgeType) Known() bool { return knownEdgeTypes[t] }

// Edge is one typed relationship between two nodes. Weight and ObservedCount
// are optional server-side attributes carried through for rendering; they do
// not influence any engine computation except arc emphasis.
type Edge struct {
	Source        string   `json:"source"`
	Target        string   `json:"target"`
	Type          EdgeType `json:"edgeType"`
	Weight        float64  `json:"weight,omitempty"`
	ObservedCount float64  `json:"observedCount,omitempty"`
}

// Touches reports whether the edge has id as either endpoint.
func (e Edge) Touches(id string) bool { return e.Source == id || e.Target == id }

// Other returns the endpoint opposite to id. Returns the empty string when
// id is not an endpoint.
func (e Edge) Other(id string) string {
	switch id {
	case e.Source:
		return e.Target
	case e.Target:
		return e.Source
	}
	return ""
}
