// Package graph defines the knowledge graph model and the fusion engine
// that merges chapter-level, section-level, and cross-section fragments
// into one deduplicated graph.
package graph

// NodeType classifies a knowledge node into one of the fixed tiers.
type NodeType string

const (
	MainLogic          NodeType = "main_logic"
	BasicConcept       NodeType = "basic_concept"
	CoreTechnology     NodeType = "core_technology"
	CircuitApplication NodeType = "circuit_application"
)

// Level returns the hierarchy depth derived from the node type.
func (t NodeType) Level() int {
	switch t {
	case MainLogic:
		return 0
	case BasicConcept:
		return 1
	case CoreTechnology:
		return 2
	case CircuitApplication:
		return 3
	}
	return 1
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case MainLogic, BasicConcept, CoreTechnology, CircuitApplication:
		return true
	}
	return false
}

// Node is a single knowledge node. IDs are only guaranteed unique after
// fusion; fragments produced independently may collide.
type Node struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Type         NodeType `json:"node_type"`
	Summary      string   `json:"summary"`
	Difficulty   int      `json:"difficulty"`
	Keywords     []string `json:"keywords"`
	Formulas     []string `json:"formulas"`
	Applications []string `json:"applications"`
	SectionNum   string   `json:"section_number"`
	Level        int      `json:"level"`
	// Prerequisites is only populated on main-logic nodes.
	Prerequisites []string `json:"prerequisites,omitempty"`
	Provenance    string   `json:"provenance,omitempty"`
}

// Edge connects two nodes. After fusion every edge's endpoints exist
// among the surviving nodes; dangling edges are dropped silently.
type Edge struct {
	SourceID      string  `json:"source_id"`
	TargetID      string  `json:"target_id"`
	Relationship  string  `json:"relationship"`
	Description   string  `json:"description"`
	Weight        float64 `json:"weight"`
	Evidence      string  `json:"evidence"`
	Bidirectional bool    `json:"bidirectional"`
	Kind          string  `json:"edge_kind"`
	Provenance    string  `json:"provenance,omitempty"`
}

// Edge kinds tag where an edge came from during fusion.
const (
	KindMainLogic     = "main_logic"
	KindMainToSection = "main_to_section"
	KindHierarchical  = "hierarchical"
	KindIntraSection  = "intra_section"
	KindAppNetwork    = "application_network"
	KindInterSection  = "inter_section"
)

// Fragment is the partial node/edge set extracted from one section in
// isolation, before fusion.
type Fragment struct {
	SectionNum string `json:"section_number"`
	Title      string `json:"title"`
	Nodes      []Node `json:"nodes"`
	Edges      []Edge `json:"edges"`
}

// Valid reports whether a fragment is usable for fusion: at least two
// nodes, each carrying an id and a label.
func (f Fragment) Valid() bool {
	if len(f.Nodes) < 2 {
		return false
	}
	for _, n := range f.Nodes {
		if n.ID == "" || n.Label == "" {
			return false
		}
	}
	return true
}

// MainGraph is the chapter-level graph: one main-logic node per chapter
// plus inter-chapter relationship edges.
type MainGraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Connection is a verified cross-section link between two
// circuit-application nodes, produced by the pair-analysis stage.
type Connection struct {
	SourceID    string  `json:"source_id"`
	TargetID    string  `json:"target_id"`
	Type        string  `json:"connection_type"`
	Strength    float64 `json:"connection_strength"`
	Description string  `json:"description"`
	Evidence    string  `json:"technical_evidence"`
}

// Statistics summarizes a unified graph after dedup.
type Statistics struct {
	TotalNodes              int `json:"total_nodes"`
	TotalEdges              int `json:"total_edges"`
	MainLogicNodes          int `json:"main_logic_nodes"`
	BasicConceptNodes       int `json:"basic_concept_nodes"`
	CoreTechnologyNodes     int `json:"core_technology_nodes"`
	CircuitApplicationNodes int `json:"circuit_application_nodes"`
	CrossSectionEdges       int `json:"cross_section_edges"`
}

// UnifiedGraph is the fusion output, the sole artifact consumed by
// external rendering and reporting collaborators.
type UnifiedGraph struct {
	Title      string     `json:"title"`
	Nodes      []Node     `json:"nodes"`
	Edges      []Edge     `json:"edges"`
	Statistics Statistics `json:"statistics"`
}
