package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FuseConfig holds the keyword-similarity thresholds used when
// synthesizing hierarchical edges.
type FuseConfig struct {
	// SimilarityThreshold gates concept→technology, technology→application,
	// and cross-section application edges.
	SimilarityThreshold float64
	// StrongSimilarityThreshold gates the direct concept→application
	// shortcut, which needs stronger evidence.
	StrongSimilarityThreshold float64
}

// DefaultFuseConfig returns the standard thresholds.
func DefaultFuseConfig() FuseConfig {
	return FuseConfig{
		SimilarityThreshold:       0.2,
		StrongSimilarityThreshold: 0.4,
	}
}

// Fuser merges a main-logic graph, per-section fragments, and verified
// cross-section connections into one deduplicated UnifiedGraph.
type Fuser struct {
	cfg FuseConfig
	log *slog.Logger
}

func NewFuser(cfg FuseConfig, log *slog.Logger) *Fuser {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.2
	}
	if cfg.StrongSimilarityThreshold <= 0 {
		cfg.StrongSimilarityThreshold = 0.4
	}
	return &Fuser{cfg: cfg, log: log}
}

// Fuse builds the unified graph. Inputs are sorted by stable keys before
// the first-occurrence-wins dedup so the output does not depend on the
// completion order of the concurrent stages that produced them.
func (f *Fuser) Fuse(title string, main MainGraph, fragments []Fragment, conns []Connection) *UnifiedGraph {
	frags := make([]Fragment, 0, len(fragments))
	for _, fr := range fragments {
		if !fr.Valid() {
			f.log.Warn("skipping invalid fragment", "section", fr.SectionNum, "nodes", len(fr.Nodes))
			continue
		}
		frags = append(frags, fr)
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].SectionNum < frags[j].SectionNum })

	sortedConns := make([]Connection, len(conns))
	copy(sortedConns, conns)
	sort.Slice(sortedConns, func(i, j int) bool {
		a, b := sortedConns[i], sortedConns[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Type < b.Type
	})

	var nodes []Node
	var edges []Edge

	// Main-logic layer, copied verbatim.
	mainNodes := make([]Node, 0, len(main.Nodes))
	for _, n := range main.Nodes {
		n.Type = MainLogic
		n.Level = MainLogic.Level()
		n.Provenance = "main_logic"
		nodes = append(nodes, n)
		mainNodes = append(mainNodes, n)
	}
	for _, e := range main.Edges {
		e.Kind = KindMainLogic
		e.Provenance = "main_logic"
		edges = append(edges, e)
	}

	// Section layers plus synthesized hierarchy.
	var allApps []Node
	for _, fr := range frags {
		tiers := map[NodeType][]Node{}
		for _, n := range fr.Nodes {
			if !n.Type.Valid() {
				n.Type = BasicConcept
			}
			n.SectionNum = fr.SectionNum
			n.Level = n.Type.Level()
			n.Provenance = "section"
			nodes = append(nodes, n)
			tiers[n.Type] = append(tiers[n.Type], n)
		}
		allApps = append(allApps, tiers[CircuitApplication]...)

		if mainNode, ok := mainNodeForSection(mainNodes, fr.SectionNum); ok {
			for _, app := range tiers[CircuitApplication] {
				edges = append(edges, Edge{
					SourceID:     mainNode.ID,
					TargetID:     app.ID,
					Relationship: "contains_application",
					Description:  fmt.Sprintf("chapter %s contains application %s", fr.SectionNum, app.Label),
					Weight:       0.9,
					Evidence:     fmt.Sprintf("primary application of section %s", fr.SectionNum),
					Kind:         KindMainToSection,
					Provenance:   "hierarchy",
				})
			}
		}

		edges = append(edges, f.hierarchyEdges(tiers)...)

		for _, e := range fr.Edges {
			e.Kind = KindIntraSection
			e.Provenance = "section"
			edges = append(edges, e)
		}
	}

	// Cross-section application network from keyword overlap.
	for i := 0; i < len(allApps); i++ {
		for j := i + 1; j < len(allApps); j++ {
			a, b := allApps[i], allApps[j]
			if a.SectionNum == b.SectionNum {
				continue
			}
			if !Similar(a, b, f.cfg.SimilarityThreshold) {
				continue
			}
			edges = append(edges, Edge{
				SourceID:      a.ID,
				TargetID:      b.ID,
				Relationship:  "relates_to_application",
				Description:   fmt.Sprintf("application %s is technically related to %s", a.Label, b.Label),
				Weight:        0.5,
				Evidence:      "keyword overlap between applications",
				Bidirectional: true,
				Kind:          KindAppNetwork,
				Provenance:    "application_network",
			})
		}
	}

	// Verified cross-section connections.
	for _, c := range sortedConns {
		edges = append(edges, Edge{
			SourceID:     c.SourceID,
			TargetID:     c.TargetID,
			Relationship: c.Type,
			Description:  c.Description,
			Weight:       c.Strength,
			Evidence:     c.Evidence,
			Kind:         KindInterSection,
			Provenance:   "cross_connection",
		})
	}

	nodes = dedupNodes(nodes)
	edges = dropDangling(nodes, dedupEdges(edges))

	g := &UnifiedGraph{
		Title: title,
		Nodes: nodes,
		Edges: edges,
	}
	g.Statistics = computeStatistics(g)
	f.log.Info("fusion complete",
		"nodes", g.Statistics.TotalNodes,
		"edges", g.Statistics.TotalEdges,
		"cross_section_edges", g.Statistics.CrossSectionEdges,
	)
	return g
}

// hierarchyEdges synthesizes the intra-section tier hierarchy wherever
// keyword overlap clears the tier-specific threshold.
func (f *Fuser) hierarchyEdges(tiers map[NodeType][]Node) []Edge {
	var edges []Edge

	for _, concept := range tiers[BasicConcept] {
		for _, tech := range tiers[CoreTechnology] {
			if Similar(concept, tech, f.cfg.SimilarityThreshold) {
				edges = append(edges, hierarchyEdge(concept, tech, "enables", 0.7))
			}
		}
	}
	for _, tech := range tiers[CoreTechnology] {
		for _, app := range tiers[CircuitApplication] {
			if Similar(tech, app, f.cfg.SimilarityThreshold) {
				edges = append(edges, hierarchyEdge(tech, app, "implements", 0.8))
			}
		}
	}
	// Direct concept→application shortcut needs the stronger threshold.
	for _, concept := range tiers[BasicConcept] {
		for _, app := range tiers[CircuitApplication] {
			if Similar(concept, app, f.cfg.StrongSimilarityThreshold) {
				edges = append(edges, hierarchyEdge(concept, app, "supports", 0.6))
			}
		}
	}
	return edges
}

func hierarchyEdge(from, to Node, relationship string, weight float64) Edge {
	return Edge{
		SourceID:     from.ID,
		TargetID:     to.ID,
		Relationship: relationship,
		Description:  fmt.Sprintf("%s %s %s", from.Label, relationship, to.Label),
		Weight:       weight,
		Evidence:     "keyword overlap within section",
		Kind:         KindHierarchical,
		Provenance:   "hierarchy",
	}
}

// mainNodeForSection finds the main-logic node for a section by exact
// section-number match, falling back to chapter-prefix match.
func mainNodeForSection(mainNodes []Node, sectionNum string) (Node, bool) {
	for _, n := range mainNodes {
		if n.SectionNum == sectionNum {
			return n, true
		}
	}
	prefix := sectionNum
	if i := strings.Index(sectionNum, "."); i >= 0 {
		prefix = sectionNum[:i]
	}
	for _, n := range mainNodes {
		if n.SectionNum != "" && strings.HasPrefix(n.SectionNum, prefix) {
			return n, true
		}
	}
	return Node{}, false
}

// dedupNodes keeps the first occurrence of each node id.
func dedupNodes(nodes []Node) []Node {
	seen := make(map[string]bool, len(nodes))
	out := nodes[:0:0]
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}

// dedupEdges keeps the first occurrence of each
// (source, target, relationship) tuple.
func dedupEdges(edges []Edge) []Edge {
	type key struct{ src, dst, rel string }
	seen := make(map[key]bool, len(edges))
	out := edges[:0:0]
	for _, e := range edges {
		k := key{e.SourceID, e.TargetID, e.Relationship}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// dropDangling removes edges whose endpoints are not among the nodes.
func dropDangling(nodes []Node, edges []Edge) []Edge {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	out := edges[:0:0]
	for _, e := range edges {
		if ids[e.SourceID] && ids[e.TargetID] {
			out = append(out, e)
		}
	}
	return out
}

func computeStatistics(g *UnifiedGraph) Statistics {
	s := Statistics{
		TotalNodes: len(g.Nodes),
		TotalEdges: len(g.Edges),
	}
	for _, n := range g.Nodes {
		switch n.Type {
		case MainLogic:
			s.MainLogicNodes++
		case BasicConcept:
			s.BasicConceptNodes++
		case CoreTechnology:
			s.CoreTechnologyNodes++
		case CircuitApplication:
			s.CircuitApplicationNodes++
		}
	}
	for _, e := range g.Edges {
		if e.Kind == KindInterSection {
			s.CrossSectionEdges++
		}
	}
	return s
}
