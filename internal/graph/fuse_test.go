package graph

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func newTestFuser() *Fuser {
	return NewFuser(DefaultFuseConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func findEdge(edges []Edge, src, dst, rel string) (Edge, bool) {
	for _, e := range edges {
		if e.SourceID == src && e.TargetID == dst && e.Relationship == rel {
			return e, true
		}
	}
	return Edge{}, false
}

func TestFuse_MainLayerCarriedOver(t *testing.T) {
	main := MainGraph{
		Nodes: []Node{
			{ID: "main_1", Label: "Diodes", SectionNum: "1"},
			{ID: "main_2", Label: "Transistors", SectionNum: "2"},
		},
		Edges: []Edge{
			{SourceID: "main_1", TargetID: "main_2", Relationship: "prerequisite", Weight: 0.8},
		},
	}

	g := newTestFuser().Fuse("Electronics", main, nil, nil)

	if g.Title != "Electronics" {
		t.Errorf("expected title Electronics, got %q", g.Title)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	for _, n := range g.Nodes {
		if n.Type != MainLogic {
			t.Errorf("node %s: expected type main_logic, got %q", n.ID, n.Type)
		}
		if n.Level != 0 {
			t.Errorf("node %s: expected level 0, got %d", n.ID, n.Level)
		}
	}
	e, ok := findEdge(g.Edges, "main_1", "main_2", "prerequisite")
	if !ok {
		t.Fatal("expected main-logic edge to survive")
	}
	if e.Kind != KindMainLogic {
		t.Errorf("expected kind %q, got %q", KindMainLogic, e.Kind)
	}
	if g.Statistics.MainLogicNodes != 2 {
		t.Errorf("expected 2 main logic nodes in stats, got %d", g.Statistics.MainLogicNodes)
	}
}

func TestFuse_ContainsApplicationPrefixMatch(t *testing.T) {
	main := MainGraph{Nodes: []Node{{ID: "main_3", Label: "Amplifiers", SectionNum: "3"}}}
	frag := Fragment{
		SectionNum: "3.2",
		Nodes: []Node{
			{ID: "bc_1", Label: "Gain", Type: BasicConcept, Keywords: []string{"gain"}},
			{ID: "ca_1", Label: "Common Emitter", Type: CircuitApplication, Keywords: []string{"emitter"}},
		},
	}

	g := newTestFuser().Fuse("T", main, []Fragment{frag}, nil)

	e, ok := findEdge(g.Edges, "main_3", "ca_1", "contains_application")
	if !ok {
		t.Fatal("expected contains_application edge via chapter prefix match")
	}
	if e.Weight != 0.9 {
		t.Errorf("expected weight 0.9, got %v", e.Weight)
	}
	if e.Kind != KindMainToSection {
		t.Errorf("expected kind %q, got %q", KindMainToSection, e.Kind)
	}
}

func TestFuse_NoMainNodeNoContainsEdge(t *testing.T) {
	main := MainGraph{Nodes: []Node{{ID: "main_1", Label: "Ch 1", SectionNum: "1"}}}
	frag := Fragment{
		SectionNum: "4.1",
		Nodes: []Node{
			{ID: "bc_1", Label: "X", Type: BasicConcept},
			{ID: "ca_1", Label: "Y", Type: CircuitApplication},
		},
	}

	g := newTestFuser().Fuse("T", main, []Fragment{frag}, nil)
	for _, e := range g.Edges {
		if e.Relationship == "contains_application" {
			t.Errorf("unexpected contains_application edge %s -> %s", e.SourceID, e.TargetID)
		}
	}
}

func TestFuse_HierarchyEdges(t *testing.T) {
	frag := Fragment{
		SectionNum: "2.1",
		Nodes: []Node{
			// Overlaps the tech at 0.25 and the app at 1/3: enables only.
			{ID: "bc_1", Label: "Feedback", Type: BasicConcept,
				Keywords: []string{"feedback", "gain", "stability", "poles", "zeros"}},
			// Identical keywords to the app: clears the strong threshold.
			{ID: "bc_2", Label: "Amplification", Type: BasicConcept,
				Keywords: []string{"feedback", "gain", "amplifier"}},
			{ID: "ct_1", Label: "Bode Analysis", Type: CoreTechnology,
				Keywords: []string{"feedback", "gain", "bode", "margin", "phase"}},
			{ID: "ca_1", Label: "Op-Amp Circuit", Type: CircuitApplication,
				Keywords: []string{"feedback", "gain", "amplifier"}},
		},
	}

	g := newTestFuser().Fuse("T", MainGraph{}, []Fragment{frag}, nil)

	if e, ok := findEdge(g.Edges, "bc_1", "ct_1", "enables"); !ok || e.Weight != 0.7 {
		t.Errorf("expected enables edge bc_1 -> ct_1 with weight 0.7, got %+v ok=%v", e, ok)
	}
	if e, ok := findEdge(g.Edges, "ct_1", "ca_1", "implements"); !ok || e.Weight != 0.8 {
		t.Errorf("expected implements edge ct_1 -> ca_1 with weight 0.8, got %+v ok=%v", e, ok)
	}
	if e, ok := findEdge(g.Edges, "bc_2", "ca_1", "supports"); !ok || e.Weight != 0.6 {
		t.Errorf("expected supports edge bc_2 -> ca_1 with weight 0.6, got %+v ok=%v", e, ok)
	}
	// bc_1 overlaps the app at 1/3, below the 0.4 shortcut threshold.
	if _, ok := findEdge(g.Edges, "bc_1", "ca_1", "supports"); ok {
		t.Error("bc_1 -> ca_1 supports edge should not clear the strong threshold")
	}
}

func TestFuse_InvalidFragmentsSkipped(t *testing.T) {
	frags := []Fragment{
		{SectionNum: "1.1", Nodes: []Node{{ID: "only", Label: "One"}}},          // too few nodes
		{SectionNum: "1.2", Nodes: []Node{{ID: "a", Label: "A"}, {ID: "b"}}},    // missing label
		{SectionNum: "1.3", Nodes: []Node{{ID: "c", Label: "C"}, {Label: "D"}}}, // missing id
	}
	g := newTestFuser().Fuse("T", MainGraph{}, frags, nil)
	if len(g.Nodes) != 0 {
		t.Errorf("expected all fragments rejected, got %d nodes", len(g.Nodes))
	}
}

func TestFuse_InvalidNodeTypeCoerced(t *testing.T) {
	frag := Fragment{
		SectionNum: "1.1",
		Nodes: []Node{
			{ID: "n1", Label: "A", Type: "design_method"},
			{ID: "n2", Label: "B", Type: BasicConcept},
		},
	}
	g := newTestFuser().Fuse("T", MainGraph{}, []Fragment{frag}, nil)
	for _, n := range g.Nodes {
		if n.ID == "n1" {
			if n.Type != BasicConcept {
				t.Errorf("expected unknown type coerced to basic_concept, got %q", n.Type)
			}
			if n.Level != 1 {
				t.Errorf("expected level 1, got %d", n.Level)
			}
		}
	}
}

func TestFuse_DedupKeepsFirstOccurrence(t *testing.T) {
	frags := []Fragment{
		{SectionNum: "1.2", Nodes: []Node{
			{ID: "shared", Label: "Later", Type: BasicConcept},
			{ID: "u2", Label: "U2", Type: BasicConcept},
		}},
		{SectionNum: "1.1", Nodes: []Node{
			{ID: "shared", Label: "Earlier", Type: BasicConcept},
			{ID: "u1", Label: "U1", Type: BasicConcept},
		}},
	}

	g := newTestFuser().Fuse("T", MainGraph{}, frags, nil)

	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes after dedup, got %d", len(g.Nodes))
	}
	for _, n := range g.Nodes {
		if n.ID == "shared" && n.Label != "Earlier" {
			t.Errorf("expected first occurrence by section order to win, got label %q", n.Label)
		}
	}
}

func TestFuse_DuplicateEdgesCollapsed(t *testing.T) {
	frag := Fragment{
		SectionNum: "1.1",
		Nodes: []Node{
			{ID: "a", Label: "A", Type: BasicConcept},
			{ID: "b", Label: "B", Type: BasicConcept},
		},
		Edges: []Edge{
			{SourceID: "a", TargetID: "b", Relationship: "relates_to", Weight: 0.5},
			{SourceID: "a", TargetID: "b", Relationship: "relates_to", Weight: 0.9},
			{SourceID: "a", TargetID: "b", Relationship: "depends_on", Weight: 0.5},
		},
	}

	g := newTestFuser().Fuse("T", MainGraph{}, []Fragment{frag}, nil)

	e, ok := findEdge(g.Edges, "a", "b", "relates_to")
	if !ok {
		t.Fatal("expected relates_to edge")
	}
	if e.Weight != 0.5 {
		t.Errorf("expected first occurrence kept (weight 0.5), got %v", e.Weight)
	}
	count := 0
	for _, e := range g.Edges {
		if e.SourceID == "a" && e.TargetID == "b" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("expected 2 distinct a -> b edges, got %d", count)
	}
}

func TestFuse_CrossSectionApplicationNetwork(t *testing.T) {
	frags := []Fragment{
		{SectionNum: "1.1", Nodes: []Node{
			{ID: "bc_a", Label: "Filler A", Type: BasicConcept, Keywords: []string{"unrelated1"}},
			{ID: "app_a", Label: "Bridge Rectifier", Type: CircuitApplication,
				Keywords: []string{"rectifier", "diode", "power"}},
		}},
		{SectionNum: "2.1", Nodes: []Node{
			{ID: "bc_b", Label: "Filler B", Type: BasicConcept, Keywords: []string{"unrelated2"}},
			{ID: "app_b", Label: "Peak Detector", Type: CircuitApplication,
				Keywords: []string{"rectifier", "diode", "smoothing"}},
			{ID: "app_b2", Label: "Clipper", Type: CircuitApplication,
				Keywords: []string{"rectifier", "diode", "smoothing"}},
		}},
	}

	g := newTestFuser().Fuse("T", MainGraph{}, frags, nil)

	e, ok := findEdge(g.Edges, "app_a", "app_b", "relates_to_application")
	if !ok {
		t.Fatal("expected cross-section relates_to_application edge")
	}
	if !e.Bidirectional {
		t.Error("expected bidirectional edge")
	}
	if e.Weight != 0.5 {
		t.Errorf("expected weight 0.5, got %v", e.Weight)
	}

	// Same-section application pairs are never linked this way.
	if _, ok := findEdge(g.Edges, "app_b", "app_b2", "relates_to_application"); ok {
		t.Error("same-section applications must not get a relates_to_application edge")
	}
}

func TestFuse_ConnectionsBecomeEdgesAndDanglingDropped(t *testing.T) {
	frags := []Fragment{
		{SectionNum: "1.1", Nodes: []Node{
			{ID: "app_a", Label: "A", Type: CircuitApplication, Keywords: []string{"k1"}},
			{ID: "bc_a", Label: "FA", Type: BasicConcept, Keywords: []string{"k2"}},
		}},
		{SectionNum: "2.1", Nodes: []Node{
			{ID: "app_b", Label: "B", Type: CircuitApplication, Keywords: []string{"k3"}},
			{ID: "bc_b", Label: "FB", Type: BasicConcept, Keywords: []string{"k4"}},
		}},
	}
	conns := []Connection{
		{SourceID: "app_a", TargetID: "app_b", Type: "dependency", Strength: 0.8,
			Description: "A drives B", Evidence: "shared supply rail"},
		{SourceID: "app_a", TargetID: "ghost", Type: "dependency", Strength: 0.9},
	}

	g := newTestFuser().Fuse("T", MainGraph{}, frags, conns)

	e, ok := findEdge(g.Edges, "app_a", "app_b", "dependency")
	if !ok {
		t.Fatal("expected connection edge")
	}
	if e.Kind != KindInterSection {
		t.Errorf("expected kind %q, got %q", KindInterSection, e.Kind)
	}
	if e.Weight != 0.8 {
		t.Errorf("expected weight 0.8, got %v", e.Weight)
	}
	if _, ok := findEdge(g.Edges, "app_a", "ghost", "dependency"); ok {
		t.Error("expected dangling connection edge to be dropped")
	}
	if g.Statistics.CrossSectionEdges != 1 {
		t.Errorf("expected 1 cross-section edge in stats, got %d", g.Statistics.CrossSectionEdges)
	}
}

func TestFuse_StatisticsCountTiers(t *testing.T) {
	main := MainGraph{Nodes: []Node{{ID: "m1", Label: "M", SectionNum: "1"}}}
	frag := Fragment{
		SectionNum: "1.1",
		Nodes: []Node{
			{ID: "bc", Label: "C", Type: BasicConcept},
			{ID: "ct", Label: "T", Type: CoreTechnology},
			{ID: "ca", Label: "A", Type: CircuitApplication},
		},
	}

	g := newTestFuser().Fuse("T", main, []Fragment{frag}, nil)

	st := g.Statistics
	if st.TotalNodes != 4 {
		t.Errorf("expected 4 total nodes, got %d", st.TotalNodes)
	}
	if st.MainLogicNodes != 1 || st.BasicConceptNodes != 1 ||
		st.CoreTechnologyNodes != 1 || st.CircuitApplicationNodes != 1 {
		t.Errorf("unexpected tier counts: %+v", st)
	}
	if st.TotalEdges != len(g.Edges) {
		t.Errorf("expected TotalEdges=%d, got %d", len(g.Edges), st.TotalEdges)
	}
}

func TestFuse_DeterministicAcrossInputOrder(t *testing.T) {
	frags := []Fragment{
		{SectionNum: "1.1", Nodes: []Node{
			{ID: "a1", Label: "A1", Type: CircuitApplication, Keywords: []string{"x", "y"}},
			{ID: "b1", Label: "B1", Type: BasicConcept, Keywords: []string{"x", "y"}},
		}},
		{SectionNum: "2.1", Nodes: []Node{
			{ID: "a2", Label: "A2", Type: CircuitApplication, Keywords: []string{"x", "y"}},
			{ID: "b2", Label: "B2", Type: BasicConcept, Keywords: []string{"q"}},
		}},
	}
	conns := []Connection{
		{SourceID: "a1", TargetID: "a2", Type: "dependency", Strength: 0.7},
		{SourceID: "a2", TargetID: "a1", Type: "design_similarity", Strength: 0.5},
	}

	fuser := newTestFuser()
	g1 := fuser.Fuse("T", MainGraph{}, frags, conns)

	reversedFrags := []Fragment{frags[1], frags[0]}
	reversedConns := []Connection{conns[1], conns[0]}
	g2 := fuser.Fuse("T", MainGraph{}, reversedFrags, reversedConns)

	if !reflect.DeepEqual(g1, g2) {
		t.Error("expected identical output regardless of input order")
	}
}

func TestDedup_Idempotent(t *testing.T) {
	nodes := []Node{
		{ID: "a", Label: "First A", Type: BasicConcept},
		{ID: "b", Label: "B", Type: CoreTechnology},
		{ID: "a", Label: "Second A", Type: CircuitApplication},
		{ID: "c", Label: "C", Type: BasicConcept},
		{ID: "b", Label: "Another B", Type: BasicConcept},
	}
	edges := []Edge{
		{SourceID: "a", TargetID: "b", Relationship: "enables", Weight: 0.7},
		{SourceID: "a", TargetID: "b", Relationship: "enables", Weight: 0.2},
		{SourceID: "a", TargetID: "b", Relationship: "supports", Weight: 0.6},
		{SourceID: "b", TargetID: "c", Relationship: "implements", Weight: 0.8},
	}

	once := dedupNodes(nodes)
	twice := dedupNodes(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("expected node dedup to be idempotent, got %v then %v", once, twice)
	}
	if len(once) != 3 || once[0].Label != "First A" {
		t.Errorf("expected 3 nodes with first occurrences kept, got %v", once)
	}

	onceE := dedupEdges(edges)
	twiceE := dedupEdges(onceE)
	if !reflect.DeepEqual(onceE, twiceE) {
		t.Errorf("expected edge dedup to be idempotent, got %v then %v", onceE, twiceE)
	}
	if len(onceE) != 3 || onceE[0].Weight != 0.7 {
		t.Errorf("expected 3 edges with first occurrences kept, got %v", onceE)
	}
}
