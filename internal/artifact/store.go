// Package artifact persists intermediate pipeline outputs as JSON
// files, one subdirectory per stage, so runs can be inspected and
// individual stages re-run from the CLI.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/calkg/calkg/internal/graph"
	"github.com/calkg/calkg/internal/splitter"
)

const (
	dirSections    = "sections"
	dirFragments   = "fragments"
	dirConnections = "connections"
	dirGraphs      = "graphs"
)

// Store reads and writes stage artifacts under a base directory.
type Store struct {
	base string
}

func NewStore(base string) (*Store, error) {
	for _, sub := range []string{dirSections, dirFragments, dirConnections, dirGraphs} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create artifact dir: %w", err)
		}
	}
	return &Store{base: base}, nil
}

func (s *Store) writeJSON(sub, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.base, sub, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *Store) readJSON(sub, name string, v any) error {
	path := filepath.Join(s.base, sub, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// SaveSections writes the split result plus a per-section file each.
func (s *Store) SaveSections(set *splitter.SectionSet) error {
	if err := s.writeJSON(dirSections, "document_sections.json", set); err != nil {
		return err
	}
	for _, sec := range set.Sections {
		name := fmt.Sprintf("section_%s.json", safeName(sec.SectionNum))
		if err := s.writeJSON(dirSections, name, sec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) LoadSections() (*splitter.SectionSet, error) {
	var set splitter.SectionSet
	if err := s.readJSON(dirSections, "document_sections.json", &set); err != nil {
		return nil, err
	}
	return &set, nil
}

type fragmentSummary struct {
	Timestamp      string           `json:"timestamp"`
	TotalFragments int              `json:"total_fragments"`
	TotalNodes     int              `json:"total_nodes"`
	TotalEdges     int              `json:"total_edges"`
	FailedSections []string         `json:"failed_sections"`
	Fragments      []graph.Fragment `json:"fragments"`
}

// SaveFragments writes the per-section extraction results along with
// the list of sections whose extraction exhausted its retries.
func (s *Store) SaveFragments(fragments []graph.Fragment, failedSections []string) error {
	totalNodes, totalEdges := 0, 0
	for _, f := range fragments {
		totalNodes += len(f.Nodes)
		totalEdges += len(f.Edges)
	}
	summary := fragmentSummary{
		Timestamp:      time.Now().Format(time.RFC3339),
		TotalFragments: len(fragments),
		TotalNodes:     totalNodes,
		TotalEdges:     totalEdges,
		FailedSections: failedSections,
		Fragments:      fragments,
	}
	if err := s.writeJSON(dirFragments, "fragments_summary.json", summary); err != nil {
		return err
	}
	for _, f := range fragments {
		name := fmt.Sprintf("fragment_%s.json", safeName(f.SectionNum))
		if err := s.writeJSON(dirFragments, name, f); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) LoadFragments() ([]graph.Fragment, error) {
	var summary fragmentSummary
	if err := s.readJSON(dirFragments, "fragments_summary.json", &summary); err != nil {
		return nil, err
	}
	return summary.Fragments, nil
}

type connectionSummary struct {
	Timestamp        string             `json:"timestamp"`
	TotalConnections int                `json:"total_connections"`
	ConnectionTypes  map[string]int     `json:"connection_types"`
	FailedPairs      []string           `json:"failed_pairs"`
	Connections      []graph.Connection `json:"connections"`
}

// SaveConnections writes verified connections plus a type distribution
// and the pairs whose analysis failed outright.
func (s *Store) SaveConnections(conns []graph.Connection, failedPairs []string) error {
	types := make(map[string]int)
	for _, c := range conns {
		types[c.Type]++
	}
	return s.writeJSON(dirConnections, "cross_section_connections.json", connectionSummary{
		Timestamp:        time.Now().Format(time.RFC3339),
		TotalConnections: len(conns),
		ConnectionTypes:  types,
		FailedPairs:      failedPairs,
		Connections:      conns,
	})
}

func (s *Store) LoadConnections() ([]graph.Connection, error) {
	var summary connectionSummary
	if err := s.readJSON(dirConnections, "cross_section_connections.json", &summary); err != nil {
		return nil, err
	}
	return summary.Connections, nil
}

// SaveMainGraph writes the chapter-level graph.
func (s *Store) SaveMainGraph(main graph.MainGraph) error {
	return s.writeJSON(dirGraphs, "main_logic.json", main)
}

func (s *Store) LoadMainGraph() (graph.MainGraph, error) {
	var main graph.MainGraph
	if err := s.readJSON(dirGraphs, "main_logic.json", &main); err != nil {
		return graph.MainGraph{}, err
	}
	return main, nil
}

// SaveUnifiedGraph writes the fusion output.
func (s *Store) SaveUnifiedGraph(g *graph.UnifiedGraph) error {
	return s.writeJSON(dirGraphs, "unified_graph.json", g)
}

func (s *Store) LoadUnifiedGraph() (*graph.UnifiedGraph, error) {
	var g graph.UnifiedGraph
	if err := s.readJSON(dirGraphs, "unified_graph.json", &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// safeName makes a section number usable as a file name.
func safeName(sectionNum string) string {
	return strings.ReplaceAll(sectionNum, ".", "_")
}
