// Package mainlogic builds the chapter-level graph: one node per
// section plus the logical dependencies between sections.
package mainlogic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/calkg/calkg/internal/graph"
	"github.com/calkg/calkg/internal/llm"
	"github.com/calkg/calkg/internal/splitter"
)

const previewLen = 800

// Generator produces the main-logic graph from section summaries in a
// single model call.
type Generator struct {
	client     llm.Client
	maxRetries int
	retryDelay time.Duration
	log        *slog.Logger
}

func New(client llm.Client, log *slog.Logger) *Generator {
	return &Generator{
		client:     client,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
		log:        log,
	}
}

type sectionSummary struct {
	SectionNum     string `json:"section_num"`
	Title          string `json:"title"`
	ContentPreview string `json:"content_preview"`
	ContentLength  int    `json:"content_length"`
}

type mainPoint struct {
	ID            string   `json:"id"`
	SectionNum    string   `json:"section_num"`
	Label         string   `json:"label"`
	Summary       string   `json:"summary"`
	Difficulty    int      `json:"difficulty"`
	KeyConcepts   []string `json:"key_concepts"`
	Prerequisites []string `json:"prerequisites"`
}

type sectionRelationship struct {
	SourceID     string  `json:"source_id"`
	TargetID     string  `json:"target_id"`
	Relationship string  `json:"relationship"`
	Description  string  `json:"description"`
	Weight       float64 `json:"weight"`
}

type mainAnalysis struct {
	MainKnowledgePoints  []mainPoint           `json:"main_knowledge_points"`
	SectionRelationships []sectionRelationship `json:"section_relationships"`
}

// Generate analyzes inter-section structure. The whole document is
// summarized in one call, retried a few times on any failure.
func (g *Generator) Generate(ctx context.Context, set *splitter.SectionSet) (graph.MainGraph, error) {
	summaries := make([]sectionSummary, 0, len(set.Sections))
	for _, sec := range set.Sections {
		preview := sec.Content
		if len(preview) > previewLen {
			preview = preview[:previewLen] + "..."
		}
		summaries = append(summaries, sectionSummary{
			SectionNum:     sec.SectionNum,
			Title:          sec.Title,
			ContentPreview: preview,
			ContentLength:  len(sec.Content),
		})
	}

	var analysis mainAnalysis
	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		analysis, lastErr = g.analyze(ctx, summaries)
		if lastErr == nil {
			break
		}
		g.log.Warn("main-logic analysis attempt failed", "attempt", attempt, "error", lastErr)
		if attempt == g.maxRetries {
			break
		}
		select {
		case <-time.After(g.retryDelay):
		case <-ctx.Done():
			return graph.MainGraph{}, ctx.Err()
		}
	}
	if lastErr != nil {
		return graph.MainGraph{}, fmt.Errorf("main-logic analysis: %w", lastErr)
	}

	main := graph.MainGraph{}
	for _, p := range analysis.MainKnowledgePoints {
		if p.ID == "" {
			continue
		}
		main.Nodes = append(main.Nodes, graph.Node{
			ID:            p.ID,
			Label:         p.Label,
			Type:          graph.MainLogic,
			Summary:       p.Summary,
			Difficulty:    p.Difficulty,
			Keywords:      p.KeyConcepts,
			SectionNum:    p.SectionNum,
			Level:         graph.MainLogic.Level(),
			Prerequisites: p.Prerequisites,
		})
	}
	for _, r := range analysis.SectionRelationships {
		if r.SourceID == "" || r.TargetID == "" {
			continue
		}
		weight := r.Weight
		if weight <= 0 {
			weight = 0.5
		}
		main.Edges = append(main.Edges, graph.Edge{
			SourceID:     r.SourceID,
			TargetID:     r.TargetID,
			Relationship: r.Relationship,
			Description:  r.Description,
			Weight:       weight,
		})
	}

	g.log.Info("main-logic graph built", "nodes", len(main.Nodes), "edges", len(main.Edges))
	return main, nil
}

func (g *Generator) analyze(ctx context.Context, summaries []sectionSummary) (mainAnalysis, error) {
	reply, err := g.client.Complete(ctx, llm.Request{
		System:    mainSystemPrompt,
		Prompt:    buildMainPrompt(summaries),
		MaxTokens: 8000,
	})
	if err != nil {
		return mainAnalysis{}, err
	}

	var analysis mainAnalysis
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &analysis); err != nil {
		return mainAnalysis{}, fmt.Errorf("parse main-logic response: %w", err)
	}
	if len(analysis.MainKnowledgePoints) == 0 {
		return mainAnalysis{}, fmt.Errorf("main-logic analysis produced no knowledge points")
	}
	return analysis, nil
}
