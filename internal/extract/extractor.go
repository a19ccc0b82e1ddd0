// Package extract turns a document section into a three-tier knowledge
// fragment of basic concepts, core technologies, and circuit
// applications.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/calkg/calkg/internal/graph"
	"github.com/calkg/calkg/internal/llm"
	"github.com/calkg/calkg/internal/splitter"
)

// Config tunes the extractor.
type Config struct {
	// MaxExcerpt caps the section text sent to the model.
	MaxExcerpt int
}

func DefaultConfig() Config {
	return Config{MaxExcerpt: 16000}
}

// Extractor performs per-section knowledge extraction via the model,
// degrading to rule-based extraction when the reply cannot be parsed.
type Extractor struct {
	client   llm.Client
	fallback *RuleExtractor
	cfg      Config
	log      *slog.Logger
}

func New(client llm.Client, fallback *RuleExtractor, cfg Config, log *slog.Logger) *Extractor {
	if cfg.MaxExcerpt <= 0 {
		cfg.MaxExcerpt = 16000
	}
	return &Extractor{client: client, fallback: fallback, cfg: cfg, log: log}
}

type analysisNode struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Summary      string   `json:"summary"`
	Difficulty   int      `json:"difficulty"`
	Keywords     []string `json:"keywords"`
	Formulas     []string `json:"formulas"`
	Applications []string `json:"applications"`
}

type analysisEdge struct {
	SourceID      string  `json:"source_id"`
	TargetID      string  `json:"target_id"`
	Relationship  string  `json:"relationship"`
	Description   string  `json:"description"`
	Weight        float64 `json:"weight"`
	Evidence      string  `json:"evidence"`
	Bidirectional bool    `json:"bidirectional"`
}

type analysisResponse struct {
	BasicConcepts       []analysisNode `json:"basic_concepts"`
	CoreTechnologies    []analysisNode `json:"core_technologies"`
	CircuitApplications []analysisNode `json:"circuit_applications"`
	Relationships       []analysisEdge `json:"relationships"`
}

// Extract analyzes one section. Model-call failures are returned to the
// caller for retry; unparseable replies fall back to rule-based
// extraction, which may legitimately yield an empty fragment.
func (e *Extractor) Extract(ctx context.Context, sec splitter.Section) (graph.Fragment, error) {
	excerpt := sec.Content
	if len(excerpt) > e.cfg.MaxExcerpt {
		excerpt = excerpt[:e.cfg.MaxExcerpt] + "..."
	}

	reply, err := e.client.Complete(ctx, llm.Request{
		System:    extractSystemPrompt,
		Prompt:    buildExtractPrompt(sec.SectionNum, sec.Title, excerpt),
		MaxTokens: 8000,
	})
	if err != nil {
		return graph.Fragment{}, fmt.Errorf("section %s: %w", sec.SectionNum, err)
	}

	var resp analysisResponse
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &resp); err != nil {
		e.log.Warn("unparseable extraction reply, using rule fallback",
			"section", sec.SectionNum, "error", err)
		return e.fallback.Extract(sec.SectionNum, sec.Title, sec.Content), nil
	}

	frag := buildFragment(sec.SectionNum, sec.Title, resp)
	if len(frag.Nodes) == 0 {
		return graph.Fragment{}, fmt.Errorf("section %s: extraction produced no nodes", sec.SectionNum)
	}
	return frag, nil
}

func buildFragment(sectionNum, title string, resp analysisResponse) graph.Fragment {
	frag := graph.Fragment{
		SectionNum: sectionNum,
		Title:      title,
	}

	appendTier := func(tier []analysisNode, typ graph.NodeType, defaultDifficulty int) {
		for _, n := range tier {
			if n.ID == "" || n.Label == "" {
				continue
			}
			difficulty := n.Difficulty
			if difficulty <= 0 {
				difficulty = defaultDifficulty
			}
			frag.Nodes = append(frag.Nodes, graph.Node{
				ID:           n.ID,
				Label:        n.Label,
				Type:         typ,
				Summary:      n.Summary,
				Difficulty:   difficulty,
				Keywords:     n.Keywords,
				Formulas:     n.Formulas,
				Applications: n.Applications,
				SectionNum:   sectionNum,
				Level:        typ.Level(),
			})
		}
	}
	appendTier(resp.BasicConcepts, graph.BasicConcept, 2)
	appendTier(resp.CoreTechnologies, graph.CoreTechnology, 3)
	appendTier(resp.CircuitApplications, graph.CircuitApplication, 4)

	for _, rel := range resp.Relationships {
		if rel.SourceID == "" || rel.TargetID == "" {
			continue
		}
		relationship := rel.Relationship
		if relationship == "" {
			relationship = "relates_to"
		}
		weight := rel.Weight
		if weight <= 0 {
			weight = 0.5
		}
		frag.Edges = append(frag.Edges, graph.Edge{
			SourceID:      rel.SourceID,
			TargetID:      rel.TargetID,
			Relationship:  relationship,
			Description:   rel.Description,
			Weight:        weight,
			Evidence:      rel.Evidence,
			Bidirectional: rel.Bidirectional,
		})
	}
	return frag
}
