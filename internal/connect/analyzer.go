package connect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/calkg/calkg/internal/graph"
	"github.com/calkg/calkg/internal/llm"
)

// Recognized connection types.
var connectionTypes = map[string]bool{
	"dependency":                  true,
	"functional_composition":      true,
	"performance_complementarity": true,
	"design_similarity":           true,
	"scenario_overlap":            true,
}

// Config tunes the analyzer.
type Config struct {
	// MaxPairs caps how many pairs are analyzed; beyond it the sampler
	// picks a subset.
	MaxPairs int
	// MinStrength drops weak connections after analysis.
	MinStrength float64
}

func DefaultConfig() Config {
	return Config{
		MaxPairs:    1000,
		MinStrength: 0.3,
	}
}

// Analyzer asks the model whether two applications are technically
// connected.
type Analyzer struct {
	client  llm.Client
	sampler Sampler
	cfg     Config
	log     *slog.Logger
}

func NewAnalyzer(client llm.Client, sampler Sampler, cfg Config, log *slog.Logger) *Analyzer {
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = 1000
	}
	if cfg.MinStrength <= 0 {
		cfg.MinStrength = 0.3
	}
	if sampler == nil {
		sampler = NewRandomSampler(1)
	}
	return &Analyzer{client: client, sampler: sampler, cfg: cfg, log: log}
}

// SelectPairs enumerates cross-section pairs and samples them down to
// the configured cap.
func (a *Analyzer) SelectPairs(fragments []graph.Fragment) []Pair {
	apps := CollectApplications(fragments)
	pairs := GeneratePairs(apps)
	if len(pairs) > a.cfg.MaxPairs {
		a.log.Warn("too many candidate pairs, sampling",
			"candidates", len(pairs), "max", a.cfg.MaxPairs)
		pairs = a.sampler.Sample(pairs, a.cfg.MaxPairs)
	}
	a.log.Info("selected connection pairs", "applications", len(apps), "pairs", len(pairs))
	return pairs
}

type connectionReply struct {
	HasConnection      bool    `json:"has_connection"`
	ConnectionType     string  `json:"connection_type"`
	ConnectionStrength float64 `json:"connection_strength"`
	Description        string  `json:"description"`
	TechnicalEvidence  string  `json:"technical_evidence"`
}

// AnalyzePair asks the model about one pair. A nil result with nil
// error means no connection was found.
func (a *Analyzer) AnalyzePair(ctx context.Context, p Pair) (*graph.Connection, error) {
	reply, err := a.client.Complete(ctx, llm.Request{
		System:    connectSystemPrompt,
		Prompt:    buildConnectPrompt(p.A, p.B),
		MaxTokens: 2000,
	})
	if err != nil {
		return nil, fmt.Errorf("pair %s: %w", p.ID(), err)
	}

	var resp connectionReply
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &resp); err != nil {
		return nil, fmt.Errorf("pair %s: parse connection response: %w", p.ID(), err)
	}
	if !resp.HasConnection {
		return nil, nil
	}

	return &graph.Connection{
		SourceID:    p.A.ID,
		TargetID:    p.B.ID,
		Type:        resp.ConnectionType,
		Strength:    resp.ConnectionStrength,
		Description: resp.Description,
		Evidence:    resp.TechnicalEvidence,
	}, nil
}

// Validate filters out malformed and weak connections.
func (a *Analyzer) Validate(conns []*graph.Connection) []graph.Connection {
	var valid []graph.Connection
	for _, c := range conns {
		if c == nil {
			continue
		}
		if c.SourceID == "" || c.TargetID == "" {
			continue
		}
		if c.Strength < a.cfg.MinStrength {
			a.log.Debug("dropping weak connection",
				"source", c.SourceID, "target", c.TargetID, "strength", c.Strength)
			continue
		}
		if !connectionTypes[c.Type] {
			a.log.Debug("unrecognized connection type", "type", c.Type)
		}
		valid = append(valid, *c)
	}
	return valid
}

// TypeDistribution counts connections by type, for run reports.
func TypeDistribution(conns []graph.Connection) map[string]int {
	counts := make(map[string]int)
	for _, c := range conns {
		counts[c.Type]++
	}
	return counts
}
