// Package connect discovers cross-section links between circuit
// application nodes.
package connect

import (
	"math/rand/v2"

	"github.com/calkg/calkg/internal/graph"
)

// AppNode is a circuit-application node with its section context.
type AppNode struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Summary      string   `json:"summary"`
	Keywords     []string `json:"keywords"`
	Applications []string `json:"applications"`
	SectionNum   string   `json:"section_num"`
	SectionTitle string   `json:"section_title"`
	Difficulty   int      `json:"difficulty"`
}

// Pair is a candidate node pair for connection analysis.
type Pair struct {
	A AppNode
	B AppNode
}

// ID identifies the pair for logging and failure bookkeeping.
func (p Pair) ID() string {
	return p.A.ID + "-" + p.B.ID
}

// CollectApplications pulls circuit-application nodes out of section
// fragments, preserving fragment order.
func CollectApplications(fragments []graph.Fragment) []AppNode {
	var apps []AppNode
	for _, frag := range fragments {
		for _, n := range frag.Nodes {
			if n.Type != graph.CircuitApplication {
				continue
			}
			apps = append(apps, AppNode{
				ID:           n.ID,
				Label:        n.Label,
				Summary:      n.Summary,
				Keywords:     n.Keywords,
				Applications: n.Applications,
				SectionNum:   frag.SectionNum,
				SectionTitle: frag.Title,
				Difficulty:   n.Difficulty,
			})
		}
	}
	return apps
}

// GeneratePairs enumerates all cross-section pairs. Same-section pairs
// are excluded; the intra-section hierarchy already covers them.
func GeneratePairs(apps []AppNode) []Pair {
	var pairs []Pair
	for i := 0; i < len(apps); i++ {
		for j := i + 1; j < len(apps); j++ {
			if apps[i].SectionNum == apps[j].SectionNum {
				continue
			}
			pairs = append(pairs, Pair{A: apps[i], B: apps[j]})
		}
	}
	return pairs
}

// Sampler caps an oversized pair list.
type Sampler interface {
	Sample(pairs []Pair, max int) []Pair
}

// RandomSampler picks a uniform random subset. A fixed seed makes runs
// reproducible.
type RandomSampler struct {
	rng *rand.Rand
}

func NewRandomSampler(seed uint64) *RandomSampler {
	return &RandomSampler{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (s *RandomSampler) Sample(pairs []Pair, max int) []Pair {
	if len(pairs) <= max {
		return pairs
	}
	shuffled := make([]Pair, len(pairs))
	copy(shuffled, pairs)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:max]
}
