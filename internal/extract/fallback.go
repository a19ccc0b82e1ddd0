package extract

import (
	"fmt"
	"strings"

	"github.com/calkg/calkg/internal/graph"
)

// Classifier assigns a node type to a paragraph of section text.
type Classifier interface {
	Classify(text string) graph.NodeType
}

// KeywordClassifier scores a paragraph against per-tier vocabularies
// and picks the tier with the most hits, defaulting to basic_concept.
type KeywordClassifier struct {
	vocab map[graph.NodeType][]string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		vocab: map[graph.NodeType][]string{
			graph.BasicConcept: {
				"definition", "principle", "law", "formula", "concept",
				"theory", "fundamental", "parameter",
			},
			graph.CoreTechnology: {
				"method", "technique", "algorithm", "analysis", "design",
				"implementation", "procedure", "optimization", "simulation",
			},
			graph.CircuitApplication: {
				"circuit", "amplifier", "filter", "oscillator", "comparator",
				"switch", "converter", "application", "example", "topology",
			},
		},
	}
}

func (c *KeywordClassifier) Classify(text string) graph.NodeType {
	lower := strings.ToLower(text)
	best := graph.BasicConcept
	bestScore := 0
	for _, typ := range []graph.NodeType{graph.BasicConcept, graph.CoreTechnology, graph.CircuitApplication} {
		score := 0
		for _, kw := range c.vocab[typ] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = typ
			bestScore = score
		}
	}
	return best
}

// RuleExtractor is the degraded extraction path: paragraphs become
// nodes classified by keyword, with no edges. An empty fragment is a
// legitimate outcome for sparse sections.
type RuleExtractor struct {
	classifier    Classifier
	minParagraph  int
	maxParagraphs int
}

func NewRuleExtractor(classifier Classifier) *RuleExtractor {
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	return &RuleExtractor{
		classifier:    classifier,
		minParagraph:  50,
		maxParagraphs: 10,
	}
}

func (r *RuleExtractor) Extract(sectionNum, title, content string) graph.Fragment {
	frag := graph.Fragment{
		SectionNum: sectionNum,
		Title:      title,
	}

	paragraphs := splitParagraphs(content)
	nodeID := 1
	for i, para := range paragraphs {
		if i >= r.maxParagraphs {
			break
		}
		if len(para) < r.minParagraph {
			continue
		}

		typ := r.classifier.Classify(para)
		frag.Nodes = append(frag.Nodes, graph.Node{
			ID:         fmt.Sprintf("%s_%s_%d", sectionNum, typ, nodeID),
			Label:      firstSentence(para),
			Type:       typ,
			Summary:    clip(para, 300),
			Difficulty: 3,
			SectionNum: sectionNum,
			Level:      typ.Level(),
		})
		nodeID++
	}
	return frag
}

func splitParagraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstSentence(para string) string {
	sentence := para
	if i := strings.IndexAny(para, ".!?"); i >= 0 {
		sentence = para[:i]
	}
	return clip(sentence, 50)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
