package extract

import (
	"fmt"
	"regexp"
)

const extractSystemPrompt = "You are a senior circuit design expert and knowledge " +
	"engineer. You excel at extracting structured three-tier knowledge graphs from " +
	"technical documents, accurately identifying the hierarchy of knowledge and the " +
	"relationships between items. Analyze thoroughly and make sure the extracted " +
	"knowledge is accurate, complete, and useful."

var nonWordRe = regexp.MustCompile(`\W`)

// sanitizeSectionNum makes a section number safe for use inside node ids.
func sanitizeSectionNum(sectionNum string) string {
	return nonWordRe.ReplaceAllString(sectionNum, "_")
}

func buildExtractPrompt(sectionNum, title, content string) string {
	safe := sanitizeSectionNum(sectionNum)

	return fmt.Sprintf(`You are a senior circuit design expert and knowledge engineer. Use step-by-step reasoning to extract a three-tier knowledge graph from the following circuit-technology section.

## Section
- **Section number**: %s
- **Title**: %s
- **Content**: %s

## Task
Work through the following steps:

### Step 1: Content comprehension
Read the section carefully and understand its main technical themes and knowledge structure.

### Step 2: Tiered knowledge extraction
Extract knowledge nodes in three tiers:

**1. Basic Concepts**
- Extract: fundamental definitions, principles, laws, formulas, parameters
- Character: theoretical, the foundation the other tiers build on
- Requirement: each concept needs a clear definition and explanation

**2. Core Technologies**
- Extract: implementation methods, design techniques, analysis methods, algorithms
- Character: methodological, connecting theory to application
- Requirement: each technology needs concrete implementation steps

**3. Circuit Applications**
- Extract: concrete circuits, design examples, application scenarios
- Character: practical, oriented toward specific applications
- Requirement: each application needs a concrete circuit structure

### Step 3: Relationship identification
Identify these relationship types:

**Between tiers**:
- enables: a basic concept enables a core technology
- supports: a basic concept supports a core technology
- implements: a core technology implements a circuit application
- applies_to: a core technology applies to a circuit application

**Within a tier**:
- depends_on, relates_to, complements, extends

### Step 4: Graph construction
Build the structured knowledge graph from the analysis above.

Reply strictly in this JSON format:

`+"```json"+`
{
  "basic_concepts": [
    {
      "id": "bc_%s_1",
      "label": "concept name",
      "summary": "detailed description covering definition, principle, characteristics",
      "difficulty": 2,
      "keywords": ["keyword1", "keyword2"],
      "formulas": ["related formula"],
      "applications": ["application scenario"]
    }
  ],
  "core_technologies": [
    {
      "id": "ct_%s_1",
      "label": "technology name",
      "summary": "detailed description covering method, steps, advantages",
      "difficulty": 3,
      "keywords": ["keyword1", "keyword2"],
      "formulas": ["related formula"],
      "applications": ["technology application"]
    }
  ],
  "circuit_applications": [
    {
      "id": "ca_%s_1",
      "label": "application name",
      "summary": "detailed description covering circuit structure, function, characteristics",
      "difficulty": 4,
      "keywords": ["keyword1", "keyword2"],
      "formulas": ["design formula"],
      "applications": ["concrete scenario"]
    }
  ],
  "relationships": [
    {
      "source_id": "bc_%s_1",
      "target_id": "ct_%s_1",
      "relationship": "enables",
      "description": "describe the relationship",
      "weight": 0.8,
      "evidence": "text evidence supporting the relationship",
      "bidirectional": false
    }
  ]
}
`+"```"+`

Requirements:
1. No limit on the number of nodes per tier.
2. Every summary must be detailed and accurate.
3. Relationships must really exist in the text; never invent them.
4. Fill in every field; none may be empty.
5. The JSON must be strictly valid.

Begin the analysis:`, sectionNum, title, content, safe, safe, safe, safe, safe)
}
