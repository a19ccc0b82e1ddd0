package mainlogic

import (
	"encoding/json"
	"fmt"
)

const mainSystemPrompt = "You are a senior circuit-design educator and knowledge-graph " +
	"construction expert. Carefully analyze the logical relationships between sections " +
	"and build a sound learning structure."

func buildMainPrompt(summaries []sectionSummary) string {
	summaryJSON, _ := json.MarshalIndent(summaries, "", "  ")

	return fmt.Sprintf(`You are a senior circuit-design educator and knowledge-graph expert. Use step-by-step reasoning to analyze the following circuit-technology sections and build the chapter-level logic graph.

## Step 1: Section comprehension
Analyze the core content of each section:

Sections:
%s

Think through:
1. What is each section's main technical theme?
2. How difficult is each section?
3. What prior knowledge does each section require?

## Step 2: Dependency identification
Analyze the logical dependencies between sections using these relationship types:
- **depends_on**: A must be learned before B can be understood
- **builds_on**: B is an advanced extension of A
- **applies_to**: techniques from A are applied in B
- **complements**: A and B complement each other
- **parallel_to**: A and B can be learned in parallel
- **cross_references**: A and B share some concepts

## Step 3: Graph construction
Build the structured chapter-level graph from the analysis.

Reply strictly in this JSON format:

`+"```json"+`
{
  "main_knowledge_points": [
    {
      "id": "main_1",
      "section_num": "section number",
      "label": "section title",
      "summary": "overview of the section's core content",
      "difficulty": 3,
      "key_concepts": ["core concept 1", "core concept 2"],
      "prerequisites": ["required prior knowledge"]
    }
  ],
  "section_relationships": [
    {
      "source_id": "main_1",
      "target_id": "main_2",
      "relationship": "depends_on",
      "description": "describe the dependency",
      "weight": 0.8
    }
  ]
}
`+"```"+`

Requirements:
1. Cover every section.
2. Relationships must follow from the actual technical logic.
3. The JSON must be strictly valid.

Begin the analysis:`, summaryJSON)
}
