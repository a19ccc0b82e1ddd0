package connect

import (
	"fmt"
	"strings"
)

const connectSystemPrompt = "You are a professional circuit design expert. Carefully " +
	"analyze the technical connection between two circuit-application nodes, and report " +
	"a connection only when a real technical relationship exists."

func buildConnectPrompt(a, b AppNode) string {
	return fmt.Sprintf(`You are a circuit design expert. Analyze whether the following two circuit-application nodes have a technical connection.

## Node 1
- **ID**: %s
- **Name**: %s
- **Section**: %s - %s
- **Description**: %s
- **Keywords**: %s
- **Applications**: %s

## Node 2
- **ID**: %s
- **Name**: %s
- **Section**: %s - %s
- **Description**: %s
- **Keywords**: %s
- **Applications**: %s

## Analysis
Decide whether the two applications are connected in any of these ways:

1. **dependency**: one application depends on the other's technology
2. **functional_composition**: the two can combine into a more complex system
3. **performance_complementarity**: the two complement each other's performance
4. **design_similarity**: the two use similar design methods
5. **scenario_overlap**: the two are interchangeable or combinable in some scenarios

## Output
Reply strictly in this JSON format:

`+"```json"+`
{
  "has_connection": true,
  "connection_type": "dependency | functional_composition | performance_complementarity | design_similarity | scenario_overlap",
  "connection_strength": 0.8,
  "description": "describe the connection",
  "technical_evidence": "technical evidence supporting the connection"
}
`+"```"+`

Requirements:
1. Report has_connection: true only when a real technical connection exists.
2. connection_strength is between 0 and 1.
3. Provide concrete technical evidence.
4. If there is no connection, replying has_connection: false is enough.

Begin the analysis:`,
		a.ID, a.Label, a.SectionNum, a.SectionTitle, a.Summary,
		strings.Join(a.Keywords, ", "), strings.Join(a.Applications, ", "),
		b.ID, b.Label, b.SectionNum, b.SectionTitle, b.Summary,
		strings.Join(b.Keywords, ", "), strings.Join(b.Applications, ", "))
}
