package splitter

import (
	"encoding/json"
	"fmt"

	"github.com/calkg/calkg/internal/llm"
)

const matchSystemPrompt = "You are a document analysis assistant. Carefully analyze " +
	"the correspondence between table-of-contents entries and body headings, " +
	"and reply strictly in JSON."

func buildMatchPrompt(entries []TOCEntry, headings []ContentHeading) string {
	tocJSON, _ := json.MarshalIndent(entries, "", "  ")
	headingJSON, _ := json.MarshalIndent(headings, "", "  ")

	return fmt.Sprintf(`Match the following table-of-contents entries against the body headings.

Table-of-contents entries:
%s

Body headings:
%s

Matching rules:
1. Match each TOC entry to the single most similar body heading.
2. Prefer section-number agreement, then title similarity.
3. Allow formatting differences (e.g. "1.1" vs "## 1.1").
4. Highly similar titles may match even when section numbers differ.
5. Give each match a confidence between 0 and 1; omit matches below 0.5.

Reply in JSON:
{
  "matches": [
    {
      "toc_section_num": "TOC section number",
      "toc_title": "TOC title",
      "content_line_num": body line number,
      "content_section_num": "body section number",
      "content_title": "body title",
      "confidence": 0.95
    }
  ]
}

Return only the JSON, nothing else.`, tocJSON, headingJSON)
}

func parseMatchResponse(reply string) ([]Match, error) {
	var resp matchResponse
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &resp); err != nil {
		return nil, fmt.Errorf("parse match response: %w", err)
	}
	return resp.Matches, nil
}
