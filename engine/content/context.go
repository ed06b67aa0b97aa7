// Package content turns search results into LLM-ready context text and
// resolves the supporting video clip for a result.
package content

import (
	"fmt"
	"strings"

	"github.com/vidquest/engine/engine/semantic"
)

// NoContentSentinel is returned for an empty result set. It is never an
// empty string: the prompt builder downstream relies on a non-empty,
// LLM-safe context block.
const NoContentSentinel = "No relevant content found."

// BuildContext formats results into the context block the prompt builder
// embeds. The shape is part of the contract: the LLM's citation behaviour
// depends on a consistent numbered layout.
func BuildContext(results []semantic.SearchResult) string {
	if len(results) == 0 {
		return NoContentSentinel
	}

	groups := make([]string, len(results))
	for i, r := range results {
		groups[i] = fmt.Sprintf("%d. %s\n   (Video: %s, Time: %s-%s, Score: %.3f)",
			i+1, r.Text, r.VideoKey, r.Start, r.End, r.Score)
	}
	return strings.Join(groups, "\n\n")
}
