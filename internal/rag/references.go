package rag

import (
	"fmt"
	"strings"

	"github.com/yoockh/careerguide/internal/models"
)

const (
	DefaultContextSeparator = "\n---\n"
	DefaultPreviewLength    = 200
	previewEllipsis         = "..."
)

// LatestEntry returns the last entry of a history ordered oldest first.
func LatestEntry(history []models.ConversationHistory) (models.ConversationHistory, bool) {
	if len(history) == 0 {
		return models.ConversationHistory{}, false
	}
	return history[len(history)-1], true
}

// BuildContext joins retrieved chunks with sep. A non-empty previous context
// is kept in front so later turns accumulate grounding.
func BuildContext(previous string, chunks []string, sep string) string {
	current := strings.Join(chunks, sep)
	if previous == "" {
		return current
	}
	return previous + sep + current
}

// Preview returns the first n characters of s followed by an ellipsis.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + previewEllipsis
}

// BuildReferences numbers chunks from 1 in rank order.
func BuildReferences(chunks []string, previewLen int) []models.Reference {
	refs := make([]models.Reference, len(chunks))
	for i, c := range chunks {
		refs[i] = models.Reference{
			ReferenceNumber: i + 1,
			Preview:         Preview(c, previewLen),
		}
	}
	return refs
}

// DisplayReferences returns the first k references, or all of them when k
// is not positive. It only ever slices the already built list.
func DisplayReferences(refs []models.Reference, k int) []models.Reference {
	if k <= 0 || k >= len(refs) {
		return refs
	}
	return refs[:k]
}

// ReferencesText renders references for the follow-up prompt.
func ReferencesText(refs []models.Reference) string {
	lines := make([]string, len(refs))
	for i, r := range refs {
		lines[i] = fmt.Sprintf("Reference %d: \"%s\"", r.ReferenceNumber, r.Preview)
	}
	return strings.Join(lines, "\n")
}
