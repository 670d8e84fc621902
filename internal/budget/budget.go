// Package budget provides token budget estimation and passage trimming for
// the answer assembler. Because the assembler supports multiple generative
// backends with different tokenizers, this package uses a conservative
// character-based heuristic: 1 token ≈ 4 characters (English prose and legal
// text). This deliberately under-estimates token counts to leave headroom for
// model-specific overhead.
package budget

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English text; using 3 would
	// be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens
	// for the assembled prompt (system instructions + passages + question).
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
// Non-empty strings shorter than one token's worth of characters count as 1.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// TrimPassages returns the longest prefix of passages whose estimated token
// count, added to fixedTokens, fits within maxTokens. Passages are dropped
// from the tail so the highest-ranked matches survive. If even the first
// passage does not fit, an empty slice is returned.
func TrimPassages(passages []string, fixedTokens, maxTokens int) []string {
	total := fixedTokens
	for i, p := range passages {
		// Each passage carries a small framing overhead (reference tag,
		// source line, separators) on top of its text.
		total += 4 + Estimate(p)
		if total > maxTokens {
			return passages[:i]
		}
	}
	return passages
}
