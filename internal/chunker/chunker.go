// Package chunker splits raw regulatory text into overlapping, sentence-aware
// segments bounded by a target size. Chunks are the unit of embedding and
// retrieval: a sentence-terminal cut keeps a legal provision intact where a
// boundary exists near the window end, and the overlap preserves context
// across adjacent chunks.
package chunker

import "strings"

const (
	// DefaultSize is the default maximum chunk length in characters.
	DefaultSize = 1000

	// DefaultOverlap is the default number of trailing characters repeated
	// at the start of the next chunk.
	DefaultOverlap = 200

	// boundaryFraction: a sentence boundary only qualifies as a cut point
	// when it lies at or after this fraction of the window, so a period early
	// in the window never produces a degenerate short chunk.
	boundaryNumerator   = 7
	boundaryDenominator = 10
)

// Split divides text into overlapping chunks of at most size characters.
//
//   - Empty or whitespace-only input yields nil.
//   - Input no longer than size yields exactly one chunk: the trimmed input.
//   - Otherwise each window of up to size characters is cut at the nearest
//     sentence-terminal period or newline found at or after 70% of the
//     window; with no qualifying boundary the window is cut at size, unless
//     the window contains no space, period, or newline at all — then the
//     full remainder is taken as one chunk.
//   - Each chunk is trimmed and discarded only if empty after trimming.
//   - The next window starts at max(cut-overlap, start+1), which guarantees
//     forward progress even for pathological parameters.
//
// An overlap ≥ size is clamped to size/10 — the permissive behavior would
// only produce near-duplicate chunks. A single unbroken token longer than
// size is returned whole: chunking never splits mid-word when no boundary
// exists, so an unbreakable run cannot loop forever.
func Split(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 10
	}
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			end = len(text)
		} else {
			// The tentative end falls strictly inside the text: search
			// backward for the nearest sentence boundary in the window.
			boundary := lastBoundary(text, start, end)
			switch {
			case boundary >= start+size*boundaryNumerator/boundaryDenominator:
				end = boundary + 1 // cut inclusive of the period/newline
			case !strings.ContainsAny(text[start:end], " \t\n."):
				// An unbreakable run spanning the whole window is never
				// split mid-token: take the full remainder as one chunk.
				end = len(text)
			}
		}

		if piece := strings.TrimSpace(text[start:end]); piece != "" {
			chunks = append(chunks, piece)
		}
		if end >= len(text) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// lastBoundary returns the index of the last sentence-terminal period or
// newline in text[start:end], or -1 when the window contains none.
func lastBoundary(text string, start, end int) int {
	for i := end - 1; i > start; i-- {
		if text[i] == '.' || text[i] == '\n' {
			return i
		}
	}
	return -1
}
