// Package chunker splits document text into overlapping, boundary-aware
// segments for embedding and vector storage.
package chunker

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 500
	// DefaultOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultOverlap = 50

	// boundarySearchWindow is how far back from the window end we look
	// for a sentence terminator before falling back to a word boundary.
	boundarySearchWindow = 100
)

// Split breaks text into ordered, overlapping chunks. Whitespace runs are
// collapsed to single spaces before any offsets are computed. Chunks are cut
// at sentence boundaries when one appears near the window end, at the last
// word boundary otherwise, and at the raw window size as a final fallback.
// A boundary cut that would keep the next window from advancing is discarded
// in favor of the raw cut, so Split terminates for any overlap smaller than
// chunkSize. An empty or all-whitespace input yields no chunks.
//
// chunkSize must be greater than overlap; overlap must be non-negative.
// Values outside that range fall back to the defaults.
func Split(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		chunkSize = DefaultChunkSize
		overlap = DefaultOverlap
	}

	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	if len(normalized) <= chunkSize {
		return []string{normalized}
	}

	var chunks []string
	start := 0

	for start < len(normalized) {
		end := start + chunkSize

		// Try to break at a sentence or word boundary
		if end < len(normalized) {
			searchStart := start + chunkSize - boundarySearchWindow
			if searchStart < start {
				searchStart = start
			}

			if sentenceEnd := strings.LastIndex(normalized[searchStart:end], ". "); sentenceEnd != -1 {
				// Cut immediately after the period
				end = searchStart + sentenceEnd + 1
			} else if spaceIndex := strings.LastIndex(normalized[:end+1], " "); spaceIndex > start {
				end = spaceIndex
			}
			// Otherwise keep the raw chunkSize cut to guarantee progress.

			// A boundary cut at or before start+overlap would stall the
			// advance; re-cut at the raw window size instead.
			if end-overlap <= start {
				end = start + chunkSize
			}
		}

		sliceEnd := end
		if sliceEnd > len(normalized) {
			sliceEnd = len(normalized)
		}
		if chunk := strings.TrimSpace(normalized[start:sliceEnd]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// The advance uses the uncapped end so the final window steps past
		// the end of the text instead of re-emitting its tail.
		start = end - overlap
	}

	return chunks
}

// Normalize collapses all runs of whitespace (including newlines and tabs)
// into single spaces and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
