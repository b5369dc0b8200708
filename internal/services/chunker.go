package services

import (
	"strings"
	"unicode/utf8"

	"github.com/draftloop/draftloop-backend/internal/apperr"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// sentenceEnders is checked in preference order when trimming a chunk back
// to a sentence boundary.
var sentenceEnders = []string{". ", ".\n", "! ", "!\n", "? ", "?\n"}

// alignRuneStart backs i up to the start of the rune it points into, so a
// byte-offset cut never splits a multibyte character. i must be < len(s).
func alignRuneStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// ChunkText splits text into overlapping segments of at most chunkSize
// characters, preferring to end each segment just after a sentence boundary
// found past the window's midpoint. Adjacent chunks overlap by chunkOverlap
// characters. chunkOverlap must be smaller than chunkSize or the window could
// stop advancing.
func ChunkText(text string, chunkSize, chunkOverlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, apperr.Validation("invalid_chunk_config", "chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, apperr.Validation("invalid_chunk_config", "chunk overlap must be in [0, chunk size), got overlap=%d size=%d", chunkOverlap, chunkSize)
	}

	if len(text) <= chunkSize {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + chunkSize
		sliceEnd := end
		if sliceEnd > len(text) {
			sliceEnd = len(text)
		} else {
			sliceEnd = alignRuneStart(text, sliceEnd)
		}
		chunk := text[start:sliceEnd]

		if end < len(text) {
			for _, punct := range sentenceEnders {
				last := strings.LastIndex(chunk, punct)
				// Only trim when the boundary sits past the midpoint, so an
				// early sentence end cannot produce a tiny chunk.
				if last > chunkSize/2 {
					chunk = chunk[:last+len(punct)]
					end = start + len(chunk)
					break
				}
			}
		}

		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		next := end - chunkOverlap
		if next <= start {
			// Boundary trimming can eat more than the overlap; force forward
			// progress so the loop always terminates.
			next = start + (chunkSize - chunkOverlap)
		}
		if next < len(text) {
			next = alignRuneStart(text, next)
			if next <= start {
				_, width := utf8.DecodeRuneInString(text[start:])
				next = start + width
			}
		}
		start = next
	}

	return chunks, nil
}
