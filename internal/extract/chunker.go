package extract

import "strings"

// ChunkConfig defines chunking parameters, both measured in words.
type ChunkConfig struct {
	// Size is the number of words per chunk window.
	Size int
	// Overlap is the number of words each window shares with its
	// predecessor, so a phrase split at a boundary still appears intact
	// in at least one chunk.
	Overlap int
}

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    250,
		Overlap: 40,
	}
}

// Chunk splits text into overlapping word windows. Each window after the
// first starts Overlap words before the previous window's end. Empty or
// whitespace-only input yields no chunks.
func Chunk(text string, config ChunkConfig) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	size := config.Size
	if size < 1 {
		size = 1
	}
	overlap := config.Overlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	if len(words) <= size {
		return []string{strings.Join(words, " ")}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}
