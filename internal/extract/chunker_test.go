package extract

import (
	"fmt"
	"strings"
	"testing"
)

// words generates "w1 w2 ... wn" for building inputs of a known length.
func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i+1)
	}
	return strings.Join(parts, " ")
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		config   ChunkConfig
		wantLen  int
		wantZero bool
	}{
		{
			name:     "empty input",
			text:     "",
			config:   DefaultChunkConfig(),
			wantZero: true,
		},
		{
			name:     "whitespace only",
			text:     "   \n\t  ",
			config:   DefaultChunkConfig(),
			wantZero: true,
		},
		{
			name:    "shorter than one window",
			text:    words(10),
			config:  ChunkConfig{Size: 250, Overlap: 40},
			wantLen: 1,
		},
		{
			name:    "exactly one window",
			text:    words(250),
			config:  ChunkConfig{Size: 250, Overlap: 40},
			wantLen: 1,
		},
		{
			// 300 words, step 210: windows at 0 and 210
			name:    "two windows",
			text:    words(300),
			config:  ChunkConfig{Size: 250, Overlap: 40},
			wantLen: 2,
		},
		{
			// overlap >= size is clamped to size-1, step 1
			name:    "degenerate overlap",
			text:    words(5),
			config:  ChunkConfig{Size: 3, Overlap: 10},
			wantLen: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Chunk(tt.text, tt.config)

			if tt.wantZero {
				if len(chunks) != 0 {
					t.Errorf("Chunk() got %d chunks, want 0", len(chunks))
				}
				return
			}
			if len(chunks) != tt.wantLen {
				t.Errorf("Chunk() got %d chunks, want %d", len(chunks), tt.wantLen)
			}
			for i, c := range chunks {
				if strings.TrimSpace(c) == "" {
					t.Errorf("chunk[%d] is empty", i)
				}
			}
		})
	}
}

func TestChunk_OverlapProperty(t *testing.T) {
	cfg := ChunkConfig{Size: 10, Overlap: 3}
	chunks := Chunk(words(25), cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Each window after the first starts Overlap words before the
	// previous window's end.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])

		tail := prev[len(prev)-cfg.Overlap:]
		head := cur[:cfg.Overlap]
		for j := range tail {
			if tail[j] != head[j] {
				t.Fatalf("chunk %d does not overlap its predecessor: tail=%v head=%v", i, tail, head)
			}
		}
	}
}

func TestChunk_CoversAllWords(t *testing.T) {
	input := words(103)
	chunks := Chunk(input, ChunkConfig{Size: 10, Overlap: 3})

	var rebuilt []string
	for i, c := range chunks {
		w := strings.Fields(c)
		if i > 0 {
			w = w[3:] // drop the overlapped head
		}
		rebuilt = append(rebuilt, w...)
	}
	if got, want := strings.Join(rebuilt, " "), input; got != want {
		t.Errorf("chunks do not cover the input exactly")
	}
}
