package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashingDimension is the vector size used when none is configured.
const DefaultHashingDimension = 384

// Hashing is a deterministic, dependency-free embedder: a hashed
// bag-of-words with signed buckets, L2-normalized. Texts sharing tokens
// land close in cosine space, which is enough for offline development
// and for exercising the full pipeline in tests. Not a substitute for a
// real embedding model in production deployments.
type Hashing struct {
	dimension int
}

var _ Embedder = (*Hashing)(nil)

// NewHashing creates a hashing embedder with the given dimension.
func NewHashing(dimension int) *Hashing {
	if dimension <= 0 {
		dimension = DefaultHashingDimension
	}
	return &Hashing{dimension: dimension}
}

// Embed generates the hashed bag-of-words vector for text.
func (h *Hashing) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vectorize(text), nil
}

// EmbedBatch embeds each text independently; it cannot partially fail.
func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = h.vectorize(text)
	}
	return vectors, nil
}

// Model returns the pseudo-model identifier.
func (h *Hashing) Model() string {
	return "hashing-bow"
}

// Dimension returns the vector dimension.
func (h *Hashing) Dimension() int {
	return h.dimension
}

func (h *Hashing) vectorize(text string) []float32 {
	vector := make([]float32, h.dimension)
	for _, token := range tokenize(text) {
		hasher := fnv.New32a()
		hasher.Write([]byte(token))
		sum := hasher.Sum32()
		bucket := int(sum % uint32(h.dimension))
		// Top bit decides the sign so collisions partially cancel
		// instead of always accumulating.
		if sum&0x80000000 != 0 {
			vector[bucket] -= 1
		} else {
			vector[bucket] += 1
		}
	}
	return normalize(vector)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vector
	}
	norm := float32(math.Sqrt(sum))
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}
