// Package vectorstore provides the per-topic vector index: chunk storage
// keyed by deterministic IDs and top-k similarity search.
//
// Score semantics are fixed across backends: a similarity in [0,1], higher
// is better. Backends that natively speak cosine or distance convert at
// this boundary.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Chunk is a bounded span of source text with provenance. Chunks are
// immutable once created and owned by the index entry they back.
type Chunk struct {
	Text       string `json:"text"`
	Topic      string `json:"topic"`
	SourceFile string `json:"source_file"`
	Page       int    `json:"page"`
	Sequence   int    `json:"sequence"`
}

// Source formats the chunk's citation as surfaced to users.
func (c Chunk) Source() string {
	return fmt.Sprintf("%s:page %d", c.SourceFile, c.Page)
}

// Match pairs a stored chunk with its similarity to a query vector.
type Match struct {
	Chunk Chunk
	Score float64
}

// Store is a topic-scoped nearest-neighbor index.
type Store interface {
	// Add appends chunk vectors into the topic's collection. Entries with
	// an already-present derived ID are replaced, which makes re-ingestion
	// of the same file idempotent.
	Add(ctx context.Context, topic string, chunks []Chunk, vectors [][]float32) error

	// Query returns up to k matches ordered best first. A topic with no
	// entries yields an empty result, not an error.
	Query(ctx context.Context, topic string, vector []float32, k int) ([]Match, error)

	// DeleteTopic removes the topic's whole collection.
	DeleteTopic(ctx context.Context, topic string) error

	// Count reports the number of entries stored for the topic.
	Count(ctx context.Context, topic string) (int, error)
}

var (
	// ErrDimensionMismatch is returned when a vector's dimension differs
	// from the collection's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrLengthMismatch is returned when chunks and vectors differ in length.
	ErrLengthMismatch = errors.New("chunks and vectors length mismatch")
)

// idNamespace seeds deterministic entry IDs.
var idNamespace = uuid.MustParse("7d7f68d2-90a4-4d44-a6fc-0ae35bd10ca5")

// DeriveID computes the stable entry ID for a chunk position. The same
// (topic, sourceFile, page, sequence) always maps to the same ID.
func DeriveID(topic, sourceFile string, page, sequence int) string {
	key := fmt.Sprintf("%s/%s/%d/%d", topic, sourceFile, page, sequence)
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// EntryID returns the chunk's derived index ID.
func (c Chunk) EntryID() string {
	return DeriveID(c.Topic, c.SourceFile, c.Page, c.Sequence)
}
