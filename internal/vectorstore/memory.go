package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process brute-force cosine index. Collections are
// created on first write; reads and writes are safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]*collection
}

type collection struct {
	dimension int
	order     []string // entry IDs in insertion order
	entries   map[string]entry
}

type entry struct {
	chunk  Chunk
	vector []float32
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{topics: make(map[string]*collection)}
}

var _ Store = (*Memory)(nil)

// Add stores chunk vectors under their derived IDs, replacing existing
// entries with the same ID.
func (m *Memory) Add(ctx context.Context, topic string, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return ErrLengthMismatch
	}
	if len(chunks) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.topics[topic]
	if !ok {
		col = &collection{
			dimension: len(vectors[0]),
			entries:   make(map[string]entry),
		}
		m.topics[topic] = col
	}

	for i, chunk := range chunks {
		if len(vectors[i]) != col.dimension {
			return ErrDimensionMismatch
		}
		id := chunk.EntryID()
		if _, exists := col.entries[id]; !exists {
			col.order = append(col.order, id)
		}
		col.entries[id] = entry{chunk: chunk, vector: vectors[i]}
	}
	return nil
}

// Query computes cosine similarity against every entry in the topic and
// returns the top k, best first. Scores are mapped into [0,1].
func (m *Memory) Query(ctx context.Context, topic string, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.topics[topic]
	if !ok || len(col.entries) == 0 {
		return nil, nil
	}
	if len(vector) != col.dimension {
		return nil, ErrDimensionMismatch
	}

	matches := make([]Match, 0, len(col.entries))
	for _, id := range col.order {
		e := col.entries[id]
		matches = append(matches, Match{
			Chunk: e.chunk,
			Score: similarity(vector, e.vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// DeleteTopic drops the topic's collection. Deleting an unknown topic is
// a no-op.
func (m *Memory) DeleteTopic(ctx context.Context, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.topics, topic)
	return nil
}

// Count reports the number of entries stored for the topic.
func (m *Memory) Count(ctx context.Context, topic string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col, ok := m.topics[topic]
	if !ok {
		return 0, nil
	}
	return len(col.entries), nil
}

// similarity maps cosine similarity from [-1,1] into [0,1].
func similarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (1 + cos) / 2
}
