package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(topic, file string, page, seq int, text string) Chunk {
	return Chunk{Text: text, Topic: topic, SourceFile: file, Page: page, Sequence: seq}
}

func TestMemory_AddAndQuery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	chunks := []Chunk{
		chunk("bio", "doc.pdf", 1, 0, "cells divide"),
		chunk("bio", "doc.pdf", 2, 0, "mitochondria produce energy"),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}
	require.NoError(t, m.Add(ctx, "bio", chunks, vectors))

	matches, err := m.Query(ctx, "bio", []float32{0, 1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Identical vector ranks first with perfect similarity.
	assert.Equal(t, "mitochondria produce energy", matches[0].Chunk.Text)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
	// Orthogonal vector maps to the midpoint of [0,1].
	assert.InDelta(t, 0.5, matches[1].Score, 1e-6)
}

func TestMemory_QueryTopK(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var chunks []Chunk
	var vectors [][]float32
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunk("t", "f.txt", 1, i, "x"))
		vectors = append(vectors, []float32{1, float32(i) * 0.1})
	}
	require.NoError(t, m.Add(ctx, "t", chunks, vectors))

	matches, err := m.Query(ctx, "t", []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	// Scores are sorted descending.
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestMemory_ReAddReplacesEntries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	c := []Chunk{chunk("bio", "doc.pdf", 1, 0, "old text")}
	require.NoError(t, m.Add(ctx, "bio", c, [][]float32{{1, 0}}))

	// Same (topic, file, page, sequence) key replaces rather than duplicates.
	c[0].Text = "new text"
	require.NoError(t, m.Add(ctx, "bio", c, [][]float32{{0, 1}}))

	count, err := m.Count(ctx, "bio")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches, err := m.Query(ctx, "bio", []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new text", matches[0].Chunk.Text)
}

func TestMemory_QueryUnknownTopic(t *testing.T) {
	m := NewMemory()

	matches, err := m.Query(context.Background(), "ghost", []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemory_AddMismatches(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.Add(ctx, "t", []Chunk{chunk("t", "f", 1, 0, "a")}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	require.NoError(t, m.Add(ctx, "t",
		[]Chunk{chunk("t", "f", 1, 0, "a")}, [][]float32{{1, 0, 0}}))
	err = m.Add(ctx, "t",
		[]Chunk{chunk("t", "f", 1, 1, "b")}, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemory_DeleteTopic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Add(ctx, "bio",
		[]Chunk{chunk("bio", "f", 1, 0, "a")}, [][]float32{{1}}))
	require.NoError(t, m.DeleteTopic(ctx, "bio"))

	count, err := m.Count(ctx, "bio")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeriveID_Deterministic(t *testing.T) {
	a := DeriveID("bio", "doc.pdf", 1, 0)
	b := DeriveID("bio", "doc.pdf", 1, 0)
	c := DeriveID("bio", "doc.pdf", 1, 1)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestChunk_Source(t *testing.T) {
	c := chunk("bio", "doc.pdf", 3, 7, "text")
	assert.Equal(t, "doc.pdf:page 3", c.Source())
}
