package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_EnsureTopicIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTopic(ctx, "biology"))
	require.NoError(t, s.EnsureTopic(ctx, "biology"))

	topics, err := s.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "biology", topics[0].Name)
	assert.False(t, topics[0].CreatedAt.IsZero())
}

func TestStore_TopicExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exists, err := s.TopicExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.EnsureTopic(ctx, "biology"))
	exists, err = s.TopicExists(ctx, "biology")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_UpsertDocumentReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTopic(ctx, "biology"))

	doc := Document{
		ID:        "doc-1",
		Topic:     "biology",
		FileName:  "cells.pdf",
		PageCount: 12,
		SizeBytes: 4096,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.UpsertDocument(ctx, doc))

	// Re-ingesting the same file replaces rather than duplicates.
	doc.PageCount = 14
	require.NoError(t, s.UpsertDocument(ctx, doc))

	docs, err := s.ListDocuments(ctx, "biology")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 14, docs[0].PageCount)
	assert.Equal(t, "cells.pdf", docs[0].FileName)
}

func TestStore_ListDocumentsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTopic(ctx, "biology"))
	base := time.Now().UTC()
	for i, name := range []string{"old.pdf", "mid.pdf", "new.pdf"} {
		require.NoError(t, s.UpsertDocument(ctx, Document{
			ID:        name,
			Topic:     "biology",
			FileName:  name,
			PageCount: 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	docs, err := s.ListDocuments(ctx, "biology")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "new.pdf", docs[0].FileName)
	assert.Equal(t, "old.pdf", docs[2].FileName)
}

func TestStore_DeleteTopicCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureTopic(ctx, "biology"))
	require.NoError(t, s.UpsertDocument(ctx, Document{
		ID: "doc-1", Topic: "biology", FileName: "cells.pdf",
		PageCount: 1, CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, s.DeleteTopic(ctx, "biology"))

	exists, err := s.TopicExists(ctx, "biology")
	require.NoError(t, err)
	assert.False(t, exists)

	docs, err := s.ListDocuments(ctx, "biology")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_DeleteUnknownTopic(t *testing.T) {
	s := openTestStore(t)
	assert.ErrorIs(t, s.DeleteTopic(context.Background(), "ghost"), ErrNotFound)
}
