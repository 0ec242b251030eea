// Package store keeps relational bookkeeping for topics and uploaded
// documents in an embedded sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for lookups of unknown topics or documents.
var ErrNotFound = errors.New("not found")

// Document summarizes one uploaded source file.
type Document struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	FileName  string    `json:"file_name"`
	PageCount int       `json:"page_count"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"date_uploaded"`
}

// Topic is a namespace partitioning documents and their vector collection.
type Topic struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the sqlite connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	// Foreign keys are off by default in sqlite; the documents cascade
	// depends on them.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent workers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS topics (
	name       TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	topic      TEXT NOT NULL REFERENCES topics(name) ON DELETE CASCADE,
	file_name  TEXT NOT NULL,
	page_count INTEGER NOT NULL,
	size_bytes INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	UNIQUE(topic, file_name)
);
CREATE INDEX IF NOT EXISTS idx_documents_topic ON documents(topic);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// EnsureTopic creates the topic if it does not exist.
func (s *Store) EnsureTopic(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO topics (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensure topic: %w", err)
	}
	return nil
}

// ListTopics returns all topics ordered by name.
func (s *Store) ListTopics(ctx context.Context) ([]Topic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, created_at FROM topics ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// TopicExists reports whether the topic has been created.
func (s *Store) TopicExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM topics WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("topic exists: %w", err)
	}
	return true, nil
}

// DeleteTopic removes the topic and, via cascade, its documents.
func (s *Store) DeleteTopic(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertDocument records an uploaded document. Re-ingesting the same file
// for the same topic replaces the previous record.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents (id, topic, file_name, page_count, size_bytes, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(topic, file_name) DO UPDATE SET
	page_count = excluded.page_count,
	size_bytes = excluded.size_bytes,
	created_at = excluded.created_at`,
		doc.ID, doc.Topic, doc.FileName, doc.PageCount, doc.SizeBytes, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// ListDocuments returns the topic's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, topic string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, topic, file_name, page_count, size_bytes, created_at
FROM documents WHERE topic = ? ORDER BY created_at DESC`, topic)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Topic, &d.FileName, &d.PageCount, &d.SizeBytes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
