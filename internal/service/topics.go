package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/elimu-hub/elimu-go/internal/store"
	"github.com/elimu-hub/elimu-go/internal/vectorstore"
)

// TopicService handles topic and document bookkeeping, keeping the
// relational records and the vector index in step.
type TopicService struct {
	docs   *store.Store
	index  vectorstore.Store
	logger *slog.Logger
}

// NewTopicService creates a topic service.
func NewTopicService(docs *store.Store, index vectorstore.Store, logger *slog.Logger) *TopicService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TopicService{docs: docs, index: index, logger: logger}
}

// List returns all known topics.
func (s *TopicService) List(ctx context.Context) ([]store.Topic, error) {
	return s.docs.ListTopics(ctx)
}

// Documents returns the topic's uploaded documents.
func (s *TopicService) Documents(ctx context.Context, topic string) ([]store.Document, error) {
	topic, err := validateTopic(topic)
	if err != nil {
		return nil, err
	}
	exists, err := s.docs.TopicExists(ctx, topic)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTopicNotFound
	}
	return s.docs.ListDocuments(ctx, topic)
}

// Delete removes a topic: its vector collection first, then the
// bookkeeping rows. A topic unknown to both is ErrTopicNotFound.
func (s *TopicService) Delete(ctx context.Context, topic string) error {
	topic, err := validateTopic(topic)
	if err != nil {
		return err
	}

	if err := s.index.DeleteTopic(ctx, topic); err != nil {
		return err
	}
	err = s.docs.DeleteTopic(ctx, topic)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTopicNotFound
	}
	if err != nil {
		return err
	}

	s.logger.Info("topic deleted", "topic", topic)
	return nil
}
