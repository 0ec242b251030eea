package service

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyTopic is returned when a request names no topic.
	ErrEmptyTopic = errors.New("topic required")

	// ErrInvalidTopic is returned when a topic name carries path
	// separators or traversal elements.
	ErrInvalidTopic = errors.New("invalid topic name")

	// ErrEmptyQuestion is returned when a chat request has no question.
	ErrEmptyQuestion = errors.New("question required")

	// ErrEmptyFile is returned when an upload contains no bytes.
	ErrEmptyFile = errors.New("file is empty")

	// ErrTopicNotFound is returned for operations on unknown topics.
	ErrTopicNotFound = errors.New("topic not found")
)

// validateTopic normalizes a topic name. Topics become directory names
// under the data dir and index collection names, so anything that could
// escape either is rejected.
func validateTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", ErrEmptyTopic
	}
	if topic == "." || topic == ".." || strings.ContainsAny(topic, `/\`) {
		return "", ErrInvalidTopic
	}
	return topic, nil
}
