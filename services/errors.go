package services

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when there is no text left to chunk or embed
// after whitespace normalization.
var ErrEmptyInput = errors.New("no text to ingest")

// ErrEmptyDocument is returned when a parsed file yields no extractable
// text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// ErrUnsupportedFormat is returned for file extensions no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// EmbeddingError wraps a failure from the embedding provider. The cause
// propagates uninterpreted.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// StoreError wraps a failure from the vector store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
