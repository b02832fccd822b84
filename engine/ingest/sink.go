package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/WessleyAI/daytrip-loader/pkg/natsutil"
)

// ErrorSubject is the NATS subject rejected documents are published on.
const ErrorSubject = "loader.errors"

// DocumentError describes a document rejected as a whole.
type DocumentError struct {
	DocumentNumber int    `json:"document_number"` // 1-based position in the input
	DocumentID     string `json:"document_id,omitempty"`
	Stage          string `json:"stage,omitempty"`
	Error          string `json:"error"`
}

func newDocumentError(n int, out Outcome) DocumentError {
	de := DocumentError{DocumentNumber: n, DocumentID: out.DocumentID}
	if out.Err != nil {
		de.Error = out.Err.Error()
	}
	var se *StageError
	if errors.As(out.Err, &se) {
		de.Stage = se.Stage
	}
	return de
}

// ErrorSink is the error channel for rejected documents.
type ErrorSink interface {
	Emit(ctx context.Context, e DocumentError) error
}

// JSONLinesSink writes one JSON object per line.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
	c   io.Closer
}

// NewJSONLinesSink writes to w. It does not close w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

// OpenJSONLines appends to the file at path, creating it if needed.
func OpenJSONLines(path string) (*JSONLinesSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}
	s := NewJSONLinesSink(f)
	s.c = f
	return s, nil
}

func (s *JSONLinesSink) Emit(_ context.Context, e DocumentError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(e)
}

// Close closes the underlying file, if the sink opened one.
func (s *JSONLinesSink) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// NATSErrorSink publishes each DocumentError with trace context.
type NATSErrorSink struct {
	Pub     natsutil.Publisher
	Subject string
}

func (s NATSErrorSink) Emit(ctx context.Context, e DocumentError) error {
	subject := s.Subject
	if subject == "" {
		subject = ErrorSubject
	}
	return natsutil.Publish(ctx, s.Pub, subject, e)
}

// MultiSink emits to every sink and joins their errors.
type MultiSink []ErrorSink

func (m MultiSink) Emit(ctx context.Context, e DocumentError) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
