package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an ingestion failure.
type Kind int

const (
	// KindUnknown is anything not matching another kind.
	KindUnknown Kind = iota + 1
	// KindFileSystem means the root path is missing or unreadable.
	KindFileSystem
	// KindParse means a specific document could not be parsed.
	KindParse
	// KindRateLimit means a provider signalled quota exhaustion.
	KindRateLimit
	// KindVectorStore is any vector store failure other than rate limiting.
	KindVectorStore
	// KindCancelled means external cancellation was observed.
	KindCancelled
	// KindTimeout means an external call exceeded the call timeout.
	KindTimeout
)

var kindNames = map[Kind]string{
	KindUnknown:     "UnknownError",
	KindFileSystem:  "FileSystemError",
	KindParse:       "ParseError",
	KindRateLimit:   "RateLimitError",
	KindVectorStore: "VectorStoreError",
	KindCancelled:   "Cancelled",
	KindTimeout:     "TimeoutError",
}

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Transient reports whether the failure may succeed if retried later.
func (k Kind) Transient() bool {
	return k == KindRateLimit || k == KindTimeout
}

// ParseKind returns the Kind with the given taxonomy name.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}
	return 0, false
}

// Error is a classified ingestion failure.
// Adapters create it at the capability boundary; stages may attach
// path or batch context but never change the Kind.
type Error struct {
	Kind  Kind
	Op    string      // Operation that failed, e.g. "parse", "embed", "upsert"
	Path  string      // File or directory involved, if any
	Batch *BatchRange // Batch involved, if any
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Batch != nil {
		b.WriteString(" ")
		b.WriteString(e.Batch.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the failure kind of err.
// Already classified errors keep their kind; bare context errors map to
// KindCancelled and KindTimeout; everything else is KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindUnknown
}

// Classify returns err as a *Error, classifying it with KindOf when it has
// not been classified yet. An existing *Error is returned unchanged.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

// WithBatch returns a copy of err carrying the batch range.
// The kind and cause are preserved.
func WithBatch(err *Error, batch BatchRange) *Error {
	cp := *err
	cp.Batch = &batch
	return &cp
}
