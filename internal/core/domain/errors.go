package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfig            = errors.New("invalid configuration")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptFile       = errors.New("corrupt document file")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrEmbedding         = errors.New("embedding failure")
	ErrAssistant         = errors.New("assistant failure")
	ErrEmptyInput        = errors.New("empty input")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrTemporary         = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
