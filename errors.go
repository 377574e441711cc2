package sylva

import (
	"errors"
	"fmt"
)

var (
	// ErrLanguageVersion is returned by LoadLanguage when the grammar
	// blob was produced for an incompatible table format. No Language
	// is produced.
	ErrLanguageVersion = errors.New("language version mismatch")

	// ErrInvalidLanguage is returned by LoadLanguage for blobs that are
	// structurally broken (bad JSON, dangling symbol references,
	// unresolvable conflicts).
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrInvalidEditRange is returned when an edit's byte range falls
	// outside the current source bounds. The tree the edit was applied
	// to remains valid and unchanged.
	ErrInvalidEditRange = errors.New("edit range outside source bounds")

	// ErrNoLanguage is returned by a Parser with no language set.
	ErrNoLanguage = errors.New("parser has no language")
)

// QueryError reports a malformed query pattern. Offset is a byte
// offset into the pattern text.
type QueryError struct {
	Offset  int
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error at offset %d: %s", e.Offset, e.Message)
}

func queryErrorf(offset int, format string, args ...interface{}) *QueryError {
	return &QueryError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}
