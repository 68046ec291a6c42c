package main

import (
	"fmt"
	"strings"
)

// SchemaIntegrityError reports a broken layout table. It is never recoverable:
// encoding aborts instead of truncating or overwriting bytes.
type SchemaIntegrityError struct {
	Block  BlockKey
	Field  string
	Offset int
	Detail string
}

func (e *SchemaIntegrityError) Error() string {
	var b strings.Builder
	b.WriteString("schema integrity")
	if e.Block != "" {
		b.WriteString(" at ")
		b.WriteString(string(e.Block))
		if e.Field != "" {
			b.WriteByte('.')
			b.WriteString(e.Field)
		}
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset %d)", e.Offset)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// IncompleteChainError is returned when the missing-block policy is reject and
// the chain omits slots the layout defines.
type IncompleteChainError struct {
	Missing []BlockKey
}

func (e *IncompleteChainError) Error() string {
	names := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		names[i] = string(k)
	}
	return "incomplete chain: missing " + strings.Join(names, ", ")
}

// OutOfRangeValueError is returned when the range policy is reject, and always
// for NaN or infinite values.
type OutOfRangeValueError struct {
	Block BlockKey
	Param string
	Value float64
	Min   float64
	Max   float64
	// Detail replaces the range message when the value is in range but still
	// not legal, e.g. a fractional enum index.
	Detail string
}

func (e *OutOfRangeValueError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s.%s: value %g %s", e.Block, e.Param, e.Value, e.Detail)
	}
	return fmt.Sprintf("%s.%s: value %g outside [%g, %g]", e.Block, e.Param, e.Value, e.Min, e.Max)
}

// ChainError reports a chain the layout cannot describe at all: unknown or
// duplicate block keys and unknown variants.
type ChainError struct {
	Block   BlockKey
	Variant string
	Detail  string
}

func (e *ChainError) Error() string {
	var b strings.Builder
	b.WriteString("invalid chain")
	if e.Block != "" {
		b.WriteString(" at ")
		b.WriteString(string(e.Block))
	}
	if e.Variant != "" {
		b.WriteString(" (type ")
		b.WriteString(e.Variant)
		b.WriteByte(')')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// PatchError reports a patch or transport string that cannot be decoded.
type PatchError struct {
	Offset int
	Value  int
	Detail string
}

func (e *PatchError) Error() string {
	if e.Offset < 0 {
		return "invalid patch: " + e.Detail
	}
	return fmt.Sprintf("invalid patch at offset %d (value %d): %s", e.Offset, e.Value, e.Detail)
}
