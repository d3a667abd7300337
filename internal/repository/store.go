// Package repository persists guides, devices, and the LLM call ledger in a
// path-addressed document store.
package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// DocPath addresses a document as alternating collection and id segments,
// e.g. anonymousGuides/<guideId>/days/<date>.
type DocPath []string

// Doc builds a path from alternating collection/id segments.
func Doc(segments ...string) DocPath {
	return DocPath(segments)
}

// Validate checks the path has an even, non-zero number of non-empty segments.
func (p DocPath) Validate() error {
	if len(p) == 0 || len(p)%2 != 0 {
		return fmt.Errorf("invalid document path %q: need collection/id pairs", p.String())
	}
	for _, seg := range p {
		if seg == "" || strings.Contains(seg, "/") {
			return fmt.Errorf("invalid document path %q: bad segment", p.String())
		}
	}
	return nil
}

// Collection returns the parent collection path, e.g. anonymousGuides/g1/days.
func (p DocPath) Collection() string {
	return strings.Join(p[:len(p)-1], "/")
}

// ID returns the document id, the last segment.
func (p DocPath) ID() string {
	return p[len(p)-1]
}

// Child addresses a document in a subcollection of p.
func (p DocPath) Child(collection, id string) DocPath {
	out := make(DocPath, 0, len(p)+2)
	return append(append(out, p...), collection, id)
}

// Sub returns the path of a subcollection of p, e.g. anonymousGuides/g1/days.
func (p DocPath) Sub(collection string) string {
	return p.String() + "/" + collection
}

func (p DocPath) String() string {
	return strings.Join(p, "/")
}

// Op is a query comparison operator.
type Op string

const (
	OpEq  Op = "=="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Filter is one query predicate on a top-level or dotted document field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

func (f Filter) validate() error {
	if !fieldPattern.MatchString(f.Field) {
		return fmt.Errorf("invalid filter field %q", f.Field)
	}
	switch f.Op {
	case OpEq, OpGt, OpGte, OpLt, OpLte:
		return nil
	}
	return fmt.Errorf("invalid filter operator %q", f.Op)
}

// Document is a stored document and its decoded fields.
type Document struct {
	Path   DocPath
	Fields map[string]any
}

// DocumentStore is an opaque key/value + query store with subcollections.
type DocumentStore interface {
	// Get returns the document or domain.ErrNotFound.
	Get(ctx context.Context, path DocPath) (*Document, error)
	// Create inserts a new document or returns domain.ErrAlreadyExists.
	Create(ctx context.Context, path DocPath, fields map[string]any) error
	// Put creates or replaces the document at path.
	Put(ctx context.Context, path DocPath, fields map[string]any) error
	// Update merges fields into an existing document or returns domain.ErrNotFound.
	Update(ctx context.Context, path DocPath, fields map[string]any) error
	// Query returns the documents of a collection matching every filter, ordered by id.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Close releases the store.
	Close() error
}
