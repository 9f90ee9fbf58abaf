package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"musicca/internal/logger"
)

var (
	ErrNilLookup    = errors.New("batch lookup cannot be nil")
	ErrNilPredicate = errors.New("batch partial predicate cannot be nil")
	ErrNilKey       = errors.New("batch key function cannot be nil")
)

// LookupFunc fetches full records for a batch of identifiers. The returned
// records may be in any order and may omit identifiers the remote no longer
// knows about.
type LookupFunc[T any] func(ctx context.Context, keys []string) ([]T, error)

// Enricher replaces the partial tail of a record list with full records.
type Enricher[T any] struct {
	size      int
	isPartial func(T) bool
	key       func(T) string
	lookup    LookupFunc[T]
}

// NewEnricher builds an Enricher. A size below 1 falls back to
// DefaultChunkSize.
func NewEnricher[T any](size int, isPartial func(T) bool, key func(T) string, lookup LookupFunc[T]) (*Enricher[T], error) {
	if isPartial == nil {
		return nil, ErrNilPredicate
	}
	if key == nil {
		return nil, ErrNilKey
	}
	if lookup == nil {
		return nil, ErrNilLookup
	}
	if size < 1 {
		size = DefaultChunkSize
	}
	return &Enricher[T]{size: size, isPartial: isPartial, key: key, lookup: lookup}, nil
}

// Size returns the configured chunk size.
func (e *Enricher[T]) Size() int { return e.size }

// SplitPartial returns the records before the first partial record (head)
// and everything from that record onward (tail). Both share the backing
// array of items.
func SplitPartial[T any](items []T, isPartial func(T) bool) (head, tail []T) {
	for i, item := range items {
		if isPartial(item) {
			return items[:i], items[i:]
		}
	}
	return items, nil
}

// Enrich returns head ++ lookup results for the tail, with lookup results
// concatenated in batch order. Batches run concurrently and Enrich returns no
// records if any of them fails. items is never modified.
//
// The first failure also cancels the context passed to lookups still in
// flight, so their requests are abandoned rather than left to finish and be
// discarded.
func (e *Enricher[T]) Enrich(ctx context.Context, items []T) ([]T, error) {
	head, tail := SplitPartial(items, e.isPartial)
	if len(tail) == 0 {
		out := make([]T, len(items))
		copy(out, items)
		return out, nil
	}

	keys := make([]string, len(tail))
	for i, item := range tail {
		keys[i] = e.key(item)
	}
	batches := Chunk(keys, e.size)
	logger.Debugf("[batch] enriching %d partial records in %d batches (head %d)", len(tail), len(batches), len(head))

	results := make([][]T, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, ids := range batches {
		g.Go(func() error {
			records, err := e.lookup(gctx, ids)
			if err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := len(head)
	for _, r := range results {
		total += len(r)
	}
	out := make([]T, 0, total)
	out = append(out, head...)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
