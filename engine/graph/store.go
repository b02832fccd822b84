// Package graph is the storage sink for extracted entities and edges. A
// collection is a node label (vertices) or a relationship type (edges).
package graph

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
)

var (
	// ErrEndpointMissing is returned when an edge references a vertex that
	// is not stored.
	ErrEndpointMissing = errors.New("edge endpoint not found")
	// ErrInvalidFilter is returned for filter keys that are not plain
	// property names.
	ErrInvalidFilter = errors.New("invalid filter")
)

// DefaultQueryLimit caps Query results when Filter.Limit is not set.
const DefaultQueryLimit = 100

// Store persists vertices and edges into named collections.
type Store interface {
	HasCollection(ctx context.Context, name domain.Collection) (bool, error)
	CreateCollection(ctx context.Context, name domain.Collection, edge bool) error
	UpsertVertex(ctx context.Context, v domain.Vertex) (string, error)
	UpsertEdge(ctx context.Context, e domain.Edge) (string, error)
	Query(ctx context.Context, name domain.Collection, f Filter) ([]map[string]any, error)
}

// Filter selects records whose properties equal every entry of Where.
type Filter struct {
	Where map[string]any
	Limit int
}

var propertyName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// fields validates the filter keys and returns them sorted.
func (f Filter) fields() ([]string, error) {
	keys := make([]string, 0, len(f.Where))
	for k := range f.Where {
		if !propertyName.MatchString(k) {
			return nil, fmt.Errorf("%w: property %q", ErrInvalidFilter, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}

// lookup resolves a collection and checks that it is of the expected kind.
func lookup(name domain.Collection, edge bool) (domain.CollectionSpec, error) {
	spec, err := domain.LookupCollection(string(name))
	if err != nil {
		return spec, err
	}
	if spec.Edge != edge {
		return spec, fmt.Errorf("collection %s: edge=%v, want edge=%v", name, spec.Edge, edge)
	}
	return spec, nil
}
