// Package extract turns one decoded document into validated graph entities
// and relationships. Extractors never fail: invalid sub-records come back as
// rejections next to the valid ones.
package extract

import "github.com/WessleyAI/daytrip-loader/engine/domain"

type keyed interface {
	Key() string
}

// Result is the output of one extractor.
type Result[T keyed] struct {
	Valid    []T
	Rejected []domain.Rejection
}

// collector accumulates a Result, keeping the first valid record per key.
type collector[T keyed] struct {
	res  Result[T]
	seen map[string]struct{}
}

func newCollector[T keyed]() *collector[T] {
	return &collector[T]{seen: make(map[string]struct{})}
}

func (c *collector[T]) accept(v T) {
	if _, dup := c.seen[v.Key()]; dup {
		return
	}
	c.seen[v.Key()] = struct{}{}
	c.res.Valid = append(c.res.Valid, v)
}

func (c *collector[T]) reject(r domain.Rejection) {
	c.res.Rejected = append(c.res.Rejected, r)
}

func (c *collector[T]) result() Result[T] { return c.res }
