package prefetch

import (
	"context"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/itemgen"
)

// Factory serves items from a Cache before falling back to the wrapped
// factory, and warms the neighbouring levels after every batch.
type Factory struct {
	inner itemgen.Factory
	cache *Cache
}

var _ itemgen.Factory = (*Factory)(nil)

// Wrap returns a prefetching factory around f and its cache.
func Wrap(f itemgen.Factory, opts Options) *Factory {
	return &Factory{inner: f, cache: New(f, opts)}
}

func (f *Factory) Skill() itemgen.Skill { return f.inner.Skill() }

// Cache exposes the underlying stock.
func (f *Factory) Cache() *Cache { return f.cache }

func (f *Factory) GenerateBatch(ctx context.Context, level cefr.Level, count int) ([]itemgen.Item, error) {
	items := make([]itemgen.Item, 0, count)
	for len(items) < count {
		it, ok := f.cache.Take(level)
		if !ok {
			break
		}
		items = append(items, it)
	}
	if n := count - len(items); n > 0 {
		fresh, err := f.inner.GenerateBatch(ctx, level, n)
		if err != nil {
			f.cache.restore(level, items)
			return nil, err
		}
		items = append(items, fresh...)
	}
	f.cache.Warm(level.Step(-1), level, level.Step(1))
	return items, nil
}

// Close stops background generation.
func (f *Factory) Close() { f.cache.Close() }
