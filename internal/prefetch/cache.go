// Package prefetch keeps a small stock of ready items per level so the
// next adaptive turn rarely waits on generation. It only ever holds items;
// session state is never touched from background work.
package prefetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/logging"
)

// Defaults for Options.
const (
	DefaultDepth   = 2
	DefaultTimeout = 90 * time.Second
)

// Options configures a Cache.
type Options struct {
	// Depth is the most items kept per level.
	Depth int
	// Timeout bounds one background generation.
	Timeout time.Duration
	Logger  *logging.Logger
}

// Cache is a per-level stock of generated items filled in the background.
type Cache struct {
	factory itemgen.Factory
	depth   int
	timeout time.Duration
	log     *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group
	wg     sync.WaitGroup

	mu     sync.Mutex
	stock  map[cefr.Level][]itemgen.Item
	closed bool
}

// New returns a cache that fills itself from f.
func New(f itemgen.Factory, opts Options) *Cache {
	if opts.Depth < 1 {
		opts.Depth = DefaultDepth
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		factory: f,
		depth:   opts.Depth,
		timeout: opts.Timeout,
		log:     opts.Logger.With("component", "prefetch", "skill", f.Skill()),
		ctx:     ctx,
		cancel:  cancel,
		stock:   make(map[cefr.Level][]itemgen.Item),
	}
}

// Warm starts one background generation for each distinct level whose
// stock is below depth. It returns immediately. Concurrent warms of the
// same level share one generation.
func (c *Cache) Warm(levels ...cefr.Level) {
	seen := make(map[cefr.Level]bool, len(levels))
	for _, l := range levels {
		if seen[l] || !l.Valid() {
			continue
		}
		seen[l] = true

		c.mu.Lock()
		if c.closed || len(c.stock[l]) >= c.depth {
			c.mu.Unlock()
			continue
		}
		c.wg.Add(1)
		c.mu.Unlock()

		go func(level cefr.Level) {
			defer c.wg.Done()
			_, _, _ = c.group.Do(level.String(), func() (any, error) {
				c.fill(level)
				return nil, nil
			})
		}(l)
	}
}

func (c *Cache) fill(level cefr.Level) {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	items, err := c.factory.GenerateBatch(ctx, level, 1)
	if err != nil {
		if c.ctx.Err() == nil {
			c.log.Warn("prefetch failed", "level", level, "error", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for _, it := range items {
		if len(c.stock[level]) >= c.depth {
			break
		}
		c.stock[level] = append(c.stock[level], it)
	}
	c.log.Debug("prefetched", "level", level, "stock", len(c.stock[level]))
}

// Take removes and returns the oldest stocked item for level.
func (c *Cache) Take(level cefr.Level) (itemgen.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stock[level]
	if len(s) == 0 {
		return itemgen.Item{}, false
	}
	it := s[0]
	c.stock[level] = s[1:]
	return it, true
}

// restore puts taken items back at the front of level's stock.
func (c *Cache) restore(level cefr.Level, items []itemgen.Item) {
	if len(items) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[level] = append(append([]itemgen.Item(nil), items...), c.stock[level]...)
}

// Len returns the number of stocked items for level.
func (c *Cache) Len(level cefr.Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stock[level])
}

// Close stops new work, cancels running generations and waits for them.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}
