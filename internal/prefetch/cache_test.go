package prefetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/itemgen"
)

type countingFactory struct {
	mu      sync.Mutex
	calls   int
	levels  []cefr.Level
	fail    error
	entered chan struct{}
	waitCtx bool
}

func (f *countingFactory) Skill() itemgen.Skill { return itemgen.SkillVocabulary }

func (f *countingFactory) GenerateBatch(ctx context.Context, level cefr.Level, count int) ([]itemgen.Item, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.levels = append(f.levels, level)
	fail, entered, waitCtx := f.fail, f.entered, f.waitCtx
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if waitCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if fail != nil {
		return nil, fail
	}
	items := make([]itemgen.Item, count)
	for i := range items {
		items[i] = itemgen.Item{ID: fmt.Sprintf("%s-%d-%d", level, n, i), Level: level, Skill: itemgen.SkillVocabulary}
	}
	return items, nil
}

func (f *countingFactory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestFactoryWarmsNeighbours(t *testing.T) {
	inner := &countingFactory{}
	f := Wrap(inner, Options{Depth: 2})
	defer f.Close()

	items, err := f.GenerateBatch(context.Background(), cefr.B1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B1-1-0", items[0].ID)

	f.cache.wg.Wait()
	assert.Equal(t, 4, inner.callCount())
	for _, l := range []cefr.Level{cefr.A2, cefr.B1, cefr.B2} {
		assert.Equal(t, 1, f.cache.Len(l), "level %s", l)
	}
	assert.Equal(t, 0, f.cache.Len(cefr.C1))
}

func TestFactoryServesFromStock(t *testing.T) {
	inner := &countingFactory{}
	f := Wrap(inner, Options{Depth: 2})
	defer f.Close()

	f.cache.Warm(cefr.B2)
	f.cache.wg.Wait()
	require.Equal(t, 1, f.cache.Len(cefr.B2))
	stocked := inner.callCount()

	items, err := f.GenerateBatch(context.Background(), cefr.B2, 1)
	require.NoError(t, err)
	assert.Equal(t, "B2-1-0", items[0].ID)
	assert.Equal(t, stocked, 1)

	f.cache.wg.Wait()
	// No synchronous call: only the three warms after the batch.
	assert.Equal(t, 4, inner.callCount())
}

func TestWarmRespectsDepthAndSaturation(t *testing.T) {
	inner := &countingFactory{}
	c := New(inner, Options{Depth: 1})
	defer c.Close()

	c.Warm(cefr.A1, cefr.A1.Step(-1), cefr.Level(42))
	c.wg.Wait()
	assert.Equal(t, 1, inner.callCount())

	c.Warm(cefr.A1)
	c.wg.Wait()
	assert.Equal(t, 1, inner.callCount())
	assert.Equal(t, 1, c.Len(cefr.A1))

	_, ok := c.Take(cefr.A1)
	assert.True(t, ok)
	_, ok = c.Take(cefr.A1)
	assert.False(t, ok)
}

func TestFailedBatchRestoresStock(t *testing.T) {
	inner := &countingFactory{}
	f := Wrap(inner, Options{Depth: 1})
	defer f.Close()

	f.cache.Warm(cefr.C1)
	f.cache.wg.Wait()

	inner.mu.Lock()
	inner.fail = errors.New("provider down")
	inner.mu.Unlock()

	_, err := f.GenerateBatch(context.Background(), cefr.C1, 2)
	require.Error(t, err)
	assert.Equal(t, 1, f.cache.Len(cefr.C1))
}

func TestWarmFailureLeavesStockEmpty(t *testing.T) {
	inner := &countingFactory{fail: errors.New("bad json")}
	c := New(inner, Options{})
	defer c.Close()

	c.Warm(cefr.B1)
	c.wg.Wait()
	assert.Equal(t, 0, c.Len(cefr.B1))
}

func TestCloseCancelsWorkers(t *testing.T) {
	inner := &countingFactory{entered: make(chan struct{}, 1), waitCtx: true}
	c := New(inner, Options{})

	c.Warm(cefr.B1)
	<-inner.entered
	c.Close()

	assert.Equal(t, 0, c.Len(cefr.B1))
	c.Warm(cefr.B2)
	assert.Equal(t, 1, inner.callCount())
}
