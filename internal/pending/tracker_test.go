package pending

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_BeginEnd(t *testing.T) {
	tr := New()
	task, err := tr.Begin(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, task.Token)
	assert.True(t, tr.IsPending("p1"))

	_, err = tr.Begin(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrBusy)

	// other keys are independent
	other, err := tr.Begin(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, tr.Keys())

	task.End()
	task.End()
	assert.False(t, tr.IsPending("p1"))
	assert.Error(t, task.Context().Err())

	other.End()
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_EmptyKey(t *testing.T) {
	_, err := New().Begin(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestTracker_ConcurrentBeginSingleWinner(t *testing.T) {
	tr := New()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tr.Begin(context.Background(), "line"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestTracker_AbandonAll(t *testing.T) {
	tr := New()
	a, _ := tr.Begin(context.Background(), "a")
	b, _ := tr.Begin(context.Background(), "b")

	assert.Equal(t, 2, tr.AbandonAll())
	assert.True(t, a.Abandoned())
	assert.ErrorIs(t, b.Err(), ErrAbandoned)
	assert.ErrorIs(t, a.Context().Err(), context.Canceled)
	assert.Equal(t, 0, tr.Len())

	// a fresh reservation of the same key is unaffected by the stale End
	fresh, err := tr.Begin(context.Background(), "a")
	require.NoError(t, err)
	a.End()
	assert.True(t, tr.IsPending("a"))
	assert.NoError(t, fresh.Err())
	fresh.End()
}
