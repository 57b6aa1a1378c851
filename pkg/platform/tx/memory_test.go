package tx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "equilibrium/pkg/domain-errors"
)

func TestMemoryRunner(t *testing.T) {
	t.Run("applies staged mutations on success", func(t *testing.T) {
		runner := NewMemoryRunner()
		applied := false
		err := runner.RunInTx(context.Background(), func(txCtx context.Context) error {
			Apply(txCtx, func() { applied = true })
			assert.False(t, applied, "mutation must stay staged until commit")
			return nil
		})
		require.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("drops staged mutations on error", func(t *testing.T) {
		runner := NewMemoryRunner()
		applied := false
		boom := errors.New("boom")
		err := runner.RunInTx(context.Background(), func(txCtx context.Context) error {
			Apply(txCtx, func() { applied = true })
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.False(t, applied)
	})

	t.Run("drops staged mutations when the deadline passes before commit", func(t *testing.T) {
		runner := NewMemoryRunner()
		applied := false
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := runner.RunInTx(ctx, func(txCtx context.Context) error {
			Apply(txCtx, func() { applied = true })
			<-txCtx.Done()
			return nil
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.False(t, applied)
	})

	t.Run("rejects an already cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewMemoryRunner().RunInTx(ctx, func(context.Context) error {
			t.Fatal("callback must not run")
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("serializes concurrent transactions", func(t *testing.T) {
		runner := NewMemoryRunner()
		var inside, maxInside int
		var mu sync.Mutex
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = runner.RunInTx(context.Background(), func(context.Context) error {
					mu.Lock()
					inside++
					if inside > maxInside {
						maxInside = inside
					}
					mu.Unlock()
					time.Sleep(time.Millisecond)
					mu.Lock()
					inside--
					mu.Unlock()
					return nil
				})
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxInside)
	})

	t.Run("applies immediately outside a transaction", func(t *testing.T) {
		applied := false
		Apply(context.Background(), func() { applied = true })
		assert.True(t, applied)
	})
}
