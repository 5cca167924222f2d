package outbox

import (
	"context"
	"sync"
	"testing"
	"time"

	domoutbox "github.com/Zhima-Mochi/jewelry-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct{ n int }

func (testEvent) EventName() string { return "test.happened" }

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(observability.NopLogger(), Options{})
	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	wg.Add(4)

	for i := 0; i < 2; i++ {
		bus.Subscribe("test.happened", func(ctx context.Context, e domoutbox.Event) error {
			assert.NotNil(t, logctx.From(ctx))
			mu.Lock()
			got = append(got, e.(testEvent).n)
			mu.Unlock()
			wg.Done()
			return nil
		})
	}
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{n: 1}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{n: 2}))
	wg.Wait()

	bus.Stop(context.Background())
	assert.ElementsMatch(t, []int{1, 1, 2, 2}, got)
}

func TestBus_PublishAfterStop(t *testing.T) {
	bus := NewBus(nil, Options{})
	bus.Start(context.Background())
	bus.Stop(context.Background())

	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent{}), ErrStopped)
	bus.Stop(context.Background())
}

func TestBus_StopDrainsQueue(t *testing.T) {
	bus := NewBus(nil, Options{})
	var mu sync.Mutex
	count := 0
	bus.Subscribe("test.happened", func(context.Context, domoutbox.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(), testEvent{n: i}))
	}
	bus.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bus.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}

func TestBus_RecoversHandlerPanic(t *testing.T) {
	bus := NewBus(nil, Options{})
	done := make(chan struct{})
	bus.Subscribe("test.happened", func(context.Context, domoutbox.Event) error {
		panic("boom")
	})
	bus.Subscribe("test.happened", func(context.Context, domoutbox.Event) error {
		close(done)
		return nil
	})
	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second handler never ran")
	}
	bus.Stop(context.Background())
}

func TestBus_PublishHonoursContextWhenFull(t *testing.T) {
	bus := NewBus(nil, Options{QueueSize: 1})
	require.NoError(t, bus.Publish(context.Background(), testEvent{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(ctx, testEvent{}), context.DeadlineExceeded)
}
