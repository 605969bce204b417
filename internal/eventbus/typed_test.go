package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[string]()
	ch := bus.Subscribe()
	bus.Publish("hello")
	assert.Equal(t, "hello", <-ch)
	bus.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestTypedBusReplaysLatest(t *testing.T) {
	bus := NewTyped[int]()
	_, ok := bus.Latest()
	assert.False(t, ok)

	bus.Publish(1)
	bus.Publish(2)
	ch := bus.Subscribe()
	assert.Equal(t, 2, <-ch)

	v, ok := bus.Latest()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTyped[int]()
	ch := bus.Subscribe()
	for i := 0; i < DefaultBuffer+3; i++ {
		bus.Publish(i)
	}
	assert.Equal(t, uint64(3), bus.Dropped())
	assert.Len(t, ch, DefaultBuffer)
	assert.Equal(t, 0, <-ch)
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)

	bus.Publish(3)
	_, ok = <-bus.Subscribe()
	assert.False(t, ok)
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	assert.NotPanics(t, func() { bus.Unsubscribe(ch) })
}
