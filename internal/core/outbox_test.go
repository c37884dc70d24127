package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxPreservesOrder(t *testing.T) {
	o := NewOutbox()
	for i := 0; i < 100; i++ {
		require.NoError(t, o.Send(Frame(fmt.Sprintf("%d", i))))
	}

	<-o.Ready()
	frames := o.Drain()
	require.Len(t, frames, 100)
	for i, f := range frames {
		assert.Equal(t, fmt.Sprintf("%d", i), string(f))
	}
	assert.Empty(t, o.Drain())
}

func TestOutboxSendNeverBlocks(t *testing.T) {
	o := NewOutbox()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				_ = o.Send(Frame("x"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8*500, o.Len())
}

func TestOutboxPerProducerOrder(t *testing.T) {
	o := NewOutbox()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = o.Send(Frame(fmt.Sprintf("%d:%d", p, i)))
			}
		}(p)
	}
	wg.Wait()

	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	for _, f := range o.Drain() {
		var p, i int
		_, err := fmt.Sscanf(string(f), "%d:%d", &p, &i)
		require.NoError(t, err)
		assert.Equal(t, last[p]+1, i)
		last[p] = i
	}
}

func TestOutboxClosed(t *testing.T) {
	o := NewOutbox()
	require.NoError(t, o.Send(Frame("a")))
	o.Close()

	assert.ErrorIs(t, o.Send(Frame("b")), ErrOutboxClosed)
	assert.Empty(t, o.Drain())
}
