package handoff_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/dudk/audiograph/handoff"
)

func TestPushPop(t *testing.T) {
	q := handoff.New[int](4)
	assert.Equal(t, 0, q.Len())

	var v int
	assert.False(t, q.Pop(&v))

	assert.True(t, q.Push(1))
	assert.True(t, q.Push(2))
	assert.True(t, q.Push(3))
	assert.Equal(t, 3, q.Len())

	assert.True(t, q.Pop(&v))
	assert.Equal(t, 1, v)
	assert.True(t, q.Pop(&v))
	assert.Equal(t, 2, v)
	assert.True(t, q.Pop(&v))
	assert.Equal(t, 3, v)
	assert.False(t, q.Pop(&v))
}

func TestPushFull(t *testing.T) {
	q := handoff.New[int](2)
	assert.True(t, q.Push(1))
	assert.True(t, q.Push(2))
	assert.False(t, q.Push(3))

	var v int
	assert.True(t, q.Pop(&v))
	assert.Equal(t, 1, v)
	assert.True(t, q.Push(4))

	assert.True(t, q.Pop(&v))
	assert.Equal(t, 2, v)
	assert.True(t, q.Pop(&v))
	assert.Equal(t, 4, v)
}

func TestPopLatest(t *testing.T) {
	q := handoff.New[string](8)

	var v string
	assert.False(t, q.PopLatest(&v))

	q.Push("first")
	q.Push("second")
	q.Push("third")

	assert.True(t, q.PopLatest(&v))
	assert.Equal(t, "third", v)
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.PopLatest(&v))
}

func TestCapacityRounding(t *testing.T) {
	tests := []struct {
		capacity int
		expected int
	}{
		{0, 32},
		{1, 1},
		{3, 4},
		{8, 8},
		{33, 64},
	}
	for _, test := range tests {
		q := handoff.New[int](test.capacity)
		assert.Equal(t, test.expected, q.Cap())
	}
}

func TestSingleProducerSingleConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)
	const total = 100000
	q := handoff.New[int](64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if q.Push(i) {
				i++
			}
		}
	}()

	expected := 0
	var v int
	for expected < total {
		if q.Pop(&v) {
			assert.Equal(t, expected, v)
			expected++
		}
	}
	wg.Wait()
}
