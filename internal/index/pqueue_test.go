package index

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriorityQueueOrdering(t *testing.T) {
	q := NewPriorityQueue[int]()
	r := rand.New(rand.NewSource(42))
	for _, p := range r.Perm(100) {
		q.Enqueue(p+1, float64(p+1))
	}
	require.Equal(t, 100, q.Len())

	prev := 101
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		require.LessOrEqual(t, v, prev)
		prev = v
	}
	require.Equal(t, 0, q.Len())
}

func TestPriorityQueueEmpty(t *testing.T) {
	q := NewPriorityQueue[string]()
	_, ok := q.Dequeue()
	require.False(t, ok)
	_, ok = q.Peek()
	require.False(t, ok)
}

func TestPriorityQueuePeek(t *testing.T) {
	q := NewPriorityQueue[string]()
	q.Enqueue("low", 1)
	q.Enqueue("high", 9)
	q.Enqueue("mid", 5)

	v, ok := q.Peek()
	require.True(t, ok)
	require.Equal(t, "high", v)
	require.Equal(t, 3, q.Len())

	v, _ = q.Dequeue()
	require.Equal(t, "high", v)
	v, _ = q.Dequeue()
	require.Equal(t, "mid", v)
	v, _ = q.Dequeue()
	require.Equal(t, "low", v)
}

func TestPriorityQueueEqualPriorities(t *testing.T) {
	q := NewPriorityQueue[int]()
	for i := 0; i < 10; i++ {
		q.Enqueue(i, 1)
	}
	// 平局顺序不作保证，只验证全部弹出
	seen := map[int]bool{}
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		seen[v] = true
	}
	require.Len(t, seen, 10)
}
