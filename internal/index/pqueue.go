package index

import "container/heap"

// 文档注释：最大堆优先队列
// 背景：搜索结果按匹配得分排序取前 N 条；入队出队均为 O(log n)。
// 约束：优先级相等的元素之间不保证相对顺序稳定（堆调整会打乱平局），
// 需要稳定平局顺序时应把插入序号等次级键并入优先级计算。
type PriorityQueue[T any] struct {
	h itemHeap[T]
}

type pqItem[T any] struct {
	item     T
	priority float64
}

type itemHeap[T any] []pqItem[T]

func (h itemHeap[T]) Len() int { return len(h) }

func (h itemHeap[T]) Less(i, j int) bool { return h[i].priority > h[j].priority }

func (h itemHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap[T]) Push(x any) { *h = append(*h, x.(pqItem[T])) }
func (h *itemHeap[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{}
}

func (q *PriorityQueue[T]) Enqueue(item T, priority float64) {
	heap.Push(&q.h, pqItem[T]{item: item, priority: priority})
}

// Dequeue: 取出当前最高优先级元素；队列为空返回零值与 false
func (q *PriorityQueue[T]) Dequeue() (T, bool) {
	if len(q.h) == 0 {
		var zero T
		return zero, false
	}
	it := heap.Pop(&q.h).(pqItem[T])
	return it.item, true
}

// Peek: 查看最高优先级元素但不出队
func (q *PriorityQueue[T]) Peek() (T, bool) {
	if len(q.h) == 0 {
		var zero T
		return zero, false
	}
	return q.h[0].item, true
}

func (q *PriorityQueue[T]) Len() int { return len(q.h) }
