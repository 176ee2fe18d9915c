package huffman

import (
	"container/heap"
	"errors"
	"sort"
)

// ErrNoSymbols is returned by Build when the frequency table is empty.
var ErrNoSymbols = errors.New("no symbols in frequency table")

// Node is a vertex of a Huffman tree. A node is a leaf when both
// children are nil; internal nodes always have exactly two children
// and weigh the sum of their children's weights.
type Node struct {
	Symbol Symbol // meaningful on leaves only
	Weight uint64
	Left   *Node
	Right  *Node

	ord int // creation ordinal, breaks weight ties
}

// Leaf reports whether n is a leaf node.
func (n *Node) Leaf() bool {
	return n.Left == nil && n.Right == nil
}

// NodeInfo is a snapshot of a single queue node, recorded in the build
// trace. The ID is stable across the whole build: leaves are numbered
// 0..N-1 in ascending symbol order, merged nodes N, N+1, ... in merge
// order.
type NodeInfo struct {
	ID     int    `json:"id"`
	Leaf   bool   `json:"leaf"`
	Symbol Symbol `json:"symbol"`
	Weight uint64 `json:"weight"`
}

// BuildStep records one merge: the two nodes extracted from the queue,
// the node that replaced them, and the queue contents after the merge
// in ascending (weight, id) order.
type BuildStep struct {
	Left   NodeInfo   `json:"left"`
	Right  NodeInfo   `json:"right"`
	Merged NodeInfo   `json:"merged"`
	Queue  []NodeInfo `json:"queue"`
}

// BuildTrace records tree construction step by step for inspection and
// visualization: the initial queue and every merge in order.
type BuildTrace struct {
	Initial []NodeInfo  `json:"initial"`
	Steps   []BuildStep `json:"steps"`
}

// Build constructs the Huffman tree for the given frequency table by
// repeatedly merging the two minimum-weight nodes. Equal weights are
// resolved by creation order: leaves are created in ascending symbol
// order before the first merge, merged nodes in merge order, so every
// run over the same table produces the same tree and the same trace.
//
// A table with a single symbol yields that leaf as the root and a
// trace with no steps. An empty table yields ErrNoSymbols.
func Build(ft FrequencyTable) (*Node, *BuildTrace, error) {
	if len(ft) == 0 {
		return nil, nil, ErrNoSymbols
	}

	symbols := make([]Symbol, 0, len(ft))
	for sym := range ft {
		symbols = append(symbols, sym)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	queue := make(nodeQueue, 0, len(symbols))
	for i, sym := range symbols {
		queue = append(queue, &Node{Symbol: sym, Weight: ft[sym], ord: i})
	}
	heap.Init(&queue)

	trace := &BuildTrace{Initial: snapshot(queue)}

	ord := len(symbols)
	for queue.Len() > 1 {
		left := heap.Pop(&queue).(*Node)
		right := heap.Pop(&queue).(*Node)

		merged := &Node{
			Weight: left.Weight + right.Weight,
			Left:   left,
			Right:  right,
			ord:    ord,
		}
		ord++
		heap.Push(&queue, merged)

		trace.Steps = append(trace.Steps, BuildStep{
			Left:   info(left),
			Right:  info(right),
			Merged: info(merged),
			Queue:  snapshot(queue),
		})
	}

	return queue[0], trace, nil
}

func info(n *Node) NodeInfo {
	return NodeInfo{ID: n.ord, Leaf: n.Leaf(), Symbol: n.Symbol, Weight: n.Weight}
}

// snapshot lists the queue contents in ascending (weight, id) order
// without disturbing the heap.
func snapshot(queue nodeQueue) []NodeInfo {
	nodes := make([]*Node, len(queue))
	copy(nodes, queue)
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Weight != nodes[j].Weight {
			return nodes[i].Weight < nodes[j].Weight
		}
		return nodes[i].ord < nodes[j].ord
	})

	infos := make([]NodeInfo, len(nodes))
	for i, n := range nodes {
		infos[i] = info(n)
	}
	return infos
}

// nodeQueue is a min-heap of nodes ordered by (weight, creation).
type nodeQueue []*Node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].Weight != q[j].Weight {
		return q[i].Weight < q[j].Weight
	}
	return q[i].ord < q[j].ord
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*Node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return node
}
