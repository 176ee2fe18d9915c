package huffman

import "fmt"

// GraphNode is one vertex of an exported tree structure. Leaves carry
// their symbol; internal nodes are labeled with an asterisk.
type GraphNode struct {
	ID     int     `json:"id"`
	Label  string  `json:"label"`
	Weight uint64  `json:"weight"`
	Leaf   bool    `json:"leaf"`
	Symbol *Symbol `json:"symbol,omitempty"`
}

// GraphEdge connects a parent node to a child. Bit is 0 for the left
// child and 1 for the right, matching the code bit the branch stands
// for.
type GraphEdge struct {
	From int  `json:"from"`
	To   int  `json:"to"`
	Bit  byte `json:"bit"`
}

// Graph is a renderer-neutral description of a Huffman tree: the nodes
// in preorder plus the parent-child edges labeled with their branch
// bits. It carries everything a visualization needs without committing
// to an output format.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// NewGraph flattens the tree rooted at root. The root gets ID 0.
// A nil root yields an empty graph.
func NewGraph(root *Node) *Graph {
	g := &Graph{}
	if root != nil {
		g.add(root)
	}
	return g
}

func (g *Graph) add(n *Node) int {
	id := len(g.Nodes)
	node := GraphNode{ID: id, Weight: n.Weight, Leaf: n.Leaf()}
	if n.Leaf() {
		sym := n.Symbol
		node.Symbol = &sym
		node.Label = fmt.Sprintf("%q (%d)", rune(sym), n.Weight)
	} else {
		node.Label = fmt.Sprintf("* (%d)", n.Weight)
	}
	g.Nodes = append(g.Nodes, node)

	if !n.Leaf() {
		left := g.add(n.Left)
		g.Edges = append(g.Edges, GraphEdge{From: id, To: left, Bit: 0})
		right := g.add(n.Right)
		g.Edges = append(g.Edges, GraphEdge{From: id, To: right, Bit: 1})
	}
	return id
}
