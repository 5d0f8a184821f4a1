package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/yash/flightprice/internal/encoding"
)

// TreeNode is one node of a flattened regression tree. A node with a
// negative Feature is a leaf and carries the predicted Value.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

func (n TreeNode) isLeaf() bool { return n.Feature < 0 }

// DecisionTree is a CART-style regression tree. Samples go left when
// x[feature] <= threshold.
type DecisionTree struct {
	columns []string
	nodes   []TreeNode
}

// NewDecisionTree validates the node table: every child index must point
// forward inside the table, so traversal always terminates.
func NewDecisionTree(columns []string, nodes []TreeNode) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("dtree: no nodes")
	}
	for i, n := range nodes {
		if n.isLeaf() {
			if err := finite(n.Value); err != nil {
				return nil, fmt.Errorf("dtree: leaf %d: %w", i, err)
			}
			continue
		}
		if n.Feature >= len(columns) {
			return nil, fmt.Errorf("dtree: node %d splits on feature %d, model has %d columns", i, n.Feature, len(columns))
		}
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("dtree: node %d has invalid child %d", i, child)
			}
		}
	}

	t := &DecisionTree{
		columns: make([]string, len(columns)),
		nodes:   make([]TreeNode, len(nodes)),
	}
	copy(t.columns, columns)
	copy(t.nodes, nodes)
	return t, nil
}

// Columns returns the training-time column list.
func (t *DecisionTree) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Depth returns the longest root-to-leaf path length.
func (t *DecisionTree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.isLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// Predict walks the tree for one vector.
func (t *DecisionTree) Predict(ctx context.Context, v encoding.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkWidth(t.columns, v); err != nil {
		return 0, err
	}

	i := 0
	for {
		n := t.nodes[i]
		if n.isLeaf() {
			return n.Value, nil
		}
		if v.At(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
