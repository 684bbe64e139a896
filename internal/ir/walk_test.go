package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtfs-lang/rtfs/internal/ir"
)

func TestCountNodesLeaf(t *testing.T) {
	lit := &ir.Literal{Base: ir.Base{NodeID: 1}, Value: int64(3)}
	require.Equal(t, 1, ir.CountNodes(lit))
}

func TestCountNodesNilIsZero(t *testing.T) {
	require.Equal(t, 0, ir.CountNodes(nil))
}

func TestCountNodesNestedApply(t *testing.T) {
	// (+ 1 2): Apply + VariableRef + two Literals = 4 nodes.
	apply := &ir.Apply{
		Base: ir.Base{NodeID: 1},
		Fn:   &ir.VariableRef{Base: ir.Base{NodeID: 2}, Name: "+", BindingID: 99},
		Args: []ir.Node{
			&ir.Literal{Base: ir.Base{NodeID: 3}, Value: int64(1)},
			&ir.Literal{Base: ir.Base{NodeID: 4}, Value: int64(2)},
		},
	}
	require.Equal(t, 4, ir.CountNodes(apply))
}

func TestVisitReachesEveryNode(t *testing.T) {
	ifNode := &ir.If{
		Base: ir.Base{NodeID: 1},
		Cond: &ir.Literal{Base: ir.Base{NodeID: 2}, Value: true},
		Then: &ir.Literal{Base: ir.Base{NodeID: 3}, Value: int64(1)},
		Else: &ir.Literal{Base: ir.Base{NodeID: 4}, Value: int64(2)},
	}
	var ids []uint64
	ir.Visit(ifNode, func(n ir.Node) { ids = append(ids, n.ID()) })
	require.ElementsMatch(t, []uint64{1, 2, 3, 4}, ids)
}

func TestVisitSkipsNilElseBranch(t *testing.T) {
	ifNode := &ir.If{
		Base: ir.Base{NodeID: 1},
		Cond: &ir.Literal{Base: ir.Base{NodeID: 2}, Value: true},
		Then: &ir.Literal{Base: ir.Base{NodeID: 3}, Value: int64(1)},
		Else: nil,
	}
	count := 0
	ir.Visit(ifNode, func(ir.Node) { count++ })
	require.Equal(t, 3, count)
	require.Equal(t, 3, ir.CountNodes(ifNode))
}

func TestCountNodesLetAndDo(t *testing.T) {
	binding := ir.LetBinding{
		Binding: &ir.VariableBinding{Base: ir.Base{NodeID: 2}, Name: "x"},
		Init:    &ir.Literal{Base: ir.Base{NodeID: 3}, Value: int64(1)},
	}
	let := &ir.Let{
		Base:     ir.Base{NodeID: 1},
		Bindings: []ir.LetBinding{binding},
		Body: []ir.Node{
			&ir.Do{Base: ir.Base{NodeID: 4}, Exprs: []ir.Node{
				&ir.Literal{Base: ir.Base{NodeID: 5}, Value: int64(2)},
				&ir.Literal{Base: ir.Base{NodeID: 6}, Value: int64(3)},
			}},
		},
	}
	require.Equal(t, 6, ir.CountNodes(let))
}
