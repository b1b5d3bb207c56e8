package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/runtime"
)

func lowerBody(t *testing.T, body []byte, params, results []ir.ValueType, locals ...ir.ValueType) *code {
	t.Helper()
	m := ir.NewModule(ir.FeatureSpecAll())
	sig := ir.InternFunctionType(ir.InternTypeTuple(params...), ir.InternTypeTuple(results...))
	m.Types = []*ir.FunctionType{sig}
	def := &ir.FunctionDef{TypeIndex: 0, LocalTypes: locals, Body: body}
	m.Functions.Defs = []*ir.FunctionDef{def}

	inst := &runtime.Instance{Module: m}
	f := &runtime.FunctionInstance{Name: "f0", Type: sig, Module: inst, Def: def}

	e := New()
	require.NoError(t, e.Compile(f))
	c := e.codeOf(f)
	require.NotNil(t, c)
	return c
}

func TestLower_BranchTargets(t *testing.T) {
	// block, loop, br 0, end, end, end
	c := lowerBody(t, []byte{0x02, 0x40, 0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b, 0x0b}, nil, nil)
	require.Len(t, c.instrs, 6)

	block := c.instrs[0]
	require.Equal(t, ir.OpcodeBlock, block.op)
	require.Equal(t, 4, block.target) // its end

	loop := c.instrs[1]
	require.Equal(t, ir.OpcodeLoop, loop.op)
	require.Equal(t, 3, loop.target) // its end
}

func TestLower_IfElseTargets(t *testing.T) {
	// i32.const 1, if, nop, else, nop, end, end
	c := lowerBody(t, []byte{0x41, 0x01, 0x04, 0x40, 0x01, 0x05, 0x01, 0x0b, 0x0b}, nil, nil)
	ifIns := c.instrs[1]
	require.Equal(t, ir.OpcodeIf, ifIns.op)
	require.Equal(t, 5, ifIns.target)     // the matching end
	require.Equal(t, 4, ifIns.elseTarget) // first instruction of the else arm
}

func TestLower_IfWithoutElse(t *testing.T) {
	// i32.const 1, if, nop, end, end
	c := lowerBody(t, []byte{0x41, 0x01, 0x04, 0x40, 0x01, 0x0b, 0x0b}, nil, nil)
	ifIns := c.instrs[1]
	require.Equal(t, ifIns.target, ifIns.elseTarget)
}

func TestLower_LocalSlots(t *testing.T) {
	c := lowerBody(t, []byte{0x0b},
		[]ir.ValueType{ir.ValueTypeI32, ir.ValueTypeV128},
		nil,
		ir.ValueTypeF64)
	require.Equal(t, 3, c.paramSlots) // i32 + two v128 slots
	require.Equal(t, 4, c.localSlots)
	require.Equal(t, []int{0, 1, 3}, c.localOffset)
	require.Equal(t, []bool{false, true, false}, c.localWide)
}
