package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftwasm/rift/internal/ir"
)

func i32i32_i32() *ir.FunctionType {
	return ir.InternFunctionType(
		ir.InternTypeTuple(ir.ValueTypeI32, ir.ValueTypeI32),
		ir.InternTypeTuple(ir.ValueTypeI32),
	)
}

func void_i32() *ir.FunctionType {
	return ir.InternFunctionType(ir.InternTypeTuple(), ir.InternTypeTuple(ir.ValueTypeI32))
}

func void_void() *ir.FunctionType {
	return ir.InternFunctionType(ir.InternTypeTuple(), ir.InternTypeTuple())
}

// singleFunctionModule builds a module with one defined function of the
// given signature and raw body.
func singleFunctionModule(sig *ir.FunctionType, body []byte, locals ...ir.ValueType) *ir.Module {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{sig}
	m.Functions.Defs = []*ir.FunctionDef{{TypeIndex: 0, LocalTypes: locals, Body: body}}
	return m
}

func TestValidateFunctionBody(t *testing.T) {
	tests := []struct {
		name   string
		sig    *ir.FunctionType
		body   []byte
		locals []ir.ValueType
		expErr string
	}{
		{
			name: "add params",
			sig:  i32i32_i32(),
			body: []byte{0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b}, // local.get 0, local.get 1, i32.add, end
		},
		{
			name:   "drop leaves nothing for the result",
			sig:    void_i32(),
			body:   []byte{0x41, 0x01, 0x1a, 0x0b}, // i32.const 1, drop, end
			expErr: "operand stack underflow",
		},
		{
			name:   "wrong result type",
			sig:    void_i32(),
			body:   []byte{0x42, 0x01, 0x0b}, // i64.const 1, end
			expErr: "type mismatch",
		},
		{
			name: "unreachable conjures any operands",
			sig:  void_i32(),
			body: []byte{0x00, 0x6a, 0x0b}, // unreachable, i32.add, end
		},
		{
			name: "br makes the rest polymorphic",
			sig:  void_i32(),
			// block (result i32), i32.const 7, br 0, i32.add, end, end
			body: []byte{0x02, 0x7f, 0x41, 0x07, 0x0c, 0x00, 0x6a, 0x0b, 0x0b},
		},
		{
			name:   "leftover operands at end of block",
			sig:    void_void(),
			body:   []byte{0x02, 0x40, 0x41, 0x01, 0x0b, 0x0b}, // block, i32.const 1, end, end
			expErr: "operands left on the stack",
		},
		{
			name:   "else outside if",
			sig:    void_void(),
			body:   []byte{0x02, 0x40, 0x05, 0x0b, 0x0b},
			expErr: "else outside an if",
		},
		{
			name: "if else with result",
			sig:  void_i32(),
			// i32.const 1, if (result i32), i32.const 2, else, i32.const 3, end, end
			body: []byte{0x41, 0x01, 0x04, 0x7f, 0x41, 0x02, 0x05, 0x41, 0x03, 0x0b, 0x0b},
		},
		{
			name:   "if without else needing a result",
			sig:    void_i32(),
			body:   []byte{0x41, 0x01, 0x04, 0x7f, 0x41, 0x02, 0x0b, 0x0b},
			expErr: "if without else",
		},
		{
			name:   "branch depth out of range",
			sig:    void_void(),
			body:   []byte{0x0c, 0x05, 0x0b}, // br 5, end
			expErr: "branch depth",
		},
		{
			name: "loop label carries params not results",
			sig:  void_void(),
			// loop, br 0 is legal with no operands even though the loop as a
			// block has no results either; the label is the loop head.
			body: []byte{0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b},
		},
		{
			name:   "local index out of range",
			sig:    void_void(),
			body:   []byte{0x20, 0x02, 0x1a, 0x0b},
			expErr: "local index 2 out of range",
		},
		{
			name:   "load without memory",
			sig:    void_i32(),
			body:   []byte{0x41, 0x00, 0x28, 0x02, 0x00, 0x0b},
			expErr: "requires a memory",
		},
		{
			name:   "select operands disagree",
			sig:    void_void(),
			body:   []byte{0x41, 0x00, 0x42, 0x00, 0x41, 0x01, 0x1b, 0x1a, 0x0b},
			expErr: "select operands disagree",
		},
		{
			name:   "call_indirect without table",
			sig:    void_void(),
			body:   []byte{0x41, 0x00, 0x11, 0x00, 0x00, 0x1a, 0x0b},
			expErr: "table index 0 out of range",
		},
		{
			name:   "trailing operators after final end",
			sig:    void_void(),
			body:   []byte{0x0b, 0x01, 0x0b},
			expErr: "after the function body's final end",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			m := singleFunctionModule(tc.sig, tc.body, tc.locals...)
			err := Module(m)
			if tc.expErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.expErr)

			var vErr *Error
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, KindFunction, vErr.Kind)
			require.Equal(t, ir.Index(0), vErr.FunctionIndex)
			require.GreaterOrEqual(t, vErr.Offset, 0)
		})
	}
}

func TestValidateFunctionBody_MemoryOps(t *testing.T) {
	withMemory := func(sig *ir.FunctionType, body []byte) *ir.Module {
		m := singleFunctionModule(sig, body)
		m.Memories.Defs = []*ir.MemoryType{{Size: ir.SizeConstraints{Min: 1, Max: ir.Unbounded}}}
		return m
	}

	// i32.const 0, i32.load align=2 offset=0, drop, end
	ok := withMemory(void_void(), []byte{0x41, 0x00, 0x28, 0x02, 0x00, 0x1a, 0x0b})
	require.NoError(t, Module(ok))

	// alignment 2^3 exceeds i32.load's natural 2^2
	bad := withMemory(void_void(), []byte{0x41, 0x00, 0x28, 0x03, 0x00, 0x1a, 0x0b})
	require.ErrorContains(t, Module(bad), "exceeds the natural alignment")
}

func TestValidateModule_Globals(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Globals.Defs = []*ir.GlobalDef{{
		Type: ir.GlobalType{ValType: ir.ValueTypeI32},
		Init: ir.InitializerExpression{Op: ir.OpcodeI64Const, I64: 1},
	}}
	require.ErrorContains(t, Module(m), "does not match declared")

	// get_global initializer referencing a defined (non-import) global.
	m = ir.NewModule(ir.FeatureSpecAll())
	m.Globals.Defs = []*ir.GlobalDef{
		{Type: ir.GlobalType{ValType: ir.ValueTypeI32}, Init: ir.InitializerExpression{Op: ir.OpcodeI32Const}},
		{Type: ir.GlobalType{ValType: ir.ValueTypeI32}, Init: ir.InitializerExpression{Op: ir.OpcodeGlobalGet, GlobalIndex: 0}},
	}
	require.ErrorContains(t, Module(m), "not an import")
}

func TestValidateModule_Exports(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{void_void()}
	m.Functions.Defs = []*ir.FunctionDef{{TypeIndex: 0, Body: []byte{0x0b}}}
	m.Exports = []*ir.Export{
		{Name: "f", Kind: ir.ObjectKindFunction, Index: 0},
		{Name: "f", Kind: ir.ObjectKindFunction, Index: 0},
	}
	require.ErrorContains(t, Module(m), "duplicate export name")

	m.Exports = []*ir.Export{{Name: "g", Kind: ir.ObjectKindFunction, Index: 9}}
	require.ErrorContains(t, Module(m), "out of range")
}

func TestValidateModule_Limits(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Memories.Defs = []*ir.MemoryType{{Size: ir.SizeConstraints{Min: 5, Max: 2}}}
	require.ErrorContains(t, Module(m), "min 5 exceeds max 2")

	m = ir.NewModule(ir.FeatureSpecAll())
	m.Memories.Defs = []*ir.MemoryType{{Shared: true, Size: ir.SizeConstraints{Min: 1, Max: ir.Unbounded}}}
	require.ErrorContains(t, Module(m), "must be bounded")

	m = ir.NewModule(ir.FeatureSpecMVP())
	m.Memories.Defs = []*ir.MemoryType{
		{Size: ir.SizeConstraints{Min: 1, Max: ir.Unbounded}},
		{Size: ir.SizeConstraints{Min: 1, Max: ir.Unbounded}},
	}
	require.ErrorContains(t, Module(m), "multi-memory is disabled")
}

func TestValidateModule_Start(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{void_i32()}
	m.Functions.Defs = []*ir.FunctionDef{{TypeIndex: 0, Body: []byte{0x41, 0x00, 0x0b}}}
	m.StartFunctionIndex = 0
	require.ErrorContains(t, Module(m), "empty signature")
}

func TestValidateModule_Segments(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Memories.Defs = []*ir.MemoryType{{Size: ir.SizeConstraints{Min: 1, Max: ir.Unbounded}}}
	m.DataSegments = []*ir.DataSegment{{
		Offset: ir.InitializerExpression{Op: ir.OpcodeI64Const},
		Data:   []byte("hi"),
	}}
	require.ErrorContains(t, Module(m), "offset must be i32")

	m = ir.NewModule(ir.FeatureSpecAll())
	m.Tables.Defs = []*ir.TableType{{ElemType: ir.ElemTypeFuncref, Size: ir.SizeConstraints{Min: 1, Max: ir.Unbounded}}}
	m.TableSegments = []*ir.TableSegment{{
		Offset:  ir.InitializerExpression{Op: ir.OpcodeI32Const},
		Indices: []ir.Index{4},
	}}
	require.ErrorContains(t, Module(m), "function index 4 out of range")
}
