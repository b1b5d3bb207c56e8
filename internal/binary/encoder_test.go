package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftwasm/rift/internal/ir"
)

// testModule builds a module exercising every standard section.
func testModule() *ir.Module {
	m := ir.NewModule(ir.FeatureSpecAll())

	addType := ir.InternFunctionType(
		ir.InternTypeTuple(ir.ValueTypeI32, ir.ValueTypeI32),
		ir.InternTypeTuple(ir.ValueTypeI32),
	)
	voidType := ir.InternFunctionType(ir.InternTypeTuple(), ir.InternTypeTuple())
	m.Types = []*ir.FunctionType{addType, voidType}

	imp := ir.Import{Module: "env", Name: "host_add", Type: ir.FunctionObjectType(addType)}
	m.Functions.Imports = []ir.Import{imp}
	m.ImportOrder = []ir.Import{imp}

	m.Functions.Defs = []*ir.FunctionDef{
		{
			TypeIndex:  0,
			LocalTypes: []ir.ValueType{ir.ValueTypeI64, ir.ValueTypeI64, ir.ValueTypeF32},
			// local.get 0, local.get 1, i32.add, end
			Body: []byte{0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b},
		},
		{TypeIndex: 1, Body: []byte{0x0b}},
	}

	m.Tables.Defs = []*ir.TableType{{
		ElemType: ir.ElemTypeFuncref,
		Size:     ir.SizeConstraints{Min: 2, Max: 10},
	}}
	m.Memories.Defs = []*ir.MemoryType{{Size: ir.SizeConstraints{Min: 1, Max: ir.Unbounded}}}
	m.Globals.Defs = []*ir.GlobalDef{{
		Type: ir.GlobalType{ValType: ir.ValueTypeI32, Mutable: true},
		Init: ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 41},
	}}
	m.TableSegments = []*ir.TableSegment{{
		Offset:  ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 0},
		Indices: []ir.Index{1, 2},
	}}
	m.DataSegments = []*ir.DataSegment{{
		Offset: ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 8},
		Data:   []byte("hi"),
	}}
	m.Exports = []*ir.Export{
		{Name: "add", Kind: ir.ObjectKindFunction, Index: 1},
		{Name: "mem", Kind: ir.ObjectKindMemory, Index: 0},
	}
	start := ir.Index(2)
	m.StartFunctionIndex = start
	m.UserSections = []*ir.UserSection{{
		Name: "producer", Data: []byte{0x01, 0x02}, AfterSection: ir.SectionIDData,
	}}
	return m
}

func requireModulesEqual(t *testing.T, exp, act *ir.Module) {
	t.Helper()
	require.Equal(t, exp.Types, act.Types)
	require.Equal(t, exp.ImportOrder, act.ImportOrder)
	require.Equal(t, exp.Functions.Imports, act.Functions.Imports)
	require.Equal(t, exp.Functions.Defs, act.Functions.Defs)
	require.Equal(t, exp.Tables.Defs, act.Tables.Defs)
	require.Equal(t, exp.Memories.Defs, act.Memories.Defs)
	require.Equal(t, exp.Globals.Defs, act.Globals.Defs)
	require.Equal(t, exp.TableSegments, act.TableSegments)
	require.Equal(t, exp.DataSegments, act.DataSegments)
	require.Equal(t, exp.Exports, act.Exports)
	require.Equal(t, exp.StartFunctionIndex, act.StartFunctionIndex)
	require.Equal(t, exp.UserSections, act.UserSections)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := testModule()
	encoded := EncodeModule(m)

	decoded, err := DecodeModule(encoded, ir.FeatureSpecAll())
	require.NoError(t, err)
	requireModulesEqual(t, m, decoded)

	// A second generation is byte-identical: encoding is canonical over a
	// decoded module.
	require.Equal(t, encoded, EncodeModule(decoded))
}

func TestEncodeDecodeRoundTrip_SharedMemory(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Memories.Defs = []*ir.MemoryType{{Shared: true, Size: ir.SizeConstraints{Min: 1, Max: 1}}}
	decoded, err := DecodeModule(EncodeModule(m), ir.FeatureSpecAll())
	require.NoError(t, err)
	require.Equal(t, m.Memories.Defs, decoded.Memories.Defs)
}

func TestEncodeDecodeRoundTrip_Tags(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	params := ir.InternTypeTuple(ir.ValueTypeI32)
	m.Types = []*ir.FunctionType{ir.InternFunctionType(params, ir.InternTypeTuple())}
	m.ExceptionTypes.Defs = []*ir.ExceptionType{{Params: params}}

	decoded, err := DecodeModule(EncodeModule(m), ir.FeatureSpecAll())
	require.NoError(t, err)
	require.Equal(t, m.ExceptionTypes.Defs, decoded.ExceptionTypes.Defs)
}
