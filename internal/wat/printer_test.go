package wat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftwasm/rift/internal/ir"
)

func addModule() *ir.Module {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{ir.InternFunctionType(
		ir.InternTypeTuple(ir.ValueTypeI32, ir.ValueTypeI32),
		ir.InternTypeTuple(ir.ValueTypeI32),
	)}
	m.Functions.Defs = []*ir.FunctionDef{{
		TypeIndex: 0,
		Body:      []byte{0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b},
	}}
	m.Exports = []*ir.Export{{Name: "add", Kind: ir.ObjectKindFunction, Index: 0}}
	return m
}

func TestPrint_AddModule(t *testing.T) {
	out := Print(addModule())

	require.True(t, strings.HasPrefix(out, "(module\n"))
	require.Contains(t, out, "(type $t0 (func (param i32 i32) (result i32)))")
	require.Contains(t, out, `(export "add" (func $f0))`)
	require.Contains(t, out, "(func $f0 (type $t0) (param i32 i32) (result i32)")
	require.Contains(t, out, "local.get 0")
	require.Contains(t, out, "i32.add")
	// The function body is indented one level below the function header.
	require.Contains(t, out, "\n    local.get 0\n")
}

func TestPrint_NamesFromNameSection(t *testing.T) {
	m := addModule()
	m.Names = &ir.NameSection{FunctionNames: ir.NameMap{{Index: 0, Name: "add"}}}
	out := Print(m)
	require.Contains(t, out, "(func $add ")
	require.Contains(t, out, `(export "add" (func $add))`)
}

func TestPrint_ControlLabels(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{ir.InternFunctionType(ir.InternTypeTuple(), ir.InternTypeTuple())}
	m.Functions.Defs = []*ir.FunctionDef{{
		TypeIndex: 0,
		// block, loop, br 0, end, end, end
		Body: []byte{0x02, 0x40, 0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b, 0x0b},
	}}
	out := Print(m)
	require.Contains(t, out, "block $label0")
	require.Contains(t, out, "loop $label1")
	require.Contains(t, out, "br $label1")
	require.Contains(t, out, "end ;; $label1")
	require.Contains(t, out, "end ;; $label0")
}

func TestPrint_MemoryDataAndInits(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Memories.Defs = []*ir.MemoryType{{Size: ir.SizeConstraints{Min: 1, Max: 2}}}
	m.DataSegments = []*ir.DataSegment{{
		Offset: ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 0},
		Data:   []byte("hi\x00"),
	}}
	m.Globals.Defs = []*ir.GlobalDef{{
		Type: ir.GlobalType{ValType: ir.ValueTypeI32, Mutable: true},
		Init: ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 7},
	}}
	out := Print(m)
	require.Contains(t, out, "(memory $mem0 1 2)")
	require.Contains(t, out, `(data (i32.const 0) "hi\00")`)
	require.Contains(t, out, "(global $g0 (mut i32) (i32.const 7))")
}

func TestPrint_MalformedBodyDegrades(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{ir.InternFunctionType(ir.InternTypeTuple(), ir.InternTypeTuple())}
	m.Functions.Defs = []*ir.FunctionDef{{TypeIndex: 0, Body: []byte{0x26, 0x0b}}}
	out := Print(m)
	require.Contains(t, out, ";; <malformed body at offset 0")
}

func TestPrint_LinkingSection(t *testing.T) {
	m := ir.NewModule(ir.FeatureSpecAll())
	// version 2, initFuncs subsection with one entry: priority 1, symbol 0.
	m.UserSections = []*ir.UserSection{{
		Name: "linking",
		Data: []byte{0x02, 0x06, 0x03, 0x01, 0x01, 0x00},
	}}
	out := Print(m)
	require.Contains(t, out, ";; linking section (version 2)")
	require.Contains(t, out, ";;   init funcs (1)")
	require.Contains(t, out, ";;     priority=1 symbol=0")

	// A truncated linking section degrades to a diagnostic comment.
	m.UserSections[0].Data = []byte{0x02, 0x08, 0xff}
	out = Print(m)
	require.Contains(t, out, ";; linking section:")
	require.NotContains(t, out, "panic")
}

func TestNameScope(t *testing.T) {
	s := NewNameScope()
	require.Equal(t, "$add", s.Claim("add"))
	require.Equal(t, "$add_0", s.Claim("add"))
	require.Equal(t, "$add_1", s.Claim("add"))
	require.Equal(t, "$unnamed_0", s.Claim(""))
}
