package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/trap"
)

// stubEngine records compilations and runs host functions only; guest calls
// return a canned error unless a hook is set.
type stubEngine struct {
	compiled []*FunctionInstance
	onCall   func(f *FunctionInstance, params []uint64) ([]uint64, error)
}

func (e *stubEngine) Compile(f *FunctionInstance) error {
	e.compiled = append(e.compiled, f)
	return nil
}

func (e *stubEngine) Call(ctx context.Context, f *FunctionInstance, params ...uint64) ([]uint64, error) {
	if f.IsHost() {
		return f.GoFunc(ctx, params)
	}
	if e.onCall != nil {
		return e.onCall(f, params)
	}
	return nil, errors.New("stub engine cannot run guest code")
}

func i32Type() *ir.FunctionType {
	return ir.InternFunctionType(ir.InternTypeTuple(), ir.InternTypeTuple(ir.ValueTypeI32))
}

func emptyType() *ir.FunctionType {
	return ir.InternFunctionType(ir.InternTypeTuple(), ir.InternTypeTuple())
}

func TestInstantiate_ResolvesImports(t *testing.T) {
	eng := &stubEngine{}
	c := NewCompartment(eng, nil)
	defer c.Close()

	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{i32Type()}
	imp := ir.Import{Module: "env", Name: "answer", Type: ir.FunctionObjectType(i32Type())}
	m.Functions.Imports = []ir.Import{imp}
	m.ImportOrder = []ir.Import{imp}
	m.Exports = []*ir.Export{{Name: "answer", Kind: ir.ObjectKindFunction, Index: 0}}

	host := NewHostModule("env").ExportFunction("answer", i32Type(),
		func(ctx context.Context, params []uint64) ([]uint64, error) { return []uint64{42}, nil })
	linker := NewNamespaceLinker()
	linker.Define("env", host)

	inst, err := c.Instantiate(context.Background(), m, linker)
	require.NoError(t, err)

	res, err := inst.Call(context.Background(), "answer")
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)
}

func TestInstantiate_LinkErrors(t *testing.T) {
	eng := &stubEngine{}
	c := NewCompartment(eng, nil)
	defer c.Close()

	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{i32Type()}
	imp := ir.Import{Module: "env", Name: "answer", Type: ir.FunctionObjectType(i32Type())}
	m.Functions.Imports = []ir.Import{imp}
	m.ImportOrder = []ir.Import{imp}

	// Missing entirely.
	_, err := c.Instantiate(context.Background(), m, NewNamespaceLinker())
	var linkErr *LinkError
	require.ErrorAs(t, err, &linkErr)
	require.Contains(t, linkErr.Message, "not found")

	// Present with the wrong signature.
	host := NewHostModule("env").ExportFunction("answer", emptyType(),
		func(ctx context.Context, params []uint64) ([]uint64, error) { return nil, nil })
	linker := NewNamespaceLinker()
	linker.Define("env", host)
	_, err = c.Instantiate(context.Background(), m, linker)
	require.ErrorAs(t, err, &linkErr)
	require.Contains(t, linkErr.Message, "signature mismatch")
}

func TestInstantiate_MemoryImportLimits(t *testing.T) {
	eng := &stubEngine{}
	c := NewCompartment(eng, nil)
	defer c.Close()

	provided, err := NewMemoryInstance(&ir.MemoryType{Size: ir.SizeConstraints{Min: 1, Max: 2}})
	require.NoError(t, err)
	defer provided.Close()

	newImporter := func(min, max uint64) *ir.Module {
		m := ir.NewModule(ir.FeatureSpecAll())
		imp := ir.Import{Module: "env", Name: "mem", Type: ir.MemoryObjectType(
			&ir.MemoryType{Size: ir.SizeConstraints{Min: min, Max: max}})}
		m.Memories.Imports = []ir.Import{imp}
		m.ImportOrder = []ir.Import{imp}
		return m
	}
	host := NewHostModule("env").ExportMemory("mem", provided)
	linker := NewNamespaceLinker()
	linker.Define("env", host)

	// Declared [1, unbounded] accepts the provided [1, 2].
	_, err = c.Instantiate(context.Background(), newImporter(1, ir.Unbounded), linker)
	require.NoError(t, err)

	// Declared [2, ...] rejects a memory with min 1.
	_, err = c.Instantiate(context.Background(), newImporter(2, ir.Unbounded), linker)
	var linkErr *LinkError
	require.ErrorAs(t, err, &linkErr)
	require.Contains(t, linkErr.Message, "limits mismatch")
}

func TestInstantiate_DataSegmentAtomicity(t *testing.T) {
	eng := &stubEngine{}
	c := NewCompartment(eng, nil)
	defer c.Close()

	provided, err := NewMemoryInstance(&ir.MemoryType{Size: ir.SizeConstraints{Min: 1, Max: 1}})
	require.NoError(t, err)
	defer provided.Close()

	m := ir.NewModule(ir.FeatureSpecAll())
	imp := ir.Import{Module: "env", Name: "mem", Type: ir.MemoryObjectType(
		&ir.MemoryType{Size: ir.SizeConstraints{Min: 1, Max: ir.Unbounded}})}
	m.Memories.Imports = []ir.Import{imp}
	m.ImportOrder = []ir.Import{imp}
	m.DataSegments = []*ir.DataSegment{
		{Offset: ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 0}, Data: []byte("aa")},
		// Overflows the 64 KiB memory.
		{Offset: ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 65535}, Data: []byte("bb")},
	}

	host := NewHostModule("env").ExportMemory("mem", provided)
	linker := NewNamespaceLinker()
	linker.Define("env", host)

	_, err = c.Instantiate(context.Background(), m, linker)
	var instErr *InstantiationError
	require.ErrorAs(t, err, &instErr)

	// The first, in-bounds segment must not have been applied either.
	b, ok := provided.Read(0, 2)
	require.True(t, ok)
	require.Equal(t, []byte{0, 0}, b)
}

func TestInstantiate_StartFunctionTrap(t *testing.T) {
	eng := &stubEngine{onCall: func(f *FunctionInstance, params []uint64) ([]uint64, error) {
		return nil, trap.New(trap.Unreachable, "boom")
	}}
	c := NewCompartment(eng, nil)
	defer c.Close()

	m := ir.NewModule(ir.FeatureSpecAll())
	m.Types = []*ir.FunctionType{emptyType()}
	m.Functions.Defs = []*ir.FunctionDef{{TypeIndex: 0, Body: []byte{0x00, 0x0b}}}
	m.StartFunctionIndex = 0

	_, err := c.Instantiate(context.Background(), m, nil)
	var instErr *InstantiationError
	require.ErrorAs(t, err, &instErr)
	require.Contains(t, instErr.Message, "start function")
}

func TestInstantiate_GlobalInitializerFromImport(t *testing.T) {
	eng := &stubEngine{}
	c := NewCompartment(eng, nil)
	defer c.Close()

	m := ir.NewModule(ir.FeatureSpecAll())
	gt := ir.GlobalType{ValType: ir.ValueTypeI32}
	imp := ir.Import{Module: "env", Name: "base", Type: ir.GlobalObjectType(&gt)}
	m.Globals.Imports = []ir.Import{imp}
	m.ImportOrder = []ir.Import{imp}
	m.Globals.Defs = []*ir.GlobalDef{{
		Type: ir.GlobalType{ValType: ir.ValueTypeI32, Mutable: true},
		Init: ir.InitializerExpression{Op: ir.OpcodeGlobalGet, GlobalIndex: 0},
	}}

	host := NewHostModule("env").ExportGlobal("base", gt, 7)
	linker := NewNamespaceLinker()
	linker.Define("env", host)

	inst, err := c.Instantiate(context.Background(), m, linker)
	require.NoError(t, err)
	require.Equal(t, uint64(7), inst.Globals[1].Val)
}

func TestInstantiate_FreshTagIdentities(t *testing.T) {
	eng := &stubEngine{}
	c := NewCompartment(eng, nil)
	defer c.Close()

	m := ir.NewModule(ir.FeatureSpecAll())
	params := ir.InternTypeTuple(ir.ValueTypeI32)
	m.ExceptionTypes.Defs = []*ir.ExceptionType{{Params: params}}

	a, err := c.Instantiate(context.Background(), m, nil)
	require.NoError(t, err)
	b, err := c.Instantiate(context.Background(), m, nil)
	require.NoError(t, err)
	require.NotSame(t, a.Tags[0], b.Tags[0])
	require.Same(t, a.Tags[0].Type, b.Tags[0].Type)
}

func TestCompartment_CloseReleasesAndRejects(t *testing.T) {
	eng := &stubEngine{}
	c := NewCompartment(eng, nil)

	m := ir.NewModule(ir.FeatureSpecAll())
	m.Memories.Defs = []*ir.MemoryType{{Size: ir.SizeConstraints{Min: 1, Max: 1}}}
	_, err := c.Instantiate(context.Background(), m, nil)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.True(t, c.Terminated())

	_, err = c.Instantiate(context.Background(), m, nil)
	require.ErrorContains(t, err, "closed")
	// Close is idempotent.
	require.NoError(t, c.Close())
}
