package rift

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riftwasm/rift/internal/binary"
	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/validate"
)

// compile round-trips a hand-built module through the binary format and the
// full compile pipeline.
func compile(t *testing.T, r *Runtime, m *ir.Module) *CompiledModule {
	t.Helper()
	compiled, err := r.CompileModule(binary.EncodeModule(m))
	require.NoError(t, err)
	return compiled
}

func instantiate(t *testing.T, r *Runtime, m *ir.Module, linker Linker) (*Compartment, *Instance) {
	t.Helper()
	c := r.NewCompartment()
	t.Cleanup(func() { _ = c.Close() })
	inst, err := c.Instantiate(context.Background(), compile(t, r, m).module, linker)
	require.NoError(t, err)
	return c, inst
}

func requireTrap(t *testing.T, err error, kind TrapKind) *Trap {
	t.Helper()
	tr, ok := AsTrap(err)
	require.True(t, ok, "expected a trap, got %v", err)
	require.Equal(t, kind, tr.Kind, "unexpected trap: %v", tr)
	return tr
}

func i32x2_i32() *FunctionType {
	return NewFunctionType([]ValueType{ValueTypeI32, ValueTypeI32}, []ValueType{ValueTypeI32})
}

func TestCall_Add(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{i32x2_i32()}
	m.Functions.Defs = []*ir.FunctionDef{{
		TypeIndex: 0,
		Body:      []byte{0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b},
	}}
	m.Exports = []*ir.Export{{Name: "add", Kind: ir.ObjectKindFunction, Index: 0}}

	_, inst := instantiate(t, r, m, nil)
	res, err := inst.Call(context.Background(), "add", 2, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, res)
}

func TestMemory_DataSegmentAndOOB(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{NewFunctionType(nil, []ValueType{ValueTypeI32})}
	m.Memories.Defs = []*ir.MemoryType{{Size: ir.SizeConstraints{Min: 1, Max: 1}}}
	m.DataSegments = []*ir.DataSegment{{
		Offset: ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 0},
		Data:   []byte("hi"),
	}}
	m.Functions.Defs = []*ir.FunctionDef{
		// i32.const 0, i32.load8_u, end
		{TypeIndex: 0, Body: []byte{0x41, 0x00, 0x2d, 0x00, 0x00, 0x0b}},
		// i32.const 0, i32.load offset=65533, end: the access ends at 65537.
		{TypeIndex: 0, Body: []byte{0x41, 0x00, 0x28, 0x02, 0xfd, 0xff, 0x03, 0x0b}},
	}
	m.Exports = []*ir.Export{
		{Name: "load8", Kind: ir.ObjectKindFunction, Index: 0},
		{Name: "oob", Kind: ir.ObjectKindFunction, Index: 1},
	}

	_, inst := instantiate(t, r, m, nil)
	res, err := inst.Call(context.Background(), "load8")
	require.NoError(t, err)
	require.Equal(t, uint64(0x68), res[0]) // 'h'

	_, err = inst.Call(context.Background(), "oob")
	tr := requireTrap(t, err, TrapAccessViolation)
	require.NotEmpty(t, tr.CallStack)
}

func TestCallIndirect(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{
		NewFunctionType(nil, []ValueType{ValueTypeI32}),             // t0
		NewFunctionType([]ValueType{ValueTypeI32}, []ValueType{ValueTypeI32}), // t1
	}
	m.Tables.Defs = []*ir.TableType{{ElemType: ir.ElemTypeFuncref, Size: ir.SizeConstraints{Min: 1, Max: 1}}}
	m.TableSegments = []*ir.TableSegment{{
		Offset:  ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 0},
		Indices: []ir.Index{0},
	}}
	m.Functions.Defs = []*ir.FunctionDef{
		// () -> 42
		{TypeIndex: 0, Body: []byte{0x41, 0x2a, 0x0b}},
		// (i) -> table[i]() via call_indirect (type 0)
		{TypeIndex: 1, Body: []byte{0x20, 0x00, 0x11, 0x00, 0x00, 0x0b}},
	}
	m.Exports = []*ir.Export{{Name: "ci", Kind: ir.ObjectKindFunction, Index: 1}}

	_, inst := instantiate(t, r, m, nil)
	res, err := inst.Call(context.Background(), "ci", 0)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)

	// Index 1 is out of bounds of the one-slot table.
	_, err = inst.Call(context.Background(), "ci", 1)
	requireTrap(t, err, TrapAccessViolation)
}

func TestCallIndirect_TypeMismatch(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{
		NewFunctionType(nil, []ValueType{ValueTypeI32}),
		NewFunctionType(nil, []ValueType{ValueTypeI64}),
	}
	m.Tables.Defs = []*ir.TableType{{ElemType: ir.ElemTypeFuncref, Size: ir.SizeConstraints{Min: 1, Max: 1}}}
	m.TableSegments = []*ir.TableSegment{{
		Offset:  ir.InitializerExpression{Op: ir.OpcodeI32Const, I32: 0},
		Indices: []ir.Index{0},
	}}
	m.Functions.Defs = []*ir.FunctionDef{
		{TypeIndex: 0, Body: []byte{0x41, 0x2a, 0x0b}},
		// The slot holds a ()->i32 function but the call demands type 1
		// (()->i64): the target must not be entered.
		{TypeIndex: 1, Body: []byte{0x41, 0x00, 0x11, 0x01, 0x00, 0x0b}},
	}
	m.Exports = []*ir.Export{{Name: "bad", Kind: ir.ObjectKindFunction, Index: 1}}

	_, inst := instantiate(t, r, m, nil)
	_, err := inst.Call(context.Background(), "bad")
	requireTrap(t, err, TrapInvalidIndirectCall)
}

func TestNumericTraps(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{
		i32x2_i32(),
		NewFunctionType(nil, nil),
		NewFunctionType([]ValueType{ValueTypeF32}, []ValueType{ValueTypeI32}),
	}
	m.Functions.Defs = []*ir.FunctionDef{
		// i32.div_s
		{TypeIndex: 0, Body: []byte{0x20, 0x00, 0x20, 0x01, 0x6d, 0x0b}},
		// unreachable
		{TypeIndex: 1, Body: []byte{0x00, 0x0b}},
		// i32.trunc_f32_s
		{TypeIndex: 2, Body: []byte{0x20, 0x00, 0xa8, 0x0b}},
	}
	m.Exports = []*ir.Export{
		{Name: "div", Kind: ir.ObjectKindFunction, Index: 0},
		{Name: "dead", Kind: ir.ObjectKindFunction, Index: 1},
		{Name: "trunc", Kind: ir.ObjectKindFunction, Index: 2},
	}

	_, inst := instantiate(t, r, m, nil)
	ctx := context.Background()

	res, err := inst.Call(ctx, "div", 7, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, res)

	_, err = inst.Call(ctx, "div", 7, 0)
	requireTrap(t, err, TrapIntegerDivideByZero)

	// MinInt32 / -1 overflows.
	_, err = inst.Call(ctx, "div", 0x80000000, 0xffffffff)
	requireTrap(t, err, TrapIntegerOverflow)

	_, err = inst.Call(ctx, "dead")
	requireTrap(t, err, TrapUnreachable)

	// NaN bits for f32.
	_, err = inst.Call(ctx, "trunc", 0x7fc00000)
	requireTrap(t, err, TrapInvalidFloatConversion)
}

func TestStackOverflow(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{NewFunctionType(nil, nil)}
	m.Functions.Defs = []*ir.FunctionDef{{TypeIndex: 0, Body: []byte{0x10, 0x00, 0x0b}}}
	m.Exports = []*ir.Export{{Name: "recurse", Kind: ir.ObjectKindFunction, Index: 0}}

	_, inst := instantiate(t, r, m, nil)
	_, err := inst.Call(context.Background(), "recurse")
	requireTrap(t, err, TrapStackOverflow)
}

func TestHostFunction(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	sig := NewFunctionType([]ValueType{ValueTypeI32}, []ValueType{ValueTypeI32})
	m.Types = []*FunctionType{sig}
	imp := ir.Import{Module: "env", Name: "add1", Type: ir.FunctionObjectType(sig)}
	m.Functions.Imports = []ir.Import{imp}
	m.ImportOrder = []ir.Import{imp}
	m.Functions.Defs = []*ir.FunctionDef{{
		TypeIndex: 0,
		Body:      []byte{0x20, 0x00, 0x10, 0x00, 0x0b}, // local.get 0, call $add1
	}}
	m.Exports = []*ir.Export{{Name: "call_host", Kind: ir.ObjectKindFunction, Index: 1}}

	host := NewHostModule("env").ExportFunction("add1", sig,
		func(ctx context.Context, params []uint64) ([]uint64, error) {
			return []uint64{uint64(uint32(params[0]) + 1)}, nil
		})
	linker := NewNamespaceLinker()
	linker.Define("env", host)

	_, inst := instantiate(t, r, m, linker)
	res, err := inst.Call(context.Background(), "call_host", 41)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)
}

func TestStartFunction(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{
		NewFunctionType(nil, nil),
		NewFunctionType(nil, []ValueType{ValueTypeI32}),
	}
	m.Memories.Defs = []*ir.MemoryType{{Size: ir.SizeConstraints{Min: 1, Max: 1}}}
	m.Functions.Defs = []*ir.FunctionDef{
		// i32.const 0, i32.const 42, i32.store
		{TypeIndex: 0, Body: []byte{0x41, 0x00, 0x41, 0x2a, 0x36, 0x02, 0x00, 0x0b}},
		// i32.const 0, i32.load
		{TypeIndex: 1, Body: []byte{0x41, 0x00, 0x28, 0x02, 0x00, 0x0b}},
	}
	m.StartFunctionIndex = 0
	m.Exports = []*ir.Export{{Name: "get", Kind: ir.ObjectKindFunction, Index: 1}}

	_, inst := instantiate(t, r, m, nil)
	res, err := inst.Call(context.Background(), "get")
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, res)
}

func TestCompartment_Terminate(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{NewFunctionType(nil, nil)}
	m.Functions.Defs = []*ir.FunctionDef{{
		TypeIndex: 0,
		Body:      []byte{0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b}, // loop, br 0
	}}
	m.Exports = []*ir.Export{{Name: "spin", Kind: ir.ObjectKindFunction, Index: 0}}

	c, inst := instantiate(t, r, m, nil)
	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Terminate()
	}()

	_, err := inst.Call(context.Background(), "spin")
	requireTrap(t, err, TrapTerminated)
}

func TestExceptions_CatchAndUncaught(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	tagParams := ir.InternTypeTuple(ir.ValueTypeI32)
	m.Types = []*FunctionType{
		NewFunctionType([]ValueType{ValueTypeI32}, nil), // tag signature for encoding
		NewFunctionType(nil, []ValueType{ValueTypeI32}),
		NewFunctionType(nil, nil),
	}
	m.ExceptionTypes.Defs = []*ir.ExceptionType{{Params: tagParams}}
	m.Functions.Defs = []*ir.FunctionDef{
		// try (result i32) { i32.const 7; throw 0 } catch 0 {} end
		{TypeIndex: 1, Body: []byte{0x06, 0x7f, 0x41, 0x07, 0x08, 0x00, 0x07, 0x00, 0x0b, 0x0b}},
		// throw 0 with no handler
		{TypeIndex: 2, Body: []byte{0x41, 0x01, 0x08, 0x00, 0x0b}},
	}
	m.Exports = []*ir.Export{
		{Name: "catcher", Kind: ir.ObjectKindFunction, Index: 0},
		{Name: "thrower", Kind: ir.ObjectKindFunction, Index: 1},
	}

	_, inst := instantiate(t, r, m, nil)
	res, err := inst.Call(context.Background(), "catcher")
	require.NoError(t, err)
	require.Equal(t, []uint64{7}, res)

	_, err = inst.Call(context.Background(), "thrower")
	requireTrap(t, err, TrapUncaughtException)
}

func TestAtomicWaitNotify(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{
		NewFunctionType([]ValueType{ValueTypeI64}, []ValueType{ValueTypeI32}),
		NewFunctionType(nil, []ValueType{ValueTypeI32}),
	}
	m.Memories.Defs = []*ir.MemoryType{{Shared: true, Size: ir.SizeConstraints{Min: 1, Max: 1}}}
	m.Functions.Defs = []*ir.FunctionDef{
		// (timeout) -> memory.atomic.wait32(addr=0, expected=0, timeout)
		{TypeIndex: 0, Body: []byte{0x41, 0x00, 0x41, 0x00, 0x20, 0x00, 0xfe, 0x01, 0x02, 0x00, 0x0b}},
		// () -> memory.atomic.notify(addr=0, count=1)
		{TypeIndex: 1, Body: []byte{0x41, 0x00, 0x41, 0x01, 0xfe, 0x00, 0x02, 0x00, 0x0b}},
	}
	m.Exports = []*ir.Export{
		{Name: "wait", Kind: ir.ObjectKindFunction, Index: 0},
		{Name: "notify", Kind: ir.ObjectKindFunction, Index: 1},
	}

	_, inst := instantiate(t, r, m, nil)
	ctx := context.Background()

	done := make(chan uint64, 1)
	go func() {
		res, err := inst.Call(ctx, "wait", uint64(time.Second.Nanoseconds()))
		if err != nil {
			done <- 0xdead
			return
		}
		done <- res[0]
	}()

	// The waiter parks (value 0 == expected); a notify wakes it with 0.
	require.Eventually(t, func() bool {
		res, err := inst.Call(ctx, "notify")
		require.NoError(t, err)
		return res[0] == 1
	}, time.Second, time.Millisecond)

	select {
	case v := <-done:
		require.Equal(t, uint64(0), v) // woken
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not wake")
	}
}

func TestCompileModule_Errors(t *testing.T) {
	r := NewRuntime(nil)

	// Malformed bytes surface as MalformedError with an offset.
	_, err := r.CompileModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, 0x01, 0x06, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0f})
	var mErr *binary.MalformedError
	require.ErrorAs(t, err, &mErr)

	// An ill-typed body surfaces as a validation error.
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{NewFunctionType(nil, []ValueType{ValueTypeI32})}
	// i32.const 1, drop, end: nothing left for the declared result.
	m.Functions.Defs = []*ir.FunctionDef{{TypeIndex: 0, Body: []byte{0x41, 0x01, 0x1a, 0x0b}}}
	_, err = r.CompileModule(binary.EncodeModule(m))
	var vErr *validate.Error
	require.ErrorAs(t, err, &vErr)
	require.Equal(t, validate.KindFunction, vErr.Kind)
}

func TestCompiledModule_WATAndEncode(t *testing.T) {
	r := NewRuntime(nil)
	m := ir.NewModule(FeaturesAll())
	m.Types = []*FunctionType{i32x2_i32()}
	m.Functions.Defs = []*ir.FunctionDef{{
		TypeIndex: 0,
		Body:      []byte{0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b},
	}}
	m.Exports = []*ir.Export{{Name: "add", Kind: ir.ObjectKindFunction, Index: 0}}

	compiled := compile(t, r, m)
	wat := compiled.WAT()
	require.Contains(t, wat, "(module")
	require.Contains(t, wat, `(export "add" (func $f0))`)
	require.Contains(t, wat, "i32.add")

	// Encode is the inverse of decode.
	again, err := r.CompileModule(compiled.Encode())
	require.NoError(t, err)
	require.Equal(t, compiled.Encode(), again.Encode())
}
