package validate

import (
	"fmt"

	"github.com/riftwasm/rift/internal/ir"
)

type frameKind byte

const (
	kindFunction frameKind = iota
	kindBlock
	kindLoop
	kindIfThen
	kindIfElse
	kindTry
	kindCatch
)

// controlFrame is one entry of the control stack. startTypes are the block
// parameters (pushed on entry), endTypes the results demanded at end.
// height is the operand stack depth at entry, before the parameters.
type controlFrame struct {
	kind        frameKind
	startTypes  *ir.TypeTuple
	endTypes    *ir.TypeTuple
	height      int
	unreachable bool
}

// labelTypes are the operand types a branch to this frame carries: the
// parameters for a loop (the continuation is the loop head), the results
// otherwise.
func (f *controlFrame) labelTypes() *ir.TypeTuple {
	if f.kind == kindLoop {
		return f.startTypes
	}
	return f.endTypes
}

type funcValidator struct {
	m      *ir.Module
	fi     ir.Index
	sig    *ir.FunctionType
	locals []ir.ValueType
	stack  []ir.ValueType
	frames []controlFrame
	pc     int
}

func (v *funcValidator) errf(format string, args ...interface{}) error {
	return &Error{Kind: KindFunction, FunctionIndex: v.fi, Offset: v.pc, Message: fmt.Sprintf(format, args...)}
}

func (v *funcValidator) push(t ir.ValueType) {
	v.stack = append(v.stack, t)
}

func (v *funcValidator) pushTuple(tt *ir.TypeTuple) {
	v.stack = append(v.stack, tt.Types...)
}

// pop removes the top operand. Below the current frame's entry height the
// stack is polymorphic if the frame is unreachable: the demanded type is
// conjured as ValueTypeAny.
func (v *funcValidator) pop() (ir.ValueType, error) {
	f := &v.frames[len(v.frames)-1]
	if len(v.stack) == f.height {
		if f.unreachable {
			return ir.ValueTypeAny, nil
		}
		return 0, v.errf("operand stack underflow")
	}
	t := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
	return t, nil
}

func (v *funcValidator) popExpect(expect ir.ValueType) error {
	t, err := v.pop()
	if err != nil {
		return err
	}
	if t != expect && t != ir.ValueTypeAny && expect != ir.ValueTypeAny {
		return v.errf("type mismatch: expected %s, found %s", ir.ValueTypeName(expect), ir.ValueTypeName(t))
	}
	return nil
}

func (v *funcValidator) popTuple(tt *ir.TypeTuple) error {
	for i := tt.Arity() - 1; i >= 0; i-- {
		if err := v.popExpect(tt.Types[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *funcValidator) pushFrame(kind frameKind, start, end *ir.TypeTuple) {
	v.frames = append(v.frames, controlFrame{kind: kind, startTypes: start, endTypes: end, height: len(v.stack)})
	v.pushTuple(start)
}

// popFrame demands the frame's end types and the exact entry height, then
// removes the frame. The unreachable shortfall rule is built into pop.
func (v *funcValidator) popFrame() (controlFrame, error) {
	f := v.frames[len(v.frames)-1]
	if err := v.popTuple(f.endTypes); err != nil {
		return f, err
	}
	if len(v.stack) != f.height {
		return f, v.errf("%d operands left on the stack at the end of a block", len(v.stack)-f.height)
	}
	v.frames = v.frames[:len(v.frames)-1]
	return f, nil
}

// setUnreachable discards operands above the entry height and marks the
// current frame polymorphic.
func (v *funcValidator) setUnreachable() {
	f := &v.frames[len(v.frames)-1]
	v.stack = v.stack[:f.height]
	f.unreachable = true
}

func (v *funcValidator) frameAt(depth ir.Index) (*controlFrame, error) {
	if int(depth) >= len(v.frames) {
		return nil, v.errf("branch depth %d exceeds control stack of %d", depth, len(v.frames))
	}
	return &v.frames[len(v.frames)-1-int(depth)], nil
}

func (v *funcValidator) localType(i ir.Index) (ir.ValueType, error) {
	if int(i) >= len(v.locals) {
		return 0, v.errf("local index %d out of range for %d locals", i, len(v.locals))
	}
	return v.locals[i], nil
}

// validateFunctionBody walks the operator stream of one function with the
// operand and control stacks demanded by the stack-polymorphic type system.
func validateFunctionBody(m *ir.Module, fi ir.Index, def *ir.FunctionDef) error {
	sig := m.Types[def.TypeIndex]
	locals := make([]ir.ValueType, 0, sig.Params.Arity()+len(def.LocalTypes))
	locals = append(locals, sig.Params.Types...)
	locals = append(locals, def.LocalTypes...)

	v := &funcValidator{m: m, fi: fi, sig: sig, locals: locals}
	v.frames = []controlFrame{{kind: kindFunction, startTypes: ir.InternTypeTuple(), endTypes: sig.Results}}

	body := def.Body
	for v.pc < len(body) {
		op, imm, n, err := ir.DecodeOperator(body, v.pc, m.Features)
		if err != nil {
			return v.errf("%v", err)
		}
		if err := v.validateOp(op, imm); err != nil {
			return err
		}
		v.pc += n
		if len(v.frames) == 0 {
			if v.pc != len(body) {
				return v.errf("operators after the function body's final end")
			}
			if len(v.stack) != sig.Results.Arity() {
				return v.errf("function leaves %d operands for %d results", len(v.stack), sig.Results.Arity())
			}
			return nil
		}
	}
	return v.errf("function body not terminated by end")
}

func (v *funcValidator) validateOp(op ir.Opcode, imm ir.Immediate) error {
	switch op {
	case ir.OpcodeUnreachable:
		v.setUnreachable()
	case ir.OpcodeNop:
	case ir.OpcodeBlock, ir.OpcodeLoop, ir.OpcodeTry:
		ft, err := v.m.ResolveBlockType(imm.BlockType)
		if err != nil {
			return v.errf("%v", err)
		}
		if err := v.popTuple(ft.Params); err != nil {
			return err
		}
		kind := map[ir.Opcode]frameKind{ir.OpcodeBlock: kindBlock, ir.OpcodeLoop: kindLoop, ir.OpcodeTry: kindTry}[op]
		v.pushFrame(kind, ft.Params, ft.Results)
	case ir.OpcodeIf:
		ft, err := v.m.ResolveBlockType(imm.BlockType)
		if err != nil {
			return v.errf("%v", err)
		}
		if err := v.popExpect(ir.ValueTypeI32); err != nil {
			return err
		}
		if err := v.popTuple(ft.Params); err != nil {
			return err
		}
		v.pushFrame(kindIfThen, ft.Params, ft.Results)
	case ir.OpcodeElse:
		f, err := v.popFrame()
		if err != nil {
			return err
		}
		if f.kind != kindIfThen {
			return v.errf("else outside an if block")
		}
		v.pushFrame(kindIfElse, f.startTypes, f.endTypes)
	case ir.OpcodeCatch:
		f, err := v.popFrame()
		if err != nil {
			return err
		}
		if f.kind != kindTry {
			return v.errf("catch outside a try block")
		}
		et := v.m.ExceptionType(imm.Index)
		if et == nil {
			return v.errf("exception type index %d out of range", imm.Index)
		}
		v.pushFrame(kindCatch, et.Params, f.endTypes)
	case ir.OpcodeEnd:
		f, err := v.popFrame()
		if err != nil {
			return err
		}
		if f.kind == kindIfThen && f.startTypes != f.endTypes {
			return v.errf("if without else requires matching parameter and result types")
		}
		v.pushTuple(f.endTypes)
	case ir.OpcodeBr:
		f, err := v.frameAt(imm.Index)
		if err != nil {
			return err
		}
		if err := v.popTuple(f.labelTypes()); err != nil {
			return err
		}
		v.setUnreachable()
	case ir.OpcodeBrIf:
		if err := v.popExpect(ir.ValueTypeI32); err != nil {
			return err
		}
		f, err := v.frameAt(imm.Index)
		if err != nil {
			return err
		}
		label := f.labelTypes()
		if err := v.popTuple(label); err != nil {
			return err
		}
		v.pushTuple(label)
	case ir.OpcodeBrTable:
		if err := v.popExpect(ir.ValueTypeI32); err != nil {
			return err
		}
		def, err := v.frameAt(imm.DefaultDepth)
		if err != nil {
			return err
		}
		label := def.labelTypes()
		for _, depth := range imm.Depths {
			f, err := v.frameAt(depth)
			if err != nil {
				return err
			}
			// Interning makes label compatibility a pointer comparison.
			if f.labelTypes() != label {
				return v.errf("br_table targets have inconsistent label types")
			}
		}
		if err := v.popTuple(label); err != nil {
			return err
		}
		v.setUnreachable()
	case ir.OpcodeReturn:
		if err := v.popTuple(v.sig.Results); err != nil {
			return err
		}
		v.setUnreachable()
	case ir.OpcodeCall:
		ft := v.m.FunctionType(imm.Index)
		if ft == nil {
			return v.errf("call function index %d out of range", imm.Index)
		}
		if err := v.popTuple(ft.Params); err != nil {
			return err
		}
		v.pushTuple(ft.Results)
	case ir.OpcodeCallIndirect:
		if imm.TableIndex >= v.m.Tables.Size() {
			return v.errf("call_indirect table index %d out of range", imm.TableIndex)
		}
		if int(imm.TypeIndex) >= len(v.m.Types) {
			return v.errf("call_indirect type index %d out of range", imm.TypeIndex)
		}
		ft := v.m.Types[imm.TypeIndex]
		if err := v.popExpect(ir.ValueTypeI32); err != nil {
			return err
		}
		if err := v.popTuple(ft.Params); err != nil {
			return err
		}
		v.pushTuple(ft.Results)
	case ir.OpcodeThrow:
		et := v.m.ExceptionType(imm.Index)
		if et == nil {
			return v.errf("throw exception type index %d out of range", imm.Index)
		}
		if err := v.popTuple(et.Params); err != nil {
			return err
		}
		v.setUnreachable()
	case ir.OpcodeRethrow:
		inCatch := false
		for _, f := range v.frames {
			if f.kind == kindCatch {
				inCatch = true
				break
			}
		}
		if !inCatch {
			return v.errf("rethrow outside a catch block")
		}
		v.setUnreachable()
	case ir.OpcodeDrop:
		if _, err := v.pop(); err != nil {
			return err
		}
	case ir.OpcodeSelect:
		if err := v.popExpect(ir.ValueTypeI32); err != nil {
			return err
		}
		a, err := v.pop()
		if err != nil {
			return err
		}
		b, err := v.pop()
		if err != nil {
			return err
		}
		if a != b && a != ir.ValueTypeAny && b != ir.ValueTypeAny {
			return v.errf("select operands disagree: %s vs %s", ir.ValueTypeName(a), ir.ValueTypeName(b))
		}
		if a == ir.ValueTypeAny {
			v.push(b)
		} else {
			v.push(a)
		}
	case ir.OpcodeLocalGet:
		t, err := v.localType(imm.Index)
		if err != nil {
			return err
		}
		v.push(t)
	case ir.OpcodeLocalSet:
		t, err := v.localType(imm.Index)
		if err != nil {
			return err
		}
		if err := v.popExpect(t); err != nil {
			return err
		}
	case ir.OpcodeLocalTee:
		t, err := v.localType(imm.Index)
		if err != nil {
			return err
		}
		if err := v.popExpect(t); err != nil {
			return err
		}
		v.push(t)
	case ir.OpcodeGlobalGet:
		gt := v.m.GlobalType(imm.Index)
		if gt == nil {
			return v.errf("global index %d out of range", imm.Index)
		}
		v.push(gt.ValType)
	case ir.OpcodeGlobalSet:
		gt := v.m.GlobalType(imm.Index)
		if gt == nil {
			return v.errf("global index %d out of range", imm.Index)
		}
		if !gt.Mutable {
			return v.errf("global.set on immutable global %d", imm.Index)
		}
		if err := v.popExpect(gt.ValType); err != nil {
			return err
		}
	default:
		return v.validateOpDefault(op, imm)
	}
	return nil
}

// validateOpDefault covers memory accesses and the closed numeric/SIMD/
// atomic families whose stack effects live in opSignatures.
func (v *funcValidator) validateOpDefault(op ir.Opcode, imm ir.Immediate) error {
	info, ok := ir.LookupOperator(op)
	if !ok {
		return v.errf("unknown opcode 0x%x", uint32(op))
	}

	if info.Imm == ir.ImmLoadStore || requiresMemory(op) {
		if v.m.Memories.Size() == 0 {
			return v.errf("%s requires a memory", info.Name)
		}
	}
	if info.Imm == ir.ImmLoadStore {
		if op.Prefix() == ir.AtomicPrefix {
			if imm.AlignLog2 != info.NaturalAlign {
				return v.errf("%s alignment must equal the natural alignment %d", info.Name, info.NaturalAlign)
			}
		} else if imm.AlignLog2 > info.NaturalAlign {
			return v.errf("%s alignment 2^%d exceeds the natural alignment 2^%d", info.Name, imm.AlignLog2, info.NaturalAlign)
		}
	}
	if info.Imm == ir.ImmLane {
		if uint32(imm.LaneIndex) >= laneCounts[op] {
			return v.errf("%s lane %d out of range", info.Name, imm.LaneIndex)
		}
	}
	if info.Imm == ir.ImmShuffle {
		for _, l := range imm.Lanes {
			if l >= 32 {
				return v.errf("shuffle lane %d out of range", l)
			}
		}
	}

	sig, ok := opSignatures[op]
	if !ok {
		return v.errf("opcode %s is not valid in a function body", info.Name)
	}
	for i := len(sig.pops) - 1; i >= 0; i-- {
		if err := v.popExpect(sig.pops[i]); err != nil {
			return err
		}
	}
	for _, t := range sig.pushes {
		v.push(t)
	}
	return nil
}

func requiresMemory(op ir.Opcode) bool {
	switch op {
	case ir.OpcodeMemorySize, ir.OpcodeMemoryGrow, ir.OpcodeMemoryCopy, ir.OpcodeMemoryFill:
		return true
	}
	return false
}

type opSig struct {
	pops   []ir.ValueType // operand order, bottom to top
	pushes []ir.ValueType
}

var laneCounts = map[ir.Opcode]uint32{
	ir.OpcodeI8x16ExtractLaneS: 16, ir.OpcodeI8x16ExtractLaneU: 16, ir.OpcodeI8x16ReplaceLane: 16,
	ir.OpcodeI16x8ExtractLaneS: 8, ir.OpcodeI16x8ExtractLaneU: 8, ir.OpcodeI16x8ReplaceLane: 8,
	ir.OpcodeI32x4ExtractLane: 4, ir.OpcodeI32x4ReplaceLane: 4,
	ir.OpcodeI64x2ExtractLane: 2, ir.OpcodeI64x2ReplaceLane: 2,
	ir.OpcodeF32x4ExtractLane: 4, ir.OpcodeF32x4ReplaceLane: 4,
	ir.OpcodeF64x2ExtractLane: 2, ir.OpcodeF64x2ReplaceLane: 2,
}

var opSignatures = map[ir.Opcode]opSig{}

func register(sig opSig, ops ...ir.Opcode) {
	for _, op := range ops {
		opSignatures[op] = sig
	}
}

func init() {
	const (
		i32  = ir.ValueTypeI32
		i64  = ir.ValueTypeI64
		f32  = ir.ValueTypeF32
		f64  = ir.ValueTypeF64
		v128 = ir.ValueTypeV128
	)
	vt := func(ts ...ir.ValueType) []ir.ValueType { return ts }

	// Loads and stores: address plus the accessed type.
	register(opSig{pops: vt(i32), pushes: vt(i32)},
		ir.OpcodeI32Load, ir.OpcodeI32Load8S, ir.OpcodeI32Load8U, ir.OpcodeI32Load16S, ir.OpcodeI32Load16U)
	register(opSig{pops: vt(i32), pushes: vt(i64)},
		ir.OpcodeI64Load, ir.OpcodeI64Load8S, ir.OpcodeI64Load8U, ir.OpcodeI64Load16S, ir.OpcodeI64Load16U,
		ir.OpcodeI64Load32S, ir.OpcodeI64Load32U)
	register(opSig{pops: vt(i32), pushes: vt(f32)}, ir.OpcodeF32Load)
	register(opSig{pops: vt(i32), pushes: vt(f64)}, ir.OpcodeF64Load)
	register(opSig{pops: vt(i32, i32)}, ir.OpcodeI32Store, ir.OpcodeI32Store8, ir.OpcodeI32Store16)
	register(opSig{pops: vt(i32, i64)}, ir.OpcodeI64Store, ir.OpcodeI64Store8, ir.OpcodeI64Store16, ir.OpcodeI64Store32)
	register(opSig{pops: vt(i32, f32)}, ir.OpcodeF32Store)
	register(opSig{pops: vt(i32, f64)}, ir.OpcodeF64Store)
	register(opSig{pushes: vt(i32)}, ir.OpcodeMemorySize)
	register(opSig{pops: vt(i32), pushes: vt(i32)}, ir.OpcodeMemoryGrow)
	register(opSig{pops: vt(i32, i32, i32)}, ir.OpcodeMemoryCopy, ir.OpcodeMemoryFill)

	// Constants.
	register(opSig{pushes: vt(i32)}, ir.OpcodeI32Const)
	register(opSig{pushes: vt(i64)}, ir.OpcodeI64Const)
	register(opSig{pushes: vt(f32)}, ir.OpcodeF32Const)
	register(opSig{pushes: vt(f64)}, ir.OpcodeF64Const)

	// Tests and comparisons.
	register(opSig{pops: vt(i32), pushes: vt(i32)}, ir.OpcodeI32Eqz)
	register(opSig{pops: vt(i64), pushes: vt(i32)}, ir.OpcodeI64Eqz)
	register(opSig{pops: vt(i32, i32), pushes: vt(i32)},
		ir.OpcodeI32Eq, ir.OpcodeI32Ne, ir.OpcodeI32LtS, ir.OpcodeI32LtU, ir.OpcodeI32GtS,
		ir.OpcodeI32GtU, ir.OpcodeI32LeS, ir.OpcodeI32LeU, ir.OpcodeI32GeS, ir.OpcodeI32GeU)
	register(opSig{pops: vt(i64, i64), pushes: vt(i32)},
		ir.OpcodeI64Eq, ir.OpcodeI64Ne, ir.OpcodeI64LtS, ir.OpcodeI64LtU, ir.OpcodeI64GtS,
		ir.OpcodeI64GtU, ir.OpcodeI64LeS, ir.OpcodeI64LeU, ir.OpcodeI64GeS, ir.OpcodeI64GeU)
	register(opSig{pops: vt(f32, f32), pushes: vt(i32)},
		ir.OpcodeF32Eq, ir.OpcodeF32Ne, ir.OpcodeF32Lt, ir.OpcodeF32Gt, ir.OpcodeF32Le, ir.OpcodeF32Ge)
	register(opSig{pops: vt(f64, f64), pushes: vt(i32)},
		ir.OpcodeF64Eq, ir.OpcodeF64Ne, ir.OpcodeF64Lt, ir.OpcodeF64Gt, ir.OpcodeF64Le, ir.OpcodeF64Ge)

	// Integer arithmetic.
	register(opSig{pops: vt(i32), pushes: vt(i32)}, ir.OpcodeI32Clz, ir.OpcodeI32Ctz, ir.OpcodeI32Popcnt)
	register(opSig{pops: vt(i32, i32), pushes: vt(i32)},
		ir.OpcodeI32Add, ir.OpcodeI32Sub, ir.OpcodeI32Mul, ir.OpcodeI32DivS, ir.OpcodeI32DivU,
		ir.OpcodeI32RemS, ir.OpcodeI32RemU, ir.OpcodeI32And, ir.OpcodeI32Or, ir.OpcodeI32Xor,
		ir.OpcodeI32Shl, ir.OpcodeI32ShrS, ir.OpcodeI32ShrU, ir.OpcodeI32Rotl, ir.OpcodeI32Rotr)
	register(opSig{pops: vt(i64), pushes: vt(i64)}, ir.OpcodeI64Clz, ir.OpcodeI64Ctz, ir.OpcodeI64Popcnt)
	register(opSig{pops: vt(i64, i64), pushes: vt(i64)},
		ir.OpcodeI64Add, ir.OpcodeI64Sub, ir.OpcodeI64Mul, ir.OpcodeI64DivS, ir.OpcodeI64DivU,
		ir.OpcodeI64RemS, ir.OpcodeI64RemU, ir.OpcodeI64And, ir.OpcodeI64Or, ir.OpcodeI64Xor,
		ir.OpcodeI64Shl, ir.OpcodeI64ShrS, ir.OpcodeI64ShrU, ir.OpcodeI64Rotl, ir.OpcodeI64Rotr)

	// Float arithmetic.
	register(opSig{pops: vt(f32), pushes: vt(f32)},
		ir.OpcodeF32Abs, ir.OpcodeF32Neg, ir.OpcodeF32Ceil, ir.OpcodeF32Floor, ir.OpcodeF32Trunc,
		ir.OpcodeF32Nearest, ir.OpcodeF32Sqrt)
	register(opSig{pops: vt(f32, f32), pushes: vt(f32)},
		ir.OpcodeF32Add, ir.OpcodeF32Sub, ir.OpcodeF32Mul, ir.OpcodeF32Div, ir.OpcodeF32Min,
		ir.OpcodeF32Max, ir.OpcodeF32Copysign)
	register(opSig{pops: vt(f64), pushes: vt(f64)},
		ir.OpcodeF64Abs, ir.OpcodeF64Neg, ir.OpcodeF64Ceil, ir.OpcodeF64Floor, ir.OpcodeF64Trunc,
		ir.OpcodeF64Nearest, ir.OpcodeF64Sqrt)
	register(opSig{pops: vt(f64, f64), pushes: vt(f64)},
		ir.OpcodeF64Add, ir.OpcodeF64Sub, ir.OpcodeF64Mul, ir.OpcodeF64Div, ir.OpcodeF64Min,
		ir.OpcodeF64Max, ir.OpcodeF64Copysign)

	// Conversions.
	register(opSig{pops: vt(i64), pushes: vt(i32)}, ir.OpcodeI32WrapI64)
	register(opSig{pops: vt(f32), pushes: vt(i32)},
		ir.OpcodeI32TruncF32S, ir.OpcodeI32TruncF32U, ir.OpcodeI32ReinterpretF32,
		ir.OpcodeI32TruncSatF32S, ir.OpcodeI32TruncSatF32U)
	register(opSig{pops: vt(f64), pushes: vt(i32)},
		ir.OpcodeI32TruncF64S, ir.OpcodeI32TruncF64U, ir.OpcodeI32TruncSatF64S, ir.OpcodeI32TruncSatF64U)
	register(opSig{pops: vt(i32), pushes: vt(i64)}, ir.OpcodeI64ExtendI32S, ir.OpcodeI64ExtendI32U)
	register(opSig{pops: vt(f32), pushes: vt(i64)},
		ir.OpcodeI64TruncF32S, ir.OpcodeI64TruncF32U, ir.OpcodeI64TruncSatF32S, ir.OpcodeI64TruncSatF32U)
	register(opSig{pops: vt(f64), pushes: vt(i64)},
		ir.OpcodeI64TruncF64S, ir.OpcodeI64TruncF64U, ir.OpcodeI64ReinterpretF64,
		ir.OpcodeI64TruncSatF64S, ir.OpcodeI64TruncSatF64U)
	register(opSig{pops: vt(i32), pushes: vt(f32)},
		ir.OpcodeF32ConvertI32S, ir.OpcodeF32ConvertI32U, ir.OpcodeF32ReinterpretI32)
	register(opSig{pops: vt(i64), pushes: vt(f32)}, ir.OpcodeF32ConvertI64S, ir.OpcodeF32ConvertI64U)
	register(opSig{pops: vt(f64), pushes: vt(f32)}, ir.OpcodeF32DemoteF64)
	register(opSig{pops: vt(i32), pushes: vt(f64)}, ir.OpcodeF64ConvertI32S, ir.OpcodeF64ConvertI32U)
	register(opSig{pops: vt(i64), pushes: vt(f64)}, ir.OpcodeF64ConvertI64S, ir.OpcodeF64ConvertI64U, ir.OpcodeF64ReinterpretI64)
	register(opSig{pops: vt(f32), pushes: vt(f64)}, ir.OpcodeF64PromoteF32)

	// Sign extension.
	register(opSig{pops: vt(i32), pushes: vt(i32)}, ir.OpcodeI32Extend8S, ir.OpcodeI32Extend16S)
	register(opSig{pops: vt(i64), pushes: vt(i64)}, ir.OpcodeI64Extend8S, ir.OpcodeI64Extend16S, ir.OpcodeI64Extend32S)

	// SIMD.
	register(opSig{pops: vt(i32), pushes: vt(v128)}, ir.OpcodeV128Load)
	register(opSig{pops: vt(i32, v128)}, ir.OpcodeV128Store)
	register(opSig{pushes: vt(v128)}, ir.OpcodeV128Const)
	register(opSig{pops: vt(v128, v128), pushes: vt(v128)},
		ir.OpcodeI8x16Shuffle, ir.OpcodeV128And, ir.OpcodeV128AndNot, ir.OpcodeV128Or, ir.OpcodeV128Xor,
		ir.OpcodeI8x16Add, ir.OpcodeI8x16Sub, ir.OpcodeI16x8Add, ir.OpcodeI16x8Sub, ir.OpcodeI16x8Mul,
		ir.OpcodeI32x4Add, ir.OpcodeI32x4Sub, ir.OpcodeI32x4Mul, ir.OpcodeI64x2Add, ir.OpcodeI64x2Sub,
		ir.OpcodeI64x2Mul, ir.OpcodeF32x4Add, ir.OpcodeF32x4Sub, ir.OpcodeF32x4Mul, ir.OpcodeF32x4Div,
		ir.OpcodeF64x2Add, ir.OpcodeF64x2Sub, ir.OpcodeF64x2Mul, ir.OpcodeF64x2Div)
	register(opSig{pops: vt(v128), pushes: vt(v128)}, ir.OpcodeV128Not)
	register(opSig{pops: vt(v128, v128, v128), pushes: vt(v128)}, ir.OpcodeV128Bitselect)
	register(opSig{pops: vt(v128), pushes: vt(i32)}, ir.OpcodeV128AnyTrue)
	register(opSig{pops: vt(i32), pushes: vt(v128)}, ir.OpcodeI8x16Splat, ir.OpcodeI16x8Splat, ir.OpcodeI32x4Splat)
	register(opSig{pops: vt(i64), pushes: vt(v128)}, ir.OpcodeI64x2Splat)
	register(opSig{pops: vt(f32), pushes: vt(v128)}, ir.OpcodeF32x4Splat)
	register(opSig{pops: vt(f64), pushes: vt(v128)}, ir.OpcodeF64x2Splat)
	register(opSig{pops: vt(v128), pushes: vt(i32)},
		ir.OpcodeI8x16ExtractLaneS, ir.OpcodeI8x16ExtractLaneU, ir.OpcodeI16x8ExtractLaneS,
		ir.OpcodeI16x8ExtractLaneU, ir.OpcodeI32x4ExtractLane)
	register(opSig{pops: vt(v128), pushes: vt(i64)}, ir.OpcodeI64x2ExtractLane)
	register(opSig{pops: vt(v128), pushes: vt(f32)}, ir.OpcodeF32x4ExtractLane)
	register(opSig{pops: vt(v128), pushes: vt(f64)}, ir.OpcodeF64x2ExtractLane)
	register(opSig{pops: vt(v128, i32), pushes: vt(v128)},
		ir.OpcodeI8x16ReplaceLane, ir.OpcodeI16x8ReplaceLane, ir.OpcodeI32x4ReplaceLane)
	register(opSig{pops: vt(v128, i64), pushes: vt(v128)}, ir.OpcodeI64x2ReplaceLane)
	register(opSig{pops: vt(v128, f32), pushes: vt(v128)}, ir.OpcodeF32x4ReplaceLane)
	register(opSig{pops: vt(v128, f64), pushes: vt(v128)}, ir.OpcodeF64x2ReplaceLane)

	// Atomics.
	register(opSig{pops: vt(i32, i32), pushes: vt(i32)}, ir.OpcodeMemoryAtomicNotify)
	register(opSig{pops: vt(i32, i32, i64), pushes: vt(i32)}, ir.OpcodeMemoryAtomicWait32)
	register(opSig{pops: vt(i32, i64, i64), pushes: vt(i32)}, ir.OpcodeMemoryAtomicWait64)
	register(opSig{}, ir.OpcodeAtomicFence)
	register(opSig{pops: vt(i32), pushes: vt(i32)},
		ir.OpcodeI32AtomicLoad, ir.OpcodeI32AtomicLoad8U, ir.OpcodeI32AtomicLoad16U)
	register(opSig{pops: vt(i32), pushes: vt(i64)},
		ir.OpcodeI64AtomicLoad, ir.OpcodeI64AtomicLoad8U, ir.OpcodeI64AtomicLoad16U, ir.OpcodeI64AtomicLoad32U)
	register(opSig{pops: vt(i32, i32)},
		ir.OpcodeI32AtomicStore, ir.OpcodeI32AtomicStore8, ir.OpcodeI32AtomicStore16)
	register(opSig{pops: vt(i32, i64)},
		ir.OpcodeI64AtomicStore, ir.OpcodeI64AtomicStore8, ir.OpcodeI64AtomicStore16, ir.OpcodeI64AtomicStore32)
	register(opSig{pops: vt(i32, i32), pushes: vt(i32)}, ir.OpcodeI32AtomicRmwAdd)
	register(opSig{pops: vt(i32, i64), pushes: vt(i64)}, ir.OpcodeI64AtomicRmwAdd)
	register(opSig{pops: vt(i32, i32, i32), pushes: vt(i32)}, ir.OpcodeI32AtomicRmwCmpxchg)
	register(opSig{pops: vt(i32, i64, i64), pushes: vt(i64)}, ir.OpcodeI64AtomicRmwCmpxchg)
}
