package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/runtime"
	"github.com/riftwasm/rift/internal/trap"
)

// maxCallDepth bounds guest recursion; exceeding it is a StackOverflow
// trap, never a host stack fault.
const maxCallDepth = 512

// thrown is an in-flight guest exception, unwinding until a catch with the
// matching tag or the host boundary.
type thrown struct {
	tag  *runtime.TagInstance
	args []uint64
}

// hostError carries a non-trap host function failure through the unwind.
type hostError struct{ err error }

func (h *hostError) Error() string { return h.err.Error() }

// callEngine is the per-host-call execution state: the guest call stack for
// trap reporting and the recursion depth.
type callEngine struct {
	e     *Engine
	comp  *runtime.Compartment
	depth int
	stack []trap.Frame
}

// Call implements runtime.Engine. Traps raised anywhere below unwind to
// here and return as a *trap.Trap error.
func (e *Engine) Call(ctx context.Context, f *runtime.FunctionInstance, params ...uint64) (results []uint64, err error) {
	ce := &callEngine{e: e}
	if f.Module != nil {
		ce.comp = f.Module.Compartment
	}

	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case *trap.Trap:
				results, err = nil, v
			case *hostError:
				results, err = nil, v.err
			default:
				panic(r)
			}
		}
	}()

	if want := slotCount(f.Type.Params); len(params) != want {
		return nil, fmt.Errorf("expected %d params, got %d", want, len(params))
	}
	results, exc := ce.invoke(ctx, f, params)
	if exc != nil {
		t := trap.New(trap.UncaughtException, "uncaught %s exception", exceptionName(exc))
		t.CallStack = ce.captureStack()
		return nil, t
	}
	return results, nil
}

func exceptionName(exc *thrown) string {
	if exc.tag == nil || exc.tag.Type == nil {
		return "unknown"
	}
	return fmt.Sprintf("tag(%d params)", exc.tag.Type.Params.Arity())
}

func (ce *callEngine) captureStack() []trap.Frame {
	out := make([]trap.Frame, len(ce.stack))
	for i := range ce.stack {
		// Innermost first.
		out[i] = ce.stack[len(ce.stack)-1-i]
	}
	return out
}

// trapf raises a trap carrying the current guest call stack.
func (ce *callEngine) trapf(kind trap.Kind, format string, args ...interface{}) {
	t := trap.New(kind, format, args...)
	t.CallStack = ce.captureStack()
	panic(t)
}

// invoke runs one function. A returned non-nil *thrown is an exception the
// function did not catch; the caller continues the search.
func (ce *callEngine) invoke(ctx context.Context, f *runtime.FunctionInstance, params []uint64) ([]uint64, *thrown) {
	if ce.depth >= maxCallDepth {
		ce.trapf(trap.StackOverflow, "call depth exceeded %d", maxCallDepth)
	}
	ce.depth++
	ce.stack = append(ce.stack, trap.Frame{Function: f.Name})
	defer func() {
		ce.depth--
		ce.stack = ce.stack[:len(ce.stack)-1]
	}()

	if f.IsHost() {
		results, err := f.GoFunc(ctx, params)
		if err != nil {
			if t, ok := err.(*trap.Trap); ok {
				if t.CallStack == nil {
					t.CallStack = ce.captureStack()
				}
				panic(t)
			}
			panic(&hostError{err: err})
		}
		return results, nil
	}

	c := ce.e.codeOf(f)
	if c == nil {
		panic(fmt.Errorf("BUG: function %q was not compiled", f.Name))
	}
	return ce.exec(ctx, f, c, params)
}

// label is one frame of the execution-time control stack.
type label struct {
	// cont is the branch continuation: the matching end for blocks, the
	// body start for loops.
	cont int
	// height is the value stack depth at entry, below the block params.
	height int
	// carry is the slot count a branch transfers: results, or params for a
	// loop.
	carry  int
	isLoop bool

	// catchTarget is the catch instruction of a try, or -1.
	catchTarget int
	inCatch     bool
	caught      *thrown
}

func (ce *callEngine) exec(ctx context.Context, f *runtime.FunctionInstance, c *code, params []uint64) ([]uint64, *thrown) {
	inst := f.Module
	locals := make([]uint64, c.localSlots)
	copy(locals, params)

	var stack []uint64
	var labels []label

	push := func(v uint64) { stack = append(stack, v) }
	pop := func() uint64 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	popN := func(n int) []uint64 {
		vals := make([]uint64, n)
		copy(vals, stack[len(stack)-n:])
		stack = stack[:len(stack)-n]
		return vals
	}

	// doBranch transfers control to the label at depth, carrying its label
	// operands and discarding everything above the entry height.
	var pc int
	doBranch := func(depth int) {
		if ce.comp != nil && ce.comp.Terminated() {
			ce.trapf(trap.Terminated, "compartment terminated")
		}
		idx := len(labels) - 1 - depth
		l := labels[idx]
		carried := popN(l.carry)
		stack = stack[:l.height]
		stack = append(stack, carried...)
		labels = labels[:idx+1]
		pc = l.cont
	}

	handleThrow := func(exc *thrown) bool {
		for i := len(labels) - 1; i >= 0; i-- {
			l := &labels[i]
			if l.catchTarget < 0 || l.inCatch {
				continue
			}
			catchIns := c.instrs[l.catchTarget]
			if catchIns.op != ir.OpcodeCatch {
				continue
			}
			if inst.Tags[catchIns.imm.Index] != exc.tag {
				continue
			}
			stack = stack[:l.height]
			stack = append(stack, exc.args...)
			labels = labels[:i+1]
			labels[i].inCatch = true
			labels[i].caught = exc
			pc = l.catchTarget + 1
			return true
		}
		return false
	}

	for pc = 0; pc < len(c.instrs); pc++ {
		ins := &c.instrs[pc]
		if len(ce.stack) > 0 {
			ce.stack[len(ce.stack)-1].Offset = pc
		}
		switch ins.op {
		case ir.OpcodeUnreachable:
			ce.trapf(trap.Unreachable, "unreachable executed")
		case ir.OpcodeNop:
		case ir.OpcodeBlock:
			labels = append(labels, label{
				cont: ins.target, height: len(stack) - ins.blockParams, carry: ins.blockArity, catchTarget: -1,
			})
		case ir.OpcodeLoop:
			labels = append(labels, label{
				cont: pc + 1, height: len(stack) - ins.blockParams, carry: ins.blockParams, isLoop: true, catchTarget: -1,
			})
		case ir.OpcodeIf:
			cond := pop()
			labels = append(labels, label{
				cont: ins.target, height: len(stack) - ins.blockParams, carry: ins.blockArity, catchTarget: -1,
			})
			if cond == 0 {
				pc = ins.elseTarget - 1 // the loop increment lands on it
			}
		case ir.OpcodeTry:
			catchTarget := -1
			if ins.elseTarget >= 0 && ins.elseTarget != ins.target {
				catchTarget = ins.elseTarget
			}
			labels = append(labels, label{
				cont: ins.target, height: len(stack) - ins.blockParams, carry: ins.blockArity, catchTarget: catchTarget,
			})
		case ir.OpcodeElse, ir.OpcodeCatch:
			// Reached by falling off the preceding arm: jump to the end.
			pc = labels[len(labels)-1].cont - 1
		case ir.OpcodeEnd:
			if len(labels) == 0 {
				return popN(c.resultSlots), nil
			}
			labels = labels[:len(labels)-1]
		case ir.OpcodeBr:
			// Depth equal to the label count targets the function frame.
			if int(ins.imm.Index) >= len(labels) {
				return popN(c.resultSlots), nil
			}
			doBranch(int(ins.imm.Index))
			pc--
		case ir.OpcodeBrIf:
			if pop() != 0 {
				if int(ins.imm.Index) >= len(labels) {
					return popN(c.resultSlots), nil
				}
				doBranch(int(ins.imm.Index))
				pc--
			}
		case ir.OpcodeBrTable:
			i := uint32(pop())
			depth := ins.imm.DefaultDepth
			if int(i) < len(ins.imm.Depths) {
				depth = ins.imm.Depths[i]
			}
			if int(depth) >= len(labels) {
				return popN(c.resultSlots), nil
			}
			doBranch(int(depth))
			pc--
		case ir.OpcodeReturn:
			return popN(c.resultSlots), nil
		case ir.OpcodeCall:
			callee := inst.Functions[ins.imm.Index]
			if res, exc := ce.callGuest(ctx, callee, &stack); exc != nil {
				if !handleThrow(exc) {
					return nil, exc
				}
				pc--
			} else {
				stack = append(stack, res...)
			}
		case ir.OpcodeCallIndirect:
			table := inst.Tables[ins.imm.TableIndex]
			i := uint32(pop())
			if uint64(i) >= uint64(len(table.Elements)) {
				ce.trapf(trap.AccessViolation, "table index %d out of bounds for table of %d", i, len(table.Elements))
			}
			callee := table.Elements[i]
			if callee == nil {
				ce.trapf(trap.InvalidIndirectCall, "null table element at index %d", i)
			}
			want := inst.Module.Types[ins.imm.TypeIndex]
			if callee.Type.Encoding() != want.Encoding() {
				ce.trapf(trap.InvalidIndirectCall, "table element signature %s does not match %s", callee.Type, want)
			}
			if res, exc := ce.callGuest(ctx, callee, &stack); exc != nil {
				if !handleThrow(exc) {
					return nil, exc
				}
				pc--
			} else {
				stack = append(stack, res...)
			}
		case ir.OpcodeThrow:
			tag := inst.Tags[ins.imm.Index]
			args := popN(slotCount(tag.Type.Params))
			exc := &thrown{tag: tag, args: args}
			if !handleThrow(exc) {
				return nil, exc
			}
			pc--
		case ir.OpcodeRethrow:
			var exc *thrown
			for i := len(labels) - 1; i >= 0; i-- {
				if labels[i].inCatch && labels[i].caught != nil {
					exc = labels[i].caught
					break
				}
			}
			if exc == nil {
				panic("BUG: rethrow outside catch survived validation")
			}
			if !handleThrow(exc) {
				return nil, exc
			}
			pc--
		case ir.OpcodeDrop:
			pop()
		case ir.OpcodeSelect:
			cond := pop()
			b := pop()
			a := pop()
			if cond != 0 {
				push(a)
			} else {
				push(b)
			}
		case ir.OpcodeLocalGet:
			off := c.localOffset[ins.imm.Index]
			push(locals[off])
			if c.localWide[ins.imm.Index] {
				push(locals[off+1])
			}
		case ir.OpcodeLocalSet:
			off := c.localOffset[ins.imm.Index]
			if c.localWide[ins.imm.Index] {
				locals[off+1] = pop()
			}
			locals[off] = pop()
		case ir.OpcodeLocalTee:
			off := c.localOffset[ins.imm.Index]
			if c.localWide[ins.imm.Index] {
				locals[off+1] = stack[len(stack)-1]
				locals[off] = stack[len(stack)-2]
			} else {
				locals[off] = stack[len(stack)-1]
			}
		case ir.OpcodeGlobalGet:
			g := inst.Globals[ins.imm.Index]
			push(g.Val)
			if g.Type.ValType == ir.ValueTypeV128 {
				push(g.Val2)
			}
		case ir.OpcodeGlobalSet:
			g := inst.Globals[ins.imm.Index]
			if g.Type.ValType == ir.ValueTypeV128 {
				g.Val2 = pop()
			}
			g.Val = pop()
		case ir.OpcodeMemorySize:
			push(uint64(inst.Memory(ins.imm.Index).Pages()))
		case ir.OpcodeMemoryGrow:
			delta := uint32(pop())
			if prev, ok := inst.Memory(ins.imm.Index).Grow(delta); ok {
				push(uint64(prev))
			} else {
				push(uint64(uint32(0xffffffff)))
			}
		case ir.OpcodeI32Const:
			push(uint64(uint32(ins.imm.I32)))
		case ir.OpcodeI64Const:
			push(uint64(ins.imm.I64))
		case ir.OpcodeF32Const:
			push(uint64(math.Float32bits(ins.imm.F32)))
		case ir.OpcodeF64Const:
			push(math.Float64bits(ins.imm.F64))
		default:
			ce.execOp(ins, inst, push, pop, popN)
		}
	}
	// Bodies always terminate with end, handled above.
	panic("BUG: fell off the end of a compiled body")
}

// callGuest pops the callee's arguments from the caller's stack and invokes
// it.
func (ce *callEngine) callGuest(ctx context.Context, callee *runtime.FunctionInstance, stack *[]uint64) ([]uint64, *thrown) {
	if ce.comp != nil && ce.comp.Terminated() {
		ce.trapf(trap.Terminated, "compartment terminated")
	}
	n := slotCount(callee.Type.Params)
	s := *stack
	args := make([]uint64, n)
	copy(args, s[len(s)-n:])
	*stack = s[:len(s)-n]
	return ce.invoke(ctx, callee, args)
}
