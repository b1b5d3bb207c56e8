package engine

import (
	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/runtime"
	"github.com/riftwasm/rift/internal/trap"
)

func (ce *callEngine) execAtomic(ins *instr, inst *runtime.Instance,
	push func(uint64), pop func() uint64) {
	op := ins.op
	if op == ir.OpcodeAtomicFence {
		// Ordering is provided by the memory's internal lock.
		return
	}

	mem := inst.Memory(0)
	ea := func(base uint64) uint64 { return uint64(uint32(base)) + uint64(ins.imm.Offset) }
	check := func(err error) {
		if err != nil {
			if t, ok := err.(*trap.Trap); ok {
				t.CallStack = ce.captureStack()
				panic(t)
			}
			panic(err)
		}
	}

	switch op {
	case ir.OpcodeMemoryAtomicNotify:
		count := uint32(pop())
		addr := ea(pop())
		if !mem.Type.Shared {
			push(0)
			return
		}
		push(uint64(mem.AtomicNotify(addr, count)))
	case ir.OpcodeMemoryAtomicWait32, ir.OpcodeMemoryAtomicWait64:
		timeout := int64(pop())
		var expected uint64
		width := uint64(4)
		if op == ir.OpcodeMemoryAtomicWait64 {
			width = 8
			expected = pop()
		} else {
			expected = uint64(uint32(pop()))
		}
		addr := ea(pop())
		if !mem.Type.Shared {
			ce.trapf(trap.AccessViolation, "atomic wait on an unshared memory")
		}
		res, err := mem.AtomicWait(addr, width, expected, timeout)
		check(err)
		push(uint64(res))

	case ir.OpcodeI32AtomicLoad:
		v, err := mem.AtomicLoad(ea(pop()), 4)
		check(err)
		push(v)
	case ir.OpcodeI64AtomicLoad:
		v, err := mem.AtomicLoad(ea(pop()), 8)
		check(err)
		push(v)
	case ir.OpcodeI32AtomicLoad8U, ir.OpcodeI64AtomicLoad8U:
		v, err := mem.AtomicNarrowLoad(ea(pop()), 1)
		check(err)
		push(v)
	case ir.OpcodeI32AtomicLoad16U, ir.OpcodeI64AtomicLoad16U:
		v, err := mem.AtomicNarrowLoad(ea(pop()), 2)
		check(err)
		push(v)
	case ir.OpcodeI64AtomicLoad32U:
		v, err := mem.AtomicLoad(ea(pop()), 4)
		check(err)
		push(v)

	case ir.OpcodeI32AtomicStore:
		v := pop()
		check(mem.AtomicStore(ea(pop()), 4, v))
	case ir.OpcodeI64AtomicStore:
		v := pop()
		check(mem.AtomicStore(ea(pop()), 8, v))
	case ir.OpcodeI32AtomicStore8, ir.OpcodeI64AtomicStore8:
		v := pop()
		check(mem.AtomicNarrowStore(ea(pop()), 1, v))
	case ir.OpcodeI32AtomicStore16, ir.OpcodeI64AtomicStore16:
		v := pop()
		check(mem.AtomicNarrowStore(ea(pop()), 2, v))
	case ir.OpcodeI64AtomicStore32:
		v := pop()
		check(mem.AtomicStore(ea(pop()), 4, v))

	case ir.OpcodeI32AtomicRmwAdd:
		v := pop()
		old, err := mem.AtomicRmwAdd(ea(pop()), 4, v)
		check(err)
		push(old)
	case ir.OpcodeI64AtomicRmwAdd:
		v := pop()
		old, err := mem.AtomicRmwAdd(ea(pop()), 8, v)
		check(err)
		push(old)
	case ir.OpcodeI32AtomicRmwCmpxchg:
		repl := pop()
		expected := pop()
		old, err := mem.AtomicCmpxchg(ea(pop()), 4, expected, repl)
		check(err)
		push(old)
	case ir.OpcodeI64AtomicRmwCmpxchg:
		repl := pop()
		expected := pop()
		old, err := mem.AtomicCmpxchg(ea(pop()), 8, expected, repl)
		check(err)
		push(old)
	default:
		panic("BUG: unhandled atomic opcode " + ir.OperatorName(op))
	}
}
