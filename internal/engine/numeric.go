package engine

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/moremath"
	"github.com/riftwasm/rift/internal/runtime"
	"github.com/riftwasm/rift/internal/trap"
)

// execOp executes the table-driven remainder of the operator set: memory
// accesses, numerics, SIMD and atomics. Control flow and variable access
// live in the main loop.
func (ce *callEngine) execOp(ins *instr, inst *runtime.Instance,
	push func(uint64), pop func() uint64, popN func(int) []uint64) {
	op := ins.op

	// Memory accesses share the effective-address computation and the
	// bounds trap.
	if info, ok := ir.LookupOperator(op); ok && info.Imm == ir.ImmLoadStore && op.Prefix() != ir.AtomicPrefix {
		ce.execLoadStore(ins, inst, push, pop, popN)
		return
	}
	if op.Prefix() == ir.AtomicPrefix {
		ce.execAtomic(ins, inst, push, pop)
		return
	}
	if op.Prefix() == ir.SIMDPrefix {
		ce.execSIMD(ins, push, pop)
		return
	}

	switch op {
	case ir.OpcodeMemoryCopy:
		mem := inst.Memory(0)
		n := pop()
		src := uint64(uint32(pop()))
		dst := uint64(uint32(pop()))
		n = uint64(uint32(n))
		srcBuf, okSrc := mem.Read(src, n)
		dstBuf, okDst := mem.Read(dst, n)
		if !okSrc || !okDst {
			ce.trapf(trap.AccessViolation, "memory.copy out of bounds")
		}
		copy(dstBuf, srcBuf)
	case ir.OpcodeMemoryFill:
		mem := inst.Memory(ins.imm.Index)
		n := uint64(uint32(pop()))
		val := byte(pop())
		dst := uint64(uint32(pop()))
		buf, ok := mem.Read(dst, n)
		if !ok {
			ce.trapf(trap.AccessViolation, "memory.fill out of bounds")
		}
		for i := range buf {
			buf[i] = val
		}

	// i32 tests and comparisons.
	case ir.OpcodeI32Eqz:
		push(b2i(uint32(pop()) == 0))
	case ir.OpcodeI32Eq, ir.OpcodeI32Ne, ir.OpcodeI32LtS, ir.OpcodeI32LtU, ir.OpcodeI32GtS,
		ir.OpcodeI32GtU, ir.OpcodeI32LeS, ir.OpcodeI32LeU, ir.OpcodeI32GeS, ir.OpcodeI32GeU:
		b, a := uint32(pop()), uint32(pop())
		push(b2i(cmp32(op, a, b)))
	case ir.OpcodeI64Eqz:
		push(b2i(pop() == 0))
	case ir.OpcodeI64Eq, ir.OpcodeI64Ne, ir.OpcodeI64LtS, ir.OpcodeI64LtU, ir.OpcodeI64GtS,
		ir.OpcodeI64GtU, ir.OpcodeI64LeS, ir.OpcodeI64LeU, ir.OpcodeI64GeS, ir.OpcodeI64GeU:
		b, a := pop(), pop()
		push(b2i(cmp64(op, a, b)))
	case ir.OpcodeF32Eq, ir.OpcodeF32Ne, ir.OpcodeF32Lt, ir.OpcodeF32Gt, ir.OpcodeF32Le, ir.OpcodeF32Ge:
		b, a := f32(pop()), f32(pop())
		push(b2i(cmpF(op, float64(a), float64(b))))
	case ir.OpcodeF64Eq, ir.OpcodeF64Ne, ir.OpcodeF64Lt, ir.OpcodeF64Gt, ir.OpcodeF64Le, ir.OpcodeF64Ge:
		b, a := f64(pop()), f64(pop())
		push(b2i(cmpF(op, a, b)))

	// i32 arithmetic.
	case ir.OpcodeI32Clz:
		push(uint64(uint32(bits.LeadingZeros32(uint32(pop())))))
	case ir.OpcodeI32Ctz:
		push(uint64(uint32(bits.TrailingZeros32(uint32(pop())))))
	case ir.OpcodeI32Popcnt:
		push(uint64(uint32(bits.OnesCount32(uint32(pop())))))
	case ir.OpcodeI32Add:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(a + b))
	case ir.OpcodeI32Sub:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(a - b))
	case ir.OpcodeI32Mul:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(a * b))
	case ir.OpcodeI32DivS:
		b, a := int32(pop()), int32(pop())
		if b == 0 {
			ce.trapf(trap.IntegerDivideByZero, "i32.div_s by zero")
		}
		if a == math.MinInt32 && b == -1 {
			ce.trapf(trap.IntegerOverflow, "i32.div_s overflow")
		}
		push(uint64(uint32(a / b)))
	case ir.OpcodeI32DivU:
		b, a := uint32(pop()), uint32(pop())
		if b == 0 {
			ce.trapf(trap.IntegerDivideByZero, "i32.div_u by zero")
		}
		push(uint64(a / b))
	case ir.OpcodeI32RemS:
		b, a := int32(pop()), int32(pop())
		if b == 0 {
			ce.trapf(trap.IntegerDivideByZero, "i32.rem_s by zero")
		}
		if a == math.MinInt32 && b == -1 {
			push(0)
		} else {
			push(uint64(uint32(a % b)))
		}
	case ir.OpcodeI32RemU:
		b, a := uint32(pop()), uint32(pop())
		if b == 0 {
			ce.trapf(trap.IntegerDivideByZero, "i32.rem_u by zero")
		}
		push(uint64(a % b))
	case ir.OpcodeI32And:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(a & b))
	case ir.OpcodeI32Or:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(a | b))
	case ir.OpcodeI32Xor:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(a ^ b))
	case ir.OpcodeI32Shl:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(a << (b & 31)))
	case ir.OpcodeI32ShrS:
		b, a := uint32(pop()), int32(pop())
		push(uint64(uint32(a >> (b & 31))))
	case ir.OpcodeI32ShrU:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(a >> (b & 31)))
	case ir.OpcodeI32Rotl:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(bits.RotateLeft32(a, int(b&31))))
	case ir.OpcodeI32Rotr:
		b, a := uint32(pop()), uint32(pop())
		push(uint64(bits.RotateLeft32(a, -int(b&31))))

	// i64 arithmetic.
	case ir.OpcodeI64Clz:
		push(uint64(bits.LeadingZeros64(pop())))
	case ir.OpcodeI64Ctz:
		push(uint64(bits.TrailingZeros64(pop())))
	case ir.OpcodeI64Popcnt:
		push(uint64(bits.OnesCount64(pop())))
	case ir.OpcodeI64Add:
		b, a := pop(), pop()
		push(a + b)
	case ir.OpcodeI64Sub:
		b, a := pop(), pop()
		push(a - b)
	case ir.OpcodeI64Mul:
		b, a := pop(), pop()
		push(a * b)
	case ir.OpcodeI64DivS:
		b, a := int64(pop()), int64(pop())
		if b == 0 {
			ce.trapf(trap.IntegerDivideByZero, "i64.div_s by zero")
		}
		if a == math.MinInt64 && b == -1 {
			ce.trapf(trap.IntegerOverflow, "i64.div_s overflow")
		}
		push(uint64(a / b))
	case ir.OpcodeI64DivU:
		b, a := pop(), pop()
		if b == 0 {
			ce.trapf(trap.IntegerDivideByZero, "i64.div_u by zero")
		}
		push(a / b)
	case ir.OpcodeI64RemS:
		b, a := int64(pop()), int64(pop())
		if b == 0 {
			ce.trapf(trap.IntegerDivideByZero, "i64.rem_s by zero")
		}
		if a == math.MinInt64 && b == -1 {
			push(0)
		} else {
			push(uint64(a % b))
		}
	case ir.OpcodeI64RemU:
		b, a := pop(), pop()
		if b == 0 {
			ce.trapf(trap.IntegerDivideByZero, "i64.rem_u by zero")
		}
		push(a % b)
	case ir.OpcodeI64And:
		b, a := pop(), pop()
		push(a & b)
	case ir.OpcodeI64Or:
		b, a := pop(), pop()
		push(a | b)
	case ir.OpcodeI64Xor:
		b, a := pop(), pop()
		push(a ^ b)
	case ir.OpcodeI64Shl:
		b, a := pop(), pop()
		push(a << (b & 63))
	case ir.OpcodeI64ShrS:
		b, a := pop(), int64(pop())
		push(uint64(a >> (b & 63)))
	case ir.OpcodeI64ShrU:
		b, a := pop(), pop()
		push(a >> (b & 63))
	case ir.OpcodeI64Rotl:
		b, a := pop(), pop()
		push(bits.RotateLeft64(a, int(b&63)))
	case ir.OpcodeI64Rotr:
		b, a := pop(), pop()
		push(bits.RotateLeft64(a, -int(b&63)))

	// f32 arithmetic.
	case ir.OpcodeF32Abs:
		push(pf32(float32(math.Abs(float64(f32(pop()))))))
	case ir.OpcodeF32Neg:
		push(pf32(-f32(pop())))
	case ir.OpcodeF32Ceil:
		push(pf32(float32(math.Ceil(float64(f32(pop()))))))
	case ir.OpcodeF32Floor:
		push(pf32(float32(math.Floor(float64(f32(pop()))))))
	case ir.OpcodeF32Trunc:
		push(pf32(float32(math.Trunc(float64(f32(pop()))))))
	case ir.OpcodeF32Nearest:
		push(pf32(float32(moremath.WasmCompatNearest(float64(f32(pop()))))))
	case ir.OpcodeF32Sqrt:
		push(pf32(float32(math.Sqrt(float64(f32(pop()))))))
	case ir.OpcodeF32Add:
		b, a := f32(pop()), f32(pop())
		push(pf32(a + b))
	case ir.OpcodeF32Sub:
		b, a := f32(pop()), f32(pop())
		push(pf32(a - b))
	case ir.OpcodeF32Mul:
		b, a := f32(pop()), f32(pop())
		push(pf32(a * b))
	case ir.OpcodeF32Div:
		b, a := f32(pop()), f32(pop())
		push(pf32(a / b))
	case ir.OpcodeF32Min:
		b, a := f32(pop()), f32(pop())
		push(pf32(float32(moremath.WasmCompatMin(float64(a), float64(b)))))
	case ir.OpcodeF32Max:
		b, a := f32(pop()), f32(pop())
		push(pf32(float32(moremath.WasmCompatMax(float64(a), float64(b)))))
	case ir.OpcodeF32Copysign:
		b, a := f32(pop()), f32(pop())
		push(pf32(float32(math.Copysign(float64(a), float64(b)))))

	// f64 arithmetic.
	case ir.OpcodeF64Abs:
		push(pf64(math.Abs(f64(pop()))))
	case ir.OpcodeF64Neg:
		push(pf64(-f64(pop())))
	case ir.OpcodeF64Ceil:
		push(pf64(math.Ceil(f64(pop()))))
	case ir.OpcodeF64Floor:
		push(pf64(math.Floor(f64(pop()))))
	case ir.OpcodeF64Trunc:
		push(pf64(math.Trunc(f64(pop()))))
	case ir.OpcodeF64Nearest:
		push(pf64(moremath.WasmCompatNearest(f64(pop()))))
	case ir.OpcodeF64Sqrt:
		push(pf64(math.Sqrt(f64(pop()))))
	case ir.OpcodeF64Add:
		b, a := f64(pop()), f64(pop())
		push(pf64(a + b))
	case ir.OpcodeF64Sub:
		b, a := f64(pop()), f64(pop())
		push(pf64(a - b))
	case ir.OpcodeF64Mul:
		b, a := f64(pop()), f64(pop())
		push(pf64(a * b))
	case ir.OpcodeF64Div:
		b, a := f64(pop()), f64(pop())
		push(pf64(a / b))
	case ir.OpcodeF64Min:
		b, a := f64(pop()), f64(pop())
		push(pf64(moremath.WasmCompatMin(a, b)))
	case ir.OpcodeF64Max:
		b, a := f64(pop()), f64(pop())
		push(pf64(moremath.WasmCompatMax(a, b)))
	case ir.OpcodeF64Copysign:
		b, a := f64(pop()), f64(pop())
		push(pf64(math.Copysign(a, b)))

	// Conversions.
	case ir.OpcodeI32WrapI64:
		push(uint64(uint32(pop())))
	case ir.OpcodeI32TruncF32S:
		push(uint64(uint32(ce.truncS32(float64(f32(pop()))))))
	case ir.OpcodeI32TruncF32U:
		push(uint64(ce.truncU32(float64(f32(pop())))))
	case ir.OpcodeI32TruncF64S:
		push(uint64(uint32(ce.truncS32(f64(pop())))))
	case ir.OpcodeI32TruncF64U:
		push(uint64(ce.truncU32(f64(pop()))))
	case ir.OpcodeI64ExtendI32S:
		push(uint64(int64(int32(pop()))))
	case ir.OpcodeI64ExtendI32U:
		push(uint64(uint32(pop())))
	case ir.OpcodeI64TruncF32S:
		push(uint64(ce.truncS64(float64(f32(pop())))))
	case ir.OpcodeI64TruncF32U:
		push(ce.truncU64(float64(f32(pop()))))
	case ir.OpcodeI64TruncF64S:
		push(uint64(ce.truncS64(f64(pop()))))
	case ir.OpcodeI64TruncF64U:
		push(ce.truncU64(f64(pop())))
	case ir.OpcodeF32ConvertI32S:
		push(pf32(float32(int32(pop()))))
	case ir.OpcodeF32ConvertI32U:
		push(pf32(float32(uint32(pop()))))
	case ir.OpcodeF32ConvertI64S:
		push(pf32(float32(int64(pop()))))
	case ir.OpcodeF32ConvertI64U:
		push(pf32(float32(pop())))
	case ir.OpcodeF32DemoteF64:
		push(pf32(float32(f64(pop()))))
	case ir.OpcodeF64ConvertI32S:
		push(pf64(float64(int32(pop()))))
	case ir.OpcodeF64ConvertI32U:
		push(pf64(float64(uint32(pop()))))
	case ir.OpcodeF64ConvertI64S:
		push(pf64(float64(int64(pop()))))
	case ir.OpcodeF64ConvertI64U:
		push(pf64(float64(pop())))
	case ir.OpcodeF64PromoteF32:
		push(pf64(float64(f32(pop()))))
	case ir.OpcodeI32ReinterpretF32, ir.OpcodeI64ReinterpretF64,
		ir.OpcodeF32ReinterpretI32, ir.OpcodeF64ReinterpretI64:
		// The stack already holds the raw bits.

	// Sign extension.
	case ir.OpcodeI32Extend8S:
		push(uint64(uint32(int32(int8(pop())))))
	case ir.OpcodeI32Extend16S:
		push(uint64(uint32(int32(int16(pop())))))
	case ir.OpcodeI64Extend8S:
		push(uint64(int64(int8(pop()))))
	case ir.OpcodeI64Extend16S:
		push(uint64(int64(int16(pop()))))
	case ir.OpcodeI64Extend32S:
		push(uint64(int64(int32(pop()))))

	// Non-trapping float to int.
	case ir.OpcodeI32TruncSatF32S:
		push(uint64(uint32(truncSatS(float64(f32(pop())), 32))))
	case ir.OpcodeI32TruncSatF32U:
		push(uint64(uint32(truncSatU(float64(f32(pop())), 32))))
	case ir.OpcodeI32TruncSatF64S:
		push(uint64(uint32(truncSatS(f64(pop()), 32))))
	case ir.OpcodeI32TruncSatF64U:
		push(uint64(uint32(truncSatU(f64(pop()), 32))))
	case ir.OpcodeI64TruncSatF32S:
		push(uint64(truncSatS(float64(f32(pop())), 64)))
	case ir.OpcodeI64TruncSatF32U:
		push(truncSatU(float64(f32(pop())), 64))
	case ir.OpcodeI64TruncSatF64S:
		push(uint64(truncSatS(f64(pop()), 64)))
	case ir.OpcodeI64TruncSatF64U:
		push(truncSatU(f64(pop()), 64))

	default:
		panic("BUG: unhandled opcode " + ir.OperatorName(op))
	}
}

func (ce *callEngine) execLoadStore(ins *instr, inst *runtime.Instance,
	push func(uint64), pop func() uint64, popN func(int) []uint64) {
	mem := inst.Memory(0)
	op := ins.op

	ea := func(base uint64) uint64 { return uint64(uint32(base)) + uint64(ins.imm.Offset) }
	load := func(n uint64) uint64 {
		addr := ea(pop())
		buf, ok := mem.Read(addr, n)
		if !ok {
			ce.trapf(trap.AccessViolation, "%s at %d beyond memory of %d bytes", ir.OperatorName(op), addr, mem.Size())
		}
		var v uint64
		for i := uint64(0); i < n; i++ {
			v |= uint64(buf[i]) << (8 * i)
		}
		return v
	}
	store := func(n, v uint64) {
		addr := ea(pop())
		buf, ok := mem.Read(addr, n)
		if !ok {
			ce.trapf(trap.AccessViolation, "%s at %d beyond memory of %d bytes", ir.OperatorName(op), addr, mem.Size())
		}
		for i := uint64(0); i < n; i++ {
			buf[i] = byte(v >> (8 * i))
		}
	}

	switch op {
	case ir.OpcodeI32Load, ir.OpcodeF32Load:
		push(load(4))
	case ir.OpcodeI64Load, ir.OpcodeF64Load:
		push(load(8))
	case ir.OpcodeI32Load8S:
		push(uint64(uint32(int32(int8(load(1))))))
	case ir.OpcodeI32Load8U:
		push(load(1))
	case ir.OpcodeI32Load16S:
		push(uint64(uint32(int32(int16(load(2))))))
	case ir.OpcodeI32Load16U:
		push(load(2))
	case ir.OpcodeI64Load8S:
		push(uint64(int64(int8(load(1)))))
	case ir.OpcodeI64Load8U:
		push(load(1))
	case ir.OpcodeI64Load16S:
		push(uint64(int64(int16(load(2)))))
	case ir.OpcodeI64Load16U:
		push(load(2))
	case ir.OpcodeI64Load32S:
		push(uint64(int64(int32(load(4)))))
	case ir.OpcodeI64Load32U:
		push(load(4))
	case ir.OpcodeI32Store, ir.OpcodeF32Store:
		v := pop()
		store(4, v)
	case ir.OpcodeI64Store, ir.OpcodeF64Store:
		v := pop()
		store(8, v)
	case ir.OpcodeI32Store8, ir.OpcodeI64Store8:
		v := pop()
		store(1, v)
	case ir.OpcodeI32Store16, ir.OpcodeI64Store16:
		v := pop()
		store(2, v)
	case ir.OpcodeI64Store32:
		v := pop()
		store(4, v)
	case ir.OpcodeV128Load:
		addr := ea(pop())
		buf, ok := mem.Read(addr, 16)
		if !ok {
			ce.trapf(trap.AccessViolation, "v128.load at %d beyond memory of %d bytes", addr, mem.Size())
		}
		push(binary.LittleEndian.Uint64(buf))
		push(binary.LittleEndian.Uint64(buf[8:]))
	case ir.OpcodeV128Store:
		hi, lo := pop(), pop()
		addr := ea(pop())
		buf, ok := mem.Read(addr, 16)
		if !ok {
			ce.trapf(trap.AccessViolation, "v128.store at %d beyond memory of %d bytes", addr, mem.Size())
		}
		binary.LittleEndian.PutUint64(buf, lo)
		binary.LittleEndian.PutUint64(buf[8:], hi)
	default:
		panic("BUG: unhandled load/store " + ir.OperatorName(op))
	}
}

// Trapping float-to-int conversions.

func (ce *callEngine) truncS32(v float64) int32 {
	if math.IsNaN(v) {
		ce.trapf(trap.InvalidFloatConversion, "truncating NaN to i32")
	}
	t := math.Trunc(v)
	if t >= 2147483648.0 || t < -2147483648.0 {
		ce.trapf(trap.IntegerOverflow, "%g does not fit in i32", v)
	}
	return int32(t)
}

func (ce *callEngine) truncU32(v float64) uint32 {
	if math.IsNaN(v) {
		ce.trapf(trap.InvalidFloatConversion, "truncating NaN to u32")
	}
	t := math.Trunc(v)
	if t >= 4294967296.0 || t <= -1.0 {
		ce.trapf(trap.IntegerOverflow, "%g does not fit in u32", v)
	}
	return uint32(t)
}

func (ce *callEngine) truncS64(v float64) int64 {
	if math.IsNaN(v) {
		ce.trapf(trap.InvalidFloatConversion, "truncating NaN to i64")
	}
	t := math.Trunc(v)
	if t >= 9223372036854775808.0 || t < -9223372036854775808.0 {
		ce.trapf(trap.IntegerOverflow, "%g does not fit in i64", v)
	}
	return int64(t)
}

func (ce *callEngine) truncU64(v float64) uint64 {
	if math.IsNaN(v) {
		ce.trapf(trap.InvalidFloatConversion, "truncating NaN to u64")
	}
	t := math.Trunc(v)
	if t >= 18446744073709551616.0 || t <= -1.0 {
		ce.trapf(trap.IntegerOverflow, "%g does not fit in u64", v)
	}
	return uint64(t)
}

func truncSatS(v float64, width int) int64 {
	if math.IsNaN(v) {
		return 0
	}
	min, max := -9223372036854775808.0, 9223372036854775807.0
	minI, maxI := int64(math.MinInt64), int64(math.MaxInt64)
	if width == 32 {
		min, max = -2147483648.0, 2147483647.0
		minI, maxI = math.MinInt32, math.MaxInt32
	}
	t := math.Trunc(v)
	if t < min {
		return minI
	}
	if t > max {
		return maxI
	}
	return int64(t)
}

func truncSatU(v float64, width int) uint64 {
	if math.IsNaN(v) || v <= -1.0 {
		return 0
	}
	t := math.Trunc(v)
	if width == 32 {
		if t >= 4294967296.0 {
			return math.MaxUint32
		}
		return uint64(t)
	}
	if t >= 18446744073709551616.0 {
		return math.MaxUint64
	}
	return uint64(t)
}

// Small helpers shared by the numeric cases.

func b2i(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func f32(v uint64) float32  { return math.Float32frombits(uint32(v)) }
func f64(v uint64) float64  { return math.Float64frombits(v) }
func pf32(v float32) uint64 { return uint64(math.Float32bits(v)) }
func pf64(v float64) uint64 { return math.Float64bits(v) }

func cmp32(op ir.Opcode, a, b uint32) bool {
	switch op {
	case ir.OpcodeI32Eq:
		return a == b
	case ir.OpcodeI32Ne:
		return a != b
	case ir.OpcodeI32LtS:
		return int32(a) < int32(b)
	case ir.OpcodeI32LtU:
		return a < b
	case ir.OpcodeI32GtS:
		return int32(a) > int32(b)
	case ir.OpcodeI32GtU:
		return a > b
	case ir.OpcodeI32LeS:
		return int32(a) <= int32(b)
	case ir.OpcodeI32LeU:
		return a <= b
	case ir.OpcodeI32GeS:
		return int32(a) >= int32(b)
	case ir.OpcodeI32GeU:
		return a >= b
	}
	panic("BUG: not an i32 comparison")
}

func cmp64(op ir.Opcode, a, b uint64) bool {
	switch op {
	case ir.OpcodeI64Eq:
		return a == b
	case ir.OpcodeI64Ne:
		return a != b
	case ir.OpcodeI64LtS:
		return int64(a) < int64(b)
	case ir.OpcodeI64LtU:
		return a < b
	case ir.OpcodeI64GtS:
		return int64(a) > int64(b)
	case ir.OpcodeI64GtU:
		return a > b
	case ir.OpcodeI64LeS:
		return int64(a) <= int64(b)
	case ir.OpcodeI64LeU:
		return a <= b
	case ir.OpcodeI64GeS:
		return int64(a) >= int64(b)
	case ir.OpcodeI64GeU:
		return a >= b
	}
	panic("BUG: not an i64 comparison")
}

func cmpF(op ir.Opcode, a, b float64) bool {
	switch op {
	case ir.OpcodeF32Eq, ir.OpcodeF64Eq:
		return a == b
	case ir.OpcodeF32Ne, ir.OpcodeF64Ne:
		return a != b
	case ir.OpcodeF32Lt, ir.OpcodeF64Lt:
		return a < b
	case ir.OpcodeF32Gt, ir.OpcodeF64Gt:
		return a > b
	case ir.OpcodeF32Le, ir.OpcodeF64Le:
		return a <= b
	case ir.OpcodeF32Ge, ir.OpcodeF64Ge:
		return a >= b
	}
	panic("BUG: not a float comparison")
}
