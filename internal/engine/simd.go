package engine

import (
	"encoding/binary"
	"math"

	"github.com/riftwasm/rift/internal/ir"
)

// v128 values occupy two stack slots, low half pushed first. Lanewise work
// round-trips through the 16-byte little-endian representation.

func v128Bytes(lo, hi uint64) (b [16]byte) {
	binary.LittleEndian.PutUint64(b[:], lo)
	binary.LittleEndian.PutUint64(b[8:], hi)
	return
}

func v128Slots(b [16]byte) (lo, hi uint64) {
	return binary.LittleEndian.Uint64(b[:]), binary.LittleEndian.Uint64(b[8:])
}

func (ce *callEngine) execSIMD(ins *instr, push func(uint64), pop func() uint64) {
	op := ins.op

	popV := func() [16]byte {
		hi, lo := pop(), pop()
		return v128Bytes(lo, hi)
	}
	pushV := func(b [16]byte) {
		lo, hi := v128Slots(b)
		push(lo)
		push(hi)
	}

	switch op {
	case ir.OpcodeV128Const:
		pushV(ins.imm.V128)
	case ir.OpcodeI8x16Shuffle:
		b := popV()
		a := popV()
		var out [16]byte
		for i, l := range ins.imm.Lanes {
			if l < 16 {
				out[i] = a[l]
			} else {
				out[i] = b[l-16]
			}
		}
		pushV(out)
	case ir.OpcodeV128Not:
		a := popV()
		for i := range a {
			a[i] = ^a[i]
		}
		pushV(a)
	case ir.OpcodeV128And, ir.OpcodeV128AndNot, ir.OpcodeV128Or, ir.OpcodeV128Xor:
		b := popV()
		a := popV()
		var out [16]byte
		for i := range out {
			switch op {
			case ir.OpcodeV128And:
				out[i] = a[i] & b[i]
			case ir.OpcodeV128AndNot:
				out[i] = a[i] &^ b[i]
			case ir.OpcodeV128Or:
				out[i] = a[i] | b[i]
			case ir.OpcodeV128Xor:
				out[i] = a[i] ^ b[i]
			}
		}
		pushV(out)
	case ir.OpcodeV128Bitselect:
		c := popV()
		b := popV()
		a := popV()
		var out [16]byte
		for i := range out {
			out[i] = (a[i] & c[i]) | (b[i] &^ c[i])
		}
		pushV(out)
	case ir.OpcodeV128AnyTrue:
		a := popV()
		v := uint64(0)
		for _, c := range a {
			if c != 0 {
				v = 1
				break
			}
		}
		push(v)

	case ir.OpcodeI8x16Splat:
		v := byte(pop())
		var out [16]byte
		for i := range out {
			out[i] = v
		}
		pushV(out)
	case ir.OpcodeI16x8Splat:
		v := uint16(pop())
		var out [16]byte
		for i := 0; i < 8; i++ {
			binary.LittleEndian.PutUint16(out[i*2:], v)
		}
		pushV(out)
	case ir.OpcodeI32x4Splat:
		v := uint32(pop())
		var out [16]byte
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
		pushV(out)
	case ir.OpcodeI64x2Splat:
		v := pop()
		var out [16]byte
		binary.LittleEndian.PutUint64(out[:], v)
		binary.LittleEndian.PutUint64(out[8:], v)
		pushV(out)
	case ir.OpcodeF32x4Splat:
		v := uint32(pop())
		var out [16]byte
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint32(out[i*4:], v)
		}
		pushV(out)
	case ir.OpcodeF64x2Splat:
		v := pop()
		var out [16]byte
		binary.LittleEndian.PutUint64(out[:], v)
		binary.LittleEndian.PutUint64(out[8:], v)
		pushV(out)

	case ir.OpcodeI8x16ExtractLaneS:
		a := popV()
		push(uint64(uint32(int32(int8(a[ins.imm.LaneIndex])))))
	case ir.OpcodeI8x16ExtractLaneU:
		a := popV()
		push(uint64(a[ins.imm.LaneIndex]))
	case ir.OpcodeI16x8ExtractLaneS:
		a := popV()
		push(uint64(uint32(int32(int16(binary.LittleEndian.Uint16(a[ins.imm.LaneIndex*2:]))))))
	case ir.OpcodeI16x8ExtractLaneU:
		a := popV()
		push(uint64(binary.LittleEndian.Uint16(a[ins.imm.LaneIndex*2:])))
	case ir.OpcodeI32x4ExtractLane, ir.OpcodeF32x4ExtractLane:
		a := popV()
		push(uint64(binary.LittleEndian.Uint32(a[ins.imm.LaneIndex*4:])))
	case ir.OpcodeI64x2ExtractLane, ir.OpcodeF64x2ExtractLane:
		a := popV()
		push(binary.LittleEndian.Uint64(a[ins.imm.LaneIndex*8:]))

	case ir.OpcodeI8x16ReplaceLane:
		v := byte(pop())
		a := popV()
		a[ins.imm.LaneIndex] = v
		pushV(a)
	case ir.OpcodeI16x8ReplaceLane:
		v := uint16(pop())
		a := popV()
		binary.LittleEndian.PutUint16(a[ins.imm.LaneIndex*2:], v)
		pushV(a)
	case ir.OpcodeI32x4ReplaceLane, ir.OpcodeF32x4ReplaceLane:
		v := uint32(pop())
		a := popV()
		binary.LittleEndian.PutUint32(a[ins.imm.LaneIndex*4:], v)
		pushV(a)
	case ir.OpcodeI64x2ReplaceLane, ir.OpcodeF64x2ReplaceLane:
		v := pop()
		a := popV()
		binary.LittleEndian.PutUint64(a[ins.imm.LaneIndex*8:], v)
		pushV(a)

	case ir.OpcodeI8x16Add, ir.OpcodeI8x16Sub:
		b := popV()
		a := popV()
		var out [16]byte
		for i := range out {
			if op == ir.OpcodeI8x16Add {
				out[i] = a[i] + b[i]
			} else {
				out[i] = a[i] - b[i]
			}
		}
		pushV(out)
	case ir.OpcodeI16x8Add, ir.OpcodeI16x8Sub, ir.OpcodeI16x8Mul:
		b := popV()
		a := popV()
		var out [16]byte
		for i := 0; i < 8; i++ {
			x := binary.LittleEndian.Uint16(a[i*2:])
			y := binary.LittleEndian.Uint16(b[i*2:])
			var r uint16
			switch op {
			case ir.OpcodeI16x8Add:
				r = x + y
			case ir.OpcodeI16x8Sub:
				r = x - y
			case ir.OpcodeI16x8Mul:
				r = x * y
			}
			binary.LittleEndian.PutUint16(out[i*2:], r)
		}
		pushV(out)
	case ir.OpcodeI32x4Add, ir.OpcodeI32x4Sub, ir.OpcodeI32x4Mul:
		b := popV()
		a := popV()
		var out [16]byte
		for i := 0; i < 4; i++ {
			x := binary.LittleEndian.Uint32(a[i*4:])
			y := binary.LittleEndian.Uint32(b[i*4:])
			var r uint32
			switch op {
			case ir.OpcodeI32x4Add:
				r = x + y
			case ir.OpcodeI32x4Sub:
				r = x - y
			case ir.OpcodeI32x4Mul:
				r = x * y
			}
			binary.LittleEndian.PutUint32(out[i*4:], r)
		}
		pushV(out)
	case ir.OpcodeI64x2Add, ir.OpcodeI64x2Sub, ir.OpcodeI64x2Mul:
		b := popV()
		a := popV()
		var out [16]byte
		for i := 0; i < 2; i++ {
			x := binary.LittleEndian.Uint64(a[i*8:])
			y := binary.LittleEndian.Uint64(b[i*8:])
			var r uint64
			switch op {
			case ir.OpcodeI64x2Add:
				r = x + y
			case ir.OpcodeI64x2Sub:
				r = x - y
			case ir.OpcodeI64x2Mul:
				r = x * y
			}
			binary.LittleEndian.PutUint64(out[i*8:], r)
		}
		pushV(out)
	case ir.OpcodeF32x4Add, ir.OpcodeF32x4Sub, ir.OpcodeF32x4Mul, ir.OpcodeF32x4Div:
		b := popV()
		a := popV()
		var out [16]byte
		for i := 0; i < 4; i++ {
			x := math.Float32frombits(binary.LittleEndian.Uint32(a[i*4:]))
			y := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
			var r float32
			switch op {
			case ir.OpcodeF32x4Add:
				r = x + y
			case ir.OpcodeF32x4Sub:
				r = x - y
			case ir.OpcodeF32x4Mul:
				r = x * y
			case ir.OpcodeF32x4Div:
				r = x / y
			}
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(r))
		}
		pushV(out)
	case ir.OpcodeF64x2Add, ir.OpcodeF64x2Sub, ir.OpcodeF64x2Mul, ir.OpcodeF64x2Div:
		b := popV()
		a := popV()
		var out [16]byte
		for i := 0; i < 2; i++ {
			x := math.Float64frombits(binary.LittleEndian.Uint64(a[i*8:]))
			y := math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
			var r float64
			switch op {
			case ir.OpcodeF64x2Add:
				r = x + y
			case ir.OpcodeF64x2Sub:
				r = x - y
			case ir.OpcodeF64x2Mul:
				r = x * y
			case ir.OpcodeF64x2Div:
				r = x / y
			}
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(r))
		}
		pushV(out)
	default:
		panic("BUG: unhandled SIMD opcode " + ir.OperatorName(op))
	}
}
