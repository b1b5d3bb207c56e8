package ir

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/riftwasm/rift/internal/leb128"
)

// Immediate is the decoded immediate of one operator. Which fields are
// meaningful depends on the operator's ImmKind.
type Immediate struct {
	I32  int32
	I64  int64
	F32  float32
	F64  float64
	V128 [16]byte

	// Index is the local/global/function/exception-type index, or the branch
	// target depth for ImmBranch.
	Index Index

	// AlignLog2 and Offset describe a memory access.
	AlignLog2 uint32
	Offset    uint32

	// TypeIndex and TableIndex describe call_indirect.
	TypeIndex  Index
	TableIndex Index

	// Depths and DefaultDepth describe br_table.
	Depths       []Index
	DefaultDepth Index

	// LaneIndex is the lane of a SIMD extract/replace; Lanes the shuffle mask.
	LaneIndex byte
	Lanes     [16]byte

	// BlockType describes a control structure's signature.
	BlockType BlockType
}

// BlockType is the declared signature of a block, loop, if or try. It is
// either empty, a single value type, or (with multi-value) a type index.
type BlockType struct {
	Kind      BlockTypeKind
	ValueType ValueType
	TypeIndex Index
}

type BlockTypeKind byte

const (
	BlockTypeEmpty BlockTypeKind = iota
	BlockTypeValue
	BlockTypeIndex
)

// DecodeOperator reads one operator and its immediate from body starting at
// pc. It returns the opcode, the decoded immediate and the number of bytes
// consumed. Unknown or feature-gated opcodes are an error; the caller maps
// it to a malformed-module failure with the byte offset.
func DecodeOperator(body []byte, pc int, features FeatureSpec) (Opcode, Immediate, int, error) {
	var imm Immediate
	if pc >= len(body) {
		return 0, imm, 0, fmt.Errorf("truncated operator stream")
	}

	op := Opcode(body[pc])
	n := 1
	switch byte(op) {
	case MiscPrefix, SIMDPrefix, AtomicPrefix:
		sub, subN, err := leb128.DecodeUint32(body[pc+n:])
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read subopcode: %w", err)
		}
		n += subN
		op = PrefixedOpcode(byte(op), sub)
	}

	info, ok := LookupOperator(op)
	if !ok {
		return 0, imm, 0, fmt.Errorf("unknown opcode 0x%x", uint32(op))
	}
	if !info.Feature.Enabled(features) {
		return 0, imm, 0, fmt.Errorf("opcode %s requires a disabled feature", info.Name)
	}

	rest := body[pc+n:]
	switch info.Imm {
	case ImmNone:
	case ImmBlockType:
		bt, btN, err := decodeBlockType(rest, features)
		if err != nil {
			return 0, imm, 0, err
		}
		imm.BlockType = bt
		n += btN
	case ImmBranch, ImmLocalIndex, ImmGlobalIndex, ImmCall, ImmCatch:
		v, vN, err := leb128.DecodeUint32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read %s immediate: %w", info.Name, err)
		}
		imm.Index = v
		n += vN
	case ImmBranchTable:
		count, cN, err := leb128.DecodeUint32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read br_table count: %w", err)
		}
		n += cN
		rest = rest[cN:]
		if uint64(count) > uint64(len(rest)) {
			return 0, imm, 0, fmt.Errorf("br_table target count %d exceeds remaining input", count)
		}
		imm.Depths = make([]Index, count)
		for i := uint32(0); i < count; i++ {
			d, dN, err := leb128.DecodeUint32(rest)
			if err != nil {
				return 0, imm, 0, fmt.Errorf("read br_table target: %w", err)
			}
			imm.Depths[i] = d
			n += dN
			rest = rest[dN:]
		}
		d, dN, err := leb128.DecodeUint32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read br_table default target: %w", err)
		}
		imm.DefaultDepth = d
		n += dN
	case ImmCallIndirect:
		ti, tiN, err := leb128.DecodeUint32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read call_indirect type index: %w", err)
		}
		imm.TypeIndex = ti
		n += tiN
		rest = rest[tiN:]
		tbl, tblN, err := leb128.DecodeUint32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read call_indirect table index: %w", err)
		}
		if tbl != 0 && !features.ReferenceTypes && !features.MultiTable {
			return 0, imm, 0, fmt.Errorf("call_indirect table index must be zero")
		}
		imm.TableIndex = tbl
		n += tblN
	case ImmLoadStore:
		align, aN, err := leb128.DecodeUint32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read %s alignment: %w", info.Name, err)
		}
		imm.AlignLog2 = align
		n += aN
		rest = rest[aN:]
		offset, oN, err := leb128.DecodeUint32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read %s offset: %w", info.Name, err)
		}
		imm.Offset = offset
		n += oN
	case ImmMemory:
		v, vN, err := leb128.DecodeUint32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read memory index: %w", err)
		}
		if v != 0 && !features.MultiMemory {
			return 0, imm, 0, fmt.Errorf("non-zero memory index requires multi-memory")
		}
		imm.Index = v
		n += vN
	case ImmTwoMemories:
		for i := 0; i < 2; i++ {
			v, vN, err := leb128.DecodeUint32(rest)
			if err != nil {
				return 0, imm, 0, fmt.Errorf("read memory index: %w", err)
			}
			if v != 0 && !features.MultiMemory {
				return 0, imm, 0, fmt.Errorf("non-zero memory index requires multi-memory")
			}
			n += vN
			rest = rest[vN:]
		}
	case ImmI32Literal:
		v, vN, err := leb128.DecodeInt32(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read i32 literal: %w", err)
		}
		imm.I32 = v
		n += vN
	case ImmI64Literal:
		v, vN, err := leb128.DecodeInt64(rest)
		if err != nil {
			return 0, imm, 0, fmt.Errorf("read i64 literal: %w", err)
		}
		imm.I64 = v
		n += vN
	case ImmF32Literal:
		if len(rest) < 4 {
			return 0, imm, 0, fmt.Errorf("truncated f32 literal")
		}
		imm.F32 = math.Float32frombits(binary.LittleEndian.Uint32(rest))
		n += 4
	case ImmF64Literal:
		if len(rest) < 8 {
			return 0, imm, 0, fmt.Errorf("truncated f64 literal")
		}
		imm.F64 = math.Float64frombits(binary.LittleEndian.Uint64(rest))
		n += 8
	case ImmV128Literal:
		if len(rest) < 16 {
			return 0, imm, 0, fmt.Errorf("truncated v128 literal")
		}
		copy(imm.V128[:], rest[:16])
		n += 16
	case ImmLane:
		if len(rest) < 1 {
			return 0, imm, 0, fmt.Errorf("truncated lane index")
		}
		imm.LaneIndex = rest[0]
		n++
	case ImmShuffle:
		if len(rest) < 16 {
			return 0, imm, 0, fmt.Errorf("truncated shuffle mask")
		}
		copy(imm.Lanes[:], rest[:16])
		n += 16
	default:
		panic("BUG: unhandled immediate kind")
	}
	return op, imm, n, nil
}

func decodeBlockType(b []byte, features FeatureSpec) (BlockType, int, error) {
	raw, n, err := leb128.DecodeInt33(b)
	if err != nil {
		return BlockType{}, 0, fmt.Errorf("read block type: %w", err)
	}
	switch {
	case raw == -64: // 0x40
		return BlockType{Kind: BlockTypeEmpty}, n, nil
	case raw < 0:
		vt := ValueType(raw & 0x7f)
		if !IsValueType(vt) {
			return BlockType{}, 0, fmt.Errorf("invalid block value type 0x%x", vt)
		}
		return BlockType{Kind: BlockTypeValue, ValueType: vt}, n, nil
	default:
		if !features.MultiValue {
			return BlockType{}, 0, fmt.Errorf("block type index requires multi-value")
		}
		return BlockType{Kind: BlockTypeIndex, TypeIndex: Index(raw)}, n, nil
	}
}
