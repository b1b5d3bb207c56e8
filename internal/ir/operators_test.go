package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeOperator(t *testing.T) {
	all := FeatureSpecAll()
	mvp := FeatureSpecMVP()

	tests := []struct {
		name     string
		body     []byte
		features FeatureSpec
		expOp    Opcode
		expN     int
		check    func(t *testing.T, imm Immediate)
		expErr   string
	}{
		{
			name: "i32.const", body: []byte{0x41, 0x05}, features: mvp,
			expOp: OpcodeI32Const, expN: 2,
			check: func(t *testing.T, imm Immediate) { require.Equal(t, int32(5), imm.I32) },
		},
		{
			name: "i32.load with align and offset", body: []byte{0x28, 0x02, 0x10}, features: mvp,
			expOp: OpcodeI32Load, expN: 3,
			check: func(t *testing.T, imm Immediate) {
				require.Equal(t, uint32(2), imm.AlignLog2)
				require.Equal(t, uint32(0x10), imm.Offset)
			},
		},
		{
			name: "block with empty type", body: []byte{0x02, 0x40}, features: mvp,
			expOp: OpcodeBlock, expN: 2,
			check: func(t *testing.T, imm Immediate) { require.Equal(t, BlockTypeEmpty, imm.BlockType.Kind) },
		},
		{
			name: "block with value type", body: []byte{0x02, 0x7f}, features: mvp,
			expOp: OpcodeBlock, expN: 2,
			check: func(t *testing.T, imm Immediate) {
				require.Equal(t, BlockTypeValue, imm.BlockType.Kind)
				require.Equal(t, ValueTypeI32, imm.BlockType.ValueType)
			},
		},
		{
			name: "block type index needs multi-value", body: []byte{0x02, 0x01}, features: mvp,
			expErr: "multi-value",
		},
		{
			name: "br_table", body: []byte{0x0e, 0x02, 0x00, 0x01, 0x02}, features: mvp,
			expOp: OpcodeBrTable, expN: 5,
			check: func(t *testing.T, imm Immediate) {
				require.Equal(t, []Index{0, 1}, imm.Depths)
				require.Equal(t, Index(2), imm.DefaultDepth)
			},
		},
		{
			name: "call_indirect", body: []byte{0x11, 0x03, 0x00}, features: mvp,
			expOp: OpcodeCallIndirect, expN: 3,
			check: func(t *testing.T, imm Immediate) {
				require.Equal(t, Index(3), imm.TypeIndex)
				require.Equal(t, Index(0), imm.TableIndex)
			},
		},
		{
			name: "trunc_sat gated off", body: []byte{0xfc, 0x00}, features: mvp,
			expErr: "disabled feature",
		},
		{
			name: "trunc_sat gated on", body: []byte{0xfc, 0x00}, features: all,
			expOp: OpcodeI32TruncSatF32S, expN: 2,
		},
		{
			name: "atomic wait32", body: []byte{0xfe, 0x01, 0x02, 0x00}, features: all,
			expOp: OpcodeMemoryAtomicWait32, expN: 4,
		},
		{
			name: "v128.const", features: all,
			body:  append([]byte{0xfd, 0x0c}, make([]byte, 16)...),
			expOp: OpcodeV128Const, expN: 18,
		},
		{
			name: "unknown opcode", body: []byte{0x27}, features: all,
			expErr: "unknown opcode",
		},
		{
			name: "truncated immediate", body: []byte{0x41}, features: mvp,
			expErr: "read i32 literal",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			op, imm, n, err := DecodeOperator(tc.body, 0, tc.features)
			if tc.expErr != "" {
				require.ErrorContains(t, err, tc.expErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expOp, op)
			require.Equal(t, tc.expN, n)
			if tc.check != nil {
				tc.check(t, imm)
			}
		})
	}
}

func TestOperatorName(t *testing.T) {
	require.Equal(t, "i32.add", OperatorName(OpcodeI32Add))
	require.Equal(t, "memory.atomic.notify", OperatorName(OpcodeMemoryAtomicNotify))
	require.Equal(t, "unknown", OperatorName(Opcode(0x26)))
}

func TestResolveBlockType(t *testing.T) {
	m := NewModule(FeatureSpecAll())
	sig := InternFunctionType(InternTypeTuple(ValueTypeI32), InternTypeTuple(ValueTypeI64))
	m.Types = []*FunctionType{sig}

	ft, err := m.ResolveBlockType(BlockType{Kind: BlockTypeEmpty})
	require.NoError(t, err)
	require.Zero(t, ft.Params.Arity())
	require.Zero(t, ft.Results.Arity())

	ft, err = m.ResolveBlockType(BlockType{Kind: BlockTypeValue, ValueType: ValueTypeF32})
	require.NoError(t, err)
	require.Equal(t, []ValueType{ValueTypeF32}, ft.Results.Types)

	ft, err = m.ResolveBlockType(BlockType{Kind: BlockTypeIndex, TypeIndex: 0})
	require.NoError(t, err)
	require.Same(t, sig, ft)

	_, err = m.ResolveBlockType(BlockType{Kind: BlockTypeIndex, TypeIndex: 9})
	require.ErrorContains(t, err, "out of range")
}
