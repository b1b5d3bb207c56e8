package ir

// Opcode identifies a WebAssembly operator. Single-byte operators use their
// byte value. Operators behind a prefix byte (0xfc misc, 0xfd simd, 0xfe
// atomic) are encoded as prefix<<16 | subopcode.
type Opcode uint32

const (
	MiscPrefix   byte = 0xfc
	SIMDPrefix   byte = 0xfd
	AtomicPrefix byte = 0xfe
)

// PrefixedOpcode builds the Opcode for a prefixed operator.
func PrefixedOpcode(prefix byte, sub uint32) Opcode {
	return Opcode(uint32(prefix)<<16 | sub)
}

// Prefix returns the prefix byte of op, or zero for single-byte operators.
func (op Opcode) Prefix() byte { return byte(op >> 16) }

// Sub returns the subopcode of a prefixed operator.
func (op Opcode) Sub() uint32 { return uint32(op) & 0xffff }

const (
	// Control operators.
	OpcodeUnreachable  Opcode = 0x00
	OpcodeNop          Opcode = 0x01
	OpcodeBlock        Opcode = 0x02
	OpcodeLoop         Opcode = 0x03
	OpcodeIf           Opcode = 0x04
	OpcodeElse         Opcode = 0x05
	OpcodeTry          Opcode = 0x06
	OpcodeCatch        Opcode = 0x07
	OpcodeThrow        Opcode = 0x08
	OpcodeRethrow      Opcode = 0x09
	OpcodeEnd          Opcode = 0x0b
	OpcodeBr           Opcode = 0x0c
	OpcodeBrIf         Opcode = 0x0d
	OpcodeBrTable      Opcode = 0x0e
	OpcodeReturn       Opcode = 0x0f
	OpcodeCall         Opcode = 0x10
	OpcodeCallIndirect Opcode = 0x11

	// Parametric operators.
	OpcodeDrop   Opcode = 0x1a
	OpcodeSelect Opcode = 0x1b

	// Variable access.
	OpcodeLocalGet  Opcode = 0x20
	OpcodeLocalSet  Opcode = 0x21
	OpcodeLocalTee  Opcode = 0x22
	OpcodeGlobalGet Opcode = 0x23
	OpcodeGlobalSet Opcode = 0x24

	// Memory operators.
	OpcodeI32Load    Opcode = 0x28
	OpcodeI64Load    Opcode = 0x29
	OpcodeF32Load    Opcode = 0x2a
	OpcodeF64Load    Opcode = 0x2b
	OpcodeI32Load8S  Opcode = 0x2c
	OpcodeI32Load8U  Opcode = 0x2d
	OpcodeI32Load16S Opcode = 0x2e
	OpcodeI32Load16U Opcode = 0x2f
	OpcodeI64Load8S  Opcode = 0x30
	OpcodeI64Load8U  Opcode = 0x31
	OpcodeI64Load16S Opcode = 0x32
	OpcodeI64Load16U Opcode = 0x33
	OpcodeI64Load32S Opcode = 0x34
	OpcodeI64Load32U Opcode = 0x35
	OpcodeI32Store   Opcode = 0x36
	OpcodeI64Store   Opcode = 0x37
	OpcodeF32Store   Opcode = 0x38
	OpcodeF64Store   Opcode = 0x39
	OpcodeI32Store8  Opcode = 0x3a
	OpcodeI32Store16 Opcode = 0x3b
	OpcodeI64Store8  Opcode = 0x3c
	OpcodeI64Store16 Opcode = 0x3d
	OpcodeI64Store32 Opcode = 0x3e
	OpcodeMemorySize Opcode = 0x3f
	OpcodeMemoryGrow Opcode = 0x40

	// Numeric constants.
	OpcodeI32Const Opcode = 0x41
	OpcodeI64Const Opcode = 0x42
	OpcodeF32Const Opcode = 0x43
	OpcodeF64Const Opcode = 0x44

	// i32 comparisons.
	OpcodeI32Eqz Opcode = 0x45
	OpcodeI32Eq  Opcode = 0x46
	OpcodeI32Ne  Opcode = 0x47
	OpcodeI32LtS Opcode = 0x48
	OpcodeI32LtU Opcode = 0x49
	OpcodeI32GtS Opcode = 0x4a
	OpcodeI32GtU Opcode = 0x4b
	OpcodeI32LeS Opcode = 0x4c
	OpcodeI32LeU Opcode = 0x4d
	OpcodeI32GeS Opcode = 0x4e
	OpcodeI32GeU Opcode = 0x4f

	// i64 comparisons.
	OpcodeI64Eqz Opcode = 0x50
	OpcodeI64Eq  Opcode = 0x51
	OpcodeI64Ne  Opcode = 0x52
	OpcodeI64LtS Opcode = 0x53
	OpcodeI64LtU Opcode = 0x54
	OpcodeI64GtS Opcode = 0x55
	OpcodeI64GtU Opcode = 0x56
	OpcodeI64LeS Opcode = 0x57
	OpcodeI64LeU Opcode = 0x58
	OpcodeI64GeS Opcode = 0x59
	OpcodeI64GeU Opcode = 0x5a

	// f32 comparisons.
	OpcodeF32Eq Opcode = 0x5b
	OpcodeF32Ne Opcode = 0x5c
	OpcodeF32Lt Opcode = 0x5d
	OpcodeF32Gt Opcode = 0x5e
	OpcodeF32Le Opcode = 0x5f
	OpcodeF32Ge Opcode = 0x60

	// f64 comparisons.
	OpcodeF64Eq Opcode = 0x61
	OpcodeF64Ne Opcode = 0x62
	OpcodeF64Lt Opcode = 0x63
	OpcodeF64Gt Opcode = 0x64
	OpcodeF64Le Opcode = 0x65
	OpcodeF64Ge Opcode = 0x66

	// i32 arithmetic.
	OpcodeI32Clz    Opcode = 0x67
	OpcodeI32Ctz    Opcode = 0x68
	OpcodeI32Popcnt Opcode = 0x69
	OpcodeI32Add    Opcode = 0x6a
	OpcodeI32Sub    Opcode = 0x6b
	OpcodeI32Mul    Opcode = 0x6c
	OpcodeI32DivS   Opcode = 0x6d
	OpcodeI32DivU   Opcode = 0x6e
	OpcodeI32RemS   Opcode = 0x6f
	OpcodeI32RemU   Opcode = 0x70
	OpcodeI32And    Opcode = 0x71
	OpcodeI32Or     Opcode = 0x72
	OpcodeI32Xor    Opcode = 0x73
	OpcodeI32Shl    Opcode = 0x74
	OpcodeI32ShrS   Opcode = 0x75
	OpcodeI32ShrU   Opcode = 0x76
	OpcodeI32Rotl   Opcode = 0x77
	OpcodeI32Rotr   Opcode = 0x78

	// i64 arithmetic.
	OpcodeI64Clz    Opcode = 0x79
	OpcodeI64Ctz    Opcode = 0x7a
	OpcodeI64Popcnt Opcode = 0x7b
	OpcodeI64Add    Opcode = 0x7c
	OpcodeI64Sub    Opcode = 0x7d
	OpcodeI64Mul    Opcode = 0x7e
	OpcodeI64DivS   Opcode = 0x7f
	OpcodeI64DivU   Opcode = 0x80
	OpcodeI64RemS   Opcode = 0x81
	OpcodeI64RemU   Opcode = 0x82
	OpcodeI64And    Opcode = 0x83
	OpcodeI64Or     Opcode = 0x84
	OpcodeI64Xor    Opcode = 0x85
	OpcodeI64Shl    Opcode = 0x86
	OpcodeI64ShrS   Opcode = 0x87
	OpcodeI64ShrU   Opcode = 0x88
	OpcodeI64Rotl   Opcode = 0x89
	OpcodeI64Rotr   Opcode = 0x8a

	// f32 arithmetic.
	OpcodeF32Abs      Opcode = 0x8b
	OpcodeF32Neg      Opcode = 0x8c
	OpcodeF32Ceil     Opcode = 0x8d
	OpcodeF32Floor    Opcode = 0x8e
	OpcodeF32Trunc    Opcode = 0x8f
	OpcodeF32Nearest  Opcode = 0x90
	OpcodeF32Sqrt     Opcode = 0x91
	OpcodeF32Add      Opcode = 0x92
	OpcodeF32Sub      Opcode = 0x93
	OpcodeF32Mul      Opcode = 0x94
	OpcodeF32Div      Opcode = 0x95
	OpcodeF32Min      Opcode = 0x96
	OpcodeF32Max      Opcode = 0x97
	OpcodeF32Copysign Opcode = 0x98

	// f64 arithmetic.
	OpcodeF64Abs      Opcode = 0x99
	OpcodeF64Neg      Opcode = 0x9a
	OpcodeF64Ceil     Opcode = 0x9b
	OpcodeF64Floor    Opcode = 0x9c
	OpcodeF64Trunc    Opcode = 0x9d
	OpcodeF64Nearest  Opcode = 0x9e
	OpcodeF64Sqrt     Opcode = 0x9f
	OpcodeF64Add      Opcode = 0xa0
	OpcodeF64Sub      Opcode = 0xa1
	OpcodeF64Mul      Opcode = 0xa2
	OpcodeF64Div      Opcode = 0xa3
	OpcodeF64Min      Opcode = 0xa4
	OpcodeF64Max      Opcode = 0xa5
	OpcodeF64Copysign Opcode = 0xa6

	// Conversions.
	OpcodeI32WrapI64        Opcode = 0xa7
	OpcodeI32TruncF32S      Opcode = 0xa8
	OpcodeI32TruncF32U      Opcode = 0xa9
	OpcodeI32TruncF64S      Opcode = 0xaa
	OpcodeI32TruncF64U      Opcode = 0xab
	OpcodeI64ExtendI32S     Opcode = 0xac
	OpcodeI64ExtendI32U     Opcode = 0xad
	OpcodeI64TruncF32S      Opcode = 0xae
	OpcodeI64TruncF32U      Opcode = 0xaf
	OpcodeI64TruncF64S      Opcode = 0xb0
	OpcodeI64TruncF64U      Opcode = 0xb1
	OpcodeF32ConvertI32S    Opcode = 0xb2
	OpcodeF32ConvertI32U    Opcode = 0xb3
	OpcodeF32ConvertI64S    Opcode = 0xb4
	OpcodeF32ConvertI64U    Opcode = 0xb5
	OpcodeF32DemoteF64      Opcode = 0xb6
	OpcodeF64ConvertI32S    Opcode = 0xb7
	OpcodeF64ConvertI32U    Opcode = 0xb8
	OpcodeF64ConvertI64S    Opcode = 0xb9
	OpcodeF64ConvertI64U    Opcode = 0xba
	OpcodeF64PromoteF32     Opcode = 0xbb
	OpcodeI32ReinterpretF32 Opcode = 0xbc
	OpcodeI64ReinterpretF64 Opcode = 0xbd
	OpcodeF32ReinterpretI32 Opcode = 0xbe
	OpcodeF64ReinterpretI64 Opcode = 0xbf

	// Sign extension.
	OpcodeI32Extend8S  Opcode = 0xc0
	OpcodeI32Extend16S Opcode = 0xc1
	OpcodeI64Extend8S  Opcode = 0xc2
	OpcodeI64Extend16S Opcode = 0xc3
	OpcodeI64Extend32S Opcode = 0xc4
)

// Non-trapping float-to-int and bulk memory (0xfc page).
var (
	OpcodeI32TruncSatF32S = PrefixedOpcode(MiscPrefix, 0x00)
	OpcodeI32TruncSatF32U = PrefixedOpcode(MiscPrefix, 0x01)
	OpcodeI32TruncSatF64S = PrefixedOpcode(MiscPrefix, 0x02)
	OpcodeI32TruncSatF64U = PrefixedOpcode(MiscPrefix, 0x03)
	OpcodeI64TruncSatF32S = PrefixedOpcode(MiscPrefix, 0x04)
	OpcodeI64TruncSatF32U = PrefixedOpcode(MiscPrefix, 0x05)
	OpcodeI64TruncSatF64S = PrefixedOpcode(MiscPrefix, 0x06)
	OpcodeI64TruncSatF64U = PrefixedOpcode(MiscPrefix, 0x07)
	OpcodeMemoryCopy      = PrefixedOpcode(MiscPrefix, 0x0a)
	OpcodeMemoryFill      = PrefixedOpcode(MiscPrefix, 0x0b)
)

// SIMD core (0xfd page).
var (
	OpcodeV128Load  = PrefixedOpcode(SIMDPrefix, 0x00)
	OpcodeV128Store = PrefixedOpcode(SIMDPrefix, 0x0b)
	OpcodeV128Const = PrefixedOpcode(SIMDPrefix, 0x0c)

	OpcodeI8x16Shuffle = PrefixedOpcode(SIMDPrefix, 0x0d)

	OpcodeI8x16Splat = PrefixedOpcode(SIMDPrefix, 0x0f)
	OpcodeI16x8Splat = PrefixedOpcode(SIMDPrefix, 0x10)
	OpcodeI32x4Splat = PrefixedOpcode(SIMDPrefix, 0x11)
	OpcodeI64x2Splat = PrefixedOpcode(SIMDPrefix, 0x12)
	OpcodeF32x4Splat = PrefixedOpcode(SIMDPrefix, 0x13)
	OpcodeF64x2Splat = PrefixedOpcode(SIMDPrefix, 0x14)

	OpcodeI8x16ExtractLaneS = PrefixedOpcode(SIMDPrefix, 0x15)
	OpcodeI8x16ExtractLaneU = PrefixedOpcode(SIMDPrefix, 0x16)
	OpcodeI8x16ReplaceLane  = PrefixedOpcode(SIMDPrefix, 0x17)
	OpcodeI16x8ExtractLaneS = PrefixedOpcode(SIMDPrefix, 0x18)
	OpcodeI16x8ExtractLaneU = PrefixedOpcode(SIMDPrefix, 0x19)
	OpcodeI16x8ReplaceLane  = PrefixedOpcode(SIMDPrefix, 0x1a)
	OpcodeI32x4ExtractLane  = PrefixedOpcode(SIMDPrefix, 0x1b)
	OpcodeI32x4ReplaceLane  = PrefixedOpcode(SIMDPrefix, 0x1c)
	OpcodeI64x2ExtractLane  = PrefixedOpcode(SIMDPrefix, 0x1d)
	OpcodeI64x2ReplaceLane  = PrefixedOpcode(SIMDPrefix, 0x1e)
	OpcodeF32x4ExtractLane  = PrefixedOpcode(SIMDPrefix, 0x1f)
	OpcodeF32x4ReplaceLane  = PrefixedOpcode(SIMDPrefix, 0x20)
	OpcodeF64x2ExtractLane  = PrefixedOpcode(SIMDPrefix, 0x21)
	OpcodeF64x2ReplaceLane  = PrefixedOpcode(SIMDPrefix, 0x22)

	OpcodeV128Not       = PrefixedOpcode(SIMDPrefix, 0x4d)
	OpcodeV128And       = PrefixedOpcode(SIMDPrefix, 0x4e)
	OpcodeV128AndNot    = PrefixedOpcode(SIMDPrefix, 0x4f)
	OpcodeV128Or        = PrefixedOpcode(SIMDPrefix, 0x50)
	OpcodeV128Xor       = PrefixedOpcode(SIMDPrefix, 0x51)
	OpcodeV128Bitselect = PrefixedOpcode(SIMDPrefix, 0x52)
	OpcodeV128AnyTrue   = PrefixedOpcode(SIMDPrefix, 0x53)

	OpcodeI8x16Add = PrefixedOpcode(SIMDPrefix, 0x6e)
	OpcodeI8x16Sub = PrefixedOpcode(SIMDPrefix, 0x71)
	OpcodeI16x8Add = PrefixedOpcode(SIMDPrefix, 0x8e)
	OpcodeI16x8Sub = PrefixedOpcode(SIMDPrefix, 0x91)
	OpcodeI16x8Mul = PrefixedOpcode(SIMDPrefix, 0x95)
	OpcodeI32x4Add = PrefixedOpcode(SIMDPrefix, 0xae)
	OpcodeI32x4Sub = PrefixedOpcode(SIMDPrefix, 0xb1)
	OpcodeI32x4Mul = PrefixedOpcode(SIMDPrefix, 0xb5)
	OpcodeI64x2Add = PrefixedOpcode(SIMDPrefix, 0xce)
	OpcodeI64x2Sub = PrefixedOpcode(SIMDPrefix, 0xd1)
	OpcodeI64x2Mul = PrefixedOpcode(SIMDPrefix, 0xd5)
	OpcodeF32x4Add = PrefixedOpcode(SIMDPrefix, 0xe4)
	OpcodeF32x4Sub = PrefixedOpcode(SIMDPrefix, 0xe5)
	OpcodeF32x4Mul = PrefixedOpcode(SIMDPrefix, 0xe6)
	OpcodeF32x4Div = PrefixedOpcode(SIMDPrefix, 0xe7)
	OpcodeF64x2Add = PrefixedOpcode(SIMDPrefix, 0xf0)
	OpcodeF64x2Sub = PrefixedOpcode(SIMDPrefix, 0xf1)
	OpcodeF64x2Mul = PrefixedOpcode(SIMDPrefix, 0xf2)
	OpcodeF64x2Div = PrefixedOpcode(SIMDPrefix, 0xf3)
)

// Atomics (0xfe page).
var (
	OpcodeMemoryAtomicNotify = PrefixedOpcode(AtomicPrefix, 0x00)
	OpcodeMemoryAtomicWait32 = PrefixedOpcode(AtomicPrefix, 0x01)
	OpcodeMemoryAtomicWait64 = PrefixedOpcode(AtomicPrefix, 0x02)
	OpcodeAtomicFence        = PrefixedOpcode(AtomicPrefix, 0x03)

	OpcodeI32AtomicLoad    = PrefixedOpcode(AtomicPrefix, 0x10)
	OpcodeI64AtomicLoad    = PrefixedOpcode(AtomicPrefix, 0x11)
	OpcodeI32AtomicLoad8U  = PrefixedOpcode(AtomicPrefix, 0x12)
	OpcodeI32AtomicLoad16U = PrefixedOpcode(AtomicPrefix, 0x13)
	OpcodeI64AtomicLoad8U  = PrefixedOpcode(AtomicPrefix, 0x14)
	OpcodeI64AtomicLoad16U = PrefixedOpcode(AtomicPrefix, 0x15)
	OpcodeI64AtomicLoad32U = PrefixedOpcode(AtomicPrefix, 0x16)
	OpcodeI32AtomicStore   = PrefixedOpcode(AtomicPrefix, 0x17)
	OpcodeI64AtomicStore   = PrefixedOpcode(AtomicPrefix, 0x18)
	OpcodeI32AtomicStore8  = PrefixedOpcode(AtomicPrefix, 0x19)
	OpcodeI32AtomicStore16 = PrefixedOpcode(AtomicPrefix, 0x1a)
	OpcodeI64AtomicStore8  = PrefixedOpcode(AtomicPrefix, 0x1b)
	OpcodeI64AtomicStore16 = PrefixedOpcode(AtomicPrefix, 0x1c)
	OpcodeI64AtomicStore32 = PrefixedOpcode(AtomicPrefix, 0x1d)

	OpcodeI32AtomicRmwAdd = PrefixedOpcode(AtomicPrefix, 0x1e)
	OpcodeI64AtomicRmwAdd = PrefixedOpcode(AtomicPrefix, 0x1f)

	OpcodeI32AtomicRmwCmpxchg = PrefixedOpcode(AtomicPrefix, 0x48)
	OpcodeI64AtomicRmwCmpxchg = PrefixedOpcode(AtomicPrefix, 0x49)
)

// ImmKind describes the shape of an operator's immediate.
type ImmKind byte

const (
	ImmNone ImmKind = iota
	ImmBlockType
	ImmBranch
	ImmBranchTable
	ImmCall
	ImmCallIndirect
	ImmLocalIndex
	ImmGlobalIndex
	ImmLoadStore
	ImmMemory // memory.size / memory.grow reserved memory index
	ImmTwoMemories
	ImmI32Literal
	ImmI64Literal
	ImmF32Literal
	ImmF64Literal
	ImmV128Literal
	ImmLane
	ImmShuffle
	ImmCatch
)

// OperatorInfo carries per-opcode metadata: the text-format mnemonic, the
// immediate shape, the feature gating the opcode, and for memory accesses
// the natural alignment (log2).
type OperatorInfo struct {
	Name         string
	Imm          ImmKind
	NaturalAlign uint32 // log2 bytes; only meaningful for Imm == ImmLoadStore
	Feature      featureBit
}

type featureBit byte

const (
	featureMVP featureBit = iota
	featureSignExtension
	featureNonTrappingFloatToInt
	featureBulkMemory
	featureSIMD
	featureThreads
	featureExceptionHandling
)

// Enabled reports whether the feature bit is on in spec.
func (f featureBit) Enabled(spec FeatureSpec) bool {
	switch f {
	case featureMVP:
		return true
	case featureSignExtension:
		return spec.SignExtension
	case featureNonTrappingFloatToInt:
		return spec.NonTrappingFloatToInt
	case featureBulkMemory:
		return spec.BulkMemory
	case featureSIMD:
		return spec.SIMD
	case featureThreads:
		return spec.Threads
	case featureExceptionHandling:
		return spec.ExceptionHandling
	}
	return false
}

// LookupOperator returns the metadata for op. The second result is false for
// unknown opcodes.
func LookupOperator(op Opcode) (OperatorInfo, bool) {
	info, ok := operatorTable[op]
	return info, ok
}

var operatorTable = map[Opcode]OperatorInfo{
	OpcodeUnreachable:  {Name: "unreachable"},
	OpcodeNop:          {Name: "nop"},
	OpcodeBlock:        {Name: "block", Imm: ImmBlockType},
	OpcodeLoop:         {Name: "loop", Imm: ImmBlockType},
	OpcodeIf:           {Name: "if", Imm: ImmBlockType},
	OpcodeElse:         {Name: "else"},
	OpcodeTry:          {Name: "try", Imm: ImmBlockType, Feature: featureExceptionHandling},
	OpcodeCatch:        {Name: "catch", Imm: ImmCatch, Feature: featureExceptionHandling},
	OpcodeThrow:        {Name: "throw", Imm: ImmCatch, Feature: featureExceptionHandling},
	OpcodeRethrow:      {Name: "rethrow", Feature: featureExceptionHandling},
	OpcodeEnd:          {Name: "end"},
	OpcodeBr:           {Name: "br", Imm: ImmBranch},
	OpcodeBrIf:         {Name: "br_if", Imm: ImmBranch},
	OpcodeBrTable:      {Name: "br_table", Imm: ImmBranchTable},
	OpcodeReturn:       {Name: "return"},
	OpcodeCall:         {Name: "call", Imm: ImmCall},
	OpcodeCallIndirect: {Name: "call_indirect", Imm: ImmCallIndirect},

	OpcodeDrop:   {Name: "drop"},
	OpcodeSelect: {Name: "select"},

	OpcodeLocalGet:  {Name: "local.get", Imm: ImmLocalIndex},
	OpcodeLocalSet:  {Name: "local.set", Imm: ImmLocalIndex},
	OpcodeLocalTee:  {Name: "local.tee", Imm: ImmLocalIndex},
	OpcodeGlobalGet: {Name: "global.get", Imm: ImmGlobalIndex},
	OpcodeGlobalSet: {Name: "global.set", Imm: ImmGlobalIndex},

	OpcodeI32Load:    {Name: "i32.load", Imm: ImmLoadStore, NaturalAlign: 2},
	OpcodeI64Load:    {Name: "i64.load", Imm: ImmLoadStore, NaturalAlign: 3},
	OpcodeF32Load:    {Name: "f32.load", Imm: ImmLoadStore, NaturalAlign: 2},
	OpcodeF64Load:    {Name: "f64.load", Imm: ImmLoadStore, NaturalAlign: 3},
	OpcodeI32Load8S:  {Name: "i32.load8_s", Imm: ImmLoadStore, NaturalAlign: 0},
	OpcodeI32Load8U:  {Name: "i32.load8_u", Imm: ImmLoadStore, NaturalAlign: 0},
	OpcodeI32Load16S: {Name: "i32.load16_s", Imm: ImmLoadStore, NaturalAlign: 1},
	OpcodeI32Load16U: {Name: "i32.load16_u", Imm: ImmLoadStore, NaturalAlign: 1},
	OpcodeI64Load8S:  {Name: "i64.load8_s", Imm: ImmLoadStore, NaturalAlign: 0},
	OpcodeI64Load8U:  {Name: "i64.load8_u", Imm: ImmLoadStore, NaturalAlign: 0},
	OpcodeI64Load16S: {Name: "i64.load16_s", Imm: ImmLoadStore, NaturalAlign: 1},
	OpcodeI64Load16U: {Name: "i64.load16_u", Imm: ImmLoadStore, NaturalAlign: 1},
	OpcodeI64Load32S: {Name: "i64.load32_s", Imm: ImmLoadStore, NaturalAlign: 2},
	OpcodeI64Load32U: {Name: "i64.load32_u", Imm: ImmLoadStore, NaturalAlign: 2},
	OpcodeI32Store:   {Name: "i32.store", Imm: ImmLoadStore, NaturalAlign: 2},
	OpcodeI64Store:   {Name: "i64.store", Imm: ImmLoadStore, NaturalAlign: 3},
	OpcodeF32Store:   {Name: "f32.store", Imm: ImmLoadStore, NaturalAlign: 2},
	OpcodeF64Store:   {Name: "f64.store", Imm: ImmLoadStore, NaturalAlign: 3},
	OpcodeI32Store8:  {Name: "i32.store8", Imm: ImmLoadStore, NaturalAlign: 0},
	OpcodeI32Store16: {Name: "i32.store16", Imm: ImmLoadStore, NaturalAlign: 1},
	OpcodeI64Store8:  {Name: "i64.store8", Imm: ImmLoadStore, NaturalAlign: 0},
	OpcodeI64Store16: {Name: "i64.store16", Imm: ImmLoadStore, NaturalAlign: 1},
	OpcodeI64Store32: {Name: "i64.store32", Imm: ImmLoadStore, NaturalAlign: 2},
	OpcodeMemorySize: {Name: "memory.size", Imm: ImmMemory},
	OpcodeMemoryGrow: {Name: "memory.grow", Imm: ImmMemory},

	OpcodeI32Const: {Name: "i32.const", Imm: ImmI32Literal},
	OpcodeI64Const: {Name: "i64.const", Imm: ImmI64Literal},
	OpcodeF32Const: {Name: "f32.const", Imm: ImmF32Literal},
	OpcodeF64Const: {Name: "f64.const", Imm: ImmF64Literal},

	OpcodeI32Eqz: {Name: "i32.eqz"},
	OpcodeI32Eq:  {Name: "i32.eq"},
	OpcodeI32Ne:  {Name: "i32.ne"},
	OpcodeI32LtS: {Name: "i32.lt_s"},
	OpcodeI32LtU: {Name: "i32.lt_u"},
	OpcodeI32GtS: {Name: "i32.gt_s"},
	OpcodeI32GtU: {Name: "i32.gt_u"},
	OpcodeI32LeS: {Name: "i32.le_s"},
	OpcodeI32LeU: {Name: "i32.le_u"},
	OpcodeI32GeS: {Name: "i32.ge_s"},
	OpcodeI32GeU: {Name: "i32.ge_u"},

	OpcodeI64Eqz: {Name: "i64.eqz"},
	OpcodeI64Eq:  {Name: "i64.eq"},
	OpcodeI64Ne:  {Name: "i64.ne"},
	OpcodeI64LtS: {Name: "i64.lt_s"},
	OpcodeI64LtU: {Name: "i64.lt_u"},
	OpcodeI64GtS: {Name: "i64.gt_s"},
	OpcodeI64GtU: {Name: "i64.gt_u"},
	OpcodeI64LeS: {Name: "i64.le_s"},
	OpcodeI64LeU: {Name: "i64.le_u"},
	OpcodeI64GeS: {Name: "i64.ge_s"},
	OpcodeI64GeU: {Name: "i64.ge_u"},

	OpcodeF32Eq: {Name: "f32.eq"},
	OpcodeF32Ne: {Name: "f32.ne"},
	OpcodeF32Lt: {Name: "f32.lt"},
	OpcodeF32Gt: {Name: "f32.gt"},
	OpcodeF32Le: {Name: "f32.le"},
	OpcodeF32Ge: {Name: "f32.ge"},

	OpcodeF64Eq: {Name: "f64.eq"},
	OpcodeF64Ne: {Name: "f64.ne"},
	OpcodeF64Lt: {Name: "f64.lt"},
	OpcodeF64Gt: {Name: "f64.gt"},
	OpcodeF64Le: {Name: "f64.le"},
	OpcodeF64Ge: {Name: "f64.ge"},

	OpcodeI32Clz:    {Name: "i32.clz"},
	OpcodeI32Ctz:    {Name: "i32.ctz"},
	OpcodeI32Popcnt: {Name: "i32.popcnt"},
	OpcodeI32Add:    {Name: "i32.add"},
	OpcodeI32Sub:    {Name: "i32.sub"},
	OpcodeI32Mul:    {Name: "i32.mul"},
	OpcodeI32DivS:   {Name: "i32.div_s"},
	OpcodeI32DivU:   {Name: "i32.div_u"},
	OpcodeI32RemS:   {Name: "i32.rem_s"},
	OpcodeI32RemU:   {Name: "i32.rem_u"},
	OpcodeI32And:    {Name: "i32.and"},
	OpcodeI32Or:     {Name: "i32.or"},
	OpcodeI32Xor:    {Name: "i32.xor"},
	OpcodeI32Shl:    {Name: "i32.shl"},
	OpcodeI32ShrS:   {Name: "i32.shr_s"},
	OpcodeI32ShrU:   {Name: "i32.shr_u"},
	OpcodeI32Rotl:   {Name: "i32.rotl"},
	OpcodeI32Rotr:   {Name: "i32.rotr"},

	OpcodeI64Clz:    {Name: "i64.clz"},
	OpcodeI64Ctz:    {Name: "i64.ctz"},
	OpcodeI64Popcnt: {Name: "i64.popcnt"},
	OpcodeI64Add:    {Name: "i64.add"},
	OpcodeI64Sub:    {Name: "i64.sub"},
	OpcodeI64Mul:    {Name: "i64.mul"},
	OpcodeI64DivS:   {Name: "i64.div_s"},
	OpcodeI64DivU:   {Name: "i64.div_u"},
	OpcodeI64RemS:   {Name: "i64.rem_s"},
	OpcodeI64RemU:   {Name: "i64.rem_u"},
	OpcodeI64And:    {Name: "i64.and"},
	OpcodeI64Or:     {Name: "i64.or"},
	OpcodeI64Xor:    {Name: "i64.xor"},
	OpcodeI64Shl:    {Name: "i64.shl"},
	OpcodeI64ShrS:   {Name: "i64.shr_s"},
	OpcodeI64ShrU:   {Name: "i64.shr_u"},
	OpcodeI64Rotl:   {Name: "i64.rotl"},
	OpcodeI64Rotr:   {Name: "i64.rotr"},

	OpcodeF32Abs:      {Name: "f32.abs"},
	OpcodeF32Neg:      {Name: "f32.neg"},
	OpcodeF32Ceil:     {Name: "f32.ceil"},
	OpcodeF32Floor:    {Name: "f32.floor"},
	OpcodeF32Trunc:    {Name: "f32.trunc"},
	OpcodeF32Nearest:  {Name: "f32.nearest"},
	OpcodeF32Sqrt:     {Name: "f32.sqrt"},
	OpcodeF32Add:      {Name: "f32.add"},
	OpcodeF32Sub:      {Name: "f32.sub"},
	OpcodeF32Mul:      {Name: "f32.mul"},
	OpcodeF32Div:      {Name: "f32.div"},
	OpcodeF32Min:      {Name: "f32.min"},
	OpcodeF32Max:      {Name: "f32.max"},
	OpcodeF32Copysign: {Name: "f32.copysign"},

	OpcodeF64Abs:      {Name: "f64.abs"},
	OpcodeF64Neg:      {Name: "f64.neg"},
	OpcodeF64Ceil:     {Name: "f64.ceil"},
	OpcodeF64Floor:    {Name: "f64.floor"},
	OpcodeF64Trunc:    {Name: "f64.trunc"},
	OpcodeF64Nearest:  {Name: "f64.nearest"},
	OpcodeF64Sqrt:     {Name: "f64.sqrt"},
	OpcodeF64Add:      {Name: "f64.add"},
	OpcodeF64Sub:      {Name: "f64.sub"},
	OpcodeF64Mul:      {Name: "f64.mul"},
	OpcodeF64Div:      {Name: "f64.div"},
	OpcodeF64Min:      {Name: "f64.min"},
	OpcodeF64Max:      {Name: "f64.max"},
	OpcodeF64Copysign: {Name: "f64.copysign"},

	OpcodeI32WrapI64:        {Name: "i32.wrap_i64"},
	OpcodeI32TruncF32S:      {Name: "i32.trunc_f32_s"},
	OpcodeI32TruncF32U:      {Name: "i32.trunc_f32_u"},
	OpcodeI32TruncF64S:      {Name: "i32.trunc_f64_s"},
	OpcodeI32TruncF64U:      {Name: "i32.trunc_f64_u"},
	OpcodeI64ExtendI32S:     {Name: "i64.extend_i32_s"},
	OpcodeI64ExtendI32U:     {Name: "i64.extend_i32_u"},
	OpcodeI64TruncF32S:      {Name: "i64.trunc_f32_s"},
	OpcodeI64TruncF32U:      {Name: "i64.trunc_f32_u"},
	OpcodeI64TruncF64S:      {Name: "i64.trunc_f64_s"},
	OpcodeI64TruncF64U:      {Name: "i64.trunc_f64_u"},
	OpcodeF32ConvertI32S:    {Name: "f32.convert_i32_s"},
	OpcodeF32ConvertI32U:    {Name: "f32.convert_i32_u"},
	OpcodeF32ConvertI64S:    {Name: "f32.convert_i64_s"},
	OpcodeF32ConvertI64U:    {Name: "f32.convert_i64_u"},
	OpcodeF32DemoteF64:      {Name: "f32.demote_f64"},
	OpcodeF64ConvertI32S:    {Name: "f64.convert_i32_s"},
	OpcodeF64ConvertI32U:    {Name: "f64.convert_i32_u"},
	OpcodeF64ConvertI64S:    {Name: "f64.convert_i64_s"},
	OpcodeF64ConvertI64U:    {Name: "f64.convert_i64_u"},
	OpcodeF64PromoteF32:     {Name: "f64.promote_f32"},
	OpcodeI32ReinterpretF32: {Name: "i32.reinterpret_f32"},
	OpcodeI64ReinterpretF64: {Name: "i64.reinterpret_f64"},
	OpcodeF32ReinterpretI32: {Name: "f32.reinterpret_i32"},
	OpcodeF64ReinterpretI64: {Name: "f64.reinterpret_i64"},

	OpcodeI32Extend8S:  {Name: "i32.extend8_s", Feature: featureSignExtension},
	OpcodeI32Extend16S: {Name: "i32.extend16_s", Feature: featureSignExtension},
	OpcodeI64Extend8S:  {Name: "i64.extend8_s", Feature: featureSignExtension},
	OpcodeI64Extend16S: {Name: "i64.extend16_s", Feature: featureSignExtension},
	OpcodeI64Extend32S: {Name: "i64.extend32_s", Feature: featureSignExtension},

	OpcodeI32TruncSatF32S: {Name: "i32.trunc_sat_f32_s", Feature: featureNonTrappingFloatToInt},
	OpcodeI32TruncSatF32U: {Name: "i32.trunc_sat_f32_u", Feature: featureNonTrappingFloatToInt},
	OpcodeI32TruncSatF64S: {Name: "i32.trunc_sat_f64_s", Feature: featureNonTrappingFloatToInt},
	OpcodeI32TruncSatF64U: {Name: "i32.trunc_sat_f64_u", Feature: featureNonTrappingFloatToInt},
	OpcodeI64TruncSatF32S: {Name: "i64.trunc_sat_f32_s", Feature: featureNonTrappingFloatToInt},
	OpcodeI64TruncSatF32U: {Name: "i64.trunc_sat_f32_u", Feature: featureNonTrappingFloatToInt},
	OpcodeI64TruncSatF64S: {Name: "i64.trunc_sat_f64_s", Feature: featureNonTrappingFloatToInt},
	OpcodeI64TruncSatF64U: {Name: "i64.trunc_sat_f64_u", Feature: featureNonTrappingFloatToInt},
	OpcodeMemoryCopy:      {Name: "memory.copy", Imm: ImmTwoMemories, Feature: featureBulkMemory},
	OpcodeMemoryFill:      {Name: "memory.fill", Imm: ImmMemory, Feature: featureBulkMemory},

	OpcodeV128Load:  {Name: "v128.load", Imm: ImmLoadStore, NaturalAlign: 4, Feature: featureSIMD},
	OpcodeV128Store: {Name: "v128.store", Imm: ImmLoadStore, NaturalAlign: 4, Feature: featureSIMD},
	OpcodeV128Const: {Name: "v128.const", Imm: ImmV128Literal, Feature: featureSIMD},

	OpcodeI8x16Shuffle: {Name: "i8x16.shuffle", Imm: ImmShuffle, Feature: featureSIMD},

	OpcodeI8x16Splat: {Name: "i8x16.splat", Feature: featureSIMD},
	OpcodeI16x8Splat: {Name: "i16x8.splat", Feature: featureSIMD},
	OpcodeI32x4Splat: {Name: "i32x4.splat", Feature: featureSIMD},
	OpcodeI64x2Splat: {Name: "i64x2.splat", Feature: featureSIMD},
	OpcodeF32x4Splat: {Name: "f32x4.splat", Feature: featureSIMD},
	OpcodeF64x2Splat: {Name: "f64x2.splat", Feature: featureSIMD},

	OpcodeI8x16ExtractLaneS: {Name: "i8x16.extract_lane_s", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI8x16ExtractLaneU: {Name: "i8x16.extract_lane_u", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI8x16ReplaceLane:  {Name: "i8x16.replace_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI16x8ExtractLaneS: {Name: "i16x8.extract_lane_s", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI16x8ExtractLaneU: {Name: "i16x8.extract_lane_u", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI16x8ReplaceLane:  {Name: "i16x8.replace_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI32x4ExtractLane:  {Name: "i32x4.extract_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI32x4ReplaceLane:  {Name: "i32x4.replace_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI64x2ExtractLane:  {Name: "i64x2.extract_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeI64x2ReplaceLane:  {Name: "i64x2.replace_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeF32x4ExtractLane:  {Name: "f32x4.extract_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeF32x4ReplaceLane:  {Name: "f32x4.replace_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeF64x2ExtractLane:  {Name: "f64x2.extract_lane", Imm: ImmLane, Feature: featureSIMD},
	OpcodeF64x2ReplaceLane:  {Name: "f64x2.replace_lane", Imm: ImmLane, Feature: featureSIMD},

	OpcodeV128Not:       {Name: "v128.not", Feature: featureSIMD},
	OpcodeV128And:       {Name: "v128.and", Feature: featureSIMD},
	OpcodeV128AndNot:    {Name: "v128.andnot", Feature: featureSIMD},
	OpcodeV128Or:        {Name: "v128.or", Feature: featureSIMD},
	OpcodeV128Xor:       {Name: "v128.xor", Feature: featureSIMD},
	OpcodeV128Bitselect: {Name: "v128.bitselect", Feature: featureSIMD},
	OpcodeV128AnyTrue:   {Name: "v128.any_true", Feature: featureSIMD},

	OpcodeI8x16Add: {Name: "i8x16.add", Feature: featureSIMD},
	OpcodeI8x16Sub: {Name: "i8x16.sub", Feature: featureSIMD},
	OpcodeI16x8Add: {Name: "i16x8.add", Feature: featureSIMD},
	OpcodeI16x8Sub: {Name: "i16x8.sub", Feature: featureSIMD},
	OpcodeI16x8Mul: {Name: "i16x8.mul", Feature: featureSIMD},
	OpcodeI32x4Add: {Name: "i32x4.add", Feature: featureSIMD},
	OpcodeI32x4Sub: {Name: "i32x4.sub", Feature: featureSIMD},
	OpcodeI32x4Mul: {Name: "i32x4.mul", Feature: featureSIMD},
	OpcodeI64x2Add: {Name: "i64x2.add", Feature: featureSIMD},
	OpcodeI64x2Sub: {Name: "i64x2.sub", Feature: featureSIMD},
	OpcodeI64x2Mul: {Name: "i64x2.mul", Feature: featureSIMD},
	OpcodeF32x4Add: {Name: "f32x4.add", Feature: featureSIMD},
	OpcodeF32x4Sub: {Name: "f32x4.sub", Feature: featureSIMD},
	OpcodeF32x4Mul: {Name: "f32x4.mul", Feature: featureSIMD},
	OpcodeF32x4Div: {Name: "f32x4.div", Feature: featureSIMD},
	OpcodeF64x2Add: {Name: "f64x2.add", Feature: featureSIMD},
	OpcodeF64x2Sub: {Name: "f64x2.sub", Feature: featureSIMD},
	OpcodeF64x2Mul: {Name: "f64x2.mul", Feature: featureSIMD},
	OpcodeF64x2Div: {Name: "f64x2.div", Feature: featureSIMD},

	OpcodeMemoryAtomicNotify: {Name: "memory.atomic.notify", Imm: ImmLoadStore, NaturalAlign: 2, Feature: featureThreads},
	OpcodeMemoryAtomicWait32: {Name: "memory.atomic.wait32", Imm: ImmLoadStore, NaturalAlign: 2, Feature: featureThreads},
	OpcodeMemoryAtomicWait64: {Name: "memory.atomic.wait64", Imm: ImmLoadStore, NaturalAlign: 3, Feature: featureThreads},
	OpcodeAtomicFence:        {Name: "atomic.fence", Imm: ImmMemory, Feature: featureThreads},

	OpcodeI32AtomicLoad:    {Name: "i32.atomic.load", Imm: ImmLoadStore, NaturalAlign: 2, Feature: featureThreads},
	OpcodeI64AtomicLoad:    {Name: "i64.atomic.load", Imm: ImmLoadStore, NaturalAlign: 3, Feature: featureThreads},
	OpcodeI32AtomicLoad8U:  {Name: "i32.atomic.load8_u", Imm: ImmLoadStore, NaturalAlign: 0, Feature: featureThreads},
	OpcodeI32AtomicLoad16U: {Name: "i32.atomic.load16_u", Imm: ImmLoadStore, NaturalAlign: 1, Feature: featureThreads},
	OpcodeI64AtomicLoad8U:  {Name: "i64.atomic.load8_u", Imm: ImmLoadStore, NaturalAlign: 0, Feature: featureThreads},
	OpcodeI64AtomicLoad16U: {Name: "i64.atomic.load16_u", Imm: ImmLoadStore, NaturalAlign: 1, Feature: featureThreads},
	OpcodeI64AtomicLoad32U: {Name: "i64.atomic.load32_u", Imm: ImmLoadStore, NaturalAlign: 2, Feature: featureThreads},
	OpcodeI32AtomicStore:   {Name: "i32.atomic.store", Imm: ImmLoadStore, NaturalAlign: 2, Feature: featureThreads},
	OpcodeI64AtomicStore:   {Name: "i64.atomic.store", Imm: ImmLoadStore, NaturalAlign: 3, Feature: featureThreads},
	OpcodeI32AtomicStore8:  {Name: "i32.atomic.store8", Imm: ImmLoadStore, NaturalAlign: 0, Feature: featureThreads},
	OpcodeI32AtomicStore16: {Name: "i32.atomic.store16", Imm: ImmLoadStore, NaturalAlign: 1, Feature: featureThreads},
	OpcodeI64AtomicStore8:  {Name: "i64.atomic.store8", Imm: ImmLoadStore, NaturalAlign: 0, Feature: featureThreads},
	OpcodeI64AtomicStore16: {Name: "i64.atomic.store16", Imm: ImmLoadStore, NaturalAlign: 1, Feature: featureThreads},
	OpcodeI64AtomicStore32: {Name: "i64.atomic.store32", Imm: ImmLoadStore, NaturalAlign: 2, Feature: featureThreads},

	OpcodeI32AtomicRmwAdd: {Name: "i32.atomic.rmw.add", Imm: ImmLoadStore, NaturalAlign: 2, Feature: featureThreads},
	OpcodeI64AtomicRmwAdd: {Name: "i64.atomic.rmw.add", Imm: ImmLoadStore, NaturalAlign: 3, Feature: featureThreads},

	OpcodeI32AtomicRmwCmpxchg: {Name: "i32.atomic.rmw.cmpxchg", Imm: ImmLoadStore, NaturalAlign: 2, Feature: featureThreads},
	OpcodeI64AtomicRmwCmpxchg: {Name: "i64.atomic.rmw.cmpxchg", Imm: ImmLoadStore, NaturalAlign: 3, Feature: featureThreads},
}

// OperatorName returns the text-format mnemonic of op, or "unknown".
func OperatorName(op Opcode) string {
	if info, ok := operatorTable[op]; ok {
		return info.Name
	}
	return "unknown"
}
