package ir

// InitializerExpression is a constant expression evaluated at instantiation
// time: a numeric constant or a read of an imported immutable global.
type InitializerExpression struct {
	Op Opcode // OpcodeI32Const, OpcodeI64Const, OpcodeF32Const, OpcodeF64Const or OpcodeGlobalGet

	I32         int32
	I64         int64
	F32         float32
	F64         float64
	GlobalIndex Index
}

// ResultType returns the value type the expression produces. GlobalGet needs
// the global index spaces to answer, so callers resolve that case themselves;
// here it returns ValueTypeAny.
func (e InitializerExpression) ResultType() ValueType {
	switch e.Op {
	case OpcodeI32Const:
		return ValueTypeI32
	case OpcodeI64Const:
		return ValueTypeI64
	case OpcodeF32Const:
		return ValueTypeF32
	case OpcodeF64Const:
		return ValueTypeF64
	case OpcodeGlobalGet:
		return ValueTypeAny
	}
	panic("BUG: invalid initializer opcode")
}
