package ir

// ObjectKind discriminates the kinds of objects a module can import, export
// or define.
type ObjectKind byte

const (
	ObjectKindFunction      ObjectKind = 0x00
	ObjectKindTable         ObjectKind = 0x01
	ObjectKindMemory        ObjectKind = 0x02
	ObjectKindGlobal        ObjectKind = 0x03
	ObjectKindExceptionType ObjectKind = 0x04

	ObjectKindInvalid ObjectKind = 0xff
)

// ObjectKindName returns the text-format name of k.
func ObjectKindName(k ObjectKind) string {
	switch k {
	case ObjectKindFunction:
		return "func"
	case ObjectKindTable:
		return "table"
	case ObjectKindMemory:
		return "memory"
	case ObjectKindGlobal:
		return "global"
	case ObjectKindExceptionType:
		return "exception_type"
	}
	return "unknown"
}

// ObjectType is a tagged union over the per-kind type descriptors. Exactly
// the field selected by Kind is set.
type ObjectType struct {
	Kind ObjectKind

	Function  *FunctionType
	Table     *TableType
	Memory    *MemoryType
	Global    *GlobalType
	Exception *ExceptionType
}

// FunctionObjectType wraps a signature as an ObjectType.
func FunctionObjectType(t *FunctionType) ObjectType {
	return ObjectType{Kind: ObjectKindFunction, Function: t}
}

// TableObjectType wraps a table type as an ObjectType.
func TableObjectType(t *TableType) ObjectType {
	return ObjectType{Kind: ObjectKindTable, Table: t}
}

// MemoryObjectType wraps a memory type as an ObjectType.
func MemoryObjectType(t *MemoryType) ObjectType {
	return ObjectType{Kind: ObjectKindMemory, Memory: t}
}

// GlobalObjectType wraps a global type as an ObjectType.
func GlobalObjectType(t *GlobalType) ObjectType {
	return ObjectType{Kind: ObjectKindGlobal, Global: t}
}

// ExceptionObjectType wraps an exception type as an ObjectType.
func ExceptionObjectType(t *ExceptionType) ObjectType {
	return ObjectType{Kind: ObjectKindExceptionType, Exception: t}
}
