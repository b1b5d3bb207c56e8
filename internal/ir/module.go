package ir

import (
	"fmt"
	"math"
)

// Index is an offset into an index namespace. Each namespace begins with the
// imports of that kind followed by the module's own definitions.
type Index = uint32

// InvalidIndex is the sentinel for "no index", e.g. an absent start function.
const InvalidIndex = Index(math.MaxUint32)

// Import names an object required at instantiation, with its declared type.
type Import struct {
	// Module is the possibly empty primary namespace of this import.
	Module string
	// Name is the possibly empty secondary namespace of this import.
	Name string
	// Type is the declared type the resolved object must satisfy.
	Type ObjectType
}

// IndexedObjects is one kind's index namespace: imports first, then
// module-local definitions.
type IndexedObjects[Def any] struct {
	Imports []Import
	Defs    []Def
}

// Size returns the total number of objects in the namespace.
func (s *IndexedObjects[Def]) Size() Index {
	return Index(len(s.Imports) + len(s.Defs))
}

// IsImport reports whether i refers to an imported object.
func (s *IndexedObjects[Def]) IsImport(i Index) bool {
	return i < Index(len(s.Imports))
}

// Def returns the definition for index i, which must not be an import.
func (s *IndexedObjects[Def]) Def(i Index) Def {
	return s.Defs[i-Index(len(s.Imports))]
}

// FunctionDef is a module-local function: its signature index and its
// locals/body. The body is the raw operator stream, decoded lazily by the
// validator and the compiler.
type FunctionDef struct {
	TypeIndex  Index
	LocalTypes []ValueType
	Body       []byte
}

// GlobalDef pairs a global's type with its initializer.
type GlobalDef struct {
	Type GlobalType
	Init InitializerExpression
}

// Export names an object of this module for the outside.
type Export struct {
	Name  string
	Kind  ObjectKind
	Index Index
}

// TableSegment initializes a run of table slots with function references.
type TableSegment struct {
	TableIndex Index
	Offset     InitializerExpression
	Indices    []Index
}

// DataSegment initializes a run of memory bytes.
type DataSegment struct {
	MemoryIndex Index
	Offset      InitializerExpression
	Data        []byte
}

// UserSection is a custom section kept verbatim. AfterSection records which
// known section it followed, so encoding reproduces its position.
type UserSection struct {
	Name         string
	Data         []byte
	AfterSection SectionID
}

// Module is a decoded WebAssembly module. It is immutable once built by the
// decoder or a frontend; the validator and compiler only read it.
type Module struct {
	// Types are the interned signatures referenced by functions, calls and
	// block types.
	Types []*FunctionType

	Functions      IndexedObjects[*FunctionDef]
	Tables         IndexedObjects[*TableType]
	Memories       IndexedObjects[*MemoryType]
	Globals        IndexedObjects[*GlobalDef]
	ExceptionTypes IndexedObjects[*ExceptionType]

	TableSegments []*TableSegment
	DataSegments  []*DataSegment

	Exports []*Export

	// StartFunctionIndex is InvalidIndex when no start function is declared.
	StartFunctionIndex Index

	UserSections []*UserSection

	// ImportOrder preserves the import declarations in file order, which the
	// per-kind namespaces cannot reconstruct on their own. The encoder
	// re-emits it verbatim.
	ImportOrder []Import

	// Names is the decoded "name" user section, when present.
	Names *NameSection

	Features FeatureSpec
}

// NewModule returns an empty module with the given feature spec.
func NewModule(features FeatureSpec) *Module {
	return &Module{StartFunctionIndex: InvalidIndex, Features: features}
}

// FunctionType returns the signature of the function at index i in the
// function namespace, or nil when out of range.
func (m *Module) FunctionType(i Index) *FunctionType {
	if m.Functions.IsImport(i) {
		return m.Functions.Imports[i].Type.Function
	}
	di := int(i) - len(m.Functions.Imports)
	if di >= len(m.Functions.Defs) {
		return nil
	}
	ti := m.Functions.Defs[di].TypeIndex
	if int(ti) >= len(m.Types) {
		return nil
	}
	return m.Types[ti]
}

// TableType returns the type of the table at index i, or nil.
func (m *Module) TableType(i Index) *TableType {
	if m.Tables.IsImport(i) {
		return m.Tables.Imports[i].Type.Table
	}
	di := int(i) - len(m.Tables.Imports)
	if di >= len(m.Tables.Defs) {
		return nil
	}
	return m.Tables.Defs[di]
}

// MemoryType returns the type of the memory at index i, or nil.
func (m *Module) MemoryType(i Index) *MemoryType {
	if m.Memories.IsImport(i) {
		return m.Memories.Imports[i].Type.Memory
	}
	di := int(i) - len(m.Memories.Imports)
	if di >= len(m.Memories.Defs) {
		return nil
	}
	return m.Memories.Defs[di]
}

// GlobalType returns the type of the global at index i, or nil.
func (m *Module) GlobalType(i Index) *GlobalType {
	if m.Globals.IsImport(i) {
		return m.Globals.Imports[i].Type.Global
	}
	di := int(i) - len(m.Globals.Imports)
	if di >= len(m.Globals.Defs) {
		return nil
	}
	return &m.Globals.Defs[di].Type
}

// ExceptionType returns the exception type at index i, or nil.
func (m *Module) ExceptionType(i Index) *ExceptionType {
	if m.ExceptionTypes.IsImport(i) {
		return m.ExceptionTypes.Imports[i].Type.Exception
	}
	di := int(i) - len(m.ExceptionTypes.Imports)
	if di >= len(m.ExceptionTypes.Defs) {
		return nil
	}
	return m.ExceptionTypes.Defs[di]
}

// ResolveBlockType maps a control structure's declared block type to a
// signature: params consumed at entry and results produced at exit.
func (m *Module) ResolveBlockType(bt BlockType) (*FunctionType, error) {
	switch bt.Kind {
	case BlockTypeEmpty:
		empty := InternTypeTuple()
		return InternFunctionType(empty, empty), nil
	case BlockTypeValue:
		return InternFunctionType(InternTypeTuple(), InternTypeTuple(bt.ValueType)), nil
	case BlockTypeIndex:
		if int(bt.TypeIndex) >= len(m.Types) {
			return nil, fmt.Errorf("block type index %d out of range", bt.TypeIndex)
		}
		return m.Types[bt.TypeIndex], nil
	}
	panic("BUG: invalid block type kind")
}

// SectionID identifies a section of the binary format.
type SectionID = byte

const (
	SectionIDCustom SectionID = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData

	// SectionIDExceptionType is the tag section of the exception-handling
	// proposal.
	SectionIDExceptionType SectionID = 13
)

// SectionIDName returns the canonical name of a module section.
func SectionIDName(id SectionID) string {
	switch id {
	case SectionIDCustom:
		return "custom"
	case SectionIDType:
		return "type"
	case SectionIDImport:
		return "import"
	case SectionIDFunction:
		return "function"
	case SectionIDTable:
		return "table"
	case SectionIDMemory:
		return "memory"
	case SectionIDGlobal:
		return "global"
	case SectionIDExport:
		return "export"
	case SectionIDStart:
		return "start"
	case SectionIDElement:
		return "element"
	case SectionIDCode:
		return "code"
	case SectionIDData:
		return "data"
	case SectionIDExceptionType:
		return "tag"
	}
	return "unknown"
}

// NameSection is the decoded "name" custom section.
type NameSection struct {
	ModuleName    string
	FunctionNames NameMap
	LocalNames    IndirectNameMap
}

// NameMap associates an index with a symbolic name, ordered by index.
type NameMap []NameAssoc

type NameAssoc struct {
	Index Index
	Name  string
}

// Get returns the name for index i, or "".
func (nm NameMap) Get(i Index) string {
	for _, a := range nm {
		if a.Index == i {
			return a.Name
		}
	}
	return ""
}

// IndirectNameMap associates an index with a NameMap, ordered by index.
type IndirectNameMap []NameMapAssoc

type NameMapAssoc struct {
	Index   Index
	NameMap NameMap
}
