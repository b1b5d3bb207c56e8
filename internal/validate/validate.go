// Package validate implements the stack-polymorphic type checker over a
// decoded module: module-level well-formedness (imports, limits, segments,
// initializers, exports) and the per-function operator stream discipline.
//
// Function bodies share only read-only module metadata, so they are checked
// in parallel.
package validate

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/riftwasm/rift/internal/ir"
)

// Kind classifies a validation failure.
type Kind byte

const (
	KindLimits Kind = iota
	KindImport
	KindExport
	KindGlobal
	KindSegment
	KindStart
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindLimits:
		return "limits"
	case KindImport:
		return "import"
	case KindExport:
		return "export"
	case KindGlobal:
		return "global"
	case KindSegment:
		return "segment"
	case KindStart:
		return "start"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// Error reports a validation failure. FunctionIndex and Offset are only
// meaningful for KindFunction: Offset is the byte position of the faulting
// operator within the function body.
type Error struct {
	Kind          Kind
	FunctionIndex ir.Index
	Offset        int
	Message       string
}

func (e *Error) Error() string {
	if e.Kind == KindFunction {
		return fmt.Sprintf("invalid module: function %d at body offset %d: %s", e.FunctionIndex, e.Offset, e.Message)
	}
	return fmt.Sprintf("invalid module: %s: %s", e.Kind, e.Message)
}

func moduleErr(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, FunctionIndex: ir.InvalidIndex, Offset: -1, Message: fmt.Sprintf(format, args...)}
}

// maxMemoryPages is the largest addressable page count with 32-bit offsets.
const maxMemoryPages = 1 << 16

// Module validates m in full. It returns the first failure found; function
// bodies are checked concurrently.
func Module(m *ir.Module) error {
	if err := validateLimitsAndCounts(m); err != nil {
		return err
	}
	if err := validateGlobals(m); err != nil {
		return err
	}
	if err := validateExports(m); err != nil {
		return err
	}
	if err := validateStart(m); err != nil {
		return err
	}
	if err := validateSegments(m); err != nil {
		return err
	}

	var g errgroup.Group
	for i := range m.Functions.Defs {
		i := i
		g.Go(func() error {
			fi := ir.Index(len(m.Functions.Imports) + i)
			return validateFunctionBody(m, fi, m.Functions.Defs[i])
		})
	}
	return g.Wait()
}

func validateLimitsAndCounts(m *ir.Module) error {
	checkMemory := func(i ir.Index, mt *ir.MemoryType) error {
		if mt.Size.Min > mt.Size.Max {
			return moduleErr(KindLimits, "memory %d: min %d exceeds max %d", i, mt.Size.Min, mt.Size.Max)
		}
		if mt.Size.Min > maxMemoryPages || (mt.Size.Max != ir.Unbounded && mt.Size.Max > maxMemoryPages) {
			return moduleErr(KindLimits, "memory %d: size exceeds %d pages", i, maxMemoryPages)
		}
		if mt.Shared {
			if !m.Features.Threads {
				return moduleErr(KindLimits, "memory %d: shared memories require the threads feature", i)
			}
			if mt.Size.Max == ir.Unbounded {
				return moduleErr(KindLimits, "memory %d: shared memories must be bounded", i)
			}
		}
		return nil
	}
	checkTable := func(i ir.Index, tt *ir.TableType) error {
		if tt.Size.Min > tt.Size.Max {
			return moduleErr(KindLimits, "table %d: min %d exceeds max %d", i, tt.Size.Min, tt.Size.Max)
		}
		if tt.Shared && tt.Size.Max == ir.Unbounded {
			return moduleErr(KindLimits, "table %d: shared tables must be bounded", i)
		}
		return nil
	}

	for i := ir.Index(0); i < m.Memories.Size(); i++ {
		if err := checkMemory(i, m.MemoryType(i)); err != nil {
			return err
		}
	}
	for i := ir.Index(0); i < m.Tables.Size(); i++ {
		if err := checkTable(i, m.TableType(i)); err != nil {
			return err
		}
	}

	if m.Memories.Size() > 1 && !m.Features.MultiMemory {
		return moduleErr(KindLimits, "%d memories declared but multi-memory is disabled", m.Memories.Size())
	}
	if m.Tables.Size() > 1 && !m.Features.MultiTable {
		return moduleErr(KindLimits, "%d tables declared but multi-table is disabled", m.Tables.Size())
	}
	return nil
}

// validateConstExpr checks an initializer expression and returns its result
// type. get_global may only reference an imported immutable global.
func validateConstExpr(m *ir.Module, e ir.InitializerExpression) (ir.ValueType, error) {
	switch e.Op {
	case ir.OpcodeI32Const:
		return ir.ValueTypeI32, nil
	case ir.OpcodeI64Const:
		return ir.ValueTypeI64, nil
	case ir.OpcodeF32Const:
		return ir.ValueTypeF32, nil
	case ir.OpcodeF64Const:
		return ir.ValueTypeF64, nil
	case ir.OpcodeGlobalGet:
		if !m.Globals.IsImport(e.GlobalIndex) {
			return 0, moduleErr(KindGlobal, "initializer references global %d which is not an import", e.GlobalIndex)
		}
		gt := m.Globals.Imports[e.GlobalIndex].Type.Global
		if gt.Mutable {
			return 0, moduleErr(KindGlobal, "initializer references mutable global %d", e.GlobalIndex)
		}
		return gt.ValType, nil
	}
	return 0, moduleErr(KindGlobal, "invalid initializer opcode 0x%x", uint32(e.Op))
}

func validateGlobals(m *ir.Module) error {
	for i, g := range m.Globals.Defs {
		t, err := validateConstExpr(m, g.Init)
		if err != nil {
			return err
		}
		if t != g.Type.ValType {
			return moduleErr(KindGlobal, "global %d: initializer type %s does not match declared %s",
				len(m.Globals.Imports)+i, ir.ValueTypeName(t), ir.ValueTypeName(g.Type.ValType))
		}
	}
	return nil
}

func validateExports(m *ir.Module) error {
	seen := make(map[string]struct{}, len(m.Exports))
	for _, e := range m.Exports {
		if _, dup := seen[e.Name]; dup {
			return moduleErr(KindExport, "duplicate export name %q", e.Name)
		}
		seen[e.Name] = struct{}{}

		var size ir.Index
		switch e.Kind {
		case ir.ObjectKindFunction:
			size = m.Functions.Size()
		case ir.ObjectKindTable:
			size = m.Tables.Size()
		case ir.ObjectKindMemory:
			size = m.Memories.Size()
		case ir.ObjectKindGlobal:
			size = m.Globals.Size()
		case ir.ObjectKindExceptionType:
			size = m.ExceptionTypes.Size()
		default:
			return moduleErr(KindExport, "export %q has invalid kind 0x%x", e.Name, byte(e.Kind))
		}
		if e.Index >= size {
			return moduleErr(KindExport, "export %q: %s index %d out of range", e.Name, ir.ObjectKindName(e.Kind), e.Index)
		}
	}
	return nil
}

func validateStart(m *ir.Module) error {
	if m.StartFunctionIndex == ir.InvalidIndex {
		return nil
	}
	sig := m.FunctionType(m.StartFunctionIndex)
	if sig == nil {
		return moduleErr(KindStart, "start function index %d out of range", m.StartFunctionIndex)
	}
	if sig.Params.Arity() != 0 || sig.Results.Arity() != 0 {
		return moduleErr(KindStart, "start function must have an empty signature, has %s", sig)
	}
	return nil
}

func validateSegments(m *ir.Module) error {
	for i, seg := range m.TableSegments {
		if seg.TableIndex >= m.Tables.Size() {
			return moduleErr(KindSegment, "element segment %d: table index %d out of range", i, seg.TableIndex)
		}
		t, err := validateConstExpr(m, seg.Offset)
		if err != nil {
			return err
		}
		if t != ir.ValueTypeI32 {
			return moduleErr(KindSegment, "element segment %d: offset must be i32, is %s", i, ir.ValueTypeName(t))
		}
		for _, fi := range seg.Indices {
			if fi >= m.Functions.Size() {
				return moduleErr(KindSegment, "element segment %d: function index %d out of range", i, fi)
			}
		}
	}
	for i, seg := range m.DataSegments {
		if seg.MemoryIndex >= m.Memories.Size() {
			return moduleErr(KindSegment, "data segment %d: memory index %d out of range", i, seg.MemoryIndex)
		}
		t, err := validateConstExpr(m, seg.Offset)
		if err != nil {
			return err
		}
		if t != ir.ValueTypeI32 {
			return moduleErr(KindSegment, "data segment %d: offset must be i32, is %s", i, ir.ValueTypeName(t))
		}
	}
	return nil
}
