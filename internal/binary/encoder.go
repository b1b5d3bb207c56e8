package binary

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/leb128"
)

// EncodeModule renders m in the WebAssembly binary format. Decoding the
// result yields a module equivalent to m, with user sections re-emitted at
// the positions they were decoded from.
func EncodeModule(m *ir.Module) []byte {
	out := append([]byte{}, magic...)
	out = append(out, version...)

	out = appendUserSections(out, m, ir.SectionIDCustom)

	if len(m.Types) > 0 {
		out = appendSection(out, ir.SectionIDType, encodeTypeSection(m))
		out = appendUserSections(out, m, ir.SectionIDType)
	}
	if len(m.ImportOrder) > 0 {
		out = appendSection(out, ir.SectionIDImport, encodeImportSection(m))
		out = appendUserSections(out, m, ir.SectionIDImport)
	}
	if len(m.Functions.Defs) > 0 {
		out = appendSection(out, ir.SectionIDFunction, encodeFunctionSection(m))
		out = appendUserSections(out, m, ir.SectionIDFunction)
	}
	if len(m.Tables.Defs) > 0 {
		out = appendSection(out, ir.SectionIDTable, encodeTableSection(m))
		out = appendUserSections(out, m, ir.SectionIDTable)
	}
	if len(m.Memories.Defs) > 0 {
		out = appendSection(out, ir.SectionIDMemory, encodeMemorySection(m))
		out = appendUserSections(out, m, ir.SectionIDMemory)
	}
	if len(m.ExceptionTypes.Defs) > 0 {
		out = appendSection(out, ir.SectionIDExceptionType, encodeTagSection(m))
		out = appendUserSections(out, m, ir.SectionIDExceptionType)
	}
	if len(m.Globals.Defs) > 0 {
		out = appendSection(out, ir.SectionIDGlobal, encodeGlobalSection(m))
		out = appendUserSections(out, m, ir.SectionIDGlobal)
	}
	if len(m.Exports) > 0 {
		out = appendSection(out, ir.SectionIDExport, encodeExportSection(m))
		out = appendUserSections(out, m, ir.SectionIDExport)
	}
	if m.StartFunctionIndex != ir.InvalidIndex {
		out = appendSection(out, ir.SectionIDStart, leb128.EncodeUint32(m.StartFunctionIndex))
		out = appendUserSections(out, m, ir.SectionIDStart)
	}
	if len(m.TableSegments) > 0 {
		out = appendSection(out, ir.SectionIDElement, encodeElementSection(m))
		out = appendUserSections(out, m, ir.SectionIDElement)
	}
	if len(m.Functions.Defs) > 0 {
		out = appendSection(out, ir.SectionIDCode, encodeCodeSection(m))
		out = appendUserSections(out, m, ir.SectionIDCode)
	}
	if len(m.DataSegments) > 0 {
		out = appendSection(out, ir.SectionIDData, encodeDataSection(m))
		out = appendUserSections(out, m, ir.SectionIDData)
	}
	return out
}

func appendSection(out []byte, id ir.SectionID, contents []byte) []byte {
	out = append(out, id)
	out = append(out, leb128.EncodeUint32(uint32(len(contents)))...)
	return append(out, contents...)
}

func appendUserSections(out []byte, m *ir.Module, after ir.SectionID) []byte {
	for _, us := range m.UserSections {
		if us.AfterSection != after {
			continue
		}
		contents := encodeName(us.Name)
		contents = append(contents, us.Data...)
		out = appendSection(out, ir.SectionIDCustom, contents)
	}
	return out
}

func encodeName(name string) []byte {
	out := leb128.EncodeUint32(uint32(len(name)))
	return append(out, name...)
}

func encodeValueTypes(types []ir.ValueType) []byte {
	out := leb128.EncodeUint32(uint32(len(types)))
	return append(out, types...)
}

func encodeTypeSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.Types)))
	for _, t := range m.Types {
		out = append(out, 0x60)
		out = append(out, encodeValueTypes(t.Params.Types)...)
		out = append(out, encodeValueTypes(t.Results.Types)...)
	}
	return out
}

func encodeLimits(size ir.SizeConstraints, shared bool) []byte {
	var flags byte
	if size.Max != ir.Unbounded {
		flags |= 0x01
	}
	if shared {
		flags |= 0x02
	}
	out := []byte{flags}
	out = append(out, leb128.EncodeUint32(uint32(size.Min))...)
	if size.Max != ir.Unbounded {
		out = append(out, leb128.EncodeUint32(uint32(size.Max))...)
	}
	return out
}

func encodeTableType(t *ir.TableType) []byte {
	out := []byte{t.ElemType}
	return append(out, encodeLimits(t.Size, t.Shared)...)
}

func encodeMemoryType(t *ir.MemoryType) []byte {
	return encodeLimits(t.Size, t.Shared)
}

func encodeGlobalType(t *ir.GlobalType) []byte {
	var mut byte
	if t.Mutable {
		mut = 1
	}
	return []byte{t.ValType, mut}
}

// tagTypeIndex finds the signature index for an exception type: its params
// with no results.
func tagTypeIndex(m *ir.Module, et *ir.ExceptionType) ir.Index {
	empty := ir.InternTypeTuple()
	want := ir.InternFunctionType(et.Params, empty)
	for i, t := range m.Types {
		if t == want {
			return ir.Index(i)
		}
	}
	panic(fmt.Sprintf("BUG: no type entry for exception signature %v", want))
}

func encodeTag(m *ir.Module, et *ir.ExceptionType) []byte {
	out := []byte{0x00}
	return append(out, leb128.EncodeUint32(tagTypeIndex(m, et))...)
}

func encodeImportSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.ImportOrder)))
	for _, imp := range m.ImportOrder {
		out = append(out, encodeName(imp.Module)...)
		out = append(out, encodeName(imp.Name)...)
		out = append(out, byte(imp.Type.Kind))
		switch imp.Type.Kind {
		case ir.ObjectKindFunction:
			ti := ir.InvalidIndex
			for i, t := range m.Types {
				if t == imp.Type.Function {
					ti = ir.Index(i)
					break
				}
			}
			if ti == ir.InvalidIndex {
				panic("BUG: imported function signature missing from type section")
			}
			out = append(out, leb128.EncodeUint32(ti)...)
		case ir.ObjectKindTable:
			out = append(out, encodeTableType(imp.Type.Table)...)
		case ir.ObjectKindMemory:
			out = append(out, encodeMemoryType(imp.Type.Memory)...)
		case ir.ObjectKindGlobal:
			out = append(out, encodeGlobalType(imp.Type.Global)...)
		case ir.ObjectKindExceptionType:
			out = append(out, encodeTag(m, imp.Type.Exception)...)
		}
	}
	return out
}

func encodeFunctionSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.Functions.Defs)))
	for _, def := range m.Functions.Defs {
		out = append(out, leb128.EncodeUint32(def.TypeIndex)...)
	}
	return out
}

func encodeTableSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.Tables.Defs)))
	for _, t := range m.Tables.Defs {
		out = append(out, encodeTableType(t)...)
	}
	return out
}

func encodeMemorySection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.Memories.Defs)))
	for _, t := range m.Memories.Defs {
		out = append(out, encodeMemoryType(t)...)
	}
	return out
}

func encodeTagSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.ExceptionTypes.Defs)))
	for _, et := range m.ExceptionTypes.Defs {
		out = append(out, encodeTag(m, et)...)
	}
	return out
}

func encodeInitExpr(e ir.InitializerExpression) []byte {
	out := []byte{byte(e.Op)}
	switch e.Op {
	case ir.OpcodeI32Const:
		out = append(out, leb128.EncodeInt32(e.I32)...)
	case ir.OpcodeI64Const:
		out = append(out, leb128.EncodeInt64(e.I64)...)
	case ir.OpcodeF32Const:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(e.F32))
		out = append(out, buf[:]...)
	case ir.OpcodeF64Const:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(e.F64))
		out = append(out, buf[:]...)
	case ir.OpcodeGlobalGet:
		out = append(out, leb128.EncodeUint32(e.GlobalIndex)...)
	default:
		panic("BUG: invalid initializer opcode")
	}
	return append(out, byte(ir.OpcodeEnd))
}

func encodeGlobalSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.Globals.Defs)))
	for _, g := range m.Globals.Defs {
		out = append(out, encodeGlobalType(&g.Type)...)
		out = append(out, encodeInitExpr(g.Init)...)
	}
	return out
}

func encodeExportSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.Exports)))
	for _, e := range m.Exports {
		out = append(out, encodeName(e.Name)...)
		out = append(out, byte(e.Kind))
		out = append(out, leb128.EncodeUint32(e.Index)...)
	}
	return out
}

func encodeElementSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.TableSegments)))
	for _, seg := range m.TableSegments {
		out = append(out, leb128.EncodeUint32(seg.TableIndex)...)
		out = append(out, encodeInitExpr(seg.Offset)...)
		out = append(out, leb128.EncodeUint32(uint32(len(seg.Indices)))...)
		for _, fi := range seg.Indices {
			out = append(out, leb128.EncodeUint32(fi)...)
		}
	}
	return out
}

func encodeCodeSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.Functions.Defs)))
	for _, def := range m.Functions.Defs {
		var entry []byte

		// Locals are encoded run-length grouped by type.
		type group struct {
			n  uint32
			vt ir.ValueType
		}
		var groups []group
		for _, vt := range def.LocalTypes {
			if len(groups) > 0 && groups[len(groups)-1].vt == vt {
				groups[len(groups)-1].n++
			} else {
				groups = append(groups, group{n: 1, vt: vt})
			}
		}
		entry = append(entry, leb128.EncodeUint32(uint32(len(groups)))...)
		for _, g := range groups {
			entry = append(entry, leb128.EncodeUint32(g.n)...)
			entry = append(entry, g.vt)
		}
		entry = append(entry, def.Body...)

		out = append(out, leb128.EncodeUint32(uint32(len(entry)))...)
		out = append(out, entry...)
	}
	return out
}

func encodeDataSection(m *ir.Module) []byte {
	out := leb128.EncodeUint32(uint32(len(m.DataSegments)))
	for _, seg := range m.DataSegments {
		out = append(out, leb128.EncodeUint32(seg.MemoryIndex)...)
		out = append(out, encodeInitExpr(seg.Offset)...)
		out = append(out, leb128.EncodeUint32(uint32(len(seg.Data)))...)
		out = append(out, seg.Data...)
	}
	return out
}
