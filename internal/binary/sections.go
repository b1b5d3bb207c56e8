package binary

import (
	"encoding/binary"
	"math"

	"github.com/riftwasm/rift/internal/ir"
)

func float32FromLE(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func float64FromLE(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (d *decoder) decodeTypeSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	d.m.Types = make([]*ir.FunctionType, 0, count)
	for i := uint32(0); i < count; i++ {
		ft, err := d.decodeFunctionType()
		if err != nil {
			return err
		}
		d.m.Types = append(d.m.Types, ft)
	}
	return nil
}

func (d *decoder) decodeFunctionType() (*ir.FunctionType, error) {
	r := d.r
	lead, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if lead != 0x60 {
		return nil, r.fail("invalid function type leading byte 0x%x, want 0x60", lead)
	}
	params, err := d.decodeValueTypes()
	if err != nil {
		return nil, err
	}
	results, err := d.decodeValueTypes()
	if err != nil {
		return nil, err
	}
	if len(results) > 1 && !d.features.MultiValue {
		return nil, r.fail("multiple results require the multi-value feature")
	}
	return ir.InternFunctionType(ir.InternTypeTuple(params...), ir.InternTypeTuple(results...)), nil
}

func (d *decoder) decodeValueTypes() ([]ir.ValueType, error) {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return nil, err
	}
	buf, err := r.readBytes(count)
	if err != nil {
		return nil, err
	}
	out := make([]ir.ValueType, count)
	for i, v := range buf {
		if !ir.IsValueType(v) {
			return nil, r.fail("invalid value type 0x%x", v)
		}
		if v == ir.ValueTypeV128 && !d.features.SIMD {
			return nil, r.fail("v128 requires the simd feature")
		}
		out[i] = v
	}
	return out, nil
}

func (d *decoder) decodeImportSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		imp := ir.Import{}
		if imp.Module, err = r.readName(); err != nil {
			return err
		}
		if imp.Name, err = r.readName(); err != nil {
			return err
		}
		kind, err := r.readByte()
		if err != nil {
			return err
		}
		switch ir.ObjectKind(kind) {
		case ir.ObjectKindFunction:
			ti, err := r.readU32()
			if err != nil {
				return err
			}
			if int(ti) >= len(d.m.Types) {
				return r.fail("function import type index %d out of range", ti)
			}
			imp.Type = ir.FunctionObjectType(d.m.Types[ti])
			d.m.Functions.Imports = append(d.m.Functions.Imports, imp)
		case ir.ObjectKindTable:
			tt, err := d.decodeTableType()
			if err != nil {
				return err
			}
			imp.Type = ir.TableObjectType(tt)
			d.m.Tables.Imports = append(d.m.Tables.Imports, imp)
		case ir.ObjectKindMemory:
			mt, err := d.decodeMemoryType()
			if err != nil {
				return err
			}
			imp.Type = ir.MemoryObjectType(mt)
			d.m.Memories.Imports = append(d.m.Memories.Imports, imp)
		case ir.ObjectKindGlobal:
			gt, err := d.decodeGlobalType()
			if err != nil {
				return err
			}
			imp.Type = ir.GlobalObjectType(gt)
			d.m.Globals.Imports = append(d.m.Globals.Imports, imp)
		case ir.ObjectKindExceptionType:
			if !d.features.ExceptionHandling {
				return r.fail("tag import requires the exception-handling feature")
			}
			et, err := d.decodeTag()
			if err != nil {
				return err
			}
			imp.Type = ir.ExceptionObjectType(et)
			d.m.ExceptionTypes.Imports = append(d.m.ExceptionTypes.Imports, imp)
		default:
			return r.fail("invalid import kind 0x%x", kind)
		}
		d.m.ImportOrder = append(d.m.ImportOrder, imp)
	}
	return nil
}

func (d *decoder) decodeLimits() (ir.SizeConstraints, bool, error) {
	r := d.r
	sc := ir.SizeConstraints{Max: ir.Unbounded}
	flags, err := r.readByte()
	if err != nil {
		return sc, false, err
	}
	if flags&^byte(0x03) != 0 {
		return sc, false, r.fail("invalid limits flags 0x%x", flags)
	}
	shared := flags&0x02 != 0
	if shared && !d.features.Threads {
		return sc, false, r.fail("shared limits require the threads feature")
	}
	min, err := r.readU32()
	if err != nil {
		return sc, false, err
	}
	sc.Min = uint64(min)
	if flags&0x01 != 0 {
		max, err := r.readU32()
		if err != nil {
			return sc, false, err
		}
		sc.Max = uint64(max)
	} else if shared {
		return sc, false, r.fail("shared limits must declare a maximum")
	}
	return sc, shared, nil
}

func (d *decoder) decodeTableType() (*ir.TableType, error) {
	r := d.r
	elemType, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if elemType != ir.ElemTypeFuncref {
		return nil, r.fail("invalid table element type 0x%x", elemType)
	}
	size, shared, err := d.decodeLimits()
	if err != nil {
		return nil, err
	}
	return &ir.TableType{ElemType: elemType, Shared: shared, Size: size}, nil
}

func (d *decoder) decodeMemoryType() (*ir.MemoryType, error) {
	size, shared, err := d.decodeLimits()
	if err != nil {
		return nil, err
	}
	return &ir.MemoryType{Shared: shared, Size: size}, nil
}

func (d *decoder) decodeGlobalType() (*ir.GlobalType, error) {
	r := d.r
	vt, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if !ir.IsValueType(vt) {
		return nil, r.fail("invalid global value type 0x%x", vt)
	}
	mut, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if mut > 1 {
		return nil, r.fail("invalid global mutability 0x%x", mut)
	}
	return &ir.GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

func (d *decoder) decodeTag() (*ir.ExceptionType, error) {
	r := d.r
	attr, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if attr != 0 {
		return nil, r.fail("invalid tag attribute 0x%x", attr)
	}
	ti, err := r.readU32()
	if err != nil {
		return nil, err
	}
	if int(ti) >= len(d.m.Types) {
		return nil, r.fail("tag type index %d out of range", ti)
	}
	sig := d.m.Types[ti]
	if sig.Results.Arity() != 0 {
		return nil, r.fail("tag signature must have no results")
	}
	return &ir.ExceptionType{Params: sig.Params}, nil
}

func (d *decoder) decodeFunctionSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	d.sawFunctionSection = true
	d.numFunctionDecls = count
	d.m.Functions.Defs = make([]*ir.FunctionDef, 0, count)
	for i := uint32(0); i < count; i++ {
		ti, err := r.readU32()
		if err != nil {
			return err
		}
		if int(ti) >= len(d.m.Types) {
			return r.fail("function %d: type index %d out of range", i, ti)
		}
		d.m.Functions.Defs = append(d.m.Functions.Defs, &ir.FunctionDef{TypeIndex: ti})
	}
	return nil
}

func (d *decoder) decodeTableSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		tt, err := d.decodeTableType()
		if err != nil {
			return err
		}
		d.m.Tables.Defs = append(d.m.Tables.Defs, tt)
	}
	return nil
}

func (d *decoder) decodeMemorySection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		mt, err := d.decodeMemoryType()
		if err != nil {
			return err
		}
		d.m.Memories.Defs = append(d.m.Memories.Defs, mt)
	}
	return nil
}

func (d *decoder) decodeTagSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		et, err := d.decodeTag()
		if err != nil {
			return err
		}
		d.m.ExceptionTypes.Defs = append(d.m.ExceptionTypes.Defs, et)
	}
	return nil
}

func (d *decoder) decodeGlobalSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		gt, err := d.decodeGlobalType()
		if err != nil {
			return err
		}
		init, err := d.decodeInitExpr()
		if err != nil {
			return err
		}
		d.m.Globals.Defs = append(d.m.Globals.Defs, &ir.GlobalDef{Type: *gt, Init: init})
	}
	return nil
}

func (d *decoder) decodeExportSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.readName()
		if err != nil {
			return err
		}
		kind, err := r.readByte()
		if err != nil {
			return err
		}
		switch ir.ObjectKind(kind) {
		case ir.ObjectKindFunction, ir.ObjectKindTable, ir.ObjectKindMemory, ir.ObjectKindGlobal:
		case ir.ObjectKindExceptionType:
			if !d.features.ExceptionHandling {
				return r.fail("tag export requires the exception-handling feature")
			}
		default:
			return r.fail("invalid export kind 0x%x", kind)
		}
		index, err := r.readU32()
		if err != nil {
			return err
		}
		d.m.Exports = append(d.m.Exports, &ir.Export{Name: name, Kind: ir.ObjectKind(kind), Index: index})
	}
	return nil
}

func (d *decoder) decodeStartSection() error {
	index, err := d.r.readU32()
	if err != nil {
		return err
	}
	d.m.StartFunctionIndex = index
	return nil
}

func (d *decoder) decodeElementSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		tableIndex, err := r.readU32()
		if err != nil {
			return err
		}
		if tableIndex != 0 && !d.features.MultiTable {
			return r.fail("element segment table index must be zero without multi-table")
		}
		offset, err := d.decodeInitExpr()
		if err != nil {
			return err
		}
		n, err := r.readU32()
		if err != nil {
			return err
		}
		indices := make([]ir.Index, n)
		for j := uint32(0); j < n; j++ {
			if indices[j], err = r.readU32(); err != nil {
				return err
			}
		}
		d.m.TableSegments = append(d.m.TableSegments, &ir.TableSegment{
			TableIndex: tableIndex, Offset: offset, Indices: indices,
		})
	}
	return nil
}

// maxFunctionLocals bounds the decoded local count so a tiny section cannot
// demand a huge allocation.
const maxFunctionLocals = 1 << 17

func (d *decoder) decodeCodeSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	d.numCodeEntries = count
	if int(count) > len(d.m.Functions.Defs) {
		return r.fail("code section has %d bodies for %d declared functions", count, len(d.m.Functions.Defs))
	}
	for i := uint32(0); i < count; i++ {
		bodySize, err := r.readU32()
		if err != nil {
			return err
		}
		end := r.pos + int(bodySize)
		if uint64(bodySize) > uint64(r.len()) {
			return r.fail("code entry %d: body size exceeds remaining input", i)
		}

		numGroups, err := r.readU32()
		if err != nil {
			return err
		}
		var locals []ir.ValueType
		var total uint64
		for g := uint32(0); g < numGroups; g++ {
			n, err := r.readU32()
			if err != nil {
				return err
			}
			vt, err := r.readByte()
			if err != nil {
				return err
			}
			if !ir.IsValueType(vt) {
				return r.fail("code entry %d: invalid local type 0x%x", i, vt)
			}
			total += uint64(n)
			if total > maxFunctionLocals {
				return r.fail("code entry %d: too many locals (%d)", i, total)
			}
			for k := uint32(0); k < n; k++ {
				locals = append(locals, vt)
			}
		}

		if r.pos > end {
			return r.fail("code entry %d: locals overrun the declared body size", i)
		}
		body := r.b[r.pos:end]
		if len(body) == 0 || ir.Opcode(body[len(body)-1]) != ir.OpcodeEnd {
			return r.fail("code entry %d: body does not end with the end opcode", i)
		}
		r.pos = end

		d.m.Functions.Defs[i].LocalTypes = locals
		d.m.Functions.Defs[i].Body = body
	}
	return nil
}

func (d *decoder) decodeDataSection() error {
	r := d.r
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		memIndex, err := r.readU32()
		if err != nil {
			return err
		}
		if memIndex != 0 && !d.features.MultiMemory {
			return r.fail("data segment memory index must be zero without multi-memory")
		}
		offset, err := d.decodeInitExpr()
		if err != nil {
			return err
		}
		n, err := r.readU32()
		if err != nil {
			return err
		}
		data, err := r.readBytes(n)
		if err != nil {
			return err
		}
		owned := make([]byte, len(data))
		copy(owned, data)
		d.m.DataSegments = append(d.m.DataSegments, &ir.DataSegment{
			MemoryIndex: memIndex, Offset: offset, Data: owned,
		})
	}
	return nil
}

func (d *decoder) decodeCustomSection(end int) error {
	r := d.r
	name, err := r.readName()
	if err != nil {
		return err
	}
	if r.pos > end {
		return r.fail("custom section name overruns the section")
	}
	data := make([]byte, end-r.pos)
	copy(data, r.b[r.pos:end])
	r.pos = end

	d.m.UserSections = append(d.m.UserSections, &ir.UserSection{
		Name: name, Data: data, AfterSection: d.lastSection,
	})
	if name == "name" && d.m.Names == nil {
		// A broken name section degrades to the raw bytes only; printing
		// falls back to synthesized names.
		if ns, err := decodeNameSection(data); err == nil {
			d.m.Names = ns
		}
	}
	return nil
}
