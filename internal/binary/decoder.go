package binary

import (
	"bytes"

	"github.com/riftwasm/rift/internal/ir"
)

var (
	magic   = []byte{0x00, 0x61, 0x73, 0x6d}
	version = []byte{0x01, 0x00, 0x00, 0x00}
)

// DecodeModule parses a module in the WebAssembly binary format. The result
// is structurally well-formed but not yet validated.
func DecodeModule(input []byte, features ir.FeatureSpec) (*ir.Module, error) {
	r := &reader{b: input}

	buf, err := r.readBytes(4)
	if err != nil || !bytes.Equal(buf, magic) {
		return nil, &MalformedError{Offset: 0, Reason: "invalid magic number"}
	}
	buf, err = r.readBytes(4)
	if err != nil || !bytes.Equal(buf, version) {
		return nil, &MalformedError{Offset: 4, Reason: "invalid version header"}
	}

	d := &decoder{r: r, m: ir.NewModule(features), features: features}
	if err := d.decodeSections(); err != nil {
		return nil, err
	}
	return d.m, nil
}

type decoder struct {
	r        *reader
	m        *ir.Module
	features ir.FeatureSpec

	// lastSection tracks ordering of non-custom sections; each may appear at
	// most once and only in canonical order.
	lastSection ir.SectionID
	// numCodeEntries must match the function section count.
	sawFunctionSection bool
	numFunctionDecls   uint32
	numCodeEntries     uint32
}

// sectionRank orders the non-custom sections. The tag section of the
// exception proposal sits between memory and global.
func sectionRank(id ir.SectionID) (int, bool) {
	switch id {
	case ir.SectionIDType:
		return 1, true
	case ir.SectionIDImport:
		return 2, true
	case ir.SectionIDFunction:
		return 3, true
	case ir.SectionIDTable:
		return 4, true
	case ir.SectionIDMemory:
		return 5, true
	case ir.SectionIDExceptionType:
		return 6, true
	case ir.SectionIDGlobal:
		return 7, true
	case ir.SectionIDExport:
		return 8, true
	case ir.SectionIDStart:
		return 9, true
	case ir.SectionIDElement:
		return 10, true
	case ir.SectionIDCode:
		return 11, true
	case ir.SectionIDData:
		return 12, true
	}
	return 0, false
}

func (d *decoder) decodeSections() error {
	r := d.r
	for r.len() > 0 {
		id, err := r.readByte()
		if err != nil {
			return err
		}
		size, err := r.readU32()
		if err != nil {
			return err
		}
		start := r.pos
		if uint64(size) > uint64(r.len()) {
			return r.fail("section %s: declared size %d exceeds remaining input", ir.SectionIDName(id), size)
		}

		if id == ir.SectionIDCustom {
			err = d.decodeCustomSection(start + int(size))
		} else {
			rank, known := sectionRank(id)
			if !known {
				return r.fail("invalid section id %d", id)
			}
			if lastRank, _ := sectionRank(d.lastSection); d.lastSection != ir.SectionIDCustom && rank <= lastRank {
				return r.fail("section %s out of order or duplicated", ir.SectionIDName(id))
			}
			if id == ir.SectionIDExceptionType && !d.features.ExceptionHandling {
				return r.fail("tag section requires the exception-handling feature")
			}
			switch id {
			case ir.SectionIDType:
				err = d.decodeTypeSection()
			case ir.SectionIDImport:
				err = d.decodeImportSection()
			case ir.SectionIDFunction:
				err = d.decodeFunctionSection()
			case ir.SectionIDTable:
				err = d.decodeTableSection()
			case ir.SectionIDMemory:
				err = d.decodeMemorySection()
			case ir.SectionIDExceptionType:
				err = d.decodeTagSection()
			case ir.SectionIDGlobal:
				err = d.decodeGlobalSection()
			case ir.SectionIDExport:
				err = d.decodeExportSection()
			case ir.SectionIDStart:
				err = d.decodeStartSection()
			case ir.SectionIDElement:
				err = d.decodeElementSection()
			case ir.SectionIDCode:
				err = d.decodeCodeSection()
			case ir.SectionIDData:
				err = d.decodeDataSection()
			}
			if err == nil {
				d.lastSection = id
			}
		}
		if err != nil {
			return err
		}
		if r.pos != start+int(size) {
			return r.fail("section %s: %d bytes of trailing garbage", ir.SectionIDName(id), start+int(size)-r.pos)
		}
	}

	if d.sawFunctionSection || d.numCodeEntries > 0 {
		if d.numFunctionDecls != d.numCodeEntries {
			return d.r.fail("function section declares %d functions but code section has %d bodies",
				d.numFunctionDecls, d.numCodeEntries)
		}
	}
	return nil
}

// decodeInitExpr reads a constant expression terminated by end.
func (d *decoder) decodeInitExpr() (ir.InitializerExpression, error) {
	r := d.r
	var expr ir.InitializerExpression
	op, err := r.readByte()
	if err != nil {
		return expr, err
	}
	expr.Op = ir.Opcode(op)
	switch expr.Op {
	case ir.OpcodeI32Const:
		if expr.I32, err = r.readS32(); err != nil {
			return expr, err
		}
	case ir.OpcodeI64Const:
		if expr.I64, err = r.readS64(); err != nil {
			return expr, err
		}
	case ir.OpcodeF32Const:
		buf, err := r.readBytes(4)
		if err != nil {
			return expr, err
		}
		expr.F32 = float32FromLE(buf)
	case ir.OpcodeF64Const:
		buf, err := r.readBytes(8)
		if err != nil {
			return expr, err
		}
		expr.F64 = float64FromLE(buf)
	case ir.OpcodeGlobalGet:
		if expr.GlobalIndex, err = r.readU32(); err != nil {
			return expr, err
		}
	default:
		return expr, r.fail("invalid initializer opcode 0x%x", op)
	}
	endOp, err := r.readByte()
	if err != nil {
		return expr, err
	}
	if ir.Opcode(endOp) != ir.OpcodeEnd {
		return expr, r.fail("initializer expression not terminated by end")
	}
	return expr, nil
}
