package binary

import (
	"github.com/riftwasm/rift/internal/ir"
)

// Name subsection ids defined by the standard.
const (
	nameSubsectionModule   = 0
	nameSubsectionFunction = 1
	nameSubsectionLocal    = 2
)

// decodeNameSection parses the payload of the "name" custom section.
func decodeNameSection(data []byte) (*ir.NameSection, error) {
	r := &reader{b: data}
	ns := &ir.NameSection{}
	for r.len() > 0 {
		id, err := r.readByte()
		if err != nil {
			return nil, err
		}
		size, err := r.readU32()
		if err != nil {
			return nil, err
		}
		end := r.pos + int(size)
		if uint64(size) > uint64(r.len()) {
			return nil, r.fail("name subsection %d overruns the section", id)
		}
		switch id {
		case nameSubsectionModule:
			if ns.ModuleName, err = r.readName(); err != nil {
				return nil, err
			}
		case nameSubsectionFunction:
			if ns.FunctionNames, err = decodeNameMap(r); err != nil {
				return nil, err
			}
		case nameSubsectionLocal:
			count, err := r.readU32()
			if err != nil {
				return nil, err
			}
			for i := uint32(0); i < count; i++ {
				fi, err := r.readU32()
				if err != nil {
					return nil, err
				}
				nm, err := decodeNameMap(r)
				if err != nil {
					return nil, err
				}
				ns.LocalNames = append(ns.LocalNames, ir.NameMapAssoc{Index: fi, NameMap: nm})
			}
		default:
			// Unknown subsections are skipped, not rejected.
			r.pos = end
		}
		if r.pos != end {
			return nil, r.fail("name subsection %d: trailing garbage", id)
		}
	}
	return ns, nil
}

func decodeNameMap(r *reader) (ir.NameMap, error) {
	count, err := r.readU32()
	if err != nil {
		return nil, err
	}
	nm := make(ir.NameMap, 0, count)
	for i := uint32(0); i < count; i++ {
		index, err := r.readU32()
		if err != nil {
			return nil, err
		}
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		nm = append(nm, ir.NameAssoc{Index: index, Name: name})
	}
	return nm, nil
}
