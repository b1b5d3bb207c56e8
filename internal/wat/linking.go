package wat

import (
	"fmt"

	"github.com/riftwasm/rift/internal/leb128"
)

// Linking subsection types, per the tool-conventions linking spec.
const (
	linkingSegmentInfo = 5
	linkingInitFuncs   = 6
	linkingComdatInfo  = 7
	linkingSymbolTable = 8
)

// Symbol kinds in the symbol table subsection.
const (
	symKindFunction = 0
	symKindData     = 1
	symKindGlobal   = 2
	symKindSection  = 3
	symKindTag      = 4
	symKindTable    = 5
)

const symFlagUndefined = 0x10

// printLinkingSection disassembles the "linking" custom section into a
// comment block. A parse failure degrades to a diagnostic comment; printing
// never aborts.
func (p *printer) printLinkingSection(data []byte) {
	if err := p.tryPrintLinkingSection(data); err != nil {
		p.line(";; linking section: %v (%d bytes)", err, len(data))
	}
}

type linkingReader struct {
	b   []byte
	pos int
}

func (r *linkingReader) u32() (uint32, error) {
	v, n, err := leb128.DecodeUint32(r.b[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

func (r *linkingReader) byteVal() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, fmt.Errorf("truncated")
	}
	c := r.b[r.pos]
	r.pos++
	return c, nil
}

func (r *linkingReader) name() (string, error) {
	size, err := r.u32()
	if err != nil {
		return "", err
	}
	if uint64(size) > uint64(len(r.b)-r.pos) {
		return "", fmt.Errorf("truncated name")
	}
	s := string(r.b[r.pos : r.pos+int(size)])
	r.pos += int(size)
	return s, nil
}

func (p *printer) tryPrintLinkingSection(data []byte) error {
	r := &linkingReader{b: data}
	version, err := r.u32()
	if err != nil {
		return fmt.Errorf("read version: %v", err)
	}
	p.line(";; linking section (version %d)", version)

	for r.pos < len(r.b) {
		subType, err := r.byteVal()
		if err != nil {
			return err
		}
		size, err := r.u32()
		if err != nil {
			return err
		}
		end := r.pos + int(size)
		if uint64(size) > uint64(len(r.b)-r.pos) {
			return fmt.Errorf("subsection %d overruns the section", subType)
		}
		switch subType {
		case linkingSegmentInfo:
			err = p.printSegmentInfo(r)
		case linkingInitFuncs:
			err = p.printInitFuncs(r)
		case linkingComdatInfo:
			err = p.printComdatInfo(r)
		case linkingSymbolTable:
			err = p.printSymbolTable(r)
		default:
			p.line(";;   subsection %d: %d bytes", subType, size)
			r.pos = end
		}
		if err != nil {
			return err
		}
		if r.pos != end {
			return fmt.Errorf("subsection %d: trailing bytes", subType)
		}
	}
	return nil
}

func (p *printer) printSegmentInfo(r *linkingReader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	p.line(";;   segment info (%d)", count)
	for i := uint32(0); i < count; i++ {
		name, err := r.name()
		if err != nil {
			return err
		}
		align, err := r.u32()
		if err != nil {
			return err
		}
		flags, err := r.u32()
		if err != nil {
			return err
		}
		p.line(";;     %q align=%d flags=0x%x", name, align, flags)
	}
	return nil
}

func (p *printer) printInitFuncs(r *linkingReader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	p.line(";;   init funcs (%d)", count)
	for i := uint32(0); i < count; i++ {
		priority, err := r.u32()
		if err != nil {
			return err
		}
		sym, err := r.u32()
		if err != nil {
			return err
		}
		p.line(";;     priority=%d symbol=%d", priority, sym)
	}
	return nil
}

func (p *printer) printComdatInfo(r *linkingReader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	p.line(";;   comdats (%d)", count)
	for i := uint32(0); i < count; i++ {
		name, err := r.name()
		if err != nil {
			return err
		}
		flags, err := r.u32()
		if err != nil {
			return err
		}
		n, err := r.u32()
		if err != nil {
			return err
		}
		p.line(";;     %q flags=0x%x (%d members)", name, flags, n)
		for j := uint32(0); j < n; j++ {
			kind, err := r.byteVal()
			if err != nil {
				return err
			}
			index, err := r.u32()
			if err != nil {
				return err
			}
			p.line(";;       kind=%d index=%d", kind, index)
		}
	}
	return nil
}

func (p *printer) printSymbolTable(r *linkingReader) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	p.line(";;   symbol table (%d)", count)
	for i := uint32(0); i < count; i++ {
		kind, err := r.byteVal()
		if err != nil {
			return err
		}
		flags, err := r.u32()
		if err != nil {
			return err
		}
		switch kind {
		case symKindFunction, symKindGlobal, symKindTag, symKindTable:
			index, err := r.u32()
			if err != nil {
				return err
			}
			name := ""
			if flags&symFlagUndefined == 0 {
				if name, err = r.name(); err != nil {
					return err
				}
			}
			p.line(";;     sym %d: kind=%d index=%d flags=0x%x %q", i, kind, index, flags, name)
		case symKindData:
			name, err := r.name()
			if err != nil {
				return err
			}
			if flags&symFlagUndefined == 0 {
				seg, err := r.u32()
				if err != nil {
					return err
				}
				off, err := r.u32()
				if err != nil {
					return err
				}
				size, err := r.u32()
				if err != nil {
					return err
				}
				p.line(";;     sym %d: data %q segment=%d offset=%d size=%d flags=0x%x", i, name, seg, off, size, flags)
			} else {
				p.line(";;     sym %d: data %q (undefined) flags=0x%x", i, name, flags)
			}
		case symKindSection:
			index, err := r.u32()
			if err != nil {
				return err
			}
			p.line(";;     sym %d: section index=%d flags=0x%x", i, index, flags)
		default:
			return fmt.Errorf("unknown symbol kind %d", kind)
		}
	}
	return nil
}
