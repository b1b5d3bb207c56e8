// Package wat renders a decoded module as the S-expression text format.
//
// Layout is decoupled from generation: the traversal emits opaque indent and
// dedent markers into the stream, and a second pass expands them into
// newlines and spaces.
package wat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/riftwasm/rift/internal/ir"
)

// Indentation markers, expanded by expandIndentation. They never appear in
// the final output.
const (
	indentMark = '\x01'
	dedentMark = '\x02'
)

type printer struct {
	m   *ir.Module
	sb  strings.Builder
	fns *NameScope

	typeNames   []string
	funcNames   []string
	tableNames  []string
	memNames    []string
	globalNames []string
	tagNames    []string
}

// Print renders m as text. It never fails: defects in optional metadata
// (name or linking sections) degrade to diagnostic comments.
func Print(m *ir.Module) string {
	p := &printer{m: m, fns: NewNameScope()}
	p.assignNames()
	p.printModule()
	return expandIndentation(p.sb.String())
}

func expandIndentation(s string) string {
	var out strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case indentMark:
			depth++
		case dedentMark:
			depth--
		case '\n':
			out.WriteByte('\n')
			// A dedent directly after the newline outdents its own line.
			j := i + 1
			d := depth
			for j < len(s) && s[j] == dedentMark {
				d--
				j++
			}
			for k := 0; k < d; k++ {
				out.WriteString("  ")
			}
		default:
			out.WriteByte(s[i])
		}
	}
	return out.String()
}

func (p *printer) assignNames() {
	m := p.m
	for i := range m.Types {
		p.typeNames = append(p.typeNames, p.fns.Claim(fmt.Sprintf("t%d", i)))
	}
	for i := ir.Index(0); i < m.Functions.Size(); i++ {
		base := ""
		if m.Names != nil {
			base = m.Names.FunctionNames.Get(i)
		}
		if base == "" {
			base = fmt.Sprintf("f%d", i)
		}
		p.funcNames = append(p.funcNames, p.fns.Claim(base))
	}
	for i := ir.Index(0); i < m.Tables.Size(); i++ {
		p.tableNames = append(p.tableNames, p.fns.Claim(fmt.Sprintf("tbl%d", i)))
	}
	for i := ir.Index(0); i < m.Memories.Size(); i++ {
		p.memNames = append(p.memNames, p.fns.Claim(fmt.Sprintf("mem%d", i)))
	}
	for i := ir.Index(0); i < m.Globals.Size(); i++ {
		p.globalNames = append(p.globalNames, p.fns.Claim(fmt.Sprintf("g%d", i)))
	}
	for i := ir.Index(0); i < m.ExceptionTypes.Size(); i++ {
		p.tagNames = append(p.tagNames, p.fns.Claim(fmt.Sprintf("e%d", i)))
	}
}

func (p *printer) line(format string, args ...interface{}) {
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) printModule() {
	m := p.m
	p.sb.WriteString("(module")
	p.sb.WriteByte(indentMark)
	p.sb.WriteByte('\n')

	for i, t := range m.Types {
		p.line("(type %s (func%s%s))", p.typeNames[i], paramsText(t.Params), resultsText(t.Results))
	}
	for _, imp := range m.ImportOrder {
		p.printImport(imp)
	}
	for i := len(m.Tables.Imports); i < int(m.Tables.Size()); i++ {
		t := m.TableType(ir.Index(i))
		p.line("(table %s %s anyfunc)", p.tableNames[i], limitsText(t.Size, t.Shared))
	}
	for i := len(m.Memories.Imports); i < int(m.Memories.Size()); i++ {
		t := m.MemoryType(ir.Index(i))
		p.line("(memory %s %s)", p.memNames[i], limitsText(t.Size, t.Shared))
	}
	for i := len(m.ExceptionTypes.Imports); i < int(m.ExceptionTypes.Size()); i++ {
		t := m.ExceptionType(ir.Index(i))
		p.line("(tag %s%s)", p.tagNames[i], paramsText(t.Params))
	}
	for i, g := range m.Globals.Defs {
		gi := len(m.Globals.Imports) + i
		p.line("(global %s %s %s)", p.globalNames[gi], globalTypeText(&g.Type), initExprText(g.Init))
	}
	for _, seg := range m.TableSegments {
		var names []string
		for _, fi := range seg.Indices {
			names = append(names, p.funcNames[fi])
		}
		p.line("(elem %s %s)", initExprText(seg.Offset), strings.Join(names, " "))
	}
	for _, seg := range m.DataSegments {
		p.line("(data %s %s)", initExprText(seg.Offset), stringLiteral(seg.Data))
	}
	for _, e := range m.Exports {
		p.line("(export %s (%s %s))", strconv.Quote(e.Name), ir.ObjectKindName(e.Kind), p.exportTargetName(e))
	}
	if m.StartFunctionIndex != ir.InvalidIndex {
		p.line("(start %s)", p.funcNames[m.StartFunctionIndex])
	}
	for i, def := range m.Functions.Defs {
		p.printFunction(ir.Index(len(m.Functions.Imports)+i), def)
	}
	p.printUserSections()

	p.sb.WriteByte(dedentMark)
	p.sb.WriteString(")\n")
}

func (p *printer) exportTargetName(e *ir.Export) string {
	switch e.Kind {
	case ir.ObjectKindFunction:
		return p.funcNames[e.Index]
	case ir.ObjectKindTable:
		return p.tableNames[e.Index]
	case ir.ObjectKindMemory:
		return p.memNames[e.Index]
	case ir.ObjectKindGlobal:
		return p.globalNames[e.Index]
	case ir.ObjectKindExceptionType:
		return p.tagNames[e.Index]
	}
	return strconv.Itoa(int(e.Index))
}

func (p *printer) printImport(imp ir.Import) {
	names := fmt.Sprintf("%s %s", strconv.Quote(imp.Module), strconv.Quote(imp.Name))
	switch imp.Type.Kind {
	case ir.ObjectKindFunction:
		// Function import names index into the function namespace; recover
		// the position by counting function imports printed so far.
		idx := p.importIndex(imp, ir.ObjectKindFunction)
		ti := p.typeIndexOf(imp.Type.Function)
		p.line("(import %s (func %s (type %s)))", names, p.funcNames[idx], p.typeNames[ti])
	case ir.ObjectKindTable:
		idx := p.importIndex(imp, ir.ObjectKindTable)
		p.line("(import %s (table %s %s anyfunc))", names, p.tableNames[idx], limitsText(imp.Type.Table.Size, imp.Type.Table.Shared))
	case ir.ObjectKindMemory:
		idx := p.importIndex(imp, ir.ObjectKindMemory)
		p.line("(import %s (memory %s %s))", names, p.memNames[idx], limitsText(imp.Type.Memory.Size, imp.Type.Memory.Shared))
	case ir.ObjectKindGlobal:
		idx := p.importIndex(imp, ir.ObjectKindGlobal)
		p.line("(import %s (global %s %s))", names, p.globalNames[idx], globalTypeText(imp.Type.Global))
	case ir.ObjectKindExceptionType:
		idx := p.importIndex(imp, ir.ObjectKindExceptionType)
		p.line("(import %s (tag %s%s))", names, p.tagNames[idx], paramsText(imp.Type.Exception.Params))
	}
}

// importIndex finds imp's position within its kind namespace by counting
// same-kind imports that precede it in declaration order.
func (p *printer) importIndex(imp ir.Import, kind ir.ObjectKind) int {
	n := 0
	for i := range p.m.ImportOrder {
		cur := p.m.ImportOrder[i]
		if cur.Module == imp.Module && cur.Name == imp.Name && cur.Type.Kind == imp.Type.Kind {
			return n
		}
		if cur.Type.Kind == kind {
			n++
		}
	}
	return n
}

func (p *printer) typeIndexOf(ft *ir.FunctionType) int {
	for i, t := range p.m.Types {
		if t == ft {
			return i
		}
	}
	return 0
}

func paramsText(tt *ir.TypeTuple) string {
	if tt.Arity() == 0 {
		return ""
	}
	parts := make([]string, tt.Arity())
	for i, t := range tt.Types {
		parts[i] = ir.ValueTypeName(t)
	}
	return " (param " + strings.Join(parts, " ") + ")"
}

func resultsText(tt *ir.TypeTuple) string {
	if tt.Arity() == 0 {
		return ""
	}
	parts := make([]string, tt.Arity())
	for i, t := range tt.Types {
		parts[i] = ir.ValueTypeName(t)
	}
	return " (result " + strings.Join(parts, " ") + ")"
}

func limitsText(size ir.SizeConstraints, shared bool) string {
	s := strconv.FormatUint(size.Min, 10)
	if size.Max != ir.Unbounded {
		s += " " + strconv.FormatUint(size.Max, 10)
	}
	if shared {
		s += " shared"
	}
	return s
}

func globalTypeText(gt *ir.GlobalType) string {
	if gt.Mutable {
		return "(mut " + ir.ValueTypeName(gt.ValType) + ")"
	}
	return ir.ValueTypeName(gt.ValType)
}

func initExprText(e ir.InitializerExpression) string {
	switch e.Op {
	case ir.OpcodeI32Const:
		return fmt.Sprintf("(i32.const %d)", e.I32)
	case ir.OpcodeI64Const:
		return fmt.Sprintf("(i64.const %d)", e.I64)
	case ir.OpcodeF32Const:
		return fmt.Sprintf("(f32.const %s)", floatText(float64(e.F32)))
	case ir.OpcodeF64Const:
		return fmt.Sprintf("(f64.const %s)", floatText(e.F64))
	case ir.OpcodeGlobalGet:
		return fmt.Sprintf("(get_global %d)", e.GlobalIndex)
	}
	return ";; invalid initializer"
}

func floatText(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// stringLiteral renders data as a quoted text-format string with hex escapes
// for non-printable bytes.
func stringLiteral(data []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range data {
		switch {
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "\\%02x", c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// bodyLabel is one frame of the printing control stack, used to name labels
// and annotate end.
type bodyLabel struct {
	name string
}

func (p *printer) printFunction(fi ir.Index, def *ir.FunctionDef) {
	sig := p.m.Types[def.TypeIndex]
	header := fmt.Sprintf("(func %s (type %s)%s%s", p.funcNames[fi], p.typeNames[def.TypeIndex],
		paramsText(sig.Params), resultsText(sig.Results))
	p.sb.WriteString(header)
	p.sb.WriteByte(indentMark)
	p.sb.WriteByte('\n')

	if len(def.LocalTypes) > 0 {
		parts := make([]string, len(def.LocalTypes))
		for i, t := range def.LocalTypes {
			parts[i] = ir.ValueTypeName(t)
		}
		p.line("(local %s)", strings.Join(parts, " "))
	}

	labels := NewNameScope()
	var stack []bodyLabel

	body := def.Body
	for pc := 0; pc < len(body); {
		op, imm, n, err := ir.DecodeOperator(body, pc, p.m.Features)
		if err != nil {
			p.line(";; <malformed body at offset %d: %v>", pc, err)
			break
		}
		// The final end closes the function itself and is not printed.
		if op == ir.OpcodeEnd && len(stack) == 0 {
			pc += n
			continue
		}
		p.printOperator(op, imm, labels, &stack)
		pc += n
	}

	p.sb.WriteByte(dedentMark)
	p.sb.WriteString(")\n")
}

func (p *printer) printOperator(op ir.Opcode, imm ir.Immediate, labels *NameScope, stack *[]bodyLabel) {
	name := ir.OperatorName(op)
	switch op {
	case ir.OpcodeBlock, ir.OpcodeLoop, ir.OpcodeIf, ir.OpcodeTry:
		label := labels.Claim(fmt.Sprintf("label%d", len(*stack)))
		*stack = append(*stack, bodyLabel{name: label})
		p.sb.WriteString(name + " " + label + blockTypeText(imm.BlockType, p.typeNames))
		p.sb.WriteByte(indentMark)
		p.sb.WriteByte('\n')
		return
	case ir.OpcodeElse:
		p.sb.WriteByte(dedentMark)
		p.sb.WriteString("else")
		p.sb.WriteByte(indentMark)
		p.sb.WriteByte('\n')
		return
	case ir.OpcodeCatch:
		p.sb.WriteByte(dedentMark)
		p.sb.WriteString("catch " + p.tagNames[imm.Index])
		p.sb.WriteByte(indentMark)
		p.sb.WriteByte('\n')
		return
	case ir.OpcodeEnd:
		var label bodyLabel
		if len(*stack) > 0 {
			label = (*stack)[len(*stack)-1]
			*stack = (*stack)[:len(*stack)-1]
		}
		p.sb.WriteByte(dedentMark)
		if label.name != "" {
			p.line("end ;; %s", label.name)
		} else {
			p.line("end")
		}
		return
	case ir.OpcodeBr, ir.OpcodeBrIf:
		if d := int(imm.Index); d < len(*stack) {
			p.line("%s %s", name, (*stack)[len(*stack)-1-d].name)
		} else {
			p.line("%s %d", name, imm.Index)
		}
		return
	case ir.OpcodeBrTable:
		parts := make([]string, 0, len(imm.Depths)+1)
		for _, d := range imm.Depths {
			parts = append(parts, strconv.Itoa(int(d)))
		}
		parts = append(parts, strconv.Itoa(int(imm.DefaultDepth)))
		p.line("br_table %s", strings.Join(parts, " "))
		return
	case ir.OpcodeCall:
		p.line("call %s", p.funcNames[imm.Index])
		return
	case ir.OpcodeCallIndirect:
		p.line("call_indirect (type %s)", p.typeNames[imm.TypeIndex])
		return
	case ir.OpcodeThrow:
		p.line("throw %s", p.tagNames[imm.Index])
		return
	case ir.OpcodeGlobalGet, ir.OpcodeGlobalSet:
		p.line("%s %s", name, p.globalNames[imm.Index])
		return
	case ir.OpcodeLocalGet, ir.OpcodeLocalSet, ir.OpcodeLocalTee:
		p.line("%s %d", name, imm.Index)
		return
	case ir.OpcodeI32Const:
		p.line("i32.const %d", imm.I32)
		return
	case ir.OpcodeI64Const:
		p.line("i64.const %d", imm.I64)
		return
	case ir.OpcodeF32Const:
		p.line("f32.const %s", floatText(float64(imm.F32)))
		return
	case ir.OpcodeF64Const:
		p.line("f64.const %s", floatText(imm.F64))
		return
	}

	info, _ := ir.LookupOperator(op)
	switch info.Imm {
	case ir.ImmLoadStore:
		s := name
		if imm.Offset != 0 {
			s += fmt.Sprintf(" offset=%d", imm.Offset)
		}
		if imm.AlignLog2 != info.NaturalAlign {
			s += fmt.Sprintf(" align=%d", 1<<imm.AlignLog2)
		}
		p.line("%s", s)
	case ir.ImmLane:
		p.line("%s %d", name, imm.LaneIndex)
	case ir.ImmShuffle:
		parts := make([]string, 16)
		for i, l := range imm.Lanes {
			parts[i] = strconv.Itoa(int(l))
		}
		p.line("%s %s", name, strings.Join(parts, " "))
	case ir.ImmV128Literal:
		var parts [16]string
		for i, b := range imm.V128 {
			parts[i] = fmt.Sprintf("0x%02x", b)
		}
		p.line("v128.const i8x16 %s", strings.Join(parts[:], " "))
	default:
		p.line("%s", name)
	}
}

func blockTypeText(bt ir.BlockType, typeNames []string) string {
	switch bt.Kind {
	case ir.BlockTypeEmpty:
		return ""
	case ir.BlockTypeValue:
		return " (result " + ir.ValueTypeName(bt.ValueType) + ")"
	case ir.BlockTypeIndex:
		if int(bt.TypeIndex) < len(typeNames) {
			return " (type " + typeNames[bt.TypeIndex] + ")"
		}
		return fmt.Sprintf(" (type %d)", bt.TypeIndex)
	}
	return ""
}

func (p *printer) printUserSections() {
	for _, us := range p.m.UserSections {
		switch us.Name {
		case "name":
			// Decoded into identifiers already; not re-rendered.
		case "linking":
			p.printLinkingSection(us.Data)
		default:
			p.line(";; custom section %q: %d bytes", us.Name, len(us.Data))
		}
	}
}
