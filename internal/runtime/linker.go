package runtime

import (
	"github.com/riftwasm/rift/internal/ir"
)

// Linker resolves an import by its two-level name. A Missing result is
// reported by ok == false.
type Linker interface {
	Resolve(moduleName, exportName string) (Object, bool)
}

// NamespaceLinker is the thin default linker: it chains named sub-linkers,
// dispatching on the import's module name.
type NamespaceLinker struct {
	namespaces map[string]Linker
}

func NewNamespaceLinker() *NamespaceLinker {
	return &NamespaceLinker{namespaces: map[string]Linker{}}
}

// Define binds a sub-linker to a module name, replacing any previous
// binding.
func (l *NamespaceLinker) Define(name string, sub Linker) {
	l.namespaces[name] = sub
}

// DefineInstance exposes an instance's exports under a module name.
func (l *NamespaceLinker) DefineInstance(name string, inst *Instance) {
	l.Define(name, inst)
}

// Resolve implements Linker.
func (l *NamespaceLinker) Resolve(moduleName, exportName string) (Object, bool) {
	sub, ok := l.namespaces[moduleName]
	if !ok {
		return Object{}, false
	}
	return sub.Resolve(moduleName, exportName)
}

// HostModule is a bag of host functions and other host-defined objects,
// usable as a sub-linker.
type HostModule struct {
	Name    string
	exports map[string]Object
}

func NewHostModule(name string) *HostModule {
	return &HostModule{Name: name, exports: map[string]Object{}}
}

// ExportFunction registers a host function. The thunk is bound to its
// signature at registration; no reflection happens per call.
func (h *HostModule) ExportFunction(name string, sig *ir.FunctionType, fn GoFunction) *HostModule {
	h.exports[name] = Object{Kind: ir.ObjectKindFunction, Function: &FunctionInstance{
		Name:   h.Name + "." + name,
		Type:   sig,
		GoFunc: fn,
	}}
	return h
}

// ExportGlobal registers a host global cell.
func (h *HostModule) ExportGlobal(name string, t ir.GlobalType, val uint64) *HostModule {
	h.exports[name] = Object{Kind: ir.ObjectKindGlobal, Global: &GlobalInstance{Type: t, Val: val}}
	return h
}

// ExportMemory registers a host-allocated memory.
func (h *HostModule) ExportMemory(name string, mem *MemoryInstance) *HostModule {
	h.exports[name] = Object{Kind: ir.ObjectKindMemory, Memory: mem}
	return h
}

// ExportTable registers a host-allocated table.
func (h *HostModule) ExportTable(name string, table *TableInstance) *HostModule {
	h.exports[name] = Object{Kind: ir.ObjectKindTable, Table: table}
	return h
}

// Resolve implements Linker.
func (h *HostModule) Resolve(_, exportName string) (Object, bool) {
	obj, ok := h.exports[exportName]
	return obj, ok
}
