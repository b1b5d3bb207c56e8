// Package runtime holds the instantiated form of a module: compartments,
// instances and the five runtime object kinds (function, table, memory,
// global, exception tag), plus import resolution and the instantiation
// protocol itself.
package runtime

import (
	"context"

	"github.com/riftwasm/rift/internal/ir"
)

// GoFunction is a host function body. Operands and results are marshalled
// as raw 64-bit slots in signature order. Returning a *trap.Trap (as the
// error) propagates it to the guest's host caller unchanged.
type GoFunction func(ctx context.Context, params []uint64) ([]uint64, error)

// FunctionInstance is a callable function: either a compiled guest function
// bound to its instance, or a registered host function.
type FunctionInstance struct {
	// Name identifies the function in call stacks.
	Name string
	Type *ir.FunctionType

	// Module is the owning instance; nil for host functions.
	Module *Instance
	// Def is the IR body for guest functions; nil for host functions.
	Def *ir.FunctionDef
	// Index is the position in the owning module's function namespace.
	Index ir.Index

	// GoFunc is the host thunk; nil for guest functions.
	GoFunc GoFunction
}

// IsHost reports whether the function is a registered host function.
func (f *FunctionInstance) IsHost() bool { return f.GoFunc != nil }

// GlobalInstance is a mutable (or not) value cell. V128 globals use both
// slots; everything else only Val.
type GlobalInstance struct {
	Type ir.GlobalType
	Val  uint64
	Val2 uint64
}

// TableInstance holds function references. A nil element is a null slot:
// calling through it traps.
type TableInstance struct {
	Type     *ir.TableType
	Elements []*FunctionInstance
}

// Grow extends the table by delta slots, returning the previous size or
// false when the declared maximum would be exceeded.
func (t *TableInstance) Grow(delta uint32) (uint32, bool) {
	prev := uint32(len(t.Elements))
	newLen := uint64(prev) + uint64(delta)
	if newLen > t.Type.Size.Max {
		return 0, false
	}
	t.Elements = append(t.Elements, make([]*FunctionInstance, delta)...)
	return prev, true
}

// TagInstance is an exception tag identity. Tags are fresh per instance:
// two instances of the same module throw distinguishable exceptions.
type TagInstance struct {
	Type *ir.ExceptionType
}

// Object is a runtime object of any kind, as produced by a Linker and
// published by exports.
type Object struct {
	Kind ir.ObjectKind

	Function *FunctionInstance
	Table    *TableInstance
	Memory   *MemoryInstance
	Global   *GlobalInstance
	Tag      *TagInstance
}
