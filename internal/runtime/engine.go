package runtime

import "context"

// Engine lowers validated function bodies to an executable form and runs
// them. Compilation is deterministic given the module bytes and features.
type Engine interface {
	// Compile prepares f for execution. It is called once per defined
	// function during instantiation, before anything can execute.
	Compile(f *FunctionInstance) error

	// Call invokes f with raw 64-bit operands. Guest faults surface as a
	// *trap.Trap error; the instance is left consistent either way.
	Call(ctx context.Context, f *FunctionInstance, params ...uint64) ([]uint64, error)
}
