// Package rift is a standalone WebAssembly execution system: a binary
// decoder and validator over a typed, interned intermediate representation,
// a text printer, and a sandboxed runtime with compartment isolation.
//
// The shape of a session:
//
//	r := rift.NewRuntime(rift.NewRuntimeConfig())
//	compiled, err := r.CompileModule(wasmBytes)
//	c := r.NewCompartment()
//	defer c.Close()
//	inst, err := rift.InstantiateModule(ctx, c, compiled, linker)
//	results, err := inst.Call(ctx, "add", 2, 3)
package rift

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/riftwasm/rift/internal/binary"
	"github.com/riftwasm/rift/internal/engine"
	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/runtime"
	"github.com/riftwasm/rift/internal/trap"
	"github.com/riftwasm/rift/internal/validate"
	"github.com/riftwasm/rift/internal/wat"
)

// Re-exported core types. The implementation lives in internal packages;
// these aliases are the public names.
type (
	// ValueType is a numeric value type such as ValueTypeI32.
	ValueType = ir.ValueType
	// FunctionType is an interned function signature.
	FunctionType = ir.FunctionType
	// Features gates decoding and validation of post-MVP constructs.
	Features = ir.FeatureSpec

	// Linker resolves imports during instantiation.
	Linker = runtime.Linker
	// NamespaceLinker chains named sub-linkers.
	NamespaceLinker = runtime.NamespaceLinker
	// HostModule is a bag of host functions usable as a sub-linker.
	HostModule = runtime.HostModule
	// GoFunction is a host function body.
	GoFunction = runtime.GoFunction

	// Compartment owns a group of instances sharing a trap domain.
	Compartment = runtime.Compartment
	// Instance is an instantiated module.
	Instance = runtime.Instance
	// Memory is a linear memory instance.
	Memory = runtime.MemoryInstance

	// Trap is a guest-side fault, surfaced to the host as an error.
	Trap = trap.Trap
	// TrapKind classifies a Trap.
	TrapKind = trap.Kind
)

const (
	ValueTypeI32  = ir.ValueTypeI32
	ValueTypeI64  = ir.ValueTypeI64
	ValueTypeF32  = ir.ValueTypeF32
	ValueTypeF64  = ir.ValueTypeF64
	ValueTypeV128 = ir.ValueTypeV128
)

const (
	TrapAccessViolation        = trap.AccessViolation
	TrapInvalidIndirectCall    = trap.InvalidIndirectCall
	TrapIntegerDivideByZero    = trap.IntegerDivideByZero
	TrapIntegerOverflow        = trap.IntegerOverflow
	TrapInvalidFloatConversion = trap.InvalidFloatConversion
	TrapUnreachable            = trap.Unreachable
	TrapStackOverflow          = trap.StackOverflow
	TrapOutOfMemory            = trap.OutOfMemory
	TrapUncaughtException      = trap.UncaughtException
	TrapTerminated             = trap.Terminated
)

// FeaturesMVP enables nothing beyond WebAssembly 1.0.
func FeaturesMVP() Features { return ir.FeatureSpecMVP() }

// FeaturesAll enables every feature this implementation understands.
func FeaturesAll() Features { return ir.FeatureSpecAll() }

// NewFunctionType interns the signature (params) -> (results).
func NewFunctionType(params, results []ValueType) *FunctionType {
	return ir.InternFunctionType(ir.InternTypeTuple(params...), ir.InternTypeTuple(results...))
}

// NewHostModule starts a host module usable as a sub-linker.
func NewHostModule(name string) *HostModule { return runtime.NewHostModule(name) }

// NewNamespaceLinker creates the default chaining linker.
func NewNamespaceLinker() *NamespaceLinker { return runtime.NewNamespaceLinker() }

// Runtime is the top-level factory: it owns the engine and configuration
// and compiles modules.
type Runtime struct {
	features Features
	logger   *zap.Logger
	engine   *engine.Engine
}

// NewRuntime creates a runtime from config. A nil config uses defaults.
func NewRuntime(config *RuntimeConfig) *Runtime {
	if config == nil {
		config = NewRuntimeConfig()
	}
	return &Runtime{
		features: config.features,
		logger:   config.logger,
		engine:   engine.New(),
	}
}

// CompiledModule is a decoded, validated module ready for instantiation in
// any compartment of the runtime that compiled it.
type CompiledModule struct {
	module *ir.Module
}

// CompileModule decodes source and validates it under the runtime's feature
// spec. Decode failures are *binary.MalformedError values; type failures
// are *validate.Error values.
func (r *Runtime) CompileModule(source []byte) (*CompiledModule, error) {
	m, err := binary.DecodeModule(source, r.features)
	if err != nil {
		return nil, err
	}
	if err := validate.Module(m); err != nil {
		return nil, err
	}
	return &CompiledModule{module: m}, nil
}

// WAT renders the module in the S-expression text format.
func (c *CompiledModule) WAT() string {
	return wat.Print(c.module)
}

// Encode renders the module back to the binary format.
func (c *CompiledModule) Encode() []byte {
	return binary.EncodeModule(c.module)
}

// NewCompartment creates an isolation domain for instances.
func (r *Runtime) NewCompartment() *Compartment {
	return runtime.NewCompartment(r.engine, r.logger)
}

// Instantiate is a convenience for the common single-module case: a fresh
// compartment with the module instantiated into it.
func (r *Runtime) Instantiate(ctx context.Context, compiled *CompiledModule, linker Linker) (*Compartment, *Instance, error) {
	c := r.NewCompartment()
	inst, err := c.Instantiate(ctx, compiled.module, linker)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, inst, nil
}

// InstantiateModule instantiates compiled into an existing compartment.
func InstantiateModule(ctx context.Context, c *Compartment, compiled *CompiledModule, linker Linker) (*Instance, error) {
	return c.Instantiate(ctx, compiled.module, linker)
}

// AsTrap unwraps err as a *Trap, if it is one.
func AsTrap(err error) (*Trap, bool) {
	t, ok := err.(*Trap)
	return t, ok
}

// TrapKindName renders a trap kind for diagnostics.
func TrapKindName(k TrapKind) string { return fmt.Sprint(k) }
