package runtime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/trap"
)

// Compartment groups related instances in one trap domain and owns every
// runtime object created within it. Distinct compartments are fully
// isolated and may run in parallel.
type Compartment struct {
	engine Engine
	log    *zap.Logger

	mu        sync.Mutex
	instances []*Instance
	closed    bool

	terminated atomic.Bool
}

// NewCompartment creates an empty compartment bound to an engine. A nil
// logger disables logging.
func NewCompartment(engine Engine, log *zap.Logger) *Compartment {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compartment{engine: engine, log: log}
}

// Engine returns the engine executing this compartment's code.
func (c *Compartment) Engine() Engine { return c.engine }

// Terminate asks all guest code in the compartment to stop: execution traps
// at the next instruction boundary. Host functions in flight are not
// preempted.
func (c *Compartment) Terminate() {
	c.terminated.Store(true)
	c.log.Debug("compartment terminated")
}

// Terminated reports whether Terminate was called.
func (c *Compartment) Terminated() bool { return c.terminated.Load() }

// Close terminates the compartment and releases every owned resource.
func (c *Compartment) Close() error {
	c.Terminate()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var err error
	for _, inst := range c.instances {
		for i := inst.Memories.Imports; i < len(inst.Memories.All); i++ {
			err = multierr.Append(err, inst.Memories.All[i].Close())
		}
	}
	c.instances = nil
	return err
}

// ownedObjects tracks which objects an instance defined (as opposed to
// imported), so teardown only releases what the instance allocated.
type ownedObjects[T any] struct {
	Imports int
	All     []T
}

// Instance is a module with imports resolved and state allocated. It is
// bound to one compartment for its lifetime.
type Instance struct {
	Module      *ir.Module
	Compartment *Compartment

	Functions []*FunctionInstance
	Tables    []*TableInstance
	Memories  ownedObjects[*MemoryInstance]
	Globals   []*GlobalInstance
	Tags      []*TagInstance

	exports map[string]Object
}

// Memory returns the memory at index i of the memory namespace.
func (inst *Instance) Memory(i ir.Index) *MemoryInstance { return inst.Memories.All[i] }

// Export returns the named export, or false.
func (inst *Instance) Export(name string) (Object, bool) {
	obj, ok := inst.exports[name]
	return obj, ok
}

// ExportedFunction returns the named exported function, or nil.
func (inst *Instance) ExportedFunction(name string) *FunctionInstance {
	if obj, ok := inst.exports[name]; ok && obj.Kind == ir.ObjectKindFunction {
		return obj.Function
	}
	return nil
}

// Resolve implements Linker, so an instance can back imports of another.
func (inst *Instance) Resolve(_, exportName string) (Object, bool) {
	return inst.Export(exportName)
}

// Call invokes an exported function by name.
func (inst *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	f := inst.ExportedFunction(name)
	if f == nil {
		return nil, fmt.Errorf("function %q is not exported", name)
	}
	return inst.Compartment.engine.Call(ctx, f, params...)
}

// Instantiate runs the instantiation protocol for a validated module:
// resolve and type-check imports, allocate defined objects, evaluate
// initializers, copy segments, create tags, publish exports, run the start
// function. It is atomic: any failure releases everything allocated here
// and the compartment is unchanged.
func (c *Compartment) Instantiate(ctx context.Context, m *ir.Module, linker Linker) (inst *Instance, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New("compartment is closed")
	}
	c.mu.Unlock()

	inst = &Instance{Module: m, Compartment: c}
	building := inst
	defer func() {
		if err != nil {
			for i := building.Memories.Imports; i < len(building.Memories.All); i++ {
				_ = building.Memories.All[i].Close()
			}
			c.log.Debug("instantiation rolled back", zap.Error(err))
		}
	}()

	// Step 1: resolve imports against their declared types.
	if err = c.resolveImports(m, linker, inst); err != nil {
		return nil, err
	}

	// Step 2: allocate defined memories and tables.
	inst.Memories.Imports = len(inst.Memories.All)
	for _, mt := range m.Memories.Defs {
		mem, memErr := NewMemoryInstance(mt)
		if memErr != nil {
			return nil, memErr
		}
		inst.Memories.All = append(inst.Memories.All, mem)
	}
	for _, tt := range m.Tables.Defs {
		inst.Tables = append(inst.Tables, &TableInstance{
			Type:     tt,
			Elements: make([]*FunctionInstance, tt.Size.Min),
		})
	}

	// Step 3: allocate globals; initializers see only the imports.
	for i, g := range m.Globals.Defs {
		val, val2, gErr := c.evaluateInitializer(inst, g.Init)
		if gErr != nil {
			return nil, &InstantiationError{Message: fmt.Sprintf("global %d initializer", i), Cause: gErr}
		}
		inst.Globals = append(inst.Globals, &GlobalInstance{Type: g.Type, Val: val, Val2: val2})
	}

	// Compile defined functions before anything can call them.
	for i, def := range m.Functions.Defs {
		fi := ir.Index(len(m.Functions.Imports) + i)
		f := &FunctionInstance{
			Name:   c.functionName(m, fi),
			Type:   m.Types[def.TypeIndex],
			Module: inst,
			Def:    def,
			Index:  fi,
		}
		if err = c.engine.Compile(f); err != nil {
			return nil, fmt.Errorf("compiling function %d: %w", fi, err)
		}
		inst.Functions = append(inst.Functions, f)
	}

	// Step 4: copy segments, bounds-checked; failure traps the
	// instantiation before any export is visible.
	if err = c.copySegments(m, inst); err != nil {
		return nil, err
	}

	// Step 5: fresh exception tag identities.
	for _, et := range m.ExceptionTypes.Defs {
		inst.Tags = append(inst.Tags, &TagInstance{Type: et})
	}

	// Step 6: publish exports.
	inst.exports = make(map[string]Object, len(m.Exports))
	for _, e := range m.Exports {
		inst.exports[e.Name] = c.exportObject(inst, e)
	}

	// Step 7: the start function.
	if m.StartFunctionIndex != ir.InvalidIndex {
		if _, err = c.engine.Call(ctx, inst.Functions[m.StartFunctionIndex]); err != nil {
			c.log.Warn("start function failed", zap.Error(err))
			return nil, &InstantiationError{Message: "start function trapped", Cause: err}
		}
	}

	c.mu.Lock()
	c.instances = append(c.instances, inst)
	c.mu.Unlock()
	c.log.Debug("module instantiated",
		zap.Int("functions", len(inst.Functions)),
		zap.Int("exports", len(inst.exports)))
	return inst, nil
}

func (c *Compartment) functionName(m *ir.Module, fi ir.Index) string {
	if m.Names != nil {
		if n := m.Names.FunctionNames.Get(fi); n != "" {
			return n
		}
	}
	return fmt.Sprintf("f%d", fi)
}

func (c *Compartment) resolveImports(m *ir.Module, linker Linker, inst *Instance) error {
	for _, imp := range m.ImportOrder {
		missing := func() error {
			return &LinkError{ModuleName: imp.Module, Name: imp.Name, Message: "not found"}
		}
		mismatch := func(format string, args ...interface{}) error {
			return &LinkError{ModuleName: imp.Module, Name: imp.Name, Message: fmt.Sprintf(format, args...)}
		}
		if linker == nil {
			return missing()
		}
		obj, ok := linker.Resolve(imp.Module, imp.Name)
		if !ok {
			return missing()
		}
		if obj.Kind != imp.Type.Kind {
			return mismatch("kind mismatch: need %s, resolved %s",
				ir.ObjectKindName(imp.Type.Kind), ir.ObjectKindName(obj.Kind))
		}
		switch imp.Type.Kind {
		case ir.ObjectKindFunction:
			// Interned signatures make type equality a pointer comparison.
			if obj.Function.Type != imp.Type.Function {
				return mismatch("signature mismatch: need %s, resolved %s", imp.Type.Function, obj.Function.Type)
			}
			inst.Functions = append(inst.Functions, obj.Function)
		case ir.ObjectKindTable:
			t := obj.Table
			if !t.Type.Size.IsSubsetOf(imp.Type.Table.Size) {
				return mismatch("table limits mismatch")
			}
			if t.Type.Shared != imp.Type.Table.Shared {
				return mismatch("table sharedness mismatch")
			}
			inst.Tables = append(inst.Tables, t)
		case ir.ObjectKindMemory:
			mem := obj.Memory
			if !mem.Type.Size.IsSubsetOf(imp.Type.Memory.Size) {
				return mismatch("memory limits mismatch")
			}
			if mem.Type.Shared != imp.Type.Memory.Shared {
				return mismatch("memory sharedness mismatch")
			}
			inst.Memories.All = append(inst.Memories.All, mem)
		case ir.ObjectKindGlobal:
			// Matching is strict equality, including mutability.
			if obj.Global.Type != *imp.Type.Global {
				return mismatch("global type mismatch")
			}
			inst.Globals = append(inst.Globals, obj.Global)
		case ir.ObjectKindExceptionType:
			if obj.Tag.Type.Params != imp.Type.Exception.Params {
				return mismatch("tag parameter mismatch")
			}
			inst.Tags = append(inst.Tags, obj.Tag)
		}
	}
	return nil
}

// evaluateInitializer computes a constant expression against the already
// resolved imports.
func (c *Compartment) evaluateInitializer(inst *Instance, e ir.InitializerExpression) (uint64, uint64, error) {
	switch e.Op {
	case ir.OpcodeI32Const:
		return uint64(uint32(e.I32)), 0, nil
	case ir.OpcodeI64Const:
		return uint64(e.I64), 0, nil
	case ir.OpcodeF32Const:
		return uint64(math.Float32bits(e.F32)), 0, nil
	case ir.OpcodeF64Const:
		return math.Float64bits(e.F64), 0, nil
	case ir.OpcodeGlobalGet:
		if int(e.GlobalIndex) >= len(inst.Globals) {
			return 0, 0, fmt.Errorf("global index %d out of range", e.GlobalIndex)
		}
		g := inst.Globals[e.GlobalIndex]
		return g.Val, g.Val2, nil
	}
	return 0, 0, fmt.Errorf("invalid initializer opcode 0x%x", uint32(e.Op))
}

// copySegments bounds-checks every segment before writing the first byte:
// a failing segment must not leave earlier writes observable through an
// imported table or memory.
func (c *Compartment) copySegments(m *ir.Module, inst *Instance) error {
	elemOffsets := make([]uint64, len(m.TableSegments))
	for i, seg := range m.TableSegments {
		base, _, err := c.evaluateInitializer(inst, seg.Offset)
		if err != nil {
			return &InstantiationError{Message: fmt.Sprintf("element segment %d offset", i), Cause: err}
		}
		offset := uint64(uint32(base))
		table := inst.Tables[seg.TableIndex]
		if offset+uint64(len(seg.Indices)) > uint64(len(table.Elements)) {
			return &InstantiationError{
				Message: fmt.Sprintf("element segment %d out of bounds: [%d, %d) in table of %d",
					i, offset, offset+uint64(len(seg.Indices)), len(table.Elements)),
				Cause: trap.New(trap.AccessViolation, "table segment out of bounds"),
			}
		}
		elemOffsets[i] = offset
	}

	dataOffsets := make([]uint64, len(m.DataSegments))
	for i, seg := range m.DataSegments {
		base, _, err := c.evaluateInitializer(inst, seg.Offset)
		if err != nil {
			return &InstantiationError{Message: fmt.Sprintf("data segment %d offset", i), Cause: err}
		}
		offset := uint64(uint32(base))
		mem := inst.Memories.All[seg.MemoryIndex]
		if offset+uint64(len(seg.Data)) > mem.Size() {
			return &InstantiationError{
				Message: fmt.Sprintf("data segment %d out of bounds: [%d, %d) in memory of %d bytes",
					i, offset, offset+uint64(len(seg.Data)), mem.Size()),
				Cause: trap.New(trap.AccessViolation, "data segment out of bounds"),
			}
		}
		dataOffsets[i] = offset
	}

	for i, seg := range m.TableSegments {
		table := inst.Tables[seg.TableIndex]
		for j, fi := range seg.Indices {
			table.Elements[elemOffsets[i]+uint64(j)] = inst.Functions[fi]
		}
	}
	for i, seg := range m.DataSegments {
		inst.Memories.All[seg.MemoryIndex].Write(dataOffsets[i], seg.Data)
	}
	return nil
}

func (c *Compartment) exportObject(inst *Instance, e *ir.Export) Object {
	switch e.Kind {
	case ir.ObjectKindFunction:
		return Object{Kind: e.Kind, Function: inst.Functions[e.Index]}
	case ir.ObjectKindTable:
		return Object{Kind: e.Kind, Table: inst.Tables[e.Index]}
	case ir.ObjectKindMemory:
		return Object{Kind: e.Kind, Memory: inst.Memories.All[e.Index]}
	case ir.ObjectKindGlobal:
		return Object{Kind: e.Kind, Global: inst.Globals[e.Index]}
	case ir.ObjectKindExceptionType:
		return Object{Kind: e.Kind, Tag: inst.Tags[e.Index]}
	}
	panic("BUG: export of invalid kind survived validation")
}
