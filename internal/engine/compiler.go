// Package engine lowers validated function bodies to a threaded instruction
// stream and interprets it. Lowering is deterministic given the module
// bytes and feature spec: immediates are pre-decoded and every structured
// branch target is resolved to an instruction index; call, global and
// memory references stay symbolic (index slots) and bind to the instance at
// execution.
package engine

import (
	"fmt"
	"sync"

	"github.com/riftwasm/rift/internal/ir"
	"github.com/riftwasm/rift/internal/runtime"
)

// Engine implements runtime.Engine with threaded interpretation.
type Engine struct {
	mu    sync.RWMutex
	codes map[*runtime.FunctionInstance]*code
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{codes: map[*runtime.FunctionInstance]*code{}}
}

// instr is one lowered operator. target/elseTarget are instruction indices:
// for block/if/try, target is the matching end; elseTarget is the first
// then-miss destination for if (after else, or the end) and the catch
// instruction for try (the matching end, equal to target, when absent).
type instr struct {
	op         ir.Opcode
	imm        ir.Immediate
	target     int
	elseTarget int

	// blockArity and blockParams are the result and parameter slot counts
	// of a control structure, used to size branch carries.
	blockArity  int
	blockParams int
}

// code is the executable form of one function.
type code struct {
	instrs []instr

	// localSlots is the flat 64-bit slot count of params + declared locals;
	// v128 occupies two slots.
	localSlots  int
	paramSlots  int
	resultSlots int

	// localOffset maps a local index to its first slot; localWide marks
	// v128 locals.
	localOffset []int
	localWide   []bool
}

// slotCount returns the number of 64-bit stack slots a tuple occupies.
func slotCount(tt *ir.TypeTuple) int {
	n := 0
	for _, t := range tt.Types {
		if t == ir.ValueTypeV128 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Compile lowers f's body. Host functions need no lowering.
func (e *Engine) Compile(f *runtime.FunctionInstance) error {
	if f.IsHost() {
		return nil
	}
	c, err := e.lower(f)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.codes[f] = c
	e.mu.Unlock()
	return nil
}

func (e *Engine) codeOf(f *runtime.FunctionInstance) *code {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.codes[f]
}

func (e *Engine) lower(f *runtime.FunctionInstance) (*code, error) {
	m := f.Module.Module
	sig := f.Type
	def := f.Def

	c := &code{
		paramSlots:  slotCount(sig.Params),
		resultSlots: slotCount(sig.Results),
	}
	allLocals := make([]ir.ValueType, 0, sig.Params.Arity()+len(def.LocalTypes))
	allLocals = append(allLocals, sig.Params.Types...)
	allLocals = append(allLocals, def.LocalTypes...)
	offset := 0
	for _, t := range allLocals {
		c.localOffset = append(c.localOffset, offset)
		wide := t == ir.ValueTypeV128
		c.localWide = append(c.localWide, wide)
		if wide {
			offset += 2
		} else {
			offset++
		}
	}
	c.localSlots = offset

	// openers tracks unclosed control instructions for target fixup.
	var openers []int

	for pc := 0; pc < len(def.Body); {
		op, imm, n, err := ir.DecodeOperator(def.Body, pc, m.Features)
		if err != nil {
			return nil, fmt.Errorf("BUG: validated body failed to decode at %d: %v", pc, err)
		}
		idx := len(c.instrs)
		ins := instr{op: op, imm: imm, target: -1, elseTarget: -1}

		switch op {
		case ir.OpcodeBlock, ir.OpcodeLoop, ir.OpcodeIf, ir.OpcodeTry:
			ft, err := m.ResolveBlockType(imm.BlockType)
			if err != nil {
				return nil, fmt.Errorf("BUG: validated block type unresolvable: %v", err)
			}
			ins.blockArity = slotCount(ft.Results)
			ins.blockParams = slotCount(ft.Params)
			openers = append(openers, idx)
		case ir.OpcodeElse:
			opener := openers[len(openers)-1]
			c.instrs[opener].elseTarget = idx + 1
		case ir.OpcodeCatch:
			opener := openers[len(openers)-1]
			c.instrs[opener].elseTarget = idx
		case ir.OpcodeEnd:
			if len(openers) > 0 {
				opener := openers[len(openers)-1]
				openers = openers[:len(openers)-1]
				c.instrs[opener].target = idx
				if c.instrs[opener].elseTarget < 0 {
					c.instrs[opener].elseTarget = idx
				}
			}
		}

		c.instrs = append(c.instrs, ins)
		pc += n
	}
	if len(openers) != 0 {
		return nil, fmt.Errorf("BUG: %d unclosed blocks survived validation", len(openers))
	}
	return c, nil
}
