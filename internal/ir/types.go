// Package ir holds the typed intermediate representation of a WebAssembly
// module: value and function types (content-interned), limits, object kinds,
// the operator table, and the Module record produced by the decoder and
// consumed by the validator, printer and compiler.
package ir

import (
	"hash/fnv"
	"math"
	"sync"
)

// ValueType is the binary encoding of a type such as i32.
//
// Note: This is a type alias as it is easier to encode and decode in the
// binary format.
type ValueType = byte

const (
	ValueTypeI32  ValueType = 0x7f
	ValueTypeI64  ValueType = 0x7e
	ValueTypeF32  ValueType = 0x7d
	ValueTypeF64  ValueType = 0x7c
	ValueTypeV128 ValueType = 0x7b

	// ValueTypeAny is the validator's bottom type for stack positions made
	// polymorphic by an unconditional control transfer. It never appears in
	// a serialized module.
	ValueTypeAny ValueType = 0xff
)

// ElemTypeFuncref is the only table element type: a function reference
// carrying its signature tag.
const ElemTypeFuncref byte = 0x70

// ValueTypeName returns the text-format name of t, or "unknown".
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeAny:
		return "any"
	}
	return "unknown"
}

// ValueTypeByteWidth returns the storage width of t in bytes.
func ValueTypeByteWidth(t ValueType) uint32 {
	switch t {
	case ValueTypeI32, ValueTypeF32:
		return 4
	case ValueTypeI64, ValueTypeF64:
		return 8
	case ValueTypeV128:
		return 16
	}
	panic("BUG: byte width of invalid value type")
}

// IsValueType reports whether b is a concrete value type (not ValueTypeAny).
func IsValueType(b byte) bool {
	switch b {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeV128:
		return true
	}
	return false
}

// TypeTuple is an immutable, content-interned ordered sequence of value
// types. Two tuples built from equal elements share identity: pointer
// equality implies (and is implied by) semantic equality. The empty tuple is
// legal and unique.
type TypeTuple struct {
	// Types must not be mutated after interning.
	Types []ValueType
	hash  uint64
}

// Hash returns the precomputed content hash.
func (t *TypeTuple) Hash() uint64 { return t.hash }

// Arity returns the element count.
func (t *TypeTuple) Arity() int { return len(t.Types) }

// FunctionType is an interned (params, results) signature pair. As with
// TypeTuple, pointer equality is semantic equality.
type FunctionType struct {
	Params  *TypeTuple
	Results *TypeTuple
	hash    uint64
	enc     Encoding
}

// Encoding is a pointer-sized opaque handle for a FunctionType, stable for
// the process lifetime. Indirect-call slots compare encodings rather than
// walking signatures.
type Encoding uintptr

// Hash returns the precomputed content hash.
func (t *FunctionType) Hash() uint64 { return t.hash }

// Encoding returns the opaque signature handle.
func (t *FunctionType) Encoding() Encoding { return t.enc }

func (t *FunctionType) String() (ret string) {
	for _, b := range t.Params.Types {
		ret += ValueTypeName(b)
	}
	if t.Params.Arity() == 0 {
		ret += "null"
	}
	ret += "_"
	for _, b := range t.Results.Types {
		ret += ValueTypeName(b)
	}
	if t.Results.Arity() == 0 {
		ret += "null"
	}
	return
}

// The interning pools are process-wide and append-only. The hot path is a
// read-locked lookup; insertion takes the write lock and re-checks.
var (
	tuplePool = struct {
		sync.RWMutex
		entries map[uint64][]*TypeTuple
	}{entries: map[uint64][]*TypeTuple{}}

	funcTypePool = struct {
		sync.RWMutex
		entries map[uint64][]*FunctionType
		nextEnc Encoding
	}{entries: map[uint64][]*FunctionType{}, nextEnc: 1}
)

func hashValueTypes(types []ValueType) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(types)
	return h.Sum64()
}

func tupleEqual(a *TypeTuple, types []ValueType) bool {
	if len(a.Types) != len(types) {
		return false
	}
	for i, t := range a.Types {
		if t != types[i] {
			return false
		}
	}
	return true
}

// InternTypeTuple returns the canonical tuple for the given element
// sequence, allocating it on first use.
func InternTypeTuple(types ...ValueType) *TypeTuple {
	h := hashValueTypes(types)

	tuplePool.RLock()
	for _, cand := range tuplePool.entries[h] {
		if tupleEqual(cand, types) {
			tuplePool.RUnlock()
			return cand
		}
	}
	tuplePool.RUnlock()

	tuplePool.Lock()
	defer tuplePool.Unlock()
	for _, cand := range tuplePool.entries[h] {
		if tupleEqual(cand, types) {
			return cand
		}
	}
	owned := make([]ValueType, len(types))
	copy(owned, types)
	tuple := &TypeTuple{Types: owned, hash: h}
	tuplePool.entries[h] = append(tuplePool.entries[h], tuple)
	return tuple
}

// InternFunctionType returns the canonical signature for (params, results).
// Both tuples must themselves be interned.
func InternFunctionType(params, results *TypeTuple) *FunctionType {
	h := params.hash*31 ^ results.hash

	funcTypePool.RLock()
	for _, cand := range funcTypePool.entries[h] {
		if cand.Params == params && cand.Results == results {
			funcTypePool.RUnlock()
			return cand
		}
	}
	funcTypePool.RUnlock()

	funcTypePool.Lock()
	defer funcTypePool.Unlock()
	for _, cand := range funcTypePool.entries[h] {
		if cand.Params == params && cand.Results == results {
			return cand
		}
	}
	ft := &FunctionType{Params: params, Results: results, hash: h, enc: funcTypePool.nextEnc}
	funcTypePool.nextEnc++
	funcTypePool.entries[h] = append(funcTypePool.entries[h], ft)
	return ft
}

// Unbounded marks a SizeConstraints maximum with no limit.
const Unbounded = uint64(math.MaxUint64)

// SizeConstraints bounds the size of a table or memory. Max == Unbounded
// means no declared maximum.
type SizeConstraints struct {
	Min uint64
	Max uint64
}

// IsSubsetOf reports whether every size legal under sc is legal under super.
// Used when matching a provided object against a declared import type.
func (sc SizeConstraints) IsSubsetOf(super SizeConstraints) bool {
	return sc.Min >= super.Min && sc.Max <= super.Max
}

// TableType describes a table: its element type is always funcref.
type TableType struct {
	ElemType byte
	Shared   bool
	Size     SizeConstraints
}

// MemoryType describes a linear memory. Size is in 64 KiB pages.
type MemoryType struct {
	Shared bool
	Size   SizeConstraints
}

// GlobalType describes a global variable cell.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// ExceptionType describes an exception tag: the value types thrown with it.
type ExceptionType struct {
	Params *TypeTuple
}
