package ir

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternTypeTuple_Identity(t *testing.T) {
	a := InternTypeTuple(ValueTypeI32, ValueTypeI64)
	b := InternTypeTuple(ValueTypeI32, ValueTypeI64)
	require.Same(t, a, b)
	require.Equal(t, a.Hash(), b.Hash())

	c := InternTypeTuple(ValueTypeI64, ValueTypeI32)
	require.NotSame(t, a, c)

	empty1 := InternTypeTuple()
	empty2 := InternTypeTuple()
	require.Same(t, empty1, empty2)
	require.Zero(t, empty1.Arity())
}

func TestInternTypeTuple_DoesNotAliasInput(t *testing.T) {
	in := []ValueType{ValueTypeF32}
	tuple := InternTypeTuple(in...)
	in[0] = ValueTypeF64
	require.Equal(t, ValueTypeF32, tuple.Types[0])
}

func TestInternFunctionType_Identity(t *testing.T) {
	params := InternTypeTuple(ValueTypeI32, ValueTypeI32)
	results := InternTypeTuple(ValueTypeI32)

	a := InternFunctionType(params, results)
	b := InternFunctionType(InternTypeTuple(ValueTypeI32, ValueTypeI32), InternTypeTuple(ValueTypeI32))
	require.Same(t, a, b)
	require.Equal(t, a.Encoding(), b.Encoding())
	require.NotZero(t, a.Encoding())

	flipped := InternFunctionType(results, params)
	require.NotSame(t, a, flipped)
	require.NotEqual(t, a.Encoding(), flipped.Encoding())
}

func TestIntern_Concurrent(t *testing.T) {
	// All goroutines must observe the same canonical pointer.
	var wg sync.WaitGroup
	out := make([]*FunctionType, 32)
	for i := range out {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = InternFunctionType(
				InternTypeTuple(ValueTypeI64, ValueTypeF64),
				InternTypeTuple(ValueTypeV128),
			)
		}()
	}
	wg.Wait()
	for _, ft := range out[1:] {
		require.Same(t, out[0], ft)
	}
}

func TestSizeConstraints_IsSubsetOf(t *testing.T) {
	tests := []struct {
		name       string
		super, sub SizeConstraints
		exp        bool
	}{
		{name: "equal", super: SizeConstraints{Min: 1, Max: 2}, sub: SizeConstraints{Min: 1, Max: 2}, exp: true},
		{name: "narrower", super: SizeConstraints{Min: 1, Max: 10}, sub: SizeConstraints{Min: 2, Max: 5}, exp: true},
		{name: "min below", super: SizeConstraints{Min: 2, Max: 10}, sub: SizeConstraints{Min: 1, Max: 10}, exp: false},
		{name: "max above", super: SizeConstraints{Min: 0, Max: 5}, sub: SizeConstraints{Min: 0, Max: 6}, exp: false},
		{name: "unbounded super", super: SizeConstraints{Min: 0, Max: Unbounded}, sub: SizeConstraints{Min: 0, Max: 3}, exp: true},
		{name: "unbounded sub", super: SizeConstraints{Min: 0, Max: 3}, sub: SizeConstraints{Min: 0, Max: Unbounded}, exp: false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.exp, tc.sub.IsSubsetOf(tc.super))
		})
	}
}

func TestValueTypeByteWidth(t *testing.T) {
	require.Equal(t, uint32(4), ValueTypeByteWidth(ValueTypeI32))
	require.Equal(t, uint32(8), ValueTypeByteWidth(ValueTypeI64))
	require.Equal(t, uint32(4), ValueTypeByteWidth(ValueTypeF32))
	require.Equal(t, uint32(8), ValueTypeByteWidth(ValueTypeF64))
	require.Equal(t, uint32(16), ValueTypeByteWidth(ValueTypeV128))
}
