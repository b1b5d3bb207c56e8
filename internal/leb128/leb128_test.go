package leb128

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeUint32(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		exp   uint32
		expN  int
		err   error
	}{
		{name: "zero", input: []byte{0x00}, exp: 0, expN: 1},
		{name: "one byte", input: []byte{0x04}, exp: 4, expN: 1},
		{name: "two bytes", input: []byte{0x80, 0x7f}, exp: 16256, expN: 2},
		{name: "non-minimal zero is ok", input: []byte{0x80, 0x00}, exp: 0, expN: 2},
		{name: "max", input: []byte{0xff, 0xff, 0xff, 0xff, 0x0f}, exp: 0xffffffff, expN: 5},
		{name: "bits above 32", input: []byte{0xff, 0xff, 0xff, 0xff, 0x1f}, err: ErrOverlong},
		{name: "six bytes", input: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}, err: ErrOverlong},
		{name: "truncated", input: []byte{0x80}, err: ErrTruncated},
		{name: "empty", input: nil, err: ErrTruncated},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v, n, err := DecodeUint32(tc.input)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.exp, v)
			require.Equal(t, tc.expN, n)
		})
	}
}

func TestDecodeUint64(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		exp   uint64
		err   error
	}{
		{name: "one byte", input: []byte{0x04}, exp: 4},
		{name: "max", input: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, exp: 0xffffffffffffffff},
		{name: "bits above 64", input: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}, err: ErrOverlong},
		{name: "truncated", input: []byte{0x80, 0x80}, err: ErrTruncated},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v, _, err := DecodeUint64(tc.input)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.exp, v)
		})
	}
}

func TestDecodeInt32(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		exp   int32
		err   error
	}{
		{name: "zero", input: []byte{0x00}, exp: 0},
		{name: "positive", input: []byte{0x04}, exp: 4},
		{name: "negative one", input: []byte{0x7f}, exp: -1},
		{name: "negative", input: []byte{0x81, 0x7f}, exp: -127},
		{name: "min", input: []byte{0x80, 0x80, 0x80, 0x80, 0x78}, exp: -2147483648},
		{name: "max", input: []byte{0xff, 0xff, 0xff, 0xff, 0x07}, exp: 2147483647},
		{name: "sign bits disagree", input: []byte{0xff, 0xff, 0xff, 0xff, 0x4f}, err: ErrOverlong},
		{name: "truncated", input: []byte{0x80}, err: ErrTruncated},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v, _, err := DecodeInt32(tc.input)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.exp, v)
		})
	}
}

func TestDecodeInt64(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		exp   int64
		err   error
	}{
		{name: "negative one", input: []byte{0x7f}, exp: -1},
		{name: "positive", input: []byte{0xe5, 0x8e, 0x26}, exp: 624485},
		{
			name:  "min",
			input: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f},
			exp:   -9223372036854775808,
		},
		{
			name:  "tenth byte overflow",
			input: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x3e},
			err:   ErrOverlong,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v, _, err := DecodeInt64(tc.input)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.exp, v)
		})
	}
}

func TestDecodeInt33(t *testing.T) {
	// Block types: 0x40 encodes -64 (empty), value types are small negatives.
	v, n, err := DecodeInt33([]byte{0x40})
	require.NoError(t, err)
	require.Equal(t, int64(-64), v)
	require.Equal(t, 1, n)

	v, _, err = DecodeInt33([]byte{0x7f})
	require.NoError(t, err)
	require.Equal(t, int64(-1), v)

	// A type index.
	v, _, err = DecodeInt33([]byte{0x05})
	require.NoError(t, err)
	require.Equal(t, int64(5), v)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16256, 624485, 0xffffffff} {
		dec, n, err := DecodeUint32(EncodeUint32(v))
		require.NoError(t, err)
		require.Equal(t, v, dec)
		require.Equal(t, len(EncodeUint32(v)), n)
	}
	for _, v := range []int64{0, 1, -1, 63, -64, 64, -65, 624485, -624485, 9223372036854775807, -9223372036854775808} {
		dec, _, err := DecodeInt64(EncodeInt64(v))
		require.NoError(t, err)
		require.Equal(t, v, dec)
	}
}
