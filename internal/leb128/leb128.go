// Package leb128 decodes and encodes the variable-length integers used
// throughout the WebAssembly binary format.
//
// Decoding is strict: an encoding that sets bits beyond the declared bit
// width, or that runs past the end of the input, is an error. The number of
// bytes consumed is always returned so callers can track byte offsets.
package leb128

import "errors"

var (
	// ErrTruncated means the input ended in the middle of an encoding.
	ErrTruncated = errors.New("leb128: truncated encoding")
	// ErrOverlong means the encoding sets bits beyond the declared width.
	ErrOverlong = errors.New("leb128: over-long encoding")
)

// DecodeUint32 reads a LEB128-encoded unsigned 32-bit integer from the start
// of b, returning the value and the number of bytes consumed.
func DecodeUint32(b []byte) (ret uint32, n int, err error) {
	var shift uint
	for i := 0; i < 5; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		ret |= uint32(c&0x7f) << shift
		if c&0x80 == 0 {
			// The fifth byte carries only the top 4 bits of a u32.
			if i == 4 && c&0xf0 != 0 {
				return 0, 0, ErrOverlong
			}
			return ret, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrOverlong
}

// DecodeUint64 reads a LEB128-encoded unsigned 64-bit integer.
func DecodeUint64(b []byte) (ret uint64, n int, err error) {
	var shift uint
	for i := 0; i < 10; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		ret |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			// The tenth byte carries only the top bit of a u64.
			if i == 9 && c&0x7e != 0 {
				return 0, 0, ErrOverlong
			}
			return ret, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrOverlong
}

// DecodeInt32 reads a signed LEB128-encoded 32-bit integer.
func DecodeInt32(b []byte) (ret int32, n int, err error) {
	var shift uint
	for i := 0; i < 5; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		ret |= int32(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			if i == 4 {
				// Bits 3..6 of the final byte must agree with the sign bit.
				if top := c & 0x78; top != 0 && top != 0x78 {
					return 0, 0, ErrOverlong
				}
			}
			if shift < 32 && c&0x40 != 0 {
				ret |= -1 << shift
			}
			return ret, i + 1, nil
		}
	}
	return 0, 0, ErrOverlong
}

// DecodeInt33 reads a signed 33-bit integer as an int64. Block types use
// this width: non-negative values are type indices, negative values encode
// value types.
func DecodeInt33(b []byte) (ret int64, n int, err error) {
	var shift uint
	for i := 0; i < 5; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		ret |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			if i == 4 {
				if top := c & 0x70; top != 0 && top != 0x70 {
					return 0, 0, ErrOverlong
				}
			}
			if shift < 33 && c&0x40 != 0 {
				ret |= -1 << shift
			}
			return ret, i + 1, nil
		}
	}
	return 0, 0, ErrOverlong
}

// DecodeInt64 reads a signed LEB128-encoded 64-bit integer.
func DecodeInt64(b []byte) (ret int64, n int, err error) {
	var shift uint
	for i := 0; i < 10; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncated
		}
		c := b[i]
		ret |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			if i == 9 && c != 0x00 && c != 0x7f {
				return 0, 0, ErrOverlong
			}
			if shift < 64 && c&0x40 != 0 {
				ret |= -1 << shift
			}
			return ret, i + 1, nil
		}
	}
	return 0, 0, ErrOverlong
}

// EncodeUint32 encodes v in unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeUint64 encodes v in unsigned LEB128.
func EncodeUint64(v uint64) (buf []byte) {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		buf = append(buf, c)
		if c&0x80 == 0 {
			return
		}
	}
}

// EncodeInt32 encodes v in signed LEB128.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeInt64 encodes v in signed LEB128.
func EncodeInt64(v int64) (buf []byte) {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(buf, c)
		}
		buf = append(buf, c|0x80)
	}
}
