package binary

import (
	"fmt"
	"unicode/utf8"

	"github.com/riftwasm/rift/internal/leb128"
)

// reader walks the input keeping an absolute byte position, so every decode
// error can name the offset it happened at.
type reader struct {
	b   []byte
	pos int
}

func (r *reader) len() int { return len(r.b) - r.pos }

func (r *reader) fail(format string, args ...interface{}) error {
	return &MalformedError{Offset: r.pos, Reason: fmt.Sprintf(format, args...)}
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, r.fail("unexpected end of input")
	}
	c := r.b[r.pos]
	r.pos++
	return c, nil
}

func (r *reader) readBytes(n uint32) ([]byte, error) {
	if uint64(n) > uint64(r.len()) {
		return nil, r.fail("unexpected end of input: need %d bytes, have %d", n, r.len())
	}
	out := r.b[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

func (r *reader) readU32() (uint32, error) {
	v, n, err := leb128.DecodeUint32(r.b[r.pos:])
	if err != nil {
		return 0, r.fail("%v", err)
	}
	r.pos += n
	return v, nil
}

func (r *reader) readU64() (uint64, error) {
	v, n, err := leb128.DecodeUint64(r.b[r.pos:])
	if err != nil {
		return 0, r.fail("%v", err)
	}
	r.pos += n
	return v, nil
}

func (r *reader) readS32() (int32, error) {
	v, n, err := leb128.DecodeInt32(r.b[r.pos:])
	if err != nil {
		return 0, r.fail("%v", err)
	}
	r.pos += n
	return v, nil
}

func (r *reader) readS64() (int64, error) {
	v, n, err := leb128.DecodeInt64(r.b[r.pos:])
	if err != nil {
		return 0, r.fail("%v", err)
	}
	r.pos += n
	return v, nil
}

// readName reads a length-prefixed UTF-8 string.
func (r *reader) readName() (string, error) {
	size, err := r.readU32()
	if err != nil {
		return "", err
	}
	buf, err := r.readBytes(size)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", r.fail("name is not valid UTF-8")
	}
	return string(buf), nil
}
