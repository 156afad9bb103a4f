package sixbit

import (
	"fmt"
	"strings"
)

// Reader reads fields from the bits of a message. The first failing read is kept as the
// reader's error, all subsequent reads return zero values. Check Err after a sequence of reads.
type Reader struct {
	bits Bits
	pos  int
	err  error
}

// NewReader creates a reader for an armored payload.
func NewReader(payload string, fillBits int) (*Reader, error) {
	bits, err := Unpack(payload, fillBits)
	if err != nil {
		return nil, err
	}
	return NewBitsReader(bits), nil
}

// NewBitsReader creates a reader for the given bits.
func NewBitsReader(bits Bits) *Reader {
	return &Reader{bits: bits}
}

// Len returns the total number of bits.
func (r *Reader) Len() int {
	return len(r.bits)
}

// Pos returns the index of the next bit to read.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of bits left to read.
func (r *Reader) Remaining() int {
	return len(r.bits) - r.pos
}

// HasMoreBits reports whether at least one bit is left to read.
func (r *Reader) HasMoreBits() bool {
	return r.err == nil && r.pos < len(r.bits)
}

// Err returns the first error that occurred while reading.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) take(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 {
		r.err = fmt.Errorf("invalid field width %d", n)
		return false
	}
	if r.pos+n > len(r.bits) {
		r.err = fmt.Errorf("%w: %d bits needed at position %d, %d available", ErrInsufficientBits, n, r.pos, len(r.bits)-r.pos)
		return false
	}
	return true
}

// Uint reads an unsigned value of n bits, 1 <= n <= 64.
func (r *Reader) Uint(n int) uint64 {
	if n > 64 {
		if r.err == nil {
			r.err = fmt.Errorf("invalid field width %d", n)
		}
		return 0
	}
	if !r.take(n) {
		return 0
	}
	var result uint64
	for _, b := range r.bits[r.pos : r.pos+n] {
		result = result<<1 | uint64(b&1)
	}
	r.pos += n
	return result
}

// Int reads a two's complement signed value of n bits.
func (r *Reader) Int(n int) int64 {
	v := r.Uint(n)
	if n == 0 || n >= 64 {
		return int64(v)
	}
	if v&(1<<(n-1)) != 0 {
		v |= ^uint64(0) << n
	}
	return int64(v)
}

// Bool reads a single bit.
func (r *Reader) Bool() bool {
	return r.Uint(1) == 1
}

// Text reads the given number of six-bit characters. The text is cut at the first '@', trailing
// spaces are removed.
func (r *Reader) Text(chars int) string {
	if !r.take(chars * 6) {
		return ""
	}
	var result strings.Builder
	for i := 0; i < chars; i++ {
		result.WriteByte(TextChar(byte(r.Uint(6))))
	}
	return normalizeText(result.String())
}

// Bits reads n raw bits.
func (r *Reader) Bits(n int) Bits {
	if !r.take(n) {
		return nil
	}
	result := make(Bits, n)
	copy(result, r.bits[r.pos:r.pos+n])
	r.pos += n
	return result
}

// Skip advances over n bits.
func (r *Reader) Skip(n int) {
	if r.take(n) {
		r.pos += n
	}
}
