package sixbit

import (
	"fmt"
	"strings"
)

// Writer appends fields to the bits of a message. Like the Reader, it keeps the first error and
// ignores all subsequent writes.
type Writer struct {
	bits Bits
	err  error
}

// NewWriter creates an empty writer.
func NewWriter() *Writer {
	return &Writer{bits: make(Bits, 0, 168)}
}

// Err returns the first error that occurred while writing.
func (w *Writer) Err() error {
	return w.err
}

// Fail sets the writer's error, unless an error is already set.
func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	return len(w.bits)
}

// Bits returns the written bits.
func (w *Writer) Bits() Bits {
	return w.bits
}

// Armor returns the written bits as armored payload together with the number of fill bits.
func (w *Writer) Armor() (string, int, error) {
	if w.err != nil {
		return "", 0, w.err
	}
	payload, fillBits := Pack(w.bits)
	return payload, fillBits, nil
}

// PutUint appends v as an unsigned value of n bits.
func (w *Writer) PutUint(v uint64, n int) {
	if w.err != nil {
		return
	}
	if n < 0 || n > 64 {
		w.err = fmt.Errorf("invalid field width %d", n)
		return
	}
	if n < 64 && v>>n != 0 {
		w.err = fmt.Errorf("%w: %d does not fit into %d bits", ErrOverflow, v, n)
		return
	}
	for shift := n - 1; shift >= 0; shift-- {
		w.bits = append(w.bits, byte(v>>shift)&1)
	}
}

// PutInt appends v as a two's complement signed value of n bits.
func (w *Writer) PutInt(v int64, n int) {
	if w.err != nil {
		return
	}
	if n < 1 || n > 64 {
		w.err = fmt.Errorf("invalid field width %d", n)
		return
	}
	if n < 64 {
		min := -(int64(1) << (n - 1))
		max := int64(1)<<(n-1) - 1
		if v < min || v > max {
			w.err = fmt.Errorf("%w: %d does not fit into %d signed bits", ErrOverflow, v, n)
			return
		}
		w.PutUint(uint64(v)&(uint64(1)<<n-1), n)
		return
	}
	w.PutUint(uint64(v), n)
}

// PutBool appends a single bit.
func (w *Writer) PutBool(b bool) {
	if b {
		w.PutUint(1, 1)
	} else {
		w.PutUint(0, 1)
	}
}

// PutText appends s as six-bit text of exactly chars characters, padded with '@'.
func (w *Writer) PutText(s string, chars int) {
	if w.err != nil {
		return
	}
	if len(s) > chars {
		w.err = fmt.Errorf("%w: text %q is longer than %d characters", ErrOverflow, s, chars)
		return
	}
	w.PutTextVar(s + strings.Repeat("@", chars-len(s)))
}

// PutTextVar appends s as six-bit text with one character per character of s.
func (w *Writer) PutTextVar(s string) {
	if w.err != nil {
		return
	}
	for i := 0; i < len(s); i++ {
		v, err := TextValue(s[i])
		if err != nil {
			w.err = err
			return
		}
		w.PutUint(uint64(v), 6)
	}
}

// PutBits appends raw bits.
func (w *Writer) PutBits(bits Bits) {
	if w.err != nil {
		return
	}
	for _, b := range bits {
		w.bits = append(w.bits, b&1)
	}
}

// Align pads the written bits with zero bits up to the next multiple of n bits.
func (w *Writer) Align(n int) {
	if w.err != nil || n <= 0 {
		return
	}
	for len(w.bits)%n != 0 {
		w.bits = append(w.bits, 0)
	}
}
