package sixbit

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBits = errors.New("insufficient bits")
	ErrOverflow         = errors.New("value exceeds field width")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrInvalidFillBits  = errors.New("invalid number of fill bits")
)

// Bits is a sequence of single bits, one per byte, most significant bit first.
type Bits []byte

// Dearmor returns the numeric value of an armored payload character.
func Dearmor(c byte) (byte, error) {
	if c < '0' || c > 'w' || (c > 'W' && c < '`') {
		return 0, fmt.Errorf("%w in payload: %q", ErrInvalidCharacter, c)
	}
	v := c - 48
	if v > 40 {
		v -= 8
	}
	return v, nil
}

// Armor returns the payload character for the lower six bits of v.
func Armor(v byte) byte {
	v &= 0x3f
	if v < 40 {
		return v + 48
	}
	return v + 56
}

// Unpack converts an armored payload into its bits, dropping the given number of fill bits at the end.
func Unpack(payload string, fillBits int) (Bits, error) {
	if fillBits < 0 || fillBits > 5 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFillBits, fillBits)
	}
	total := len(payload)*6 - fillBits
	if total < 0 {
		return nil, fmt.Errorf("%w: %d fill bits with an empty payload", ErrInvalidFillBits, fillBits)
	}
	result := make(Bits, 0, len(payload)*6)
	for i := 0; i < len(payload); i++ {
		v, err := Dearmor(payload[i])
		if err != nil {
			return nil, err
		}
		for shift := 5; shift >= 0; shift-- {
			result = append(result, (v>>shift)&1)
		}
	}
	return result[:total], nil
}

// Pack converts bits into an armored payload. The last character is padded with zero bits,
// the number of padding bits is returned as fill bits.
func Pack(bits Bits) (payload string, fillBits int) {
	fillBits = (6 - len(bits)%6) % 6
	buf := make([]byte, 0, (len(bits)+fillBits)/6)
	var v byte
	for i := 0; i < len(bits)+fillBits; i++ {
		v <<= 1
		if i < len(bits) {
			v |= bits[i] & 1
		}
		if i%6 == 5 {
			buf = append(buf, Armor(v))
			v = 0
		}
	}
	return string(buf), fillBits
}

// BitLength returns the number of bits carried by an armored payload of the given length.
func BitLength(payloadLength, fillBits int) int {
	return payloadLength*6 - fillBits
}
