package sixbit

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDearmorArmor(t *testing.T) {
	for v := byte(0); v < 64; v++ {
		c := Armor(v)
		actual, err := Dearmor(c)
		require.NoError(t, err)
		assert.Equal(t, v, actual, "character %q", c)
	}
	assert.Equal(t, byte('0'), Armor(0))
	assert.Equal(t, byte('W'), Armor(39))
	assert.Equal(t, byte('`'), Armor(40))
	assert.Equal(t, byte('w'), Armor(63))
}

func TestDearmorInvalid(t *testing.T) {
	for _, c := range []byte{'/', 'X', '_', 'x', ',', '*'} {
		_, err := Dearmor(c)
		assert.ErrorIs(t, err, ErrInvalidCharacter, "character %q", c)
	}
}

func TestUnpack(t *testing.T) {
	tt := []struct {
		desc     string
		payload  string
		fillBits int
		expected int
		err      error
	}{
		{desc: "position report", payload: "19NS7Sp02wo?HETKA2K6mUM20<L=", fillBits: 0, expected: 168},
		{desc: "fill bits", payload: "1KUDhH888888880", fillBits: 2, expected: 88},
		{desc: "empty", payload: "", fillBits: 0, expected: 0},
		{desc: "too many fill bits", payload: "1", fillBits: 6, err: ErrInvalidFillBits},
		{desc: "fill bits without payload", payload: "", fillBits: 2, err: ErrInvalidFillBits},
		{desc: "invalid character", payload: "1X", fillBits: 0, err: ErrInvalidCharacter},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			actual, err := Unpack(tc.payload, tc.fillBits)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, len(actual))
			assert.Equal(t, tc.expected, BitLength(len(tc.payload), tc.fillBits))
		})
	}
}

func TestPackUnpackRoundtrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for length := 0; length < 200; length++ {
		bits := make(Bits, length)
		for i := range bits {
			bits[i] = byte(rnd.Intn(2))
		}
		payload, fillBits := Pack(bits)
		assert.Equal(t, 0, (len(bits)+fillBits)%6)
		actual, err := Unpack(payload, fillBits)
		require.NoError(t, err)
		assert.Equal(t, bits, actual, "length %d", length)
	}
}

func TestUintRoundtrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for width := 1; width <= 64; width++ {
		for i := 0; i < 20; i++ {
			v := rnd.Uint64()
			if width < 64 {
				v &= uint64(1)<<width - 1
			}
			w := NewWriter()
			w.PutUint(v, width)
			require.NoError(t, w.Err())

			r := NewBitsReader(w.Bits())
			assert.Equal(t, v, r.Uint(width), "width %d", width)
			require.NoError(t, r.Err())
			assert.False(t, r.HasMoreBits())
		}
	}
}

func TestIntRoundtrip(t *testing.T) {
	tt := []struct {
		value int64
		width int
	}{
		{0, 8}, {-1, 8}, {-128, 8}, {127, 8},
		{-73481550, 28}, {108600000, 28}, {-(1 << 27), 28},
		{28590700, 27}, {54600000, 27}, {(1 << 26) - 1, 27},
	}
	for _, tc := range tt {
		w := NewWriter()
		w.PutInt(tc.value, tc.width)
		require.NoError(t, w.Err())
		assert.Equal(t, tc.width, w.Len())

		r := NewBitsReader(w.Bits())
		assert.Equal(t, tc.value, r.Int(tc.width))
		assert.NoError(t, r.Err())
	}
}

func TestWriterOverflow(t *testing.T) {
	w := NewWriter()
	w.PutUint(16, 4)
	assert.ErrorIs(t, w.Err(), ErrOverflow)

	w = NewWriter()
	w.PutInt(128, 8)
	assert.ErrorIs(t, w.Err(), ErrOverflow)

	w = NewWriter()
	w.PutInt(-129, 8)
	assert.ErrorIs(t, w.Err(), ErrOverflow)

	w = NewWriter()
	w.PutText("TOO LONG", 4)
	assert.ErrorIs(t, w.Err(), ErrOverflow)

	w = NewWriter()
	w.PutText("lower", 5)
	assert.ErrorIs(t, w.Err(), ErrInvalidCharacter)
	w.PutUint(1, 1)
	assert.Equal(t, 0, w.Len(), "writes after an error are ignored")
}

func TestReaderPastEnd(t *testing.T) {
	r := NewBitsReader(Bits{1, 0, 1})
	assert.Equal(t, uint64(5), r.Uint(3))
	assert.False(t, r.HasMoreBits())
	assert.Equal(t, uint64(0), r.Uint(1))
	assert.ErrorIs(t, r.Err(), ErrInsufficientBits)
}

func TestReaderKeepsFirstError(t *testing.T) {
	r := NewBitsReader(Bits{1, 0, 1})
	r.Uint(4)
	require.ErrorIs(t, r.Err(), ErrInsufficientBits)

	assert.Equal(t, uint64(0), r.Uint(65))
	assert.ErrorIs(t, r.Err(), ErrInsufficientBits)
}

func TestTextRoundtrip(t *testing.T) {
	tt := []struct {
		desc     string
		value    string
		chars    int
		expected string
	}{
		{desc: "padded", value: "SEATTLE.USA", chars: 20, expected: "SEATTLE.USA"},
		{desc: "exact", value: "M/V NAVIOS LIBRA II", chars: 19, expected: "M/V NAVIOS LIBRA II"},
		{desc: "trailing spaces", value: "3FRE4  ", chars: 7, expected: "3FRE4"},
		{desc: "empty", value: "", chars: 7, expected: ""},
		{desc: "all symbols", value: "!\"#$%&'()*+,-./0123456789:;<=>?", chars: 31, expected: "!\"#$%&'()*+,-./0123456789:;<=>?"},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			w := NewWriter()
			w.PutText(tc.value, tc.chars)
			require.NoError(t, w.Err())
			assert.Equal(t, tc.chars*6, w.Len())

			r := NewBitsReader(w.Bits())
			assert.Equal(t, tc.expected, r.Text(tc.chars))
			assert.NoError(t, r.Err())
		})
	}
}

func TestTextCutAtAt(t *testing.T) {
	w := NewWriter()
	w.PutTextVar("AB@CD")
	r := NewBitsReader(w.Bits())
	assert.Equal(t, "AB", r.Text(5))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "MOWE", Sanitize("Möwe"))
	assert.Equal(t, "HELLO WORLD", Sanitize("hello world"))
	assert.Equal(t, "A B", Sanitize("a~b"))
	assert.True(t, ValidText(Sanitize("Ærø ~ {x}")))
}

func TestWriterArmor(t *testing.T) {
	w := NewWriter()
	w.PutUint(1, 6)
	w.PutUint(3, 2)
	payload, fillBits, err := w.Armor()
	require.NoError(t, err)
	assert.Equal(t, "1h", payload)
	assert.Equal(t, 4, fillBits)

	w.Align(8)
	assert.Equal(t, 8, w.Len())
}
