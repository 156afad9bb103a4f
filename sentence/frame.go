package sentence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNoStartDelimiter = errors.New("no start delimiter")
	ErrNoChecksum       = errors.New("no checksum")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrMalformed        = errors.New("malformed sentence")
	ErrUnsupported      = errors.New("unsupported sentence")
)

// Frame is a single NMEA 0183 sentence, split into its fields.
type Frame struct {
	// Start is the start delimiter, '!' for encapsulation sentences and '$' for parametric sentences.
	Start     byte
	Talker    string
	Formatter string
	Fields    []string
	Checksum  byte
}

// Checksum returns the XOR over all characters of s.
func Checksum(s string) byte {
	var result byte
	for i := 0; i < len(s); i++ {
		result ^= s[i]
	}
	return result
}

// Parse parses a line into a frame and verifies its checksum. Text before the start delimiter and
// after the checksum is ignored.
func Parse(line string) (Frame, error) {
	start := strings.IndexAny(line, "!$")
	if start < 0 {
		return Frame{}, fmt.Errorf("%w: %q", ErrNoStartDelimiter, line)
	}
	body := line[start:]
	star := strings.IndexByte(body, '*')
	if star < 0 || len(body) < star+3 {
		return Frame{}, fmt.Errorf("%w: %q", ErrNoChecksum, line)
	}
	content := body[1:star]
	if strings.ContainsAny(content, "!$") {
		return Frame{}, fmt.Errorf("%w: start delimiter inside sentence %q", ErrMalformed, line)
	}

	expected, err := strconv.ParseUint(body[star+1:star+3], 16, 8)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: invalid checksum %q", ErrMalformed, body[star+1:star+3])
	}
	actual := Checksum(content)
	if byte(expected) != actual {
		return Frame{}, fmt.Errorf("%w: expected %02X, got %02X in %q", ErrChecksumMismatch, expected, actual, line)
	}

	fields := strings.Split(content, ",")
	if len(fields[0]) != 5 {
		return Frame{}, fmt.Errorf("%w: invalid address field %q", ErrMalformed, fields[0])
	}

	return Frame{
		Start:     body[0],
		Talker:    fields[0][:2],
		Formatter: fields[0][2:],
		Fields:    fields[1:],
		Checksum:  actual,
	}, nil
}

// Encode renders the frame as sentence including the checksum, without line terminator.
func (f Frame) Encode() string {
	start := f.Start
	if start == 0 {
		start = '!'
	}
	content := f.Talker + f.Formatter
	if len(f.Fields) > 0 {
		content += "," + strings.Join(f.Fields, ",")
	}
	return fmt.Sprintf("%c%s*%02X", start, content, Checksum(content))
}

func (f Frame) String() string {
	return f.Encode()
}
