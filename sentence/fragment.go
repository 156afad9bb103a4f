package sentence

import (
	"fmt"
	"strconv"

	"github.com/ftl/ais-nmea/ais"
)

// The encapsulation formatters.
const (
	VDM = "VDM"
	VDO = "VDO"
	ABM = "ABM"
	BBM = "BBM"
)

// Maximum number of payload characters per sentence, keeping each sentence within 82 characters.
const (
	MaxVDMPayload = 60
	MaxABMPayload = 48
	MaxBBMPayload = 58
)

// NoSequence marks a fragment without sequential message identifier.
const NoSequence = -1

type layout struct {
	fields      int
	total       int
	index       int
	seq         int
	destination int
	channel     int
	messageID   int
	payload     int
	fill        int
}

var layouts = map[string]layout{
	VDM: {fields: 6, total: 0, index: 1, seq: 2, destination: -1, channel: 3, messageID: -1, payload: 4, fill: 5},
	VDO: {fields: 6, total: 0, index: 1, seq: 2, destination: -1, channel: 3, messageID: -1, payload: 4, fill: 5},
	ABM: {fields: 8, total: 0, index: 1, seq: 2, destination: 3, channel: 4, messageID: 5, payload: 6, fill: 7},
	BBM: {fields: 7, total: 0, index: 1, seq: 2, destination: -1, channel: 3, messageID: 4, payload: 5, fill: 6},
}

// Encapsulating reports whether the formatter carries an encapsulated AIS payload.
func Encapsulating(formatter string) bool {
	_, ok := layouts[formatter]
	return ok
}

// Fragment is one sentence of an encapsulated AIS message.
type Fragment struct {
	Talker     string
	Formatter  string
	Total      int
	Index      int
	SequenceID int
	// Channel is the channel letter for VDM/VDO and the numeric channel selection (0-3) for ABM/BBM.
	Channel     string
	Destination ais.MMSI
	// MessageID is only carried by ABM and BBM sentences.
	MessageID int
	Payload   string
	FillBits  int
}

// ParseFragment interprets the fields of a VDM, VDO, ABM or BBM frame.
func ParseFragment(frame Frame) (Fragment, error) {
	l, ok := layouts[frame.Formatter]
	if !ok {
		return Fragment{}, fmt.Errorf("%w: %s", ErrUnsupported, frame.Formatter)
	}
	if len(frame.Fields) != l.fields {
		return Fragment{}, fmt.Errorf("%w: %s needs %d fields, got %d", ErrMalformed, frame.Formatter, l.fields, len(frame.Fields))
	}
	f := frame.Fields
	result := Fragment{
		Talker:     frame.Talker,
		Formatter:  frame.Formatter,
		SequenceID: NoSequence,
		Channel:    f[l.channel],
		MessageID:  -1,
		Payload:    f[l.payload],
	}

	var err error
	if result.Total, err = parseNumber(f[l.total], "total", 1, 9); err != nil {
		return Fragment{}, err
	}
	if result.Index, err = parseNumber(f[l.index], "index", 1, result.Total); err != nil {
		return Fragment{}, err
	}
	if f[l.seq] != "" {
		if result.SequenceID, err = parseNumber(f[l.seq], "sequence", 0, 9); err != nil {
			return Fragment{}, err
		}
	}
	if result.FillBits, err = parseNumber(f[l.fill], "fill bits", 0, 5); err != nil {
		return Fragment{}, err
	}
	if l.destination >= 0 {
		if result.Destination, err = ais.ParseMMSI(f[l.destination]); err != nil {
			return Fragment{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if l.messageID >= 0 {
		if result.MessageID, err = parseNumber(f[l.messageID], "message ID", 0, 63); err != nil {
			return Fragment{}, err
		}
	}
	return result, nil
}

func parseNumber(s string, name string, min, max int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrMalformed, name, s)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%w: %s %d out of range [%d, %d]", ErrMalformed, name, v, min, max)
	}
	return v, nil
}

// Frame renders the fragment into a frame.
func (f Fragment) Frame() Frame {
	l, ok := layouts[f.Formatter]
	if !ok {
		l = layouts[VDM]
	}
	fields := make([]string, l.fields)
	fields[l.total] = strconv.Itoa(f.Total)
	fields[l.index] = strconv.Itoa(f.Index)
	if f.SequenceID != NoSequence {
		fields[l.seq] = strconv.Itoa(f.SequenceID)
	}
	fields[l.channel] = f.Channel
	if l.destination >= 0 {
		fields[l.destination] = f.Destination.String()
	}
	if l.messageID >= 0 {
		fields[l.messageID] = strconv.Itoa(f.MessageID)
	}
	fields[l.payload] = f.Payload
	fields[l.fill] = strconv.Itoa(f.FillBits)

	return Frame{
		Start:     '!',
		Talker:    f.Talker,
		Formatter: f.Formatter,
		Fields:    fields,
	}
}

// Encode renders the fragment as sentence.
func (f Fragment) Encode() string {
	return f.Frame().Encode()
}
