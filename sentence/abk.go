package sentence

import (
	"fmt"
	"strconv"

	"github.com/ftl/ais-nmea/ais"
)

// ABK is the formatter of the addressed and binary broadcast acknowledgement sentence.
const ABK = "ABK"

// AckType is the kind of acknowledgement reported by an ABK sentence.
type AckType int

// The acknowledgement types.
const (
	AckReceived      AckType = 0
	AckNotReceived   AckType = 1
	AckNotBroadcast  AckType = 2
	AckBroadcastDone AckType = 3
	AckLateReception AckType = 4
)

const (
	abkFieldCount       = 5
	abkDestinationField = 0
	abkChannelField     = 1
	abkMessageIDField   = 2
	abkSequenceField    = 3
	abkTypeField        = 4
)

var ackTypeNames = map[AckType]string{
	AckReceived:      "received",
	AckNotReceived:   "not received",
	AckNotBroadcast:  "could not be broadcast",
	AckBroadcastDone: "broadcast",
	AckLateReception: "late reception",
}

func (t AckType) String() string {
	if name, ok := ackTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ack type %d", int(t))
}

// Success reports whether the acknowledgement confirms a successful transmission.
func (t AckType) Success() bool {
	return t == AckReceived || t == AckBroadcastDone
}

// Acknowledgement is the content of an ABK sentence.
type Acknowledgement struct {
	Talker      string
	Destination ais.MMSI
	Channel     string
	MessageID   int
	Sequence    int
	Type        AckType
}

// ParseABK interprets the fields of an ABK frame.
func ParseABK(frame Frame) (Acknowledgement, error) {
	if frame.Formatter != ABK {
		return Acknowledgement{}, fmt.Errorf("%w: %s is not %s", ErrUnsupported, frame.Formatter, ABK)
	}
	if len(frame.Fields) != abkFieldCount {
		return Acknowledgement{}, fmt.Errorf("%w: %s needs %d fields, got %d", ErrMalformed, ABK, abkFieldCount, len(frame.Fields))
	}
	f := frame.Fields
	result := Acknowledgement{
		Talker:  frame.Talker,
		Channel: f[abkChannelField],
	}

	var err error
	if result.Destination, err = ais.ParseMMSI(f[abkDestinationField]); err != nil {
		return Acknowledgement{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if result.MessageID, err = parseNumber(f[abkMessageIDField], "message ID", 0, 63); err != nil {
		return Acknowledgement{}, err
	}
	if result.Sequence, err = parseNumber(f[abkSequenceField], "sequence", 0, 9); err != nil {
		return Acknowledgement{}, err
	}
	ackType, err := parseNumber(f[abkTypeField], "ack type", 0, int(AckLateReception))
	if err != nil {
		return Acknowledgement{}, err
	}
	result.Type = AckType(ackType)
	return result, nil
}

// Frame renders the acknowledgement into a frame.
func (a Acknowledgement) Frame() Frame {
	destination := ""
	if a.Destination != ais.Broadcast {
		destination = a.Destination.String()
	}
	return Frame{
		Start:     '$',
		Talker:    a.Talker,
		Formatter: ABK,
		Fields: []string{
			destination,
			a.Channel,
			strconv.Itoa(a.MessageID),
			strconv.Itoa(a.Sequence),
			strconv.Itoa(int(a.Type)),
		},
	}
}

// Encode renders the acknowledgement as sentence.
func (a Acknowledgement) Encode() string {
	return a.Frame().Encode()
}
