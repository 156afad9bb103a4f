package message

import (
	"errors"
	"fmt"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/asm"
	"github.com/ftl/ais-nmea/sixbit"
)

// ErrNotEncapsulated indicates a message type that cannot be carried by ABM or BBM sentences.
var ErrNotEncapsulated = errors.New("message type cannot be encapsulated")

// Envelope is the addressing of a message that ABM and BBM sentences carry outside of the payload.
type Envelope struct {
	MessageID   int
	Destination ais.MMSI
	Sequence    uint8
}

// Number of header and addressing bits that precede the encapsulated payload of each message type.
var envelopeLength = map[int]int{
	6:  headerLength + 34,
	8:  headerLength + 2,
	12: headerLength + 34,
	14: headerLength + 2,
}

// Addressed reports whether the envelope belongs to an addressed message.
func (e Envelope) Addressed() bool {
	return e.MessageID == 6 || e.MessageID == 12
}

// EncodeEncapsulated encodes the part of a binary or safety message that follows the addressing
// header, as carried in the payload of ABM (message 6 and 12) and BBM (message 8 and 14) sentences.
// The complete message must fit the valid length of its type, otherwise a LengthError is returned.
func EncodeEncapsulated(m Message) (Envelope, string, int, error) {
	w := sixbit.NewWriter()
	var envelope Envelope
	switch msg := m.(type) {
	case AddressedBinary:
		envelope = Envelope{MessageID: 6, Destination: msg.Destination, Sequence: msg.Sequence}
		asm.Encode(w, msg.Application)
	case BroadcastBinary:
		envelope = Envelope{MessageID: 8}
		asm.Encode(w, msg.Application)
	case AddressedSafety:
		envelope = Envelope{MessageID: 12, Destination: msg.Destination, Sequence: msg.Sequence}
		w.PutTextVar(msg.Text)
	case BroadcastSafety:
		envelope = Envelope{MessageID: 14}
		w.PutTextVar(msg.Text)
	default:
		return Envelope{}, "", 0, fmt.Errorf("%w: %d", ErrNotEncapsulated, m.MessageHeader().ID)
	}
	if w.Err() != nil {
		return Envelope{}, "", 0, w.Err()
	}
	if err := CheckLength(envelope.MessageID, envelopeLength[envelope.MessageID]+w.Len()); err != nil {
		return Envelope{}, "", 0, err
	}
	payload, fillBits, err := w.Armor()
	if err != nil {
		return Envelope{}, "", 0, err
	}
	return envelope, payload, fillBits, nil
}

// DecodeEncapsulated decodes the payload of an ABM or BBM sentence into a message from the given source.
func DecodeEncapsulated(envelope Envelope, source ais.MMSI, r *sixbit.Reader) (Message, error) {
	header := Header{ID: envelope.MessageID, UserID: source}
	switch envelope.MessageID {
	case 6:
		result := AddressedBinary{Header: header, Sequence: envelope.Sequence, Destination: envelope.Destination}
		result.Application, result.ApplicationErr = asm.Decode(r)
		if result.Application == nil {
			return nil, result.ApplicationErr
		}
		return result, nil
	case 8:
		result := BroadcastBinary{Header: header}
		result.Application, result.ApplicationErr = asm.Decode(r)
		if result.Application == nil {
			return nil, result.ApplicationErr
		}
		return result, nil
	case 12:
		result := AddressedSafety{Header: header, Sequence: envelope.Sequence, Destination: envelope.Destination}
		result.Text = r.Text(r.Remaining() / 6)
		return result, r.Err()
	case 14:
		result := BroadcastSafety{Header: header}
		result.Text = r.Text(r.Remaining() / 6)
		return result, r.Err()
	default:
		return nil, fmt.Errorf("%w: %d", ErrNotEncapsulated, envelope.MessageID)
	}
}
