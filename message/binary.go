package message

import (
	"fmt"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/asm"
	"github.com/ftl/ais-nmea/sixbit"
)

// AddressedBinary is a binary message addressed to a particular station (message 6).
// If the application data cannot be decoded, Application is an asm.Raw and ApplicationErr
// describes the problem.
type AddressedBinary struct {
	Header
	Sequence       uint8       `json:"sequence"`
	Destination    ais.MMSI    `json:"destination"`
	Retransmit     bool        `json:"retransmit"`
	Application    asm.Message `json:"application"`
	ApplicationErr error       `json:"-"`
}

func parseAddressedBinary(h Header, r *sixbit.Reader) (Message, error) {
	result := AddressedBinary{
		Header:      h,
		Sequence:    uint8(r.Uint(2)),
		Destination: ais.MMSI(r.Uint(30)),
		Retransmit:  r.Bool(),
	}
	r.Skip(1)
	if r.Err() != nil {
		return nil, r.Err()
	}
	result.Application, result.ApplicationErr = asm.Decode(r)
	if result.Application == nil {
		return nil, result.ApplicationErr
	}
	return result, nil
}

func (m AddressedBinary) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(uint64(m.Sequence), 2)
	w.PutUint(uint64(m.Destination), 30)
	w.PutBool(m.Retransmit)
	w.PutUint(0, 1)
	asm.Encode(w, m.Application)
}

// BroadcastBinary is a binary message to all stations (message 8).
// If the application data cannot be decoded, Application is an asm.Raw and ApplicationErr
// describes the problem.
type BroadcastBinary struct {
	Header
	Application    asm.Message `json:"application"`
	ApplicationErr error       `json:"-"`
}

func parseBroadcastBinary(h Header, r *sixbit.Reader) (Message, error) {
	r.Skip(2)
	if r.Err() != nil {
		return nil, r.Err()
	}
	result := BroadcastBinary{Header: h}
	result.Application, result.ApplicationErr = asm.Decode(r)
	if result.Application == nil {
		return nil, result.ApplicationErr
	}
	return result, nil
}

func (m BroadcastBinary) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(0, 2)
	asm.Encode(w, m.Application)
}

// Acknowledged identifies a received binary or safety message.
type Acknowledged struct {
	Destination ais.MMSI `json:"destination"`
	Sequence    uint8    `json:"sequence"`
}

const acknowledgedLength = 32

// BinaryAck acknowledges up to four addressed messages (message 7 for binary and 13 for
// safety related messages).
type BinaryAck struct {
	Header
	Acks []Acknowledged `json:"acks"`
}

func parseBinaryAck(h Header, r *sixbit.Reader) (Message, error) {
	r.Skip(2)
	result := BinaryAck{Header: h}
	for len(result.Acks) < 4 && r.Remaining() >= acknowledgedLength {
		result.Acks = append(result.Acks, Acknowledged{
			Destination: ais.MMSI(r.Uint(30)),
			Sequence:    uint8(r.Uint(2)),
		})
	}
	return result, r.Err()
}

func (m BinaryAck) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	if len(m.Acks) < 1 || len(m.Acks) > 4 {
		w.Fail(fmt.Errorf("%w: %d acknowledgements, expected 1 to 4", sixbit.ErrOverflow, len(m.Acks)))
		return
	}
	w.PutUint(0, 2)
	for _, ack := range m.Acks {
		w.PutUint(uint64(ack.Destination), 30)
		w.PutUint(uint64(ack.Sequence), 2)
	}
}
