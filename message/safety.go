package message

import (
	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/sixbit"
)

// AddressedSafety is a safety related text message addressed to a particular station (message 12).
type AddressedSafety struct {
	Header
	Sequence    uint8    `json:"sequence"`
	Destination ais.MMSI `json:"destination"`
	Retransmit  bool     `json:"retransmit"`
	Text        string   `json:"text"`
}

func parseAddressedSafety(h Header, r *sixbit.Reader) (Message, error) {
	result := AddressedSafety{
		Header:      h,
		Sequence:    uint8(r.Uint(2)),
		Destination: ais.MMSI(r.Uint(30)),
		Retransmit:  r.Bool(),
	}
	r.Skip(1)
	result.Text = r.Text(r.Remaining() / 6)
	return result, r.Err()
}

func (m AddressedSafety) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(uint64(m.Sequence), 2)
	w.PutUint(uint64(m.Destination), 30)
	w.PutBool(m.Retransmit)
	w.PutUint(0, 1)
	w.PutTextVar(m.Text)
}

// BroadcastSafety is a safety related text message to all stations (message 14).
type BroadcastSafety struct {
	Header
	Text string `json:"text"`
}

func parseBroadcastSafety(h Header, r *sixbit.Reader) (Message, error) {
	r.Skip(2)
	result := BroadcastSafety{
		Header: h,
		Text:   r.Text(r.Remaining() / 6),
	}
	return result, r.Err()
}

func (m BroadcastSafety) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(0, 2)
	w.PutTextVar(m.Text)
}
