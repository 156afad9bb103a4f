package asm

import (
	"github.com/ftl/ais-nmea/sixbit"
)

// Keys of the text messages and the capability interrogation.
var (
	TextTelegramKey             = Key{DAC: International, FI: 0}
	CapabilityInterrogationKey  = Key{DAC: International, FI: 2}
	TextDescriptionBroadcastKey = Key{DAC: International, FI: 29}
	TextDescriptionAddressedKey = Key{DAC: International, FI: 30}
)

// TextTelegram is a free text message using six-bit text.
type TextTelegram struct {
	AckRequired bool   `json:"ack_required"`
	Sequence    uint16 `json:"sequence"`
	Text        string `json:"text"`
}

func (m TextTelegram) Key() Key {
	return TextTelegramKey
}

func (m TextTelegram) Encode(w *sixbit.Writer) {
	w.PutBool(m.AckRequired)
	w.PutUint(uint64(m.Sequence), 11)
	w.PutTextVar(m.Text)
}

func decodeTextTelegram(r *sixbit.Reader) (Message, error) {
	result := TextTelegram{
		AckRequired: r.Bool(),
		Sequence:    uint16(r.Uint(11)),
	}
	result.Text = r.Text(r.Remaining() / 6)
	return result, r.Err()
}

// TextDescription is a text that refers to another application message through its link ID.
type TextDescription struct {
	Addressed bool   `json:"addressed"`
	LinkID    uint16 `json:"link_id"`
	Text      string `json:"text"`
}

func (m TextDescription) Key() Key {
	if m.Addressed {
		return TextDescriptionAddressedKey
	}
	return TextDescriptionBroadcastKey
}

func (m TextDescription) Encode(w *sixbit.Writer) {
	w.PutUint(uint64(m.LinkID), 10)
	w.PutTextVar(m.Text)
}

func decodeTextDescription(addressed bool) DecoderFunc {
	return func(r *sixbit.Reader) (Message, error) {
		result := TextDescription{
			Addressed: addressed,
			LinkID:    uint16(r.Uint(10)),
		}
		result.Text = r.Text(r.Remaining() / 6)
		return result, r.Err()
	}
}

// CapabilityInterrogation asks a station whether it supports the given application message.
type CapabilityInterrogation struct {
	Requested Key `json:"requested"`
}

func (m CapabilityInterrogation) Key() Key {
	return CapabilityInterrogationKey
}

func (m CapabilityInterrogation) Encode(w *sixbit.Writer) {
	w.PutUint(uint64(m.Requested.DAC), 10)
	w.PutUint(uint64(m.Requested.FI), 6)
}

func decodeCapabilityInterrogation(r *sixbit.Reader) (Message, error) {
	result := CapabilityInterrogation{
		Requested: Key{
			DAC: uint16(r.Uint(10)),
			FI:  uint8(r.Uint(6)),
		},
	}
	return result, r.Err()
}
