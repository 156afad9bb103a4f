package asm

import (
	"errors"
	"fmt"

	"github.com/ftl/ais-nmea/sixbit"
)

// ErrMalformedTrailer indicates bits left over after the last complete repeated structure.
var ErrMalformedTrailer = errors.New("malformed trailer")

// Key identifies an application specific message by its designated area code and function identifier.
type Key struct {
	DAC uint16 `json:"dac"`
	FI  uint8  `json:"fi"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.DAC, k.FI)
}

// The international DAC.
const International uint16 = 1

// Message is the application specific content of a binary message.
type Message interface {
	Key() Key
	// Encode writes the application data that follows DAC and FI.
	Encode(w *sixbit.Writer)
}

// DecoderFunc decodes the application data that follows DAC and FI.
type DecoderFunc func(r *sixbit.Reader) (Message, error)

// Parser dispatches application data to the decoder registered for its DAC and FI.
type Parser struct {
	decoders map[Key]DecoderFunc
}

// NewParser creates a parser with decoders for the supported international messages.
func NewParser() *Parser {
	result := &Parser{
		decoders: make(map[Key]DecoderFunc),
	}
	result.Set(TextTelegramKey, decodeTextTelegram)
	result.Set(CapabilityInterrogationKey, decodeCapabilityInterrogation)
	result.Set(AreaNoticeBroadcastKey, decodeAreaNotice(false))
	result.Set(AreaNoticeAddressedKey, decodeAreaNotice(true))
	result.Set(RouteBroadcastKey, decodeRouteInformation(false))
	result.Set(RouteAddressedKey, decodeRouteInformation(true))
	result.Set(TextDescriptionBroadcastKey, decodeTextDescription(false))
	result.Set(TextDescriptionAddressedKey, decodeTextDescription(true))
	return result
}

// Set registers the decoder for the given key.
func (p *Parser) Set(key Key, decoder DecoderFunc) {
	p.decoders[key] = decoder
}

// Decode reads DAC and FI and decodes the application data. Unknown keys result in a Raw message.
// If the application data cannot be decoded, Decode returns a Raw message together with the error.
func (p *Parser) Decode(r *sixbit.Reader) (Message, error) {
	key := Key{
		DAC: uint16(r.Uint(10)),
		FI:  uint8(r.Uint(6)),
	}
	data := r.Bits(r.Remaining())
	if r.Err() != nil {
		return nil, r.Err()
	}
	raw := Raw{ID: key, Data: data}

	decode, ok := p.decoders[key]
	if !ok {
		return raw, nil
	}
	result, err := decode(sixbit.NewBitsReader(data))
	if err != nil {
		return raw, fmt.Errorf("application message %s: %w", key, err)
	}
	return result, nil
}

var defaultParser = NewParser()

// Decode decodes application data with the default parser.
func Decode(r *sixbit.Reader) (Message, error) {
	return defaultParser.Decode(r)
}

// Encode writes DAC, FI and the application data of the given message.
func Encode(w *sixbit.Writer, m Message) {
	if m == nil {
		w.Fail(errors.New("no application message"))
		return
	}
	key := m.Key()
	w.PutUint(uint64(key.DAC), 10)
	w.PutUint(uint64(key.FI), 6)
	m.Encode(w)
}

// Raw is application data without a registered decoder.
type Raw struct {
	ID   Key         `json:"key"`
	Data sixbit.Bits `json:"data"`
}

func (m Raw) Key() Key {
	return m.ID
}

func (m Raw) Encode(w *sixbit.Writer) {
	w.PutBits(m.Data)
}

// repeated returns the number of structures of the given width in the remaining bits.
func repeated(r *sixbit.Reader, width int) (int, error) {
	remaining := r.Remaining()
	if remaining%width != 0 {
		return 0, fmt.Errorf("%w: %d bits after %d structures of %d bits", ErrMalformedTrailer, remaining%width, remaining/width, width)
	}
	return remaining / width, nil
}

// Timestamp is the start time of an application message, without year.
type Timestamp struct {
	Month  uint8 `json:"month"`
	Day    uint8 `json:"day"`
	Hour   uint8 `json:"hour"`
	Minute uint8 `json:"minute"`
}

func readTimestamp(r *sixbit.Reader) Timestamp {
	return Timestamp{
		Month:  uint8(r.Uint(4)),
		Day:    uint8(r.Uint(5)),
		Hour:   uint8(r.Uint(5)),
		Minute: uint8(r.Uint(6)),
	}
}

func (t Timestamp) encode(w *sixbit.Writer) {
	w.PutUint(uint64(t.Month), 4)
	w.PutUint(uint64(t.Day), 5)
	w.PutUint(uint64(t.Hour), 5)
	w.PutUint(uint64(t.Minute), 6)
}
