package message

import (
	"errors"
	"fmt"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/sixbit"
)

// ErrInvalidLength is matched by every LengthError.
var ErrInvalidLength = errors.New("invalid message length")

// LengthError reports a message whose bit length is outside the valid range of its type.
type LengthError struct {
	MessageID int
	Bits      int
	Min       int
	Max       int
}

func (e *LengthError) Error() string {
	if e.Min == e.Max {
		return fmt.Sprintf("message %d has %d bits, expected %d", e.MessageID, e.Bits, e.Min)
	}
	return fmt.Sprintf("message %d has %d bits, expected %d to %d", e.MessageID, e.Bits, e.Min, e.Max)
}

func (e *LengthError) Unwrap() error {
	return ErrInvalidLength
}

const headerLength = 38

// Header is the common beginning of all messages.
type Header struct {
	ID     int      `json:"id"`
	Repeat uint8    `json:"repeat"`
	UserID ais.MMSI `json:"mmsi"`
}

// MessageHeader returns the header.
func (h Header) MessageHeader() Header {
	return h
}

func readHeader(r *sixbit.Reader) Header {
	return Header{
		ID:     int(r.Uint(6)),
		Repeat: uint8(r.Uint(2)),
		UserID: ais.MMSI(r.Uint(30)),
	}
}

func (h Header) encode(w *sixbit.Writer) {
	w.PutUint(uint64(h.ID), 6)
	w.PutUint(uint64(h.Repeat), 2)
	w.PutUint(uint64(h.UserID), 30)
}

// Message is a decoded AIS message.
type Message interface {
	MessageHeader() Header
	// Encode writes the complete message including its header.
	Encode(w *sixbit.Writer)
}

// Raw is a message without a registered parser. It keeps the bits after the header.
type Raw struct {
	Header
	Data sixbit.Bits `json:"data"`
}

func (m Raw) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutBits(m.Data)
}

func parseRaw(h Header, r *sixbit.Reader) (Message, error) {
	return Raw{Header: h, Data: r.Bits(r.Remaining())}, r.Err()
}

type lengthRange struct {
	min, max int
}

var validLengths = map[int]lengthRange{
	1:  {168, 168},
	2:  {168, 168},
	3:  {168, 168},
	4:  {168, 168},
	5:  {424, 424},
	6:  {88, 1008},
	7:  {72, 168},
	8:  {56, 1008},
	9:  {168, 168},
	10: {72, 72},
	11: {168, 168},
	12: {72, 1008},
	13: {72, 168},
	14: {40, 1008},
	15: {88, 160},
	18: {168, 168},
	19: {312, 312},
	20: {72, 160},
	21: {272, 360},
	24: {160, 168},
}

// CheckLength returns a LengthError if the given number of bits is not valid for the message type.
// Types without a known length are not checked.
func CheckLength(messageID int, bits int) error {
	valid, ok := validLengths[messageID]
	if !ok || (bits >= valid.min && bits <= valid.max) {
		return nil
	}
	return &LengthError{MessageID: messageID, Bits: bits, Min: valid.min, Max: valid.max}
}

// ParserFunc decodes the part of a message that follows the header.
type ParserFunc func(Header, *sixbit.Reader) (Message, error)

// Parser dispatches messages to the parser registered for their message ID.
type Parser struct {
	parsers map[int]ParserFunc
}

// NewParser returns a new parser with the default parsers for all supported message types.
func NewParser() *Parser {
	return &Parser{
		parsers: map[int]ParserFunc{
			1:  parsePositionReport,
			2:  parsePositionReport,
			3:  parsePositionReport,
			4:  parseBaseStationReport,
			5:  parseStaticVoyageData,
			6:  parseAddressedBinary,
			7:  parseBinaryAck,
			8:  parseBroadcastBinary,
			9:  parseSARAircraftPosition,
			10: parseUTCInquiry,
			11: parseBaseStationReport,
			12: parseAddressedSafety,
			13: parseBinaryAck,
			14: parseBroadcastSafety,
			15: parseInterrogation,
			18: parseClassBPosition,
			19: parseExtendedClassBPosition,
			20: parseDataLinkManagement,
			21: parseAidToNavigation,
			24: parseStaticDataReport,
		},
	}
}

// Set an individual parser for the given message ID.
func (p *Parser) Set(messageID int, parser ParserFunc) {
	p.parsers[messageID] = parser
}

// Decode reads a message from the beginning of the given reader.
func (p *Parser) Decode(r *sixbit.Reader) (Message, error) {
	if r.Len() < headerLength {
		messageID := -1
		if r.Len() >= 6 {
			messageID = int(r.Uint(6))
		}
		return nil, &LengthError{MessageID: messageID, Bits: r.Len(), Min: headerLength, Max: headerLength}
	}
	header := readHeader(r)
	if err := CheckLength(header.ID, r.Len()); err != nil {
		return nil, err
	}

	parse, ok := p.parsers[header.ID]
	if !ok {
		parse = parseRaw
	}
	result, err := parse(header, r)
	if err != nil {
		return nil, fmt.Errorf("cannot decode message %d: %w", header.ID, err)
	}
	return result, nil
}

// Parse decodes a message from an armored payload.
func (p *Parser) Parse(payload string, fillBits int) (Message, error) {
	r, err := sixbit.NewReader(payload, fillBits)
	if err != nil {
		return nil, err
	}
	return p.Decode(r)
}

var defaultParser = NewParser()

// Decode reads a message with the default parser.
func Decode(r *sixbit.Reader) (Message, error) {
	return defaultParser.Decode(r)
}

// Parse decodes an armored payload with the default parser.
func Parse(payload string, fillBits int) (Message, error) {
	return defaultParser.Parse(payload, fillBits)
}

// Write encodes the message into the given writer and checks the resulting length.
func Write(w *sixbit.Writer, m Message) error {
	start := w.Len()
	m.Encode(w)
	if w.Err() != nil {
		return w.Err()
	}
	return CheckLength(m.MessageHeader().ID, w.Len()-start)
}

// Encode encodes the message into an armored payload.
func Encode(m Message) (payload string, fillBits int, err error) {
	w := sixbit.NewWriter()
	if err := Write(w, m); err != nil {
		return "", 0, err
	}
	return w.Armor()
}

// TypeName returns a short name of the message's type.
func TypeName(m Message) string {
	switch m.(type) {
	case PositionReport:
		return "position_report"
	case BaseStationReport:
		return "base_station_report"
	case StaticVoyageData:
		return "static_voyage_data"
	case AddressedBinary:
		return "addressed_binary"
	case BinaryAck:
		return "binary_ack"
	case BroadcastBinary:
		return "broadcast_binary"
	case SARAircraftPosition:
		return "sar_aircraft_position"
	case UTCInquiry:
		return "utc_inquiry"
	case AddressedSafety:
		return "addressed_safety"
	case BroadcastSafety:
		return "broadcast_safety"
	case Interrogation:
		return "interrogation"
	case ClassBPosition:
		return "class_b_position"
	case ExtendedClassBPosition:
		return "extended_class_b_position"
	case DataLinkManagement:
		return "data_link_management"
	case AidToNavigation:
		return "aid_to_navigation"
	case StaticDataReport:
		return "static_data_report"
	default:
		return "raw"
	}
}
