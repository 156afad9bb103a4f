package message

import (
	"fmt"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/sixbit"
)

// BaseStationReport is the time and position report of base stations (message 4) and the
// response to a UTC inquiry (message 11).
type BaseStationReport struct {
	Header
	Year             uint16       `json:"year"`
	Month            uint8        `json:"month"`
	Day              uint8        `json:"day"`
	Hour             uint8        `json:"hour"`
	Minute           uint8        `json:"minute"`
	Second           uint8        `json:"second"`
	PositionAccuracy bool         `json:"accuracy"`
	Position         ais.Position `json:"position"`
	FixType          uint8        `json:"epfd"`
	RAIM             bool         `json:"raim"`
	RadioStatus      uint32       `json:"radio"`
}

func parseBaseStationReport(h Header, r *sixbit.Reader) (Message, error) {
	result := BaseStationReport{
		Header:           h,
		Year:             uint16(r.Uint(14)),
		Month:            uint8(r.Uint(4)),
		Day:              uint8(r.Uint(5)),
		Hour:             uint8(r.Uint(5)),
		Minute:           uint8(r.Uint(6)),
		Second:           uint8(r.Uint(6)),
		PositionAccuracy: r.Bool(),
		Position:         readPosition(r),
		FixType:          uint8(r.Uint(4)),
	}
	r.Skip(10)
	result.RAIM = r.Bool()
	result.RadioStatus = uint32(r.Uint(19))
	return result, r.Err()
}

func (m BaseStationReport) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(uint64(m.Year), 14)
	w.PutUint(uint64(m.Month), 4)
	w.PutUint(uint64(m.Day), 5)
	w.PutUint(uint64(m.Hour), 5)
	w.PutUint(uint64(m.Minute), 6)
	w.PutUint(uint64(m.Second), 6)
	w.PutBool(m.PositionAccuracy)
	writePosition(w, m.Position)
	w.PutUint(uint64(m.FixType), 4)
	w.PutUint(0, 10)
	w.PutBool(m.RAIM)
	w.PutUint(uint64(m.RadioStatus), 19)
}

// UTCInquiry asks a station for the current UTC time and date (message 10).
type UTCInquiry struct {
	Header
	Destination ais.MMSI `json:"destination"`
}

func parseUTCInquiry(h Header, r *sixbit.Reader) (Message, error) {
	r.Skip(2)
	result := UTCInquiry{
		Header:      h,
		Destination: ais.MMSI(r.Uint(30)),
	}
	r.Skip(2)
	return result, r.Err()
}

func (m UTCInquiry) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(0, 2)
	w.PutUint(uint64(m.Destination), 30)
	w.PutUint(0, 2)
}

// InterrogationRequest asks a station to transmit a message at the given slot offset.
type InterrogationRequest struct {
	Destination ais.MMSI `json:"destination"`
	MessageID   uint8    `json:"message_id"`
	SlotOffset  uint16   `json:"slot_offset"`
}

// Interrogation requests up to two messages from a first station and one message from a
// second station (message 15). The second request, if any, always addresses the first station.
type Interrogation struct {
	Header
	Requests []InterrogationRequest `json:"requests"`
}

func parseInterrogation(h Header, r *sixbit.Reader) (Message, error) {
	r.Skip(2)
	first := InterrogationRequest{
		Destination: ais.MMSI(r.Uint(30)),
		MessageID:   uint8(r.Uint(6)),
		SlotOffset:  uint16(r.Uint(12)),
	}
	result := Interrogation{
		Header:   h,
		Requests: []InterrogationRequest{first},
	}
	if r.Remaining() >= 20 {
		r.Skip(2)
		result.Requests = append(result.Requests, InterrogationRequest{
			Destination: first.Destination,
			MessageID:   uint8(r.Uint(6)),
			SlotOffset:  uint16(r.Uint(12)),
		})
	}
	if r.Remaining() >= 2 {
		r.Skip(2)
	}
	if r.Remaining() >= 48 {
		result.Requests = append(result.Requests, InterrogationRequest{
			Destination: ais.MMSI(r.Uint(30)),
			MessageID:   uint8(r.Uint(6)),
			SlotOffset:  uint16(r.Uint(12)),
		})
	}
	return result, r.Err()
}

func (m Interrogation) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	if len(m.Requests) < 1 || len(m.Requests) > 3 {
		w.Fail(fmt.Errorf("%w: %d interrogation requests, expected 1 to 3", sixbit.ErrOverflow, len(m.Requests)))
		return
	}
	if len(m.Requests) > 1 && m.Requests[1].Destination != m.Requests[0].Destination {
		w.Fail(fmt.Errorf("the second interrogation request must address the first station"))
		return
	}
	w.PutUint(0, 2)
	for i, request := range m.Requests {
		switch i {
		case 0, 2:
			w.PutUint(uint64(request.Destination), 30)
		case 1:
			w.PutUint(0, 2)
		}
		w.PutUint(uint64(request.MessageID), 6)
		w.PutUint(uint64(request.SlotOffset), 12)
		if i > 0 {
			w.PutUint(0, 2)
		}
	}
}

// SlotReservation reserves slots of the data link for base station use.
type SlotReservation struct {
	Offset    uint16 `json:"offset"`
	Slots     uint8  `json:"slots"`
	Timeout   uint8  `json:"timeout"`
	Increment uint16 `json:"increment"`
}

const slotReservationLength = 30

// DataLinkManagement announces up to four slot reservations (message 20).
type DataLinkManagement struct {
	Header
	Reservations []SlotReservation `json:"reservations"`
}

func parseDataLinkManagement(h Header, r *sixbit.Reader) (Message, error) {
	r.Skip(2)
	result := DataLinkManagement{Header: h}
	for len(result.Reservations) < 4 && r.Remaining() >= slotReservationLength {
		result.Reservations = append(result.Reservations, SlotReservation{
			Offset:    uint16(r.Uint(12)),
			Slots:     uint8(r.Uint(4)),
			Timeout:   uint8(r.Uint(3)),
			Increment: uint16(r.Uint(11)),
		})
	}
	return result, r.Err()
}

func (m DataLinkManagement) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	if len(m.Reservations) < 1 || len(m.Reservations) > 4 {
		w.Fail(fmt.Errorf("%w: %d slot reservations, expected 1 to 4", sixbit.ErrOverflow, len(m.Reservations)))
		return
	}
	w.PutUint(0, 2)
	for _, reservation := range m.Reservations {
		w.PutUint(uint64(reservation.Offset), 12)
		w.PutUint(uint64(reservation.Slots), 4)
		w.PutUint(uint64(reservation.Timeout), 3)
		w.PutUint(uint64(reservation.Increment), 11)
	}
	w.Align(8)
}
