package message

import (
	"fmt"

	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/sixbit"
)

// Dimensions of a ship or aid to navigation in meters, measured from the reference point of the position.
type Dimensions struct {
	Bow       uint16 `json:"bow"`
	Stern     uint16 `json:"stern"`
	Port      uint8  `json:"port"`
	Starboard uint8  `json:"starboard"`
}

func readDimensions(r *sixbit.Reader) Dimensions {
	return Dimensions{
		Bow:       uint16(r.Uint(9)),
		Stern:     uint16(r.Uint(9)),
		Port:      uint8(r.Uint(6)),
		Starboard: uint8(r.Uint(6)),
	}
}

func (d Dimensions) encode(w *sixbit.Writer) {
	w.PutUint(uint64(d.Bow), 9)
	w.PutUint(uint64(d.Stern), 9)
	w.PutUint(uint64(d.Port), 6)
	w.PutUint(uint64(d.Starboard), 6)
}

// ETA is the estimated time of arrival, without year.
type ETA struct {
	Month  uint8 `json:"month"`
	Day    uint8 `json:"day"`
	Hour   uint8 `json:"hour"`
	Minute uint8 `json:"minute"`
}

// StaticVoyageData is the static and voyage related data of class A stations (message 5).
type StaticVoyageData struct {
	Header
	AISVersion  uint8      `json:"ais_version"`
	IMO         uint32     `json:"imo"`
	CallSign    string     `json:"callsign"`
	Name        string     `json:"name"`
	ShipType    uint8      `json:"ship_type"`
	Dimensions  Dimensions `json:"dimensions"`
	FixType     uint8      `json:"epfd"`
	ETA         ETA        `json:"eta"`
	Draught     uint8      `json:"draught"`
	Destination string     `json:"destination"`
	DTE         bool       `json:"dte"`
}

func parseStaticVoyageData(h Header, r *sixbit.Reader) (Message, error) {
	result := StaticVoyageData{
		Header:     h,
		AISVersion: uint8(r.Uint(2)),
		IMO:        uint32(r.Uint(30)),
		CallSign:   r.Text(7),
		Name:       r.Text(20),
		ShipType:   uint8(r.Uint(8)),
		Dimensions: readDimensions(r),
		FixType:    uint8(r.Uint(4)),
		ETA: ETA{
			Month:  uint8(r.Uint(4)),
			Day:    uint8(r.Uint(5)),
			Hour:   uint8(r.Uint(5)),
			Minute: uint8(r.Uint(6)),
		},
		Draught:     uint8(r.Uint(8)),
		Destination: r.Text(20),
		DTE:         r.Bool(),
	}
	r.Skip(1)
	return result, r.Err()
}

func (m StaticVoyageData) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(uint64(m.AISVersion), 2)
	w.PutUint(uint64(m.IMO), 30)
	w.PutText(m.CallSign, 7)
	w.PutText(m.Name, 20)
	w.PutUint(uint64(m.ShipType), 8)
	m.Dimensions.encode(w)
	w.PutUint(uint64(m.FixType), 4)
	w.PutUint(uint64(m.ETA.Month), 4)
	w.PutUint(uint64(m.ETA.Day), 5)
	w.PutUint(uint64(m.ETA.Hour), 5)
	w.PutUint(uint64(m.ETA.Minute), 6)
	w.PutUint(uint64(m.Draught), 8)
	w.PutText(m.Destination, 20)
	w.PutBool(m.DTE)
	w.PutUint(0, 1)
}

// StaticDataReport is the static data of class B stations (message 24). Part A carries the
// name, part B the remaining static data.
type StaticDataReport struct {
	Header
	PartNumber uint8      `json:"part"`
	Name       string     `json:"name,omitempty"`
	ShipType   uint8      `json:"ship_type,omitempty"`
	VendorID   uint64     `json:"vendor_id,omitempty"`
	CallSign   string     `json:"callsign,omitempty"`
	Dimensions Dimensions `json:"dimensions"`
}

// The parts of message 24.
const (
	PartA uint8 = 0
	PartB uint8 = 1
)

func parseStaticDataReport(h Header, r *sixbit.Reader) (Message, error) {
	result := StaticDataReport{
		Header:     h,
		PartNumber: uint8(r.Uint(2)),
	}
	switch result.PartNumber {
	case PartA:
		result.Name = r.Text(20)
	case PartB:
		result.ShipType = uint8(r.Uint(8))
		result.VendorID = r.Uint(42)
		result.CallSign = r.Text(7)
		result.Dimensions = readDimensions(r)
		r.Skip(6)
	default:
		return nil, fmt.Errorf("invalid part number %d", result.PartNumber)
	}
	return result, r.Err()
}

func (m StaticDataReport) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(uint64(m.PartNumber), 2)
	switch m.PartNumber {
	case PartA:
		w.PutText(m.Name, 20)
	case PartB:
		w.PutUint(uint64(m.ShipType), 8)
		w.PutUint(m.VendorID, 42)
		w.PutText(m.CallSign, 7)
		m.Dimensions.encode(w)
		w.PutUint(0, 6)
	default:
		w.Fail(fmt.Errorf("invalid part number %d", m.PartNumber))
	}
}

// AidToNavigation is the report of an aid to navigation (message 21).
type AidToNavigation struct {
	Header
	AidType          uint8        `json:"aid_type"`
	Name             string       `json:"name"`
	PositionAccuracy bool         `json:"accuracy"`
	Position         ais.Position `json:"position"`
	Dimensions       Dimensions   `json:"dimensions"`
	FixType          uint8        `json:"epfd"`
	Timestamp        uint8        `json:"second"`
	OffPosition      bool         `json:"off_position"`
	Regional         uint8        `json:"regional"`
	RAIM             bool         `json:"raim"`
	Virtual          bool         `json:"virtual"`
	Assigned         bool         `json:"assigned"`
	NameExtension    string       `json:"name_extension,omitempty"`
}

const maxNameExtension = 14

func parseAidToNavigation(h Header, r *sixbit.Reader) (Message, error) {
	result := AidToNavigation{
		Header:           h,
		AidType:          uint8(r.Uint(5)),
		Name:             r.Text(20),
		PositionAccuracy: r.Bool(),
		Position:         readPosition(r),
		Dimensions:       readDimensions(r),
		FixType:          uint8(r.Uint(4)),
		Timestamp:        uint8(r.Uint(6)),
		OffPosition:      r.Bool(),
		Regional:         uint8(r.Uint(8)),
		RAIM:             r.Bool(),
		Virtual:          r.Bool(),
		Assigned:         r.Bool(),
	}
	r.Skip(1)
	if r.Remaining() >= 6 {
		result.NameExtension = r.Text(r.Remaining() / 6)
	}
	return result, r.Err()
}

func (m AidToNavigation) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(uint64(m.AidType), 5)
	w.PutText(m.Name, 20)
	w.PutBool(m.PositionAccuracy)
	writePosition(w, m.Position)
	m.Dimensions.encode(w)
	w.PutUint(uint64(m.FixType), 4)
	w.PutUint(uint64(m.Timestamp), 6)
	w.PutBool(m.OffPosition)
	w.PutUint(uint64(m.Regional), 8)
	w.PutBool(m.RAIM)
	w.PutBool(m.Virtual)
	w.PutBool(m.Assigned)
	w.PutUint(0, 1)
	w.PutText(m.NameExtension, min(len(m.NameExtension), maxNameExtension))
	if len(m.NameExtension) > 0 {
		w.Align(8)
	}
}
