package message

import (
	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/sixbit"
)

// Values signalling that a field is not available.
const (
	RateOfTurnNotAvailable int8   = -128
	SpeedNotAvailable      uint16 = 1023
	CourseNotAvailable     uint16 = 3600
	HeadingNotAvailable    uint16 = 511
	TimestampNotAvailable  uint8  = 60
	AltitudeNotAvailable   uint16 = 4095
)

func readPosition(r *sixbit.Reader) ais.Position {
	lon := int32(r.Int(28))
	lat := int32(r.Int(27))
	return ais.Position{Longitude: lon, Latitude: lat}
}

func writePosition(w *sixbit.Writer, p ais.Position) {
	w.PutInt(int64(p.Longitude), 28)
	w.PutInt(int64(p.Latitude), 27)
}

// PositionReport is the scheduled position report of class A stations (message 1, 2 and 3).
type PositionReport struct {
	Header
	NavigationStatus uint8        `json:"status"`
	RateOfTurn       int8         `json:"rot"`
	SpeedOverGround  uint16       `json:"sog"`
	PositionAccuracy bool         `json:"accuracy"`
	Position         ais.Position `json:"position"`
	CourseOverGround uint16       `json:"cog"`
	TrueHeading      uint16       `json:"heading"`
	Timestamp        uint8        `json:"second"`
	Maneuver         uint8        `json:"maneuver"`
	RAIM             bool         `json:"raim"`
	RadioStatus      uint32       `json:"radio"`
}

func parsePositionReport(h Header, r *sixbit.Reader) (Message, error) {
	result := PositionReport{
		Header:           h,
		NavigationStatus: uint8(r.Uint(4)),
		RateOfTurn:       int8(r.Int(8)),
		SpeedOverGround:  uint16(r.Uint(10)),
		PositionAccuracy: r.Bool(),
		Position:         readPosition(r),
		CourseOverGround: uint16(r.Uint(12)),
		TrueHeading:      uint16(r.Uint(9)),
		Timestamp:        uint8(r.Uint(6)),
		Maneuver:         uint8(r.Uint(2)),
	}
	r.Skip(3)
	result.RAIM = r.Bool()
	result.RadioStatus = uint32(r.Uint(19))
	return result, r.Err()
}

func (m PositionReport) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(uint64(m.NavigationStatus), 4)
	w.PutInt(int64(m.RateOfTurn), 8)
	w.PutUint(uint64(m.SpeedOverGround), 10)
	w.PutBool(m.PositionAccuracy)
	writePosition(w, m.Position)
	w.PutUint(uint64(m.CourseOverGround), 12)
	w.PutUint(uint64(m.TrueHeading), 9)
	w.PutUint(uint64(m.Timestamp), 6)
	w.PutUint(uint64(m.Maneuver), 2)
	w.PutUint(0, 3)
	w.PutBool(m.RAIM)
	w.PutUint(uint64(m.RadioStatus), 19)
}

// SARAircraftPosition is the position report of search and rescue aircraft (message 9).
type SARAircraftPosition struct {
	Header
	Altitude         uint16       `json:"altitude"`
	SpeedOverGround  uint16       `json:"sog"`
	PositionAccuracy bool         `json:"accuracy"`
	Position         ais.Position `json:"position"`
	CourseOverGround uint16       `json:"cog"`
	Timestamp        uint8        `json:"second"`
	Regional         uint8        `json:"regional"`
	DTE              bool         `json:"dte"`
	Assigned         bool         `json:"assigned"`
	RAIM             bool         `json:"raim"`
	RadioStatus      uint32       `json:"radio"`
}

func parseSARAircraftPosition(h Header, r *sixbit.Reader) (Message, error) {
	result := SARAircraftPosition{
		Header:           h,
		Altitude:         uint16(r.Uint(12)),
		SpeedOverGround:  uint16(r.Uint(10)),
		PositionAccuracy: r.Bool(),
		Position:         readPosition(r),
		CourseOverGround: uint16(r.Uint(12)),
		Timestamp:        uint8(r.Uint(6)),
		Regional:         uint8(r.Uint(8)),
		DTE:              r.Bool(),
	}
	r.Skip(3)
	result.Assigned = r.Bool()
	result.RAIM = r.Bool()
	result.RadioStatus = uint32(r.Uint(20))
	return result, r.Err()
}

func (m SARAircraftPosition) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(uint64(m.Altitude), 12)
	w.PutUint(uint64(m.SpeedOverGround), 10)
	w.PutBool(m.PositionAccuracy)
	writePosition(w, m.Position)
	w.PutUint(uint64(m.CourseOverGround), 12)
	w.PutUint(uint64(m.Timestamp), 6)
	w.PutUint(uint64(m.Regional), 8)
	w.PutBool(m.DTE)
	w.PutUint(0, 3)
	w.PutBool(m.Assigned)
	w.PutBool(m.RAIM)
	w.PutUint(uint64(m.RadioStatus), 20)
}

// ClassBPosition is the standard position report of class B stations (message 18).
type ClassBPosition struct {
	Header
	SpeedOverGround  uint16       `json:"sog"`
	PositionAccuracy bool         `json:"accuracy"`
	Position         ais.Position `json:"position"`
	CourseOverGround uint16       `json:"cog"`
	TrueHeading      uint16       `json:"heading"`
	Timestamp        uint8        `json:"second"`
	Regional         uint8        `json:"regional"`
	CSUnit           bool         `json:"cs"`
	Display          bool         `json:"display"`
	DSC              bool         `json:"dsc"`
	Band             bool         `json:"band"`
	Message22        bool         `json:"msg22"`
	Assigned         bool         `json:"assigned"`
	RAIM             bool         `json:"raim"`
	RadioStatus      uint32       `json:"radio"`
}

func parseClassBPosition(h Header, r *sixbit.Reader) (Message, error) {
	r.Skip(8)
	result := ClassBPosition{
		Header:           h,
		SpeedOverGround:  uint16(r.Uint(10)),
		PositionAccuracy: r.Bool(),
		Position:         readPosition(r),
		CourseOverGround: uint16(r.Uint(12)),
		TrueHeading:      uint16(r.Uint(9)),
		Timestamp:        uint8(r.Uint(6)),
		Regional:         uint8(r.Uint(2)),
		CSUnit:           r.Bool(),
		Display:          r.Bool(),
		DSC:              r.Bool(),
		Band:             r.Bool(),
		Message22:        r.Bool(),
		Assigned:         r.Bool(),
		RAIM:             r.Bool(),
		RadioStatus:      uint32(r.Uint(20)),
	}
	return result, r.Err()
}

func (m ClassBPosition) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(0, 8)
	w.PutUint(uint64(m.SpeedOverGround), 10)
	w.PutBool(m.PositionAccuracy)
	writePosition(w, m.Position)
	w.PutUint(uint64(m.CourseOverGround), 12)
	w.PutUint(uint64(m.TrueHeading), 9)
	w.PutUint(uint64(m.Timestamp), 6)
	w.PutUint(uint64(m.Regional), 2)
	w.PutBool(m.CSUnit)
	w.PutBool(m.Display)
	w.PutBool(m.DSC)
	w.PutBool(m.Band)
	w.PutBool(m.Message22)
	w.PutBool(m.Assigned)
	w.PutBool(m.RAIM)
	w.PutUint(uint64(m.RadioStatus), 20)
}

// ExtendedClassBPosition is the extended position report of class B stations (message 19).
type ExtendedClassBPosition struct {
	Header
	SpeedOverGround  uint16       `json:"sog"`
	PositionAccuracy bool         `json:"accuracy"`
	Position         ais.Position `json:"position"`
	CourseOverGround uint16       `json:"cog"`
	TrueHeading      uint16       `json:"heading"`
	Timestamp        uint8        `json:"second"`
	Regional         uint8        `json:"regional"`
	Name             string       `json:"name"`
	ShipType         uint8        `json:"ship_type"`
	Dimensions       Dimensions   `json:"dimensions"`
	FixType          uint8        `json:"epfd"`
	RAIM             bool         `json:"raim"`
	DTE              bool         `json:"dte"`
	Assigned         bool         `json:"assigned"`
}

func parseExtendedClassBPosition(h Header, r *sixbit.Reader) (Message, error) {
	r.Skip(8)
	result := ExtendedClassBPosition{
		Header:           h,
		SpeedOverGround:  uint16(r.Uint(10)),
		PositionAccuracy: r.Bool(),
		Position:         readPosition(r),
		CourseOverGround: uint16(r.Uint(12)),
		TrueHeading:      uint16(r.Uint(9)),
		Timestamp:        uint8(r.Uint(6)),
		Regional:         uint8(r.Uint(4)),
		Name:             r.Text(20),
		ShipType:         uint8(r.Uint(8)),
		Dimensions:       readDimensions(r),
		FixType:          uint8(r.Uint(4)),
		RAIM:             r.Bool(),
		DTE:              r.Bool(),
		Assigned:         r.Bool(),
	}
	r.Skip(4)
	return result, r.Err()
}

func (m ExtendedClassBPosition) Encode(w *sixbit.Writer) {
	m.Header.encode(w)
	w.PutUint(0, 8)
	w.PutUint(uint64(m.SpeedOverGround), 10)
	w.PutBool(m.PositionAccuracy)
	writePosition(w, m.Position)
	w.PutUint(uint64(m.CourseOverGround), 12)
	w.PutUint(uint64(m.TrueHeading), 9)
	w.PutUint(uint64(m.Timestamp), 6)
	w.PutUint(uint64(m.Regional), 4)
	w.PutText(m.Name, 20)
	w.PutUint(uint64(m.ShipType), 8)
	m.Dimensions.encode(w)
	w.PutUint(uint64(m.FixType), 4)
	w.PutBool(m.RAIM)
	w.PutBool(m.DTE)
	w.PutBool(m.Assigned)
	w.PutUint(0, 4)
}
