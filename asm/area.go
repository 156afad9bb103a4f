package asm

import (
	"github.com/ftl/ais-nmea/sixbit"
)

// Keys of the area notice.
var (
	AreaNoticeBroadcastKey = Key{DAC: International, FI: 22}
	AreaNoticeAddressedKey = Key{DAC: International, FI: 23}
)

const (
	areaNoticeHeaderLength = 55
	subAreaLength          = 87
)

// Shapes of sub-areas.
const (
	ShapeCircle    uint8 = 0
	ShapeRectangle uint8 = 1
	ShapeSector    uint8 = 2
	ShapePolyline  uint8 = 3
	ShapePolygon   uint8 = 4
	ShapeText      uint8 = 5
)

// AreaNotice informs about an area and the reason for the notice.
type AreaNotice struct {
	Addressed bool      `json:"addressed"`
	LinkID    uint16    `json:"link_id"`
	Notice    uint8     `json:"notice"`
	Start     Timestamp `json:"start"`
	// Duration in minutes.
	Duration uint32    `json:"duration"`
	SubAreas []SubArea `json:"sub_areas"`
}

// SubArea is one element of the area, positions are in 1/1000 minute.
type SubArea struct {
	Shape      uint8  `json:"shape"`
	Scale      uint8  `json:"scale"`
	Longitude  int32  `json:"lon"`
	Latitude   int32  `json:"lat"`
	Precision  uint8  `json:"precision"`
	Radius     uint16 `json:"radius"`
	LeftBound  uint16 `json:"left_bound"`
	RightBound uint16 `json:"right_bound"`
}

func (m AreaNotice) Key() Key {
	if m.Addressed {
		return AreaNoticeAddressedKey
	}
	return AreaNoticeBroadcastKey
}

func (m AreaNotice) Encode(w *sixbit.Writer) {
	w.PutUint(uint64(m.LinkID), 10)
	w.PutUint(uint64(m.Notice), 7)
	m.Start.encode(w)
	w.PutUint(uint64(m.Duration), 18)
	for _, a := range m.SubAreas {
		w.PutUint(uint64(a.Shape), 3)
		w.PutUint(uint64(a.Scale), 2)
		w.PutInt(int64(a.Longitude), 25)
		w.PutInt(int64(a.Latitude), 24)
		w.PutUint(uint64(a.Precision), 3)
		w.PutUint(uint64(a.Radius), 12)
		w.PutUint(uint64(a.LeftBound), 9)
		w.PutUint(uint64(a.RightBound), 9)
	}
}

func decodeAreaNotice(addressed bool) DecoderFunc {
	return func(r *sixbit.Reader) (Message, error) {
		result := AreaNotice{
			Addressed: addressed,
			LinkID:    uint16(r.Uint(10)),
			Notice:    uint8(r.Uint(7)),
			Start:     readTimestamp(r),
			Duration:  uint32(r.Uint(18)),
		}
		if r.Err() != nil {
			return nil, r.Err()
		}
		count, err := repeated(r, subAreaLength)
		if err != nil {
			return nil, err
		}
		result.SubAreas = make([]SubArea, count)
		for i := range result.SubAreas {
			result.SubAreas[i] = SubArea{
				Shape:      uint8(r.Uint(3)),
				Scale:      uint8(r.Uint(2)),
				Longitude:  int32(r.Int(25)),
				Latitude:   int32(r.Int(24)),
				Precision:  uint8(r.Uint(3)),
				Radius:     uint16(r.Uint(12)),
				LeftBound:  uint16(r.Uint(9)),
				RightBound: uint16(r.Uint(9)),
			}
		}
		return result, r.Err()
	}
}
