package asm

import (
	"github.com/ftl/ais-nmea/ais"
	"github.com/ftl/ais-nmea/sixbit"
)

// Keys of the route information.
var (
	RouteBroadcastKey = Key{DAC: International, FI: 27}
	RouteAddressedKey = Key{DAC: International, FI: 28}
)

const waypointLength = 55

// Route types.
const (
	RouteUndefined      uint8 = 0
	RouteMandatory      uint8 = 1
	RouteRecommended    uint8 = 2
	RouteAlternative    uint8 = 3
	RouteRecommendedIce uint8 = 4
	RouteShipRoutePlan  uint8 = 5
)

// Sender classes.
const (
	SenderShip      uint8 = 0
	SenderAuthority uint8 = 1
)

// RouteInformation announces a route as a list of waypoints.
type RouteInformation struct {
	Addressed   bool      `json:"addressed"`
	LinkID      uint16    `json:"link_id"`
	SenderClass uint8     `json:"sender_class"`
	RouteType   uint8     `json:"route_type"`
	Start       Timestamp `json:"start"`
	// Duration in minutes.
	Duration  uint32         `json:"duration"`
	Waypoints []ais.Position `json:"waypoints"`
}

func (m RouteInformation) Key() Key {
	if m.Addressed {
		return RouteAddressedKey
	}
	return RouteBroadcastKey
}

func (m RouteInformation) Encode(w *sixbit.Writer) {
	w.PutUint(uint64(m.LinkID), 10)
	w.PutUint(uint64(m.SenderClass), 3)
	w.PutUint(uint64(m.RouteType), 5)
	m.Start.encode(w)
	w.PutUint(uint64(m.Duration), 18)
	for _, p := range m.Waypoints {
		w.PutInt(int64(p.Longitude), 28)
		w.PutInt(int64(p.Latitude), 27)
	}
}

func decodeRouteInformation(addressed bool) DecoderFunc {
	return func(r *sixbit.Reader) (Message, error) {
		result := RouteInformation{
			Addressed:   addressed,
			LinkID:      uint16(r.Uint(10)),
			SenderClass: uint8(r.Uint(3)),
			RouteType:   uint8(r.Uint(5)),
			Start:       readTimestamp(r),
			Duration:    uint32(r.Uint(18)),
		}
		if r.Err() != nil {
			return nil, r.Err()
		}
		count, err := repeated(r, waypointLength)
		if err != nil {
			return nil, err
		}
		result.Waypoints = make([]ais.Position, count)
		for i := range result.Waypoints {
			result.Waypoints[i].Longitude = int32(r.Int(28))
			result.Waypoints[i].Latitude = int32(r.Int(27))
		}
		return result, r.Err()
	}
}
