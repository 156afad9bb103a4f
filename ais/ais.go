package ais

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MMSI is the Maritime Mobile Service Identity of a station, 30 bits on the air.
type MMSI uint32

// Broadcast is the destination MMSI used when a message is not addressed to a particular station.
const Broadcast MMSI = 0

// MaxMMSI is the largest value that fits into the 30 bit MMSI field.
const MaxMMSI MMSI = 1<<30 - 1

// ParseMMSI parses the decimal representation of an MMSI. An empty string is the broadcast MMSI.
func ParseMMSI(s string) (MMSI, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Broadcast, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid MMSI %q: %w", s, err)
	}
	if MMSI(v) > MaxMMSI {
		return 0, fmt.Errorf("invalid MMSI %q: exceeds 30 bits", s)
	}
	return MMSI(v), nil
}

func (m MMSI) String() string {
	return fmt.Sprintf("%09d", uint32(m))
}

// MID returns the maritime identification digits, which identify the flag state of a ship station.
func (m MMSI) MID() string {
	return m.String()[:3]
}

// Channel identifies the VHF data link channel a message was received on or should be sent on.
type Channel string

// The AIS channels.
const (
	ChannelNone Channel = ""
	ChannelA    Channel = "A"
	ChannelB    Channel = "B"
)

// Resolution of positions, in units per degree (1/10000 minute).
const positionScale = 600000

// The raw values signalling that no position is available.
const (
	LongitudeNotAvailable int32 = 181 * positionScale
	LatitudeNotAvailable  int32 = 91 * positionScale
)

// Position is a geographic position in the raw resolution of position reports (1/10000 minute).
type Position struct {
	Longitude int32 `json:"lon"`
	Latitude  int32 `json:"lat"`
}

// NoPosition is the position reported by stations without a position fix.
var NoPosition = Position{Longitude: LongitudeNotAvailable, Latitude: LatitudeNotAvailable}

// PositionFromDegrees converts decimal degrees into raw position units.
func PositionFromDegrees(lat, lon float64) Position {
	return Position{
		Longitude: int32(math.Round(lon * positionScale)),
		Latitude:  int32(math.Round(lat * positionScale)),
	}
}

// Degrees returns the position in decimal degrees.
func (p Position) Degrees() (lat, lon float64) {
	return float64(p.Latitude) / positionScale, float64(p.Longitude) / positionScale
}

// Available reports whether the position carries a valid fix.
func (p Position) Available() bool {
	return p.Longitude != LongitudeNotAvailable && p.Latitude != LatitudeNotAvailable
}

func (p Position) String() string {
	if !p.Available() {
		return "n/a"
	}
	lat, lon := p.Degrees()
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}
