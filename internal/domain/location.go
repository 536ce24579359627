package domain

import "strings"

// TableLocation identifies the seating zone a table belongs to. Each zone
// carries fixed policy attributes looked up from a closed table.
type TableLocation string

const (
	LocationWindow      TableLocation = "WINDOW"
	LocationIndoor      TableLocation = "INDOOR"
	LocationTerrace     TableLocation = "TERRACE"
	LocationPrivateRoom TableLocation = "PRIVATE_ROOM"
)

// privateRoomMinimumParty is the smallest party admitted to a private room.
const privateRoomMinimumParty = 4

type locationPolicy struct {
	outdoor          bool
	weatherDependent bool
	minimumParty     int // 0 means no minimum
}

var locationTable = map[TableLocation]locationPolicy{
	LocationWindow:      {},
	LocationIndoor:      {},
	LocationTerrace:     {outdoor: true, weatherDependent: true},
	LocationPrivateRoom: {minimumParty: privateRoomMinimumParty},
}

// IsValid reports whether l is one of the closed set of zones.
func (l TableLocation) IsValid() bool {
	_, ok := locationTable[l]
	return ok
}

// Outdoor reports whether the zone is open-air seating.
func (l TableLocation) Outdoor() bool {
	return locationTable[l].outdoor
}

// WeatherDependent reports whether bookings in the zone are subject to a
// weather advisory.
func (l TableLocation) WeatherDependent() bool {
	return locationTable[l].weatherDependent
}

// MinimumPartySize returns the smallest admissible party for the zone, or 0
// when the zone has no minimum.
func (l TableLocation) MinimumPartySize() int {
	return locationTable[l].minimumParty
}

// RequiresMinimumParty reports whether the zone enforces a minimum party size.
func (l TableLocation) RequiresMinimumParty() bool {
	return locationTable[l].minimumParty > 0
}

// NormalizeLocation returns the canonical TableLocation for raw input, or
// false when the value is not part of the closed set.
func NormalizeLocation(raw string) (TableLocation, bool) {
	l := TableLocation(strings.ToUpper(strings.TrimSpace(raw)))
	if l.IsValid() {
		return l, true
	}
	return "", false
}
