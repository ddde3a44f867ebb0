package domain

import (
	"cmp"
	"math"
	"slices"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distances.
const EarthRadiusMiles = 3959.0

// Haversine returns the great-circle distance between a and b in miles.
func Haversine(a, b Coordinates) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMiles * c
}

// Ranker selects events relevant to one district and orders them: exact tag
// matches first, then nearby events by ascending distance.
type Ranker struct {
	// ExactTag marks an event as belonging to the district, e.g. "ca45".
	ExactTag string
	// District, when set, overrides the label of exact matches.
	District       string
	Center         Coordinates
	ThresholdMiles float64
}

// Rank returns ranked copies of the relevant events. Events without the exact
// tag that lack coordinates or lie beyond the threshold are dropped. Ties keep
// input order.
func (r Ranker) Rank(events []ProcessedEvent) []ProcessedEvent {
	out := make([]ProcessedEvent, 0, len(events))
	for _, ev := range events {
		if HasTag(ev.Tags, r.ExactTag) {
			ev.MatchType = MatchExact
			ev.Distance = ptr(0.0)
			if r.District != "" {
				ev.District = r.District
			}
			out = append(out, ev)
			continue
		}

		if ev.Coordinates == nil {
			continue
		}
		d := Haversine(*ev.Coordinates, r.Center)
		if d > r.ThresholdMiles {
			continue
		}
		ev.MatchType = MatchNearby
		ev.Distance = ptr(roundTenth(d))
		out = append(out, ev)
	}

	slices.SortStableFunc(out, func(a, b ProcessedEvent) int {
		if c := cmp.Compare(matchRank(a.MatchType), matchRank(b.MatchType)); c != 0 {
			return c
		}
		return cmp.Compare(*a.Distance, *b.Distance)
	})
	return out
}

func matchRank(m MatchType) int {
	if m == MatchExact {
		return 0
	}
	return 1
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr[T any](v T) *T {
	return &v
}
