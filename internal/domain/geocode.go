package domain

import (
	"context"
	"log/slog"
)

// Geo sources recorded on enriched events.
const (
	GeoSourceForward = "forward"
	GeoSourceReverse = "reverse"
)

// EnrichPlace fills the gaps in a place using the geocoder: coordinates for a
// city-only place, a city for a coordinates-only place. It returns the place
// and the geo source that supplied data ("" when nothing changed). A nil
// geocoder or a failed lookup leaves the place as it was.
func EnrichPlace(ctx context.Context, eventID int64, place Place, geocoder Geocoder, logger *slog.Logger) (Place, string) {
	if geocoder == nil {
		return place, ""
	}

	switch {
	case place.Coordinates == nil && place.City != "":
		result, err := geocoder.ForwardGeocode(ctx, place.City, place.State)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"event_id", eventID,
				"city", place.City,
				"state", place.State,
				"error", err,
			)
			return place, ""
		}
		if result.Lat == 0 && result.Lng == 0 {
			return place, ""
		}
		place.Coordinates = &Coordinates{Lat: result.Lat, Lng: result.Lng}
		return place, GeoSourceForward

	case place.Coordinates != nil && place.City == "":
		result, err := geocoder.ReverseGeocode(ctx, place.Coordinates.Lat, place.Coordinates.Lng)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"event_id", eventID,
				"lat", place.Coordinates.Lat,
				"lng", place.Coordinates.Lng,
				"error", err,
			)
			return place, ""
		}
		if result.PlaceName == "" {
			return place, ""
		}
		place.City = result.PlaceName
		return place, GeoSourceReverse
	}

	return place, ""
}
