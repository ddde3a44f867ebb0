package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawEvent is a single element of the Mobilize events listing ("data" array).
// Only the fields the pipeline reads are modeled.
type RawEvent struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	EventType   string       `json:"event_type"`
	Tags        []Tag        `json:"tags"`
	Location    *RawLocation `json:"location"`
	Timeslots   []Timeslot   `json:"timeslots"`
}

// UnmarshalJSON requires an object with a numeric id. Any other field with an
// unexpected type decodes to its zero value so the event is still processed.
func (e *RawEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          int64           `json:"id"`
		Title       json.RawMessage `json:"title"`
		Description json.RawMessage `json:"description"`
		EventType   json.RawMessage `json:"event_type"`
		Tags        json.RawMessage `json:"tags"`
		Location    json.RawMessage `json:"location"`
		Timeslots   json.RawMessage `json:"timeslots"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = RawEvent{
		ID:          raw.ID,
		Title:       decodeLoose[string](raw.Title),
		Description: decodeLoose[string](raw.Description),
		EventType:   decodeLoose[string](raw.EventType),
		Tags:        decodeLoose[[]Tag](raw.Tags),
		Location:    decodeLoose[*RawLocation](raw.Location),
		Timeslots:   decodeLoose[[]Timeslot](raw.Timeslots),
	}
	return nil
}

// decodeLoose decodes data into a T, or returns the zero T when data is
// absent or has the wrong shape.
func decodeLoose[T any](data json.RawMessage) T {
	var v T
	if len(data) == 0 {
		return v
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

// decodeStrings keeps the string elements of a JSON array and drops the rest.
func decodeStrings(data json.RawMessage) []string {
	elems := decodeLoose[[]json.RawMessage](data)
	if elems == nil {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, elem := range elems {
		var s string
		if err := json.Unmarshal(elem, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// Tag is an event tag. Mobilize has shipped both {"name": ...} and
// {"id": ..., "tag": {"id": ..., "name": ...}} shapes; both decode to Name.
type Tag struct {
	Name string
}

// UnmarshalJSON accepts either tag shape, or a bare string. Anything else
// yields an empty tag rather than failing the whole event.
func (t *Tag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			t.Name = s
		}
	case '{':
		var obj struct {
			Name string `json:"name"`
			Tag  *struct {
				Name string `json:"name"`
			} `json:"tag"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			t.Name = obj.Name
			if t.Name == "" && obj.Tag != nil {
				t.Name = obj.Tag.Name
			}
		}
	}
	return nil
}

// MarshalJSON writes the flat {"name": ...} shape.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
	}{t.Name})
}

// RawLocation is the upstream location block. Coordinates arrive either nested
// under "location" (current API) or flat on the block (older payloads).
type RawLocation struct {
	Venue        string        `json:"venue"`
	AddressLines []string      `json:"address_lines"`
	Locality     string        `json:"locality"`
	Region       string        `json:"region"`
	PostalCode   string        `json:"postal_code"`
	Latitude     OptionalFloat `json:"latitude"`
	Longitude    OptionalFloat `json:"longitude"`
	Point        *RawPoint     `json:"location"`
}

// RawPoint is the nested coordinate pair of a RawLocation.
type RawPoint struct {
	Latitude  OptionalFloat `json:"latitude"`
	Longitude OptionalFloat `json:"longitude"`
}

// UnmarshalJSON requires an object. Text fields and address lines of the
// wrong type are left empty.
func (l *RawLocation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Venue        json.RawMessage `json:"venue"`
		AddressLines json.RawMessage `json:"address_lines"`
		Locality     json.RawMessage `json:"locality"`
		Region       json.RawMessage `json:"region"`
		PostalCode   json.RawMessage `json:"postal_code"`
		Latitude     OptionalFloat   `json:"latitude"`
		Longitude    OptionalFloat   `json:"longitude"`
		Point        json.RawMessage `json:"location"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*l = RawLocation{
		Venue:        decodeLoose[string](raw.Venue),
		AddressLines: decodeStrings(raw.AddressLines),
		Locality:     decodeLoose[string](raw.Locality),
		Region:       decodeLoose[string](raw.Region),
		PostalCode:   decodeLoose[string](raw.PostalCode),
		Latitude:     raw.Latitude,
		Longitude:    raw.Longitude,
		Point:        decodeLoose[*RawPoint](raw.Point),
	}
	return nil
}

// Coordinates returns the location's point when both halves parsed.
func (l *RawLocation) Coordinates() *Coordinates {
	if l == nil {
		return nil
	}
	if l.Latitude.Valid && l.Longitude.Valid {
		return &Coordinates{Lat: l.Latitude.Value, Lng: l.Longitude.Value}
	}
	if l.Point != nil && l.Point.Latitude.Valid && l.Point.Longitude.Valid {
		return &Coordinates{Lat: l.Point.Latitude.Value, Lng: l.Point.Longitude.Value}
	}
	return nil
}

// OptionalFloat decodes a JSON number or numeric string. Null, empty and
// non-numeric values leave Valid false without returning an error.
type OptionalFloat struct {
	Value float64
	Valid bool
}

func (f *OptionalFloat) UnmarshalJSON(data []byte) error {
	*f = OptionalFloat{}
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*f = OptionalFloat{Value: v, Valid: true}
	return nil
}

func (f OptionalFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Timeslot is one scheduled occurrence of an event.
type Timeslot struct {
	StartDate DateTime `json:"start_date"`
	EndDate   DateTime `json:"end_date"`
}

// Coordinates is a WGS-84 point. It serializes as a [lat, lng] pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Lat, c.Lng})
}

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Lat, c.Lng = pair[0], pair[1]
	return nil
}

// Place is the location signal used for district resolution and geocoding.
type Place struct {
	City        string
	State       string
	Coordinates *Coordinates
}

// MatchType classifies how an event relates to the target district.
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchNearby MatchType = "nearby"
)

// ProcessedEvent is the normalized event returned to the frontend. JSON field
// names are part of the external contract.
type ProcessedEvent struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Location    string       `json:"location"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	ZipCode     string       `json:"zipCode"`
	District    string       `json:"district"`
	Date        *string      `json:"date"`
	StartTime   *string      `json:"startTime"`
	EndTime     *string      `json:"endTime"`
	Coordinates *Coordinates `json:"coordinates"`
	SourceURL   string       `json:"sourceUrl"`
	IsVirtual   bool         `json:"isVirtual"`
	Tags        []string     `json:"tags"`

	// Set only when geocoding enrichment supplied data: "forward" or "reverse".
	GeoSource string `json:"geoSource,omitempty"`

	// Proximity ranking fields.
	MatchType MatchType `json:"matchType,omitempty"`
	Distance  *float64  `json:"distance,omitempty"`
}
