package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TimeTBD is displayed when a timeslot time cannot be parsed.
const TimeTBD = "Time TBD"

// timeOfDayLayout renders e.g. "9:00 AM", "12:30 PM".
const timeOfDayLayout = "3:04 PM"

// Unix seconds outside this range do not map to a four-digit year and are
// treated as unparseable.
const (
	minUnixSeconds = -62135596800 // 0001-01-01T00:00:00Z
	maxUnixSeconds = 253402300799 // 9999-12-31T23:59:59Z
)

// naiveLayouts are accepted after RFC 3339 fails. They carry no offset and are
// interpreted in the display zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// DateTime is a timeslot boundary. The API returns Unix seconds; older payloads
// and fixtures use ISO-8601 strings. The raw string is kept so the calendar
// date can be taken verbatim from it.
type DateTime struct {
	Raw  string
	Unix *int64
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	*d = DateTime{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		d.Raw = strings.TrimSpace(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || f < minUnixSeconds || f > maxUnixSeconds {
		return nil
	}
	secs := int64(f)
	d.Unix = &secs
	return nil
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	switch {
	case d.Unix != nil:
		return json.Marshal(*d.Unix)
	case d.Raw != "":
		return json.Marshal(d.Raw)
	default:
		return []byte("null"), nil
	}
}

// Present reports whether the upstream sent any value.
func (d DateTime) Present() bool {
	return d.Unix != nil || d.Raw != ""
}

// Date returns the calendar date (YYYY-MM-DD). For string values this is the
// first 10 characters of the date part, so the source's own offset decides the
// day. Unix values are rendered in zone (UTC when nil).
func (d DateTime) Date(zone *time.Location) (string, bool) {
	if d.Unix != nil {
		return time.Unix(*d.Unix, 0).In(zoneOrUTC(zone)).Format(time.DateOnly), true
	}
	if d.Raw == "" {
		return "", false
	}
	date, _, _ := strings.Cut(d.Raw, "T")
	if len(date) > 10 {
		date = date[:10]
	}
	return date, date != ""
}

// TimeOfDay formats the value as a 12-hour clock time. Values that do not
// parse yield TimeTBD.
func (d DateTime) TimeOfDay(zone *time.Location) string {
	t, ok := d.parse(zone)
	if !ok {
		return TimeTBD
	}
	if zone != nil {
		t = t.In(zone)
	}
	return t.Format(timeOfDayLayout)
}

func (d DateTime) parse(zone *time.Location) (time.Time, bool) {
	if d.Unix != nil {
		return time.Unix(*d.Unix, 0).In(zoneOrUTC(zone)), true
	}
	if d.Raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, d.Raw); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, d.Raw, zoneOrUTC(zone)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func zoneOrUTC(zone *time.Location) *time.Location {
	if zone == nil {
		return time.UTC
	}
	return zone
}
