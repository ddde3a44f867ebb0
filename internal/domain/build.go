package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// LocationTBD is shown when an event has neither venue nor address.
	LocationTBD = "Location TBD"

	// DefaultTitle is used for untitled events.
	DefaultTitle = "Field Team 6 Voter Drive"
)

// BuildOptions controls presentation details of built events.
type BuildOptions struct {
	// EventURLBase is the public site root, e.g. "https://www.mobilize.us".
	EventURLBase string
	// Org is the organization slug used in event deep links.
	Org          string
	DefaultTitle string
	// Zone renders times; nil keeps each timestamp's own offset.
	Zone *time.Location
}

// PlaceOf extracts the location signal of a raw event.
func PlaceOf(raw RawEvent) Place {
	if raw.Location == nil {
		return Place{}
	}
	return Place{
		City:        strings.TrimSpace(raw.Location.Locality),
		State:       strings.TrimSpace(raw.Location.Region),
		Coordinates: raw.Location.Coordinates(),
	}
}

// BuildEvent assembles the listing entry for an eligible raw event. place is
// normally PlaceOf(raw), possibly enriched by geocoding; district is the
// resolver's label for it. Fields that fail to parse are defaulted or omitted.
func BuildEvent(raw RawEvent, place Place, district string, opts BuildOptions) ProcessedEvent {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = opts.DefaultTitle
		if title == "" {
			title = DefaultTitle
		}
	}

	ev := ProcessedEvent{
		ID:          raw.ID,
		Title:       title,
		Description: raw.Description,
		Location:    displayLocation(raw.Location),
		City:        place.City,
		State:       place.State,
		District:    district,
		Coordinates: place.Coordinates,
		SourceURL:   eventURL(opts, raw.ID),
		Tags:        tagNames(raw.Tags),
	}
	if raw.Location != nil {
		ev.ZipCode = strings.TrimSpace(raw.Location.PostalCode)
	}
	ev.IsVirtual = strings.Contains(strings.ToLower(ev.Location), "virtual")

	if len(raw.Timeslots) > 0 {
		first := raw.Timeslots[0]
		if date, ok := first.StartDate.Date(opts.Zone); ok {
			ev.Date = &date
		}
		if first.StartDate.Present() {
			ev.StartTime = ptr(first.StartDate.TimeOfDay(opts.Zone))
		}
		if first.EndDate.Present() {
			ev.EndTime = ptr(first.EndDate.TimeOfDay(opts.Zone))
		}
	}

	return ev
}

// Listable reports whether a built event can be shown: it needs a date and
// either coordinates or a city to place it.
func Listable(ev ProcessedEvent) bool {
	return ev.Date != nil && (ev.Coordinates != nil || ev.City != "")
}

func displayLocation(loc *RawLocation) string {
	if loc == nil {
		return LocationTBD
	}
	if venue := strings.TrimSpace(loc.Venue); venue != "" {
		return venue
	}
	if len(loc.AddressLines) > 0 {
		if line := strings.TrimSpace(loc.AddressLines[0]); line != "" {
			return line
		}
	}
	return LocationTBD
}

func eventURL(opts BuildOptions, id int64) string {
	base := strings.TrimRight(opts.EventURLBase, "/")
	if base == "" {
		base = "https://www.mobilize.us"
	}
	if opts.Org == "" {
		return fmt.Sprintf("%s/event/%d/", base, id)
	}
	return fmt.Sprintf("%s/%s/event/%d/", base, opts.Org, id)
}

func tagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if name := strings.TrimSpace(t.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
