// Package domain models voter registration drive events published on Mobilize
// and the rules that turn them into map listings.
//
// # Data Source
//
// Events come from the Mobilize public API,
// https://api.mobilize.us/v1/organizations/{org}/events. The response body is
// {"data": [event, ...]}. Each event carries tags, an optional location block
// and an ordered list of timeslots. Timeslot boundaries are Unix seconds in the
// current API; ISO-8601 strings are also accepted. See [DateTime].
//
// # Pipeline Rules
//
// Classification:
//
//	A [Policy] decides which events belong to the campaign. [TagExact] matches a
//	single tag name, [TagSubstring] matches tag fragments or keywords in the
//	title/description/event type, [Unfiltered] accepts any tagged event (debug
//	only). Events without a location or without timeslots are never listed.
//
// Districts:
//
//	A [DistrictResolver] turns a city/state pair into an approximate
//	congressional district label:
//
//	  "CA-49"    city found in the table
//	  "CA-??"    state known, seat unknown
//	  "AK-AL"    single-seat (at-large) state
//	  "Unknown"  no state at all
//
//	Labels are approximations from a lookup table or a radius heuristic, not
//	boundary lookups.
//
// Proximity:
//
//	[Ranker] keeps events tagged with the district tag (exact, distance 0) and
//	events within a radius of the district center (nearby, haversine miles
//	rounded to 0.1). Exact matches sort first, then ascending distance.
//
// Listing:
//
//	A built [ProcessedEvent] is listed only when it has a date and either
//	coordinates or a city. See [Listable].
package domain
