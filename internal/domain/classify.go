package domain

import "strings"

// Policy decides whether a raw event belongs to the campaign. Policies are
// pure and interchangeable; the pipeline accepts any function of this shape.
type Policy func(RawEvent) bool

// TagExact matches events carrying a tag whose name equals keyword,
// case-insensitively.
func TagExact(keyword string) Policy {
	keyword = strings.TrimSpace(keyword)
	return func(e RawEvent) bool {
		for _, tag := range e.Tags {
			if strings.EqualFold(strings.TrimSpace(tag.Name), keyword) {
				return true
			}
		}
		return false
	}
}

// TagSubstring matches events with a tag name containing any of substrings, or
// whose title, description or event type contains any of keywords. All
// comparisons are case-insensitive.
func TagSubstring(substrings, keywords []string) Policy {
	subs := lowerAll(substrings)
	keys := lowerAll(keywords)
	return func(e RawEvent) bool {
		for _, tag := range e.Tags {
			if containsAny(strings.ToLower(tag.Name), subs) {
				return true
			}
		}
		for _, text := range []string{e.Title, e.Description, e.EventType} {
			if containsAny(strings.ToLower(text), keys) {
				return true
			}
		}
		return false
	}
}

// Unfiltered accepts every event that has at least one tag. It exists for
// tag analysis in debug mode.
func Unfiltered() Policy {
	return func(e RawEvent) bool {
		return len(e.Tags) > 0
	}
}

// Classify returns the events accepted by policy, preserving input order.
func Classify(events []RawEvent, policy Policy) []RawEvent {
	out := make([]RawEvent, 0, len(events))
	for _, e := range events {
		if policy(e) {
			out = append(out, e)
		}
	}
	return out
}

// Eligible reports whether an event has the location and timeslot data needed
// to build a listing entry.
func Eligible(e RawEvent) bool {
	return e.Location != nil && len(e.Timeslots) > 0
}

// HasTag reports whether tags contains name, case-insensitively.
func HasTag(tags []string, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, t := range tags {
		if strings.EqualFold(strings.TrimSpace(t), name) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
