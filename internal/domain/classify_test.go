package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tagged(names ...string) RawEvent {
	tags := make([]Tag, len(names))
	for i, n := range names {
		tags[i] = Tag{Name: n}
	}
	return RawEvent{Tags: tags}
}

func TestTagExact(t *testing.T) {
	policy := TagExact("drive")

	tests := []struct {
		name  string
		event RawEvent
		want  bool
	}{
		{"exact", tagged("drive"), true},
		{"case insensitive", tagged("Phonebank", "DRIVE"), true},
		{"substring is not enough", tagged("Voter Drive"), false},
		{"no tags", RawEvent{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy(tt.event))
		})
	}
}

func TestTagSubstring(t *testing.T) {
	policy := TagSubstring(
		[]string{"voter", "registration", "drive", "canvass", "gotv"},
		[]string{"voter registration", "register voters"},
	)

	tests := []struct {
		name  string
		event RawEvent
		want  bool
	}{
		{"tag fragment", tagged("Voter Outreach"), true},
		{"tag fragment upper", tagged("GOTV Weekend"), true},
		{"unrelated tag", tagged("Fundraiser"), false},
		{"keyword in title", RawEvent{Title: "Help us REGISTER VOTERS"}, true},
		{"keyword in description", RawEvent{Description: "A voter registration table"}, true},
		{"keyword in event type", RawEvent{EventType: "VOTER REGISTRATION"}, true},
		{"nothing matches", RawEvent{Title: "Potluck", Tags: []Tag{{Name: "social"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy(tt.event))
		})
	}
}

func TestUnfiltered(t *testing.T) {
	policy := Unfiltered()
	assert.True(t, policy(tagged("anything")))
	assert.False(t, policy(RawEvent{Title: "untagged"}))
}

func TestClassify_PreservesOrder(t *testing.T) {
	events := []RawEvent{
		{ID: 1, Tags: []Tag{{Name: "Drive"}}},
		{ID: 2},
		{ID: 3, Tags: []Tag{{Name: "drive"}}},
	}

	got := Classify(events, TagExact("drive"))

	ids := make([]int64, len(got))
	for i, e := range got {
		ids[i] = e.ID
	}
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestEligible(t *testing.T) {
	slot := []Timeslot{{StartDate: DateTime{Raw: testStart}}}

	assert.True(t, Eligible(RawEvent{Location: &RawLocation{}, Timeslots: slot}))
	assert.False(t, Eligible(RawEvent{Timeslots: slot}), "missing location")
	assert.False(t, Eligible(RawEvent{Location: &RawLocation{Locality: "Mesa"}}), "missing timeslots")
	assert.False(t, Eligible(RawEvent{Location: &RawLocation{}, Timeslots: []Timeslot{}}), "empty timeslots")
}

func TestHasTag(t *testing.T) {
	assert.True(t, HasTag([]string{"Drive", "CA45"}, "ca45"))
	assert.False(t, HasTag([]string{"Drive"}, "ca45"))
	assert.False(t, HasTag([]string{""}, ""), "empty tag never matches")
}
