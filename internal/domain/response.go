package domain

import "time"

// lastUpdatedLayout matches JavaScript's Date.toISOString, which the frontend
// already parses.
const lastUpdatedLayout = "2006-01-02T15:04:05.000Z07:00"

// Stats counts events surviving each pipeline stage.
type Stats struct {
	TotalEvents int `json:"totalEvents"`
	Classified  int `json:"classified"`
	Eligible    int `json:"eligible"`
	Valid       int `json:"valid"`
	InRegion    int `json:"inRegion"`
}

// Response is the JSON envelope returned by the events endpoint. Success and
// failure share the type; omitted fields keep each shape minimal.
type Response struct {
	Success     bool             `json:"success"`
	Count       *int             `json:"count,omitempty"`
	Error       string           `json:"error,omitempty"`
	Events      []ProcessedEvent `json:"events"`
	LastUpdated string           `json:"lastUpdated,omitempty"`
	DebugInfo   *Stats           `json:"debugInfo,omitempty"`
}

// NewSuccessResponse wraps events in the success envelope, stamped with the
// package clock.
func NewSuccessResponse(events []ProcessedEvent) Response {
	if events == nil {
		events = []ProcessedEvent{}
	}
	count := len(events)
	return Response{
		Success:     true,
		Count:       &count,
		Events:      events,
		LastUpdated: FormatTimestamp(clock.Now()),
	}
}

// NewFailureResponse builds the failure envelope for err.
func NewFailureResponse(err error) Response {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Response{
		Success: false,
		Error:   msg,
		Events:  []ProcessedEvent{},
	}
}

// FormatTimestamp renders t the way lastUpdated is rendered.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(lastUpdatedLayout)
}
