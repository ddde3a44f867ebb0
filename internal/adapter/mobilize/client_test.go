package mobilize

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string, tagIDs ...string) *Client {
	return NewClient(baseURL, "ft6", tagIDs, 50, 2*time.Second, testLogger())
}

func TestFetchEvents_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/organizations/ft6/events", r.URL.Path)
		assert.Equal(t, "gte_now", r.URL.Query().Get("timeslot_start"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, []string{"20036", "20037"}, r.URL.Query()["tag_ids"])
		assert.Equal(t, "Drive-Scout-App/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 2,
			"data": [
				{"id": 1, "title": "Drive A", "tags": [{"tag": {"name": "Drive"}}], "timeslots": [{"start_date": 1730563200}]},
				{"id": 2, "title": "Drive B", "tags": [{"name": "drive"}]}
			]
		}`))
	}))
	defer srv.Close()

	events, err := newTestClient(srv.URL+"/v1", "20036", "20037").FetchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].ID)
	assert.Equal(t, "Drive", events[0].Tags[0].Name)
	require.Len(t, events[0].Timeslots, 1)
	assert.True(t, events[0].Timeslots[0].StartDate.Present())
	assert.Equal(t, "Drive B", events[1].Title)
}

func TestFetchEvents_NoTagFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotContains(t, r.URL.Query(), "tag_ids")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	events, err := newTestClient(srv.URL).FetchEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFetchEvents_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchEvents(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Mobilize API responded with status: 503", err.Error())
}

func TestFetchEvents_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchEvents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestFetchEvents_MalformedData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing data", `{"count": 0}`},
		{"null data", `{"data": null}`},
		{"object data", `{"data": {"id": 1}}`},
		{"string data", `{"data": "none"}`},
		{"array body", `[]`},
		{"string body", `"ok"`},
		{"number body", `42`},
		{"null body", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			events, err := newTestClient(srv.URL).FetchEvents(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, events)
			assert.Empty(t, events)
		})
	}
}

func TestFetchEvents_SkipsUndecodableElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"id": "not-a-number"}, 42, {"id": 3, "title": "ok"}]}`))
	}))
	defer srv.Close()

	events, err := newTestClient(srv.URL).FetchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(3), events[0].ID)
}

func TestFetchEvents_KeepsEventsWithWrongTypedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{
			"id": 8,
			"title": 99,
			"tags": [{"name": "Drive"}],
			"location": {"address_lines": "1 Main St", "locality": "Tustin", "region": "CA"},
			"timeslots": [{"start_date": 4102444800}]
		}]}`))
	}))
	defer srv.Close()

	events, err := newTestClient(srv.URL).FetchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(8), events[0].ID)
	assert.Empty(t, events[0].Title)
	require.NotNil(t, events[0].Location)
	assert.Nil(t, events[0].Location.AddressLines)
	assert.Equal(t, "Tustin", events[0].Location.Locality)
}

func TestFetchEvents_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ft6", nil, 50, 50*time.Millisecond, testLogger())
	_, err := c.FetchEvents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mobilize request")
}

func TestProbe_ShortCircuitsOnFirstHit(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.Query().Get("organization_id"))
		switch {
		case r.URL.Path == "/events" && r.URL.Query().Get("organization_id") == "1234":
			_, _ = w.Write([]byte(`{"data": [{"id": 1}]}`))
		case r.URL.Path == "/organizations/ft6/events":
			w.WriteHeader(http.StatusNotFound)
		default:
			_, _ = w.Write([]byte(`{"data": []}`))
		}
	}))
	defer srv.Close()

	p := NewProber(newTestClient(srv.URL), nil, 0)
	attempts, err := p.Probe(context.Background(), []string{"ft6", "1234", "never-tried"})
	require.NoError(t, err)

	require.Len(t, attempts, 4)
	assert.Error(t, attempts[0].Err)
	assert.False(t, attempts[1].Found())
	assert.False(t, attempts[2].Found())
	assert.True(t, attempts[3].Found())
	assert.Equal(t, "1234", attempts[3].Org)
	assert.Equal(t, 1, attempts[3].Count)

	assert.Equal(t, []string{
		"/organizations/ft6/events?",
		"/events?ft6",
		"/organizations/1234/events?",
		"/events?1234",
	}, paths)
}

func TestProbe_WaitsBetweenRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	fc := clockwork.NewFakeClock()
	p := NewProber(newTestClient(srv.URL), fc, 500*time.Millisecond)

	type probeResult struct {
		attempts []ProbeAttempt
		err      error
	}
	done := make(chan probeResult, 1)
	go func() {
		attempts, err := p.Probe(context.Background(), []string{"ft6"})
		done <- probeResult{attempts, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	select {
	case <-done:
		t.Fatal("probe finished before the delay elapsed")
	default:
	}

	fc.Advance(500 * time.Millisecond)
	res := <-done
	require.NoError(t, res.err)
	assert.Len(t, res.attempts, 2)
}

func TestProbe_ContextCancelledDuringDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	fc := clockwork.NewFakeClock()
	p := NewProber(newTestClient(srv.URL), fc, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var attempts []ProbeAttempt
	go func() {
		var err error
		attempts, err = p.Probe(ctx, []string{"ft6"})
		done <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, fc.BlockUntilContext(waitCtx, 1))
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, attempts, 1)
}
