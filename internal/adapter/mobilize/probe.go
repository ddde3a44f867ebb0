package mobilize

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
)

// ProbeAttempt records one candidate endpoint tried by Probe.
type ProbeAttempt struct {
	Org   string
	URL   string
	Count int
	Err   error
}

// Found reports whether the attempt returned at least one event.
func (a ProbeAttempt) Found() bool {
	return a.Err == nil && a.Count > 0
}

// Prober tries candidate listing URL shapes for a set of organization
// identifiers and stops at the first one that returns events. It is a
// diagnostic tool for wiring up a new organization, not part of serving.
type Prober struct {
	client *Client
	clock  clockwork.Clock
	delay  time.Duration
}

// NewProber creates a Prober that waits delay between requests. A nil clock
// uses the real clock.
func NewProber(client *Client, clock clockwork.Clock, delay time.Duration) *Prober {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Prober{client: client, clock: clock, delay: delay}
}

// Probe issues requests sequentially and returns every attempt made, the last
// one being the first hit if any. It returns an error only when ctx ends.
func (p *Prober) Probe(ctx context.Context, orgs []string) ([]ProbeAttempt, error) {
	var attempts []ProbeAttempt
	for _, org := range orgs {
		for _, u := range p.candidates(org) {
			if len(attempts) > 0 {
				if err := p.sleep(ctx); err != nil {
					return attempts, err
				}
			}

			events, err := p.client.get(ctx, u)
			if ctx.Err() != nil {
				return attempts, ctx.Err()
			}
			a := ProbeAttempt{Org: org, URL: u, Count: len(events), Err: err}
			attempts = append(attempts, a)
			p.client.logger.Info("probe attempt", "org", org, "url", u, "count", a.Count, "error", err)

			if a.Found() {
				return attempts, nil
			}
		}
	}
	return attempts, nil
}

func (p *Prober) candidates(org string) []string {
	params := url.Values{
		"timeslot_start": {"gte_now"},
		"per_page":       {strconv.Itoa(p.client.perPage)},
	}
	byOrg := url.Values{"organization_id": {org}}
	for k, v := range params {
		byOrg[k] = v
	}
	return []string{
		fmt.Sprintf("%s/organizations/%s/events?%s", p.client.baseURL, url.PathEscape(org), params.Encode()),
		fmt.Sprintf("%s/events?%s", p.client.baseURL, byOrg.Encode()),
	}
}

func (p *Prober) sleep(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(p.delay):
		return nil
	}
}
