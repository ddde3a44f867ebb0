// Command probe tries the candidate Mobilize listing URL shapes for one or
// more organization identifiers and reports which one returns events. It is
// meant for wiring up a new organization; the service itself never probes.
//
// Usage:
//
//	go run ./cmd/probe -orgs ft6,4823 -delay 500ms
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/drive-scout-service/internal/adapter/mobilize"
	"github.com/couchcryptid/drive-scout-service/internal/observability"
)

func main() {
	baseURL := flag.String("base-url", "https://api.mobilize.us/v1", "Mobilize API root")
	orgs := flag.String("orgs", "", "comma-separated organization slugs or numeric ids")
	perPage := flag.Int("per-page", 5, "page size for each probe request")
	delay := flag.Duration("delay", 500*time.Millisecond, "pause between requests")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	verbose := flag.Bool("v", false, "log every attempt")
	flag.Parse()

	ids := splitOrgs(*orgs)
	if len(ids) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, *baseURL, ids, *perPage, *delay, *timeout, *verbose))
}

func run(ctx context.Context, baseURL string, orgs []string, perPage int, delay, timeout time.Duration, verbose bool) int {
	level := "warn"
	if verbose {
		level = "info"
	}
	logger := observability.NewLogger(level, "text")

	client := mobilize.NewClient(strings.TrimRight(baseURL, "/"), "", nil, perPage, timeout, logger)
	prober := mobilize.NewProber(client, nil, delay)

	attempts, err := prober.Probe(ctx, orgs)
	for _, a := range attempts {
		switch {
		case a.Err != nil:
			fmt.Printf("FAIL  %-8s %s\n      %v\n", a.Org, a.URL, a.Err)
		case a.Count == 0:
			fmt.Printf("EMPTY %-8s %s\n", a.Org, a.URL)
		default:
			fmt.Printf("OK    %-8s %s (%d events)\n", a.Org, a.URL, a.Count)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe interrupted: %v\n", err)
		return 2
	}

	if len(attempts) > 0 && attempts[len(attempts)-1].Found() {
		return 0
	}
	fmt.Println("no candidate returned events")
	return 1
}

func splitOrgs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
