package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/drive-scout-service/internal/domain"
)

// DriveTransformer implements Transformer: it extracts the event's place,
// optionally fills gaps by geocoding, labels the district, and builds the
// listing entry.
type DriveTransformer struct {
	resolver domain.DistrictResolver
	geocoder domain.Geocoder
	opts     domain.BuildOptions
	logger   *slog.Logger
}

// NewTransformer creates a DriveTransformer. Pass a nil geocoder to disable
// geocoding enrichment.
func NewTransformer(resolver domain.DistrictResolver, geocoder domain.Geocoder, opts domain.BuildOptions, logger *slog.Logger) *DriveTransformer {
	return &DriveTransformer{
		resolver: resolver,
		geocoder: geocoder,
		opts:     opts,
		logger:   logger,
	}
}

func (t *DriveTransformer) Transform(ctx context.Context, raw domain.RawEvent) domain.ProcessedEvent {
	place, source := domain.EnrichPlace(ctx, raw.ID, domain.PlaceOf(raw), t.geocoder, t.logger)

	ev := domain.BuildEvent(raw, place, t.resolver.Resolve(place), t.opts)
	ev.GeoSource = source
	return ev
}
