package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/drive-scout-service/internal/domain"
)

// Classifier policies.
const (
	PolicyTagExact     = "tag-exact"
	PolicyTagSubstring = "tag-substring"
	PolicyUnfiltered   = "unfiltered"
)

// District strategies.
const (
	StrategyCityTable = "city-table"
	StrategyStateOnly = "state-only"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	DebugMode       bool

	// Mobilize upstream.
	MobilizeBaseURL      string
	MobilizeEventURLBase string
	MobilizeOrg          string
	MobilizeTagIDs       []string
	MobilizePerPage      int
	MobilizeTimeout      time.Duration

	ClassifierPolicy     string
	ClassifierTag        string
	ClassifierSubstrings []string
	ClassifierKeywords   []string

	DistrictStrategy  string
	DistrictTableFile string

	// Proximity ranking around a target district.
	ProximityEnabled     bool
	ProximityTag         string
	ProximityDistrict    string
	ProximityCenterLat   float64
	ProximityCenterLng   float64
	ProximityRadiusMiles float64

	DisplayZone  *time.Location
	DefaultTitle string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Kafka feed; publishing is disabled when no brokers are set.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mobilizeTimeout, err := parsePositiveDuration("MOBILIZE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	perPage, err := strconv.Atoi(sharedcfg.EnvOrDefault("MOBILIZE_PER_PAGE", "50"))
	if err != nil || perPage < 1 || perPage > 1000 {
		return nil, errors.New("invalid MOBILIZE_PER_PAGE: must be between 1 and 1000")
	}

	debugMode, err := parseBool("DEBUG_MODE", false)
	if err != nil {
		return nil, err
	}
	proximityEnabled, err := parseBool("PROXIMITY_ENABLED", false)
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("PROXIMITY_CENTER_LAT", "33.6846")
	if err != nil {
		return nil, err
	}
	centerLng, err := parseFloat("PROXIMITY_CENTER_LNG", "-117.8265")
	if err != nil {
		return nil, err
	}
	radius, err := parseFloat("PROXIMITY_RADIUS_MILES", "50")
	if err != nil {
		return nil, err
	}

	zone, err := parseZone(os.Getenv("DISPLAY_TIMEZONE"))
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		DebugMode:       debugMode,

		MobilizeBaseURL:      strings.TrimRight(sharedcfg.EnvOrDefault("MOBILIZE_BASE_URL", "https://api.mobilize.us/v1"), "/"),
		MobilizeEventURLBase: strings.TrimRight(sharedcfg.EnvOrDefault("MOBILIZE_EVENT_URL_BASE", "https://www.mobilize.us"), "/"),
		MobilizeOrg:          strings.TrimSpace(sharedcfg.EnvOrDefault("MOBILIZE_ORG", "ft6")),
		MobilizeTagIDs:       splitList(envOrDefaultAllowEmpty("MOBILIZE_TAG_IDS", "20036")),
		MobilizePerPage:      perPage,
		MobilizeTimeout:      mobilizeTimeout,

		ClassifierPolicy:     strings.ToLower(sharedcfg.EnvOrDefault("CLASSIFIER_POLICY", PolicyTagExact)),
		ClassifierTag:        strings.TrimSpace(sharedcfg.EnvOrDefault("CLASSIFIER_TAG", "drive")),
		ClassifierSubstrings: splitList(sharedcfg.EnvOrDefault("CLASSIFIER_SUBSTRINGS", "voter,registration,drive,canvass,gotv")),
		ClassifierKeywords:   splitList(sharedcfg.EnvOrDefault("CLASSIFIER_KEYWORDS", "voter registration,register voters,voter_reg")),

		DistrictStrategy:  strings.ToLower(sharedcfg.EnvOrDefault("DISTRICT_STRATEGY", StrategyCityTable)),
		DistrictTableFile: os.Getenv("DISTRICT_TABLE_FILE"),

		ProximityEnabled:     proximityEnabled,
		ProximityTag:         strings.TrimSpace(sharedcfg.EnvOrDefault("PROXIMITY_TAG", "ca45")),
		ProximityDistrict:    strings.TrimSpace(sharedcfg.EnvOrDefault("PROXIMITY_DISTRICT", "CA-45")),
		ProximityCenterLat:   centerLat,
		ProximityCenterLng:   centerLng,
		ProximityRadiusMiles: radius,

		DisplayZone:  zone,
		DefaultTitle: sharedcfg.EnvOrDefault("DEFAULT_TITLE", domain.DefaultTitle),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "drive-events"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MobilizeOrg == "" {
		return errors.New("MOBILIZE_ORG is required")
	}

	switch c.ClassifierPolicy {
	case PolicyTagExact:
		if c.ClassifierTag == "" {
			return errors.New("CLASSIFIER_TAG is required for the tag-exact policy")
		}
	case PolicyTagSubstring:
		if len(c.ClassifierSubstrings) == 0 && len(c.ClassifierKeywords) == 0 {
			return errors.New("CLASSIFIER_SUBSTRINGS or CLASSIFIER_KEYWORDS is required for the tag-substring policy")
		}
	case PolicyUnfiltered:
		if !c.DebugMode {
			return errors.New("CLASSIFIER_POLICY=unfiltered requires DEBUG_MODE=true")
		}
	default:
		return fmt.Errorf("invalid CLASSIFIER_POLICY %q", c.ClassifierPolicy)
	}

	if c.DistrictStrategy != StrategyCityTable && c.DistrictStrategy != StrategyStateOnly {
		return fmt.Errorf("invalid DISTRICT_STRATEGY %q", c.DistrictStrategy)
	}

	if c.ProximityEnabled {
		if c.ProximityCenterLat < -90 || c.ProximityCenterLat > 90 {
			return errors.New("invalid PROXIMITY_CENTER_LAT: must be between -90 and 90")
		}
		if c.ProximityCenterLng < -180 || c.ProximityCenterLng > 180 {
			return errors.New("invalid PROXIMITY_CENTER_LNG: must be between -180 and 180")
		}
		if c.ProximityRadiusMiles <= 0 {
			return errors.New("invalid PROXIMITY_RADIUS_MILES: must be positive")
		}
		if c.ProximityTag == "" {
			return errors.New("PROXIMITY_TAG is required when PROXIMITY_ENABLED is true")
		}
	}

	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// Policy returns the configured classifier policy.
func (c *Config) Policy() domain.Policy {
	switch c.ClassifierPolicy {
	case PolicyTagSubstring:
		return domain.TagSubstring(c.ClassifierSubstrings, c.ClassifierKeywords)
	case PolicyUnfiltered:
		return domain.Unfiltered()
	default:
		return domain.TagExact(c.ClassifierTag)
	}
}

// DistrictResolver returns the configured district strategy. A table file, when
// set, replaces the embedded city table. With proximity enabled the strategy
// is wrapped in a radius check around the target district.
func (c *Config) DistrictResolver() (domain.DistrictResolver, error) {
	var base domain.DistrictResolver
	switch c.DistrictStrategy {
	case StrategyStateOnly:
		base = domain.StateOnlyResolver{}
	default:
		table, err := c.cityTable()
		if err != nil {
			return nil, err
		}
		base = domain.NewCityTableResolver(table)
	}

	if !c.ProximityEnabled {
		return base, nil
	}
	return domain.RadiusResolver{
		District:    c.ProximityDistrict,
		Center:      c.proximityCenter(),
		RadiusMiles: c.ProximityRadiusMiles,
		Base:        base,
	}, nil
}

// Ranker returns the proximity ranker, or nil when proximity is disabled.
func (c *Config) Ranker() *domain.Ranker {
	if !c.ProximityEnabled {
		return nil
	}
	return &domain.Ranker{
		ExactTag:       c.ProximityTag,
		District:       c.ProximityDistrict,
		Center:         c.proximityCenter(),
		ThresholdMiles: c.ProximityRadiusMiles,
	}
}

// BuildOptions returns the presentation settings for built events.
func (c *Config) BuildOptions() domain.BuildOptions {
	return domain.BuildOptions{
		EventURLBase: c.MobilizeEventURLBase,
		Org:          c.MobilizeOrg,
		DefaultTitle: c.DefaultTitle,
		Zone:         c.DisplayZone,
	}
}

func (c *Config) proximityCenter() domain.Coordinates {
	return domain.Coordinates{Lat: c.ProximityCenterLat, Lng: c.ProximityCenterLng}
}

func (c *Config) cityTable() (domain.CityTable, error) {
	if c.DistrictTableFile == "" {
		return domain.DefaultCityTable(), nil
	}
	f, err := os.Open(c.DistrictTableFile)
	if err != nil {
		return nil, fmt.Errorf("open DISTRICT_TABLE_FILE: %w", err)
	}
	defer f.Close()
	return domain.LoadCityTable(f)
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parseFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(sharedcfg.EnvOrDefault(key, def)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	return loc, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

// envOrDefaultAllowEmpty treats a variable set to "" as an explicit empty
// value rather than unset.
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
