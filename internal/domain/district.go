package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// DistrictUnknown is returned when a place has no usable state.
const DistrictUnknown = "Unknown"

// DistrictResolver maps a place to an approximate district label. Resolve is
// total: it never returns an empty string.
type DistrictResolver interface {
	Resolve(p Place) string
}

//go:embed districts.yaml
var defaultDistrictsYAML []byte

var defaultCityTable = mustParseCityTable(defaultDistrictsYAML)

// CityTable maps lowercased city names to district codes. It is never
// modified after construction.
type CityTable map[string]string

type cityTableFile struct {
	Districts map[string][]string `yaml:"districts"`
}

// DefaultCityTable returns the embedded table.
func DefaultCityTable() CityTable {
	return defaultCityTable
}

// LoadCityTable parses a YAML table of the form
//
//	districts:
//	  AZ-01: [scottsdale, tempe]
//
// A city listed under two districts is an error.
func LoadCityTable(r io.Reader) (CityTable, error) {
	var f cityTableFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("parse district table: %w", err)
	}

	table := make(CityTable)
	for district, cities := range f.Districts {
		district = strings.ToUpper(strings.TrimSpace(district))
		if district == "" {
			return nil, fmt.Errorf("parse district table: empty district code")
		}
		for _, city := range cities {
			key := normalizeCity(city)
			if key == "" {
				continue
			}
			if prev, dup := table[key]; dup && prev != district {
				return nil, fmt.Errorf("parse district table: city %q listed under %s and %s", key, prev, district)
			}
			table[key] = district
		}
	}
	return table, nil
}

func mustParseCityTable(data []byte) CityTable {
	table, err := LoadCityTable(bytes.NewReader(data))
	if err != nil {
		panic(err)
	}
	return table
}

// CityTableResolver looks the city up in a fixed table and falls back to
// "{STATE}-??". A place without a state is always DistrictUnknown, and a
// table hit whose state prefix contradicts the place's state is a miss.
type CityTableResolver struct {
	table CityTable
}

// NewCityTableResolver creates a resolver over table; a nil table selects the
// embedded default.
func NewCityTableResolver(table CityTable) *CityTableResolver {
	if table == nil {
		table = defaultCityTable
	}
	return &CityTableResolver{table: table}
}

func (r *CityTableResolver) Resolve(p Place) string {
	state, _ := NormalizeState(p.State)
	if state == "" {
		return DistrictUnknown
	}

	if district, ok := r.table[normalizeCity(p.City)]; ok && strings.HasPrefix(district, state+"-") {
		return district
	}
	return state + "-??"
}

// StateOnlyResolver labels by state alone: "{ST}-AL" for single-seat states,
// "{ST}-??" otherwise.
type StateOnlyResolver struct{}

func (StateOnlyResolver) Resolve(p Place) string {
	state, known := NormalizeState(p.State)
	switch {
	case state == "":
		return DistrictUnknown
	case known && atLargeStates[state]:
		return state + "-AL"
	default:
		return state + "-??"
	}
}

// RadiusResolver labels places within RadiusMiles of Center as District and
// defers everything else to Base.
type RadiusResolver struct {
	District    string
	Center      Coordinates
	RadiusMiles float64
	Base        DistrictResolver
}

func (r RadiusResolver) Resolve(p Place) string {
	if p.Coordinates != nil && Haversine(*p.Coordinates, r.Center) <= r.RadiusMiles {
		return r.District
	}
	if r.Base == nil {
		return StateOnlyResolver{}.Resolve(p)
	}
	return r.Base.Resolve(p)
}

func normalizeCity(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}
