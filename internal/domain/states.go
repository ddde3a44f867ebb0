package domain

import "strings"

// stateNames maps USPS codes to full names for the 50 states and DC.
var stateNames = map[string]string{
	"AL": "alabama", "AK": "alaska", "AZ": "arizona", "AR": "arkansas",
	"CA": "california", "CO": "colorado", "CT": "connecticut", "DE": "delaware",
	"DC": "district of columbia", "FL": "florida", "GA": "georgia", "HI": "hawaii",
	"ID": "idaho", "IL": "illinois", "IN": "indiana", "IA": "iowa",
	"KS": "kansas", "KY": "kentucky", "LA": "louisiana", "ME": "maine",
	"MD": "maryland", "MA": "massachusetts", "MI": "michigan", "MN": "minnesota",
	"MS": "mississippi", "MO": "missouri", "MT": "montana", "NE": "nebraska",
	"NV": "nevada", "NH": "new hampshire", "NJ": "new jersey", "NM": "new mexico",
	"NY": "new york", "NC": "north carolina", "ND": "north dakota", "OH": "ohio",
	"OK": "oklahoma", "OR": "oregon", "PA": "pennsylvania", "RI": "rhode island",
	"SC": "south carolina", "SD": "south dakota", "TN": "tennessee", "TX": "texas",
	"UT": "utah", "VT": "vermont", "VA": "virginia", "WA": "washington",
	"WV": "west virginia", "WI": "wisconsin", "WY": "wyoming",
}

// atLargeStates hold a single House seat (2020 apportionment). DC's
// non-voting delegate is treated the same way.
var atLargeStates = map[string]bool{
	"AK": true, "DE": true, "DC": true, "ND": true, "SD": true, "VT": true, "WY": true,
}

var stateCodesByName = func() map[string]string {
	m := make(map[string]string, len(stateNames))
	for code, name := range stateNames {
		m[name] = code
	}
	return m
}()

// NormalizeState maps a two-letter code or full state name, in any case, to
// its USPS code. ok is false for unrecognized input, in which case the trimmed
// upper-cased input is returned.
func NormalizeState(s string) (code string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	upper := strings.ToUpper(s)
	if _, known := stateNames[upper]; known {
		return upper, true
	}
	folded := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if code, known := stateCodesByName[folded]; known {
		return code, true
	}
	return upper, false
}
