package features

import (
	"regexp"
	"strconv"
	"strings"
)

// noParkingTypes and timeLimitTypes form the sign ontology used to count
// nearby regulatory signs by category.
var noParkingTypes = map[string]bool{
	"no_parking":     true,
	"no_stopping":    true,
	"tow_away":       true,
	"street_cleaning": true,
}

var timeLimitTypes = map[string]bool{
	"1hr_limit": true,
	"2hr_limit": true,
	"4hr_limit": true,
}

var timeLimitPattern = regexp.MustCompile(`(\d+)\s*HR`)

func parseTimeLimitMinutes(signText string) (int, bool) {
	m := timeLimitPattern.FindStringSubmatch(strings.ToUpper(signText))
	if m == nil {
		return 0, false
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return hours * 60, true
}

var curbColorNormalization = map[string]string{
	"red":    "red",
	"yellow": "yellow",
	"green":  "green",
	"white":  "white",
	"blue":   "blue",
	"":       "none",
}

func normalizeCurbColor(raw string) string {
	if norm, ok := curbColorNormalization[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return norm
	}
	return "none"
}

// CurbColorIDs enumerates the categorical curb-color encoding used by the
// model ensemble.
var CurbColorIDs = map[string]int{
	"none":   0,
	"red":    1,
	"yellow": 2,
	"green":  3,
	"white":  4,
	"blue":   5,
}

// SignRuleInputs are the inputs ComputeSignRules needs: the spot's curb
// color, any posted sign text, and a count of nearby regulatory signs by
// category (resolved by the repository from a 30m bounding-box query).
type SignRuleInputs struct {
	CurbColor        string
	PostedSignText   string
	NoParkingSignsNearby int
	TimeLimitSignsNearby int
	HasRegulationOverride bool
}

// ComputeSignRules returns the 5 sign/regulation features for a spot.
func ComputeSignRules(in SignRuleInputs) map[string]float64 {
	normColor := normalizeCurbColor(in.CurbColor)
	colorID := CurbColorIDs[normColor]

	timeLimitMin, hasLimit := parseTimeLimitMinutes(in.PostedSignText)
	timeLimitFeature := -1.0
	if hasLimit {
		timeLimitFeature = float64(timeLimitMin)
	}

	regOverride := 0.0
	if in.HasRegulationOverride {
		regOverride = 1
	}

	return map[string]float64{
		"curb_color_id":             float64(colorID),
		"time_limit_minutes":        timeLimitFeature,
		"no_parking_signs_nearby":   float64(in.NoParkingSignsNearby),
		"time_limit_signs_nearby":   float64(in.TimeLimitSignsNearby),
		"has_regulation_override":   regOverride,
	}
}

// IsNoParkingSignType reports whether a sign-type string falls in the
// no-parking ontology, used by the repository's 30m proximity query to
// classify raw sign rows before counting them.
func IsNoParkingSignType(signType string) bool {
	return noParkingTypes[strings.ToLower(signType)]
}

// IsTimeLimitSignType reports whether a sign-type string falls in the
// time-limit ontology.
func IsTimeLimitSignType(signType string) bool {
	return timeLimitTypes[strings.ToLower(signType)]
}
