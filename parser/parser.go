// Package parser converts the game's display text into typed values and
// checks extracted records against the minimal required-field contract.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/switchlove/FragileCityScraper/models"
)

var (
	// First signed integer token, allowing comma thousands separators.
	integerPattern = regexp.MustCompile(`-?\d{1,3}(?:,\d{3})+|-?\d+`)

	// Leading signed decimal with optional comma separators and an optional
	// case-sensitive magnitude suffix. The same cell template renders plain
	// counters and gauges, so shape is decided here, from text alone.
	magnitudePattern = regexp.MustCompile(`^\s*([-+]?\d{1,3}(?:,\d{3})+(?:\.\d+)?|[-+]?\d+(?:\.\d+)?)\s*([kMG])?`)
)

// ExtractInteger finds the first integer-looking token in text, strips
// thousands separators, and parses it. ok is false when no token matches.
func ExtractInteger(text string) (int64, bool) {
	match := integerPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseMagnitude parses a leading signed decimal number with an optional
// k/M/G suffix ("373.69k" -> 373690). ok is false when the leading numeric
// token is absent.
func ParseMagnitude(text string) (float64, bool) {
	groups := magnitudePattern.FindStringSubmatch(text)
	if groups == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(groups[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch groups[2] {
	case "k":
		value *= 1e3
	case "M":
		value *= 1e6
	case "G":
		value *= 1e9
	}
	return value, true
}

// ParseValueOrRange parses either a single magnitude value or an "A/B"
// current/max gauge where both sides are independently magnitude-parsed.
func ParseValueOrRange(text string) (models.Quantity, bool) {
	if idx := strings.Index(text, "/"); idx >= 0 {
		current, okCur := ParseMagnitude(text[:idx])
		max, okMax := ParseMagnitude(text[idx+1:])
		if okCur && okMax {
			return models.BoundedQuantity(current, max), true
		}
	}
	value, ok := ParseMagnitude(text)
	if !ok {
		return models.Quantity{}, false
	}
	return models.Scalar(value), true
}
