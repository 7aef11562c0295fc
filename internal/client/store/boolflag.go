package store

import "strings"

// ParseBoolFlag normalizes boolean-like values found in persisted flags.
// Earlier app builds wrote "true"/"1"/"yes"/"on" interchangeably, so this
// shim accepts exactly that closed set (case-insensitive). Anything else,
// including an absent value, is false. New writes always use "true".
func ParseBoolFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
