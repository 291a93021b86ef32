package router

import "strings"

// matches implements MQTT v5.0 §4.7 topic matching, adapted from the
// teacher's matchTopic: tokenize on '/', '+' matches exactly one level,
// '#' in the terminal position matches all remaining levels including zero
// (MQTT-4.7.1-2), and a topic beginning with '$' never matches a filter
// whose first level is a wildcard (MQTT-4.7.2-1).
func matches(topic Topic, filter Filter) bool {
	t := string(topic)
	f := string(filter)

	if len(t) > 0 && t[0] == '$' {
		if len(f) > 0 && (f[0] == '+' || f[0] == '#') {
			return false
		}
	}

	fIdx, tIdx := 0, 0
	fLen, tLen := len(f), len(t)

	for fIdx <= fLen {
		var fLevel string
		var fNext int

		if idx := strings.IndexByte(f[fIdx:], '/'); idx >= 0 {
			fNext = fIdx + idx
			fLevel = f[fIdx:fNext]
		} else {
			fNext = fLen
			fLevel = f[fIdx:]
		}

		if fLevel == "#" {
			return true
		}

		if tIdx > tLen {
			return false
		}

		var tLevel string
		var tNext int

		if idx := strings.IndexByte(t[tIdx:], '/'); idx >= 0 {
			tNext = tIdx + idx
			tLevel = t[tIdx:tNext]
		} else {
			tNext = tLen
			tLevel = t[tIdx:]
		}

		if fLevel == "+" {
			// single-level wildcard matches this level unconditionally
		} else if fLevel != tLevel {
			return false
		}

		if fNext == fLen {
			fIdx = fLen + 1
		} else {
			fIdx = fNext + 1
		}

		if tNext == tLen {
			tIdx = tLen + 1
		} else {
			tIdx = tNext + 1
		}
	}

	return tIdx > tLen
}

// validateFilter rejects filter strings that violate MQTT v5 wildcard
// grammar: '+' and '#' must each occupy an entire level, and '#' may only
// be the last level.
func validateFilter(filter Filter) error {
	f := string(filter)
	if f == "" {
		return errFilterEmpty
	}

	parts := strings.Split(f, "/")
	for i, part := range parts {
		if strings.Contains(part, "+") && part != "+" {
			return errFilterWildcardLevel
		}
		if strings.Contains(part, "#") {
			if part != "#" {
				return errFilterWildcardLevel
			}
			if i != len(parts)-1 {
				return errFilterHashNotLast
			}
		}
	}
	return nil
}

// validateTopic rejects publish topics that contain wildcards, which are
// only meaningful in filters.
func validateTopic(topic Topic) error {
	t := string(topic)
	if t == "" {
		return errTopicEmpty
	}
	if strings.ContainsAny(t, "+#") {
		return errTopicHasWildcard
	}
	return nil
}
