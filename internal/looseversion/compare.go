package looseversion

import "strings"

// separator splits a version into segments.
const separator = "."

// Compare returns -1 if a < b, 0 if a == b and +1 if a > b.
//
// A numeric segment always sorts before a non-numeric one so that the
// ordering stays total over arbitrary input.
func Compare(a, b string) int {
	left, right := segments(a), segments(b)

	for i := 0; i < len(left) && i < len(right); i++ {
		if c := compareSegments(left[i], right[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(left) < len(right):
		return -1
	case len(left) > len(right):
		return 1
	default:
		return 0
	}
}

// Max returns the greatest version. On ties the earliest one wins.
// The second value is false when versions is empty.
func Max(versions ...string) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}

	latest := versions[0]
	for _, v := range versions[1:] {
		if Compare(v, latest) > 0 {
			latest = v
		}
	}

	return latest, true
}

// segments splits v on the separator. An empty version has no segments.
func segments(v string) []string {
	if v == "" {
		return nil
	}

	return strings.Split(v, separator)
}

func compareSegments(a, b string) int {
	aNumeric, bNumeric := isNumeric(a), isNumeric(b)

	switch {
	case aNumeric && bNumeric:
		return compareNumeric(a, b)
	case aNumeric:
		return -1
	case bNumeric:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// compareNumeric compares two digit strings of any length without parsing them.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	return strings.Compare(a, b)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}
