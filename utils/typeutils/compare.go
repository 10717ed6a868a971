package typeutils

import "fmt"

// CompareTimestamps returns 0 for equal, -1 if a < b else 1 if a > b.
// Both sides are compared as instants, so offsets do not matter.
func CompareTimestamps(a, b any) (int, error) {
	aTime, err := ParseTimestamp(a)
	if err != nil {
		return 0, fmt.Errorf("left side: %s", err)
	}
	bTime, err := ParseTimestamp(b)
	if err != nil {
		return 0, fmt.Errorf("right side: %s", err)
	}

	return aTime.Compare(bTime), nil
}

// IsAfter reports whether candidate is strictly later than current.
func IsAfter(candidate, current any) (bool, error) {
	cmp, err := CompareTimestamps(candidate, current)
	if err != nil {
		return false, err
	}
	return cmp == 1, nil
}
