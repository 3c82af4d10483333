package format

import "strconv"

// StringOr returns *s, or fallback when s is nil or blank.
func StringOr(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}

// IntOr formats *i, or returns fallback when i is nil.
func IntOr(i *int, fallback string) string {
	if i != nil {
		return strconv.Itoa(*i)
	}
	return fallback
}
