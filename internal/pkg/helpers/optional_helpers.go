package helpers

import "strings"

// OptionalString trims s and returns nil when the result is empty.
func OptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
