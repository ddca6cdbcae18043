package utils

import "strings"

// LooksLikeEmail is a deliberately weak address check: the value only has to
// contain both "@" and ".". It is not RFC validation.
func LooksLikeEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}
