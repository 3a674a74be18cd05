package logging

import "strings"

// sensitiveKeys are substrings of attribute keys whose values are masked.
// Matching is case-insensitive.
var sensitiveKeys = []string{
	"PASSWORD",
	"PASSPHRASE",
	"TOKEN",
	"SECRET",
	"AUTH",
	"SESSION",
	"KEY_MATERIAL",
}

// ShouldMask reports whether an attribute key names sensitive data.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range sensitiveKeys {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// MaskValue masks a sensitive value.
// Values with 4 or fewer characters are fully masked as "********".
// Longer values show the last 4 characters: "****xxxx".
func MaskValue(value string) string {
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}
