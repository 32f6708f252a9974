package utils

import "regexp"

var dsnPasswordRegex = regexp.MustCompile(`(:)([^:@]+)(@)`)

// MaskDSN hides the password portion of a connection URL for logging.
func MaskDSN(dsn string) string {
	return dsnPasswordRegex.ReplaceAllString(dsn, ":***@")
}

// MaskSecret keeps the first and last character of a secret visible and
// masks the rest. Short values are fully masked.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:1] + "***" + s[len(s)-1:]
}
