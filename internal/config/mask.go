package config

import "encoding/json"

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks avoid accidental substring matches against the
// original secret.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked; longer ones keep the first and last two characters for
// debug utility.
//
// This defends against accidental logging of real secrets, nothing
// more. If logs are compromised, rotate the keys.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit masking of the
// sensitive fields. When adding a new secret field, add it here.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.OpenRouterAPIKey = maskSecret(c.OpenRouterAPIKey)
	a.GeminiAPIKey = maskSecret(c.GeminiAPIKey)
	a.SearchAPIKey = maskSecret(c.SearchAPIKey)
	return json.Marshal(a)
}
