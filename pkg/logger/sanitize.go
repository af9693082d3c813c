package logger

import "strings"

// SanitizedIdentity masks a login identity for logging. Identities are
// usernames or emails as typed by the user and must not land in logs in the
// clear. Emails keep the first character and the TLD ("a***@****.com");
// bare usernames keep only the first character.
func SanitizedIdentity(identity string) string {
	parts := strings.SplitN(identity, "@", 2)
	if len(parts) == 1 {
		return maskToken(identity)
	}

	username := maskToken(parts[0])

	// Mask the domain but keep the TLD
	domainParts := strings.Split(parts[1], ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
	}

	return username + "@" + strings.Join(domainParts, ".")
}

func maskToken(s string) string {
	if len(s) <= 1 {
		return s
	}
	return string(s[0]) + strings.Repeat("*", len(s)-1)
}

// SanitizeQueryString checks if query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := []string{
		"password",
		"token",
		"secret",
		"api_key",
		"apikey",
		"identity",
		"email",
		"auth",
	}

	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
