package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	local, host, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(host, "@") {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + host
	}
	return local[:2] + "***@" + host
}

// RedactIP masks the host portion of a client IP. Tracking endpoints log
// an IP on every pixel and redirect hit; the truncated form is enough to
// investigate abuse without storing a full address in the logs.
// "203.0.113.9" → "203.0.113.x", "2001:db8::1" → "2001:db8::x"
func RedactIP(ip string) string {
	if idx := strings.LastIndex(ip, "."); idx > 0 {
		return ip[:idx] + ".x"
	}
	if idx := strings.LastIndex(ip, ":"); idx > 0 {
		return ip[:idx] + ":x"
	}
	return "x"
}
