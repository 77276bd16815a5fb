// Cinematch - Watchlist Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package logging

import (
	"net/url"
	"strings"
)

// sensitiveKeys are parameter and field names whose values are masked.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"access_token":  true,
	"token":         true,
	"password":      true,
	"secret":        true,
	"authorization": true,
	"bearer":        true,
}

// SanitizeToken masks a credential, keeping the first and last 4 characters.
// Short values are fully masked.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeValue masks value when key names a credential.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	return value
}

// SanitizeURL masks credential query parameters of raw. Unparseable input
// is returned as "<invalid url>".
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	changed := false
	for key, values := range q {
		if !sensitiveKeys[strings.ToLower(key)] {
			continue
		}
		for i, v := range values {
			values[i] = SanitizeToken(v)
		}
		q[key] = values
		changed = true
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}

// SanitizeError masks credentials in URLs quoted by err (as net/http
// errors do) and truncates long messages.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	var b strings.Builder
	rest := msg
	for {
		i := strings.Index(rest, "http")
		if i < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexAny(rest[i:], " \"'")
		if end < 0 {
			end = len(rest) - i
		}
		b.WriteString(rest[:i])
		b.WriteString(SanitizeURL(rest[i : i+end]))
		rest = rest[i+end:]
	}
	msg = b.String()

	lower := strings.ToLower(msg)
	for key := range sensitiveKeys {
		if strings.Contains(lower, key+": ") {
			return "request failed (details redacted)"
		}
	}
	return truncateString(msg, 200)
}

// truncateString truncates s to maxLen bytes, appending "..." when cut.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
