// Package redact strips credentials, tokens and similar secrets from strings
// before they are logged or persisted, and masks sensitive keys in JSON
// payloads captured for auditing.
package redact

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Redaction placeholders
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedStackPlaceholder      = "[STACK_TRACE_REDACTED]"

	// MaskedValue replaces the value of a sensitive JSON key.
	MaskedValue = "***"
)

// Audit payload limits.
const (
	MaxStringLength  = 512
	MaxPayloadLength = 2048
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Applied in order; connection strings go first so the password inside a DSN
// is consumed as part of the credential block.
var rules = []rule{
	{regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^/\s@]+@`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), RedactedJWTPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`), RedactedCredentialPlaceholder},
	{regexp.MustCompile(`(?i)(api[_-]?key|secret|token)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), RedactedKeyPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), RedactedEmailPlaceholder},
	{regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`), RedactedStackPlaceholder},
}

var sensitiveKeys = map[string]bool{
	"password":      true,
	"authorization": true,
	"token":         true,
	"accesstoken":   true,
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}
	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// IsSensitiveKey reports whether values under key are masked in audit payloads.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}

// JSON masks sensitive keys at any depth, shortens long strings and bounds
// the encoded size. Input that is not JSON is kept as a redacted JSON string.
// An empty input returns nil.
func JSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		v = String(string(raw))
	}

	return Value(v)
}

// Value applies the JSON masking rules to an already decoded value.
func Value(v interface{}) json.RawMessage {
	out, err := json.Marshal(mask(v))
	if err != nil {
		return nil
	}
	if len(out) <= MaxPayloadLength {
		return out
	}

	// Too large: keep a readable prefix as a plain string.
	prefix := out[:MaxPayloadLength]
	for !utf8.Valid(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	out, err = json.Marshal(string(prefix) + "…")
	if err != nil {
		return nil
	}
	return out
}

func mask(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		masked := make(map[string]interface{}, len(t))
		for k, val := range t {
			if IsSensitiveKey(k) {
				masked[k] = MaskedValue
				continue
			}
			masked[k] = mask(val)
		}
		return masked
	case map[string][]string:
		masked := make(map[string]interface{}, len(t))
		for k, vals := range t {
			if IsSensitiveKey(k) {
				masked[k] = MaskedValue
				continue
			}
			items := make([]interface{}, len(vals))
			for i, s := range vals {
				items[i] = mask(s)
			}
			masked[k] = items
		}
		return masked
	case []interface{}:
		masked := make([]interface{}, len(t))
		for i, item := range t {
			masked[i] = mask(item)
		}
		return masked
	case string:
		return truncate(t)
	default:
		return v
	}
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxStringLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxStringLength]) + "…"
}
