package diag

import "regexp"

// Redactor removes credentials from configuration and log text. Probe and
// action commands are user supplied and may carry tokens.
type Redactor struct {
	patterns []redactionPattern
}

type redactionPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a redactor with the common secret patterns
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactionPattern{
			// Environment assignments, must run before the key/value rule
			{
				regex:       regexp.MustCompile(`(?i)(^|[\s"'])((?:export\s+)?[A-Z_]*(?:KEY|TOKEN|SECRET|PASSWORD)[A-Z_]*)=["']?([^"'\s]+)["']?`),
				replacement: `$1$2=[REDACTED]`,
			},
			// Command line flags
			{
				regex:       regexp.MustCompile(`(?i)(--?(?:api[_-]?key|token|secret|password|passwd))(=|\s+)["']?([^"'\s]+)["']?`),
				replacement: `$1$2[REDACTED]`,
			},
			// key: value and key = value
			{
				regex:       regexp.MustCompile(`(?i)(^|[^A-Z_\-])(api[_-]?key|token|secret|password)\s*[:=]\s*["']?([^"'\s]+)["']?`),
				replacement: `$1$2: [REDACTED]`,
			},
			{
				regex:       regexp.MustCompile(`(?i)Bearer\s+([A-Za-z0-9_\-\.]+)`),
				replacement: `Bearer [REDACTED]`,
			},
			{
				regex:       regexp.MustCompile(`(?i)Basic\s+([A-Za-z0-9+/=]{8,})`),
				replacement: `Basic [REDACTED]`,
			},
			// Credentials embedded in URLs
			{
				regex:       regexp.MustCompile(`([a-z][a-z0-9+.\-]*://[^:/\s@]+):([^@\s]+)@`),
				replacement: `$1:[REDACTED]@`,
			},
		},
	}
}

// Redact applies all redaction patterns to the input text
func (r *Redactor) Redact(input string) string {
	result := input
	for _, pattern := range r.patterns {
		result = pattern.regex.ReplaceAllString(result, pattern.replacement)
	}
	return result
}
