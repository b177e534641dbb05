// Package privacy decides whether observation content is safe to share.
//
// Classification is a fixed, ordered list of regex detectors run against
// title + " " + detail. The first detector that matches marks the content
// private. The same function serves the automatic capture path and manual
// ingest, so neither can opt out of it.
package privacy

import (
	"regexp"
	"strings"
)

// Visibility is the sharing class of an observation.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == Public || v == Private
}

// Detector is a named pattern that flags sensitive content.
type Detector struct {
	Name    string
	Pattern *regexp.Regexp
}

// detectors run in order; the first match wins.
var detectors = []Detector{
	{
		Name:    "absolute_path",
		Pattern: regexp.MustCompile(`(?:^|[\s"'(=:,])(?:/(?:Users|home|root|var|etc|opt|private|tmp|mnt|srv)/[^\s"')]*|[A-Za-z]:\\[^\s"']+)`),
	},
	{
		Name:    "secret_env_var",
		Pattern: regexp.MustCompile(`\b[A-Z0-9_]*(?:SECRET|TOKEN|PASSWORD|PASSWD|API_KEY|APIKEY|PRIVATE_KEY|ACCESS_KEY|CREDENTIALS?)[A-Z0-9_]*\s*[=:]`),
	},
	{
		Name:    "sensitive_extension",
		Pattern: regexp.MustCompile(`(?i)(?:[\w-]\.(?:pem|key|p12|pfx|keystore|jks|kdbx|ovpn)|(?:^|[\s/"'])\.env(?:\.\w+)?)(?:$|[\s"'),;:])`),
	},
	{
		Name:    "bearer_token",
		Pattern: regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{8,}=*`),
	},
	{
		Name:    "live_credential",
		Pattern: regexp.MustCompile(`\b(?:sk_live_\w+|rk_live_\w+|pk_live_\w+|AKIA[0-9A-Z]{16}|gh[pousr]_[A-Za-z0-9]{20,}|xox[abprs]-[A-Za-z0-9-]{10,}|sk-ant-[A-Za-z0-9_-]{10,}|sk-[A-Za-z0-9]{32,})`),
	},
}

// Detectors returns the ordered detector list.
func Detectors() []Detector {
	out := make([]Detector, len(detectors))
	copy(out, detectors)
	return out
}

// Classify returns Private when any detector matches title + " " + detail.
func Classify(title, detail string) Visibility {
	if _, ok := Match(title, detail); ok {
		return Private
	}
	return Public
}

// Match returns the name of the first detector that fires.
func Match(title, detail string) (string, bool) {
	text := title + " " + detail
	for _, d := range detectors {
		if d.Pattern.MatchString(text) {
			return d.Name, true
		}
	}
	return "", false
}

// Resolve combines a detected visibility with a caller request. A caller can
// tighten public content to private but never loosen what the detectors flag.
func Resolve(detected, requested Visibility) Visibility {
	if detected == Private || requested == Private {
		return Private
	}
	return Public
}

// privateTagRegex matches <private>...</private> tags and their contents.
var privateTagRegex = regexp.MustCompile(`(?is)<private>.*?</private>`)

// StripPrivateTags replaces every <private>...</private> block with [REDACTED].
func StripPrivateTags(s string) string {
	return strings.TrimSpace(privateTagRegex.ReplaceAllString(s, "[REDACTED]"))
}
