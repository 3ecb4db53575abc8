package model

import "strings"

// Attribute keys used in Finding.Attributes.
//
// Design decision: We fix the attribute vocabulary as constants rather than
// letting callers invent keys because:
// 1. It keeps the Finding type uniform across kinds
// 2. Report writers and the database can rely on a closed key set
// 3. Typos become compile errors instead of silently empty report columns
const (
	// AttrPlatform holds the social platform name for KindSocial findings.
	AttrPlatform = "platform"
	// AttrTitle holds the page title for KindMetadata findings.
	AttrTitle = "title"
	// AttrDescription holds the description meta content for KindMetadata findings.
	AttrDescription = "description"
	// AttrGenerator holds the generator meta content for KindMetadata findings.
	AttrGenerator = "generator"
)

// Finding is a single extracted contact signal.
// Findings are created only by ResultStore.Add and never mutated afterwards;
// they live for the duration of one harvest run.
type Finding struct {
	// Kind classifies the finding (email, phone, social, metadata).
	Kind Kind `json:"kind"`

	// Value is the extracted value: the email address, the formatted phone
	// number, the social profile URL, or the serialized metadata mapping.
	Value string `json:"value"`

	// SourceURL is the page the finding was extracted from.
	SourceURL string `json:"source_url"`

	// Attributes carries optional kind-specific details: the platform name
	// for social findings, the individual metadata fields for metadata
	// findings. Nil for kinds that carry none.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// DedupKey returns the identity used to collapse duplicate findings.
// Email addresses collapse case-insensitively, phone numbers by their digit
// sequence regardless of separators, and social/metadata findings by the
// exact kind+value pair.
func (f Finding) DedupKey() string {
	switch f.Kind {
	case KindEmail:
		return strings.ToLower(f.Value)
	case KindPhone:
		return DigitsOnly(f.Value)
	default:
		return string(f.Kind) + "|" + f.Value
	}
}

// DigitsOnly strips every non-digit character from s.
// Used for phone deduplication, where "+1-555-123-4567" and "+1 (555) 123-4567"
// must collapse to the same identity because their digits agree.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
