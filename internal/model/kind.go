package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// kindUnknownStr is the string representation for unknown kind values.
const kindUnknownStr = "unknown"

// Kind classifies a Finding by the type of contact signal it carries.
//
// Design decision: We use string-based constants rather than iota integers
// because kinds are serialized to JSON and stored in the harvest database;
// a stable string representation keeps stored data readable and immune to
// reordering of the constant block.
type Kind string

// Finding kind constants.
const (
	// KindUnknown represents an unknown finding kind.
	KindUnknown Kind = ""
	// KindEmail represents an email address finding.
	KindEmail Kind = "email"
	// KindPhone represents a phone number finding.
	KindPhone Kind = "phone"
	// KindSocial represents a social media profile link finding.
	KindSocial Kind = "social"
	// KindMetadata represents a page metadata finding.
	KindMetadata Kind = "metadata"
)

// Kinds lists all valid finding kinds in display order.
func Kinds() []Kind {
	return []Kind{KindEmail, KindPhone, KindSocial, KindMetadata}
}

// String returns the string representation of the Kind.
func (k Kind) String() string {
	if k == KindUnknown {
		return kindUnknownStr
	}
	return string(k)
}

// DisplayName returns a human-readable section label for report output.
func (k Kind) DisplayName() string {
	switch k {
	case KindEmail:
		return "Emails"
	case KindPhone:
		return "Phone Numbers"
	case KindSocial:
		return "Social Links"
	case KindMetadata:
		return "Page Metadata"
	default:
		return cases.Title(language.English).String(k.String())
	}
}

// IsValid returns true if this is a known finding kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindEmail, KindPhone, KindSocial, KindMetadata:
		return true
	default:
		return false
	}
}

// ParseKind converts a string to Kind.
func ParseKind(s string) Kind {
	switch s {
	case "email":
		return KindEmail
	case "phone":
		return KindPhone
	case "social":
		return KindSocial
	case "metadata":
		return KindMetadata
	default:
		return KindUnknown
	}
}
