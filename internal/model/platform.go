package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// platformUnknownStr is the string representation for unknown platform values.
const platformUnknownStr = "unknown"

// SocialPlatform represents a social media platform type.
type SocialPlatform string

// Social media platform constants, in detection order.
const (
	// SocialPlatformUnknown represents an unknown platform.
	SocialPlatformUnknown SocialPlatform = ""
	// SocialPlatformLinkedIn represents LinkedIn.
	SocialPlatformLinkedIn SocialPlatform = "linkedin"
	// SocialPlatformTwitter represents Twitter/X.
	SocialPlatformTwitter SocialPlatform = "twitter"
	// SocialPlatformFacebook represents Facebook.
	SocialPlatformFacebook SocialPlatform = "facebook"
	// SocialPlatformInstagram represents Instagram.
	SocialPlatformInstagram SocialPlatform = "instagram"
	// SocialPlatformGitHub represents GitHub.
	SocialPlatformGitHub SocialPlatform = "github"
	// SocialPlatformYouTube represents YouTube.
	SocialPlatformYouTube SocialPlatform = "youtube"
)

// String returns the string representation of the SocialPlatform.
func (p SocialPlatform) String() string {
	if p == SocialPlatformUnknown {
		return platformUnknownStr
	}
	return string(p)
}

// IsValid returns true if this is a known platform.
func (p SocialPlatform) IsValid() bool {
	switch p {
	case SocialPlatformLinkedIn, SocialPlatformTwitter, SocialPlatformFacebook,
		SocialPlatformInstagram, SocialPlatformGitHub, SocialPlatformYouTube:
		return true
	default:
		return false
	}
}

// DisplayName returns a human-readable platform name for report output.
// Brand names with internal capitalization are handled explicitly; anything
// else falls back to title casing.
func (p SocialPlatform) DisplayName() string {
	switch p {
	case SocialPlatformLinkedIn:
		return "LinkedIn"
	case SocialPlatformGitHub:
		return "GitHub"
	case SocialPlatformYouTube:
		return "YouTube"
	default:
		return cases.Title(language.English).String(p.String())
	}
}

// ParseSocialPlatform converts a string to SocialPlatform.
func ParseSocialPlatform(s string) SocialPlatform {
	switch s {
	case "linkedin":
		return SocialPlatformLinkedIn
	case "twitter", "x":
		return SocialPlatformTwitter
	case "facebook":
		return SocialPlatformFacebook
	case "instagram":
		return SocialPlatformInstagram
	case "github":
		return SocialPlatformGitHub
	case "youtube":
		return SocialPlatformYouTube
	default:
		return SocialPlatformUnknown
	}
}
