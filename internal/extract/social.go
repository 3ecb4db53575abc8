package extract

import (
	"regexp"

	"github.com/nao1215/contactscan/internal/model"
)

// SocialLink pairs a detected platform with the raw anchor href it came from.
// The href is kept exactly as written in the page, relative or absolute.
type SocialLink struct {
	// Platform is the social platform the href belongs to.
	Platform model.SocialPlatform

	// URL is the raw href value.
	URL string
}

// socialPattern ties a platform to its href detection pattern.
type socialPattern struct {
	platform model.SocialPlatform
	pattern  *regexp.Regexp
}

// socialPatterns lists the recognized platforms in priority order. Patterns
// are substring matches over the raw href; the first matching platform
// claims the link, so linkedin.com/company/ is never misread as a bare
// company page and x.com ranks above the catch-all domains below it.
var socialPatterns = []socialPattern{
	{model.SocialPlatformLinkedIn, regexp.MustCompile(`(?i)linkedin\.com/in/|linkedin\.com/company/`)},
	{model.SocialPlatformTwitter, regexp.MustCompile(`(?i)twitter\.com/|x\.com/`)},
	{model.SocialPlatformFacebook, regexp.MustCompile(`(?i)facebook\.com/`)},
	{model.SocialPlatformInstagram, regexp.MustCompile(`(?i)instagram\.com/`)},
	{model.SocialPlatformGitHub, regexp.MustCompile(`(?i)github\.com/`)},
	{model.SocialPlatformYouTube, regexp.MustCompile(`(?i)youtube\.com/`)},
}

// SocialLinks classifies anchor hrefs by social platform. Each href is
// checked against the platform table in order and the first match wins;
// hrefs matching no platform are dropped. One entry is returned per matching
// href in input order, duplicates included; the result store collapses
// repeats of the same link.
func SocialLinks(hrefs []string) []SocialLink {
	links := make([]SocialLink, 0)
	for _, href := range hrefs {
		for _, sp := range socialPatterns {
			if sp.pattern.MatchString(href) {
				links = append(links, SocialLink{Platform: sp.platform, URL: href})
				break
			}
		}
	}
	return links
}
