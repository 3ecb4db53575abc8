package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/contactscan/internal/model"
)

var (
	// usCodePhoneRegex matches North American numbers that carry the +1
	// country code with a word character directly before the plus sign.
	usCodePhoneRegex = regexp.MustCompile(`\b\+1[-.\s]?\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})\b`)

	// usPhoneRegex matches the bare North American 3-3-4 digit grouping.
	// This is the pattern that claims most +1 numbers in practice: a plus
	// sign after whitespace is not a word boundary, so usCodePhoneRegex
	// rarely fires and the groups match here instead.
	usPhoneRegex = regexp.MustCompile(`\b\(?([0-9]{3})\)?[-.\s]?([0-9]{3})[-.\s]?([0-9]{4})\b`)

	// intlPhoneRegex matches international numbers: a country code of up to
	// four digits after a plus sign, followed by grouped digit runs.
	intlPhoneRegex = regexp.MustCompile(`\+(\d{1,4})[\s.-]?(\(?\d{1,4}\)?[\s.-]?){2,6}\d{2,4}\b`)

	// digitRunRegex matches a candidate that is nothing but digits.
	digitRunRegex = regexp.MustCompile(`^\d{10,15}$`)

	// phoneSeparatorRegex matches any accepted phone separator character.
	phoneSeparatorRegex = regexp.MustCompile(`[\s\-.()+]`)

	// afterCodeSeparatorRegex matches separators allowed after a country
	// code. The plus sign is deliberately absent: "+15551234567" has no
	// separator after its country code and must be rejected.
	afterCodeSeparatorRegex = regexp.MustCompile(`[\s\-.()]`)

	// countryCodeRegex splits a +NNNN prefix from the rest of a candidate.
	countryCodeRegex = regexp.MustCompile(`^(\+\d{1,4})(.*)`)

	// Cleanup patterns for international formatting.
	whitespaceRunRegex = regexp.MustCompile(`\s+`)
	dashDotRunRegex    = regexp.MustCompile(`[-.]+`)
	parenRegex         = regexp.MustCompile(`[()]`)
)

// Phones returns the validated phone numbers found in a plain-text view of a
// page. North American matches are reformatted to +1-DDD-DDD-DDDD;
// international matches keep their digit grouping with separators normalized
// to single spaces. Results are in discovery order with exact duplicates
// removed. The same number discovered in both forms survives here twice; the
// result store collapses it by digit sequence.
func Phones(text string) []string {
	phones := make([]string, 0)

	for _, m := range usCodePhoneRegex.FindAllStringSubmatch(text, -1) {
		if !IsValidPhone(m[0]) {
			continue
		}
		phones = append(phones, formatUSPhone(m[1], m[2], m[3]))
	}

	for _, m := range usPhoneRegex.FindAllStringSubmatch(text, -1) {
		if !IsValidPhone(m[0]) {
			continue
		}
		phones = append(phones, formatUSPhone(m[1], m[2], m[3]))
	}

	for _, m := range intlPhoneRegex.FindAllStringSubmatch(text, -1) {
		if !IsValidPhone(m[0]) {
			continue
		}
		phones = append(phones, cleanInternationalPhone(m[0]))
	}

	return dedupOrdered(phones)
}

// IsValidPhone reports whether a raw phone candidate is plausible enough to
// keep. It requires 10 to 15 digits, rejects bare digit runs, requires at
// least one separator character, and for international candidates requires a
// separator somewhere after the country code.
func IsValidPhone(candidate string) bool {
	digits := model.DigitsOnly(candidate)
	if len(digits) < 10 || len(digits) > 15 {
		return false
	}

	if digitRunRegex.MatchString(candidate) {
		return false
	}

	if !phoneSeparatorRegex.MatchString(candidate) {
		return false
	}

	if strings.HasPrefix(candidate, "+") {
		if m := countryCodeRegex.FindStringSubmatch(candidate); m != nil {
			if !afterCodeSeparatorRegex.MatchString(m[2]) {
				return false
			}
		}
	}

	return true
}

// formatUSPhone renders the canonical North American form.
func formatUSPhone(area, exchange, line string) string {
	return fmt.Sprintf("+1-%s-%s-%s", area, exchange, line)
}

// cleanInternationalPhone normalizes an international match: dash and dot
// runs become single spaces, parentheses are dropped with their digits kept,
// and whitespace is collapsed and trimmed.
func cleanInternationalPhone(phone string) string {
	phone = whitespaceRunRegex.ReplaceAllString(strings.TrimSpace(phone), " ")
	phone = dashDotRunRegex.ReplaceAllString(phone, " ")
	phone = whitespaceRunRegex.ReplaceAllString(phone, " ")
	phone = parenRegex.ReplaceAllString(phone, "")
	phone = whitespaceRunRegex.ReplaceAllString(phone, " ")
	return strings.TrimSpace(phone)
}
