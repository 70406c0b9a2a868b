// Package validation holds input validation rules for user-submitted content.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxRiddleBodyLength      = 5000
	maxRejectionReasonLength = 1000
)

var teamSlugRegex = regexp.MustCompile(`^[a-z0-9-]{3,24}$`)

var reservedTeamSlugs = map[string]struct{}{
	"admin":   {},
	"api":     {},
	"auth":    {},
	"teams":   {},
	"riddles": {},
	"users":   {},
	"ws":      {},
	"metrics": {},
	"login":   {},
	"signup":  {},
}

// ValidateRiddleBody validates a submitted riddle body.
func ValidateRiddleBody(body string) error {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return fmt.Errorf("riddle body is required")
	}
	if utf8.RuneCountInString(trimmed) > maxRiddleBodyLength {
		return fmt.Errorf("riddle body must be at most %d characters", maxRiddleBodyLength)
	}
	return nil
}

// ValidateRejectionReason validates the reason attached to a rejection.
func ValidateRejectionReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("rejection reason is required")
	}
	if utf8.RuneCountInString(reason) > maxRejectionReasonLength {
		return fmt.Errorf("rejection reason must be at most %d characters", maxRejectionReasonLength)
	}
	return nil
}

// ValidateTeamSlug validates team slug format and reserved names.
func ValidateTeamSlug(slug string) error {
	if !teamSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 3-24 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedTeamSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}
