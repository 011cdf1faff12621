package service

import (
	"regexp"
	"strings"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces     = regexp.MustCompile(`[ ]+`)
)

const slugMaxLen = 100

// Slugify derives the URL-safe identifier for a post title: lowercase,
// strip everything outside [a-z0-9 -], collapse runs of spaces into a
// single hyphen, cap at 100 chars.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugDisallowed.ReplaceAllString(slug, "")
	slug = strings.TrimSpace(slug)
	slug = slugSpaces.ReplaceAllString(slug, "-")

	if len(slug) > slugMaxLen {
		slug = slug[:slugMaxLen]
		slug = strings.TrimRight(slug, "-")
	}

	if slug == "" {
		slug = "post"
	}

	return slug
}
