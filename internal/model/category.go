package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a report category id as emitted by the analyzer
// (for example "performance" or "best-practices").
type Category string

// Categories built into Lighthouse.
const (
	CategoryPerformance   Category = "performance"
	CategoryAccessibility Category = "accessibility"
	CategoryBestPractices Category = "best-practices"
	CategorySEO           Category = "seo"
	CategoryPWA           Category = "pwa"
)

// ErrInvalidCategory is returned by ParseCategory for malformed ids.
var ErrInvalidCategory = errors.New("invalid category id")

var categoryIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// knownTitles holds display names whose casing cannot be derived from the id.
var knownTitles = map[Category]string{
	CategorySEO: "SEO",
	CategoryPWA: "PWA",
}

// ParseCategory validates a category id. Plugin categories are accepted as
// long as the id is lowercase letters, digits and hyphens.
func ParseCategory(s string) (Category, error) {
	id := strings.ToLower(strings.TrimSpace(s))
	if !categoryIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return Category(id), nil
}

// ParseCategories parses a list of ids, dropping duplicates while keeping
// the first occurrence order.
func ParseCategories(ids []string) ([]Category, error) {
	seen := make(map[Category]bool, len(ids))
	out := make([]Category, 0, len(ids))
	for _, s := range ids {
		c, err := ParseCategory(s)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Title returns the human readable name used in column labels,
// e.g. "Performance" or "Best Practices".
func (c Category) Title() string {
	if t, ok := knownTitles[c]; ok {
		return t
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "-", " "))
}

// String returns the category id.
func (c Category) String() string {
	return string(c)
}
