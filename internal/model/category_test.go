package model

import (
	"errors"
	"testing"
)

// TestCategoryTitle tests display names used in column labels.
func TestCategoryTitle(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		category Category
		expected string
	}{
		{CategoryPerformance, "Performance"},
		{CategoryAccessibility, "Accessibility"},
		{CategoryBestPractices, "Best Practices"},
		{CategorySEO, "SEO"},
		{CategoryPWA, "PWA"},
		{Category("lighthouse-plugin-field-data"), "Lighthouse Plugin Field Data"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(string(tc.category), func(t *testing.T) {
			t.Parallel()
			if got := tc.category.Title(); got != tc.expected {
				t.Errorf("Title() = %q, expected %q", got, tc.expected)
			}
		})
	}
}

// TestParseCategories tests id validation and de-duplication.
func TestParseCategories(t *testing.T) {
	t.Parallel()

	t.Run("normalizes case and drops duplicates", func(t *testing.T) {
		t.Parallel()

		got, err := ParseCategories([]string{"Performance", "seo", "performance"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[0] != CategoryPerformance || got[1] != CategorySEO {
			t.Errorf("unexpected categories: %v", got)
		}
	})

	t.Run("rejects malformed ids", func(t *testing.T) {
		t.Parallel()

		_, err := ParseCategories([]string{"performance", "best practices"})
		if !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("expected ErrInvalidCategory, got %v", err)
		}
	})
}
