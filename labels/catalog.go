// ABOUTME: Canonical label catalogs per labeled-value category
// ABOUTME: Picks the next unused label for a new row and recognises custom labels
package labels

import (
	"slices"

	"github.com/harperreed/contactshq/models"
)

var catalogs = map[models.Category][]string{
	models.CategoryPhoneNumber: {
		"mobile", "home", "work", "school", "iPhone", "Apple Watch",
		"main", "home Fax", "work Fax", "pager", "other",
	},
	models.CategoryEmail:         {"home", "work", "school", "iCloud", "other"},
	models.CategoryURL:           {"homepage", "home", "work", "school", "other"},
	models.CategoryPostalAddress: {"home", "work", "school", "other"},
	models.CategorySocialProfile: {
		"Messenger", "Slack", "Twitter AKA (X)", "Facebook",
		"Flickr", "LinkedIn", "Myspace", "Sina Weibo",
	},
	// Relations have no fixed catalog; every relation label is custom text.
	models.CategoryRelation: nil,
}

// Catalog returns a copy of the canonical labels for the category, in offer order.
func Catalog(cat models.Category) []string {
	return slices.Clone(catalogs[cat])
}

// NextLabel returns the first catalog label not already in existing, or "" once every
// catalog label is taken. Numbered duplicates are never synthesised.
func NextLabel(cat models.Category, existing []string) string {
	for _, label := range catalogs[cat] {
		if !slices.Contains(existing, label) {
			return label
		}
	}
	return ""
}

// IsCanonical reports whether label is one of the category's catalog entries.
// Anything else is shown in the editor as custom text.
func IsCanonical(cat models.Category, label string) bool {
	return slices.Contains(catalogs[cat], label)
}

// UsedLabels collects the label text of values, treating absent labels as "".
func UsedLabels(values []models.LabeledValue) []string {
	used := make([]string, len(values))
	for i, v := range values {
		used[i] = v.LabelText()
	}
	return used
}
