// ABOUTME: Maps platform label identifiers to display labels
// ABOUTME: Handles _$!<Mobile>!$_ style keys, vCard TYPE tokens and Google types
package labels

import (
	"strings"
)

const (
	platformPrefix = "_$!<"
	platformSuffix = ">!$_"
)

// known maps a normalised raw label (lower case, no spaces) to its display form.
var known = map[string]string{
	"mobile":      "mobile",
	"cell":        "mobile",
	"home":        "home",
	"work":        "work",
	"school":      "school",
	"iphone":      "iPhone",
	"applewatch":  "Apple Watch",
	"main":        "main",
	"homefax":     "home Fax",
	"workfax":     "work Fax",
	"pager":       "pager",
	"other":       "other",
	"homepage":    "homepage",
	"icloud":      "iCloud",
	"messenger":   "Messenger",
	"slack":       "Slack",
	"twitter":     "Twitter AKA (X)",
	"x":           "Twitter AKA (X)",
	"facebook":    "Facebook",
	"flickr":      "Flickr",
	"linkedin":    "LinkedIn",
	"myspace":     "Myspace",
	"sinaweibo":   "Sina Weibo",
	"googlevoice": "Google Voice",
}

// Localize converts a raw label identifier from a contact source into the display
// string stored on a LabeledValue. It understands the address-book form "_$!<Home>!$_"
// as well as bare tokens such as "cell" or "homeFax". Unknown labels are returned
// trimmed; unknown address-book identifiers are lower-cased.
func Localize(raw string) string {
	label := strings.TrimSpace(raw)
	wrapped := false
	if strings.HasPrefix(label, platformPrefix) && strings.HasSuffix(label, platformSuffix) {
		label = label[len(platformPrefix) : len(label)-len(platformSuffix)]
		wrapped = true
	}
	key := strings.ToLower(strings.ReplaceAll(label, " ", ""))
	if display, ok := known[key]; ok {
		return display
	}
	if wrapped {
		return strings.ToLower(label)
	}
	return label
}
