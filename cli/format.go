// ABOUTME: Text rendering helpers shared by the people commands
// ABOUTME: Prints a person's fields and labeled values in a stable order
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/contactshq/models"
)

var categoryTitles = map[models.Category]string{
	models.CategoryPhoneNumber:   "Phone",
	models.CategoryEmail:         "Email",
	models.CategorySocialProfile: "Social",
	models.CategoryPostalAddress: "Address",
	models.CategoryURL:           "URL",
	models.CategoryRelation:      "Relation",
}

func printPerson(w io.Writer, p *models.Person) {
	_, _ = fmt.Fprintf(w, "%s\n", p.FullName())
	_, _ = fmt.Fprintf(w, "  ID:        %s\n", p.ID())
	_, _ = fmt.Fprintf(w, "  Type:      %s\n", p.Type)
	if c := models.Deref(p.Company); c != "" {
		_, _ = fmt.Fprintf(w, "  Company:   %s\n", c)
	}
	if p.PreferredLanguage != nil {
		_, _ = fmt.Fprintf(w, "  Language:  %s\n", *p.PreferredLanguage)
	}
	if len(p.Availability) > 0 {
		tags := make([]string, len(p.Availability))
		for i, a := range p.Availability {
			tags[i] = string(a)
		}
		_, _ = fmt.Fprintf(w, "  Available: %s\n", strings.Join(tags, ", "))
	}
	if p.Birthday != nil {
		_, _ = fmt.Fprintf(w, "  Birthday:  %s\n", p.Birthday.Format(time.DateOnly))
	}
	if len(p.Groups) > 0 {
		_, _ = fmt.Fprintf(w, "  Groups:    %s\n", strings.Join(p.Groups, ", "))
	}

	for _, cat := range models.Categories {
		values := p.Values(cat)
		if len(values) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n  %s:\n", categoryTitles[cat])
		for _, v := range values {
			_, _ = fmt.Fprintf(w, "    %-14s %s\n", orDash(v.LabelText()), v.Value)
		}
	}

	if n := models.Deref(p.Note); n != "" {
		_, _ = fmt.Fprintf(w, "\n  Note: %s\n", n)
	}
	if p.ExternalID != "" {
		_, _ = fmt.Fprintf(w, "\n  Imported from: %s\n", p.ExternalID)
	}
}

func firstValue(values []models.LabeledValue) string {
	for _, v := range values {
		if !v.IsBlank() {
			return v.Value
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
