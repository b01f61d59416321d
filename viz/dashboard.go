// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarises the address book by type, availability, groups and upcoming birthdays
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/contactshq/models"
)

type DashboardStats struct {
	TotalPeople    int
	ByType         map[models.PersonType]int
	ByAvailability map[models.Availability]int
	TopGroups      []GroupCount
	Imported       int

	UpcomingBirthdays []Birthday

	// Needs attention
	Unreachable []string
}

type GroupCount struct {
	Group string
	Count int
}

type Birthday struct {
	Name    string
	Date    time.Time
	InDays  int
	Turning int
}

const (
	birthdayWindowDays = 30
	topGroupCount      = 5
)

// GenerateDashboardStats computes stats for people relative to now.
func GenerateDashboardStats(people []*models.Person, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		TotalPeople:    len(people),
		ByType:         make(map[models.PersonType]int),
		ByAvailability: make(map[models.Availability]int),
	}

	groups := map[string]int{}
	today := models.DateOnly(now)
	for _, p := range people {
		stats.ByType[p.Type]++
		for _, a := range p.Availability {
			stats.ByAvailability[a]++
		}
		for _, g := range p.Groups {
			groups[g]++
		}
		if p.ExternalID != "" {
			stats.Imported++
		}
		if len(models.DropBlank(p.PhoneNumbers)) == 0 && len(models.DropBlank(p.EmailAddresses)) == 0 {
			stats.Unreachable = append(stats.Unreachable, p.FullName())
		}
		if p.Birthday != nil {
			next := nextBirthday(*p.Birthday, today)
			if days := int(next.Sub(today).Hours() / 24); days <= birthdayWindowDays {
				stats.UpcomingBirthdays = append(stats.UpcomingBirthdays, Birthday{
					Name:    p.FullName(),
					Date:    next,
					InDays:  days,
					Turning: next.Year() - p.Birthday.Year(),
				})
			}
		}
	}

	for g, n := range groups {
		stats.TopGroups = append(stats.TopGroups, GroupCount{Group: g, Count: n})
	}
	sort.Slice(stats.TopGroups, func(i, j int) bool {
		if stats.TopGroups[i].Count != stats.TopGroups[j].Count {
			return stats.TopGroups[i].Count > stats.TopGroups[j].Count
		}
		return stats.TopGroups[i].Group < stats.TopGroups[j].Group
	})
	if len(stats.TopGroups) > topGroupCount {
		stats.TopGroups = stats.TopGroups[:topGroupCount]
	}
	sort.SliceStable(stats.UpcomingBirthdays, func(i, j int) bool {
		return stats.UpcomingBirthdays[i].InDays < stats.UpcomingBirthdays[j].InDays
	})
	sort.Strings(stats.Unreachable)
	return stats
}

// nextBirthday is the first anniversary of birthday on or after today.
// A Feb 29 birthday falls on Mar 1 in other years.
func nextBirthday(birthday, today time.Time) time.Time {
	next := time.Date(today.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(today.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	}
	return next
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  CONTACTSHQ DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PEOPLE BY TYPE\n")
	renderBars(&out, stats.TotalPeople, func(yield func(string, int)) {
		for _, t := range models.PersonTypes {
			yield(string(t), stats.ByType[t])
		}
	})
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d people  %d imported  %d groups\n\n",
		stats.TotalPeople, stats.Imported, len(stats.TopGroups)))

	if len(stats.ByAvailability) > 0 {
		out.WriteString("AVAILABILITY\n")
		renderBars(&out, stats.TotalPeople, func(yield func(string, int)) {
			for _, a := range models.Availabilities {
				yield(string(a), stats.ByAvailability[a])
			}
		})
		out.WriteString("\n")
	}

	if len(stats.TopGroups) > 0 {
		out.WriteString("TOP GROUPS\n")
		for _, g := range stats.TopGroups {
			out.WriteString(fmt.Sprintf("  %-20s %d\n", g.Group, g.Count))
		}
		out.WriteString("\n")
	}

	if len(stats.UpcomingBirthdays) > 0 {
		out.WriteString("UPCOMING BIRTHDAYS\n")
		for _, b := range stats.UpcomingBirthdays {
			when := fmt.Sprintf("in %d days", b.InDays)
			switch b.InDays {
			case 0:
				when = "today"
			case 1:
				when = "tomorrow"
			}
			out.WriteString(fmt.Sprintf("  %-20s %s (%s)\n", b.Name, b.Date.Format("Jan 2"), when))
		}
		out.WriteString("\n")
	}

	if len(stats.Unreachable) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d people have no phone number or email\n", len(stats.Unreachable)))
	}

	return out.String()
}

func renderBars(out *strings.Builder, total int, rows func(yield func(string, int))) {
	if total == 0 {
		total = 1
	}
	rows(func(name string, count int) {
		if count == 0 {
			return
		}
		barLength := (count * 10) / total
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d\n", name, bar, count))
	})
}
