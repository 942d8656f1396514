// Package pipeline narrows and orders a lead collection for display.
// All functions are pure; they never mutate the input slice.
package pipeline

import (
	"sort"
	"strings"

	"estate_admin_backend/internal/leads/domain"
)

// FilterAll is the sentinel that disables an equality filter.
const FilterAll = "all"

// Filters carries the user's current narrowing choices. Zero values and
// FilterAll both mean "no restriction".
type Filters struct {
	Search   string
	Status   string
	Priority string
	Source   string
}

// Apply filters the collection and returns a new slice ordered by priority
// rank (urgent first) with createdAt descending as the tie-break. The
// individual filters commute; they are applied search → status → priority →
// source for clarity only.
func Apply(leads []domain.Lead, f Filters) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if !matchesSearch(lead, f.Search) {
			continue
		}
		if !matchesChoice(string(lead.Status), f.Status) {
			continue
		}
		if !matchesChoice(string(lead.Priority), f.Priority) {
			continue
		}
		if !matchesChoice(string(lead.Source), f.Source) {
			continue
		}
		out = append(out, lead)
	}

	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].CreatedTime().After(out[j].CreatedTime())
	})

	return out
}

// matchesSearch does a case-insensitive substring match against name,
// email, phone and every normalized tag.
func matchesSearch(lead domain.Lead, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}

	for _, field := range []string{lead.Name, lead.Email, lead.Phone} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}

	for _, tag := range domain.ParseTags(lead.Tags) {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}

	return false
}

func matchesChoice(value, choice string) bool {
	if choice == "" || choice == FilterAll {
		return true
	}
	return value == choice
}
