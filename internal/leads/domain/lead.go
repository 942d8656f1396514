// Package domain holds the lead model and pure rules for the leads
// bounded context.
package domain

import (
	"encoding/json"
	"time"
)

// LeadStatus enumerates the lead lifecycle states.
type LeadStatus string

const (
	StatusNew         LeadStatus = "new"
	StatusContacted   LeadStatus = "contacted"
	StatusQualified   LeadStatus = "qualified"
	StatusMeeting     LeadStatus = "meeting"
	StatusNegotiation LeadStatus = "negotiation"
	StatusClosedWon   LeadStatus = "closed_won"
	StatusClosedLost  LeadStatus = "closed_lost"
)

// LeadPriority enumerates lead urgency levels.
type LeadPriority string

const (
	PriorityUrgent LeadPriority = "urgent"
	PriorityHigh   LeadPriority = "high"
	PriorityMedium LeadPriority = "medium"
	PriorityLow    LeadPriority = "low"
)

// LeadSource enumerates where a lead came from.
type LeadSource string

const (
	SourceWebsite   LeadSource = "website"
	SourceFacebook  LeadSource = "facebook"
	SourceInstagram LeadSource = "instagram"
	SourceGoogle    LeadSource = "google"
	SourceReferral  LeadSource = "referral"
	SourcePhone     LeadSource = "phone"
	SourceWhatsapp  LeadSource = "whatsapp"
	SourceOther     LeadSource = "other"
)

// InvestmentGoal enumerates what the prospect is buying for.
type InvestmentGoal string

const (
	GoalInvestment InvestmentGoal = "investment"
	GoalResidence  InvestmentGoal = "residence"
	GoalVacation   InvestmentGoal = "vacation"
)

// Display labels. The admin UI is Hebrew-facing; CSV export and the
// status-change audit note embed these.
var (
	statusLabels = map[LeadStatus]string{
		StatusNew:         "חדש",
		StatusContacted:   "נוצר קשר",
		StatusQualified:   "מתאים",
		StatusMeeting:     "פגישה",
		StatusNegotiation: "משא ומתן",
		StatusClosedWon:   "נסגר בהצלחה",
		StatusClosedLost:  "לא רלוונטי",
	}

	priorityLabels = map[LeadPriority]string{
		PriorityUrgent: "דחוף",
		PriorityHigh:   "גבוה",
		PriorityMedium: "בינוני",
		PriorityLow:    "נמוך",
	}

	sourceLabels = map[LeadSource]string{
		SourceWebsite:   "אתר",
		SourceFacebook:  "פייסבוק",
		SourceInstagram: "אינסטגרם",
		SourceGoogle:    "גוגל",
		SourceReferral:  "המלצה",
		SourcePhone:     "טלפון",
		SourceWhatsapp:  "וואטסאפ",
		SourceOther:     "אחר",
	}

	goalLabels = map[InvestmentGoal]string{
		GoalInvestment: "השקעה",
		GoalResidence:  "מגורים",
		GoalVacation:   "נופש",
	}
)

// Label returns the display label for a status, falling back to the raw value.
func (s LeadStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the status is a known lifecycle state.
func (s LeadStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the display label for a priority, falling back to the raw value.
func (p LeadPriority) Label() string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return string(p)
}

// Rank orders priorities for sorting: urgent first, missing last.
func (p LeadPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Label returns the display label for a source, falling back to the raw value.
func (s LeadSource) Label() string {
	if label, ok := sourceLabels[s]; ok {
		return label
	}
	return string(s)
}

// Label returns the display label for an investment goal, falling back to the raw value.
func (g InvestmentGoal) Label() string {
	if label, ok := goalLabels[g]; ok {
		return label
	}
	return string(g)
}

// Lead represents one prospective customer inquiry. The ID is assigned by
// the Record Service and is opaque to this engine. Tags keeps the raw wire
// shape; read through ParseTags at every use site.
type Lead struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Phone               string         `json:"phone"`
	Email               string         `json:"email,omitempty"`
	Status              LeadStatus     `json:"status"`
	Priority            LeadPriority   `json:"priority,omitempty"`
	Source              LeadSource     `json:"leadSource,omitempty"`
	InvestmentGoal      InvestmentGoal `json:"investmentGoal,omitempty"`
	BudgetRange         string         `json:"budgetRange,omitempty"`
	Notes               string         `json:"notes,omitempty"`
	Tags                any            `json:"tags,omitempty"`
	InterestedProjectID string         `json:"interestedProjectId,omitempty"`
	CreatedAt           string         `json:"createdAt,omitempty"`
}

// CreatedTime parses the CreatedAt wire value. Unparseable or missing
// timestamps resolve to the Unix epoch so they sort oldest.
func (l Lead) CreatedTime() time.Time {
	if l.CreatedAt == "" {
		return time.Unix(0, 0).UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, l.CreatedAt); err == nil {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// ParseTags coerces the heterogeneous stored tags shape into a string list.
// The source systems have written tags as a native list, a JSON-encoded
// string, or not at all; nothing normalizes them at rest, so every read
// site goes through here. Malformed input degrades to an empty list and
// never fails.
func ParseTags(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		var parsed []string
		if err := json.Unmarshal([]byte(v), &parsed); err != nil {
			return []string{}
		}
		return parsed
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return []string{}
		}
		if _, isString := decoded.(string); isString {
			// A JSON string holding an encoded list; unwrap one level.
			return ParseTags(decoded)
		}
		if list, isList := decoded.([]any); isList {
			return ParseTags(list)
		}
		return []string{}
	default:
		return []string{}
	}
}

// HasTag reports whether the lead already carries the given tag.
// Duplicate tags are rejected at add time, not at storage level.
func (l Lead) HasTag(tag string) bool {
	for _, existing := range ParseTags(l.Tags) {
		if existing == tag {
			return true
		}
	}
	return false
}

// ProjectRef is the weak reference target for InterestedProjectID. The
// engine never owns the full Project record, only its id and name.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResolveProjectName looks up a project name by id. Unresolved ids map to
// the empty string.
func ResolveProjectName(projects []ProjectRef, id string) string {
	if id == "" {
		return ""
	}
	for _, p := range projects {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

// Note is a secondary record owned by a lead.
type Note struct {
	ID        string `json:"id"`
	LeadID    string `json:"leadId"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// NoteTypeStatusChange marks the synthetic audit note written after every
// successful status update.
const NoteTypeStatusChange = "status_change"

// Reminder is a secondary record owned by a lead.
type Reminder struct {
	ID          string `json:"id"`
	LeadID      string `json:"leadId"`
	Title       string `json:"title"`
	DueDate     string `json:"dueDate"`
	IsCompleted bool   `json:"isCompleted"`
	CompletedAt string `json:"completedAt,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
}
