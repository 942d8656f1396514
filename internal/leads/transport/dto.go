// Package transport defines the request and response DTOs of the leads
// module.
package transport

import (
	"estate_admin_backend/internal/leads/domain"
)

// Request DTOs

type CreateLeadRequest struct {
	Name                string   `json:"name" validate:"required,min=1,max=100"`
	Phone               string   `json:"phone" validate:"required,phone_chars,min=5,max=20"`
	Email               string   `json:"email,omitempty" validate:"omitempty,email"`
	Priority            string   `json:"priority,omitempty" validate:"omitempty,oneof=urgent high medium low"`
	Source              string   `json:"leadSource,omitempty" validate:"omitempty,oneof=website facebook instagram google referral phone whatsapp other"`
	InvestmentGoal      string   `json:"investmentGoal,omitempty" validate:"omitempty,oneof=investment residence vacation"`
	BudgetRange         string   `json:"budgetRange,omitempty" validate:"max=100"`
	Notes               string   `json:"notes,omitempty" validate:"max=2000"`
	Tags                []string `json:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
	InterestedProjectID string   `json:"interestedProjectId,omitempty" validate:"max=100"`
}

type UpdateLeadRequest struct {
	Name                *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone               *string   `json:"phone,omitempty" validate:"omitempty,phone_chars,min=5,max=20"`
	Email               *string   `json:"email,omitempty" validate:"omitempty,email"`
	Priority            *string   `json:"priority,omitempty" validate:"omitempty,oneof=urgent high medium low"`
	Source              *string   `json:"leadSource,omitempty" validate:"omitempty,oneof=website facebook instagram google referral phone whatsapp other"`
	InvestmentGoal      *string   `json:"investmentGoal,omitempty" validate:"omitempty,oneof=investment residence vacation"`
	BudgetRange         *string   `json:"budgetRange,omitempty" validate:"omitempty,max=100"`
	Notes               *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Tags                *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=50"`
	InterestedProjectID *string   `json:"interestedProjectId,omitempty" validate:"omitempty,max=100"`
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified meeting negotiation closed_won closed_lost"`
}

type ListLeadsRequest struct {
	Search   string `form:"search" validate:"max=100"`
	Status   string `form:"status" validate:"omitempty,oneof=all new contacted qualified meeting negotiation closed_won closed_lost"`
	Priority string `form:"priority" validate:"omitempty,oneof=all urgent high medium low"`
	Source   string `form:"source" validate:"omitempty,oneof=all website facebook instagram google referral phone whatsapp other"`
	// Selected carries the deep-link lead id; it opens the detail view at
	// most once per session.
	Selected string `form:"selected" validate:"max=100"`
}

type BulkStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted qualified meeting negotiation closed_won closed_lost"`
}

type ImportLeadsRequest struct {
	Text string `json:"text" validate:"required"`
}

type AddTagRequest struct {
	Tag string `json:"tag" validate:"required,min=1,max=50"`
}

type CreateNoteRequest struct {
	Type    string `json:"type,omitempty" validate:"omitempty,oneof=note call email status_change"`
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

type CreateReminderRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=200"`
	DueDate string `json:"dueDate" validate:"required"`
}

type CompleteReminderRequest struct {
	IsCompleted bool `json:"isCompleted"`
}

// Response DTOs

type LeadResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Phone               string   `json:"phone"`
	Email               string   `json:"email,omitempty"`
	Status              string   `json:"status"`
	StatusLabel         string   `json:"statusLabel"`
	Priority            string   `json:"priority,omitempty"`
	Source              string   `json:"leadSource,omitempty"`
	InvestmentGoal      string   `json:"investmentGoal,omitempty"`
	BudgetRange         string   `json:"budgetRange,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	Tags                []string `json:"tags"`
	InterestedProjectID string   `json:"interestedProjectId,omitempty"`
	CreatedAt           string   `json:"createdAt,omitempty"`
}

// ToLeadResponse shapes a domain lead for the wire; tags are normalized
// here, at the read site.
func ToLeadResponse(lead domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                  lead.ID,
		Name:                lead.Name,
		Phone:               lead.Phone,
		Email:               lead.Email,
		Status:              string(lead.Status),
		StatusLabel:         lead.Status.Label(),
		Priority:            string(lead.Priority),
		Source:              string(lead.Source),
		InvestmentGoal:      string(lead.InvestmentGoal),
		BudgetRange:         lead.BudgetRange,
		Notes:               lead.Notes,
		Tags:                domain.ParseTags(lead.Tags),
		InterestedProjectID: lead.InterestedProjectID,
		CreatedAt:           lead.CreatedAt,
	}
}

type ListLeadsResponse struct {
	Items []LeadResponse `json:"items"`
	Stats LeadStats      `json:"stats"`
	// Selected is set when a deep-linked lead was auto-opened.
	Selected *LeadDetailResponse `json:"selected,omitempty"`
}

// LeadStats summarizes the unfiltered collection.
type LeadStats struct {
	Total    int `json:"total"`
	New      int `json:"new"`
	ThisWeek int `json:"thisWeek"`
}

type LeadDetailResponse struct {
	Lead      LeadResponse      `json:"lead"`
	Notes     []domain.Note     `json:"notes"`
	Reminders []domain.Reminder `json:"reminders"`
}

type BulkResultResponse struct {
	Requested int      `json:"requested"`
	FailedIDs []string `json:"failedIds,omitempty"`
}
