package recordservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"estate_admin_backend/internal/leads/domain"
)

// The primary lead record is owned by a delegated collaborator contract.
// This file implements that contract over the same backend so the
// composition root has a default to inject; the engine only ever sees the
// interface.

// ListLeads fetches the full lead collection.
func (c *Client) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := c.do(ctx, http.MethodGet, "/leads", nil, &leads)
	return leads, err
}

// ListProjects fetches the project references used to resolve
// interestedProjectId.
func (c *Client) ListProjects(ctx context.Context) ([]domain.ProjectRef, error) {
	var projects []domain.ProjectRef
	err := c.do(ctx, http.MethodGet, "/projects", nil, &projects)
	return projects, err
}

// CreateLeadParams is the lead creation body.
type CreateLeadParams struct {
	Name                string                `json:"name"`
	Phone               string                `json:"phone"`
	Email               string                `json:"email,omitempty"`
	Status              domain.LeadStatus     `json:"status"`
	Priority            domain.LeadPriority   `json:"priority,omitempty"`
	Source              domain.LeadSource     `json:"leadSource,omitempty"`
	InvestmentGoal      domain.InvestmentGoal `json:"investmentGoal,omitempty"`
	BudgetRange         string                `json:"budgetRange,omitempty"`
	Notes               string                `json:"notes,omitempty"`
	Tags                []string              `json:"tags,omitempty"`
	InterestedProjectID string                `json:"interestedProjectId,omitempty"`
}

// CreateLead creates a new lead record.
func (c *Client) CreateLead(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	var lead domain.Lead
	err := c.do(ctx, http.MethodPost, "/leads", params, &lead)
	return lead, err
}

// UpdateLeadParams is a partial lead update; nil fields stay untouched.
// Each mutation is one discrete round trip, never a batched diff across
// leads.
type UpdateLeadParams struct {
	Name                *string                `json:"name,omitempty"`
	Phone               *string                `json:"phone,omitempty"`
	Email               *string                `json:"email,omitempty"`
	Status              *domain.LeadStatus     `json:"status,omitempty"`
	Priority            *domain.LeadPriority   `json:"priority,omitempty"`
	Source              *domain.LeadSource     `json:"leadSource,omitempty"`
	InvestmentGoal      *domain.InvestmentGoal `json:"investmentGoal,omitempty"`
	BudgetRange         *string                `json:"budgetRange,omitempty"`
	Notes               *string                `json:"notes,omitempty"`
	Tags                *[]string              `json:"tags,omitempty"`
	InterestedProjectID *string                `json:"interestedProjectId,omitempty"`
}

// UpdateLead applies a partial update to one lead.
func (c *Client) UpdateLead(ctx context.Context, leadID string, params UpdateLeadParams) (domain.Lead, error) {
	var lead domain.Lead
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/leads/%s", url.PathEscape(leadID)), params, &lead)
	return lead, err
}
