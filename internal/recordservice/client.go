// Package recordservice provides the JSON-over-HTTP client for the backend
// that owns lead, note and reminder persistence. Lead creation and update
// are delegated collaborators elsewhere; this client covers the
// sub-resources and lead deletion.
package recordservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"estate_admin_backend/internal/leads/domain"
	"estate_admin_backend/platform/apperr"
	"estate_admin_backend/platform/logger"
)

const csrfHeader = "X-CSRF-Token"

// Client is the Record Service HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	log        *logger.Logger
}

// New creates a Record Service client. The TokenSource is session-scoped
// and injected here rather than re-fetched inside each call.
func New(baseURL string, timeout time.Duration, tokens TokenSource, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		log:        log,
	}
}

// ListNotes fetches the notes of a lead.
func (c *Client) ListNotes(ctx context.Context, leadID string) ([]domain.Note, error) {
	var notes []domain.Note
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leads/%s/notes", url.PathEscape(leadID)), nil, &notes)
	return notes, err
}

// ListReminders fetches the reminders of a lead.
func (c *Client) ListReminders(ctx context.Context, leadID string) ([]domain.Reminder, error) {
	var reminders []domain.Reminder
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leads/%s/reminders", url.PathEscape(leadID)), nil, &reminders)
	return reminders, err
}

// CreateNoteParams is the note creation body.
type CreateNoteParams struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	CreatedBy string `json:"createdBy"`
}

// CreateNote adds a note to a lead.
func (c *Client) CreateNote(ctx context.Context, leadID string, params CreateNoteParams) (domain.Note, error) {
	var note domain.Note
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/leads/%s/notes", url.PathEscape(leadID)), params, &note)
	return note, err
}

// DeleteNote removes a note by id.
func (c *Client) DeleteNote(ctx context.Context, noteID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/notes/%s", url.PathEscape(noteID)), nil, nil)
}

// CreateReminderParams is the reminder creation body.
type CreateReminderParams struct {
	DueDate   string `json:"dueDate"`
	Title     string `json:"title"`
	CreatedBy string `json:"createdBy"`
}

// CreateReminder adds a reminder to a lead.
func (c *Client) CreateReminder(ctx context.Context, leadID string, params CreateReminderParams) (domain.Reminder, error) {
	var reminder domain.Reminder
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/leads/%s/reminders", url.PathEscape(leadID)), params, &reminder)
	return reminder, err
}

// CompleteReminderParams marks a reminder done (or not).
type CompleteReminderParams struct {
	IsCompleted bool   `json:"isCompleted"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// UpdateReminder updates a reminder's completion state.
func (c *Client) UpdateReminder(ctx context.Context, reminderID string, params CompleteReminderParams) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/reminders/%s", url.PathEscape(reminderID)), params, nil)
}

// DeleteReminder removes a reminder by id.
func (c *Client) DeleteReminder(ctx context.Context, reminderID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/reminders/%s", url.PathEscape(reminderID)), nil, nil)
}

// DeleteLead removes a lead by id.
func (c *Client) DeleteLead(ctx context.Context, leadID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/leads/%s", url.PathEscape(leadID)), nil, nil)
}

// Ping verifies the Record Service is reachable. The anti-forgery token
// endpoint is the cheapest route that always exists.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/csrf-token", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "encode request", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if method != http.MethodGet {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			c.log.RecordServiceError("csrf_token", "", err)
			return apperr.Wrap(apperr.KindUnavailable, "could not obtain security token", err)
		}
		req.Header.Set(csrfHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.RecordServiceError(method+" "+path, "", err)
		return apperr.Wrap(apperr.KindUnavailable, "record service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// continue to decode
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound("record not found")
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusUnauthorized:
		return apperr.Unauthorized("record service rejected the request")
	default:
		c.log.RecordServiceError(method+" "+path, "", fmt.Errorf("status %d", resp.StatusCode))
		return apperr.Unavailable(fmt.Sprintf("record service error: status %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "decode response", err)
	}
	return nil
}
